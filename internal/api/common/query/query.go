package query

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"foresight-api-server/internal/utils"
)

// parseQuery captures the raw window parameters before validation.
type parseQuery struct {
	StartTime string `query:"start,omitempty" json:"-"`
	EndTime   string `query:"end,omitempty" json:"-"`
}

type Query struct {
	ID        string
	Scope     string
	StartTime time.Time
	EndTime   time.Time
}

func (q parseQuery) ParseAndValidate(c *fiber.Ctx, scopeParam string, defaultSpan time.Duration) (Query, error) {
	var (
		id    = c.Locals("requestid").(string)
		scope = c.Params(scopeParam, "")
	)

	startTime, endTime, err := utils.ParseQueryTime(q.StartTime, q.EndTime, defaultSpan)
	if err != nil {
		return Query{}, err
	}

	if startTime.After(endTime) {
		return Query{}, errors.New("the end time should be after the start time")
	}

	return Query{
		ID:        id,
		Scope:     scope,
		StartTime: startTime,
		EndTime:   endTime,
	}, nil
}

// ParseAndValidate extracts the scope path parameter and the optional
// start/end window, falling back to a window of defaultSpan ending now.
func ParseAndValidate(c *fiber.Ctx, scopeParam string, defaultSpan time.Duration) (Query, error) {
	query := &parseQuery{}
	if err := c.QueryParser(query); err != nil {
		return Query{}, err
	}
	return query.ParseAndValidate(c, scopeParam, defaultSpan)
}
