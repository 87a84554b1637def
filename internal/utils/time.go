package utils

import (
	"time"

	"github.com/araddon/dateparse"
)

func TimeParser(datestr string) (time.Time, error) {
	t, err := dateparse.ParseAny(datestr)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// ParseQueryTime resolves optional start/end query strings against a default
// lookback span ending now.
func ParseQueryTime(startstr, endstr string, defaultSpan time.Duration) (time.Time, time.Time, error) {
	var end = time.Now()
	var start = end.Add(-defaultSpan)
	var err error

	if startstr != "" {
		if start, err = TimeParser(startstr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if endstr != "" {
		if end, err = TimeParser(endstr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, end, nil
}
