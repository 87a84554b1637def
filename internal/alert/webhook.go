package alert

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/pquerna/ffjson/ffjson"
	"go.uber.org/zap"

	commonerrors "foresight-api-server/internal/api/common/errors"
)

type envConfig struct {
	Timeout time.Duration `env:"ALERT_TIMEOUT" envDefault:"5s"`
}

// Notifier delivers alert payloads to team webhooks. Delivery is
// fire-and-forget: a failed POST is logged and dropped, retry/backoff belongs
// to the webhook transport, not to this engine.
type Notifier struct {
	client *http.Client
	logger *zap.Logger
}

func NewNotifier(logger *zap.Logger) (*Notifier, error) {
	cfg := &envConfig{}
	if err := env.Parse(cfg, env.Options{}); err != nil {
		return nil, err
	}

	return &Notifier{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}, nil
}

// Notify posts the payload asynchronously. Errors never reach the caller.
func (n *Notifier) Notify(url string, payload interface{}) {
	go func() {
		if err := n.send(url, payload); err != nil {
			n.logger.Warn("alert delivery failed", zap.Error(err))
		}
	}()
}

func (n *Notifier) send(url string, payload interface{}) error {
	body, err := ffjson.Marshal(payload)
	if err != nil {
		return commonerrors.AlertDeliveryErr(url, err)
	}

	resp, err := n.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return commonerrors.AlertDeliveryErr(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return commonerrors.AlertDeliveryErr(url, &statusError{code: resp.StatusCode})
	}
	return nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.code, http.StatusText(e.code))
}
