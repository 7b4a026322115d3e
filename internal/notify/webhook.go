package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const defaultWebhookTimeout = 10 * time.Second

var _ Notifier = (*WebhookNotifier)(nil)

type webhookAlert struct {
	Event  string            `json:"event"`
	Error  string            `json:"error,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
	At     time.Time         `json:"at"`
}

// WebhookNotifier posts alerts to an operator-facing webhook endpoint.
type WebhookNotifier struct {
	client   *resty.Client
	endpoint string
	logger   *zap.Logger
	now      func() time.Time
}

func NewWebhookNotifier(endpoint string, logger *zap.Logger) (*WebhookNotifier, error) {
	client := resty.New()
	client.SetTimeout(defaultWebhookTimeout)
	client.SetRetryCount(0)

	return NewWebhookNotifierWithClient(endpoint, client, logger)
}

func NewWebhookNotifierWithClient(endpoint string, client *resty.Client, logger *zap.Logger) (*WebhookNotifier, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("webhook endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid webhook endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultWebhookTimeout)
	}
	client.SetRetryCount(0)

	return &WebhookNotifier{
		client:   client,
		endpoint: trimmedEndpoint,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Alert delivers the event best-effort; a failed delivery is logged and
// swallowed so alerting can never break the operation that raised it.
func (n *WebhookNotifier) Alert(ctx context.Context, event string, cause error, fields map[string]string) {
	body := webhookAlert{
		Event:  event,
		Fields: fields,
		At:     n.now().UTC(),
	}
	if cause != nil {
		body.Error = cause.Error()
	}

	response, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(n.endpoint)
	if err != nil {
		n.logger.Warn("alert webhook delivery failed",
			zap.String("event", event),
			zap.Error(err),
		)
		return
	}

	if response.StatusCode() >= 300 {
		n.logger.Warn("alert webhook rejected",
			zap.String("event", event),
			zap.Int("status", response.StatusCode()),
		)
	}
}
