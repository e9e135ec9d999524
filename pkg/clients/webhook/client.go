// Package webhook posts lot lifecycle notifications to an external endpoint,
// typically the mill owner's automation or messaging bridge.
package webhook

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/loomworks/loomledger/internal/config"
)

// Client delivers lot-closed notifications.
type Client interface {
	NotifyLotClosed(ctx context.Context, n LotClosedNotification) error
}

// LotClosedNotification is the JSON body posted to the configured endpoint.
type LotClosedNotification struct {
	LotID      string    `json:"lotId"`
	TakaNumber string    `json:"takaNumber"`
	MachineID  string    `json:"machineId,omitempty"`
	Reason     string    `json:"reason"`
	ClosedAt   time.Time `json:"closedAt"`
}

// HTTPClient is a resty-backed implementation of Client.
type HTTPClient struct {
	httpClient *resty.Client
	url        string
}

// NewClient builds a webhook client from the provided configuration values.
func NewClient(cfg config.WebhookConfig) *HTTPClient {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second)

	if cfg.Token != "" {
		restyClient.SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.Token))
	}

	return &HTTPClient{
		httpClient: restyClient,
		url:        cfg.URL,
	}
}

func (c *HTTPClient) NotifyLotClosed(ctx context.Context, n LotClosedNotification) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(n).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("post lot-closed notification: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("webhook error: status=%d, body=%s", resp.StatusCode(), resp.String())
	}

	return nil
}
