package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/lumehq/lume-backend/internal/platform/envutil"
	"github.com/lumehq/lume-backend/internal/platform/logger"
)

// webhookDeliverer POSTs messages to a channel-specific webhook. Push
// and chat share the transport; only the endpoint and channel differ.
type webhookDeliverer struct {
	log        *logger.Logger
	channel    string
	endpoint   string
	authToken  string
	httpClient *http.Client
}

func NewPushDeliverer(log *logger.Logger) (Deliverer, error) {
	return newWebhookDeliverer(log, ChannelPush, "PUSH_WEBHOOK_URL", "PUSH_WEBHOOK_TOKEN")
}

func NewChatDeliverer(log *logger.Logger) (Deliverer, error) {
	return newWebhookDeliverer(log, ChannelChat, "CHAT_WEBHOOK_URL", "CHAT_WEBHOOK_TOKEN")
}

func newWebhookDeliverer(log *logger.Logger, channel, urlEnv, tokenEnv string) (Deliverer, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	endpoint := strings.TrimSpace(os.Getenv(urlEnv))
	if endpoint == "" {
		return nil, fmt.Errorf("missing %s", urlEnv)
	}

	timeout := envutil.Duration("DELIVERY_TIMEOUT", 10*time.Second)

	return &webhookDeliverer{
		log:        log.With("service", "WebhookDeliverer", "channel", channel),
		channel:    channel,
		endpoint:   endpoint,
		authToken:  strings.TrimSpace(os.Getenv(tokenEnv)),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (d *webhookDeliverer) Channel() string { return d.channel }

func (d *webhookDeliverer) Deliver(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if d.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+d.authToken)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s delivery: %w", d.channel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%s delivery: status %d: %s", d.channel, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}
