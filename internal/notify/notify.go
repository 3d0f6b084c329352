package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/containrrr/shoutrrr"
	"go.uber.org/zap"
)

// Notifier posts digests to a chat webhook. http(s) URLs receive a Discord
// style JSON body {"content": ...}; any other scheme is handed to shoutrrr
// (discord://, slack://, telegram://, ...).
type Notifier struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

func NewNotifier(webhookURL string, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		url:    strings.TrimSpace(webhookURL),
		client: &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

var shoutrrrSend = shoutrrr.Send

// Send delivers message and returns the webhook's response body.
func (n *Notifier) Send(ctx context.Context, message string) (string, error) {
	u, err := url.Parse(n.url)
	if err != nil || u.Scheme == "" {
		return "", fmt.Errorf("invalid webhook url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		if err := shoutrrrSend(n.url, message); err != nil {
			n.logger.Error("shoutrrr send failed", zap.String("service", u.Scheme), zap.Error(err))
			return "", err
		}
		return "", nil
	}

	payload, err := json.Marshal(map[string]string{"content": message})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		n.logger.Error("failed to create request", zap.Error(err))
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Error("failed to send notification", zap.Error(err))
		return "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Warn("webhook returned error status", zap.Int("status", resp.StatusCode))
		return string(body), fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return string(body), nil
}
