package notify

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"msgdrop/pkg/logger"
)

// Sink is the outbound notification target. Delivery is best-effort and
// fire-and-forget; errors are surfaced to the Notifier for logging only.
type Sink interface {
	Notify(message string) error
}

// LogSink writes notifications to the server log (mono-mode default).
type LogSink struct{}

func (LogSink) Notify(message string) error {
	logger.Info("notify", "message", message)
	return nil
}

// WebhookSink posts notifications to an external SMS relay. One POST per
// configured recipient number.
type WebhookSink struct {
	URL     string
	Token   string
	Numbers []string
	client  *http.Client
}

func NewWebhookSink(rawurl, token string, numbers []string) *WebhookSink {
	return &WebhookSink{
		URL:     rawurl,
		Token:   token,
		Numbers: numbers,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *WebhookSink) Notify(message string) error {
	var firstErr error
	for _, num := range s.Numbers {
		form := url.Values{"to": {num}, "body": {message}}
		req, err := http.NewRequest(http.MethodPost, s.URL, strings.NewReader(form.Encode()))
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if s.Token != "" {
			req.Header.Set("Authorization", "Bearer "+s.Token)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			if firstErr == nil {
				firstErr = fmt.Errorf("notify webhook returned %d", resp.StatusCode)
			}
		}
	}
	return firstErr
}
