package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"storefront/internal/config"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PushMessage is the payload sent to the push relay for one recipient. The
// idempotency key lets the relay drop replays of the same (user, event) pair.
type PushMessage struct {
	UserID         uuid.UUID `json:"userId"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	IdempotencyKey string    `json:"idempotencyKey"`
}

// Sender delivers push messages to users.
type Sender interface {
	Send(ctx context.Context, msg PushMessage) error
}

// relaySender posts messages to an external push relay over HTTP.
type relaySender struct {
	url    string
	client *http.Client
	logger zerolog.Logger
}

// NewRelaySender creates an HTTP client for the configured push relay.
func NewRelaySender(cfg config.RelayConfig, logger zerolog.Logger) Sender {
	return &relaySender{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "push_relay").Logger(),
	}
}

func (s *relaySender) Send(ctx context.Context, msg PushMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", msg.IdempotencyKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("relay returned status %d", resp.StatusCode)
	}

	return nil
}

// logSender logs messages instead of delivering them. Used when no relay URL
// is configured.
type logSender struct {
	logger zerolog.Logger
}

// NewLogSender returns a Sender that only logs.
func NewLogSender(logger zerolog.Logger) Sender {
	return &logSender{logger: logger.With().Str("component", "log_relay").Logger()}
}

func (s *logSender) Send(_ context.Context, msg PushMessage) error {
	s.logger.Info().
		Str("user_id", msg.UserID.String()).
		Str("title", msg.Title).
		Str("idempotency_key", msg.IdempotencyKey).
		Msg("push relay not configured, message logged only")
	return nil
}
