// Package webhook delivers signed JSON events to configured HTTP endpoints.
// Each body is signed with HMAC-SHA256 under the endpoint secret and the
// hex digest sent as "X-Webhook-Signature: sha256=<hex>".
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Endpoint is one delivery target.
type Endpoint struct {
	URL    string `json:"url"`
	Secret string `json:"-"`
}

// Event is the JSON body POSTed to every endpoint.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Attempt records the delivery of one event to one endpoint.
type Attempt struct {
	URL        string        `json:"url"`
	EventID    string        `json:"event_id"`
	StatusCode int           `json:"status_code"`
	Duration   time.Duration `json:"duration_ns"`
	Attempts   int           `json:"attempts"`
	Status     string        `json:"status"` // "success" or "failed"
	Error      string        `json:"error,omitempty"`
}

// SignPayload returns the hex HMAC-SHA256 of payload under secret.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature, with or without the
// "sha256=" prefix, matches payload under secret.
func VerifySignature(payload []byte, secret, signature string) bool {
	expected := SignPayload(payload, secret)
	return hmac.Equal([]byte(expected), []byte(strings.TrimPrefix(signature, "sha256=")))
}

// ValidateURL checks that rawURL is an absolute http or https URL.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", rawURL)
	}
	return nil
}

// Endpoints pairs every URL with the shared secret.
func Endpoints(urls []string, secret string) []Endpoint {
	out := make([]Endpoint, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, Endpoint{URL: u, Secret: secret})
		}
	}
	return out
}

// Option configures a Sender.
type Option func(*Sender)

// WithHTTPClient overrides the default HTTP client used for deliveries.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Sender) { s.httpClient = c }
}

// WithMaxRetries sets how many times a failed delivery is retried.
func WithMaxRetries(n int) Option {
	return func(s *Sender) { s.maxRetries = n }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Sender) { s.logger = l }
}

// Sender posts events to a fixed set of endpoints.
type Sender struct {
	endpoints  []Endpoint
	rest       *resty.Client
	httpClient *http.Client
	maxRetries int
	logger     zerolog.Logger
	now        func() time.Time
}

// NewSender validates every endpoint URL.
func NewSender(endpoints []Endpoint, opts ...Option) (*Sender, error) {
	for _, ep := range endpoints {
		if err := ValidateURL(ep.URL); err != nil {
			return nil, err
		}
	}
	s := &Sender{
		endpoints:  endpoints,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		maxRetries: 2,
		logger:     zerolog.Nop(),
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.rest = resty.NewWithClient(s.httpClient).
		SetRetryCount(s.maxRetries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})
	return s, nil
}

// Len returns the number of endpoints.
func (s *Sender) Len() int {
	return len(s.endpoints)
}

// Send wraps payload in an Event of eventType and delivers it to every
// endpoint. The error joins every failed delivery.
func (s *Sender) Send(ctx context.Context, eventType string, payload interface{}) ([]Attempt, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	event := Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: s.now().UTC(),
		Payload:   raw,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	attempts := make([]Attempt, 0, len(s.endpoints))
	var errs []error
	for _, ep := range s.endpoints {
		a := s.deliver(ctx, ep, event, body)
		attempts = append(attempts, a)
		if a.Status != "success" {
			errs = append(errs, fmt.Errorf("deliver %s to %s: %s", event.Type, ep.URL, a.Error))
		}
	}
	return attempts, errors.Join(errs...)
}

func (s *Sender) deliver(ctx context.Context, ep Endpoint, event Event, body []byte) Attempt {
	a := Attempt{URL: ep.URL, EventID: event.ID, Status: "failed"}

	req := s.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Webhook-Event", event.Type).
		SetHeader("X-Webhook-ID", event.ID).
		SetHeader("X-Webhook-Timestamp", event.Timestamp.Format(time.RFC3339)).
		SetBody(body)
	if ep.Secret != "" {
		req.SetHeader("X-Webhook-Signature", "sha256="+SignPayload(body, ep.Secret))
	}

	start := time.Now()
	resp, err := req.Post(ep.URL)
	a.Duration = time.Since(start)
	if resp != nil {
		a.StatusCode = resp.StatusCode()
		a.Attempts = resp.Request.Attempt
	}

	switch {
	case err != nil:
		a.Error = err.Error()
	case a.StatusCode < 200 || a.StatusCode >= 300:
		a.Error = fmt.Sprintf("non-2xx response: %d", a.StatusCode)
	default:
		a.Status = "success"
	}

	ev := s.logger.Info()
	if a.Status != "success" {
		ev = s.logger.Warn().Str("error", a.Error)
	}
	ev.Str("url", ep.URL).
		Str("event", event.Type).
		Int("status", a.StatusCode).
		Int("attempts", a.Attempts).
		Dur("duration", a.Duration).
		Msg("webhook delivery")
	return a
}
