// Package sheets is a small Google Sheets v4 values client for the visit
// register. Reads work with an OAuth2 token, with an API key for sheets
// shared by link, or through a public JSON mirror; writes need a token.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL     = "https://sheets.googleapis.com/v4/spreadsheets"
	DefaultFallbackURL = "https://opensheet.elk.sh"

	// Scope is the OAuth2 scope needed for reads and writes.
	Scope = "https://www.googleapis.com/auth/spreadsheets"
)

var (
	// ErrUnauthorized is returned for writes without a token and for 401/403
	// answers from the API.
	ErrUnauthorized = errors.New("sheets: unauthorized")
	// ErrUnavailable covers network failures, 429 and 5xx answers.
	ErrUnavailable = errors.New("sheets: unavailable")
)

// APIError is any other non-2xx answer.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("sheets: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("sheets: %d: %s", e.Status, e.Message)
}

type Config struct {
	SpreadsheetID string
	// SheetName is the tab holding the register, e.g. "Sheet1".
	SheetName string
	// SheetID is the numeric tab id used by row deletion.
	SheetID int64
	APIKey  string
	BaseURL string
	// PublicFallbacks enables the opensheet mirror for unauthenticated reads
	// when the API key read fails.
	PublicFallbacks bool
	FallbackURL     string
	Timeout         time.Duration
	RetryCount      int
}

// Observer receives one call per API request. op is "values", "append",
// "update", "delete" or "fallback"; status is 0 for transport errors.
type Observer interface {
	ObserveSheetsCall(op string, status int, d time.Duration)
}

type Client struct {
	cfg           Config
	rest          *resty.Client
	public        *resty.Client
	authenticated bool
	observer      Observer
	logger        zerolog.Logger
}

type Option func(*Client)

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New builds a client. A nil ts means unauthenticated: reads use the API key
// and writes fail with ErrUnauthorized.
func New(cfg Config, ts oauth2.TokenSource, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.FallbackURL == "" {
		cfg.FallbackURL = DefaultFallbackURL
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Sheet1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	var rest *resty.Client
	if ts != nil {
		// The token source outlives any single request.
		rest = resty.NewWithClient(oauth2.NewClient(context.Background(), ts))
	} else {
		rest = resty.New()
	}
	rest.SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(retryCondition)

	public := resty.New().
		SetBaseURL(cfg.FallbackURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	c := &Client{
		cfg:           cfg,
		rest:          rest,
		public:        public,
		authenticated: ts != nil,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticated reports whether writes are possible.
func (c *Client) Authenticated() bool {
	return c.authenticated
}

// SheetName returns the configured tab name.
func (c *Client) SheetName() string {
	return c.cfg.SheetName
}

// Range returns "<sheet>!<cells>".
func (c *Client) Range(cells string) string {
	return c.cfg.SheetName + "!" + cells
}

// retryCondition retries transport errors, 408, 429 and 5xx. POSTs
// (append, batchUpdate) are not retried.
func retryCondition(r *resty.Response, err error) bool {
	if r != nil && r.Request != nil && r.Request.Method == http.MethodPost {
		return false
	}
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

func (c *Client) observe(op string, resp *resty.Response, start time.Time) {
	if c.observer == nil {
		return
	}
	status := 0
	if resp != nil {
		status = resp.StatusCode()
	}
	c.observer.ObserveSheetsCall(op, status, time.Since(start))
}

type googleError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// check maps a finished request to the package errors.
func check(op string, resp *resty.Response, err error) error {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("sheets %s: %w", op, err)
		}
		return fmt.Errorf("sheets %s: %w: %v", op, ErrUnavailable, err)
	}
	if resp.IsSuccess() {
		return nil
	}

	status := resp.StatusCode()
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}
	if ge, ok := resp.Error().(*googleError); ok && ge.Error.Message != "" {
		apiErr.Code = ge.Error.Status
		apiErr.Message = ge.Error.Message
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("sheets %s: %w: %s", op, ErrUnauthorized, apiErr.Message)
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("sheets %s: %w: %s", op, ErrUnavailable, apiErr.Message)
	default:
		return fmt.Errorf("sheets %s: %w", op, apiErr)
	}
}
