// Package transport posts form-encoded parameter sets to the logbook
// endpoint and returns raw response bodies.
//
// Failures are reported as Http errors wrapping a *ClassifiedError, which in
// turn wraps the original cause. Bounded retry is opt-in through
// MaxAttempts; the default is a single attempt.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	clienterrors "github.com/qrzlog/qrzlog/client/internal/errors"
)

// DefaultEndpoint is the public logbook API.
const DefaultEndpoint = "https://logbook.qrz.com/api"

// RequestIDHeader carries a per-attempt correlation id.
const RequestIDHeader = "X-Request-ID"

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 64 << 20

// HTTPClient is satisfied by *http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config tunes a Submitter. Zero values select defaults.
type Config struct {
	Endpoint    string
	MaxAttempts int
	BaseBackoff time.Duration
	MaxInterval time.Duration
	Logger      zerolog.Logger
}

// Submitter implements the parameter-map transport over HTTP POST.
type Submitter struct {
	http HTTPClient
	cfg  Config
}

// New returns a Submitter sending through httpClient.
func New(httpClient HTTPClient, cfg Config) *Submitter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 200 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 5 * time.Second
	}
	return &Submitter{http: httpClient, cfg: cfg}
}

// Endpoint returns the URL requests are posted to.
func (s *Submitter) Endpoint() string { return s.cfg.Endpoint }

// Submit posts params and returns the response body. Recoverable failures
// (network errors, 408, 429, 5xx) are retried up to MaxAttempts with
// exponential backoff; everything else fails immediately.
func (s *Submitter) Submit(ctx context.Context, params url.Values) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", clienterrors.HTTP(err)
	}
	action := params.Get("ACTION")
	encoded := params.Encode()

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.cfg.BaseBackoff
	exp.MaxInterval = s.cfg.MaxInterval
	exp.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(s.cfg.MaxAttempts-1)), ctx)

	var (
		body    string
		attempt int
	)
	op := func() error {
		attempt++
		b, err := s.post(ctx, action, encoded, attempt)
		if err != nil {
			if clienterrors.IsIrrecoverable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		body = b
		return nil
	}
	notify := func(err error, wait time.Duration) {
		s.cfg.Logger.Warn().Err(err).Str("action", action).Int("attempt", attempt).Dur("backoff", wait).Msg("retrying request")
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return "", clienterrors.HTTP(err)
	}
	return body, nil
}

func (s *Submitter) post(ctx context.Context, action, form string, attempt int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, strings.NewReader(form))
	if err != nil {
		return "", &clienterrors.ClassifiedError{Category: clienterrors.Irrecoverable, Underlying: err}
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(RequestIDHeader, reqID)

	log := s.cfg.Logger.With().Str("action", action).Str("request_id", reqID).Int("attempt", attempt).Logger()
	start := time.Now()

	resp, err := s.http.Do(req)
	if err != nil {
		log.Debug().Err(err).Msg("request failed")
		return "", clienterrors.NewNetworkError(strings.ToLower(action), err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", clienterrors.NewNetworkError(strings.ToLower(action), fmt.Errorf("read body: %w", err))
	}
	log.Debug().Int("status", resp.StatusCode).Int("bytes", len(raw)).Dur("elapsed", time.Since(start)).Msg("response received")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", clienterrors.NewHTTPError(resp.StatusCode, string(raw), strings.ToLower(action))
	}
	return string(raw), nil
}
