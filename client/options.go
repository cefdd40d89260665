package client

// This file defines functional options that configure the Client during
// construction. Keeping them in a standalone file avoids cluttering
// client.go and makes it easy to discover all available knobs at a glance.

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	clienterrors "github.com/qrzlog/qrzlog/client/internal/errors"
)

// Option configures a Client during construction in New.
//
// Options are applied before the user-agent transport wrapper is installed,
// so transport-related options (like debug logging) end up underneath it.
type Option func(*Client) error

// WithEndpoint overrides the API URL, e.g. to point at a test server.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) error {
		u, err := url.Parse(endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return clienterrors.InvalidParams(fmt.Sprintf("endpoint %q is not an absolute URL", endpoint), err)
		}
		c.endpoint = endpoint
		return nil
	}
}

// WithHTTPClient bases the Client on a shallow copy of hc; hc itself is never
// modified. Apply it before WithHTTPTimeout or WithDebugLogging, which
// configure the copy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return clienterrors.InvalidParams("http client must not be nil", nil)
		}
		cp := *hc
		c.http = &cp
		c.debug = false
		return nil
	}
}

// WithHTTPTimeout sets the underlying http.Client Timeout.
//
// Prefer per-request context deadlines where possible; this timeout is a
// coarse bound on a single HTTP round trip. The value must be greater than
// zero.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return clienterrors.InvalidParams("http timeout must be > 0", nil)
		}
		c.http.Timeout = d
		return nil
	}
}

// WithDebugLogging wraps the client's transport so each request and response
// is dumped at debug level with the API key redacted. Enabling it more than
// once installs a single wrapper.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if enabled && !c.debug {
			c.http.Transport = &debugTransport{base: c.http.Transport, secret: c.apiKey, logger: &c.logger}
			c.debug = true
		}
		return nil
	}
}

// WithLogger sets the logger used for paging, retries and async failures.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) error {
		c.logger = l
		return nil
	}
}

// WithMaxAttempts enables transport-level retry of recoverable failures
// (network errors, 408, 429, 5xx). n counts the first attempt; the default
// is 1.
func WithMaxAttempts(n int) Option {
	return func(c *Client) error {
		if n < 1 {
			return clienterrors.InvalidParams("max attempts must be >= 1", nil)
		}
		c.maxAttempts = n
		return nil
	}
}

// WithPageSize sets the FetchAll page size used when the filter has no Max.
func WithPageSize(n int) Option {
	return func(c *Client) error {
		if n < 1 {
			return clienterrors.InvalidParams("page size must be >= 1", nil)
		}
		c.pageSize = n
		return nil
	}
}

// WithSubmitter replaces the HTTP transport with a custom one. Endpoint,
// HTTP and retry options no longer apply when it is used.
func WithSubmitter(s Submitter) Option {
	return func(c *Client) error {
		if s == nil {
			return clienterrors.InvalidParams("submitter must not be nil", nil)
		}
		c.sub = s
		return nil
	}
}

// WithAsyncResultHandler receives the outcome of every InsertAsync job. It
// runs on the executor goroutine and must not block for long.
func WithAsyncResultHandler(h AsyncResultHandler) Option {
	return func(c *Client) error {
		c.onAsync = h
		return nil
	}
}

// withExecutor injects the async executor; used by tests.
func withExecutor(e executor) Option {
	return func(c *Client) error {
		c.exec = e
		return nil
	}
}
