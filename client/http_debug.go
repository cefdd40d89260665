package client

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// redacted replaces the API key in dumped traffic.
const redacted = "REDACTED"

// debugTransport dumps every request and response at debug level.
//
// It is meant for troubleshooting rejected uploads and malformed responses.
// Request bodies carry the logbook API key, so every occurrence of it is
// replaced before logging. Enable with WithDebugLogging or by setting
// QRZLOG_DEBUG=true (DEBUG=true also works).
type debugTransport struct {
	base   http.RoundTripper
	secret string
	logger *zerolog.Logger
}

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := dt.base
	if base == nil {
		base = http.DefaultTransport
	}
	log := dt.logger

	if reqDump, err := httputil.DumpRequestOut(req, true); err == nil {
		log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Str("request_dump", dt.redact(string(reqDump))).Msg("HTTP request")
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("HTTP request failed")
		return nil, err
	}

	if respDump, err := httputil.DumpResponse(resp, true); err == nil {
		log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Int("status_code", resp.StatusCode).Str("response_dump", string(respDump)).Msg("HTTP response")
	}
	return resp, nil
}

func (dt *debugTransport) redact(s string) string {
	if dt.secret == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.QueryEscape(dt.secret), redacted)
	return strings.ReplaceAll(s, dt.secret, redacted)
}

// debugLoggingRequested reports whether QRZLOG_DEBUG or DEBUG is "true".
func debugLoggingRequested() bool {
	return os.Getenv("QRZLOG_DEBUG") == "true" || os.Getenv("DEBUG") == "true"
}
