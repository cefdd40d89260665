// Package client is a Go client for the QRZ.com Logbook API.
//
// A Client uploads, fetches and deletes QSO records in one logbook. Records
// travel as ADIF inside form-encoded requests; responses are key=value
// envelopes classified into results or typed errors (see errors.go).
package client

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/qrzlog/qrzlog/client/internal/api"
	"github.com/qrzlog/qrzlog/client/internal/job"
	"github.com/qrzlog/qrzlog/client/internal/paging"
	"github.com/qrzlog/qrzlog/client/internal/shardqueue"
	"github.com/qrzlog/qrzlog/client/internal/transport"
	"github.com/qrzlog/qrzlog/client/internal/types"
)

// --------------------------------------------------------------------
// Client core
// --------------------------------------------------------------------

type Client struct {
	apiKey    string
	userAgent string
	endpoint  string

	http   *http.Client
	sub    types.Submitter
	exec   executor
	logger zerolog.Logger

	maxAttempts int
	pageSize    int
	onAsync     AsyncResultHandler
	debug       bool

	closedOnce uint32 // ensures Close is idempotent
}

// AsyncResultHandler receives the outcome of every InsertAsync job.
type AsyncResultHandler func(stationCallsign string, res *InsertResult, err error)

// New validates the credential and the user agent, then builds a Client.
// No request is made. apiKey is the logbook access key from the QRZ.com
// logbook settings page; userAgent must identify the calling application,
// for example "MyLogger/1.2 (K1ABC)".
func New(apiKey, userAgent string, opts ...Option) (*Client, error) {
	if err := types.ValidateAPIKey(apiKey); err != nil {
		return nil, err
	}
	if err := types.ValidateUserAgent(userAgent); err != nil {
		return nil, err
	}

	c := &Client{
		apiKey:      apiKey,
		userAgent:   strings.TrimSpace(userAgent),
		endpoint:    transport.DefaultEndpoint,
		http:        &http.Client{Timeout: 30 * time.Second},
		logger:      log.Logger,
		maxAttempts: 1,
		pageSize:    paging.DefaultPageSize,
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	c.wrapTransportWithUserAgent()

	if c.sub == nil {
		c.sub = transport.New(c.http, transport.Config{
			Endpoint:    c.endpoint,
			MaxAttempts: c.maxAttempts,
			Logger:      c.logger,
		})
	}
	if c.exec == nil {
		c.exec = newDefaultExecutor(c.logger)
	}
	return c, nil
}

// wrapTransportWithUserAgent makes every request carry the caller's
// identification, which the service requires.
func (c *Client) wrapTransportWithUserAgent() {
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.http.Transport = &userAgentTransport{base: base, userAgent: c.userAgent}
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	cloned.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(cloned)
}

// Close stops the background executor after draining queued uploads. Safe
// to call multiple times.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	if c.exec != nil {
		c.exec.Stop()
	}
	return nil
}

// AwaitConsistency blocks until every InsertAsync previously submitted for
// stationCallsign has finished. It submits a no-op job on the same shard and
// waits for it to run.
func (c *Client) AwaitConsistency(ctx context.Context, stationCallsign string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan struct{})
	barrier := job.New(func(context.Context) error {
		close(done)
		return nil
	})
	if err := c.exec.Submit(ctx, shardKey(stationCallsign), barrier); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// shardKey matches the normalization QsoRecord applies to station callsigns.
func shardKey(stationCallsign string) string {
	return strings.ToUpper(strings.TrimSpace(stationCallsign))
}

// newDefaultExecutor constructs the shardqueue executor from QRZLOG_SQ_*
// settings, falling back to built-in defaults when they do not parse.
func newDefaultExecutor(logger zerolog.Logger) *shardqueue.ShardExecutor {
	cfg, err := shardqueue.LoadConfig()
	if err != nil {
		logger.Warn().Err(err).Msg("ignoring invalid shard queue settings")
		cfg = shardqueue.Config{}
	}
	cfg.Logger = &logger
	cfg.ErrorHandler = func(key string, _ error) {
		insertFailuresTotal.WithLabelValues(job.ShardLabel(key)).Inc()
	}
	return shardqueue.NewShardExecutor(cfg)
}

// --------------------------------------------------------------------
// Logbook operations - delegated to internal/api
// --------------------------------------------------------------------

// Insert uploads one record. With replace set, a duplicate QSO already in
// the logbook is overwritten instead of rejected.
func (c *Client) Insert(ctx context.Context, rec QsoRecord, replace bool) (*InsertResult, error) {
	return api.Insert(ctx, c.sub, c.apiKey, rec, api.InsertOptions{Replace: replace})
}

// InsertAsync queues an upload and returns once it is accepted. Uploads for
// the same station callsign run in submission order. Outcomes go to the
// handler set with WithAsyncResultHandler; use AwaitConsistency to wait for
// them.
func (c *Client) InsertAsync(ctx context.Context, rec QsoRecord, replace bool) (*EnqueueAck, error) {
	station := rec.StationCallsign()
	ack, err := api.InsertAsync(ctx, c.exec, c.sub, c.apiKey, rec, api.InsertOptions{Replace: replace},
		func(res *types.InsertResult, err error) {
			if err != nil {
				c.logger.Warn().Err(err).Str("station_callsign", station).Str("call", rec.Call()).Msg("async insert failed")
			}
			if c.onAsync != nil {
				c.onAsync(station, res, err)
			}
		})
	if err != nil {
		return nil, err
	}
	insertsEnqueuedTotal.WithLabelValues(job.ShardLabel(station)).Inc()
	return ack, nil
}

// Fetch retrieves one page of records matching filter.
func (c *Client) Fetch(ctx context.Context, filter FetchFilter) (*FetchResult, error) {
	return api.Fetch(ctx, c.sub, c.apiKey, filter)
}

// FetchAll retrieves every record matching filter by walking the logid
// cursor one page at a time.
func (c *Client) FetchAll(ctx context.Context, filter FetchFilter) (*PageResult, error) {
	return api.FetchAll(ctx, c.sub, c.apiKey, filter, c.pageSize, c.logger)
}

// Delete removes records by logid.
func (c *Client) Delete(ctx context.Context, logIDs []int64) (*DeleteResult, error) {
	return api.Delete(ctx, c.sub, c.apiKey, logIDs)
}

// Status returns the logbook summary.
func (c *Client) Status(ctx context.Context) (*StatusResult, error) {
	return api.Status(ctx, c.sub, c.apiKey)
}
