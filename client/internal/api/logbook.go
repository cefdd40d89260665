package api

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/qrzlog/qrzlog/client/internal/adif"
	"github.com/qrzlog/qrzlog/client/internal/job"
	"github.com/qrzlog/qrzlog/client/internal/paging"
	"github.com/qrzlog/qrzlog/client/internal/types"
)

// InsertOptions carries the optional knobs of an INSERT.
type InsertOptions struct {
	// Replace overwrites a duplicate QSO instead of failing.
	Replace bool
}

// Insert uploads one record synchronously.
func Insert(ctx context.Context, sub types.Submitter, apiKey string, rec types.QsoRecord, opts InsertOptions) (*types.InsertResult, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	params := newParams(apiKey, ActionInsert)
	params.Set(ParamADIF, adif.Encode(rec))
	if opts.Replace {
		params.Set(ParamOption, "REPLACE")
	}

	env, err := call(ctx, sub, params)
	if err != nil {
		return nil, err
	}
	return env.InsertResult(), nil
}

// InsertAsync queues an upload on the executor shard of the record's station
// callsign, so uploads to one logbook keep their order. onDone, when set,
// receives the final outcome of the job once, after any retries.
func InsertAsync(ctx context.Context, exec types.Executor, sub types.Submitter, apiKey string, rec types.QsoRecord, opts InsertOptions, onDone func(*types.InsertResult, error)) (*types.EnqueueAck, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	station := rec.StationCallsign()
	var last *types.InsertResult
	insertJob := job.New(func(jobCtx context.Context) error {
		res, err := Insert(jobCtx, sub, apiKey, rec, opts)
		last = res
		return err
	}).OnComplete(func(err error) {
		if onDone == nil {
			return
		}
		if err != nil {
			onDone(nil, err)
			return
		}
		onDone(last, nil)
	})

	if err := exec.Submit(ctx, station, insertJob); err != nil {
		return nil, err
	}
	return &types.EnqueueAck{JobID: insertJob.ID, StationCallsign: station, Status: "enqueued"}, nil
}

// Fetch retrieves a single page of records. The filter is validated before
// any request is made.
func Fetch(ctx context.Context, sub types.Submitter, apiKey string, filter types.FetchFilter) (*types.FetchResult, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	params := newParams(apiKey, ActionFetch)
	if opt := filter.OptionString(); opt != "" {
		params.Set(ParamOption, opt)
	}

	env, err := call(ctx, sub, params)
	if err != nil {
		return nil, err
	}
	return env.FetchResult()
}

// FetchAll pages through every record matching filter.
func FetchAll(ctx context.Context, sub types.Submitter, apiKey string, filter types.FetchFilter, pageSize int, logger zerolog.Logger) (*paging.Result, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	eng := &paging.Engine{
		Fetch: func(ctx context.Context, f types.FetchFilter) (*types.FetchResult, error) {
			return Fetch(ctx, sub, apiKey, f)
		},
		PageSize: pageSize,
		Logger:   logger,
	}
	return eng.Run(ctx, filter)
}

// Delete removes records by logid. Ids the service did not find are listed
// in the result rather than reported as an error.
func Delete(ctx context.Context, sub types.Submitter, apiKey string, logIDs []int64) (*types.DeleteResult, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if err := types.ValidateLogIDs(logIDs); err != nil {
		return nil, err
	}
	ids := make([]string, len(logIDs))
	for i, id := range logIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	params := newParams(apiKey, ActionDelete)
	params.Set(ParamLogIDs, strings.Join(ids, ":"))

	env, err := call(ctx, sub, params)
	if err != nil {
		return nil, err
	}
	return env.DeleteResult(), nil
}

// Status returns the logbook summary.
func Status(ctx context.Context, sub types.Submitter, apiKey string) (*types.StatusResult, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	env, err := call(ctx, sub, newParams(apiKey, ActionStatus))
	if err != nil {
		return nil, err
	}
	return env.StatusResult(), nil
}
