// Package paging drives cursor-based FETCH calls until the remote logbook is
// exhausted.
//
// Pages are fetched strictly one after another: the cursor for page n+1 is
// derived from the ids observed on page n. The cursor is sent as AFTERLOGID,
// which the service treats as an inclusive lower bound, so after a page whose
// highest id is m the next cursor is m+1.
package paging

import (
	"context"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	clienterrors "github.com/qrzlog/qrzlog/client/internal/errors"
	"github.com/qrzlog/qrzlog/client/internal/types"
)

// DefaultPageSize is used when the base filter carries no Max.
const DefaultPageSize = 250

var pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "qrzlog_client",
	Name:      "pages_fetched_total",
	Help:      "FETCH pages retrieved by the paging engine.",
})

// FetchFunc performs a single FETCH round trip.
type FetchFunc func(ctx context.Context, filter types.FetchFilter) (*types.FetchResult, error)

// Engine walks a filtered collection page by page.
type Engine struct {
	Fetch FetchFunc
	// PageSize overrides DefaultPageSize when the base filter has no Max.
	PageSize int
	Logger   zerolog.Logger
}

// Result is the accumulated output of Run. LogIDs[i] identifies Records[i].
type Result struct {
	Records []types.QsoRecord
	LogIDs  []int64
	// Pages counts fetch calls. A final empty call is only made when the
	// last data page was full.
	Pages int
}

// Run fetches every record matching base. It stops on the first empty or
// short page and fails with an Api error on any cursor protocol violation.
func (e *Engine) Run(ctx context.Context, base types.FetchFilter) (*Result, error) {
	if e.Fetch == nil {
		return nil, clienterrors.InvalidParams("paging engine has no fetch function", nil)
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}

	size := base.Max
	if size <= 0 {
		size = e.PageSize
	}
	if size <= 0 {
		size = DefaultPageSize
	}

	var (
		res    = &Result{}
		cursor int64
	)
	if base.AfterLogID != nil {
		cursor = *base.AfterLogID
	}
	filter := base.WithMax(size)

	for {
		if err := ctx.Err(); err != nil {
			return nil, clienterrors.HTTP(err)
		}
		if res.Pages > 0 {
			filter = filter.WithAfterLogID(cursor)
		}

		page, err := e.Fetch(ctx, filter)
		if err != nil {
			return nil, err
		}
		res.Pages++
		pagesFetchedTotal.Inc()

		if page == nil || len(page.Records) == 0 {
			e.Logger.Debug().Int("pages", res.Pages).Int("records", len(res.Records)).Msg("paging complete")
			return res, nil
		}
		if len(page.LogIDs) == 0 {
			return nil, clienterrors.APIf("missing identifiers in page %d (%d records, no logids)", res.Pages, len(page.Records))
		}
		if len(page.LogIDs) != len(page.Records) {
			return nil, clienterrors.APIf("page %d has %d records but %d logids", res.Pages, len(page.Records), len(page.LogIDs))
		}

		maxID := int64(math.MinInt64)
		for _, id := range page.LogIDs {
			if id < cursor {
				return nil, clienterrors.APIf("cursor violation: page %d returned logid %d below cursor %d", res.Pages, id, cursor)
			}
			if id > maxID {
				maxID = id
			}
		}

		res.Records = append(res.Records, page.Records...)
		res.LogIDs = append(res.LogIDs, page.LogIDs...)
		e.Logger.Debug().
			Int("page", res.Pages).
			Int("records", len(page.Records)).
			Int64("after_logid", cursor).
			Int64("max_logid", maxID).
			Msg("fetched page")

		// A short page means the service had nothing more to give.
		if len(page.Records) < size || maxID == math.MaxInt64 {
			e.Logger.Debug().Int("pages", res.Pages).Int("records", len(res.Records)).Msg("paging complete")
			return res, nil
		}
		cursor = maxID + 1
	}
}
