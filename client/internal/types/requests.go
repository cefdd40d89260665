package types

import (
	"strconv"
	"strings"
	"time"

	clienterrors "github.com/qrzlog/qrzlog/client/internal/errors"
)

// ------------------------------
// Request Types
// ------------------------------

// FetchFilter holds FETCH criteria. Zero values mean "not set": an empty
// filter asks for the first page at the service's default size.
type FetchFilter struct {
	// All asks the service to match every record; meant to be driven
	// through the paging engine.
	All  bool
	Band string
	Mode string
	Call string
	// DateFrom and DateTo bound the QSO date, inclusive.
	DateFrom *time.Time
	DateTo   *time.Time
	// Max caps the number of records returned; 0 leaves it unset.
	Max int
	// AfterLogID is the paging cursor: only records with a logid at or
	// above it are returned.
	AfterLogID *int64
}

// NewFetchFilter returns an empty filter.
func NewFetchFilter() FetchFilter { return FetchFilter{} }

// AllRecords returns the match-everything filter used for bulk export.
func AllRecords() FetchFilter { return FetchFilter{All: true} }

func (f FetchFilter) WithBand(band string) FetchFilter {
	f.Band = band
	return f
}

func (f FetchFilter) WithMode(mode string) FetchFilter {
	f.Mode = mode
	return f
}

func (f FetchFilter) WithCall(call string) FetchFilter {
	f.Call = call
	return f
}

// WithDateRange bounds the QSO date to [start, end].
func (f FetchFilter) WithDateRange(start, end time.Time) FetchFilter {
	s, e := normalizeDate(start), normalizeDate(end)
	f.DateFrom, f.DateTo = &s, &e
	return f
}

func (f FetchFilter) WithMax(n int) FetchFilter {
	f.Max = n
	return f
}

func (f FetchFilter) WithAfterLogID(id int64) FetchFilter {
	f.AfterLogID = &id
	return f
}

// Validate rejects negative cursors, non-positive caps, and inverted date
// ranges.
func (f FetchFilter) Validate() error {
	if f.Max < 0 {
		return clienterrors.InvalidParams("max must be positive", nil)
	}
	if f.AfterLogID != nil && *f.AfterLogID < 0 {
		return clienterrors.InvalidParams("after_logid must be non-negative", nil)
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return clienterrors.InvalidParams("date range start is after its end", nil)
	}
	return nil
}

// OptionString serializes the set criteria for the OPTION parameter in a
// fixed order. Unset criteria are omitted entirely.
func (f FetchFilter) OptionString() string {
	var opts []string
	if f.All {
		opts = append(opts, "ALL")
	}
	if f.Band != "" {
		opts = append(opts, "BAND:"+f.Band)
	}
	if f.Mode != "" {
		opts = append(opts, "MODE:"+f.Mode)
	}
	if f.Call != "" {
		opts = append(opts, "CALL:"+strings.ToUpper(f.Call))
	}
	if f.Max > 0 {
		opts = append(opts, "MAX:"+strconv.Itoa(f.Max))
	}
	if f.AfterLogID != nil {
		opts = append(opts, "AFTERLOGID:"+strconv.FormatInt(*f.AfterLogID, 10))
	}
	if f.DateFrom != nil {
		opts = append(opts, "DATEFROM:"+FormatDate(*f.DateFrom))
	}
	if f.DateTo != nil {
		opts = append(opts, "DATETO:"+FormatDate(*f.DateTo))
	}
	return strings.Join(opts, ",")
}
