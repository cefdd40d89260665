package client

import (
	"time"

	"github.com/qrzlog/qrzlog/client/internal/adif"
	"github.com/qrzlog/qrzlog/client/internal/paging"
	"github.com/qrzlog/qrzlog/client/internal/transport"
	"github.com/qrzlog/qrzlog/client/internal/types"
)

// Public type aliases so SDK consumers can import only the client package.
type (
	// Records
	QsoRecord        = types.QsoRecord
	RecordBuilder    = types.RecordBuilder
	Field            = types.Field
	FieldError       = types.FieldError
	ValidationErrors = types.ValidationErrors

	// Requests
	FetchFilter = types.FetchFilter

	// Responses
	InsertResult = types.InsertResult
	DeleteResult = types.DeleteResult
	StatusResult = types.StatusResult
	FetchResult  = types.FetchResult
	EnqueueAck   = types.EnqueueAck
	PageResult   = paging.Result

	// Submitter posts one parameter set and returns the raw response body.
	Submitter = types.Submitter
)

const (
	DefaultEndpoint = transport.DefaultEndpoint
	DefaultPageSize = paging.DefaultPageSize
)

// NewRecordBuilder returns an empty record builder.
func NewRecordBuilder() *RecordBuilder { return types.NewRecordBuilder() }

// Date returns the calendar date y-m-d at UTC midnight.
func Date(y int, m time.Month, d int) time.Time { return types.Date(y, m, d) }

// TimeOfDay returns a UTC time of day.
func TimeOfDay(h, m, s int) time.Time { return types.TimeOfDay(h, m, s) }

func NewFetchFilter() FetchFilter { return types.NewFetchFilter() }
func AllRecords() FetchFilter     { return types.AllRecords() }

// IsWellKnownField reports whether name is one of the typed QsoRecord
// fields rather than an additional field.
func IsWellKnownField(name string) bool { return types.IsWellKnown(name) }

// DecodeADIF parses ADIF text into records; any header is skipped.
func DecodeADIF(data []byte) ([]QsoRecord, error) { return adif.Decode(data) }

// EncodeADIF renders a single record terminated by <eor>.
func EncodeADIF(r QsoRecord) string { return adif.Encode(r) }

// EncodeADIFDocument renders records as a complete ADIF file with a header.
func EncodeADIFDocument(records []QsoRecord) string { return adif.EncodeAll(records) }
