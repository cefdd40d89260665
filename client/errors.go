package client

import (
	"errors"

	clienterrors "github.com/qrzlog/qrzlog/client/internal/errors"
	"github.com/qrzlog/qrzlog/client/internal/shardqueue"
)

// Error is the single error type returned by Client operations and the
// ADIF codec. Branch on it with errors.Is against the sentinels below, or
// with KindOf.
type (
	Error = clienterrors.Error
	Kind  = clienterrors.Kind
)

const (
	KindHTTP             = clienterrors.KindHTTP
	KindAPI              = clienterrors.KindAPI
	KindAuth             = clienterrors.KindAuth
	KindInvalidKey       = clienterrors.KindInvalidKey
	KindInvalidUserAgent = clienterrors.KindInvalidUserAgent
	KindADIFParse        = clienterrors.KindADIFParse
	KindInvalidParams    = clienterrors.KindInvalidParams
)

var (
	ErrHTTP             = clienterrors.ErrHTTP
	ErrAPI              = clienterrors.ErrAPI
	ErrAuth             = clienterrors.ErrAuth
	ErrInvalidKey       = clienterrors.ErrInvalidKey
	ErrInvalidUserAgent = clienterrors.ErrInvalidUserAgent
	ErrADIFParse        = clienterrors.ErrADIFParse
	ErrInvalidParams    = clienterrors.ErrInvalidParams
)

// KindOf returns the Kind of err, or 0 if err did not come from this package.
func KindOf(err error) Kind { return clienterrors.KindOf(err) }

// Reason returns the service's reason text for Api errors.
func Reason(err error) string { return clienterrors.Reason(err) }

// ErrBackPressure is returned by InsertAsync when the upload queue for a
// station stayed full.
var ErrBackPressure = shardqueue.ErrQueueFull

// ErrClosed is returned by InsertAsync and AwaitConsistency after Close.
var ErrClosed = shardqueue.ErrExecutorClosed

// IsBackPressure reports whether err is a back-pressure error.
func IsBackPressure(err error) bool { return errors.Is(err, ErrBackPressure) }
