package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind identifies the class of a client failure so callers can branch
// without inspecting message text.
type Kind int

const (
	// KindHTTP is a transport-level failure: connection, timeout, TLS,
	// cancellation, or a non-2xx status. Never retried by the core.
	KindHTTP Kind = iota + 1
	// KindAPI is a logical failure reported by the remote service, a
	// malformed response, or a paging protocol violation.
	KindAPI
	// KindAuth means the credential was rejected or lacks privileges.
	KindAuth
	// KindInvalidKey is a malformed API key detected before any call.
	KindInvalidKey
	// KindInvalidUserAgent is a malformed user agent detected before any call.
	KindInvalidUserAgent
	// KindADIFParse is a codec-level decode failure.
	KindADIFParse
	// KindInvalidParams is a builder or filter validation failure.
	KindInvalidParams
)

func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindAPI:
		return "api"
	case KindAuth:
		return "auth"
	case KindInvalidKey:
		return "invalid_key"
	case KindInvalidUserAgent:
		return "invalid_user_agent"
	case KindADIFParse:
		return "adif_parse"
	case KindInvalidParams:
		return "invalid_params"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the single error type surfaced by the client. Reason carries the
// remote service's text for KindAPI and a localized message for the others.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindHTTP:
		msg = "http request failed"
	case KindAPI:
		msg = "api error"
	case KindAuth:
		msg = "authentication failed or insufficient privileges"
	case KindInvalidKey:
		msg = "invalid api key"
	case KindInvalidUserAgent:
		msg = "invalid user agent"
	case KindADIFParse:
		msg = "adif parse error"
	case KindInvalidParams:
		msg = "invalid parameters"
	default:
		msg = e.Kind.String()
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match against any *Error of the same Kind, so the sentinels
// below work with errors.Is regardless of Reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrHTTP             = &Error{Kind: KindHTTP}
	ErrAPI              = &Error{Kind: KindAPI}
	ErrAuth             = &Error{Kind: KindAuth}
	ErrInvalidKey       = &Error{Kind: KindInvalidKey}
	ErrInvalidUserAgent = &Error{Kind: KindInvalidUserAgent}
	ErrADIFParse        = &Error{Kind: KindADIFParse}
	ErrInvalidParams    = &Error{Kind: KindInvalidParams}
)

// HTTP wraps a transport failure without reinterpreting it.
func HTTP(err error) *Error { return &Error{Kind: KindHTTP, Err: err} }

// API reports a logical failure with the given reason.
func API(reason string) *Error { return &Error{Kind: KindAPI, Reason: reason} }

// APIf formats an API reason.
func APIf(format string, args ...any) *Error {
	return &Error{Kind: KindAPI, Reason: fmt.Sprintf(format, args...)}
}

// Auth reports a rejected credential.
func Auth(reason string) *Error { return &Error{Kind: KindAuth, Reason: reason} }

// InvalidKey reports a locally rejected API key.
func InvalidKey(reason string) *Error { return &Error{Kind: KindInvalidKey, Reason: reason} }

// InvalidUserAgent reports a locally rejected user agent.
func InvalidUserAgent(reason string) *Error {
	return &Error{Kind: KindInvalidUserAgent, Reason: reason}
}

// ADIFParsef reports a codec failure.
func ADIFParsef(format string, args ...any) *Error {
	return &Error{Kind: KindADIFParse, Reason: fmt.Sprintf(format, args...)}
}

// InvalidParams reports a validation failure, optionally wrapping the details.
func InvalidParams(reason string, err error) *Error {
	return &Error{Kind: KindInvalidParams, Reason: reason, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Reason returns the reason of the first *Error in err's chain.
func Reason(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// As and Is mirror the standard library so this package can be imported
// under its own name.
func As(err error, target any) bool { return stderrors.As(err, target) }

func Is(err, target error) bool { return stderrors.Is(err, target) }
