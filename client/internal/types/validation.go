package types

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	clienterrors "github.com/qrzlog/qrzlog/client/internal/errors"
	"github.com/qrzlog/qrzlog/client/internal/shardqueue"
)

// ------------------------------
// Shared Interfaces
// ------------------------------

// Executor interface for dependency injection (used by async operations)
type Executor interface {
	Submit(context.Context, string, shardqueue.Job) error
}

// Submitter is the transport collaborator: it posts one parameter set and
// returns the raw response body.
type Submitter interface {
	Submit(ctx context.Context, params url.Values) (string, error)
}

// ------------------------------
// Field validation
// ------------------------------

// FieldError names one missing or invalid record field.
type FieldError struct {
	Field   string
	Problem string
}

func (e FieldError) Error() string { return e.Field + ": " + e.Problem }

// ValidationErrors is the structured result of RecordBuilder.Validate.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// ------------------------------
// Credential validation
// ------------------------------

const (
	minAPIKeyLength    = 10
	maxUserAgentLength = 128
)

// genericAgents are library defaults the service refuses to identify.
var genericAgents = []string{"python-requests", "node-fetch", "go-http-client", "okhttp", "axios"}

// ValidateAPIKey performs the local shape check on an access key.
func ValidateAPIKey(key string) error {
	if len(key) < minAPIKeyLength {
		return clienterrors.InvalidKey(fmt.Sprintf("must be at least %d characters", minAPIKeyLength))
	}
	if strings.ContainsAny(key, " \t\r\n") {
		return clienterrors.InvalidKey("must not contain whitespace")
	}
	return nil
}

// ValidateUserAgent requires a non-empty, identifiable agent string of at
// most 128 characters that is not a stock HTTP library signature.
func ValidateUserAgent(ua string) error {
	trimmed := strings.TrimSpace(ua)
	if trimmed == "" {
		return clienterrors.InvalidUserAgent("must not be empty")
	}
	if len(ua) > maxUserAgentLength {
		return clienterrors.InvalidUserAgent(fmt.Sprintf("must be %d characters or less", maxUserAgentLength))
	}
	lower := strings.ToLower(trimmed)
	if lower == "curl" || lower == "wget" || strings.HasPrefix(lower, "curl/") || strings.HasPrefix(lower, "wget/") {
		return clienterrors.InvalidUserAgent("generic client signature " + trimmed)
	}
	for _, g := range genericAgents {
		if strings.Contains(lower, g) {
			return clienterrors.InvalidUserAgent("generic client signature " + trimmed)
		}
	}
	return nil
}

// ValidateLogIDs requires at least one id and no negative ids.
func ValidateLogIDs(ids []int64) error {
	if len(ids) == 0 {
		return clienterrors.InvalidParams("no logids provided", nil)
	}
	for _, id := range ids {
		if id < 0 {
			return clienterrors.InvalidParams(fmt.Sprintf("negative logid %d", id), nil)
		}
	}
	return nil
}
