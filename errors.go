package aci

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies every failure returned by API calls. The set is closed.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthentication
	KindPermission
	KindNotFound
	KindValidation
	KindRateLimit
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication error"
	case KindPermission:
		return "permission error"
	case KindNotFound:
		return "not found error"
	case KindValidation:
		return "validation error"
	case KindRateLimit:
		return "rate limit error"
	case KindServer:
		return "server error"
	default:
		return "unknown error"
	}
}

// Sentinel errors, one per Kind. Use errors.Is to check.
var (
	ErrAuthentication = errors.New(KindAuthentication.String())
	ErrPermission     = errors.New(KindPermission.String())
	ErrNotFound       = errors.New(KindNotFound.String())
	ErrValidation     = errors.New(KindValidation.String())
	ErrRateLimit      = errors.New(KindRateLimit.String())
	ErrServer         = errors.New(KindServer.String())
	ErrUnknown        = errors.New(KindUnknown.String())
)

// Configuration errors returned by New. They are never an *Error: no request was attempted.
var (
	ErrMissingAPIKey = errors.New("API key is required: pass it in Config or set the ACI_API_KEY environment variable")
	ErrInvalidConfig = errors.New("invalid client configuration")
)

const networkErrorMessage = "Network error occurred"

// Error is returned by every API call that fails. StatusCode is 0 when no
// response was received or the input was rejected before sending.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	Err        error // underlying cause, if any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes both the kind sentinel and the cause, so errors.Is(err, ErrNotFound)
// and errors.Is(err, context.Canceled) both work.
func (e *Error) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (k Kind) sentinel() error {
	switch k {
	case KindAuthentication:
		return ErrAuthentication
	case KindPermission:
		return ErrPermission
	case KindNotFound:
		return ErrNotFound
	case KindValidation:
		return ErrValidation
	case KindRateLimit:
		return ErrRateLimit
	case KindServer:
		return ErrServer
	default:
		return ErrUnknown
	}
}

// KindOf returns the Kind of err if err is or wraps an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return KindUnknown, false
}

// IsInputError reports whether err was raised locally for malformed caller
// input, before any request was sent.
func IsInputError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindValidation && e.StatusCode == 0
}

func validationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// kindForStatus maps an HTTP status to its Kind.
func kindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindAuthentication
	case http.StatusForbidden:
		return KindPermission
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusTooManyRequests:
		return KindRateLimit
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindServer
	default:
		return KindUnknown
	}
}

// statusError builds the *Error for a non-2xx response.
func statusError(status int, body []byte) *Error {
	return &Error{
		Kind:       kindForStatus(status),
		Message:    errorMessage(body, fmt.Sprintf("request failed with status code %d", status)),
		StatusCode: status,
	}
}

// networkError builds the *Error for an attempt that received no response.
func networkError(cause error) *Error {
	return &Error{Kind: KindUnknown, Message: networkErrorMessage, Err: cause}
}

// errorMessage extracts a human-readable message from a response body:
// the "message" field, then "error", then the whole body, then fallback.
// A body holding a JSON-encoded string is decoded once more.
func errorMessage(body []byte, fallback string) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fallback
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return trimmed
	}
	if s, ok := v.(string); ok {
		var inner any
		if err := json.Unmarshal([]byte(s), &inner); err != nil {
			if s == "" {
				return fallback
			}
			return s
		}
		v = inner
	}
	if obj, ok := v.(map[string]any); ok {
		for _, key := range []string{"message", "error"} {
			if msg := messageField(obj[key]); msg != "" {
				return msg
			}
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return trimmed
	}
	return string(data)
}

// messageField renders a message/error field; empty, false and null values are skipped.
func messageField(v any) string {
	switch f := v.(type) {
	case nil:
		return ""
	case string:
		return f
	case bool:
		if !f {
			return ""
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
