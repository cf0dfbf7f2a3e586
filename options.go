package aci

import (
	"log/slog"
	"net/http"
)

// clientOptions hold optional collaborators of a Client.
type clientOptions struct {
	httpClient       *http.Client
	logger           *slog.Logger
	userAgent        string
	headers          map[string]string
	validateMetaArgs bool
	maxConcurrency   int
}

// Option configures a Client (e.g. WithHTTPClient, WithLogger).
type Option func(*clientOptions)

// WithHTTPClient supplies the HTTP client used for every attempt. Config.Timeout is ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) {
		if hc != nil {
			o.httpClient = hc
		}
	}
}

// WithLogger sets the logger for request and retry events. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) {
		o.userAgent = ua
	}
}

// WithHeader sets a static header on all requests. The API key header cannot be overridden.
func WithHeader(key, value string) Option {
	return func(o *clientOptions) {
		if o.headers == nil {
			o.headers = map[string]string{}
		}
		o.headers[key] = value
	}
}

// WithMetaArgumentValidation makes HandleFunctionCall validate meta-function
// arguments against the JSON Schema advertised to the LLM before dispatching.
// Execute arguments are checked after normalization.
func WithMetaArgumentValidation() Option {
	return func(o *clientOptions) {
		o.validateMetaArgs = true
	}
}

// WithMaxConcurrency bounds how many calls HandleFunctionCalls runs at once.
// Zero or negative means no limit. Defaults to DefaultMaxConcurrency.
func WithMaxConcurrency(n int) Option {
	return func(o *clientOptions) {
		o.maxConcurrency = n
	}
}
