package aci

import (
	"context"
	"log/slog"
	"net/http"
)

// Client is the entry point to the ACI API. Build it with New; it is safe for
// concurrent use and holds no mutable state.
type Client struct {
	Functions         *FunctionsService
	Apps              *AppsService
	AppConfigurations *AppConfigurationsService
	LinkedAccounts    *LinkedAccountsService
	Projects          *ProjectsService

	config         Config
	transport      *transport
	dispatcher     *Dispatcher
	maxConcurrency int
}

// New validates cfg, applies defaults and builds a Client. It fails with
// ErrMissingAPIKey or ErrInvalidConfig before any network I/O.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := clientOptions{userAgent: userAgent, maxConcurrency: DefaultMaxConcurrency}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	t := &transport{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		headers: defaultHeaders(o.userAgent, o.headers),
		http:    o.httpClient,
		retry:   cfg.retryPolicy(),
		logger:  o.logger,
		sleep:   sleepContext,
	}
	c := &Client{
		Functions:         &FunctionsService{t: t},
		Apps:              &AppsService{t: t},
		AppConfigurations: &AppConfigurationsService{t: t},
		LinkedAccounts:    &LinkedAccountsService{t: t},
		Projects:          &ProjectsService{t: t},
		config:            cfg,
		transport:         t,
		maxConcurrency:    o.maxConcurrency,
	}
	c.dispatcher = NewDispatcher(c.Functions, c.Functions, o.validateMetaArgs)
	return c, nil
}

// Config returns the effective configuration, defaults included.
func (c *Client) Config() Config { return c.config }

// HandleFunctionCall routes a function call emitted by an LLM without the
// caller checking its name: the two meta functions go to search and execute,
// any other name is executed directly as an app function. See Dispatcher.Handle
// for the result types.
func (c *Client) HandleFunctionCall(ctx context.Context, call FunctionCall) (any, error) {
	return c.dispatcher.Handle(ctx, call)
}

// HandleFunctionCalls handles the parallel function calls of one model turn
// concurrently (see WithMaxConcurrency). Results keep the order of calls and
// one failure does not affect the others.
func (c *Client) HandleFunctionCalls(ctx context.Context, calls []FunctionCall) []CallResult {
	return c.dispatcher.HandleBatch(ctx, calls, c.maxConcurrency)
}
