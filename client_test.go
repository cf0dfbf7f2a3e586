package aci

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/skosovsky/aci/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// sleepRecorder replaces the retry wait so tests never block on real timers.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *sleepRecorder) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestClient returns a Client talking to srv with instant retries.
func newTestClient(t *testing.T, srv *testutil.Server, cfg Config, opts ...Option) (*Client, *sleepRecorder) {
	t.Helper()
	if cfg.APIKey == "" {
		cfg.APIKey = "test-key"
	}
	cfg.BaseURL = srv.URL + "/"
	opts = append([]Option{WithHTTPClient(srv.Client()), WithLogger(discardLogger())}, opts...)
	c, err := New(cfg, opts...)
	require.NoError(t, err)
	rec := &sleepRecorder{}
	c.transport.sleep = rec.sleep
	return c, rec
}

func TestNew_MissingAPIKey(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	srv := testutil.NewServer(t)

	c, err := New(Config{BaseURL: srv.URL}, WithHTTPClient(srv.Client()))
	require.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Nil(t, c)
	_, isAPIError := KindOf(err)
	assert.False(t, isAPIError, "configuration errors are not *Error")
	assert.Empty(t, srv.Requests())
}

func TestNew_APIKeyFromEnv(t *testing.T) {
	t.Setenv(APIKeyEnv, "env-key")
	c, err := New(Config{})
	require.NoError(t, err)
	cfg := c.Config()
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{APIKey: "k", BaseURL: "not a url"})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, RetryPolicy{MaxRetries: 3, MinWait: time.Second, MaxWait: 10 * time.Second, Multiplier: 2}, c.transport.retry)
	assert.Equal(t, "aci-go/"+Version, c.transport.headers["User-Agent"])
	assert.Equal(t, 60*time.Second, c.transport.http.Timeout)
}

func TestNew_Options(t *testing.T) {
	hc := &http.Client{}
	c, err := New(Config{APIKey: "k"},
		WithHTTPClient(hc),
		WithUserAgent("my-agent/1"),
		WithHeader("X-Team", "core"),
		WithMetaArgumentValidation(),
	)
	require.NoError(t, err)
	assert.Same(t, hc, c.transport.http)
	assert.Equal(t, "my-agent/1", c.transport.headers["User-Agent"])
	assert.Equal(t, "core", c.transport.headers["X-Team"])
	assert.True(t, c.dispatcher.validateArgs)
}

func TestClient_SendsHeaders(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.On(http.MethodGet, "/apps/gmail", testutil.JSON(http.StatusOK, map[string]any{"name": "gmail"}))
	c, _ := newTestClient(t, srv, Config{APIKey: "secret"}, WithHeader("X-Team", "core"))

	app, err := c.Apps.Get(context.Background(), "gmail")
	require.NoError(t, err)
	assert.Equal(t, "gmail", app.Name)

	req, ok := srv.Last()
	require.True(t, ok)
	assert.Equal(t, "secret", req.Header.Get("x-api-key"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	assert.Equal(t, "core", req.Header.Get("X-Team"))
	assert.NotEmpty(t, req.Header.Get("X-Request-Id"))
}

func TestHandleFunctionCall_Execute(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.On(http.MethodPost, "/functions/calendar_create_event/execute",
		testutil.JSON(http.StatusOK, map[string]any{"success": true, "data": map[string]any{"id": "evt_1"}}))
	c, _ := newTestClient(t, srv, Config{})

	res, err := c.HandleFunctionCall(context.Background(), FunctionCall{
		Name: ExecuteFunctionName,
		Arguments: map[string]any{
			"function_name":      "calendar_create_event",
			"function_arguments": map[string]any{"title": "Meeting"},
		},
		LinkedAccountOwnerID: "user-123",
	})
	require.NoError(t, err)
	result, ok := res.(*FunctionExecutionResult)
	require.True(t, ok)
	assert.True(t, result.Success)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/functions/calendar_create_event/execute", reqs[0].Path)
	assert.JSONEq(t, `{"function_input":{"title":"Meeting"},"linked_account_owner_id":"user-123"}`, string(reqs[0].Body))
}

func TestHandleFunctionCall_ExecuteUnwrappedArguments(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.On(http.MethodPost, "/functions/X/execute", testutil.JSON(http.StatusOK, map[string]any{"success": true}))
	c, _ := newTestClient(t, srv, Config{}, WithMetaArgumentValidation())

	_, err := c.HandleFunctionCall(context.Background(), FunctionCall{
		Name:                 ExecuteFunctionName,
		Arguments:            map[string]any{"function_name": "X", "a": 1.0, "b": 2.0},
		LinkedAccountOwnerID: "owner",
	})
	require.NoError(t, err)
	req, ok := srv.Last()
	require.True(t, ok)
	assert.JSONEq(t, `{"function_input":{"a":1,"b":2},"linked_account_owner_id":"owner"}`, string(req.Body))
}

func TestHandleFunctionCall_Search(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.On(http.MethodGet, "/functions/search", testutil.JSON(http.StatusOK, []map[string]any{
		{"type": "function", "function": map[string]any{"name": "GMAIL__SEND"}},
	}))
	c, _ := newTestClient(t, srv, Config{})

	res, err := c.HandleFunctionCall(context.Background(), FunctionCall{
		Name:        SearchFunctionsName,
		Arguments:   map[string]any{"intent": "test"},
		AllowedOnly: true,
	})
	require.NoError(t, err)
	defs, ok := res.([]FunctionDefinition)
	require.True(t, ok)
	require.Len(t, defs, 1)
	assert.Equal(t, "GMAIL__SEND", defs[0].Name())

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/functions/search", reqs[0].Path)
	assert.Equal(t, "true", reqs[0].Query.Get("allowed_only"))
	assert.Equal(t, "test", reqs[0].Query.Get("intent"))
}

func TestHandleFunctionCall_Direct(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.On(http.MethodPost, "/functions/SOME_THIRD_PARTY_FN/execute",
		testutil.JSON(http.StatusOK, map[string]any{"success": false, "error": "quota exceeded"}))
	c, _ := newTestClient(t, srv, Config{})

	res, err := c.HandleFunctionCall(context.Background(), FunctionCall{
		Name:                 "SOME_THIRD_PARTY_FN",
		Arguments:            map[string]any{"x": 1.0},
		LinkedAccountOwnerID: "owner1",
	})
	require.NoError(t, err, "an unsuccessful execution is a result, not an error")
	result, ok := res.(*FunctionExecutionResult)
	require.True(t, ok)
	assert.False(t, result.Success)
	assert.Equal(t, "quota exceeded", result.Error)

	req, ok := srv.Last()
	require.True(t, ok)
	assert.Equal(t, "/functions/SOME_THIRD_PARTY_FN/execute", req.Path)
	assert.JSONEq(t, `{"function_input":{"x":1},"linked_account_owner_id":"owner1"}`, string(req.Body))
}

func TestHandleFunctionCall_ErrorsPassThrough(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.On(http.MethodPost, "/functions/X/execute",
		testutil.JSON(http.StatusNotFound, map[string]any{"message": "function X not found"}))
	c, _ := newTestClient(t, srv, Config{})

	res, err := c.HandleFunctionCall(context.Background(), FunctionCall{Name: "X", LinkedAccountOwnerID: "o"})
	require.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, res)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "function X not found", apiErr.Message)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
