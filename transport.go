package aci

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	headerAPIKey    = "x-api-key"
	headerRequestID = "X-Request-Id"
	userAgent       = "aci-go/" + Version
)

// Version is the library version reported in the User-Agent header.
const Version = "0.3.0"

// request is one logical API call; the transport may send it several times.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
}

// transport issues requests against the base URL, retrying per RetryPolicy and
// mapping failures to *Error. Its fields are not modified after construction.
type transport struct {
	baseURL string
	apiKey  string
	headers map[string]string
	http    *http.Client
	retry   RetryPolicy
	logger  *slog.Logger
	sleep   func(context.Context, time.Duration) error
}

// do sends req and decodes a 2xx JSON body into out (when out is non-nil).
func (t *transport) do(ctx context.Context, req request, out any) error {
	var payload []byte
	if req.body != nil {
		var err error
		if payload, err = json.Marshal(req.body); err != nil {
			return &Error{Kind: KindValidation, Message: "cannot encode request body: " + err.Error(), Err: err}
		}
	}
	target := t.url(req.path, req.query)
	requestID := uuid.NewString()
	log := t.logger.With("method", req.method, "path", req.path, "request_id", requestID)

	for attempt := 0; ; attempt++ {
		status, body, err := t.attempt(ctx, req.method, target, requestID, payload)
		var (
			failure   *Error
			retryable bool
		)
		switch {
		case err != nil:
			failure = networkError(err)
			retryable = shouldRetryError(req.method, err)
		case status < 200 || status > 299:
			failure = statusError(status, body)
			retryable = shouldRetryStatus(status)
		default:
			log.Debug("aci request done", "status", status, "attempt", attempt+1)
			return decodeBody(body, out)
		}
		if !retryable || attempt >= t.retry.MaxRetries {
			log.Debug("aci request failed", "status", status, "attempt", attempt+1, "error", failure)
			return failure
		}
		delay := t.retry.Delay(attempt)
		log.Warn("aci request retry", "status", status, "attempt", attempt+1, "delay", delay, "error", failure)
		if err := t.sleep(ctx, delay); err != nil {
			return &Error{Kind: KindUnknown, Message: networkErrorMessage, Err: errors.Join(err, failure)}
		}
	}
}

// attempt sends the request once. A nil error means a response was received.
func (t *transport) attempt(ctx context.Context, method, target, requestID string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, nil, err
	}
	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set(headerAPIKey, t.apiKey)
	httpReq.Header.Set(headerRequestID, requestID)
	resp, err := t.http.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}

// url joins the base URL and path the way the service expects: exactly one slash between them.
func (t *transport) url(path string, query url.Values) string {
	u := strings.TrimRight(t.baseURL, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func decodeBody(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Kind: KindUnknown, Message: "cannot decode response body: " + err.Error(), Err: err}
	}
	return nil
}

func defaultHeaders(ua string, extra map[string]string) map[string]string {
	h := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   ua,
	}
	for k, v := range extra {
		h[k] = v
	}
	return h
}
