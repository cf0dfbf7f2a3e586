package aci

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"syscall"
	"time"
)

// RetryPolicy controls the transport retry loop.
type RetryPolicy struct {
	MaxRetries int // retries after the first attempt
	MinWait    time.Duration
	MaxWait    time.Duration
	Multiplier float64
}

// Delay returns the wait before retry number retryCount (0 for the first retry):
// min(MinWait * Multiplier^retryCount, MaxWait).
func (p RetryPolicy) Delay(retryCount int) time.Duration {
	d := float64(p.MinWait) * math.Pow(p.Multiplier, float64(retryCount))
	if d > float64(p.MaxWait) || math.IsInf(d, 0) || math.IsNaN(d) {
		return p.MaxWait
	}
	return time.Duration(d)
}

// shouldRetryStatus reports whether a response status is worth another attempt: 429 or 5xx.
func shouldRetryStatus(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

// shouldRetryError reports whether an attempt that got no response may be
// retried: idempotent methods always, others only for connectivity failures
// where the request never reached the server. Context errors never retry.
func shouldRetryError(method string, err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return isIdempotent(method) || isConnectivityError(err)
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// isConnectivityError matches dial, DNS and reset failures. Timeouts are not
// connectivity failures: the server may already be processing the request.
func isConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
