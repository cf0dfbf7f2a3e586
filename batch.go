package aci

import (
	"context"
	"fmt"
	"sync"
)

// DefaultMaxConcurrency bounds HandleFunctionCalls when WithMaxConcurrency is not used.
const DefaultMaxConcurrency = 4

// CallResult is the outcome of one call of a batch. Result is nil when Err is set.
type CallResult struct {
	Call   FunctionCall
	Result any
	Err    error
}

// HandleBatch handles calls concurrently, at most maxConcurrency at a time
// (unbounded when maxConcurrency <= 0). Results keep the order of calls. One
// failing call does not cancel the others; a panic in a collaborator becomes
// a KindUnknown error of that call.
func (d *Dispatcher) HandleBatch(ctx context.Context, calls []FunctionCall, maxConcurrency int) []CallResult {
	results := make([]CallResult, len(calls))
	if len(calls) == 0 {
		return results
	}
	var sem chan struct{}
	if maxConcurrency > 0 {
		sem = make(chan struct{}, maxConcurrency)
	}
	var wg sync.WaitGroup
	for i, call := range calls {
		results[i].Call = call
		wg.Go(func() {
			if err := acquire(ctx, sem); err != nil {
				results[i].Err = &Error{Kind: KindUnknown, Message: "call not started", Err: err}
				return
			}
			defer release(sem)
			results[i].Result, results[i].Err = d.handleRecover(ctx, call)
		})
	}
	wg.Wait()
	return results
}

func (d *Dispatcher) handleRecover(ctx context.Context, call FunctionCall) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = &Error{Kind: KindUnknown, Message: "panic while handling " + call.Name, Err: &panicError{p: p}}
		}
	}()
	return d.Handle(ctx, call)
}

func acquire(ctx context.Context, sem chan struct{}) error {
	if sem == nil {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func release(sem chan struct{}) {
	if sem != nil {
		<-sem
	}
}

// panicError wraps a recovered panic value.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return "panic: " + fmt.Sprint(e.p)
}
