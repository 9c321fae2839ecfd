// ABOUTME: Time-boxed remote call wrapper shared by every module controller
// ABOUTME: Returns a tagged result instead of leaking timeout plumbing into callers
package connectivity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is reported when a call does not finish inside its deadline.
var ErrTimeout = errors.New("remote call timed out")

// Outcome tags how a probed call ended.
type Outcome int

const (
	OK Outcome = iota
	TimedOut
	Failed
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case TimedOut:
		return "timed out"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result is the tagged result of Call. Value is only meaningful when
// Outcome is OK; Err is set otherwise.
type Result[T any] struct {
	Outcome Outcome
	Value   T
	Err     error
}

// OK reports whether the call succeeded inside its deadline.
func (r Result[T]) OK() bool { return r.Outcome == OK }

// Call runs fn with a deadline of timeout. When the deadline passes first the
// call's context is cancelled and the result is TimedOut, even if fn keeps
// running. A non-positive timeout means no deadline beyond ctx.
func Call[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) Result[T] {
	var (
		callCtx context.Context
		cancel  context.CancelFunc
	)
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	type reply struct {
		value T
		err   error
	}
	done := make(chan reply, 1)
	go func() {
		v, err := fn(callCtx)
		done <- reply{value: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil {
			return Result[T]{Outcome: OK, Value: r.value}
		}
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return Result[T]{Outcome: TimedOut, Err: fmt.Errorf("%w: %w", ErrTimeout, r.err)}
		}
		return Result[T]{Outcome: Failed, Err: r.err}
	case <-callCtx.Done():
		if err := ctx.Err(); err != nil {
			return Result[T]{Outcome: Failed, Err: err}
		}
		return Result[T]{Outcome: TimedOut, Err: fmt.Errorf("%w after %s", ErrTimeout, timeout)}
	}
}
