package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Strategy is one named way of producing a result.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Attempt records the outcome of one strategy run.
type Attempt struct {
	Strategy string
	Err      error
	Duration time.Duration
}

// StrategyError is returned when every strategy of a cascade failed. Its
// message is the last underlying error; errors.Is matches both the sentinel
// and that error.
type StrategyError struct {
	Op       string
	Sentinel error
	Attempts []Attempt
}

func (e *StrategyError) Error() string {
	if last := e.Last(); last != nil {
		return last.Error()
	}
	return e.Sentinel.Error()
}

func (e *StrategyError) Unwrap() []error {
	if last := e.Last(); last != nil {
		return []error{e.Sentinel, last}
	}
	return []error{e.Sentinel}
}

// Last returns the error of the final attempt.
func (e *StrategyError) Last() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

// Trace renders the attempts as diagnostic text of at most limit runes.
// A non-positive limit disables truncation.
func (e *StrategyError) Trace(limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v\n", e.Op, e.Sentinel)
	for i, a := range e.Attempts {
		fmt.Fprintf(&b, "  %d. strategy %q failed after %s: %v\n", i+1, a.Strategy, a.Duration.Round(time.Millisecond), a.Err)
	}
	return truncateRunes(b.String(), limit)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// Cascade runs strategies in order and returns the first success together
// with the winning strategy name. Each failure is logged. When all fail the
// error is a *StrategyError wrapping sentinel.
func Cascade[T any](ctx context.Context, op string, sentinel error, strategies []Strategy[T]) (T, string, []Attempt, error) {
	var (
		zero     T
		attempts = make([]Attempt, 0, len(strategies))
	)

	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, Attempt{Strategy: s.Name, Err: err})
			break
		}

		start := time.Now()
		v, err := s.Run(ctx)
		elapsed := time.Since(start)

		if err == nil {
			if len(attempts) > 0 {
				slog.Info("Fallback strategy succeeded", "op", op, "strategy", s.Name, "duration", elapsed)
			}
			return v, s.Name, append(attempts, Attempt{Strategy: s.Name, Duration: elapsed}), nil
		}

		slog.Warn("Strategy failed", "op", op, "strategy", s.Name, "duration", elapsed, "error", err)
		attempts = append(attempts, Attempt{Strategy: s.Name, Err: err, Duration: elapsed})
	}

	return zero, "", attempts, &StrategyError{Op: op, Sentinel: sentinel, Attempts: attempts}
}
