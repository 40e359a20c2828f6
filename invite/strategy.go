package invite

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Strategy is one tier of a fallback chain.
type Strategy[T any] struct {
	Name    string
	Attempt func(ctx context.Context) (T, error)
}

type haltError struct {
	err error
}

func (h haltError) Error() string { return h.err.Error() }
func (h haltError) Unwrap() error { return h.err }

// Halt marks err as a definitive answer: RunStrategies stops instead of trying
// the next tier.
func Halt(err error) error {
	if err == nil {
		return nil
	}
	return haltError{err: err}
}

// IsHalt reports whether err was marked with Halt.
func IsHalt(err error) bool {
	var h haltError
	return errors.As(err, &h)
}

// RunStrategies tries each strategy once, in order, and returns the first
// success along with the name of the tier that produced it. Strategies with a
// nil Attempt are skipped. When every tier fails the errors are joined.
func RunStrategies[T any](ctx context.Context, log *zap.SugaredLogger, strategies []Strategy[T]) (T, string, error) {
	var zero T
	var errs []error
	for _, s := range strategies {
		if s.Attempt == nil {
			continue
		}
		v, err := s.Attempt(ctx)
		if err == nil {
			return v, s.Name, nil
		}
		err = fmt.Errorf("%s: %w", s.Name, err)
		if IsHalt(err) {
			return zero, s.Name, err
		}
		if log != nil {
			log.Debugw("fallback tier failed", "tier", s.Name, "error", err)
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return zero, "", errors.New("no strategy available")
	}
	return zero, "", errors.Join(errs...)
}
