package bench

import (
	"errors"
	"math/rand/v2"

	"github.com/arloliu/go-slmp/logger"
)

// Option represents a functional option for configuring a Verifier.
type Option interface {
	apply(*Verifier) error
}

type optFunc func(*Verifier) error

func (f optFunc) apply(v *Verifier) error {
	return f(v)
}

// WithRand sets the source of generated values. Tests use a seeded source for repeatable cycles.
func WithRand(r *rand.Rand) Option {
	return optFunc(func(v *Verifier) error {
		if r == nil {
			return errors.New("random source is nil")
		}
		v.rand = r

		return nil
	})
}

// WithSeed seeds the source of generated values.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))) //nolint:gosec
}

// WithSink sets the sink receiving every cycle result.
func WithSink(s Sink) Option {
	return optFunc(func(v *Verifier) error {
		v.sink = s
		return nil
	})
}

// WithLogger sets the logger of the verifier.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(v *Verifier) error {
		if l == nil {
			return errors.New("logger is nil")
		}
		v.logger = l

		return nil
	})
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return optFunc(func(v *Verifier) error {
		if id == "" {
			return errors.New("run id is empty")
		}
		v.runID = id

		return nil
	})
}
