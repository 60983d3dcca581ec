package analyzer

import (
	"math/rand/v2"
	"time"
)

const (
	// DefaultLatency is the artificial delay before a diagnosis is returned.
	DefaultLatency = 2 * time.Second

	MinConfidence = 60
	MaxConfidence = 95
)

// Options configures the diagnosis stub
type Options struct {
	// Latency is waited before every result; zero returns immediately.
	Latency time.Duration

	// IntN returns a uniform integer in [0, n). Defaults to math/rand/v2.
	IntN func(n int) int

	// Now supplies the result timestamp.
	Now func() time.Time
}

// DefaultOptions returns the production stub settings
func DefaultOptions() Options {
	return Options{
		Latency: DefaultLatency,
		IntN:    rand.IntN,
		Now:     time.Now,
	}
}

// WithLatency returns options with a different artificial delay
func (opts Options) WithLatency(d time.Duration) Options {
	if d < 0 {
		d = 0
	}
	opts.Latency = d
	return opts
}

// WithRandom returns options drawing from the given source
func (opts Options) WithRandom(intN func(n int) int) Options {
	opts.IntN = intN
	return opts
}

// WithClock returns options stamping results with the given clock
func (opts Options) WithClock(now func() time.Time) Options {
	opts.Now = now
	return opts
}

func (opts Options) withDefaults() Options {
	def := DefaultOptions()
	if opts.IntN == nil {
		opts.IntN = def.IntN
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}
	if opts.Latency < 0 {
		opts.Latency = 0
	}
	return opts
}
