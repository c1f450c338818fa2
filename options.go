package conann

import (
	"github.com/soniahorchidan/conann/cache"
)

type options struct {
	logger            *Logger
	metrics           MetricsCollector
	cacheBackend      cache.Cache
	regLambdaGrid     []float64
	numWorkers        int
	maxOptimizerIters int
	rateLimitBytes    int
	kReg              int
}

// Option configures a Driver constructed by New.
type Option func(*options)

// WithLogger configures structured logging for a Driver's operations.
// Pass nil to disable logging (NoopLogger is substituted).
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection (NoopMetricsCollector is
// substituted).
func WithMetrics(mc MetricsCollector) Option {
	return func(o *options) {
		o.metrics = mc
	}
}

// WithCacheBackend configures the score/prediction cache a Driver
// consults before recomputing a ScoreMatrixBuilder pass. Without one,
// Calibrate always recomputes from the index.
func WithCacheBackend(c cache.Cache) Option {
	return func(o *options) {
		o.cacheBackend = c
	}
}

// WithRegLambdaGrid overrides regselect.Grid, the candidate
// regularization strengths RegLambdaSelector tries on the tune split.
func WithRegLambdaGrid(grid []float64) Option {
	return func(o *options) {
		o.regLambdaGrid = grid
	}
}

// WithNumWorkers bounds how many queries ScoreMatrixBuilder scores
// concurrently. Defaults to 16 if unset or <= 0.
func WithNumWorkers(n int) Option {
	return func(o *options) {
		o.numWorkers = n
	}
}

// WithMaxOptimizerIterations bounds how many Brent's-method iterations
// threshold.Optimizer.Solve runs before returning its best bracket as an
// ErrDidNotConverge.
func WithMaxOptimizerIterations(n int) Option {
	return func(o *options) {
		o.maxOptimizerIters = n
	}
}

// WithRateLimit throttles the cache backend's write bandwidth, useful
// when the cache root is a network filesystem or object store shared
// with other jobs. Only meaningful for cache.Cache implementations that
// honor it (New applies it to a cache.DiskStore via SetWriteRateLimit).
func WithRateLimit(bytesPerSec int) Option {
	return func(o *options) {
		o.rateLimitBytes = bytesPerSec
	}
}

// WithKReg overrides the regularized-cost free rank k_reg. The design
// fixes k_reg=1 in practice but keeps it a parameter to match the
// original API surface.
func WithKReg(kReg int) Option {
	return func(o *options) {
		o.kReg = kReg
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
		kReg:    1,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metrics == nil {
		o.metrics = NoopMetricsCollector{}
	}
	if o.kReg <= 0 {
		o.kReg = 1
	}
	return o
}
