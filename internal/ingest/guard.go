package ingest

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/arcticwatch/reescan/internal/deposit"
)

// GuardConfig configures the circuit breaker and rate limiter wrapped around
// an ingestion source.
type GuardConfig struct {
	MaxRequests      uint32  `yaml:"max_requests"`
	IntervalSeconds  int     `yaml:"interval_seconds"`
	TimeoutSeconds   int     `yaml:"timeout_seconds"`
	FailureThreshold uint32  `yaml:"failure_threshold"`
	RPS              float64 `yaml:"rps"`
	Burst            int     `yaml:"burst"`
}

// DefaultGuardConfig returns conservative defaults suitable for a public
// feature service.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		MaxRequests:      1,
		IntervalSeconds:  60,
		TimeoutSeconds:   30,
		FailureThreshold: 3,
		RPS:              1.0,
		Burst:            2,
	}
}

// GuardedSource wraps a Source with a circuit breaker and token-bucket rate
// limiting. When the breaker is open the fetch fails fast with
// SourceUnavailableError, and the ingestion pass carries on with the
// remaining sources.
type GuardedSource struct {
	inner   Source
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// Guard wraps a source with the given guard configuration.
func Guard(src Source, cfg GuardConfig) *GuardedSource {
	settings := gobreaker.Settings{
		Name:        src.Name(),
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
	}
	return &GuardedSource{
		inner:   src,
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
	}
}

func (g *GuardedSource) Name() string     { return g.inner.Name() }
func (g *GuardedSource) Type() SourceType { return g.inner.Type() }

// State returns the current breaker state.
func (g *GuardedSource) State() gobreaker.State {
	return g.breaker.State()
}

// Fetch waits for rate-limit headroom, then executes the inner fetch through
// the breaker.
func (g *GuardedSource) Fetch(ctx context.Context) ([]RawRecord, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, &deposit.SourceUnavailableError{Source: g.inner.Name(), Err: err}
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.Fetch(ctx)
	})
	if err != nil {
		return nil, &deposit.SourceUnavailableError{Source: g.inner.Name(), Err: err}
	}

	return result.([]RawRecord), nil
}
