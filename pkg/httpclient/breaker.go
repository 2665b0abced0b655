package httpclient

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned while a breaker rejects calls.
var ErrCircuitOpen = gobreaker.ErrOpenState

// BreakerConfig configures a circuit breaker.
type BreakerConfig struct {
	Name string
	// MaxRequests allowed while half-open.
	MaxRequests uint32
	// Interval after which closed-state counts reset. 0 never resets.
	Interval time.Duration
	// Timeout spent open before probing again.
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig trips at a 50% failure ratio after 5 calls and
// probes again after 30s.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

var breakerState = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open)",
	},
	[]string{"name"},
)

func init() {
	prometheus.MustRegister(breakerState)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Breaker guards calls returning T with a gobreaker circuit breaker and
// exports its state as a gauge.
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// NewBreaker builds a Breaker. isSuccessful, when non-nil, decides which
// errors count against the breaker (for example caller cancellations
// should not).
func NewBreaker[T any](cfg BreakerConfig, logger *slog.Logger, isSuccessful func(error) bool) *Breaker[T] {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < cfg.MinRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateValue(to))
		},
		IsSuccessful: isSuccessful,
	}
	breakerState.WithLabelValues(cfg.Name).Set(0)
	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn unless the breaker is open.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	return b.cb.Execute(fn)
}

// State returns the current breaker state.
func (b *Breaker[T]) State() gobreaker.State {
	return b.cb.State()
}
