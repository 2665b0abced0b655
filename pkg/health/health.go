package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/ckcelina/my-wishlist-sub002/pkg/httputil"
)

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

// Status of the service or one of its dependencies.
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Response is the body of both health endpoints.
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of a single dependency check.
type CheckResult struct {
	Status   Status `json:"status"`
	Optional bool   `json:"optional,omitempty"`
	Error    string `json:"error,omitempty"`
}

type check struct {
	fn       Checker
	optional bool
}

// Handler serves liveness and readiness endpoints.
type Handler struct {
	mu      sync.RWMutex
	checks  map[string]check
	timeout time.Duration
}

// NewHandler creates a handler whose readiness checks share a 5s deadline.
func NewHandler() *Handler {
	return &Handler{checks: make(map[string]check), timeout: 5 * time.Second}
}

// Register adds a dependency the service cannot serve without.
func (h *Handler) Register(name string, fn Checker) {
	h.add(name, check{fn: fn})
}

// RegisterOptional adds a dependency whose failure degrades the service
// without taking it out of rotation (for example the page cache).
func (h *Handler) RegisterOptional(name string, fn Checker) {
	h.add(name, check{fn: fn, optional: true})
}

func (h *Handler) add(name string, c check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = c
}

// LivenessHandler always answers 200 while the process runs.
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, Response{Status: StatusUp, Timestamp: time.Now().UTC()})
	}
}

// ReadinessHandler runs every check concurrently. Any failing required
// check yields 503; failing optional checks only mark the body degraded.
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		h.mu.RLock()
		checks := make(map[string]check, len(h.checks))
		for k, v := range h.checks {
			checks[k] = v
		}
		h.mu.RUnlock()

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			results = make(map[string]CheckResult, len(checks))
		)
		for name, c := range checks {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res := CheckResult{Status: StatusUp, Optional: c.optional}
				if err := c.fn(ctx); err != nil {
					res.Status = StatusDown
					res.Error = err.Error()
				}
				mu.Lock()
				results[name] = res
				mu.Unlock()
			}()
		}
		wg.Wait()

		overall := StatusUp
		for _, res := range results {
			if res.Status != StatusDown {
				continue
			}
			if !res.Optional {
				overall = StatusDown
				break
			}
			overall = StatusDegraded
		}

		status := http.StatusOK
		if overall == StatusDown {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, Response{Status: overall, Timestamp: time.Now().UTC(), Checks: results})
	}
}
