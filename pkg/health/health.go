// Package health aggregates readiness checks for the service's backing
// stores. The server exposes the aggregate on its management endpoints.
package health

import (
	"context"
	"sync"
	"time"
)

// Status is the outcome of a single check or of the aggregate.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult is the outcome of one named check.
type CheckResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
}

// Checkable is implemented by adapters that can report their own health,
// such as the document store and the media store.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// Registry holds the registered checks and runs them concurrently.
type Registry struct {
	mu     sync.RWMutex
	checks map[string]Checkable
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{checks: make(map[string]Checkable)}
}

// Register adds a named check, replacing any previous check with that name.
func (r *Registry) Register(name string, check Checkable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[name] = check
}

// RegisterFunc registers a plain function as a check.
func (r *Registry) RegisterFunc(name string, check func(ctx context.Context) error) {
	r.Register(name, checkFunc(check))
}

type checkFunc func(ctx context.Context) error

func (f checkFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

// Result is the aggregate of all registered checks.
type Result struct {
	Status    Status        `json:"status"`
	Checks    []CheckResult `json:"checks"`
	Timestamp time.Time     `json:"timestamp"`
}

// Healthy reports whether every check passed.
func (r Result) Healthy() bool { return r.Status == StatusHealthy }

// Check runs every registered check concurrently and aggregates the
// outcomes. A single failing check makes the aggregate unhealthy.
func (r *Registry) Check(ctx context.Context) Result {
	r.mu.RLock()
	names := make([]string, 0, len(r.checks))
	checks := make([]Checkable, 0, len(r.checks))
	for name, check := range r.checks {
		names = append(names, name)
		checks = append(checks, check)
	}
	r.mu.RUnlock()

	results := make([]CheckResult, len(checks))
	var wg sync.WaitGroup
	for i := range checks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = runCheck(ctx, names[i], checks[i])
		}(i)
	}
	wg.Wait()

	status := StatusHealthy
	for _, res := range results {
		if res.Status == StatusUnhealthy {
			status = StatusUnhealthy
			break
		}
	}
	return Result{Status: status, Checks: results, Timestamp: time.Now()}
}

func runCheck(ctx context.Context, name string, check Checkable) CheckResult {
	start := time.Now()
	err := check.HealthCheck(ctx)
	result := CheckResult{
		Name:      name,
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Duration:  time.Since(start),
	}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
	}
	return result
}
