// Package health runs dependency checks and answers liveness and readiness probes.
package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Checker verifies one dependency or capability
type Checker interface {
	// Name is the unique, hyphenated name of the check (e.g. "catalog-cache")
	Name() string

	// Check runs the check; it should honour the context deadline
	Check(ctx context.Context) *Result
}

// Status is the outcome of a check
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Result is the outcome of a single check
type Result struct {
	Status  Status         `json:"status"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Latency time.Duration  `json:"latency"`
}

func newResult(status Status, message string) *Result {
	return &Result{Status: status, Message: message, Details: make(map[string]any)}
}

// Healthy creates a healthy result
func Healthy(message string) *Result { return newResult(StatusHealthy, message) }

// Degraded creates a degraded result
func Degraded(message string) *Result { return newResult(StatusDegraded, message) }

// Unhealthy creates an unhealthy result
func Unhealthy(message string) *Result { return newResult(StatusUnhealthy, message) }

// WithDetail adds a detail and returns the result for chaining
func (r *Result) WithDetail(key string, value any) *Result {
	r.Details[key] = value
	return r
}

// Manager runs registered checks in parallel, each under its own timeout
type Manager struct {
	mu       sync.RWMutex
	checkers []Checker
	timeout  time.Duration
}

// NewManager creates a manager with a 5 second per-check timeout
func NewManager() *Manager {
	return &Manager{timeout: 5 * time.Second}
}

// WithTimeout sets the per-check timeout
func (m *Manager) WithTimeout(timeout time.Duration) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return m
}

// AddChecker registers a check
func (m *Manager) AddChecker(c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, c)
}

// Check runs every check and returns the results keyed by check name
func (m *Manager) Check(ctx context.Context) map[string]*Result {
	m.mu.RLock()
	checkers := append([]Checker(nil), m.checkers...)
	timeout := m.timeout
	m.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]*Result, len(checkers))
	)
	for _, c := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			result := c.Check(checkCtx)
			if result == nil {
				result = Unhealthy("check returned no result")
			}
			if result.Latency == 0 {
				result.Latency = time.Since(start)
			}

			mu.Lock()
			results[c.Name()] = result
			mu.Unlock()
		}(c)
	}
	wg.Wait()
	return results
}

// OverallStatus is unhealthy if any check is, degraded if any check is, healthy otherwise
func OverallStatus(results map[string]*Result) Status {
	status := StatusHealthy
	for _, r := range results {
		switch r.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// Probes answers liveness and readiness probes on top of a Manager
type Probes struct {
	*Manager

	version     string
	startTime   time.Time
	initialized atomic.Bool
	inShutdown  atomic.Bool
}

// NewProbes creates probes for the given service version
func NewProbes(version string) *Probes {
	return &Probes{Manager: NewManager(), version: version, startTime: time.Now()}
}

// MarkInitialized lets readiness pass once the service is serving
func (p *Probes) MarkInitialized() { p.initialized.Store(true) }

// MarkShutdown makes readiness fail while connections drain
func (p *Probes) MarkShutdown() { p.inShutdown.Store(true) }

// IsShuttingDown reports whether MarkShutdown was called
func (p *Probes) IsShuttingDown() bool { return p.inShutdown.Load() }

// ProbeResult is the JSON body of a probe response
type ProbeResult struct {
	Status    Status             `json:"status"`
	Version   string             `json:"version,omitempty"`
	Uptime    string             `json:"uptime,omitempty"`
	Checks    map[string]*Result `json:"checks,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

func (p *Probes) result(status Status, checks map[string]*Result) *ProbeResult {
	return &ProbeResult{
		Status:    status,
		Version:   p.version,
		Uptime:    time.Since(p.startTime).Round(time.Second).String(),
		Checks:    checks,
		Timestamp: time.Now(),
	}
}

// Liveness is healthy while the process runs and degraded while it drains. It never
// runs dependency checks.
func (p *Probes) Liveness(_ context.Context) *ProbeResult {
	if p.IsShuttingDown() {
		return p.result(StatusDegraded, nil)
	}
	return p.result(StatusHealthy, nil)
}

// Readiness is unhealthy before initialization and during shutdown; otherwise it
// aggregates the registered checks
func (p *Probes) Readiness(ctx context.Context) *ProbeResult {
	if p.IsShuttingDown() || !p.initialized.Load() {
		return p.result(StatusUnhealthy, nil)
	}
	checks := p.Check(ctx)
	return p.result(OverallStatus(checks), checks)
}
