package health

import (
	"context"
	"testing"
	"time"
)

type stubChecker struct {
	name   string
	result *Result
	delay  time.Duration
}

func (s *stubChecker) Name() string { return s.name }

func (s *stubChecker) Check(ctx context.Context) *Result {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Unhealthy("timed out")
		}
	}
	return s.result
}

type fixedLen int

func (f fixedLen) Len() int { return int(f) }

func TestManager_Check(t *testing.T) {
	m := NewManager()
	m.AddChecker(&stubChecker{name: "a", result: Healthy("ok")})
	m.AddChecker(&stubChecker{name: "b", result: Degraded("slow")})
	m.AddChecker(&stubChecker{name: "c", result: nil})

	results := m.Check(context.Background())
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if results["a"].Status != StatusHealthy {
		t.Errorf("a = %s", results["a"].Status)
	}
	if results["c"].Status != StatusUnhealthy {
		t.Errorf("nil result should count as unhealthy, got %s", results["c"].Status)
	}
	if results["a"].Latency <= 0 {
		t.Error("Expected latency to be recorded")
	}
}

func TestManager_Timeout(t *testing.T) {
	m := NewManager().WithTimeout(10 * time.Millisecond)
	m.AddChecker(&stubChecker{name: "slow", result: Healthy("late"), delay: time.Second})

	results := m.Check(context.Background())
	if results["slow"].Status != StatusUnhealthy {
		t.Errorf("Expected timeout to be unhealthy, got %s", results["slow"].Status)
	}
}

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		name    string
		results map[string]*Result
		want    Status
	}{
		{"empty", map[string]*Result{}, StatusHealthy},
		{"all healthy", map[string]*Result{"a": Healthy(""), "b": Healthy("")}, StatusHealthy},
		{"one degraded", map[string]*Result{"a": Healthy(""), "b": Degraded("")}, StatusDegraded},
		{"one unhealthy", map[string]*Result{"a": Degraded(""), "b": Unhealthy("")}, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OverallStatus(tt.results); got != tt.want {
				t.Errorf("OverallStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestProbes_Lifecycle(t *testing.T) {
	ctx := context.Background()
	p := NewProbes("1.0.0")
	p.AddChecker(&stubChecker{name: "a", result: Healthy("ok")})

	if got := p.Readiness(ctx).Status; got != StatusUnhealthy {
		t.Errorf("Readiness before init = %s, want unhealthy", got)
	}
	if got := p.Liveness(ctx).Status; got != StatusHealthy {
		t.Errorf("Liveness = %s, want healthy", got)
	}

	p.MarkInitialized()
	ready := p.Readiness(ctx)
	if ready.Status != StatusHealthy {
		t.Errorf("Readiness after init = %s, want healthy", ready.Status)
	}
	if _, ok := ready.Checks["a"]; !ok {
		t.Error("Expected readiness to include check results")
	}
	if ready.Version != "1.0.0" {
		t.Errorf("Version = %q", ready.Version)
	}

	p.MarkShutdown()
	if !p.IsShuttingDown() {
		t.Error("Expected IsShuttingDown after MarkShutdown")
	}
	if got := p.Readiness(ctx).Status; got != StatusUnhealthy {
		t.Errorf("Readiness during shutdown = %s, want unhealthy", got)
	}
	if got := p.Liveness(ctx).Status; got != StatusDegraded {
		t.Errorf("Liveness during shutdown = %s, want degraded", got)
	}
}

func TestCacheChecker(t *testing.T) {
	c := NewCacheChecker(fixedLen(4))
	if c.Name() != "catalog-cache" {
		t.Errorf("Name() = %s", c.Name())
	}
	r := c.Check(context.Background())
	if r.Status != StatusHealthy || r.Details["entries"] != 4 {
		t.Errorf("unexpected result: %+v", r)
	}

	if got := NewCacheChecker(nil).Check(context.Background()).Status; got != StatusDegraded {
		t.Errorf("nil cache = %s, want degraded", got)
	}
}

func TestScorerChecker(t *testing.T) {
	exact := func(a, b string) float64 {
		if a == b {
			return 1
		}
		return 0.1
	}
	if got := NewScorerChecker(exact).Check(context.Background()).Status; got != StatusHealthy {
		t.Errorf("working scorer = %s, want healthy", got)
	}

	constant := func(string, string) float64 { return 0.5 }
	r := NewScorerChecker(constant).Check(context.Background())
	if r.Status != StatusUnhealthy {
		t.Errorf("broken scorer = %s, want unhealthy", r.Status)
	}
	if r.Details["identical"] != 0.5 {
		t.Errorf("expected scores in details, got %+v", r.Details)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := NewScorerChecker(exact).Check(ctx).Status; got != StatusUnhealthy {
		t.Errorf("cancelled check = %s, want unhealthy", got)
	}
}
