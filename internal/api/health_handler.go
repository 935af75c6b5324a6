package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futureme/futureme/internal/service/letter"
	"github.com/futureme/futureme/internal/worker"
)

// HealthStatus represents the overall health of the system.
type HealthStatus struct {
	Status string                    `json:"status"` // "healthy", "unhealthy"
	Uptime string                    `json:"uptime"`
	Checks map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck represents the health of a single component.
type ComponentCheck struct {
	Status   string `json:"status"` // "up", "down", "not_configured"
	Latency  string `json:"latency,omitempty"`
	Message  string `json:"message,omitempty"`
	LastTick string `json:"last_tick,omitempty"`
}

// HealthChecker probes the letter store and reports poller liveness.
type HealthChecker struct {
	repo      letter.Repository
	poller    *worker.DeliveryPoller
	startTime time.Time
}

// NewHealthChecker creates a HealthChecker. The poller may be nil when the
// server runs API-only; its check then reports "not_configured".
func NewHealthChecker(repo letter.Repository, poller *worker.DeliveryPoller) *HealthChecker {
	return &HealthChecker{
		repo:      repo,
		poller:    poller,
		startTime: time.Now(),
	}
}

// HandleHealth reports store reachability and poller status. A down store
// makes the whole response a 500 so load balancers rotate the instance
// out.
//
//	GET /healthz
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]ComponentCheck{
		"database": hc.checkDatabase(r.Context()),
		"poller":   hc.checkPoller(),
	}

	status := HealthStatus{
		Status: "healthy",
		Uptime: time.Since(hc.startTime).Round(time.Second).String(),
		Checks: checks,
	}

	code := http.StatusOK
	if checks["database"].Status == "down" {
		status.Status = "unhealthy"
		code = http.StatusInternalServerError
	}
	respondJSON(w, code, status)
}

func (hc *HealthChecker) checkDatabase(ctx context.Context) ComponentCheck {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := hc.repo.Ping(ctx); err != nil {
		return ComponentCheck{Status: "down", Message: err.Error()}
	}
	return ComponentCheck{Status: "up", Latency: fmt.Sprintf("%dms", time.Since(start).Milliseconds())}
}

func (hc *HealthChecker) checkPoller() ComponentCheck {
	if hc.poller == nil {
		return ComponentCheck{Status: "not_configured"}
	}
	if !hc.poller.IsRunning() {
		return ComponentCheck{Status: "down", Message: "poller not running"}
	}
	check := ComponentCheck{Status: "up"}
	if last := hc.poller.LastTick(); !last.IsZero() {
		check.LastTick = last.Format(time.RFC3339)
	}
	return check
}
