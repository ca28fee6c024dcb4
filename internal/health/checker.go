// Package health provides liveness and readiness probes for the worker's
// admin endpoint.
package health

import (
	"context"
	"sync"
	"time"
)

// ServerProber reports whether the remote TopChef server answers its
// liveness probe. Implemented by the API gateway.
type ServerProber interface {
	IsAlive(ctx context.Context) bool
}

// Status represents the health status of a component.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult contains the result of a health check.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Response is the health check response.
type Response struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// IsHealthy returns true if the overall status is healthy.
func (r *Response) IsHealthy() bool {
	return r.Status == StatusHealthy
}

// Checker performs health checks for a running worker.
type Checker struct {
	server  ServerProber
	timeout time.Duration

	mu           sync.RWMutex
	lastCheck    time.Time
	cachedReady  *Response
	shuttingDown bool
}

// NewChecker creates a health checker probing the given server.
func NewChecker(server ServerProber) *Checker {
	return &Checker{
		server:  server,
		timeout: 5 * time.Second,
	}
}

// Liveness reports whether the worker process itself is alive. It never
// touches the network; failing it should restart the process.
func (c *Checker) Liveness(ctx context.Context) *Response {
	return &Response{Status: StatusHealthy}
}

// Readiness reports whether the worker can make progress, which requires the
// remote server to be reachable. Results are cached briefly so probes do not
// multiply the worker's own polling traffic.
func (c *Checker) Readiness(ctx context.Context) *Response {
	c.mu.RLock()
	if c.shuttingDown {
		c.mu.RUnlock()
		return &Response{
			Status: StatusUnhealthy,
			Checks: map[string]CheckResult{
				"shutdown": {Status: StatusUnhealthy, Message: "worker is shutting down"},
			},
		}
	}
	if c.cachedReady != nil && time.Since(c.lastCheck) < time.Second {
		cached := c.cachedReady
		c.mu.RUnlock()
		return cached
	}
	c.mu.RUnlock()

	check := c.checkServer(ctx)
	response := &Response{
		Status: check.Status,
		Checks: map[string]CheckResult{"server": check},
	}

	c.mu.Lock()
	c.cachedReady = response
	c.lastCheck = time.Now()
	c.mu.Unlock()

	return response
}

func (c *Checker) checkServer(ctx context.Context) CheckResult {
	if c.server == nil {
		return CheckResult{Status: StatusUnhealthy, Message: "server prober not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if !c.server.IsAlive(ctx) {
		return CheckResult{Status: StatusUnhealthy, Message: "server liveness probe failed"}
	}
	return CheckResult{Status: StatusHealthy}
}

// SetShuttingDown marks the worker as shutting down, turning readiness
// unhealthy so supervisors stop routing to it.
func (c *Checker) SetShuttingDown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shuttingDown = true
	c.cachedReady = nil
}
