package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/killallgit/sherpa/pkg/logger"
)

// HealthStatus represents the health of the backend
type HealthStatus struct {
	Available bool
	Error     error
	Service   string
	Version   string
	Message   string
	Latency   time.Duration
}

// CheckHealth calls GET /health. Failures are reported in the status; the
// returned error is only set when ctx is done.
func (c *Client) CheckHealth(ctx context.Context) (*HealthStatus, error) {
	log := logger.WithComponent("api_health")
	log.Debug("Checking backend health", "base_url", c.baseURL)

	start := time.Now()
	var data HealthData
	env, err := c.getJSON(ctx, "/health", &data)
	latency := time.Since(start)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		log.Error("Health check failed", "error", err)
		return &HealthStatus{Available: false, Error: err, Latency: latency}, nil
	}

	status := &HealthStatus{
		Available: env.Success && data.Status == "ok",
		Service:   data.Service,
		Version:   data.Version,
		Message:   env.Message,
		Latency:   latency,
	}
	if !status.Available {
		status.Error = fmt.Errorf("backend reported status %q: %s", data.Status, env.Message)
	}

	log.Debug("Health check complete", "available", status.Available, "latency", latency)
	return status, nil
}

// CheckHealthWithTimeout performs a health check with a specific timeout
func (c *Client) CheckHealthWithTimeout(timeout time.Duration) (*HealthStatus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return c.CheckHealth(ctx)
}
