package health

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Status represents the health status of a component
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Check represents a single health check
type Check struct {
	Name      string            `json:"name"`
	Status    Status            `json:"status"`
	Message   string            `json:"message,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	Duration  time.Duration     `json:"duration"`
	Timestamp time.Time         `json:"timestamp"`
}

// HealthReport represents the overall health of the application
type HealthReport struct {
	Status    Status           `json:"status"`
	Version   string           `json:"version"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
	Uptime    string           `json:"uptime"`
}

// Checker defines the interface for health checks
type Checker interface {
	Check(ctx context.Context) Check
}

// Pinger is anything with a context-aware Ping, such as the history store
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker checks a database connection
type PingChecker struct {
	Target Pinger
	Name   string
}

func (c *PingChecker) Check(ctx context.Context) Check {
	return timed(c.Name, func(check *Check) {
		if err := c.Target.Ping(ctx); err != nil {
			check.Status = StatusDown
			check.Message = fmt.Sprintf("%s connection failed: %v", c.Name, err)
			check.Details["error"] = err.Error()
			return
		}
		check.Status = StatusUp
		check.Message = fmt.Sprintf("%s connection successful", c.Name)
	})
}

// RedisChecker checks Redis connectivity
type RedisChecker struct {
	Client *redis.Client
	Name   string
}

func (c *RedisChecker) Check(ctx context.Context) Check {
	return timed(c.Name, func(check *Check) {
		pong, err := c.Client.Ping(ctx).Result()
		if err != nil {
			check.Status = StatusDown
			check.Message = fmt.Sprintf("Redis connection failed: %v", err)
			check.Details["error"] = err.Error()
			return
		}
		check.Status = StatusUp
		check.Message = "Redis connection successful"
		check.Details["ping_response"] = pong
	})
}

// FuncChecker adapts a function. A nil error is up; the returned details are attached either way.
type FuncChecker struct {
	Name string
	Fn   func(ctx context.Context) (map[string]string, error)
}

func (c *FuncChecker) Check(ctx context.Context) Check {
	return timed(c.Name, func(check *Check) {
		details, err := c.Fn(ctx)
		for k, v := range details {
			check.Details[k] = v
		}
		if err != nil {
			check.Status = StatusDegraded
			check.Message = err.Error()
			return
		}
		check.Status = StatusUp
	})
}

func timed(name string, run func(*Check)) Check {
	start := time.Now()
	check := Check{
		Name:      name,
		Timestamp: start,
		Details:   make(map[string]string),
	}
	run(&check)
	check.Duration = time.Since(start)
	check.Details["response_time"] = check.Duration.String()
	return check
}

// HealthChecker orchestrates multiple health checks
type HealthChecker struct {
	checkers  []Checker
	version   string
	startTime time.Time
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		checkers:  make([]Checker, 0),
		version:   version,
		startTime: time.Now(),
	}
}

// AddChecker adds a health checker
func (h *HealthChecker) AddChecker(checker Checker) {
	h.checkers = append(h.checkers, checker)
}

// CheckHealth runs every check. Any down check makes the whole report down;
// degraded checks only degrade it.
func (h *HealthChecker) CheckHealth(ctx context.Context) HealthReport {
	checks := make(map[string]Check)
	overall := StatusUp

	for _, checker := range h.checkers {
		check := checker.Check(ctx)
		checks[check.Name] = check

		switch {
		case check.Status == StatusDown:
			overall = StatusDown
		case check.Status == StatusDegraded && overall == StatusUp:
			overall = StatusDegraded
		}
	}

	return HealthReport{
		Status:    overall,
		Version:   h.version,
		Timestamp: time.Now(),
		Checks:    checks,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
}
