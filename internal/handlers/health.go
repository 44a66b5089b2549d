package handlers

import (
	"context"
	"net/http"
	"time"
)

const (
	version       = "0.1.0"
	healthTimeout = 3 * time.Second
)

// Check is the outcome of pinging one dependency.
type Check struct {
	Status  string `json:"status"` // "pass" or "fail"
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string           `json:"status"` // "healthy" or "degraded"
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
	Timestamp string           `json:"timestamp"`
}

type dependency struct {
	name string
	ping func(ctx context.Context) error
}

// dependencies lists what the board needs to serve requests.
// Redis is only listed when rate limiting is configured.
func (h *Handler) dependencies() []dependency {
	deps := []dependency{{name: "database", ping: h.store.Ping}}
	if h.redis != nil {
		deps = append(deps, dependency{
			name: "redis",
			ping: func(ctx context.Context) error { return h.redis.Ping(ctx).Err() },
		})
	}
	return deps
}

func runCheck(ctx context.Context, dep dependency) Check {
	start := time.Now()
	if err := dep.ping(ctx); err != nil {
		return Check{Status: "fail", Message: "connection failed"}
	}
	return Check{Status: "pass", Latency: time.Since(start).String()}
}

// Health reports 200 when every dependency answers, 503 otherwise.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Version:   version,
		Checks:    make(map[string]Check),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	statusCode := http.StatusOK

	for _, dep := range h.dependencies() {
		check := runCheck(ctx, dep)
		if check.Status != "pass" {
			h.logger.Warn().Str("dependency", dep.name).Msg("health check failed")
			resp.Status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}
		resp.Checks[dep.name] = check
	}

	h.JSON(w, statusCode, resp)
}

// RootResponse represents the API info response.
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Root handles the API info endpoint.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, RootResponse{Name: "msgboard", Version: version})
}
