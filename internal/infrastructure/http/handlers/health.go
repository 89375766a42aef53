package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// QueueProbe is implemented by the job buses: Mode names the bus ("asynq" or
// "local") and Check reports whether it still accepts jobs.
type QueueProbe interface {
	Mode() string
	Check(ctx context.Context) error
}

// HealthHandler serves /health with database, Redis and job bus checks. A nil
// pool reports the in-memory store; a nil Redis client or queue is skipped.
type HealthHandler struct {
	pool  *pgxpool.Pool
	redis *redis.Client
	queue QueueProbe
}

func NewHealthHandler(pool *pgxpool.Pool, redisClient *redis.Client, queue QueueProbe) *HealthHandler {
	return &HealthHandler{pool: pool, redis: redisClient, queue: queue}
}

type healthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
	Message string            `json:"message,omitempty"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allOK := true

	if h.pool != nil {
		if err := h.pool.Ping(ctx); err != nil {
			checks["database"] = "down: " + err.Error()
			allOK = false
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "memory"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "down: " + err.Error()
			allOK = false
		} else {
			checks["redis"] = "ok"
		}
	}

	if h.queue != nil {
		if err := h.queue.Check(ctx); err != nil {
			checks["queue"] = h.queue.Mode() + " down: " + err.Error()
			allOK = false
		} else {
			checks["queue"] = h.queue.Mode()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if !allOK {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(healthResponse{
			Status:  "unhealthy",
			Checks:  checks,
			Message: "one or more checks failed",
		})
		return
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status: "ok",
		Checks: checks,
	})
}
