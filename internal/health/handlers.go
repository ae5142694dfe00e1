package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	redis "github.com/redis/go-redis/v9"
)

var draining atomic.Bool

// SetReady toggles readiness. The API flips it to false when shutdown starts
// so load balancers stop routing before connections close.
func SetReady(ready bool) {
	draining.Store(!ready)
}

// Probe reports whether one dependency can serve traffic.
type Probe func(ctx context.Context) error

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Probes  map[string]Probe
	Timeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready runs every probe with the configured timeout and answers 503 when
// any fails or the process is shutting down.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	status := make(map[string]string, len(h.Probes)+1)
	healthy := !draining.Load()
	if !healthy {
		status["server"] = "shutting down"
	}

	names := make([]string, 0, len(h.Probes))
	for name := range h.Probes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout())
		err := h.Probes[name](ctx)
		cancel()
		if err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func (h Handler) timeout() time.Duration {
	if h.Timeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.Timeout
}

// Readier is satisfied by the catalog holder.
type Readier interface {
	Ready(ctx context.Context) error
}

// CatalogReady probes the catalog load state.
func CatalogReady(r Readier) Probe {
	return func(ctx context.Context) error {
		if r == nil {
			return errors.New("catalog not configured")
		}
		return r.Ready(ctx)
	}
}

// PingRedis probes a Redis client.
func PingRedis(client redis.Cmdable) Probe {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingDB probes a database pool.
func PingDB(db Pinger) Probe {
	return func(ctx context.Context) error {
		return db.Ping(ctx)
	}
}
