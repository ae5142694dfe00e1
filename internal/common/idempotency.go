package common

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// IdempotencyHeader carries the client supplied request key.
const IdempotencyHeader = "Idempotency-Key"

// ReplayedHeader marks a response served from the idempotency store.
const ReplayedHeader = "Idempotent-Replayed"

const pendingMarker = "pending"

// Idem provides an Idempotency-Key middleware backed by Redis. Requests
// without the header, or with no Redis configured, pass through.
type Idem struct {
	R   redis.Cmdable
	TTL time.Duration
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

func hashKey(method, path, key string) string {
	sum := sha256.Sum256([]byte(method + " " + path + " " + key))
	return "idem:" + hex.EncodeToString(sum[:])
}

// Middleware runs the first request for a key and stores its response. A
// repeat of a completed request gets the stored response back; a repeat that
// arrives while the first is still running gets 409 IDEMPOTENT_REPLAY. A 5xx
// or a panic releases the key so the client may retry.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(IdempotencyHeader)
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		key := hashKey(r.Method, r.URL.Path, header)
		claimed, err := i.R.SetNX(ctx, key, pendingMarker, i.ttl()).Result()
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("idempotency_store")
			JSONError(w, http.StatusInternalServerError, CodeInternal, "idempotency store error", nil)
			return
		}
		if !claimed {
			i.replay(ctx, w, key)
			return
		}

		var body bytes.Buffer
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Tee(&body)
		completed := false
		defer func() {
			i.finish(context.WithoutCancel(ctx), key, ww, body.Bytes(), completed)
		}()
		next.ServeHTTP(ww, r)
		completed = true
	})
}

func (i Idem) replay(ctx context.Context, w http.ResponseWriter, key string) {
	raw, err := i.R.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) || string(raw) == pendingMarker {
		JSONError(w, http.StatusConflict, CodeIdempotentReplay, "request with this key is still in progress", nil)
		return
	}
	var stored storedResponse
	if err == nil {
		err = json.Unmarshal(raw, &stored)
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("idempotency_replay")
		JSONError(w, http.StatusInternalServerError, CodeInternal, "idempotency store error", nil)
		return
	}
	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write(stored.Body)
}

// finish stores the response for replay. A panicking handler, one that wrote
// no status, or a 5xx releases the key instead.
func (i Idem) finish(ctx context.Context, key string, ww middleware.WrapResponseWriter, body []byte, completed bool) {
	status := ww.Status()
	if !completed || status == 0 || status >= http.StatusInternalServerError {
		_ = i.R.Del(ctx, key).Err()
		return
	}
	raw, err := json.Marshal(storedResponse{
		Status:      status,
		ContentType: ww.Header().Get("Content-Type"),
		Body:        body,
	})
	if err == nil {
		err = i.R.Set(ctx, key, raw, i.ttl()).Err()
	}
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("idempotency_save")
	}
}

func (i Idem) ttl() time.Duration {
	if i.TTL <= 0 {
		return 24 * time.Hour
	}
	return i.TTL
}
