package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/pricelist/internal/app"
	"github.com/noah-isme/pricelist/internal/catalog"
	"github.com/noah-isme/pricelist/internal/common"
	"github.com/noah-isme/pricelist/internal/config"
	"github.com/noah-isme/pricelist/internal/health"
	"github.com/noah-isme/pricelist/internal/lock"
	"github.com/noah-isme/pricelist/internal/obs"
	"github.com/noah-isme/pricelist/internal/pricing"
	"github.com/noah-isme/pricelist/internal/queue"
	"github.com/noah-isme/pricelist/internal/ratelimit"
	"github.com/noah-isme/pricelist/internal/security"
	"github.com/noah-isme/pricelist/internal/shoppinglist"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	tracingEnabled := cfg.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   obs.DefaultServiceName,
			Endpoint:      cfg.OTLPEndpoint,
			Exporter:      cfg.TracingExporter,
			SamplingRatio: cfg.TracingSampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	deps, err := app.Build(connectCtx, cfg, logger, cfg.MetricsEnabled)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	holder := catalog.NewHolder(catalog.HolderConfig{Provider: deps.Provider, Source: cfg.CatalogSource})
	go func() {
		_ = holder.Load(logger.WithContext(ctx))
	}()
	if deps.Redis != nil {
		go func() {
			if err := catalog.WatchRefresh(logger.WithContext(ctx), deps.Redis, holder); err != nil {
				logger.Warn().Err(err).Msg("catalog refresh notifications disabled")
			}
		}()
	}

	var store shoppinglist.Store = shoppinglist.NewMemoryStore(cfg.ShoppingListTTL)
	var locker shoppinglist.Locker = &lock.Local{}
	idem := common.Idem{TTL: cfg.IdempotencyTTL}
	if deps.Redis != nil {
		store = shoppinglist.RedisStore{R: deps.Redis, TTL: cfg.ShoppingListTTL}
		locker = lock.Locker{R: deps.Redis, RetryBackoff: cfg.LockRetryBackoff}
		idem.R = deps.Redis
	}
	listHandler := &shoppinglist.Handler{Svc: shoppinglist.NewService(shoppinglist.ServiceConfig{
		Store:   store,
		Holder:  holder,
		Locker:  locker,
		LockTTL: cfg.LockTTL,
	})}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Holder: holder})
	pricingHandler := pricing.NewHandler(pricing.HandlerConfig{Holder: holder})

	rateLimiter, err := ratelimit.New(cfg.RateLimit, deps.Redis, "pricelist:ratelimit")
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}

	var httpMetrics *obs.HTTPMetrics
	if cfg.MetricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: cfg.SecurityHeadersEnabled, HSTSMaxAge: cfg.HSTSMaxAge}.Middleware)
	r.Use(security.CORS(cfg.CORSAllowedOrigins))
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	probes := map[string]health.Probe{"catalog": health.CatalogReady(holder)}
	if deps.Redis != nil {
		probes["redis"] = health.PingRedis(deps.Redis)
	}
	if deps.DB != nil {
		probes["db"] = health.PingDB(deps.DB)
	}
	healthHandler := health.Handler{
		Probes:  probes,
		Timeout: envDurationMillis("HEALTH_READY_TIMEOUT_MS", 500),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(ratelimit.Handler{Limiter: rateLimiter}.Middleware)

		v.Get("/catalog/status", catalogHandler.Status)
		v.Get("/categories", catalogHandler.Categories)
		v.Get("/catalog", catalogHandler.Browse)
		v.Get("/items/{item}/sizes", catalogHandler.Sizes)
		v.Get("/pricing/quote", pricingHandler.Quote)

		v.Route("/lists", func(l chi.Router) {
			l.Get("/{id}", listHandler.Get)
			l.Group(func(g chi.Router) {
				g.Use(catalog.RequireReady(holder))
				g.Post("/", listHandler.Create)
				g.With(idem.Middleware).Post("/{id}/lines", listHandler.AddLine)
				g.Patch("/{id}/lines/{index}", listHandler.SetLineQuantity)
				g.Delete("/{id}/lines/{index}", listHandler.RemoveLine)
			})
		})

		if deps.TaskClient != nil {
			adminHandler := &queue.AdminHandler{Queue: deps.TaskClient, Inspector: deps.Inspector}
			v.Route("/admin", func(a chi.Router) {
				a.Use(requireAdminToken(envOrDefault("ADMIN_TOKEN", "")))
				a.Post("/catalog/refresh", adminHandler.RefreshCatalog)
				a.Get("/queues", adminHandler.Stats)
			})
		}
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown")
		}
	}()

	health.SetReady(true)
	logger.Info().Str("addr", srv.Addr).Str("catalog_source", cfg.CatalogSource).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server shutdown complete")
}

// requireAdminToken guards admin routes with a bearer token. An empty token
// disables the routes.
func requireAdminToken(token string) func(http.Handler) http.Handler {
	token = strings.TrimSpace(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "not found", nil)
				return
			}
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				common.JSONError(w, http.StatusUnauthorized, common.CodeUnauthorized, "unauthorised", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return time.Duration(parsed) * time.Millisecond
		}
	}
	return time.Duration(fallback) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
