package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"admission-gateway/config"
	"admission-gateway/middleware/admission"
	"admission-gateway/middleware/admission/application"
	"admission-gateway/middleware/admission/domain"
	"admission-gateway/middleware/admission/infra"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := flag.String("config", os.Getenv("ADMISSION_CONFIG"), "path to the YAML configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}
	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	if cfg.HTTP.UpstreamURL == "" {
		fatal(logger, "http.upstream_url is required", nil)
	}
	target, err := url.Parse(cfg.HTTP.UpstreamURL)
	if err != nil {
		fatal(logger, "invalid upstream url", err)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("proxy error", "path", r.URL.Path, "err", err)
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ctrl, rdb, stats, err := buildController(ctx, cfg, logger)
	if err != nil {
		fatal(logger, "admission setup failed", err)
	}
	defer func() { _ = ctrl.Close() }()
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.ListenAddr,
		Handler:           buildHandler(cfg, ctrl, stats, proxy, logger),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("gateway listening",
		"addr", cfg.HTTP.ListenAddr,
		"upstream", target.String(),
		"mode", string(ctrl.Mode()),
		"routes", ctrl.Quotas().Len(),
	)
	logger.Info("inflight", "max", cfg.Inflight.Max, "acquire_timeout", cfg.Inflight.Timeout)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal(logger, "server error", err)
	}
}

// buildHandler monta a cadeia: healthz e métricas fora da admissão, o resto
// passa pelo limite de concorrência, depois pela admissão, depois pelo upstream.
func buildHandler(cfg *config.Config, ctrl *application.Controller, prom *infra.PrometheusStats, upstream http.Handler, logger *slog.Logger) http.Handler {
	h := admission.Middleware(ctrl, admission.Options{
		StripPrefix:         cfg.HTTP.StripPrefix,
		RetryAfter:          cfg.HTTP.RetryAfter,
		AddAdmissionHeaders: cfg.HTTP.AddHeaders,
		RequestIDs:          cfg.HTTP.RequestIDs,
		Logger:              logger,
	})(upstream)
	h = admission.InflightMiddleware(admission.InflightOptions{
		Max:            cfg.Inflight.Max,
		AcquireTimeout: cfg.Inflight.Timeout,
	})(h)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	if prom != nil {
		mux.Handle("GET "+cfg.Metrics.Path, prom.Handler())
	}
	mux.Handle("/", h)
	return mux
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.FromEnv()
	}
	return config.Load(path)
}

// buildController retorna o controller, o client Redis compartilhado com o
// sink de stats (só no modo shared) e o sink Prometheus quando habilitado.
func buildController(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application.Controller, *redis.Client, *infra.PrometheusStats, error) {
	acfg := cfg.Admission()

	var rdb *redis.Client
	var sinks infra.MultiStats
	var prom *infra.PrometheusStats

	if acfg.Mode == domain.ModeShared {
		c, err := admission.DialRedis(acfg.Store)
		if err != nil {
			return nil, nil, nil, err
		}
		rdb = c
		if cfg.Stats.Redis {
			sinks = append(sinks, infra.NewRedisStatsStore(rdb,
				infra.WithStatsPrefix(cfg.Stats.Prefix),
				infra.WithStatsTTL(cfg.Stats.TTL),
				infra.WithStatsBucket(cfg.Stats.Bucket),
			))
		}
	}
	if cfg.Metrics.Enabled {
		quotas, err := domain.NewQuotaTable(acfg.Quotas)
		if err != nil {
			return nil, nil, nil, err
		}
		prom = infra.NewPrometheusStats(quotas, prometheus.NewRegistry())
		sinks = append(sinks, prom)
	}

	ctrlOpts := []application.Option{
		application.WithLogger(logger),
		application.WithLogSampling(cfg.Log.SampleEvery),
	}
	if len(sinks) > 0 {
		ctrlOpts = append(ctrlOpts, application.WithStats(sinks))
	}

	buildOpts := []admission.BuildOption{admission.WithControllerOptions(ctrlOpts...)}
	if rdb != nil {
		buildOpts = append(buildOpts, admission.WithRedisClient(rdb))
	}

	ctrl, err := admission.New(ctx, acfg, buildOpts...)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, nil, nil, err
	}
	return ctrl, rdb, prom, nil
}

func fatal(logger *slog.Logger, msg string, err error) {
	if err != nil {
		logger.Error(msg, "err", err)
	} else {
		logger.Error(msg)
	}
	os.Exit(1)
}
