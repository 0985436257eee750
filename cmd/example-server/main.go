package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"admission-gateway/middleware/admission"
	"admission-gateway/middleware/admission/domain"
)

// Serve alguns endpoints só de leitura com o middleware de admissão injetado
// direto, no modo local. /items admite 5 requisições, /items/stats 2.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ctrl, err := admission.New(ctx, admission.Config{
		Mode: domain.ModeLocal,
		Quotas: map[string]int64{
			"/items":       5,
			"/items/stats": 2,
		},
	})
	if err != nil {
		logger.Error("admission setup failed", "err", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /items", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []string{"alpha", "beta", "gamma"})
	})
	mux.HandleFunc("GET /items/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]int{"count": 3})
	})

	h := admission.Middleware(ctrl, admission.Options{
		AddAdmissionHeaders: true,
		RequestIDs:          true,
		Logger:              logger,
	})(mux)

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("example server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
