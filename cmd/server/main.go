package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/PirateGame/game-pod/internal/auth"
	"github.com/PirateGame/game-pod/internal/cache"
	"github.com/PirateGame/game-pod/internal/config"
	"github.com/PirateGame/game-pod/internal/database"
	"github.com/PirateGame/game-pod/internal/game"
	"github.com/PirateGame/game-pod/internal/ws"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Load()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	for _, warning := range cfg.Warnings() {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := database.Connect(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("connecting to postgres")
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		log.WithError(err).Fatal("running migrations")
	}

	// The action recorder is best-effort: without redis the server still
	// runs, it just keeps no replay log.
	var recorder game.ActionRecorder
	rec := cache.New(cfg.RedisAddr, log)
	if err := rec.Ping(ctx); err != nil {
		log.WithError(err).Warn("redis unreachable, action recording disabled")
	} else {
		recorder = rec
		defer rec.Close()
	}

	hub := ws.NewHub(log)
	registry := game.NewRegistry(ctx, store, hub, recorder)
	if err := registry.Resume(ctx); err != nil {
		log.WithError(err).Error("resuming active rooms")
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", ws.NewServer(hub, store, auth.New(cfg.JWTSecret), registry, log))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.WithField("port", cfg.Port).Info("game pod listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server exited")
	}
}
