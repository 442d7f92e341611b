package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/meet-service/config"
	"github.com/cwrk-planet/meet-service/internal/registry"
	"github.com/cwrk-planet/meet-service/internal/service"
	httpx "github.com/cwrk-planet/meet-service/internal/transport/http"
	"github.com/cwrk-planet/meet-service/internal/transport/ws"
	"github.com/cwrk-planet/meet-service/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting meet-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- registry ---
	reg := registry.New(registry.Config{
		CodeLength:       cfg.Room.CodeLength,
		ChatHistoryLimit: cfg.Room.ChatHistoryLimit,
		MaxParticipants:  cfg.Room.MaxParticipants,
	})

	// --- services ---
	roomSvc := service.NewRoomService(reg)
	memberSvc := service.NewMemberService(reg)
	chatSvc := service.NewChatService(reg)

	// --- WS Hub & Server ---
	hub := ws.NewHub()
	wsServer := ws.NewServer(hub, memberSvc, chatSvc)

	// --- HTTP ---
	handler := httpx.NewHandler(roomSvc, memberSvc, chatSvc, hub)
	router := httpx.NewRouter(handler, memberSvc, wsServer)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
