package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/auth"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/config"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/handler"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/service"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/store"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/pkg/jwt"
	pkglog "github.com/Squeakyrexx/SYNCBEATS-sub000/pkg/log"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/pkg/middleware"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: "syncbeats",
	})
	logger := pkglog.L()

	logger.Info().Str("version", version).Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).
		Dur("keep_alive", cfg.Stream.KeepAliveInterval).Dur("room_retention", cfg.Room.Retention).
		Msg("starting sync service")

	// Root context cancels on SIGINT/SIGTERM; every session watches it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize in-memory stores
	rooms := store.NewRoomStore()

	users, err := auth.NewUserStore(cfg.Users)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to seed user table")
	}
	logger.Info().Int("users", len(cfg.Users)).Msg("user table initialized")

	// Initialize token manager and auth middleware
	tokens := jwt.NewManager(cfg.Auth.Secret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, cfg.Auth.Issuer)
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	// Initialize sync service and janitor
	syncSvc := service.NewSyncService(rooms)
	janitor := service.NewJanitor(rooms, cfg.Room.Retention, cfg.Room.SweepInterval)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(version)
	authHandler := handler.NewAuthHandler(users, tokens)
	roomHandler := handler.NewRoomHandler(syncSvc, authMiddleware, cfg.Room.CodeLength, cfg.Room.CodeAlphabet)
	streamHandler := handler.NewStreamHandler(syncSvc, cfg.Stream.KeepAliveInterval, cfg.Stream.SinkBuffer, ctx)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	healthHandler.RegisterRoutes(r)
	authHandler.RegisterRoutes(r)
	roomHandler.RegisterRoutes(r)
	streamHandler.RegisterRoutes(r)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: subscription streams stay open indefinitely.
		IdleTimeout: 120 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("sync service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return janitor.Run(gCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info().Msg("shutting down sync service")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("sync service exited with error")
		return
	}

	logger.Info().Msg("sync service stopped")
}
