package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/realmariusconstantin/romish-client/internal/api"
	"github.com/realmariusconstantin/romish-client/internal/channel"
	"github.com/realmariusconstantin/romish-client/internal/config"
	"github.com/realmariusconstantin/romish-client/internal/httpapi"
	"github.com/realmariusconstantin/romish-client/internal/session"
	"github.com/realmariusconstantin/romish-client/pkg/wire"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := buildLogger(cfg.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := api.New(
		api.WithBaseURL(cfg.APIBaseURL),
		api.WithToken(cfg.AuthToken),
		api.WithLogger(log),
	)

	// Identity first: an unauthenticated session can still watch the queue,
	// so a failed verify downgrades rather than exits.
	var self wire.User
	if user, err := client.Verify(ctx); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			log.Info("not logged in, running in spectator mode")
		} else {
			log.Warn("identity verification failed", zap.Error(err))
		}
	} else {
		self = *user
		log.Info("logged in", zap.String("user", self.Username), zap.String("steamId", self.SteamID))
	}

	channels := channel.NewManager(cfg.PrimaryWSURL, cfg.MatchWSURL, cfg.ChatWSURL, log)
	defer channels.DisconnectAll()

	sess := session.New(ctx, client, channels, self,
		session.WithLogger(log),
		session.WithTokenSource(func() string { return cfg.AuthToken }),
	)

	if err := sess.Connect(ctx); err != nil {
		log.Fatal("primary channel dial failed", zap.Error(err))
	}

	// Pick up any queue, accept phase or match this player was already in
	// before the process started.
	recovered := make(chan error, 1)
	sess.Inbox() <- session.Recover{Reply: recovered}
	if err := <-recovered; err != nil {
		log.Warn("state recovery failed", zap.Error(err))
	}

	if cfg.DebugAddr != "" {
		srv := &http.Server{Addr: cfg.DebugAddr, Handler: httpapi.SetupRoutes(sess)}
		go func() {
			log.Info("debug surface listening", zap.String("addr", cfg.DebugAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("debug surface stopped", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	<-ctx.Done()
	log.Info("shutting down")
}

func buildLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return log
}
