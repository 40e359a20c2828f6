package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/drynks-api/api/handlers"
	"github.com/linesmerrill/drynks-api/api/scheduler"
	"github.com/linesmerrill/drynks-api/config"
)

const shutdownTimeout = 15 * time.Second

func main() {
	a := handlers.App{}
	a.Config = *config.New()
	defer zap.L().Sync() //nolint:errcheck

	//initialize database and router
	if err := a.Initialize(); err != nil {
		zap.S().Fatalw("failed to initialize", "error", err)
	}

	sched := scheduler.NewScheduler(a.Tokens, a.Config.RevokedTokenRetention)
	if err := sched.Start(); err != nil {
		zap.S().Warnw("scheduler did not start", "error", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%v", a.Config.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.S().Infow("drynks-api is up and running",
			"port", a.Config.Port,
			"url", a.Config.BaseURL,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Fatalw("server stopped", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.S().Warnw("graceful shutdown failed", "error", err)
	}
	sched.Stop()
	a.Close(ctx)
	zap.S().Info("drynks-api stopped")
}
