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

	"github.com/linesmerrill/clinic-api/api/handlers"
	"github.com/linesmerrill/clinic-api/config"
)

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 15 * time.Second
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	err := a.Initialize(ctx) //initialize database and router
	cancel()
	if err != nil {
		zap.S().Fatalw("failed to initialize clinic-api", "error", err)
	}
	a.StartScheduler()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%v", a.Config.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop, release := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer release()

	go func() {
		zap.S().Infow("clinic-api is up and running",
			"port", a.Config.Port,
			"url", a.Config.BaseURL,
			"env", a.Config.Env,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Fatalw("server stopped", "error", err)
		}
	}()

	<-stop.Done()
	zap.S().Info("shutting down")

	ctx, cancel = context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.S().Errorw("failed to drain connections", "error", err)
	}
	a.Close(ctx)
	_ = zap.L().Sync()
}
