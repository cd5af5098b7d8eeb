package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gochat/internal/di"
	"gochat/internal/logger"
)

func main() {
	app, cleanup, err := di.InitializeMediaServer()
	if err != nil {
		log.Fatalf("Failed to initialize media server: %v", err)
	}
	defer cleanup()

	if err := logger.Init(app.Config.Logging.Level, app.Config.Logging.Format); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", app.Config.Server.MediaServicePort),
		Handler:           app.Server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("media server listening",
			zap.String("addr", srv.Addr),
			zap.String("base_url", app.Config.Server.MediaBaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Warn("media server shutdown", zap.Error(err))
	}
}
