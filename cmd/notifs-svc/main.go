package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc/reflection"

	"gochat/internal/di"
	"gochat/internal/logger"
)

func main() {
	app, cleanup, err := di.InitializeNotifier()
	if err != nil {
		log.Fatalf("Failed to initialize notifier: %v", err)
	}
	defer cleanup()

	if err := logger.Init(app.Config.Logging.Level, app.Config.Logging.Format); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	reflection.Register(app.Server)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", app.Config.Server.NotifServicePort))
	if err != nil {
		logger.Log.Fatal("failed to listen", zap.Error(err))
	}

	go func() {
		logger.Log.Info("change notifier listening", zap.String("addr", lis.Addr().String()))
		if err := app.Server.Serve(lis); err != nil {
			logger.Log.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("shutting down change notifier")
	app.Server.GracefulStop()
}
