package di

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"gorm.io/gorm"

	"gochat/internal/chat/repository"
	"gochat/internal/chat/service"
	"gochat/internal/common"
	"gochat/internal/config"
	"gochat/internal/dbmongo"
	"gochat/internal/dbmysql"
	"gochat/internal/dlp"
	"gochat/internal/logger"
	"gochat/internal/media"
	"gochat/internal/notif"
	"gochat/internal/realtime"
	"gochat/internal/search"
)

// NotifierApp is the change notifier service.
type NotifierApp struct {
	Config *config.Config
	Hub    *notif.Hub
	Server *grpc.Server
}

type MediaApp struct {
	Config *config.Config
	Server *media.HTTPServer
}

// Client is everything a chat client process needs: the writers, the search and the live sync.
type Client struct {
	Config        *config.Config
	Auth          common.AuthContext
	Repo          repository.ChatRepository
	Composer      *service.Composer
	Uploader      *media.Uploader
	Search        *search.Aggregator
	Coordinator   *realtime.Coordinator
	Notifier      *notif.Client
	Notifications *notif.NotificationService
}

func ProvideConfig() *config.Config {
	return config.LoadConfig()
}

func ProvideAuthSigner(cfg *config.Config) (*common.TokenSigner, error) {
	signer, err := common.NewTokenSigner(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("auth signer: %w", err)
	}
	return signer, nil
}

func ProvideMediaSigner(cfg *config.Config) (*common.TokenSigner, error) {
	signer, err := common.NewTokenSigner(cfg.Auth.MediaURLSecret)
	if err != nil {
		return nil, fmt.Errorf("media signer: %w", err)
	}
	return signer, nil
}

// ProvideAuthContext resolves the identity behind the configured bearer token.
func ProvideAuthContext(cfg *config.Config) (common.AuthContext, error) {
	signer, err := ProvideAuthSigner(cfg)
	if err != nil {
		return common.AuthContext{}, err
	}
	if cfg.Auth.Token == "" {
		return common.AuthContext{}, common.ErrNoAuthContext
	}
	return signer.ParseAuthToken(cfg.Auth.Token)
}

func ProvideHub(cfg *config.Config) (*notif.Hub, func()) {
	hub := notif.NewHub(cfg.Notification.Workers, cfg.Notification.ChannelBufferSize)
	return hub, hub.Shutdown
}

func ProvideNotifierConn(cfg *config.Config) (*grpc.ClientConn, func(), error) {
	conn, err := notif.Dial(cfg.Server.NotifServiceAddr, cfg.Auth.Token)
	if err != nil {
		return nil, nil, fmt.Errorf("dial notifier %s: %w", cfg.Server.NotifServiceAddr, err)
	}
	cleanup := func() {
		if err := conn.Close(); err != nil {
			logger.Log.Warn("closing notifier connection", zap.Error(err))
		}
	}
	return conn, cleanup, nil
}

func ProvideNotifierClient(conn *grpc.ClientConn) *notif.Client {
	return notif.NewClient(conn)
}

// ProvideChangePublisher queues change signals for the notifier so writes never wait on it.
// The cleanup flushes what is queued before the connection closes.
func ProvideChangePublisher(cfg *config.Config, client *notif.Client) (*notif.AsyncPublisher, func()) {
	publisher := notif.NewAsyncPublisher(client, cfg.Notification.ChannelBufferSize)
	return publisher, publisher.Close
}

// ProvideDatabase connects, migrates and installs the change hook so every write is announced.
func ProvideDatabase(cfg *config.Config, publisher common.Publisher) (*gorm.DB, error) {
	db, err := dbmysql.NewMySQL(cfg)
	if err != nil {
		return nil, err
	}
	if err := notif.RegisterChangeHook(db, publisher); err != nil {
		return nil, err
	}
	return db, nil
}

func ProvideMongo(cfg *config.Config) (*dbmongo.MongoClient, func(), error) {
	client, err := dbmongo.NewMongoConnection(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Close(ctx); err != nil {
			logger.Log.Warn("closing mongo connection", zap.Error(err))
		}
	}
	return client, cleanup, nil
}

func ProvideMediaStorage(cfg *config.Config, client *dbmongo.MongoClient, signer *common.TokenSigner) *dbmongo.MediaStorage {
	return dbmongo.NewMediaStorage(client, signer, cfg.Server.MediaBaseURL)
}

func ProvideScanner() *dlp.Scanner {
	return dlp.Default()
}

func ProvideComposer(
	cfg *config.Config,
	repo repository.ChatRepository,
	uploader *media.Uploader,
	notifications *notif.NotificationService,
	scanner *dlp.Scanner,
) *service.Composer {
	return service.NewComposer(repo, uploader, notifications, scanner, cfg.DLP.MaskOnSend)
}

func ProvideCoordinator(notifier common.ChangeNotifier) (*realtime.Coordinator, func()) {
	coordinator := realtime.NewCoordinator(notifier)
	return coordinator, coordinator.Close
}
