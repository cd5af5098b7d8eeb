//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"gochat/internal/chat/repository"
	"gochat/internal/common"
	"gochat/internal/dbmongo"
	"gochat/internal/dbmysql"
	"gochat/internal/media"
	"gochat/internal/notif"
	"gochat/internal/search"
)

func InitializeNotifier() (*NotifierApp, func(), error) {
	wire.Build(
		ProvideConfig,
		ProvideAuthSigner,
		ProvideHub,
		notif.NewGRPCServer,
		wire.Struct(new(NotifierApp), "*"),
	)
	return nil, nil, nil
}

func InitializeMediaServer() (*MediaApp, func(), error) {
	wire.Build(
		ProvideConfig,
		ProvideMongo,
		ProvideMediaSigner,
		ProvideMediaStorage,
		wire.Bind(new(media.ObjectReader), new(*dbmongo.MediaStorage)),
		media.NewHTTPServer,
		wire.Struct(new(MediaApp), "*"),
	)
	return nil, nil, nil
}

func InitializeClient() (*Client, func(), error) {
	wire.Build(
		ProvideConfig,
		ProvideAuthContext,
		ProvideNotifierConn,
		ProvideNotifierClient,
		ProvideChangePublisher,
		wire.Bind(new(common.Publisher), new(*notif.AsyncPublisher)),
		wire.Bind(new(common.ChangeNotifier), new(*notif.Client)),
		ProvideDatabase,
		repository.NewChatRepository,
		ProvideMongo,
		ProvideMediaSigner,
		ProvideMediaStorage,
		wire.Bind(new(common.ObjectStore), new(*dbmongo.MediaStorage)),
		wire.Bind(new(media.AttachmentRecorder), new(repository.ChatRepository)),
		media.NewUploader,
		dbmysql.NewNotificationRepository,
		notif.NewNotificationService,
		ProvideScanner,
		ProvideComposer,
		wire.Bind(new(search.Source), new(repository.ChatRepository)),
		search.NewAggregator,
		ProvideCoordinator,
		wire.Struct(new(Client), "*"),
	)
	return nil, nil, nil
}
