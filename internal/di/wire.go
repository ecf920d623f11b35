//go:build wireinject
// +build wireinject

package di

import (
	"villagesq/internal/announce"
	"villagesq/internal/cache"
	"villagesq/internal/chat/repository"
	"villagesq/internal/config"
	"villagesq/internal/dbmongo"
	"villagesq/internal/dbmysql"
	"villagesq/internal/feed"
	"villagesq/internal/notif"
	"villagesq/internal/user"

	"github.com/google/wire"
)

func InitializeApplication() (*Application, error) {
	wire.Build(
		config.Load,
		dbmysql.NewMySQL,
		dbmongo.NewMongoConnection,
		cache.NewCache,

		user.NewUserRepository,
		user.NewUserService,
		user.NewHandler,

		dbmysql.NewNotificationRepository,
		dbmysql.NewDeviceRepository,
		wire.Bind(new(notif.NotificationRepository), new(*dbmysql.NotificationRepo)),
		wire.Bind(new(notif.DeviceRepository), new(*dbmysql.DeviceRepo)),
		wire.Bind(new(notif.MemberDirectory), new(user.UserService)),
		ProvideFirebaseApp,
		ProvideFirebaseMessaging,
		notif.NewNotificationService,
		notif.NewNotificationHandler,

		repository.NewMessageRepository,
		ProvideChatService,
		ProvideChatHandler,

		feed.NewFeedRepository,
		wire.Bind(new(feed.Posts), new(*feed.FeedRepository)),
		wire.Bind(new(feed.Comments), new(*feed.FeedRepository)),
		wire.Bind(new(feed.Reactions), new(*feed.FeedRepository)),
		wire.Bind(new(feed.Notifier), new(*notif.NotificationService)),
		feed.NewFeedService,
		feed.NewFeedHandler,

		announce.NewAnnouncementRepository,
		wire.Bind(new(announce.Publisher), new(*notif.NotificationService)),
		announce.NewAnnouncementService,
		announce.NewAnnouncementHandler,

		wire.Struct(new(Application), "*"),
	)
	return &Application{}, nil
}
