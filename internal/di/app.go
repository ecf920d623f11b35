package di

import (
	"villagesq/internal/announce"
	chathandler "villagesq/internal/chat/handler"
	"villagesq/internal/config"
	"villagesq/internal/dbmongo"
	"villagesq/internal/feed"
	"villagesq/internal/notif"
	"villagesq/internal/user"

	"gorm.io/gorm"
)

// Application bundles everything main needs to run the server.
type Application struct {
	Config              *config.Config
	DB                  *gorm.DB
	Mongo               *dbmongo.MongoClient
	UserHandler         *user.Handler
	ChatHandler         *chathandler.ChatHandler
	FeedHandler         *feed.FeedHandler
	AnnouncementHandler *announce.AnnouncementHandler
	NotificationHandler *notif.NotificationHandler
	NotificationService *notif.NotificationService
}
