package di

import (
	"context"
	"log"

	"villagesq/internal/chat/handler"
	"villagesq/internal/chat/repository"
	"villagesq/internal/chat/service"
	"villagesq/internal/config"
	"villagesq/internal/notif"
	"villagesq/internal/user"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// ProvideFirebaseApp returns nil when Firebase is disabled or
// misconfigured; push delivery degrades to database-only notifications.
func ProvideFirebaseApp(cfg *config.Config) *firebase.App {
	if !cfg.Firebase.Enabled {
		log.Println("Firebase disabled")
		return nil
	}

	if cfg.Firebase.CredentialsFilePath == "" {
		log.Println("Firebase credentials not provided")
		return nil
	}

	opt := option.WithCredentialsFile(cfg.Firebase.CredentialsFilePath)
	firebaseConfig := &firebase.Config{
		ProjectID: cfg.Firebase.ProjectID,
	}

	app, err := firebase.NewApp(context.Background(), firebaseConfig, opt)
	if err != nil {
		log.Printf("Firebase initialization failed: %v", err)
		return nil
	}

	return app
}

func ProvideFirebaseMessaging(app *firebase.App) *messaging.Client {
	if app == nil {
		log.Println("Firebase app not available, FCM disabled")
		return nil
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Printf("Failed to create FCM client: %v", err)
		return nil
	}

	return client
}

func ProvideChatService(repo repository.MessageRepository, notifier *notif.NotificationService, cfg *config.Config) service.ChatService {
	return service.NewChatService(repo, notifier, cfg.Chat.MaxBodyLen)
}

func ProvideChatHandler(svc service.ChatService, users user.UserService, cfg *config.Config) *handler.ChatHandler {
	return handler.NewChatHandler(svc, users, cfg)
}
