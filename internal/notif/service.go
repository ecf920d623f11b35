package notif

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"

	"villagesq/internal/chat/models"
	"villagesq/internal/common"
	"villagesq/internal/config"
	"villagesq/internal/dbmysql"

	"firebase.google.com/go/v4/messaging"
)

// NotificationRepository persists notifications for the in-app inbox.
type NotificationRepository interface {
	Create(ctx context.Context, n *dbmysql.Notification) error
	ByUserID(ctx context.Context, userID uint64, limit, offset int) ([]dbmysql.Notification, error)
}

// DeviceRepository manages push tokens.
type DeviceRepository interface {
	Register(ctx context.Context, d *dbmysql.Device) error
	ActiveByUserID(ctx context.Context, userID uint64) ([]dbmysql.Device, error)
	Deactivate(ctx context.Context, token string) error
}

// MemberDirectory lists the recipients for community-wide fan-out.
type MemberDirectory interface {
	ListMembers(ctx context.Context) ([]dbmysql.User, error)
}

type NotificationManager struct {
	observers    map[string]common.Observer
	eventChannel chan common.NotificationEvent
	workerPool   int
	ctx          context.Context
	cancel       context.CancelFunc
	mu           sync.RWMutex
	wg           sync.WaitGroup
}

func NewNotificationManager(workerPoolSize, bufferSize int) *NotificationManager {
	ctx, cancel := context.WithCancel(context.Background())

	nm := &NotificationManager{
		observers:    make(map[string]common.Observer),
		eventChannel: make(chan common.NotificationEvent, bufferSize),
		workerPool:   workerPoolSize,
		ctx:          ctx,
		cancel:       cancel,
	}

	for i := 0; i < workerPoolSize; i++ {
		nm.wg.Add(1)
		go nm.processEvents()
	}

	return nm
}

func (nm *NotificationManager) Subscribe(observer common.Observer) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.observers[observer.Name()] = observer
	log.Printf("Observer %s subscribed", observer.Name())
}

func (nm *NotificationManager) Unsubscribe(observer common.Observer) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	delete(nm.observers, observer.Name())
	log.Printf("Observer %s unsubscribed", observer.Name())
}

func (nm *NotificationManager) Notify(event common.NotificationEvent) {
	nm.mu.RLock()
	observers := make([]common.Observer, 0, len(nm.observers))
	for _, obs := range nm.observers {
		observers = append(observers, obs)
	}
	nm.mu.RUnlock()

	for _, observer := range observers {
		if err := observer.Update(event); err != nil {
			log.Printf("Observer %s update failed: %v", observer.Name(), err)
		}
	}
}

func (nm *NotificationManager) NotifyAsync(event common.NotificationEvent) {
	select {
	case nm.eventChannel <- event:

	case <-nm.ctx.Done():
		return
	default:
		log.Printf("Notification channel full, dropping event: %s", event.Type)
	}
}

func (nm *NotificationManager) processEvents() {
	defer nm.wg.Done()

	for {
		select {
		case event := <-nm.eventChannel:
			nm.Notify(event)
		case <-nm.ctx.Done():
			return
		}
	}
}

func (nm *NotificationManager) Shutdown() {
	nm.cancel()
	nm.wg.Wait()
	log.Println("NotificationManager shutdown complete")
}

// NotificationService publishes domain events (posts, reactions, comments,
// chat messages) to the observer set and serves the in-app inbox.
type NotificationService struct {
	manager    *NotificationManager
	repo       NotificationRepository
	deviceRepo DeviceRepository
	members    MemberDirectory
}

func NewNotificationService(
	cfg *config.Config,
	repo NotificationRepository,
	deviceRepo DeviceRepository,
	members MemberDirectory,
	fcmClient *messaging.Client,
) *NotificationService {

	manager := NewNotificationManager(cfg.Notification.Workers, cfg.Notification.ChannelBufferSize)

	dbObserver := NewDatabaseNotificationObserver(repo)
	manager.Subscribe(dbObserver)

	if fcmClient != nil {
		fcmObserver := NewFCMNotificationObserver(fcmClient, deviceRepo)
		manager.Subscribe(fcmObserver)
	}

	return &NotificationService{
		manager:    manager,
		repo:       repo,
		deviceRepo: deviceRepo,
		members:    members,
	}
}

// MessageSent fans a confirmed chat message out to every member except the
// sender. Connected tabs already see the message through the change feed;
// the push only matters for everyone else.
func (s *NotificationService) MessageSent(msg *models.Message) {
	senderID, err := strconv.ParseUint(msg.UserID, 10, 64)
	if err != nil {
		log.Printf("Message sender id %q is not numeric, skipping fan-out", msg.UserID)
		return
	}

	s.fanOut(context.Background(), senderID, common.NotificationEvent{
		Type:          common.MessageType,
		TriggerUserID: &senderID,
		Title:         fmt.Sprintf("Message from %s", msg.UserName),
		Body:          preview(msg.Text, 120),
		Metadata: map[string]string{
			"conversation_id": msg.ConversationID,
			"message_id":      msg.ID,
		},
	})
}

// PostCreated notifies every member except the author about a new post.
func (s *NotificationService) PostCreated(ctx context.Context, post *dbmysql.Post, authorName string) {
	s.fanOut(ctx, post.AuthorID, common.NotificationEvent{
		Type:          common.NewPostType,
		TriggerUserID: &post.AuthorID,
		Title:         "New Post",
		Body:          fmt.Sprintf("%s shared a new post", authorName),
		Metadata: map[string]string{
			"post_id": strconv.FormatUint(post.PostID, 10),
		},
	})
}

// ReactionAdded notifies the post author. Self-reactions are silent.
func (s *NotificationService) ReactionAdded(ctx context.Context, postID, postAuthorID, reactorID uint64, reactorName, reactionType string) {
	if postAuthorID == reactorID {
		return
	}

	s.manager.NotifyAsync(common.NotificationEvent{
		Type:          common.PostReactionType,
		UserID:        postAuthorID,
		TriggerUserID: &reactorID,
		Title:         "New Reaction",
		Body:          fmt.Sprintf("%s reacted to your post", reactorName),
		Metadata: map[string]string{
			"post_id":       strconv.FormatUint(postID, 10),
			"reaction_type": reactionType,
		},
	})
}

// CommentAdded notifies the post author. Self-comments are silent.
func (s *NotificationService) CommentAdded(ctx context.Context, postID, postAuthorID, commenterID uint64, commenterName, text string) {
	if postAuthorID == commenterID {
		return
	}

	s.manager.NotifyAsync(common.NotificationEvent{
		Type:          common.PostCommentType,
		UserID:        postAuthorID,
		TriggerUserID: &commenterID,
		Title:         "New Comment",
		Body:          fmt.Sprintf("%s commented: %s", commenterName, preview(text, 100)),
		Metadata: map[string]string{
			"post_id": strconv.FormatUint(postID, 10),
		},
	})
}

// AnnouncementPublished pushes a system notification to every member.
func (s *NotificationService) AnnouncementPublished(ctx context.Context, authorID uint64, title string) {
	s.fanOut(ctx, authorID, common.NotificationEvent{
		Type:          common.SystemType,
		TriggerUserID: &authorID,
		Title:         "Announcement",
		Body:          title,
	})
}

// Broadcast delivers an event to every member with no exclusions. Used by
// the external trigger webhook.
func (s *NotificationService) Broadcast(ctx context.Context, title, body string, metadata map[string]string) error {
	if title == "" {
		return common.NewValidationError("title", "is required")
	}
	if body == "" {
		return common.NewValidationError("body", "is required")
	}

	users, err := s.members.ListMembers(ctx)
	if err != nil {
		return fmt.Errorf("list recipients: %w", err)
	}

	for _, u := range users {
		s.manager.NotifyAsync(common.NotificationEvent{
			Type:     common.SystemType,
			UserID:   u.UserID,
			Title:    title,
			Body:     body,
			Metadata: metadata,
		})
	}

	log.Printf("Broadcast %q queued for %d members", title, len(users))
	return nil
}

// fanOut queues one event per member, skipping exceptID.
func (s *NotificationService) fanOut(ctx context.Context, exceptID uint64, event common.NotificationEvent) {
	users, err := s.members.ListMembers(ctx)
	if err != nil {
		log.Printf("Failed to list fan-out recipients: %v", err)
		return
	}

	for _, u := range users {
		if u.UserID == exceptID {
			continue
		}
		ev := event
		ev.UserID = u.UserID
		s.manager.NotifyAsync(ev)
	}
}

func (s *NotificationService) UserNotifications(ctx context.Context, userID uint64, limit, offset int) ([]dbmysql.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ByUserID(ctx, userID, limit, offset)
}

func (s *NotificationService) RegisterDevice(ctx context.Context, userID uint64, token, platform string) error {
	if token == "" {
		return common.NewValidationError("deviceToken", "is required")
	}
	if platform == "" {
		return common.NewValidationError("platform", "is required")
	}

	return s.deviceRepo.Register(ctx, &dbmysql.Device{
		DeviceToken: token,
		UserID:      userID,
		Platform:    platform,
	})
}

func (s *NotificationService) Shutdown() {
	s.manager.Shutdown()
}

func preview(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max]) + "..."
}
