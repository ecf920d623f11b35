package service

import (
	"context"
	"strings"
	"time"

	"villagesq/internal/chat/models"
	"villagesq/internal/chat/repository"
	"villagesq/internal/common"
)

// MessageNotifier is told about every confirmed message so participants
// who are not streaming can get a push. Best effort: implementations
// must not block and the service ignores their failures.
type MessageNotifier interface {
	MessageSent(msg *models.Message)
}

// ChatService defines the business logic interface
type ChatService interface {
	SendMessage(ctx context.Context, conversationID string, sender models.SenderProfile, text string, kind models.MessageKind) (*models.Message, error)
	History(ctx context.Context, conversationID string, limit int) ([]models.Message, error)
	Latest(ctx context.Context, conversationID string, limit int) ([]models.Message, error)
	Updates(ctx context.Context, conversationID string, since time.Time, limit int) ([]models.Message, error)
	MessageCount(ctx context.Context, conversationID string) (int64, error)
}

type chatService struct {
	repo       repository.MessageRepository
	notifier   MessageNotifier
	maxBodyLen int
}

// NewChatService creates a new instance of ChatService. notifier may be
// nil when push delivery is disabled.
func NewChatService(repo repository.MessageRepository, notifier MessageNotifier, maxBodyLen int) ChatService {
	if maxBodyLen <= 0 {
		maxBodyLen = 1000
	}
	return &chatService{repo: repo, notifier: notifier, maxBodyLen: maxBodyLen}
}

func (s *chatService) SendMessage(ctx context.Context, conversationID string, sender models.SenderProfile, text string, kind models.MessageKind) (*models.Message, error) {
	if conversationID == "" {
		return nil, common.NewValidationError("conversationId", "cannot be empty")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, common.NewValidationError("text", "cannot be empty")
	}
	if len(text) > s.maxBodyLen {
		return nil, common.NewValidationError("text", "exceeds maximum length")
	}

	if kind == "" {
		kind = models.KindText
	}

	msg := &models.Message{
		ConversationID: conversationID,
		UserID:         sender.UserID,
		UserName:       sender.Name,
		UserAvatar:     sender.Avatar,
		Text:           text,
		Kind:           kind,
	}

	saved, err := s.repo.Append(ctx, msg)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.MessageSent(saved)
	}

	return saved, nil
}

func (s *chatService) History(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	if conversationID == "" {
		return nil, common.NewValidationError("conversationId", "cannot be empty")
	}
	return s.repo.ListSince(ctx, conversationID, time.Time{}, limit)
}

// Latest returns the newest limit messages in arrival order. The stream
// bridge uses it so its capped window tracks the tail of the
// conversation instead of the head.
func (s *chatService) Latest(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	if conversationID == "" {
		return nil, common.NewValidationError("conversationId", "cannot be empty")
	}
	return s.repo.ListLatest(ctx, conversationID, limit)
}

func (s *chatService) Updates(ctx context.Context, conversationID string, since time.Time, limit int) ([]models.Message, error) {
	if conversationID == "" {
		return nil, common.NewValidationError("conversationId", "cannot be empty")
	}
	return s.repo.ListSince(ctx, conversationID, since, limit)
}

func (s *chatService) MessageCount(ctx context.Context, conversationID string) (int64, error) {
	return s.repo.Count(ctx, conversationID)
}
