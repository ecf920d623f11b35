package announce

import (
	"context"
	"fmt"
	"strings"

	"villagesq/internal/cache"
	"villagesq/internal/common"
	"villagesq/internal/dbmysql"
)

const maxAnnouncementLen = 2000

// Publisher is told about every new announcement so members get a push.
type Publisher interface {
	AnnouncementPublished(ctx context.Context, authorID uint64, title string)
}

type AnnouncementService interface {
	Publish(ctx context.Context, authorID uint64, content string, pinned bool) (*dbmysql.Announcement, error)
	List(ctx context.Context, limit, offset int) ([]dbmysql.Announcement, error)
	Update(ctx context.Context, id uint64, content *string, pinned *bool) (*dbmysql.Announcement, error)
	Delete(ctx context.Context, id uint64) error
}

type announcementService struct {
	repo      AnnouncementRepository
	publisher Publisher
	cache     *cache.Cache
}

func NewAnnouncementService(repo AnnouncementRepository, publisher Publisher, cch *cache.Cache) AnnouncementService {
	return &announcementService{
		repo:      repo,
		publisher: publisher,
		cache:     cch,
	}
}

func (s *announcementService) Publish(ctx context.Context, authorID uint64, content string, pinned bool) (*dbmysql.Announcement, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, common.NewValidationError("content", "cannot be empty")
	}
	if len(content) > maxAnnouncementLen {
		return nil, common.NewValidationError("content", fmt.Sprintf("exceeds %d characters", maxAnnouncementLen))
	}

	a := &dbmysql.Announcement{
		AuthorID: authorID,
		Content:  content,
		IsPinned: pinned,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.cache.InvalidateTag(cache.TagAnnouncements)

	if s.publisher != nil {
		s.publisher.AnnouncementPublished(ctx, authorID, headline(content))
	}
	return a, nil
}

func (s *announcementService) List(ctx context.Context, limit, offset int) ([]dbmysql.Announcement, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	key := fmt.Sprintf("list:%d:%d", limit, offset)
	if cached, ok := s.cache.Get(cache.TagAnnouncements, key); ok {
		if out, ok := cached.([]dbmysql.Announcement); ok {
			return out, nil
		}
	}

	out, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cache.TagAnnouncements, key, out, cache.DurationMedium)
	return out, nil
}

// Update edits content and/or the pinned flag; nil fields are left as-is.
func (s *announcementService) Update(ctx context.Context, id uint64, content *string, pinned *bool) (*dbmysql.Announcement, error) {
	a, err := s.repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if content != nil {
		trimmed := strings.TrimSpace(*content)
		if trimmed == "" {
			return nil, common.NewValidationError("content", "cannot be empty")
		}
		if len(trimmed) > maxAnnouncementLen {
			return nil, common.NewValidationError("content", fmt.Sprintf("exceeds %d characters", maxAnnouncementLen))
		}
		a.Content = trimmed
	}
	if pinned != nil {
		a.IsPinned = *pinned
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	s.cache.InvalidateTag(cache.TagAnnouncements)
	return a, nil
}

func (s *announcementService) Delete(ctx context.Context, id uint64) error {
	if _, err := s.repo.ByID(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.InvalidateTag(cache.TagAnnouncements)
	return nil
}

// headline is the first line of the announcement, shortened for the push.
func headline(content string) string {
	line := content
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	r := []rune(line)
	if len(r) > 80 {
		return string(r[:80]) + "..."
	}
	return line
}
