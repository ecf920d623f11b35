package feed

import (
	"context"
	"fmt"
	"strings"

	"villagesq/internal/cache"
	"villagesq/internal/common"
	"villagesq/internal/dbmysql"
)

const (
	maxPostLen    = 2000
	maxCommentLen = 1000
)

var allowedReactions = map[string]bool{
	"like":      true,
	"love":      true,
	"laugh":     true,
	"surprised": true,
	"sad":       true,
}

// Notifier receives feed events for fan-out. The notification service
// implements it; tests substitute a recorder.
type Notifier interface {
	PostCreated(ctx context.Context, post *dbmysql.Post, authorName string)
	ReactionAdded(ctx context.Context, postID, postAuthorID, reactorID uint64, reactorName, reactionType string)
	CommentAdded(ctx context.Context, postID, postAuthorID, commenterID uint64, commenterName, text string)
}

type FeedUsecase interface {
	CreatePost(ctx context.Context, authorID uint64, authorName, content string) (*dbmysql.Post, error)
	GetTimeline(ctx context.Context, limit, offset int) ([]dbmysql.Post, error)
	GetPost(ctx context.Context, id uint64) (*dbmysql.Post, error)
	DeletePost(ctx context.Context, postID, requesterID uint64, isAdmin bool) error
	AddComment(ctx context.Context, postID, authorID uint64, authorName, content string) (*dbmysql.Comment, error)
	GetComments(ctx context.Context, postID uint64) ([]dbmysql.Comment, error)
	DeleteComment(ctx context.Context, commentID, requesterID uint64, isAdmin bool) error
	ToggleReaction(ctx context.Context, postID, userID uint64, userName, kind string) (bool, error)
	GetReactions(ctx context.Context, postID uint64) ([]dbmysql.Reaction, error)
}

type FeedService struct {
	posts     Posts
	comments  Comments
	reactions Reactions
	notifier  Notifier
	cache     *cache.Cache
}

func NewFeedService(p Posts, c Comments, r Reactions, notifier Notifier, cch *cache.Cache) FeedUsecase {
	return &FeedService{
		posts:     p,
		comments:  c,
		reactions: r,
		notifier:  notifier,
		cache:     cch,
	}
}

func (s *FeedService) CreatePost(ctx context.Context, authorID uint64, authorName, content string) (*dbmysql.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, common.NewValidationError("content", "cannot be empty")
	}
	if len(content) > maxPostLen {
		return nil, common.NewValidationError("content", fmt.Sprintf("exceeds %d characters", maxPostLen))
	}

	post := &dbmysql.Post{
		AuthorID: authorID,
		Content:  content,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	s.cache.InvalidateTag(cache.TagPosts)

	if s.notifier != nil {
		s.notifier.PostCreated(ctx, post, authorName)
	}
	return post, nil
}

func (s *FeedService) GetTimeline(ctx context.Context, limit, offset int) ([]dbmysql.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	key := fmt.Sprintf("timeline:%d:%d", limit, offset)
	if cached, ok := s.cache.Get(cache.TagPosts, key); ok {
		if posts, ok := cached.([]dbmysql.Post); ok {
			return posts, nil
		}
	}

	posts, err := s.posts.ListPosts(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cache.TagPosts, key, posts, cache.DurationShort)
	return posts, nil
}

func (s *FeedService) GetPost(ctx context.Context, id uint64) (*dbmysql.Post, error) {
	return s.posts.GetPostByID(ctx, id)
}

// DeletePost removes a post. Only the author or an admin may do so.
func (s *FeedService) DeletePost(ctx context.Context, postID, requesterID uint64, isAdmin bool) error {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}

	if post.AuthorID != requesterID && !isAdmin {
		return common.ErrForbidden
	}

	if err := s.posts.DeletePost(ctx, postID); err != nil {
		return err
	}

	s.cache.InvalidateTag(cache.TagPosts)
	return nil
}

func (s *FeedService) AddComment(ctx context.Context, postID, authorID uint64, authorName, content string) (*dbmysql.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, common.NewValidationError("content", "cannot be empty")
	}
	if len(content) > maxCommentLen {
		return nil, common.NewValidationError("content", fmt.Sprintf("exceeds %d characters", maxCommentLen))
	}

	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := &dbmysql.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Content:  content,
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	s.cache.InvalidateTag(cache.TagPosts)

	if s.notifier != nil {
		s.notifier.CommentAdded(ctx, postID, post.AuthorID, authorID, authorName, content)
	}
	return comment, nil
}

func (s *FeedService) GetComments(ctx context.Context, postID uint64) ([]dbmysql.Comment, error) {
	return s.comments.ListComments(ctx, postID)
}

// DeleteComment removes a comment. Only its author or an admin may do so.
func (s *FeedService) DeleteComment(ctx context.Context, commentID, requesterID uint64, isAdmin bool) error {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return err
	}

	if comment.AuthorID != requesterID && !isAdmin {
		return common.ErrForbidden
	}

	if err := s.comments.DeleteComment(ctx, commentID); err != nil {
		return err
	}

	s.cache.InvalidateTag(cache.TagPosts)
	return nil
}

// ToggleReaction adds the reaction if the user has not reacted with this
// kind yet, removes it otherwise. Returns whether the reaction is present
// after the call.
func (s *FeedService) ToggleReaction(ctx context.Context, postID, userID uint64, userName, kind string) (bool, error) {
	if !allowedReactions[kind] {
		return false, common.NewValidationError("type", "unknown reaction type")
	}

	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return false, err
	}

	existing, err := s.reactions.FindReaction(ctx, postID, userID, kind)
	if err != nil && err != common.ErrNotFound {
		return false, err
	}

	if existing != nil {
		if err := s.reactions.DeleteReaction(ctx, existing.ID); err != nil {
			return false, err
		}
		s.cache.InvalidateTag(cache.TagPosts)
		return false, nil
	}

	reaction := &dbmysql.Reaction{
		PostID: postID,
		UserID: userID,
		Type:   kind,
	}
	if err := s.reactions.AddReaction(ctx, reaction); err != nil {
		return false, err
	}

	s.cache.InvalidateTag(cache.TagPosts)

	if s.notifier != nil {
		s.notifier.ReactionAdded(ctx, postID, post.AuthorID, userID, userName, kind)
	}
	return true, nil
}

func (s *FeedService) GetReactions(ctx context.Context, postID uint64) ([]dbmysql.Reaction, error) {
	return s.reactions.ListReactions(ctx, postID)
}
