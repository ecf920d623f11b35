package feed

import (
	"context"
	"errors"

	"villagesq/internal/common"
	"villagesq/internal/dbmysql"

	"gorm.io/gorm"
)

type Posts interface {
	CreatePost(ctx context.Context, post *dbmysql.Post) error
	GetPostByID(ctx context.Context, id uint64) (*dbmysql.Post, error)
	ListPosts(ctx context.Context, limit, offset int) ([]dbmysql.Post, error)
	DeletePost(ctx context.Context, id uint64) error
}

type Comments interface {
	CreateComment(ctx context.Context, comment *dbmysql.Comment) error
	GetCommentByID(ctx context.Context, id uint64) (*dbmysql.Comment, error)
	ListComments(ctx context.Context, postID uint64) ([]dbmysql.Comment, error)
	DeleteComment(ctx context.Context, id uint64) error
}

type Reactions interface {
	FindReaction(ctx context.Context, postID, userID uint64, kind string) (*dbmysql.Reaction, error)
	AddReaction(ctx context.Context, reaction *dbmysql.Reaction) error
	DeleteReaction(ctx context.Context, id uint64) error
	ListReactions(ctx context.Context, postID uint64) ([]dbmysql.Reaction, error)
}

type FeedRepository struct {
	db *gorm.DB
}

func NewFeedRepository(db *gorm.DB) *FeedRepository {
	return &FeedRepository{db: db}
}

func (r *FeedRepository) CreatePost(ctx context.Context, post *dbmysql.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *FeedRepository) GetPostByID(ctx context.Context, id uint64) (*dbmysql.Post, error) {
	var post dbmysql.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Comments.Author").
		Preload("Reactions.User").
		First(&post, "post_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ListPosts returns the newest posts first with authors, comments and
// reactions preloaded, so one timeline fetch is one response.
func (r *FeedRepository) ListPosts(ctx context.Context, limit, offset int) ([]dbmysql.Post, error) {
	var posts []dbmysql.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Comments.Author").
		Preload("Reactions.User").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *FeedRepository) DeletePost(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&dbmysql.Post{}, "post_id = ?", id).Error
}

func (r *FeedRepository) CreateComment(ctx context.Context, comment *dbmysql.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *FeedRepository) GetCommentByID(ctx context.Context, id uint64) (*dbmysql.Comment, error) {
	var comment dbmysql.Comment
	err := r.db.WithContext(ctx).First(&comment, "comment_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *FeedRepository) DeleteComment(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&dbmysql.Comment{}, "comment_id = ?", id).Error
}

func (r *FeedRepository) ListComments(ctx context.Context, postID uint64) ([]dbmysql.Comment, error) {
	var comments []dbmysql.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

func (r *FeedRepository) FindReaction(ctx context.Context, postID, userID uint64, kind string) (*dbmysql.Reaction, error) {
	var reaction dbmysql.Reaction
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ? AND type = ?", postID, userID, kind).
		First(&reaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

func (r *FeedRepository) AddReaction(ctx context.Context, reaction *dbmysql.Reaction) error {
	return r.db.WithContext(ctx).Create(reaction).Error
}

func (r *FeedRepository) DeleteReaction(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&dbmysql.Reaction{}, "id = ?", id).Error
}

func (r *FeedRepository) ListReactions(ctx context.Context, postID uint64) ([]dbmysql.Reaction, error) {
	var reactions []dbmysql.Reaction
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Find(&reactions).Error
	return reactions, err
}
