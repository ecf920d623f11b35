package feed

import (
	"context"
	"strings"
	"sync"
	"testing"

	"villagesq/internal/cache"
	"villagesq/internal/common"
	"villagesq/internal/dbmysql"

	"github.com/stretchr/testify/assert"
)

// fakeFeedStore backs Posts, Comments and Reactions with maps so service
// tests run without a database.
type fakeFeedStore struct {
	mu        sync.Mutex
	posts     map[uint64]*dbmysql.Post
	comments  []dbmysql.Comment
	reactions map[uint64]*dbmysql.Reaction
	nextID    uint64
	listCalls int
}

func newFakeFeedStore() *fakeFeedStore {
	return &fakeFeedStore{
		posts:     make(map[uint64]*dbmysql.Post),
		reactions: make(map[uint64]*dbmysql.Reaction),
	}
}

func (f *fakeFeedStore) nextIDLocked() uint64 {
	f.nextID++
	return f.nextID
}

func (f *fakeFeedStore) CreatePost(ctx context.Context, post *dbmysql.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	post.PostID = f.nextIDLocked()
	cp := *post
	f.posts[post.PostID] = &cp
	return nil
}

func (f *fakeFeedStore) GetPostByID(ctx context.Context, id uint64) (*dbmysql.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *post
	return &cp, nil
}

func (f *fakeFeedStore) ListPosts(ctx context.Context, limit, offset int) ([]dbmysql.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	out := make([]dbmysql.Post, 0, len(f.posts))
	for _, p := range f.posts {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeFeedStore) DeletePost(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.posts, id)
	return nil
}

func (f *fakeFeedStore) CreateComment(ctx context.Context, comment *dbmysql.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	comment.CommentID = f.nextIDLocked()
	f.comments = append(f.comments, *comment)
	return nil
}

func (f *fakeFeedStore) GetCommentByID(ctx context.Context, id uint64) (*dbmysql.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.comments {
		if c.CommentID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeFeedStore) DeleteComment(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.comments[:0]
	for _, c := range f.comments {
		if c.CommentID != id {
			kept = append(kept, c)
		}
	}
	f.comments = kept
	return nil
}

func (f *fakeFeedStore) ListComments(ctx context.Context, postID uint64) ([]dbmysql.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []dbmysql.Comment
	for _, c := range f.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeFeedStore) FindReaction(ctx context.Context, postID, userID uint64, kind string) (*dbmysql.Reaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reactions {
		if r.PostID == postID && r.UserID == userID && r.Type == kind {
			cp := *r
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeFeedStore) AddReaction(ctx context.Context, reaction *dbmysql.Reaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	reaction.ID = f.nextIDLocked()
	cp := *reaction
	f.reactions[reaction.ID] = &cp
	return nil
}

func (f *fakeFeedStore) DeleteReaction(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.reactions, id)
	return nil
}

func (f *fakeFeedStore) ListReactions(ctx context.Context, postID uint64) ([]dbmysql.Reaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []dbmysql.Reaction
	for _, r := range f.reactions {
		if r.PostID == postID {
			out = append(out, *r)
		}
	}
	return out, nil
}

type reactionEvent struct {
	postID, authorID, reactorID uint64
	kind                        string
}

type commentEvent struct {
	postID, authorID, commenterID uint64
	text                          string
}

type recordNotifier struct {
	mu        sync.Mutex
	posts     []*dbmysql.Post
	reactions []reactionEvent
	comments  []commentEvent
}

func (n *recordNotifier) PostCreated(ctx context.Context, post *dbmysql.Post, authorName string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.posts = append(n.posts, post)
}

func (n *recordNotifier) ReactionAdded(ctx context.Context, postID, postAuthorID, reactorID uint64, reactorName, reactionType string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reactions = append(n.reactions, reactionEvent{postID, postAuthorID, reactorID, reactionType})
}

func (n *recordNotifier) CommentAdded(ctx context.Context, postID, postAuthorID, commenterID uint64, commenterName, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.comments = append(n.comments, commentEvent{postID, postAuthorID, commenterID, text})
}

func setupFeedService() (*fakeFeedStore, *recordNotifier, FeedUsecase) {
	store := newFakeFeedStore()
	notifier := &recordNotifier{}
	svc := NewFeedService(store, store, store, notifier, cache.NewCache())
	return store, notifier, svc
}

func TestCreatePost_Validation(t *testing.T) {
	store, notifier, svc := setupFeedService()
	ctx := context.Background()

	_, err := svc.CreatePost(ctx, 1, "Alice", "   ")
	assert.True(t, common.IsValidation(err))

	_, err = svc.CreatePost(ctx, 1, "Alice", strings.Repeat("x", maxPostLen+1))
	assert.True(t, common.IsValidation(err))

	assert.Empty(t, store.posts)
	assert.Empty(t, notifier.posts)
}

func TestCreatePost_StoresAndNotifies(t *testing.T) {
	store, notifier, svc := setupFeedService()

	post, err := svc.CreatePost(context.Background(), 1, "Alice", "  hello square  ")
	assert.NoError(t, err)
	assert.Equal(t, "hello square", post.Content)
	assert.NotZero(t, post.PostID)

	assert.Len(t, store.posts, 1)
	assert.Len(t, notifier.posts, 1)
	assert.Equal(t, post.PostID, notifier.posts[0].PostID)
}

func TestGetTimeline_CachesUntilWriteInvalidates(t *testing.T) {
	store, _, svc := setupFeedService()
	ctx := context.Background()

	_, err := svc.CreatePost(ctx, 1, "Alice", "first")
	assert.NoError(t, err)

	_, err = svc.GetTimeline(ctx, 20, 0)
	assert.NoError(t, err)
	_, err = svc.GetTimeline(ctx, 20, 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, store.listCalls, "second fetch must come from cache")

	_, err = svc.CreatePost(ctx, 1, "Alice", "second")
	assert.NoError(t, err)

	posts, err := svc.GetTimeline(ctx, 20, 0)
	assert.NoError(t, err)
	assert.Equal(t, 2, store.listCalls, "write must invalidate the cached timeline")
	assert.Len(t, posts, 2)
}

func TestDeletePost_Permissions(t *testing.T) {
	_, _, svc := setupFeedService()
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, 1, "Alice", "mine")
	assert.NoError(t, err)

	err = svc.DeletePost(ctx, post.PostID, 2, false)
	assert.ErrorIs(t, err, common.ErrForbidden)

	err = svc.DeletePost(ctx, post.PostID, 2, true)
	assert.NoError(t, err, "admin may delete any post")

	err = svc.DeletePost(ctx, post.PostID, 1, false)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeletePost_ByAuthor(t *testing.T) {
	store, _, svc := setupFeedService()
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, 1, "Alice", "mine")
	assert.NoError(t, err)

	assert.NoError(t, svc.DeletePost(ctx, post.PostID, 1, false))
	assert.Empty(t, store.posts)
}

func TestAddComment_NotifiesPostAuthor(t *testing.T) {
	_, notifier, svc := setupFeedService()
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, 1, "Alice", "hello")
	assert.NoError(t, err)

	comment, err := svc.AddComment(ctx, post.PostID, 2, "Bob", "welcome!")
	assert.NoError(t, err)
	assert.Equal(t, post.PostID, comment.PostID)

	assert.Len(t, notifier.comments, 1)
	assert.Equal(t, uint64(1), notifier.comments[0].authorID)
	assert.Equal(t, uint64(2), notifier.comments[0].commenterID)
}

func TestAddComment_Validation(t *testing.T) {
	_, _, svc := setupFeedService()
	ctx := context.Background()

	post, _ := svc.CreatePost(ctx, 1, "Alice", "hello")

	_, err := svc.AddComment(ctx, post.PostID, 2, "Bob", "")
	assert.True(t, common.IsValidation(err))

	_, err = svc.AddComment(ctx, post.PostID, 2, "Bob", strings.Repeat("y", maxCommentLen+1))
	assert.True(t, common.IsValidation(err))

	_, err = svc.AddComment(ctx, 999, 2, "Bob", "hi")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteComment_Permissions(t *testing.T) {
	store, _, svc := setupFeedService()
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, 1, "Alice", "hello")
	assert.NoError(t, err)

	comment, err := svc.AddComment(ctx, post.PostID, 2, "Bob", "mine")
	assert.NoError(t, err)

	err = svc.DeleteComment(ctx, comment.CommentID, 3, false)
	assert.ErrorIs(t, err, common.ErrForbidden)

	err = svc.DeleteComment(ctx, comment.CommentID, 2, false)
	assert.NoError(t, err, "comment author may delete")
	assert.Empty(t, store.comments)

	err = svc.DeleteComment(ctx, comment.CommentID, 2, false)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteComment_AdminOverride(t *testing.T) {
	store, _, svc := setupFeedService()
	ctx := context.Background()

	post, _ := svc.CreatePost(ctx, 1, "Alice", "hello")
	comment, err := svc.AddComment(ctx, post.PostID, 2, "Bob", "spam")
	assert.NoError(t, err)

	assert.NoError(t, svc.DeleteComment(ctx, comment.CommentID, 9, true))
	assert.Empty(t, store.comments)
}

func TestToggleReaction_AddThenRemove(t *testing.T) {
	store, notifier, svc := setupFeedService()
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, 1, "Alice", "hello")
	assert.NoError(t, err)

	reacted, err := svc.ToggleReaction(ctx, post.PostID, 2, "Bob", "like")
	assert.NoError(t, err)
	assert.True(t, reacted)
	assert.Len(t, store.reactions, 1)
	assert.Len(t, notifier.reactions, 1)
	assert.Equal(t, uint64(1), notifier.reactions[0].authorID)

	reacted, err = svc.ToggleReaction(ctx, post.PostID, 2, "Bob", "like")
	assert.NoError(t, err)
	assert.False(t, reacted, "second toggle removes the reaction")
	assert.Empty(t, store.reactions)
	assert.Len(t, notifier.reactions, 1, "removal must not notify")
}

func TestToggleReaction_DifferentKindsCoexist(t *testing.T) {
	store, _, svc := setupFeedService()
	ctx := context.Background()

	post, _ := svc.CreatePost(ctx, 1, "Alice", "hello")

	_, err := svc.ToggleReaction(ctx, post.PostID, 2, "Bob", "like")
	assert.NoError(t, err)
	_, err = svc.ToggleReaction(ctx, post.PostID, 2, "Bob", "love")
	assert.NoError(t, err)

	assert.Len(t, store.reactions, 2)
}

func TestToggleReaction_UnknownKind(t *testing.T) {
	_, _, svc := setupFeedService()
	ctx := context.Background()

	post, _ := svc.CreatePost(ctx, 1, "Alice", "hello")

	_, err := svc.ToggleReaction(ctx, post.PostID, 2, "Bob", "meh")
	assert.True(t, common.IsValidation(err))
}

func TestToggleReaction_UnknownPost(t *testing.T) {
	_, _, svc := setupFeedService()

	_, err := svc.ToggleReaction(context.Background(), 404, 2, "Bob", "like")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
