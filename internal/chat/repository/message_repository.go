package repository

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"villagesq/internal/chat/models"
	"villagesq/internal/common"
	"villagesq/internal/dbmongo"

	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository is the append-only per-conversation message log.
//
// Append assigns identity and arrival timestamp, ListSince returns
// messages strictly after the cursor in arrival order, ListLatest
// returns the newest window in arrival order, Count is the cheap
// change-detection signal the feed bridge polls.
type MessageRepository interface {
	Append(ctx context.Context, msg *models.Message) (*models.Message, error)
	ListSince(ctx context.Context, conversationID string, since time.Time, limit int) ([]models.Message, error)
	ListLatest(ctx context.Context, conversationID string, limit int) ([]models.Message, error)
	Count(ctx context.Context, conversationID string) (int64, error)
}

type messageRepo struct {
	coll *mongo.Collection

	// Guards the monotonic ULID source so concurrent appends on one
	// process never mint out-of-order ids.
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewMessageRepository(mc *dbmongo.MongoClient) MessageRepository {
	return &messageRepo{
		coll:    mc.Database.Collection("messages"),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (r *messageRepo) nextID(ts time.Time) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(ts), r.entropy).String()
}

func (r *messageRepo) Append(ctx context.Context, msg *models.Message) (*models.Message, error) {
	now := time.Now().UTC()

	stored := *msg
	stored.ID = r.nextID(now)
	stored.Timestamp = now
	stored.Status = models.StatusSent

	if _, err := r.coll.InsertOne(ctx, stored); err != nil {
		return nil, &common.TransientStoreError{Op: "append", Err: err}
	}
	return &stored, nil
}

func (r *messageRepo) ListSince(ctx context.Context, conversationID string, since time.Time, limit int) ([]models.Message, error) {
	filter := bson.M{"conversation_id": conversationID}
	if !since.IsZero() {
		filter["timestamp"] = bson.M{"$gt": since}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, &common.TransientStoreError{Op: "list", Err: err}
	}
	defer cursor.Close(ctx)

	messages := make([]models.Message, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, &common.TransientStoreError{Op: "list", Err: err}
	}
	return messages, nil
}

// ListLatest fetches the newest limit messages so a capped window never
// pins itself to the start of a long conversation. Results come back in
// ascending arrival order like ListSince.
func (r *messageRepo) ListLatest(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.coll.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, &common.TransientStoreError{Op: "list", Err: err}
	}
	defer cursor.Close(ctx)

	messages := make([]models.Message, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, &common.TransientStoreError{Op: "list", Err: err}
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *messageRepo) Count(ctx context.Context, conversationID string) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"conversation_id": conversationID})
	if err != nil {
		return 0, &common.TransientStoreError{Op: "count", Err: err}
	}
	return n, nil
}
