package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"villagesq/internal/chat/models"
	"villagesq/internal/chat/service"
	"villagesq/internal/common"
	"villagesq/internal/config"
)

const (
	EventConnected = "connected"
	EventMessages  = "messages"
	EventError     = "error"
)

// StreamEvent is the payload carried on the chat event stream. One JSON
// object per SSE data frame.
type StreamEvent struct {
	Type     string           `json:"type"`
	ChatID   string           `json:"chatId,omitempty"`
	Messages []models.Message `json:"messages,omitempty"`
	Count    int64            `json:"count,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// EventSink receives bridge output. The SSE writer implements it; tests
// substitute their own.
type EventSink interface {
	WriteEvent(ev StreamEvent) error
}

// Bridge approximates push delivery over a pull transport: it polls the
// message count on a fixed interval and forwards the full ordered list
// to exactly one connected client whenever the count changes. Instances
// are independent per connection and share no state.
type Bridge struct {
	svc            service.ChatService
	conversationID string
	interval       time.Duration
	maxLifetime    time.Duration
	limit          int
	lastCount      int64
}

func NewBridge(svc service.ChatService, conversationID string, cfg config.ChatConfig) *Bridge {
	return &Bridge{
		svc:            svc,
		conversationID: conversationID,
		interval:       cfg.PollInterval,
		maxLifetime:    cfg.StreamMaxLifetime,
		limit:          cfg.SnapshotLimit,
	}
}

// Run emits the connected event, then polls until the context is
// cancelled, the lifetime expires, or the sink stops accepting writes.
// Store errors are reported on the stream but never terminate it.
func (b *Bridge) Run(ctx context.Context, sink EventSink) error {
	if err := sink.WriteEvent(StreamEvent{Type: EventConnected, ChatID: b.conversationID}); err != nil {
		return err
	}

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	lifetime := time.NewTimer(b.maxLifetime)
	defer lifetime.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-lifetime.C:
			log.Printf("Stream for %s reached max lifetime, closing", b.conversationID)
			return nil
		case <-ticker.C:
			if err := b.poll(ctx, sink); err != nil {
				return err
			}
		}
	}
}

// poll returns a non-nil error only when the sink write fails; that is
// the client-gone signal.
func (b *Bridge) poll(ctx context.Context, sink EventSink) error {
	count, err := b.svc.MessageCount(ctx, b.conversationID)
	if err != nil {
		log.Printf("Stream poll error for %s: %v", b.conversationID, err)
		return sink.WriteEvent(StreamEvent{Type: EventError, ChatID: b.conversationID, Error: err.Error()})
	}

	// Unchanged count means no network write at all.
	if count == b.lastCount {
		return nil
	}

	messages, err := b.svc.Latest(ctx, b.conversationID, b.limit)
	if err != nil {
		log.Printf("Stream fetch error for %s: %v", b.conversationID, err)
		return sink.WriteEvent(StreamEvent{Type: EventError, ChatID: b.conversationID, Error: err.Error()})
	}

	if err := sink.WriteEvent(StreamEvent{
		Type:     EventMessages,
		ChatID:   b.conversationID,
		Messages: messages,
		Count:    count,
	}); err != nil {
		return err
	}

	b.lastCount = count
	return nil
}

// sseWriter frames StreamEvents as text/event-stream data lines.
type sseWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter, flusher http.Flusher) *sseWriter {
	return &sseWriter{w: w, flusher: flusher}
}

func (s *sseWriter) WriteEvent(ev StreamEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConnectionLost, err)
	}
	s.flusher.Flush()
	return nil
}
