// Package client implements the conversation view a chat UI renders: an
// initial snapshot, deltas pushed over the event stream, and the
// optimistic entries for sends the server has not confirmed yet, merged
// into one duplicate-free list.
package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"villagesq/internal/chat/handler"
	"villagesq/internal/chat/models"
	"villagesq/internal/common"

	"github.com/google/uuid"
)

type PendingStatus string

const (
	StatusSending PendingStatus = "sending"
	StatusSent    PendingStatus = "sent"
	StatusFailed  PendingStatus = "failed"
)

// TempIDPrefix marks client-generated message ids so they can never
// collide with server-assigned ULIDs.
const TempIDPrefix = "temp-"

// PendingMessage is a client-local projection of a message the user just
// sent. It is destroyed when reconciled into a confirmed message or when
// the user discards or retries a failed send.
type PendingMessage struct {
	ID         string
	Text       string
	Kind       models.MessageKind
	UserID     string
	UserName   string
	UserAvatar *string
	Status     PendingStatus
	Origin     time.Time // client clock, used only for reconciliation matching
}

// Entry is one row of the rendered list, confirmed or pending.
type Entry struct {
	ID         string
	Text       string
	Kind       models.MessageKind
	UserID     string
	UserName   string
	UserAvatar *string
	Timestamp  time.Time
	Status     string
	Pending    bool
}

// API is the server surface the engine consumes. The channel returned by
// Stream closes when the connection drops; reconnecting is the engine's
// job.
type API interface {
	Messages(ctx context.Context, chatID string) ([]models.Message, error)
	Send(ctx context.Context, chatID, text string, kind models.MessageKind) (*models.Message, error)
	Stream(ctx context.Context, chatID string) (<-chan handler.StreamEvent, error)
}

// Options tunes the engine. Zero values fall back to the defaults the
// server config also uses.
type Options struct {
	// ReconcileWindow is the max clock skew between a pending entry's
	// origin time and its confirmed counterpart's arrival time for the
	// two to be considered the same message.
	ReconcileWindow time.Duration
	// ReconnectDelay spaces reconnect attempts after a dropped stream.
	ReconnectDelay time.Duration
	// Now is injected by tests.
	Now func() time.Time
	// OnUpdate, if set, is called after every visible-list change.
	OnUpdate func()
}

// Engine owns the single source of truth for what the user sees in one
// conversation.
type Engine struct {
	api    API
	chatID string
	self   models.SenderProfile
	opts   Options

	mu        sync.Mutex
	confirmed []models.Message
	pending   []*PendingMessage
	lastCount int64
	connected bool
	lastError string

	wg sync.WaitGroup
}

func NewEngine(api API, chatID string, self models.SenderProfile, opts Options) *Engine {
	if opts.ReconcileWindow <= 0 {
		opts.ReconcileWindow = 5 * time.Second
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{api: api, chatID: chatID, self: self, opts: opts}
}

// Open fetches the initial snapshot and starts consuming the event
// stream. It returns an error only when the snapshot itself fails; the
// stream is retried internally until ctx is cancelled.
func (e *Engine) Open(ctx context.Context) error {
	msgs, err := e.api.Messages(ctx, e.chatID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.confirmed = msgs
	e.lastCount = int64(len(msgs))
	e.mu.Unlock()
	e.notify()

	e.wg.Add(1)
	go e.run(ctx)
	return nil
}

// Close waits for the stream consumer and any in-flight sends to finish.
// Cancel the Open context first.
func (e *Engine) Close() {
	e.wg.Wait()
}

func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()

	for {
		ch, err := e.api.Stream(ctx, e.chatID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			e.setDisconnected(err.Error())
			if !sleepCtx(ctx, e.opts.ReconnectDelay) {
				return
			}
			e.refreshSnapshot(ctx)
			continue
		}

	consume:
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					break consume
				}
				e.handleEvent(ev)
			}
		}

		if ctx.Err() != nil {
			return
		}
		e.setDisconnected(common.ErrConnectionLost.Error())
		if !sleepCtx(ctx, e.opts.ReconnectDelay) {
			return
		}
		e.refreshSnapshot(ctx)
	}
}

func (e *Engine) handleEvent(ev handler.StreamEvent) {
	switch ev.Type {
	case handler.EventConnected:
		e.mu.Lock()
		e.connected = true
		e.lastError = ""
		e.mu.Unlock()
		e.notify()
	case handler.EventMessages:
		e.applyMessages(ev.Messages, ev.Count)
	case handler.EventError:
		e.mu.Lock()
		e.lastError = ev.Error
		e.mu.Unlock()
		e.notify()
	}
}

// applyMessages merges a confirmed list pushed by the bridge. Stale or
// duplicate events (count not above the last applied one) are ignored,
// which makes processing idempotent. Matched pending entries are dropped
// unless failed; failed entries only leave via retry or discard.
func (e *Engine) applyMessages(msgs []models.Message, count int64) {
	e.mu.Lock()
	if count <= e.lastCount {
		e.mu.Unlock()
		return
	}

	remaining := e.pending[:0]
	for _, p := range e.pending {
		if p.Status != StatusFailed && matchesAny(p, msgs, e.opts.ReconcileWindow) {
			continue
		}
		remaining = append(remaining, p)
	}
	e.pending = remaining
	e.confirmed = msgs
	e.lastCount = count
	e.mu.Unlock()
	e.notify()
}

func matchesAny(p *PendingMessage, msgs []models.Message, window time.Duration) bool {
	for i := range msgs {
		m := &msgs[i]
		if p.Text != m.Text || p.UserID != m.UserID {
			continue
		}
		delta := p.Origin.Sub(m.Timestamp)
		if delta < 0 {
			delta = -delta
		}
		if delta <= window {
			return true
		}
	}
	return false
}

// Send inserts an optimistic entry synchronously, then persists in the
// background. It returns the temporary id of the pending entry.
func (e *Engine) Send(ctx context.Context, text string, kind models.MessageKind) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", common.NewValidationError("text", "cannot be empty")
	}
	if kind == "" {
		kind = models.KindText
	}

	p := &PendingMessage{
		ID:         TempIDPrefix + uuid.NewString(),
		Text:       text,
		Kind:       kind,
		UserID:     e.self.UserID,
		UserName:   e.self.Name,
		UserAvatar: e.self.Avatar,
		Status:     StatusSending,
		Origin:     e.opts.Now(),
	}

	e.mu.Lock()
	e.pending = append(e.pending, p)
	e.mu.Unlock()
	e.notify()

	e.wg.Add(1)
	go e.deliver(ctx, p)

	return p.ID, nil
}

func (e *Engine) deliver(ctx context.Context, p *PendingMessage) {
	defer e.wg.Done()

	msg, err := e.api.Send(ctx, e.chatID, p.Text, p.Kind)

	e.mu.Lock()
	if err != nil {
		// Terminal until the user retries or discards; never dropped
		// silently, never auto-retried.
		p.Status = StatusFailed
		e.lastError = err.Error()
		e.mu.Unlock()
		e.notify()
		return
	}

	// The server returned the confirmed entry: swap it in directly
	// instead of waiting for the next bridge delta.
	e.removePendingLocked(p.ID)
	if !e.hasConfirmedLocked(msg.ID) {
		e.confirmed = append(e.confirmed, *msg)
	}
	e.mu.Unlock()
	e.notify()
}

// Retry discards a failed pending entry and resends its original text.
// It returns the new pending id.
func (e *Engine) Retry(ctx context.Context, pendingID string) (string, error) {
	e.mu.Lock()
	var found *PendingMessage
	for _, p := range e.pending {
		if p.ID == pendingID && p.Status == StatusFailed {
			found = p
			break
		}
	}
	if found == nil {
		e.mu.Unlock()
		return "", common.ErrNotFound
	}
	e.removePendingLocked(pendingID)
	e.mu.Unlock()
	e.notify()

	return e.Send(ctx, found.Text, found.Kind)
}

// Discard drops a failed pending entry without resending.
func (e *Engine) Discard(pendingID string) {
	e.mu.Lock()
	e.removePendingLocked(pendingID)
	e.mu.Unlock()
	e.notify()
}

func (e *Engine) removePendingLocked(pendingID string) {
	for i, p := range e.pending {
		if p.ID == pendingID {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			return
		}
	}
}

func (e *Engine) hasConfirmedLocked(id string) bool {
	for i := range e.confirmed {
		if e.confirmed[i].ID == id {
			return true
		}
	}
	return false
}

// Messages returns the visible list: confirmed messages in arrival
// order, then pending entries.
func (e *Engine) Messages() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Entry, 0, len(e.confirmed)+len(e.pending))
	for i := range e.confirmed {
		m := &e.confirmed[i]
		out = append(out, Entry{
			ID:         m.ID,
			Text:       m.Text,
			Kind:       m.Kind,
			UserID:     m.UserID,
			UserName:   m.UserName,
			UserAvatar: m.UserAvatar,
			Timestamp:  m.Timestamp,
			Status:     m.Status,
			Pending:    false,
		})
	}
	for _, p := range e.pending {
		out = append(out, Entry{
			ID:         p.ID,
			Text:       p.Text,
			Kind:       p.Kind,
			UserID:     p.UserID,
			UserName:   p.UserName,
			UserAvatar: p.UserAvatar,
			Timestamp:  p.Origin,
			Status:     string(p.Status),
			Pending:    true,
		})
	}
	return out
}

// Connected reports whether the event stream is currently open.
func (e *Engine) Connected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connected
}

// LastError returns the most recent surfaced error, empty when healthy.
func (e *Engine) LastError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastError
}

func (e *Engine) setDisconnected(reason string) {
	e.mu.Lock()
	e.connected = false
	e.lastError = reason
	e.mu.Unlock()
	e.notify()
}

// refreshSnapshot re-fetches the full list after a reconnect so nothing
// missed while offline stays missing.
func (e *Engine) refreshSnapshot(ctx context.Context) {
	msgs, err := e.api.Messages(ctx, e.chatID)
	if err != nil {
		e.mu.Lock()
		e.lastError = err.Error()
		e.mu.Unlock()
		e.notify()
		return
	}

	e.mu.Lock()
	remaining := e.pending[:0]
	for _, p := range e.pending {
		if p.Status != StatusFailed && matchesAny(p, msgs, e.opts.ReconcileWindow) {
			continue
		}
		remaining = append(remaining, p)
	}
	e.pending = remaining
	e.confirmed = msgs
	e.lastCount = int64(len(msgs))
	e.mu.Unlock()
	e.notify()
}

func (e *Engine) notify() {
	if e.opts.OnUpdate != nil {
		e.opts.OnUpdate()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
