package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villagesq/internal/chat/handler"
	"villagesq/internal/chat/models"
	"villagesq/internal/common"
)

type fakeAPI struct {
	mu          sync.Mutex
	snapshot    []models.Message
	snapshotErr error
	sendFn      func(text string) (*models.Message, error)
	sendCalls   int
	streams     []chan handler.StreamEvent
	streamErr   error
}

func (f *fakeAPI) Messages(ctx context.Context, chatID string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snapshotErr != nil {
		return nil, f.snapshotErr
	}
	out := make([]models.Message, len(f.snapshot))
	copy(out, f.snapshot)
	return out, nil
}

func (f *fakeAPI) Send(ctx context.Context, chatID, text string, kind models.MessageKind) (*models.Message, error) {
	f.mu.Lock()
	f.sendCalls++
	fn := f.sendFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("unexpected send")
	}
	return fn(text)
}

func (f *fakeAPI) Stream(ctx context.Context, chatID string) (<-chan handler.StreamEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	ch := make(chan handler.StreamEvent, 16)
	f.streams = append(f.streams, ch)
	return ch, nil
}

func (f *fakeAPI) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sendCalls
}

func self() models.SenderProfile {
	return models.SenderProfile{UserID: "42", Name: "Alice"}
}

func confirmed(id, userID, text string, ts time.Time) models.Message {
	return models.Message{
		ID:             id,
		ConversationID: "global",
		UserID:         userID,
		UserName:       "someone",
		Text:           text,
		Kind:           models.KindText,
		Timestamp:      ts,
		Status:         models.StatusSent,
	}
}

func texts(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}

func TestEngine_OpenSetsSnapshot(t *testing.T) {
	now := time.Now().UTC()
	api := &fakeAPI{snapshot: []models.Message{
		confirmed("01A", "1", "first", now.Add(-2*time.Minute)),
		confirmed("01B", "2", "second", now.Add(-time.Minute)),
	}}
	e := NewEngine(api, "global", self(), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, e.Open(ctx))
	defer func() { cancel(); e.Close() }()

	entries := e.Messages()
	assert.Equal(t, []string{"first", "second"}, texts(entries))
	assert.False(t, entries[0].Pending)
}

func TestEngine_OpenFailsWhenSnapshotFails(t *testing.T) {
	api := &fakeAPI{snapshotErr: errors.New("store down")}
	e := NewEngine(api, "global", self(), Options{})

	err := e.Open(context.Background())
	assert.Error(t, err)
}

func TestEngine_SendIsOptimistic(t *testing.T) {
	api := &fakeAPI{}
	block := make(chan struct{})
	api.sendFn = func(text string) (*models.Message, error) {
		<-block
		return nil, errors.New("never reached in assertion window")
	}
	e := NewEngine(api, "global", self(), Options{})

	id, err := e.Send(context.Background(), "hello", models.KindText)
	require.NoError(t, err)
	assert.True(t, len(id) > len(TempIDPrefix))
	assert.Contains(t, id, TempIDPrefix)

	// The pending entry is visible before the network call completes.
	entries := e.Messages()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Pending)
	assert.Equal(t, string(StatusSending), entries[0].Status)
	assert.Equal(t, "hello", entries[0].Text)
	assert.Equal(t, "42", entries[0].UserID)

	close(block)
	e.Close()
}

func TestEngine_EmptySendMakesNoNetworkCall(t *testing.T) {
	api := &fakeAPI{}
	e := NewEngine(api, "global", self(), Options{})

	_, err := e.Send(context.Background(), "   \t ", models.KindText)
	assert.True(t, common.IsValidation(err))
	assert.Empty(t, e.Messages())
	assert.Equal(t, 0, api.sendCount())
}

func TestEngine_SendSuccessSwapsInServerMessage(t *testing.T) {
	now := time.Now().UTC()
	api := &fakeAPI{}
	api.sendFn = func(text string) (*models.Message, error) {
		m := confirmed("01SRV", "42", text, now)
		return &m, nil
	}
	e := NewEngine(api, "global", self(), Options{})

	_, err := e.Send(context.Background(), "hello", models.KindText)
	require.NoError(t, err)
	e.Close()

	// Exactly one visible entry, now confirmed.
	entries := e.Messages()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Pending)
	assert.Equal(t, "01SRV", entries[0].ID)
}

func TestEngine_ConfirmedSendSurvivesNextDelta(t *testing.T) {
	// After the swap, the bridge delivers the authoritative list
	// containing the same message; still exactly one visible entry.
	now := time.Now().UTC()
	api := &fakeAPI{}
	srv := confirmed("01SRV", "42", "hello", now)
	api.sendFn = func(text string) (*models.Message, error) {
		m := srv
		return &m, nil
	}
	e := NewEngine(api, "global", self(), Options{})

	_, err := e.Send(context.Background(), "hello", models.KindText)
	require.NoError(t, err)
	e.Close()

	e.applyMessages([]models.Message{srv}, 1)

	entries := e.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, "01SRV", entries[0].ID)
}

func TestEngine_CloseReturnsAfterCancel(t *testing.T) {
	api := &fakeAPI{}
	e := NewEngine(api, "global", self(), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, e.Open(ctx))

	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return len(api.streams) == 1
	}, time.Second, time.Millisecond)

	// The server never closes the stream channel; cancelling the Open
	// context alone must release the consumer.
	cancel()

	done := make(chan struct{})
	go func() {
		e.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return after cancel")
	}
}

func TestEngine_ConfirmedSendSurvivesCappedDelta(t *testing.T) {
	// A conversation longer than the bridge window: deltas carry only
	// the newest 100 messages. A send confirmed just before such a
	// delta must stay visible.
	now := time.Now().UTC()
	backlog := make([]models.Message, 0, 100)
	for i := 0; i < 100; i++ {
		backlog = append(backlog, confirmed(
			fmt.Sprintf("01-%03d", i), "1", fmt.Sprintf("m%d", i),
			now.Add(time.Duration(i-200)*time.Second)))
	}

	srv := confirmed("01-NEW", "42", "hello after cap", now)
	api := &fakeAPI{}
	api.sendFn = func(text string) (*models.Message, error) {
		m := srv
		return &m, nil
	}
	e := NewEngine(api, "global", self(), Options{})

	e.applyMessages(backlog, 100)

	_, err := e.Send(context.Background(), "hello after cap", models.KindText)
	require.NoError(t, err)
	e.Close()

	// The bridge's next delta: the tail window, oldest entry evicted,
	// the confirmed send included.
	window := append(append([]models.Message{}, backlog[1:]...), srv)
	e.applyMessages(window, 101)

	var hits int
	for _, entry := range e.Messages() {
		if entry.Text == "hello after cap" {
			hits++
			assert.False(t, entry.Pending)
		}
	}
	assert.Equal(t, 1, hits)
}

func TestEngine_FailedSendIsTerminalUntilRetry(t *testing.T) {
	api := &fakeAPI{}
	api.sendFn = func(text string) (*models.Message, error) {
		return nil, &common.TransientStoreError{Op: "append", Err: errors.New("offline")}
	}
	e := NewEngine(api, "global", self(), Options{})

	id, err := e.Send(context.Background(), "hello", models.KindText)
	require.NoError(t, err)
	e.Close()

	entries := e.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, string(StatusFailed), entries[0].Status)

	// A delta containing an identical confirmed message must NOT
	// absorb the failed entry.
	now := time.Now().UTC()
	e.applyMessages([]models.Message{confirmed("01X", "42", "hello", now)}, 1)

	entries = e.Messages()
	require.Len(t, entries, 2)
	assert.Equal(t, string(StatusFailed), entries[1].Status)

	// Only explicit retry removes it; the retry resends the same text.
	api.mu.Lock()
	api.sendFn = func(text string) (*models.Message, error) {
		m := confirmed("01Y", "42", text, time.Now().UTC())
		return &m, nil
	}
	api.mu.Unlock()

	_, err = e.Retry(context.Background(), id)
	require.NoError(t, err)
	e.Close()

	var failed int
	for _, entry := range e.Messages() {
		if entry.Status == string(StatusFailed) {
			failed++
		}
	}
	assert.Equal(t, 0, failed)
	assert.Equal(t, 2, api.sendCount())
}

func TestEngine_RetryUnknownID(t *testing.T) {
	e := NewEngine(&fakeAPI{}, "global", self(), Options{})
	_, err := e.Retry(context.Background(), "temp-nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestEngine_DiscardRemovesFailedEntry(t *testing.T) {
	api := &fakeAPI{}
	api.sendFn = func(text string) (*models.Message, error) {
		return nil, errors.New("offline")
	}
	e := NewEngine(api, "global", self(), Options{})

	id, err := e.Send(context.Background(), "doomed", models.KindText)
	require.NoError(t, err)
	e.Close()

	e.Discard(id)
	assert.Empty(t, e.Messages())
}

func TestEngine_ReconciliationWindow(t *testing.T) {
	origin := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	api := &fakeAPI{}
	e := NewEngine(api, "global", self(), Options{
		ReconcileWindow: 5 * time.Second,
		Now:             func() time.Time { return origin },
	})

	block := make(chan struct{})
	api.sendFn = func(text string) (*models.Message, error) {
		<-block
		return nil, errors.New("slow")
	}

	_, err := e.Send(context.Background(), "hello", models.KindText)
	require.NoError(t, err)

	// Confirmed counterpart arrives 3s after the origin: matched,
	// pending entry absorbed.
	e.applyMessages([]models.Message{confirmed("01A", "42", "hello", origin.Add(3*time.Second))}, 1)
	entries := e.Messages()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Pending)

	close(block)
	e.Close()
}

func TestEngine_ReconciliationOutsideWindowKeepsBoth(t *testing.T) {
	origin := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	api := &fakeAPI{}
	e := NewEngine(api, "global", self(), Options{
		ReconcileWindow: 5 * time.Second,
		Now:             func() time.Time { return origin },
	})

	block := make(chan struct{})
	api.sendFn = func(text string) (*models.Message, error) {
		<-block
		return nil, errors.New("slow")
	}

	_, err := e.Send(context.Background(), "hello", models.KindText)
	require.NoError(t, err)

	// Same text and sender but 30s apart: a different message, not a
	// duplicate of the pending one.
	e.applyMessages([]models.Message{confirmed("01A", "42", "hello", origin.Add(30*time.Second))}, 1)
	assert.Len(t, e.Messages(), 2)

	close(block)
	e.Close()
}

func TestEngine_StaleCountIgnored(t *testing.T) {
	now := time.Now().UTC()
	api := &fakeAPI{snapshot: []models.Message{
		confirmed("01A", "1", "a", now),
		confirmed("01B", "1", "b", now),
		confirmed("01C", "1", "c", now),
	}}
	var updates int
	e := NewEngine(api, "global", self(), Options{OnUpdate: func() { updates++ }})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, e.Open(ctx))
	before := e.Messages()
	updatesBefore := updates

	// Bridge redelivers count 3: same count, no re-render.
	e.applyMessages([]models.Message{confirmed("01Z", "9", "z", now)}, 3)
	assert.Equal(t, before, e.Messages())
	assert.Equal(t, updatesBefore, updates)

	cancel()
	e.Close()
}

func TestEngine_DuplicateDeltaIsIdempotent(t *testing.T) {
	now := time.Now().UTC()
	delta := []models.Message{
		confirmed("01A", "1", "a", now),
		confirmed("01B", "2", "b", now),
	}
	e := NewEngine(&fakeAPI{}, "global", self(), Options{})

	e.applyMessages(delta, 2)
	first := e.Messages()

	e.applyMessages(delta, 2)
	assert.Equal(t, first, e.Messages())
}

func TestEngine_OtherTabDeliveryWithinOnePoll(t *testing.T) {
	// Scenario: tab A sent "hi"; tab B's bridge pushes the list and B
	// renders it with A's user id, no reload involved.
	now := time.Now().UTC()
	api := &fakeAPI{}
	e := NewEngine(api, "global", self(), Options{ReconnectDelay: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, e.Open(ctx))

	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return len(api.streams) == 1
	}, time.Second, time.Millisecond)

	api.mu.Lock()
	stream := api.streams[0]
	api.mu.Unlock()

	stream <- handler.StreamEvent{Type: handler.EventConnected, ChatID: "global"}
	stream <- handler.StreamEvent{
		Type:     handler.EventMessages,
		ChatID:   "global",
		Messages: []models.Message{confirmed("01A", "7", "hi", now)},
		Count:    1,
	}

	assert.Eventually(t, func() bool {
		entries := e.Messages()
		return len(entries) == 1 && entries[0].UserID == "7" && entries[0].Text == "hi"
	}, time.Second, time.Millisecond)
	assert.True(t, e.Connected())

	cancel()
	close(stream)
	e.Close()
}

func TestEngine_ErrorEventSurfacedStreamStaysUp(t *testing.T) {
	api := &fakeAPI{}
	e := NewEngine(api, "global", self(), Options{ReconnectDelay: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, e.Open(ctx))

	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return len(api.streams) == 1
	}, time.Second, time.Millisecond)

	api.mu.Lock()
	stream := api.streams[0]
	api.mu.Unlock()

	stream <- handler.StreamEvent{Type: handler.EventConnected}
	stream <- handler.StreamEvent{Type: handler.EventError, Error: "transient store error"}

	assert.Eventually(t, func() bool {
		return e.LastError() == "transient store error"
	}, time.Second, time.Millisecond)
	assert.True(t, e.Connected())

	cancel()
	close(stream)
	e.Close()
}

func TestEngine_ReconnectsAfterStreamDrop(t *testing.T) {
	now := time.Now().UTC()
	api := &fakeAPI{}
	e := NewEngine(api, "global", self(), Options{ReconnectDelay: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, e.Open(ctx))

	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return len(api.streams) == 1
	}, time.Second, time.Millisecond)

	// New message lands while the stream is down.
	api.mu.Lock()
	first := api.streams[0]
	api.snapshot = []models.Message{confirmed("01A", "9", "missed you", now)}
	api.mu.Unlock()

	close(first) // server dropped the connection

	// The engine re-fetches the snapshot and opens a second stream.
	assert.Eventually(t, func() bool {
		api.mu.Lock()
		streams := len(api.streams)
		api.mu.Unlock()
		entries := e.Messages()
		return streams >= 2 && len(entries) == 1 && entries[0].Text == "missed you"
	}, time.Second, time.Millisecond)

	cancel()
	api.mu.Lock()
	for _, s := range api.streams[1:] {
		close(s)
	}
	api.mu.Unlock()
	e.Close()
}
