package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villagesq/internal/chat/models"
	"villagesq/internal/chat/service"
	"villagesq/internal/common"
	"villagesq/internal/config"
)

func setupHandlerTest(t *testing.T, repo *fakeRepo) (*mux.Router, string) {
	t.Helper()

	cfg := config.Load()
	cfg.Chat.PollInterval = 5 * time.Millisecond
	svc := service.NewChatService(repo, nil, cfg.Chat.MaxBodyLen)
	h := NewChatHandler(svc, nil, cfg)

	router := mux.NewRouter()
	router.Use(common.AuthMiddleware())
	h.RegisterRoutes(router)

	token, err := common.GenerateToken(42, "alice", "Alice", "MEMBER")
	require.NoError(t, err)

	return router, token
}

func TestChatHandler_GetMessages(t *testing.T) {
	msgs := []models.Message{
		{ID: "01A", ConversationID: "global", Text: "first", UserID: "1", Status: "sent"},
		{ID: "01B", ConversationID: "global", Text: "second", UserID: "2", Status: "sent"},
	}
	repo := &fakeRepo{
		countFn: func(int) (int64, error) { return 2, nil },
		listFn:  func(int) ([]models.Message, error) { return msgs, nil },
	}
	router, token := setupHandlerTest(t, repo)

	req := httptest.NewRequest("GET", "/api/chat/global/messages", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got []models.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Text)
}

func TestChatHandler_GetMessages_RequiresAuth(t *testing.T) {
	repo := &fakeRepo{
		countFn: func(int) (int64, error) { return 0, nil },
		listFn:  func(int) ([]models.Message, error) { return nil, nil },
	}
	router, _ := setupHandlerTest(t, repo)

	req := httptest.NewRequest("GET", "/api/chat/global/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChatHandler_SendMessage(t *testing.T) {
	repo := &fakeRepo{
		countFn: func(int) (int64, error) { return 0, nil },
		listFn:  func(int) ([]models.Message, error) { return nil, nil },
	}
	repo.appendFn = func(msg *models.Message) (*models.Message, error) {
		saved := *msg
		saved.ID = "01HZXW0000000000000000TEST"
		saved.Timestamp = time.Now().UTC()
		saved.Status = models.StatusSent
		return &saved, nil
	}
	router, token := setupHandlerTest(t, repo)

	body := bytes.NewBufferString(`{"text":"hello there","type":"text"}`)
	req := httptest.NewRequest("POST", "/api/chat/global/messages", body)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp sendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "01HZXW0000000000000000TEST", resp.MessageID)
	require.NotNil(t, resp.Message)
	assert.Equal(t, "hello there", resp.Message.Text)
	assert.Equal(t, "42", resp.Message.UserID)
	assert.Equal(t, "Alice", resp.Message.UserName)
}

func TestChatHandler_SendMessage_EmptyBodyRejected(t *testing.T) {
	repo := &fakeRepo{
		countFn: func(int) (int64, error) { return 0, nil },
		listFn:  func(int) ([]models.Message, error) { return nil, nil },
	}
	// appendFn left nil: the handler must reject before any store call
	router, token := setupHandlerTest(t, repo)

	body := bytes.NewBufferString(`{"text":"   "}`)
	req := httptest.NewRequest("POST", "/api/chat/global/messages", body)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, repo.appendCall)
}

func TestChatHandler_GetUpdates(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	msgs := []models.Message{
		{ID: "01C", Text: "newer", Timestamp: base.Add(time.Minute)},
	}
	repo := &fakeRepo{
		countFn: func(int) (int64, error) { return 3, nil },
		listFn:  func(int) ([]models.Message, error) { return msgs, nil },
	}
	router, token := setupHandlerTest(t, repo)

	req := httptest.NewRequest("GET", "/api/chat/global/updates?since="+base.Format(time.RFC3339)+"&limit=10", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp updatesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.HasNewMessages)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, base.Add(time.Minute), resp.LatestTimestamp.UTC())
}

func TestChatHandler_GetUpdates_BadCursor(t *testing.T) {
	repo := &fakeRepo{
		countFn: func(int) (int64, error) { return 0, nil },
		listFn:  func(int) ([]models.Message, error) { return nil, nil },
	}
	router, token := setupHandlerTest(t, repo)

	req := httptest.NewRequest("GET", "/api/chat/global/updates?since=yesterday", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHandler_StreamMessages_EndToEnd(t *testing.T) {
	msgs := []models.Message{{ID: "01A", ConversationID: "global", Text: "hi", UserID: "7"}}
	repo := &fakeRepo{
		countFn: func(int) (int64, error) { return 1, nil },
		listFn:  func(int) ([]models.Message, error) { return msgs, nil },
	}
	router, token := setupHandlerTest(t, repo)

	server := httptest.NewServer(router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", server.URL+"/api/chat/global/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	var events []StreamEvent
	for scanner.Scan() && len(events) < 2 {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev StreamEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		events = append(events, ev)
	}

	require.Len(t, events, 2)
	assert.Equal(t, EventConnected, events[0].Type)
	assert.Equal(t, "global", events[0].ChatID)
	assert.Equal(t, EventMessages, events[1].Type)
	assert.Equal(t, int64(1), events[1].Count)
	require.Len(t, events[1].Messages, 1)
	assert.Equal(t, "hi", events[1].Messages[0].Text)
}
