// Package handler exposes the chat core over HTTP: snapshot and cursor
// fetches, sends, and the long-lived event stream.
package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"villagesq/internal/chat/models"
	"villagesq/internal/chat/service"
	"villagesq/internal/common"
	"villagesq/internal/config"

	"github.com/gorilla/mux"
)

// AvatarResolver looks up a user's avatar reference for outgoing
// messages. The user service implements it; nil disables avatars.
type AvatarResolver interface {
	Avatar(ctx context.Context, userID uint64) *string
}

type ChatHandler struct {
	svc     service.ChatService
	avatars AvatarResolver
	cfg     config.ChatConfig
}

func NewChatHandler(svc service.ChatService, avatars AvatarResolver, cfg *config.Config) *ChatHandler {
	return &ChatHandler{svc: svc, avatars: avatars, cfg: cfg.Chat}
}

func (h *ChatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/chat/{chatId}/messages", h.GetMessages).Methods("GET")
	r.HandleFunc("/api/chat/{chatId}/messages", h.SendMessage).Methods("POST")
	r.HandleFunc("/api/chat/{chatId}/updates", h.GetUpdates).Methods("GET")
	r.HandleFunc("/api/chat/{chatId}/stream", h.StreamMessages).Methods("GET")
}

// GetMessages returns the conversation snapshot, oldest first, capped.
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chatId"]

	messages, err := h.svc.History(r.Context(), chatID, h.cfg.SnapshotLimit)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, messages)
}

type sendRequest struct {
	Text string             `json:"text"`
	Kind models.MessageKind `json:"type"`
}

type sendResponse struct {
	Success   bool            `json:"success"`
	MessageID string          `json:"messageId"`
	Message   *models.Message `json:"message"`
}

// SendMessage persists a message and returns the confirmed entry.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chatId"]

	claims, ok := common.ClaimsFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized)
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.NewValidationError("body", "invalid JSON"))
		return
	}

	sender := models.SenderProfile{
		UserID: strconv.FormatUint(claims.UserID, 10),
		Name:   claims.Name,
	}
	if h.avatars != nil {
		sender.Avatar = h.avatars.Avatar(r.Context(), claims.UserID)
	}

	saved, err := h.svc.SendMessage(r.Context(), chatID, sender, req.Text, req.Kind)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, sendResponse{
		Success:   true,
		MessageID: saved.ID,
		Message:   saved,
	})
}

type updatesResponse struct {
	Messages        []models.Message `json:"messages"`
	LatestTimestamp time.Time        `json:"latestTimestamp"`
	HasNewMessages  bool             `json:"hasNewMessages"`
	Count           int              `json:"count"`
}

// GetUpdates returns messages strictly after the since cursor.
func (h *ChatHandler) GetUpdates(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chatId"]

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			common.WriteError(w, common.NewValidationError("since", "must be RFC3339"))
			return
		}
		since = parsed
	}

	limit := h.cfg.UpdatesLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	messages, err := h.svc.Updates(r.Context(), chatID, since, limit)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	latest := since
	if len(messages) > 0 {
		latest = messages[len(messages)-1].Timestamp
	}

	common.WriteJSON(w, http.StatusOK, updatesResponse{
		Messages:        messages,
		LatestTimestamp: latest,
		HasNewMessages:  len(messages) > 0,
		Count:           len(messages),
	})
}

// StreamMessages opens the one-way event stream and runs a feed bridge
// on it until the client goes away or the lifetime backstop fires.
func (h *ChatHandler) StreamMessages(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chatId"]

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	bridge := NewBridge(h.svc, chatID, h.cfg)
	if err := bridge.Run(r.Context(), newSSEWriter(w, flusher)); err != nil {
		log.Printf("Stream for %s closed: %v", chatID, err)
	}
}
