package feed

import (
	"encoding/json"
	"net/http"
	"strconv"

	"villagesq/internal/common"

	"github.com/gorilla/mux"
)

type FeedHandler struct {
	usecase FeedUsecase
}

func NewFeedHandler(usecase FeedUsecase) *FeedHandler {
	return &FeedHandler{usecase: usecase}
}

func (h *FeedHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/posts", h.GetTimeline).Methods(http.MethodGet)
	r.HandleFunc("/api/posts", h.CreatePost).Methods(http.MethodPost)
	r.HandleFunc("/api/posts/{postId}", h.GetPost).Methods(http.MethodGet)
	r.HandleFunc("/api/posts/{postId}", h.DeletePost).Methods(http.MethodDelete)
	r.HandleFunc("/api/posts/{postId}/comments", h.GetComments).Methods(http.MethodGet)
	r.HandleFunc("/api/posts/{postId}/comments", h.AddComment).Methods(http.MethodPost)
	r.HandleFunc("/api/comments/{commentId}", h.DeleteComment).Methods(http.MethodDelete)
	r.HandleFunc("/api/posts/{postId}/reactions", h.GetReactions).Methods(http.MethodGet)
	r.HandleFunc("/api/posts/{postId}/reactions", h.ToggleReaction).Methods(http.MethodPost)
}

func postIDFromRequest(r *http.Request) (uint64, error) {
	raw := mux.Vars(r)["postId"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, common.NewValidationError("postId", "must be a positive integer")
	}
	return id, nil
}

func (h *FeedHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	posts, err := h.usecase.GetTimeline(r.Context(), limit, offset)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]any{
		"posts": posts,
		"count": len(posts),
	})
}

type createPostRequest struct {
	Content string `json:"content"`
}

func (h *FeedHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	claims, ok := common.ClaimsFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized)
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.NewValidationError("body", "invalid JSON"))
		return
	}

	post, err := h.usecase.CreatePost(r.Context(), claims.UserID, claims.Name, req.Content)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusCreated, post)
}

func (h *FeedHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := postIDFromRequest(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	post, err := h.usecase.GetPost(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, post)
}

func (h *FeedHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	claims, ok := common.ClaimsFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized)
		return
	}

	id, err := postIDFromRequest(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	if err := h.usecase.DeletePost(r.Context(), id, claims.UserID, claims.IsAdmin()); err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "post deleted",
	})
}

type addCommentRequest struct {
	Content string `json:"content"`
}

func (h *FeedHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	claims, ok := common.ClaimsFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized)
		return
	}

	id, err := postIDFromRequest(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.NewValidationError("body", "invalid JSON"))
		return
	}

	comment, err := h.usecase.AddComment(r.Context(), id, claims.UserID, claims.Name, req.Content)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusCreated, comment)
}

func (h *FeedHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	id, err := postIDFromRequest(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	comments, err := h.usecase.GetComments(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]any{
		"comments": comments,
		"count":    len(comments),
	})
}

func (h *FeedHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	claims, ok := common.ClaimsFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized)
		return
	}

	id, err := strconv.ParseUint(mux.Vars(r)["commentId"], 10, 64)
	if err != nil {
		common.WriteError(w, common.NewValidationError("commentId", "must be a positive integer"))
		return
	}

	if err := h.usecase.DeleteComment(r.Context(), id, claims.UserID, claims.IsAdmin()); err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "comment deleted",
	})
}

type toggleReactionRequest struct {
	Type string `json:"type"`
}

func (h *FeedHandler) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	claims, ok := common.ClaimsFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized)
		return
	}

	id, err := postIDFromRequest(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	var req toggleReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.NewValidationError("body", "invalid JSON"))
		return
	}

	reacted, err := h.usecase.ToggleReaction(r.Context(), id, claims.UserID, claims.Name, req.Type)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]any{
		"reacted": reacted,
		"type":    req.Type,
	})
}

func (h *FeedHandler) GetReactions(w http.ResponseWriter, r *http.Request) {
	id, err := postIDFromRequest(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	reactions, err := h.usecase.GetReactions(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]any{
		"reactions": reactions,
		"count":     len(reactions),
	})
}
