// Package user implements registration, login, profiles, and the member
// directory.
package user

import (
	"encoding/json"
	"net/http"
	"time"

	"villagesq/internal/cache"
	"villagesq/internal/common"

	"github.com/gorilla/mux"
)

type Handler struct {
	userService UserService
	cache       *cache.Cache
}

func NewHandler(userService UserService, c *cache.Cache) *Handler {
	return &Handler{userService: userService, cache: c}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/register", h.Register).Methods("POST")
	r.HandleFunc("/api/login", h.Login).Methods("POST")
	r.HandleFunc("/api/profile", h.GetProfile).Methods("GET")
	r.HandleFunc("/api/profile", h.UpdateProfile).Methods("PUT")
	r.HandleFunc("/api/users", h.ListMembers).Methods("GET")
}

type authRequest struct {
	Handle   string `json:"handle"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token  string `json:"token"`
	UserID uint64 `json:"userId"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.NewValidationError("body", "invalid JSON"))
		return
	}

	u, token, err := h.userService.RegisterUser(r.Context(), req.Handle, req.Name, req.Email, req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	h.cache.InvalidateTag(cache.TagUsers)
	common.WriteJSON(w, http.StatusCreated, authResponse{Token: token, UserID: u.UserID})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.NewValidationError("body", "invalid JSON"))
		return
	}

	u, token, err := h.userService.LoginUser(r.Context(), req.Handle, req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, authResponse{Token: token, UserID: u.UserID})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := common.ClaimsFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized)
		return
	}

	u, err := h.userService.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, u)
}

type profileUpdateRequest struct {
	Name  string `json:"name"`
	Bio   string `json:"bio"`
	Email string `json:"email"`
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := common.ClaimsFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized)
		return
	}

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.NewValidationError("body", "invalid JSON"))
		return
	}

	if err := h.userService.UpdateProfile(r.Context(), claims.UserID, req.Name, req.Bio, req.Email); err != nil {
		common.WriteError(w, err)
		return
	}

	h.cache.InvalidateTag(cache.TagUsers)
	common.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ListMembers serves the member directory, cached briefly since it
// changes rarely and every page renders it.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	if cached, ok := h.cache.Get(cache.TagUsers, "directory"); ok {
		common.WriteJSON(w, http.StatusOK, cached)
		return
	}

	members, err := h.userService.ListMembers(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}

	directory := make([]memberEntry, 0, len(members))
	for _, m := range members {
		directory = append(directory, memberEntry{
			ID:         m.UserID,
			Handle:     m.Handle,
			Name:       m.Name,
			Bio:        m.Bio,
			ProfilePic: m.ProfilePic,
			Role:       m.Role,
			JoinedAt:   m.CreatedAt,
		})
	}

	h.cache.Set(cache.TagUsers, "directory", directory, cache.DurationMedium)
	common.WriteJSON(w, http.StatusOK, directory)
}

type memberEntry struct {
	ID         uint64    `json:"id"`
	Handle     string    `json:"handle"`
	Name       string    `json:"name"`
	Bio        string    `json:"bio"`
	ProfilePic *string   `json:"profilePic"`
	Role       string    `json:"role"`
	JoinedAt   time.Time `json:"joinedAt"`
}
