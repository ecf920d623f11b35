package announce

import (
	"encoding/json"
	"net/http"
	"strconv"

	"villagesq/internal/common"

	"github.com/gorilla/mux"
)

type AnnouncementHandler struct {
	service AnnouncementService
}

func NewAnnouncementHandler(service AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: service}
}

func (h *AnnouncementHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/announcements", h.List).Methods(http.MethodGet)
	r.HandleFunc("/api/announcements", h.Publish).Methods(http.MethodPost)
	r.HandleFunc("/api/announcements/{id}", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/api/announcements/{id}", h.Delete).Methods(http.MethodDelete)
}

func announcementID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, common.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}

// adminClaims rejects non-admin callers; every write goes through it.
func adminClaims(r *http.Request) (*common.Claims, error) {
	claims, ok := common.ClaimsFromContext(r.Context())
	if !ok {
		return nil, common.ErrUnauthorized
	}
	if !claims.IsAdmin() {
		return nil, common.ErrForbidden
	}
	return claims, nil
}

func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	announcements, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]any{
		"announcements": announcements,
		"count":         len(announcements),
	})
}

type publishRequest struct {
	Content string `json:"content"`
	Pinned  bool   `json:"pinned"`
}

func (h *AnnouncementHandler) Publish(w http.ResponseWriter, r *http.Request) {
	claims, err := adminClaims(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.NewValidationError("body", "invalid JSON"))
		return
	}

	a, err := h.service.Publish(r.Context(), claims.UserID, req.Content, req.Pinned)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusCreated, a)
}

type updateRequest struct {
	Content *string `json:"content"`
	Pinned  *bool   `json:"pinned"`
}

func (h *AnnouncementHandler) Update(w http.ResponseWriter, r *http.Request) {
	if _, err := adminClaims(r); err != nil {
		common.WriteError(w, err)
		return
	}

	id, err := announcementID(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.NewValidationError("body", "invalid JSON"))
		return
	}

	a, err := h.service.Update(r.Context(), id, req.Content, req.Pinned)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, a)
}

func (h *AnnouncementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := adminClaims(r); err != nil {
		common.WriteError(w, err)
		return
	}

	id, err := announcementID(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "announcement deleted",
	})
}
