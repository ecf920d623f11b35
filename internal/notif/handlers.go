package notif

import (
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"villagesq/internal/common"
	"villagesq/internal/config"

	"github.com/gorilla/mux"
)

// NotificationHandler exposes device registration, the in-app inbox and
// the external trigger webhook.
type NotificationHandler struct {
	service *NotificationService
	cfg     *config.Config
}

func NewNotificationHandler(service *NotificationService, cfg *config.Config) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		cfg:     cfg,
	}
}

func (h *NotificationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/devices", h.RegisterDevice).Methods(http.MethodPost)
	r.HandleFunc("/api/notifications", h.ListNotifications).Methods(http.MethodGet)
	r.HandleFunc("/api/notifications/trigger", h.Trigger).Methods(http.MethodPost)
}

type registerDeviceRequest struct {
	DeviceToken string `json:"deviceToken"`
	Platform    string `json:"platform"`
}

func (h *NotificationHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	claims, ok := common.ClaimsFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized)
		return
	}

	var req registerDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.NewValidationError("body", "invalid JSON"))
		return
	}

	if err := h.service.RegisterDevice(r.Context(), claims.UserID, req.DeviceToken, req.Platform); err != nil {
		common.WriteError(w, err)
		return
	}

	log.Printf("Device registered for user %d (%s)", claims.UserID, req.Platform)
	common.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "device registered",
	})
}

func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	claims, ok := common.ClaimsFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	notifications, err := h.service.UserNotifications(r.Context(), claims.UserID, limit, offset)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]any{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

type triggerRequest struct {
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Metadata map[string]string `json:"metadata"`
}

// Trigger lets an external system (cron, admin tooling) broadcast a system
// notification. It is authenticated by a shared secret header, not a user
// token.
func (h *NotificationHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	secret := h.cfg.Server.WebhookSecret
	if secret == "" {
		common.WriteError(w, common.ErrForbidden)
		return
	}

	provided := r.Header.Get("X-Webhook-Secret")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
		common.WriteError(w, common.ErrUnauthorized)
		return
	}

	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.NewValidationError("body", "invalid JSON"))
		return
	}

	if err := h.service.Broadcast(r.Context(), req.Title, req.Body, req.Metadata); err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "broadcast queued",
	})
}
