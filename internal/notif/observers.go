package notif

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"villagesq/internal/common"
	"villagesq/internal/dbmysql"

	"firebase.google.com/go/v4/messaging"
)

type DatabaseNotificationObserver struct {
	repo NotificationRepository
}

func NewDatabaseNotificationObserver(repo NotificationRepository) *DatabaseNotificationObserver {
	return &DatabaseNotificationObserver{
		repo: repo,
	}
}

func (d *DatabaseNotificationObserver) Name() string {
	return "database_observer"
}

func (d *DatabaseNotificationObserver) Update(event common.NotificationEvent) error {
	notification := &dbmysql.Notification{
		UserID:        event.UserID,
		TriggerUserID: event.TriggerUserID,
		Type:          string(event.Type),
		Title:         event.Title,
		Body:          event.Body,
		Status:        "pending",
	}

	if err := d.repo.Create(context.Background(), notification); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	return nil
}

type FCMNotificationObserver struct {
	fcmClient  *messaging.Client
	deviceRepo DeviceRepository
}

func NewFCMNotificationObserver(fcmClient *messaging.Client, deviceRepo DeviceRepository) *FCMNotificationObserver {
	return &FCMNotificationObserver{
		fcmClient:  fcmClient,
		deviceRepo: deviceRepo,
	}
}

func (f *FCMNotificationObserver) Name() string {
	return "fcm_observer"
}

func (f *FCMNotificationObserver) Update(event common.NotificationEvent) error {
	devices, err := f.deviceRepo.ActiveByUserID(context.Background(), event.UserID)
	if err != nil {
		return fmt.Errorf("failed to get devices: %w", err)
	}

	if len(devices) == 0 {
		return nil
	}

	tokens := make([]string, len(devices))
	for i, device := range devices {
		tokens[i] = device.DeviceToken
	}

	fcmMessage := &messaging.MulticastMessage{
		Notification: &messaging.Notification{
			Title: event.Title,
			Body:  event.Body,
		},
		Data: map[string]string{
			"type":    string(event.Type),
			"user_id": strconv.FormatUint(event.UserID, 10),
		},
		Tokens: tokens,
	}

	for key, value := range event.Metadata {
		fcmMessage.Data[key] = value
	}

	response, err := f.fcmClient.SendEachForMulticast(context.Background(), fcmMessage)
	if err != nil {
		return fmt.Errorf("failed to send FCM: %w", err)
	}

	f.handleFailedTokens(response, devices)

	if response.FailureCount > 0 {
		log.Printf("FCM notification sent: %d success, %d failure", response.SuccessCount, response.FailureCount)
	}

	return nil
}

// handleFailedTokens deactivates tokens the provider reports as dead so
// they stop being targeted on the next fan-out.
func (f *FCMNotificationObserver) handleFailedTokens(response *messaging.BatchResponse, devices []dbmysql.Device) {
	for i, result := range response.Responses {
		if result.Success || i >= len(devices) {
			continue
		}

		if messaging.IsRegistrationTokenNotRegistered(result.Error) ||
			messaging.IsInvalidArgument(result.Error) {

			token := devices[i].DeviceToken
			if err := f.deviceRepo.Deactivate(context.Background(), token); err != nil {
				log.Printf("Failed to deactivate token: %v", err)
				continue
			}
			log.Printf("Deactivated invalid token for user %d", devices[i].UserID)
		}
	}
}
