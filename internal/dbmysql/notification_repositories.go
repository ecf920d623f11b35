package dbmysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepo struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) Create(ctx context.Context, n *Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepo) ByUserID(ctx context.Context, userID uint64, limit, offset int) ([]Notification, error) {
	var out []Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, err
}

type DeviceRepo struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) *DeviceRepo {
	return &DeviceRepo{db: db}
}

// Register upserts a token; re-registering reactivates it.
func (r *DeviceRepo) Register(ctx context.Context, d *Device) error {
	d.Active = true
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "device_token"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "active", "last_active"}),
		}).
		Create(d).Error
}

func (r *DeviceRepo) ActiveByUserID(ctx context.Context, userID uint64) ([]Device, error) {
	var out []Device
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		Find(&out).Error
	return out, err
}

// Deactivate marks a token dead after the push provider rejects it.
func (r *DeviceRepo) Deactivate(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).
		Model(&Device{}).
		Where("device_token = ?", token).
		Update("active", false).Error
}
