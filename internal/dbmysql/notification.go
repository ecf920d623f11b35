package dbmysql

import (
	"time"
)

type Notification struct {
	ID            uint64     `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	UserID        uint64     `gorm:"column:user_id;index;not null" json:"userId"`
	TriggerUserID *uint64    `gorm:"column:trigger_user_id" json:"triggerUserId"`
	Type          string     `gorm:"column:type;size:30;not null" json:"type"`
	Title         string     `gorm:"column:title;size:255" json:"title"`
	Body          string     `gorm:"column:body;type:text" json:"body"`
	Status        string     `gorm:"column:status;size:20;default:'pending'" json:"status"`
	ReadAt        *time.Time `gorm:"column:read_at" json:"readAt"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
