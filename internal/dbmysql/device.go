package dbmysql

import (
	"time"
)

type Device struct {
	DeviceToken  string    `gorm:"primaryKey;size:255" json:"deviceToken"`
	UserID       uint64    `gorm:"not null;index" json:"userId"`
	Platform     string    `gorm:"not null;size:10" json:"platform"`
	Active       bool      `gorm:"default:true" json:"active"`
	RegisteredAt time.Time `gorm:"autoCreateTime" json:"registeredAt"`
	LastActive   time.Time `gorm:"autoCreateTime" json:"lastActive"`
}

func (Device) TableName() string {
	return "devices"
}
