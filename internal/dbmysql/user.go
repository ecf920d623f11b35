package dbmysql

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	UserID       uint64         `gorm:"primaryKey;column:user_id;autoIncrement" json:"id"`
	Handle       string         `gorm:"column:handle;uniqueIndex;size:50;not null" json:"handle"`
	PasswordHash string         `gorm:"column:password_hash;size:255;not null" json:"-"`
	Name         string         `gorm:"column:name;size:100" json:"name"`
	Bio          string         `gorm:"column:bio;type:text" json:"bio"`
	Email        string         `gorm:"column:email;size:255" json:"email"`
	ProfilePic   *string        `gorm:"column:profile_pic;size:500" json:"profilePic"`
	Role         string         `gorm:"column:role;type:enum('MEMBER','ADMIN');default:'MEMBER'" json:"role"`
	Status       string         `gorm:"column:status;type:enum('active','banned','deleted');default:'active'" json:"status"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
