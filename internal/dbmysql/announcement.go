package dbmysql

import (
	"time"

	"gorm.io/gorm"
)

type Announcement struct {
	AnnouncementID uint64         `gorm:"primaryKey;column:announcement_id;autoIncrement" json:"id"`
	AuthorID       uint64         `gorm:"column:author_id;index;not null" json:"authorId"`
	Content        string         `gorm:"column:content;type:text;not null" json:"content"`
	MediaURL       *string        `gorm:"column:media_url;size:500" json:"mediaUrl"`
	IsPinned       bool           `gorm:"column:is_pinned;default:false" json:"isPinned"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Author User `gorm:"foreignKey:AuthorID" json:"author"`
}
