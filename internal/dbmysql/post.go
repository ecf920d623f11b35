package dbmysql

import (
	"time"

	"gorm.io/gorm"
)

type Post struct {
	PostID    uint64         `gorm:"primaryKey;column:post_id;autoIncrement" json:"id"`
	AuthorID  uint64         `gorm:"column:author_id;index;not null" json:"authorId"`
	Content   string         `gorm:"column:content;type:text;not null" json:"content"`
	MediaURL  *string        `gorm:"column:media_url;size:500" json:"mediaUrl"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Author    User       `gorm:"foreignKey:AuthorID" json:"author"`
	Comments  []Comment  `gorm:"foreignKey:PostID" json:"comments"`
	Reactions []Reaction `gorm:"foreignKey:PostID" json:"reactions"`
}

type Comment struct {
	CommentID uint64         `gorm:"primaryKey;column:comment_id;autoIncrement" json:"id"`
	PostID    uint64         `gorm:"column:post_id;index;not null" json:"postId"`
	AuthorID  uint64         `gorm:"column:author_id;index;not null" json:"authorId"`
	Content   string         `gorm:"column:content;type:text;not null" json:"content"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Author User `gorm:"foreignKey:AuthorID" json:"author"`
}

type Reaction struct {
	ID        uint64    `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	PostID    uint64    `gorm:"column:post_id;uniqueIndex:idx_post_user_type;not null" json:"postId"`
	UserID    uint64    `gorm:"column:user_id;uniqueIndex:idx_post_user_type;not null" json:"userId"`
	Type      string    `gorm:"column:type;size:20;uniqueIndex:idx_post_user_type;not null" json:"type"` // like, love, laugh, etc.
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`

	User User `gorm:"foreignKey:UserID" json:"user"`
}
