package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ThreadStatusOpen   = "open"
	ThreadStatusClosed = "closed"
	ThreadStatusPinned = "pinned"
)

type DiscussionThread struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
	Title      string         `json:"title" gorm:"not null"`
	Content    string         `json:"content"`
	AuthorID   uint           `json:"author_id" gorm:"index;not null"`
	ModuleID   *uint          `json:"module_id,omitempty" gorm:"index"`
	Status     string         `json:"status" gorm:"default:open"`
	IsPinned   bool           `json:"is_pinned" gorm:"default:false"`
	ViewsCount uint           `json:"views_count" gorm:"default:0"`
	Comments   []Comment      `json:"comments,omitempty" gorm:"foreignKey:ThreadID"`
}

// Comment supports one level of arbitrary nesting through ParentID.
type Comment struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
	ThreadID   uint           `json:"thread_id" gorm:"index;not null"`
	AuthorID   uint           `json:"author_id" gorm:"index;not null"`
	Content    string         `json:"content" gorm:"not null"`
	ParentID   *uint          `json:"parent_id,omitempty" gorm:"index"`
	IsEdited   bool           `json:"is_edited" gorm:"default:false"`
	LikesCount uint           `json:"likes_count" gorm:"default:0"`
	Replies    []Comment      `json:"replies,omitempty" gorm:"foreignKey:ParentID"`
}

type CommentLike struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	CommentID uint      `json:"comment_id" gorm:"uniqueIndex:idx_like_comment_user;not null"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:idx_like_comment_user;not null"`
}
