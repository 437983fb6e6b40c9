package models

import (
	"time"

	"gorm.io/gorm"
)

// Publication lifecycle of a learning module.
const (
	ModuleStatusDraft     = "draft"
	ModuleStatusPublished = "published"
	ModuleStatusArchived  = "archived"
)

const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

type LearningModule struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
	Title           string         `json:"title" gorm:"uniqueIndex;not null"`
	Slug            string         `json:"slug" gorm:"uniqueIndex;not null"`
	Description     string         `json:"description"`
	Content         string         `json:"content"`
	Status          string         `json:"status" gorm:"index;not null;default:draft"`
	DifficultyLevel string         `json:"difficulty_level" gorm:"default:beginner"`
	Order           int            `json:"order" gorm:"default:0"`
	EstimatedTime   int            `json:"estimated_time" gorm:"default:15"` // minutes
	CreatedBy       uint           `json:"created_by" gorm:"index"`
	PublishedAt     *time.Time     `json:"published_at,omitempty"`
	Quizzes         []Quiz         `json:"quizzes,omitempty" gorm:"foreignKey:ModuleID"`
}
