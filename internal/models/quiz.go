package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	QuizDifficultyEasy   = "easy"
	QuizDifficultyMedium = "medium"
	QuizDifficultyHard   = "hard"
)

const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeTrueFalse      = "true_false"
)

type Quiz struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`
	Title            string         `json:"title" gorm:"not null"`
	Description      string         `json:"description"`
	ModuleID         uint           `json:"module_id" gorm:"index;not null"`
	CreatedBy        uint           `json:"created_by" gorm:"index"`
	Difficulty       string         `json:"difficulty" gorm:"default:medium"`
	PassingScore     uint           `json:"passing_score"`          // percent, 0-100
	TimeLimit        *uint          `json:"time_limit,omitempty"`   // minutes, advisory only
	MaxAttempts      *uint          `json:"max_attempts,omitempty"` // nil = unlimited
	IsPublished      bool           `json:"is_published" gorm:"default:false"`
	ShuffleQuestions bool           `json:"shuffle_questions"`
	ShowAnswers      bool           `json:"show_answers"`
	TotalQuestions   uint           `json:"total_questions" gorm:"default:0"` // cached count
	Questions        []Question     `json:"questions,omitempty" gorm:"foreignKey:QuizID"`
}

type Question struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
	QuizID       uint           `json:"quiz_id" gorm:"index;not null"`
	Text         string         `json:"text" gorm:"not null"`
	QuestionType string         `json:"question_type" gorm:"default:multiple_choice"`
	Order        int            `json:"order" gorm:"default:0"`
	Points       uint           `json:"points" gorm:"default:1"`
	Explanation  string         `json:"explanation,omitempty"`
	Choices      []Choice       `json:"choices,omitempty" gorm:"foreignKey:QuestionID"`
}

type Choice struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	CreatedAt  time.Time      `json:"created_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
	QuestionID uint           `json:"question_id" gorm:"index;not null"`
	Text       string         `json:"text" gorm:"not null"`
	IsCorrect  bool           `json:"is_correct"`
	Order      int            `json:"order" gorm:"default:0"`
}

// QuizAttempt is in-progress while CompletedAt is nil; submission finalizes
// it exactly once and populates the derived fields.
type QuizAttempt struct {
	ID                      uint             `json:"id" gorm:"primaryKey"`
	UserID                  uint             `json:"user_id" gorm:"index:idx_attempt_user_quiz;not null"`
	QuizID                  uint             `json:"quiz_id" gorm:"index:idx_attempt_user_quiz;not null"`
	StartedAt               time.Time        `json:"started_at" gorm:"autoCreateTime"`
	CompletedAt             *time.Time       `json:"completed_at,omitempty"`
	Score                   *uint            `json:"score,omitempty"`
	TotalPossibleScore      uint             `json:"total_possible_score" gorm:"default:0"`
	Percentage              *float64         `json:"percentage,omitempty"`
	IsPassed                *bool            `json:"is_passed,omitempty"`
	TotalQuestionsAttempted uint             `json:"total_questions_attempted" gorm:"default:0"`
	TotalQuestionsCorrect   uint             `json:"total_questions_correct" gorm:"default:0"`
	TimeTaken               *uint            `json:"time_taken,omitempty"` // seconds
	Answers                 []QuestionAnswer `json:"answers,omitempty" gorm:"foreignKey:AttemptID"`
}

// QuestionAnswer records the selected choice for one question of one
// attempt. At most one row per (attempt, question).
type QuestionAnswer struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	AttemptID        uint      `json:"attempt_id" gorm:"uniqueIndex:idx_answer_attempt_question;not null"`
	QuestionID       uint      `json:"question_id" gorm:"uniqueIndex:idx_answer_attempt_question;not null"`
	SelectedChoiceID *uint     `json:"selected_choice_id,omitempty"`
	IsCorrect        bool      `json:"is_correct"`
	AnsweredAt       time.Time `json:"answered_at" gorm:"autoCreateTime"`

	Question       *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	SelectedChoice *Choice   `json:"selected_choice,omitempty" gorm:"foreignKey:SelectedChoiceID"`
}
