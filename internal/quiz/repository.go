package quiz

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"civiclearn/internal/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transaction runs fn with a repository bound to a database transaction.
// Attempt submission and finalization go through here so a double-submit
// cannot interleave.
func (r *Repository) Transaction(fn func(*Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) CreateQuiz(quiz *models.Quiz) error {
	return r.db.Create(quiz).Error
}

func (r *Repository) UpdateQuiz(quiz *models.Quiz) error {
	return r.db.Save(quiz).Error
}

// GetQuizByID loads the quiz with its questions and choices in stored
// order.
func (r *Repository) GetQuizByID(quizID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := r.db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order(`"order" asc, id asc`)
		}).
		Preload("Questions.Choices", func(db *gorm.DB) *gorm.DB {
			return db.Order(`"order" asc, id asc`)
		}).
		First(&quiz, quizID).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

// GetQuizMeta loads the quiz row alone.
func (r *Repository) GetQuizMeta(quizID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := r.db.First(&quiz, quizID).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *Repository) ListPublished() ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := r.db.Where("is_published = ?", true).
		Order("created_at desc").
		Find(&quizzes).Error
	if err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (r *Repository) ListByCreator(userID uint) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := r.db.Where("created_by = ?", userID).
		Order("created_at desc").
		Find(&quizzes).Error
	if err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (r *Repository) ModuleExists(moduleID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.LearningModule{}).
		Where("id = ?", moduleID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) CreateQuestion(question *models.Question) error {
	return r.db.Create(question).Error
}

func (r *Repository) GetQuestion(questionID uint) (*models.Question, error) {
	var question models.Question
	err := r.db.
		Preload("Choices", func(db *gorm.DB) *gorm.DB {
			return db.Order(`"order" asc, id asc`)
		}).
		First(&question, questionID).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *Repository) UpdateQuestion(question *models.Question) error {
	return r.db.Save(question).Error
}

// ReplaceChoices swaps a question's choice set in one shot.
func (r *Repository) ReplaceChoices(questionID uint, choices []models.Choice) error {
	err := r.db.Where("question_id = ?", questionID).Delete(&models.Choice{}).Error
	if err != nil {
		return err
	}
	for i := range choices {
		choices[i].ID = 0
		choices[i].QuestionID = questionID
	}
	return r.db.Create(&choices).Error
}

func (r *Repository) DeleteQuestion(questionID uint) error {
	err := r.db.Where("question_id = ?", questionID).Delete(&models.Choice{}).Error
	if err != nil {
		return err
	}
	return r.db.Delete(&models.Question{}, questionID).Error
}

func (r *Repository) CountQuestions(quizID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Question{}).
		Where("quiz_id = ?", quizID).
		Count(&count).Error
	return count, err
}

// SumQuizPoints returns the total points across the quiz's questions.
func (r *Repository) SumQuizPoints(quizID uint) (uint, error) {
	var total int64
	err := r.db.Model(&models.Question{}).
		Where("quiz_id = ?", quizID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error
	return uint(total), err
}

func (r *Repository) GetOpenAttempt(userID, quizID uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	err := r.db.Where("user_id = ? AND quiz_id = ? AND completed_at IS NULL", userID, quizID).
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *Repository) CountAttempts(userID, quizID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.QuizAttempt{}).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Count(&count).Error
	return count, err
}

func (r *Repository) CreateAttempt(attempt *models.QuizAttempt) error {
	return r.db.Create(attempt).Error
}

func (r *Repository) GetAttempt(attemptID uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	err := r.db.First(&attempt, attemptID).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *Repository) GetAttemptWithAnswers(attemptID uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	err := r.db.
		Preload("Answers").
		Preload("Answers.Question").
		Preload("Answers.SelectedChoice").
		First(&attempt, attemptID).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *Repository) UpdateAttempt(attempt *models.QuizAttempt) error {
	return r.db.Save(attempt).Error
}

// UpsertAnswer writes the answer for (attempt, question), overwriting any
// earlier selection for the same question.
func (r *Repository) UpsertAnswer(answer *models.QuestionAnswer) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"selected_choice_id", "is_correct", "answered_at",
		}),
	}).Create(answer).Error
}

func (r *Repository) GetAnswers(attemptID uint) ([]models.QuestionAnswer, error) {
	var answers []models.QuestionAnswer
	err := r.db.Where("attempt_id = ?", attemptID).Find(&answers).Error
	if err != nil {
		return nil, err
	}
	return answers, nil
}

// GetBestPassedAttempt returns the caller's highest-percentage passed
// attempt for the quiz, if any.
func (r *Repository) GetBestPassedAttempt(userID, quizID uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	err := r.db.Where("user_id = ? AND quiz_id = ? AND is_passed = ?", userID, quizID, true).
		Order("percentage desc").
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}
