package stats

import (
	"gorm.io/gorm"

	"civiclearn/internal/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CountUsers() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

func (r *Repository) CountModules() (int64, error) {
	var count int64
	err := r.db.Model(&models.LearningModule{}).Count(&count).Error
	return count, err
}

func (r *Repository) CountQuizzes() (int64, error) {
	var count int64
	err := r.db.Model(&models.Quiz{}).Count(&count).Error
	return count, err
}

func (r *Repository) CountAttempts() (int64, error) {
	var count int64
	err := r.db.Model(&models.QuizAttempt{}).Count(&count).Error
	return count, err
}

func (r *Repository) CountModulesByCreator(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.LearningModule{}).
		Where("created_by = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *Repository) CountQuizzesByCreator(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Quiz{}).
		Where("created_by = ?", userID).
		Count(&count).Error
	return count, err
}

// CountAttemptsOnCreatorQuizzes totals attempts across every quiz the
// educator owns.
func (r *Repository) CountAttemptsOnCreatorQuizzes(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.QuizAttempt{}).
		Joins("JOIN quizzes ON quizzes.id = quiz_attempts.quiz_id").
		Where("quizzes.created_by = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *Repository) AvgPassedPercentageOnCreatorQuizzes(userID uint) (*float64, error) {
	var avg *float64
	err := r.db.Model(&models.QuizAttempt{}).
		Joins("JOIN quizzes ON quizzes.id = quiz_attempts.quiz_id").
		Where("quizzes.created_by = ? AND quiz_attempts.is_passed = ?", userID, true).
		Select("AVG(quiz_attempts.percentage)").
		Scan(&avg).Error
	return avg, err
}

func (r *Repository) CountUserAttempts(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.QuizAttempt{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *Repository) CountUserPassedAttempts(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.QuizAttempt{}).
		Where("user_id = ? AND is_passed = ?", userID, true).
		Count(&count).Error
	return count, err
}

func (r *Repository) AvgUserPassedPercentage(userID uint) (*float64, error) {
	var avg *float64
	err := r.db.Model(&models.QuizAttempt{}).
		Where("user_id = ? AND is_passed = ?", userID, true).
		Select("AVG(percentage)").
		Scan(&avg).Error
	return avg, err
}

func (r *Repository) RecentUserAttempts(userID uint, limit int) ([]models.QuizAttempt, error) {
	var attempts []models.QuizAttempt
	err := r.db.Where("user_id = ?", userID).
		Order("started_at desc").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}
