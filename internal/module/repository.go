package module

import (
	"strings"

	"gorm.io/gorm"

	"civiclearn/internal/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListFilter narrows the published-module listing.
type ListFilter struct {
	Difficulty string
	Search     string
}

func (r *Repository) Create(module *models.LearningModule) error {
	return r.db.Create(module).Error
}

func (r *Repository) Update(module *models.LearningModule) error {
	return r.db.Save(module).Error
}

func (r *Repository) GetByID(id uint) (*models.LearningModule, error) {
	var module models.LearningModule
	err := r.db.First(&module, id).Error
	if err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *Repository) GetBySlug(slug string) (*models.LearningModule, error) {
	var module models.LearningModule
	err := r.db.Where("slug = ?", slug).First(&module).Error
	if err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *Repository) ListPublished(filter ListFilter) ([]models.LearningModule, error) {
	query := r.db.Where("status = ?", models.ModuleStatusPublished)
	if filter.Difficulty != "" {
		query = query.Where("difficulty_level = ?", filter.Difficulty)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var modules []models.LearningModule
	err := query.Order(`"order" asc, created_at desc`).Find(&modules).Error
	if err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *Repository) ListByCreator(userID uint) ([]models.LearningModule, error) {
	var modules []models.LearningModule
	err := r.db.Where("created_by = ?", userID).
		Order(`"order" asc, created_at desc`).
		Find(&modules).Error
	if err != nil {
		return nil, err
	}
	return modules, nil
}
