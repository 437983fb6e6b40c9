package module

import (
	"strings"
	"time"
	"unicode"

	"civiclearn/internal/auth"
	"civiclearn/internal/models"
	"civiclearn/pkg/cache"
	"civiclearn/pkg/logger"
)

type Service struct {
	repo  *Repository
	cache *cache.RedisCache
	log   *logger.Logger
}

func NewService(repo *Repository, cache *cache.RedisCache, log *logger.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

type ModuleInput struct {
	Title           string
	Description     string
	Content         string
	DifficultyLevel string
	Order           int
	EstimatedTime   int
}

func (s *Service) CreateModule(p auth.Principal, input ModuleInput) (*models.LearningModule, error) {
	if !auth.Can(p.Role, auth.ActionManageModules) {
		return nil, auth.ErrForbidden
	}

	module := &models.LearningModule{
		Title:           input.Title,
		Slug:            slugify(input.Title),
		Description:     input.Description,
		Content:         input.Content,
		Status:          models.ModuleStatusDraft,
		DifficultyLevel: input.DifficultyLevel,
		Order:           input.Order,
		EstimatedTime:   input.EstimatedTime,
		CreatedBy:       p.UserID,
	}
	if module.DifficultyLevel == "" {
		module.DifficultyLevel = models.DifficultyBeginner
	}

	if err := s.repo.Create(module); err != nil {
		return nil, err
	}
	s.log.Info("module created", "module_id", module.ID, "slug", module.Slug, "user_id", p.UserID)
	return module, nil
}

func (s *Service) UpdateModule(p auth.Principal, id uint, input ModuleInput) (*models.LearningModule, error) {
	module, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !auth.Can(p.Role, auth.ActionManageModules) || module.CreatedBy != p.UserID {
		return nil, auth.ErrForbidden
	}

	oldSlug := module.Slug
	module.Title = input.Title
	module.Slug = slugify(input.Title)
	module.Description = input.Description
	module.Content = input.Content
	if input.DifficultyLevel != "" {
		module.DifficultyLevel = input.DifficultyLevel
	}
	module.Order = input.Order
	if input.EstimatedTime > 0 {
		module.EstimatedTime = input.EstimatedTime
	}

	if err := s.repo.Update(module); err != nil {
		return nil, err
	}
	s.cache.InvalidateModule(oldSlug)
	return module, nil
}

// SetStatus moves a module through its draft/published/archived lifecycle.
func (s *Service) SetStatus(p auth.Principal, id uint, status string) (*models.LearningModule, error) {
	module, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !auth.Can(p.Role, auth.ActionManageModules) || module.CreatedBy != p.UserID {
		return nil, auth.ErrForbidden
	}

	module.Status = status
	if status == models.ModuleStatusPublished && module.PublishedAt == nil {
		now := time.Now()
		module.PublishedAt = &now
	}

	if err := s.repo.Update(module); err != nil {
		return nil, err
	}
	s.cache.InvalidateModule(module.Slug)
	s.log.Info("module status changed", "module_id", module.ID, "status", status)
	return module, nil
}

// GetPublished serves a published module, read-through via redis. Owners
// can see their own drafts.
func (s *Service) GetPublished(slug string, viewer *auth.Principal) (*models.LearningModule, error) {
	if cached, err := s.cache.GetModule(slug); err == nil {
		return cached, nil
	}

	module, err := s.repo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}

	if module.Status != models.ModuleStatusPublished {
		if viewer == nil || module.CreatedBy != viewer.UserID {
			return nil, auth.ErrForbidden
		}
		return module, nil
	}

	s.cache.SetModule(module)
	return module, nil
}

func (s *Service) ListPublished(filter ListFilter) ([]models.LearningModule, error) {
	return s.repo.ListPublished(filter)
}

func (s *Service) ListMine(p auth.Principal) ([]models.LearningModule, error) {
	if !auth.Can(p.Role, auth.ActionManageModules) {
		return nil, auth.ErrForbidden
	}
	return s.repo.ListByCreator(p.UserID)
}

func slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
