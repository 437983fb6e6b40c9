package stats

import (
	"civiclearn/internal/auth"
	"civiclearn/internal/models"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

type AdminDashboard struct {
	TotalUsers    int64 `json:"total_users"`
	TotalModules  int64 `json:"total_modules"`
	TotalQuizzes  int64 `json:"total_quizzes"`
	TotalAttempts int64 `json:"total_attempts"`
}

type EducatorDashboard struct {
	Modules       int64    `json:"modules"`
	Quizzes       int64    `json:"quizzes"`
	TotalAttempts int64    `json:"total_attempts"`
	AvgScore      *float64 `json:"avg_score,omitempty"`
}

type CitizenDashboard struct {
	TotalAttempts    int64                `json:"total_attempts"`
	CompletedQuizzes int64                `json:"completed_quizzes"`
	AvgScore         *float64             `json:"avg_score,omitempty"`
	RecentAttempts   []models.QuizAttempt `json:"recent_attempts"`
}

// Dashboard resolves the caller's dashboard by role.
func (s *Service) Dashboard(p auth.Principal) (interface{}, error) {
	switch {
	case auth.Can(p.Role, auth.ActionViewAdminStats):
		return s.adminDashboard()
	case auth.Can(p.Role, auth.ActionManageQuizzes):
		return s.educatorDashboard(p.UserID)
	default:
		return s.citizenDashboard(p.UserID)
	}
}

func (s *Service) adminDashboard() (*AdminDashboard, error) {
	dash := &AdminDashboard{}
	var err error
	if dash.TotalUsers, err = s.repo.CountUsers(); err != nil {
		return nil, err
	}
	if dash.TotalModules, err = s.repo.CountModules(); err != nil {
		return nil, err
	}
	if dash.TotalQuizzes, err = s.repo.CountQuizzes(); err != nil {
		return nil, err
	}
	if dash.TotalAttempts, err = s.repo.CountAttempts(); err != nil {
		return nil, err
	}
	return dash, nil
}

func (s *Service) educatorDashboard(userID uint) (*EducatorDashboard, error) {
	dash := &EducatorDashboard{}
	var err error
	if dash.Modules, err = s.repo.CountModulesByCreator(userID); err != nil {
		return nil, err
	}
	if dash.Quizzes, err = s.repo.CountQuizzesByCreator(userID); err != nil {
		return nil, err
	}
	if dash.TotalAttempts, err = s.repo.CountAttemptsOnCreatorQuizzes(userID); err != nil {
		return nil, err
	}
	if dash.AvgScore, err = s.repo.AvgPassedPercentageOnCreatorQuizzes(userID); err != nil {
		return nil, err
	}
	return dash, nil
}

func (s *Service) citizenDashboard(userID uint) (*CitizenDashboard, error) {
	dash := &CitizenDashboard{}
	var err error
	if dash.TotalAttempts, err = s.repo.CountUserAttempts(userID); err != nil {
		return nil, err
	}
	if dash.CompletedQuizzes, err = s.repo.CountUserPassedAttempts(userID); err != nil {
		return nil, err
	}
	if dash.AvgScore, err = s.repo.AvgUserPassedPercentage(userID); err != nil {
		return nil, err
	}
	if dash.RecentAttempts, err = s.repo.RecentUserAttempts(userID, 5); err != nil {
		return nil, err
	}
	return dash, nil
}
