package auth

import (
	"errors"

	"civiclearn/internal/models"
)

// ErrForbidden is returned whenever a principal's role (or a resource's
// publication state) does not permit the requested operation.
var ErrForbidden = errors.New("forbidden")

// Action names something a principal may be allowed to do. All role gating
// in the system goes through Can; handlers and services never compare role
// strings themselves.
type Action string

const (
	ActionManageModules   Action = "manage_modules"
	ActionManageQuizzes   Action = "manage_quizzes"
	ActionAttemptQuiz     Action = "attempt_quiz"
	ActionModerateThreads Action = "moderate_threads"
	ActionViewAdminStats  Action = "view_admin_stats"
)

var capabilities = map[Action][]string{
	ActionManageModules:   {models.RoleEducator},
	ActionManageQuizzes:   {models.RoleEducator},
	ActionAttemptQuiz:     {models.RoleCitizen},
	ActionModerateThreads: {models.RoleAdmin},
	ActionViewAdminStats:  {models.RoleAdmin},
}

// Can reports whether the role is permitted to perform the action.
// Unknown actions are denied.
func Can(role string, action Action) bool {
	for _, allowed := range capabilities[action] {
		if role == allowed {
			return true
		}
	}
	return false
}
