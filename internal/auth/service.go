package auth

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"civiclearn/internal/models"
	"civiclearn/pkg/logger"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	repo      *Repository
	jwtSecret []byte
	log       *logger.Logger
}

func NewService(repo *Repository, jwtSecret string, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
		log:       log,
	}
}

func (s *Service) Login(username, password string) (string, error) {
	user, err := s.repo.GetUserByUsername(username)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", err
	}

	s.log.Info("user logged in", "user_id", user.ID, "role", user.Role)
	return tokenString, nil
}

// Register creates a user. Educator and citizen are self-service roles;
// anything else falls back to citizen, so admins can only be promoted
// out-of-band.
func (s *Service) Register(user *models.User) error {
	if user.Role != models.RoleEducator && user.Role != models.RoleCitizen {
		user.Role = models.RoleCitizen
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashedPassword)

	if err := s.repo.CreateUser(user); err != nil {
		return err
	}
	s.log.Info("user registered", "user_id", user.ID, "role", user.Role)
	return nil
}
