package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"civiclearn/internal/models"
)

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

func NewPostgresDB(config *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		config.Host,
		config.User,
		config.Password,
		config.DBName,
		config.Port,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate runs the schema migration plus the uniqueness guards that gorm
// tags cannot express. The partial index keeps a user to a single open
// attempt per quiz, which is what makes concurrent start requests safe.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.LearningModule{},
		&models.Quiz{},
		&models.Question{},
		&models.Choice{},
		&models.QuizAttempt{},
		&models.QuestionAnswer{},
		&models.DiscussionThread{},
		&models.Comment{},
		&models.CommentLike{},
	)
	if err != nil {
		return err
	}

	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_open_attempt
		ON quiz_attempts (user_id, quiz_id) WHERE completed_at IS NULL`).Error
}
