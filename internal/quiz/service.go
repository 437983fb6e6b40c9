package quiz

import (
	"errors"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"civiclearn/internal/auth"
	"civiclearn/internal/models"
	"civiclearn/pkg/cache"
	"civiclearn/pkg/logger"
)

var (
	// ErrAttemptsExhausted is returned when a quiz caps attempts and the
	// caller has used them all.
	ErrAttemptsExhausted = errors.New("maximum attempts reached")

	// ErrAttemptCompleted is returned on any submission against an attempt
	// that has already been finalized.
	ErrAttemptCompleted = errors.New("attempt already completed")

	// ErrInvalidChoices is returned when a question's choice set violates
	// the single-correct-choice rule.
	ErrInvalidChoices = errors.New("question must have exactly one correct choice")

	// ErrUnknownSelection is returned when a submission references a
	// question or choice that does not belong to the quiz.
	ErrUnknownSelection = errors.New("selection references an unknown question or choice")
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

// QuizInput carries optional fields as pointers so an explicit zero
// (passing_score 0, shuffle off, answers hidden) is distinguishable from an
// omitted field.
type QuizInput struct {
	Title            string
	Description      string
	ModuleID         uint
	Difficulty       string
	PassingScore     *uint
	TimeLimit        *uint
	MaxAttempts      *uint
	ShuffleQuestions *bool
	ShowAnswers      *bool
}

type ChoiceInput struct {
	Text      string
	IsCorrect bool
	Order     int
}

type QuestionInput struct {
	Text         string
	QuestionType string
	Order        int
	Points       uint
	Explanation  string
	Choices      []ChoiceInput
}

func (s *Service) CreateQuiz(p auth.Principal, input QuizInput) (*models.Quiz, error) {
	if !auth.Can(p.Role, auth.ActionManageQuizzes) {
		return nil, auth.ErrForbidden
	}

	exists, err := s.repo.ModuleExists(input.ModuleID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, gorm.ErrRecordNotFound
	}

	quiz := &models.Quiz{
		Title:            input.Title,
		Description:      input.Description,
		ModuleID:         input.ModuleID,
		CreatedBy:        p.UserID,
		Difficulty:       input.Difficulty,
		PassingScore:     60,
		TimeLimit:        input.TimeLimit,
		MaxAttempts:      input.MaxAttempts,
		ShuffleQuestions: true,
		ShowAnswers:      true,
	}
	if quiz.Difficulty == "" {
		quiz.Difficulty = models.QuizDifficultyMedium
	}
	if input.PassingScore != nil {
		quiz.PassingScore = *input.PassingScore
	}
	if input.ShuffleQuestions != nil {
		quiz.ShuffleQuestions = *input.ShuffleQuestions
	}
	if input.ShowAnswers != nil {
		quiz.ShowAnswers = *input.ShowAnswers
	}

	if err := s.repo.CreateQuiz(quiz); err != nil {
		return nil, err
	}
	s.log.Info("quiz created", "quiz_id", quiz.ID, "module_id", quiz.ModuleID, "user_id", p.UserID)
	return quiz, nil
}

func (s *Service) UpdateQuiz(p auth.Principal, quizID uint, input QuizInput) (*models.Quiz, error) {
	quiz, err := s.ownedQuiz(p, quizID)
	if err != nil {
		return nil, err
	}

	quiz.Title = input.Title
	quiz.Description = input.Description
	if input.Difficulty != "" {
		quiz.Difficulty = input.Difficulty
	}
	if input.PassingScore != nil {
		quiz.PassingScore = *input.PassingScore
	}
	quiz.TimeLimit = input.TimeLimit
	quiz.MaxAttempts = input.MaxAttempts
	if input.ShuffleQuestions != nil {
		quiz.ShuffleQuestions = *input.ShuffleQuestions
	}
	if input.ShowAnswers != nil {
		quiz.ShowAnswers = *input.ShowAnswers
	}

	if err := s.repo.UpdateQuiz(quiz); err != nil {
		return nil, err
	}
	s.cache.InvalidateQuiz(quiz.ID)
	return quiz, nil
}

func (s *Service) SetPublished(p auth.Principal, quizID uint, published bool) (*models.Quiz, error) {
	quiz, err := s.ownedQuiz(p, quizID)
	if err != nil {
		return nil, err
	}

	quiz.IsPublished = published
	if err := s.repo.UpdateQuiz(quiz); err != nil {
		return nil, err
	}
	s.cache.InvalidateQuiz(quiz.ID)
	s.log.Info("quiz publication changed", "quiz_id", quiz.ID, "published", published)
	return quiz, nil
}

// AddQuestion appends a question with its choices, enforcing the choice
// invariants and refreshing the quiz's cached question count.
func (s *Service) AddQuestion(p auth.Principal, quizID uint, input QuestionInput) (*models.Question, error) {
	quiz, err := s.ownedQuiz(p, quizID)
	if err != nil {
		return nil, err
	}

	if err := validateChoices(input.QuestionType, input.Choices); err != nil {
		return nil, err
	}

	question := &models.Question{
		QuizID:       quiz.ID,
		Text:         input.Text,
		QuestionType: input.QuestionType,
		Order:        input.Order,
		Points:       input.Points,
		Explanation:  input.Explanation,
	}
	if question.Points == 0 {
		question.Points = 1
	}
	for _, c := range input.Choices {
		question.Choices = append(question.Choices, models.Choice{
			Text:      c.Text,
			IsCorrect: c.IsCorrect,
			Order:     c.Order,
		})
	}

	if err := s.repo.CreateQuestion(question); err != nil {
		return nil, err
	}
	if err := s.refreshQuestionCount(quiz); err != nil {
		return nil, err
	}
	s.cache.InvalidateQuiz(quiz.ID)
	return question, nil
}

func (s *Service) UpdateQuestion(p auth.Principal, questionID uint, input QuestionInput) (*models.Question, error) {
	question, err := s.repo.GetQuestion(questionID)
	if err != nil {
		return nil, err
	}
	quiz, err := s.ownedQuiz(p, question.QuizID)
	if err != nil {
		return nil, err
	}

	if err := validateChoices(input.QuestionType, input.Choices); err != nil {
		return nil, err
	}

	question.Text = input.Text
	question.QuestionType = input.QuestionType
	question.Order = input.Order
	if input.Points > 0 {
		question.Points = input.Points
	}
	question.Explanation = input.Explanation
	question.Choices = nil

	if err := s.repo.UpdateQuestion(question); err != nil {
		return nil, err
	}

	choices := make([]models.Choice, len(input.Choices))
	for i, c := range input.Choices {
		choices[i] = models.Choice{Text: c.Text, IsCorrect: c.IsCorrect, Order: c.Order}
	}
	if err := s.repo.ReplaceChoices(question.ID, choices); err != nil {
		return nil, err
	}
	s.cache.InvalidateQuiz(quiz.ID)

	return s.repo.GetQuestion(question.ID)
}

func (s *Service) DeleteQuestion(p auth.Principal, questionID uint) error {
	question, err := s.repo.GetQuestion(questionID)
	if err != nil {
		return err
	}
	quiz, err := s.ownedQuiz(p, question.QuizID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteQuestion(question.ID); err != nil {
		return err
	}
	if err := s.refreshQuestionCount(quiz); err != nil {
		return err
	}
	s.cache.InvalidateQuiz(quiz.ID)
	return nil
}

// GetQuiz serves a quiz with its questions, read-through via redis for
// published quizzes. Unpublished quizzes are visible to their owner only.
func (s *Service) GetQuiz(quizID uint, viewer *auth.Principal) (*models.Quiz, error) {
	if cached, err := s.cache.GetQuiz(quizID); err == nil {
		return cached, nil
	}

	quiz, err := s.repo.GetQuizByID(quizID)
	if err != nil {
		return nil, err
	}

	if !quiz.IsPublished {
		if viewer == nil || quiz.CreatedBy != viewer.UserID {
			return nil, auth.ErrForbidden
		}
		return quiz, nil
	}

	s.cache.SetQuiz(quiz)
	return quiz, nil
}

func (s *Service) ListPublished() ([]models.Quiz, error) {
	return s.repo.ListPublished()
}

func (s *Service) ListMine(p auth.Principal) ([]models.Quiz, error) {
	if !auth.Can(p.Role, auth.ActionManageQuizzes) {
		return nil, auth.ErrForbidden
	}
	return s.repo.ListByCreator(p.UserID)
}

// Standing describes the caller's position against a quiz before taking it.
type Standing struct {
	Attempts    int64               `json:"attempts"`
	BestAttempt *models.QuizAttempt `json:"best_attempt,omitempty"`
	CanAttempt  bool                `json:"can_attempt"`
}

func (s *Service) GetStanding(p auth.Principal, quizID uint) (*Standing, error) {
	quiz, err := s.repo.GetQuizMeta(quizID)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountAttempts(p.UserID, quizID)
	if err != nil {
		return nil, err
	}

	standing := &Standing{Attempts: count}
	if best, err := s.repo.GetBestPassedAttempt(p.UserID, quizID); err == nil {
		standing.BestAttempt = best
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	standing.CanAttempt = quiz.IsPublished && auth.Can(p.Role, auth.ActionAttemptQuiz)
	if standing.CanAttempt && quiz.MaxAttempts != nil && count >= int64(*quiz.MaxAttempts) {
		// An open attempt may still be resumed even at the cap.
		if _, err := s.repo.GetOpenAttempt(p.UserID, quizID); err != nil {
			standing.CanAttempt = false
		}
	}
	return standing, nil
}

// StartAttempt resumes the caller's open attempt for the quiz, or creates a
// new one. The total-possible-score snapshot is taken from the full
// question set at creation time; later question edits do not change it.
func (s *Service) StartAttempt(p auth.Principal, quizID uint) (*models.QuizAttempt, error) {
	quiz, err := s.repo.GetQuizMeta(quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsPublished || !auth.Can(p.Role, auth.ActionAttemptQuiz) {
		return nil, auth.ErrForbidden
	}

	// Resume before counting against the cap, so an in-progress attempt is
	// never locked out by its own existence.
	if attempt, err := s.repo.GetOpenAttempt(p.UserID, quizID); err == nil {
		return attempt, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if quiz.MaxAttempts != nil {
		count, err := s.repo.CountAttempts(p.UserID, quizID)
		if err != nil {
			return nil, err
		}
		if count >= int64(*quiz.MaxAttempts) {
			return nil, ErrAttemptsExhausted
		}
	}

	total, err := s.repo.SumQuizPoints(quizID)
	if err != nil {
		return nil, err
	}

	attempt := &models.QuizAttempt{
		UserID:             p.UserID,
		QuizID:             quizID,
		TotalPossibleScore: total,
	}
	if err := s.repo.CreateAttempt(attempt); err != nil {
		// A concurrent request won the race to create the open attempt;
		// the partial unique index guarantees there is exactly one.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.repo.GetOpenAttempt(p.UserID, quizID)
		}
		return nil, err
	}

	s.log.Info("attempt started", "attempt_id", attempt.ID, "quiz_id", quizID, "user_id", p.UserID)
	return attempt, nil
}

// DisplayQuestions produces the presentation order for a rendering pass.
// With shuffling enabled every call yields a fresh permutation; the order
// has no bearing on scoring.
func (s *Service) DisplayQuestions(quiz *models.Quiz) []models.QuestionDTO {
	questions := make([]models.Question, len(quiz.Questions))
	copy(questions, quiz.Questions)

	if quiz.ShuffleQuestions {
		rand.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}

	dtos := make([]models.QuestionDTO, len(questions))
	for i, q := range questions {
		dtos[i] = q.ToDTO(false)
	}
	return dtos
}

// SubmitAttempt records the submitted selections and finalizes the attempt
// in a single transaction. Selections map question id to the chosen choice
// id; questions absent from the map stay unanswered and are excluded from
// the scoring denominator. A completed attempt rejects any further
// submission.
func (s *Service) SubmitAttempt(p auth.Principal, attemptID uint, selections map[uint]uint) (*models.QuizAttempt, error) {
	var finalized *models.QuizAttempt

	err := s.repo.Transaction(func(tx *Repository) error {
		attempt, err := tx.GetAttempt(attemptID)
		if err != nil {
			return err
		}
		if attempt.UserID != p.UserID {
			return auth.ErrForbidden
		}
		if attempt.CompletedAt != nil {
			return ErrAttemptCompleted
		}

		quiz, err := tx.GetQuizByID(attempt.QuizID)
		if err != nil {
			return err
		}

		pointsByQuestion := make(map[uint]uint, len(quiz.Questions))
		for _, q := range quiz.Questions {
			pointsByQuestion[q.ID] = q.Points
		}
		for questionID := range selections {
			if _, ok := pointsByQuestion[questionID]; !ok {
				return ErrUnknownSelection
			}
		}

		for _, q := range quiz.Questions {
			choiceID, answered := selections[q.ID]
			if !answered {
				continue
			}
			var selected *models.Choice
			for i := range q.Choices {
				if q.Choices[i].ID == choiceID {
					selected = &q.Choices[i]
					break
				}
			}
			if selected == nil {
				return ErrUnknownSelection
			}

			id := selected.ID
			answer := &models.QuestionAnswer{
				AttemptID:        attempt.ID,
				QuestionID:       q.ID,
				SelectedChoiceID: &id,
				IsCorrect:        selected.IsCorrect,
				AnsweredAt:       time.Now(),
			}
			if err := tx.UpsertAnswer(answer); err != nil {
				return err
			}
		}

		answers, err := tx.GetAnswers(attempt.ID)
		if err != nil {
			return err
		}
		finalize(attempt, quiz, answers, pointsByQuestion)

		if err := tx.UpdateAttempt(attempt); err != nil {
			return err
		}
		finalized = attempt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("attempt finalized",
		"attempt_id", finalized.ID,
		"score", *finalized.Score,
		"attempted", finalized.TotalQuestionsAttempted,
		"correct", finalized.TotalQuestionsCorrect,
	)
	return finalized, nil
}

// finalize computes the derived fields from the recorded answers. The
// denominator counts answered questions only: unanswered questions earn no
// points but are not held against the caller. With nothing answered the
// percentage and pass flag stay null.
func finalize(attempt *models.QuizAttempt, quiz *models.Quiz, answers []models.QuestionAnswer, pointsByQuestion map[uint]uint) {
	var score, totalPossible, attempted, correct uint
	for _, a := range answers {
		attempted++
		points := pointsByQuestion[a.QuestionID]
		totalPossible += points
		if a.IsCorrect {
			correct++
			score += points
		}
	}

	attempt.TotalQuestionsAttempted = attempted
	attempt.TotalQuestionsCorrect = correct
	attempt.Score = &score
	attempt.TotalPossibleScore = totalPossible

	if totalPossible > 0 {
		percentage := float64(score) / float64(totalPossible) * 100
		passed := percentage >= float64(quiz.PassingScore)
		attempt.Percentage = &percentage
		attempt.IsPassed = &passed
	}

	now := time.Now()
	attempt.CompletedAt = &now
	taken := uint(now.Sub(attempt.StartedAt).Seconds())
	attempt.TimeTaken = &taken
}

// GetResult returns a completed attempt with its answers, owner-only.
// In-progress attempts are not results yet.
func (s *Service) GetResult(p auth.Principal, attemptID uint) (*models.QuizAttempt, *models.Quiz, error) {
	attempt, err := s.repo.GetAttemptWithAnswers(attemptID)
	if err != nil {
		return nil, nil, err
	}
	if attempt.UserID != p.UserID {
		return nil, nil, auth.ErrForbidden
	}
	if attempt.CompletedAt == nil {
		return nil, nil, gorm.ErrRecordNotFound
	}

	quiz, err := s.repo.GetQuizMeta(attempt.QuizID)
	if err != nil {
		return nil, nil, err
	}
	return attempt, quiz, nil
}

func (s *Service) ownedQuiz(p auth.Principal, quizID uint) (*models.Quiz, error) {
	quiz, err := s.repo.GetQuizMeta(quizID)
	if err != nil {
		return nil, err
	}
	if !auth.Can(p.Role, auth.ActionManageQuizzes) || quiz.CreatedBy != p.UserID {
		return nil, auth.ErrForbidden
	}
	return quiz, nil
}

func (s *Service) refreshQuestionCount(quiz *models.Quiz) error {
	count, err := s.repo.CountQuestions(quiz.ID)
	if err != nil {
		return err
	}
	quiz.TotalQuestions = uint(count)
	return s.repo.UpdateQuiz(quiz)
}

func validateChoices(questionType string, choices []ChoiceInput) error {
	correct := 0
	for _, c := range choices {
		if c.IsCorrect {
			correct++
		}
	}

	switch questionType {
	case models.QuestionTypeTrueFalse:
		if len(choices) != 2 || correct != 1 {
			return ErrInvalidChoices
		}
	default:
		if len(choices) < 2 || correct != 1 {
			return ErrInvalidChoices
		}
	}
	return nil
}
