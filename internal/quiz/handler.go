package quiz

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"civiclearn/internal/auth"
	"civiclearn/internal/httpx"
	"civiclearn/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// QuizRequest uses pointers for the fields whose zero value is meaningful,
// so omitting them picks the default instead of forcing false/0.
type QuizRequest struct {
	Title            string `json:"title" validate:"required,max=255"`
	Description      string `json:"description"`
	ModuleID         uint   `json:"module_id" validate:"required"`
	Difficulty       string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	PassingScore     *uint  `json:"passing_score" validate:"omitempty,max=100"`
	TimeLimit        *uint  `json:"time_limit"`
	MaxAttempts      *uint  `json:"max_attempts"`
	ShuffleQuestions *bool  `json:"shuffle_questions"`
	ShowAnswers      *bool  `json:"show_answers"`
}

type ChoiceRequest struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
	Order     int    `json:"order"`
}

type QuestionRequest struct {
	Text         string          `json:"text" validate:"required"`
	QuestionType string          `json:"question_type" validate:"required,oneof=multiple_choice true_false"`
	Order        int             `json:"order"`
	Points       uint            `json:"points"`
	Explanation  string          `json:"explanation"`
	Choices      []ChoiceRequest `json:"choices" validate:"required,min=2,dive"`
}

type PublishRequest struct {
	Published bool `json:"published"`
}

// SubmitRequest maps question ids to the selected choice id. Unanswered
// questions are simply absent.
type SubmitRequest struct {
	Answers map[uint]uint `json:"answers"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req QuizRequest
	if err := httpx.Decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	quiz, err := h.service.CreateQuiz(p, quizInput(req))
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, quiz)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid quiz id", http.StatusBadRequest)
		return
	}

	var req QuizRequest
	if err := httpx.Decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	quiz, err := h.service.UpdateQuiz(p, id, quizInput(req))
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, quiz)
}

func (h *Handler) SetPublished(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid quiz id", http.StatusBadRequest)
		return
	}

	var req PublishRequest
	if err := httpx.Decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	quiz, err := h.service.SetPublished(p, id, req.Published)
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, quiz)
}

func (h *Handler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid quiz id", http.StatusBadRequest)
		return
	}

	var req QuestionRequest
	if err := httpx.Decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	question, err := h.service.AddQuestion(p, id, questionInput(req))
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, question)
}

func (h *Handler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid question id", http.StatusBadRequest)
		return
	}

	var req QuestionRequest
	if err := httpx.Decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	question, err := h.service.UpdateQuestion(p, id, questionInput(req))
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, question)
}

func (h *Handler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid question id", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteQuestion(p, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.ListPublished()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	httpx.JSON(w, http.StatusOK, quizzes)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	quizzes, err := h.service.ListMine(p)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quizzes)
}

// Get returns quiz details with questions rendered as DTOs. Correctness
// flags are revealed to the owning educator only.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid quiz id", http.StatusBadRequest)
		return
	}

	var viewer *auth.Principal
	if p, ok := auth.FromContext(r.Context()); ok {
		viewer = &p
	}

	quiz, err := h.service.GetQuiz(id, viewer)
	if err != nil {
		writeError(w, err)
		return
	}

	isOwner := viewer != nil && quiz.CreatedBy == viewer.UserID
	questions := make([]models.QuestionDTO, len(quiz.Questions))
	for i, q := range quiz.Questions {
		questions[i] = q.ToDTO(isOwner)
	}

	httpx.JSON(w, http.StatusOK, map[string]interface{}{
		"quiz":      quizSummary(quiz),
		"questions": questions,
	})
}

func (h *Handler) GetStanding(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid quiz id", http.StatusBadRequest)
		return
	}

	standing, err := h.service.GetStanding(p, id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, standing)
}

// StartAttempt starts or resumes the caller's attempt and returns it with
// the questions in presentation order.
func (h *Handler) StartAttempt(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid quiz id", http.StatusBadRequest)
		return
	}

	attempt, err := h.service.StartAttempt(p, id)
	if err != nil {
		writeError(w, err)
		return
	}

	quiz, err := h.service.GetQuiz(id, &p)
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]interface{}{
		"attempt":   attempt,
		"questions": h.service.DisplayQuestions(quiz),
	})
}

func (h *Handler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid attempt id", http.StatusBadRequest)
		return
	}

	var req SubmitRequest
	if err := httpx.Decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	attempt, err := h.service.SubmitAttempt(p, id, req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, attempt)
}

// GetResult serves a completed attempt. Per-answer detail is included only
// when the quiz is configured to show answers.
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid attempt id", http.StatusBadRequest)
		return
	}

	attempt, quiz, err := h.service.GetResult(p, id)
	if err != nil {
		writeError(w, err)
		return
	}

	if !quiz.ShowAnswers {
		attempt.Answers = nil
	}
	httpx.JSON(w, http.StatusOK, attempt)
}

func quizInput(req QuizRequest) QuizInput {
	return QuizInput{
		Title:            req.Title,
		Description:      req.Description,
		ModuleID:         req.ModuleID,
		Difficulty:       req.Difficulty,
		PassingScore:     req.PassingScore,
		TimeLimit:        req.TimeLimit,
		MaxAttempts:      req.MaxAttempts,
		ShuffleQuestions: req.ShuffleQuestions,
		ShowAnswers:      req.ShowAnswers,
	}
}

func questionInput(req QuestionRequest) QuestionInput {
	input := QuestionInput{
		Text:         req.Text,
		QuestionType: req.QuestionType,
		Order:        req.Order,
		Points:       req.Points,
		Explanation:  req.Explanation,
	}
	for _, c := range req.Choices {
		input.Choices = append(input.Choices, ChoiceInput{
			Text:      c.Text,
			IsCorrect: c.IsCorrect,
			Order:     c.Order,
		})
	}
	return input
}

// quizSummary strips the preloaded question tree from detail responses;
// questions travel separately as DTOs.
func quizSummary(quiz *models.Quiz) models.Quiz {
	summary := *quiz
	summary.Questions = nil
	return summary
}

func pathID(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 32)
	return uint(id), err
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrForbidden):
		http.Error(w, "Access denied", http.StatusForbidden)
	case errors.Is(err, ErrAttemptsExhausted):
		http.Error(w, "Maximum attempts reached", http.StatusUnprocessableEntity)
	case errors.Is(err, ErrAttemptCompleted):
		http.Error(w, "Attempt already completed", http.StatusConflict)
	case errors.Is(err, ErrInvalidChoices):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrUnknownSelection):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
