package quiz

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"civiclearn/internal/auth"
	"civiclearn/internal/models"
	"civiclearn/pkg/database"
	"civiclearn/pkg/logger"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(NewRepository(db), nil, logger.NewNop()), db
}

func seedUsers(t *testing.T, db *gorm.DB) (educator, citizen auth.Principal) {
	t.Helper()
	edu := models.User{Username: "edu", Email: "edu@example.com", Password: "x", Role: models.RoleEducator}
	cit := models.User{Username: "cit", Email: "cit@example.com", Password: "x", Role: models.RoleCitizen}
	if err := db.Create(&edu).Error; err != nil {
		t.Fatalf("seed educator: %v", err)
	}
	if err := db.Create(&cit).Error; err != nil {
		t.Fatalf("seed citizen: %v", err)
	}
	return auth.Principal{UserID: edu.ID, Role: edu.Role}, auth.Principal{UserID: cit.ID, Role: cit.Role}
}

// seedQuiz creates a published quiz whose i-th question is worth points[i],
// with the first choice of every question being the correct one.
func seedQuiz(t *testing.T, db *gorm.DB, createdBy uint, points []uint) *models.Quiz {
	t.Helper()
	var existing int64
	if err := db.Model(&models.LearningModule{}).Count(&existing).Error; err != nil {
		t.Fatalf("count modules: %v", err)
	}
	mod := models.LearningModule{
		Title:     fmt.Sprintf("Module %s %d", t.Name(), existing),
		Slug:      fmt.Sprintf("module-%s-%d", t.Name(), existing),
		Status:    models.ModuleStatusPublished,
		CreatedBy: createdBy,
	}
	if err := db.Create(&mod).Error; err != nil {
		t.Fatalf("seed module: %v", err)
	}

	quiz := models.Quiz{
		Title:            "Quiz",
		ModuleID:         mod.ID,
		CreatedBy:        createdBy,
		PassingScore:     60,
		IsPublished:      true,
		ShuffleQuestions: true,
		ShowAnswers:      true,
	}
	for i, p := range points {
		quiz.Questions = append(quiz.Questions, models.Question{
			Text:   fmt.Sprintf("Q%d", i+1),
			Order:  i,
			Points: p,
			Choices: []models.Choice{
				{Text: "right", IsCorrect: true, Order: 0},
				{Text: "wrong", IsCorrect: false, Order: 1},
			},
		})
	}
	quiz.TotalQuestions = uint(len(points))
	if err := db.Create(&quiz).Error; err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	return &quiz
}

func correctChoice(t *testing.T, q models.Question) uint {
	t.Helper()
	for _, c := range q.Choices {
		if c.IsCorrect {
			return c.ID
		}
	}
	t.Fatalf("question %d has no correct choice", q.ID)
	return 0
}

func wrongChoice(t *testing.T, q models.Question) uint {
	t.Helper()
	for _, c := range q.Choices {
		if !c.IsCorrect {
			return c.ID
		}
	}
	t.Fatalf("question %d has no wrong choice", q.ID)
	return 0
}

func TestCreateQuiz_HonorsExplicitZeroValues(t *testing.T) {
	svc, db := newTestService(t)
	edu, _ := seedUsers(t, db)
	mod := models.LearningModule{Title: "M", Slug: "m", Status: models.ModuleStatusPublished, CreatedBy: edu.UserID}
	if err := db.Create(&mod).Error; err != nil {
		t.Fatalf("seed module: %v", err)
	}

	off := false
	zero := uint(0)
	created, err := svc.CreateQuiz(edu, QuizInput{
		Title:            "Strict",
		ModuleID:         mod.ID,
		PassingScore:     &zero,
		ShuffleQuestions: &off,
		ShowAnswers:      &off,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var reloaded models.Quiz
	if err := db.First(&reloaded, created.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.ShuffleQuestions {
		t.Fatalf("shuffle_questions: requested false, persisted true")
	}
	if reloaded.ShowAnswers {
		t.Fatalf("show_answers: requested false, persisted true")
	}
	if reloaded.PassingScore != 0 {
		t.Fatalf("passing_score: requested 0, persisted %d", reloaded.PassingScore)
	}
}

func TestCreateQuiz_DefaultsWhenOmitted(t *testing.T) {
	svc, db := newTestService(t)
	edu, _ := seedUsers(t, db)
	mod := models.LearningModule{Title: "M", Slug: "m", Status: models.ModuleStatusPublished, CreatedBy: edu.UserID}
	if err := db.Create(&mod).Error; err != nil {
		t.Fatalf("seed module: %v", err)
	}

	created, err := svc.CreateQuiz(edu, QuizInput{Title: "Relaxed", ModuleID: mod.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var reloaded models.Quiz
	if err := db.First(&reloaded, created.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.PassingScore != 60 || !reloaded.ShuffleQuestions || !reloaded.ShowAnswers {
		t.Fatalf("unexpected defaults: score=%d shuffle=%v show=%v",
			reloaded.PassingScore, reloaded.ShuffleQuestions, reloaded.ShowAnswers)
	}
	if reloaded.Difficulty != models.QuizDifficultyMedium {
		t.Fatalf("expected medium difficulty, got %q", reloaded.Difficulty)
	}
}

func TestStartAttempt_CreatesThenResumes(t *testing.T) {
	svc, db := newTestService(t)
	edu, cit := seedUsers(t, db)
	quiz := seedQuiz(t, db, edu.UserID, []uint{1, 2})

	first, err := svc.StartAttempt(cit, quiz.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if first.TotalPossibleScore != 3 {
		t.Fatalf("expected snapshot 3, got %d", first.TotalPossibleScore)
	}

	second, err := svc.StartAttempt(cit, quiz.ID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected resumed attempt %d, got %d", first.ID, second.ID)
	}

	if _, err := svc.SubmitAttempt(cit, first.ID, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	third, err := svc.StartAttempt(cit, quiz.ID)
	if err != nil {
		t.Fatalf("start after completion: %v", err)
	}
	if third.ID == first.ID {
		t.Fatalf("expected a fresh attempt after completion")
	}
}

func TestStartAttempt_SnapshotIgnoresLaterEdits(t *testing.T) {
	svc, db := newTestService(t)
	edu, cit := seedUsers(t, db)
	quiz := seedQuiz(t, db, edu.UserID, []uint{1, 2})

	attempt, err := svc.StartAttempt(cit, quiz.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err = svc.AddQuestion(edu, quiz.ID, QuestionInput{
		Text:         "Q3",
		QuestionType: models.QuestionTypeMultipleChoice,
		Points:       5,
		Choices: []ChoiceInput{
			{Text: "right", IsCorrect: true},
			{Text: "wrong"},
		},
	})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}

	var reloaded models.QuizAttempt
	if err := db.First(&reloaded, attempt.ID).Error; err != nil {
		t.Fatalf("reload attempt: %v", err)
	}
	if reloaded.TotalPossibleScore != 3 {
		t.Fatalf("snapshot changed to %d after question edit", reloaded.TotalPossibleScore)
	}
}

func TestStartAttempt_EnforcesMaxAttempts(t *testing.T) {
	svc, db := newTestService(t)
	edu, cit := seedUsers(t, db)
	quiz := seedQuiz(t, db, edu.UserID, []uint{1})
	max := uint(2)
	if err := db.Model(quiz).Update("max_attempts", max).Error; err != nil {
		t.Fatalf("set cap: %v", err)
	}

	for i := 0; i < 2; i++ {
		attempt, err := svc.StartAttempt(cit, quiz.ID)
		if err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
		if _, err := svc.SubmitAttempt(cit, attempt.ID, nil); err != nil {
			t.Fatalf("submit %d: %v", i+1, err)
		}
	}

	if _, err := svc.StartAttempt(cit, quiz.ID); !errors.Is(err, ErrAttemptsExhausted) {
		t.Fatalf("expected ErrAttemptsExhausted, got %v", err)
	}

	var count int64
	db.Model(&models.QuizAttempt{}).Where("quiz_id = ?", quiz.ID).Count(&count)
	if count != 2 {
		t.Fatalf("refused attempt created a row: count=%d", count)
	}
}

func TestStartAttempt_ResumesOpenAttemptAtCap(t *testing.T) {
	svc, db := newTestService(t)
	edu, cit := seedUsers(t, db)
	quiz := seedQuiz(t, db, edu.UserID, []uint{1})
	max := uint(1)
	if err := db.Model(quiz).Update("max_attempts", max).Error; err != nil {
		t.Fatalf("set cap: %v", err)
	}

	first, err := svc.StartAttempt(cit, quiz.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// The open attempt counts toward the cap but must stay resumable.
	resumed, err := svc.StartAttempt(cit, quiz.ID)
	if err != nil {
		t.Fatalf("resume at cap: %v", err)
	}
	if resumed.ID != first.ID {
		t.Fatalf("expected resume of attempt %d, got %d", first.ID, resumed.ID)
	}
}

func TestStartAttempt_AdoptsConcurrentWinner(t *testing.T) {
	svc, db := newTestService(t)
	edu, cit := seedUsers(t, db)
	quiz := seedQuiz(t, db, edu.UserID, []uint{1, 2})

	// Second connection to the same database plays the rival request that
	// creates its open attempt after the resume lookup has come up empty.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	rivalDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open rival connection: %v", err)
	}

	rival := models.QuizAttempt{UserID: cit.UserID, QuizID: quiz.ID, TotalPossibleScore: 3}
	injected := false
	err = db.Callback().Create().Before("gorm:create").Register("rival_attempt", func(tx *gorm.DB) {
		if injected || tx.Statement.Table != "quiz_attempts" {
			return
		}
		injected = true
		if err := rivalDB.Create(&rival).Error; err != nil {
			t.Errorf("rival insert: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
	defer db.Callback().Create().Remove("rival_attempt")

	attempt, err := svc.StartAttempt(cit, quiz.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !injected {
		t.Fatalf("rival attempt was never injected")
	}
	if attempt.ID != rival.ID {
		t.Fatalf("expected the rival's attempt %d, got %d", rival.ID, attempt.ID)
	}

	var open int64
	db.Model(&models.QuizAttempt{}).
		Where("user_id = ? AND quiz_id = ? AND completed_at IS NULL", cit.UserID, quiz.ID).
		Count(&open)
	if open != 1 {
		t.Fatalf("expected exactly one open attempt, got %d", open)
	}
}

func TestStartAttempt_RefusesUnpublishedAndWrongRole(t *testing.T) {
	svc, db := newTestService(t)
	edu, cit := seedUsers(t, db)
	quiz := seedQuiz(t, db, edu.UserID, []uint{1})
	if err := db.Model(quiz).Update("is_published", false).Error; err != nil {
		t.Fatalf("unpublish: %v", err)
	}

	if _, err := svc.StartAttempt(cit, quiz.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for unpublished quiz, got %v", err)
	}

	if err := db.Model(quiz).Update("is_published", true).Error; err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, err := svc.StartAttempt(edu, quiz.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for educator, got %v", err)
	}
}

func TestSubmitAttempt_AllCorrect(t *testing.T) {
	svc, db := newTestService(t)
	edu, cit := seedUsers(t, db)
	quiz := seedQuiz(t, db, edu.UserID, []uint{1, 2, 3})

	attempt, err := svc.StartAttempt(cit, quiz.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	loaded, err := svc.GetQuiz(quiz.ID, &cit)
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	selections := map[uint]uint{}
	for _, q := range loaded.Questions {
		selections[q.ID] = correctChoice(t, q)
	}

	done, err := svc.SubmitAttempt(cit, attempt.ID, selections)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if done.Score == nil || *done.Score != 6 {
		t.Fatalf("expected score 6, got %v", done.Score)
	}
	if done.TotalPossibleScore != 6 {
		t.Fatalf("expected total 6, got %d", done.TotalPossibleScore)
	}
	if done.Percentage == nil || *done.Percentage != 100 {
		t.Fatalf("expected percentage 100, got %v", done.Percentage)
	}
	if done.IsPassed == nil || !*done.IsPassed {
		t.Fatalf("expected passed")
	}
	if done.TotalQuestionsAttempted != 3 || done.TotalQuestionsCorrect != 3 {
		t.Fatalf("expected 3/3, got %d/%d", done.TotalQuestionsCorrect, done.TotalQuestionsAttempted)
	}
	if done.CompletedAt == nil {
		t.Fatalf("expected completion timestamp")
	}
}

func TestSubmitAttempt_UnansweredExcludedFromDenominator(t *testing.T) {
	svc, db := newTestService(t)
	edu, cit := seedUsers(t, db)
	quiz := seedQuiz(t, db, edu.UserID, []uint{1, 1, 1})

	attempt, err := svc.StartAttempt(cit, quiz.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	loaded, err := svc.GetQuiz(quiz.ID, &cit)
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	// Answer only the first two questions, both correctly.
	selections := map[uint]uint{
		loaded.Questions[0].ID: correctChoice(t, loaded.Questions[0]),
		loaded.Questions[1].ID: correctChoice(t, loaded.Questions[1]),
	}

	done, err := svc.SubmitAttempt(cit, attempt.ID, selections)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if done.Score == nil || *done.Score != 2 {
		t.Fatalf("expected score 2, got %v", done.Score)
	}
	if done.TotalPossibleScore != 2 {
		t.Fatalf("expected denominator 2, got %d", done.TotalPossibleScore)
	}
	if done.Percentage == nil || *done.Percentage != 100 {
		t.Fatalf("expected percentage 100, got %v", done.Percentage)
	}
	if done.TotalQuestionsAttempted != 2 {
		t.Fatalf("expected 2 attempted, got %d", done.TotalQuestionsAttempted)
	}

	var answers int64
	db.Model(&models.QuestionAnswer{}).Where("attempt_id = ?", done.ID).Count(&answers)
	if answers != 2 {
		t.Fatalf("expected 2 answer rows, got %d", answers)
	}
}

func TestSubmitAttempt_PassFlagFollowsThreshold(t *testing.T) {
	svc, db := newTestService(t)
	edu, cit := seedUsers(t, db)
	quiz := seedQuiz(t, db, edu.UserID, []uint{1, 1})

	attempt, err := svc.StartAttempt(cit, quiz.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	loaded, err := svc.GetQuiz(quiz.ID, &cit)
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	selections := map[uint]uint{
		loaded.Questions[0].ID: correctChoice(t, loaded.Questions[0]),
		loaded.Questions[1].ID: wrongChoice(t, loaded.Questions[1]),
	}

	done, err := svc.SubmitAttempt(cit, attempt.ID, selections)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if done.Percentage == nil || *done.Percentage != 50 {
		t.Fatalf("expected percentage 50, got %v", done.Percentage)
	}
	if done.IsPassed == nil || *done.IsPassed {
		t.Fatalf("expected failed at 50%% against threshold 60")
	}
	if done.TotalQuestionsCorrect != 1 {
		t.Fatalf("expected 1 correct, got %d", done.TotalQuestionsCorrect)
	}
}

func TestSubmitAttempt_NothingAnsweredLeavesResultUndefined(t *testing.T) {
	svc, db := newTestService(t)
	edu, cit := seedUsers(t, db)
	quiz := seedQuiz(t, db, edu.UserID, []uint{1, 1})

	attempt, err := svc.StartAttempt(cit, quiz.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	done, err := svc.SubmitAttempt(cit, attempt.ID, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if done.Percentage != nil || done.IsPassed != nil {
		t.Fatalf("expected undefined percentage/pass, got %v/%v", done.Percentage, done.IsPassed)
	}
	if done.CompletedAt == nil {
		t.Fatalf("expected completion timestamp")
	}
	if done.Score == nil || *done.Score != 0 {
		t.Fatalf("expected score 0, got %v", done.Score)
	}
}

func TestSubmitAttempt_RejectsCompletedAttempt(t *testing.T) {
	svc, db := newTestService(t)
	edu, cit := seedUsers(t, db)
	quiz := seedQuiz(t, db, edu.UserID, []uint{1})

	attempt, err := svc.StartAttempt(cit, quiz.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.SubmitAttempt(cit, attempt.ID, nil); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	if _, err := svc.SubmitAttempt(cit, attempt.ID, nil); !errors.Is(err, ErrAttemptCompleted) {
		t.Fatalf("expected ErrAttemptCompleted, got %v", err)
	}
}

func TestSubmitAttempt_RejectsForeignSelections(t *testing.T) {
	svc, db := newTestService(t)
	edu, cit := seedUsers(t, db)
	quiz := seedQuiz(t, db, edu.UserID, []uint{1})
	other := seedQuiz(t, db, edu.UserID, []uint{1})

	attempt, err := svc.StartAttempt(cit, quiz.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	loaded, err := svc.GetQuiz(quiz.ID, &cit)
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	otherLoaded, err := svc.GetQuiz(other.ID, &cit)
	if err != nil {
		t.Fatalf("load other quiz: %v", err)
	}

	// Question from another quiz.
	_, err = svc.SubmitAttempt(cit, attempt.ID, map[uint]uint{
		otherLoaded.Questions[0].ID: correctChoice(t, otherLoaded.Questions[0]),
	})
	if !errors.Is(err, ErrUnknownSelection) {
		t.Fatalf("expected ErrUnknownSelection for foreign question, got %v", err)
	}

	// Choice from another question.
	_, err = svc.SubmitAttempt(cit, attempt.ID, map[uint]uint{
		loaded.Questions[0].ID: correctChoice(t, otherLoaded.Questions[0]),
	})
	if !errors.Is(err, ErrUnknownSelection) {
		t.Fatalf("expected ErrUnknownSelection for foreign choice, got %v", err)
	}
}

func TestSubmitAttempt_OwnerOnly(t *testing.T) {
	svc, db := newTestService(t)
	edu, cit := seedUsers(t, db)
	quiz := seedQuiz(t, db, edu.UserID, []uint{1})

	attempt, err := svc.StartAttempt(cit, quiz.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	intruder := auth.Principal{UserID: cit.UserID + 100, Role: models.RoleCitizen}
	if _, err := svc.SubmitAttempt(intruder, attempt.ID, nil); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestDisplayQuestions_ShuffleAndStoredOrder(t *testing.T) {
	svc, db := newTestService(t)
	edu, cit := seedUsers(t, db)
	quiz := seedQuiz(t, db, edu.UserID, []uint{1, 1, 1, 1, 1, 1, 1, 1})

	loaded, err := svc.GetQuiz(quiz.ID, &cit)
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}

	stored := make([]uint, len(loaded.Questions))
	for i, q := range loaded.Questions {
		stored[i] = q.ID
	}

	sameOrder := func(dtos []models.QuestionDTO) bool {
		for i, dto := range dtos {
			if dto.ID != stored[i] {
				return false
			}
		}
		return true
	}

	// Shuffle on: same set every render, and some render deviates from the
	// stored order.
	deviated := false
	for i := 0; i < 20 && !deviated; i++ {
		dtos := svc.DisplayQuestions(loaded)
		if len(dtos) != len(stored) {
			t.Fatalf("render %d changed question count: %d", i, len(dtos))
		}
		seen := map[uint]bool{}
		for _, dto := range dtos {
			seen[dto.ID] = true
		}
		for _, id := range stored {
			if !seen[id] {
				t.Fatalf("render %d dropped question %d", i, id)
			}
		}
		if !sameOrder(dtos) {
			deviated = true
		}
	}
	if !deviated {
		t.Fatalf("20 shuffled renders all matched stored order")
	}

	// Shuffle off: stored order every time.
	loaded.ShuffleQuestions = false
	for i := 0; i < 3; i++ {
		if !sameOrder(svc.DisplayQuestions(loaded)) {
			t.Fatalf("unshuffled render deviated from stored order")
		}
	}
}

func TestAddQuestion_EnforcesChoiceInvariants(t *testing.T) {
	svc, db := newTestService(t)
	edu, _ := seedUsers(t, db)
	quiz := seedQuiz(t, db, edu.UserID, nil)

	cases := []struct {
		name  string
		input QuestionInput
	}{
		{"no correct choice", QuestionInput{
			Text:         "Q",
			QuestionType: models.QuestionTypeMultipleChoice,
			Choices:      []ChoiceInput{{Text: "a"}, {Text: "b"}},
		}},
		{"two correct choices", QuestionInput{
			Text:         "Q",
			QuestionType: models.QuestionTypeMultipleChoice,
			Choices:      []ChoiceInput{{Text: "a", IsCorrect: true}, {Text: "b", IsCorrect: true}},
		}},
		{"single choice", QuestionInput{
			Text:         "Q",
			QuestionType: models.QuestionTypeMultipleChoice,
			Choices:      []ChoiceInput{{Text: "a", IsCorrect: true}},
		}},
		{"true/false with three choices", QuestionInput{
			Text:         "Q",
			QuestionType: models.QuestionTypeTrueFalse,
			Choices:      []ChoiceInput{{Text: "true", IsCorrect: true}, {Text: "false"}, {Text: "maybe"}},
		}},
	}
	for _, tc := range cases {
		if _, err := svc.AddQuestion(edu, quiz.ID, tc.input); !errors.Is(err, ErrInvalidChoices) {
			t.Fatalf("%s: expected ErrInvalidChoices, got %v", tc.name, err)
		}
	}

	q, err := svc.AddQuestion(edu, quiz.ID, QuestionInput{
		Text:         "Q",
		QuestionType: models.QuestionTypeTrueFalse,
		Choices:      []ChoiceInput{{Text: "true", IsCorrect: true}, {Text: "false"}},
	})
	if err != nil {
		t.Fatalf("valid question rejected: %v", err)
	}
	if len(q.Choices) != 2 {
		t.Fatalf("expected 2 choices, got %d", len(q.Choices))
	}

	var reloaded models.Quiz
	if err := db.First(&reloaded, quiz.ID).Error; err != nil {
		t.Fatalf("reload quiz: %v", err)
	}
	if reloaded.TotalQuestions != 1 {
		t.Fatalf("expected cached count 1, got %d", reloaded.TotalQuestions)
	}
}

func TestGetResult_CompletedAndOwnerOnly(t *testing.T) {
	svc, db := newTestService(t)
	edu, cit := seedUsers(t, db)
	quiz := seedQuiz(t, db, edu.UserID, []uint{1})

	attempt, err := svc.StartAttempt(cit, quiz.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// In-progress attempts are not results.
	if _, _, err := svc.GetResult(cit, attempt.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found for open attempt, got %v", err)
	}

	loaded, err := svc.GetQuiz(quiz.ID, &cit)
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	if _, err := svc.SubmitAttempt(cit, attempt.ID, map[uint]uint{
		loaded.Questions[0].ID: correctChoice(t, loaded.Questions[0]),
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	result, _, err := svc.GetResult(cit, attempt.ID)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if len(result.Answers) != 1 || !result.Answers[0].IsCorrect {
		t.Fatalf("expected one correct answer, got %+v", result.Answers)
	}

	if _, _, err := svc.GetResult(edu, attempt.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}
}
