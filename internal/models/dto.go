package models

// QuestionDTO is the render form of a question. Correctness flags are
// stripped unless the caller is allowed to see them.
type QuestionDTO struct {
	ID           uint        `json:"id"`
	Text         string      `json:"text"`
	QuestionType string      `json:"question_type"`
	Points       uint        `json:"points"`
	Choices      []ChoiceDTO `json:"choices"`
	Explanation  string      `json:"explanation,omitempty"`
}

type ChoiceDTO struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

func (q Question) ToDTO(revealAnswers bool) QuestionDTO {
	choiceDTOs := make([]ChoiceDTO, len(q.Choices))
	for i, c := range q.Choices {
		choiceDTOs[i] = ChoiceDTO{
			ID:   c.ID,
			Text: c.Text,
		}
		if revealAnswers {
			correct := c.IsCorrect
			choiceDTOs[i].IsCorrect = &correct
		}
	}

	dto := QuestionDTO{
		ID:           q.ID,
		Text:         q.Text,
		QuestionType: q.QuestionType,
		Points:       q.Points,
		Choices:      choiceDTOs,
	}
	if revealAnswers {
		dto.Explanation = q.Explanation
	}
	return dto
}
