// Package quiz implements the participant flow: welcome form, one question at
// a time, thank-you screen. Transitions operate on a *model.Session and talk to
// the questionnaire API through the API interface; nothing here touches HTTP
// handlers or markup.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"hugoquiz/internal/model"
	"time"
)

var (
	ErrNoChoice           = errors.New("no choice selected")
	ErrInvalidTransition  = errors.New("operation not allowed in current state")
	ErrEmptyQuestionnaire = errors.New("questionnaire has no questions")
	ErrMalformedResponse  = errors.New("malformed API response")
)

// API is the questionnaire service the flow depends on
type API interface {
	CreateParticipant(ctx context.Context, form model.ParticipantForm) (model.ParticipantID, error)
	FetchQuestionnaire(ctx context.Context, id model.ParticipantID) ([]model.Question, error)
	SubmitAnswer(ctx context.Context, answer model.Answer) error
}

// Controller drives sessions through welcome -> in_quiz -> done.
// A failed operation leaves the session untouched.
type Controller struct {
	api API
	now func() time.Time
}

func NewController(api API) *Controller {
	return &Controller{api: api, now: time.Now}
}

// SubmitParticipant creates the participant, fetches its questionnaire and
// moves the session into the quiz at the first question.
func (c *Controller) SubmitParticipant(ctx context.Context, s *model.Session, form model.ParticipantForm) error {
	if s.State != model.StateWelcome {
		return fmt.Errorf("submit participant in state %s: %w", s.State, ErrInvalidTransition)
	}

	id, err := c.api.CreateParticipant(ctx, form)
	if err != nil {
		return fmt.Errorf("create participant: %w", err)
	}
	if id.IsZero() {
		return fmt.Errorf("create participant: %w: empty id", ErrMalformedResponse)
	}

	questions, err := c.api.FetchQuestionnaire(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch questionnaire: %w", err)
	}
	if len(questions) == 0 {
		return fmt.Errorf("fetch questionnaire for participant %s: %w", id, ErrEmptyQuestionnaire)
	}

	s.ParticipantID = id
	s.Questions = questions
	s.Cursor = 0
	s.State = model.StateInQuiz
	s.UpdatedAt = c.now()
	return nil
}

// Advance submits the choice for the current question and moves the cursor.
// The last answer moves the session to done. It returns the answer that was sent.
func (c *Controller) Advance(ctx context.Context, s *model.Session, raw string) (model.Answer, error) {
	if s.State != model.StateInQuiz {
		return model.Answer{}, fmt.Errorf("advance in state %s: %w", s.State, ErrInvalidTransition)
	}
	if s.Current() == nil {
		return model.Answer{}, fmt.Errorf("advance at cursor %d of %d: %w", s.Cursor, s.Total(), ErrInvalidTransition)
	}
	choice, err := model.ParseChoice(raw)
	if err != nil {
		return model.Answer{}, fmt.Errorf("%w: %v", ErrNoChoice, err)
	}

	// question_id follows the position in the questionnaire, not an id carried
	// by the question: the API numbers questions 1..n in the order it sent them.
	answer := model.Answer{QuestionID: s.Cursor + 1, Choice: choice}
	if err := c.api.SubmitAnswer(ctx, answer); err != nil {
		return model.Answer{}, fmt.Errorf("submit answer %d: %w", answer.QuestionID, err)
	}

	s.Cursor++
	if s.Cursor >= s.Total() {
		s.State = model.StateDone
	}
	s.UpdatedAt = c.now()
	return answer, nil
}
