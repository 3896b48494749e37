package model

import "time"

type SessionState string

const (
	StateWelcome SessionState = "welcome"
	StateInQuiz  SessionState = "in_quiz"
	StateDone    SessionState = "done"
)

// Session is the client-side state of one participant walking the quiz.
// Invariant: 0 <= Cursor <= len(Questions); Cursor == len(Questions) only in StateDone.
type Session struct {
	ID            string        `json:"id"`
	State         SessionState  `json:"state"`
	ParticipantID ParticipantID `json:"participantId,omitempty"`
	Questions     []Question    `json:"questions,omitempty"`
	Cursor        int           `json:"cursor"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// NewSession returns a session in the welcome state
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		State:     StateWelcome,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Total returns the number of questions in the questionnaire
func (s *Session) Total() int {
	return len(s.Questions)
}

// Current returns the question under the cursor, or nil when out of range
func (s *Session) Current() *Question {
	if s.Cursor < 0 || s.Cursor >= len(s.Questions) {
		return nil
	}
	return &s.Questions[s.Cursor]
}

// Remaining returns how many answers are still expected
func (s *Session) Remaining() int {
	return len(s.Questions) - s.Cursor
}

// Clone returns a copy safe to mutate without touching s
func (s *Session) Clone() *Session {
	c := *s
	if s.Questions != nil {
		c.Questions = append([]Question(nil), s.Questions...)
	}
	return &c
}
