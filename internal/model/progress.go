package model

import "time"

type ProgressKind string

const (
	ProgressParticipantCreated ProgressKind = "participant_created"
	ProgressAnswerSubmitted    ProgressKind = "answer_submitted"
	ProgressSessionDone        ProgressKind = "session_done"
)

// ProgressEvent is pushed to operators watching the live feed
type ProgressEvent struct {
	Kind          ProgressKind  `json:"kind"`
	SessionID     string        `json:"sessionId"`
	ParticipantID ParticipantID `json:"participantId,omitempty"`
	QuestionID    int           `json:"questionId,omitempty"`
	Choice        Choice        `json:"choice,omitempty"`
	Answered      int           `json:"answered"`
	Total         int           `json:"total"`
	At            time.Time     `json:"at"`
}
