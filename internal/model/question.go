package model

// QuestionCategory labels the kind of paragraph pairing shown to the participant
type QuestionCategory string

const (
	CategoryHugoVsOther       QuestionCategory = "Hugo VS Other"
	CategoryHugoVsNeutralized QuestionCategory = "Hugo VS Neutralized"
	CategoryHugoVsOther2Hugo  QuestionCategory = "Hugo VS Other2Hugo"
	CategoryHugoVsRestored    QuestionCategory = "Hugo VS Restored"
	CategoryIrrelevant        QuestionCategory = "Irrelevant"
)

// Question is one binary-choice item of a questionnaire. It carries no id:
// answers are numbered by position.
type Question struct {
	Category QuestionCategory `json:"category"`
	Left     string           `json:"left"`
	Right    string           `json:"right"`
}

// Questionnaire is the response body of POST /questionnaire
type Questionnaire struct {
	Questions []Question `json:"questions"`
}

// QuestionnaireRequest is the request body of POST /questionnaire
type QuestionnaireRequest struct {
	ParticipantID ParticipantID `json:"participant_id"`
}
