package quiz

import "hugoquiz/internal/model"

// Section is the visible part of the page
type Section string

const (
	SectionWelcome  Section = "welcome-page"
	SectionQuiz     Section = "quiz-page"
	SectionThankYou Section = "thank-you-page"
)

// View is what the page shows for a session
type View struct {
	Section        Section `json:"section"`
	TotalQuestions int     `json:"totalQuestions"`
	CurrentNumber  int     `json:"currentNumber,omitempty"` // 1-based
	Category       string  `json:"category,omitempty"`
	LeftText       string  `json:"leftText,omitempty"`
	RightText      string  `json:"rightText,omitempty"`
}

// Render projects the session onto the page. For a session in the quiz it
// shows the question under the cursor.
func Render(s *model.Session) View {
	switch s.State {
	case model.StateInQuiz:
		v := View{Section: SectionQuiz, TotalQuestions: s.Total()}
		if q := s.Current(); q != nil {
			v.CurrentNumber = s.Cursor + 1
			v.Category = "Catégorie : " + string(q.Category)
			v.LeftText = "Gauche : " + q.Left
			v.RightText = "Droite : " + q.Right
		}
		return v
	case model.StateDone:
		return View{Section: SectionThankYou, TotalQuestions: s.Total()}
	default:
		return View{Section: SectionWelcome}
	}
}

// Visible reports whether section is the one shown
func (v View) Visible(section Section) bool {
	return v.Section == section
}
