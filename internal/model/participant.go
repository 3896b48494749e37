package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// AgeInterval is the age bracket accepted by the questionnaire API
type AgeInterval string

const (
	Age17OrLess AgeInterval = "17 ans ou moins"
	Age18To20   AgeInterval = "18-20"
	Age21To29   AgeInterval = "21-29"
	Age30To39   AgeInterval = "30-39"
	Age40To49   AgeInterval = "40-49"
	Age50To59   AgeInterval = "50-59"
	Age60OrMore AgeInterval = "60 ans ou plus"
)

// AgeOptions lists the brackets in display order
func AgeOptions() []AgeInterval {
	return []AgeInterval{Age17OrLess, Age18To20, Age21To29, Age30To39, Age40To49, Age50To59, Age60OrMore}
}

// EducationLevel is the highest education level of a participant
type EducationLevel string

const (
	EducationUnderSecondary EducationLevel = "Inférieur au diplôme d'études secondaires"
	EducationSecondary      EducationLevel = "Diplôme d'études secondaires ou équivalent"
	EducationNoDegree       EducationLevel = " A fait des études supérieures, mais pas de diplôme" // leading space is part of the API value
	EducationTechnical      EducationLevel = "DUT/BTS"
	EducationGraduate       EducationLevel = "Licence"
	EducationPostgraduate   EducationLevel = "Diplôme d’études supérieures (master, doctorat...)"
)

// EducationOptions lists the levels in display order
func EducationOptions() []EducationLevel {
	return []EducationLevel{
		EducationUnderSecondary,
		EducationSecondary,
		EducationNoDegree,
		EducationTechnical,
		EducationGraduate,
		EducationPostgraduate,
	}
}

// HugoStyleFamiliarity is the self-assessed familiarity with Victor Hugo's style (1-5 scale)
type HugoStyleFamiliarity string

const (
	FamiliarityVeryLow  HugoStyleFamiliarity = "Très peu familier"
	FamiliarityLow      HugoStyleFamiliarity = "Peu familier"
	FamiliarityNeutral  HugoStyleFamiliarity = "Neutre"
	FamiliarityHigh     HugoStyleFamiliarity = "Un peu familier"
	FamiliarityVeryHigh HugoStyleFamiliarity = "Très familier"
)

// FamiliarityOptions lists the scale from lowest to highest
func FamiliarityOptions() []HugoStyleFamiliarity {
	return []HugoStyleFamiliarity{FamiliarityVeryLow, FamiliarityLow, FamiliarityNeutral, FamiliarityHigh, FamiliarityVeryHigh}
}

// ParticipantForm is the welcome form as sent to POST /participants/.
// Values are passed through verbatim; the API owns validation.
type ParticipantForm struct {
	Age                     AgeInterval          `json:"age"`
	Education               EducationLevel       `json:"education"`
	HugoStyleFamiliarity    HugoStyleFamiliarity `json:"hugo_style_familiarity"`
	StudiedFrenchLiterature bool                 `json:"studied_french_literature"`
}

// ParticipantID is the opaque identifier issued by the API. It keeps the raw
// JSON token so a numeric id is echoed back as a number.
type ParticipantID string

// IsZero reports whether no id was issued
func (id ParticipantID) IsZero() bool {
	return id == "" || id == "null"
}

// String returns the id without JSON quoting
func (id ParticipantID) String() string {
	return strings.Trim(string(id), `"`)
}

func (id ParticipantID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	if json.Valid([]byte(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ParticipantID) UnmarshalJSON(data []byte) error {
	*id = ParticipantID(bytes.TrimSpace(data))
	return nil
}

// Participant is the subset of the create-participant response the flow uses
type Participant struct {
	ID ParticipantID `json:"id"`
}
