package model

import (
	"fmt"
	"strings"
)

// Choice is the side picked for a question
type Choice string

const (
	ChoiceLeft  Choice = "left"
	ChoiceRight Choice = "right"
)

// ParseChoice validates a raw radio value
func ParseChoice(raw string) (Choice, error) {
	switch c := Choice(strings.TrimSpace(raw)); c {
	case ChoiceLeft, ChoiceRight:
		return c, nil
	case "":
		return "", fmt.Errorf("no choice selected")
	default:
		return "", fmt.Errorf("unknown choice %q", raw)
	}
}

// Answer is the request body of POST /answers/
type Answer struct {
	QuestionID int    `json:"question_id"`
	Choice     Choice `json:"choice"`
}
