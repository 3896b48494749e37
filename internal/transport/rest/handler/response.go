package handler

import (
	"context"
	"encoding/json"
	"errors"
	"hugoquiz/internal/quiz"
	"hugoquiz/internal/service"
	"net/http"
	"net/url"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusFor maps a flow error to an HTTP status
func statusFor(err error) int {
	var apiErr *service.APIError
	var urlErr *url.Error
	switch {
	case errors.Is(err, quiz.ErrNoChoice):
		return http.StatusBadRequest
	case errors.Is(err, quiz.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &apiErr),
		errors.As(err, &urlErr),
		errors.Is(err, quiz.ErrMalformedResponse),
		errors.Is(err, quiz.ErrEmptyQuestionnaire):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// bannerFor returns the message shown to the participant for a flow error
func bannerFor(err error) string {
	switch statusFor(err) {
	case http.StatusBadRequest:
		return "Veuillez choisir l'un des deux textes avant de continuer."
	case http.StatusConflict:
		return "Cette étape a déjà été validée."
	case http.StatusNotFound:
		return "Votre session a expiré. Merci de recommencer."
	case http.StatusGatewayTimeout:
		return "Le serveur du questionnaire ne répond pas. Veuillez réessayer."
	case http.StatusBadGateway:
		if errors.Is(err, quiz.ErrEmptyQuestionnaire) {
			return "Aucune question n'a pu être générée. Veuillez réessayer."
		}
		return "Le serveur du questionnaire est indisponible. Veuillez réessayer."
	default:
		return "Une erreur est survenue. Veuillez réessayer."
	}
}
