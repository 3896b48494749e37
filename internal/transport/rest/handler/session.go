package handler

import (
	"encoding/json"
	"hugoquiz/internal/model"
	"hugoquiz/internal/quiz"
	"hugoquiz/internal/service"
	"hugoquiz/internal/transport/rest/middleware"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SessionHandler exposes the quiz flow as JSON for headless clients
type SessionHandler struct {
	sessionSvc *service.SessionService
	log        *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService, log *zap.Logger) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc, log: log}
}

// SessionResponse is returned by every session endpoint
type SessionResponse struct {
	SessionID string             `json:"sessionId"`
	Token     string             `json:"token,omitempty"`
	State     model.SessionState `json:"state"`
	View      quiz.View          `json:"view"`
}

// AnswerRequest is the request body for submitting a choice
type AnswerRequest struct {
	Choice string `json:"choice"`
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	started, err := h.sessionSvc.Start(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, SessionResponse{
		SessionID: started.Session.ID,
		Token:     started.Token,
		State:     started.Session.State,
		View:      quiz.Render(started.Session),
	})
}

// Current handles GET /v1/sessions/current
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	session, view, err := h.sessionSvc.View(r.Context(), sessionID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{SessionID: session.ID, State: session.State, View: view})
}

// SubmitParticipant handles POST /v1/sessions/current/participant
func (h *SessionHandler) SubmitParticipant(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	var form model.ParticipantForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.sessionSvc.SubmitParticipant(r.Context(), sessionID, form)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{SessionID: sessionID, State: model.StateInQuiz, View: view})
}

// SubmitAnswer handles POST /v1/sessions/current/answers
func (h *SessionHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.sessionSvc.Advance(r.Context(), sessionID, req.Choice)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	state := model.StateInQuiz
	if view.Section == quiz.SectionThankYou {
		state = model.StateDone
	}
	writeJSON(w, http.StatusOK, SessionResponse{SessionID: sessionID, State: state, View: view})
}

// Inspect handles GET /v1/operator/sessions/{id}
func (h *SessionHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	h.log.Info("operator inspected session",
		zap.String("operator_id", middleware.GetOperatorID(r.Context())),
		zap.String("session_id", sessionID))

	session, view, err := h.sessionSvc.View(r.Context(), sessionID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{SessionID: session.ID, State: session.State, View: view})
}
