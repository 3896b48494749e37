package handler

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"hugoquiz/internal/model"
	"hugoquiz/internal/quiz"
	"hugoquiz/internal/service"
	"hugoquiz/internal/transport/rest/middleware"
	"net/http"

	"go.uber.org/zap"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

const badFormBanner = "Le formulaire envoyé est invalide. Veuillez réessayer."

type pageData struct {
	View               quiz.View
	Error              string
	AgeOptions         []model.AgeInterval
	EducationOptions   []model.EducationLevel
	FamiliarityOptions []model.HugoStyleFamiliarity
}

// PageHandler serves the participant page: welcome form, quiz, thank-you
type PageHandler struct {
	sessionSvc   *service.SessionService
	authSvc      *service.AuthService
	secureCookie bool
	log          *zap.Logger
}

// NewPageHandler creates a new page handler
func NewPageHandler(sessionSvc *service.SessionService, authSvc *service.AuthService, secureCookie bool, log *zap.Logger) *PageHandler {
	return &PageHandler{
		sessionSvc:   sessionSvc,
		authSvc:      authSvc,
		secureCookie: secureCookie,
		log:          log.With(zap.String("component", "page")),
	}
}

// Show handles GET /. It resumes an unfinished session and otherwise starts a new one.
func (h *PageHandler) Show(w http.ResponseWriter, r *http.Request) {
	if session := h.resume(r.Context(), r); session != nil {
		if session.State != model.StateDone {
			h.render(w, http.StatusOK, quiz.Render(session), "")
			return
		}
		if err := h.sessionSvc.Discard(r.Context(), session.ID); err != nil {
			h.log.Warn("failed to discard finished session", zap.String("session_id", session.ID), zap.Error(err))
		}
	}
	h.restart(w, r, http.StatusOK, "")
}

// SubmitParticipant handles POST /participant from the welcome form
func (h *PageHandler) SubmitParticipant(w http.ResponseWriter, r *http.Request) {
	session := h.resume(r.Context(), r)
	if session == nil {
		h.restart(w, r, http.StatusNotFound, bannerFor(service.ErrSessionNotFound))
		return
	}
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, quiz.Render(session), badFormBanner)
		return
	}

	form := model.ParticipantForm{
		Age:                     model.AgeInterval(r.PostFormValue("age")),
		Education:               model.EducationLevel(r.PostFormValue("education")),
		HugoStyleFamiliarity:    model.HugoStyleFamiliarity(r.PostFormValue("familiarity")),
		StudiedFrenchLiterature: r.PostFormValue("studied") != "",
	}

	view, err := h.sessionSvc.SubmitParticipant(r.Context(), session.ID, form)
	if err != nil {
		h.render(w, statusFor(err), view, bannerFor(err))
		return
	}
	h.refresh(w, session.ID)
	h.render(w, http.StatusOK, view, "")
}

// Next handles POST /next from the quiz form
func (h *PageHandler) Next(w http.ResponseWriter, r *http.Request) {
	session := h.resume(r.Context(), r)
	if session == nil {
		h.restart(w, r, http.StatusNotFound, bannerFor(service.ErrSessionNotFound))
		return
	}
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, quiz.Render(session), badFormBanner)
		return
	}

	view, err := h.sessionSvc.Advance(r.Context(), session.ID, r.PostFormValue("choice"))
	if err != nil {
		h.render(w, statusFor(err), view, bannerFor(err))
		return
	}
	h.refresh(w, session.ID)
	h.render(w, http.StatusOK, view, "")
}

// resume returns the session named by the cookie, or nil
func (h *PageHandler) resume(ctx context.Context, r *http.Request) *model.Session {
	token := middleware.SessionToken(r)
	if token == "" {
		return nil
	}
	claims, err := h.authSvc.ValidateSessionToken(token)
	if err != nil {
		return nil
	}
	session, err := h.sessionSvc.Get(ctx, claims.SessionID)
	if err != nil {
		if !errors.Is(err, service.ErrSessionNotFound) {
			h.log.Error("failed to load session", zap.Error(err))
		}
		return nil
	}
	return session
}

// restart starts a fresh session, sets its cookie and renders the welcome step
func (h *PageHandler) restart(w http.ResponseWriter, r *http.Request, status int, banner string) {
	started, err := h.sessionSvc.Start(r.Context())
	if err != nil {
		h.log.Error("failed to start session", zap.Error(err))
		h.render(w, http.StatusInternalServerError, quiz.View{Section: quiz.SectionWelcome}, bannerFor(err))
		return
	}
	h.setCookie(w, started.Token)
	h.render(w, status, quiz.Render(started.Session), banner)
}

// refresh reissues the cookie so it expires with the stored session
func (h *PageHandler) refresh(w http.ResponseWriter, sessionID string) {
	token, err := h.authSvc.GenerateSessionToken(sessionID)
	if err != nil {
		h.log.Warn("failed to refresh session token", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	h.setCookie(w, token)
}

func (h *PageHandler) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.authSvc.SessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *PageHandler) render(w http.ResponseWriter, status int, view quiz.View, banner string) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, pageData{
		View:               view,
		Error:              banner,
		AgeOptions:         model.AgeOptions(),
		EducationOptions:   model.EducationOptions(),
		FamiliarityOptions: model.FamiliarityOptions(),
	})
	if err != nil {
		h.log.Error("failed to render page", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
