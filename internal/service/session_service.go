package service

import (
	"context"
	"errors"
	"fmt"
	"hugoquiz/internal/cache"
	"hugoquiz/internal/model"
	"hugoquiz/internal/quiz"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for unknown or expired sessions
var ErrSessionNotFound = errors.New("session not found")

// SessionService runs quiz transitions against stored sessions
type SessionService struct {
	store       cache.SessionCache
	controller  *quiz.Controller
	authSvc     *AuthService
	broadcaster Broadcaster
	log         *zap.Logger
	locks       keyedMutex
	now         func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(store cache.SessionCache, controller *quiz.Controller, authSvc *AuthService, log *zap.Logger) *SessionService {
	return &SessionService{
		store:      store,
		controller: controller,
		authSvc:    authSvc,
		log:        log.With(zap.String("component", "session_service")),
		now:        time.Now,
	}
}

// SetBroadcaster sets the broadcaster for progress events
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// StartResponse is returned when a session is created
type StartResponse struct {
	Session *model.Session
	Token   string
}

// Start creates a session in the welcome state and a token bound to it
func (s *SessionService) Start(ctx context.Context) (*StartResponse, error) {
	session := model.NewSession(s.authSvc.NewSessionID(), s.now())
	if err := s.store.Set(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	token, err := s.authSvc.GenerateSessionToken(session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	s.log.Debug("session started", zap.String("session_id", session.ID))
	return &StartResponse{Session: session, Token: token}, nil
}

// Get loads a session
func (s *SessionService) Get(ctx context.Context, id string) (*model.Session, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Discard removes a session from the store
func (s *SessionService) Discard(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.log.Debug("session discarded", zap.String("session_id", id))
	return nil
}

// View loads a session and renders it
func (s *SessionService) View(ctx context.Context, id string) (*model.Session, quiz.View, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, quiz.View{}, err
	}
	return session, quiz.Render(session), nil
}

// SubmitParticipant runs the welcome transition for a session
func (s *SessionService) SubmitParticipant(ctx context.Context, id string, form model.ParticipantForm) (quiz.View, error) {
	session, err := s.mutate(ctx, id, func(session *model.Session) error {
		return s.controller.SubmitParticipant(ctx, session, form)
	})
	if err != nil {
		s.log.Warn("participant submission failed", zap.String("session_id", id), zap.Error(err))
		return s.currentView(ctx, id), err
	}

	s.log.Info("participant entered quiz",
		zap.String("session_id", id),
		zap.String("participant_id", session.ParticipantID.String()),
		zap.Int("questions", session.Total()))
	s.publish(&model.ProgressEvent{
		Kind:          model.ProgressParticipantCreated,
		SessionID:     id,
		ParticipantID: session.ParticipantID,
		Total:         session.Total(),
		At:            session.UpdatedAt,
	})
	return quiz.Render(session), nil
}

// Advance submits the choice for the session's current question
func (s *SessionService) Advance(ctx context.Context, id, choice string) (quiz.View, error) {
	var answer model.Answer
	session, err := s.mutate(ctx, id, func(session *model.Session) error {
		var err error
		answer, err = s.controller.Advance(ctx, session, choice)
		return err
	})
	if err != nil {
		s.log.Warn("advance failed", zap.String("session_id", id), zap.Error(err))
		return s.currentView(ctx, id), err
	}

	s.log.Debug("answer recorded",
		zap.String("session_id", id),
		zap.Int("question_id", answer.QuestionID),
		zap.Int("remaining", session.Remaining()))
	s.publish(&model.ProgressEvent{
		Kind:          model.ProgressAnswerSubmitted,
		SessionID:     id,
		ParticipantID: session.ParticipantID,
		QuestionID:    answer.QuestionID,
		Choice:        answer.Choice,
		Answered:      session.Cursor,
		Total:         session.Total(),
		At:            session.UpdatedAt,
	})
	if session.State == model.StateDone {
		s.log.Info("session done",
			zap.String("session_id", id),
			zap.String("participant_id", session.ParticipantID.String()))
		s.publish(&model.ProgressEvent{
			Kind:          model.ProgressSessionDone,
			SessionID:     id,
			ParticipantID: session.ParticipantID,
			Answered:      session.Cursor,
			Total:         session.Total(),
			At:            session.UpdatedAt,
		})
	}
	return quiz.Render(session), nil
}

// mutate loads the session, applies fn to a copy and stores the copy only
// when fn succeeds. Operations on one session run one at a time.
func (s *SessionService) mutate(ctx context.Context, id string, fn func(*model.Session) error) (*model.Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return next, nil
}

func (s *SessionService) currentView(ctx context.Context, id string) quiz.View {
	session, err := s.store.Get(ctx, id)
	if err != nil || session == nil {
		return quiz.View{Section: quiz.SectionWelcome}
	}
	return quiz.Render(session)
}

func (s *SessionService) publish(event *model.ProgressEvent) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastProgress(event)
	}
}

// keyedMutex serializes work per key and forgets keys nobody holds
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedEntry)
	}
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
