package service

import (
	"context"
	"errors"
	"hugoquiz/internal/cache"
	"hugoquiz/internal/model"
	"hugoquiz/internal/quiz"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAPI struct {
	mu        sync.Mutex
	questions []model.Question
	submitErr error
	answers   []model.Answer
}

func (s *stubAPI) CreateParticipant(ctx context.Context, form model.ParticipantForm) (model.ParticipantID, error) {
	return "5", nil
}

func (s *stubAPI) FetchQuestionnaire(ctx context.Context, id model.ParticipantID) ([]model.Question, error) {
	return s.questions, nil
}

func (s *stubAPI) SubmitAnswer(ctx context.Context, answer model.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitErr != nil {
		return s.submitErr
	}
	s.answers = append(s.answers, answer)
	return nil
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []model.ProgressEvent
}

func (b *recordingBroadcaster) BroadcastProgress(event *model.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, *event)
}

func (b *recordingBroadcaster) kinds() []model.ProgressKind {
	b.mu.Lock()
	defer b.mu.Unlock()
	var kinds []model.ProgressKind
	for _, e := range b.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func newTestSessionService(api *stubAPI) (*SessionService, *recordingBroadcaster) {
	svc := NewSessionService(
		cache.NewMemorySessionCache(time.Hour),
		quiz.NewController(api),
		newTestAuth(),
		zap.NewNop(),
	)
	b := &recordingBroadcaster{}
	svc.SetBroadcaster(b)
	return svc, b
}

func TestSessionServiceFullFlow(t *testing.T) {
	ctx := context.Background()
	api := &stubAPI{questions: []model.Question{
		{Category: "A", Left: "X", Right: "Y"},
		{Category: "B", Left: "P", Right: "Q"},
	}}
	svc, b := newTestSessionService(api)

	started, err := svc.Start(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, started.Token)
	claims, err := svc.authSvc.ValidateSessionToken(started.Token)
	require.NoError(t, err)
	require.Equal(t, started.Session.ID, claims.SessionID)

	id := started.Session.ID
	view, err := svc.SubmitParticipant(ctx, id, model.ParticipantForm{Age: model.Age18To20})
	require.NoError(t, err)
	require.Equal(t, quiz.SectionQuiz, view.Section)
	require.Equal(t, 2, view.TotalQuestions)

	view, err = svc.Advance(ctx, id, "left")
	require.NoError(t, err)
	require.Equal(t, 2, view.CurrentNumber)

	view, err = svc.Advance(ctx, id, "right")
	require.NoError(t, err)
	require.Equal(t, quiz.SectionThankYou, view.Section)

	stored, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.StateDone, stored.State)
	require.Equal(t, 2, stored.Cursor)

	require.Equal(t, []model.ProgressKind{
		model.ProgressParticipantCreated,
		model.ProgressAnswerSubmitted,
		model.ProgressAnswerSubmitted,
		model.ProgressSessionDone,
	}, b.kinds())
}

func TestSessionServiceFailureKeepsStoredState(t *testing.T) {
	ctx := context.Background()
	api := &stubAPI{questions: []model.Question{{Category: "A", Left: "X", Right: "Y"}}}
	svc, b := newTestSessionService(api)

	started, err := svc.Start(ctx)
	require.NoError(t, err)
	id := started.Session.ID
	_, err = svc.SubmitParticipant(ctx, id, model.ParticipantForm{})
	require.NoError(t, err)

	api.submitErr = errors.New("bad gateway")
	view, err := svc.Advance(ctx, id, "left")
	require.Error(t, err)
	require.Equal(t, quiz.SectionQuiz, view.Section)
	require.Equal(t, 1, view.CurrentNumber)

	stored, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.Zero(t, stored.Cursor)
	require.Len(t, b.kinds(), 1)
}

func TestSessionServiceUnknownSession(t *testing.T) {
	svc, _ := newTestSessionService(&stubAPI{})
	_, err := svc.Advance(context.Background(), "nope", "left")
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, _, err = svc.View(context.Background(), "nope")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestConcurrentAdvanceSubmitsEachQuestionOnce(t *testing.T) {
	ctx := context.Background()
	questions := make([]model.Question, 3)
	api := &stubAPI{questions: questions}
	svc, _ := newTestSessionService(api)

	started, err := svc.Start(ctx)
	require.NoError(t, err)
	id := started.Session.ID
	_, err = svc.SubmitParticipant(ctx, id, model.ParticipantForm{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Advance(ctx, id, "left")
		}()
	}
	wg.Wait()

	require.Equal(t, []model.Answer{
		{QuestionID: 1, Choice: model.ChoiceLeft},
		{QuestionID: 2, Choice: model.ChoiceLeft},
		{QuestionID: 3, Choice: model.ChoiceLeft},
	}, api.answers)
}

func TestSessionServiceDiscard(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestSessionService(&stubAPI{})

	started, err := svc.Start(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Discard(ctx, started.Session.ID))

	_, err = svc.Get(ctx, started.Session.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}
