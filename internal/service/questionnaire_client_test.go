package service

import (
	"context"
	"encoding/json"
	"errors"
	"hugoquiz/internal/config"
	"hugoquiz/internal/model"
	"hugoquiz/internal/quiz"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedRequest struct {
	Method      string
	Path        string
	ContentType string
	Auth        string
	Body        string
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*QuestionnaireClient, func() []recordedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			ContentType: r.Header.Get("Content-Type"),
			Auth:        r.Header.Get("Authorization"),
			Body:        string(body),
		})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := config.DefaultAPIConfig()
	cfg.BaseURL = srv.URL + "/api/v1"
	c := NewQuestionnaireClient(cfg, zap.NewNop())
	c.backoff = func(int) time.Duration { return time.Millisecond }
	return c, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), reqs...)
	}
}

func TestCreateParticipant(t *testing.T) {
	c, reqs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": 12, "age": "18-20"}`))
	})

	id, err := c.CreateParticipant(context.Background(), model.ParticipantForm{
		Age:                     model.Age18To20,
		Education:               model.EducationSecondary,
		HugoStyleFamiliarity:    model.FamiliarityLow,
		StudiedFrenchLiterature: true,
	})
	require.NoError(t, err)
	require.Equal(t, model.ParticipantID("12"), id)

	require.Len(t, reqs(), 1)
	got := reqs()[0]
	require.Equal(t, http.MethodPost, got.Method)
	require.Equal(t, "/api/v1/participants/", got.Path)
	require.Equal(t, "application/json", got.ContentType)
	require.Empty(t, got.Auth)
	require.JSONEq(t, `{
		"age": "18-20",
		"education": "Diplôme d'études secondaires ou équivalent",
		"hugo_style_familiarity": "Peu familier",
		"studied_french_literature": true
	}`, got.Body)
}

func TestCreateParticipantWithoutID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})
	_, err := c.CreateParticipant(context.Background(), model.ParticipantForm{})
	require.ErrorIs(t, err, quiz.ErrMalformedResponse)
}

func TestFetchQuestionnaire(t *testing.T) {
	c, reqs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"questions": []map[string]string{
				{"category": "Hugo VS Other", "left": "X", "right": "Y"},
				{"category": "Hugo VS Restored", "left": "P", "right": "Q"},
			},
		})
	})

	questions, err := c.FetchQuestionnaire(context.Background(), model.ParticipantID("12"))
	require.NoError(t, err)
	require.Equal(t, []model.Question{
		{Category: model.CategoryHugoVsOther, Left: "X", Right: "Y"},
		{Category: model.CategoryHugoVsRestored, Left: "P", Right: "Q"},
	}, questions)
	require.Equal(t, "/api/v1/questionnaire", reqs()[0].Path)
	require.JSONEq(t, `{"participant_id": 12}`, reqs()[0].Body)
}

func TestFetchQuestionnaireMissingField(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	})
	_, err := c.FetchQuestionnaire(context.Background(), "1")
	require.ErrorIs(t, err, quiz.ErrMalformedResponse)
}

func TestFetchQuestionnaireNotJSON(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>oops</html>`))
	})
	_, err := c.FetchQuestionnaire(context.Background(), "1")
	require.ErrorIs(t, err, quiz.ErrMalformedResponse)
}

func TestUnknownParticipantIsAPIError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Participant not found"}`))
	})
	_, err := c.FetchQuestionnaire(context.Background(), "999")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Contains(t, apiErr.Body, "Participant not found")
}

func TestSubmitAnswerDiscardsBody(t *testing.T) {
	c, reqs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not even json`))
	})
	err := c.SubmitAnswer(context.Background(), model.Answer{QuestionID: 3, Choice: model.ChoiceRight})
	require.NoError(t, err)
	require.Equal(t, "/api/v1/answers/", reqs()[0].Path)
	require.JSONEq(t, `{"question_id":3,"choice":"right"}`, reqs()[0].Body)
}

func TestRateLimitedRequestIsRetried(t *testing.T) {
	var calls int32
	c, reqs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"status":"success","id":1}`))
	})
	require.NoError(t, c.SubmitAnswer(context.Background(), model.Answer{QuestionID: 1, Choice: model.ChoiceLeft}))
	require.Len(t, reqs(), 3)
}

func TestRateLimitGivesUp(t *testing.T) {
	c, reqs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	err := c.SubmitAnswer(context.Background(), model.Answer{QuestionID: 1, Choice: model.ChoiceLeft})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	require.Len(t, reqs(), config.DefaultAPIConfig().Attempts())
}

func TestRequestTimeout(t *testing.T) {
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })
	c.cfg.TimeoutMS = 20
	c.cfg.MaxRetries = 0

	_, err := c.CreateParticipant(context.Background(), model.ParticipantForm{})
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

// dropConnection closes the connection without writing a response
func dropConnection(w http.ResponseWriter, r *http.Request) {
	conn, _, err := w.(http.Hijacker).Hijack()
	if err != nil {
		panic(err)
	}
	conn.Close()
}

func TestTransportErrorRetriedOnlyForQuestionnaire(t *testing.T) {
	c, reqs := newTestClient(t, dropConnection)
	ctx := context.Background()
	attempts := config.DefaultAPIConfig().Attempts()

	_, err := c.FetchQuestionnaire(ctx, "1")
	require.Error(t, err)
	var urlErr *url.Error
	require.ErrorAs(t, err, &urlErr)

	_, err = c.CreateParticipant(ctx, model.ParticipantForm{})
	require.Error(t, err)

	err = c.SubmitAnswer(ctx, model.Answer{QuestionID: 1, Choice: model.ChoiceLeft})
	require.Error(t, err)

	perPath := map[string]int{}
	for _, r := range reqs() {
		perPath[r.Path]++
	}
	require.Equal(t, map[string]int{
		"/api/v1/questionnaire": attempts,
		"/api/v1/participants/": 1,
		"/api/v1/answers/":      1,
	}, perPath)
}
