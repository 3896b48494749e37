package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hugoquiz/internal/config"
	"hugoquiz/internal/model"
	"hugoquiz/internal/quiz"
	"io"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// APIError is returned when the questionnaire API answers with a non-2xx status
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("questionnaire API %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// QuestionnaireClient wraps the questionnaire API calls
type QuestionnaireClient struct {
	cfg        config.APIConfig
	httpClient *http.Client
	log        *zap.Logger
	backoff    func(attempt int) time.Duration
}

var _ quiz.API = (*QuestionnaireClient)(nil)

// NewQuestionnaireClient creates a new questionnaire API client
func NewQuestionnaireClient(cfg config.APIConfig, log *zap.Logger) *QuestionnaireClient {
	return &QuestionnaireClient{
		cfg:        cfg,
		httpClient: &http.Client{},
		log:        log.With(zap.String("component", "questionnaire_client")),
		backoff: func(attempt int) time.Duration {
			return time.Duration(math.Pow(2, float64(attempt))) * time.Second
		},
	}
}

// CreateParticipant registers the welcome form and returns the issued id
func (c *QuestionnaireClient) CreateParticipant(ctx context.Context, form model.ParticipantForm) (model.ParticipantID, error) {
	var participant model.Participant
	// not retried on transport errors: a lost response would create a duplicate participant
	if err := c.postJSON(ctx, "/participants/", form, &participant, false); err != nil {
		return "", err
	}
	if participant.ID.IsZero() {
		return "", fmt.Errorf("%w: participant response has no id", quiz.ErrMalformedResponse)
	}
	c.log.Info("participant created", zap.String("participant_id", participant.ID.String()))
	return participant.ID, nil
}

// FetchQuestionnaire asks the API to generate the questionnaire for a participant
func (c *QuestionnaireClient) FetchQuestionnaire(ctx context.Context, id model.ParticipantID) ([]model.Question, error) {
	var questionnaire struct {
		Questions *[]model.Question `json:"questions"`
	}
	req := model.QuestionnaireRequest{ParticipantID: id}
	if err := c.postJSON(ctx, "/questionnaire", req, &questionnaire, true); err != nil {
		return nil, err
	}
	if questionnaire.Questions == nil {
		return nil, fmt.Errorf("%w: questionnaire response has no questions", quiz.ErrMalformedResponse)
	}
	c.log.Info("questionnaire fetched",
		zap.String("participant_id", id.String()),
		zap.Int("questions", len(*questionnaire.Questions)))
	return *questionnaire.Questions, nil
}

// SubmitAnswer posts one answer. The response body is discarded.
func (c *QuestionnaireClient) SubmitAnswer(ctx context.Context, answer model.Answer) error {
	return c.postJSON(ctx, "/answers/", answer, nil, false)
}

// postJSON sends body as JSON and decodes a 2xx response into out (when non-nil).
// HTTP 429 is always retried; transport errors only when retryTransport is set.
func (c *QuestionnaireClient) postJSON(ctx context.Context, path string, body, out interface{}, retryTransport bool) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, path, payload, retryTransport)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", quiz.ErrMalformedResponse, http.MethodPost, path, err)
	}
	return nil
}

// doRequest performs the HTTP request with retry logic
func (c *QuestionnaireClient) doRequest(ctx context.Context, method, path string, payload []byte, retryTransport bool) ([]byte, error) {
	url := c.cfg.Endpoint(path)
	attempts := c.cfg.Attempts()
	log := c.log.With(zap.String("method", method), zap.String("path", path))
	log.Debug("request")

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			log.Info("retrying", zap.Int("attempt", attempt), zap.Int("max", attempts-1))
		}

		respBody, status, err := c.send(ctx, method, url, payload)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("questionnaire API %s %s: %w", method, path, ctx.Err())
			}
			log.Warn("request failed", zap.Int("attempt", attempt+1), zap.Error(err))
			lastErr = err
			if !retryTransport {
				break
			}
			continue
		}

		log.Debug("response", zap.Int("status", status), zap.Int("bytes", len(respBody)))

		if status == http.StatusTooManyRequests {
			wait := c.backoff(attempt)
			log.Warn("rate limited", zap.Int("attempt", attempt+1), zap.Duration("backoff", wait))
			lastErr = &APIError{Method: method, Path: path, StatusCode: status, Body: string(respBody)}
			if attempt+1 < attempts {
				if err := sleepCtx(ctx, wait); err != nil {
					return nil, fmt.Errorf("questionnaire API %s %s: %w", method, path, err)
				}
			}
			continue
		}

		if status < 200 || status > 299 {
			apiErr := &APIError{Method: method, Path: path, StatusCode: status, Body: string(respBody)}
			log.Error("API error", zap.Int("status", status), zap.String("body", apiErr.Body))
			return nil, apiErr
		}

		return respBody, nil
	}

	var apiErr *APIError
	if errors.As(lastErr, &apiErr) {
		return nil, apiErr
	}
	return nil, fmt.Errorf("questionnaire API %s %s: %w", method, path, lastErr)
}

func (c *QuestionnaireClient) send(ctx context.Context, method, url string, payload []byte) ([]byte, int, error) {
	if timeout := c.cfg.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
