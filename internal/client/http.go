package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"adaptivequiz/internal/model"
)

// API talks to the quiz server over REST. It is both a Selector and a Submitter.
type API struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewAPI creates a client for baseURL. A nil httpClient uses a client with a
// generous timeout; per-call deadlines come from the context.
func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &API{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Authenticate obtains a respondent token and keeps it for later calls. An
// empty respondentID asks the server for a new identity.
func (a *API) Authenticate(ctx context.Context, respondentID string) (*model.RespondentTokenResponse, error) {
	var out model.RespondentTokenResponse
	if err := a.do(ctx, http.MethodPost, "/v1/auth/respondent", model.RespondentTokenRequest{RespondentID: respondentID}, &out); err != nil {
		return nil, err
	}
	a.token = out.Token
	return &out, nil
}

// Questions fetches the ordered catalog
func (a *API) Questions(ctx context.Context) ([]model.Question, error) {
	var out struct {
		Questions []model.Question `json:"questions"`
	}
	if err := a.do(ctx, http.MethodGet, "/v1/questions", nil, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

// NextQuestions asks the engine for personalized questions
func (a *API) NextQuestions(ctx context.Context, req model.SelectionRequest) (*model.NextQuestionsResponse, error) {
	var out model.NextQuestionsResponse
	if err := a.do(ctx, http.MethodPost, "/v1/adaptive/next-questions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Submit persists a completed test
func (a *API) Submit(ctx context.Context, result *model.TestResult) error {
	body := model.CompleteTestRequest{
		Answers:      result.Answers,
		TraitScores:  result.TraitScores,
		UsedAdaptive: result.UsedAdaptive,
	}
	return a.do(ctx, http.MethodPost, "/v1/results", body, nil)
}

// Recent returns the respondent's latest results
func (a *API) Recent(ctx context.Context) ([]model.TestResult, error) {
	var out struct {
		Results []model.TestResult `json:"results"`
	}
	if err := a.do(ctx, http.MethodGet, "/v1/results/recent", nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func (a *API) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(raw))
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
