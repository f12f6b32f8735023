package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"synoptic/internal/config"
	"synoptic/internal/constants"
	"synoptic/internal/logger"
	"synoptic/pkg/circuitbreaker"
)

// Ticketer opens a tracking ticket for an alert.
type Ticketer interface {
	CreateTicket(ctx context.Context, summary, description string) (string, error)
}

type jiraIssue struct {
	Fields jiraFields `json:"fields"`
}

type jiraFields struct {
	Project     jiraProject   `json:"project"`
	Summary     string        `json:"summary"`
	Description string        `json:"description"`
	IssueType   jiraIssueType `json:"issuetype"`
}

type jiraProject struct {
	Key string `json:"key"`
}

type jiraIssueType struct {
	Name string `json:"name"`
}

type jiraResponse struct {
	ID string `json:"id"`
}

// JiraClient creates tickets over the Jira REST API. The breaker keeps a
// flapping Jira from stalling alert processing; when it is open, ticket
// creation fails fast and the alert is still republished.
type JiraClient struct {
	url        string
	token      string
	projectKey string
	issueType  string
	client     *http.Client
	breaker    *circuitbreaker.Wrapper
	logger     logger.Logger
}

func NewJiraClient(cfg config.JiraConfig, breaker *circuitbreaker.Wrapper, log logger.Logger) *JiraClient {
	return &JiraClient{
		url:        cfg.URL,
		token:      cfg.Token,
		projectKey: cfg.ProjectKey,
		issueType:  cfg.IssueType,
		client:     &http.Client{Timeout: constants.DefaultHTTPTimeout},
		breaker:    breaker,
		logger:     log,
	}
}

func (j *JiraClient) CreateTicket(ctx context.Context, summary, description string) (string, error) {
	if j.breaker == nil {
		return j.createTicket(ctx, summary, description)
	}

	result, err := j.breaker.Execute(ctx, func() (interface{}, error) {
		return j.createTicket(ctx, summary, description)
	})
	if err != nil {
		j.logger.DebugwCtx(ctx, "ticket creation rejected",
			"error", err,
			"breaker_state", j.breaker.State().String(),
		)
		return "", err
	}
	return result.(string), nil
}

func (j *JiraClient) createTicket(ctx context.Context, summary, description string) (string, error) {
	issue := jiraIssue{
		Fields: jiraFields{
			Project:     jiraProject{Key: j.projectKey},
			Summary:     summary,
			Description: description,
			IssueType:   jiraIssueType{Name: j.issueType},
		},
	}

	body, err := json.Marshal(issue)
	if err != nil {
		return "", fmt.Errorf("marshal jira issue: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build jira request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+j.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("jira request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("jira returned status %d: %s", resp.StatusCode, respBody)
	}

	var created jiraResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode jira response: %w", err)
	}

	return created.ID, nil
}
