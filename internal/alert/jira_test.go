package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synoptic/internal/config"
	"synoptic/internal/logger"
	"synoptic/pkg/circuitbreaker"
)

func jiraConfig(url string) config.JiraConfig {
	return config.JiraConfig{
		URL:        url,
		Token:      "secret-token",
		ProjectKey: "WI",
		IssueType:  "Bug",
	}
}

func TestJiraClient_CreateTicket(t *testing.T) {
	var received jiraIssue
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(jiraResponse{ID: "10001"})
	}))
	defer server.Close()

	client := NewJiraClient(jiraConfig(server.URL), nil, logger.NopLogger())

	id, err := client.CreateTicket(context.Background(), "Alert IngestStalled in ma-marocmeteo", "details")
	require.NoError(t, err)
	assert.Equal(t, "10001", id)

	assert.Equal(t, "WI", received.Fields.Project.Key)
	assert.Equal(t, "Bug", received.Fields.IssueType.Name)
	assert.Equal(t, "Alert IngestStalled in ma-marocmeteo", received.Fields.Summary)
}

func TestJiraClient_CreateTicket_NonCreatedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "field summary is required", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewJiraClient(jiraConfig(server.URL), nil, logger.NopLogger())

	_, err := client.CreateTicket(context.Background(), "summary", "description")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestJiraClient_CreateTicket_BreakerFailsFastWhenOpen(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "unavailable", http.StatusInternalServerError)
	}))
	defer server.Close()

	breaker := circuitbreaker.NewWrapper(circuitbreaker.Config{
		Name:         "jira-test",
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  2,
	})
	client := NewJiraClient(jiraConfig(server.URL), breaker, logger.NopLogger())

	ctx := context.Background()
	_, err := client.CreateTicket(ctx, "summary", "description")
	require.Error(t, err)
	_, err = client.CreateTicket(ctx, "summary", "description")
	require.Error(t, err)

	_, err = client.CreateTicket(ctx, "summary", "description")
	require.Error(t, err)
	assert.Equal(t, gobreaker.StateOpen, breaker.State())
	assert.Equal(t, 2, hits)
}

func TestJiraClient_CreateTicket_UnreachableServer(t *testing.T) {
	client := NewJiraClient(jiraConfig("http://127.0.0.1:1"), nil, logger.NopLogger())

	_, err := client.CreateTicket(context.Background(), "summary", "description")
	assert.Error(t, err)
}
