package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synoptic/internal/logger"
)

type fakePublisher struct {
	err      error
	topics   []string
	payloads [][]byte
}

func (p *fakePublisher) Publish(_ context.Context, topic string, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *fakePublisher) Close() {}

type fakeTicketer struct {
	err       error
	summaries []string
}

func (f *fakeTicketer) CreateTicket(_ context.Context, summary, description string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.summaries = append(f.summaries, summary)
	return "10001", nil
}

func setupRouter(publisher Publisher, ticketer Ticketer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewHandler(publisher, ticketer, "ma-marocmeteo-global-monitor", logger.NopLogger())
	handler.RegisterRoutes(router)
	return router
}

func validPayload() WebhookPayload {
	return WebhookPayload{
		Alerts: []Alert{
			{
				Labels: map[string]string{
					"centre_id": "ma-marocmeteo",
					"report_by": "prometheus",
					"alertname": "IngestStalled",
					"severity":  "critical",
				},
				StartsAt: "2024-03-01T06:00:00Z",
			},
		},
	}
}

func postWebhook(t *testing.T, router *gin.Engine, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleWebhook_PublishesMonitorEvent(t *testing.T) {
	publisher := &fakePublisher{}
	ticketer := &fakeTicketer{}
	router := setupRouter(publisher, ticketer)

	w := postWebhook(t, router, validPayload())

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, publisher.topics, 1)
	assert.Equal(t, "monitor/a/wis2/ma-marocmeteo-global-monitor/ma-marocmeteo", publisher.topics[0])

	var event MonitorEvent
	require.NoError(t, json.Unmarshal(publisher.payloads[0], &event))
	assert.Equal(t, "1.0", event.SpecVersion)
	assert.Equal(t, "int.wmo.codes.performance", event.Type)
	assert.Equal(t, "IngestStalled", event.Subject)
	assert.Equal(t, "critical", event.Data.Level)
	assert.Equal(t, "IngestStalled in ma-marocmeteo reported by prometheus", event.Data.Text)
	assert.NotEmpty(t, event.ID)
}

func TestHandleWebhook_CreatesTicket(t *testing.T) {
	publisher := &fakePublisher{}
	ticketer := &fakeTicketer{}
	router := setupRouter(publisher, ticketer)

	w := postWebhook(t, router, validPayload())

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, ticketer.summaries, 1)
	assert.Equal(t, "Alert IngestStalled in ma-marocmeteo", ticketer.summaries[0])
}

func TestHandleWebhook_MissingLabelRejected(t *testing.T) {
	publisher := &fakePublisher{}
	router := setupRouter(publisher, &fakeTicketer{})

	payload := validPayload()
	delete(payload.Alerts[0].Labels, "severity")

	w := postWebhook(t, router, payload)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, publisher.topics)
}

func TestHandleWebhook_MissingStartsAtRejected(t *testing.T) {
	publisher := &fakePublisher{}
	router := setupRouter(publisher, &fakeTicketer{})

	payload := validPayload()
	payload.Alerts[0].StartsAt = ""

	w := postWebhook(t, router, payload)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, publisher.topics)
}

func TestHandleWebhook_MalformedBodyRejected(t *testing.T) {
	router := setupRouter(&fakePublisher{}, &fakeTicketer{})

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleWebhook_PublishFailureIsServerError(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("broker unavailable")}
	router := setupRouter(publisher, &fakeTicketer{})

	w := postWebhook(t, router, validPayload())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleWebhook_TicketFailureStillSucceeds(t *testing.T) {
	publisher := &fakePublisher{}
	ticketer := &fakeTicketer{err: errors.New("jira unavailable")}
	router := setupRouter(publisher, ticketer)

	w := postWebhook(t, router, validPayload())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, publisher.topics, 1)
}

func TestHandleWebhook_MultipleAlerts(t *testing.T) {
	publisher := &fakePublisher{}
	router := setupRouter(publisher, &fakeTicketer{})

	payload := validPayload()
	second := validPayload().Alerts[0]
	second.Labels["alertname"] = "QueueBacklog"
	payload.Alerts = append(payload.Alerts, second)

	w := postWebhook(t, router, payload)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, publisher.topics, 2)
}
