package alert

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"synoptic/internal/logger"
	apperrors "synoptic/pkg/errors"
	"synoptic/pkg/metrics"
)

var requiredLabels = []string{"centre_id", "report_by", "alertname", "severity"}

// Handler receives Alertmanager webhooks, republishes each alert as a
// monitoring notification, and opens a tracking ticket. A ticket failure
// is logged but never fails the webhook; the republished notification is
// the authoritative signal.
type Handler struct {
	publisher     Publisher
	ticketer      Ticketer
	monitorCentre string
	logger        logger.Logger
}

func NewHandler(publisher Publisher, ticketer Ticketer, monitorCentre string, log logger.Logger) *Handler {
	return &Handler{
		publisher:     publisher,
		ticketer:      ticketer,
		monitorCentre: monitorCentre,
		logger:        log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/webhook", h.HandleWebhook)
}

func (h *Handler) HandleWebhook(c *gin.Context) {
	var payload WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		metrics.AlertsReceivedTotal.WithLabelValues("invalid").Inc()
		h.handleError(c, apperrors.Wrap(err, apperrors.ErrValidation))
		return
	}

	for _, a := range payload.Alerts {
		if err := validateAlert(a); err != nil {
			metrics.AlertsReceivedTotal.WithLabelValues("invalid").Inc()
			h.handleError(c, err)
			return
		}

		if err := h.processAlert(c, a); err != nil {
			metrics.AlertsReceivedTotal.WithLabelValues("error").Inc()
			h.handleError(c, err)
			return
		}

		metrics.AlertsReceivedTotal.WithLabelValues("ok").Inc()
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func validateAlert(a Alert) error {
	for _, label := range requiredLabels {
		if a.Labels[label] == "" {
			return apperrors.ErrValidation.WithDetail("message", fmt.Sprintf("missing required label %q", label))
		}
	}
	if a.StartsAt == "" {
		return apperrors.ErrValidation.WithDetail("message", "missing startsAt")
	}
	return nil
}

func (h *Handler) processAlert(c *gin.Context, a Alert) error {
	ctx := c.Request.Context()

	centreID := a.Labels["centre_id"]
	alertName := a.Labels["alertname"]
	reportBy := a.Labels["report_by"]
	severity := a.Labels["severity"]

	event := MonitorEvent{
		SpecVersion:     "1.0",
		Type:            "int.wmo.codes.performance",
		Source:          h.monitorCentre,
		Subject:         alertName,
		ID:              uuid.NewString(),
		Time:            a.StartsAt,
		DataContentType: "application/json",
		DataSchema:      "int.wmo.codes.event.data.v1",
		Data: MonitorEventData{
			Level: severity,
			Text:  fmt.Sprintf("%s in %s reported by %s", alertName, centreID, reportBy),
		},
	}

	body, err := json.Marshal(event)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal)
	}

	topic := fmt.Sprintf("monitor/a/wis2/%s/%s", h.monitorCentre, centreID)
	if err := h.publisher.Publish(ctx, topic, body); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal)
	}
	h.logger.InfowCtx(ctx, "monitoring notification sent", "centre_id", centreID, "alert", alertName)

	summary := fmt.Sprintf("Alert %s in %s", alertName, centreID)
	description := fmt.Sprintf("%s reported by %s with a severity of %s.", alertName, reportBy, severity)

	ticketID, err := h.ticketer.CreateTicket(ctx, summary, description)
	if err != nil {
		metrics.TicketsCreatedTotal.WithLabelValues("error").Inc()
		h.logger.ErrorwCtx(ctx, "failed to create tracking ticket", "error", err, "alert", alertName)
		return nil
	}

	metrics.TicketsCreatedTotal.WithLabelValues("ok").Inc()
	h.logger.InfowCtx(ctx, "tracking ticket created", "ticket_id", ticketID)
	return nil
}

func (h *Handler) handleError(c *gin.Context, err error) {
	h.logger.ErrorwCtx(c.Request.Context(), "webhook request failed", "error", err, "path", c.Request.URL.Path)

	status := apperrors.ToHTTPStatus(err)
	response := apperrors.ToErrorResponse(err)

	c.JSON(status, response)
}
