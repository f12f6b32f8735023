package alert

// WebhookPayload is the Alertmanager webhook body.
type WebhookPayload struct {
	Alerts []Alert `json:"alerts"`
}

type Alert struct {
	Labels   map[string]string `json:"labels"`
	StartsAt string            `json:"startsAt"`
}

// MonitorEvent is the WIS2 monitoring notification republished for each
// alert, shaped after the int.wmo.codes event schema.
type MonitorEvent struct {
	SpecVersion     string           `json:"specversion"`
	Type            string           `json:"type"`
	Source          string           `json:"source"`
	Subject         string           `json:"subject"`
	ID              string           `json:"id"`
	Time            string           `json:"time"`
	DataContentType string           `json:"datacontenttype"`
	DataSchema      string           `json:"dataschema"`
	Data            MonitorEventData `json:"data"`
}

type MonitorEventData struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}
