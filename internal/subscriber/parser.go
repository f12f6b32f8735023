package subscriber

import (
	"encoding/json"
	"fmt"
	"regexp"

	"synoptic/internal/constants"
	apperrors "synoptic/pkg/errors"
	"synoptic/pkg/models"
)

// topicPattern extracts the hierarchical centre-to-category portion of the
// inbound topic; the leading cache segments are not part of the stored
// identity.
var topicPattern = regexp.MustCompile(`wis2/[^/]+/[^/]+/[^/]+/[^/]+/[^/]+/[^/]+/synop`)

type wireLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type wireMessage struct {
	Properties struct {
		PubTime                string `json:"pubtime"`
		DataID                 string `json:"data_id"`
		WigosStationIdentifier string `json:"wigos_station_identifier"`
	} `json:"properties"`
	Links []wireLink `json:"links"`
}

// ParseNotification turns one inbound feed message into a normalized
// Notification. Fields the payload omits default to the "N/A" sentinel;
// only an unparseable payload is an error.
func ParseNotification(topic string, payload []byte) (models.Notification, error) {
	var msg wireMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return models.Notification{}, apperrors.Wrap(
			fmt.Errorf("unmarshal feed payload: %w", err),
			apperrors.ErrParse,
		)
	}

	return models.Notification{
		Topic:                  normalizeTopic(topic),
		PublicationTimestamp:   orMissing(msg.Properties.PubTime),
		DataID:                 orMissing(msg.Properties.DataID),
		CanonicalURL:           orMissing(canonicalLink(msg.Links)),
		WigosStationIdentifier: orMissing(msg.Properties.WigosStationIdentifier),
	}, nil
}

func normalizeTopic(topic string) string {
	if match := topicPattern.FindString(topic); match != "" {
		return match
	}
	return constants.MissingValue
}

// canonicalLink returns the href of the first link whose relation is
// "canonical".
func canonicalLink(links []wireLink) string {
	for _, link := range links {
		if link.Rel == "canonical" {
			return link.Href
		}
	}
	return ""
}

func orMissing(s string) string {
	if s == "" {
		return constants.MissingValue
	}
	return s
}
