package models

import (
	"time"
)

// Notification is one observation-availability event taken off the feed.
// All fields are populated at parse time, with "N/A" standing in for
// anything the payload omitted; the struct is never mutated afterwards.
type Notification struct {
	Topic                  string `json:"topic"`
	PublicationTimestamp   string `json:"publication_timestamp"`
	DataID                 string `json:"data_id"`
	CanonicalURL           string `json:"canonical_url"`
	WigosStationIdentifier string `json:"wigos_station_identifier"`
}

// PublicationTime parses the publication timestamp, which arrives as
// RFC 3339 with or without fractional seconds.
func (n Notification) PublicationTime() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, n.PublicationTimestamp)
}

// DecodedRecord is one embedded sub-message extracted from a downloaded
// artifact. Fields holds every configured key verbatim; keys the codec
// reported as missing are present with a nil value, never omitted.
type DecodedRecord struct {
	MessageNumber int                    `json:"message_number"`
	Fields        map[string]interface{} `json:"fields"`
}

// Batch is an ordered snapshot of notifications handed to exactly one
// worker invocation. It is never shared after the hand-off.
type Batch []Notification
