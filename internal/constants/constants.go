package constants

import "time"

// Sentinel stored for any notification field absent from the feed payload.
const MissingValue = "N/A"

const (
	// DefaultTopicFilter matches core synoptic surface observation
	// notifications from every WIS2 centre.
	DefaultTopicFilter = "cache/a/wis2/+/+/+/core/+/surface-based-observations/synop"

	DefaultMQTTPort              = 8883
	DefaultMQTTKeepAlive         = 60 * time.Second
	DefaultMQTTConnectTimeout    = 30 * time.Second
	DefaultMQTTDisconnectQuiesce = 250 * time.Millisecond
)

const (
	DefaultBatchSize      = 50
	DefaultFlushInterval  = 5 * time.Second
	DefaultPollInterval   = 1 * time.Second
	DefaultMaxWorkers     = 4
	DefaultPendingBatches = 16
)

const (
	DefaultHTTPTimeout = 10 * time.Second
	ShutdownTimeout    = 5 * time.Second
)

// Artifact URLs with these suffixes announce imagery, not BUFR bundles.
var DefaultDisallowedExtensions = []string{".png", ".jpeg", ".jpg"}

// DefaultRequiredKeys are the temporal and station-identity BUFR keys that
// get their own typed columns; everything else rides in raw_data.
var DefaultRequiredKeys = []string{
	"typicalYear",
	"typicalMonth",
	"typicalDay",
	"typicalHour",
	"typicalMinute",
	"blockNumber",
	"stationNumber",
}

const (
	DefaultJiraIssueType = "Bug"
	DefaultMonitorCentre = "ma-marocmeteo-global-monitor"
)
