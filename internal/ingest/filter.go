package ingest

import (
	"strings"

	"synoptic/pkg/models"
)

// Drop reasons reported by the filter, used as metric labels.
const (
	DropReasonBlacklist = "blacklist"
	DropReasonExtension = "extension"
)

// FilterPolicy decides whether a notification enters the pipeline. It is a
// pure predicate: rejected notifications are counted and forgotten, never
// fetched or persisted.
type FilterPolicy struct {
	blacklist  []string
	extensions []string
}

func NewFilterPolicy(blacklist, disallowedExtensions []string) *FilterPolicy {
	extensions := make([]string, len(disallowedExtensions))
	for i, ext := range disallowedExtensions {
		extensions[i] = strings.ToLower(ext)
	}
	return &FilterPolicy{
		blacklist:  blacklist,
		extensions: extensions,
	}
}

// Admit returns true if the notification passes, or false plus the drop
// reason.
func (f *FilterPolicy) Admit(n models.Notification) (bool, string) {
	for _, entry := range f.blacklist {
		if entry != "" && strings.Contains(n.DataID, entry) {
			return false, DropReasonBlacklist
		}
	}

	lowerURL := strings.ToLower(n.CanonicalURL)
	for _, ext := range f.extensions {
		if ext != "" && strings.HasSuffix(lowerURL, ext) {
			return false, DropReasonExtension
		}
	}

	return true, ""
}
