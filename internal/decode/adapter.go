package decode

import (
	"context"
	"errors"
	"io"

	"synoptic/internal/logger"
	apperrors "synoptic/pkg/errors"
	"synoptic/pkg/metrics"
	"synoptic/pkg/models"
)

// Sentinels the codec uses for absent values, normalized to nil.
const (
	missingLong   = float64(2147483647)
	missingDouble = -1.0e100
)

// Adapter extracts the configured keys from every sub-message of an
// artifact. Decoding the same file twice yields field-for-field identical
// output.
type Adapter struct {
	codec  Codec
	keys   []string
	logger logger.Logger
}

func NewAdapter(codec Codec, requiredKeys, additionalKeys []string, log logger.Logger) *Adapter {
	keys := make([]string, 0, len(requiredKeys)+len(additionalKeys))
	keys = append(keys, requiredKeys...)
	keys = append(keys, additionalKeys...)
	return &Adapter{
		codec:  codec,
		keys:   keys,
		logger: log,
	}
}

// DecodeFile returns one DecodedRecord per sub-message, in artifact order,
// with MessageNumber set to the sub-message's position. A failure opening
// the file or decoding the first sub-message is a decode error; a later
// sub-message failing is logged and skipped, the rest of the artifact
// still decodes.
func (a *Adapter) DecodeFile(ctx context.Context, path string) ([]models.DecodedRecord, error) {
	iter, err := a.codec.Open(ctx, path)
	if err != nil {
		metrics.DecodeErrorsTotal.WithLabelValues("open").Inc()
		return nil, apperrors.Wrap(err, apperrors.ErrDecode)
	}
	defer iter.Close()

	var records []models.DecodedRecord

	for messageNumber := 0; ; messageNumber++ {
		fields, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			metrics.DecodeErrorsTotal.WithLabelValues("message").Inc()
			if messageNumber == 0 {
				return nil, apperrors.Wrap(err, apperrors.ErrDecode)
			}
			a.logger.ErrorwCtx(ctx, "skipping undecodable sub-message",
				"error", err,
				"path", path,
				"message_number", messageNumber,
			)
			continue
		}

		records = append(records, models.DecodedRecord{
			MessageNumber: messageNumber,
			Fields:        a.extract(fields),
		})
	}

	return records, nil
}

// extract picks the configured keys out of the raw field map. Keys the
// codec did not report, or reported as its missing sentinel, are stored as
// nil rather than omitted.
func (a *Adapter) extract(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(a.keys))
	for _, key := range a.keys {
		value, ok := fields[key]
		if !ok || isMissing(value) {
			out[key] = nil
			continue
		}
		out[key] = value
	}
	return out
}

func isMissing(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case float64:
		return v == missingLong || v == missingDouble
	default:
		return false
	}
}
