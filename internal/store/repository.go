package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/lib/pq"

	"synoptic/internal/logger"
	apperrors "synoptic/pkg/errors"
	"synoptic/pkg/models"
)

// Repository persists notifications and decoded records. Connections come
// from the database/sql pool and are returned on every exit path.
//
// The two inserts are deliberately not one transaction: a message row with
// zero bufr rows is a valid, documented state (the artifact is best-effort
// enrichment), and a failure partway through InsertDecodedRecords keeps
// the rows already written.
type Repository struct {
	db           *sql.DB
	requiredKeys []string
	logger       logger.Logger
}

func NewRepository(db *sql.DB, requiredKeys []string, log logger.Logger) *Repository {
	return &Repository{
		db:           db,
		requiredKeys: requiredKeys,
		logger:       log,
	}
}

// InsertNotification writes one message row and returns the generated
// identifier. An unparseable publication timestamp is stored as NULL so a
// sentinel-bearing notification still persists.
func (r *Repository) InsertNotification(ctx context.Context, n models.Notification) (int64, error) {
	query := `
		INSERT INTO message (topic, publication_timestamp, data_id, canonical_url, wigos_station_identifier)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var pubTime interface{}
	if t, err := n.PublicationTime(); err == nil {
		pubTime = t.UTC()
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		n.Topic,
		pubTime,
		n.DataID,
		n.CanonicalURL,
		n.WigosStationIdentifier,
	).Scan(&id)
	if err != nil {
		return 0, apperrors.Wrap(fmt.Errorf("insert message: %w", err), apperrors.ErrPersistence)
	}

	return id, nil
}

// InsertDecodedRecords writes one bufr row per record. Each required key
// maps to its own typed column; the complete field set is also serialized
// into raw_data so codec schema drift never loses data.
func (r *Repository) InsertDecodedRecords(ctx context.Context, notificationID int64, records []models.DecodedRecord) error {
	if notificationID == 0 {
		return apperrors.Wrap(
			fmt.Errorf("notification id must not be zero"),
			apperrors.ErrValidation,
		)
	}

	query := r.buildRecordInsert()

	for _, record := range records {
		rawData, err := json.Marshal(record.Fields)
		if err != nil {
			return apperrors.Wrap(fmt.Errorf("marshal raw_data: %w", err), apperrors.ErrPersistence)
		}

		args := make([]interface{}, 0, len(r.requiredKeys)+3)
		args = append(args, notificationID, record.MessageNumber)
		for _, key := range r.requiredKeys {
			args = append(args, record.Fields[key])
		}
		args = append(args, string(rawData))

		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return apperrors.Wrap(
				fmt.Errorf("insert bufr record %d: %w", record.MessageNumber, err),
				apperrors.ErrPersistence,
			)
		}
	}

	return nil
}

func (r *Repository) buildRecordInsert() string {
	columns := []string{"message_id", "message_number"}
	for _, key := range r.requiredKeys {
		columns = append(columns, pq.QuoteIdentifier(camelToSnake(key)))
	}
	columns = append(columns, "raw_data")

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	return fmt.Sprintf(
		"INSERT INTO bufr (%s) VALUES (%s)",
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)
}

func camelToSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
