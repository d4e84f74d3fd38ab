// Package audit records the lifecycle history of logging pipeline
// instances in the audit_logs table.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Audit actions.
const (
	ActionChanged   = "configuration_changed"
	ActionReloaded  = "configuration_reloaded"
	ActionSuspended = "instance_suspended"
	ActionResumed   = "instance_resumed"
)

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Paging limits for List.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// Entry is a single audit trail row.
type Entry struct {
	ID            string         `json:"id"`
	Action        string         `json:"action"`
	Instance      string         `json:"instance"`
	Source        string         `json:"source"`
	Configuration string         `json:"configuration,omitempty"`
	Previous      string         `json:"previous,omitempty"`
	Succeeded     *bool          `json:"succeeded,omitempty"`
	Error         string         `json:"error,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Filter controls which entries List returns.
type Filter struct {
	Action   string // optional: one of the Action* constants
	Instance string // optional: instance name
	Limit    int    // default 50, max 200
	Offset   int
}

// ListResult is one page of entries.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository stores and queries audit entries.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository implements Repository over SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on db. The audit_logs table
// must exist (see the migrations package).
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts entry. ID and CreatedAt are filled in when empty.
func (r *SQLiteRepository) Create(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		entry.ID = "aud-" + uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var detailsJSON *string
	if entry.Details != nil {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshalling audit details: %w", err)
		}
		s := string(b)
		detailsJSON = &s
	}

	var succeeded any
	if entry.Succeeded != nil {
		if *entry.Succeeded {
			succeeded = 1
		} else {
			succeeded = 0
		}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, action, instance, source, configuration, previous, succeeded, error, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Action, entry.Instance, entry.Source,
		nullableString(entry.Configuration), nullableString(entry.Previous),
		succeeded, nullableString(entry.Error), detailsJSON,
		entry.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// nullableString maps "" to SQL NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns entries matching filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any

	if filter.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, filter.Action)
	}
	if filter.Instance != "" {
		conditions = append(conditions, "instance = ?")
		args = append(args, filter.Instance)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM audit_logs " + where //nolint:gosec // WHERE built from parameterised conditions
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting audit entries: %w", err)
	}

	query := "SELECT id, action, instance, source, configuration, previous, succeeded, error, details, created_at FROM audit_logs " + //nolint:gosec // WHERE built from parameterised conditions
		where + " ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var entry Entry
	var configuration, previous, errText, detailsJSON sql.NullString
	var succeeded sql.NullInt64
	var createdAt string

	if err := rows.Scan(&entry.ID, &entry.Action, &entry.Instance, &entry.Source,
		&configuration, &previous, &succeeded, &errText, &detailsJSON, &createdAt); err != nil {
		return Entry{}, fmt.Errorf("scanning audit entry: %w", err)
	}

	entry.Configuration = configuration.String
	entry.Previous = previous.String
	entry.Error = errText.String
	if succeeded.Valid {
		ok := succeeded.Int64 == 1
		entry.Succeeded = &ok
	}
	if detailsJSON.Valid && detailsJSON.String != "" {
		var details map[string]any
		if json.Unmarshal([]byte(detailsJSON.String), &details) == nil {
			entry.Details = details
		}
	}

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing audit timestamp %q: %w", createdAt, err)
	}
	entry.CreatedAt = t

	return entry, nil
}
