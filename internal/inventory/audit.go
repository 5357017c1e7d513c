package inventory

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ttani03/goth-dcim/internal/models"
)

const (
	ActionInsert = "INSERT"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// auditTimeout bounds a change-log write that outlives its request.
const auditTimeout = 5 * time.Second

// Change is one audit entry. Changes holds a before/after summary.
type Change struct {
	Table       string
	RecordID    string
	Action      string
	Changes     map[string]any
	Description string
}

// AuditSink is an append-only destination for change entries.
type AuditSink interface {
	Append(ctx context.Context, c Change) error
}

// ChangeLog appends entries to the change_logs table.
type ChangeLog struct {
	db *pgxpool.Pool
}

func NewChangeLog(db *pgxpool.Pool) *ChangeLog {
	return &ChangeLog{db: db}
}

func (l *ChangeLog) Append(ctx context.Context, c Change) error {
	changes := c.Changes
	if changes == nil {
		changes = map[string]any{}
	}
	_, err := l.db.Exec(ctx,
		"INSERT INTO change_logs (table_name, record_id, action, changes, description) VALUES ($1, $2, $3, $4, $5)",
		c.Table, c.RecordID, c.Action, changes, c.Description)
	return err
}

// record appends c to the audit sink. Audit is best-effort: a failed append
// is logged and never fails the operation that produced it.
func (s *Service) record(ctx context.Context, c Change) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	if err := s.audit.Append(ctx, c); err != nil {
		s.log.Warn("failed to append change log entry",
			"table", c.Table, "record_id", c.RecordID, "action", c.Action, "error", err)
	}
}

// ListChanges returns the newest change entries, optionally narrowed to one
// table and record. limit <= 0 means 100.
func (s *Service) ListChanges(ctx context.Context, table, recordID string, limit int) ([]models.ChangeEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, table_name, record_id, action, changes, description, created_at
		FROM change_logs
		WHERE ($1 = '' OR table_name = $1) AND ($2 = '' OR record_id = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3`, table, recordID, limit)
	if err != nil {
		return nil, dbError(err, "list change log")
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ChangeEntry, error) {
		var e models.ChangeEntry
		err := row.Scan(&e.ID, &e.TableName, &e.RecordID, &e.Action, &e.Changes, &e.Description, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, dbError(err, "list change log")
	}
	return entries, nil
}
