// Package inventory implements the data-center inventory operations on top of
// PostgreSQL: IP pools and their allocation ledger, rack placement, and the
// CRUD around data centers, racks, assets, customers and projects.
//
// Every state transition is a single conditional write or a single
// transaction, so concurrent callers cannot both win the same address or the
// same rack units. Failures are *apperr.Error values; an operation that fails
// leaves no partial writes behind.
package inventory

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ttani03/goth-dcim/internal/apperr"
	"github.com/ttani03/goth-dcim/internal/config"
	"github.com/ttani03/goth-dcim/internal/logging"
)

// PostgreSQL error codes mapped to error kinds.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Options struct {
	// BatchSize is the number of address rows copied per batch when a pool
	// is seeded. Defaults to config.DefaultAddressBatchSize.
	BatchSize int
	// Audit receives change entries. Defaults to the change_logs table.
	Audit  AuditSink
	Logger *slog.Logger
}

type Service struct {
	db        *pgxpool.Pool
	audit     AuditSink
	log       *slog.Logger
	batchSize int
}

func New(db *pgxpool.Pool, opts Options) *Service {
	s := &Service{
		db:        db,
		audit:     opts.Audit,
		log:       logging.For(opts.Logger, "inventory"),
		batchSize: opts.BatchSize,
	}
	if s.audit == nil {
		s.audit = NewChangeLog(db)
	}
	if s.batchSize < 1 {
		s.batchSize = config.DefaultAddressBatchSize
	}
	return s
}

// checkID rejects ids that are not UUIDs before they reach a query; such an
// id can never match a row.
func checkID(entity, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.NotFound(entity, id)
	}
	return nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func pgConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// dbError wraps an unexpected database failure. Errors that already carry a
// kind pass through unchanged.
func dbError(err error, op string) error {
	if apperr.KindOf(err) != apperr.KindInternal {
		return err
	}
	return apperr.Wrap(apperr.KindInternal, err, "%s", op)
}

// optional maps an empty string to SQL NULL.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
