package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ttani03/goth-dcim/internal/apperr"
	"github.com/ttani03/goth-dcim/internal/models"
)

// AssignRequest binds an address to a consumer. Both fields are optional.
type AssignRequest struct {
	AssetID  string
	Hostname string
}

// returningAddress re-reads the updated row with its asset name joined in.
const returningAddress = `
	SELECT ` + addressColumns + `
	FROM updated a LEFT JOIN assets s ON s.id = a.asset_id`

// transitionError explains why a conditional update matched no row: the
// address is either missing or not in a state the transition accepts.
func (s *Service) transitionError(ctx context.Context, id, op string) error {
	var addr string
	var status models.AddressStatus
	err := s.db.QueryRow(ctx, "SELECT ip_address, status FROM ip_addresses WHERE id = $1", id).Scan(&addr, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("address", id)
		}
		return dbError(err, op)
	}
	e := apperr.Conflict("cannot %s %s: address is %s", op, addr, status)
	e.Subject = addr
	return e
}

// AssignAddress marks an available address as assigned. The update is
// conditional on the address still being available, so of two concurrent
// callers exactly one succeeds and the other gets a conflict error.
func (s *Service) AssignAddress(ctx context.Context, id string, req AssignRequest) (*models.AddressRecord, error) {
	if err := checkID("address", id); err != nil {
		return nil, err
	}
	if req.AssetID != "" {
		if err := checkID("asset", req.AssetID); err != nil {
			return nil, err
		}
	}

	rec, err := scanAddress(s.db.QueryRow(ctx, `
		WITH updated AS (
			UPDATE ip_addresses
			SET status = 'assigned', asset_id = $2, hostname = $3, assignment_date = now()
			WHERE id = $1 AND status = 'available'
			RETURNING *
		)`+returningAddress,
		id, optional(req.AssetID), optional(req.Hostname)))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, s.transitionError(ctx, id, "assign")
		case pgCode(err) == codeForeignKeyViolation:
			return nil, apperr.NotFound("asset", req.AssetID)
		}
		return nil, dbError(err, "assign address")
	}

	s.log.Info("address assigned", "address_id", id, "ip", rec.Address, "asset_id", req.AssetID, "hostname", req.Hostname)
	target := deref(rec.Hostname)
	if target == "" {
		target = "asset"
	}
	s.record(ctx, Change{
		Table:    "ip_addresses",
		RecordID: id,
		Action:   ActionUpdate,
		Changes: map[string]any{
			"before": map[string]any{"status": models.AddressAvailable},
			"after":  map[string]any{"status": rec.Status, "asset_id": deref(rec.AssetID), "hostname": deref(rec.Hostname)},
		},
		Description: fmt.Sprintf("IP address %s assigned to %s", rec.Address, target),
	})
	return &rec, nil
}

// ReleaseAddress returns an assigned or reserved address to available,
// clearing its consumer, hostname and assignment time. The reservation note
// is cleared too when the address was reserved. Releasing an address that is
// already available is a no-op; a blocked address cannot be released.
func (s *Service) ReleaseAddress(ctx context.Context, id string) (*models.AddressRecord, error) {
	if err := checkID("address", id); err != nil {
		return nil, err
	}

	var before models.AddressRecord
	var rec models.AddressRecord
	changed := false
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		before, err = scanAddress(tx.QueryRow(ctx, addressSelect+" WHERE a.id = $1 FOR UPDATE OF a", id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound("address", id)
			}
			return err
		}

		switch before.Status {
		case models.AddressAvailable:
			rec = before
			return nil
		case models.AddressBlocked:
			e := apperr.Conflict("cannot release %s: address is blocked", before.Address)
			e.Subject = before.Address
			return e
		}

		rec, err = scanAddress(tx.QueryRow(ctx, `
			WITH updated AS (
				UPDATE ip_addresses
				SET status = 'available', asset_id = NULL, hostname = NULL, assignment_date = NULL,
					notes = CASE WHEN status = 'reserved' THEN NULL ELSE notes END
				WHERE id = $1
				RETURNING *
			)`+returningAddress, id))
		changed = err == nil
		return err
	})
	if err != nil {
		return nil, dbError(err, "release address")
	}
	if !changed {
		return &rec, nil
	}

	s.log.Info("address released", "address_id", id, "ip", rec.Address, "previous_status", before.Status)
	s.record(ctx, Change{
		Table:    "ip_addresses",
		RecordID: id,
		Action:   ActionUpdate,
		Changes: map[string]any{
			"before": map[string]any{"status": before.Status, "asset_id": deref(before.AssetID), "hostname": deref(before.Hostname)},
			"after":  map[string]any{"status": rec.Status, "asset_id": nil, "hostname": nil},
		},
		Description: fmt.Sprintf("IP address %s released", rec.Address),
	})
	return &rec, nil
}

// ReserveAddress reserves an available address. The reason is required and
// stored as the address note.
func (s *Service) ReserveAddress(ctx context.Context, id, reason string) (*models.AddressRecord, error) {
	if err := checkID("address", id); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation("a reason is required to reserve an address")
	}

	rec, err := scanAddress(s.db.QueryRow(ctx, `
		WITH updated AS (
			UPDATE ip_addresses SET status = 'reserved', notes = $2
			WHERE id = $1 AND status = 'available'
			RETURNING *
		)`+returningAddress, id, reason))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.transitionError(ctx, id, "reserve")
		}
		return nil, dbError(err, "reserve address")
	}

	s.log.Info("address reserved", "address_id", id, "ip", rec.Address)
	s.record(ctx, Change{
		Table:    "ip_addresses",
		RecordID: id,
		Action:   ActionUpdate,
		Changes: map[string]any{
			"before": map[string]any{"status": models.AddressAvailable},
			"after":  map[string]any{"status": rec.Status, "notes": reason},
		},
		Description: fmt.Sprintf("IP address %s reserved: %s", rec.Address, reason),
	})
	return &rec, nil
}

func parseIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, apperr.Validation("no addresses selected")
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return nil, apperr.Validation("invalid address id %q", id)
		}
		out = append(out, id)
	}
	return out, nil
}

// BlockAddresses takes available or reserved addresses of a pool out of
// circulation. Addresses in other states are skipped. It returns the number
// of addresses blocked.
func (s *Service) BlockAddresses(ctx context.Context, poolID string, ids []string, reason string) (int, error) {
	return s.bulkTransition(ctx, poolID, ids, bulkBlock, strings.TrimSpace(reason))
}

// UnblockAddresses returns blocked addresses of a pool to available.
func (s *Service) UnblockAddresses(ctx context.Context, poolID string, ids []string) (int, error) {
	return s.bulkTransition(ctx, poolID, ids, bulkUnblock, "")
}

type bulkOp struct {
	verb string
	sql  string
	from []models.AddressStatus
	to   models.AddressStatus
}

var (
	bulkBlock = bulkOp{
		verb: "blocked",
		sql: `UPDATE ip_addresses SET status = 'blocked', notes = COALESCE($3, notes)
			WHERE pool_id = $1 AND id = ANY($2::uuid[]) AND status IN ('available', 'reserved')
			RETURNING id::text, ip_address`,
		from: []models.AddressStatus{models.AddressAvailable, models.AddressReserved},
		to:   models.AddressBlocked,
	}
	bulkUnblock = bulkOp{
		verb: "unblocked",
		sql: `UPDATE ip_addresses SET status = 'available', notes = $3
			WHERE pool_id = $1 AND id = ANY($2::uuid[]) AND status = 'blocked'
			RETURNING id::text, ip_address`,
		from: []models.AddressStatus{models.AddressBlocked},
		to:   models.AddressAvailable,
	}
)

func (s *Service) bulkTransition(ctx context.Context, poolID string, ids []string, op bulkOp, reason string) (int, error) {
	if err := checkID("pool", poolID); err != nil {
		return 0, err
	}
	ids, err := parseIDs(ids)
	if err != nil {
		return 0, err
	}
	if _, err := s.getPool(ctx, poolID); err != nil {
		return 0, err
	}

	rows, err := s.db.Query(ctx, op.sql, poolID, ids, optional(reason))
	if err != nil {
		return 0, dbError(err, "update address status")
	}
	type changed struct{ id, addr string }
	updated, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (changed, error) {
		var c changed
		err := row.Scan(&c.id, &c.addr)
		return c, err
	})
	if err != nil {
		return 0, dbError(err, "update address status")
	}

	s.log.Info("address status updated", "pool_id", poolID, "status", op.to, "requested", len(ids), "changed", len(updated))
	for _, c := range updated {
		desc := fmt.Sprintf("IP address %s %s", c.addr, op.verb)
		if reason != "" {
			desc += ": " + reason
		}
		s.record(ctx, Change{
			Table:       "ip_addresses",
			RecordID:    c.id,
			Action:      ActionUpdate,
			Changes:     map[string]any{"before": map[string]any{"status": op.from}, "after": map[string]any{"status": op.to}},
			Description: desc,
		})
	}
	return len(updated), nil
}
