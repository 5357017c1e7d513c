package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ttani03/goth-dcim/internal/apperr"
	"github.com/ttani03/goth-dcim/internal/models"
)

type AssetParams struct {
	Name                  string
	AssetTag              string
	SerialNumber          string
	Model                 string
	Manufacturer          string
	HeightUnits           int
	PowerConsumptionWatts *int
	Status                models.AssetStatus
	CustomerID            string
	ProjectID             string
	Notes                 string

	// RackID and RackPosition place the asset on creation. Both or neither.
	RackID       string
	RackPosition int
}

func (p *AssetParams) normalize() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return apperr.Validation("asset name is required")
	}
	if p.HeightUnits == 0 {
		p.HeightUnits = 1
	}
	if p.HeightUnits < 1 {
		return apperr.Validation("asset height must be at least 1U, got %d", p.HeightUnits)
	}
	if p.Status == "" {
		p.Status = models.AssetActive
	}
	if !p.Status.Valid() {
		return apperr.Validation("unknown asset status %q", p.Status)
	}
	refs := []struct{ entity, id string }{
		{"customer", p.CustomerID},
		{"project", p.ProjectID},
		{"rack", p.RackID},
	}
	for _, ref := range refs {
		if ref.id == "" {
			continue
		}
		if err := checkID(ref.entity, ref.id); err != nil {
			return err
		}
	}
	if (p.RackID == "") != (p.RackPosition == 0) {
		return apperr.Validation("rack and rack position must be given together")
	}
	return nil
}

// AssetFilter narrows ListAssets. Zero values match everything.
type AssetFilter struct {
	Status     models.AssetStatus
	RackID     string
	CustomerID string
	Unracked   bool
}

const assetSelect = `
	SELECT a.id::text, a.name, a.asset_tag, a.serial_number, a.model, a.manufacturer,
		a.rack_id::text, r.name, a.rack_position, a.height_units, a.power_consumption_watts,
		a.status, a.customer_id::text, a.project_id::text, a.notes, a.created_at
	FROM assets a
	LEFT JOIN racks r ON r.id = a.rack_id`

func scanAsset(row pgx.Row) (models.Asset, error) {
	var a models.Asset
	err := row.Scan(&a.ID, &a.Name, &a.AssetTag, &a.SerialNumber, &a.Model, &a.Manufacturer,
		&a.RackID, &a.RackName, &a.RackPosition, &a.HeightUnits, &a.PowerConsumptionWatts,
		&a.Status, &a.CustomerID, &a.ProjectID, &a.Notes, &a.CreatedAt)
	return a, err
}

// CreateAsset adds an asset. When the params carry a rack and position the
// asset is placed in the same transaction; a placement that does not fit
// leaves no asset behind.
func (s *Service) CreateAsset(ctx context.Context, p AssetParams) (*models.Asset, error) {
	if err := p.normalize(); err != nil {
		return nil, err
	}

	var id string
	var placed placement
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO assets (name, asset_tag, serial_number, model, manufacturer, height_units,
				power_consumption_watts, status, customer_id, project_id, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id::text`,
			p.Name, optional(p.AssetTag), optional(p.SerialNumber), optional(p.Model), optional(p.Manufacturer),
			p.HeightUnits, p.PowerConsumptionWatts, string(p.Status), optional(p.CustomerID), optional(p.ProjectID),
			optional(p.Notes)).Scan(&id)
		if err != nil {
			return assetWriteError(err, p)
		}
		if p.RackID == "" {
			return nil
		}
		placed, err = placeAsset(ctx, tx, id, p.RackID, p.RackPosition, 0)
		return err
	})
	if err != nil {
		return nil, dbError(err, "create asset")
	}

	s.log.Info("asset created", "asset_id", id, "name", p.Name, "rack_id", p.RackID)
	s.record(ctx, Change{
		Table:       "assets",
		RecordID:    id,
		Action:      ActionInsert,
		Changes:     map[string]any{"after": map[string]any{"name": p.Name, "height_units": p.HeightUnits, "status": p.Status}},
		Description: fmt.Sprintf("Asset %s created", p.Name),
	})
	if p.RackID != "" {
		s.record(ctx, placed.change())
	}
	return s.GetAsset(ctx, id)
}

func assetWriteError(err error, p AssetParams) error {
	switch pgCode(err) {
	case codeUniqueViolation:
		return apperr.Conflict("asset tag %q is already in use", p.AssetTag)
	case codeForeignKeyViolation:
		if strings.Contains(pgConstraint(err), "project") {
			return apperr.NotFound("project", p.ProjectID)
		}
		return apperr.NotFound("customer", p.CustomerID)
	}
	return err
}

// UpdateAsset replaces an asset's attributes. With a rack and position the
// asset is moved or resized there under the rack lock, so a taller asset
// cannot grow into its neighbour; without them it leaves its rack.
func (s *Service) UpdateAsset(ctx context.Context, id string, p AssetParams) (*models.Asset, error) {
	if err := checkID("asset", id); err != nil {
		return nil, err
	}
	if err := p.normalize(); err != nil {
		return nil, err
	}
	racked := p.RackID != ""

	var before placement
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		if racked {
			before, err = placeAsset(ctx, tx, id, p.RackID, p.RackPosition, p.HeightUnits)
		} else {
			err = tx.QueryRow(ctx,
				"SELECT name, height_units, rack_id::text, rack_position FROM assets WHERE id = $1 FOR UPDATE", id).
				Scan(&before.assetName, &before.prevHeight, &before.prevRack, &before.prevPos)
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound("asset", id)
			}
		}
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE assets
			SET name = $2, asset_tag = $3, serial_number = $4, model = $5, manufacturer = $6, height_units = $7,
				power_consumption_watts = $8, status = $9, customer_id = $10, project_id = $11, notes = $12,
				rack_id = CASE WHEN $13 THEN rack_id END,
				rack_position = CASE WHEN $13 THEN rack_position END
			WHERE id = $1`,
			id, p.Name, optional(p.AssetTag), optional(p.SerialNumber), optional(p.Model), optional(p.Manufacturer),
			p.HeightUnits, p.PowerConsumptionWatts, string(p.Status), optional(p.CustomerID), optional(p.ProjectID),
			optional(p.Notes), racked)
		if err != nil {
			return assetWriteError(err, p)
		}
		return nil
	})
	if err != nil {
		return nil, dbError(err, "update asset")
	}

	var position *int
	if racked {
		position = &p.RackPosition
	}
	s.log.Info("asset updated", "asset_id", id, "name", p.Name, "rack_id", p.RackID, "height", p.HeightUnits)
	s.record(ctx, Change{
		Table:    "assets",
		RecordID: id,
		Action:   ActionUpdate,
		Changes: map[string]any{
			"before": map[string]any{"name": before.assetName, "height_units": before.prevHeight, "rack_id": before.prevRack, "rack_position": before.prevPos},
			"after":  map[string]any{"name": p.Name, "height_units": p.HeightUnits, "status": p.Status, "rack_id": optional(p.RackID), "rack_position": position},
		},
		Description: fmt.Sprintf("Asset %s updated", p.Name),
	})
	return s.GetAsset(ctx, id)
}

// GetAsset returns one asset with its rack name.
func (s *Service) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	if err := checkID("asset", id); err != nil {
		return nil, err
	}
	a, err := scanAsset(s.db.QueryRow(ctx, assetSelect+" WHERE a.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("asset", id)
		}
		return nil, dbError(err, "get asset")
	}
	return &a, nil
}

// ListAssets returns assets matching f. Assets in a rack are ordered by
// position, the rest by name.
func (s *Service) ListAssets(ctx context.Context, f AssetFilter) ([]models.Asset, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("unknown asset status %q", f.Status)
	}
	if f.RackID != "" {
		if err := checkID("rack", f.RackID); err != nil {
			return nil, err
		}
	}
	if f.CustomerID != "" {
		if err := checkID("customer", f.CustomerID); err != nil {
			return nil, err
		}
	}
	rows, err := s.db.Query(ctx, assetSelect+`
		WHERE ($1 = '' OR a.status = $1)
			AND ($2 = '' OR a.rack_id::text = $2)
			AND (NOT $3 OR a.rack_id IS NULL)
			AND ($4 = '' OR a.customer_id::text = $4)
		ORDER BY r.name NULLS LAST, a.rack_position NULLS LAST, a.name`,
		string(f.Status), f.RackID, f.Unracked, f.CustomerID)
	if err != nil {
		return nil, dbError(err, "list assets")
	}
	assets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Asset, error) {
		return scanAsset(row)
	})
	if err != nil {
		return nil, dbError(err, "list assets")
	}
	return assets, nil
}

// ListUnrackedAssets returns active assets that are not in any rack; these
// are the candidates offered for placement.
func (s *Service) ListUnrackedAssets(ctx context.Context) ([]models.Asset, error) {
	return s.ListAssets(ctx, AssetFilter{Status: models.AssetActive, Unracked: true})
}

// AssetAddresses returns the addresses assigned to an asset.
func (s *Service) AssetAddresses(ctx context.Context, assetID string) ([]models.AddressRecord, error) {
	if err := checkID("asset", assetID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, addressSelect+" WHERE a.asset_id = $1 ORDER BY a.ip_address::inet", assetID)
	if err != nil {
		return nil, dbError(err, "list asset addresses")
	}
	addrs, err := collectAddresses(rows)
	if err != nil {
		return nil, dbError(err, "list asset addresses")
	}
	return addrs, nil
}

// DeleteAsset removes an asset. Addresses assigned to it go back to
// available in the same transaction.
func (s *Service) DeleteAsset(ctx context.Context, id string) error {
	if err := checkID("asset", id); err != nil {
		return err
	}

	var name string
	var released []string
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, "SELECT name FROM assets WHERE id = $1 FOR UPDATE", id).Scan(&name); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound("asset", id)
			}
			return err
		}
		rows, err := tx.Query(ctx, `
			UPDATE ip_addresses
			SET status = 'available', asset_id = NULL, hostname = NULL, assignment_date = NULL
			WHERE asset_id = $1 AND status = 'assigned'
			RETURNING id::text`, id)
		if err != nil {
			return err
		}
		if released, err = pgx.CollectRows(rows, pgx.RowTo[string]); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, "DELETE FROM assets WHERE id = $1", id)
		return err
	})
	if err != nil {
		return dbError(err, "delete asset")
	}

	s.log.Info("asset deleted", "asset_id", id, "name", name, "released_addresses", len(released))
	for _, addrID := range released {
		s.record(ctx, Change{
			Table:       "ip_addresses",
			RecordID:    addrID,
			Action:      ActionUpdate,
			Changes:     map[string]any{"before": map[string]any{"status": models.AddressAssigned, "asset_id": id}, "after": map[string]any{"status": models.AddressAvailable}},
			Description: fmt.Sprintf("IP address released from deleted asset %s", name),
		})
	}
	s.record(ctx, Change{
		Table:       "assets",
		RecordID:    id,
		Action:      ActionDelete,
		Changes:     map[string]any{"before": map[string]any{"name": name}},
		Description: fmt.Sprintf("Asset %s deleted", name),
	})
	return nil
}
