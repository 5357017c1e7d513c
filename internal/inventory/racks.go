package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ttani03/goth-dcim/internal/apperr"
	"github.com/ttani03/goth-dcim/internal/models"
	"github.com/ttani03/goth-dcim/internal/rack"
)

// DefaultRackHeight is the height of a rack created without one.
const DefaultRackHeight = 42

type RackParams struct {
	Name               string
	DataCenterID       string
	RowPosition        string
	ColumnPosition     string
	HeightUnits        int
	PowerCapacityWatts *int
	WeightCapacityKG   *float64
	Status             models.RackStatus
}

func (p *RackParams) normalize() error {
	p.Name = strings.TrimSpace(p.Name)
	p.RowPosition = strings.TrimSpace(p.RowPosition)
	p.ColumnPosition = strings.TrimSpace(p.ColumnPosition)
	if p.Name == "" {
		return apperr.Validation("rack name is required")
	}
	if p.RowPosition == "" || p.ColumnPosition == "" {
		return apperr.Validation("rack row and column positions are required")
	}
	if p.HeightUnits == 0 {
		p.HeightUnits = DefaultRackHeight
	}
	if p.HeightUnits < 1 {
		return apperr.Validation("rack height must be at least 1U, got %d", p.HeightUnits)
	}
	if p.Status == "" {
		p.Status = models.RackAvailable
	}
	if !p.Status.Valid() {
		return apperr.Validation("unknown rack status %q", p.Status)
	}
	return checkID("data center", p.DataCenterID)
}

// RackView is a rack with everything placed in it.
type RackView struct {
	models.RackSummary
	Assets []models.Asset
	Spans  []rack.Span
	Free   []rack.UnitRange
	// Layout maps each unit to its occupant; see rack.Layout.
	Layout []*rack.Span
}

const rackColumns = `r.id::text, r.name, r.data_center_id::text, d.name, r.row_position, r.column_position,
	r.height_units, r.power_capacity_watts, r.weight_capacity_kg, r.status, r.created_at`

func scanRack(row pgx.Row, extra ...any) (models.Rack, error) {
	var r models.Rack
	dest := append([]any{&r.ID, &r.Name, &r.DataCenterID, &r.DataCenterName, &r.RowPosition, &r.ColumnPosition,
		&r.HeightUnits, &r.PowerCapacityWatts, &r.WeightCapacityKG, &r.Status, &r.CreatedAt}, extra...)
	err := row.Scan(dest...)
	return r, err
}

// CreateRack adds a rack to a data center. Only one rack may stand at a given
// row and column of a data center.
func (s *Service) CreateRack(ctx context.Context, p RackParams) (*models.Rack, error) {
	if err := p.normalize(); err != nil {
		return nil, err
	}

	r, err := scanRack(s.db.QueryRow(ctx, `
		WITH r AS (
			INSERT INTO racks (name, data_center_id, row_position, column_position, height_units,
				power_capacity_watts, weight_capacity_kg, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING *
		)
		SELECT `+rackColumns+` FROM r JOIN data_centers d ON d.id = r.data_center_id`,
		p.Name, p.DataCenterID, p.RowPosition, p.ColumnPosition, p.HeightUnits,
		p.PowerCapacityWatts, p.WeightCapacityKG, string(p.Status)))
	if err != nil {
		switch pgCode(err) {
		case codeUniqueViolation:
			return nil, apperr.Conflict("a rack already exists at row %s, column %s", p.RowPosition, p.ColumnPosition)
		case codeForeignKeyViolation:
			return nil, apperr.NotFound("data center", p.DataCenterID)
		}
		return nil, dbError(err, "create rack")
	}

	s.log.Info("rack created", "rack_id", r.ID, "name", r.Name, "data_center_id", r.DataCenterID)
	s.record(ctx, Change{
		Table:       "racks",
		RecordID:    r.ID,
		Action:      ActionInsert,
		Changes:     map[string]any{"after": map[string]any{"name": r.Name, "height_units": r.HeightUnits, "row": r.RowPosition, "column": r.ColumnPosition}},
		Description: fmt.Sprintf("Rack %s created", r.Name),
	})
	return &r, nil
}

// UpdateRack replaces a rack's attributes. The rack row stays locked while
// its placed assets are checked, so a rack cannot be shrunk below an asset
// that is being placed concurrently.
func (s *Service) UpdateRack(ctx context.Context, id string, p RackParams) (*models.Rack, error) {
	if err := checkID("rack", id); err != nil {
		return nil, err
	}
	if err := p.normalize(); err != nil {
		return nil, err
	}

	var before models.Rack
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		before, err = scanRack(tx.QueryRow(ctx, "SELECT "+rackColumns+`
			FROM racks r JOIN data_centers d ON d.id = r.data_center_id
			WHERE r.id = $1 FOR UPDATE OF r`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound("rack", id)
			}
			return err
		}

		if p.HeightUnits < before.HeightUnits {
			occupied, err := occupiedSpans(ctx, tx, id, "")
			if err != nil {
				return err
			}
			if err := rack.CheckHeight(p.HeightUnits, occupied); err != nil {
				return err
			}
		}

		_, err = tx.Exec(ctx, `
			UPDATE racks
			SET name = $2, data_center_id = $3, row_position = $4, column_position = $5, height_units = $6,
				power_capacity_watts = $7, weight_capacity_kg = $8, status = $9
			WHERE id = $1`,
			id, p.Name, p.DataCenterID, p.RowPosition, p.ColumnPosition, p.HeightUnits,
			p.PowerCapacityWatts, p.WeightCapacityKG, string(p.Status))
		switch pgCode(err) {
		case codeUniqueViolation:
			return apperr.Conflict("a rack already exists at row %s, column %s", p.RowPosition, p.ColumnPosition)
		case codeForeignKeyViolation:
			return apperr.NotFound("data center", p.DataCenterID)
		}
		return err
	})
	if err != nil {
		return nil, dbError(err, "update rack")
	}

	r, err := scanRack(s.db.QueryRow(ctx, "SELECT "+rackColumns+`
		FROM racks r JOIN data_centers d ON d.id = r.data_center_id
		WHERE r.id = $1`, id))
	if err != nil {
		return nil, dbError(err, "update rack")
	}

	s.log.Info("rack updated", "rack_id", id, "name", r.Name, "height_units", r.HeightUnits)
	s.record(ctx, Change{
		Table:    "racks",
		RecordID: id,
		Action:   ActionUpdate,
		Changes: map[string]any{
			"before": map[string]any{"name": before.Name, "height_units": before.HeightUnits, "status": before.Status, "row": before.RowPosition, "column": before.ColumnPosition},
			"after":  map[string]any{"name": r.Name, "height_units": r.HeightUnits, "status": r.Status, "row": r.RowPosition, "column": r.ColumnPosition},
		},
		Description: fmt.Sprintf("Rack %s updated", r.Name),
	})
	return &r, nil
}

// rackSummarySelect counts every asset in the rack except decommissioned
// ones towards its used units.
const rackSummarySelect = `
	SELECT ` + rackColumns + `,
		COALESCE(sum(a.height_units) FILTER (WHERE a.status <> 'decommissioned'), 0),
		count(a.id)
	FROM racks r
	JOIN data_centers d ON d.id = r.data_center_id
	LEFT JOIN assets a ON a.rack_id = r.id`

func scanRackSummary(row pgx.Row) (models.RackSummary, error) {
	var rs models.RackSummary
	r, err := scanRack(row, &rs.UsedUnits, &rs.AssetCount)
	rs.Rack = r
	return rs, err
}

// ListRacks returns racks with their unit usage, optionally only those of
// one data center.
func (s *Service) ListRacks(ctx context.Context, dataCenterID string) ([]models.RackSummary, error) {
	if dataCenterID != "" {
		if err := checkID("data center", dataCenterID); err != nil {
			return nil, err
		}
	}
	rows, err := s.db.Query(ctx, rackSummarySelect+`
		WHERE ($1 = '' OR r.data_center_id::text = $1)
		GROUP BY r.id, d.name
		ORDER BY d.name, r.name`, dataCenterID)
	if err != nil {
		return nil, dbError(err, "list racks")
	}
	racks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.RackSummary, error) {
		return scanRackSummary(row)
	})
	if err != nil {
		return nil, dbError(err, "list racks")
	}
	return racks, nil
}

// GetRack returns a rack with its placed assets, free unit ranges and
// unit-by-unit layout.
func (s *Service) GetRack(ctx context.Context, id string) (*RackView, error) {
	if err := checkID("rack", id); err != nil {
		return nil, err
	}
	summary, err := scanRackSummary(s.db.QueryRow(ctx, rackSummarySelect+" WHERE r.id = $1 GROUP BY r.id, d.name", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("rack", id)
		}
		return nil, dbError(err, "get rack")
	}

	assets, err := s.ListAssets(ctx, AssetFilter{RackID: id})
	if err != nil {
		return nil, err
	}
	spans := spansOf(assets)

	return &RackView{
		RackSummary: summary,
		Assets:      assets,
		Spans:       spans,
		Free:        rack.FreeRanges(summary.HeightUnits, spans),
		Layout:      rack.Layout(summary.HeightUnits, spans),
	}, nil
}

// spansOf returns the spans of the assets that have a rack position.
func spansOf(assets []models.Asset) []rack.Span {
	var spans []rack.Span
	for _, a := range assets {
		if a.RackPosition == nil {
			continue
		}
		spans = append(spans, rack.Span{AssetID: a.ID, AssetName: a.Name, Start: *a.RackPosition, Height: a.HeightUnits})
	}
	return spans
}

// DeleteRack removes an empty rack. A rack that still holds assets is a
// conflict; move or remove the assets first.
func (s *Service) DeleteRack(ctx context.Context, id string) error {
	if err := checkID("rack", id); err != nil {
		return err
	}
	var name string
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, "SELECT name FROM racks WHERE id = $1 FOR UPDATE", id).Scan(&name); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound("rack", id)
			}
			return err
		}
		var assets int
		if err := tx.QueryRow(ctx, "SELECT count(*) FROM assets WHERE rack_id = $1", id).Scan(&assets); err != nil {
			return err
		}
		if assets > 0 {
			return apperr.Conflict("cannot delete rack %s with %d assets; move or remove the assets first", name, assets)
		}
		_, err := tx.Exec(ctx, "DELETE FROM racks WHERE id = $1", id)
		return err
	})
	if err != nil {
		return dbError(err, "delete rack")
	}

	s.log.Info("rack deleted", "rack_id", id, "name", name)
	s.record(ctx, Change{
		Table:       "racks",
		RecordID:    id,
		Action:      ActionDelete,
		Changes:     map[string]any{"before": map[string]any{"name": name}},
		Description: fmt.Sprintf("Rack %s deleted", name),
	})
	return nil
}

// PlaceAsset puts an asset into a rack at startUnit. The rack row is locked
// for the duration of the check and the write, so two placements into the
// same rack are serialized and cannot both claim the same units.
func (s *Service) PlaceAsset(ctx context.Context, assetID, rackID string, startUnit int) error {
	if err := checkID("asset", assetID); err != nil {
		return err
	}
	if err := checkID("rack", rackID); err != nil {
		return err
	}

	var moved placement
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		moved, err = placeAsset(ctx, tx, assetID, rackID, startUnit, 0)
		return err
	})
	if err != nil {
		return dbError(err, "place asset")
	}

	s.log.Info("asset placed", "asset_id", assetID, "rack_id", rackID, "start_unit", startUnit, "height", moved.height)
	s.record(ctx, moved.change())
	return nil
}

type placement struct {
	assetID, assetName string
	rackID, rackName   string
	start, height      int
	prevHeight         int
	prevRack           *string
	prevPos            *int
}

func (p placement) change() Change {
	return Change{
		Table:    "assets",
		RecordID: p.assetID,
		Action:   ActionUpdate,
		Changes: map[string]any{
			"before": map[string]any{"rack_id": p.prevRack, "rack_position": p.prevPos},
			"after":  map[string]any{"rack_id": p.rackID, "rack_position": p.start},
		},
		Description: fmt.Sprintf("Asset %s placed in rack %s at U%d", p.assetName, p.rackName, p.start),
	}
}

// placeAsset runs the placement inside tx. Locks are taken rack first, then
// asset. A positive height resizes the asset as part of the placement;
// otherwise its stored height is kept.
func placeAsset(ctx context.Context, tx pgx.Tx, assetID, rackID string, startUnit, height int) (placement, error) {
	p := placement{assetID: assetID, rackID: rackID, start: startUnit}

	var rackHeight int
	err := tx.QueryRow(ctx, "SELECT name, height_units FROM racks WHERE id = $1 FOR UPDATE", rackID).
		Scan(&p.rackName, &rackHeight)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, apperr.NotFound("rack", rackID)
		}
		return p, err
	}

	err = tx.QueryRow(ctx,
		"SELECT name, height_units, rack_id::text, rack_position FROM assets WHERE id = $1 FOR UPDATE", assetID).
		Scan(&p.assetName, &p.prevHeight, &p.prevRack, &p.prevPos)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, apperr.NotFound("asset", assetID)
		}
		return p, err
	}
	p.height = p.prevHeight
	if height > 0 {
		p.height = height
	}

	occupied, err := occupiedSpans(ctx, tx, rackID, assetID)
	if err != nil {
		return p, err
	}

	candidate := rack.Span{AssetID: assetID, AssetName: p.assetName, Start: startUnit, Height: p.height}
	if err := rack.CheckPlacement(rackHeight, candidate, occupied); err != nil {
		return p, err
	}

	_, err = tx.Exec(ctx, "UPDATE assets SET rack_id = $2, rack_position = $3, height_units = $4 WHERE id = $1",
		assetID, rackID, startUnit, p.height)
	return p, err
}

// occupiedSpans loads the spans of the assets placed in a rack, leaving out
// exceptAsset.
func occupiedSpans(ctx context.Context, tx pgx.Tx, rackID, exceptAsset string) ([]rack.Span, error) {
	rows, err := tx.Query(ctx, `
		SELECT id::text, name, rack_position, height_units FROM assets
		WHERE rack_id = $1 AND id::text <> $2 AND rack_position IS NOT NULL
		ORDER BY rack_position`, rackID, exceptAsset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (rack.Span, error) {
		var sp rack.Span
		err := row.Scan(&sp.AssetID, &sp.AssetName, &sp.Start, &sp.Height)
		return sp, err
	})
}

// RemoveAssetFromRack clears an asset's rack and position. Other assets in
// the rack keep their positions.
func (s *Service) RemoveAssetFromRack(ctx context.Context, assetID string) error {
	if err := checkID("asset", assetID); err != nil {
		return err
	}

	var name string
	var prevRack *string
	var prevPos *int
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			"SELECT name, rack_id::text, rack_position FROM assets WHERE id = $1 FOR UPDATE", assetID).
			Scan(&name, &prevRack, &prevPos)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound("asset", assetID)
			}
			return err
		}
		if prevRack == nil {
			return nil
		}
		_, err = tx.Exec(ctx, "UPDATE assets SET rack_id = NULL, rack_position = NULL WHERE id = $1", assetID)
		return err
	})
	if err != nil {
		return dbError(err, "remove asset from rack")
	}
	if prevRack == nil {
		return nil
	}

	s.log.Info("asset removed from rack", "asset_id", assetID, "rack_id", *prevRack)
	s.record(ctx, Change{
		Table:    "assets",
		RecordID: assetID,
		Action:   ActionUpdate,
		Changes: map[string]any{
			"before": map[string]any{"rack_id": prevRack, "rack_position": prevPos},
			"after":  map[string]any{"rack_id": nil, "rack_position": nil},
		},
		Description: fmt.Sprintf("Asset %s removed from rack", name),
	})
	return nil
}
