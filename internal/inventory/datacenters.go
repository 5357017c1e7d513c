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

type DataCenterParams struct {
	Name                string
	Location            string
	Address             string
	PowerCapacityKW     *float64
	CoolingCapacityTons *float64
}

const dataCenterSelect = `
	SELECT d.id::text, d.name, d.location, d.address, d.power_capacity_kw, d.cooling_capacity_tons,
		count(r.id), d.created_at
	FROM data_centers d
	LEFT JOIN racks r ON r.data_center_id = d.id`

func scanDataCenter(row pgx.Row) (models.DataCenter, error) {
	var d models.DataCenter
	err := row.Scan(&d.ID, &d.Name, &d.Location, &d.Address, &d.PowerCapacityKW, &d.CoolingCapacityTons,
		&d.RackCount, &d.CreatedAt)
	return d, err
}

func (p *DataCenterParams) normalize() error {
	p.Name, p.Location = strings.TrimSpace(p.Name), strings.TrimSpace(p.Location)
	if p.Name == "" || p.Location == "" {
		return apperr.Validation("data center name and location are required")
	}
	return nil
}

func (s *Service) CreateDataCenter(ctx context.Context, p DataCenterParams) (*models.DataCenter, error) {
	if err := p.normalize(); err != nil {
		return nil, err
	}
	name, location := p.Name, p.Location

	var id string
	err := s.db.QueryRow(ctx, `
		INSERT INTO data_centers (name, location, address, power_capacity_kw, cooling_capacity_tons)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text`,
		name, location, optional(p.Address), p.PowerCapacityKW, p.CoolingCapacityTons).Scan(&id)
	if err != nil {
		return nil, dbError(err, "create data center")
	}

	s.log.Info("data center created", "data_center_id", id, "name", name)
	s.record(ctx, Change{
		Table:       "data_centers",
		RecordID:    id,
		Action:      ActionInsert,
		Changes:     map[string]any{"after": map[string]any{"name": name, "location": location}},
		Description: fmt.Sprintf("Data center %s created", name),
	})
	return s.GetDataCenter(ctx, id)
}

// UpdateDataCenter replaces a data center's attributes. Its racks stay
// where they are.
func (s *Service) UpdateDataCenter(ctx context.Context, id string, p DataCenterParams) (*models.DataCenter, error) {
	if err := checkID("data center", id); err != nil {
		return nil, err
	}
	if err := p.normalize(); err != nil {
		return nil, err
	}

	var before models.DataCenter
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, "SELECT name, location FROM data_centers WHERE id = $1 FOR UPDATE", id).
			Scan(&before.Name, &before.Location)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound("data center", id)
			}
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE data_centers
			SET name = $2, location = $3, address = $4, power_capacity_kw = $5, cooling_capacity_tons = $6
			WHERE id = $1`,
			id, p.Name, p.Location, optional(p.Address), p.PowerCapacityKW, p.CoolingCapacityTons)
		return err
	})
	if err != nil {
		return nil, dbError(err, "update data center")
	}

	s.log.Info("data center updated", "data_center_id", id, "name", p.Name)
	s.record(ctx, Change{
		Table:    "data_centers",
		RecordID: id,
		Action:   ActionUpdate,
		Changes: map[string]any{
			"before": map[string]any{"name": before.Name, "location": before.Location},
			"after":  map[string]any{"name": p.Name, "location": p.Location},
		},
		Description: fmt.Sprintf("Data center %s updated", p.Name),
	})
	return s.GetDataCenter(ctx, id)
}

func (s *Service) GetDataCenter(ctx context.Context, id string) (*models.DataCenter, error) {
	if err := checkID("data center", id); err != nil {
		return nil, err
	}
	d, err := scanDataCenter(s.db.QueryRow(ctx, dataCenterSelect+" WHERE d.id = $1 GROUP BY d.id", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("data center", id)
		}
		return nil, dbError(err, "get data center")
	}
	return &d, nil
}

// ListDataCenters returns every data center with its rack count.
func (s *Service) ListDataCenters(ctx context.Context) ([]models.DataCenter, error) {
	rows, err := s.db.Query(ctx, dataCenterSelect+" GROUP BY d.id ORDER BY d.name")
	if err != nil {
		return nil, dbError(err, "list data centers")
	}
	dcs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.DataCenter, error) {
		return scanDataCenter(row)
	})
	if err != nil {
		return nil, dbError(err, "list data centers")
	}
	return dcs, nil
}
