package inventory

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ttani03/goth-dcim/internal/models"
)

// Summary holds the dashboard counts.
type Summary struct {
	DataCenters int
	Racks       int
	Customers   int
	Projects    int
	Pools       int
	Assets      map[models.AssetStatus]int
	Addresses   models.PoolStats
	// RackUtilization is the mean used-unit percentage over all racks.
	RackUtilization int
	RecentChanges   []models.ChangeEntry
}

func (s Summary) TotalAssets() int {
	n := 0
	for _, c := range s.Assets {
		n += c
	}
	return n
}

// Summary gathers the dashboard counts. Each query runs concurrently; the
// first failure cancels the rest.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	sum := &Summary{Assets: map[models.AssetStatus]int{}}
	g, ctx := errgroup.WithContext(ctx)

	counts := []struct {
		table string
		dest  *int
	}{
		{"data_centers", &sum.DataCenters},
		{"racks", &sum.Racks},
		{"customers", &sum.Customers},
		{"projects", &sum.Projects},
		{"ip_pools", &sum.Pools},
	}
	for _, c := range counts {
		g.Go(func() error {
			return s.db.QueryRow(ctx, "SELECT count(*) FROM "+c.table).Scan(c.dest)
		})
	}

	g.Go(func() error {
		rows, err := s.db.Query(ctx, "SELECT status, count(*) FROM assets GROUP BY status")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var status models.AssetStatus
			var n int
			if err := rows.Scan(&status, &n); err != nil {
				return err
			}
			sum.Assets[status] = n
		}
		return rows.Err()
	})

	g.Go(func() error {
		st := &sum.Addresses
		return s.db.QueryRow(ctx, `
			SELECT count(*),
				count(*) FILTER (WHERE status = 'assigned'),
				count(*) FILTER (WHERE status = 'available'),
				count(*) FILTER (WHERE status = 'reserved'),
				count(*) FILTER (WHERE status = 'blocked')
			FROM ip_addresses`).Scan(&st.Total, &st.Assigned, &st.Available, &st.Reserved, &st.Blocked)
	})

	g.Go(func() error {
		return s.db.QueryRow(ctx, `
			SELECT COALESCE(round(avg(used * 100.0 / height_units)), 0)::int
			FROM (
				SELECT r.height_units,
					COALESCE(sum(a.height_units) FILTER (WHERE a.status <> 'decommissioned'), 0) AS used
				FROM racks r LEFT JOIN assets a ON a.rack_id = r.id
				GROUP BY r.id
			) u`).Scan(&sum.RackUtilization)
	})

	g.Go(func() error {
		var err error
		sum.RecentChanges, err = s.ListChanges(ctx, "", "", 10)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, dbError(err, "dashboard summary")
	}
	return sum, nil
}
