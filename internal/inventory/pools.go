package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ttani03/goth-dcim/internal/apperr"
	"github.com/ttani03/goth-dcim/internal/ipam"
	"github.com/ttani03/goth-dcim/internal/models"
)

// PoolParams describes a new address pool.
type PoolParams struct {
	Name           string
	NetworkAddress string
	PrefixLength   int
	Gateway        string
	VLANID         *int
	DNSServers     []string
	Description    string
}

// PoolUpdate holds the editable pool fields. The network and prefix of a pool
// are fixed at creation since its address records derive from them.
type PoolUpdate struct {
	Name        string
	Gateway     string
	VLANID      *int
	DNSServers  []string
	Description string
}

// ParseDNSServers splits a comma separated server list, dropping blanks.
func ParseDNSServers(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validateVLAN(vlan *int) error {
	if vlan != nil && (*vlan < 1 || *vlan > 4094) {
		return apperr.Config("VLAN id must be between 1 and 4094, got %d", *vlan)
	}
	return nil
}

func (p PoolParams) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return apperr.Config("pool name is required")
	}
	if err := validateVLAN(p.VLANID); err != nil {
		return err
	}
	return ipam.ValidatePool(p.NetworkAddress, p.PrefixLength, p.Gateway, p.DNSServers)
}

const poolColumns = `id::text, name, description, network_address, subnet_mask, gateway, vlan_id, dns_servers, created_at`

func scanPool(row pgx.Row) (models.AddressPool, error) {
	var p models.AddressPool
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.NetworkAddress, &p.PrefixLength,
		&p.Gateway, &p.VLANID, &p.DNSServers, &p.CreatedAt)
	return p, err
}

// CreatePool creates a pool and one address record per usable host address.
// The pool row and every address batch are written in one transaction: on
// any failure neither the pool nor any of its addresses exist.
func (s *Service) CreatePool(ctx context.Context, p PoolParams) (*models.AddressPool, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	hosts, err := ipam.NewHosts(p.NetworkAddress, p.PrefixLength, p.Gateway)
	if err != nil {
		return nil, err
	}
	s.warnGateway(p.NetworkAddress, p.PrefixLength, p.Gateway)

	var pool models.AddressPool
	err = pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO ip_pools (name, description, network_address, subnet_mask, gateway, vlan_id, dns_servers)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+poolColumns,
			strings.TrimSpace(p.Name), optional(p.Description), p.NetworkAddress, p.PrefixLength,
			optional(p.Gateway), p.VLANID, p.DNSServers)
		var err error
		if pool, err = scanPool(row); err != nil {
			return fmt.Errorf("insert pool: %w", err)
		}
		return s.seedAddresses(ctx, tx, pool.ID, hosts)
	})
	if err != nil {
		s.log.Error("create pool failed", "network", p.NetworkAddress, "prefix", p.PrefixLength, "error", err)
		return nil, dbError(err, "create pool")
	}

	s.log.Info("pool created", "pool_id", pool.ID, "cidr", pool.CIDR(), "addresses", hosts.Len())
	s.record(ctx, Change{
		Table:    "ip_pools",
		RecordID: pool.ID,
		Action:   ActionInsert,
		Changes: map[string]any{
			"after": map[string]any{"cidr": pool.CIDR(), "gateway": p.Gateway, "addresses": hosts.Len()},
		},
		Description: fmt.Sprintf("IP pool %s created with %d addresses", pool.Name, hosts.Len()),
	})
	return &pool, nil
}

// seedAddresses copies the pool's hosts into ip_addresses in batches. Each
// batch is formatted as it is copied.
func (s *Service) seedAddresses(ctx context.Context, tx pgx.Tx, poolID string, hosts ipam.Hosts) error {
	columns := []string{"pool_id", "ip_address", "status"}
	for start := 0; start < hosts.Len(); start += s.batchSize {
		size := min(s.batchSize, hosts.Len()-start)
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"ip_addresses"}, columns,
			pgx.CopyFromSlice(size, func(i int) ([]any, error) {
				c := hosts.At(start + i)
				return []any{poolID, c.Address, string(c.Status)}, nil
			}))
		if err != nil {
			return fmt.Errorf("copy addresses %d-%d: %w", start, start+size-1, err)
		}
		if int(n) != size {
			return fmt.Errorf("copy addresses %d-%d: wrote %d of %d rows", start, start+size-1, n, size)
		}
	}
	return nil
}

// warnGateway logs a gateway that lies outside its pool. Such a gateway is
// stored but reserves no address.
func (s *Service) warnGateway(network string, prefix int, gateway string) {
	if gateway != "" && !ipam.Contains(network, prefix, gateway) {
		s.log.Warn("gateway outside pool", "cidr", fmt.Sprintf("%s/%d", network, prefix), "gateway", gateway)
	}
}

// UpdatePool changes a pool's descriptive fields.
func (s *Service) UpdatePool(ctx context.Context, id string, u PoolUpdate) (*models.AddressPool, error) {
	if err := checkID("pool", id); err != nil {
		return nil, err
	}
	if strings.TrimSpace(u.Name) == "" {
		return nil, apperr.Config("pool name is required")
	}
	if err := validateVLAN(u.VLANID); err != nil {
		return nil, err
	}

	current, err := s.getPool(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ipam.ValidatePool(current.NetworkAddress, current.PrefixLength, u.Gateway, u.DNSServers); err != nil {
		return nil, err
	}
	s.warnGateway(current.NetworkAddress, current.PrefixLength, u.Gateway)

	row := s.db.QueryRow(ctx, `
		UPDATE ip_pools SET name = $2, description = $3, gateway = $4, vlan_id = $5, dns_servers = $6
		WHERE id = $1
		RETURNING `+poolColumns,
		id, strings.TrimSpace(u.Name), optional(u.Description), optional(u.Gateway), u.VLANID, u.DNSServers)
	pool, err := scanPool(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("pool", id)
		}
		return nil, dbError(err, "update pool")
	}

	s.record(ctx, Change{
		Table:    "ip_pools",
		RecordID: id,
		Action:   ActionUpdate,
		Changes: map[string]any{
			"before": map[string]any{"name": current.Name, "gateway": deref(current.Gateway), "vlan_id": current.VLANID},
			"after":  map[string]any{"name": pool.Name, "gateway": deref(pool.Gateway), "vlan_id": pool.VLANID},
		},
		Description: fmt.Sprintf("IP pool %s updated", pool.Name),
	})
	return &pool, nil
}

// DeletePool removes a pool together with all of its address records.
func (s *Service) DeletePool(ctx context.Context, id string) error {
	if err := checkID("pool", id); err != nil {
		return err
	}
	var name, network string
	var prefix int
	err := s.db.QueryRow(ctx,
		"DELETE FROM ip_pools WHERE id = $1 RETURNING name, network_address, subnet_mask", id).
		Scan(&name, &network, &prefix)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("pool", id)
		}
		return dbError(err, "delete pool")
	}

	s.log.Info("pool deleted", "pool_id", id, "name", name)
	s.record(ctx, Change{
		Table:       "ip_pools",
		RecordID:    id,
		Action:      ActionDelete,
		Changes:     map[string]any{"before": map[string]any{"name": name, "cidr": fmt.Sprintf("%s/%d", network, prefix)}},
		Description: fmt.Sprintf("IP pool %s deleted", name),
	})
	return nil
}

func (s *Service) getPool(ctx context.Context, id string) (models.AddressPool, error) {
	pool, err := scanPool(s.db.QueryRow(ctx, "SELECT "+poolColumns+" FROM ip_pools WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AddressPool{}, apperr.NotFound("pool", id)
		}
		return models.AddressPool{}, dbError(err, "get pool")
	}
	return pool, nil
}

const poolStatsSelect = `
	SELECT p.id::text, p.name, p.description, p.network_address, p.subnet_mask, p.gateway, p.vlan_id, p.dns_servers, p.created_at,
		count(a.id),
		count(a.id) FILTER (WHERE a.status = 'assigned'),
		count(a.id) FILTER (WHERE a.status = 'available'),
		count(a.id) FILTER (WHERE a.status = 'reserved'),
		count(a.id) FILTER (WHERE a.status = 'blocked')
	FROM ip_pools p
	LEFT JOIN ip_addresses a ON a.pool_id = p.id`

func scanPoolSummary(row pgx.Row) (models.PoolSummary, error) {
	var p models.PoolSummary
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.NetworkAddress, &p.PrefixLength,
		&p.Gateway, &p.VLANID, &p.DNSServers, &p.CreatedAt,
		&p.Stats.Total, &p.Stats.Assigned, &p.Stats.Available, &p.Stats.Reserved, &p.Stats.Blocked)
	return p, err
}

// GetPool returns a pool with its address counts.
func (s *Service) GetPool(ctx context.Context, id string) (*models.PoolSummary, error) {
	if err := checkID("pool", id); err != nil {
		return nil, err
	}
	p, err := scanPoolSummary(s.db.QueryRow(ctx, poolStatsSelect+" WHERE p.id = $1 GROUP BY p.id", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("pool", id)
		}
		return nil, dbError(err, "get pool")
	}
	return &p, nil
}

// ListPools returns every pool with its address counts, newest first.
func (s *Service) ListPools(ctx context.Context) ([]models.PoolSummary, error) {
	rows, err := s.db.Query(ctx, poolStatsSelect+" GROUP BY p.id ORDER BY p.created_at DESC")
	if err != nil {
		return nil, dbError(err, "list pools")
	}
	pools, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.PoolSummary, error) {
		return scanPoolSummary(row)
	})
	if err != nil {
		return nil, dbError(err, "list pools")
	}
	return pools, nil
}

const addressColumns = `a.id::text, a.pool_id::text, a.ip_address, a.status, a.hostname, a.asset_id::text, s.name, a.assignment_date, a.notes, a.created_at`

const addressSelect = `SELECT ` + addressColumns + ` FROM ip_addresses a LEFT JOIN assets s ON s.id = a.asset_id`

func scanAddress(row pgx.Row) (models.AddressRecord, error) {
	var r models.AddressRecord
	err := row.Scan(&r.ID, &r.PoolID, &r.Address, &r.Status, &r.Hostname, &r.AssetID, &r.AssetName,
		&r.AssignmentDate, &r.Notes, &r.CreatedAt)
	return r, err
}

func collectAddresses(rows pgx.Rows) ([]models.AddressRecord, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.AddressRecord, error) {
		return scanAddress(row)
	})
}

// AddressQuery selects a page of a pool's addresses. An empty Status matches
// every record and a zero Limit returns all of them.
type AddressQuery struct {
	Status models.AddressStatus
	Limit  int
	Offset int
}

// ListAddresses returns a pool's address records in address order.
func (s *Service) ListAddresses(ctx context.Context, poolID string, q AddressQuery) ([]models.AddressRecord, error) {
	if err := checkID("pool", poolID); err != nil {
		return nil, err
	}
	if q.Status != "" && !q.Status.Valid() {
		return nil, apperr.Validation("unknown address status %q", q.Status)
	}
	if q.Limit < 0 || q.Offset < 0 {
		return nil, apperr.Validation("limit and offset must not be negative")
	}
	rows, err := s.db.Query(ctx, addressSelect+`
		WHERE a.pool_id = $1 AND ($2 = '' OR a.status = $2)
		ORDER BY a.ip_address::inet
		LIMIT NULLIF($3, 0) OFFSET $4`,
		poolID, string(q.Status), q.Limit, q.Offset)
	if err != nil {
		return nil, dbError(err, "list addresses")
	}
	addrs, err := collectAddresses(rows)
	if err != nil {
		return nil, dbError(err, "list addresses")
	}
	return addrs, nil
}

// GetAddress returns one address record.
func (s *Service) GetAddress(ctx context.Context, id string) (*models.AddressRecord, error) {
	if err := checkID("address", id); err != nil {
		return nil, err
	}
	rec, err := scanAddress(s.db.QueryRow(ctx, addressSelect+" WHERE a.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("address", id)
		}
		return nil, dbError(err, "get address")
	}
	return &rec, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
