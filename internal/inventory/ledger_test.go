package inventory

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttani03/goth-dcim/internal/apperr"
	"github.com/ttani03/goth-dcim/internal/models"
)

func TestCreatePool_SlashThirty(t *testing.T) {
	s := newService(t, Options{})
	ctx := context.Background()

	pool, err := s.CreatePool(ctx, PoolParams{
		Name: "edge", NetworkAddress: "192.168.1.0", PrefixLength: 30, Gateway: "192.168.1.1",
		DNSServers: []string{"1.1.1.1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.0/30", pool.CIDR())
	assert.Equal(t, []string{"1.1.1.1"}, pool.DNSServers)

	addrs, err := s.ListAddresses(ctx, pool.ID, AddressQuery{})
	require.NoError(t, err)
	require.Len(t, addrs, 2)
	assert.Equal(t, "192.168.1.1", addrs[0].Address)
	assert.Equal(t, models.AddressReserved, addrs[0].Status)
	assert.Equal(t, "192.168.1.2", addrs[1].Address)
	assert.Equal(t, models.AddressAvailable, addrs[1].Status)

	summary, err := s.GetPool(ctx, pool.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PoolStats{Total: 2, Available: 1, Reserved: 1}, summary.Stats)
}

func TestCreatePool_Batched(t *testing.T) {
	s := newService(t, Options{BatchSize: 7})
	ctx := context.Background()

	pool, err := s.CreatePool(ctx, PoolParams{Name: "lab", NetworkAddress: "10.1.0.0", PrefixLength: 26})
	require.NoError(t, err)

	assert.Equal(t, 62, count(t, "SELECT count(*) FROM ip_addresses WHERE pool_id = $1", pool.ID))
	assert.Equal(t, 62, count(t, "SELECT count(DISTINCT ip_address) FROM ip_addresses WHERE pool_id = $1", pool.ID))

	addrs, err := s.ListAddresses(ctx, pool.ID, AddressQuery{Status: models.AddressAvailable})
	require.NoError(t, err)
	assert.Equal(t, "10.1.0.1", addrs[0].Address)
	assert.Equal(t, "10.1.0.62", addrs[len(addrs)-1].Address)
}

func TestListAddresses_Paged(t *testing.T) {
	s := newService(t, Options{})
	ctx := context.Background()

	pool, err := s.CreatePool(ctx, PoolParams{Name: "lab", NetworkAddress: "10.2.0.0", PrefixLength: 28, Gateway: "10.2.0.1"})
	require.NoError(t, err)

	page, err := s.ListAddresses(ctx, pool.ID, AddressQuery{Limit: 5, Offset: 10})
	require.NoError(t, err)
	require.Len(t, page, 4)
	assert.Equal(t, "10.2.0.11", page[0].Address)
	assert.Equal(t, "10.2.0.14", page[3].Address)

	page, err = s.ListAddresses(ctx, pool.ID, AddressQuery{Status: models.AddressAvailable, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "10.2.0.2", page[0].Address)

	_, err = s.ListAddresses(ctx, pool.ID, AddressQuery{Offset: -1})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "%v", err)
}

func TestCreatePool_GatewayOutsideIsLogged(t *testing.T) {
	var buf bytes.Buffer
	s := newService(t, Options{Logger: slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))})
	ctx := context.Background()

	pool, err := s.CreatePool(ctx, PoolParams{Name: "lab", NetworkAddress: "10.3.0.0", PrefixLength: 29, Gateway: "10.9.0.1"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "gateway outside pool")
	assert.Contains(t, buf.String(), "10.9.0.1")
	assert.Zero(t, count(t, "SELECT count(*) FROM ip_addresses WHERE pool_id = $1 AND status = 'reserved'", pool.ID))

	buf.Reset()
	_, err = s.CreatePool(ctx, PoolParams{Name: "ok", NetworkAddress: "10.4.0.0", PrefixLength: 29, Gateway: "10.4.0.1"})
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "gateway outside pool")
}

func TestCreatePool_InvalidLeavesNoRows(t *testing.T) {
	s := newService(t, Options{})
	ctx := context.Background()

	for _, p := range []PoolParams{
		{Name: "a", NetworkAddress: "10.0.0.0", PrefixLength: 31},
		{Name: "b", NetworkAddress: "10.0.0.0", PrefixLength: 7},
		{Name: "c", NetworkAddress: "10.0.0.300", PrefixLength: 24},
		{Name: "d", NetworkAddress: "10.0.0.0", PrefixLength: 24, Gateway: "gw"},
		{Name: "", NetworkAddress: "10.0.0.0", PrefixLength: 24},
	} {
		_, err := s.CreatePool(ctx, p)
		assert.True(t, apperr.Is(err, apperr.KindConfig), "pool %q: %v", p.Name, err)
	}

	assert.Zero(t, count(t, "SELECT count(*) FROM ip_pools"))
	assert.Zero(t, count(t, "SELECT count(*) FROM ip_addresses"))
}

func TestAssignRelease(t *testing.T) {
	s := newService(t, Options{})
	ctx := context.Background()

	pool, err := s.CreatePool(ctx, PoolParams{Name: "p", NetworkAddress: "10.2.0.0", PrefixLength: 29})
	require.NoError(t, err)
	asset, err := s.CreateAsset(ctx, AssetParams{Name: "web-01"})
	require.NoError(t, err)
	id := addressByIP(t, s, pool.ID, "10.2.0.3")

	rec, err := s.AssignAddress(ctx, id, AssignRequest{AssetID: asset.ID, Hostname: "web-01.example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.AddressAssigned, rec.Status)
	assert.Equal(t, "web-01", deref(rec.AssetName))
	assert.NotNil(t, rec.AssignmentDate)

	_, err = s.AssignAddress(ctx, id, AssignRequest{Hostname: "other"})
	assert.True(t, apperr.Is(err, apperr.KindConflict), "%v", err)
	assert.Equal(t, "10.2.0.3", apperr.SubjectOf(err))

	rec, err = s.ReleaseAddress(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.AddressAvailable, rec.Status)
	assert.Nil(t, rec.AssetID)
	assert.Nil(t, rec.Hostname)
	assert.Nil(t, rec.AssignmentDate)

	// Releasing an available address changes nothing
	again, err := s.ReleaseAddress(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.AddressAvailable, again.Status)

	changes, err := s.ListChanges(ctx, "ip_addresses", id, 0)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "IP address 10.2.0.3 released", changes[0].Description)
	assert.Equal(t, "IP address 10.2.0.3 assigned to web-01.example.com", changes[1].Description)
	assert.Equal(t, ActionUpdate, changes[0].Action)
}

func TestAssign_Errors(t *testing.T) {
	s := newService(t, Options{})
	ctx := context.Background()

	_, err := s.AssignAddress(ctx, uuid.NewString(), AssignRequest{})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = s.AssignAddress(ctx, "not-a-uuid", AssignRequest{})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	pool, err := s.CreatePool(ctx, PoolParams{Name: "p", NetworkAddress: "10.3.0.0", PrefixLength: 30})
	require.NoError(t, err)
	id := addressByIP(t, s, pool.ID, "10.3.0.1")

	_, err = s.AssignAddress(ctx, id, AssignRequest{AssetID: uuid.NewString()})
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "%v", err)

	rec, err := s.GetAddress(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.AddressAvailable, rec.Status)
}

func TestAssign_Concurrent(t *testing.T) {
	s := newService(t, Options{})
	ctx := context.Background()

	pool, err := s.CreatePool(ctx, PoolParams{Name: "p", NetworkAddress: "10.4.0.0", PrefixLength: 30})
	require.NoError(t, err)
	id := addressByIP(t, s, pool.ID, "10.4.0.1")

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.AssignAddress(ctx, id, AssignRequest{Hostname: "host"})
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, apperr.Is(err, apperr.KindConflict), "%v", err)
	}
	assert.Equal(t, 1, wins)
}

func TestReserve(t *testing.T) {
	s := newService(t, Options{})
	ctx := context.Background()

	pool, err := s.CreatePool(ctx, PoolParams{Name: "p", NetworkAddress: "10.5.0.0", PrefixLength: 30, Gateway: "10.5.0.1"})
	require.NoError(t, err)
	gw := addressByIP(t, s, pool.ID, "10.5.0.1")
	id := addressByIP(t, s, pool.ID, "10.5.0.2")

	_, err = s.ReserveAddress(ctx, id, "  ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = s.ReserveAddress(ctx, gw, "router")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	rec, err := s.ReserveAddress(ctx, id, " spare ")
	require.NoError(t, err)
	assert.Equal(t, models.AddressReserved, rec.Status)
	assert.Equal(t, "spare", deref(rec.Notes))

	rec, err = s.ReleaseAddress(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.AddressAvailable, rec.Status)
	assert.Nil(t, rec.Notes)
}

func TestBlockUnblock(t *testing.T) {
	s := newService(t, Options{})
	ctx := context.Background()

	pool, err := s.CreatePool(ctx, PoolParams{Name: "p", NetworkAddress: "10.6.0.0", PrefixLength: 29, Gateway: "10.6.0.1"})
	require.NoError(t, err)
	gw := addressByIP(t, s, pool.ID, "10.6.0.1")
	free := addressByIP(t, s, pool.ID, "10.6.0.2")
	used := addressByIP(t, s, pool.ID, "10.6.0.3")
	_, err = s.AssignAddress(ctx, used, AssignRequest{Hostname: "db"})
	require.NoError(t, err)

	n, err := s.BlockAddresses(ctx, pool.ID, []string{gw, free, used}, "decommissioned switch")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "assigned addresses are skipped")

	_, err = s.ReleaseAddress(ctx, free)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	_, err = s.AssignAddress(ctx, free, AssignRequest{})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	n, err = s.UnblockAddresses(ctx, pool.ID, []string{gw, free, used})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rec, err := s.GetAddress(ctx, free)
	require.NoError(t, err)
	assert.Equal(t, models.AddressAvailable, rec.Status)
	assert.Nil(t, rec.Notes)

	_, err = s.BlockAddresses(ctx, pool.ID, nil, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = s.BlockAddresses(ctx, pool.ID, []string{"x"}, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = s.BlockAddresses(ctx, uuid.NewString(), []string{free}, "")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

type failingSink struct{}

func (failingSink) Append(context.Context, Change) error {
	return errors.New("change log unavailable")
}

func TestAuditFailureDoesNotFailOperation(t *testing.T) {
	s := newService(t, Options{Audit: failingSink{}})
	ctx := context.Background()

	pool, err := s.CreatePool(ctx, PoolParams{Name: "p", NetworkAddress: "10.7.0.0", PrefixLength: 30})
	require.NoError(t, err)
	id := addressByIP(t, s, pool.ID, "10.7.0.1")

	rec, err := s.AssignAddress(ctx, id, AssignRequest{Hostname: "h"})
	require.NoError(t, err)
	assert.Equal(t, models.AddressAssigned, rec.Status)
	assert.Zero(t, count(t, "SELECT count(*) FROM change_logs"))
}

func TestUpdateDeletePool(t *testing.T) {
	s := newService(t, Options{})
	ctx := context.Background()

	pool, err := s.CreatePool(ctx, PoolParams{Name: "p", NetworkAddress: "10.8.0.0", PrefixLength: 28})
	require.NoError(t, err)

	vlan := 100
	updated, err := s.UpdatePool(ctx, pool.ID, PoolUpdate{Name: "servers", Gateway: "10.8.0.14", VLANID: &vlan})
	require.NoError(t, err)
	assert.Equal(t, "servers", updated.Name)
	assert.Equal(t, "10.8.0.14", deref(updated.Gateway))
	assert.Equal(t, 100, *updated.VLANID)

	bad := 0
	_, err = s.UpdatePool(ctx, pool.ID, PoolUpdate{Name: "servers", VLANID: &bad})
	assert.True(t, apperr.Is(err, apperr.KindConfig))

	require.NoError(t, s.DeletePool(ctx, pool.ID))
	assert.Zero(t, count(t, "SELECT count(*) FROM ip_addresses"))
	assert.True(t, apperr.Is(s.DeletePool(ctx, pool.ID), apperr.KindNotFound))

	changes, err := s.ListChanges(ctx, "ip_pools", pool.ID, 0)
	require.NoError(t, err)
	require.Len(t, changes, 3)
	assert.Equal(t, ActionDelete, changes[0].Action)
	assert.Equal(t, ActionInsert, changes[2].Action)
}
