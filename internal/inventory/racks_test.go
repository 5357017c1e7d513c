package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttani03/goth-dcim/internal/apperr"
	"github.com/ttani03/goth-dcim/internal/models"
	"github.com/ttani03/goth-dcim/internal/rack"
)

func seedRack(t *testing.T, s *Service, height int) *models.Rack {
	t.Helper()
	ctx := context.Background()
	dc, err := s.CreateDataCenter(ctx, DataCenterParams{Name: "DC1", Location: "Tokyo"})
	require.NoError(t, err)
	r, err := s.CreateRack(ctx, RackParams{
		Name: "R1", DataCenterID: dc.ID, RowPosition: "A", ColumnPosition: "1", HeightUnits: height,
	})
	require.NoError(t, err)
	return r
}

func seedAsset(t *testing.T, s *Service, name string, height int) *models.Asset {
	t.Helper()
	a, err := s.CreateAsset(context.Background(), AssetParams{Name: name, HeightUnits: height})
	require.NoError(t, err)
	return a
}

func TestPlaceAsset_FourUnitRack(t *testing.T) {
	s := newService(t, Options{})
	ctx := context.Background()
	r := seedRack(t, s, 4)
	a := seedAsset(t, s, "A", 2)
	b := seedAsset(t, s, "B", 2)

	require.NoError(t, s.PlaceAsset(ctx, a.ID, r.ID, 1))

	err := s.PlaceAsset(ctx, b.ID, r.ID, 2)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "%v", err)
	assert.Equal(t, "A", apperr.SubjectOf(err))

	err = s.PlaceAsset(ctx, b.ID, r.ID, 4)
	assert.True(t, apperr.Is(err, apperr.KindFit), "%v", err)

	err = s.PlaceAsset(ctx, b.ID, r.ID, 0)
	assert.True(t, apperr.Is(err, apperr.KindFit), "%v", err)

	require.NoError(t, s.PlaceAsset(ctx, b.ID, r.ID, 3))

	view, err := s.GetRack(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, view.UsedUnits)
	assert.Equal(t, 100, view.Utilization())
	assert.Empty(t, view.Free)
	require.Len(t, view.Spans, 2)
	assert.Equal(t, rack.Span{AssetID: a.ID, AssetName: "A", Start: 1, Height: 2}, view.Spans[0])
	assert.Equal(t, "B", view.Layout[4].AssetName)
}

func TestPlaceAsset_MoveWithinRack(t *testing.T) {
	s := newService(t, Options{})
	ctx := context.Background()
	r := seedRack(t, s, 4)
	a := seedAsset(t, s, "A", 2)

	require.NoError(t, s.PlaceAsset(ctx, a.ID, r.ID, 1))
	// Moving down by one overlaps only the asset's own old span
	require.NoError(t, s.PlaceAsset(ctx, a.ID, r.ID, 2))

	got, err := s.GetAsset(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, *got.RackPosition)
	assert.Equal(t, "R1", deref(got.RackName))

	view, err := s.GetRack(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, []rack.UnitRange{{First: 1, Last: 1}, {First: 4, Last: 4}}, view.Free)
}

func TestPlaceAsset_NotFound(t *testing.T) {
	s := newService(t, Options{})
	ctx := context.Background()
	r := seedRack(t, s, 4)
	a := seedAsset(t, s, "A", 1)

	assert.True(t, apperr.Is(s.PlaceAsset(ctx, uuid.NewString(), r.ID, 1), apperr.KindNotFound))
	assert.True(t, apperr.Is(s.PlaceAsset(ctx, a.ID, uuid.NewString(), 1), apperr.KindNotFound))
	assert.True(t, apperr.Is(s.RemoveAssetFromRack(ctx, uuid.NewString()), apperr.KindNotFound))
}

func TestPlaceAsset_Concurrent(t *testing.T) {
	s := newService(t, Options{})
	ctx := context.Background()
	r := seedRack(t, s, 4)

	const callers = 6
	assets := make([]*models.Asset, callers)
	for i := range assets {
		assets[i] = seedAsset(t, s, "node-"+string(rune('a'+i)), 2)
	}

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.PlaceAsset(ctx, assets[i].ID, r.ID, 2)
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
	assert.Equal(t, 1, count(t, "SELECT count(*) FROM assets WHERE rack_id = $1", r.ID))
}

func TestRemoveAssetFromRack(t *testing.T) {
	s := newService(t, Options{})
	ctx := context.Background()
	r := seedRack(t, s, 4)
	a := seedAsset(t, s, "A", 1)
	b := seedAsset(t, s, "B", 1)
	require.NoError(t, s.PlaceAsset(ctx, a.ID, r.ID, 1))
	require.NoError(t, s.PlaceAsset(ctx, b.ID, r.ID, 3))

	require.NoError(t, s.RemoveAssetFromRack(ctx, a.ID))

	got, err := s.GetAsset(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.RackID)
	assert.Nil(t, got.RackPosition)

	// Others keep their positions
	got, err = s.GetAsset(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, *got.RackPosition)

	changes, err := s.ListChanges(ctx, "assets", a.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "Asset A removed from rack", changes[0].Description)

	// Removing an unracked asset is a no-op
	require.NoError(t, s.RemoveAssetFromRack(ctx, a.ID))
}

func TestCreateRack_Errors(t *testing.T) {
	s := newService(t, Options{})
	ctx := context.Background()
	r := seedRack(t, s, 42)

	_, err := s.CreateRack(ctx, RackParams{Name: "R2", DataCenterID: r.DataCenterID, RowPosition: "A", ColumnPosition: "1"})
	assert.True(t, apperr.Is(err, apperr.KindConflict), "%v", err)

	_, err = s.CreateRack(ctx, RackParams{Name: "R3", DataCenterID: uuid.NewString(), RowPosition: "B", ColumnPosition: "1"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "%v", err)

	_, err = s.CreateRack(ctx, RackParams{Name: "", DataCenterID: r.DataCenterID, RowPosition: "B", ColumnPosition: "1"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = s.CreateRack(ctx, RackParams{Name: "R4", DataCenterID: r.DataCenterID, RowPosition: "B", ColumnPosition: "1", HeightUnits: -1})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	r2, err := s.CreateRack(ctx, RackParams{Name: "R5", DataCenterID: r.DataCenterID, RowPosition: "B", ColumnPosition: "1"})
	require.NoError(t, err)
	assert.Equal(t, DefaultRackHeight, r2.HeightUnits)
	assert.Equal(t, models.RackAvailable, r2.Status)
	assert.Equal(t, "DC1", r2.DataCenterName)
}

func TestListRacks_Utilization(t *testing.T) {
	s := newService(t, Options{})
	ctx := context.Background()
	r := seedRack(t, s, 10)
	a := seedAsset(t, s, "A", 2)
	b, err := s.CreateAsset(ctx, AssetParams{Name: "B", HeightUnits: 3, Status: models.AssetDecommissioned})
	require.NoError(t, err)
	require.NoError(t, s.PlaceAsset(ctx, a.ID, r.ID, 1))
	require.NoError(t, s.PlaceAsset(ctx, b.ID, r.ID, 5))

	racks, err := s.ListRacks(ctx, "")
	require.NoError(t, err)
	require.Len(t, racks, 1)
	assert.Equal(t, 2, racks[0].UsedUnits, "decommissioned assets do not count")
	assert.Equal(t, 2, racks[0].AssetCount)
	assert.Equal(t, 20, racks[0].Utilization())

	racks, err = s.ListRacks(ctx, r.DataCenterID)
	require.NoError(t, err)
	assert.Len(t, racks, 1)

	dcs, err := s.ListDataCenters(ctx)
	require.NoError(t, err)
	require.Len(t, dcs, 1)
	assert.Equal(t, 1, dcs[0].RackCount)
}

func TestDeleteRack(t *testing.T) {
	s := newService(t, Options{})
	ctx := context.Background()
	r := seedRack(t, s, 4)
	a := seedAsset(t, s, "A", 1)
	require.NoError(t, s.PlaceAsset(ctx, a.ID, r.ID, 1))

	err := s.DeleteRack(ctx, r.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "%v", err)

	require.NoError(t, s.RemoveAssetFromRack(ctx, a.ID))
	require.NoError(t, s.DeleteRack(ctx, r.ID))

	_, err = s.GetRack(ctx, r.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateAsset_GrowIntoNeighbour(t *testing.T) {
	s := newService(t, Options{})
	ctx := context.Background()
	r := seedRack(t, s, 4)
	a := seedAsset(t, s, "A", 1)
	b := seedAsset(t, s, "B", 1)
	require.NoError(t, s.PlaceAsset(ctx, a.ID, r.ID, 1))
	require.NoError(t, s.PlaceAsset(ctx, b.ID, r.ID, 2))

	// A at U1 growing to 2U would take B's unit
	_, err := s.UpdateAsset(ctx, a.ID, AssetParams{Name: "A", HeightUnits: 2, RackID: r.ID, RackPosition: 1})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "%v", err)
	assert.Equal(t, "B", apperr.SubjectOf(err))

	got, err := s.GetAsset(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.HeightUnits)
	assert.Equal(t, 1, *got.RackPosition)

	// Growing past the bottom of the rack
	_, err = s.UpdateAsset(ctx, a.ID, AssetParams{Name: "A", HeightUnits: 2, RackID: r.ID, RackPosition: 4})
	assert.True(t, apperr.Is(err, apperr.KindFit), "%v", err)

	got, err = s.UpdateAsset(ctx, a.ID, AssetParams{Name: "A2", HeightUnits: 2, RackID: r.ID, RackPosition: 3})
	require.NoError(t, err)
	assert.Equal(t, "A2", got.Name)
	assert.Equal(t, 2, got.HeightUnits)
	assert.Equal(t, 3, *got.RackPosition)

	view, err := s.GetRack(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, []rack.UnitRange{{First: 1, Last: 1}}, view.Free)
}

func TestUpdateAsset_LeaveRackAndResize(t *testing.T) {
	s := newService(t, Options{})
	ctx := context.Background()
	r := seedRack(t, s, 4)
	a := seedAsset(t, s, "A", 2)
	require.NoError(t, s.PlaceAsset(ctx, a.ID, r.ID, 1))

	// Without a rack the asset leaves it and any height is accepted
	got, err := s.UpdateAsset(ctx, a.ID, AssetParams{Name: "A", HeightUnits: 10, Status: models.AssetMaintenance})
	require.NoError(t, err)
	assert.Nil(t, got.RackID)
	assert.Nil(t, got.RackPosition)
	assert.Equal(t, 10, got.HeightUnits)
	assert.Equal(t, models.AssetMaintenance, got.Status)

	_, err = s.UpdateAsset(ctx, a.ID, AssetParams{Name: "A", HeightUnits: 10, RackID: r.ID, RackPosition: 1})
	assert.True(t, apperr.Is(err, apperr.KindFit), "%v", err)

	_, err = s.UpdateAsset(ctx, uuid.NewString(), AssetParams{Name: "X"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "%v", err)
	_, err = s.UpdateAsset(ctx, uuid.NewString(), AssetParams{Name: "X", RackID: r.ID, RackPosition: 1})
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "%v", err)
	_, err = s.UpdateAsset(ctx, a.ID, AssetParams{Name: " "})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "%v", err)
}

func TestUpdateAsset_ConcurrentWithPlacement(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		s := newService(t, Options{})
		r := seedRack(t, s, 4)
		a := seedAsset(t, s, "A", 1)
		b := seedAsset(t, s, "B", 1)
		require.NoError(t, s.PlaceAsset(ctx, a.ID, r.ID, 1))

		var wg sync.WaitGroup
		var growErr, placeErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, growErr = s.UpdateAsset(ctx, a.ID, AssetParams{Name: "A", HeightUnits: 2, RackID: r.ID, RackPosition: 1})
		}()
		go func() {
			defer wg.Done()
			placeErr = s.PlaceAsset(ctx, b.ID, r.ID, 2)
		}()
		wg.Wait()

		// Unit 2 goes to exactly one of them
		if growErr == nil {
			assert.True(t, apperr.Is(placeErr, apperr.KindConflict), "%v", placeErr)
		} else {
			assert.True(t, apperr.Is(growErr, apperr.KindConflict), "%v", growErr)
			assert.NoError(t, placeErr)
		}
		view, err := s.GetRack(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, view.UsedUnits)
	}
}

func TestUpdateRack(t *testing.T) {
	s := newService(t, Options{})
	ctx := context.Background()
	r := seedRack(t, s, 8)
	a := seedAsset(t, s, "db-01", 2)
	require.NoError(t, s.PlaceAsset(ctx, a.ID, r.ID, 5))

	params := RackParams{Name: "R1-renamed", DataCenterID: r.DataCenterID, RowPosition: "A", ColumnPosition: "1",
		HeightUnits: 6, Status: models.RackOccupied}
	got, err := s.UpdateRack(ctx, r.ID, params)
	require.NoError(t, err)
	assert.Equal(t, "R1-renamed", got.Name)
	assert.Equal(t, 6, got.HeightUnits)
	assert.Equal(t, models.RackOccupied, got.Status)

	// db-01 occupies U5-U6
	params.HeightUnits = 5
	_, err = s.UpdateRack(ctx, r.ID, params)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "%v", err)
	assert.Equal(t, "db-01", apperr.SubjectOf(err))

	view, err := s.GetRack(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, view.HeightUnits)

	other, err := s.CreateRack(ctx, RackParams{Name: "R2", DataCenterID: r.DataCenterID, RowPosition: "B", ColumnPosition: "1"})
	require.NoError(t, err)
	params.HeightUnits = 42
	params.Name = "R2"
	params.RowPosition = "A"
	_, err = s.UpdateRack(ctx, other.ID, params)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "%v", err)

	_, err = s.UpdateRack(ctx, uuid.NewString(), params)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "%v", err)

	changes, err := s.ListChanges(ctx, "racks", r.ID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, changes)
	assert.Equal(t, "Rack R1-renamed updated", changes[0].Description)
}
