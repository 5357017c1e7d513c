package rack

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttani03/goth-dcim/internal/apperr"
)

func TestCheckPlacement_FourUnitRack(t *testing.T) {
	occupied := []Span{{AssetID: "x", AssetName: "asset-x", Start: 1, Height: 2}}

	err := CheckPlacement(4, Span{AssetID: "y", Start: 2, Height: 2}, occupied)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Contains(t, err.Error(), "asset-x")
	assert.Equal(t, "asset-x", apperr.SubjectOf(err))

	assert.NoError(t, CheckPlacement(4, Span{AssetID: "y", Start: 3, Height: 2}, occupied))
}

func TestCheckPlacement_Fit(t *testing.T) {
	tests := []struct {
		name      string
		candidate Span
	}{
		{"start zero", Span{AssetID: "a", Start: 0, Height: 1}},
		{"negative start", Span{AssetID: "a", Start: -3, Height: 1}},
		{"past the bottom", Span{AssetID: "a", Start: 41, Height: 3}},
		{"zero height", Span{AssetID: "a", Start: 1, Height: 0}},
		{"taller than rack", Span{AssetID: "a", Start: 1, Height: 43}},
		{"start past the rack", Span{AssetID: "a", Start: 43, Height: 1}},
		{"start wraps the end unit", Span{AssetID: "a", Start: math.MaxInt, Height: 2}},
		{"height wraps the end unit", Span{AssetID: "a", Start: 2, Height: math.MaxInt}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPlacement(42, tt.candidate, nil)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindFit), "want fit error, got %v", err)
		})
	}
}

func TestCheckPlacement_Boundaries(t *testing.T) {
	occupied := []Span{
		{AssetID: "top", AssetName: "top", Start: 1, Height: 1},
		{AssetID: "mid", AssetName: "mid", Start: 10, Height: 4},
	}

	tests := []struct {
		name      string
		candidate Span
		conflict  string
	}{
		{"fills the last unit", Span{AssetID: "c", Start: 42, Height: 1}, ""},
		{"adjacent above", Span{AssetID: "c", Start: 8, Height: 2}, ""},
		{"adjacent below", Span{AssetID: "c", Start: 14, Height: 2}, ""},
		{"touches first unit", Span{AssetID: "c", Start: 9, Height: 2}, "mid"},
		{"touches last unit", Span{AssetID: "c", Start: 13, Height: 1}, "mid"},
		{"contains existing", Span{AssetID: "c", Start: 9, Height: 6}, "mid"},
		{"contained by existing", Span{AssetID: "c", Start: 11, Height: 1}, "mid"},
		{"overlaps top", Span{AssetID: "c", Start: 1, Height: 2}, "top"},
		{"moving itself", Span{AssetID: "mid", Start: 11, Height: 4}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPlacement(42, tt.candidate, occupied)
			if tt.conflict == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindConflict))
			assert.Equal(t, tt.conflict, apperr.SubjectOf(err))
		})
	}
}

func TestFreeRanges(t *testing.T) {
	assert.Equal(t, []UnitRange{{First: 3, Last: 4}},
		FreeRanges(4, []Span{{Start: 1, Height: 2}}))

	assert.Equal(t, []UnitRange{{First: 1, Last: 42}}, FreeRanges(42, nil))

	got := FreeRanges(10, []Span{{Start: 3, Height: 2}, {Start: 8, Height: 1}, {Start: 10, Height: 5}})
	assert.Equal(t, []UnitRange{{First: 1, Last: 2}, {First: 5, Last: 7}, {First: 9, Last: 9}}, got)
	assert.Equal(t, 3, got[1].Size())

	assert.Empty(t, FreeRanges(2, []Span{{Start: 1, Height: 2}}))
	assert.Nil(t, FreeRanges(0, nil))
}

func TestUsedUnitsAndLayout(t *testing.T) {
	occupied := []Span{{AssetID: "a", Start: 1, Height: 2}, {AssetID: "b", Start: 4, Height: 1}}
	assert.Equal(t, 3, UsedUnits(occupied))

	layout := Layout(4, occupied)
	require.Len(t, layout, 5)
	assert.Equal(t, "a", layout[1].AssetID)
	assert.Equal(t, "a", layout[2].AssetID)
	assert.Nil(t, layout[3])
	assert.Equal(t, "b", layout[4].AssetID)
}

func TestCheckHeight(t *testing.T) {
	occupied := []Span{
		{AssetID: "a", AssetName: "sw-01", Start: 1, Height: 1},
		{AssetID: "b", AssetName: "db-01", Start: 20, Height: 4},
	}

	assert.NoError(t, CheckHeight(42, occupied))
	assert.NoError(t, CheckHeight(23, occupied))
	assert.NoError(t, CheckHeight(1, nil))

	err := CheckHeight(22, occupied)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, "db-01", apperr.SubjectOf(err))

	assert.True(t, apperr.Is(CheckHeight(0, nil), apperr.KindValidation))
}
