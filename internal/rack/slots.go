// Package rack checks asset placement within a rack.
//
// Rack units are numbered from 1 at the physical top of the rack down to the
// rack's height. An asset occupies the contiguous span starting at its rack
// position and extending over its height in units.
package rack

import (
	"github.com/ttani03/goth-dcim/internal/apperr"
)

// Span is the run of units occupied by one asset.
type Span struct {
	AssetID   string
	AssetName string
	Start     int
	Height    int
}

// End returns the last unit of the span.
func (s Span) End() int {
	return s.Start + s.Height - 1
}

// Overlaps reports whether two spans share at least one unit.
func (s Span) Overlaps(o Span) bool {
	return s.Start <= o.End() && s.End() >= o.Start
}

// CheckPlacement reports whether candidate fits in a rack of rackHeight units
// without overlapping any of occupied. Spans in occupied that belong to the
// candidate asset are ignored, so an asset can be moved within its own rack.
//
// A span outside the rack yields a fit error; an overlap yields a conflict
// error naming the occupying asset.
func CheckPlacement(rackHeight int, candidate Span, occupied []Span) error {
	if candidate.Height < 1 {
		return apperr.Fit("asset height must be at least 1U, got %d", candidate.Height)
	}
	if candidate.Start < 1 || candidate.Start > rackHeight {
		return apperr.Fit("start unit %d is outside a %dU rack", candidate.Start, rackHeight)
	}
	// Compared without End so a huge height cannot wrap around.
	if candidate.Height > rackHeight-candidate.Start+1 {
		return apperr.Fit("asset doesn't fit at this position: %dU from unit %d in a %dU rack",
			candidate.Height, candidate.Start, rackHeight)
	}

	for _, o := range occupied {
		if o.AssetID == candidate.AssetID {
			continue
		}
		if candidate.Overlaps(o) {
			err := apperr.Conflict("position conflicts with %s (units %d-%d)", o.AssetName, o.Start, o.End())
			err.Subject = o.AssetName
			return err
		}
	}
	return nil
}

// CheckHeight reports whether a rack can be resized to rackHeight units
// while keeping every occupied span inside it.
func CheckHeight(rackHeight int, occupied []Span) error {
	if rackHeight < 1 {
		return apperr.Validation("rack height must be at least 1U, got %d", rackHeight)
	}
	for _, o := range occupied {
		if o.End() > rackHeight {
			err := apperr.Conflict("cannot shrink rack to %dU: %s occupies units %d-%d", rackHeight, o.AssetName, o.Start, o.End())
			err.Subject = o.AssetName
			return err
		}
	}
	return nil
}

// UnitRange is an inclusive range of rack units.
type UnitRange struct {
	First int
	Last  int
}

func (r UnitRange) Size() int {
	return r.Last - r.First + 1
}

// FreeRanges returns the maximal runs of unoccupied units, top to bottom.
// Parts of occupied spans that fall outside the rack are ignored.
func FreeRanges(rackHeight int, occupied []Span) []UnitRange {
	if rackHeight < 1 {
		return nil
	}
	used := make([]bool, rackHeight+1)
	for _, o := range occupied {
		for u := max(o.Start, 1); u <= min(o.End(), rackHeight); u++ {
			used[u] = true
		}
	}

	var out []UnitRange
	start := 0
	for u := 1; u <= rackHeight; u++ {
		switch {
		case !used[u] && start == 0:
			start = u
		case used[u] && start != 0:
			out = append(out, UnitRange{First: start, Last: u - 1})
			start = 0
		}
	}
	if start != 0 {
		out = append(out, UnitRange{First: start, Last: rackHeight})
	}
	return out
}

// UsedUnits sums the heights of the occupied spans.
func UsedUnits(occupied []Span) int {
	total := 0
	for _, o := range occupied {
		total += o.Height
	}
	return total
}

// Layout maps each unit of the rack to the span occupying it, or nil.
// Index 0 is unused so that layout[u] is unit u.
func Layout(rackHeight int, occupied []Span) []*Span {
	if rackHeight < 1 {
		return nil
	}
	layout := make([]*Span, rackHeight+1)
	for i := range occupied {
		o := &occupied[i]
		for u := max(o.Start, 1); u <= min(o.End(), rackHeight); u++ {
			layout[u] = o
		}
	}
	return layout
}
