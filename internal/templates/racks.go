package templates

import (
	"context"

	"github.com/a-h/templ"

	"github.com/ttani03/goth-dcim/internal/inventory"
	"github.com/ttani03/goth-dcim/internal/models"
)

func RackList(racks []models.RackSummary, dcs []models.DataCenter) templ.Component {
	return Layout("Racks", component(func(_ context.Context, w *writer) {
		w.raw(`<form method="post" action="/racks"><fieldset><legend>New rack</legend>`)
		w.raw(`<input name="name" placeholder="Name" required><select name="data_center_id" required>`)
		for _, dc := range dcs {
			option(w, dc.ID, dc.Name, false)
		}
		w.raw(`</select><input name="row_position" placeholder="Row" required>`)
		w.raw(`<input name="column_position" placeholder="Column" required>`)
		w.raw(`<input name="height_units" type="number" min="1" value="42">`)
		w.raw(`<input name="power_capacity_watts" type="number" min="0" placeholder="Power (W)">`)
		w.raw(`<button type="submit">Create</button></fieldset></form>`)

		if len(racks) == 0 {
			w.raw(`<p>No racks yet.</p>`)
			return
		}
		w.raw(`<table><thead><tr><th>Name</th><th>Data center</th><th>Position</th><th>Height</th><th>Assets</th><th>Used</th><th>Status</th><th></th></tr></thead><tbody>`)
		for _, r := range racks {
			w.f(`<tr id="rack-%s"><td><a href="/racks/%s">%s</a></td><td>%s</td><td>%s-%s</td><td>%dU</td><td>%d</td><td>`,
				r.ID, r.ID, r.Name, r.DataCenterName, r.RowPosition, r.ColumnPosition, r.HeightUnits, r.AssetCount)
			bar(w, r.Utilization())
			w.f(`</td><td>%s</td><td><button hx-delete="/racks/%s" hx-confirm="Delete rack %s?">Delete</button></td></tr>`,
				r.Status, r.ID, r.Name)
		}
		w.raw(`</tbody></table>`)
	}))
}

// RackDetail draws the rack unit by unit, top to bottom. unracked are the
// assets offered for placement and dcs the data centers the rack can move to.
func RackDetail(v *inventory.RackView, unracked []models.Asset, dcs []models.DataCenter) templ.Component {
	return Layout("Rack "+v.Name, component(func(_ context.Context, w *writer) {
		w.f(`<dl><dt>Data center</dt><dd>%s</dd><dt>Position</dt><dd>row %s, column %s</dd>`,
			v.DataCenterName, v.RowPosition, v.ColumnPosition)
		w.f(`<dt>Height</dt><dd>%dU, %d used</dd><dt>Status</dt><dd>%s</dd><dt>Utilization</dt><dd>`,
			v.HeightUnits, v.UsedUnits, v.Status)
		bar(w, v.Utilization())
		w.raw(`</dd><dt>Free</dt><dd>`)
		if len(v.Free) == 0 {
			w.raw(`none`)
		}
		for i, fr := range v.Free {
			if i > 0 {
				w.raw(`, `)
			}
			if fr.First == fr.Last {
				w.f(`U%d`, fr.First)
			} else {
				w.f(`U%d-U%d (%dU)`, fr.First, fr.Last, fr.Size())
			}
		}
		w.raw(`</dd></dl>`)

		w.f(`<details><summary>Edit rack</summary><form method="post" action="/racks/%s">`, v.ID)
		w.f(`<input name="name" value="%s" required><select name="data_center_id" required>`, v.Name)
		for _, dc := range dcs {
			option(w, dc.ID, dc.Name, dc.ID == v.DataCenterID)
		}
		w.f(`</select><input name="row_position" value="%s" required><input name="column_position" value="%s" required>`,
			v.RowPosition, v.ColumnPosition)
		w.f(`<input name="height_units" type="number" min="1" value="%d">`, v.HeightUnits)
		w.f(`<input name="power_capacity_watts" type="number" min="0" value="%s" placeholder="Power (W)">`, optInt(v.PowerCapacityWatts))
		w.f(`<input name="weight_capacity_kg" type="number" step="0.1" min="0" value="%s" placeholder="Weight (kg)">`, optNumber(v.WeightCapacityKG))
		w.raw(`<select name="status">`)
		for _, st := range []models.RackStatus{models.RackAvailable, models.RackOccupied, models.RackMaintenance, models.RackReserved} {
			option(w, string(st), string(st), st == v.Status)
		}
		w.raw(`</select><button type="submit">Save</button></form></details>`)

		w.f(`<form method="post" action="/racks/%s/assets"><fieldset><legend>Place asset</legend><select name="asset_id" required>`, v.ID)
		for _, a := range unracked {
			w.f(`<option value="%s">%s (%dU)</option>`, a.ID, a.Name, a.HeightUnits)
		}
		w.f(`</select><input name="start_unit" type="number" min="1" max="%d" placeholder="Start unit" required>`, v.HeightUnits)
		w.raw(`<button type="submit">Place</button></fieldset></form>`)

		w.raw(`<table class="rack"><tbody>`)
		for u := 1; u <= v.HeightUnits && u < len(v.Layout); u++ {
			sp := v.Layout[u]
			switch {
			case sp == nil:
				w.f(`<tr class="free"><th>U%d</th><td></td></tr>`, u)
			case sp.Start == u || u == 1:
				rows := min(sp.End(), v.HeightUnits) - u + 1
				w.f(`<tr class="used"><th>U%d</th><td rowspan="%d"><a href="/assets/%s">%s</a> (%dU) `,
					u, rows, sp.AssetID, sp.AssetName, sp.Height)
				w.f(`<button hx-delete="/assets/%s/rack" hx-confirm="Remove %s from the rack?">Remove</button></td></tr>`,
					sp.AssetID, sp.AssetName)
			default:
				w.f(`<tr class="used"><th>U%d</th></tr>`, u)
			}
		}
		w.raw(`</tbody></table>`)
	}))
}
