package templates

import (
	"context"

	"github.com/a-h/templ"

	"github.com/ttani03/goth-dcim/internal/models"
)

var assetStatuses = []models.AssetStatus{
	models.AssetActive, models.AssetInactive, models.AssetMaintenance, models.AssetDecommissioned,
}

// AssetForm holds the choices offered by the asset forms.
type AssetForm struct {
	Racks     []models.RackSummary
	Customers []models.Customer
	Projects  []models.Project
}

func AssetList(assets []models.Asset, filter models.AssetStatus, form AssetForm) templ.Component {
	return Layout("Assets", component(func(_ context.Context, w *writer) {
		w.raw(`<form method="post" action="/assets"><fieldset><legend>New asset</legend>`)
		w.raw(`<input name="name" placeholder="Name" required><input name="asset_tag" placeholder="Asset tag">`)
		w.raw(`<input name="manufacturer" placeholder="Manufacturer"><input name="model" placeholder="Model">`)
		w.raw(`<input name="serial_number" placeholder="Serial number">`)
		w.raw(`<input name="height_units" type="number" min="1" value="1">`)
		w.raw(`<input name="power_consumption_watts" type="number" min="0" placeholder="Power (W)">`)
		w.raw(`<select name="customer_id"><option value="">(no customer)</option>`)
		for _, c := range form.Customers {
			option(w, c.ID, c.Name, false)
		}
		w.raw(`</select><select name="project_id"><option value="">(no project)</option>`)
		for _, p := range form.Projects {
			option(w, p.ID, p.Name, false)
		}
		w.raw(`</select><select name="rack_id"><option value="">(not racked)</option>`)
		for _, r := range form.Racks {
			option(w, r.ID, r.Name+" / "+r.DataCenterName, false)
		}
		w.raw(`</select><input name="rack_position" type="number" min="1" placeholder="Start unit">`)
		w.raw(`<button type="submit">Create</button></fieldset></form>`)

		w.raw(`<nav class="filter"><a href="/assets">all</a> `)
		for _, st := range assetStatuses {
			if st == filter {
				w.f(`<strong>%s</strong> `, st)
				continue
			}
			w.f(`<a href="/assets?status=%s">%s</a> `, st, st)
		}
		w.raw(`</nav>`)

		if len(assets) == 0 {
			w.raw(`<p>No assets.</p>`)
			return
		}
		w.raw(`<table><thead><tr><th>Name</th><th>Tag</th><th>Model</th><th>Rack</th><th>Units</th><th>Status</th><th></th></tr></thead><tbody>`)
		for _, a := range assets {
			w.f(`<tr id="asset-%s"><td><a href="/assets/%s">%s</a></td><td>%s</td><td>%s %s</td><td>%s</td><td>%s</td><td>%s</td>`,
				a.ID, a.ID, a.Name, a.AssetTag, a.Manufacturer, a.Model, a.RackName, units(a), a.Status)
			w.f(`<td><button hx-delete="/assets/%s" hx-confirm="Delete asset %s? Its addresses are released.">Delete</button></td></tr>`,
				a.ID, a.Name)
		}
		w.raw(`</tbody></table>`)
	}))
}

// units describes where an asset sits, e.g. "U3-U4".
func units(a models.Asset) string {
	if a.RackPosition == nil {
		return ""
	}
	first := *a.RackPosition
	last := first + a.HeightUnits - 1
	if first == last {
		return "U" + optInt(&first)
	}
	return "U" + optInt(&first) + "-U" + optInt(&last)
}

// AssetDetail shows an asset with an edit form. Changing the rack, position
// or height in the form re-checks the placement.
func AssetDetail(a models.Asset, addrs []models.AddressRecord, changes []models.ChangeEntry, form AssetForm) templ.Component {
	return Layout("Asset "+a.Name, component(func(ctx context.Context, w *writer) {
		w.f(`<dl><dt>Tag</dt><dd>%s</dd><dt>Serial</dt><dd>%s</dd><dt>Model</dt><dd>%s %s</dd>`,
			a.AssetTag, a.SerialNumber, a.Manufacturer, a.Model)
		w.f(`<dt>Height</dt><dd>%dU</dd><dt>Power</dt><dd>%s</dd><dt>Status</dt><dd>%s</dd>`,
			a.HeightUnits, optInt(a.PowerConsumptionWatts), a.Status)
		w.raw(`<dt>Rack</dt><dd>`)
		if a.RackID != nil {
			w.f(`<a href="/racks/%s">%s</a> %s `, a.RackID, a.RackName, units(a))
			w.f(`<button hx-delete="/assets/%s/rack">Remove from rack</button>`, a.ID)
		} else {
			w.raw(`not racked`)
		}
		w.f(`</dd><dt>Notes</dt><dd>%s</dd></dl>`, a.Notes)
		assetEditForm(w, a, form)

		w.raw(`<h2>IP addresses</h2>`)
		if len(addrs) == 0 {
			w.raw(`<p>No addresses assigned.</p>`)
		} else {
			w.raw(`<ul>`)
			for _, ad := range addrs {
				w.f(`<li><a href="/pools/%s">%s</a> %s</li>`, ad.PoolID, ad.Address, ad.Hostname)
			}
			w.raw(`</ul>`)
		}

		w.raw(`<h2>History</h2>`)
		w.render(ctx, changeTable(changes))
	}))
}

func assetEditForm(w *writer, a models.Asset, form AssetForm) {
	w.f(`<details><summary>Edit asset</summary><form method="post" action="/assets/%s">`, a.ID)
	w.f(`<input name="name" value="%s" required><input name="asset_tag" value="%s" placeholder="Asset tag">`, a.Name, a.AssetTag)
	w.f(`<input name="manufacturer" value="%s" placeholder="Manufacturer"><input name="model" value="%s" placeholder="Model">`,
		a.Manufacturer, a.Model)
	w.f(`<input name="serial_number" value="%s" placeholder="Serial number">`, a.SerialNumber)
	w.f(`<input name="height_units" type="number" min="1" value="%d">`, a.HeightUnits)
	w.f(`<input name="power_consumption_watts" type="number" min="0" value="%s" placeholder="Power (W)">`, optInt(a.PowerConsumptionWatts))
	w.raw(`<select name="status">`)
	for _, st := range assetStatuses {
		option(w, string(st), string(st), st == a.Status)
	}
	w.raw(`</select><select name="customer_id"><option value="">(no customer)</option>`)
	for _, c := range form.Customers {
		option(w, c.ID, c.Name, c.ID == opt(a.CustomerID))
	}
	w.raw(`</select><select name="project_id"><option value="">(no project)</option>`)
	for _, p := range form.Projects {
		option(w, p.ID, p.Name, p.ID == opt(a.ProjectID))
	}
	w.raw(`</select><select name="rack_id"><option value="">(not racked)</option>`)
	for _, r := range form.Racks {
		option(w, r.ID, r.Name+" / "+r.DataCenterName, r.ID == opt(a.RackID))
	}
	w.f(`</select><input name="rack_position" type="number" min="1" value="%s" placeholder="Start unit">`, optInt(a.RackPosition))
	w.f(`<input name="notes" value="%s" placeholder="Notes">`, a.Notes)
	w.raw(`<button type="submit">Save</button></form></details>`)
}
