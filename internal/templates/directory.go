package templates

import (
	"context"
	"fmt"

	"github.com/a-h/templ"

	"github.com/ttani03/goth-dcim/internal/models"
)

func DataCenterList(dcs []models.DataCenter) templ.Component {
	return Layout("Data centers", component(func(_ context.Context, w *writer) {
		w.raw(`<form method="post" action="/datacenters"><fieldset><legend>New data center</legend>`)
		w.raw(`<input name="name" placeholder="Name" required><input name="location" placeholder="Location" required>`)
		w.raw(`<input name="address" placeholder="Street address">`)
		w.raw(`<input name="power_capacity_kw" type="number" step="0.1" min="0" placeholder="Power (kW)">`)
		w.raw(`<input name="cooling_capacity_tons" type="number" step="0.1" min="0" placeholder="Cooling (tons)">`)
		w.raw(`<button type="submit">Create</button></fieldset></form>`)

		w.raw(`<table><thead><tr><th>Name</th><th>Location</th><th>Address</th><th>Power</th><th>Cooling</th><th>Racks</th></tr></thead><tbody>`)
		for _, d := range dcs {
			w.f(`<tr><td><a href="/datacenters/%s">%s</a></td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%d</td></tr>`,
				d.ID, d.Name, d.Location, d.Address, optFloat(d.PowerCapacityKW, "kW"), optFloat(d.CoolingCapacityTons, "t"), d.RackCount)
		}
		w.raw(`</tbody></table>`)
	}))
}

// DataCenterDetail shows a data center, its capacity totals and its racks,
// with an edit form.
func DataCenterDetail(d models.DataCenter, racks []models.RackSummary) templ.Component {
	return Layout("Data center "+d.Name, component(func(_ context.Context, w *writer) {
		totalUnits, usedUnits, assets := 0, 0, 0
		for _, r := range racks {
			totalUnits += r.HeightUnits
			usedUnits += r.UsedUnits
			assets += r.AssetCount
		}
		pct := 0
		if totalUnits > 0 {
			pct = (usedUnits*100 + totalUnits/2) / totalUnits
		}

		w.f(`<dl><dt>Location</dt><dd>%s</dd><dt>Address</dt><dd>%s</dd><dt>Power</dt><dd>%s</dd><dt>Cooling</dt><dd>%s</dd>`,
			d.Location, d.Address, optFloat(d.PowerCapacityKW, "kW"), optFloat(d.CoolingCapacityTons, "t"))
		w.f(`<dt>Racks</dt><dd>%d</dd><dt>Assets</dt><dd>%d</dd><dt>Units</dt><dd>%d of %dU used</dd><dt>Utilization</dt><dd>`,
			len(racks), assets, usedUnits, totalUnits)
		bar(w, pct)
		w.raw(`</dd></dl>`)

		w.f(`<details><summary>Edit data center</summary><form method="post" action="/datacenters/%s">`, d.ID)
		w.f(`<input name="name" value="%s" required><input name="location" value="%s" required>`, d.Name, d.Location)
		w.f(`<input name="address" value="%s" placeholder="Street address">`, d.Address)
		w.f(`<input name="power_capacity_kw" type="number" step="0.1" min="0" value="%s" placeholder="Power (kW)">`, optNumber(d.PowerCapacityKW))
		w.f(`<input name="cooling_capacity_tons" type="number" step="0.1" min="0" value="%s" placeholder="Cooling (tons)">`, optNumber(d.CoolingCapacityTons))
		w.raw(`<button type="submit">Save</button></form></details>`)

		w.raw(`<h2>Racks</h2>`)
		if len(racks) == 0 {
			w.raw(`<p>No racks yet.</p>`)
			return
		}
		w.raw(`<table><thead><tr><th>Name</th><th>Position</th><th>Height</th><th>Assets</th><th>Used</th><th>Status</th></tr></thead><tbody>`)
		for _, r := range racks {
			w.f(`<tr><td><a href="/racks/%s">%s</a></td><td>%s-%s</td><td>%dU</td><td>%d</td><td>`,
				r.ID, r.Name, r.RowPosition, r.ColumnPosition, r.HeightUnits, r.AssetCount)
			bar(w, r.Utilization())
			w.f(`</td><td>%s</td></tr>`, r.Status)
		}
		w.raw(`</tbody></table>`)
	}))
}

func optFloat(v *float64, unit string) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g %s", *v, unit)
}

func CustomerList(customers []models.Customer) templ.Component {
	return Layout("Customers", component(func(_ context.Context, w *writer) {
		w.raw(`<form method="post" action="/customers"><fieldset><legend>New customer</legend>`)
		w.raw(`<input name="name" placeholder="Name" required><input name="contact_email" type="email" placeholder="Email">`)
		w.raw(`<input name="contact_phone" placeholder="Phone"><input name="notes" placeholder="Notes">`)
		w.raw(`<button type="submit">Create</button></fieldset></form>`)

		w.raw(`<table><thead><tr><th>Name</th><th>Email</th><th>Phone</th><th>Notes</th></tr></thead><tbody>`)
		for _, c := range customers {
			w.f(`<tr><td><a href="/customers/%s">%s</a></td><td>%s</td><td>%s</td><td>%s</td></tr>`,
				c.ID, c.Name, c.ContactEmail, c.ContactPhone, c.Notes)
		}
		w.raw(`</tbody></table>`)
	}))
}

func CustomerDetail(c models.Customer, projects []models.Project, assets []models.Asset) templ.Component {
	return Layout("Customer "+c.Name, component(func(_ context.Context, w *writer) {
		w.f(`<dl><dt>Email</dt><dd>%s</dd><dt>Phone</dt><dd>%s</dd><dt>Notes</dt><dd>%s</dd><dt>Since</dt><dd>%s</dd></dl>`,
			c.ContactEmail, c.ContactPhone, c.Notes, date(c.CreatedAt))

		w.f(`<h2>Projects (%d)</h2>`, len(projects))
		if len(projects) == 0 {
			w.raw(`<p>No projects.</p>`)
		} else {
			w.raw(`<table><thead><tr><th>Name</th><th>Status</th><th>Description</th></tr></thead><tbody>`)
			for _, p := range projects {
				w.f(`<tr><td>%s</td><td>%s</td><td>%s</td></tr>`, p.Name, p.Status, p.Description)
			}
			w.raw(`</tbody></table>`)
		}

		w.f(`<h2>Assets (%d)</h2>`, len(assets))
		if len(assets) == 0 {
			w.raw(`<p>No assets.</p>`)
			return
		}
		w.raw(`<table><thead><tr><th>Name</th><th>Model</th><th>Rack</th><th>Units</th><th>Status</th></tr></thead><tbody>`)
		for _, a := range assets {
			w.f(`<tr><td><a href="/assets/%s">%s</a></td><td>%s %s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
				a.ID, a.Name, a.Manufacturer, a.Model, a.RackName, units(a), a.Status)
		}
		w.raw(`</tbody></table>`)
	}))
}

func ProjectList(projects []models.Project, customers []models.Customer) templ.Component {
	return Layout("Projects", component(func(_ context.Context, w *writer) {
		w.raw(`<form method="post" action="/projects"><fieldset><legend>New project</legend>`)
		w.raw(`<input name="name" placeholder="Name" required><select name="customer_id"><option value="">(no customer)</option>`)
		for _, c := range customers {
			option(w, c.ID, c.Name, false)
		}
		w.raw(`</select><select name="status">`)
		for _, st := range []string{"active", "planned", "completed", "cancelled"} {
			option(w, st, st, st == "active")
		}
		w.raw(`</select><input name="description" placeholder="Description">`)
		w.raw(`<button type="submit">Create</button></fieldset></form>`)

		w.raw(`<table><thead><tr><th>Name</th><th>Customer</th><th>Status</th><th>Description</th></tr></thead><tbody>`)
		for _, p := range projects {
			w.f(`<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`, p.Name, p.CustomerName, p.Status, p.Description)
		}
		w.raw(`</tbody></table>`)
	}))
}

func ChangeList(changes []models.ChangeEntry, table string) templ.Component {
	return Layout("Changes", component(func(ctx context.Context, w *writer) {
		w.raw(`<nav class="filter"><a href="/changes">all</a> `)
		for _, t := range []string{"ip_pools", "ip_addresses", "racks", "assets", "data_centers", "customers", "projects"} {
			if t == table {
				w.f(`<strong>%s</strong> `, t)
				continue
			}
			w.f(`<a href="/changes?table=%s">%s</a> `, t, t)
		}
		w.raw(`</nav>`)
		w.render(ctx, changeTable(changes))
	}))
}

func changeTable(changes []models.ChangeEntry) templ.Component {
	return component(func(_ context.Context, w *writer) {
		if len(changes) == 0 {
			w.raw(`<p>No changes recorded.</p>`)
			return
		}
		w.raw(`<table><thead><tr><th>When</th><th>Table</th><th>Action</th><th>Description</th></tr></thead><tbody>`)
		for _, c := range changes {
			w.f(`<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`, date(c.CreatedAt), c.TableName, c.Action, c.Description)
		}
		w.raw(`</tbody></table>`)
	})
}
