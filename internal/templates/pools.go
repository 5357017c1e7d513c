package templates

import (
	"context"
	"strings"

	"github.com/a-h/templ"

	"github.com/ttani03/goth-dcim/internal/ipam"
	"github.com/ttani03/goth-dcim/internal/models"
)

func PoolList(pools []models.PoolSummary) templ.Component {
	return Layout("IP pools", component(func(_ context.Context, w *writer) {
		w.raw(`<form method="post" action="/pools"><fieldset><legend>New pool</legend>`)
		w.raw(`<input name="name" placeholder="Name" required>`)
		w.raw(`<input name="network_address" placeholder="10.0.0.0" required>`)
		w.raw(`<input name="subnet_mask" type="number" min="8" max="30" placeholder="24" required>`)
		w.raw(`<input name="gateway" placeholder="Gateway (optional)">`)
		w.raw(`<input name="vlan_id" type="number" min="1" max="4094" placeholder="VLAN">`)
		w.raw(`<input name="dns_servers" placeholder="DNS servers, comma separated">`)
		w.raw(`<input name="description" placeholder="Description">`)
		w.raw(`<button type="submit">Create</button></fieldset></form>`)

		if len(pools) == 0 {
			w.raw(`<p>No pools yet.</p>`)
			return
		}
		w.raw(`<table><thead><tr><th>Name</th><th>Network</th><th>Gateway</th><th>VLAN</th>`)
		w.raw(`<th>Total</th><th>Assigned</th><th>Available</th><th>Reserved</th><th>Blocked</th><th>Utilization</th><th></th></tr></thead><tbody>`)
		for _, p := range pools {
			w.f(`<tr id="pool-%s"><td><a href="/pools/%s">%s</a></td><td>%s</td><td>%s</td><td>%s</td>`,
				p.ID, p.ID, p.Name, p.CIDR(), p.Gateway, optInt(p.VLANID))
			w.f(`<td>%d</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td><td>`,
				p.Stats.Total, p.Stats.Assigned, p.Stats.Available, p.Stats.Reserved, p.Stats.Blocked)
			bar(w, p.Stats.Utilization())
			w.f(`</td><td><button hx-delete="/pools/%s" hx-confirm="Delete pool %s and all its addresses?">Delete</button></td></tr>`,
				p.ID, p.Name)
		}
		w.raw(`</tbody></table>`)
	}))
}

// Page locates one page of a longer listing.
type Page struct {
	Offset int
	Limit  int
	Total  int
}

func (p Page) HasPrev() bool {
	return p.Offset > 0
}

func (p Page) HasNext() bool {
	return p.Limit > 0 && p.Offset+p.Limit < p.Total
}

// PoolDetail shows a pool, its range and one page of its address records.
// assets are offered as assignment targets.
func PoolDetail(pool models.PoolSummary, rng ipam.Range, addrs []models.AddressRecord, filter models.AddressStatus, assets []models.Asset, page Page) templ.Component {
	return Layout("Pool "+pool.Name, component(func(_ context.Context, w *writer) {
		w.f(`<dl><dt>Network</dt><dd>%s</dd><dt>Usable range</dt><dd>%s - %s (%d hosts)</dd><dt>Broadcast</dt><dd>%s</dd>`,
			pool.CIDR(), rng.FirstHost, rng.LastHost, rng.Usable, rng.Broadcast)
		w.f(`<dt>Gateway</dt><dd>%s</dd><dt>VLAN</dt><dd>%s</dd><dt>DNS</dt><dd>%s</dd><dt>Description</dt><dd>%s</dd>`,
			pool.Gateway, optInt(pool.VLANID), strings.Join(pool.DNSServers, ", "), pool.Description)
		w.raw(`<dt>Utilization</dt><dd>`)
		bar(w, pool.Stats.Utilization())
		w.raw(`</dd></dl>`)

		w.f(`<details><summary>Edit pool</summary><form method="post" action="/pools/%s">`, pool.ID)
		w.f(`<input name="name" value="%s" required>`, pool.Name)
		w.f(`<input name="gateway" value="%s" placeholder="Gateway">`, pool.Gateway)
		w.f(`<input name="vlan_id" type="number" min="1" max="4094" value="%s">`, optInt(pool.VLANID))
		w.f(`<input name="dns_servers" value="%s">`, strings.Join(pool.DNSServers, ", "))
		w.f(`<input name="description" value="%s">`, pool.Description)
		w.raw(`<button type="submit">Save</button></form></details>`)

		w.raw(`<nav class="filter">`)
		for _, st := range []models.AddressStatus{"", models.AddressAvailable, models.AddressAssigned, models.AddressReserved, models.AddressBlocked} {
			label := string(st)
			if label == "" {
				label = "all"
			}
			if st == filter {
				w.f(`<strong>%s</strong> `, label)
				continue
			}
			w.f(`<a href="/pools/%s?status=%s">%s</a> `, pool.ID, st, label)
		}
		w.raw(`</nav>`)

		w.f(`<form id="bulk" method="post" action="/pools/%s/block">`, pool.ID)
		w.raw(`<input name="reason" placeholder="Reason">`)
		w.raw(`<button type="submit">Block selected</button>`)
		w.f(`<button type="submit" formaction="/pools/%s/unblock">Unblock selected</button></form>`, pool.ID)

		w.raw(`<table><thead><tr><th></th><th>Address</th><th>Status</th><th>Hostname</th><th>Asset</th><th>Assigned</th><th>Notes</th><th></th></tr></thead><tbody>`)
		for _, a := range addrs {
			assigned := ""
			if a.AssignmentDate != nil {
				assigned = date(*a.AssignmentDate)
			}
			w.f(`<tr id="addr-%s" class="%s"><td><input type="checkbox" form="bulk" name="ids" value="%s"></td>`, a.ID, a.Status, a.ID)
			w.f(`<td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>`,
				a.Address, a.Status, a.Hostname, a.AssetName, assigned, a.Notes)
			addressActions(w, a, assets)
			w.raw(`</td></tr>`)
		}
		w.raw(`</tbody></table>`)
		pager(w, "/pools/"+pool.ID+"?status="+string(filter)+"&", page, len(addrs))
	}))
}

// pager writes the position within a listing and links to its neighbours.
// base ends in "?" or "&".
func pager(w *writer, base string, page Page, shown int) {
	if !page.HasPrev() && !page.HasNext() {
		return
	}
	w.f(`<nav class="pager">%d-%d of %d `, page.Offset+1, page.Offset+shown, page.Total)
	if page.HasPrev() {
		w.f(`<a href="%soffset=%d">Previous</a> `, base, max(page.Offset-page.Limit, 0))
	}
	if page.HasNext() {
		w.f(`<a href="%soffset=%d">Next</a>`, base, page.Offset+page.Limit)
	}
	w.raw(`</nav>`)
}

func addressActions(w *writer, a models.AddressRecord, assets []models.Asset) {
	switch a.Status {
	case models.AddressAvailable:
		w.f(`<form method="post" action="/addresses/%s/assign">`, a.ID)
		w.raw(`<input name="hostname" placeholder="hostname"><select name="asset_id"><option value="">(no asset)</option>`)
		for _, as := range assets {
			option(w, as.ID, as.Name, false)
		}
		w.raw(`</select><button type="submit">Assign</button></form>`)
		w.f(`<form method="post" action="/addresses/%s/reserve"><input name="reason" placeholder="reason" required>`, a.ID)
		w.raw(`<button type="submit">Reserve</button></form>`)
	case models.AddressAssigned, models.AddressReserved:
		w.f(`<form method="post" action="/addresses/%s/release"><button type="submit">Release</button></form>`, a.ID)
	}
}
