package templates

import (
	"context"
	"strings"

	"github.com/a-h/templ"

	"github.com/ttani03/goth-dcim/internal/inventory"
	"github.com/ttani03/goth-dcim/internal/monitor"
)

func Dashboard(s *inventory.Summary) templ.Component {
	return Layout("Dashboard", component(func(ctx context.Context, w *writer) {
		w.raw(`<section class="cards">`)
		w.f(`<article><h2>Data centers</h2><p>%d</p></article>`, s.DataCenters)
		w.f(`<article><h2>Racks</h2><p>%d</p><p>`, s.Racks)
		bar(w, s.RackUtilization)
		w.raw(`</p></article>`)
		w.f(`<article><h2>Assets</h2><p>%d</p><ul>`, s.TotalAssets())
		for _, st := range assetStatuses {
			w.f(`<li>%s: %d</li>`, st, s.Assets[st])
		}
		w.raw(`</ul></article>`)
		w.f(`<article><h2>IP addresses</h2><p>%d in %d pools</p><p>`, s.Addresses.Total, s.Pools)
		bar(w, s.Addresses.Utilization())
		w.f(`</p><ul><li>assigned: %d</li><li>available: %d</li><li>reserved: %d</li><li>blocked: %d</li></ul></article>`,
			s.Addresses.Assigned, s.Addresses.Available, s.Addresses.Reserved, s.Addresses.Blocked)
		w.f(`<article><h2>Customers</h2><p>%d customers, %d projects</p></article>`, s.Customers, s.Projects)
		w.raw(`</section><h2>Recent changes</h2>`)
		w.render(ctx, changeTable(s.RecentChanges))
	}))
}

func Monitoring(s *monitor.Snapshot) templ.Component {
	return Layout("Monitoring", component(func(_ context.Context, w *writer) {
		w.f(`<dl><dt>Host</dt><dd>%s (%s)</dd><dt>Uptime</dt><dd>%s</dd>`, s.Hostname, s.Platform, monitor.Duration(s.Uptime))
		w.f(`<dt>CPU</dt><dd>%d cores, %.1f%% busy, load %.2f %.2f %.2f</dd>`, s.CPUCores, s.CPU, s.Load1, s.Load5, s.Load15)
		w.f(`<dt>Memory</dt><dd>%s of %s (%.1f%%)</dd>`, monitor.Bytes(s.Memory.Used), monitor.Bytes(s.Memory.Total), s.Memory.Percent)
		w.f(`<dt>Disk %s</dt><dd>%s of %s (%.1f%%)</dd></dl>`, s.DiskPath, monitor.Bytes(s.Disk.Used), monitor.Bytes(s.Disk.Total), s.Disk.Percent)
		if len(s.Errors) > 0 {
			w.f(`<p class="error">Unavailable: %s</p>`, strings.Join(s.Errors, "; "))
		}
		w.f(`<p>Taken at %s</p>`, date(s.TakenAt))
	}))
}
