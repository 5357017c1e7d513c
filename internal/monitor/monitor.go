// Package monitor reads the health of the host the server runs on.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// cpuSampleInterval is how long CPU usage is measured for.
const cpuSampleInterval = 200 * time.Millisecond

type Usage struct {
	Used    uint64
	Total   uint64
	Percent float64
}

type Snapshot struct {
	Hostname string
	Platform string
	Uptime   time.Duration
	CPUCores int
	CPU      float64
	Load1    float64
	Load5    float64
	Load15   float64
	Memory   Usage
	Disk     Usage
	DiskPath string
	TakenAt  time.Time
	// Errors lists the checks that failed; their fields are left zero.
	Errors []string
}

// Take samples the host. A failing check does not fail the snapshot, it is
// recorded in Errors instead. Only a cancelled context returns an error.
func Take(ctx context.Context, diskPath string) (*Snapshot, error) {
	if diskPath == "" {
		diskPath = "/"
	}
	s := &Snapshot{DiskPath: diskPath, TakenAt: time.Now()}

	if info, err := host.InfoWithContext(ctx); err != nil {
		s.fail("host", err)
	} else {
		s.Hostname = info.Hostname
		s.Platform = fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
		s.Uptime = time.Duration(info.Uptime) * time.Second
	}

	if n, err := cpu.CountsWithContext(ctx, true); err != nil {
		s.fail("cpu count", err)
	} else {
		s.CPUCores = n
	}
	if pct, err := cpu.PercentWithContext(ctx, cpuSampleInterval, false); err != nil {
		s.fail("cpu", err)
	} else if len(pct) > 0 {
		s.CPU = pct[0]
	}

	if avg, err := load.AvgWithContext(ctx); err != nil {
		s.fail("load", err)
	} else {
		s.Load1, s.Load5, s.Load15 = avg.Load1, avg.Load5, avg.Load15
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		s.fail("memory", err)
	} else {
		s.Memory = Usage{Used: vm.Used, Total: vm.Total, Percent: vm.UsedPercent}
	}

	if du, err := disk.UsageWithContext(ctx, diskPath); err != nil {
		s.fail("disk", err)
	} else {
		s.Disk = Usage{Used: du.Used, Total: du.Total, Percent: du.UsedPercent}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Snapshot) fail(check string, err error) {
	s.Errors = append(s.Errors, fmt.Sprintf("%s: %v", check, err))
}

// Bytes formats n with a binary unit, e.g. "1.5 GiB".
func Bytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// Duration formats an uptime as days, hours and minutes.
func Duration(d time.Duration) string {
	d = d.Truncate(time.Minute)
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	minutes := int((d - time.Duration(hours)*time.Hour) / time.Minute)
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
