// Package guard provides advisory admission control for Armature
// executions.
//
// Before a tool runs, the guard compares a point-in-time snapshot of
// system utilization (memory, CPU, disk) against configured thresholds and
// denies admission when any is exceeded. The check is read-only: nothing
// is reserved or locked, so admission is not guaranteed to still hold when
// execution begins. It exists to keep an overloaded host from taking on
// more work, not to implement a hard quota system.
package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/armature-ai/armature/faults"
)

// Thresholds holds the deny-above utilization limits, in percent.
// A zero threshold disables the corresponding check.
type Thresholds struct {
	MemoryPercent float64 `yaml:"memory_percent" json:"memory_percent"`
	CPUPercent    float64 `yaml:"cpu_percent" json:"cpu_percent"`
	DiskPercent   float64 `yaml:"disk_percent" json:"disk_percent"`
}

// DefaultThresholds returns the standard admission limits:
// deny above 85% memory, 90% CPU, or 95% disk.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MemoryPercent: 85,
		CPUPercent:    90,
		DiskPercent:   95,
	}
}

// Snapshot is a point-in-time view of system utilization.
type Snapshot struct {
	MemoryPercent float64   `json:"memory_percent"`
	CPUPercent    float64   `json:"cpu_percent"`
	DiskPercent   float64   `json:"disk_percent"`
	TakenAt       time.Time `json:"taken_at"`
}

// Sampler produces a utilization snapshot. The guard takes one sample per
// admission check. Tests substitute a deterministic sampler.
type Sampler func(ctx context.Context) (Snapshot, error)

// SystemSampler returns a Sampler backed by gopsutil, measuring disk usage
// at the given path ("/" when empty).
func SystemSampler(diskPath string) Sampler {
	if diskPath == "" {
		diskPath = "/"
	}
	return func(ctx context.Context) (Snapshot, error) {
		snap := Snapshot{TakenAt: time.Now().UTC()}

		vm, err := mem.VirtualMemoryWithContext(ctx)
		if err != nil {
			return snap, fmt.Errorf("memory snapshot: %w", err)
		}
		snap.MemoryPercent = vm.UsedPercent

		// Interval 0 reports utilization since the previous call, which is
		// the cheap point-in-time reading an advisory check wants.
		percents, err := cpu.PercentWithContext(ctx, 0, false)
		if err != nil {
			return snap, fmt.Errorf("cpu snapshot: %w", err)
		}
		if len(percents) > 0 {
			snap.CPUPercent = percents[0]
		}

		du, err := disk.UsageWithContext(ctx, diskPath)
		if err != nil {
			return snap, fmt.Errorf("disk snapshot: %w", err)
		}
		snap.DiskPercent = du.UsedPercent

		return snap, nil
	}
}

// Guard performs admission checks against a set of thresholds.
type Guard struct {
	thresholds Thresholds
	sample     Sampler
}

// New creates a guard with the given thresholds and the system sampler.
func New(t Thresholds) *Guard {
	return &Guard{thresholds: t, sample: SystemSampler("")}
}

// WithSampler replaces the sampler. Returns the same guard for chaining.
func (g *Guard) WithSampler(s Sampler) *Guard {
	g.sample = s
	return g
}

// breach records one exceeded threshold.
type breach struct {
	Resource  string  `json:"resource"`
	Observed  float64 `json:"observed"`
	Threshold float64 `json:"threshold"`
}

// Check takes a snapshot and admits or denies the execution. A denial is a
// resource-category fault naming every exceeded resource with its observed
// value and threshold. A sampler failure also denies: admission cannot be
// judged without a reading.
func (g *Guard) Check(ctx context.Context, tool string) (Snapshot, *faults.Fault) {
	snap, err := g.sample(ctx)
	if err != nil {
		return snap, faults.New(tool, faults.CodeResourceBusy, "resource snapshot unavailable").WithCause(err)
	}

	var breaches []breach
	if g.thresholds.MemoryPercent > 0 && snap.MemoryPercent > g.thresholds.MemoryPercent {
		breaches = append(breaches, breach{"memory", snap.MemoryPercent, g.thresholds.MemoryPercent})
	}
	if g.thresholds.CPUPercent > 0 && snap.CPUPercent > g.thresholds.CPUPercent {
		breaches = append(breaches, breach{"cpu", snap.CPUPercent, g.thresholds.CPUPercent})
	}
	if g.thresholds.DiskPercent > 0 && snap.DiskPercent > g.thresholds.DiskPercent {
		breaches = append(breaches, breach{"disk", snap.DiskPercent, g.thresholds.DiskPercent})
	}

	if len(breaches) == 0 {
		return snap, nil
	}

	f := faults.New(tool, faults.CodeResourceBusy,
		fmt.Sprintf("admission denied: %d resource(s) over threshold", len(breaches))).
		WithDetails(map[string]any{"breaches": breaches, "snapshot": snap})
	for _, b := range breaches {
		f = f.WithSuggestions(fmt.Sprintf("%s utilization %.1f%% exceeds threshold %.1f%%", b.Resource, b.Observed, b.Threshold))
	}
	return snap, f
}
