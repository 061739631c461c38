package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armature-ai/armature/faults"
)

func stubSampler(snap Snapshot) Sampler {
	return func(context.Context) (Snapshot, error) {
		snap.TakenAt = time.Now().UTC()
		return snap, nil
	}
}

func TestCheck_Admits(t *testing.T) {
	g := New(DefaultThresholds()).WithSampler(stubSampler(Snapshot{
		MemoryPercent: 40, CPUPercent: 30, DiskPercent: 60,
	}))

	snap, fault := g.Check(context.Background(), "video_analysis")
	assert.Nil(t, fault)
	assert.Equal(t, 40.0, snap.MemoryPercent)
	assert.False(t, snap.TakenAt.IsZero())
}

func TestCheck_Denies(t *testing.T) {
	tests := []struct {
		name      string
		snap      Snapshot
		resources []string
	}{
		{
			name:      "memory over",
			snap:      Snapshot{MemoryPercent: 92, CPUPercent: 10, DiskPercent: 10},
			resources: []string{"memory"},
		},
		{
			name:      "cpu over",
			snap:      Snapshot{MemoryPercent: 10, CPUPercent: 95, DiskPercent: 10},
			resources: []string{"cpu"},
		},
		{
			name:      "disk over",
			snap:      Snapshot{MemoryPercent: 10, CPUPercent: 10, DiskPercent: 99},
			resources: []string{"disk"},
		},
		{
			name:      "all over",
			snap:      Snapshot{MemoryPercent: 99, CPUPercent: 99, DiskPercent: 99},
			resources: []string{"memory", "cpu", "disk"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(DefaultThresholds()).WithSampler(stubSampler(tt.snap))

			_, fault := g.Check(context.Background(), "video_analysis")
			require.NotNil(t, fault)

			assert.Equal(t, faults.CategoryResource, fault.Category)
			assert.Equal(t, faults.CodeResourceBusy, fault.Code)

			breaches := fault.Details["breaches"].([]breach)
			require.Len(t, breaches, len(tt.resources))
			for i, res := range tt.resources {
				assert.Equal(t, res, breaches[i].Resource)
			}
		})
	}
}

func TestCheck_BoundaryIsNotABreach(t *testing.T) {
	// Thresholds are deny-above, so a reading exactly at the limit admits.
	g := New(Thresholds{MemoryPercent: 85, CPUPercent: 90, DiskPercent: 95}).
		WithSampler(stubSampler(Snapshot{MemoryPercent: 85, CPUPercent: 90, DiskPercent: 95}))

	_, fault := g.Check(context.Background(), "tool")
	assert.Nil(t, fault)
}

func TestCheck_ZeroThresholdDisables(t *testing.T) {
	g := New(Thresholds{MemoryPercent: 0, CPUPercent: 0, DiskPercent: 0}).
		WithSampler(stubSampler(Snapshot{MemoryPercent: 100, CPUPercent: 100, DiskPercent: 100}))

	_, fault := g.Check(context.Background(), "tool")
	assert.Nil(t, fault)
}

func TestCheck_SamplerFailureDenies(t *testing.T) {
	sampleErr := errors.New("proc unavailable")
	g := New(DefaultThresholds()).WithSampler(func(context.Context) (Snapshot, error) {
		return Snapshot{}, sampleErr
	})

	_, fault := g.Check(context.Background(), "tool")
	require.NotNil(t, fault)
	assert.Equal(t, faults.CategoryResource, fault.Category)
	assert.True(t, errors.Is(fault, sampleErr))
}
