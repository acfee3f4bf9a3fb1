package timeclock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepunch.app/sitepunch/timeclock"
)

func TestGetSummaryAccumulation(t *testing.T) {
	engine, store, _ := newEngine(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(closedEntry("a1", alice, base.Add(-72*time.Hour), 60)))
	require.NoError(t, store.Insert(closedEntry("a2", alice, base.Add(-48*time.Hour), 90)))
	require.NoError(t, store.Insert(openEntry("a3", alice, base.Add(-10*time.Minute))))
	// outside the window
	require.NoError(t, store.Insert(closedEntry("old", alice, base.Add(-15*24*time.Hour), 600)))
	// other employee
	require.NoError(t, store.Insert(closedEntry("b1", bob, base.Add(-time.Hour), 45)))

	summary, err := engine.GetSummary(ctx, alice, timeclock.SummaryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 160, summary.TotalMinutes)
	assert.Equal(t, 2.7, summary.TotalHours)
	assert.Equal(t, float64(40), summary.OvertimeThreshold)
	assert.False(t, summary.ApproachingOvertime)
}

func TestGetSummaryLiveDuration(t *testing.T) {
	engine, store, c := newEngine(t)
	ctx := context.Background()
	require.NoError(t, store.Insert(openEntry("a1", alice, base.Add(-10*time.Minute))))

	first, err := engine.GetSummary(ctx, alice, timeclock.SummaryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 10, first.TotalMinutes)

	c.Set(base.Add(20 * time.Minute))
	second, err := engine.GetSummary(ctx, alice, timeclock.SummaryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 30, second.TotalMinutes)
}

func TestGetSummaryOvertimeBoundary(t *testing.T) {
	tests := []struct {
		name      string
		minutes   int
		threshold float64
		expected  bool
	}{
		{name: "35.0h at 40", minutes: 2100, threshold: 40, expected: true},
		{name: "34.98h at 40", minutes: 2099, threshold: 40, expected: false},
		{name: "Rounded display does not count", minutes: 2098, threshold: 40, expected: false},
		{name: "Custom threshold", minutes: 1500, threshold: 30, expected: true},
		{name: "Zero", minutes: 0, threshold: 40, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, store, _ := newEngine(t)
			require.NoError(t, store.Insert(closedEntry("a1", alice, base.Add(-24*time.Hour), tt.minutes)))

			summary, err := engine.GetSummary(context.Background(), alice, timeclock.SummaryOptions{OvertimeThresholdHours: tt.threshold})
			require.NoError(t, err)
			assert.Equal(t, tt.minutes, summary.TotalMinutes)
			assert.Equal(t, tt.threshold, summary.OvertimeThreshold)
			assert.Equal(t, tt.expected, summary.ApproachingOvertime)
		})
	}
}

func TestGetSummaryWindow(t *testing.T) {
	engine, store, _ := newEngine(t)
	ctx := context.Background()
	require.NoError(t, store.Insert(closedEntry("a1", alice, base.Add(-6*24*time.Hour), 60)))
	require.NoError(t, store.Insert(closedEntry("a2", alice, base.Add(-8*24*time.Hour), 60)))

	week, err := engine.GetSummary(ctx, alice, timeclock.SummaryOptions{WindowDays: 7})
	require.NoError(t, err)
	assert.Equal(t, 60, week.TotalMinutes)

	fortnight, err := engine.GetSummary(ctx, alice, timeclock.SummaryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 120, fortnight.TotalMinutes)
	assert.Equal(t, 2.0, fortnight.TotalHours)
}

func TestRoundMinutes(t *testing.T) {
	assert.Equal(t, 31, timeclock.RoundMinutes(30*time.Minute+30*time.Second))
	assert.Equal(t, 30, timeclock.RoundMinutes(30*time.Minute+29*time.Second))
	assert.Equal(t, 0, timeclock.RoundMinutes(0))
}
