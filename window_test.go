package smssensor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScanWindowFirstRunCoversLookback(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	w := scanWindow(nil, now, 90, 72*time.Hour, false)
	require.Equal(t, now.AddDate(0, 0, -90), w.From)
	require.Equal(t, now, w.To)
}

func TestScanWindowIncrementalWithOverlap(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	cp := &Checkpoint{ScannedAt: now.AddDate(0, 0, -1), LookbackDays: 90}
	w := scanWindow(cp, now, 90, 72*time.Hour, false)
	require.Equal(t, cp.ScannedAt.Add(-72*time.Hour), w.From)
	require.Equal(t, now, w.To)
}

func TestScanWindowWidenedLookbackForcesFullRescan(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	cp := &Checkpoint{ScannedAt: now.AddDate(0, 0, -1), LookbackDays: 30}
	w := scanWindow(cp, now, 90, 72*time.Hour, false)
	require.Equal(t, now.AddDate(0, 0, -90), w.From)
}

func TestScanWindowStaleCheckpointClampedToLookback(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	cp := &Checkpoint{ScannedAt: now.AddDate(0, 0, -200), LookbackDays: 90}
	w := scanWindow(cp, now, 90, 72*time.Hour, false)
	require.Equal(t, now.AddDate(0, 0, -90), w.From)
}

func TestScanWindowAllTime(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	cp := &Checkpoint{ScannedAt: now.AddDate(0, 0, -1), LookbackDays: 90}
	w := scanWindow(cp, now, 90, 72*time.Hour, true)
	require.True(t, w.From.IsZero())
	require.Equal(t, now, w.To)
}
