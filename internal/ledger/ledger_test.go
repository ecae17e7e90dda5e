package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekStart(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"monday", time.Date(2026, 10, 12, 15, 0, 0, 0, time.UTC), time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)},
		{"thursday", time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC), time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)},
		{"sunday", time.Date(2026, 10, 18, 23, 59, 0, 0, time.UTC), time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.want.Equal(WeekStart(tc.in)), "got %v", WeekStart(tc.in))
		})
	}
}

func TestMemory_WeeklyRollsOverLifetimeAccumulates(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.ReportPoints(ctx, "u1", 10))
	require.NoError(t, m.ReportPoints(ctx, "u1", 5))

	got, err := m.Totals(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 15, got.Weekly)
	assert.Equal(t, 15, got.Lifetime)

	now = now.AddDate(0, 0, 7)
	got, err = m.Totals(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Weekly)

	require.NoError(t, m.ReportPoints(ctx, "u1", 2))
	got, _ = m.Totals(ctx, "u1")
	assert.Equal(t, 2, got.Weekly)
	assert.Equal(t, 17, got.Lifetime)

	_, err = m.Totals(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}
