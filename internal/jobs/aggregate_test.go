package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sladeshAPI/internal/repository/memory"
	"sladeshAPI/internal/types/statistics"
	"sladeshAPI/internal/types/user"
)

func TestDrinkRolloverArchivesAndResets(t *testing.T) {
	users := memory.NewUserRepo()
	stats := memory.NewStatsRepo()
	now := time.Date(2026, 8, 29, 11, 0, 0, 0, time.UTC)

	alice := users.Add(&user.User{
		Username:    "alice",
		Drinks:      map[string]int{"beer": 2},
		TotalDrinks: 2,
	})
	bob := users.Add(&user.User{
		Username:    "bob",
		Drinks:      map[string]int{"beer": 3, "wine": 1},
		TotalDrinks: 4,
	})

	job := NewDrinkRollover(users, stats, time.UTC)
	job.clock = func() time.Time { return now }
	require.NoError(t, job.Run(context.Background()))

	totals, marker, err := stats.DrinkTotals(context.Background())
	require.NoError(t, err)
	require.NotNil(t, marker)
	assert.Equal(t, statistics.BeverageTotals{Beer: 5, Wine: 1}, totals["2026-08"])
	assert.Equal(t, statistics.BeverageTotals{Beer: 5, Wine: 1}, totals[statistics.OverallKey])

	a, _ := users.Get(alice)
	b, _ := users.Get(bob)
	assert.Empty(t, a.Drinks)
	assert.Zero(t, a.TotalDrinks)
	assert.Empty(t, b.Drinks)
	assert.Zero(t, b.TotalDrinks)
	assert.Equal(t, marker.ID, a.LastRolloverID)
	assert.Equal(t, marker.ID, b.LastRolloverID)
}

func TestDrinkRolloverMergesAdditively(t *testing.T) {
	users := memory.NewUserRepo()
	stats := memory.NewStatsRepo()
	now := time.Date(2026, 8, 29, 11, 0, 0, 0, time.UTC)

	stats.SeedDrinkTotals("2026-08", statistics.BeverageTotals{Beer: 10, Shots: 2})
	stats.SeedDrinkTotals("2026-07", statistics.BeverageTotals{Beer: 100})
	stats.SeedDrinkTotals(statistics.OverallKey, statistics.BeverageTotals{Beer: 110, Shots: 2})

	users.Add(&user.User{Username: "alice", Drinks: map[string]int{"beer": 1, "drink": 4}, TotalDrinks: 5})

	job := NewDrinkRollover(users, stats, time.UTC)
	job.clock = func() time.Time { return now }
	require.NoError(t, job.Run(context.Background()))

	totals, _, err := stats.DrinkTotals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, statistics.BeverageTotals{Beer: 11, Shots: 2, Drinks: 4}, totals["2026-08"])
	assert.Equal(t, statistics.BeverageTotals{Beer: 111, Shots: 2, Drinks: 4}, totals[statistics.OverallKey])
	// Prior months are never rewritten.
	assert.Equal(t, statistics.BeverageTotals{Beer: 100}, totals["2026-07"])
}

func TestDrinkRolloverRunTwiceAddsNothing(t *testing.T) {
	users := memory.NewUserRepo()
	stats := memory.NewStatsRepo()
	now := time.Date(2026, 8, 29, 11, 0, 0, 0, time.UTC)

	users.Add(&user.User{Username: "alice", Drinks: map[string]int{"beer": 2}, TotalDrinks: 2})

	job := NewDrinkRollover(users, stats, time.UTC)
	job.clock = func() time.Time { return now }
	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, job.Run(context.Background()))

	totals, _, err := stats.DrinkTotals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, statistics.BeverageTotals{Beer: 2}, totals["2026-08"])
	assert.Equal(t, statistics.BeverageTotals{Beer: 2}, totals[statistics.OverallKey])
}

func TestDrinkRolloverWarnsOnStaleStamp(t *testing.T) {
	users := memory.NewUserRepo()
	stats := memory.NewStatsRepo()
	now := time.Date(2026, 8, 29, 11, 0, 0, 0, time.UTC)

	id := users.Add(&user.User{Username: "alice", Drinks: map[string]int{"beer": 2}, TotalDrinks: 2})

	job := NewDrinkRollover(users, stats, time.UTC)
	job.clock = func() time.Time { return now }
	require.NoError(t, job.Run(context.Background()))

	// Rewind alice to a stamp from an older rollover, counters refilled, as if
	// the last reset batch never reached her.
	stale, _ := users.Get(id)
	stale.LastRolloverID = "older-rollover"
	stale.Drinks = map[string]int{"beer": 3}
	stale.TotalDrinks = 3
	users.Add(stale)

	before := testutil.ToFloat64(rolloverStragglers)
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 1.0, testutil.ToFloat64(rolloverStragglers)-before)
	totals, marker, err := stats.DrinkTotals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, statistics.BeverageTotals{Beer: 5}, totals["2026-08"])

	u, _ := users.Get(id)
	assert.Equal(t, marker.ID, u.LastRolloverID)
}

type flakyResetUsers struct {
	*memory.UserRepo
	failures int
}

func (r *flakyResetUsers) ResetDrinkCounters(ctx context.Context, userIDs []string, rolloverID string) error {
	if r.failures > 0 {
		r.failures--
		return errors.New("store unavailable")
	}
	return r.UserRepo.ResetDrinkCounters(ctx, userIDs, rolloverID)
}

func TestDrinkRolloverWarnsAfterFailedReset(t *testing.T) {
	users := &flakyResetUsers{UserRepo: memory.NewUserRepo(), failures: 1}
	stats := memory.NewStatsRepo()
	now := time.Date(2026, 8, 29, 11, 0, 0, 0, time.UTC)

	id := users.Add(&user.User{Username: "alice", Drinks: map[string]int{"beer": 2}, TotalDrinks: 2})

	job := NewDrinkRollover(users, stats, time.UTC)
	job.clock = func() time.Time { return now }

	// Archive lands, reset batch fails: alice keeps her counters unstamped.
	require.Error(t, job.Run(context.Background()))
	totals, _, err := stats.DrinkTotals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, statistics.BeverageTotals{Beer: 2}, totals["2026-08"])

	// The rerun double-counts her totals; that is the accepted at-least-once
	// outcome, but it must be flagged, not silent.
	before := testutil.ToFloat64(rolloverStragglers)
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 1.0, testutil.ToFloat64(rolloverStragglers)-before)
	totals, _, err = stats.DrinkTotals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, statistics.BeverageTotals{Beer: 4}, totals["2026-08"])

	u, _ := users.Get(id)
	assert.Zero(t, u.TotalDrinks)
}

func TestDrinkRolloverDoesNotFlagIdleNewUsers(t *testing.T) {
	users := memory.NewUserRepo()
	stats := memory.NewStatsRepo()
	now := time.Date(2026, 8, 29, 11, 0, 0, 0, time.UTC)

	users.Add(&user.User{Username: "alice", Drinks: map[string]int{"beer": 2}, TotalDrinks: 2})

	job := NewDrinkRollover(users, stats, time.UTC)
	job.clock = func() time.Time { return now }
	require.NoError(t, job.Run(context.Background()))

	// Joined after the last rollover, no drinks yet: nothing to double-count.
	users.Add(&user.User{Username: "bob"})

	before := testutil.ToFloat64(rolloverStragglers)
	require.NoError(t, job.Run(context.Background()))
	assert.Zero(t, testutil.ToFloat64(rolloverStragglers)-before)
}

type failingMergeStats struct {
	*memory.StatsRepo
}

func (s *failingMergeStats) MergeDrinkTotals(ctx context.Context, month string, monthTotal, overallTotal statistics.BeverageTotals, marker statistics.RolloverMarker) error {
	return errors.New("store unavailable")
}

func TestDrinkRolloverKeepsCountersWhenArchiveFails(t *testing.T) {
	users := memory.NewUserRepo()
	stats := &failingMergeStats{StatsRepo: memory.NewStatsRepo()}

	id := users.Add(&user.User{Username: "alice", Drinks: map[string]int{"beer": 2}, TotalDrinks: 2})

	job := NewDrinkRollover(users, stats, time.UTC)
	err := job.Run(context.Background())
	require.Error(t, err)

	u, _ := users.Get(id)
	assert.Equal(t, 2, u.TotalDrinks)
	assert.Equal(t, map[string]int{"beer": 2}, u.Drinks)
}
