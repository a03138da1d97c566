package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sladeshAPI/internal/repository/memory"
	"sladeshAPI/internal/types/statistics"
	"sladeshAPI/internal/types/user"
)

func TestMostSladeshedRebaselinesOnFirstRun(t *testing.T) {
	users := memory.NewUserRepo()
	stats := memory.NewStatsRepo()
	now := time.Date(2026, 8, 15, 1, 0, 0, 0, time.UTC)

	id := users.Add(&user.User{Username: "alice", TotalSladeshes: 10})

	job := NewMostSladeshed(users, stats, MonthModeBaseline, time.UTC)
	job.clock = func() time.Time { return now }
	require.NoError(t, job.Run(context.Background()))

	// The baseline snapshot is persisted, not just computed in memory.
	u, _ := users.Get(id)
	require.NotNil(t, u.SladeshesAtStartOfMonth)
	assert.Equal(t, 10, *u.SladeshesAtStartOfMonth)

	board, err := stats.MostSladeshed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, statistics.RankedUser{Username: "alice", Score: 10}, board["2026-08"])
	assert.Equal(t, statistics.RankedUser{Username: "alice", Score: 10}, board[statistics.OverallKey])
}

func TestMostSladeshedRebaselinesOnMonthChange(t *testing.T) {
	users := memory.NewUserRepo()
	stats := memory.NewStatsRepo()
	now := time.Date(2026, 9, 1, 1, 0, 0, 0, time.UTC)
	july := time.Date(2026, 7, 20, 22, 0, 0, 0, time.UTC)

	id := users.Add(&user.User{
		Username:                "alice",
		TotalSladeshes:          25,
		SladeshesAtStartOfMonth: intPtr(10),
		LastSladesh:             &july,
	})

	job := NewMostSladeshed(users, stats, MonthModeBaseline, time.UTC)
	job.clock = func() time.Time { return now }
	require.NoError(t, job.Run(context.Background()))

	u, _ := users.Get(id)
	assert.Equal(t, 25, *u.SladeshesAtStartOfMonth)

	// A rerun in the same month sees the stored baseline and does not
	// rebaseline again.
	u.TotalSladeshes = 30
	sep := time.Date(2026, 9, 1, 0, 30, 0, 0, time.UTC)
	u.LastSladesh = &sep
	users.Add(u)
	require.NoError(t, job.Run(context.Background()))
	u2, _ := users.Get(id)
	assert.Equal(t, 25, *u2.SladeshesAtStartOfMonth)
}

func TestMostSladeshedDeltaMode(t *testing.T) {
	users := memory.NewUserRepo()
	stats := memory.NewStatsRepo()
	now := time.Date(2026, 8, 15, 1, 0, 0, 0, time.UTC)
	aug := time.Date(2026, 8, 14, 22, 0, 0, 0, time.UTC)

	users.Add(&user.User{
		Username:                "alice",
		TotalSladeshes:          25,
		SladeshesAtStartOfMonth: intPtr(10),
		LastSladesh:             &aug,
	})
	users.Add(&user.User{
		Username:                "bob",
		TotalSladeshes:          40,
		SladeshesAtStartOfMonth: intPtr(38),
		LastSladesh:             &aug,
	})

	job := NewMostSladeshed(users, stats, MonthModeDelta, time.UTC)
	job.clock = func() time.Time { return now }
	require.NoError(t, job.Run(context.Background()))

	board, err := stats.MostSladeshed(context.Background())
	require.NoError(t, err)
	// alice gained 15 this month, bob only 2; bob still leads overall.
	assert.Equal(t, statistics.RankedUser{Username: "alice", Score: 15}, board["2026-08"])
	assert.Equal(t, statistics.RankedUser{Username: "bob", Score: 40}, board[statistics.OverallKey])
}

func TestMostSladeshedBaselineMode(t *testing.T) {
	users := memory.NewUserRepo()
	stats := memory.NewStatsRepo()
	now := time.Date(2026, 8, 15, 1, 0, 0, 0, time.UTC)
	aug := time.Date(2026, 8, 14, 22, 0, 0, 0, time.UTC)

	users.Add(&user.User{
		Username:                "alice",
		TotalSladeshes:          25,
		SladeshesAtStartOfMonth: intPtr(10),
		LastSladesh:             &aug,
	})
	users.Add(&user.User{
		Username:                "bob",
		TotalSladeshes:          40,
		SladeshesAtStartOfMonth: intPtr(38),
		LastSladesh:             &aug,
	})

	job := NewMostSladeshed(users, stats, MonthModeBaseline, time.UTC)
	job.clock = func() time.Time { return now }
	require.NoError(t, job.Run(context.Background()))

	board, err := stats.MostSladeshed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, statistics.RankedUser{Username: "bob", Score: 38}, board["2026-08"])
	assert.Equal(t, statistics.RankedUser{Username: "bob", Score: 40}, board[statistics.OverallKey])
}

func TestMostCheckedInPicksOverallMax(t *testing.T) {
	users := memory.NewUserRepo()
	stats := memory.NewStatsRepo()
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	aug := time.Date(2026, 8, 10, 20, 0, 0, 0, time.UTC)

	users.Add(&user.User{Username: "alice", CheckInCount: 5, CheckInsAtStartOfMonth: intPtr(5), LastCheckIn: &aug})
	users.Add(&user.User{Username: "bob", CheckInCount: 9, CheckInsAtStartOfMonth: intPtr(9), LastCheckIn: &aug})
	users.Add(&user.User{Username: "carol", CheckInCount: 7, CheckInsAtStartOfMonth: intPtr(7), LastCheckIn: &aug})

	job := NewMostCheckedIn(users, stats, MonthModeBaseline, time.UTC)
	job.clock = func() time.Time { return now }
	require.NoError(t, job.Run(context.Background()))

	board, err := stats.MostCheckedIn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bob", board[statistics.OverallKey].Username)
	assert.Equal(t, 9, board[statistics.OverallKey].Score)
}

func TestMostActiveTieKeepsFirstInScanOrder(t *testing.T) {
	users := memory.NewUserRepo()
	stats := memory.NewStatsRepo()
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	aug := time.Date(2026, 8, 10, 20, 0, 0, 0, time.UTC)

	users.Add(&user.User{Username: "alice", CheckInCount: 9, CheckInsAtStartOfMonth: intPtr(9), LastCheckIn: &aug})
	users.Add(&user.User{Username: "bob", CheckInCount: 9, CheckInsAtStartOfMonth: intPtr(9), LastCheckIn: &aug})

	job := NewMostCheckedIn(users, stats, MonthModeBaseline, time.UTC)
	job.clock = func() time.Time { return now }
	require.NoError(t, job.Run(context.Background()))

	board, err := stats.MostCheckedIn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", board[statistics.OverallKey].Username)
}

func TestTopDrinkersRanksCurrentMonth(t *testing.T) {
	users := memory.NewUserRepo()
	stats := memory.NewStatsRepo()
	now := time.Date(2026, 8, 15, 0, 30, 0, 0, time.UTC)

	users.Add(&user.User{Username: "alice", HighestDrinksIn12Hours: intPtr(7)})
	users.Add(&user.User{Username: "bob", HighestDrinksIn12Hours: intPtr(12)})
	users.Add(&user.User{Username: "carol", HighestDrinksIn12Hours: intPtr(3)})
	users.Add(&user.User{Username: "dave", HighestDrinksIn12Hours: intPtr(12)})
	users.Add(&user.User{Username: "erin"}) // no mark yet, excluded

	job := NewTopDrinkers(users, stats, 3, time.UTC)
	job.clock = func() time.Time { return now }
	require.NoError(t, job.Run(context.Background()))

	board, err := stats.TopDrinkers(context.Background())
	require.NoError(t, err)
	// Ties keep scan order: bob before dave, both ahead of alice.
	assert.Equal(t, []statistics.RankedUser{
		{Username: "bob", Score: 12},
		{Username: "dave", Score: 12},
		{Username: "alice", Score: 7},
	}, board["2026-08"])
}

func TestTopDrinkersOverallIncludesHistoricalMonths(t *testing.T) {
	users := memory.NewUserRepo()
	stats := memory.NewStatsRepo()
	now := time.Date(2026, 8, 15, 0, 30, 0, 0, time.UTC)

	stats.SeedTopDrinkers("2026-07", []statistics.RankedUser{
		{Username: "carol", Score: 20},
		{Username: "alice", Score: 6},
	})
	users.Add(&user.User{Username: "alice", HighestDrinksIn12Hours: intPtr(7)})
	users.Add(&user.User{Username: "bob", HighestDrinksIn12Hours: intPtr(12)})

	job := NewTopDrinkers(users, stats, 3, time.UTC)
	job.clock = func() time.Time { return now }
	require.NoError(t, job.Run(context.Background()))

	board, err := stats.TopDrinkers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []statistics.RankedUser{
		{Username: "carol", Score: 20},
		{Username: "bob", Score: 12},
		{Username: "alice", Score: 7},
	}, board[statistics.OverallKey])
	assert.Equal(t, []statistics.RankedUser{
		{Username: "bob", Score: 12},
		{Username: "alice", Score: 7},
	}, board["2026-08"])
}

func TestTopDrinkersFewerUsersThanN(t *testing.T) {
	users := memory.NewUserRepo()
	stats := memory.NewStatsRepo()
	now := time.Date(2026, 8, 15, 0, 30, 0, 0, time.UTC)

	users.Add(&user.User{Username: "alice", HighestDrinksIn12Hours: intPtr(4)})

	job := NewTopDrinkers(users, stats, 3, time.UTC)
	job.clock = func() time.Time { return now }
	require.NoError(t, job.Run(context.Background()))

	board, err := stats.TopDrinkers(context.Background())
	require.NoError(t, err)
	assert.Len(t, board["2026-08"], 1)
}

func TestTopNHelper(t *testing.T) {
	in := []statistics.RankedUser{
		{Username: "a", Score: 7},
		{Username: "b", Score: 12},
		{Username: "c", Score: 3},
		{Username: "d", Score: 12},
	}
	out := topN(in, 3)
	assert.Equal(t, []statistics.RankedUser{
		{Username: "b", Score: 12},
		{Username: "d", Score: 12},
		{Username: "a", Score: 7},
	}, out)
	// Input order is untouched.
	assert.Equal(t, "a", in[0].Username)
}
