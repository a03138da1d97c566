package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sladeshAPI/internal/repository/memory"
	"sladeshAPI/internal/types/user"
)

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func TestRollingWindowRecordsFirstMark(t *testing.T) {
	users := memory.NewUserRepo()
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	id := users.Add(&user.User{
		Username:       "alice",
		TotalDrinks:    4,
		WindowAnchorAt: timePtr(now.Add(-2 * time.Hour)),
	})

	job := NewRollingWindow(users, 12*time.Hour)
	job.clock = func() time.Time { return now }
	require.NoError(t, job.Run(context.Background()))

	u, _ := users.Get(id)
	require.NotNil(t, u.HighestDrinksIn12Hours)
	assert.Equal(t, 4, *u.HighestDrinksIn12Hours)
}

func TestRollingWindowMarkIsMonotonic(t *testing.T) {
	users := memory.NewUserRepo()
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	id := users.Add(&user.User{
		Username:               "alice",
		TotalDrinks:            3,
		HighestDrinksIn12Hours: intPtr(9),
		WindowAnchorAt:         timePtr(now.Add(-1 * time.Hour)),
	})

	job := NewRollingWindow(users, 12*time.Hour)
	job.clock = func() time.Time { return now }
	require.NoError(t, job.Run(context.Background()))

	u, _ := users.Get(id)
	assert.Equal(t, 9, *u.HighestDrinksIn12Hours)
}

func TestRollingWindowSkipsUsersOutsideWindow(t *testing.T) {
	users := memory.NewUserRepo()
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	id := users.Add(&user.User{
		Username:               "alice",
		TotalDrinks:            20,
		HighestDrinksIn12Hours: intPtr(5),
		WindowAnchorAt:         timePtr(now.Add(-13 * time.Hour)),
	})

	job := NewRollingWindow(users, 12*time.Hour)
	job.clock = func() time.Time { return now }
	require.NoError(t, job.Run(context.Background()))

	u, _ := users.Get(id)
	assert.Equal(t, 5, *u.HighestDrinksIn12Hours)
}

func TestRollingWindowNoAnchorCountsAsInWindow(t *testing.T) {
	users := memory.NewUserRepo()
	id := users.Add(&user.User{Username: "alice", TotalDrinks: 6})

	job := NewRollingWindow(users, 12*time.Hour)
	require.NoError(t, job.Run(context.Background()))

	u, _ := users.Get(id)
	require.NotNil(t, u.HighestDrinksIn12Hours)
	assert.Equal(t, 6, *u.HighestDrinksIn12Hours)
}

func TestRollingWindowFallsBackToLastSladesh(t *testing.T) {
	users := memory.NewUserRepo()
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	// Legacy record: no dedicated anchor, only lastSladesh, outside the window.
	id := users.Add(&user.User{
		Username:    "alice",
		TotalDrinks: 8,
		LastSladesh: timePtr(now.Add(-20 * time.Hour)),
	})

	job := NewRollingWindow(users, 12*time.Hour)
	job.clock = func() time.Time { return now }
	require.NoError(t, job.Run(context.Background()))

	u, _ := users.Get(id)
	assert.Nil(t, u.HighestDrinksIn12Hours)
}
