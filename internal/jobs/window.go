package jobs

import (
	"context"
	"log"
	"time"

	"sladeshAPI/internal/repository"
)

// RollingWindow records, for each user still inside the trailing window, a
// new high-water mark when the current drink total exceeds the stored one.
// Users outside the window keep their old mark; only the drink rollover
// resets the underlying counters. The mark is monotonic while the window is
// active.
type RollingWindow struct {
	users  repository.UserRepository
	window time.Duration
	clock  func() time.Time
}

func NewRollingWindow(users repository.UserRepository, window time.Duration) *RollingWindow {
	return &RollingWindow{
		users:  users,
		window: window,
		clock:  time.Now,
	}
}

func (j *RollingWindow) Name() string { return "rolling-window" }

func (j *RollingWindow) Run(ctx context.Context) error {
	users, err := j.users.ListUsers(ctx)
	if err != nil {
		return err
	}

	now := j.clock()
	updates := make(map[string]int)
	for _, u := range users {
		// A user with no anchor yet has never left the window.
		if anchor := u.WindowAnchor(); anchor != nil && now.Sub(*anchor) > j.window {
			continue
		}
		if u.HighestDrinksIn12Hours == nil || u.TotalDrinks > *u.HighestDrinksIn12Hours {
			updates[u.ID] = u.TotalDrinks
		}
	}

	if len(updates) == 0 {
		log.Println("rolling window: no new high-water marks")
		return nil
	}
	if err := j.users.SetHighestDrinks(ctx, updates); err != nil {
		return err
	}
	log.Printf("rolling window: updated high-water marks for %d users", len(updates))
	return nil
}
