package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"sladeshAPI/internal/period"
	"sladeshAPI/internal/repository"
	"sladeshAPI/internal/types/statistics"
)

// DrinkRollover archives every user's current-period beverage counts into the
// monthly and overall totals, then resets the per-user counters it consumed.
//
// The two phases are deliberately not one transaction (the whole collection
// exceeds practical transaction scope). Ordering is the invariant instead:
// the statistics merge must commit before the reset batch is issued. A
// failure before the merge loses nothing and the whole job retries; a failure
// after the merge but before the reset leaves counters that will be archived
// again. That overcount is detected via the per-user rollover marker and
// reported to operators rather than silently repaired.
type DrinkRollover struct {
	users repository.UserRepository
	stats repository.StatsRepository
	loc   *time.Location
	clock func() time.Time
}

func NewDrinkRollover(users repository.UserRepository, stats repository.StatsRepository, loc *time.Location) *DrinkRollover {
	return &DrinkRollover{
		users: users,
		stats: stats,
		loc:   loc,
		clock: time.Now,
	}
}

func (j *DrinkRollover) Name() string { return "drink-rollover" }

func (j *DrinkRollover) Run(ctx context.Context) error {
	users, err := j.users.ListUsers(ctx)
	if err != nil {
		return err
	}

	existing, marker, err := j.stats.DrinkTotals(ctx)
	if err != nil {
		return err
	}

	// Users stamped by an older rollover missed the last reset: their
	// counters still contain archived amounts and this run will count them
	// again. A user with no stamp at all but nonzero counters is flagged too:
	// either the reset never reached them (same hazard), or they are a new
	// user who logged drinks since the last archive. The two cannot be told
	// apart here, so the warning errs toward noise over silence.
	if marker != nil {
		stragglers := 0
		for _, u := range users {
			if u.LastRolloverID == marker.ID {
				continue
			}
			if u.LastRolloverID != "" || u.TotalDrinks > 0 {
				stragglers++
			}
		}
		if stragglers > 0 {
			rolloverStragglers.Add(float64(stragglers))
			log.Printf("drink rollover: WARNING: %d users not stamped by rollover %s; their totals may include already-archived amounts", stragglers, marker.ID)
		}
	}

	var sum statistics.BeverageTotals
	ids := make([]string, 0, len(users))
	for _, u := range users {
		sum = sum.Add(statistics.TotalsFromDrinks(u.Drinks))
		ids = append(ids, u.ID)
	}

	now := j.clock().In(j.loc)
	month := period.Label(now)

	monthTotal := existing[month].Add(sum)
	overallTotal := existing[statistics.OverallKey].Add(sum)
	newMarker := statistics.RolloverMarker{ID: uuid.New().String(), At: now}

	// Phase 1: archive. Abort before touching user counters on failure.
	if err := j.stats.MergeDrinkTotals(ctx, month, monthTotal, overallTotal, newMarker); err != nil {
		return fmt.Errorf("archiving totals for %s failed, user counters left untouched: %w", month, err)
	}
	log.Printf("drink rollover: merged totals for %s (beer=%d wine=%d shots=%d drinks=%d)", month, sum.Beer, sum.Wine, sum.Shots, sum.Drinks)

	// Phase 2: reset. At this point the data is archived; a failure here
	// means the next run double-counts until the reset lands.
	if err := j.users.ResetDrinkCounters(ctx, ids, newMarker.ID); err != nil {
		return fmt.Errorf("totals archived but counter reset failed, next run will double-count: %w", err)
	}
	log.Printf("drink rollover: reset drink counters for %d users", len(ids))
	return nil
}
