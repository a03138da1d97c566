package jobs

import (
	"context"
	"log"
	"sort"
	"time"

	"sladeshAPI/internal/period"
	"sladeshAPI/internal/repository"
	"sladeshAPI/internal/types/statistics"
	"sladeshAPI/internal/types/user"
)

// MonthMode selects what the "this month" leaderboard score is: the
// at-start-of-month baseline itself (the behavior of the system this
// replaces) or the delta of cumulative minus baseline.
type MonthMode string

const (
	MonthModeBaseline MonthMode = "baseline"
	MonthModeDelta    MonthMode = "delta"
)

// metricDef adapts the shared most-active recompute to one cumulative
// metric. Most-sladeshed and most-checked-in have identical shape and only
// differ in these accessors.
type metricDef struct {
	jobName     string
	cumulative  func(*user.User) int
	baseline    func(*user.User) *int
	lastAction  func(*user.User) *time.Time
	setBaseline func(ctx context.Context, users repository.UserRepository, userID string, baseline int) error
	persist     func(ctx context.Context, stats repository.StatsRepository, month string, monthBest, overallBest statistics.RankedUser) error
}

// MostActive recomputes the "most X" leaderboard for one cumulative metric:
// the per-month winner (per MonthMode) and the overall winner by raw
// cumulative count. Ties keep the first user in scan order.
type MostActive struct {
	users repository.UserRepository
	stats repository.StatsRepository
	def   metricDef
	mode  MonthMode
	loc   *time.Location
	clock func() time.Time
}

func newMostActive(users repository.UserRepository, stats repository.StatsRepository, def metricDef, mode MonthMode, loc *time.Location) *MostActive {
	return &MostActive{
		users: users,
		stats: stats,
		def:   def,
		mode:  mode,
		loc:   loc,
		clock: time.Now,
	}
}

func NewMostSladeshed(users repository.UserRepository, stats repository.StatsRepository, mode MonthMode, loc *time.Location) *MostActive {
	return newMostActive(users, stats, metricDef{
		jobName:    "most-sladeshed",
		cumulative: func(u *user.User) int { return u.TotalSladeshes },
		baseline:   func(u *user.User) *int { return u.SladeshesAtStartOfMonth },
		lastAction: func(u *user.User) *time.Time { return u.LastSladesh },
		setBaseline: func(ctx context.Context, users repository.UserRepository, userID string, baseline int) error {
			return users.SetSladeshBaseline(ctx, userID, baseline)
		},
		persist: func(ctx context.Context, stats repository.StatsRepository, month string, monthBest, overallBest statistics.RankedUser) error {
			return stats.SetMostSladeshed(ctx, month, monthBest, overallBest)
		},
	}, mode, loc)
}

func NewMostCheckedIn(users repository.UserRepository, stats repository.StatsRepository, mode MonthMode, loc *time.Location) *MostActive {
	return newMostActive(users, stats, metricDef{
		jobName:    "most-checked-in",
		cumulative: func(u *user.User) int { return u.CheckInCount },
		baseline:   func(u *user.User) *int { return u.CheckInsAtStartOfMonth },
		lastAction: func(u *user.User) *time.Time { return u.LastCheckIn },
		setBaseline: func(ctx context.Context, users repository.UserRepository, userID string, baseline int) error {
			return users.SetCheckInBaseline(ctx, userID, baseline)
		},
		persist: func(ctx context.Context, stats repository.StatsRepository, month string, monthBest, overallBest statistics.RankedUser) error {
			return stats.SetMostCheckedIn(ctx, month, monthBest, overallBest)
		},
	}, mode, loc)
}

func (j *MostActive) Name() string { return j.def.jobName }

func (j *MostActive) Run(ctx context.Context) error {
	users, err := j.users.ListUsers(ctx)
	if err != nil {
		return err
	}

	now := j.clock().In(j.loc)
	month := period.Label(now)

	var monthBest, overallBest statistics.RankedUser
	for _, u := range users {
		cum := j.def.cumulative(u)
		base := j.def.baseline(u)
		last := j.def.lastAction(u)

		// First run of a new month for this user: rebaseline to the current
		// cumulative value and persist immediately so a rerun sees it.
		if base == nil || (last != nil && !period.SameMonth(last.In(j.loc), now)) {
			if err := j.def.setBaseline(ctx, j.users, u.ID, cum); err != nil {
				log.Printf("%s: failed to rebaseline user %s, skipping: %v", j.def.jobName, u.ID, err)
				continue
			}
			b := cum
			base = &b
		}

		var contribution int
		switch j.mode {
		case MonthModeDelta:
			contribution = cum - *base
		default:
			contribution = *base
		}

		if contribution > monthBest.Score {
			monthBest = statistics.RankedUser{Username: u.Username, Score: contribution}
		}
		if cum > overallBest.Score {
			overallBest = statistics.RankedUser{Username: u.Username, Score: cum}
		}
	}

	if err := j.def.persist(ctx, j.stats, month, monthBest, overallBest); err != nil {
		return err
	}
	log.Printf("%s: month %s winner %q (%d), overall winner %q (%d)", j.def.jobName, month, monthBest.Username, monthBest.Score, overallBest.Username, overallBest.Score)
	return nil
}

// TopDrinkers ranks users by their rolling-window high-water mark: a top-N
// for the current month, and an overall top-N over a pool seeded from every
// stored historical month's entries plus the current per-user values.
type TopDrinkers struct {
	users repository.UserRepository
	stats repository.StatsRepository
	topN  int
	loc   *time.Location
	clock func() time.Time
}

func NewTopDrinkers(users repository.UserRepository, stats repository.StatsRepository, topN int, loc *time.Location) *TopDrinkers {
	if topN <= 0 {
		topN = 3
	}
	return &TopDrinkers{
		users: users,
		stats: stats,
		topN:  topN,
		loc:   loc,
		clock: time.Now,
	}
}

func (j *TopDrinkers) Name() string { return "top-drinkers" }

func (j *TopDrinkers) Run(ctx context.Context) error {
	users, err := j.users.ListUsers(ctx)
	if err != nil {
		return err
	}

	historical, err := j.stats.TopDrinkers(ctx)
	if err != nil {
		return err
	}

	now := j.clock().In(j.loc)
	month := period.Label(now)

	// Historical months feed the overall pool in sorted label order so the
	// pool is reproducible; within a month the stored rank order is kept.
	var overallPool []statistics.RankedUser
	months := make([]string, 0, len(historical))
	for p := range historical {
		if p != statistics.OverallKey {
			months = append(months, p)
		}
	}
	sort.Strings(months)
	for _, p := range months {
		overallPool = append(overallPool, historical[p]...)
	}

	var monthList []statistics.RankedUser
	for _, u := range users {
		if u.HighestDrinksIn12Hours == nil {
			continue
		}
		entry := statistics.RankedUser{Username: u.Username, Score: *u.HighestDrinksIn12Hours}
		monthList = append(monthList, entry)
		overallPool = append(overallPool, entry)
	}

	monthTop := topN(monthList, j.topN)
	overallTop := topN(overallPool, j.topN)

	if err := j.stats.SetTopDrinkers(ctx, month, monthTop, overallTop); err != nil {
		return err
	}
	log.Printf("top drinkers: month %s has %d ranked users, overall pool %d", month, len(monthTop), len(overallPool))
	return nil
}

// topN sorts descending by score, keeping insertion order on ties, and
// returns the first n entries.
func topN(entries []statistics.RankedUser, n int) []statistics.RankedUser {
	sorted := append([]statistics.RankedUser(nil), entries...)
	sort.SliceStable(sorted, func(i, k int) bool { return sorted[i].Score > sorted[k].Score })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
