// Package repository defines the persistence interfaces the jobs, triggers
// and handlers work against. The Firestore implementations live in
// internal/store; internal/repository/memory holds the in-memory ones used by
// tests. Keeping "enumerate all users" behind an interface lets a later
// implementation page or feed incrementally without touching job logic.
package repository

import (
	"context"
	"errors"
	"time"

	"sladeshAPI/internal/types/request"
	"sladeshAPI/internal/types/statistics"
	"sladeshAPI/internal/types/user"
)

var (
	// ErrUserNotFound distinguishes a missing recipient (logged, no retry)
	// from transient store failures.
	ErrUserNotFound = errors.New("user not found")

	// ErrRequestNotFound reports a status update against a request that no
	// longer exists (e.g. purged between trigger and write).
	ErrRequestNotFound = errors.New("request not found")

	// ErrMissingIndex marks a query the store rejected for lack of an index.
	// A configuration problem, not a transient one; jobs log it distinctly
	// and abort the run.
	ErrMissingIndex = errors.New("missing query index")
)

type UserRepository interface {
	// ListUsers returns every user with all fields populated.
	ListUsers(ctx context.Context) ([]*user.User, error)

	// ResetSladeshCounts zeroes sladeshCount for all users in one atomic
	// batch. Returns the number of users touched.
	ResetSladeshCounts(ctx context.Context) (int, error)

	// ResetCheckIns clears checkedIn for all users in one atomic batch.
	ResetCheckIns(ctx context.Context) (int, error)

	// SetHighestDrinks writes new highestDrinksIn12Hours values, keyed by
	// user id, in one batch.
	SetHighestDrinks(ctx context.Context, updates map[string]int) error

	// SetSladeshBaseline persists sladeshesAtStartOfMonth for one user.
	SetSladeshBaseline(ctx context.Context, userID string, baseline int) error

	// SetCheckInBaseline persists checkInsAtStartOfMonth for one user.
	SetCheckInBaseline(ctx context.Context, userID string, baseline int) error

	// ResetDrinkCounters clears drinks and totalDrinks for the given users in
	// one batch and stamps each with the rollover id that consumed them.
	ResetDrinkCounters(ctx context.Context, userIDs []string, rolloverID string) error

	// ApplySladesh atomically increments sladeshCount and totalSladeshes for
	// the user with exactly this username (case-sensitive) and returns the
	// updated record. ErrUserNotFound when no user matches.
	ApplySladesh(ctx context.Context, recipientUsername string) (*user.User, error)

	// IncrementCheckInCount atomically bumps checkInCount for one user.
	IncrementCheckInCount(ctx context.Context, userID string) error
}

type RequestRepository interface {
	// DeleteOlderThan removes every request created before cutoff in one
	// batch and returns how many were deleted. No matches is a no-op, not an
	// error. A missing createdAt index surfaces as ErrMissingIndex.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// MarkCompleted advances a request's status to completed.
	MarkCompleted(ctx context.Context, requestID string) error

	// ListRequests returns all requests, newest first.
	ListRequests(ctx context.Context) ([]*request.Request, error)
}

type StatsRepository interface {
	// DrinkTotals reads the aggregated beverage totals keyed by period label,
	// plus the marker of the last completed rollover (nil before the first).
	DrinkTotals(ctx context.Context) (map[string]statistics.BeverageTotals, *statistics.RolloverMarker, error)

	// MergeDrinkTotals writes the month and overall totals plus the new
	// rollover marker in one merge write; other periods are untouched.
	MergeDrinkTotals(ctx context.Context, month string, monthTotal, overallTotal statistics.BeverageTotals, marker statistics.RolloverMarker) error

	MostSladeshed(ctx context.Context) (map[string]statistics.RankedUser, error)
	SetMostSladeshed(ctx context.Context, month string, monthBest, overallBest statistics.RankedUser) error

	MostCheckedIn(ctx context.Context) (map[string]statistics.RankedUser, error)
	SetMostCheckedIn(ctx context.Context, month string, monthBest, overallBest statistics.RankedUser) error

	// TopDrinkers reads every stored top-N list keyed by period label.
	TopDrinkers(ctx context.Context) (map[string][]statistics.RankedUser, error)

	// SetTopDrinkers writes the month and overall top-N lists in one merge
	// write without clobbering other months.
	SetTopDrinkers(ctx context.Context, month string, monthTop, overallTop []statistics.RankedUser) error
}
