// Package memory implements the repository interfaces on plain maps. Job,
// trigger and handler tests run against it; semantics mirror the Firestore
// store (exact-match username lookups, merge-style statistics writes).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"sladeshAPI/internal/repository"
	"sladeshAPI/internal/types/request"
	"sladeshAPI/internal/types/statistics"
	"sladeshAPI/internal/types/user"
)

type UserRepo struct {
	mu    sync.Mutex
	users map[string]*user.User
	order []string
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]*user.User)}
}

// Add stores a copy of u, generating an id when empty, and returns the id.
// Re-adding an existing id replaces the record in place.
func (r *UserRepo) Add(u *user.User) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	cp := *u
	if _, exists := r.users[cp.ID]; !exists {
		r.order = append(r.order, cp.ID)
	}
	r.users[cp.ID] = &cp
	return cp.ID
}

// Get returns a copy of the stored user.
func (r *UserRepo) Get(id string) (*user.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, false
	}
	cp := *u
	return &cp, true
}

func (r *UserRepo) ListUsers(ctx context.Context) ([]*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*user.User, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.users[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *UserRepo) ResetSladeshCounts(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		u.SladeshCount = 0
	}
	return len(r.users), nil
}

func (r *UserRepo) ResetCheckIns(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		u.CheckedIn = false
	}
	return len(r.users), nil
}

func (r *UserRepo) SetHighestDrinks(ctx context.Context, updates map[string]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, v := range updates {
		if u, ok := r.users[id]; ok {
			val := v
			u.HighestDrinksIn12Hours = &val
		}
	}
	return nil
}

func (r *UserRepo) SetSladeshBaseline(ctx context.Context, userID string, baseline int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	b := baseline
	u.SladeshesAtStartOfMonth = &b
	return nil
}

func (r *UserRepo) SetCheckInBaseline(ctx context.Context, userID string, baseline int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	b := baseline
	u.CheckInsAtStartOfMonth = &b
	return nil
}

func (r *UserRepo) ResetDrinkCounters(ctx context.Context, userIDs []string, rolloverID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range userIDs {
		if u, ok := r.users[id]; ok {
			u.Drinks = map[string]int{}
			u.TotalDrinks = 0
			u.LastRolloverID = rolloverID
		}
	}
	return nil
}

func (r *UserRepo) ApplySladesh(ctx context.Context, recipientUsername string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		u := r.users[id]
		if u.Username == recipientUsername {
			u.SladeshCount++
			u.TotalSladeshes++
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *UserRepo) IncrementCheckInCount(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.CheckInCount++
	return nil
}

type RequestRepo struct {
	mu       sync.Mutex
	requests map[string]*request.Request
}

func NewRequestRepo() *RequestRepo {
	return &RequestRepo{requests: make(map[string]*request.Request)}
}

func (r *RequestRepo) Add(req *request.Request) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	cp := *req
	r.requests[cp.ID] = &cp
	return cp.ID
}

func (r *RequestRepo) Get(id string) (*request.Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, false
	}
	cp := *req
	return &cp, true
}

func (r *RequestRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for id, req := range r.requests {
		if req.CreatedAt.Before(cutoff) {
			delete(r.requests, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *RequestRepo) MarkCompleted(ctx context.Context, requestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[requestID]
	if !ok {
		return repository.ErrRequestNotFound
	}
	req.Status = request.StatusCompleted
	return nil
}

func (r *RequestRepo) ListRequests(ctx context.Context) ([]*request.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*request.Request, 0, len(r.requests))
	for _, req := range r.requests {
		cp := *req
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type StatsRepo struct {
	mu            sync.Mutex
	drinkTotals   map[string]statistics.BeverageTotals
	rollover      *statistics.RolloverMarker
	mostSladeshed map[string]statistics.RankedUser
	mostCheckedIn map[string]statistics.RankedUser
	topDrinkers   map[string][]statistics.RankedUser
}

func NewStatsRepo() *StatsRepo {
	return &StatsRepo{
		drinkTotals:   make(map[string]statistics.BeverageTotals),
		mostSladeshed: make(map[string]statistics.RankedUser),
		mostCheckedIn: make(map[string]statistics.RankedUser),
		topDrinkers:   make(map[string][]statistics.RankedUser),
	}
}

func (r *StatsRepo) DrinkTotals(ctx context.Context) (map[string]statistics.BeverageTotals, *statistics.RolloverMarker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]statistics.BeverageTotals, len(r.drinkTotals))
	for k, v := range r.drinkTotals {
		out[k] = v
	}
	var marker *statistics.RolloverMarker
	if r.rollover != nil {
		m := *r.rollover
		marker = &m
	}
	return out, marker, nil
}

func (r *StatsRepo) MergeDrinkTotals(ctx context.Context, month string, monthTotal, overallTotal statistics.BeverageTotals, marker statistics.RolloverMarker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drinkTotals[month] = monthTotal
	r.drinkTotals[statistics.OverallKey] = overallTotal
	r.rollover = &marker
	return nil
}

func (r *StatsRepo) MostSladeshed(ctx context.Context) (map[string]statistics.RankedUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyRanked(r.mostSladeshed), nil
}

func (r *StatsRepo) SetMostSladeshed(ctx context.Context, month string, monthBest, overallBest statistics.RankedUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mostSladeshed[month] = monthBest
	r.mostSladeshed[statistics.OverallKey] = overallBest
	return nil
}

func (r *StatsRepo) MostCheckedIn(ctx context.Context) (map[string]statistics.RankedUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyRanked(r.mostCheckedIn), nil
}

func (r *StatsRepo) SetMostCheckedIn(ctx context.Context, month string, monthBest, overallBest statistics.RankedUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mostCheckedIn[month] = monthBest
	r.mostCheckedIn[statistics.OverallKey] = overallBest
	return nil
}

func (r *StatsRepo) TopDrinkers(ctx context.Context) (map[string][]statistics.RankedUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string][]statistics.RankedUser, len(r.topDrinkers))
	for k, v := range r.topDrinkers {
		out[k] = append([]statistics.RankedUser(nil), v...)
	}
	return out, nil
}

func (r *StatsRepo) SetTopDrinkers(ctx context.Context, month string, monthTop, overallTop []statistics.RankedUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topDrinkers[month] = append([]statistics.RankedUser(nil), monthTop...)
	r.topDrinkers[statistics.OverallKey] = append([]statistics.RankedUser(nil), overallTop...)
	return nil
}

func copyRanked(in map[string]statistics.RankedUser) map[string]statistics.RankedUser {
	out := make(map[string]statistics.RankedUser, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// SeedTopDrinkers installs a historical top list for a period, bypassing the
// merge-write path. Test helper.
func (r *StatsRepo) SeedTopDrinkers(periodLabel string, entries []statistics.RankedUser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topDrinkers[periodLabel] = append([]statistics.RankedUser(nil), entries...)
}

// SeedDrinkTotals installs an existing totals entry for a period. Test helper.
func (r *StatsRepo) SeedDrinkTotals(periodLabel string, totals statistics.BeverageTotals) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drinkTotals[periodLabel] = totals
}
