package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sladeshAPI/internal/period"
	"sladeshAPI/internal/types/statistics"
)

// Statistics document ids, one per metric family.
const (
	totalDrinksDoc   = "totalDrinks"
	mostSladeshedDoc = "mostSladeshedUser"
	mostCheckedInDoc = "mostCheckedInUser"
	topUsersDoc      = "topUsers"
)

// rolloverKey holds the last rollover marker inside the totalDrinks document.
// It is not a period label and is skipped when iterating periods.
const rolloverKey = "lastRollover"

type StatsStore struct {
	client *firestore.Client
}

func NewStatsStore(client *firestore.Client) *StatsStore {
	return &StatsStore{client: client}
}

func (s *StatsStore) doc(id string) *firestore.DocumentRef {
	return s.client.Collection(statisticsCollection).Doc(id)
}

// docData reads a statistics document, treating "not created yet" as empty.
func (s *StatsStore) docData(ctx context.Context, id string) (map[string]interface{}, error) {
	snap, err := s.doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return map[string]interface{}{}, nil
		}
		return nil, fmt.Errorf("failed to read statistics/%s: %w", id, err)
	}
	return snap.Data(), nil
}

func (s *StatsStore) DrinkTotals(ctx context.Context) (map[string]statistics.BeverageTotals, *statistics.RolloverMarker, error) {
	data, err := s.docData(ctx, totalDrinksDoc)
	if err != nil {
		return nil, nil, err
	}

	totals := make(map[string]statistics.BeverageTotals)
	var marker *statistics.RolloverMarker
	for key, raw := range data {
		fields, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if key == rolloverKey {
			m := statistics.RolloverMarker{}
			m.ID, _ = fields["id"].(string)
			if at, ok := fields["at"].(time.Time); ok {
				m.At = at
			}
			marker = &m
			continue
		}
		if !period.IsPeriodLabel(key) {
			continue
		}
		totals[key] = statistics.BeverageTotals{
			Beer:   asInt(fields["beer"]),
			Wine:   asInt(fields["wine"]),
			Shots:  asInt(fields["shots"]),
			Drinks: asInt(fields["drinks"]),
		}
	}
	return totals, marker, nil
}

func (s *StatsStore) MergeDrinkTotals(ctx context.Context, month string, monthTotal, overallTotal statistics.BeverageTotals, marker statistics.RolloverMarker) error {
	_, err := s.doc(totalDrinksDoc).Set(ctx, map[string]interface{}{
		month:                 monthTotal,
		statistics.OverallKey: overallTotal,
		rolloverKey:           marker,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to merge drink totals for %s: %w", month, err)
	}
	return nil
}

func (s *StatsStore) MostSladeshed(ctx context.Context) (map[string]statistics.RankedUser, error) {
	return s.rankedDoc(ctx, mostSladeshedDoc)
}

func (s *StatsStore) SetMostSladeshed(ctx context.Context, month string, monthBest, overallBest statistics.RankedUser) error {
	return s.setRankedDoc(ctx, mostSladeshedDoc, month, monthBest, overallBest)
}

func (s *StatsStore) MostCheckedIn(ctx context.Context) (map[string]statistics.RankedUser, error) {
	return s.rankedDoc(ctx, mostCheckedInDoc)
}

func (s *StatsStore) SetMostCheckedIn(ctx context.Context, month string, monthBest, overallBest statistics.RankedUser) error {
	return s.setRankedDoc(ctx, mostCheckedInDoc, month, monthBest, overallBest)
}

func (s *StatsStore) rankedDoc(ctx context.Context, id string) (map[string]statistics.RankedUser, error) {
	data, err := s.docData(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make(map[string]statistics.RankedUser)
	for key, raw := range data {
		if !period.IsPeriodLabel(key) {
			continue
		}
		fields, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		entry := statistics.RankedUser{Score: asInt(fields["score"])}
		entry.Username, _ = fields["username"].(string)
		out[key] = entry
	}
	return out, nil
}

func (s *StatsStore) setRankedDoc(ctx context.Context, id, month string, monthBest, overallBest statistics.RankedUser) error {
	_, err := s.doc(id).Set(ctx, map[string]interface{}{
		month:                 monthBest,
		statistics.OverallKey: overallBest,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to merge statistics/%s for %s: %w", id, month, err)
	}
	return nil
}

func (s *StatsStore) TopDrinkers(ctx context.Context) (map[string][]statistics.RankedUser, error) {
	data, err := s.docData(ctx, topUsersDoc)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]statistics.RankedUser)
	for key, raw := range data {
		if !period.IsPeriodLabel(key) {
			continue
		}
		items, ok := raw.([]interface{})
		if !ok {
			continue
		}
		var entries []statistics.RankedUser
		for _, item := range items {
			fields, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			entry := statistics.RankedUser{Score: asInt(fields["score"])}
			entry.Username, _ = fields["username"].(string)
			entries = append(entries, entry)
		}
		out[key] = entries
	}
	return out, nil
}

func (s *StatsStore) SetTopDrinkers(ctx context.Context, month string, monthTop, overallTop []statistics.RankedUser) error {
	_, err := s.doc(topUsersDoc).Set(ctx, map[string]interface{}{
		month:                 monthTop,
		statistics.OverallKey: overallTop,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to merge top drinkers for %s: %w", month, err)
	}
	return nil
}

// asInt normalizes Firestore numerics, which decode as int64 (or float64 when
// a client wrote a double).
func asInt(v interface{}) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
