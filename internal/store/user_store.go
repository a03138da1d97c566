package store

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"sladeshAPI/internal/repository"
	"sladeshAPI/internal/types/user"
)

type UserStore struct {
	client *firestore.Client
}

func NewUserStore(client *firestore.Client) *UserStore {
	return &UserStore{client: client}
}

func (s *UserStore) ListUsers(ctx context.Context) ([]*user.User, error) {
	iter := s.client.Collection(usersCollection).Documents(ctx)
	defer iter.Stop()

	var users []*user.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}

		u := &user.User{}
		if err := doc.DataTo(u); err != nil {
			log.Printf("UserStore: skipping malformed user document %s: %v", doc.Ref.ID, err)
			continue
		}
		u.ID = doc.Ref.ID
		users = append(users, u)
	}
	return users, nil
}

// resetField sets one field to the same value on every user document in a
// single atomic batch.
func (s *UserStore) resetField(ctx context.Context, field string, value interface{}) (int, error) {
	iter := s.client.Collection(usersCollection).Documents(ctx)
	defer iter.Stop()

	batch := s.client.Batch()
	count := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to scan users: %w", err)
		}
		batch.Update(doc.Ref, []firestore.Update{{Path: field, Value: value}})
		count++
	}

	if count == 0 {
		return 0, nil
	}
	if _, err := batch.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit %s reset: %w", field, err)
	}
	return count, nil
}

func (s *UserStore) ResetSladeshCounts(ctx context.Context) (int, error) {
	return s.resetField(ctx, "sladeshCount", 0)
}

func (s *UserStore) ResetCheckIns(ctx context.Context) (int, error) {
	return s.resetField(ctx, "checkedIn", false)
}

func (s *UserStore) SetHighestDrinks(ctx context.Context, updates map[string]int) error {
	if len(updates) == 0 {
		return nil
	}
	batch := s.client.Batch()
	for id, v := range updates {
		ref := s.client.Collection(usersCollection).Doc(id)
		batch.Update(ref, []firestore.Update{{Path: "highestDrinksIn12Hours", Value: v}})
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit high-water marks: %w", err)
	}
	return nil
}

func (s *UserStore) SetSladeshBaseline(ctx context.Context, userID string, baseline int) error {
	ref := s.client.Collection(usersCollection).Doc(userID)
	_, err := ref.Update(ctx, []firestore.Update{{Path: "sladeshesAtStartOfMonth", Value: baseline}})
	if err != nil {
		return fmt.Errorf("failed to set sladesh baseline for %s: %w", userID, err)
	}
	return nil
}

func (s *UserStore) SetCheckInBaseline(ctx context.Context, userID string, baseline int) error {
	ref := s.client.Collection(usersCollection).Doc(userID)
	_, err := ref.Update(ctx, []firestore.Update{{Path: "checkInsAtStartOfMonth", Value: baseline}})
	if err != nil {
		return fmt.Errorf("failed to set check-in baseline for %s: %w", userID, err)
	}
	return nil
}

func (s *UserStore) ResetDrinkCounters(ctx context.Context, userIDs []string, rolloverID string) error {
	if len(userIDs) == 0 {
		return nil
	}
	batch := s.client.Batch()
	for _, id := range userIDs {
		ref := s.client.Collection(usersCollection).Doc(id)
		batch.Update(ref, []firestore.Update{
			{Path: "drinks", Value: map[string]int{}},
			{Path: "totalDrinks", Value: 0},
			{Path: "lastRolloverId", Value: rolloverID},
		})
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit drink counter reset: %w", err)
	}
	return nil
}

// ApplySladesh runs as a transaction so concurrent sladeshes against the same
// recipient cannot lose an increment.
func (s *UserStore) ApplySladesh(ctx context.Context, recipientUsername string) (*user.User, error) {
	var updated *user.User

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		query := s.client.Collection(usersCollection).
			Where("username", "==", recipientUsername).
			Limit(1)
		iter := tx.Documents(query)
		defer iter.Stop()

		doc, err := iter.Next()
		if err == iterator.Done {
			return repository.ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to look up recipient: %w", err)
		}

		u := &user.User{}
		if err := doc.DataTo(u); err != nil {
			return fmt.Errorf("failed to decode recipient %s: %w", doc.Ref.ID, err)
		}
		u.ID = doc.Ref.ID
		u.SladeshCount++
		u.TotalSladeshes++

		if err := tx.Update(doc.Ref, []firestore.Update{
			{Path: "sladeshCount", Value: u.SladeshCount},
			{Path: "totalSladeshes", Value: u.TotalSladeshes},
		}); err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *UserStore) IncrementCheckInCount(ctx context.Context, userID string) error {
	ref := s.client.Collection(usersCollection).Doc(userID)
	_, err := ref.Update(ctx, []firestore.Update{
		{Path: "checkInCount", Value: firestore.Increment(1)},
	})
	if err != nil {
		return fmt.Errorf("failed to increment check-in count for %s: %w", userID, err)
	}
	return nil
}
