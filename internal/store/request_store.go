package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sladeshAPI/internal/repository"
	"sladeshAPI/internal/types/request"
)

type RequestStore struct {
	client *firestore.Client
}

func NewRequestStore(client *firestore.Client) *RequestStore {
	return &RequestStore{client: client}
}

func (s *RequestStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	iter := s.client.Collection(requestsCollection).
		Where("createdAt", "<", cutoff).
		Documents(ctx)
	defer iter.Stop()

	batch := s.client.Batch()
	count := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			// Firestore rejects range queries without a supporting index with
			// FailedPrecondition; that is a deploy-time configuration problem.
			if status.Code(err) == codes.FailedPrecondition {
				return 0, fmt.Errorf("%w: createdAt range query rejected: %v", repository.ErrMissingIndex, err)
			}
			return 0, fmt.Errorf("failed to query old requests: %w", err)
		}
		batch.Delete(doc.Ref)
		count++
	}

	if count == 0 {
		return 0, nil
	}
	if _, err := batch.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit request purge: %w", err)
	}
	return count, nil
}

func (s *RequestStore) MarkCompleted(ctx context.Context, requestID string) error {
	ref := s.client.Collection(requestsCollection).Doc(requestID)
	_, err := ref.Update(ctx, []firestore.Update{
		{Path: "status", Value: string(request.StatusCompleted)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return repository.ErrRequestNotFound
		}
		return fmt.Errorf("failed to mark request %s completed: %w", requestID, err)
	}
	return nil
}

func (s *RequestStore) ListRequests(ctx context.Context) ([]*request.Request, error) {
	iter := s.client.Collection(requestsCollection).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var requests []*request.Request
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list requests: %w", err)
		}
		req := &request.Request{}
		if err := doc.DataTo(req); err != nil {
			log.Printf("RequestStore: skipping malformed request document %s: %v", doc.Ref.ID, err)
			continue
		}
		req.ID = doc.Ref.ID
		requests = append(requests, req)
	}
	return requests, nil
}
