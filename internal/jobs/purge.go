package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"sladeshAPI/internal/repository"
)

// RequestPurge deletes requests older than the retention window, regardless
// of status. Pure deletion of stale rows; a failed run is retried by the next
// schedule slot.
type RequestPurge struct {
	requests  repository.RequestRepository
	retention time.Duration
	clock     func() time.Time
}

func NewRequestPurge(requests repository.RequestRepository, retention time.Duration) *RequestPurge {
	return &RequestPurge{
		requests:  requests,
		retention: retention,
		clock:     time.Now,
	}
}

func (j *RequestPurge) Name() string { return "purge-old-requests" }

func (j *RequestPurge) Run(ctx context.Context) error {
	cutoff := j.clock().Add(-j.retention)

	n, err := j.requests.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		if errors.Is(err, repository.ErrMissingIndex) {
			// Configuration problem, not a transient failure. Surface it
			// loudly; retrying without the index cannot succeed.
			log.Printf("purge: store requires an index for the createdAt query, check the Firestore console: %v", err)
			return fmt.Errorf("purge misconfigured: %w", err)
		}
		return err
	}

	if n == 0 {
		log.Println("purge: no old requests to delete")
		return nil
	}

	purgedRequestsTotal.Add(float64(n))
	log.Printf("purge: deleted %d requests older than %s", n, cutoff.Format(time.RFC3339))
	return nil
}
