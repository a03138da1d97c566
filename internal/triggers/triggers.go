// Package triggers holds the event-driven counter handlers: one fires on
// request creation, one on a user's check-in transition. The handlers are
// independent of the Firestore listener transport (see watcher.go) and safe
// to invoke concurrently for different recipients.
package triggers

import (
	"context"
	"errors"
	"fmt"
	"log"

	"sladeshAPI/internal/repository"
	"sladeshAPI/internal/types/request"
	"sladeshAPI/internal/types/user"
)

type Handler struct {
	users    repository.UserRepository
	requests repository.RequestRepository
}

func NewHandler(users repository.UserRepository, requests repository.RequestRepository) *Handler {
	return &Handler{users: users, requests: requests}
}

// RequestCreated increments the recipient's daily and cumulative sladesh
// counters and marks the request completed. An unknown recipient is logged
// and the request stays pending; that is not an error.
func (h *Handler) RequestCreated(ctx context.Context, req *request.Request) error {
	u, err := h.users.ApplySladesh(ctx, req.Recipient)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Printf("no user found with username %q, request %s left pending", req.Recipient, req.ID)
			return nil
		}
		return fmt.Errorf("failed to apply sladesh to %q: %w", req.Recipient, err)
	}

	if err := h.requests.MarkCompleted(ctx, req.ID); err != nil {
		return fmt.Errorf("sladesh applied but request %s not marked completed: %w", req.ID, err)
	}

	log.Printf("incremented sladesh count for user %s to %d (total %d), request %s completed", u.Username, u.SladeshCount, u.TotalSladeshes, req.ID)
	return nil
}

// UserUpdated increments the cumulative check-in count on the checkedIn
// false->true transition only. true->false and no-change updates are ignored.
func (h *Handler) UserUpdated(ctx context.Context, before, after *user.User) error {
	if before.CheckedIn || !after.CheckedIn {
		return nil
	}
	if err := h.users.IncrementCheckInCount(ctx, after.ID); err != nil {
		return fmt.Errorf("failed to increment check-in count for %s: %w", after.ID, err)
	}
	log.Printf("incremented check-in count for user %s", after.Username)
	return nil
}
