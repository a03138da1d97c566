package jobs

import (
	"context"
	"log"

	"sladeshAPI/internal/repository"
)

// SladeshCountReset zeroes every user's daily sladesh count. Setting zero
// twice is safe, so a failed run just waits for the next schedule slot.
type SladeshCountReset struct {
	users repository.UserRepository
}

func NewSladeshCountReset(users repository.UserRepository) *SladeshCountReset {
	return &SladeshCountReset{users: users}
}

func (j *SladeshCountReset) Name() string { return "reset-sladesh-count" }

func (j *SladeshCountReset) Run(ctx context.Context) error {
	n, err := j.users.ResetSladeshCounts(ctx)
	if err != nil {
		return err
	}
	log.Printf("reset sladesh count for %d users", n)
	return nil
}

// CheckInReset clears every user's check-in flag. A user checking in between
// the scan and the commit loses that check-in; accepted race at this scale.
type CheckInReset struct {
	users repository.UserRepository
}

func NewCheckInReset(users repository.UserRepository) *CheckInReset {
	return &CheckInReset{users: users}
}

func (j *CheckInReset) Name() string { return "reset-check-in" }

func (j *CheckInReset) Run(ctx context.Context) error {
	n, err := j.users.ResetCheckIns(ctx)
	if err != nil {
		return err
	}
	log.Printf("reset check-in status for %d users", n)
	return nil
}
