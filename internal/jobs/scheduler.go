package jobs

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock schedule slot in the scheduler's time zone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimesOfDay parses a comma-separated list of "HH:MM" slots, e.g.
// "00:00,12:00".
func ParseTimesOfDay(s string) ([]TimeOfDay, error) {
	parts := strings.Split(s, ",")
	out := make([]TimeOfDay, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		hhmm := strings.Split(part, ":")
		if len(hhmm) != 2 {
			return nil, fmt.Errorf("invalid schedule slot %q, want HH:MM", part)
		}
		hour, err := strconv.Atoi(hhmm[0])
		if err != nil || hour < 0 || hour > 23 {
			return nil, fmt.Errorf("invalid hour in schedule slot %q", part)
		}
		minute, err := strconv.Atoi(hhmm[1])
		if err != nil || minute < 0 || minute > 59 {
			return nil, fmt.Errorf("invalid minute in schedule slot %q", part)
		}
		out = append(out, TimeOfDay{Hour: hour, Minute: minute})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no schedule slots in %q", s)
	}
	return out, nil
}

type entry struct {
	job   Job
	times []TimeOfDay
}

// Scheduler fires jobs at fixed local wall-clock times. Each job family is
// independently schedulable; due jobs run concurrently, each through the
// Runner so a failing job never takes the scheduler down.
type Scheduler struct {
	runner  *Runner
	loc     *time.Location
	entries []entry
	clock   func() time.Time
}

func NewScheduler(runner *Runner, loc *time.Location) *Scheduler {
	return &Scheduler{
		runner: runner,
		loc:    loc,
		clock:  time.Now,
	}
}

func (s *Scheduler) Add(job Job, times []TimeOfDay) {
	s.entries = append(s.entries, entry{job: job, times: times})
	slots := make([]string, len(times))
	for i, t := range times {
		slots[i] = t.String()
	}
	log.Printf("scheduler: %s at %s (%s)", job.Name(), strings.Join(slots, ", "), s.loc)
}

// Start blocks until ctx is canceled, waking at the next due slot and firing
// every job scheduled for that instant.
func (s *Scheduler) Start(ctx context.Context) {
	log.Printf("scheduler: started with %d jobs", len(s.entries))
	for {
		now := s.clock().In(s.loc)
		next := s.nextFire(now)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Println("scheduler: stopped")
			return
		case <-timer.C:
		}

		for _, e := range s.entries {
			if !dueAt(e.times, next) {
				continue
			}
			job := e.job
			go func() {
				_ = s.runner.Run(ctx, job)
			}()
		}
	}
}

// nextFire returns the earliest upcoming slot instant across all entries,
// strictly after now.
func (s *Scheduler) nextFire(now time.Time) time.Time {
	var next time.Time
	for _, e := range s.entries {
		for _, t := range e.times {
			candidate := nextAfter(now, t)
			if next.IsZero() || candidate.Before(next) {
				next = candidate
			}
		}
	}
	return next
}

// nextAfter returns the first instant strictly after now at which the slot
// occurs, in now's location.
func nextAfter(now time.Time, t TimeOfDay) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

func dueAt(times []TimeOfDay, at time.Time) bool {
	for _, t := range times {
		if at.Hour() == t.Hour && at.Minute() == t.Minute {
			return true
		}
	}
	return false
}
