// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"sladeshAPI/internal/jobs"
)

type Config struct {
	Port string `env:"PORT" envDefault:"3333"`

	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE" envDefault:"./serviceAccountKey.json"`

	// DatabaseURL enables the Postgres job run ledger when set.
	DatabaseURL string `env:"DATABASE_URL"`

	Timezone string `env:"SCHEDULE_TIMEZONE" envDefault:"Europe/Copenhagen"`

	RetentionWindow time.Duration `env:"REQUEST_RETENTION_WINDOW" envDefault:"12h"`
	RollingWindow   time.Duration `env:"ROLLING_WINDOW" envDefault:"12h"`

	// LeaderboardMonthMode selects the "this month" score semantics:
	// "baseline" keeps the behavior of the system this replaces, "delta"
	// scores cumulative minus baseline.
	LeaderboardMonthMode string `env:"LEADERBOARD_MONTH_MODE" envDefault:"baseline"`
	TopDrinkersCount     int    `env:"TOP_DRINKERS_COUNT" envDefault:"3"`

	JobTimeout time.Duration `env:"JOB_TIMEOUT" envDefault:"5m"`

	// Schedule slots, comma-separated "HH:MM" in the configured time zone.
	ResetSladeshAt  string `env:"RESET_SLADESH_AT" envDefault:"00:00"`
	ResetCheckInAt  string `env:"RESET_CHECKIN_AT" envDefault:"00:00"`
	PurgeRequestsAt string `env:"PURGE_REQUESTS_AT" envDefault:"00:00,12:00"`
	RollingWindowAt string `env:"ROLLING_WINDOW_AT" envDefault:"00:00,12:00"`
	DrinkRolloverAt string `env:"DRINK_ROLLOVER_AT" envDefault:"11:00"`
	MostSladeshedAt string `env:"MOST_SLADESHED_AT" envDefault:"01:00"`
	MostCheckedInAt string `env:"MOST_CHECKED_IN_AT" envDefault:"00:00"`
	TopDrinkersAt   string `env:"TOP_DRINKERS_AT" envDefault:"00:30"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	switch jobs.MonthMode(cfg.LeaderboardMonthMode) {
	case jobs.MonthModeBaseline, jobs.MonthModeDelta:
	default:
		return nil, fmt.Errorf("invalid LEADERBOARD_MONTH_MODE %q, want baseline or delta", cfg.LeaderboardMonthMode)
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location resolves the configured schedule time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// MonthMode returns the validated leaderboard month semantics.
func (c *Config) MonthMode() jobs.MonthMode {
	return jobs.MonthMode(c.LeaderboardMonthMode)
}
