package user

import "time"

// User mirrors a users/{id} document. Counters split into per-period
// (sladeshCount, checkedIn, drinks) and cumulative (totalSladeshes,
// checkInCount) families; the AtStartOfMonth fields are baselines snapshotted
// on the first leaderboard run of a new month.
type User struct {
	ID       string `json:"id" firestore:"-"`
	Username string `json:"username" firestore:"username"`

	SladeshCount int  `json:"sladeshCount" firestore:"sladeshCount"`
	CheckedIn    bool `json:"checkedIn" firestore:"checkedIn"`

	TotalSladeshes int `json:"totalSladeshes" firestore:"totalSladeshes"`
	CheckInCount   int `json:"checkInCount" firestore:"checkInCount"`

	SladeshesAtStartOfMonth *int `json:"sladeshesAtStartOfMonth,omitempty" firestore:"sladeshesAtStartOfMonth"`
	CheckInsAtStartOfMonth  *int `json:"checkInsAtStartOfMonth,omitempty" firestore:"checkInsAtStartOfMonth"`

	// Drinks is an open set keyed by beverage kind ("beer", "wine", "shots",
	// "drink", ...). TotalDrinks must equal the sum of its values whenever the
	// record is at rest.
	Drinks      map[string]int `json:"drinks" firestore:"drinks"`
	TotalDrinks int            `json:"totalDrinks" firestore:"totalDrinks"`

	// HighestDrinksIn12Hours is nil until the rolling-window tracker records a
	// first session high-water mark.
	HighestDrinksIn12Hours *int `json:"highestDrinksIn12Hours,omitempty" firestore:"highestDrinksIn12Hours"`

	LastSladesh *time.Time `json:"lastSladesh,omitempty" firestore:"lastSladesh"`
	LastCheckIn *time.Time `json:"lastCheckIn,omitempty" firestore:"lastCheckIn"`

	// WindowAnchorAt anchors the rolling drink window. Older records only have
	// lastSladesh; readers fall back to it when this is unset.
	WindowAnchorAt *time.Time `json:"windowAnchorAt,omitempty" firestore:"windowAnchorAt"`

	// LastRolloverID is stamped by the drink rollover reset batch so a later
	// run can tell whether this user's counters were cleared after the last
	// archive.
	LastRolloverID string `json:"lastRolloverId,omitempty" firestore:"lastRolloverId"`
}

// WindowAnchor returns the instant anchoring the rolling window, or nil when
// neither the dedicated anchor nor the legacy lastSladesh is set.
func (u *User) WindowAnchor() *time.Time {
	if u.WindowAnchorAt != nil {
		return u.WindowAnchorAt
	}
	return u.LastSladesh
}
