package models

import "time"

// Preem types.
const (
	PreemPooled  = "Pooled"
	PreemOneShot = "One-Shot"
)

// Preem statuses. Status only moves forward:
// Open → Minimum Met → Awarded, or Open → Awarded.
const (
	StatusOpen       = "Open"
	StatusMinimumMet = "Minimum Met"
	StatusAwarded    = "Awarded"
)

// Preem is a crowd-funded prize attached to a race.
//
// PrizePool is derived from the preem's contributions and is written only
// by the ledger.
type Preem struct {
	ID               string     `bson:"id" json:"id"`
	Path             string     `bson:"path" json:"path"`
	Name             string     `bson:"name" json:"name"`
	NameCI           string     `bson:"name_ci,omitempty" json:"-"`
	Description      string     `bson:"description,omitempty" json:"description,omitempty"`
	Type             string     `bson:"type" json:"type"`
	Status           string     `bson:"status" json:"status"`
	PrizePool        float64    `bson:"prize_pool" json:"prizePool"`
	MinimumThreshold *float64   `bson:"minimum_threshold,omitempty" json:"minimumThreshold,omitempty"`
	TimeLimit        *time.Time `bson:"time_limit,omitempty" json:"timeLimit,omitempty"`

	RaceBrief *RaceBrief `bson:"race_brief,omitempty" json:"raceBrief,omitempty"`

	Metadata Metadata `bson:"metadata" json:"metadata"`
}

// Expired reports whether the preem's time limit has passed. Expiry is
// informational; it never changes Status.
func (p Preem) Expired(now time.Time) bool {
	return p.TimeLimit != nil && !now.Before(*p.TimeLimit)
}
