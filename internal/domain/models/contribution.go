package models

import "time"

// Contribution is one pledge towards a preem's prize pool. Contributions are
// append-only: Amount never changes after creation, corrections are new
// (possibly negative) contributions.
type Contribution struct {
	ID          string     `bson:"id" json:"id"`
	Path        string     `bson:"path" json:"path"`
	Amount      float64    `bson:"amount" json:"amount"`
	Date        time.Time  `bson:"date" json:"date"`
	Message     string     `bson:"message,omitempty" json:"message,omitempty"`
	IsAnonymous bool       `bson:"is_anonymous,omitempty" json:"isAnonymous,omitempty"`
	Contributor *UserBrief `bson:"contributor,omitempty" json:"contributor,omitempty"`

	PreemBrief *PreemBrief `bson:"preem_brief,omitempty" json:"preemBrief,omitempty"`

	Metadata Metadata `bson:"metadata" json:"metadata"`
}
