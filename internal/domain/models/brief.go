// internal/domain/models/brief.go
package models

import "time"

// Briefs are read-only projections of an ancestor that a descendant embeds
// so lists and breadcrumbs render without fetching the ancestor. They carry
// display fields only and may lag the live ancestor until the next refresh.

type OrganizationBrief struct {
	ID   string `bson:"id" json:"id"`
	Path string `bson:"path" json:"path"`
	Name string `bson:"name,omitempty" json:"name,omitempty"`
}

type SeriesBrief struct {
	ID        string     `bson:"id" json:"id"`
	Path      string     `bson:"path" json:"path"`
	Name      string     `bson:"name,omitempty" json:"name,omitempty"`
	StartDate *time.Time `bson:"start_date,omitempty" json:"startDate,omitempty"`
	EndDate   *time.Time `bson:"end_date,omitempty" json:"endDate,omitempty"`
	Timezone  string     `bson:"timezone,omitempty" json:"timezone,omitempty"`

	OrganizationBrief *OrganizationBrief `bson:"organization_brief,omitempty" json:"organizationBrief,omitempty"`
}

type EventBrief struct {
	ID        string     `bson:"id" json:"id"`
	Path      string     `bson:"path" json:"path"`
	Name      string     `bson:"name,omitempty" json:"name,omitempty"`
	StartDate *time.Time `bson:"start_date,omitempty" json:"startDate,omitempty"`
	EndDate   *time.Time `bson:"end_date,omitempty" json:"endDate,omitempty"`
	Timezone  string     `bson:"timezone,omitempty" json:"timezone,omitempty"`

	SeriesBrief *SeriesBrief `bson:"series_brief,omitempty" json:"seriesBrief,omitempty"`
}

type RaceBrief struct {
	ID        string     `bson:"id" json:"id"`
	Path      string     `bson:"path" json:"path"`
	Name      string     `bson:"name,omitempty" json:"name,omitempty"`
	StartDate *time.Time `bson:"start_date,omitempty" json:"startDate,omitempty"`
	EndDate   *time.Time `bson:"end_date,omitempty" json:"endDate,omitempty"`
	Timezone  string     `bson:"timezone,omitempty" json:"timezone,omitempty"`

	EventBrief *EventBrief `bson:"event_brief,omitempty" json:"eventBrief,omitempty"`
}

type PreemBrief struct {
	ID   string `bson:"id" json:"id"`
	Path string `bson:"path" json:"path"`
	Name string `bson:"name,omitempty" json:"name,omitempty"`

	RaceBrief *RaceBrief `bson:"race_brief,omitempty" json:"raceBrief,omitempty"`
}

// UserBrief identifies a contributor. It never carries the email address.
type UserBrief struct {
	ID        string `bson:"id" json:"id"`
	Path      string `bson:"path" json:"path"`
	Name      string `bson:"name,omitempty" json:"name,omitempty"`
	AvatarURL string `bson:"avatar_url,omitempty" json:"avatarUrl,omitempty"`
}
