package models

import "time"

// Series is a season or championship run by an organization.
type Series struct {
	ID          string    `bson:"id" json:"id"`
	Path        string    `bson:"path" json:"path"`
	Name        string    `bson:"name" json:"name"`
	NameCI      string    `bson:"name_ci,omitempty" json:"-"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Website     string    `bson:"website,omitempty" json:"website,omitempty"`
	Location    string    `bson:"location,omitempty" json:"location,omitempty"`
	StartDate   time.Time `bson:"start_date" json:"startDate"`
	EndDate     time.Time `bson:"end_date" json:"endDate"`
	Timezone    string    `bson:"timezone,omitempty" json:"timezone,omitempty"`

	OrganizationBrief *OrganizationBrief `bson:"organization_brief,omitempty" json:"organizationBrief,omitempty"`

	Metadata Metadata `bson:"metadata" json:"metadata"`
}
