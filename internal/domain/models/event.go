package models

import "time"

// Event is a race day (or weekend) within a series.
type Event struct {
	ID          string     `bson:"id" json:"id"`
	Path        string     `bson:"path" json:"path"`
	Name        string     `bson:"name" json:"name"`
	NameCI      string     `bson:"name_ci,omitempty" json:"-"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	Website     string     `bson:"website,omitempty" json:"website,omitempty"`
	Location    string     `bson:"location,omitempty" json:"location,omitempty"`
	StartDate   time.Time  `bson:"start_date" json:"startDate"`
	EndDate     *time.Time `bson:"end_date,omitempty" json:"endDate,omitempty"`
	Timezone    string     `bson:"timezone,omitempty" json:"timezone,omitempty"`

	SeriesBrief *SeriesBrief `bson:"series_brief,omitempty" json:"seriesBrief,omitempty"`

	Metadata Metadata `bson:"metadata" json:"metadata"`
}
