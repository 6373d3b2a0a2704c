package models

import "time"

// Race is a single start within an event (e.g. "Masters Women").
type Race struct {
	ID            string     `bson:"id" json:"id"`
	Path          string     `bson:"path" json:"path"`
	Name          string     `bson:"name" json:"name"`
	NameCI        string     `bson:"name_ci,omitempty" json:"-"`
	Description   string     `bson:"description,omitempty" json:"description,omitempty"`
	Location      string     `bson:"location,omitempty" json:"location,omitempty"`
	Category      string     `bson:"category,omitempty" json:"category,omitempty"`
	Gender        string     `bson:"gender,omitempty" json:"gender,omitempty"`
	CourseDetails string     `bson:"course_details,omitempty" json:"courseDetails,omitempty"`
	CourseLink    string     `bson:"course_link,omitempty" json:"courseLink,omitempty"`
	Laps          int        `bson:"laps,omitempty" json:"laps,omitempty"`
	StartDate     time.Time  `bson:"start_date" json:"startDate"`
	EndDate       *time.Time `bson:"end_date,omitempty" json:"endDate,omitempty"`
	Timezone      string     `bson:"timezone,omitempty" json:"timezone,omitempty"`

	EventBrief *EventBrief `bson:"event_brief,omitempty" json:"eventBrief,omitempty"`

	Metadata Metadata `bson:"metadata" json:"metadata"`
}
