package hierarchystore

import (
	"strings"
	"time"

	"github.com/dalemusser/preemhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/preemhub/internal/app/system/inputval"
	"github.com/dalemusser/preemhub/internal/domain/models"
)

// Inputs carry create payloads and, after merging an update, the full
// editable state that is validated. ID is an optional caller-chosen id.

type OrganizationInput struct {
	ID          string `json:"id" validate:"omitempty,pathid,max=64" label:"ID"`
	Name        string `json:"name" validate:"required,max=200" label:"Name"`
	Description string `json:"description" validate:"max=10000" label:"Description"`
	Website     string `json:"website" validate:"omitempty,httpurl" label:"Website"`
}

type SeriesInput struct {
	ID          string    `json:"id" validate:"omitempty,pathid,max=64" label:"ID"`
	Name        string    `json:"name" validate:"required,max=200" label:"Name"`
	Description string    `json:"description" validate:"max=10000" label:"Description"`
	Website     string    `json:"website" validate:"omitempty,httpurl" label:"Website"`
	Location    string    `json:"location" validate:"max=200" label:"Location"`
	StartDate   time.Time `json:"startDate" label:"Start date"`
	EndDate     time.Time `json:"endDate" label:"End date"`
	Timezone    string    `json:"timezone" validate:"omitempty,timezone" label:"Time zone"`
}

type EventInput struct {
	ID          string     `json:"id" validate:"omitempty,pathid,max=64" label:"ID"`
	Name        string     `json:"name" validate:"required,max=200" label:"Name"`
	Description string     `json:"description" validate:"max=10000" label:"Description"`
	Website     string     `json:"website" validate:"omitempty,httpurl" label:"Website"`
	Location    string     `json:"location" validate:"max=200" label:"Location"`
	StartDate   time.Time  `json:"startDate" label:"Start date"`
	EndDate     *time.Time `json:"endDate" label:"End date"`
	Timezone    string     `json:"timezone" validate:"omitempty,timezone" label:"Time zone"`
}

type RaceInput struct {
	ID            string     `json:"id" validate:"omitempty,pathid,max=64" label:"ID"`
	Name          string     `json:"name" validate:"required,max=200" label:"Name"`
	Description   string     `json:"description" validate:"max=10000" label:"Description"`
	Location      string     `json:"location" validate:"max=200" label:"Location"`
	Category      string     `json:"category" validate:"max=100" label:"Category"`
	Gender        string     `json:"gender" validate:"max=50" label:"Gender"`
	CourseDetails string     `json:"courseDetails" validate:"max=5000" label:"Course details"`
	CourseLink    string     `json:"courseLink" validate:"omitempty,httpurl" label:"Course link"`
	Laps          int        `json:"laps" validate:"gte=0,lte=1000" label:"Laps"`
	StartDate     time.Time  `json:"startDate" label:"Start date"`
	EndDate       *time.Time `json:"endDate" label:"End date"`
	Timezone      string     `json:"timezone" validate:"omitempty,timezone" label:"Time zone"`
}

type PreemInput struct {
	ID               string     `json:"id" validate:"omitempty,pathid,max=64" label:"ID"`
	Name             string     `json:"name" validate:"required,max=200" label:"Name"`
	Description      string     `json:"description" validate:"max=10000" label:"Description"`
	Type             string     `json:"type" validate:"required,preemtype" label:"Type"`
	MinimumThreshold *float64   `json:"minimumThreshold" validate:"omitempty,gte=0" label:"Minimum threshold"`
	TimeLimit        *time.Time `json:"timeLimit" label:"Time limit"`
}

// Updates are partial: nil fields are left alone. Clear* flags remove an
// optional value.

type OrganizationUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Website     *string `json:"website"`
}

type SeriesUpdate struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Website     *string    `json:"website"`
	Location    *string    `json:"location"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Timezone    *string    `json:"timezone"`
}

type EventUpdate struct {
	Name         *string    `json:"name"`
	Description  *string    `json:"description"`
	Website      *string    `json:"website"`
	Location     *string    `json:"location"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	ClearEndDate bool       `json:"clearEndDate"`
	Timezone     *string    `json:"timezone"`
}

type RaceUpdate struct {
	Name          *string    `json:"name"`
	Description   *string    `json:"description"`
	Location      *string    `json:"location"`
	Category      *string    `json:"category"`
	Gender        *string    `json:"gender"`
	CourseDetails *string    `json:"courseDetails"`
	CourseLink    *string    `json:"courseLink"`
	Laps          *int       `json:"laps"`
	StartDate     *time.Time `json:"startDate"`
	EndDate       *time.Time `json:"endDate"`
	ClearEndDate  bool       `json:"clearEndDate"`
	Timezone      *string    `json:"timezone"`
}

type PreemUpdate struct {
	Name                  *string    `json:"name"`
	Description           *string    `json:"description"`
	Type                  *string    `json:"type"`
	MinimumThreshold      *float64   `json:"minimumThreshold"`
	ClearMinimumThreshold bool       `json:"clearMinimumThreshold"`
	TimeLimit             *time.Time `json:"timeLimit"`
	ClearTimeLimit        bool       `json:"clearTimeLimit"`
}

func validate(v any) error {
	if r := inputval.Validate(v); r.HasErrors() {
		return &ValidationError{Message: r.First(), Fields: r.Fields()}
	}
	return nil
}

func invalidInput(field, msg string) error {
	return &ValidationError{Message: msg, Fields: map[string]string{field: msg}}
}

func requireDates(start time.Time, end *time.Time) error {
	if start.IsZero() {
		return invalidInput("Start date", "Start date is required.")
	}
	if end != nil && end.Before(start) {
		return invalidInput("End date", "End date cannot be before start date.")
	}
	return nil
}

func (in *OrganizationInput) normalize() {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.Website = strings.TrimSpace(in.Website)
	in.Description = htmlsanitize.Sanitize(in.Description)
}

func (in *OrganizationInput) validate() error {
	in.normalize()
	return validate(in)
}

func (in *SeriesInput) validate() error {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.Website = strings.TrimSpace(in.Website)
	in.Description = htmlsanitize.Sanitize(in.Description)
	if err := validate(in); err != nil {
		return err
	}
	if in.EndDate.IsZero() {
		return invalidInput("End date", "End date is required.")
	}
	return requireDates(in.StartDate, &in.EndDate)
}

func (in *EventInput) validate() error {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.Website = strings.TrimSpace(in.Website)
	in.Description = htmlsanitize.Sanitize(in.Description)
	if err := validate(in); err != nil {
		return err
	}
	return requireDates(in.StartDate, in.EndDate)
}

func (in *RaceInput) validate() error {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.CourseLink = strings.TrimSpace(in.CourseLink)
	in.Description = htmlsanitize.Sanitize(in.Description)
	in.CourseDetails = htmlsanitize.Sanitize(in.CourseDetails)
	if err := validate(in); err != nil {
		return err
	}
	return requireDates(in.StartDate, in.EndDate)
}

func (in *PreemInput) validate() error {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.Description = htmlsanitize.Sanitize(in.Description)
	if t, ok := inputval.NormalizePreemType(in.Type); ok {
		in.Type = t
	}
	return validate(in)
}

// Date-range rules: a child may not start before its parent starts, nor end
// after its parent ends. Missing parent dates leave that side open.

func checkEventRange(start time.Time, end *time.Time, series models.Series) error {
	if !series.StartDate.IsZero() && start.Before(series.StartDate) {
		return &DateRangeError{Message: "Event start date cannot be before series start date."}
	}
	if end != nil && !series.EndDate.IsZero() && end.After(series.EndDate) {
		return &DateRangeError{Message: "Event end date cannot be after series end date."}
	}
	return nil
}

func checkRaceRange(start time.Time, end *time.Time, event models.Event) error {
	if !event.StartDate.IsZero() && start.Before(event.StartDate) {
		return &DateRangeError{Message: "Race start date cannot be before event start date."}
	}
	if end != nil && event.EndDate != nil && end.After(*event.EndDate) {
		return &DateRangeError{Message: "Race end date cannot be after event end date."}
	}
	return nil
}
