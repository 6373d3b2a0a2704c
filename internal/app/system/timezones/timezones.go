// Package timezones holds the curated list of IANA zones a series, event or
// race may be scheduled in.
package timezones

import (
	"sort"
	"sync"
	"time"
	_ "time/tzdata"
)

type Zone struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Region string `json:"region,omitempty"`
}

type ZoneGroup struct {
	Region string `json:"region"`
	Zones  []Zone `json:"zones"`
}

var curated = []Zone{
	{ID: "America/New_York", Label: "Eastern Time (New York)", Region: "North America"},
	{ID: "America/Chicago", Label: "Central Time (Chicago)", Region: "North America"},
	{ID: "America/Denver", Label: "Mountain Time (Denver)", Region: "North America"},
	{ID: "America/Phoenix", Label: "Mountain Time, no DST (Phoenix)", Region: "North America"},
	{ID: "America/Los_Angeles", Label: "Pacific Time (Los Angeles)", Region: "North America"},
	{ID: "America/Anchorage", Label: "Alaska Time (Anchorage)", Region: "North America"},
	{ID: "Pacific/Honolulu", Label: "Hawaii Time (Honolulu)", Region: "North America"},
	{ID: "America/Toronto", Label: "Eastern Time (Toronto)", Region: "North America"},
	{ID: "America/Vancouver", Label: "Pacific Time (Vancouver)", Region: "North America"},
	{ID: "America/Mexico_City", Label: "Central Time (Mexico City)", Region: "North America"},
	{ID: "America/Bogota", Label: "Colombia Time (Bogotá)", Region: "South America"},
	{ID: "America/Sao_Paulo", Label: "Brasília Time (São Paulo)", Region: "South America"},
	{ID: "America/Argentina/Buenos_Aires", Label: "Argentina Time (Buenos Aires)", Region: "South America"},
	{ID: "Europe/London", Label: "UK Time (London)", Region: "Europe"},
	{ID: "Europe/Dublin", Label: "Irish Time (Dublin)", Region: "Europe"},
	{ID: "Europe/Paris", Label: "Central European Time (Paris)", Region: "Europe"},
	{ID: "Europe/Brussels", Label: "Central European Time (Brussels)", Region: "Europe"},
	{ID: "Europe/Amsterdam", Label: "Central European Time (Amsterdam)", Region: "Europe"},
	{ID: "Europe/Madrid", Label: "Central European Time (Madrid)", Region: "Europe"},
	{ID: "Europe/Rome", Label: "Central European Time (Rome)", Region: "Europe"},
	{ID: "Europe/Berlin", Label: "Central European Time (Berlin)", Region: "Europe"},
	{ID: "Europe/Athens", Label: "Eastern European Time (Athens)", Region: "Europe"},
	{ID: "Africa/Johannesburg", Label: "South Africa Time (Johannesburg)", Region: "Africa"},
	{ID: "Asia/Tokyo", Label: "Japan Time (Tokyo)", Region: "Asia"},
	{ID: "Asia/Shanghai", Label: "China Time (Shanghai)", Region: "Asia"},
	{ID: "Asia/Singapore", Label: "Singapore Time", Region: "Asia"},
	{ID: "Australia/Sydney", Label: "Eastern Australia Time (Sydney)", Region: "Oceania"},
	{ID: "Australia/Perth", Label: "Western Australia Time (Perth)", Region: "Oceania"},
	{ID: "Pacific/Auckland", Label: "New Zealand Time (Auckland)", Region: "Oceania"},
	{ID: "UTC", Label: "Coordinated Universal Time (UTC)", Region: "Other"},
}

var (
	loadOnce sync.Once
	zones    []Zone
	byID     map[string]Zone
	locs     map[string]*time.Location
	loadErr  error

	groupsOnce sync.Once
	groups     []ZoneGroup
)

// load resolves every curated zone against the tz database.
func load() {
	loadOnce.Do(func() {
		byID = make(map[string]Zone, len(curated))
		for _, z := range curated {
			if _, err := time.LoadLocation(z.ID); err != nil {
				loadErr = err
				return
			}
			byID[z.ID] = z
		}
		zones = curated
	})
}

// Load is optional: call it at startup to fail fast.
func Load() error {
	load()
	return loadErr
}

// Valid reports whether id is a curated zone.
func Valid(id string) bool {
	load()
	if loadErr != nil {
		return false
	}
	_, ok := byID[id]
	return ok
}

// Groups returns the zones grouped by region, regions and labels sorted.
func Groups() ([]ZoneGroup, error) {
	if err := Load(); err != nil {
		return nil, err
	}
	groupsOnce.Do(func() {
		byRegion := make(map[string][]Zone)
		for _, z := range zones {
			region := z.Region
			if region == "" {
				region = "Other"
			}
			byRegion[region] = append(byRegion[region], z)
		}
		out := make([]ZoneGroup, 0, len(byRegion))
		for region, zs := range byRegion {
			sort.SliceStable(zs, func(i, j int) bool { return zs[i].Label < zs[j].Label })
			out = append(out, ZoneGroup{Region: region, Zones: zs})
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Region < out[j].Region })
		groups = out
	})
	return groups, nil
}
