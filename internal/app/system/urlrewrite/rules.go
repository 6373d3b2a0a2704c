package urlrewrite

import "strings"

// DefaultRules is the rewrite table for the public site and the manage area.
//
// Within a namespace, rules with the same segment count are evaluated in the
// order listed here, so the literal "new" and "edit" rules must stay ahead
// of the detail rules they overlap with.
func DefaultRules() []Rule {
	const (
		org    = "organizations/:org"
		series = org + "/series/:series"
		event  = series + "/events/:event"
		race   = event + "/races/:race"
		preem  = race + "/preems/:preem"
	)

	return []Rule{
		// manage: aliases
		{Namespace: Manage, Pattern: "/manage/live", Page: "/manage"},
		{Namespace: Manage, Pattern: "/manage/hub", Page: "/manage"},

		// manage: create forms, canonical path is the target collection
		{Namespace: Manage, Pattern: "/manage/new", Page: "/manage/organization/new", PathTemplate: "organizations"},
		{Namespace: Manage, Pattern: "/manage/:org/series/new", Page: "/manage/series/new", PathTemplate: org + "/series"},
		{Namespace: Manage, Pattern: "/manage/:org/:series/event/new", Page: "/manage/event/new", PathTemplate: series + "/events"},
		{Namespace: Manage, Pattern: "/manage/:org/:series/:event/race/new", Page: "/manage/race/new", PathTemplate: event + "/races"},
		{Namespace: Manage, Pattern: "/manage/:org/:series/:event/:race/preem/new", Page: "/manage/preem/new", PathTemplate: race + "/preems"},

		// manage: edit forms
		{Namespace: Manage, Pattern: "/manage/:org/edit", Page: "/manage/organization/edit", PathTemplate: org},
		{Namespace: Manage, Pattern: "/manage/:org/:series/edit", Page: "/manage/series/edit", PathTemplate: series},
		{Namespace: Manage, Pattern: "/manage/:org/:series/:event/edit", Page: "/manage/event/edit", PathTemplate: event},
		{Namespace: Manage, Pattern: "/manage/:org/:series/:event/:race/edit", Page: "/manage/race/edit", PathTemplate: race},
		{Namespace: Manage, Pattern: "/manage/:org/:series/:event/:race/:preem/edit", Page: "/manage/preem/edit", PathTemplate: preem},

		// manage: details
		{Namespace: Manage, Pattern: "/manage/:org/:series/:event/:race/:preem", Page: "/manage/preem", PathTemplate: preem},
		{Namespace: Manage, Pattern: "/manage/:org/:series/:event/:race", Page: "/manage/race", PathTemplate: race},
		{Namespace: Manage, Pattern: "/manage/:org/:series/:event", Page: "/manage/event", PathTemplate: event},
		{Namespace: Manage, Pattern: "/manage/:org/:series", Page: "/manage/series", PathTemplate: series},
		{Namespace: Manage, Pattern: "/manage/:org", Page: "/manage/organization", PathTemplate: org},

		// public pages
		{Namespace: View, Pattern: "/:org/:series/:event/:race/:preem", Page: "/preem", PathTemplate: preem},
		{Namespace: View, Pattern: "/:org/:series/:event/:race", Page: "/race", PathTemplate: race},
		{Namespace: View, Pattern: "/:org/:series/:event", Page: "/event", PathTemplate: event},
		{Namespace: View, Pattern: "/:org/:series", Page: "/series", PathTemplate: series},
		{Namespace: View, Pattern: "/:org", Page: "/organization", PathTemplate: org},
	}
}

// DefaultReserved lists first segments that are never rewritten in either
// namespace: application routes and the page targets themselves.
func DefaultReserved() []string {
	return []string{
		"health", "metrics", "api", "static", "user", "view", "favicon.ico",
		"login", "logout", "forbidden", "unauthorized",
		"organization", "series", "event", "race", "preem",
	}
}

var reservedSegments = literalSegments(DefaultRules(), DefaultReserved())

// literalSegments collects every segment a hierarchy id must not take: the
// literal segments of the rule patterns plus the reserved first segments.
// An id equal to one of them would be captured by a literal rule instead
// of its own page.
func literalSegments(rules []Rule, reserved []string) map[string]struct{} {
	out := make(map[string]struct{}, len(reserved))
	for _, s := range reserved {
		out[s] = struct{}{}
	}
	for _, r := range rules {
		for _, s := range splitPath(r.Pattern) {
			if s != "*" && !strings.HasPrefix(s, ":") {
				out[s] = struct{}{}
			}
		}
	}
	return out
}

// IsReservedSegment reports whether id collides with a fixed URL segment of
// the default table.
func IsReservedSegment(id string) bool {
	_, ok := reservedSegments[strings.ToLower(id)]
	return ok
}
