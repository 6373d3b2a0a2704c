package briefs

import (
	"strings"

	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"go.mongodb.org/mongo-driver/bson"
)

// Key returns the field under which a child document stores the brief of
// its parent of kind k ("" for kinds that are never embedded).
func Key(k docpath.Kind) string {
	switch k {
	case docpath.KindOrganization:
		return "organization_brief"
	case docpath.KindSeries:
		return "series_brief"
	case docpath.KindEvent:
		return "event_brief"
	case docpath.KindRace:
		return "race_brief"
	case docpath.KindPreem:
		return "preem_brief"
	}
	return ""
}

// Prefix returns the dotted key that reaches the brief of an ancestor of
// kind ancestor from inside a document of kind descendant, e.g.
// (Organization, Event) → "series_brief.organization_brief".
func Prefix(ancestor, descendant docpath.Kind) string {
	a, d := ancestor.Depth(), descendant.Depth()
	if a == 0 || d == 0 || a >= d || descendant == docpath.KindUser {
		return ""
	}
	keys := make([]string, 0, d-a)
	for depth := d - 1; depth >= a; depth-- {
		keys = append(keys, Key(docpath.KindAtDepth(depth)))
	}
	return strings.Join(keys, ".")
}

// DisplayFields lists the fields of kind k that are copied into briefs.
func DisplayFields(k docpath.Kind) []string {
	switch k {
	case docpath.KindOrganization, docpath.KindPreem:
		return []string{"name"}
	case docpath.KindSeries, docpath.KindEvent, docpath.KindRace:
		return []string{"name", "start_date", "end_date", "timezone"}
	}
	return nil
}

// FilterDisplay keeps only the entries of changed that appear in briefs of
// kind k.
func FilterDisplay(k docpath.Kind, changed bson.M) bson.M {
	out := bson.M{}
	for _, f := range DisplayFields(k) {
		if v, ok := changed[f]; ok {
			out[f] = v
		}
	}
	return out
}
