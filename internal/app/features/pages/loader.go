// internal/app/features/pages/loader.go
package pages

import (
	"context"
	"fmt"
	"sort"
	"time"

	hierarchystore "github.com/dalemusser/preemhub/internal/app/store/hierarchy"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/preemhub/internal/app/system/tree"
	"github.com/dalemusser/preemhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// Page data. Each page carries its entity and the levels below it the page
// renders.

type OrganizationPage struct {
	Organization models.Organization `json:"organization"`
	Series       []models.Series     `json:"series"`
}

type SeriesPage struct {
	Series models.Series  `json:"series"`
	Events []models.Event `json:"events"`
}

type EventPage struct {
	Event models.Event  `json:"event"`
	Races []models.Race `json:"races"`
}

// PreemEntry is a preem with its contributions, as listed on a race page.
type PreemEntry struct {
	models.Preem
	Expired       bool                  `json:"expired"`
	Contributions []models.Contribution `json:"contributions"`
}

type RacePage struct {
	Race   models.Race  `json:"race"`
	Preems []PreemEntry `json:"preems"`
}

type PreemPage struct {
	Preem         models.Preem          `json:"preem"`
	Expired       bool                  `json:"expired"`
	Contributions []models.Contribution `json:"contributions"`
}

// Loader assembles page data from the document tree. Parent briefs missing
// from a page's own entity are filled through the entity store.
type Loader struct {
	tree     *tree.Assembler
	entities *hierarchystore.Store
	now      func() time.Time
}

// NewLoader creates a Loader.
func NewLoader(assembler *tree.Assembler, entities *hierarchystore.Store) *Loader {
	return &Loader{
		tree:     assembler,
		entities: entities,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (l *Loader) assemble(ctx context.Context, path string, want docpath.Kind, depth int) (*tree.Node, error) {
	if err := docpath.Validate(path); err != nil {
		return nil, err
	}
	if k := docpath.KindOf(path); k != want {
		return nil, &docpath.InvalidPathError{Path: path, Reason: fmt.Sprintf("expected %s, got %s", want, k)}
	}
	return l.tree.Assemble(ctx, path, depth)
}

func decodeNode[T any](n *tree.Node) (T, error) {
	var v T
	if err := n.Decode(&v); err != nil {
		return v, &tree.AssemblyError{Path: n.Path(), Depth: n.Kind.Depth(), Err: err}
	}
	return v, nil
}

func decodeChildren[T any](n *tree.Node) ([]T, error) {
	out := make([]T, 0, len(n.Children))
	for _, c := range n.Children {
		v, err := decodeNode[T](c)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// GetRenderableOrganizationDataForPage loads an organization and its series.
func (l *Loader) GetRenderableOrganizationDataForPage(ctx context.Context, path string) (OrganizationPage, error) {
	root, err := l.assemble(ctx, path, docpath.KindOrganization, 1)
	if err != nil {
		return OrganizationPage{}, err
	}
	org, err := decodeNode[models.Organization](root)
	if err != nil {
		return OrganizationPage{}, err
	}
	series, err := decodeChildren[models.Series](root)
	if err != nil {
		return OrganizationPage{}, err
	}
	sort.SliceStable(series, func(i, j int) bool {
		return earlier(series[i].StartDate, series[j].StartDate, series[i].Name, series[j].Name)
	})
	return OrganizationPage{Organization: org, Series: series}, nil
}

// GetRenderableSeriesDataForPage loads a series and its events.
func (l *Loader) GetRenderableSeriesDataForPage(ctx context.Context, path string) (SeriesPage, error) {
	root, err := l.assemble(ctx, path, docpath.KindSeries, 1)
	if err != nil {
		return SeriesPage{}, err
	}
	series, err := decodeNode[models.Series](root)
	if err != nil {
		return SeriesPage{}, err
	}
	if series.OrganizationBrief == nil {
		if series, err = l.entities.GetSeries(ctx, path); err != nil {
			return SeriesPage{}, err
		}
	}
	events, err := decodeChildren[models.Event](root)
	if err != nil {
		return SeriesPage{}, err
	}
	sort.SliceStable(events, func(i, j int) bool {
		return earlier(events[i].StartDate, events[j].StartDate, events[i].Name, events[j].Name)
	})
	return SeriesPage{Series: series, Events: events}, nil
}

// GetRenderableEventDataForPage loads an event and its races.
func (l *Loader) GetRenderableEventDataForPage(ctx context.Context, path string) (EventPage, error) {
	root, err := l.assemble(ctx, path, docpath.KindEvent, 1)
	if err != nil {
		return EventPage{}, err
	}
	event, err := decodeNode[models.Event](root)
	if err != nil {
		return EventPage{}, err
	}
	if event.SeriesBrief == nil {
		if event, err = l.entities.GetEvent(ctx, path); err != nil {
			return EventPage{}, err
		}
	}
	races, err := decodeChildren[models.Race](root)
	if err != nil {
		return EventPage{}, err
	}
	sort.SliceStable(races, func(i, j int) bool {
		return earlier(races[i].StartDate, races[j].StartDate, races[i].Name, races[j].Name)
	})
	return EventPage{Event: event, Races: races}, nil
}

// GetRenderableRaceDataForPage loads a race, its preems and their
// contributions.
func (l *Loader) GetRenderableRaceDataForPage(ctx context.Context, path string) (RacePage, error) {
	root, err := l.assemble(ctx, path, docpath.KindRace, 2)
	if err != nil {
		return RacePage{}, err
	}
	race, err := decodeNode[models.Race](root)
	if err != nil {
		return RacePage{}, err
	}
	if race.EventBrief == nil {
		if race, err = l.entities.GetRace(ctx, path); err != nil {
			return RacePage{}, err
		}
	}
	now := l.now()
	entries := make([]PreemEntry, 0, len(root.Children))
	for _, n := range root.Children {
		p, err := decodeNode[models.Preem](n)
		if err != nil {
			return RacePage{}, err
		}
		contributions, err := publicContributions(n)
		if err != nil {
			return RacePage{}, err
		}
		entries = append(entries, PreemEntry{Preem: p, Expired: p.Expired(now), Contributions: contributions})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return text.Fold(entries[i].Name) < text.Fold(entries[j].Name)
	})
	return RacePage{Race: race, Preems: entries}, nil
}

// GetRenderablePreemDataForPage loads a preem and its contributions.
func (l *Loader) GetRenderablePreemDataForPage(ctx context.Context, path string) (PreemPage, error) {
	root, err := l.assemble(ctx, path, docpath.KindPreem, 1)
	if err != nil {
		return PreemPage{}, err
	}
	p, err := decodeNode[models.Preem](root)
	if err != nil {
		return PreemPage{}, err
	}
	if p.RaceBrief == nil {
		if p, err = l.entities.GetPreem(ctx, path); err != nil {
			return PreemPage{}, err
		}
	}
	contributions, err := publicContributions(root)
	if err != nil {
		return PreemPage{}, err
	}
	return PreemPage{Preem: p, Expired: p.Expired(l.now()), Contributions: contributions}, nil
}

// publicContributions decodes a preem node's contributions oldest first.
// Anonymous contributions lose their contributor, and no contribution
// carries the ids of the accounts that wrote it.
func publicContributions(n *tree.Node) ([]models.Contribution, error) {
	cs, err := decodeChildren[models.Contribution](n)
	if err != nil {
		return nil, err
	}
	for i := range cs {
		if cs[i].IsAnonymous {
			cs[i].Contributor = nil
		}
		cs[i].PreemBrief = nil
		cs[i].Metadata.CreatedBy = ""
		cs[i].Metadata.LastModifiedBy = ""
	}
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Date.Before(cs[j].Date) })
	return cs, nil
}

func earlier(a, b time.Time, nameA, nameB string) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return text.Fold(nameA) < text.Fold(nameB)
}
