package briefs

import (
	"context"
	"fmt"

	documentstore "github.com/dalemusser/preemhub/internal/app/store/documents"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/preemhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
)

// Chain holds freshly built briefs for a document and each of its
// ancestors. Levels below the resolved document are nil.
type Chain struct {
	Organization *models.OrganizationBrief
	Series       *models.SeriesBrief
	Event        *models.EventBrief
	Race         *models.RaceBrief
	Preem        *models.PreemBrief
}

// ResolveChain reads path and every ancestor of it from the live store and
// builds their briefs top-down. path must address an Organization, Series,
// Event, Race or Preem.
func ResolveChain(ctx context.Context, store documentstore.Store, path string) (Chain, error) {
	kind := docpath.KindOf(path)
	if Key(kind) == "" {
		if err := docpath.Validate(path); err != nil {
			return Chain{}, err
		}
		return Chain{}, &docpath.InvalidPathError{Path: path, Reason: kind.String() + " has no brief"}
	}

	ancestors, err := docpath.Ancestors(path)
	if err != nil {
		return Chain{}, err
	}

	var (
		c      Chain
		parent any
	)
	for i, p := range append(ancestors, path) {
		doc, err := store.Get(ctx, p)
		if err != nil {
			return Chain{}, err
		}
		b, err := buildSelf(docpath.KindAtDepth(i+1), doc, parent)
		if err != nil {
			return Chain{}, err
		}
		c.set(b)
		parent = b
	}
	return c, nil
}

func (c *Chain) set(b any) {
	switch v := b.(type) {
	case *models.OrganizationBrief:
		c.Organization = v
	case *models.SeriesBrief:
		c.Series = v
	case *models.EventBrief:
		c.Event = v
	case *models.RaceBrief:
		c.Race = v
	case *models.PreemBrief:
		c.Preem = v
	}
}

// buildSelf decodes doc as kind and builds its brief under parent (the
// parent's brief pointer, or nil to reuse the stored one). Contributions
// have no brief and yield nil.
func buildSelf(kind docpath.Kind, doc documentstore.Document, parent any) (any, error) {
	switch kind {
	case docpath.KindOrganization:
		var o models.Organization
		if err := doc.Decode(&o); err != nil {
			return nil, err
		}
		return BuildOrganizationBrief(o), nil
	case docpath.KindSeries:
		var s models.Series
		if err := doc.Decode(&s); err != nil {
			return nil, err
		}
		p, _ := parent.(*models.OrganizationBrief)
		return BuildSeriesBrief(s, p), nil
	case docpath.KindEvent:
		var e models.Event
		if err := doc.Decode(&e); err != nil {
			return nil, err
		}
		p, _ := parent.(*models.SeriesBrief)
		return BuildEventBrief(e, p), nil
	case docpath.KindRace:
		var r models.Race
		if err := doc.Decode(&r); err != nil {
			return nil, err
		}
		p, _ := parent.(*models.EventBrief)
		return BuildRaceBrief(r, p), nil
	case docpath.KindPreem:
		var pr models.Preem
		if err := doc.Decode(&pr); err != nil {
			return nil, err
		}
		p, _ := parent.(*models.RaceBrief)
		return BuildPreemBrief(pr, p), nil
	case docpath.KindContribution:
		return nil, nil
	}
	return nil, fmt.Errorf("no brief for %s", doc.Path)
}

// newBrief returns a zero brief of kind k for decoding into.
func newBrief(k docpath.Kind) any {
	switch k {
	case docpath.KindOrganization:
		return &models.OrganizationBrief{}
	case docpath.KindSeries:
		return &models.SeriesBrief{}
	case docpath.KindEvent:
		return &models.EventBrief{}
	case docpath.KindRace:
		return &models.RaceBrief{}
	case docpath.KindPreem:
		return &models.PreemBrief{}
	}
	return nil
}

// storedBriefMatches reports whether doc already embeds want under key.
func storedBriefMatches(doc documentstore.Document, key string, kind docpath.Kind, want any) bool {
	raw, ok := doc.Fields[key]
	if !ok || raw == nil {
		return false
	}
	enc, err := bson.Marshal(raw)
	if err != nil {
		return false
	}
	got := newBrief(kind)
	if got == nil || bson.Unmarshal(enc, got) != nil {
		return false
	}
	a, errA := bson.Marshal(got)
	b, errB := bson.Marshal(want)
	return errA == nil && errB == nil && string(a) == string(b)
}
