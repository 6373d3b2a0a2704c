package metricsstore

import (
	"context"

	documentstore "github.com/dalemusser/preemhub/internal/app/store/documents"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/preemhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of totals shown on the admin dashboard.
type Counts struct {
	Organizations int64 `json:"organizations"`
	Series        int64 `json:"series"`
	Events        int64 `json:"events"`
	Races         int64 `json:"races"`
	Preems        int64 `json:"preems"`
	AwardedPreems int64 `json:"awardedPreems"`
	Contributions int64 `json:"contributions"`
}

// FetchDashboardCounts returns hierarchy-wide totals.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchDashboardCounts(ctx context.Context, db *mongo.Database) Counts {
	c := db.Collection(documentstore.CollectionName)
	count := func(filter bson.M) int64 {
		n, err := c.CountDocuments(ctx, filter)
		if err != nil {
			return 0
		}
		return n
	}

	return Counts{
		Organizations: count(bson.M{"_collection": docpath.Organizations}),
		Series:        count(bson.M{"_collection": docpath.Series}),
		Events:        count(bson.M{"_collection": docpath.Events}),
		Races:         count(bson.M{"_collection": docpath.Races}),
		Preems:        count(bson.M{"_collection": docpath.Preems}),
		AwardedPreems: count(bson.M{"_collection": docpath.Preems, "status": models.StatusAwarded}),
		Contributions: count(bson.M{"_collection": docpath.Contributions}),
	}
}
