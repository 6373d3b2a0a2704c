package metricsstore_test

import (
	"testing"

	documentstore "github.com/dalemusser/preemhub/internal/app/store/documents"
	metricsstore "github.com/dalemusser/preemhub/internal/app/store/metrics"
	"github.com/dalemusser/preemhub/internal/domain/models"
	"github.com/dalemusser/preemhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestFetchDashboardCounts_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	counts := metricsstore.FetchDashboardCounts(ctx, db)
	if counts != (metricsstore.Counts{}) {
		t.Errorf("expected zero counts, got %+v", counts)
	}
}

func TestFetchDashboardCounts_WithData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := documentstore.NewMongo(db)
	fixtures := testutil.NewFixtures(t, store)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	one := fixtures.SeedHierarchy(ctx, "one")
	fixtures.SeedHierarchy(ctx, "two")
	fixtures.CreateContribution(ctx, one.Preem, "c1", 10)
	fixtures.CreateContribution(ctx, one.Preem, "c2", 15)
	if err := store.Set(ctx, one.Preem, bson.M{"status": models.StatusAwarded}); err != nil {
		t.Fatalf("set status: %v", err)
	}

	counts := metricsstore.FetchDashboardCounts(ctx, db)

	want := metricsstore.Counts{
		Organizations: 2,
		Series:        2,
		Events:        2,
		Races:         2,
		Preems:        2,
		AwardedPreems: 1,
		Contributions: 2,
	}
	if counts != want {
		t.Errorf("counts: got %+v, want %+v", counts, want)
	}
}
