// Package ledger owns a preem's prize pool and status.
//
// The prize pool is always recomputed from the full contribution set, so a
// retried or duplicated write can never be counted twice. Status only moves
// forward: Open → Minimum Met (when a minimum threshold is set and reached)
// and * → Awarded (by an explicit Award only; a passed time limit changes
// nothing).
package ledger

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
	"time"

	documentstore "github.com/dalemusser/preemhub/internal/app/store/documents"
	"github.com/dalemusser/preemhub/internal/app/system/briefs"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/preemhub/internal/app/system/metrics"
	"github.com/dalemusser/preemhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

var (
	// ErrInvariantViolation rejects an operation a preem's state forbids,
	// such as contributing to an awarded preem.
	ErrInvariantViolation = errors.New("preem invariant violation")

	// ErrInvalidContribution rejects malformed contribution input.
	ErrInvalidContribution = errors.New("invalid contribution")
)

// Ledger recomputes and transitions preems stored in a document store.
type Ledger struct {
	store documentstore.Store
	log   *zap.Logger
	now   func() time.Time

	locks [lockStripes]sync.Mutex
}

// lockStripes bounds the per-preem locks; preems sharing a stripe serialize.
const lockStripes = 64

// statusAttempts bounds the compare-and-set retries of a status write.
const statusAttempts = 3

// New creates a Ledger.
func New(store documentstore.Store, logger *zap.Logger) *Ledger {
	return &Ledger{store: store, log: logger, now: func() time.Time { return time.Now().UTC() }}
}

// RecomputeResult describes a recompute.
type RecomputeResult struct {
	PrizePool      float64 `json:"prizePool"`
	Contributions  int     `json:"contributions"`
	Status         string  `json:"status"`
	PreviousStatus string  `json:"previousStatus"`
}

// Transitioned reports whether the recompute changed the status.
func (r RecomputeResult) Transitioned() bool { return r.Status != r.PreviousStatus }

// AwardResult describes an award. Awarding an already awarded preem is a
// no-op reported through AlreadyAwarded.
type AwardResult struct {
	Status         string  `json:"status"`
	PrizePool      float64 `json:"prizePool"`
	AlreadyAwarded bool    `json:"alreadyAwarded"`
}

// ContributionInput is a new contribution. ID is an optional idempotency
// key: a second Contribute with the same ID by the same actor is treated as
// a retry; by anyone else it fails with documentstore.ErrDuplicate.
// Anonymous contributions are stored without the contributor brief.
type ContributionInput struct {
	ID          string
	Amount      float64
	Message     string
	IsAnonymous bool
	Contributor *models.UserBrief
	Date        time.Time
	ActorID     string
}

// ContributeResult describes a contribute call.
type ContributeResult struct {
	Contribution models.Contribution `json:"contribution"`
	Recompute    RecomputeResult     `json:"recompute"`
	Duplicate    bool                `json:"duplicate"`
}

func (l *Ledger) lock(path string) func() {
	mu := &l.locks[stripe(path)]
	mu.Lock()
	return mu.Unlock
}

func stripe(path string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(path))
	return h.Sum32() % lockStripes
}

// Recompute sums every contribution under preemPath in path order, stores
// the result as the preem's prize pool and advances the status when the
// minimum threshold is reached.
func (l *Ledger) Recompute(ctx context.Context, preemPath string) (RecomputeResult, error) {
	if err := requirePreem(preemPath); err != nil {
		return RecomputeResult{}, err
	}
	defer l.lock(preemPath)()

	res, err := l.recompute(ctx, preemPath)
	l.count("recompute", err)
	return res, err
}

func (l *Ledger) recompute(ctx context.Context, preemPath string) (RecomputeResult, error) {
	preem, err := l.loadPreem(ctx, preemPath)
	if err != nil {
		return RecomputeResult{}, err
	}

	docs, err := l.store.ListChildren(ctx, preemPath, docpath.Contributions)
	if err != nil {
		return RecomputeResult{}, fmt.Errorf("list contributions of %s: %w", preemPath, err)
	}
	var sum float64
	for _, d := range docs {
		var c models.Contribution
		if err := d.Decode(&c); err != nil {
			return RecomputeResult{}, err
		}
		sum += c.Amount
	}
	pool := roundCents(sum)

	// Another instance may move the status between our read and write, so
	// the write only lands while the status is still the one we read.
	for attempt := 1; ; attempt++ {
		prev := statusOf(preem)
		next := nextStatus(prev, pool, preem.MinimumThreshold)
		res := RecomputeResult{PrizePool: pool, Contributions: len(docs), Status: next, PreviousStatus: prev}

		if pool == preem.PrizePool && next == preem.Status {
			return res, nil
		}
		update := bson.M{"prize_pool": pool, "metadata.last_modified": l.now()}
		if next != preem.Status {
			update["status"] = next
		}
		applied, err := l.setIfStatus(ctx, preemPath, preem.Status, update)
		if err != nil {
			return RecomputeResult{}, fmt.Errorf("store prize pool of %s: %w", preemPath, err)
		}
		if applied {
			if res.Transitioned() {
				metrics.StatusTransitions.WithLabelValues(next).Inc()
				l.log.Info("preem status changed",
					zap.String("path", preemPath),
					zap.String("from", prev),
					zap.String("to", next),
					zap.Float64("prize_pool", pool))
			}
			return res, nil
		}
		if attempt == statusAttempts {
			return RecomputeResult{}, fmt.Errorf("%w: status of %s keeps changing", ErrInvariantViolation, preemPath)
		}
		l.log.Info("preem status changed concurrently, retrying",
			zap.String("path", preemPath),
			zap.String("read", prev),
			zap.Int("attempt", attempt))
		if preem, err = l.loadPreem(ctx, preemPath); err != nil {
			return RecomputeResult{}, err
		}
	}
}

// setIfStatus writes update while the stored status is still status. An
// empty status was read from either a missing or an empty field.
func (l *Ledger) setIfStatus(ctx context.Context, path, status string, update bson.M) (bool, error) {
	if status != "" {
		return l.store.SetIf(ctx, path, bson.M{"status": status}, update)
	}
	applied, err := l.store.SetIf(ctx, path, bson.M{"status": ""}, update)
	if err != nil || applied {
		return applied, err
	}
	return l.store.SetIf(ctx, path, bson.M{"status": nil}, update)
}

// Contribute appends a contribution to the preem at preemPath and
// recomputes the pool. Zero amounts are rejected; negative amounts are
// corrections. Contributing to an awarded preem is an invariant violation.
func (l *Ledger) Contribute(ctx context.Context, preemPath string, in ContributionInput) (ContributeResult, error) {
	if err := requirePreem(preemPath); err != nil {
		return ContributeResult{}, err
	}
	if in.Amount == 0 || math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		return ContributeResult{}, fmt.Errorf("%w: amount must be a non-zero number", ErrInvalidContribution)
	}
	defer l.lock(preemPath)()

	res, err := l.contribute(ctx, preemPath, in)
	l.count("contribute", err)
	return res, err
}

func (l *Ledger) contribute(ctx context.Context, preemPath string, in ContributionInput) (ContributeResult, error) {
	preem, err := l.loadPreem(ctx, preemPath)
	if err != nil {
		return ContributeResult{}, err
	}
	if statusOf(preem) == models.StatusAwarded {
		return ContributeResult{}, fmt.Errorf("%w: %s is already awarded", ErrInvariantViolation, preemPath)
	}

	contributor := in.Contributor
	if in.IsAnonymous {
		contributor = nil
	}
	now := l.now()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	c := models.Contribution{
		ID:          in.ID,
		Amount:      roundCents(in.Amount),
		Date:        date,
		Message:     in.Message,
		IsAnonymous: in.IsAnonymous,
		Contributor: contributor,
		PreemBrief:  briefs.BuildPreemBrief(preem, nil),
		Metadata: models.Metadata{
			Created:        now,
			LastModified:   now,
			CreatedBy:      in.ActorID,
			LastModifiedBy: in.ActorID,
		},
	}
	fields, err := documentstore.ToFields(c)
	if err != nil {
		return ContributeResult{}, err
	}
	if in.ID == "" {
		delete(fields, documentstore.FieldID)
	}
	delete(fields, documentstore.FieldPath)

	var out ContributeResult
	doc, err := l.store.Create(ctx, preemPath, docpath.Contributions, fields)
	switch {
	case errors.Is(err, documentstore.ErrDuplicate):
		out.Duplicate = true
		path, perr := docpath.Child(preemPath, docpath.Contributions, in.ID)
		if perr != nil {
			return ContributeResult{}, perr
		}
		if doc, err = l.store.Get(ctx, path); err != nil {
			return ContributeResult{}, err
		}
		var stored models.Contribution
		if err := doc.Decode(&stored); err != nil {
			return ContributeResult{}, err
		}
		if stored.Metadata.CreatedBy != in.ActorID {
			l.log.Warn("contribution id reused by another actor",
				zap.String("path", path),
				zap.String("actor", in.ActorID))
			return ContributeResult{}, fmt.Errorf("%w: contribution %s", documentstore.ErrDuplicate, in.ID)
		}
		l.log.Info("duplicate contribution ignored", zap.String("path", path))
	case err != nil:
		return ContributeResult{}, fmt.Errorf("create contribution under %s: %w", preemPath, err)
	}
	if err := doc.Decode(&out.Contribution); err != nil {
		return ContributeResult{}, err
	}

	out.Recompute, err = l.recompute(ctx, preemPath)
	if err != nil {
		return out, err
	}
	return out, nil
}

// Award marks the preem awarded after a final recompute. Re-awarding is a
// no-op.
func (l *Ledger) Award(ctx context.Context, preemPath, actorID string) (AwardResult, error) {
	if err := requirePreem(preemPath); err != nil {
		return AwardResult{}, err
	}
	defer l.lock(preemPath)()

	res, err := l.award(ctx, preemPath, actorID)
	l.count("award", err)
	return res, err
}

func (l *Ledger) award(ctx context.Context, preemPath, actorID string) (AwardResult, error) {
	preem, err := l.loadPreem(ctx, preemPath)
	if err != nil {
		return AwardResult{}, err
	}
	if statusOf(preem) == models.StatusAwarded {
		return AwardResult{Status: models.StatusAwarded, PrizePool: preem.PrizePool, AlreadyAwarded: true}, nil
	}

	rec, err := l.recompute(ctx, preemPath)
	if err != nil {
		return AwardResult{}, err
	}
	update := bson.M{
		"status":                    models.StatusAwarded,
		"metadata.last_modified":    l.now(),
		"metadata.last_modified_by": actorID,
	}
	if err := l.store.Set(ctx, preemPath, update); err != nil {
		return AwardResult{}, fmt.Errorf("award %s: %w", preemPath, err)
	}
	metrics.StatusTransitions.WithLabelValues(models.StatusAwarded).Inc()
	l.log.Info("preem awarded",
		zap.String("path", preemPath),
		zap.String("from", rec.Status),
		zap.Float64("prize_pool", rec.PrizePool),
		zap.String("by", actorID))
	return AwardResult{Status: models.StatusAwarded, PrizePool: rec.PrizePool}, nil
}

func (l *Ledger) loadPreem(ctx context.Context, path string) (models.Preem, error) {
	doc, err := l.store.Get(ctx, path)
	if err != nil {
		return models.Preem{}, err
	}
	var p models.Preem
	if err := doc.Decode(&p); err != nil {
		return models.Preem{}, err
	}
	return p, nil
}

func (l *Ledger) count(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.LedgerOps.WithLabelValues(op, result).Inc()
}

func requirePreem(path string) error {
	if err := docpath.Validate(path); err != nil {
		return err
	}
	if k := docpath.KindOf(path); k != docpath.KindPreem {
		return &docpath.InvalidPathError{Path: path, Reason: "expected a preem, got " + k.String()}
	}
	return nil
}

// statusOf treats a missing status as Open.
func statusOf(p models.Preem) string {
	if p.Status == "" {
		return models.StatusOpen
	}
	return p.Status
}

// nextStatus applies the automatic transition. It never moves backwards.
func nextStatus(current string, pool float64, threshold *float64) string {
	if current == models.StatusOpen && threshold != nil && pool >= *threshold {
		return models.StatusMinimumMet
	}
	return current
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
