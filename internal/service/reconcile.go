package service

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/DaH-115/ticketeer/internal/model"
	"github.com/DaH-115/ticketeer/internal/repository"
)

// Reconciler repairs derived per-user counters by recounting the
// authoritative records and overwriting the cached value.
type Reconciler interface {
	// SyncLikedCount overwrites liked_tickets_count with the recount of
	// the user's like records and reports the drift.
	SyncLikedCount(ctx context.Context, uid uuid.UUID) (model.CountSync, error)
	// SyncMyTicketsCount overwrites my_tickets_count with the recount of
	// the user's authored reviews and reports the drift.
	SyncMyTicketsCount(ctx context.Context, uid uuid.UUID) (model.CountSync, error)
}

// ReconcilerImpl implements Reconciler. Each sync is idempotent and safe
// to run concurrently with itself: the write is an unconditional overwrite
// of an authoritative value, so the last writer wins and repeated runs
// converge to zero difference.
type ReconcilerImpl struct {
	profiles repository.ProfileRepository
	log      *zap.Logger
}

// NewReconciler constructs the reconciler.
func NewReconciler(profiles repository.ProfileRepository, log *zap.Logger) *ReconcilerImpl {
	return &ReconcilerImpl{profiles: profiles, log: log}
}

// SyncLikedCount repairs the liked-tickets counter.
func (r *ReconcilerImpl) SyncLikedCount(ctx context.Context, uid uuid.UUID) (model.CountSync, error) {
	return r.sync(ctx, uid, "liked_tickets_count",
		r.profiles.CountLikesByUser,
		r.profiles.OverwriteLikedCount,
		func(p *model.UserProfile) int { return p.LikedTicketsCount },
	)
}

// SyncMyTicketsCount repairs the authored-tickets counter.
func (r *ReconcilerImpl) SyncMyTicketsCount(ctx context.Context, uid uuid.UUID) (model.CountSync, error) {
	return r.sync(ctx, uid, "my_tickets_count",
		r.profiles.CountReviewsByAuthor,
		r.profiles.OverwriteMyTicketsCount,
		func(p *model.UserProfile) int { return p.MyTicketsCount },
	)
}

func (r *ReconcilerImpl) sync(
	ctx context.Context,
	uid uuid.UUID,
	counter string,
	recount func(context.Context, uuid.UUID) (int, error),
	overwrite func(context.Context, uuid.UUID, int) error,
	cached func(*model.UserProfile) int,
) (model.CountSync, error) {
	prof, err := r.profiles.Get(ctx, uid)
	if err != nil {
		return model.CountSync{}, fmt.Errorf("get profile: %w", err)
	}
	before := cached(prof)

	after, err := recount(ctx, uid)
	if err != nil {
		return model.CountSync{}, fmt.Errorf("recount %s: %w", counter, err)
	}

	// Overwrite even when unchanged: the write is the repair guarantee.
	if err := overwrite(ctx, uid, after); err != nil {
		return model.CountSync{}, fmt.Errorf("overwrite %s: %w", counter, err)
	}

	result := model.CountSync{Before: before, After: after, Difference: after - before}
	if result.Difference != 0 {
		r.log.Info("counter drift repaired",
			zap.String("uid", uid.String()),
			zap.String("counter", counter),
			zap.Int("before", before),
			zap.Int("after", after),
		)
	}
	return result, nil
}
