package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/DaH-115/ticketeer/internal/model"
	"github.com/DaH-115/ticketeer/internal/repository"
)

// ActivityPropagator recomputes a user's activity tier from authoritative
// counts and fans the new tier out to denormalized comment copies.
//
// Dispatch runs the recompute in a detached goroutine with no deadline and
// no cancellation: the triggering request returns immediately, and a crash
// mid-fan-out leaves a partially-updated set that the next recompute fixes.
type ActivityPropagator struct {
	profiles repository.ProfileRepository
	log      *zap.Logger
	wg       sync.WaitGroup
}

// NewActivityPropagator constructs the propagator.
func NewActivityPropagator(profiles repository.ProfileRepository, log *zap.Logger) *ActivityPropagator {
	return &ActivityPropagator{profiles: profiles, log: log}
}

// Dispatch queues a recompute for uid, fire-and-forget. Failures are
// logged, never raised: the primary mutation already succeeded.
func (p *ActivityPropagator) Dispatch(uid uuid.UUID) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				p.log.Error("activity recompute panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("uid", uid.String()),
				)
			}
		}()
		if err := p.Recompute(context.Background(), uid); err != nil {
			p.log.Warn("activity recompute failed",
				zap.String("uid", uid.String()),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until all dispatched recomputes finish. Tests and shutdown only.
func (p *ActivityPropagator) Wait() { p.wg.Wait() }

// Recompute recounts the user's engagement, maps it through the tier step
// function, and on change persists the tier and fans it out to every
// comment copy. The fan-out is best-effort and only logged on failure.
func (p *ActivityPropagator) Recompute(ctx context.Context, uid uuid.UUID) error {
	myTickets, err := p.profiles.CountReviewsByAuthor(ctx, uid)
	if err != nil {
		return fmt.Errorf("count reviews: %w", err)
	}
	likedTickets, err := p.profiles.CountLikesByUser(ctx, uid)
	if err != nil {
		return fmt.Errorf("count likes: %w", err)
	}
	level := model.LevelFor(myTickets, likedTickets)

	prof, err := p.profiles.Get(ctx, uid)
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	if prof.ActivityLevel == level {
		return nil
	}

	if err := p.profiles.SetActivityLevel(ctx, uid, level); err != nil {
		return fmt.Errorf("set activity level: %w", err)
	}

	updated, err := p.profiles.FanOutActivityLevel(ctx, uid, level)
	if err != nil {
		p.log.Warn("activity fan-out failed",
			zap.String("uid", uid.String()),
			zap.String("level", string(level)),
			zap.Error(err),
		)
		return nil
	}
	p.log.Info("activity level propagated",
		zap.String("uid", uid.String()),
		zap.String("from", string(prof.ActivityLevel)),
		zap.String("to", string(level)),
		zap.Int64("comments_updated", updated),
	)
	return nil
}
