// Package service contains application services for engagement mutations,
// activity tier propagation and counter reconciliation.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/DaH-115/ticketeer/internal/auth"
	"github.com/DaH-115/ticketeer/internal/errs"
	"github.com/DaH-115/ticketeer/internal/model"
	"github.com/DaH-115/ticketeer/internal/repository"
)

// Engagement performs owner-gated mutations over reviews, comments and
// likes, each paired atomically with its denormalized counter update.
type Engagement interface {
	// CreateComment writes a comment under a review and returns its id.
	CreateComment(ctx context.Context, principal, reviewID, authorID uuid.UUID, content string) (uuid.UUID, error)
	// UpdateComment overwrites a comment's content, owner only.
	UpdateComment(ctx context.Context, principal, reviewID, commentID uuid.UUID, content string) error
	// DeleteComment removes a comment, owner only.
	DeleteComment(ctx context.Context, principal, reviewID, commentID uuid.UUID) error
	// ListComments returns a review's comments, newest first.
	ListComments(ctx context.Context, reviewID uuid.UUID) ([]model.Comment, error)

	// Like creates the like record and returns the review's new like count.
	Like(ctx context.Context, principal, reviewID uuid.UUID) (int, error)
	// Unlike removes the like record.
	Unlike(ctx context.Context, principal, reviewID uuid.UUID) error
	// LikeStatus reports whether the principal likes the review and the
	// current like count.
	LikeStatus(ctx context.Context, principal, reviewID uuid.UUID) (bool, int, error)

	// GetReview returns a review by id.
	GetReview(ctx context.Context, reviewID uuid.UUID) (*model.Review, error)
	// UpdateReview overwrites a review's content fields, owner only.
	UpdateReview(ctx context.Context, principal, reviewID uuid.UUID, title, content string, rating int) error
	// DeleteReview removes a review, owner only.
	DeleteReview(ctx context.Context, principal, reviewID uuid.UUID) error
}

// ActivityDispatcher queues a tier recompute without the caller awaiting it.
type ActivityDispatcher interface {
	Dispatch(uid uuid.UUID)
}

// EngagementImpl implements Engagement over the repositories.
type EngagementImpl struct {
	repo     repository.EngagementRepository
	profiles repository.ProfileRepository
	activity ActivityDispatcher
	log      *zap.Logger
}

// NewEngagement constructs the engagement service.
func NewEngagement(
	repo repository.EngagementRepository,
	profiles repository.ProfileRepository,
	activity ActivityDispatcher,
	log *zap.Logger,
) *EngagementImpl {
	return &EngagementImpl{repo: repo, profiles: profiles, activity: activity, log: log}
}

// CreateComment validates input and ownership, probes the parent review,
// snapshots the author's display fields and writes the comment plus the
// counter increment atomically. The author lookup is best-effort: a failed
// profile read falls back to defaults and never blocks the comment.
func (s *EngagementImpl) CreateComment(
	ctx context.Context, principal, reviewID, authorID uuid.UUID, content string,
) (uuid.UUID, error) {
	if strings.TrimSpace(content) == "" {
		return uuid.Nil, errs.ErrInvalidArgument
	}
	if err := auth.CheckOwnership(principal, authorID); err != nil {
		return uuid.Nil, err
	}
	if _, err := s.repo.GetReview(ctx, reviewID); err != nil {
		return uuid.Nil, fmt.Errorf("probe review %s: %w", reviewID, err)
	}

	snapshot := s.authorSnapshot(ctx, authorID)

	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	comment := &model.Comment{
		ID:            id,
		ReviewID:      reviewID,
		AuthorID:      authorID,
		Content:       content,
		DisplayName:   snapshot.DisplayName,
		PhotoKey:      snapshot.PhotoKey,
		ActivityLevel: snapshot.ActivityLevel,
	}
	if err := s.repo.InsertComment(ctx, comment); err != nil {
		return uuid.Nil, fmt.Errorf("insert comment: %w", err)
	}

	s.activity.Dispatch(authorID)
	return id, nil
}

// UpdateComment re-verifies ownership against the stored author before writing.
func (s *EngagementImpl) UpdateComment(
	ctx context.Context, principal, reviewID, commentID uuid.UUID, content string,
) error {
	if strings.TrimSpace(content) == "" {
		return errs.ErrInvalidArgument
	}
	stored, err := s.repo.GetComment(ctx, reviewID, commentID)
	if err != nil {
		return fmt.Errorf("probe comment %s: %w", commentID, err)
	}
	if err := auth.CheckOwnership(principal, stored.AuthorID); err != nil {
		return err
	}
	return s.repo.UpdateComment(ctx, reviewID, commentID, content)
}

// DeleteComment removes the comment and its counter contribution, owner only.
func (s *EngagementImpl) DeleteComment(ctx context.Context, principal, reviewID, commentID uuid.UUID) error {
	stored, err := s.repo.GetComment(ctx, reviewID, commentID)
	if err != nil {
		return fmt.Errorf("probe comment %s: %w", commentID, err)
	}
	if err := auth.CheckOwnership(principal, stored.AuthorID); err != nil {
		return err
	}
	return s.repo.DeleteComment(ctx, reviewID, commentID)
}

// ListComments returns a review's comments.
func (s *EngagementImpl) ListComments(ctx context.Context, reviewID uuid.UUID) ([]model.Comment, error) {
	return s.repo.ListComments(ctx, reviewID)
}

// Like probes the review, then creates the like record plus both counter
// increments atomically. A duplicate pair is rejected with ErrConflict
// rather than silently ignored: the client already applied the optimistic
// increment and must learn it was wrong.
func (s *EngagementImpl) Like(ctx context.Context, principal, reviewID uuid.UUID) (int, error) {
	if _, err := s.repo.GetReview(ctx, reviewID); err != nil {
		return 0, fmt.Errorf("probe review %s: %w", reviewID, err)
	}
	exists, err := s.repo.LikeExists(ctx, reviewID, principal)
	if err != nil {
		return 0, fmt.Errorf("probe like: %w", err)
	}
	if exists {
		return 0, errs.ErrConflict
	}
	likeCount, err := s.repo.InsertLike(ctx, reviewID, principal)
	if err != nil {
		return 0, fmt.Errorf("insert like: %w", err)
	}
	s.activity.Dispatch(principal)
	return likeCount, nil
}

// Unlike removes the like record plus both counter decrements atomically.
func (s *EngagementImpl) Unlike(ctx context.Context, principal, reviewID uuid.UUID) error {
	if _, err := s.repo.GetReview(ctx, reviewID); err != nil {
		return fmt.Errorf("probe review %s: %w", reviewID, err)
	}
	exists, err := s.repo.LikeExists(ctx, reviewID, principal)
	if err != nil {
		return fmt.Errorf("probe like: %w", err)
	}
	if !exists {
		return errs.ErrConflict
	}
	if err := s.repo.DeleteLike(ctx, reviewID, principal); err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	s.activity.Dispatch(principal)
	return nil
}

// LikeStatus reports the principal's like state and the current count.
func (s *EngagementImpl) LikeStatus(ctx context.Context, principal, reviewID uuid.UUID) (bool, int, error) {
	review, err := s.repo.GetReview(ctx, reviewID)
	if err != nil {
		return false, 0, fmt.Errorf("probe review %s: %w", reviewID, err)
	}
	liked, err := s.repo.LikeExists(ctx, reviewID, principal)
	if err != nil {
		return false, 0, fmt.Errorf("probe like: %w", err)
	}
	return liked, review.LikeCount, nil
}

// GetReview returns a review by id.
func (s *EngagementImpl) GetReview(ctx context.Context, reviewID uuid.UUID) (*model.Review, error) {
	return s.repo.GetReview(ctx, reviewID)
}

// UpdateReview overwrites content fields only; ownership is checked
// against the stored author, never a client-supplied claim.
func (s *EngagementImpl) UpdateReview(
	ctx context.Context, principal, reviewID uuid.UUID, title, content string, rating int,
) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return errs.ErrInvalidArgument
	}
	if rating < 0 || rating > 10 {
		return errs.ErrInvalidArgument
	}
	stored, err := s.repo.GetReview(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("probe review %s: %w", reviewID, err)
	}
	if err := auth.CheckOwnership(principal, stored.AuthorID); err != nil {
		return err
	}
	return s.repo.UpdateReview(ctx, reviewID, title, content, rating)
}

// DeleteReview removes the review; the author's engagement history changed,
// so a tier recompute is queued.
func (s *EngagementImpl) DeleteReview(ctx context.Context, principal, reviewID uuid.UUID) error {
	stored, err := s.repo.GetReview(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("probe review %s: %w", reviewID, err)
	}
	if err := auth.CheckOwnership(principal, stored.AuthorID); err != nil {
		return err
	}
	if err := s.repo.DeleteReview(ctx, reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	s.activity.Dispatch(stored.AuthorID)
	return nil
}

// authorSnapshot reads the author's display fields just before the write.
func (s *EngagementImpl) authorSnapshot(ctx context.Context, uid uuid.UUID) model.AuthorSnapshot {
	prof, err := s.profiles.Get(ctx, uid)
	if err != nil {
		s.log.Warn("author profile lookup failed, using defaults",
			zap.String("uid", uid.String()),
			zap.Error(err),
		)
		return model.DefaultAuthorSnapshot()
	}
	snapshot := model.AuthorSnapshot{
		DisplayName:   prof.DisplayName,
		PhotoKey:      prof.PhotoKey,
		ActivityLevel: prof.ActivityLevel,
	}
	if snapshot.DisplayName == "" {
		snapshot.DisplayName = model.DefaultAuthorSnapshot().DisplayName
	}
	if snapshot.ActivityLevel == "" {
		snapshot.ActivityLevel = model.LevelNewbie
	}
	return snapshot
}
