// Package repository declares storage interfaces consumed by services.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/DaH-115/ticketeer/internal/model"
)

// EngagementRepository performs reads and counter-bearing atomic writes
// over reviews, comments and like records. Every method that touches a
// denormalized counter runs its reads and writes inside one store
// transaction; the implementation retries the transaction body on
// write-conflict.
type EngagementRepository interface {
	// GetReview returns a review by id.
	GetReview(ctx context.Context, id uuid.UUID) (*model.Review, error)

	// UpdateReview overwrites content fields and stamps updated_at.
	UpdateReview(ctx context.Context, id uuid.UUID, title, content string, rating int) error

	// DeleteReview removes the review and its dependent records.
	DeleteReview(ctx context.Context, id uuid.UUID) error

	// InsertComment writes the comment and increments the parent review's
	// comments count atomically. Callers verify the parent exists first;
	// a parent deleted in between fails the transaction outright, so
	// GetReview stays the sole source of ErrNotFound on this path.
	InsertComment(ctx context.Context, c *model.Comment) error

	// GetComment returns a comment scoped to its parent review.
	GetComment(ctx context.Context, reviewID, commentID uuid.UUID) (*model.Comment, error)

	// UpdateComment overwrites the content and stamps updated_at.
	UpdateComment(ctx context.Context, reviewID, commentID uuid.UUID, content string) error

	// DeleteComment removes the comment and decrements the parent review's
	// comments count atomically.
	DeleteComment(ctx context.Context, reviewID, commentID uuid.UUID) error

	// ListComments returns all comments of a review, newest first.
	ListComments(ctx context.Context, reviewID uuid.UUID) ([]model.Comment, error)

	// LikeExists reports whether a like record exists for (reviewID, uid).
	LikeExists(ctx context.Context, reviewID, uid uuid.UUID) (bool, error)

	// InsertLike creates the like record and increments both derived
	// counters atomically, returning the review's new like count.
	// A duplicate pair yields ErrConflict.
	InsertLike(ctx context.Context, reviewID, uid uuid.UUID) (int, error)

	// DeleteLike removes the like record and decrements both derived
	// counters atomically. A missing pair yields ErrConflict.
	DeleteLike(ctx context.Context, reviewID, uid uuid.UUID) error
}
