package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/DaH-115/ticketeer/internal/model"
)

// ProfileRepository provides access to user profiles and to the
// authoritative recounts behind their derived attributes.
type ProfileRepository interface {
	// Get returns a profile by uid.
	Get(ctx context.Context, uid uuid.UUID) (*model.UserProfile, error)

	// CountReviewsByAuthor recounts reviews authored by uid from the
	// authoritative set.
	CountReviewsByAuthor(ctx context.Context, uid uuid.UUID) (int, error)

	// CountLikesByUser recounts like records created by uid from the
	// authoritative set.
	CountLikesByUser(ctx context.Context, uid uuid.UUID) (int, error)

	// SetActivityLevel persists a recomputed tier on the profile.
	SetActivityLevel(ctx context.Context, uid uuid.UUID, level model.ActivityLevel) error

	// FanOutActivityLevel overwrites the denormalized tier on every
	// comment authored by uid, returning the number of copies touched.
	FanOutActivityLevel(ctx context.Context, uid uuid.UUID, level model.ActivityLevel) (int64, error)

	// OverwriteLikedCount unconditionally sets liked_tickets_count to the
	// provided authoritative value. Last writer wins.
	OverwriteLikedCount(ctx context.Context, uid uuid.UUID, count int) error

	// OverwriteMyTicketsCount unconditionally sets my_tickets_count to the
	// provided authoritative value. Last writer wins.
	OverwriteMyTicketsCount(ctx context.Context, uid uuid.UUID, count int) error
}
