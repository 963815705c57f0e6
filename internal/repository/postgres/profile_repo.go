package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/DaH-115/ticketeer/internal/errs"
	"github.com/DaH-115/ticketeer/internal/model"
)

// ProfileRepo implements ProfileRepository using PostgreSQL.
type ProfileRepo struct{ db *DB }

// NewProfileRepo constructs a profile repository.
func NewProfileRepo(db *DB) *ProfileRepo { return &ProfileRepo{db: db} }

// Get returns a profile by uid.
func (r *ProfileRepo) Get(ctx context.Context, uid uuid.UUID) (*model.UserProfile, error) {
	const q = `
SELECT uid, display_name, biography, provider, photo_key, activity_level,
my_tickets_count, liked_tickets_count, created_at, updated_at
FROM user_profiles WHERE uid=$1`
	var p model.UserProfile
	var level string
	err := r.db.Pool.QueryRow(ctx, q, uid).Scan(
		&p.UID, &p.DisplayName, &p.Biography, &p.Provider, &p.PhotoKey, &level,
		&p.MyTicketsCount, &p.LikedTicketsCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	p.ActivityLevel = model.ActivityLevel(level)
	return &p, nil
}

// CountReviewsByAuthor recounts reviews authored by uid.
func (r *ProfileRepo) CountReviewsByAuthor(ctx context.Context, uid uuid.UUID) (int, error) {
	const q = `SELECT COUNT(*) FROM reviews WHERE author_id=$1`
	var n int
	if err := r.db.Pool.QueryRow(ctx, q, uid).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CountLikesByUser recounts like records created by uid.
func (r *ProfileRepo) CountLikesByUser(ctx context.Context, uid uuid.UUID) (int, error) {
	const q = `SELECT COUNT(*) FROM like_records WHERE uid=$1`
	var n int
	if err := r.db.Pool.QueryRow(ctx, q, uid).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// SetActivityLevel persists a recomputed tier on the profile.
func (r *ProfileRepo) SetActivityLevel(ctx context.Context, uid uuid.UUID, level model.ActivityLevel) error {
	const q = `UPDATE user_profiles SET activity_level=$2, updated_at=now() WHERE uid=$1`
	tag, err := r.db.Pool.Exec(ctx, q, uid, string(level))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// FanOutActivityLevel overwrites the denormalized tier on every comment
// authored by uid. Not transactional with the profile write; partial
// application is accepted and converges on the next recompute.
func (r *ProfileRepo) FanOutActivityLevel(ctx context.Context, uid uuid.UUID, level model.ActivityLevel) (int64, error) {
	const q = `UPDATE comments SET activity_level=$2 WHERE author_id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, uid, string(level))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// OverwriteLikedCount sets liked_tickets_count to the authoritative value.
// Single-row overwrite of an absolute value; no transaction needed,
// last writer wins.
func (r *ProfileRepo) OverwriteLikedCount(ctx context.Context, uid uuid.UUID, count int) error {
	const q = `UPDATE user_profiles SET liked_tickets_count=$2, updated_at=now() WHERE uid=$1`
	tag, err := r.db.Pool.Exec(ctx, q, uid, count)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// OverwriteMyTicketsCount sets my_tickets_count to the authoritative value.
func (r *ProfileRepo) OverwriteMyTicketsCount(ctx context.Context, uid uuid.UUID, count int) error {
	const q = `UPDATE user_profiles SET my_tickets_count=$2, updated_at=now() WHERE uid=$1`
	tag, err := r.db.Pool.Exec(ctx, q, uid, count)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
