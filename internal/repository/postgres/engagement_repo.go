package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/DaH-115/ticketeer/internal/errs"
	"github.com/DaH-115/ticketeer/internal/model"
)

// isUniqueViolation reports SQLSTATE 23505, the duplicate-like signal
// from the (review_id, uid) primary key.
func isUniqueViolation(err error) bool {
	var pg *pgconn.PgError
	return errors.As(err, &pg) && pg.Code == "23505"
}

// EngagementRepo implements EngagementRepository using PostgreSQL.
type EngagementRepo struct{ db *DB }

// NewEngagementRepo constructs an engagement repository.
func NewEngagementRepo(db *DB) *EngagementRepo { return &EngagementRepo{db: db} }

const reviewColumns = `id, author_id, movie_id, movie_title, genre_ids, title, content, rating,
like_count, comments_count, created_at, updated_at`

func scanReview(row pgx.Row) (*model.Review, error) {
	var r model.Review
	err := row.Scan(
		&r.ID, &r.AuthorID, &r.MovieID, &r.MovieTitle, &r.GenreIDs, &r.Title, &r.Content,
		&r.Rating, &r.LikeCount, &r.CommentsCount, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// GetReview returns a review by id.
func (r *EngagementRepo) GetReview(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	q := fmt.Sprintf(`SELECT %s FROM reviews WHERE id=$1`, reviewColumns)
	return scanReview(r.db.Pool.QueryRow(ctx, q, id))
}

// UpdateReview overwrites content fields only; counters are untouched.
func (r *EngagementRepo) UpdateReview(ctx context.Context, id uuid.UUID, title, content string, rating int) error {
	const q = `
UPDATE reviews SET title=$2, content=$3, rating=$4, updated_at=now() WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, title, content, rating)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// DeleteReview removes the review; comments and like records cascade.
func (r *EngagementRepo) DeleteReview(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM reviews WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// InsertComment writes a comment and bumps the parent's comments count in
// one transaction. The caller verifies the parent exists before calling;
// the re-read inside the transaction guards the counter, so a review
// deleted in between fails the write as a transaction failure, not a
// not-found.
func (r *EngagementRepo) InsertComment(ctx context.Context, c *model.Comment) error {
	return runTx(ctx, r.db.Pool, func(tx pgx.Tx) error {
		const sel = `SELECT id FROM reviews WHERE id=$1 FOR UPDATE`
		var id uuid.UUID
		if err := tx.QueryRow(ctx, sel, c.ReviewID).Scan(&id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("review %s gone mid-transaction", c.ReviewID)
			}
			return err
		}

		const ins = `
INSERT INTO comments (id, review_id, author_id, content, display_name, photo_key, activity_level)
VALUES ($1,$2,$3,$4,$5,$6,$7)`
		if _, err := tx.Exec(ctx, ins,
			c.ID, c.ReviewID, c.AuthorID, c.Content, c.DisplayName, c.PhotoKey, string(c.ActivityLevel),
		); err != nil {
			return err
		}

		const upd = `UPDATE reviews SET comments_count = comments_count + 1 WHERE id=$1`
		_, err := tx.Exec(ctx, upd, c.ReviewID)
		return err
	})
}

const commentColumns = `id, review_id, author_id, content, display_name, photo_key, activity_level,
created_at, updated_at`

func scanComment(row pgx.Row) (*model.Comment, error) {
	var c model.Comment
	var level string
	err := row.Scan(
		&c.ID, &c.ReviewID, &c.AuthorID, &c.Content, &c.DisplayName, &c.PhotoKey, &level,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	c.ActivityLevel = model.ActivityLevel(level)
	return &c, nil
}

// GetComment returns a comment scoped to its parent review.
func (r *EngagementRepo) GetComment(ctx context.Context, reviewID, commentID uuid.UUID) (*model.Comment, error) {
	q := fmt.Sprintf(`SELECT %s FROM comments WHERE id=$1 AND review_id=$2`, commentColumns)
	return scanComment(r.db.Pool.QueryRow(ctx, q, commentID, reviewID))
}

// UpdateComment overwrites the content and stamps updated_at.
func (r *EngagementRepo) UpdateComment(ctx context.Context, reviewID, commentID uuid.UUID, content string) error {
	const q = `
UPDATE comments SET content=$3, updated_at=now() WHERE id=$1 AND review_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, commentID, reviewID, content)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// DeleteComment removes the comment and decrements the parent's comments
// count in one transaction.
func (r *EngagementRepo) DeleteComment(ctx context.Context, reviewID, commentID uuid.UUID) error {
	return runTx(ctx, r.db.Pool, func(tx pgx.Tx) error {
		const del = `DELETE FROM comments WHERE id=$1 AND review_id=$2`
		tag, err := tx.Exec(ctx, del, commentID, reviewID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrNotFound
		}

		const upd = `UPDATE reviews SET comments_count = GREATEST(comments_count - 1, 0) WHERE id=$1`
		_, err = tx.Exec(ctx, upd, reviewID)
		return err
	})
}

// ListComments returns all comments of a review, newest first.
func (r *EngagementRepo) ListComments(ctx context.Context, reviewID uuid.UUID) ([]model.Comment, error) {
	q := fmt.Sprintf(`SELECT %s FROM comments WHERE review_id=$1 ORDER BY created_at DESC`, commentColumns)
	rows, err := r.db.Pool.Query(ctx, q, reviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Comment, 0)
	for rows.Next() {
		var c model.Comment
		var level string
		if err = rows.Scan(
			&c.ID, &c.ReviewID, &c.AuthorID, &c.Content, &c.DisplayName, &c.PhotoKey, &level,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		c.ActivityLevel = model.ActivityLevel(level)
		out = append(out, c)
	}
	return out, rows.Err()
}

// LikeExists reports whether a like record exists for (reviewID, uid).
func (r *EngagementRepo) LikeExists(ctx context.Context, reviewID, uid uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM like_records WHERE review_id=$1 AND uid=$2)`
	var exists bool
	if err := r.db.Pool.QueryRow(ctx, q, reviewID, uid).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// InsertLike creates the like record and increments both derived counters
// in one transaction. The (review_id, uid) primary key settles concurrent
// duplicates: the loser gets ErrConflict, never a double increment. A
// review or profile row missing mid-transaction fails the whole write.
func (r *EngagementRepo) InsertLike(ctx context.Context, reviewID, uid uuid.UUID) (int, error) {
	var likeCount int
	err := runTx(ctx, r.db.Pool, func(tx pgx.Tx) error {
		const ins = `INSERT INTO like_records (review_id, uid) VALUES ($1,$2)`
		if _, err := tx.Exec(ctx, ins, reviewID, uid); err != nil {
			if isUniqueViolation(err) {
				return errs.ErrConflict
			}
			return err
		}

		const updReview = `
UPDATE reviews SET like_count = like_count + 1 WHERE id=$1 RETURNING like_count`
		if err := tx.QueryRow(ctx, updReview, reviewID).Scan(&likeCount); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("review %s gone mid-transaction", reviewID)
			}
			return err
		}

		const updProfile = `
UPDATE user_profiles SET liked_tickets_count = liked_tickets_count + 1 WHERE uid=$1`
		tag, err := tx.Exec(ctx, updProfile, uid)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("no profile row for uid %s", uid)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return likeCount, nil
}

// DeleteLike removes the like record and decrements both derived counters
// in one transaction. A missing record yields ErrConflict ("not liked").
func (r *EngagementRepo) DeleteLike(ctx context.Context, reviewID, uid uuid.UUID) error {
	return runTx(ctx, r.db.Pool, func(tx pgx.Tx) error {
		const del = `DELETE FROM like_records WHERE review_id=$1 AND uid=$2`
		tag, err := tx.Exec(ctx, del, reviewID, uid)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrConflict
		}

		const updReview = `
UPDATE reviews SET like_count = GREATEST(like_count - 1, 0) WHERE id=$1`
		if _, err = tx.Exec(ctx, updReview, reviewID); err != nil {
			return err
		}

		const updProfile = `
UPDATE user_profiles SET liked_tickets_count = GREATEST(liked_tickets_count - 1, 0) WHERE uid=$1`
		tag, err = tx.Exec(ctx, updProfile, uid)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("no profile row for uid %s", uid)
		}
		return nil
	})
}
