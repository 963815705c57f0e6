// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// ActivityLevel is a derived user tier, ordered by ascending engagement.
type ActivityLevel string

const (
	LevelNewbie ActivityLevel = "NEWBIE"
	LevelPro    ActivityLevel = "PRO"
	LevelMaster ActivityLevel = "MASTER"
)

// Tier thresholds on the activity score (2*tickets + liked).
const (
	proThreshold    = 10
	masterThreshold = 50
)

// LevelFor maps aggregate counts to a tier through a monotonic step function.
func LevelFor(myTickets, likedTickets int) ActivityLevel {
	score := 2*myTickets + likedTickets
	switch {
	case score >= masterThreshold:
		return LevelMaster
	case score >= proThreshold:
		return LevelPro
	default:
		return LevelNewbie
	}
}

// Review is a user-authored movie ticket. LikeCount and CommentsCount are
// derived caches maintained only by the engagement engine and the reconciler.
type Review struct {
	ID            uuid.UUID
	AuthorID      uuid.UUID
	MovieID       int64
	MovieTitle    string
	GenreIDs      []int64
	Title         string
	Content       string
	Rating        int
	LikeCount     int
	CommentsCount int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Comment belongs to exactly one review. The author display fields are a
// denormalized snapshot taken at write time; ActivityLevel on the copy is
// refreshed by the activity propagator.
type Comment struct {
	ID            uuid.UUID
	ReviewID      uuid.UUID
	AuthorID      uuid.UUID
	Content       string
	DisplayName   string
	PhotoKey      *string
	ActivityLevel ActivityLevel
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// LikeRecord is the single source of truth for "uid likes review".
// Identity is the (ReviewID, UID) pair.
type LikeRecord struct {
	ReviewID  uuid.UUID
	UID       uuid.UUID
	CreatedAt time.Time
}

// UserProfile holds profile fields plus derived engagement attributes.
// ActivityLevel, MyTicketsCount and LikedTicketsCount are caches over
// reviews and like records, repaired by the reconciler.
type UserProfile struct {
	UID               uuid.UUID
	DisplayName       string
	Biography         string
	Provider          string
	PhotoKey          *string
	ActivityLevel     ActivityLevel
	MyTicketsCount    int
	LikedTicketsCount int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AuthorSnapshot is the denormalized author payload written onto a comment.
type AuthorSnapshot struct {
	DisplayName   string
	PhotoKey      *string
	ActivityLevel ActivityLevel
}

// DefaultAuthorSnapshot is used when the author profile cannot be read;
// profile lookup failure must never block comment creation.
func DefaultAuthorSnapshot() AuthorSnapshot {
	return AuthorSnapshot{DisplayName: "익명", ActivityLevel: LevelNewbie}
}

// CountSync reports a reconciliation run over one derived counter.
type CountSync struct {
	Before     int `json:"before"`
	After      int `json:"after"`
	Difference int `json:"difference"`
}
