package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		name         string
		myTickets    int
		likedTickets int
		want         ActivityLevel
	}{
		{"no engagement", 0, 0, LevelNewbie},
		{"just under pro", 4, 1, LevelNewbie},
		{"pro boundary via tickets", 5, 0, LevelPro},
		{"pro boundary via likes", 0, 10, LevelPro},
		{"mixed pro", 3, 4, LevelPro},
		{"just under master", 24, 1, LevelPro},
		{"master boundary via tickets", 25, 0, LevelMaster},
		{"master boundary via likes", 0, 50, LevelMaster},
		{"heavy user", 100, 500, LevelMaster},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelFor(tt.myTickets, tt.likedTickets))
		})
	}
}

func TestLevelFor_Monotonic(t *testing.T) {
	rank := map[ActivityLevel]int{LevelNewbie: 0, LevelPro: 1, LevelMaster: 2}
	prev := LevelNewbie
	for liked := 0; liked <= 60; liked++ {
		got := LevelFor(0, liked)
		assert.GreaterOrEqual(t, rank[got], rank[prev], "tier regressed at liked=%d", liked)
		prev = got
	}
}

func TestDefaultAuthorSnapshot(t *testing.T) {
	snap := DefaultAuthorSnapshot()
	assert.Equal(t, "익명", snap.DisplayName)
	assert.Equal(t, LevelNewbie, snap.ActivityLevel)
	assert.Nil(t, snap.PhotoKey)
}
