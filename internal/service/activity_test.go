package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DaH-115/ticketeer/internal/model"
)

// seedEngagement writes n authored reviews and m likes by uid directly
// into the store so tier recounts see them.
func seedEngagement(store *memStore, uid uuid.UUID, reviews, likes int) {
	for i := 0; i < reviews; i++ {
		store.addReview(uid)
	}
	for i := 0; i < likes; i++ {
		r := store.addReview(uuid.Must(uuid.NewV4()))
		if _, err := store.InsertLike(context.Background(), r.ID, uid); err != nil {
			panic(err)
		}
	}
}

func TestRecompute_PromotesAndFansOut(t *testing.T) {
	store := newMemStore()
	prop := NewActivityPropagator(store, zap.NewNop())
	ctx := context.Background()

	uid := uuid.Must(uuid.NewV4())
	store.addProfile(&model.UserProfile{UID: uid, ActivityLevel: model.LevelNewbie})

	// 4 reviews + 2 likes = score 10, the PRO boundary.
	seedEngagement(store, uid, 4, 2)

	other := store.addReview(uuid.Must(uuid.NewV4()))
	svc := NewEngagement(store, store, &recordingDispatcher{}, zap.NewNop())
	commentID, err := svc.CreateComment(ctx, uid, other.ID, uid, "댓글")
	require.NoError(t, err)

	require.NoError(t, prop.Recompute(ctx, uid))

	prof, err := store.Get(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, model.LevelPro, prof.ActivityLevel)

	c, err := store.GetComment(ctx, other.ID, commentID)
	require.NoError(t, err)
	assert.Equal(t, model.LevelPro, c.ActivityLevel, "denormalized copy must follow the tier")
}

func TestRecompute_NoChangeSkipsWrites(t *testing.T) {
	store := newMemStore()
	prop := NewActivityPropagator(store, zap.NewNop())
	ctx := context.Background()

	uid := uuid.Must(uuid.NewV4())
	store.addProfile(&model.UserProfile{UID: uid, ActivityLevel: model.LevelNewbie})
	seedEngagement(store, uid, 1, 1)

	require.NoError(t, prop.Recompute(ctx, uid))
	assert.Equal(t, 0, store.fanOutCalls, "unchanged tier must not fan out")
}

func TestRecompute_Demotes(t *testing.T) {
	store := newMemStore()
	prop := NewActivityPropagator(store, zap.NewNop())
	ctx := context.Background()

	uid := uuid.Must(uuid.NewV4())
	// Stale MASTER with no remaining engagement.
	store.addProfile(&model.UserProfile{UID: uid, ActivityLevel: model.LevelMaster})

	require.NoError(t, prop.Recompute(ctx, uid))
	prof, _ := store.Get(ctx, uid)
	assert.Equal(t, model.LevelNewbie, prof.ActivityLevel)
}

func TestRecompute_FanOutFailureIsNotFatal(t *testing.T) {
	store := newMemStore()
	prop := NewActivityPropagator(store, zap.NewNop())
	ctx := context.Background()

	uid := uuid.Must(uuid.NewV4())
	store.addProfile(&model.UserProfile{UID: uid, ActivityLevel: model.LevelNewbie})
	seedEngagement(store, uid, 5, 0)
	store.fanOutErr = errors.New("comments table unavailable")

	require.NoError(t, prop.Recompute(ctx, uid), "fan-out failure is logged, not raised")

	prof, _ := store.Get(ctx, uid)
	assert.Equal(t, model.LevelPro, prof.ActivityLevel, "profile tier still persisted")
}

func TestDispatch_RunsDetached(t *testing.T) {
	store := newMemStore()
	prop := NewActivityPropagator(store, zap.NewNop())

	uid := uuid.Must(uuid.NewV4())
	store.addProfile(&model.UserProfile{UID: uid, ActivityLevel: model.LevelNewbie})
	seedEngagement(store, uid, 25, 0)

	prop.Dispatch(uid)
	prop.Wait()

	prof, err := store.Get(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, model.LevelMaster, prof.ActivityLevel)
}

func TestDispatch_MissingProfileDoesNotPanic(t *testing.T) {
	store := newMemStore()
	prop := NewActivityPropagator(store, zap.NewNop())

	prop.Dispatch(uuid.Must(uuid.NewV4()))
	prop.Wait()
}
