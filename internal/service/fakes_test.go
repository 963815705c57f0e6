package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/DaH-115/ticketeer/internal/errs"
	"github.com/DaH-115/ticketeer/internal/model"
)

// memStore is an in-memory double for both repository interfaces. Its
// counter-bearing writes mimic the real transactions: all-or-nothing,
// with conflicts detected on the like-record set.
type memStore struct {
	mu       sync.Mutex
	reviews  map[uuid.UUID]*model.Review
	comments map[uuid.UUID]*model.Comment
	likes    map[[2]uuid.UUID]model.LikeRecord // key: (reviewID, uid)
	profiles map[uuid.UUID]*model.UserProfile

	profileGetErr    error
	fanOutErr        error
	insertCommentErr error
	insertLikeErr    error
	fanOutCalls      int
}

func newMemStore() *memStore {
	return &memStore{
		reviews:  make(map[uuid.UUID]*model.Review),
		comments: make(map[uuid.UUID]*model.Comment),
		likes:    make(map[[2]uuid.UUID]model.LikeRecord),
		profiles: make(map[uuid.UUID]*model.UserProfile),
	}
}

func (m *memStore) addReview(authorID uuid.UUID) *model.Review {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := &model.Review{
		ID:       uuid.Must(uuid.NewV4()),
		AuthorID: authorID,
		MovieID:  603,
		Title:    "제목",
		Content:  "본문",
		Rating:   8,
	}
	m.reviews[r.ID] = r
	return r
}

func (m *memStore) addProfile(p *model.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UID] = p
}

// --- EngagementRepository ---

func (m *memStore) GetReview(_ context.Context, id uuid.UUID) (*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) UpdateReview(_ context.Context, id uuid.UUID, title, content string, rating int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return errs.ErrNotFound
	}
	r.Title, r.Content, r.Rating = title, content, rating
	r.UpdatedAt = time.Now()
	return nil
}

func (m *memStore) DeleteReview(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[id]; !ok {
		return errs.ErrNotFound
	}
	delete(m.reviews, id)
	for key := range m.likes {
		if key[0] == id {
			delete(m.likes, key)
		}
	}
	for cid, c := range m.comments {
		if c.ReviewID == id {
			delete(m.comments, cid)
		}
	}
	return nil
}

func (m *memStore) InsertComment(_ context.Context, c *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertCommentErr != nil {
		return m.insertCommentErr
	}
	r, ok := m.reviews[c.ReviewID]
	if !ok {
		return errors.New("review gone mid-transaction")
	}
	cp := *c
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.comments[c.ID] = &cp
	r.CommentsCount++
	return nil
}

func (m *memStore) GetComment(_ context.Context, reviewID, commentID uuid.UUID) (*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[commentID]
	if !ok || c.ReviewID != reviewID {
		return nil, errs.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) UpdateComment(_ context.Context, reviewID, commentID uuid.UUID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[commentID]
	if !ok || c.ReviewID != reviewID {
		return errs.ErrNotFound
	}
	c.Content = content
	c.UpdatedAt = time.Now()
	return nil
}

func (m *memStore) DeleteComment(_ context.Context, reviewID, commentID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[commentID]
	if !ok || c.ReviewID != reviewID {
		return errs.ErrNotFound
	}
	delete(m.comments, commentID)
	if r, ok := m.reviews[reviewID]; ok && r.CommentsCount > 0 {
		r.CommentsCount--
	}
	return nil
}

func (m *memStore) ListComments(_ context.Context, reviewID uuid.UUID) ([]model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Comment, 0)
	for _, c := range m.comments {
		if c.ReviewID == reviewID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) LikeExists(_ context.Context, reviewID, uid uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.likes[[2]uuid.UUID{reviewID, uid}]
	return ok, nil
}

func (m *memStore) InsertLike(_ context.Context, reviewID, uid uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertLikeErr != nil {
		return 0, m.insertLikeErr
	}
	key := [2]uuid.UUID{reviewID, uid}
	if _, ok := m.likes[key]; ok {
		return 0, errs.ErrConflict
	}
	r, ok := m.reviews[reviewID]
	if !ok {
		return 0, errors.New("review gone mid-transaction")
	}
	m.likes[key] = model.LikeRecord{ReviewID: reviewID, UID: uid, CreatedAt: time.Now()}
	r.LikeCount++
	if p, ok := m.profiles[uid]; ok {
		p.LikedTicketsCount++
	}
	return r.LikeCount, nil
}

func (m *memStore) DeleteLike(_ context.Context, reviewID, uid uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]uuid.UUID{reviewID, uid}
	if _, ok := m.likes[key]; !ok {
		return errs.ErrConflict
	}
	delete(m.likes, key)
	if r, ok := m.reviews[reviewID]; ok && r.LikeCount > 0 {
		r.LikeCount--
	}
	if p, ok := m.profiles[uid]; ok && p.LikedTicketsCount > 0 {
		p.LikedTicketsCount--
	}
	return nil
}

// --- ProfileRepository ---

func (m *memStore) Get(_ context.Context, uid uuid.UUID) (*model.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profileGetErr != nil {
		return nil, m.profileGetErr
	}
	p, ok := m.profiles[uid]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) CountReviewsByAuthor(_ context.Context, uid uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.reviews {
		if r.AuthorID == uid {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountLikesByUser(_ context.Context, uid uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for key := range m.likes {
		if key[1] == uid {
			n++
		}
	}
	return n, nil
}

func (m *memStore) SetActivityLevel(_ context.Context, uid uuid.UUID, level model.ActivityLevel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[uid]
	if !ok {
		return errs.ErrNotFound
	}
	p.ActivityLevel = level
	return nil
}

func (m *memStore) FanOutActivityLevel(_ context.Context, uid uuid.UUID, level model.ActivityLevel) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fanOutCalls++
	if m.fanOutErr != nil {
		return 0, m.fanOutErr
	}
	var n int64
	for _, c := range m.comments {
		if c.AuthorID == uid {
			c.ActivityLevel = level
			n++
		}
	}
	return n, nil
}

func (m *memStore) OverwriteLikedCount(_ context.Context, uid uuid.UUID, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[uid]
	if !ok {
		return errs.ErrNotFound
	}
	p.LikedTicketsCount = count
	return nil
}

func (m *memStore) OverwriteMyTicketsCount(_ context.Context, uid uuid.UUID, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[uid]
	if !ok {
		return errs.ErrNotFound
	}
	p.MyTicketsCount = count
	return nil
}

// likedCount reads the profile counter without copying.
func (m *memStore) likedCount(uid uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[uid].LikedTicketsCount
}

// recordingDispatcher captures Dispatch calls synchronously.
type recordingDispatcher struct {
	mu   sync.Mutex
	uids []uuid.UUID
}

func (d *recordingDispatcher) Dispatch(uid uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.uids = append(d.uids, uid)
}

func (d *recordingDispatcher) calls() []uuid.UUID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]uuid.UUID(nil), d.uids...)
}
