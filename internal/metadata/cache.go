package metadata

import (
	"container/list"
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// enrichConcurrency bounds parallel certification fetches in Enrich.
const enrichConcurrency = 4

// MovieRef identifies a movie to enrich plus its raw genre ids.
type MovieRef struct {
	ID       int64
	GenreIDs []int64
}

// Enriched is the decoration attached to a movie for display.
type Enriched struct {
	ID            int64    `json:"movieId"`
	Certification *string  `json:"certification"`
	Genres        []string `json:"genres"`
}

type entry struct {
	key        int64
	cert       *string
	insertedAt time.Time
}

// Cache is a process-wide bounded cache over per-movie certification data
// plus the shared genre table. Eviction is least-recently-used by access;
// staleness is checked per entry against its own insertion timestamp, so
// an entry's position in the list never extends its life.
//
// Enrichment is best-effort decoration: provider failures are logged and
// surface as a nil certification, never as an error to the caller.
type Cache struct {
	provider Provider
	capacity int
	ttl      time.Duration
	log      *zap.Logger

	mu    sync.Mutex
	items map[int64]*list.Element
	ll    *list.List // front = most recently used

	group singleflight.Group

	genreMu  sync.Mutex
	genres   map[int64]string
	genresAt time.Time

	now func() time.Time
}

// NewCache constructs the cache. Create one instance at startup and share it.
func NewCache(provider Provider, capacity int, ttl time.Duration, log *zap.Logger) *Cache {
	if capacity <= 0 {
		capacity = 500
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{
		provider: provider,
		capacity: capacity,
		ttl:      ttl,
		log:      log,
		items:    make(map[int64]*list.Element, capacity),
		ll:       list.New(),
		now:      time.Now,
	}
}

// Certification returns the movie's certification, fetching on miss or
// expiry. Concurrent misses for the same id collapse into one upstream
// fetch. Returns nil on provider failure.
func (c *Cache) Certification(ctx context.Context, movieID int64) *string {
	if cert, ok := c.lookup(movieID); ok {
		return cert
	}
	v, err, _ := c.group.Do(strconv.FormatInt(movieID, 10), func() (any, error) {
		if cert, ok := c.lookup(movieID); ok {
			return cert, nil
		}
		cert, err := c.provider.Certification(ctx, movieID)
		if err != nil {
			return nil, err
		}
		c.store(movieID, cert)
		return cert, nil
	})
	if err != nil {
		c.log.Warn("certification fetch failed",
			zap.Int64("movie_id", movieID),
			zap.Error(err),
		)
		return nil
	}
	cert, _ := v.(*string)
	return cert
}

// Enrich resolves the genre table once, then fetches certifications for
// the given movies in parallel, reusing unexpired cache entries.
func (c *Cache) Enrich(ctx context.Context, refs []MovieRef) []Enriched {
	table := c.genreTable(ctx)

	out := make([]Enriched, len(refs))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(enrichConcurrency)
	for i, ref := range refs {
		out[i] = Enriched{ID: ref.ID, Genres: genreNames(table, ref.GenreIDs)}
		id := ref.ID
		slot := &out[i].Certification
		eg.Go(func() error {
			*slot = c.Certification(ctx, id)
			return nil
		})
	}
	_ = eg.Wait() // workers never return errors; enrichment is best-effort
	return out
}

// Clear empties the cache, including the genre table. Test isolation only.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[int64]*list.Element, c.capacity)
	c.ll = list.New()
	c.mu.Unlock()

	c.genreMu.Lock()
	c.genres = nil
	c.genresAt = time.Time{}
	c.genreMu.Unlock()
}

// Len reports the number of resident entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *Cache) lookup(movieID int64) (*string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[movieID]
	if !ok {
		return nil, false
	}
	e := elem.Value.(*entry)
	if c.now().Sub(e.insertedAt) > c.ttl {
		c.ll.Remove(elem)
		delete(c.items, movieID)
		return nil, false
	}
	c.ll.MoveToFront(elem)
	return e.cert, true
}

func (c *Cache) store(movieID int64, cert *string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[movieID]; ok {
		e := elem.Value.(*entry)
		e.cert = cert
		e.insertedAt = c.now()
		c.ll.MoveToFront(elem)
		return
	}
	c.items[movieID] = c.ll.PushFront(&entry{key: movieID, cert: cert, insertedAt: c.now()})
	for c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*entry).key)
	}
}

// genreTable returns the cached genre table, refreshing after its TTL.
// On refresh failure a stale table is better than none.
func (c *Cache) genreTable(ctx context.Context) map[int64]string {
	c.genreMu.Lock()
	defer c.genreMu.Unlock()

	if c.genres != nil && c.now().Sub(c.genresAt) <= c.ttl {
		return c.genres
	}
	table, err := c.provider.GenreTable(ctx)
	if err != nil {
		c.log.Warn("genre table fetch failed", zap.Error(err))
		return c.genres
	}
	c.genres = table
	c.genresAt = c.now()
	return c.genres
}

func genreNames(table map[int64]string, ids []int64) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := table[id]; ok {
			names = append(names, name)
		}
	}
	return names
}
