// Package metadata enriches movies with certification and genre data from
// an external provider, behind a bounded TTL cache.
package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Provider fetches enrichment data from the external metadata API.
type Provider interface {
	// Certification returns the age certification for a movie, or nil when
	// the provider has none.
	Certification(ctx context.Context, movieID int64) (*string, error)
	// GenreTable returns the shared genre id to name table.
	GenreTable(ctx context.Context) (map[int64]string, error)
}

// certificationRegion selects which release region's certification to show.
const certificationRegion = "KR"

// Client talks to a TMDB-shaped API. Calls are rate limited client-side
// and wrapped in a circuit breaker so a degraded provider sheds load fast
// instead of queueing requests.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     *zap.Logger
}

// NewClient constructs a provider client.
func NewClient(baseURL, apiKey string, requestsPerSec float64, log *zap.Logger) *Client {
	if requestsPerSec <= 0 {
		requestsPerSec = 4
	}
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "metadata-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && counts.TotalFailures*2 >= counts.Requests
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("metadata breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSec), int(requestsPerSec)+1),
		breaker: breaker,
		log:     log,
	}
}

type releaseDatesResponse struct {
	Results []struct {
		Region       string `json:"iso_3166_1"`
		ReleaseDates []struct {
			Certification string `json:"certification"`
		} `json:"release_dates"`
	} `json:"results"`
}

// Certification fetches the movie's release dates and picks the first
// non-empty certification for the configured region.
func (c *Client) Certification(ctx context.Context, movieID int64) (*string, error) {
	body, err := c.getJSON(ctx, fmt.Sprintf("/movie/%d/release_dates", movieID))
	if err != nil {
		return nil, err
	}
	var resp releaseDatesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode release dates: %w", err)
	}
	for _, result := range resp.Results {
		if result.Region != certificationRegion {
			continue
		}
		for _, rd := range result.ReleaseDates {
			if rd.Certification != "" {
				cert := rd.Certification
				return &cert, nil
			}
		}
	}
	return nil, nil
}

type genreListResponse struct {
	Genres []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

// GenreTable fetches the shared genre id to name table.
func (c *Client) GenreTable(ctx context.Context) (map[int64]string, error) {
	body, err := c.getJSON(ctx, "/genre/movie/list")
	if err != nil {
		return nil, err
	}
	var resp genreListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode genre list: %w", err)
	}
	table := make(map[int64]string, len(resp.Genres))
	for _, g := range resp.Genres {
		table[g.ID] = g.Name
	}
	return table, nil
}

func (c *Client) getJSON(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpc.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("metadata api: unexpected status %d for %s", resp.StatusCode, path)
		}
		return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	})
}
