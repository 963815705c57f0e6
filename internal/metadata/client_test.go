package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClientCertification_PicksRegion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/603/release_dates", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [
				{"iso_3166_1": "US", "release_dates": [{"certification": "R"}]},
				{"iso_3166_1": "KR", "release_dates": [{"certification": ""}, {"certification": "15세 이상 관람가"}]}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", 100, zap.NewNop())
	cert, err := client.Certification(context.Background(), 603)
	require.NoError(t, err)
	require.NotNil(t, cert)
	assert.Equal(t, "15세 이상 관람가", *cert)
}

func TestClientCertification_NoRegionMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results": [{"iso_3166_1": "US", "release_dates": [{"certification": "PG-13"}]}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", 100, zap.NewNop())
	cert, err := client.Certification(context.Background(), 550)
	require.NoError(t, err)
	assert.Nil(t, cert, "foreign-region ratings must not leak through")
}

func TestClientCertification_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", 100, zap.NewNop())
	_, err := client.Certification(context.Background(), 603)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 503")
}

func TestClientGenreTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/genre/movie/list", r.URL.Path)
		_, _ = w.Write([]byte(`{"genres": [{"id": 28, "name": "액션"}, {"id": 878, "name": "SF"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", 100, zap.NewNop())
	table, err := client.GenreTable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{28: "액션", 878: "SF"}, table)
}

func TestClientBreaker_OpensAfterFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", 1000, zap.NewNop())
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		_, _ = client.Certification(ctx, 603)
	}
	_, err := client.Certification(ctx, 603)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "unexpected status", "open breaker must fail without an upstream call")
}
