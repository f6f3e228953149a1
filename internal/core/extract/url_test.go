package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/core/cache"
	"github.com/cooperwalter/recipe-and-me/internal/core/recipe"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/config"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/netguard"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const soupPage = `<html><head>
<script type="application/ld+json">{"@context":"https://schema.org","@type":"Recipe",
"name":"Tomato Soup","recipeIngredient":["4 tomatoes","1 cup cream"],
"recipeInstructions":[{"@type":"HowToStep","text":"Simmer."}],
"recipeYield":"4 servings","totalTime":"PT30M","image":"/photos/soup.jpg"}</script>
</head><body></body></html>`

func newTestExtractor(t *testing.T, handler http.HandlerFunc) (*URLExtractor, *httptest.Server, *cache.Manager) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	fetcher := NewFetcher(
		config.ExtractionConfig{FetchTimeout: 2 * time.Second, AllowPrivateHosts: true},
		resilience.NewExecutor(resilience.Policy{MaxAttempts: 1}),
	)
	c := cache.NewManager(config.CacheConfig{Enabled: true, MaxSize: 10, TTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })
	return NewURLExtractor(fetcher, c, time.Minute), srv, c
}

func TestURLExtractorSuccessAndCache(t *testing.T) {
	var hits atomic.Int32
	x, srv, _ := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(soupPage))
	})

	pageURL := srv.URL + "/recipes/soup"
	result, err := x.Extract(context.Background(), pageURL)
	require.NoError(t, err)

	assert.Equal(t, recipe.ExtractedFromURL, result.ExtractedFrom)
	assert.Equal(t, pageURL, result.SourceURL)
	assert.Equal(t, pageURL, result.Recipe.SourceURL)
	assert.Equal(t, srv.URL+"/photos/soup.jpg", result.ImageURL)
	assert.Equal(t, "Tomato Soup", result.Recipe.Title)
	require.Len(t, result.Recipe.Ingredients, 2)
	assert.Equal(t, "tomatoes", result.Recipe.Ingredients[0].Name)
	assert.Equal(t, []string{"Simmer."}, result.Recipe.Instructions)
	require.NotNil(t, result.Recipe.Servings)
	assert.Equal(t, 4, *result.Recipe.Servings)
	assert.Nil(t, result.Recipe.PrepTime)
	require.NotNil(t, result.Recipe.CookTime)
	assert.Equal(t, 30, *result.Recipe.CookTime)
	assert.Equal(t, "4 servings", result.Metadata.Yield)

	again, err := x.Extract(context.Background(), pageURL)
	require.NoError(t, err)
	assert.Equal(t, result.Recipe.Title, again.Recipe.Title)
	assert.Equal(t, int32(1), hits.Load())
}

func TestURLExtractorErrors(t *testing.T) {
	x, srv, _ := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/blog":
			_, _ = w.Write([]byte(`<html><body>No recipe here</body></html>`))
		}
	})

	_, err := x.Extract(context.Background(), srv.URL+"/missing")
	assert.ErrorIs(t, err, recipe.ErrUpstreamUnreachable)
	assert.Equal(t, "unreachable", Outcome(err))

	_, err = x.Extract(context.Background(), srv.URL+"/blog")
	assert.ErrorIs(t, err, recipe.ErrNoRecipeFound)
	assert.Equal(t, "no_recipe", Outcome(err))

	for _, raw := range []string{"", "not a url", "ftp://example.com/recipe", "/relative/path"} {
		_, err = x.Extract(context.Background(), raw)
		assert.ErrorIs(t, err, recipe.ErrInvalidURL, raw)
	}
}

func TestURLExtractorUnreachableHost(t *testing.T) {
	x, srv, _ := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {})
	addr := srv.URL
	srv.Close()

	_, err := x.Extract(context.Background(), addr+"/gone")
	assert.ErrorIs(t, err, recipe.ErrUpstreamUnreachable)
}

func TestFetchBreakerIsPerHost(t *testing.T) {
	policy := resilience.DefaultPolicy()
	policy.MaxAttempts = 1
	fetcher := NewFetcher(config.ExtractionConfig{FetchTimeout: 2 * time.Second, AllowPrivateHosts: true}, resilience.NewExecutor(policy))
	c := cache.NewManager(config.CacheConfig{Enabled: true, MaxSize: 10, TTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })
	x := NewURLExtractor(fetcher, c, time.Minute)

	down := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	downURL := down.URL
	down.Close()

	for i := 0; i < int(policy.BreakerMinRequests); i++ {
		_, err := x.Extract(context.Background(), downURL+"/soup")
		require.ErrorIs(t, err, recipe.ErrUpstreamUnreachable)
	}
	_, err := x.Extract(context.Background(), downURL+"/soup")
	require.ErrorIs(t, err, recipe.ErrUpstreamUnreachable)
	require.True(t, resilience.IsCircuitOpen(err), "breaker for the failing host should be open")

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(soupPage))
	}))
	defer healthy.Close()

	result, err := x.Extract(context.Background(), healthy.URL+"/recipes/soup")
	require.NoError(t, err)
	assert.Equal(t, "Tomato Soup", result.Recipe.Title)
}

func TestFetchTimeout(t *testing.T) {
	single := resilience.DefaultPolicy()
	single.MaxAttempts = 1

	tests := []struct {
		name   string
		policy resilience.Policy
	}{
		{"single attempt", single},
		{"default retries", resilience.DefaultPolicy()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			release := make(chan struct{})
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-release:
				}
			}))
			defer srv.Close()
			defer close(release)

			f := NewFetcher(config.ExtractionConfig{FetchTimeout: 50 * time.Millisecond, AllowPrivateHosts: true}, resilience.NewExecutor(tt.policy))

			start := time.Now()
			_, err := f.Fetch(context.Background(), srv.URL+"/slow")
			elapsed := time.Since(start)

			assert.ErrorIs(t, err, recipe.ErrUpstreamUnreachable)
			assert.Less(t, elapsed, 3*time.Second)
		})
	}
}

func TestFetcherRefusesPrivateHosts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(soupPage))
	}))
	defer srv.Close()

	f := NewFetcher(config.ExtractionConfig{FetchTimeout: 2 * time.Second}, resilience.NewExecutor(resilience.DefaultPolicy()))
	_, err := f.Fetch(context.Background(), srv.URL+"/soup")

	assert.ErrorIs(t, err, recipe.ErrUpstreamUnreachable)
	assert.ErrorIs(t, err, netguard.ErrBlockedAddress)
	assert.Zero(t, hits.Load())
}

func TestFetchOperationKeyedByHost(t *testing.T) {
	assert.Equal(t, FetchOperation+":example.com", fetchOperation("https://Example.com/a"))
	assert.Equal(t, FetchOperation+":example.com:8080", fetchOperation("http://example.com:8080/b"))
	assert.NotEqual(t, fetchOperation("https://a.example.com/x"), fetchOperation("https://b.example.com/x"))
}

func TestFetcherTruncatesLargePages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 4096))
	}))
	defer srv.Close()

	f := NewFetcher(config.ExtractionConfig{MaxPageBytes: 1024, AllowPrivateHosts: true}, resilience.NewExecutor(resilience.Policy{MaxAttempts: 1}))
	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, body, 1024)
}

func TestResolveImageURL(t *testing.T) {
	base, err := recipe.ValidateSourceURL("https://example.com/recipes/soup")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/img/a.jpg", resolve(base, "/img/a.jpg"))
	assert.Equal(t, "https://example.com/recipes/b.jpg", resolve(base, "b.jpg"))
	assert.Equal(t, "https://cdn.example.com/c.jpg", resolve(base, "https://cdn.example.com/c.jpg"))
	assert.Equal(t, "", resolve(base, "data:image/png;base64,AAAA"))
	assert.Equal(t, "", resolve(base, ""))
}
