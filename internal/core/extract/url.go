package extract

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/core/recipe"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/metrics"
	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"

	"go.uber.org/zap"
)

// URLExtractor 由網址匯入食譜
type URLExtractor struct {
	fetcher  PageFetcher
	cache    recipe.Cache
	cacheTTL time.Duration
}

// NewURLExtractor 創建網址匯入器，cache 可為 nil
func NewURLExtractor(fetcher PageFetcher, cache recipe.Cache, ttl time.Duration) *URLExtractor {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &URLExtractor{fetcher: fetcher, cache: cache, cacheTTL: ttl}
}

// Extract 取得網頁並轉為食譜草稿
func (x *URLExtractor) Extract(ctx context.Context, rawURL string) (result *recipe.ImportResult, err error) {
	start := time.Now()
	defer func() {
		observe(recipe.ExtractedFromURL, start, err)
	}()

	u, err := recipe.ValidateSourceURL(rawURL)
	if err != nil {
		return nil, err
	}
	pageURL := u.String()
	key := recipe.ExtractKey(pageURL)

	if cached := x.cached(ctx, key); cached != nil {
		return cached, nil
	}

	body, err := x.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		if !errors.Is(err, recipe.ErrUpstreamUnreachable) {
			err = recipe.WrapError(recipe.ErrUpstreamUnreachable, "fetch page", err)
		}
		return nil, err
	}

	page, err := ParsePage(body)
	if err != nil {
		return nil, err
	}

	draft := recipe.NormalizeExtracted(page.Recipe)
	draft.SourceURL = pageURL
	result = &recipe.ImportResult{
		Recipe:        draft,
		Metadata:      page.Recipe.Metadata,
		ImageURL:      resolve(u, page.ImageURL),
		SourceURL:     pageURL,
		ExtractedFrom: recipe.ExtractedFromURL,
	}

	common.LogInfo("網址匯入完成",
		zap.String("url", pageURL),
		zap.String("title", draft.Title),
		zap.Int("ingredients", len(draft.Ingredients)),
		zap.Int("instructions", len(draft.Instructions)),
	)
	x.store(ctx, key, result)
	return result, nil
}

func (x *URLExtractor) cached(ctx context.Context, key string) *recipe.ImportResult {
	if x.cache == nil {
		return nil
	}
	data, err := x.cache.Get(ctx, key)
	if err != nil {
		return nil
	}
	var result recipe.ImportResult
	if err := common.ParseJSONBytes(data, &result); err != nil {
		return nil
	}
	return &result
}

func (x *URLExtractor) store(ctx context.Context, key string, result *recipe.ImportResult) {
	if x.cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := x.cache.Set(ctx, key, data, x.cacheTTL); err != nil {
		common.LogWarn("匯入結果快取失敗", zap.String("key", key), zap.Error(err))
	}
}

// resolve 將相對圖片網址轉為絕對網址
func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(r)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}

// Outcome 擷取結果分類，用於指標
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, recipe.ErrNoRecipeFound):
		return "no_recipe"
	case errors.Is(err, recipe.ErrUpstreamUnreachable):
		return "unreachable"
	case errors.Is(err, recipe.ErrMalformedUpstreamResponse):
		return "malformed"
	case errors.Is(err, recipe.ErrInvalidURL), errors.Is(err, recipe.ErrInvalidRecipe):
		return "invalid"
	}
	return "error"
}

func observe(source string, start time.Time, err error) {
	metrics.ExtractionsTotal.WithLabelValues(source, Outcome(err)).Inc()
	metrics.ExtractionDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}
