// Package extract 由網頁或語音逐字稿擷取食譜草稿
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/core/recipe"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/config"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/netguard"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/resilience"
	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// FetchOperation 網頁擷取的斷路器名稱前綴
const FetchOperation = "extract.fetch_page"

// 預設值
const (
	DefaultUserAgent    = "Mozilla/5.0 (compatible; RecipeAndMe/1.0; +https://recipe-and-me.app)"
	DefaultMaxPageBytes = 5 << 20
)

// PageFetcher 取得網頁內容
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

// Fetcher 以 resty 取得網頁，限制逾時與大小
type Fetcher struct {
	client   *resty.Client
	executor *resilience.Executor
	maxBytes int64
}

// NewFetcher 創建網頁擷取器
func NewFetcher(cfg config.ExtractionConfig, exec *resilience.Executor) *Fetcher {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	maxBytes := cfg.MaxPageBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPageBytes
	}
	if exec == nil {
		exec = resilience.NewExecutor(resilience.DefaultPolicy())
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.8")
	if !cfg.AllowPrivateHosts {
		client.SetTransport(netguard.Transport())
	}

	return &Fetcher{client: client, executor: exec, maxBytes: maxBytes}
}

// Fetch 取得網頁；任何失敗皆回傳 ErrUpstreamUnreachable
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	var body []byte
	err := f.executor.Do(ctx, fetchOperation(pageURL), func(ctx context.Context) error {
		b, err := f.fetchOnce(ctx, pageURL)
		if err != nil {
			return err
		}
		body = b
		return nil
	}, classifyFetch)
	if err != nil {
		common.LogWarn("網頁擷取失敗", zap.String("url", pageURL), zap.Error(err))
		return nil, recipe.WrapError(recipe.ErrUpstreamUnreachable, "fetch page", err)
	}
	return body, nil
}

// fetchOperation 每個主機使用獨立斷路器
func fetchOperation(pageURL string) string {
	host := ""
	if u, err := url.Parse(pageURL); err == nil {
		host = strings.ToLower(u.Host)
	}
	return FetchOperation + ":" + host
}

// classifyFetch 被阻擋的位址不重試也不計入斷路器
func classifyFetch(err error) resilience.Outcome {
	if errors.Is(err, netguard.ErrBlockedAddress) {
		return resilience.Outcome{}
	}
	return resilience.ClassifyHTTP(err)
}

func (f *Fetcher) fetchOnce(ctx context.Context, pageURL string) ([]byte, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", pageURL, err)
	}
	raw := resp.RawBody()
	defer raw.Close()

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(raw, 4<<10))
		return nil, &resilience.StatusError{Operation: "fetch page", StatusCode: resp.StatusCode()}
	}

	// 超過上限的部分直接截斷，JSON-LD 通常位於前段
	body, err := io.ReadAll(io.LimitReader(raw, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
