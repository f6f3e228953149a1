// Package recipe 食譜 API 處理器
package recipe

import (
	"context"

	"github.com/cooperwalter/recipe-and-me/internal/core/photo"
	"github.com/cooperwalter/recipe-and-me/internal/core/recipe"
	"github.com/cooperwalter/recipe-and-me/internal/core/similarity"
)

// Importer 由網址或逐字稿產生食譜草稿
type Importer interface {
	Extract(ctx context.Context, input string) (*recipe.ImportResult, error)
}

// PhotoValidator 驗證照片網址
type PhotoValidator interface {
	Validate(ctx context.Context, photoURL string) (*photo.Info, error)
}

// Options 處理器依賴；Voice 為 nil 表示未設定語言模型
type Options struct {
	URL       Importer
	Voice     Importer
	Photos    PhotoValidator
	Scorer    *similarity.Scorer
	Threshold float64
	Debug     bool
}

// Handler 食譜處理程序
type Handler struct {
	recipes   *recipe.Service
	url       Importer
	voice     Importer
	photos    PhotoValidator
	scorer    *similarity.Scorer
	threshold float64
	debug     bool
}

// NewHandler 創建新的食譜處理程序
func NewHandler(recipes *recipe.Service, opts Options) *Handler {
	scorer := opts.Scorer
	if scorer == nil {
		scorer = similarity.Default
	}
	threshold := opts.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = similarity.DefaultThreshold
	}
	return &Handler{
		recipes:   recipes,
		url:       opts.URL,
		voice:     opts.Voice,
		photos:    opts.Photos,
		scorer:    scorer,
		threshold: threshold,
		debug:     opts.Debug,
	}
}
