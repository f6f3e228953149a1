// Package photo 驗證食譜照片網址
package photo

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	_ "image/gif"  // 支援 GIF
	_ "image/jpeg" // 支援 JPEG
	_ "image/png"  // 支援 PNG

	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/config"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/netguard"
	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp" // 支援 WebP
)

// DefaultMaxSizeBytes 預設照片大小上限
const DefaultMaxSizeBytes = 10 << 20

// 照片錯誤
var (
	ErrInvalidPhoto      = errors.New("invalid photo")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrTooLarge          = errors.New("image too large")
	ErrUnreachable       = errors.New("photo unreachable")
)

// Info 照片資訊
type Info struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Bytes  int64  `json:"bytes"`
}

// Service 照片驗證服務
type Service struct {
	client       *resty.Client
	maxSizeBytes int64
	remote       bool
}

// NewService 創建照片驗證服務；ValidateRemote 為 false 時只檢查網址格式
func NewService(cfg config.PhotoConfig) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxSize := cfg.MaxSizeBytes
	if maxSize <= 0 {
		maxSize = DefaultMaxSizeBytes
	}
	client := resty.New().SetTimeout(timeout).SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	if !cfg.AllowPrivateHosts {
		client.SetTransport(netguard.Transport())
	}
	return &Service{
		client:       client,
		maxSizeBytes: maxSize,
		remote:       cfg.ValidateRemote,
	}
}

// Validate 檢查照片網址；遠端驗證開啟時下載並解析圖片標頭
//
// 接受 http(s) 網址與 data:image/ base64 內容。未開啟遠端驗證時回傳的 Info 為 nil。
func (s *Service) Validate(ctx context.Context, photoURL string) (*Info, error) {
	photoURL = strings.TrimSpace(photoURL)
	switch {
	case strings.HasPrefix(photoURL, "data:image/"):
		data, err := decodeDataURI(photoURL)
		if err != nil {
			return nil, err
		}
		return s.inspect(data)
	case strings.HasPrefix(photoURL, "http://"), strings.HasPrefix(photoURL, "https://"):
		if !s.remote {
			return nil, nil
		}
		data, err := s.download(ctx, photoURL)
		if err != nil {
			return nil, err
		}
		return s.inspect(data)
	}
	return nil, fmt.Errorf("%w: url must be http(s) or a data:image uri", ErrInvalidPhoto)
}

func (s *Service) download(ctx context.Context, photoURL string) ([]byte, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(photoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	raw := resp.RawBody()
	defer raw.Close()

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: status code %d", ErrUnreachable, resp.StatusCode())
	}
	if resp.RawResponse != nil && resp.RawResponse.ContentLength > s.maxSizeBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.RawResponse.ContentLength)
	}

	// 多讀一個位元組判斷是否超過上限
	data, err := io.ReadAll(io.LimitReader(raw, s.maxSizeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	common.LogDebug("照片已下載", zap.String("url", photoURL), zap.Int("bytes", len(data)))
	return data, nil
}

func (s *Service) inspect(data []byte) (*Info, error) {
	if int64(len(data)) > s.maxSizeBytes {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, s.maxSizeBytes)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	if !isSupportedFormat(format) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return &Info{Format: format, Width: cfg.Width, Height: cfg.Height, Bytes: int64(len(data))}, nil
}

func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: invalid base64 data format", ErrInvalidPhoto)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPhoto, err)
	}
	return data, nil
}

// isSupportedFormat 檢查圖片格式是否支援
func isSupportedFormat(format string) bool {
	switch format {
	case "jpeg", "png", "gif", "webp":
		return true
	}
	return false
}
