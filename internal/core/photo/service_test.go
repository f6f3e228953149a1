package photo

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/config"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/netguard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestValidateRemotePhoto(t *testing.T) {
	data := pngBytes(t, 8, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(data)
		case "/text":
			_, _ = w.Write([]byte("hello, not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := NewService(config.PhotoConfig{ValidateRemote: true, Timeout: 2 * time.Second, AllowPrivateHosts: true})

	info, err := s.Validate(context.Background(), srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, &Info{Format: "png", Width: 8, Height: 4, Bytes: int64(len(data))}, info)

	_, err = s.Validate(context.Background(), srv.URL+"/text")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = s.Validate(context.Background(), srv.URL+"/missing.png")
	assert.ErrorIs(t, err, ErrUnreachable)

	small := NewService(config.PhotoConfig{ValidateRemote: true, MaxSizeBytes: 10, AllowPrivateHosts: true})
	_, err = small.Validate(context.Background(), srv.URL+"/ok.png")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestValidateSkipsRemoteWhenDisabled(t *testing.T) {
	s := NewService(config.PhotoConfig{})

	info, err := s.Validate(context.Background(), "https://example.invalid/photo.jpg")
	require.NoError(t, err)
	assert.Nil(t, info)

	_, err = s.Validate(context.Background(), "ftp://example.com/photo.jpg")
	assert.ErrorIs(t, err, ErrInvalidPhoto)
}

func TestValidateDataURI(t *testing.T) {
	s := NewService(config.PhotoConfig{})
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 2, 3))

	info, err := s.Validate(context.Background(), uri)
	require.NoError(t, err)
	assert.Equal(t, "png", info.Format)
	assert.Equal(t, 2, info.Width)
	assert.Equal(t, 3, info.Height)

	_, err = s.Validate(context.Background(), "data:image/png;base64,@@@")
	assert.ErrorIs(t, err, ErrInvalidPhoto)

	_, err = s.Validate(context.Background(), "data:image/png,raw")
	assert.ErrorIs(t, err, ErrInvalidPhoto)
}

func TestValidateRefusesPrivateHosts(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes(t, 2, 2))
	}))
	defer srv.Close()

	s := NewService(config.PhotoConfig{ValidateRemote: true, Timeout: 2 * time.Second})
	_, err := s.Validate(context.Background(), srv.URL+"/ok.png")
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.ErrorIs(t, err, netguard.ErrBlockedAddress)
	assert.Zero(t, hits)
}
