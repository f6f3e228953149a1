package recipe

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cooperwalter/recipe-and-me/internal/core/recipe"
	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errExtractFailed 網址匯入的非預期錯誤
var errExtractFailed = common.NewError(common.ErrCodeInternalError, "Failed to extract recipe", http.StatusInternalServerError, nil)

// ExtractURLRequest 網址匯入請求
type ExtractURLRequest struct {
	URL string `json:"url" binding:"required"`
}

// ExtractVoiceRequest 語音逐字稿匯入請求
type ExtractVoiceRequest struct {
	Transcript string `json:"transcript" binding:"required"`
}

// ExtractURL 由食譜網頁產生草稿
func (h *Handler) ExtractURL(c *gin.Context) {
	var req ExtractURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, common.ErrInvalidURL.WithErr(err))
		return
	}
	if h.url == nil {
		h.respondError(c, common.ErrServiceUnavailable)
		return
	}

	result, err := h.url.Extract(c.Request.Context(), strings.TrimSpace(req.URL))
	if err != nil {
		if errorFrom(err).Code == common.ErrCodeInternalError {
			err = errExtractFailed.WithErr(err)
		}
		h.respondError(c, err)
		return
	}

	common.LogInfo("網址匯入完成",
		zap.String("request_id", requestid.Get(c)),
		zap.String("source_url", result.SourceURL),
		zap.Int("ingredients", len(result.Recipe.Ingredients)),
	)
	c.JSON(http.StatusOK, result)
}

// ExtractVoice 由語音逐字稿產生草稿
func (h *Handler) ExtractVoice(c *gin.Context) {
	if h.voice == nil {
		h.respondError(c, common.ErrLLMNotConfigured)
		return
	}

	var req ExtractVoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.voice.Extract(c.Request.Context(), req.Transcript)
	if err != nil {
		// 語言模型無法連線屬於服務端問題
		if errors.Is(err, recipe.ErrUpstreamUnreachable) {
			err = common.ErrServiceUnavailable.WithErr(err)
		}
		h.respondError(c, err)
		return
	}

	common.LogInfo("語音匯入完成",
		zap.String("request_id", requestid.Get(c)),
		zap.Int("transcript_length", len(req.Transcript)),
		zap.Int("ingredients", len(result.Recipe.Ingredients)),
	)
	c.JSON(http.StatusOK, result)
}
