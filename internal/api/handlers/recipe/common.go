package recipe

import (
	"context"
	"errors"
	"net/http"

	"github.com/cooperwalter/recipe-and-me/internal/api/middleware"
	"github.com/cooperwalter/recipe-and-me/internal/core/ai/queue"
	"github.com/cooperwalter/recipe-and-me/internal/core/photo"
	"github.com/cooperwalter/recipe-and-me/internal/core/recipe"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/resilience"
	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errorFrom 將領域錯誤轉為 API 錯誤
func errorFrom(err error) *common.CustomError {
	if ce, ok := common.AsCustomError(err); ok {
		return ce
	}

	var ce *common.CustomError
	switch {
	case errors.Is(err, recipe.ErrRecipeNotFound):
		ce = common.ErrRecipeNotFound
	case errors.Is(err, recipe.ErrIngredientNotFound):
		ce = common.ErrIngredientNotFound
	case errors.Is(err, recipe.ErrForbidden):
		ce = common.ErrForbidden
	case errors.Is(err, recipe.ErrInvalidURL):
		ce = common.ErrInvalidURL
	case errors.Is(err, recipe.ErrInvalidRecipe):
		ce = common.NewError(common.ErrCodeInvalidRequest, validationMessage(err), http.StatusBadRequest, nil)
	case errors.Is(err, recipe.ErrNoRecipeFound):
		ce = common.ErrNoRecipeFound
	case errors.Is(err, recipe.ErrUpstreamUnreachable):
		ce = common.ErrUpstreamUnreachable
	case errors.Is(err, recipe.ErrMalformedUpstreamResponse):
		ce = common.ErrMalformedUpstream
	case errors.Is(err, photo.ErrTooLarge):
		ce = common.ErrInvalidImageSize
	case errors.Is(err, photo.ErrUnreachable):
		ce = common.ErrPhotoUnreachable
	case errors.Is(err, photo.ErrUnsupportedFormat), errors.Is(err, photo.ErrInvalidPhoto):
		ce = common.ErrInvalidImageFormat
	case errors.Is(err, queue.ErrQueueFull), resilience.IsCircuitOpen(err):
		ce = common.ErrServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		ce = common.ErrGatewayTimeout
	case errors.Is(err, context.Canceled):
		ce = common.ErrRequestTimeout
	default:
		ce = common.ErrInternalError
	}
	return ce.WithErr(err)
}

// validationMessage 取出驗證錯誤的說明
func validationMessage(err error) string {
	var ve *common.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return "Invalid recipe"
}

// respondError 記錄並回傳錯誤
func (h *Handler) respondError(c *gin.Context, err error) {
	ce := errorFrom(err)
	fields := []zap.Field{
		zap.String("request_id", requestid.Get(c)),
		zap.String("code", ce.Code),
		zap.Int("status", ce.Status),
		zap.Error(err),
	}
	if ce.Status >= http.StatusInternalServerError {
		common.LogError("請求處理失敗", fields...)
	} else {
		common.LogWarn("請求處理失敗", fields...)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(ce.Status, ce.Response(h.debug))
}

// badRequest 請求格式錯誤
func (h *Handler) badRequest(c *gin.Context, err error) {
	h.respondError(c, common.ErrInvalidRequest.WithErr(err))
}

// userID 取得中間件寫入的使用者身分
func userID(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}
