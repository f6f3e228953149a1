package recipe

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/core/similarity"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/metrics"
	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DuplicateCheckRequest 重複檢查請求
type DuplicateCheckRequest struct {
	Recipe    RecipeInput `json:"recipe"`
	Threshold *float64    `json:"threshold"`
}

// DuplicateCheckResponse 重複檢查結果
type DuplicateCheckResponse struct {
	Duplicates    []similarity.Match `json:"duplicates"`
	TotalChecked  int                `json:"totalChecked"`
	Threshold     float64            `json:"threshold"`
	ScorerVersion string             `json:"scorerVersion"`
}

// CheckDuplicates 比對使用者既有食譜，僅提供參考不阻擋儲存
func (h *Handler) CheckDuplicates(c *gin.Context) {
	var req DuplicateCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	threshold := h.threshold
	if req.Threshold != nil {
		if *req.Threshold < 0 || *req.Threshold > 1 {
			h.badRequest(c, fmt.Errorf("threshold %v out of range [0,1]", *req.Threshold))
			return
		}
		threshold = *req.Threshold
	}

	start := time.Now()
	corpus, err := h.recipes.Corpus(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	matches := h.scorer.FindDuplicates(req.Recipe.toRecipe(), corpus, threshold)
	metrics.DuplicateCheckDuration.Observe(time.Since(start).Seconds())
	metrics.DuplicateMatchesTotal.Add(float64(len(matches)))

	common.LogDebug("重複檢查完成",
		zap.String("request_id", requestid.Get(c)),
		zap.Int("checked", len(corpus)),
		zap.Int("matches", len(matches)),
		zap.Float64("threshold", threshold),
	)
	c.JSON(http.StatusOK, DuplicateCheckResponse{
		Duplicates:    matches,
		TotalChecked:  len(corpus),
		Threshold:     threshold,
		ScorerVersion: similarity.ScorerVersion,
	})
}
