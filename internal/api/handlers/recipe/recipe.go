package recipe

import (
	"net/http"
	"strings"

	"github.com/cooperwalter/recipe-and-me/internal/core/recipe"
	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 列表回應的快取標頭
const listCacheControl = "private, max-age=30, stale-while-revalidate=60"

// IngredientInput 食材輸入，amount 可為數字或文字（"1 1/2"）
type IngredientInput struct {
	ID     string            `json:"id,omitempty"`
	Amount recipe.LooseValue `json:"amount"`
	Unit   string            `json:"unit"`
	Name   string            `json:"ingredient"`
}

// RecipeInput 建立與更新共用的食譜欄位
type RecipeInput struct {
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Ingredients  []IngredientInput `json:"ingredients"`
	Instructions []string          `json:"instructions"`
	PrepTime     *int              `json:"prepTime"`
	CookTime     *int              `json:"cookTime"`
	Servings     *int              `json:"servings"`
	SourceName   string            `json:"sourceName"`
	SourceNotes  string            `json:"sourceNotes"`
	SourceURL    string            `json:"sourceUrl"`
	CategoryIDs  []string          `json:"categoryIds"`
	IsPublic     bool              `json:"isPublic"`
}

// CreateRecipeRequest 建立食譜請求，可附帶主要照片
type CreateRecipeRequest struct {
	RecipeInput
	PhotoURL     string `json:"photoUrl"`
	PhotoCaption string `json:"photoCaption"`
}

// AddPhotoRequest 新增照片請求
type AddPhotoRequest struct {
	URL       string `json:"url" binding:"required"`
	Caption   string `json:"caption"`
	IsPrimary bool   `json:"isPrimary"`
}

// ListQuery 列表查詢參數
type ListQuery struct {
	Query          string `form:"query"`
	CategoryID     string `form:"categoryId"`
	UserID         string `form:"userId"`
	IsPublic       *bool  `form:"isPublic"`
	IsFavorite     *bool  `form:"isFavorite"`
	Limit          int    `form:"limit"`
	Offset         int    `form:"offset"`
	OrderBy        string `form:"orderBy"`
	OrderDirection string `form:"orderDirection"`
}

// ListResponse 列表回應
type ListResponse struct {
	Recipes    []recipe.Recipe   `json:"recipes"`
	Total      int               `json:"total"`
	Pagination common.Pagination `json:"pagination"`
}

// toRecipe 轉為領域模型
func (in RecipeInput) toRecipe() recipe.Recipe {
	r := recipe.Recipe{
		Title:        in.Title,
		Description:  in.Description,
		Ingredients:  make([]recipe.Ingredient, 0, len(in.Ingredients)),
		Instructions: in.Instructions,
		PrepTime:     in.PrepTime,
		CookTime:     in.CookTime,
		Servings:     in.Servings,
		SourceName:   in.SourceName,
		SourceNotes:  in.SourceNotes,
		SourceURL:    in.SourceURL,
		CategoryIDs:  in.CategoryIDs,
		IsPublic:     in.IsPublic,
	}
	for _, ing := range in.Ingredients {
		r.Ingredients = append(r.Ingredients, recipe.Ingredient{
			ID:     ing.ID,
			Amount: recipe.AmountPtr(ing.Amount.Raw),
			Unit:   ing.Unit,
			Name:   ing.Name,
		})
	}
	return r
}

// CreateRecipe 建立食譜
func (h *Handler) CreateRecipe(c *gin.Context) {
	var req CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	draft := req.toRecipe()
	if photoURL := strings.TrimSpace(req.PhotoURL); photoURL != "" {
		if err := h.validatePhoto(c, photoURL); err != nil {
			h.respondError(c, err)
			return
		}
		draft.Photos = []recipe.Photo{{URL: photoURL, Caption: strings.TrimSpace(req.PhotoCaption), IsPrimary: true}}
	}

	created, err := h.recipes.Create(c.Request.Context(), userID(c), draft)
	if err != nil {
		h.respondError(c, err)
		return
	}

	common.LogInfo("食譜建立成功",
		zap.String("request_id", requestid.Get(c)),
		zap.String("recipe_id", created.ID),
		zap.Bool("has_photo", len(created.Photos) > 0),
	)
	c.JSON(http.StatusCreated, created)
}

// ListRecipes 列出食譜
func (h *Handler) ListRecipes(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}

	filter := recipe.ListFilter{
		Query:          q.Query,
		CategoryID:     q.CategoryID,
		OwnerID:        q.UserID,
		IsPublic:       q.IsPublic,
		IsFavorite:     q.IsFavorite,
		Limit:          q.Limit,
		Offset:         q.Offset,
		OrderBy:        q.OrderBy,
		OrderDirection: q.OrderDirection,
	}.Normalize()

	result, err := h.recipes.List(c.Request.Context(), userID(c), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Cache-Control", listCacheControl)
	c.JSON(http.StatusOK, ListResponse{
		Recipes:    result.Recipes,
		Total:      result.Total,
		Pagination: common.NewPagination(filter.Limit, filter.Offset, result.Total),
	})
}

// GetRecipe 取得單筆食譜
func (h *Handler) GetRecipe(c *gin.Context) {
	r, err := h.recipes.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// UpdateRecipe 覆寫食譜
func (h *Handler) UpdateRecipe(c *gin.Context) {
	var req RecipeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	updated, err := h.recipes.Update(c.Request.Context(), userID(c), c.Param("id"), req.toRecipe())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ToggleFavorite 切換收藏
func (h *Handler) ToggleFavorite(c *gin.Context) {
	id := c.Param("id")
	favorite, err := h.recipes.ToggleFavorite(c.Request.Context(), userID(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "isFavorite": favorite})
}

// AddPhoto 新增照片
func (h *Handler) AddPhoto(c *gin.Context) {
	var req AddPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := h.validatePhoto(c, req.URL); err != nil {
		h.respondError(c, err)
		return
	}

	added, err := h.recipes.AddPhoto(c.Request.Context(), userID(c), c.Param("id"), recipe.Photo{
		URL:       req.URL,
		Caption:   req.Caption,
		IsPrimary: req.IsPrimary,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, added)
}

// DeleteRecipe 刪除食譜
func (h *Handler) DeleteRecipe(c *gin.Context) {
	if err := h.recipes.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) validatePhoto(c *gin.Context, photoURL string) error {
	if h.photos == nil {
		return nil
	}
	info, err := h.photos.Validate(c.Request.Context(), photoURL)
	if err != nil {
		return err
	}
	if info != nil {
		common.LogDebug("照片驗證通過",
			zap.String("format", info.Format),
			zap.Int("width", info.Width),
			zap.Int("height", info.Height),
		)
	}
	return nil
}
