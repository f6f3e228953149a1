package recipe

import (
	"net/http"

	"github.com/cooperwalter/recipe-and-me/internal/core/recipe"

	"github.com/gin-gonic/gin"
)

// UpdateAmountRequest 修改份量；數字或文字皆可，無法解析時清除份量
type UpdateAmountRequest struct {
	Amount recipe.LooseValue `json:"amount"`
}

// UpdateIngredientAmount 修改單一食材份量
func (h *Handler) UpdateIngredientAmount(c *gin.Context) {
	var req UpdateAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	amount := recipe.AmountPtr(req.Amount.Raw)
	recipeID, ingredientID := c.Param("id"), c.Param("ingredientId")
	if err := h.recipes.UpdateIngredientAmount(c.Request.Context(), userID(c), recipeID, ingredientID, amount); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipeId":     recipeID,
		"ingredientId": ingredientID,
		"amount":       amount,
	})
}
