package recipe

import (
	"errors"
	"fmt"
)

// 擷取相關錯誤
var (
	ErrNoRecipeFound             = errors.New("no recipe found")
	ErrUpstreamUnreachable       = errors.New("upstream unreachable")
	ErrMalformedUpstreamResponse = errors.New("malformed upstream response")
)

// 持久化相關錯誤
var (
	ErrRecipeNotFound     = errors.New("recipe not found")
	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrForbidden          = errors.New("recipe belongs to another user")
	ErrInvalidRecipe      = errors.New("invalid recipe")
	ErrInvalidURL         = errors.New("invalid url")
)

// WrapError 以操作名稱包裝錯誤，保留 kind 供 errors.Is 判斷
func WrapError(kind error, op string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", op, kind)
	}
	if errors.Is(err, kind) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
