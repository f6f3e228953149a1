package recipe

import (
	"context"
	"time"
)

// Store 食譜持久化介面
type Store interface {
	CreateRecipe(ctx context.Context, r *Recipe) (*Recipe, error)
	GetRecipe(ctx context.Context, id string) (*Recipe, error)
	ListRecipes(ctx context.Context, filter ListFilter) (*ListResult, error)
	UpdateRecipe(ctx context.Context, r *Recipe) (*Recipe, error)
	UpdateFavorite(ctx context.Context, id string, favorite bool) error
	UpdateIngredientAmount(ctx context.Context, recipeID, ingredientID string, amount *float64) error
	AddPhoto(ctx context.Context, recipeID string, photo Photo) (*Photo, error)
	DeleteRecipe(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// Cache 讀取快取介面，值為 JSON
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}
