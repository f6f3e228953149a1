package memory

import (
	"context"
	"testing"

	"github.com/cooperwalter/recipe-and-me/internal/core/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func floatPtr(f float64) *float64 { return &f }

func seed(t *testing.T, s *Store, owner, title string, public bool) *recipe.Recipe {
	t.Helper()
	r, err := s.CreateRecipe(context.Background(), &recipe.Recipe{
		OwnerID:      owner,
		Title:        title,
		IsPublic:     public,
		Ingredients:  []recipe.Ingredient{{Name: "flour", Amount: floatPtr(2), Unit: "cups"}},
		Instructions: []string{"Mix.", "Bake."},
	})
	require.NoError(t, err)
	return r
}

func TestStoreCreateAssignsIDsAndCopies(t *testing.T) {
	s := NewStore()
	r := seed(t, s, "u1", "Bread", false)

	assert.NotEmpty(t, r.ID)
	assert.NotEmpty(t, r.Ingredients[0].ID)
	assert.False(t, r.CreatedAt.IsZero())

	// 修改回傳值不影響儲存內容
	r.Title = "changed"
	*r.Ingredients[0].Amount = 99

	got, err := s.GetRecipe(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bread", got.Title)
	assert.Equal(t, 2.0, *got.Ingredients[0].Amount)
}

func TestStoreGetMissing(t *testing.T) {
	_, err := NewStore().GetRecipe(context.Background(), "nope")
	assert.ErrorIs(t, err, recipe.ErrRecipeNotFound)
}

func TestStoreListFiltersAndPaginates(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seed(t, s, "u1", "Banana Bread", false)
	seed(t, s, "u1", "Apple Pie", true)
	seed(t, s, "u2", "Carrot Cake", true)

	res, err := s.ListRecipes(ctx, recipe.ListFilter{OwnerID: "u1", OrderBy: "title", OrderDirection: "asc"})
	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
	assert.Equal(t, "Apple Pie", res.Recipes[0].Title)
	assert.Equal(t, "Banana Bread", res.Recipes[1].Title)

	res, err = s.ListRecipes(ctx, recipe.ListFilter{IsPublic: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	// 預設依建立時間新到舊
	assert.Equal(t, "Carrot Cake", res.Recipes[0].Title)

	res, err = s.ListRecipes(ctx, recipe.ListFilter{Query: "bread"})
	require.NoError(t, err)
	require.Len(t, res.Recipes, 1)
	assert.Equal(t, "Banana Bread", res.Recipes[0].Title)

	res, err = s.ListRecipes(ctx, recipe.ListFilter{Limit: 1, Offset: 2, OrderDirection: "asc"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Recipes, 1)
	assert.Equal(t, "Carrot Cake", res.Recipes[0].Title)
}

func TestStoreUpdateIngredientAmount(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	r := seed(t, s, "u1", "Bread", false)

	require.NoError(t, s.UpdateIngredientAmount(ctx, r.ID, r.Ingredients[0].ID, floatPtr(1.5)))
	got, _ := s.GetRecipe(ctx, r.ID)
	assert.Equal(t, 1.5, *got.Ingredients[0].Amount)

	require.NoError(t, s.UpdateIngredientAmount(ctx, r.ID, r.Ingredients[0].ID, nil))
	got, _ = s.GetRecipe(ctx, r.ID)
	assert.Nil(t, got.Ingredients[0].Amount)

	err := s.UpdateIngredientAmount(ctx, r.ID, "missing", floatPtr(1))
	assert.ErrorIs(t, err, recipe.ErrIngredientNotFound)
}

func TestStoreAddPhotoKeepsSinglePrimary(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	r := seed(t, s, "u1", "Bread", false)

	_, err := s.AddPhoto(ctx, r.ID, recipe.Photo{URL: "https://img/1.jpg", IsPrimary: true})
	require.NoError(t, err)
	_, err = s.AddPhoto(ctx, r.ID, recipe.Photo{URL: "https://img/2.jpg", IsPrimary: true})
	require.NoError(t, err)

	got, _ := s.GetRecipe(ctx, r.ID)
	require.Len(t, got.Photos, 2)
	assert.False(t, got.Photos[0].IsPrimary)
	assert.True(t, got.Photos[1].IsPrimary)
}

func TestStoreFavoriteAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	r := seed(t, s, "u1", "Bread", false)

	require.NoError(t, s.UpdateFavorite(ctx, r.ID, true))
	res, err := s.ListRecipes(ctx, recipe.ListFilter{IsFavorite: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)

	require.NoError(t, s.DeleteRecipe(ctx, r.ID))
	assert.ErrorIs(t, s.DeleteRecipe(ctx, r.ID), recipe.ErrRecipeNotFound)
	assert.ErrorIs(t, s.UpdateFavorite(ctx, r.ID, false), recipe.ErrRecipeNotFound)
}
