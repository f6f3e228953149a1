// Package memory 以記憶體保存食譜，未設定資料庫時使用
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/core/recipe"
	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"
)

var _ recipe.Store = (*Store)(nil)

// Store 記憶體食譜儲存，讀寫皆以複本進出
type Store struct {
	mu      sync.RWMutex
	recipes map[string]*recipe.Recipe
	seq     int64
	now     func() time.Time
}

// NewStore 創建記憶體儲存
func NewStore() *Store {
	return &Store{
		recipes: make(map[string]*recipe.Recipe),
		now:     time.Now,
	}
}

// CreateRecipe 新增食譜並指派 ID
func (s *Store) CreateRecipe(ctx context.Context, r *recipe.Recipe) (*recipe.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := clone(r)
	c.ID = common.GenerateUUID()
	// 同一時間建立的食譜仍保持建立順序
	s.seq++
	c.CreatedAt = s.now().Add(time.Duration(s.seq) * time.Nanosecond)
	c.UpdatedAt = c.CreatedAt
	for i := range c.Ingredients {
		c.Ingredients[i].ID = common.GenerateUUID()
	}
	for i := range c.Photos {
		c.Photos[i].ID = common.GenerateUUID()
		c.Photos[i].CreatedAt = c.CreatedAt
	}

	s.recipes[c.ID] = c
	return clone(c), nil
}

// GetRecipe 依 ID 取得食譜
func (s *Store) GetRecipe(ctx context.Context, id string) (*recipe.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[id]
	if !ok {
		return nil, recipe.ErrRecipeNotFound
	}
	return clone(r), nil
}

// ListRecipes 依條件過濾、排序與分頁
func (s *Store) ListRecipes(ctx context.Context, filter recipe.ListFilter) (*recipe.ListResult, error) {
	f := filter.Normalize()
	query := strings.ToLower(f.Query)

	s.mu.RLock()
	matched := make([]*recipe.Recipe, 0, len(s.recipes))
	for _, r := range s.recipes {
		if f.OwnerID != "" && r.OwnerID != f.OwnerID {
			continue
		}
		if f.IsPublic != nil && r.IsPublic != *f.IsPublic {
			continue
		}
		if f.IsFavorite != nil && r.IsFavorite != *f.IsFavorite {
			continue
		}
		if f.CategoryID != "" && !contains(r.CategoryIDs, f.CategoryID) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(r.Title), query) &&
			!strings.Contains(strings.ToLower(r.Description), query) {
			continue
		}
		matched = append(matched, r)
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		c := compare(matched[i], matched[j], f.OrderBy)
		if f.OrderDirection == "desc" {
			return c > 0
		}
		return c < 0
	})

	total := len(matched)
	start := min(f.Offset, total)
	end := min(start+f.Limit, total)

	out := make([]recipe.Recipe, 0, end-start)
	for _, r := range matched[start:end] {
		out = append(out, *clone(r))
	}
	return &recipe.ListResult{Recipes: out, Total: total}, nil
}

// UpdateRecipe 覆寫食譜內容
func (s *Store) UpdateRecipe(ctx context.Context, r *recipe.Recipe) (*recipe.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.recipes[r.ID]
	if !ok {
		return nil, recipe.ErrRecipeNotFound
	}
	c := clone(r)
	c.OwnerID = existing.OwnerID
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.now()
	c.Photos = clone(existing).Photos
	for i := range c.Ingredients {
		if c.Ingredients[i].ID == "" {
			c.Ingredients[i].ID = common.GenerateUUID()
		}
	}
	s.recipes[c.ID] = c
	return clone(c), nil
}

// UpdateFavorite 設定收藏狀態
func (s *Store) UpdateFavorite(ctx context.Context, id string, favorite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.recipes[id]
	if !ok {
		return recipe.ErrRecipeNotFound
	}
	r.IsFavorite = favorite
	r.UpdatedAt = s.now()
	return nil
}

// UpdateIngredientAmount 修改食材份量
func (s *Store) UpdateIngredientAmount(ctx context.Context, recipeID, ingredientID string, amount *float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.recipes[recipeID]
	if !ok {
		return recipe.ErrRecipeNotFound
	}
	for i := range r.Ingredients {
		if r.Ingredients[i].ID != ingredientID {
			continue
		}
		if amount == nil {
			r.Ingredients[i].Amount = nil
		} else {
			v := *amount
			r.Ingredients[i].Amount = &v
		}
		r.UpdatedAt = s.now()
		return nil
	}
	return recipe.ErrIngredientNotFound
}

// AddPhoto 新增照片；設為主要照片時取消其他主要照片
func (s *Store) AddPhoto(ctx context.Context, recipeID string, photo recipe.Photo) (*recipe.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.recipes[recipeID]
	if !ok {
		return nil, recipe.ErrRecipeNotFound
	}
	photo.ID = common.GenerateUUID()
	photo.CreatedAt = s.now()
	if photo.IsPrimary {
		for i := range r.Photos {
			r.Photos[i].IsPrimary = false
		}
	}
	r.Photos = append(r.Photos, photo)
	return &photo, nil
}

// DeleteRecipe 刪除食譜
func (s *Store) DeleteRecipe(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.recipes[id]; !ok {
		return recipe.ErrRecipeNotFound
	}
	delete(s.recipes, id)
	return nil
}

// Ping 記憶體儲存永遠可用
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// compare 依排序欄位比較，相同時以建立時間決定
func compare(a, b *recipe.Recipe, orderBy string) int {
	switch orderBy {
	case recipe.OrderByTitle:
		if c := strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)); c != 0 {
			return c
		}
	case recipe.OrderByUpdatedAt:
		if c := a.UpdatedAt.Compare(b.UpdatedAt); c != 0 {
			return c
		}
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func clone(r *recipe.Recipe) *recipe.Recipe {
	c := *r
	c.Ingredients = make([]recipe.Ingredient, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		if ing.Amount != nil {
			v := *ing.Amount
			ing.Amount = &v
		}
		c.Ingredients[i] = ing
	}
	c.Instructions = append([]string{}, r.Instructions...)
	c.CategoryIDs = append([]string{}, r.CategoryIDs...)
	c.Photos = append([]recipe.Photo{}, r.Photos...)
	c.PrepTime = cloneInt(r.PrepTime)
	c.CookTime = cloneInt(r.CookTime)
	c.Servings = cloneInt(r.Servings)
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
