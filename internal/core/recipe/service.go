package recipe

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"

	"go.uber.org/zap"
)

// 重複檢查時讀取的食譜上限
const MaxCorpusSize = 1000

// Service 食譜服務，負責擁有權檢查與快取
type Service struct {
	store    Store
	cache    Cache
	cacheTTL time.Duration
}

// NewService 創建食譜服務，cache 可為 nil
func NewService(store Store, cache Cache, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Service{
		store:    store,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// Ping 檢查儲存層
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Create 建立食譜
func (s *Service) Create(ctx context.Context, ownerID string, draft Recipe) (*Recipe, error) {
	r := sanitize(draft)
	if r.Title == "" {
		return nil, WrapError(ErrInvalidRecipe, "create recipe", common.NewValidationError("title is required"))
	}
	r.ID = ""
	reuseIngredientIDs(r.Ingredients, nil)
	r.OwnerID = ownerID
	r.SourceName = DefaultSourceName(r.SourceName, r.SourceURL)
	r.SourceNotes = DefaultSourceNotes(r.SourceNotes, r.SourceURL)

	created, err := s.store.CreateRecipe(ctx, &r)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	common.LogInfo("食譜已建立",
		zap.String("recipe_id", created.ID),
		zap.String("owner_id", ownerID),
		zap.Int("ingredients", len(created.Ingredients)),
	)
	return created, nil
}

// Get 取得食譜，私人食譜僅擁有者可見
func (s *Service) Get(ctx context.Context, userID, id string) (*Recipe, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.IsPublic && r.OwnerID != userID {
		return nil, ErrRecipeNotFound
	}
	return r, nil
}

// List 列表查詢；未指定擁有者且非公開查詢時預設為自己的食譜
func (s *Service) List(ctx context.Context, userID string, filter ListFilter) (*ListResult, error) {
	f := filter.Normalize()
	publicOnly := f.IsPublic != nil && *f.IsPublic
	if f.OwnerID == "" && !publicOnly {
		f.OwnerID = userID
	}
	if f.OwnerID != userID && !publicOnly {
		t := true
		f.IsPublic = &t
	}

	key := ListKey(f)
	var cached ListResult
	if s.getCached(ctx, key, &cached) {
		return &cached, nil
	}

	result, err := s.store.ListRecipes(ctx, f)
	if err != nil {
		return nil, err
	}
	s.setCached(ctx, key, result)
	return result, nil
}

// Update 覆寫可編輯欄位，步驟整組取代
func (s *Service) Update(ctx context.Context, userID, id string, changes Recipe) (*Recipe, error) {
	existing, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	r := sanitize(changes)
	if r.Title == "" {
		return nil, WrapError(ErrInvalidRecipe, "update recipe", common.NewValidationError("title is required"))
	}
	reuseIngredientIDs(r.Ingredients, existing.Ingredients)
	r.ID = existing.ID
	r.OwnerID = existing.OwnerID
	r.IsFavorite = existing.IsFavorite
	r.Photos = existing.Photos
	r.CreatedAt = existing.CreatedAt
	if r.SourceURL == "" {
		r.SourceURL = existing.SourceURL
	}

	updated, err := s.store.UpdateRecipe(ctx, &r)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return updated, nil
}

// ToggleFavorite 切換收藏，回傳新狀態
func (s *Service) ToggleFavorite(ctx context.Context, userID, id string) (bool, error) {
	r, err := s.owned(ctx, userID, id)
	if err != nil {
		return false, err
	}
	favorite := !r.IsFavorite
	if err := s.store.UpdateFavorite(ctx, id, favorite); err != nil {
		return r.IsFavorite, err
	}
	s.invalidate(ctx, id)
	return favorite, nil
}

// UpdateIngredientAmount 修改單一食材份量，amount 為 nil 表示清除
func (s *Service) UpdateIngredientAmount(ctx context.Context, userID, recipeID, ingredientID string, amount *float64) error {
	if _, err := s.owned(ctx, userID, recipeID); err != nil {
		return err
	}
	if amount != nil {
		if _, ok := finite(*amount); !ok {
			amount = nil
		}
	}
	if err := s.store.UpdateIngredientAmount(ctx, recipeID, ingredientID, amount); err != nil {
		return err
	}
	s.invalidate(ctx, recipeID)
	return nil
}

// AddPhoto 新增照片
func (s *Service) AddPhoto(ctx context.Context, userID, recipeID string, photo Photo) (*Photo, error) {
	if _, err := s.owned(ctx, userID, recipeID); err != nil {
		return nil, err
	}
	photo.URL = strings.TrimSpace(photo.URL)
	photo.Caption = strings.TrimSpace(photo.Caption)
	if photo.URL == "" {
		return nil, WrapError(ErrInvalidRecipe, "add photo", common.NewValidationError("photo url is required"))
	}
	added, err := s.store.AddPhoto(ctx, recipeID, photo)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, recipeID)
	return added, nil
}

// Delete 刪除食譜
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteRecipe(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// Corpus 取得使用者全部食譜，供重複檢查使用
func (s *Service) Corpus(ctx context.Context, userID string) ([]Recipe, error) {
	var corpus []Recipe
	filter := ListFilter{
		OwnerID:        userID,
		Limit:          MaxListLimit,
		OrderBy:        OrderByCreatedAt,
		OrderDirection: "asc",
	}
	for len(corpus) < MaxCorpusSize {
		page, err := s.store.ListRecipes(ctx, filter)
		if err != nil {
			return nil, err
		}
		corpus = append(corpus, page.Recipes...)
		if len(page.Recipes) == 0 || len(corpus) >= page.Total {
			break
		}
		filter.Offset += len(page.Recipes)
	}
	if len(corpus) > MaxCorpusSize {
		corpus = corpus[:MaxCorpusSize]
	}
	return corpus, nil
}

func (s *Service) owned(ctx context.Context, userID, id string) (*Recipe, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.OwnerID != userID {
		return nil, ErrForbidden
	}
	return r, nil
}

func (s *Service) load(ctx context.Context, id string) (*Recipe, error) {
	key := DetailKey(id)
	var cached Recipe
	if s.getCached(ctx, key, &cached) {
		return &cached, nil
	}
	r, err := s.store.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	s.setCached(ctx, key, r)
	return r, nil
}

func (s *Service) getCached(ctx context.Context, key string, v interface{}) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return false
	}
	if err := common.ParseJSONBytes(data, v); err != nil {
		common.LogWarn("快取資料無法解析", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *Service) setCached(ctx context.Context, key string, v interface{}) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		common.LogWarn("快取寫入失敗", zap.String("key", key), zap.Error(err))
	}
}

// invalidate 清除指定食譜與所有列表快取
func (s *Service) invalidate(ctx context.Context, ids ...string) {
	if s.cache == nil {
		return
	}
	if len(ids) > 0 {
		keys := make([]string, 0, len(ids))
		for _, id := range ids {
			keys = append(keys, DetailKey(id))
		}
		if err := s.cache.Delete(ctx, keys...); err != nil {
			common.LogWarn("快取清除失敗", zap.Strings("keys", keys), zap.Error(err))
		}
	}
	if err := s.cache.DeletePrefix(ctx, ListKeyPrefix); err != nil {
		common.LogWarn("列表快取清除失敗", zap.Error(err))
	}
}

// sanitize 去除空白、空名稱食材與不合法數值
// reuseIngredientIDs 只保留原本屬於此食譜且未重複的食材 ID，其餘清空由儲存層重新產生
func reuseIngredientIDs(ingredients, existing []Ingredient) {
	owned := make(map[string]bool, len(existing))
	for _, ing := range existing {
		owned[ing.ID] = true
	}
	seen := make(map[string]bool, len(ingredients))
	for i := range ingredients {
		id := ingredients[i].ID
		if id == "" || !owned[id] || seen[id] {
			ingredients[i].ID = ""
			continue
		}
		seen[id] = true
	}
}

func sanitize(in Recipe) Recipe {
	r := in
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.SourceName = strings.TrimSpace(r.SourceName)
	r.SourceNotes = strings.TrimSpace(r.SourceNotes)
	r.SourceURL = strings.TrimSpace(r.SourceURL)

	r.Ingredients = make([]Ingredient, 0, len(in.Ingredients))
	for _, ing := range in.Ingredients {
		ing.Name = strings.TrimSpace(ing.Name)
		ing.Unit = strings.TrimSpace(ing.Unit)
		if ing.Name == "" {
			continue
		}
		if ing.Amount != nil {
			if _, ok := finite(*ing.Amount); !ok {
				ing.Amount = nil
			}
		}
		r.Ingredients = append(r.Ingredients, ing)
	}

	r.Instructions = make([]string, 0, len(in.Instructions))
	for _, step := range in.Instructions {
		if step = strings.TrimSpace(step); step != "" {
			r.Instructions = append(r.Instructions, step)
		}
	}

	r.PrepTime = nonNegative(r.PrepTime)
	r.CookTime = nonNegative(r.CookTime)
	if r.Servings != nil && (*r.Servings < 1 || *r.Servings > MaxCount) {
		r.Servings = nil
	}
	if r.CategoryIDs == nil {
		r.CategoryIDs = []string{}
	}
	if r.Photos == nil {
		r.Photos = []Photo{}
	}
	return r
}

func nonNegative(v *int) *int {
	if v == nil || *v < 0 || *v > MaxCount {
		return nil
	}
	return v
}
