// Package postgres 以 PostgreSQL 保存食譜
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/core/recipe"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/config"
	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

var _ recipe.Store = (*Store)(nil)

// invalid_text_representation，例如不合法的 UUID
const codeInvalidText = "22P02"

const (
	insertRecipe = `INSERT INTO recipes (` + recipeColumns + `)
	VALUES (:id, :owner_id, :title, :description, :instructions, :prep_time, :cook_time, :servings,
		:source_name, :source_notes, :source_url, :category_ids, :is_public, :is_favorite, :created_at, :updated_at)`

	insertIngredient = `INSERT INTO recipe_ingredients (` + ingredientColumns + `)
	VALUES (:id, :recipe_id, :position, :amount, :unit, :name)`

	insertPhoto = `INSERT INTO recipe_photos (` + photoColumns + `)
	VALUES (:id, :recipe_id, :url, :caption, :is_primary, :created_at)`

	updateRecipe = `UPDATE recipes SET title = :title, description = :description, instructions = :instructions,
		prep_time = :prep_time, cook_time = :cook_time, servings = :servings, source_name = :source_name,
		source_notes = :source_notes, source_url = :source_url, category_ids = :category_ids,
		is_public = :is_public, updated_at = :updated_at
	WHERE id = :id`
)

// Store PostgreSQL 食譜儲存
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewStore 以既有連線建立
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Open 連線資料庫並套用連線池設定
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	common.LogInfo("PostgreSQL 已連線", zap.Int("max_open_conns", cfg.MaxOpenConns))
	return NewStore(db), nil
}

// Close 關閉連線
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping 檢查連線
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateRecipe 於交易中寫入食譜、食材與照片
func (s *Store) CreateRecipe(ctx context.Context, r *recipe.Recipe) (*recipe.Recipe, error) {
	now := s.now()
	created := *r
	created.ID = common.GenerateUUID()
	created.CreatedAt = now
	created.UpdatedAt = now
	created.Ingredients = append([]recipe.Ingredient{}, r.Ingredients...)
	created.Photos = append([]recipe.Photo{}, r.Photos...)
	if created.Instructions == nil {
		created.Instructions = []string{}
	}
	if created.CategoryIDs == nil {
		created.CategoryIDs = []string{}
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, insertRecipe, toRecipeRow(&created)); err != nil {
			return fmt.Errorf("failed to insert recipe: %w", err)
		}
		if err := insertIngredients(ctx, tx, created.ID, created.Ingredients); err != nil {
			return err
		}
		for i := range created.Photos {
			p := &created.Photos[i]
			p.ID = common.GenerateUUID()
			p.CreatedAt = now
			if _, err := tx.NamedExecContext(ctx, insertPhoto, photoRow{
				ID: p.ID, RecipeID: created.ID, URL: p.URL, Caption: p.Caption, IsPrimary: p.IsPrimary, CreatedAt: now,
			}); err != nil {
				return fmt.Errorf("failed to insert photo: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// GetRecipe 依 ID 取得食譜
func (s *Store) GetRecipe(ctx context.Context, id string) (*recipe.Recipe, error) {
	var row recipeRow
	err := s.db.GetContext(ctx, &row, `SELECT `+recipeColumns+` FROM recipes WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err, "get recipe")
	}

	recipes := []recipe.Recipe{row.toRecipe()}
	if err := s.loadChildren(ctx, recipes); err != nil {
		return nil, err
	}
	return &recipes[0], nil
}

// ListRecipes 依條件過濾、排序與分頁
func (s *Store) ListRecipes(ctx context.Context, filter recipe.ListFilter) (*recipe.ListResult, error) {
	f := filter.Normalize()
	where, args := whereClause(f)

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM recipes`+where, args...); err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM recipes%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		recipeColumns, where, orderClause(f), len(args)+1, len(args)+2)
	var rows []recipeRow
	if err := s.db.SelectContext(ctx, &rows, query, append(args, f.Limit, f.Offset)...); err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	recipes := make([]recipe.Recipe, len(rows))
	for i, row := range rows {
		recipes[i] = row.toRecipe()
	}
	if err := s.loadChildren(ctx, recipes); err != nil {
		return nil, err
	}
	return &recipe.ListResult{Recipes: recipes, Total: total}, nil
}

// UpdateRecipe 覆寫食譜欄位並重建食材列表
func (s *Store) UpdateRecipe(ctx context.Context, r *recipe.Recipe) (*recipe.Recipe, error) {
	row := toRecipeRow(r)
	row.UpdatedAt = s.now()

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, updateRecipe, row)
		if err != nil {
			return translate(err, "update recipe")
		}
		if err := requireAffected(res, recipe.ErrRecipeNotFound); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, r.ID); err != nil {
			return fmt.Errorf("failed to clear ingredients: %w", err)
		}
		return insertIngredients(ctx, tx, r.ID, append([]recipe.Ingredient{}, r.Ingredients...))
	})
	if err != nil {
		return nil, err
	}
	return s.GetRecipe(ctx, r.ID)
}

// UpdateFavorite 設定收藏狀態
func (s *Store) UpdateFavorite(ctx context.Context, id string, favorite bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE recipes SET is_favorite = $1, updated_at = $2 WHERE id = $3`, favorite, s.now(), id)
	if err != nil {
		return translate(err, "update favorite")
	}
	return requireAffected(res, recipe.ErrRecipeNotFound)
}

// UpdateIngredientAmount 修改食材份量，amount 為 nil 時寫入 NULL
func (s *Store) UpdateIngredientAmount(ctx context.Context, recipeID, ingredientID string, amount *float64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE recipe_ingredients SET amount = $1 WHERE recipe_id = $2 AND id = $3`,
			nullFloat(amount), recipeID, ingredientID)
		if isInvalidText(err) {
			return recipe.ErrIngredientNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to update ingredient amount: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n == 0 {
			var exists bool
			if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM recipes WHERE id = $1)`, recipeID); err != nil {
				return translate(err, "check recipe")
			}
			if !exists {
				return recipe.ErrRecipeNotFound
			}
			return recipe.ErrIngredientNotFound
		}
		_, err = tx.ExecContext(ctx, `UPDATE recipes SET updated_at = $1 WHERE id = $2`, s.now(), recipeID)
		if err != nil {
			return fmt.Errorf("failed to touch recipe: %w", err)
		}
		return nil
	})
}

// AddPhoto 新增照片；設為主要照片時取消其他主要照片
func (s *Store) AddPhoto(ctx context.Context, recipeID string, photo recipe.Photo) (*recipe.Photo, error) {
	photo.ID = common.GenerateUUID()
	photo.CreatedAt = s.now()

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM recipes WHERE id = $1)`, recipeID); err != nil {
			return translate(err, "check recipe")
		}
		if !exists {
			return recipe.ErrRecipeNotFound
		}
		if photo.IsPrimary {
			if _, err := tx.ExecContext(ctx, `UPDATE recipe_photos SET is_primary = FALSE WHERE recipe_id = $1`, recipeID); err != nil {
				return fmt.Errorf("failed to reset primary photo: %w", err)
			}
		}
		_, err := tx.NamedExecContext(ctx, insertPhoto, photoRow{
			ID: photo.ID, RecipeID: recipeID, URL: photo.URL, Caption: photo.Caption,
			IsPrimary: photo.IsPrimary, CreatedAt: photo.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to insert photo: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// DeleteRecipe 刪除食譜，食材與照片由外鍵一併刪除
func (s *Store) DeleteRecipe(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete recipe")
	}
	return requireAffected(res, recipe.ErrRecipeNotFound)
}

// loadChildren 一次載入多筆食譜的食材與照片
func (s *Store) loadChildren(ctx context.Context, recipes []recipe.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	ids := make([]string, len(recipes))
	index := make(map[string]int, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
		index[r.ID] = i
	}

	var ingredients []ingredientRow
	err := s.db.SelectContext(ctx, &ingredients,
		`SELECT `+ingredientColumns+` FROM recipe_ingredients WHERE recipe_id = ANY($1) ORDER BY recipe_id, position`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load ingredients: %w", err)
	}
	for _, row := range ingredients {
		if i, ok := index[row.RecipeID]; ok {
			recipes[i].Ingredients = append(recipes[i].Ingredients, row.toIngredient())
		}
	}

	var photos []photoRow
	err = s.db.SelectContext(ctx, &photos,
		`SELECT `+photoColumns+` FROM recipe_photos WHERE recipe_id = ANY($1) ORDER BY recipe_id, created_at`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load photos: %w", err)
	}
	for _, row := range photos {
		if i, ok := index[row.RecipeID]; ok {
			recipes[i].Photos = append(recipes[i].Photos, row.toPhoto())
		}
	}
	return nil
}

func insertIngredients(ctx context.Context, tx *sqlx.Tx, recipeID string, ingredients []recipe.Ingredient) error {
	for i := range ingredients {
		ing := &ingredients[i]
		if ing.ID == "" {
			ing.ID = common.GenerateUUID()
		}
		if _, err := tx.NamedExecContext(ctx, insertIngredient, ingredientRow{
			ID:       ing.ID,
			RecipeID: recipeID,
			Position: i,
			Amount:   nullFloat(ing.Amount),
			Unit:     ing.Unit,
			Name:     ing.Name,
		}); err != nil {
			return fmt.Errorf("failed to insert ingredient: %w", err)
		}
	}
	return nil
}

// withTx 執行交易，fn 回傳錯誤時回滾
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			common.LogError("交易回滾失敗", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// whereClause 依條件產生 WHERE 與參數
func whereClause(f recipe.ListFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.OwnerID != "" {
		add("owner_id = $%d", f.OwnerID)
	}
	if f.IsPublic != nil {
		add("is_public = $%d", *f.IsPublic)
	}
	if f.IsFavorite != nil {
		add("is_favorite = $%d", *f.IsFavorite)
	}
	if f.CategoryID != "" {
		add("$%d = ANY(category_ids)", f.CategoryID)
	}
	if f.Query != "" {
		add("(title ILIKE $%[1]d OR description ILIKE $%[1]d)", "%"+escapeLike(f.Query)+"%")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(f recipe.ListFilter) string {
	dir := "DESC"
	if f.OrderDirection == "asc" {
		dir = "ASC"
	}
	switch f.OrderBy {
	case recipe.OrderByTitle:
		return fmt.Sprintf("LOWER(title) %[1]s, created_at %[1]s, id %[1]s", dir)
	case recipe.OrderByUpdatedAt:
		return fmt.Sprintf("updated_at %[1]s, created_at %[1]s, id %[1]s", dir)
	}
	return fmt.Sprintf("created_at %[1]s, id %[1]s", dir)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// translate 將找不到資料或不合法 ID 轉為 ErrRecipeNotFound
func translate(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return recipe.ErrRecipeNotFound
	}
	if isInvalidText(err) {
		return recipe.ErrRecipeNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func isInvalidText(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeInvalidText
}
