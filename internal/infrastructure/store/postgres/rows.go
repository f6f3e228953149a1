package postgres

import (
	"database/sql"
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/core/recipe"

	"github.com/lib/pq"
)

const recipeColumns = `id, owner_id, title, description, instructions, prep_time, cook_time, servings,
	source_name, source_notes, source_url, category_ids, is_public, is_favorite, created_at, updated_at`

const ingredientColumns = `id, recipe_id, position, amount, unit, name`

const photoColumns = `id, recipe_id, url, caption, is_primary, created_at`

type recipeRow struct {
	ID           string         `db:"id"`
	OwnerID      string         `db:"owner_id"`
	Title        string         `db:"title"`
	Description  string         `db:"description"`
	Instructions pq.StringArray `db:"instructions"`
	PrepTime     sql.NullInt64  `db:"prep_time"`
	CookTime     sql.NullInt64  `db:"cook_time"`
	Servings     sql.NullInt64  `db:"servings"`
	SourceName   string         `db:"source_name"`
	SourceNotes  string         `db:"source_notes"`
	SourceURL    string         `db:"source_url"`
	CategoryIDs  pq.StringArray `db:"category_ids"`
	IsPublic     bool           `db:"is_public"`
	IsFavorite   bool           `db:"is_favorite"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

type ingredientRow struct {
	ID       string          `db:"id"`
	RecipeID string          `db:"recipe_id"`
	Position int             `db:"position"`
	Amount   sql.NullFloat64 `db:"amount"`
	Unit     string          `db:"unit"`
	Name     string          `db:"name"`
}

type photoRow struct {
	ID        string    `db:"id"`
	RecipeID  string    `db:"recipe_id"`
	URL       string    `db:"url"`
	Caption   string    `db:"caption"`
	IsPrimary bool      `db:"is_primary"`
	CreatedAt time.Time `db:"created_at"`
}

func toRecipeRow(r *recipe.Recipe) recipeRow {
	return recipeRow{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		Title:        r.Title,
		Description:  r.Description,
		Instructions: pq.StringArray(append([]string{}, r.Instructions...)),
		PrepTime:     nullInt(r.PrepTime),
		CookTime:     nullInt(r.CookTime),
		Servings:     nullInt(r.Servings),
		SourceName:   r.SourceName,
		SourceNotes:  r.SourceNotes,
		SourceURL:    r.SourceURL,
		CategoryIDs:  pq.StringArray(append([]string{}, r.CategoryIDs...)),
		IsPublic:     r.IsPublic,
		IsFavorite:   r.IsFavorite,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (row recipeRow) toRecipe() recipe.Recipe {
	return recipe.Recipe{
		ID:           row.ID,
		OwnerID:      row.OwnerID,
		Title:        row.Title,
		Description:  row.Description,
		Instructions: append([]string{}, row.Instructions...),
		PrepTime:     intPtr(row.PrepTime),
		CookTime:     intPtr(row.CookTime),
		Servings:     intPtr(row.Servings),
		SourceName:   row.SourceName,
		SourceNotes:  row.SourceNotes,
		SourceURL:    row.SourceURL,
		CategoryIDs:  append([]string{}, row.CategoryIDs...),
		Ingredients:  []recipe.Ingredient{},
		Photos:       []recipe.Photo{},
		IsPublic:     row.IsPublic,
		IsFavorite:   row.IsFavorite,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func (row ingredientRow) toIngredient() recipe.Ingredient {
	ing := recipe.Ingredient{ID: row.ID, Unit: row.Unit, Name: row.Name}
	if row.Amount.Valid {
		v := row.Amount.Float64
		ing.Amount = &v
	}
	return ing
}

func (row photoRow) toPhoto() recipe.Photo {
	return recipe.Photo{
		ID:        row.ID,
		URL:       row.URL,
		Caption:   row.Caption,
		IsPrimary: row.IsPrimary,
		CreatedAt: row.CreatedAt,
	}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
