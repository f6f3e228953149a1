package postgres

import (
	"context"
	"fmt"
)

// schema 資料表定義，重複執行不會變更既有資料
var schema = []string{
	`CREATE TABLE IF NOT EXISTS recipes (
		id UUID PRIMARY KEY,
		owner_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		instructions TEXT[] NOT NULL DEFAULT '{}',
		prep_time INTEGER,
		cook_time INTEGER,
		servings INTEGER,
		source_name TEXT NOT NULL DEFAULT '',
		source_notes TEXT NOT NULL DEFAULT '',
		source_url TEXT NOT NULL DEFAULT '',
		category_ids TEXT[] NOT NULL DEFAULT '{}',
		is_public BOOLEAN NOT NULL DEFAULT FALSE,
		is_favorite BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS recipes_owner_created_idx ON recipes (owner_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS recipe_ingredients (
		id UUID PRIMARY KEY,
		recipe_id UUID NOT NULL REFERENCES recipes (id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		amount DOUBLE PRECISION,
		unit TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS recipe_ingredients_recipe_idx ON recipe_ingredients (recipe_id, position)`,
	`CREATE TABLE IF NOT EXISTS recipe_photos (
		id UUID PRIMARY KEY,
		recipe_id UUID NOT NULL REFERENCES recipes (id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		caption TEXT NOT NULL DEFAULT '',
		is_primary BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS recipe_photos_recipe_idx ON recipe_photos (recipe_id, created_at)`,
}

// EnsureSchema 建立資料表與索引
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
