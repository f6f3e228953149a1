package similarity

import (
	"testing"
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/core/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func ingredients(names ...string) []recipe.Ingredient {
	out := make([]recipe.Ingredient, len(names))
	for i, n := range names {
		out[i] = recipe.Ingredient{Name: n}
	}
	return out
}

var cookieBase = []string{
	"all-purpose flour", "baking soda", "salt", "butter", "granulated sugar",
	"brown sugar", "vanilla extract", "eggs", "chocolate chips", "sea salt flakes",
}

func cookies(extra ...string) recipe.Recipe {
	return recipe.Recipe{
		Title:       "Chocolate Chip Cookies",
		Servings:    intPtr(24),
		Ingredients: ingredients(append(append([]string{}, cookieBase...), extra...)...),
	}
}

func TestScoreChocolateChipScenario(t *testing.T) {
	candidate := cookies("walnuts", "cinnamon")
	existing := cookies("oats", "raisins")

	s := Compare(candidate, existing)
	assert.Equal(t, 1.0, s.Title)
	assert.InDelta(t, 20.0/24.0, s.Ingredients, 1e-9)
	assert.Equal(t, 1.0, s.Servings)

	matches := FindDuplicates(candidate, []recipe.Recipe{existing}, 0.7)
	require.Len(t, matches, 1)
	assert.True(t, matches[0].IsDuplicate)
	assert.GreaterOrEqual(t, matches[0].Score.Overall, 0.7)
}

func TestScoreScenarioHoldsWithDifferentSteps(t *testing.T) {
	candidate := cookies("walnuts", "cinnamon")
	candidate.Instructions = []string{"Cream butter and sugar.", "Fold in chips."}
	candidate.CookTime = intPtr(12)
	existing := cookies("oats", "raisins")
	existing.Instructions = []string{"Whisk everything together quickly."}

	s := Compare(candidate, existing)
	assert.Equal(t, 0.5, s.Time)
	assert.GreaterOrEqual(t, s.Overall, 0.7)
}

func TestScoreReflexive(t *testing.T) {
	r := cookies("walnuts")
	r.Instructions = []string{"Preheat oven to 350F.", "Bake 10 minutes."}
	r.PrepTime = intPtr(15)

	s := Compare(r, r)
	assert.Equal(t, Score{Overall: 1, Title: 1, Ingredients: 1, Instructions: 1, Servings: 1, Time: 1}, s)
}

func TestScoreSymmetric(t *testing.T) {
	pairs := [][2]recipe.Recipe{
		{cookies("walnuts"), cookies("oats", "raisins")},
		{
			{Title: "Tomato Soup", Ingredients: ingredients("tomatoes", "Onion (diced)", "cream"), Servings: intPtr(4)},
			{Title: "Creamy tomato soup!", Ingredients: ingredients("tomato", "onion", "basil"), PrepTime: intPtr(10)},
		},
		{{Title: "A"}, {Title: "Completely different dish", Ingredients: ingredients("rice")}},
	}
	for _, p := range pairs {
		ab := Compare(p[0], p[1])
		ba := Compare(p[1], p[0])
		assert.Equal(t, ab, ba, "%s vs %s", p[0].Title, p[1].Title)
	}
}

func TestIngredientKeysIgnoreNotesCaseAndPlurals(t *testing.T) {
	a := recipe.Recipe{Ingredients: ingredients("Tomatoes (ripe)", "Eggs", "Cherries")}
	b := recipe.Recipe{Ingredients: ingredients("tomato", "egg", "cherry")}
	assert.Equal(t, 1.0, Compare(a, b).Ingredients)
}

func TestTitleSimilarity(t *testing.T) {
	exact := Compare(recipe.Recipe{Title: "  Banana   Bread "}, recipe.Recipe{Title: "banana bread"})
	assert.Equal(t, 1.0, exact.Title)

	near := Compare(recipe.Recipe{Title: "Banana Bread"}, recipe.Recipe{Title: "Banana Breads"})
	far := Compare(recipe.Recipe{Title: "Banana Bread"}, recipe.Recipe{Title: "Beef Stew"})
	assert.Greater(t, near.Title, 0.8)
	assert.Less(t, far.Title, near.Title)
}

func TestNumericSimilarity(t *testing.T) {
	tests := []struct {
		name       string
		hasA, hasB bool
		a, b       int
		want       float64
	}{
		{"both absent", false, false, 0, 0, 1},
		{"one absent", true, false, 4, 0, 0.5},
		{"one absent zero not conflated", false, true, 0, 0, 0.5},
		{"equal", true, true, 4, 4, 1},
		{"double", true, true, 4, 8, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, numericSimilarity(tt.hasA, tt.hasB, tt.a, tt.b))
		})
	}
}

func TestFindDuplicatesOrdering(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candidate := cookies("walnuts", "cinnamon")

	later := cookies("walnuts", "cinnamon")
	later.ID, later.CreatedAt = "later", base.Add(time.Hour)
	earlier := cookies("walnuts", "cinnamon")
	earlier.ID, earlier.CreatedAt = "earlier", base
	sameTime := cookies("walnuts", "cinnamon")
	sameTime.ID, sameTime.CreatedAt = "same-time", base
	weaker := cookies("oats", "raisins")
	weaker.ID, weaker.CreatedAt = "weaker", base.Add(-time.Hour)
	unrelated := recipe.Recipe{ID: "unrelated", Title: "Beef Stew", Ingredients: ingredients("beef", "carrots")}

	corpus := []recipe.Recipe{later, weaker, unrelated, earlier, sameTime}
	matches := FindDuplicates(candidate, corpus, 0.7)

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.Recipe.ID
	}
	assert.Equal(t, []string{"earlier", "same-time", "later", "weaker"}, ids)

	// 相同輸入結果相同
	assert.Equal(t, matches, FindDuplicates(candidate, corpus, 0.7))
}

func TestFindDuplicatesSkipsSelfAndBelowThreshold(t *testing.T) {
	self := cookies()
	self.ID = "r1"
	other := recipe.Recipe{ID: "r2", Title: "Beef Stew"}

	matches := FindDuplicates(self, []recipe.Recipe{self, other}, 0.7)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestNewScorerRejectsInvalidWeights(t *testing.T) {
	assert.Equal(t, DefaultWeights, NewScorer(Weights{}).Weights())
	assert.Equal(t, DefaultWeights, NewScorer(Weights{Title: -1, Ingredients: 2}).Weights())

	titleOnly := NewScorer(Weights{Title: 1})
	s := titleOnly.Score(recipe.Recipe{Title: "Soup"}, recipe.Recipe{Title: "soup", Servings: intPtr(2)})
	assert.Equal(t, 1.0, s.Overall)
}
