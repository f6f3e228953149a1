package recipe

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeExtractedMergesNotes(t *testing.T) {
	r := NormalizeExtracted(ExtractedRecipe{
		Title: "Bread",
		Ingredients: []ExtractedIngredient{
			{Name: "flour", Notes: "sifted", Amount: StringValue("2"), Unit: "cups"},
		},
	})

	require.Len(t, r.Ingredients, 1)
	assert.Equal(t, "flour (sifted)", r.Ingredients[0].Name)
	assert.Equal(t, 2.0, *r.Ingredients[0].Amount)
	assert.Equal(t, "cups", r.Ingredients[0].Unit)
}

func TestNormalizeExtractedFreeTextLines(t *testing.T) {
	payload := ParsePayload(`{"title":"Basics","ingredients":["1 cup flour","1/2 tsp salt","eggs"]}`)
	require.Equal(t, PayloadValid, payload.Kind)

	r := NormalizeExtracted(payload.Recipe)
	require.Len(t, r.Ingredients, 3)

	assert.Equal(t, Ingredient{Amount: floatPtr(1), Unit: "cup", Name: "flour"}, r.Ingredients[0])
	assert.Equal(t, Ingredient{Amount: floatPtr(0.5), Unit: "tsp", Name: "salt"}, r.Ingredients[1])
	assert.Equal(t, Ingredient{Name: "eggs"}, r.Ingredients[2])
}

func TestNormalizeExtractedDefaults(t *testing.T) {
	r := NormalizeExtracted(ExtractedRecipe{})

	assert.Equal(t, "", r.Title)
	assert.NotNil(t, r.Ingredients)
	assert.Empty(t, r.Ingredients)
	assert.NotNil(t, r.Instructions)
	assert.Empty(t, r.Instructions)
	assert.Nil(t, r.PrepTime)
	assert.Nil(t, r.CookTime)
	assert.Nil(t, r.Servings)
	assert.Empty(t, r.SourceName)
}

func TestNormalizeExtractedUnparseableAmountIsLocal(t *testing.T) {
	r := NormalizeExtracted(ExtractedRecipe{
		Title: "Soup",
		Ingredients: []ExtractedIngredient{
			{Name: "salt", Amount: StringValue("a pinch")},
			{Name: "water", Amount: StringValue("2/0"), Unit: "cups"},
			{Name: "  ", Amount: StringValue("1")},
		},
	})

	require.Len(t, r.Ingredients, 2)
	assert.Nil(t, r.Ingredients[0].Amount)
	assert.Nil(t, r.Ingredients[1].Amount)
	assert.Equal(t, "cups", r.Ingredients[1].Unit)
}

func TestNormalizeExtractedNumericCoercion(t *testing.T) {
	payload := ParsePayload(`{
		"title": "Stew",
		"prepTime": "15",
		"cookTime": "PT1H30M",
		"servings": "4 servings",
		"instructions": ["Brown the beef.", {"text": "Simmer."}, "  "]
	}`)
	require.Equal(t, PayloadValid, payload.Kind)

	r := NormalizeExtracted(payload.Recipe)
	assert.Equal(t, intPtr(15), r.PrepTime)
	assert.Equal(t, intPtr(90), r.CookTime)
	assert.Equal(t, intPtr(4), r.Servings)
	assert.Equal(t, []string{"Brown the beef.", "Simmer."}, r.Instructions)
}

func TestNormalizeExtractedFailedCoercionLeavesAbsent(t *testing.T) {
	payload := ParsePayload(`{"title":"X","prepTime":"soon","cookTime":true,"servings":"NaN"}`)
	require.Equal(t, PayloadValid, payload.Kind)

	r := NormalizeExtracted(payload.Recipe)
	assert.Nil(t, r.PrepTime)
	assert.Nil(t, r.CookTime)
	assert.Nil(t, r.Servings)
}

func TestNormalizeExtractedDoesNotFabricateSourceName(t *testing.T) {
	r := NormalizeExtracted(ExtractedRecipe{Title: "X"})
	assert.Empty(t, r.SourceName)

	r = NormalizeExtracted(ExtractedRecipe{Title: "X", SourceName: " Grandma Rose "})
	assert.Equal(t, "Grandma Rose", r.SourceName)
}

func TestParsePayloadKinds(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind PayloadKind
		err  error
	}{
		{"no json at all", "Sorry, I can't help with that.", PayloadMalformed, ErrMalformedUpstreamResponse},
		{"broken json", `{"title": "Soup", "ingredients": [}`, PayloadMalformed, ErrMalformedUpstreamResponse},
		{"wrong type", `{"title": 42}`, PayloadMalformed, ErrMalformedUpstreamResponse},
		{"empty object", `{}`, PayloadEmpty, ErrNoRecipeFound},
		{"only blanks", `{"title":"  ","ingredients":[],"instructions":[""]}`, PayloadEmpty, ErrNoRecipeFound},
		{"fenced valid", "```json\n{\"title\":\"Soup\"}\n```", PayloadValid, nil},
		{"unquoted keys", `{title: "Soup", servings: 2}`, PayloadValid, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePayload(tt.text)
			assert.Equal(t, tt.kind, p.Kind, p.Kind.String())

			_, err := p.Extracted()
			if tt.err == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, tt.err), "got %v", err)
			}
		})
	}
}

func TestParsePayloadStructuredIngredients(t *testing.T) {
	p := ParsePayload(`{"title":"Cake","ingredients":[
		{"ingredient":"sugar","amount":"1 1/2","unit":"cups"},
		{"name":"butter","quantity":0.5,"unit":"cup","notes":"melted"},
		{"ingredient":"vanilla","amount":null}
	]}`)
	require.Equal(t, PayloadValid, p.Kind)

	r := NormalizeExtracted(p.Recipe)
	require.Len(t, r.Ingredients, 3)
	assert.Equal(t, 1.5, *r.Ingredients[0].Amount)
	assert.Equal(t, "butter (melted)", r.Ingredients[1].Name)
	assert.Equal(t, 0.5, *r.Ingredients[1].Amount)
	assert.Nil(t, r.Ingredients[2].Amount)
}

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"PT15M", 15, true},
		{"PT1H", 60, true},
		{"PT1H30M", 90, true},
		{"P1DT2H", 1560, true},
		{"PT90S", 2, true},
		{"pt20m", 20, true},
		{"PT", 0, false},
		{"P", 0, false},
		{"15 minutes", 0, false},
		{"P99999999999999999D", 0, false},
		{"PT2147483647M", 2147483647, true},
		{"PT2147483648M", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseISODuration(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNormalizeExtractedRejectsOutOfRangeCounts(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"huge numbers", `{"title":"X","prepTime":1e30,"cookTime":"P99999999999999999D","servings":1e300}`},
		{"huge strings", `{"title":"X","prepTime":"9223372036854775808","cookTime":"3000000000","servings":"3000000000 servings"}`},
		{"negative", `{"title":"X","prepTime":-5,"cookTime":"-1","servings":-2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := ParsePayload(tt.payload).Extracted()
			require.NoError(t, err)
			r := NormalizeExtracted(e)
			assert.Nil(t, r.PrepTime)
			assert.Nil(t, r.CookTime)
			assert.Nil(t, r.Servings)
		})
	}
}

func TestTotalTimeDoesNotOverflow(t *testing.T) {
	huge := math.MaxInt
	negative := -10
	r := Recipe{PrepTime: &huge, CookTime: &huge}
	total, ok := r.TotalTime()
	assert.True(t, ok)
	assert.Equal(t, 2*MaxCount, total)

	r = Recipe{PrepTime: &negative}
	total, ok = r.TotalTime()
	assert.True(t, ok)
	assert.Equal(t, 0, total)
}
