package extract

import (
	"testing"

	"github.com/cooperwalter/recipe-and-me/internal/core/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const graphPage = `<!doctype html>
<html><head>
<meta property="og:image" content="https://cdn.example.com/og.jpg">
<meta property="og:site_name" content="Example Kitchen">
<script type="application/ld+json">{"@context":"https://schema.org","@type":"WebSite","name":"Example"}</script>
<script type="application/ld+json">
{"@context":"https://schema.org","@graph":[
  {"@type":"WebPage","name":"Cookies page"},
  {"@type":["Recipe","NewsArticle"],
   "name":"Chocolate Chip Cookies &amp; Milk",
   "description":"<p>Chewy   cookies</p>",
   "recipeIngredient":["2 1/4 cups all-purpose flour","1 tsp baking soda","2 eggs","Salt to taste"],
   "recipeInstructions":[
     {"@type":"HowToSection","name":"Dough","itemListElement":[
       {"@type":"HowToStep","text":"Whisk the flour and soda."},
       {"@type":"HowToStep","text":"Beat in the eggs."}
     ]},
     {"@type":"HowToStep","text":"Bake 10 minutes."}
   ],
   "prepTime":"PT15M","cookTime":"PT1H",
   "recipeYield":["24","24 cookies"],
   "recipeCategory":"Dessert","recipeCuisine":["American"],
   "nutrition":{"@type":"NutritionInformation","calories":"150 kcal"},
   "image":{"@type":"ImageObject","url":"/img/cookies.jpg"}}
]}
</script>
</head><body></body></html>`

func TestParsePageGraph(t *testing.T) {
	page, err := ParsePage([]byte(graphPage))
	require.NoError(t, err)

	r := page.Recipe
	assert.Equal(t, "Chocolate Chip Cookies & Milk", r.Title)
	assert.Equal(t, "Chewy cookies", r.Description)
	require.Len(t, r.Ingredients, 4)
	assert.Equal(t, "2 1/4 cups all-purpose flour", r.Ingredients[0].Line)
	assert.Equal(t, []recipe.ExtractedStep{"Whisk the flour and soda.", "Beat in the eggs.", "Bake 10 minutes."}, r.Instructions)
	assert.Equal(t, recipe.StringValue("PT15M"), r.PrepTime)
	assert.Equal(t, recipe.StringValue("PT1H"), r.CookTime)
	assert.Equal(t, recipe.StringValue("24"), r.Servings)
	assert.Equal(t, "24, 24 cookies", r.Metadata.Yield)
	assert.Equal(t, "Dessert", r.Metadata.Category)
	assert.Equal(t, "American", r.Metadata.Cuisine)
	assert.JSONEq(t, `{"@type":"NutritionInformation","calories":"150 kcal"}`, string(r.Metadata.Nutrition))
	assert.Equal(t, "Example Kitchen", r.SourceName)
	assert.Equal(t, "/img/cookies.jpg", page.ImageURL)

	draft := recipe.NormalizeExtracted(r)
	require.NotNil(t, draft.PrepTime)
	assert.Equal(t, 15, *draft.PrepTime)
	assert.Equal(t, 60, *draft.CookTime)
	assert.Equal(t, 24, *draft.Servings)
	require.NotNil(t, draft.Ingredients[0].Amount)
	assert.Equal(t, 2.25, *draft.Ingredients[0].Amount)
	assert.Equal(t, "cups", draft.Ingredients[0].Unit)
	assert.Nil(t, draft.Ingredients[3].Amount)
	assert.Equal(t, "Salt to taste", draft.Ingredients[3].Name)
}

func TestParsePageArrayAndStringInstructions(t *testing.T) {
	body := `<html><head><meta property="og:image" content="https://cdn.example.com/og.jpg">
<script type="application/ld+json">[{"@type":"Organization","name":"X"},
{"@type":"http://schema.org/Recipe","name":"Soup","recipeIngredient":"1 onion",
 "recipeInstructions":"Chop onion.\nSimmer.<br>Serve.","recipeYield":4,"totalTime":"PT45M",
 "publisher":{"@type":"Organization","name":"Soup Co"}}]</script></head></html>`

	page, err := ParsePage([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, "Soup", page.Recipe.Title)
	assert.Equal(t, []recipe.ExtractedStep{"Chop onion.", "Simmer.", "Serve."}, page.Recipe.Instructions)
	assert.Equal(t, recipe.StringValue("4"), page.Recipe.Servings)
	assert.Equal(t, recipe.StringValue("PT45M"), page.Recipe.CookTime)
	assert.Equal(t, "Soup Co", page.Recipe.SourceName)
	assert.Equal(t, "https://cdn.example.com/og.jpg", page.ImageURL)
}

func TestParsePageWithoutRecipe(t *testing.T) {
	tests := map[string]string{
		"no json-ld":   `<html><head><title>Blog</title></head><body>Hello</body></html>`,
		"other type":   `<script type="application/ld+json">{"@type":"Article","name":"News"}</script>`,
		"invalid json": `<script type="application/ld+json">{not json</script>`,
		"empty recipe": `<script type="application/ld+json">{"@type":"Recipe"}</script>`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePage([]byte(body))
			assert.ErrorIs(t, err, recipe.ErrNoRecipeFound)
		})
	}
}
