package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cooperwalter/recipe-and-me/internal/core/recipe"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Page 網頁中找到的食譜資料
type Page struct {
	Recipe   recipe.ExtractedRecipe
	ImageURL string
}

// pageMeta 網頁 <head> 中的 meta 與 JSON-LD 區塊
type pageMeta struct {
	scripts  []string
	ogImage  string
	siteName string
}

// ParsePage 由 HTML 找出 schema.org Recipe，找不到時回傳 ErrNoRecipeFound
func ParsePage(body []byte) (*Page, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, recipe.WrapError(recipe.ErrMalformedUpstreamResponse, "parse html", err)
	}

	meta := &pageMeta{}
	collect(doc, meta)

	for _, script := range meta.scripts {
		var data interface{}
		if err := json.Unmarshal([]byte(cleanScript(script)), &data); err != nil {
			continue
		}
		node := findRecipeNode(data)
		if node == nil {
			continue
		}

		page := &Page{Recipe: mapRecipe(node), ImageURL: imageURL(node["image"])}
		if page.ImageURL == "" {
			page.ImageURL = meta.ogImage
		}
		if page.Recipe.SourceName == "" {
			page.Recipe.SourceName = meta.siteName
		}
		if page.Recipe.IsEmpty() {
			continue
		}
		return page, nil
	}
	return nil, recipe.WrapError(recipe.ErrNoRecipeFound, "parse page", fmt.Errorf("%d json-ld blocks without recipe", len(meta.scripts)))
}

func collect(n *html.Node, meta *pageMeta) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script:
			if strings.EqualFold(strings.TrimSpace(attr(n, "type")), "application/ld+json") {
				var b strings.Builder
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.TextNode {
						b.WriteString(c.Data)
					}
				}
				meta.scripts = append(meta.scripts, b.String())
			}
		case atom.Meta:
			switch attr(n, "property") {
			case "og:image", "og:image:url", "og:image:secure_url":
				if meta.ogImage == "" {
					meta.ogImage = strings.TrimSpace(attr(n, "content"))
				}
			case "og:site_name":
				meta.siteName = strings.TrimSpace(attr(n, "content"))
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, meta)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// cleanScript 去除部分網站包在 JSON-LD 外的 CDATA 與註解
func cleanScript(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "//<![CDATA[")
	s = strings.TrimPrefix(s, "<![CDATA[")
	s = strings.TrimSuffix(s, "//]]>")
	s = strings.TrimSuffix(s, "]]>")
	return strings.TrimSpace(s)
}

// findRecipeNode 遞迴尋找 @type 為 Recipe 的節點（含 @graph、陣列、mainEntity）
func findRecipeNode(v interface{}) map[string]interface{} {
	switch t := v.(type) {
	case []interface{}:
		for _, item := range t {
			if node := findRecipeNode(item); node != nil {
				return node
			}
		}
	case map[string]interface{}:
		if isType(t["@type"], "Recipe") {
			return t
		}
		for _, key := range []string{"@graph", "mainEntity", "mainEntityOfPage", "itemListElement", "item"} {
			if child, ok := t[key]; ok {
				if node := findRecipeNode(child); node != nil {
					return node
				}
			}
		}
	}
	return nil
}

func isType(v interface{}, want string) bool {
	switch t := v.(type) {
	case string:
		return strings.EqualFold(t, want) || strings.EqualFold(strings.TrimPrefix(t, "http://schema.org/"), want) ||
			strings.EqualFold(strings.TrimPrefix(t, "https://schema.org/"), want)
	case []interface{}:
		for _, item := range t {
			if isType(item, want) {
				return true
			}
		}
	}
	return false
}

func mapRecipe(node map[string]interface{}) recipe.ExtractedRecipe {
	out := recipe.ExtractedRecipe{
		Title:       cleanText(text(node["name"])),
		Description: cleanText(text(node["description"])),
		PrepTime:    recipe.StringValue(text(node["prepTime"])),
		CookTime:    recipe.StringValue(text(node["cookTime"])),
		SourceName:  cleanText(name(node["publisher"])),
	}

	for _, line := range textList(node["recipeIngredient"]) {
		if line = cleanText(line); line != "" {
			out.Ingredients = append(out.Ingredients, recipe.ExtractedIngredient{Line: line})
		}
	}
	if len(out.Ingredients) == 0 {
		// 舊版 schema 使用 ingredients
		for _, line := range textList(node["ingredients"]) {
			if line = cleanText(line); line != "" {
				out.Ingredients = append(out.Ingredients, recipe.ExtractedIngredient{Line: line})
			}
		}
	}

	for _, step := range instructions(node["recipeInstructions"]) {
		out.Instructions = append(out.Instructions, recipe.ExtractedStep(step))
	}

	yield := textList(node["recipeYield"])
	if len(yield) > 0 {
		out.Servings = recipe.StringValue(yield[0])
		out.Metadata.Yield = cleanText(strings.Join(yield, ", "))
	}
	out.Metadata.Category = cleanText(strings.Join(textList(node["recipeCategory"]), ", "))
	out.Metadata.Cuisine = cleanText(strings.Join(textList(node["recipeCuisine"]), ", "))
	if nutrition, ok := node["nutrition"].(map[string]interface{}); ok {
		if raw, err := json.Marshal(nutrition); err == nil {
			out.Metadata.Nutrition = raw
		}
	}

	// 只有總時間時視為烹調時間
	if !out.PrepTime.Present && !out.CookTime.Present {
		out.CookTime = recipe.StringValue(text(node["totalTime"]))
	}
	return out
}

// instructions 展開字串、HowToStep 與 HowToSection
func instructions(v interface{}) []string {
	var out []string
	switch t := v.(type) {
	case string:
		for _, line := range strings.Split(cleanLines(t), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
	case []interface{}:
		for _, item := range t {
			out = append(out, instructions(item)...)
		}
	case map[string]interface{}:
		if isType(t["@type"], "HowToSection") || t["itemListElement"] != nil {
			return instructions(t["itemListElement"])
		}
		step := text(t["text"])
		if step == "" {
			step = text(t["name"])
		}
		if step = cleanText(step); step != "" {
			out = append(out, step)
		}
	}
	return out
}

// imageURL 取出 image 欄位的網址（字串、陣列或 ImageObject）
func imageURL(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []interface{}:
		for _, item := range t {
			if u := imageURL(item); u != "" {
				return u
			}
		}
	case map[string]interface{}:
		if u := imageURL(t["url"]); u != "" {
			return u
		}
		return imageURL(t["contentUrl"])
	}
	return ""
}

// name 取出物件的 name，或字串本身
func name(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]interface{}:
		return text(t["name"])
	case []interface{}:
		for _, item := range t {
			if n := name(item); n != "" {
				return n
			}
		}
	}
	return ""
}

// text 將字串或數字轉為文字
func text(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%g", t))
	case []interface{}:
		if len(t) > 0 {
			return text(t[0])
		}
	}
	return ""
}

// textList 將字串、數字或陣列展開為字串列表
func textList(v interface{}) []string {
	switch t := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := text(item); s != "" {
				out = append(out, s)
			} else if n := name(item); n != "" {
				out = append(out, n)
			}
		}
		return out
	case nil:
		return nil
	default:
		if s := text(t); s != "" {
			return []string{s}
		}
	}
	return nil
}

// cleanText 解碼 HTML 實體、移除標籤並合併空白
func cleanText(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(html.UnescapeString(stripTags(s))), " ")
}

// cleanLines 同 cleanText 但保留換行
func cleanLines(s string) string {
	lines := strings.Split(html.UnescapeString(stripTags(s)), "\n")
	for i, l := range lines {
		lines[i] = strings.Join(strings.Fields(l), " ")
	}
	return strings.Join(lines, "\n")
}

func stripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			if tag, _ := z.TagName(); string(tag) == "br" || string(tag) == "p" || string(tag) == "li" {
				b.WriteByte('\n')
			}
		}
	}
}
