package recipe

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// MaxCount 分鐘數與份數的上限
const MaxCount = math.MaxInt32

var (
	isoDurationPattern  = regexp.MustCompile(`^P(?:(\d+(?:\.\d+)?)D)?(?:T(?:(\d+(?:\.\d+)?)H)?(?:(\d+(?:\.\d+)?)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)
	firstIntegerPattern = regexp.MustCompile(`\d+`)
)

// NormalizeExtracted 將擷取結果轉為食譜草稿
//
// 缺少的欄位一律為空字串或空陣列；數值欄位轉換失敗時保持 nil。
// 來源名稱不在此推導，由儲存端依 URL 補上。
func NormalizeExtracted(e ExtractedRecipe) Recipe {
	r := Recipe{
		Title:        strings.TrimSpace(e.Title),
		Description:  strings.TrimSpace(e.Description),
		Ingredients:  make([]Ingredient, 0, len(e.Ingredients)),
		Instructions: make([]string, 0, len(e.Instructions)),
		PrepTime:     coerceMinutes(e.PrepTime),
		CookTime:     coerceMinutes(e.CookTime),
		Servings:     coerceServings(e.Servings),
		SourceName:   strings.TrimSpace(e.SourceName),
		SourceNotes:  strings.TrimSpace(e.SourceNotes),
		CategoryIDs:  []string{},
		Photos:       []Photo{},
	}

	for _, raw := range e.Ingredients {
		if ing, ok := normalizeIngredient(raw); ok {
			r.Ingredients = append(r.Ingredients, ing)
		}
	}

	for _, step := range e.Instructions {
		if text := strings.TrimSpace(string(step)); text != "" {
			r.Instructions = append(r.Instructions, text)
		}
	}

	return r
}

func normalizeIngredient(raw ExtractedIngredient) (Ingredient, bool) {
	if line := strings.TrimSpace(raw.Line); line != "" {
		ing := ParseIngredientLine(line)
		return ing, ing.Name != ""
	}

	name := strings.Join(strings.Fields(raw.Name), " ")
	if name == "" {
		return Ingredient{}, false
	}
	if notes := strings.TrimSpace(raw.Notes); notes != "" {
		name = name + " (" + notes + ")"
	}

	ing := Ingredient{
		Unit: strings.TrimSpace(raw.Unit),
		Name: name,
	}
	if raw.Amount.Present {
		ing.Amount = AmountPtr(raw.Amount.Raw)
	}
	return ing, true
}

// coerceMinutes 分鐘數：數字或 ISO-8601 期間（PT1H30M）
func coerceMinutes(v LooseValue) *int {
	if !v.Present || v.Raw == "" {
		return nil
	}
	if minutes, ok := ParseISODuration(v.Raw); ok {
		return &minutes
	}
	f, ok := parseNumber(v.Raw)
	if !ok {
		return nil
	}
	minutes, ok := roundCount(f)
	if !ok {
		return nil
	}
	return &minutes
}

// coerceServings 份數需為正整數，"4 servings" 取第一個整數
func coerceServings(v LooseValue) *int {
	if !v.Present || v.Raw == "" {
		return nil
	}
	f, ok := parseNumber(v.Raw)
	if !ok {
		m := firstIntegerPattern.FindString(v.Raw)
		if m == "" {
			return nil
		}
		f, ok = parseNumber(m)
		if !ok {
			return nil
		}
	}
	servings, ok := roundCount(f)
	if !ok || servings < 1 {
		return nil
	}
	return &servings
}

// roundCount 四捨五入為 0 到 MaxCount 之間的整數
func roundCount(f float64) (int, bool) {
	f = math.Round(f)
	if math.IsNaN(f) || f < 0 || f > MaxCount {
		return 0, false
	}
	return int(f), true
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

// ParseISODuration 將 ISO-8601 期間轉為分鐘（四捨五入）
func ParseISODuration(s string) (int, bool) {
	m := isoDurationPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(s)))
	if m == nil || (m[1] == "" && m[2] == "" && m[3] == "" && m[4] == "") {
		return 0, false
	}
	part := func(v string) float64 {
		if v == "" {
			return 0
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return roundCount(part(m[1])*24*60 + part(m[2])*60 + part(m[3]) + part(m[4])/60)
}
