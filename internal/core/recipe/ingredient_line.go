package recipe

import (
	"regexp"
	"strings"
)

// 數字緊接單位，例如 "100g"
var attachedUnitPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?|\d+/\d+)([A-Za-z]+\.?)$`)

// 可辨識的單位，比對時忽略大小寫與結尾句點
var knownUnits = map[string]bool{
	"cup": true, "cups": true, "c": true,
	"tablespoon": true, "tablespoons": true, "tbsp": true, "tbs": true, "tbl": true,
	"teaspoon": true, "teaspoons": true, "tsp": true, "tsps": true,
	"ounce": true, "ounces": true, "oz": true,
	"pound": true, "pounds": true, "lb": true, "lbs": true,
	"gram": true, "grams": true, "g": true,
	"kilogram": true, "kilograms": true, "kg": true,
	"milligram": true, "milligrams": true, "mg": true,
	"milliliter": true, "milliliters": true, "millilitre": true, "millilitres": true, "ml": true,
	"liter": true, "liters": true, "litre": true, "litres": true, "l": true,
	"quart": true, "quarts": true, "qt": true,
	"pint": true, "pints": true, "pt": true,
	"gallon": true, "gallons": true, "gal": true,
	"pinch": true, "pinches": true, "dash": true, "dashes": true,
	"clove": true, "cloves": true, "can": true, "cans": true,
	"package": true, "packages": true, "pkg": true,
	"stick": true, "sticks": true, "slice": true, "slices": true,
	"piece": true, "pieces": true, "bunch": true, "bunches": true,
	"sprig": true, "sprigs": true, "handful": true, "handfuls": true,
	"jar": true, "jars": true, "head": true, "heads": true,
	"stalk": true, "stalks": true, "sheet": true, "sheets": true,
}

func isUnit(token string) bool {
	return knownUnits[strings.ToLower(strings.TrimSuffix(token, "."))]
}

// ParseIngredientLine 解析單行食材文字，例如 "1 1/2 cups flour"
//
// 開頭需為數量（整數、小數、分數或帶分數），其後可接單位，剩餘為食材名稱。
// 不符合此格式時整行作為名稱，不帶份量與單位。
func ParseIngredientLine(line string) Ingredient {
	trimmed := strings.Join(strings.Fields(line), " ")
	tokens := strings.Fields(trimmed)
	if len(tokens) == 0 {
		return Ingredient{}
	}

	amount, unit, rest, ok := splitQuantity(tokens)
	if !ok || len(rest) == 0 {
		return Ingredient{Name: trimmed}
	}

	if unit == "" && len(rest) > 1 && isUnit(rest[0]) {
		unit = rest[0]
		rest = rest[1:]
	}

	return Ingredient{
		Amount: &amount,
		Unit:   strings.TrimSuffix(unit, "."),
		Name:   strings.Join(rest, " "),
	}
}

// splitQuantity 取出開頭的數量 token
func splitQuantity(tokens []string) (amount float64, unit string, rest []string, ok bool) {
	// 帶分數 "1 1/2"
	if len(tokens) >= 2 && strings.Contains(tokens[1], "/") {
		if v, ok := NormalizeAmount(tokens[0] + " " + tokens[1]); ok && !strings.Contains(tokens[0], "/") {
			return v, "", tokens[2:], true
		}
	}

	if v, ok := NormalizeAmount(tokens[0]); ok {
		return v, "", tokens[1:], true
	}

	if m := attachedUnitPattern.FindStringSubmatch(tokens[0]); m != nil && isUnit(m[2]) {
		if v, ok := NormalizeAmount(m[1]); ok {
			return v, m[2], tokens[1:], true
		}
	}

	return 0, "", nil, false
}
