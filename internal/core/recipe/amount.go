package recipe

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	mixedFractionPattern = regexp.MustCompile(`^(?:(\d+)\s+)?(\d+)\s*/\s*(\d+)$`)
	plainNumberPattern   = regexp.MustCompile(`^(?:\d+(?:\.\d*)?|\.\d+)$`)

	// unicode 分數字元
	vulgarFractions = strings.NewReplacer(
		"½", " 1/2", "⅓", " 1/3", "⅔", " 2/3", "¼", " 1/4", "¾", " 3/4",
		"⅕", " 1/5", "⅖", " 2/5", "⅗", " 3/5", "⅘", " 4/5", "⅙", " 1/6",
		"⅚", " 5/6", "⅛", " 1/8", "⅜", " 3/8", "⅝", " 5/8", "⅞", " 7/8",
		"⁄", "/",
	)
)

// NormalizeAmount 將份量字串轉為數值
//
// 支援整數、小數、分數與帶分數（"1 1/2"）。空字串、無法解析、分母為 0、
// 負數皆回傳 ok=false，呼叫端應視為「沒有份量」而不是 0。
func NormalizeAmount(raw string) (float64, bool) {
	s := strings.TrimSpace(vulgarFractions.Replace(raw))
	if s == "" {
		return 0, false
	}
	s = strings.Join(strings.Fields(s), " ")

	if m := mixedFractionPattern.FindStringSubmatch(s); m != nil {
		whole := 0.0
		if m[1] != "" {
			w, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return 0, false
			}
			whole = w
		}
		num, errN := strconv.ParseFloat(m[2], 64)
		den, errD := strconv.ParseFloat(m[3], 64)
		if errN != nil || errD != nil || den == 0 {
			return 0, false
		}
		return finite(whole + num/den)
	}

	if !plainNumberPattern.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return finite(v)
}

// AmountPtr NormalizeAmount 的指標版本，無法解析時回傳 nil
func AmountPtr(raw string) *float64 {
	v, ok := NormalizeAmount(raw)
	if !ok {
		return nil
	}
	return &v
}

func finite(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}
