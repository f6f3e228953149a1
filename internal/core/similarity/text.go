package similarity

import (
	"strings"
	"unicode"
)

// 指示步驟中不具辨識度的字
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "the": {}, "of": {}, "to": {}, "in": {}, "into": {}, "on": {},
	"for": {}, "with": {}, "until": {}, "or": {}, "at": {}, "by": {}, "it": {}, "is": {}, "be": {},
	"then": {}, "from": {}, "over": {}, "about": {}, "your": {}, "each": {}, "all": {}, "some": {},
	"minutes": {}, "minute": {}, "min": {}, "mins": {},
}

// normalizeText 小寫並將標點轉為空白，連續空白合併
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// bigrams 字元雙字組（忽略空白），回傳出現次數
func bigrams(s string) map[string]int {
	runes := []rune(strings.ReplaceAll(s, " ", ""))
	out := make(map[string]int, len(runes))
	for i := 0; i+1 < len(runes); i++ {
		out[string(runes[i:i+2])]++
	}
	return out
}

// bigramDice 多重集合 Dice 係數
func bigramDice(a, b map[string]int) float64 {
	na, nb := 0, 0
	for _, n := range a {
		na += n
	}
	for _, n := range b {
		nb += n
	}
	if na+nb == 0 {
		return 0
	}
	shared := 0
	for g, n := range a {
		shared += min(n, b[g])
	}
	return 2 * float64(shared) / float64(na+nb)
}

// setDice 集合 Dice 係數，兩者皆空為 1
func setDice(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	shared := 0
	for k := range small {
		if _, ok := large[k]; ok {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(a)+len(b))
}

// ingredientKey 食材名稱的比對鍵：去除括號備註、標點，單字轉單數
func ingredientKey(name string) string {
	name = stripParentheticals(name)
	words := strings.Fields(normalizeText(name))
	for i, w := range words {
		words[i] = singular(w)
	}
	return strings.Join(words, " ")
}

func stripParentheticals(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '(':
			depth++
		case r == ')' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// singular 簡易英文單數化
func singular(w string) string {
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case len(w) > 4 && (strings.HasSuffix(w, "ches") || strings.HasSuffix(w, "shes") ||
		strings.HasSuffix(w, "xes") || strings.HasSuffix(w, "oes")):
		return w[:len(w)-2]
	case len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return w[:len(w)-1]
	}
	return w
}

// contentWords 步驟內容字集合
func contentWords(steps []string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, step := range steps {
		for _, w := range strings.Fields(normalizeText(step)) {
			if _, skip := stopwords[w]; skip {
				continue
			}
			out[singular(w)] = struct{}{}
		}
	}
	return out
}
