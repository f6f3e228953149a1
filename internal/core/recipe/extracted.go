package recipe

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"
)

// ExtractedRecipe 擷取結果（網頁或逐字稿），尚未正規化
type ExtractedRecipe struct {
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Ingredients  []ExtractedIngredient `json:"ingredients"`
	Instructions []ExtractedStep       `json:"instructions"`
	PrepTime     LooseValue            `json:"prepTime"`
	CookTime     LooseValue            `json:"cookTime"`
	Servings     LooseValue            `json:"servings"`
	SourceName   string                `json:"sourceName"`
	SourceNotes  string                `json:"sourceNotes"`
	Metadata     Metadata              `json:"metadata"`
}

// IsEmpty 沒有標題、食材與步驟
func (e *ExtractedRecipe) IsEmpty() bool {
	if strings.TrimSpace(e.Title) != "" {
		return false
	}
	for _, ing := range e.Ingredients {
		if strings.TrimSpace(ing.Line) != "" || strings.TrimSpace(ing.Name) != "" {
			return false
		}
	}
	for _, step := range e.Instructions {
		if strings.TrimSpace(string(step)) != "" {
			return false
		}
	}
	return true
}

// ExtractedIngredient 結構化食材，或 Line 不為空時的單行文字
type ExtractedIngredient struct {
	Line   string
	Amount LooseValue
	Unit   string
	Name   string
	Notes  string
}

// UnmarshalJSON 接受字串或物件
func (i *ExtractedIngredient) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &i.Line)
	}

	var obj struct {
		Ingredient string     `json:"ingredient"`
		Name       string     `json:"name"`
		Amount     LooseValue `json:"amount"`
		Quantity   LooseValue `json:"quantity"`
		Unit       string     `json:"unit"`
		Notes      string     `json:"notes"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	i.Name = obj.Ingredient
	if i.Name == "" {
		i.Name = obj.Name
	}
	i.Amount = obj.Amount
	if !i.Amount.Present {
		i.Amount = obj.Quantity
	}
	i.Unit = obj.Unit
	i.Notes = obj.Notes
	return nil
}

// ExtractedStep 步驟文字，可為字串或含 text 的物件
type ExtractedStep string

// UnmarshalJSON 接受字串或 {"text": ...}
func (s *ExtractedStep) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = ExtractedStep(text)
		return nil
	}
	var obj struct {
		Text        string `json:"text"`
		Instruction string `json:"instruction"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	switch {
	case obj.Text != "":
		*s = ExtractedStep(obj.Text)
	case obj.Instruction != "":
		*s = ExtractedStep(obj.Instruction)
	default:
		*s = ExtractedStep(obj.Description)
	}
	return nil
}

// LooseValue 數字或字串欄位的原始文字
//
// 型別不符（布林、物件、陣列）時視為存在但無法轉換，不會讓整份 payload 失敗。
type LooseValue struct {
	Raw     string
	Present bool
}

// StringValue 由字串建立 LooseValue，空字串視為不存在
func StringValue(s string) LooseValue {
	s = strings.TrimSpace(s)
	return LooseValue{Raw: s, Present: s != ""}
}

// UnmarshalJSON 實作 json.Unmarshaler
func (v *LooseValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = LooseValue{}
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		*v = LooseValue{Raw: string(data), Present: true}
	default:
		*v = LooseValue{Present: true}
	}
	return nil
}

// PayloadKind 邊界驗證結果
type PayloadKind int

const (
	PayloadMalformed PayloadKind = iota
	PayloadEmpty
	PayloadValid
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadValid:
		return "valid"
	case PayloadEmpty:
		return "empty"
	default:
		return "malformed"
	}
}

// Payload 上游回應經驗證後的標記結果，只有 PayloadValid 時 Recipe 可用
type Payload struct {
	Kind   PayloadKind
	Recipe ExtractedRecipe
	Err    error
}

// ParsePayload 驗證上游回應文字並分類
func ParsePayload(text string) Payload {
	obj, ok := common.ExtractJSONObject(text)
	if !ok {
		return Payload{Kind: PayloadMalformed, Err: ErrMalformedUpstreamResponse}
	}

	var extracted ExtractedRecipe
	if err := json.Unmarshal([]byte(obj), &extracted); err != nil {
		// 模型偶爾輸出未加引號的鍵
		extracted = ExtractedRecipe{}
		if errRetry := json.Unmarshal([]byte(common.QuoteJSONKeys(obj)), &extracted); errRetry != nil {
			return Payload{Kind: PayloadMalformed, Err: WrapError(ErrMalformedUpstreamResponse, "parse payload", err)}
		}
	}

	if extracted.IsEmpty() {
		return Payload{Kind: PayloadEmpty, Err: ErrNoRecipeFound}
	}
	return Payload{Kind: PayloadValid, Recipe: extracted}
}

// Extracted 取出有效結果，否則回傳對應錯誤
func (p Payload) Extracted() (ExtractedRecipe, error) {
	if p.Kind == PayloadValid {
		return p.Recipe, nil
	}
	if p.Err != nil {
		return ExtractedRecipe{}, p.Err
	}
	if p.Kind == PayloadEmpty {
		return ExtractedRecipe{}, ErrNoRecipeFound
	}
	return ExtractedRecipe{}, ErrMalformedUpstreamResponse
}
