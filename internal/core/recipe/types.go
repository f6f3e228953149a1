package recipe

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Recipe 食譜
type Recipe struct {
	ID           string       `json:"id"`
	OwnerID      string       `json:"createdBy"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"` // 順序即步驟順序
	PrepTime     *int         `json:"prepTime,omitempty"`
	CookTime     *int         `json:"cookTime,omitempty"`
	Servings     *int         `json:"servings,omitempty"`
	SourceName   string       `json:"sourceName,omitempty"`
	SourceNotes  string       `json:"sourceNotes,omitempty"`
	SourceURL    string       `json:"sourceUrl,omitempty"`
	CategoryIDs  []string     `json:"categoryIds"`
	Photos       []Photo      `json:"photos"`
	IsPublic     bool         `json:"isPublic"`
	IsFavorite   bool         `json:"isFavorite"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// TotalTime 準備時間加烹調時間，兩者皆缺時回傳 false
func (r *Recipe) TotalTime() (int, bool) {
	if r.PrepTime == nil && r.CookTime == nil {
		return 0, false
	}
	return clampCount(r.PrepTime) + clampCount(r.CookTime), true
}

// Ingredient 食材，Amount 為 nil 表示未提供或無法解析
type Ingredient struct {
	ID     string   `json:"id,omitempty"`
	Amount *float64 `json:"amount,omitempty"`
	Unit   string   `json:"unit,omitempty"`
	Name   string   `json:"ingredient"`
}

// Photo 食譜照片
type Photo struct {
	ID        string    `json:"id"`
	URL       string    `json:"photoUrl"`
	Caption   string    `json:"caption,omitempty"`
	IsPrimary bool      `json:"isPrimary"`
	CreatedAt time.Time `json:"createdAt"`
}

// Metadata 擷取時附帶的資訊，原樣傳遞不解析
type Metadata struct {
	Category  string          `json:"category,omitempty"`
	Cuisine   string          `json:"cuisine,omitempty"`
	Yield     string          `json:"yield,omitempty"`
	Nutrition json.RawMessage `json:"nutrition,omitempty"`
}

// ImportResult 匯入結果（草稿 + 來源資訊）
type ImportResult struct {
	Recipe        Recipe   `json:"recipe"`
	Metadata      Metadata `json:"metadata"`
	ImageURL      string   `json:"imageUrl,omitempty"`
	SourceURL     string   `json:"sourceUrl,omitempty"`
	Transcript    string   `json:"transcript,omitempty"`
	ExtractedFrom string   `json:"extractedFrom"` // url / voice
}

// 匯入來源
const (
	ExtractedFromURL   = "url"
	ExtractedFromVoice = "voice"
)

// 列表排序欄位
const (
	OrderByCreatedAt = "createdAt"
	OrderByUpdatedAt = "updatedAt"
	OrderByTitle     = "title"

	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ListFilter 列表查詢條件
type ListFilter struct {
	Query          string `json:"query,omitempty"`
	CategoryID     string `json:"categoryId,omitempty"`
	OwnerID        string `json:"userId,omitempty"`
	IsPublic       *bool  `json:"isPublic,omitempty"`
	IsFavorite     *bool  `json:"isFavorite,omitempty"`
	Limit          int    `json:"limit"`
	Offset         int    `json:"offset"`
	OrderBy        string `json:"orderBy"`
	OrderDirection string `json:"orderDirection"`
}

// Normalize 套用預設值與上限
func (f ListFilter) Normalize() ListFilter {
	out := f
	out.Query = strings.TrimSpace(out.Query)
	if out.Limit <= 0 {
		out.Limit = DefaultListLimit
	}
	if out.Limit > MaxListLimit {
		out.Limit = MaxListLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	switch out.OrderBy {
	case OrderByCreatedAt, OrderByUpdatedAt, OrderByTitle:
	default:
		out.OrderBy = OrderByCreatedAt
	}
	out.OrderDirection = strings.ToLower(out.OrderDirection)
	if out.OrderDirection != "asc" {
		out.OrderDirection = "desc"
	}
	return out
}

// CanonicalString 產生穩定的字串表示，作為快取鍵來源
func (f ListFilter) CanonicalString() string {
	n := f.Normalize()
	return fmt.Sprintf("q=%s|cat=%s|owner=%s|public=%s|fav=%s|limit=%d|offset=%d|order=%s:%s",
		strings.ToLower(n.Query), n.CategoryID, n.OwnerID,
		boolPtrString(n.IsPublic), boolPtrString(n.IsFavorite),
		n.Limit, n.Offset, n.OrderBy, n.OrderDirection)
}

func boolPtrString(b *bool) string {
	if b == nil {
		return "-"
	}
	if *b {
		return "1"
	}
	return "0"
}

// ListResult 列表結果
type ListResult struct {
	Recipes []Recipe `json:"recipes"`
	Total   int      `json:"total"`
}

// clampCount 將未經整理的數值限制在 0 到 MaxCount
func clampCount(v *int) int {
	switch {
	case v == nil || *v < 0:
		return 0
	case *v > MaxCount:
		return MaxCount
	}
	return *v
}
