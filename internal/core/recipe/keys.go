package recipe

import "github.com/cooperwalter/recipe-and-me/internal/pkg/common"

// 快取鍵
//
//	recipes:detail:<id>              單筆食譜
//	recipes:list:<sha256(filter)>    列表查詢結果
//	recipes:extract:<sha256(url)>    網址匯入結果
//
// 新增食譜清除所有列表；修改、收藏、份量、照片、刪除清除該筆與所有列表。
const (
	DetailKeyPrefix  = "recipes:detail:"
	ListKeyPrefix    = "recipes:list:"
	ExtractKeyPrefix = "recipes:extract:"
)

// DetailKey 單筆食譜快取鍵
func DetailKey(id string) string {
	return DetailKeyPrefix + id
}

// ListKey 列表快取鍵
func ListKey(filter ListFilter) string {
	return ListKeyPrefix + common.HashString(filter.CanonicalString())
}

// ExtractKey 網址匯入快取鍵
func ExtractKey(sourceURL string) string {
	return ExtractKeyPrefix + common.HashString(sourceURL)
}
