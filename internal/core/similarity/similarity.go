// Package similarity 比較食譜相似度並找出可能重複的食譜
//
// 所有函式皆無副作用，可同時於多個請求中使用。
package similarity

import (
	"math"
	"sort"

	"github.com/cooperwalter/recipe-and-me/internal/core/recipe"
)

// ScorerVersion 權重或演算法調整時遞增
const ScorerVersion = "v1"

// DefaultThreshold 預設重複門檻
const DefaultThreshold = 0.7

// Weights 各項分數權重
type Weights struct {
	Title        float64 `json:"title"`
	Ingredients  float64 `json:"ingredients"`
	Instructions float64 `json:"instructions"`
	Servings     float64 `json:"servings"`
	Time         float64 `json:"time"`
}

// DefaultWeights v1 權重
var DefaultWeights = Weights{
	Title:        0.35,
	Ingredients:  0.35,
	Instructions: 0.15,
	Servings:     0.05,
	Time:         0.10,
}

func (w Weights) sum() float64 {
	return w.Title + w.Ingredients + w.Instructions + w.Servings + w.Time
}

func (w Weights) valid() bool {
	for _, v := range []float64{w.Title, w.Ingredients, w.Instructions, w.Servings, w.Time} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return w.sum() > 0
}

// Score 相似度分數，皆介於 0 到 1
type Score struct {
	Overall      float64 `json:"overall"`
	Title        float64 `json:"titleSimilarity"`
	Ingredients  float64 `json:"ingredientSimilarity"`
	Instructions float64 `json:"instructionSimilarity"`
	Servings     float64 `json:"servingsSimilarity"`
	Time         float64 `json:"timeSimilarity"`
}

// Match 一筆可能重複的食譜
type Match struct {
	Recipe      recipe.Recipe `json:"recipe"`
	Score       Score         `json:"score"`
	IsDuplicate bool          `json:"isDuplicate"`
}

// Scorer 相似度計算器
type Scorer struct {
	weights Weights
}

// NewScorer 建立計算器，權重不合法時使用預設權重
func NewScorer(w Weights) *Scorer {
	if !w.valid() {
		w = DefaultWeights
	}
	return &Scorer{weights: w}
}

// Default 使用預設權重的計算器
var Default = NewScorer(DefaultWeights)

// Weights 回傳目前權重
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score 計算兩份食譜的相似度
func (s *Scorer) Score(a, b recipe.Recipe) Score {
	return s.compare(extract(&a), extract(&b))
}

// FindDuplicates 找出 overall 達門檻的食譜，依分數由高到低排列，
// 同分時建立時間早者在前，再依 corpus 原順序
func (s *Scorer) FindDuplicates(candidate recipe.Recipe, corpus []recipe.Recipe, threshold float64) []Match {
	c := extract(&candidate)
	matches := make([]Match, 0)
	for i := range corpus {
		existing := &corpus[i]
		if candidate.ID != "" && existing.ID == candidate.ID {
			continue
		}
		score := s.compare(c, extract(existing))
		if score.Overall < threshold {
			continue
		}
		matches = append(matches, Match{
			Recipe:      *existing,
			Score:       score,
			IsDuplicate: true,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score.Overall != matches[j].Score.Overall {
			return matches[i].Score.Overall > matches[j].Score.Overall
		}
		return matches[i].Recipe.CreatedAt.Before(matches[j].Recipe.CreatedAt)
	})
	return matches
}

// Compare 以預設權重計算相似度
func Compare(a, b recipe.Recipe) Score {
	return Default.Score(a, b)
}

// FindDuplicates 以預設權重找出重複食譜
func FindDuplicates(candidate recipe.Recipe, corpus []recipe.Recipe, threshold float64) []Match {
	return Default.FindDuplicates(candidate, corpus, threshold)
}

// features 預先計算的比對資料
type features struct {
	title        string
	titleGrams   map[string]int
	ingredients  map[string]struct{}
	instructions map[string]struct{}
	servings     *int
	totalTime    int
	hasTime      bool
}

func extract(r *recipe.Recipe) features {
	f := features{
		title:        normalizeText(r.Title),
		ingredients:  make(map[string]struct{}, len(r.Ingredients)),
		instructions: contentWords(r.Instructions),
		servings:     r.Servings,
	}
	f.titleGrams = bigrams(f.title)
	for _, ing := range r.Ingredients {
		if key := ingredientKey(ing.Name); key != "" {
			f.ingredients[key] = struct{}{}
		}
	}
	f.totalTime, f.hasTime = r.TotalTime()
	return f
}

func (s *Scorer) compare(a, b features) Score {
	score := Score{
		Title:        titleSimilarity(a, b),
		Ingredients:  setDice(a.ingredients, b.ingredients),
		Instructions: setDice(a.instructions, b.instructions),
		Servings:     numericSimilarity(a.servings != nil, b.servings != nil, deref(a.servings), deref(b.servings)),
		Time:         numericSimilarity(a.hasTime, b.hasTime, a.totalTime, b.totalTime),
	}

	w := s.weights
	total := w.Title*score.Title +
		w.Ingredients*score.Ingredients +
		w.Instructions*score.Instructions +
		w.Servings*score.Servings +
		w.Time*score.Time
	score.Overall = clamp(total / w.sum())
	return score
}

func titleSimilarity(a, b features) float64 {
	if a.title == b.title {
		return 1
	}
	return bigramDice(a.titleGrams, b.titleGrams)
}

// numericSimilarity 相同或皆缺為 1，僅一方缺為 0.5，否則 min/max
func numericSimilarity(hasA, hasB bool, a, b int) float64 {
	switch {
	case !hasA && !hasB:
		return 1
	case hasA != hasB:
		return 0.5
	case a == b:
		return 1
	}
	lo, hi := float64(min(a, b)), float64(max(a, b))
	if lo <= 0 {
		return 0
	}
	return lo / hi
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
