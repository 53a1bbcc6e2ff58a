// Package ranking orders product search results for display.
//
// Every mode is a stable sort over a copy of the input, so equal keys keep
// the order the search backend returned them in.
package ranking

import (
	"myJara/domain"
	apperrors "myJara/pkg/errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type SortMode string

const (
	SortRelevance SortMode = "relevance"
	SortPriceAsc  SortMode = "price_asc"
	SortPriceDesc SortMode = "price_desc"
	SortJaraDesc  SortMode = "jara_desc"
	SortHybrid    SortMode = "hybrid"
)

// MaxHybridRatio caps the bonus ratio used by the hybrid score, so a
// "buy 1 get 1" offer cannot drive the score to zero.
var MaxHybridRatio = decimal.RequireFromString("0.8")

var modes = map[SortMode]bool{
	SortRelevance: true,
	SortPriceAsc:  true,
	SortPriceDesc: true,
	SortJaraDesc:  true,
	SortHybrid:    true,
}

// ParseSortMode accepts the query value of ?sort=. Empty means relevance.
func ParseSortMode(raw string) (SortMode, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return SortRelevance, nil
	}
	mode := SortMode(raw)
	if !modes[mode] {
		return "", apperrors.Validation("unknown sort mode: " + raw)
	}
	return mode, nil
}

// BonusRatio is get/buy of the Jara offer, 0 when there is no offer.
func BonusRatio(p domain.SearchResult) decimal.Decimal {
	buy := intOrZero(p.JaraBuyQuantity)
	if buy <= 0 {
		return decimal.Zero
	}
	get := intOrZero(p.JaraGetQuantity)
	if get <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(get)).Div(decimal.NewFromInt(int64(buy)))
}

// HybridScore is price * (1 - min(BonusRatio, 0.8)). Lower is better value.
func HybridScore(p domain.SearchResult) decimal.Decimal {
	ratio := decimal.Min(BonusRatio(p), MaxHybridRatio)
	return p.Price.Mul(decimal.NewFromInt(1).Sub(ratio))
}

// Rank returns products ordered for mode. The input slice is not modified.
// Unknown modes fall back to relevance; use ParseSortMode to reject them earlier.
func Rank(products []domain.SearchResult, mode SortMode) []domain.SearchResult {
	out := make([]domain.SearchResult, len(products))
	copy(out, products)

	switch mode {
	case SortPriceAsc:
		sortByKey(out, func(p domain.SearchResult) decimal.Decimal { return p.Price }, false)
	case SortPriceDesc:
		sortByKey(out, func(p domain.SearchResult) decimal.Decimal { return p.Price }, true)
	case SortJaraDesc:
		sortByKey(out, BonusRatio, true)
	case SortHybrid:
		sortByKey(out, HybridScore, false)
	}

	return out
}

// sortByKey computes each key once, then stable-sorts items and keys together.
func sortByKey(items []domain.SearchResult, key func(domain.SearchResult) decimal.Decimal, desc bool) {
	keyed := make([]keyedResult, len(items))
	for i, p := range items {
		keyed[i] = keyedResult{item: p, key: key(p)}
	}

	sort.SliceStable(keyed, func(i, j int) bool {
		if desc {
			return keyed[i].key.GreaterThan(keyed[j].key)
		}
		return keyed[i].key.LessThan(keyed[j].key)
	})

	for i := range keyed {
		items[i] = keyed[i].item
	}
}

type keyedResult struct {
	item domain.SearchResult
	key  decimal.Decimal
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
