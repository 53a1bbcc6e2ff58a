package ranking

import (
	"myJara/domain"
	apperrors "myJara/pkg/errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func product(id string, price int64, buy, get *int) domain.SearchResult {
	return domain.SearchResult{
		ID:              id,
		Name:            "product " + id,
		Price:           decimal.NewFromInt(price),
		JaraBuyQuantity: buy,
		JaraGetQuantity: get,
	}
}

func ids(items []domain.SearchResult) []string {
	out := make([]string, 0, len(items))
	for _, p := range items {
		out = append(out, p.ID)
	}
	return out
}

func catalog() []domain.SearchResult {
	return []domain.SearchResult{
		product("a", 1500, nil, nil),
		product("b", 900, intPtr(10), intPtr(1)),
		product("c", 1500, intPtr(2), intPtr(1)),
		product("d", 300, intPtr(0), intPtr(3)),
		product("e", 2000, intPtr(5), intPtr(5)),
		product("f", 900, nil, intPtr(4)),
	}
}

func TestRank_EmptyInput(t *testing.T) {
	for mode := range modes {
		t.Run(string(mode), func(t *testing.T) {
			got := Rank([]domain.SearchResult{}, mode)
			assert.NotNil(t, got)
			assert.Empty(t, got)

			assert.Empty(t, Rank(nil, mode))
		})
	}
}

func TestRank_PriceModesArePermutationsInOrder(t *testing.T) {
	tests := []struct {
		name string
		mode SortMode
		want []string
	}{
		{name: "ascending keeps ties in encounter order", mode: SortPriceAsc, want: []string{"d", "b", "f", "a", "c", "e"}},
		{name: "descending keeps ties in encounter order", mode: SortPriceDesc, want: []string{"e", "a", "c", "b", "f", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := catalog()
			got := Rank(in, tt.mode)

			assert.Equal(t, tt.want, ids(got))
			assert.ElementsMatch(t, ids(in), ids(got))
			for i := 1; i < len(got); i++ {
				if tt.mode == SortPriceAsc {
					assert.True(t, got[i-1].Price.LessThanOrEqual(got[i].Price))
				} else {
					assert.True(t, got[i-1].Price.GreaterThanOrEqual(got[i].Price))
				}
			}
		})
	}
}

func TestRank_RelevanceIsPassthrough(t *testing.T) {
	in := catalog()
	got := Rank(in, SortRelevance)
	assert.Equal(t, ids(in), ids(got))

	got[0].Name = "changed"
	assert.Equal(t, "product a", in[0].Name, "result must be a copy")
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	in := catalog()
	before := ids(in)

	for mode := range modes {
		Rank(in, mode)
	}

	assert.Equal(t, before, ids(in))
}

func TestRank_JaraDesc(t *testing.T) {
	t.Run("offer beats no offer at equal price", func(t *testing.T) {
		in := []domain.SearchResult{
			product("plain", 1000, intPtr(0), intPtr(0)),
			product("offer", 1000, intPtr(2), intPtr(1)),
		}
		assert.Equal(t, []string{"offer", "plain"}, ids(Rank(in, SortJaraDesc)))
	})

	t.Run("orders by ratio and keeps zero ratios in encounter order", func(t *testing.T) {
		got := Rank(catalog(), SortJaraDesc)
		// e=1.0, c=0.5, b=0.1, then a, d, f all 0
		assert.Equal(t, []string{"e", "c", "b", "a", "d", "f"}, ids(got))
	})

	t.Run("missing buy quantity sorts last", func(t *testing.T) {
		in := []domain.SearchResult{
			product("nil-buy", 100, nil, intPtr(9)),
			product("small", 100, intPtr(100), intPtr(1)),
		}
		assert.Equal(t, []string{"small", "nil-buy"}, ids(Rank(in, SortJaraDesc)))
	})
}

func TestBonusRatio(t *testing.T) {
	tests := []struct {
		name string
		buy  *int
		get  *int
		want string
	}{
		{name: "nil buy", buy: nil, get: intPtr(3), want: "0"},
		{name: "zero buy", buy: intPtr(0), get: intPtr(3), want: "0"},
		{name: "nil get", buy: intPtr(3), get: nil, want: "0"},
		{name: "half", buy: intPtr(2), get: intPtr(1), want: "0.5"},
		{name: "free item", buy: intPtr(1), get: intPtr(1), want: "1"},
		{name: "more than one", buy: intPtr(2), get: intPtr(3), want: "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BonusRatio(product("x", 100, tt.buy, tt.get))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestHybridScore(t *testing.T) {
	t.Run("ratio is capped at 0.8", func(t *testing.T) {
		score := HybridScore(product("x", 2000, intPtr(5), intPtr(5)))
		assert.True(t, score.Equal(decimal.NewFromInt(400)), "got %s", score)
	})

	t.Run("no offer scores the price", func(t *testing.T) {
		score := HybridScore(product("x", 750, nil, nil))
		assert.True(t, score.Equal(decimal.NewFromInt(750)))
	})

	t.Run("uncapped ratio", func(t *testing.T) {
		score := HybridScore(product("x", 1000, intPtr(4), intPtr(1)))
		assert.True(t, score.Equal(decimal.NewFromInt(750)))
	})
}

func TestRank_Hybrid(t *testing.T) {
	got := Rank(catalog(), SortHybrid)
	// scores: a=1500 b=810 c=750 d=300 e=400 f=900
	assert.Equal(t, []string{"d", "e", "c", "b", "f", "a"}, ids(got))

	again := Rank(got, SortHybrid)
	assert.Equal(t, ids(got), ids(again), "hybrid ranking must be idempotent")
}

func TestParseSortMode(t *testing.T) {
	tests := []struct {
		raw     string
		want    SortMode
		wantErr bool
	}{
		{raw: "", want: SortRelevance},
		{raw: "relevance", want: SortRelevance},
		{raw: " PRICE_ASC ", want: SortPriceAsc},
		{raw: "price_desc", want: SortPriceDesc},
		{raw: "jara_desc", want: SortJaraDesc},
		{raw: "hybrid", want: SortHybrid},
		{raw: "cheapest", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseSortMode(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
