package waste

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/sells-group/wastewise/internal/model"
)

func TestGenerateSynthetic_Deterministic(t *testing.T) {
	a := GenerateSynthetic(50, 42)
	b := GenerateSynthetic(50, 42)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed produced different samples:\n%s", diff)
	}
	assert.NotEqual(t, a, GenerateSynthetic(50, 43))
}

func TestGenerateSynthetic_NegativeCount(t *testing.T) {
	assert.Empty(t, GenerateSynthetic(-3, 1))
}

func TestGenerateSynthetic_Ranges(t *testing.T) {
	days := map[model.Category][2]int{
		model.CategoryProduce: {1, 7},
		model.CategoryDairy:   {1, 13},
		model.CategoryBakery:  {1, 4},
		model.CategoryMeat:    {1, 6},
		model.CategoryFrozen:  {7, 89},
	}

	var positives int
	samples := GenerateSynthetic(500, 1)
	assert.Len(t, samples, 500)
	for _, s := range samples {
		r, ok := days[s.Category]
		if !assert.True(t, ok, "unexpected category %q", s.Category) {
			continue
		}
		assert.GreaterOrEqual(t, s.DaysUntilExpiry, r[0])
		assert.LessOrEqual(t, s.DaysUntilExpiry, r[1])
		assert.GreaterOrEqual(t, s.CurrentStock, 10)
		assert.Less(t, s.CurrentStock, 100)
		assert.GreaterOrEqual(t, s.SalesVelocity7d, 0.0)
		assert.GreaterOrEqual(t, s.Humidity, 0.0)
		assert.LessOrEqual(t, s.Humidity, 100.0)
		assert.GreaterOrEqual(t, s.DiscountRate, 0.0)
		assert.Less(t, s.DiscountRate, 0.5)
		assert.GreaterOrEqual(t, s.SeasonalFactor, 0.8)
		assert.Less(t, s.SeasonalFactor, 1.2)
		assert.Equal(t, s.WasteProbability > 0.5, s.WillExpireUnsold)
		if s.WillExpireUnsold {
			positives++
		}
	}
	assert.Greater(t, positives, 0)
	assert.Less(t, positives, 500)
}
