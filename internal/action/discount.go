package action

import (
	"math"

	"github.com/sells-group/wastewise/internal/model"
)

const (
	minDiscount = 5
	maxDiscount = 70
)

var discountCategoryMultiplier = map[model.Category]float64{
	model.CategoryProduce: 1.2,
	model.CategoryBakery:  1.3,
	model.CategoryDairy:   1.1,
	model.CategoryMeat:    1.15,
	model.CategoryFrozen:  0.9,
}

// OptimalDiscount returns the suggested markdown percentage for an item
// being discounted. The result is a multiple of 5 in [5, 70]; halves round
// to the even multiple.
func OptimalDiscount(prob float64, days int, category model.Category, stock int, velocity float64) int {
	base := math.Min(maxDiscount, prob*80)

	urgency := 1.0
	switch {
	case days <= 1:
		urgency = 1.5
	case days <= 3:
		urgency = 1.3
	case days <= 7:
		urgency = 1.1
	}

	categoryMult, ok := discountCategoryMultiplier[category]
	if !ok {
		categoryMult = 1.0
	}

	stockMult := 1.0
	switch ratio := float64(stock) / math.Max(velocity, 1); {
	case ratio >= 10:
		stockMult = 1.2
	case ratio >= 6:
		stockMult = 1.1
	}

	final := base * urgency * categoryMult * stockMult
	rounded := math.RoundToEven(final/5) * 5
	if math.IsNaN(rounded) {
		return minDiscount
	}
	return int(math.Min(maxDiscount, math.Max(minDiscount, rounded)))
}
