package waste

import (
	"math"

	"github.com/sells-group/wastewise/internal/model"
)

// categoryOffset is the per-category adjustment applied by the rule.
var categoryOffset = map[model.Category]float64{
	model.CategoryProduce: 0.10,
	model.CategoryDairy:   0.05,
	model.CategoryBakery:  0.15,
	model.CategoryMeat:    0.08,
	model.CategoryFrozen:  -0.05,
}

// RuleProbability is the deterministic waste probability for s. It labels
// synthetic training data and stands in for the classifier when none is
// loaded.
func RuleProbability(s model.ItemSnapshot) float64 {
	return ruleProbability(s, Derive(s, DefaultSeasonalFactor))
}

func ruleProbability(s model.ItemSnapshot, d model.DerivedFeatures) float64 {
	p := 0.1

	switch {
	case s.DaysUntilExpiry <= 1:
		p += 0.6
	case s.DaysUntilExpiry <= 3:
		p += 0.3
	case s.DaysUntilExpiry <= 7:
		p += 0.1
	}

	switch {
	case d.StockToVelocityRatio > 10:
		p += 0.4
	case d.StockToVelocityRatio > 5:
		p += 0.2
	}

	p += d.EnvironmentalRisk * 0.2
	p -= s.DiscountRate * 0.3
	if s.PromotionActive {
		p -= 0.1
	}
	p += categoryOffset[s.Category]

	return math.Max(0, math.Min(1, p))
}
