package waste

import "github.com/sells-group/wastewise/internal/model"

// riskFactors evaluates each risk predicate independently, in a fixed order.
func riskFactors(s model.ItemSnapshot, d model.DerivedFeatures, p float64) []model.RiskFactor {
	var out []model.RiskFactor
	if s.DaysUntilExpiry <= 2 {
		out = append(out, model.RiskExpiringSoon)
	}
	if d.StockToVelocityRatio > 7 {
		out = append(out, model.RiskOverstocked)
	}
	if d.EnvironmentalRisk > 0.3 {
		out = append(out, model.RiskPoorStorageConditions)
	}
	if s.SalesVelocity7d < 3 {
		out = append(out, model.RiskLowSalesVelocity)
	}
	if s.Category.IsPerishable() {
		out = append(out, model.RiskPerishableCategory)
	}
	switch {
	case p > 0.7:
		out = append(out, model.RiskHighWaste)
	case p > 0.4:
		out = append(out, model.RiskMediumWaste)
	}
	if out == nil {
		out = []model.RiskFactor{}
	}
	return out
}
