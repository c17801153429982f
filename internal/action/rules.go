// Package action turns a waste probability and a few item attributes into a
// concrete handling decision: what to do, how urgently, at what discount,
// and why.
package action

import "github.com/sells-group/wastewise/internal/model"

// Conditions are the nominal thresholds that characterize an action.
type Conditions struct {
	WasteProbability   float64 `json:"waste_probability"`
	DaysUntilExpiry    int     `json:"days_until_expiry"`
	StockVelocityRatio float64 `json:"stock_velocity_ratio"`
}

// Rule describes one action for operators. Decisions come from the cascade;
// the rule table is reference data.
type Rule struct {
	Action      model.Action `json:"action"`
	Conditions  Conditions   `json:"conditions"`
	Priority    int          `json:"priority"`
	Description string       `json:"description"`
}

var rules = []Rule{
	{
		Action:      model.ActionDonate,
		Conditions:  Conditions{WasteProbability: 0.8, DaysUntilExpiry: 2, StockVelocityRatio: 8},
		Priority:    1,
		Description: "Product is very likely to expire with high stock levels",
	},
	{
		Action:      model.ActionDiscount,
		Conditions:  Conditions{WasteProbability: 0.5, DaysUntilExpiry: 5, StockVelocityRatio: 4},
		Priority:    2,
		Description: "Product has moderate waste risk and can benefit from discounting",
	},
	{
		Action:      model.ActionReroute,
		Conditions:  Conditions{WasteProbability: 0.3, DaysUntilExpiry: 7, StockVelocityRatio: 6},
		Priority:    3,
		Description: "Product is overstocked but still fresh enough for redistribution",
	},
	{
		Action:      model.ActionKeep,
		Conditions:  Conditions{WasteProbability: 0.3, DaysUntilExpiry: 3, StockVelocityRatio: 3},
		Priority:    4,
		Description: "Product is performing well with low waste risk",
	},
}

// Rules returns the action rule table ordered by priority.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Profile holds the per-category day thresholds used by the cascade.
type Profile struct {
	Category          model.Category `json:"category"`
	DonateDays        int            `json:"donate_threshold_days"`
	DiscountDays      int            `json:"discount_threshold_days"`
	RerouteDays       int            `json:"reroute_threshold_days"`
	UrgencyMultiplier float64        `json:"urgency_multiplier"`
}

var profiles = map[model.Category]Profile{
	model.CategoryProduce: {model.CategoryProduce, 1, 3, 5, 1.5},
	model.CategoryDairy:   {model.CategoryDairy, 2, 5, 10, 1.2},
	model.CategoryBakery:  {model.CategoryBakery, 1, 2, 3, 1.8},
	model.CategoryMeat:    {model.CategoryMeat, 1, 3, 5, 1.4},
	model.CategoryFrozen:  {model.CategoryFrozen, 7, 14, 30, 0.8},
}

// ProfileFor returns the category's profile. Categories without one are
// treated as produce, the most conservative fresh profile.
func ProfileFor(c model.Category) Profile {
	if p, ok := profiles[c]; ok {
		return p
	}
	return profiles[model.CategoryProduce]
}

// Profiles returns every category profile in category order.
func Profiles() []Profile {
	out := make([]Profile, 0, len(profiles))
	for _, c := range model.Categories {
		if p, ok := profiles[c]; ok {
			out = append(out, p)
		}
	}
	return out
}
