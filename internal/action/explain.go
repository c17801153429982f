package action

import (
	"fmt"

	"github.com/sells-group/wastewise/internal/model"
)

var categoryInsight = map[model.Category]string{
	model.CategoryProduce: "Fresh produce requires rapid action due to short shelf life",
	model.CategoryDairy:   "Dairy products have moderate shelf life but strict temperature requirements",
	model.CategoryBakery:  "Baked goods have very short shelf life and lose quality quickly",
	model.CategoryMeat:    "Meat products require careful handling due to safety concerns",
	model.CategoryFrozen:  "Frozen products have extended shelf life but high storage costs",
}

var actionRationale = map[model.Action]string{
	model.ActionDonate:   "Donation maximizes social impact while minimizing total loss",
	model.ActionDiscount: "Strategic discounting can recover partial value while moving inventory",
	model.ActionReroute:  "Redistribution to high-demand locations can optimize sales",
	model.ActionKeep:     "Current strategy is working well - maintain monitoring",
}

// reasoning explains a decision. The action rationale is always last, so
// the result is never empty.
func reasoning(action model.Action, prob float64, days int, ratio float64, category model.Category) []string {
	pct := fmt.Sprintf("%.1f%%", prob*100)
	var out []string

	switch {
	case prob >= 0.8:
		out = append(out, "Very high waste probability ("+pct+") indicates urgent action needed")
	case prob >= 0.6:
		out = append(out, "High waste probability ("+pct+") suggests significant risk")
	case prob >= 0.4:
		out = append(out, "Moderate waste probability ("+pct+") warrants preventive measures")
	default:
		out = append(out, "Low waste probability ("+pct+") indicates manageable risk")
	}

	switch {
	case days <= 1:
		out = append(out, "Product expires within 24 hours - immediate action critical")
	case days <= 3:
		out = append(out, fmt.Sprintf("Product expires in %d days - time-sensitive situation", days))
	case days <= 7:
		out = append(out, fmt.Sprintf("Product expires in %d days - proactive measures recommended", days))
	}

	switch {
	case ratio >= 10:
		out = append(out, "Severely overstocked relative to sales velocity")
	case ratio >= 6:
		out = append(out, "Moderately overstocked - inventory levels exceed normal sales pace")
	case ratio >= 3:
		out = append(out, "Slightly overstocked but manageable")
	}

	if insight, ok := categoryInsight[category]; ok {
		out = append(out, insight)
	}

	rationale, ok := actionRationale[action]
	if !ok {
		rationale = "Recommended action based on risk assessment"
	}
	return append(out, rationale)
}

// timeline returns the next steps for an action at the given urgency.
func timeline(action model.Action, urgency model.Urgency) model.Timeline {
	t := model.Timeline{Immediate: []string{}, ShortTerm: []string{}, LongTerm: []string{}}

	switch action {
	case model.ActionDonate:
		if urgency == model.UrgencyCritical {
			t.Immediate = []string{
				"Contact NGO partners immediately",
				"Prepare donation documentation",
				"Arrange pickup within 2-4 hours",
			}
		} else {
			t.Immediate = []string{"Contact NGO partners"}
			t.ShortTerm = []string{"Schedule pickup within 24 hours", "Prepare donation paperwork"}
		}
	case model.ActionDiscount:
		if urgency == model.UrgencyHigh {
			t.Immediate = []string{
				"Apply discount immediately",
				"Update pricing systems",
				"Notify customers via app/email",
			}
		} else {
			t.Immediate = []string{"Calculate optimal discount percentage"}
			t.ShortTerm = []string{"Implement discount within 4-8 hours", "Monitor sales response"}
		}
	case model.ActionReroute:
		t.Immediate = []string{"Identify target locations with higher demand"}
		t.ShortTerm = []string{"Arrange transportation", "Update inventory systems"}
		t.LongTerm = []string{"Monitor performance at new location"}
	case model.ActionKeep:
		t.Immediate = []string{"Continue current monitoring"}
		t.ShortTerm = []string{"Review sales performance daily"}
		t.LongTerm = []string{"Reassess if conditions change"}
	}
	return t
}

// confidence scores how clear-cut the situation is, in [0.5, 0.95].
func confidence(prob float64, days int) float64 {
	c := 0.7
	switch {
	case prob >= 0.8 || days <= 1:
		c += 0.2
	case prob >= 0.6 || days <= 3:
		c += 0.1
	}
	if prob >= 0.3 && prob <= 0.5 {
		c -= 0.1
	}
	return min(0.95, max(0.5, c))
}

// alternatives lists the other actions worth considering, in a fixed order.
func alternatives(primary model.Action, prob float64, days int) []model.Alternative {
	out := []model.Alternative{}

	if primary != model.ActionDiscount {
		f := model.FeasibilityMedium
		if prob >= 0.4 {
			f = model.FeasibilityHigh
		}
		out = append(out, model.Alternative{
			Action:      model.ActionDiscount,
			Feasibility: f,
			Description: "Apply strategic discount to accelerate sales",
		})
	}

	if primary != model.ActionDonate && days <= 3 {
		f := model.FeasibilityMedium
		if prob >= 0.7 {
			f = model.FeasibilityHigh
		}
		out = append(out, model.Alternative{
			Action:      model.ActionDonate,
			Feasibility: f,
			Description: "Donate to local food banks or charities",
		})
	}

	if primary != model.ActionReroute && days >= 3 {
		out = append(out, model.Alternative{
			Action:      model.ActionReroute,
			Feasibility: model.FeasibilityMedium,
			Description: "Transfer to locations with higher demand",
		})
	}
	return out
}
