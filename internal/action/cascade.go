package action

import "github.com/sells-group/wastewise/internal/model"

// situation is the input every cascade branch is evaluated against.
type situation struct {
	prob    float64
	days    int
	ratio   float64
	profile Profile
}

// branch is one step of the decision cascade.
type branch struct {
	when    func(situation) bool
	action  model.Action
	urgency func(situation) model.Urgency
	reason  string
}

func fixed(u model.Urgency) func(situation) model.Urgency {
	return func(situation) model.Urgency { return u }
}

// cascade is evaluated top to bottom and the first matching branch wins, so
// order is priority. The last branch always matches.
var cascade = []branch{
	{
		when: func(s situation) bool {
			return s.days <= s.profile.DonateDays && s.prob >= 0.8 && s.ratio >= 8
		},
		action:  model.ActionDonate,
		urgency: fixed(model.UrgencyCritical),
		reason:  "Very high waste risk with imminent expiry",
	},
	{
		when: func(s situation) bool {
			return s.days <= s.profile.DonateDays && s.prob >= 0.7
		},
		action:  model.ActionDonate,
		urgency: fixed(model.UrgencyHigh),
		reason:  "High waste risk with very short shelf life",
	},
	{
		when: func(s situation) bool {
			return s.days <= s.profile.DiscountDays && s.prob >= 0.5
		},
		action: model.ActionDiscount,
		urgency: func(s situation) model.Urgency {
			if s.profile.UrgencyMultiplier > 1.2 {
				return model.UrgencyHigh
			}
			return model.UrgencyMedium
		},
		reason: "Moderate to high waste risk - discounting can help move inventory",
	},
	{
		when: func(s situation) bool {
			return s.days <= s.profile.DiscountDays && s.ratio >= 5
		},
		action:  model.ActionDiscount,
		urgency: fixed(model.UrgencyMedium),
		reason:  "Overstocked with approaching expiry",
	},
	{
		when: func(s situation) bool {
			return s.days <= s.profile.RerouteDays && s.ratio >= 6 && s.prob >= 0.3
		},
		action:  model.ActionReroute,
		urgency: fixed(model.UrgencyMedium),
		reason:  "Overstocked but still fresh - consider redistribution",
	},
	{
		when:    func(s situation) bool { return s.prob >= 0.6 },
		action:  model.ActionDiscount,
		urgency: fixed(model.UrgencyHigh),
		reason:  "High waste probability requires immediate action",
	},
	{
		when:    func(s situation) bool { return s.prob >= 0.4 },
		action:  model.ActionDiscount,
		urgency: fixed(model.UrgencyMedium),
		reason:  "Moderate waste risk - preventive discounting recommended",
	},
	{
		when:    func(s situation) bool { return s.ratio >= 8 },
		action:  model.ActionReroute,
		urgency: fixed(model.UrgencyLow),
		reason:  "Significantly overstocked - consider redistribution",
	},
	{
		when:    func(situation) bool { return true },
		action:  model.ActionKeep,
		urgency: fixed(model.UrgencyLow),
		reason:  "Low waste risk - continue monitoring",
	},
}

// evaluate returns the first branch matching s.
func evaluate(s situation) branch {
	for _, b := range cascade {
		if b.when(s) {
			return b
		}
	}
	return cascade[len(cascade)-1]
}
