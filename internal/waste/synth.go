package waste

import (
	"math"
	"math/rand/v2"

	"github.com/sells-group/wastewise/internal/model"
)

// categoryProfile describes realistic ranges for one category. Days are a
// half-open range; the rest are normal distributions.
type categoryProfile struct {
	minDays, maxDays int
	velocityMean     float64
	velocityStd      float64
	temperatureMean  float64
	temperatureStd   float64
	humidityMean     float64
	humidityStd      float64
}

var syntheticProfiles = []struct {
	category model.Category
	profile  categoryProfile
}{
	{model.CategoryProduce, categoryProfile{1, 8, 10, 3, 68, 5, 65, 10}},
	{model.CategoryDairy, categoryProfile{1, 14, 15, 4, 38, 3, 45, 5}},
	{model.CategoryBakery, categoryProfile{1, 5, 8, 2, 72, 4, 55, 8}},
	{model.CategoryMeat, categoryProfile{1, 7, 12, 3, 35, 2, 40, 5}},
	{model.CategoryFrozen, categoryProfile{7, 90, 6, 2, 0, 5, 30, 10}},
}

// GenerateSynthetic draws n labeled samples from category-conditioned
// distributions and labels them with the rule probability. The same seed
// always yields the same set.
func GenerateSynthetic(n int, seed uint64) []model.TrainingSample {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]model.TrainingSample, 0, max(n, 0))

	for i := 0; i < n; i++ {
		pick := syntheticProfiles[rng.IntN(len(syntheticProfiles))]
		cp := pick.profile

		s := model.ItemSnapshot{
			Category:        pick.category,
			DaysUntilExpiry: cp.minDays + rng.IntN(cp.maxDays-cp.minDays),
			SalesVelocity7d: math.Max(0, normal(rng, cp.velocityMean, cp.velocityStd)),
			Temperature:     normal(rng, cp.temperatureMean, cp.temperatureStd),
			Humidity:        math.Max(0, math.Min(100, normal(rng, cp.humidityMean, cp.humidityStd))),
			CurrentStock:    10 + rng.IntN(90),
			DiscountRate:    rng.Float64() * 0.5,
			IsWeekend:       rng.Float64() < 0.3,
			PromotionActive: rng.Float64() < 0.2,
		}
		seasonal := 0.8 + rng.Float64()*0.4
		p := ruleProbability(s, Derive(s, seasonal))

		out = append(out, model.TrainingSample{
			ItemSnapshot:     s,
			SeasonalFactor:   seasonal,
			WasteProbability: p,
			WillExpireUnsold: p > 0.5,
		})
	}
	return out
}

func normal(rng *rand.Rand, mean, std float64) float64 {
	return mean + std*rng.NormFloat64()
}
