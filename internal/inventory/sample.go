package inventory

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/wastewise/internal/model"
)

// SampleProducts returns the five demo products with dates relative to now:
// the bread expires today and the bananas in a week.
func SampleProducts(now time.Time) []model.Product {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := func(offset int) time.Time { return today.AddDate(0, 0, offset) }

	return []model.Product{
		{
			ProductID: "PROD_001", ProductName: "Organic Bananas", Category: model.CategoryProduce,
			CurrentStock: 45, PurchaseDate: day(0), ExpiryDate: day(7),
			Price: 2.99, DiscountRate: 0, SalesVelocity7d: 8.5, Temperature: 68, Humidity: 65,
			Location: "Produce Section A", Supplier: "Fresh Farms Co", UpdatedAt: now,
		},
		{
			ProductID: "PROD_002", ProductName: "Fresh Milk", Category: model.CategoryDairy,
			CurrentStock: 24, PurchaseDate: day(-5), ExpiryDate: day(2),
			Price: 3.99, DiscountRate: 0.15, SalesVelocity7d: 12.3, Temperature: 38, Humidity: 45,
			Location: "Dairy Section B", Supplier: "Local Dairy Farm", UpdatedAt: now,
		},
		{
			ProductID: "PROD_003", ProductName: "Premium Bread", Category: model.CategoryBakery,
			CurrentStock: 18, PurchaseDate: day(-3), ExpiryDate: day(0),
			Price: 2.99, DiscountRate: 0.25, SalesVelocity7d: 6.8, Temperature: 72, Humidity: 55,
			Location: "Bakery Section", Supplier: "Artisan Bakery", UpdatedAt: now,
		},
		{
			ProductID: "PROD_004", ProductName: "Greek Yogurt", Category: model.CategoryDairy,
			CurrentStock: 32, PurchaseDate: day(-7), ExpiryDate: day(5),
			Price: 4.49, DiscountRate: 0, SalesVelocity7d: 9.2, Temperature: 38, Humidity: 48,
			Location: "Dairy Section A", Supplier: "Premium Dairy Co", UpdatedAt: now,
		},
		{
			ProductID: "PROD_005", ProductName: "Mixed Vegetables", Category: model.CategoryProduce,
			CurrentStock: 28, PurchaseDate: day(-1), ExpiryDate: day(3),
			Price: 3.79, DiscountRate: 0.10, SalesVelocity7d: 7.1, Temperature: 68, Humidity: 62,
			Location: "Produce Section B", Supplier: "Garden Fresh Supplies", UpdatedAt: now,
		},
	}
}

// Seed loads the sample products when the store holds none. It reports how
// many were written.
func (s *Service) Seed(ctx context.Context) (int, error) {
	existing, err := s.Products(ctx, "")
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	samples := SampleProducts(s.now())
	for _, p := range samples {
		if err := s.store.UpsertProduct(ctx, p); err != nil {
			return 0, err
		}
	}
	zap.L().Info("inventory: seeded sample products", zap.Int("count", len(samples)))
	return len(samples), nil
}
