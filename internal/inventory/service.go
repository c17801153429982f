// Package inventory manages product records: expiry and overstock views,
// summaries, sale and discount updates, and bulk import.
package inventory

import (
	"cmp"
	"context"
	"math"
	"slices"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/wastewise/internal/model"
	"github.com/sells-group/wastewise/internal/store"
)

// Thresholds used by Summary and NeedingAttention.
const (
	ExpiringSoonDays      = 3
	OverstockRatio        = 5.0
	AttentionExpiringDays = 2
	AttentionOverstock    = 7.0
	LowVelocity           = 3.0
	HighDiscount          = 0.3
)

// scanLimit bounds how many products a single view loads.
const scanLimit = 10000

// ExpiringProduct is a product with its days until expiry as of the query.
type ExpiringProduct struct {
	model.Product
	DaysUntilExpiry int `json:"days_until_expiry"`
}

// OverstockedProduct is a product whose stock exceeds several days of sales.
type OverstockedProduct struct {
	model.Product
	StockVelocityRatio float64 `json:"stock_velocity_ratio"`
	DaysOfInventory    float64 `json:"days_of_inventory"`
}

// CategoryStats aggregates products in one category.
type CategoryStats struct {
	Count            int     `json:"count"`
	TotalStock       int     `json:"total_stock"`
	AvgSalesVelocity float64 `json:"avg_sales_velocity"`
}

// RiskIndicators counts products at risk.
type RiskIndicators struct {
	ExpiringSoonCount  int     `json:"expiring_soon_count"`
	OverstockedCount   int     `json:"overstocked_count"`
	HighRiskPercentage float64 `json:"high_risk_percentage"`
}

// Summary is the inventory-wide status report.
type Summary struct {
	TotalProducts       int                              `json:"total_products"`
	TotalStockUnits     int                              `json:"total_stock_units"`
	TotalInventoryValue decimal.Decimal                  `json:"total_inventory_value"`
	CategoryBreakdown   map[model.Category]CategoryStats `json:"category_breakdown"`
	RiskIndicators      RiskIndicators                   `json:"risk_indicators"`
	LastUpdated         time.Time                        `json:"last_updated"`
}

// Attention groups the products that need action now.
type Attention struct {
	ExpiringSoon []ExpiringProduct    `json:"expiring_soon"`
	Overstocked  []OverstockedProduct `json:"overstocked"`
	LowVelocity  []model.Product      `json:"low_velocity"`
	HighDiscount []model.Product      `json:"high_discount"`
}

// Service is the inventory service over a Store.
type Service struct {
	store store.Store
	now   func() time.Time
}

// NewService creates a Service backed by st.
func NewService(st store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// Product returns one product.
func (s *Service) Product(ctx context.Context, productID string) (*model.Product, error) {
	return s.store.GetProduct(ctx, productID)
}

// Products lists products, optionally restricted to a category.
func (s *Service) Products(ctx context.Context, category model.Category) ([]model.Product, error) {
	return s.store.ListProducts(ctx, store.ProductFilter{Category: category, Limit: scanLimit})
}

// Snapshot returns the engine input for a stored product as of now.
func (s *Service) Snapshot(ctx context.Context, productID string) (model.ItemSnapshot, error) {
	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return model.ItemSnapshot{}, err
	}
	return p.Snapshot(s.now()), nil
}

// Add stores a new or replacement product.
func (s *Service) Add(ctx context.Context, p model.Product) error {
	p.UpdatedAt = s.now()
	if err := s.store.UpsertProduct(ctx, p); err != nil {
		return err
	}
	zap.L().Info("inventory: product saved", zap.String("product_id", p.ProductID))
	return nil
}

// Remove deletes a product.
func (s *Service) Remove(ctx context.Context, productID string) error {
	if err := s.store.DeleteProduct(ctx, productID); err != nil {
		return err
	}
	zap.L().Info("inventory: product removed", zap.String("product_id", productID))
	return nil
}

// Expiring returns products expiring within days, most urgent first.
// Already-expired products are included.
func (s *Service) Expiring(ctx context.Context, days int) ([]ExpiringProduct, error) {
	products, err := s.Products(ctx, "")
	if err != nil {
		return nil, err
	}
	return expiring(products, s.now(), days), nil
}

func expiring(products []model.Product, now time.Time, days int) []ExpiringProduct {
	out := []ExpiringProduct{}
	for _, p := range products {
		if d := p.DaysUntilExpiry(now); d <= days {
			out = append(out, ExpiringProduct{Product: p, DaysUntilExpiry: d})
		}
	}
	slices.SortStableFunc(out, func(a, b ExpiringProduct) int {
		return cmp.Compare(a.DaysUntilExpiry, b.DaysUntilExpiry)
	})
	return out
}

// Overstocked returns products holding more than ratio days of sales,
// most overstocked first.
func (s *Service) Overstocked(ctx context.Context, ratio float64) ([]OverstockedProduct, error) {
	products, err := s.Products(ctx, "")
	if err != nil {
		return nil, err
	}
	return overstocked(products, ratio), nil
}

func overstocked(products []model.Product, ratio float64) []OverstockedProduct {
	out := []OverstockedProduct{}
	for _, p := range products {
		r := p.StockVelocityRatio()
		if r > ratio {
			out = append(out, OverstockedProduct{
				Product:            p,
				StockVelocityRatio: round(r, 2),
				DaysOfInventory:    round(r, 1),
			})
		}
	}
	slices.SortStableFunc(out, func(a, b OverstockedProduct) int {
		return cmp.Compare(b.StockVelocityRatio, a.StockVelocityRatio)
	})
	return out
}

// Summary reports totals, per-category stats, risk counts and the
// discounted value of stock on hand.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	products, err := s.Products(ctx, "")
	if err != nil {
		return nil, eris.Wrap(err, "inventory: summary")
	}
	now := s.now()

	sum := &Summary{
		TotalProducts:       len(products),
		TotalInventoryValue: decimal.Zero,
		CategoryBreakdown:   make(map[model.Category]CategoryStats),
		LastUpdated:         now,
	}
	velocity := make(map[model.Category]float64)
	for _, p := range products {
		sum.TotalStockUnits += p.CurrentStock

		cs := sum.CategoryBreakdown[p.Category]
		cs.Count++
		cs.TotalStock += p.CurrentStock
		sum.CategoryBreakdown[p.Category] = cs
		velocity[p.Category] += p.SalesVelocity7d

		value := decimal.NewFromInt(int64(p.CurrentStock)).
			Mul(decimal.NewFromFloat(p.Price)).
			Mul(decimal.NewFromInt(1).Sub(decimal.NewFromFloat(p.DiscountRate)))
		sum.TotalInventoryValue = sum.TotalInventoryValue.Add(value)
	}
	sum.TotalInventoryValue = sum.TotalInventoryValue.Round(2)

	for c, cs := range sum.CategoryBreakdown {
		cs.AvgSalesVelocity = round(velocity[c]/float64(cs.Count), 2)
		sum.CategoryBreakdown[c] = cs
	}

	exp := len(expiring(products, now, ExpiringSoonDays))
	over := len(overstocked(products, OverstockRatio))
	sum.RiskIndicators = RiskIndicators{
		ExpiringSoonCount:  exp,
		OverstockedCount:   over,
		HighRiskPercentage: round(float64(exp+over)/float64(max(len(products), 1))*100, 1),
	}
	return sum, nil
}

// NeedingAttention returns the products that need action now.
func (s *Service) NeedingAttention(ctx context.Context) (*Attention, error) {
	products, err := s.Products(ctx, "")
	if err != nil {
		return nil, err
	}
	a := &Attention{
		ExpiringSoon: expiring(products, s.now(), AttentionExpiringDays),
		Overstocked:  overstocked(products, AttentionOverstock),
		LowVelocity:  []model.Product{},
		HighDiscount: []model.Product{},
	}
	for _, p := range products {
		if p.SalesVelocity7d < LowVelocity {
			a.LowVelocity = append(a.LowVelocity, p)
		}
		if p.DiscountRate > HighDiscount {
			a.HighDiscount = append(a.HighDiscount, p)
		}
	}
	return a, nil
}

// RecordSale removes units from stock and folds the sale into the 7-day
// velocity as one more day of a trailing average.
func (s *Service) RecordSale(ctx context.Context, productID string, units int) (*model.Product, error) {
	if units < 0 {
		return nil, eris.Errorf("inventory: units sold must be non-negative, got %d", units)
	}
	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	p.CurrentStock = max(0, p.CurrentStock-units)
	daily := float64(units) / 7
	p.SalesVelocity7d = round((p.SalesVelocity7d*6+daily)/7, 2)
	p.UpdatedAt = s.now()

	if err := s.store.UpsertProduct(ctx, *p); err != nil {
		return nil, err
	}
	zap.L().Info("inventory: sale recorded",
		zap.String("product_id", productID),
		zap.Int("units", units),
		zap.Int("stock", p.CurrentStock),
	)
	return p, nil
}

// UpdateStock sets the stock level of a product.
func (s *Service) UpdateStock(ctx context.Context, productID string, stock int) error {
	if stock < 0 {
		return eris.Errorf("inventory: stock must be non-negative, got %d", stock)
	}
	return s.update(ctx, productID, func(p *model.Product) { p.CurrentStock = stock })
}

// UpdateDiscount sets the discount rate of a product.
func (s *Service) UpdateDiscount(ctx context.Context, productID string, rate float64) error {
	if rate < 0 || rate > 1 || math.IsNaN(rate) {
		return eris.Errorf("inventory: discount rate must be between 0 and 1, got %v", rate)
	}
	if err := s.update(ctx, productID, func(p *model.Product) { p.DiscountRate = rate }); err != nil {
		return err
	}
	zap.L().Info("inventory: discount updated",
		zap.String("product_id", productID),
		zap.Float64("rate", rate),
	)
	return nil
}

func (s *Service) update(ctx context.Context, productID string, fn func(*model.Product)) error {
	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	fn(p)
	p.UpdatedAt = s.now()
	return s.store.UpsertProduct(ctx, *p)
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
