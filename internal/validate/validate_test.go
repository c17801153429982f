package validate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/wastewise/internal/model"
)

func ptr(f float64) *float64 { return &f }

func validItem() model.InventoryItem {
	return model.InventoryItem{
		ProductID:       "PROD_001",
		ProductName:     "Organic Bananas",
		Category:        "Produce",
		CurrentStock:    ptr(45),
		PurchaseDate:    "2024-01-15",
		ExpiryDate:      "2024-01-22",
		SalesVelocity7d: ptr(8.5),
		Price:           ptr(2.99),
		DiscountRate:    ptr(0),
		Temperature:     ptr(68),
		Humidity:        ptr(65),
	}
}

func TestItem_Valid(t *testing.T) {
	assert.Empty(t, Item(validItem()))

	minimal := validItem()
	minimal.PurchaseDate = ""
	minimal.Price = nil
	minimal.DiscountRate = nil
	minimal.Temperature = nil
	minimal.Humidity = nil
	assert.Empty(t, Item(minimal))

	zeroStock := validItem()
	zeroStock.CurrentStock = ptr(0)
	zeroStock.SalesVelocity7d = ptr(0)
	assert.Empty(t, Item(zeroStock))

	extended := validItem()
	extended.Category = "personal_care"
	assert.Empty(t, Item(extended))
}

func TestItem_MissingFieldsReportedAlone(t *testing.T) {
	it := validItem()
	it.ProductName = ""
	it.CurrentStock = nil
	it.Price = ptr(-1)

	got := Item(it)
	assert.Equal(t, []string{
		"Missing required field: product_name",
		"Missing required field: current_stock",
	}, got)
}

func TestItem_FieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.InventoryItem)
		want   string
	}{
		{"blank id", func(it *model.InventoryItem) { it.ProductID = "   " }, "product_id must be a non-empty string"},
		{"bad category", func(it *model.InventoryItem) { it.Category = "toys" },
			"Invalid category. Must be one of: produce, dairy, bakery, meat, frozen, canned, beverages, snacks, household, personal_care"},
		{"negative stock", func(it *model.InventoryItem) { it.CurrentStock = ptr(-3) }, "current_stock must be a non-negative number"},
		{"fractional stock", func(it *model.InventoryItem) { it.CurrentStock = ptr(12.5) }, "current_stock must be a whole number"},
		{"negative velocity", func(it *model.InventoryItem) { it.SalesVelocity7d = ptr(-0.5) }, "sales_velocity_7d must be a non-negative number"},
		{"bad expiry", func(it *model.InventoryItem) { it.ExpiryDate = "01/22/2024" }, "expiry_date must be in YYYY-MM-DD format"},
		{"bad purchase", func(it *model.InventoryItem) { it.PurchaseDate = "2024-13-01" }, "purchase_date must be in YYYY-MM-DD format"},
		{"purchase after expiry", func(it *model.InventoryItem) { it.PurchaseDate = "2024-01-22" }, "purchase_date must be before expiry_date"},
		{"zero price", func(it *model.InventoryItem) { it.Price = ptr(0) }, "price must be a positive number"},
		{"discount above one", func(it *model.InventoryItem) { it.DiscountRate = ptr(1.5) }, "discount_rate must be between 0 and 1"},
		{"too cold", func(it *model.InventoryItem) { it.Temperature = ptr(-60) }, "temperature must be between -50 and 150 degrees"},
		{"too hot", func(it *model.InventoryItem) { it.Temperature = ptr(151) }, "temperature must be between -50 and 150 degrees"},
		{"humidity", func(it *model.InventoryItem) { it.Humidity = ptr(101) }, "humidity must be between 0 and 100 percent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := validItem()
			tt.mutate(&it)
			assert.Equal(t, []string{tt.want}, Item(it))
		})
	}
}

func TestItem_BoundariesAccepted(t *testing.T) {
	it := validItem()
	it.DiscountRate = ptr(1)
	it.Temperature = ptr(-50)
	it.Humidity = ptr(100)
	assert.Empty(t, Item(it))
}

func TestRequest(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		assert.Equal(t, []string{"Missing required field: inventory_items"}, Request(model.PredictionRequest{}))
	})

	t.Run("empty", func(t *testing.T) {
		got := Request(model.PredictionRequest{InventoryItems: []model.InventoryItem{}})
		assert.Equal(t, []string{"inventory_items cannot be empty"}, got)
	})

	t.Run("prefixes item position", func(t *testing.T) {
		bad := validItem()
		bad.Humidity = ptr(120)
		got := Request(model.PredictionRequest{InventoryItems: []model.InventoryItem{validItem(), bad}})
		assert.Equal(t, []string{"Item 2: humidity must be between 0 and 100 percent"}, got)
	})

	t.Run("too many", func(t *testing.T) {
		items := make([]model.InventoryItem, MaxItems+1)
		for i := range items {
			items[i] = validItem()
		}
		got := Request(model.PredictionRequest{InventoryItems: items})
		require.Len(t, got, 1)
		assert.Equal(t, fmt.Sprintf("Maximum %d inventory items allowed per request", MaxItems), got[0])
	})

	t.Run("valid", func(t *testing.T) {
		assert.Empty(t, Request(model.PredictionRequest{InventoryItems: []model.InventoryItem{validItem()}}))
	})
}

func TestEvent(t *testing.T) {
	valid := model.WasteEvent{
		ProductID:   "PROD_003",
		Category:    "Bakery",
		WasteAmount: 6,
		Reason:      model.ReasonExpired,
		ValueLost:   17.94,
	}
	assert.Empty(t, Event(valid))

	assert.Equal(t, []string{
		"Missing required field: product_id",
		"Missing required field: category",
		"Missing required field: reason",
	}, Event(model.WasteEvent{}))

	bad := valid
	bad.Reason = "stolen"
	bad.ValueLost = -1
	bad.WasteAmount = -2
	assert.Equal(t, []string{
		"waste_amount must be a non-negative number",
		"reason must be one of: expired, damaged, overstocked, quality_issues",
		"value_lost must be a non-negative number",
	}, Event(bad))

	bad = valid
	bad.Category = "toys"
	got := Event(bad)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "Invalid category")
}

func TestOutcome(t *testing.T) {
	valid := model.ActionOutcome{
		ProductID:      "PROD_002",
		ActionTaken:    model.ActionDiscount,
		Outcome:        model.OutcomeSold,
		ValueRecovered: 12.5,
	}
	assert.Empty(t, Outcome(valid))

	bad := valid
	bad.ActionTaken = "shred"
	bad.Outcome = " "
	bad.ValueRecovered = -3
	assert.Equal(t, []string{
		"action_taken must be one of: keep, discount, donate, reroute, monitor",
		"outcome must be a non-empty string",
		"value_recovered must be a non-negative number",
	}, Outcome(bad))
}
