package model

import (
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// DateLayout is the wire format of purchase and expiry dates.
const DateLayout = "2006-01-02"

// InventoryItem is an item as submitted for assessment. Optional numeric
// fields are pointers so an absent value can take its default.
type InventoryItem struct {
	ProductID       string   `json:"product_id" csv:"product_id" validate:"required,notblank"`
	ProductName     string   `json:"product_name" csv:"product_name" validate:"required,notblank"`
	Category        string   `json:"category" csv:"category" validate:"required,category"`
	CurrentStock    *float64 `json:"current_stock" csv:"current_stock" validate:"required,gte=0,whole"`
	ExpiryDate      string   `json:"expiry_date" csv:"expiry_date" validate:"required,datetime=2006-01-02"`
	PurchaseDate    string   `json:"purchase_date,omitempty" csv:"purchase_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	SalesVelocity7d *float64 `json:"sales_velocity_7d" csv:"sales_velocity_7d" validate:"required,gte=0"`
	Price           *float64 `json:"price,omitempty" csv:"price,omitempty" validate:"omitempty,gt=0"`
	DiscountRate    *float64 `json:"discount_rate,omitempty" csv:"discount_rate,omitempty" validate:"omitempty,min=0,max=1"`
	Temperature     *float64 `json:"temperature,omitempty" csv:"temperature,omitempty" validate:"omitempty,min=-50,max=150"`
	Humidity        *float64 `json:"humidity,omitempty" csv:"humidity,omitempty" validate:"omitempty,min=0,max=100"`
	IsWeekend       bool     `json:"is_weekend,omitempty" csv:"-"`
	PromotionActive bool     `json:"promotion_active,omitempty" csv:"-"`
	Location        string   `json:"location,omitempty" csv:"location,omitempty"`
	Supplier        string   `json:"supplier,omitempty" csv:"supplier,omitempty"`
}

// PredictionRequest is the body of a batch prediction call.
type PredictionRequest struct {
	InventoryItems []InventoryItem `json:"inventory_items" validate:"required,min=1,max=1000"`
}

// Snapshot converts a validated item into engine input as of now. Storage
// readings that were not supplied take their defaults.
func (it InventoryItem) Snapshot(now time.Time) (ItemSnapshot, error) {
	expiry, err := time.Parse(DateLayout, it.ExpiryDate)
	if err != nil {
		return ItemSnapshot{}, eris.Wrapf(err, "model: parse expiry_date %q", it.ExpiryDate)
	}

	s := NewSnapshot(it.Stock(), DaysUntil(now, expiry),
		deref(it.SalesVelocity7d, 0), ParseCategory(it.Category))
	s.Temperature = deref(it.Temperature, DefaultTemperature)
	s.Humidity = deref(it.Humidity, DefaultHumidity)
	s.DiscountRate = deref(it.DiscountRate, 0)
	s.IsWeekend = it.IsWeekend
	s.PromotionActive = it.PromotionActive
	return s, nil
}

// Product converts a validated item into an inventory record.
func (it InventoryItem) Product(now time.Time) (Product, error) {
	expiry, err := time.Parse(DateLayout, it.ExpiryDate)
	if err != nil {
		return Product{}, eris.Wrapf(err, "model: parse expiry_date %q", it.ExpiryDate)
	}
	p := Product{
		ProductID:       strings.TrimSpace(it.ProductID),
		ProductName:     strings.TrimSpace(it.ProductName),
		Category:        Category(strings.ToLower(strings.TrimSpace(it.Category))),
		CurrentStock:    it.Stock(),
		ExpiryDate:      expiry,
		Price:           deref(it.Price, 0),
		DiscountRate:    deref(it.DiscountRate, 0),
		SalesVelocity7d: deref(it.SalesVelocity7d, 0),
		Temperature:     deref(it.Temperature, DefaultTemperature),
		Humidity:        deref(it.Humidity, DefaultHumidity),
		Location:        it.Location,
		Supplier:        it.Supplier,
		UpdatedAt:       now,
	}
	if it.PurchaseDate != "" {
		p.PurchaseDate, err = time.Parse(DateLayout, it.PurchaseDate)
		if err != nil {
			return Product{}, eris.Wrapf(err, "model: parse purchase_date %q", it.PurchaseDate)
		}
	}
	return p, nil
}

// Stock returns the current stock rounded to whole units. Validation rejects
// fractional stock; callers that skip it get the nearest unit.
func (it InventoryItem) Stock() int {
	return int(math.Round(deref(it.CurrentStock, 0)))
}

func deref(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
