package model

import "time"

// Product is a persisted inventory record.
type Product struct {
	ProductID       string    `json:"product_id"`
	ProductName     string    `json:"product_name"`
	Category        Category  `json:"category"`
	CurrentStock    int       `json:"current_stock"`
	PurchaseDate    time.Time `json:"purchase_date"`
	ExpiryDate      time.Time `json:"expiry_date"`
	Price           float64   `json:"price"`
	DiscountRate    float64   `json:"discount_rate"`
	SalesVelocity7d float64   `json:"sales_velocity_7d"`
	Temperature     float64   `json:"temperature"`
	Humidity        float64   `json:"humidity"`
	Location        string    `json:"location"`
	Supplier        string    `json:"supplier"`
	UpdatedAt       time.Time `json:"last_updated"`
}

// DaysUntilExpiry returns whole days from now until the start of the expiry
// date, rounded down, so an item expiring today reports -1 once the day has
// begun.
func (p Product) DaysUntilExpiry(now time.Time) int {
	return DaysUntil(now, p.ExpiryDate)
}

// StockVelocityRatio returns days of inventory at the current sales pace.
func (p Product) StockVelocityRatio() float64 {
	return float64(p.CurrentStock) / max(p.SalesVelocity7d, 1)
}

// Snapshot converts the product into the scoring engine's input as of now.
func (p Product) Snapshot(now time.Time) ItemSnapshot {
	wd := now.Weekday()
	return ItemSnapshot{
		CurrentStock:    p.CurrentStock,
		DaysUntilExpiry: p.DaysUntilExpiry(now),
		SalesVelocity7d: p.SalesVelocity7d,
		Category:        ParseCategory(string(p.Category)),
		Temperature:     p.Temperature,
		Humidity:        p.Humidity,
		DiscountRate:    p.DiscountRate,
		IsWeekend:       wd == time.Saturday || wd == time.Sunday,
	}
}

// DaysUntil returns DaysBetween(now, date) with date read as a calendar day.
// Dates are carried as UTC midnight; the day is placed at midnight in now's
// location so the count does not shift outside UTC.
func DaysUntil(now, date time.Time) int {
	y, m, d := date.UTC().Date()
	return DaysBetween(now, time.Date(y, m, d, 0, 0, 0, 0, now.Location()))
}

// DaysBetween returns floor((to - from) / 24h).
func DaysBetween(from, to time.Time) int {
	d := to.Sub(from)
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}
