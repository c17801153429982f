// Package validate checks inventory items and prediction requests before they
// reach the scoring engine, reporting problems as human-readable messages.
package validate

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sells-group/wastewise/internal/model"
)

// MaxItems caps the number of items accepted in one prediction request.
const MaxItems = 1000

// Categories lists the categories accepted on input. It is wider than the
// engine's category set; the extras score as "other".
var Categories = []string{
	"produce", "dairy", "bakery", "meat", "frozen", "canned",
	"beverages", "snacks", "household", "personal_care",
}

var itemValidator = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	val.RegisterValidation("notblank", func(fl validator.FieldLevel) bool { //nolint:errcheck
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	val.RegisterValidation("whole", func(fl validator.FieldLevel) bool { //nolint:errcheck
		f := fl.Field().Float()
		return f == math.Trunc(f)
	})
	val.RegisterValidation("category", func(fl validator.FieldLevel) bool { //nolint:errcheck
		return slices.Contains(Categories, strings.ToLower(strings.TrimSpace(fl.Field().String())))
	})
	return val
}

// rangeMessages holds the message for a failed bound, keyed by field.
var rangeMessages = map[string]string{
	"current_stock":     "current_stock must be a non-negative number",
	"sales_velocity_7d": "sales_velocity_7d must be a non-negative number",
	"price":             "price must be a positive number",
	"discount_rate":     "discount_rate must be between 0 and 1",
	"temperature":       "temperature must be between -50 and 150 degrees",
	"humidity":          "humidity must be between 0 and 100 percent",
	"waste_amount":      "waste_amount must be a non-negative number",
	"value_lost":        "value_lost must be a non-negative number",
	"value_recovered":   "value_recovered must be a non-negative number",
}

// Item returns the problems with a single inventory item, or nil when it is
// valid. Missing required fields are reported alone.
func Item(it model.InventoryItem) []string {
	err := itemValidator.Struct(it)

	var fieldErrs validator.ValidationErrors
	if err != nil && !errors.As(err, &fieldErrs) {
		return []string{fmt.Sprintf("Validation error: %v", err)}
	}

	var missing, msgs []string
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			missing = append(missing, "Missing required field: "+fe.Field())
			continue
		}
		msgs = append(msgs, message(fe))
	}
	if len(missing) > 0 {
		return missing
	}

	if msg := checkDates(it); msg != "" {
		msgs = append(msgs, msg)
	}
	return msgs
}

// Request validates the envelope and every item in it. Item problems are
// prefixed with the item's 1-based position.
func Request(req model.PredictionRequest) []string {
	var msgs []string
	var fieldErrs validator.ValidationErrors
	if errors.As(itemValidator.Struct(req), &fieldErrs) {
		for _, fe := range fieldErrs {
			switch fe.Tag() {
			case "required":
				return []string{"Missing required field: inventory_items"}
			case "min":
				return []string{"inventory_items cannot be empty"}
			case "max":
				msgs = append(msgs, fmt.Sprintf("Maximum %d inventory items allowed per request", MaxItems))
			}
		}
	}

	for i, it := range req.InventoryItems {
		for _, m := range Item(it) {
			msgs = append(msgs, fmt.Sprintf("Item %d: %s", i+1, m))
		}
	}
	return msgs
}

// Event returns the problems with a reported waste event.
func Event(ev model.WasteEvent) []string {
	return fields(ev)
}

// Outcome returns the problems with a reported action outcome.
func Outcome(o model.ActionOutcome) []string {
	return fields(o)
}

func fields(v any) []string {
	err := itemValidator.Struct(v)

	var fieldErrs validator.ValidationErrors
	if err != nil && !errors.As(err, &fieldErrs) {
		return []string{fmt.Sprintf("Validation error: %v", err)}
	}

	var msgs []string
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			msgs = append(msgs, "Missing required field: "+fe.Field())
			continue
		}
		msgs = append(msgs, message(fe))
	}
	return msgs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return fe.Field() + " must be a non-empty string"
	case "category":
		return "Invalid category. Must be one of: " + strings.Join(Categories, ", ")
	case "oneof":
		return fe.Field() + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "whole":
		return fe.Field() + " must be a whole number"
	case "datetime":
		return fe.Field() + " must be in YYYY-MM-DD format"
	}
	if msg, ok := rangeMessages[fe.Field()]; ok {
		return msg
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}

// checkDates enforces purchase_date < expiry_date once both parse.
func checkDates(it model.InventoryItem) string {
	if it.PurchaseDate == "" {
		return ""
	}
	expiry, err := time.Parse(model.DateLayout, it.ExpiryDate)
	if err != nil {
		return ""
	}
	purchase, err := time.Parse(model.DateLayout, it.PurchaseDate)
	if err != nil {
		return ""
	}
	if !purchase.Before(expiry) {
		return "purchase_date must be before expiry_date"
	}
	return ""
}
