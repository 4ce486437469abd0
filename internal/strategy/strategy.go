// Package strategy holds the per-product pricing logic and the factory that
// selects it by product key.
package strategy

import (
	"github.com/straye-as/blind-quote/internal/domain"
	"github.com/straye-as/blind-quote/internal/pricing"
)

// PriceResult is the outcome of pricing one item. Err is set when Price is nil.
type PriceResult struct {
	Price *float64 `json:"price"`
	Err   string   `json:"error,omitempty"`
}

// Bounds is an optional closed range; nil ends are unbounded
type Bounds struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// ValidationRules are the dimension bounds of a product
type ValidationRules struct {
	Width  Bounds `json:"width"`
	Height Bounds `json:"height"`
}

// AccessoryInput feeds an accessory formula. Predicate-counted accessories
// read Items; linear accessories read Count.
type AccessoryInput struct {
	Items []domain.Item
	Count int
}

// AccessoryFormula computes an accessory total from its input and unit price
type AccessoryFormula func(in AccessoryInput, unitPrice float64) float64

// Strategy is the product-specific logic used by the reducer and the calculation service
type Strategy interface {
	ProductType() domain.ProductKey
	CalculatePrice(item domain.Item, matrix *pricing.Matrix) PriceResult
	InitialItem() domain.Item
	ValidationRules() ValidationRules
	AccessoryFormula(method string) (AccessoryFormula, bool)
}

// RuleSource provides the configured business rules of a product type
type RuleSource interface {
	ValidationRules(productType string) (pricing.ValidationRule, bool)
}
