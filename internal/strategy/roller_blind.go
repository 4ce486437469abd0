package strategy

import (
	"fmt"

	"github.com/straye-as/blind-quote/internal/domain"
	"github.com/straye-as/blind-quote/internal/pricing"
)

// Accessory formula names as used in accessoryMethodNameMap
const (
	MethodDualPrice    = "calculateDualPrice"
	MethodWinderPrice  = "calculateWinderPrice"
	MethodMotorPrice   = "calculateMotorPrice"
	MethodRemotePrice  = "calculateRemotePrice"
	MethodChargerPrice = "calculateChargerPrice"
	MethodCordPrice    = "calculateCordPrice"
)

// RollerBlind prices roller blinds against fabric price matrices
type RollerBlind struct {
	rules RuleSource
}

// NewRollerBlind creates the roller blind strategy
func NewRollerBlind(rules RuleSource) *RollerBlind {
	return &RollerBlind{rules: rules}
}

func (s *RollerBlind) ProductType() domain.ProductKey {
	return domain.ProductRollerBlind
}

// CalculatePrice looks up the smallest matrix cell that fits the item
func (s *RollerBlind) CalculatePrice(item domain.Item, matrix *pricing.Matrix) PriceResult {
	if !item.IsComplete() {
		return PriceResult{Err: "Incomplete item data."}
	}
	if matrix == nil {
		return PriceResult{Err: fmt.Sprintf("Price matrix not found for fabric type: %s", item.FabricType)}
	}

	widthIndex := pricing.StepIndex(matrix.Widths, *item.Width)
	dropIndex := pricing.StepIndex(matrix.Drops, *item.Height)

	if widthIndex == -1 {
		return PriceResult{Err: fmt.Sprintf("Width %d exceeds the maximum width in the price matrix.", *item.Width)}
	}
	if dropIndex == -1 {
		return PriceResult{Err: fmt.Sprintf("Height %d exceeds the maximum height in the price matrix.", *item.Height)}
	}

	price, ok := matrix.Cell(dropIndex, widthIndex)
	if !ok {
		return PriceResult{Err: "Price not found for the given dimensions."}
	}
	return PriceResult{Price: domain.Float(price)}
}

func (s *RollerBlind) InitialItem() domain.Item {
	return domain.NewBlankItem()
}

// ValidationRules returns the configured bounds, or unbounded rules when none are configured
func (s *RollerBlind) ValidationRules() ValidationRules {
	if s.rules == nil {
		return ValidationRules{}
	}
	r, ok := s.rules.ValidationRules(string(domain.ProductRollerBlind))
	if !ok {
		return ValidationRules{}
	}
	return ValidationRules{
		Width:  Bounds{Min: r.MinWidth, Max: r.MaxWidth},
		Height: Bounds{Min: r.MinHeight, Max: r.MaxHeight},
	}
}

func (s *RollerBlind) AccessoryFormula(method string) (AccessoryFormula, bool) {
	switch method {
	case MethodDualPrice:
		return func(in AccessoryInput, unitPrice float64) float64 {
			return s.CalculateDualPrice(in.Items, unitPrice)
		}, true
	case MethodWinderPrice, MethodMotorPrice, MethodRemotePrice, MethodChargerPrice, MethodCordPrice:
		return func(in AccessoryInput, unitPrice float64) float64 {
			return linearPrice(in.Count, unitPrice)
		}, true
	}
	return nil, false
}

// CalculateDualPrice prices dual brackets, which are sold in pairs: an odd
// flagged row does not make a pair.
func (s *RollerBlind) CalculateDualPrice(items []domain.Item, pricePerPair float64) float64 {
	count := 0
	for _, it := range items {
		if it.Dual == domain.DualBracket {
			count++
		}
	}
	return float64(count/2) * pricePerPair
}

func linearPrice(count int, pricePerUnit float64) float64 {
	return float64(count) * pricePerUnit
}
