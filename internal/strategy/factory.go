package strategy

import (
	"go.uber.org/zap"

	"github.com/straye-as/blind-quote/internal/domain"
)

// Factory resolves product keys to strategies
type Factory struct {
	rules  RuleSource
	logger *zap.Logger
}

// NewFactory creates a strategy factory over a rule source
func NewFactory(rules RuleSource, logger *zap.Logger) *Factory {
	return &Factory{rules: rules, logger: logger}
}

// Strategy returns the strategy of a product type, or nil for unknown types
func (f *Factory) Strategy(productType domain.ProductKey) Strategy {
	switch productType {
	case domain.ProductRollerBlind:
		return NewRollerBlind(f.rules)
	}
	f.logger.Error("No strategy found for product type", zap.String("product_type", string(productType)))
	return nil
}
