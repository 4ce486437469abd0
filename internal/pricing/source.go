// Package pricing loads the price data file and exposes read-only lookups
// over price matrices, accessory prices, the fabric type sequence and the
// business rules. Lookups never fail: missing data is logged and degrades
// to nil or zero.
package pricing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = validator.New()

// Source is the configuration source consumed by strategies, reducers and
// the calculation service. A Source with no document behaves as "not loaded".
type Source struct {
	doc    *Document
	f2     F2UnitPrices
	logger *zap.Logger
}

// NewSource wraps an already decoded document. doc may be nil.
func NewSource(doc *Document, f2 F2UnitPrices, logger *zap.Logger) *Source {
	return &Source{doc: doc, f2: f2, logger: logger}
}

// LoadFile reads and validates a price data file
func LoadFile(path string, f2 F2UnitPrices, logger *zap.Logger) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read price data file: %w", err)
	}
	return Parse(data, f2, logger)
}

// Parse decodes and validates price data
func Parse(data []byte, f2 F2UnitPrices, logger *zap.Logger) (*Source, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode price data: %w", err)
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("invalid price data: %w", err)
	}
	if doc.FabricTypeSequence == nil {
		doc.FabricTypeSequence = []string{}
	}

	src := NewSource(&doc, f2, logger)
	src.log().Info("Price data loaded",
		zap.Int("matrices", len(doc.Matrices)),
		zap.Int("accessories", len(doc.Accessories)),
		zap.Strings("fabric_type_sequence", doc.FabricTypeSequence))

	return src, nil
}

// Loaded reports whether price data is available
func (s *Source) Loaded() bool {
	return s != nil && s.doc != nil
}

// PriceMatrix returns the matrix of a fabric type, resolving aliases.
// An aliased matrix keeps the alias's display name.
func (s *Source) PriceMatrix(fabricType string) *Matrix {
	if !s.Loaded() {
		s.log().Error("Price matrices not loaded")
		return nil
	}
	m, ok := s.doc.Matrices[fabricType]
	if !ok {
		return nil
	}
	if m.AliasFor != "" {
		target, ok := s.doc.Matrices[m.AliasFor]
		if !ok {
			s.log().Error("Alias target not found",
				zap.String("fabric_type", fabricType),
				zap.String("alias_for", m.AliasFor))
			return nil
		}
		target.Name = m.Name
		target.AliasFor = ""
		return &target
	}
	return &m
}

// AccessoryPrice returns the unit price of an accessory key
func (s *Source) AccessoryPrice(key string) (float64, bool) {
	if !s.Loaded() {
		s.log().Error("Accessory prices not loaded")
		return 0, false
	}
	acc, ok := s.doc.Accessories[key]
	if !ok || acc.Price == nil {
		s.log().Error("Accessory price not found", zap.String("accessory_key", key))
		return 0, false
	}
	return *acc.Price, true
}

// FabricTypeSequence returns the type cycling order, or an empty slice when not loaded
func (s *Source) FabricTypeSequence() []string {
	if !s.Loaded() {
		s.log().Error("Fabric type sequence not loaded")
		return []string{}
	}
	return s.doc.FabricTypeSequence
}

// ValidationRules returns the dimension bounds of a product type
func (s *Source) ValidationRules(productType string) (ValidationRule, bool) {
	if !s.Loaded() || s.doc.BusinessRules.Validation == nil {
		return ValidationRule{}, false
	}
	rule, ok := s.doc.BusinessRules.Validation[productType]
	return rule, ok
}

// LogicThresholds returns the business thresholds, or nil if absent
func (s *Source) LogicThresholds() *LogicThresholds {
	if !s.Loaded() {
		return nil
	}
	return s.doc.BusinessRules.Logic
}

// AccessoryMappings returns the accessory mappings with empty maps as fallback
func (s *Source) AccessoryMappings() AccessoryMappings {
	out := AccessoryMappings{
		AccessoryPriceKeyMap:   map[string]string{},
		AccessoryMethodNameMap: map[string]string{},
		AccessoryCostKeyMap:    map[string]string{},
	}
	if !s.Loaded() || s.doc.BusinessRules.Mappings == nil {
		return out
	}
	m := s.doc.BusinessRules.Mappings
	if m.AccessoryPriceKeyMap != nil {
		out.AccessoryPriceKeyMap = m.AccessoryPriceKeyMap
	}
	if m.AccessoryMethodNameMap != nil {
		out.AccessoryMethodNameMap = m.AccessoryMethodNameMap
	}
	if m.AccessoryCostKeyMap != nil {
		out.AccessoryCostKeyMap = m.AccessoryCostKeyMap
	}
	return out
}

// F2UnitPrices returns the configured F2 fee prices
func (s *Source) F2UnitPrices() F2UnitPrices {
	if s == nil {
		return DefaultF2UnitPrices()
	}
	return s.f2
}

func (s *Source) log() *zap.Logger {
	if s == nil || s.logger == nil {
		return zap.NewNop()
	}
	return s.logger
}
