package service

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/straye-as/blind-quote/internal/domain"
	"github.com/straye-as/blind-quote/internal/pricing"
	"github.com/straye-as/blind-quote/internal/strategy"
)

// ConfigSource is the read-only price configuration used by the calculation service
type ConfigSource interface {
	PriceMatrix(fabricType string) *pricing.Matrix
	AccessoryPrice(key string) (float64, bool)
	AccessoryMappings() pricing.AccessoryMappings
	F2UnitPrices() pricing.F2UnitPrices
}

// StrategyResolver resolves the strategy of a product
type StrategyResolver interface {
	Strategy(productType domain.ProductKey) strategy.Strategy
}

// F1Component names a priced component of the F1 cost breakdown
type F1Component string

const (
	F1Winder     F1Component = "winder"
	F1Motor      F1Component = "motor"
	F1Remote1ch  F1Component = "remote-1ch"
	F1Remote16ch F1Component = "remote-16ch"
	F1Charger    F1Component = "charger"
	F1Cord       F1Component = "3m-cord"
	F1DualCombo  F1Component = "dual-combo"
	F1DualSlim   F1Component = "slim"
)

var f1AccessoryKeys = map[F1Component]string{
	F1Winder:     "cost-winder",
	F1Motor:      "cost-motor",
	F1Remote1ch:  "remoteSingleChannel",
	F1Remote16ch: "remoteMultiChannel16",
	F1Charger:    "charger",
	F1Cord:       "cord3m",
	F1DualCombo:  "comboBracket",
	F1DualSlim:   "slimComboBracket",
}

// defaultCostKeys are used when the price data has no accessoryCostKeyMap entry
var defaultCostKeys = map[domain.AccessoryKind]string{
	domain.AccessoryWinder:  "cost-winder",
	domain.AccessoryMotor:   "cost-motor",
	domain.AccessoryRemote:  "remoteSingleChannel",
	domain.AccessoryCharger: "charger",
	domain.AccessoryCord:    "cord3m",
	domain.AccessoryDual:    "comboBracket",
}

// f1GSTRate is the GST share added on top of the F1 sub total
const f1GSTRate = 0.10

// f2GSTMultiplier grosses the F2 revenue up to a GST-inclusive figure
const f2GSTMultiplier = 1.1

// CalculationService derives line prices and financial summaries from state
// snapshots. It never returns Go errors for missing configuration: lookups
// are logged and degrade to zero.
type CalculationService struct {
	config     ConfigSource
	strategies StrategyResolver
	logger     *zap.Logger
}

// NewCalculationService creates a new CalculationService instance
func NewCalculationService(config ConfigSource, strategies StrategyResolver, logger *zap.Logger) *CalculationService {
	return &CalculationService{
		config:     config,
		strategies: strategies,
		logger:     logger,
	}
}

// ============================================================================
// Line items
// ============================================================================

// CalculateAndSum prices every complete item of the current product and
// stores the new total. Pricing continues past failures; only the first
// failure is returned. Incomplete items are skipped silently.
func (s *CalculationService) CalculateAndSum(q *domain.QuoteData, st strategy.Strategy) (*domain.QuoteData, *domain.CalculationError) {
	if st == nil {
		s.logger.Error("Product strategy is required for calculation")
		return q, &domain.CalculationError{Message: "Product strategy not provided.", RowIndex: -1}
	}
	pd, ok := q.CurrentProductData()
	if !ok {
		s.logger.Error("Current product data not found", zap.String("product", string(q.CurrentProduct)))
		return q, &domain.CalculationError{Message: "Current product data not found.", RowIndex: -1}
	}

	var firstErr *domain.CalculationError
	items := make([]domain.Item, len(pd.Items))
	itemsTotal := 0.0

	for i, item := range pd.Items {
		item.LinePrice = nil
		if item.IsComplete() {
			result := st.CalculatePrice(item, s.config.PriceMatrix(item.FabricType))
			if result.Price != nil {
				item.LinePrice = domain.Float(*result.Price)
				itemsTotal += *result.Price
			} else if result.Err != "" && firstErr == nil {
				column := string(domain.ColumnHeight)
				if strings.Contains(strings.ToLower(result.Err), "width") {
					column = string(domain.ColumnWidth)
				}
				firstErr = &domain.CalculationError{
					Message:  fmt.Sprintf("Row %d: %s", i+1, result.Err),
					RowIndex: i,
					Column:   column,
				}
			}
		}
		items[i] = item
	}

	summary := pd.Summary
	summary.TotalSum = domain.Float(itemsTotal + summary.Accessories.SalePriceTotal())

	return q.WithProductData(domain.ProductData{Items: items, Summary: summary}), firstErr
}

// ============================================================================
// Accessories
// ============================================================================

// AccessorySalePrice computes the customer-facing price of an accessory using
// the configured sale price key
func (s *CalculationService) AccessorySalePrice(productType domain.ProductKey, accessory domain.AccessoryKind, in strategy.AccessoryInput) float64 {
	st := s.strategies.Strategy(productType)
	if st == nil {
		return 0
	}
	mappings := s.config.AccessoryMappings()
	priceKey, ok := mappings.AccessoryPriceKeyMap[string(accessory)]
	if !ok || priceKey == "" {
		s.logger.Error("No sale price key found for accessory", zap.String("accessory", string(accessory)))
		return 0
	}
	return s.applyFormula(st, mappings, accessory, priceKey, in)
}

// AccessoryCost computes the internal cost of an accessory from an explicit cost key
func (s *CalculationService) AccessoryCost(productType domain.ProductKey, accessory domain.AccessoryKind, costKey string, in strategy.AccessoryInput) float64 {
	st := s.strategies.Strategy(productType)
	if st == nil {
		return 0
	}
	if costKey == "" {
		s.logger.Error("Cost calculation requires a cost key", zap.String("accessory", string(accessory)))
		return 0
	}
	return s.applyFormula(st, s.config.AccessoryMappings(), accessory, costKey, in)
}

// CostKey returns the cost price key of an accessory
func (s *CalculationService) CostKey(accessory domain.AccessoryKind) string {
	if key := s.config.AccessoryMappings().AccessoryCostKeyMap[string(accessory)]; key != "" {
		return key
	}
	return defaultCostKeys[accessory]
}

func (s *CalculationService) applyFormula(st strategy.Strategy, mappings pricing.AccessoryMappings, accessory domain.AccessoryKind, priceKey string, in strategy.AccessoryInput) float64 {
	unitPrice, ok := s.config.AccessoryPrice(priceKey)
	if !ok {
		return 0
	}
	method := mappings.AccessoryMethodNameMap[string(accessory)]
	formula, ok := st.AccessoryFormula(method)
	if !ok {
		s.logger.Error("No accessory formula found",
			zap.String("accessory", string(accessory)),
			zap.String("method", method))
		return 0
	}
	return formula(in, unitPrice)
}

// ============================================================================
// F1 cost breakdown
// ============================================================================

// F1ComponentPrice is quantity times the configured unit price of a component.
// Negative quantities yield 0.
func (s *CalculationService) F1ComponentPrice(component F1Component, quantity int) float64 {
	if quantity < 0 {
		return 0
	}
	key, ok := f1AccessoryKeys[component]
	if !ok {
		s.logger.Error("No accessory key found for F1 component", zap.String("component", string(component)))
		return 0
	}
	unitPrice, ok := s.config.AccessoryPrice(key)
	if !ok {
		return 0
	}
	return unitPrice * float64(quantity)
}

// F1Quantities are the component counts of the F1 breakdown
type F1Quantities struct {
	Winder     int `json:"winder"`
	Motor      int `json:"motor"`
	Remote1ch  int `json:"remote1ch"`
	Remote16ch int `json:"remote16ch"`
	Charger    int `json:"charger"`
	Cord       int `json:"cord"`
	DualCombo  int `json:"dualCombo"`
	DualSlim   int `json:"dualSlim"`
}

// DeriveF1Quantities counts F1 components from the quote and the UI
// distribution. Undistributed remotes count as 16-channel and undistributed
// dual pairs as combo brackets.
func DeriveF1Quantities(items []domain.Item, ui *domain.UIState) F1Quantities {
	var q F1Quantities
	duals := 0
	for _, it := range items {
		if it.Winder == domain.WinderHeavyDuty {
			q.Winder++
		}
		if it.Motor != "" {
			q.Motor++
		}
		if it.Dual == domain.DualBracket {
			duals++
		}
	}

	f1 := ui.F1
	q.Remote1ch = intOr(f1.Remote1chQty, 0)
	q.Remote16ch = intOr(f1.Remote16chQty, ui.DriveRemoteCount-q.Remote1ch)
	q.Charger = ui.DriveChargerCount
	q.Cord = ui.DriveCordCount
	q.DualCombo = intOr(f1.DualComboQty, duals/2)
	q.DualSlim = intOr(f1.DualSlimQty, 0)
	return q
}

// F1Breakdown computes the F1 quoted total: components plus the discounted
// retail total, with 10% GST on top
func (s *CalculationService) F1Breakdown(q *domain.QuoteData, ui *domain.UIState) domain.F1Breakdown {
	qty := DeriveF1Quantities(q.CurrentItems(), ui)
	components := s.F1ComponentPrice(F1Winder, qty.Winder) +
		s.F1ComponentPrice(F1Motor, qty.Motor) +
		s.F1ComponentPrice(F1Remote1ch, qty.Remote1ch) +
		s.F1ComponentPrice(F1Remote16ch, qty.Remote16ch) +
		s.F1ComponentPrice(F1Charger, qty.Charger) +
		s.F1ComponentPrice(F1Cord, qty.Cord) +
		s.F1ComponentPrice(F1DualCombo, qty.DualCombo) +
		s.F1ComponentPrice(F1DualSlim, qty.DualSlim)

	pd, _ := q.CurrentProductData()
	rbPrice := floatOr(pd.Summary.TotalSum) * (1 - ui.F1.DiscountPercentage/100)
	sub := components + rbPrice
	gst := sub * f1GSTRate

	return domain.F1Breakdown{
		ComponentTotal: components,
		RbPrice:        rbPrice,
		SubTotal:       sub,
		GST:            gst,
		FinalTotal:     sub + gst,
	}
}

// ============================================================================
// F2 summary
// ============================================================================

// F2Summary reconciles the quick-quote total against markup, discount, fees
// and accessory costs. The F1 baseline is re-derived independently and its
// GST is kept separate from the whole-quote GST.
func (s *CalculationService) F2Summary(q *domain.QuoteData, ui *domain.UIState) domain.F2Summary {
	pd, _ := q.CurrentProductData()
	total := floatOr(pd.Summary.TotalSum)
	acc := pd.Summary.Accessories
	f2 := ui.F2
	unit := s.config.F2UnitPrices()

	wifiSum := floatOr(f2.WifiQty) * unit.Wifi
	deliveryFee := floatOr(f2.DeliveryQty) * unit.Delivery
	installFee := floatOr(f2.InstallQty) * unit.Install
	removalFee := floatOr(f2.RemovalQty) * unit.Removal

	acceSum := floatOr(acc.WinderCostSum) + floatOr(acc.DualCostSum)
	eAcceSum := floatOr(acc.MotorCostSum) + floatOr(acc.RemoteCostSum) +
		floatOr(acc.ChargerCostSum) + floatOr(acc.CordCostSum) + wifiSum

	surcharge := 0.0
	if !f2.DeliveryFeeExcluded {
		surcharge += deliveryFee
	}
	if !f2.InstallFeeExcluded {
		surcharge += installFee
	}
	if !f2.RemovalFeeExcluded {
		surcharge += removalFee
	}

	firstRb := total * floatOr(f2.MulTimes)
	disRb := roundCents(firstRb * (1 - floatOr(f2.Discount)/100))
	sumPrice := acceSum + eAcceSum + surcharge + disRb

	f1 := s.F1Breakdown(q, ui)

	rbProfit := disRb - f1.RbPrice
	priced := 0
	for _, it := range pd.Items {
		if it.IsPriced() {
			priced++
		}
	}
	singleProfit := 0.0
	if priced > 0 {
		singleProfit = rbProfit / float64(priced)
	}

	gst := sumPrice * f2GSTMultiplier

	return domain.F2Summary{
		TotalSumForRbTime: total,
		WifiSum:           wifiSum,
		DeliveryFee:       deliveryFee,
		InstallFee:        installFee,
		RemovalFee:        removalFee,
		AcceSum:           acceSum,
		EAcceSum:          eAcceSum,
		SurchargeFee:      surcharge,
		FirstRbPrice:      firstRb,
		DisRbPrice:        disRb,
		SumPrice:          sumPrice,
		RbProfit:          rbProfit,
		SingleProfit:      singleProfit,
		SumProfit:         sumPrice - f1.SubTotal,
		GST:               gst,
		NetProfit:         gst - f1.FinalTotal,
		F1:                f1,
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func floatOr(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
