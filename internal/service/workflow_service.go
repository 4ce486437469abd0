package service

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/straye-as/blind-quote/internal/actions"
	"github.com/straye-as/blind-quote/internal/domain"
	"github.com/straye-as/blind-quote/internal/strategy"
)

// Dual/chain and drive-accessory modes
const (
	ModeDual    = "dual"
	ModeChain   = "chain"
	ModeWinder  = "winder"
	ModeMotor   = "motor"
	ModeRemote  = "remote"
	ModeCharger = "charger"
	ModeCord    = "cord"
)

// TabDetailDefault is the tab shown when the detail view opens
const TabDetailDefault = "k1-tab"

var (
	driveColumns     = []string{"sequence", "fabricTypeDisplay", "location", "winder", "motor"}
	dualChainColumns = []string{"sequence", "fabricTypeDisplay", "location", "dual", "chain"}
)

// Dispatcher is the state container the workflow drives
type Dispatcher interface {
	GetState() *domain.State
	Dispatch(a actions.Action) bool
}

// F1Report is the F1 cost view: derived quantities, per-component prices and totals
type F1Report struct {
	Quantities      F1Quantities            `json:"quantities"`
	ComponentPrices map[F1Component]float64 `json:"componentPrices"`
	Breakdown       domain.F1Breakdown      `json:"breakdown"`
}

// WorkflowService runs multi-step user operations against the store. Each
// method reads the current state, calls the calculation service and
// dispatches the results as actions.
type WorkflowService struct {
	store      Dispatcher
	calc       *CalculationService
	files      *FileService
	strategies StrategyResolver
	logger     *zap.Logger
}

// NewWorkflowService creates a new WorkflowService instance
func NewWorkflowService(store Dispatcher, calc *CalculationService, files *FileService, strategies StrategyResolver, logger *zap.Logger) *WorkflowService {
	return &WorkflowService{
		store:      store,
		calc:       calc,
		files:      files,
		strategies: strategies,
		logger:     logger,
	}
}

func (s *WorkflowService) state() *domain.State {
	return s.store.GetState()
}

func (s *WorkflowService) currentStrategy() strategy.Strategy {
	return s.strategies.Strategy(s.state().QuoteData.CurrentProduct)
}

// ============================================================================
// Calculation
// ============================================================================

// CalculateAndSum prices the quote and stores the result. On a pricing
// failure the sum is flagged outdated and the failing cell becomes active.
func (s *WorkflowService) CalculateAndSum() *domain.CalculationError {
	updated, calcErr := s.calc.CalculateAndSum(s.state().QuoteData, s.currentStrategy())
	s.store.Dispatch(actions.SetQuoteData{QuoteData: updated})

	if calcErr != nil {
		s.logger.Warn("Calculation finished with errors",
			zap.String("message", calcErr.Message),
			zap.Int("row", calcErr.RowIndex))
		s.store.Dispatch(actions.SetSumOutdated{Outdated: true})
		if calcErr.RowIndex >= 0 {
			s.store.Dispatch(actions.SetActiveCell{RowIndex: calcErr.RowIndex, Column: calcErr.Column})
		}
		return calcErr
	}
	s.store.Dispatch(actions.SetSumOutdated{Outdated: false})
	return nil
}

// recalculate stores fresh line prices without touching the outdated flag
func (s *WorkflowService) recalculate() {
	updated, _ := s.calc.CalculateAndSum(s.state().QuoteData, s.currentStrategy())
	s.store.Dispatch(actions.SetQuoteData{QuoteData: updated})
}

// ActivateF1 refreshes prices and returns the F1 cost view
func (s *WorkflowService) ActivateF1() F1Report {
	s.recalculate()
	return s.F1Report()
}

// F1Report derives the F1 view from current state
func (s *WorkflowService) F1Report() F1Report {
	st := s.state()
	qty := DeriveF1Quantities(st.QuoteData.CurrentItems(), st.UI)
	prices := map[F1Component]float64{
		F1Winder:     s.calc.F1ComponentPrice(F1Winder, qty.Winder),
		F1Motor:      s.calc.F1ComponentPrice(F1Motor, qty.Motor),
		F1Remote1ch:  s.calc.F1ComponentPrice(F1Remote1ch, qty.Remote1ch),
		F1Remote16ch: s.calc.F1ComponentPrice(F1Remote16ch, qty.Remote16ch),
		F1Charger:    s.calc.F1ComponentPrice(F1Charger, qty.Charger),
		F1Cord:       s.calc.F1ComponentPrice(F1Cord, qty.Cord),
		F1DualCombo:  s.calc.F1ComponentPrice(F1DualCombo, qty.DualCombo),
		F1DualSlim:   s.calc.F1ComponentPrice(F1DualSlim, qty.DualSlim),
	}
	return F1Report{
		Quantities:      qty,
		ComponentPrices: prices,
		Breakdown:       s.calc.F1Breakdown(st.QuoteData, st.UI),
	}
}

// SetF1Discount stores the F1 retail discount
func (s *WorkflowService) SetF1Discount(percentage float64) {
	s.store.Dispatch(actions.SetF1DiscountPercentage{Percentage: percentage})
}

// ActivateF2 refreshes prices and accessory sums, then recomputes the F2 summary
func (s *WorkflowService) ActivateF2() domain.F2Summary {
	s.recalculate()
	s.RecalculateAccessories()
	s.RefreshDualPrice()
	return s.RefreshF2Summary()
}

// RefreshF2Summary recomputes the F2 summary and writes it into UI state
func (s *WorkflowService) RefreshF2Summary() domain.F2Summary {
	st := s.state()
	summary := s.calc.F2Summary(st.QuoteData, st.UI)
	s.store.Dispatch(actions.ApplyF2Summary{Summary: summary})
	return summary
}

// SetF2Value stores one F2 input and recomputes the summary
func (s *WorkflowService) SetF2Value(field domain.F2Field, value *float64) (domain.F2Summary, error) {
	if !field.IsInput() {
		return domain.F2Summary{}, fmt.Errorf("%w: %q is not an F2 input", ErrInvalidInput, field)
	}
	s.store.Dispatch(actions.SetF2Value{Field: field, Value: value})
	return s.RefreshF2Summary(), nil
}

// ToggleFeeExclusion flips a fee exclusion and recomputes the summary
func (s *WorkflowService) ToggleFeeExclusion(fee domain.FeeType) (domain.F2Summary, error) {
	if !fee.Valid() {
		return domain.F2Summary{}, fmt.Errorf("%w: unknown fee %q", ErrInvalidInput, fee)
	}
	s.store.Dispatch(actions.ToggleF2FeeExclusion{Fee: fee})
	return s.RefreshF2Summary(), nil
}

// ============================================================================
// Accessories
// ============================================================================

// RecalculateAccessories prices every drive accessory, mirrors the totals
// into UI state and stores sale lines and cost sums in the quote summary
func (s *WorkflowService) RecalculateAccessories() {
	st := s.state()
	product := st.QuoteData.CurrentProduct
	items := st.QuoteData.CurrentItems()

	winderCount, motorCount := 0, 0
	for _, it := range items {
		if it.Winder == domain.WinderHeavyDuty {
			winderCount++
		}
		if it.Motor != "" {
			motorCount++
		}
	}

	counts := []struct {
		kind  domain.AccessoryKind
		count int
	}{
		{domain.AccessoryWinder, winderCount},
		{domain.AccessoryMotor, motorCount},
		{domain.AccessoryRemote, st.UI.DriveRemoteCount},
		{domain.AccessoryCharger, st.UI.DriveChargerCount},
		{domain.AccessoryCord, st.UI.DriveCordCount},
	}

	lines := make(map[domain.AccessoryKind]*domain.AccessoryLine, len(counts))
	costs := make(map[domain.AccessoryKind]*float64, len(counts))
	grandTotal := 0.0
	for _, c := range counts {
		in := strategy.AccessoryInput{Items: items, Count: c.count}
		price := s.calc.AccessorySalePrice(product, c.kind, in)
		cost := s.calc.AccessoryCost(product, c.kind, s.calc.CostKey(c.kind), in)

		s.store.Dispatch(actions.SetDriveAccessoryTotalPrice{Accessory: c.kind, Price: domain.Float(price)})
		lines[c.kind] = &domain.AccessoryLine{Count: c.count, Price: price}
		costs[c.kind] = domain.Float(cost)
		grandTotal += price
	}
	lines[domain.AccessoryRemote].Type = "standard"

	s.store.Dispatch(actions.SetDriveGrandTotal{Price: domain.Float(grandTotal)})
	s.store.Dispatch(actions.UpdateAccessorySummary{Patch: domain.AccessoryPatch{
		Winder:         lines[domain.AccessoryWinder],
		Motor:          lines[domain.AccessoryMotor],
		Remote:         lines[domain.AccessoryRemote],
		Charger:        lines[domain.AccessoryCharger],
		Cord3m:         lines[domain.AccessoryCord],
		WinderCostSum:  costs[domain.AccessoryWinder],
		MotorCostSum:   costs[domain.AccessoryMotor],
		RemoteCostSum:  costs[domain.AccessoryRemote],
		ChargerCostSum: costs[domain.AccessoryCharger],
		CordCostSum:    costs[domain.AccessoryCord],
	}})
	s.logger.Debug("Accessories recalculated", zap.Float64("grandTotal", grandTotal))
}

// RefreshDualPrice prices the dual brackets and stores the cost sum and the UI mirror
func (s *WorkflowService) RefreshDualPrice() {
	st := s.state()
	in := strategy.AccessoryInput{Items: st.QuoteData.CurrentItems()}
	product := st.QuoteData.CurrentProduct

	price := s.calc.AccessorySalePrice(product, domain.AccessoryDual, in)
	cost := s.calc.AccessoryCost(product, domain.AccessoryDual, s.calc.CostKey(domain.AccessoryDual), in)

	s.store.Dispatch(actions.UpdateAccessorySummary{Patch: domain.AccessoryPatch{DualCostSum: domain.Float(cost)}})
	s.store.Dispatch(actions.SetDualPrice{Price: domain.Float(price)})
	s.updateSummaryAccessoriesTotal()
}

// SyncSummaryPrices copies the drive totals into the summary panel mirrors
func (s *WorkflowService) SyncSummaryPrices() {
	s.store.Dispatch(actions.SetVisibleColumns{Columns: dualChainColumns})

	ui := s.state().UI
	mirrors := []struct {
		field domain.SummaryPriceField
		price *float64
	}{
		{domain.SummaryWinderPrice, ui.DriveWinderTotalPrice},
		{domain.SummaryMotorPrice, ui.DriveMotorTotalPrice},
		{domain.SummaryRemotePrice, ui.DriveRemoteTotalPrice},
		{domain.SummaryChargerPrice, ui.DriveChargerTotalPrice},
		{domain.SummaryCordPrice, ui.DriveCordTotalPrice},
	}
	for _, m := range mirrors {
		s.store.Dispatch(actions.SetSummaryPrice{Field: m.field, Price: m.price})
	}
	s.RefreshDualPrice()
}

func (s *WorkflowService) updateSummaryAccessoriesTotal() {
	ui := s.state().UI
	total := floatOr(ui.DualPrice) + floatOr(ui.SummaryWinderPrice) + floatOr(ui.SummaryMotorPrice) +
		floatOr(ui.SummaryRemotePrice) + floatOr(ui.SummaryChargerPrice) + floatOr(ui.SummaryCordPrice)
	s.store.Dispatch(actions.SetSummaryPrice{Field: domain.SummaryAccessoriesTotal, Price: domain.Float(total)})
}

// ============================================================================
// Drive accessories
// ============================================================================

// ActivateDriveAccessories switches the table to the drive accessory columns
func (s *WorkflowService) ActivateDriveAccessories() {
	s.store.Dispatch(actions.SetVisibleColumns{Columns: driveColumns})
}

// ChangeDriveAccessoryMode toggles a drive accessory mode. Leaving a mode
// reprices the accessories; entering remote or charger mode on a quote with
// motors starts the counter at one.
func (s *WorkflowService) ChangeDriveAccessoryMode(mode string) {
	ui := s.state().UI
	current := ui.DriveAccessoryMode
	next := mode
	if current == mode {
		next = ""
	}

	if current != "" {
		s.RecalculateAccessories()
	}
	s.store.Dispatch(actions.SetDriveAccessoryMode{Mode: next})

	if next == ModeRemote || next == ModeCharger {
		kind := domain.AccessoryKind(next)
		if s.hasMotor() && *s.state().UI.DriveCountRef(kind) == 0 {
			s.store.Dispatch(actions.SetDriveAccessoryCount{Accessory: kind, Count: 1})
		}
	}
}

// ToggleDriveAccessory toggles the winder or motor of a row in the matching
// mode. Replacing a motor with a winder (or the reverse) needs confirmation.
func (s *WorkflowService) ToggleDriveAccessory(rowIndex int, column string, confirmed bool) error {
	mode := s.state().UI.DriveAccessoryMode
	if mode == "" || mode != column || (column != ModeWinder && column != ModeMotor) {
		return nil
	}
	items := s.state().QuoteData.CurrentItems()
	if rowIndex < 0 || rowIndex >= len(items) {
		return nil
	}
	item := items[rowIndex]

	var property domain.ItemProperty
	var value string
	switch column {
	case ModeWinder:
		if item.Motor != "" && !confirmed {
			return fmt.Errorf("%w: this blind is set to Motor", ErrConfirmationRequired)
		}
		property = domain.PropertyWinder
		if item.Winder == "" {
			value = domain.WinderHeavyDuty
		}
	case ModeMotor:
		if item.Winder != "" && !confirmed {
			return fmt.Errorf("%w: this blind is set to HD Winder", ErrConfirmationRequired)
		}
		property = domain.PropertyMotor
		if item.Motor == "" {
			value = domain.MotorDefault
		}
	}
	s.store.Dispatch(actions.UpdateWinderMotorProperty{RowIndex: rowIndex, Property: property, Value: value})
	return nil
}

// ChangeDriveAccessoryCount adds delta to a counter, never going below zero.
// Dropping remotes or chargers to zero while motors are present needs confirmation.
func (s *WorkflowService) ChangeDriveAccessoryCount(kind domain.AccessoryKind, delta int, confirmed bool) error {
	ref := s.state().UI.DriveCountRef(kind)
	if ref == nil {
		return fmt.Errorf("%w: %q has no counter", ErrInvalidInput, kind)
	}
	next := max(0, *ref+delta)
	if next == 0 && !confirmed && s.hasMotor() &&
		(kind == domain.AccessoryRemote || kind == domain.AccessoryCharger) {
		return fmt.Errorf("%w: motors are present in the quote", ErrConfirmationRequired)
	}
	s.store.Dispatch(actions.SetDriveAccessoryCount{Accessory: kind, Count: next})
	return nil
}

func (s *WorkflowService) hasMotor() bool {
	for _, it := range s.state().QuoteData.CurrentItems() {
		if it.Motor != "" {
			return true
		}
	}
	return false
}

// ============================================================================
// Dual / chain
// ============================================================================

// ChangeDualChainMode toggles the dual or chain mode. Leaving dual mode is
// refused while the dual selection is invalid.
func (s *WorkflowService) ChangeDualChainMode(mode string) error {
	current := s.state().UI.DualChainMode
	next := mode
	if current == mode {
		next = ""
	}

	if current == ModeDual {
		if err := ValidateDualSelection(s.state().QuoteData.CurrentItems()); err != nil {
			return err
		}
	}
	s.store.Dispatch(actions.SetDualChainMode{Mode: next})

	if next == ModeDual {
		s.RefreshDualPrice()
	}
	if next == "" {
		s.store.Dispatch(actions.SetTargetCell{})
		s.store.Dispatch(actions.ClearDualChainInputValue{})
	}
	return nil
}

// ValidateDualSelection checks that dual brackets come in adjacent pairs
func ValidateDualSelection(items []domain.Item) error {
	var selected []int
	for i, it := range items {
		if it.Dual == domain.DualBracket {
			selected = append(selected, i)
		}
	}
	if len(selected)%2 != 0 {
		return ErrDualOddCount
	}
	for i := 0; i < len(selected); i += 2 {
		if selected[i+1] != selected[i]+1 {
			return ErrDualNotAdjacent
		}
	}
	return nil
}

// SelectDualChainCell handles a cell click in dual or chain mode. The
// trailing blank row is ignored.
func (s *WorkflowService) SelectDualChainCell(rowIndex int, column string) {
	st := s.state()
	items := st.QuoteData.CurrentItems()
	if rowIndex < 0 || rowIndex >= len(items)-1 {
		return
	}

	switch {
	case st.UI.DualChainMode == ModeDual && column == string(domain.PropertyDual):
		value := domain.DualBracket
		if items[rowIndex].Dual == domain.DualBracket {
			value = ""
		}
		s.store.Dispatch(actions.UpdateItemProperty{RowIndex: rowIndex, Property: domain.PropertyDual, Value: value})
		s.RefreshDualPrice()
	case st.UI.DualChainMode == ModeChain && column == ModeChain:
		s.store.Dispatch(actions.SetTargetCell{Cell: &domain.Cell{RowIndex: rowIndex, Column: ModeChain}})
	}
}

// CommitChain stores the typed chain length on the target cell. An empty
// value clears the chain.
func (s *WorkflowService) CommitChain(value string) error {
	target := s.state().UI.TargetCell
	if target == nil {
		return ErrNoTarget
	}

	value = strings.TrimSpace(value)
	var chain *int
	if value != "" {
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return ErrInvalidChain
		}
		chain = domain.Int(n)
	}

	s.store.Dispatch(actions.SetItemChain{RowIndex: target.RowIndex, Chain: chain})
	s.store.Dispatch(actions.SetTargetCell{})
	s.store.Dispatch(actions.ClearDualChainInputValue{})
	return nil
}

// ============================================================================
// F1 distribution
// ============================================================================

// DistributeRemotes splits the remote count between 1-channel and 16-channel remotes
func (s *WorkflowService) DistributeRemotes(qty1, qty16 int) error {
	total := s.state().UI.DriveRemoteCount
	if err := checkDistribution(qty1, qty16, total); err != nil {
		return err
	}
	s.store.Dispatch(actions.SetF1RemoteDistribution{Qty1: domain.Int(qty1), Qty16: domain.Int(qty16)})
	return nil
}

// DistributeDuals splits the dual bracket pairs between combo and slim brackets
func (s *WorkflowService) DistributeDuals(combo, slim int) error {
	duals := 0
	for _, it := range s.state().QuoteData.CurrentItems() {
		if it.Dual == domain.DualBracket {
			duals++
		}
	}
	if err := checkDistribution(combo, slim, duals/2); err != nil {
		return err
	}
	s.store.Dispatch(actions.SetF1DualDistribution{ComboQty: domain.Int(combo), SlimQty: domain.Int(slim)})
	return nil
}

func checkDistribution(a, b, total int) error {
	if a < 0 || b < 0 {
		return ErrInvalidQuantity
	}
	if a+b != total {
		return fmt.Errorf("%w: Total must equal %d. Current total: %d.", ErrDistributionMismatch, total, a+b)
	}
	return nil
}

// ============================================================================
// Navigation
// ============================================================================

// ToggleDetailView switches between the quick quote and the detail view
func (s *WorkflowService) ToggleDetailView() {
	if s.state().UI.CurrentView == domain.ViewQuickQuote {
		s.store.Dispatch(actions.SetCurrentView{View: domain.ViewDetailConfig})
		s.store.Dispatch(actions.SetActiveTab{TabID: TabDetailDefault})
		return
	}
	s.ShowQuickQuote()
}

// ShowQuickQuote returns to the quick quote view with its default columns
func (s *WorkflowService) ShowQuickQuote() {
	s.store.Dispatch(actions.SetCurrentView{View: domain.ViewQuickQuote})
	s.store.Dispatch(actions.SetVisibleColumns{Columns: domain.DefaultVisibleColumns()})
}

// ============================================================================
// Files
// ============================================================================

// HasData reports whether loading a file would discard user input
func (s *WorkflowService) HasData() bool {
	return s.state().QuoteData.HasData()
}

// LoadFile parses a file and, on success, replaces the quote, resets the UI
// and flags the sum outdated. State is untouched on failure.
func (s *WorkflowService) LoadFile(fileName string, content []byte) LoadResult {
	result := s.files.ParseFileContent(fileName, content)
	if !result.Success {
		return result
	}
	s.store.Dispatch(actions.SetQuoteData{QuoteData: result.Data})
	s.store.Dispatch(actions.ResetUI{})
	s.store.Dispatch(actions.SetSumOutdated{Outdated: true})
	return result
}

// PrintableQuote builds the printed quote from current state
func (s *WorkflowService) PrintableQuote(o PrintOverrides) *PrintableQuote {
	return BuildPrintableQuote(s.state(), o)
}
