package actions

import (
	"fmt"

	"github.com/straye-as/blind-quote/internal/domain"
)

// UI action types
const (
	UISetCurrentView              Type = "ui/setCurrentView"
	UISetVisibleColumns           Type = "ui/setVisibleColumns"
	UISetActiveTab                Type = "ui/setActiveTab"
	UISetActiveCell               Type = "ui/setActiveCell"
	UISetSelectedRow              Type = "ui/setSelectedRow"
	UISetInputValue               Type = "ui/setInputValue"
	UIAppendInputValue            Type = "ui/appendInputValue"
	UIDeleteLastInputChar         Type = "ui/deleteLastInputChar"
	UIClearInputValue             Type = "ui/clearInputValue"
	UIToggleMultiSelectMode       Type = "ui/toggleMultiSelectMode"
	UIToggleMultiSelectSelection  Type = "ui/toggleMultiSelectSelection"
	UIClearMultiSelectSelection   Type = "ui/clearMultiSelectSelection"
	UISetActiveEditMode           Type = "ui/setActiveEditMode"
	UISetTargetCell               Type = "ui/setTargetCell"
	UISetLocationInputValue       Type = "ui/setLocationInputValue"
	UIToggleLFSelection           Type = "ui/toggleLFSelection"
	UIClearLFSelection            Type = "ui/clearLFSelection"
	UISetDualChainMode            Type = "ui/setDualChainMode"
	UISetDualChainInputValue      Type = "ui/setDualChainInputValue"
	UIClearDualChainInputValue    Type = "ui/clearDualChainInputValue"
	UISetDriveAccessoryMode       Type = "ui/setDriveAccessoryMode"
	UISetDriveAccessoryCount      Type = "ui/setDriveAccessoryCount"
	UISetDriveAccessoryTotalPrice Type = "ui/setDriveAccessoryTotalPrice"
	UISetDriveGrandTotal          Type = "ui/setDriveGrandTotal"
	UISetDualPrice                Type = "ui/setDualPrice"
	UISetSummaryPrice             Type = "ui/setSummaryPrice"
	UISetF1RemoteDistribution     Type = "ui/setF1RemoteDistribution"
	UISetF1DualDistribution       Type = "ui/setF1DualDistribution"
	UISetF1DiscountPercentage     Type = "ui/setF1DiscountPercentage"
	UISetF2Value                  Type = "ui/setF2Value"
	UIApplyF2Summary              Type = "ui/applyF2Summary"
	UIToggleF2FeeExclusion        Type = "ui/toggleF2FeeExclusion"
	UISetSumOutdated              Type = "ui/setSumOutdated"
	UISetWelcomeDialogShown       Type = "ui/setWelcomeDialogShown"
	UIReset                       Type = "ui/reset"
)

// ============================================================================
// View & navigation
// ============================================================================

type SetCurrentView struct {
	View string `json:"viewName"`
}

func (SetCurrentView) Type() Type { return UISetCurrentView }

type SetVisibleColumns struct {
	Columns []string `json:"columns"`
}

func (SetVisibleColumns) Type() Type { return UISetVisibleColumns }

type SetActiveTab struct {
	TabID string `json:"tabId"`
}

func (SetActiveTab) Type() Type { return UISetActiveTab }

// ============================================================================
// Input & selection
// ============================================================================

// SetActiveCell moves the cursor and switches the input mode to the cell's column
type SetActiveCell struct {
	RowIndex int    `json:"rowIndex"`
	Column   string `json:"column"`
}

func (SetActiveCell) Type() Type { return UISetActiveCell }

// SetSelectedRow selects a single row. A nil index clears the selection.
type SetSelectedRow struct {
	RowIndex *int `json:"rowIndex"`
}

func (SetSelectedRow) Type() Type { return UISetSelectedRow }

type SetInputValue struct {
	Value string `json:"value"`
}

func (SetInputValue) Type() Type { return UISetInputValue }

type AppendInputValue struct {
	Key string `json:"key"`
}

func (AppendInputValue) Type() Type { return UIAppendInputValue }

type DeleteLastInputChar struct{}

func (DeleteLastInputChar) Type() Type { return UIDeleteLastInputChar }

type ClearInputValue struct{}

func (ClearInputValue) Type() Type { return UIClearInputValue }

// ToggleMultiSelectMode enters or leaves multi-select. Entering seeds the
// selection from the currently selected row.
type ToggleMultiSelectMode struct{}

func (ToggleMultiSelectMode) Type() Type { return UIToggleMultiSelectMode }

type ToggleMultiSelectSelection struct {
	RowIndex int `json:"rowIndex"`
}

func (ToggleMultiSelectSelection) Type() Type { return UIToggleMultiSelectSelection }

type ClearMultiSelectSelection struct{}

func (ClearMultiSelectSelection) Type() Type { return UIClearMultiSelectSelection }

// ============================================================================
// Left panel edit modes
// ============================================================================

type SetActiveEditMode struct {
	Mode string `json:"mode"`
}

func (SetActiveEditMode) Type() Type { return UISetActiveEditMode }

type SetTargetCell struct {
	Cell *domain.Cell `json:"cell"`
}

func (SetTargetCell) Type() Type { return UISetTargetCell }

type SetLocationInputValue struct {
	Value string `json:"value"`
}

func (SetLocationInputValue) Type() Type { return UISetLocationInputValue }

type ToggleLFSelection struct {
	RowIndex int `json:"rowIndex"`
}

func (ToggleLFSelection) Type() Type { return UIToggleLFSelection }

type ClearLFSelection struct{}

func (ClearLFSelection) Type() Type { return UIClearLFSelection }

// ============================================================================
// Drive accessories & dual/chain
// ============================================================================

type SetDualChainMode struct {
	Mode string `json:"mode"`
}

func (SetDualChainMode) Type() Type { return UISetDualChainMode }

type SetDualChainInputValue struct {
	Value string `json:"value"`
}

func (SetDualChainInputValue) Type() Type { return UISetDualChainInputValue }

type ClearDualChainInputValue struct{}

func (ClearDualChainInputValue) Type() Type { return UIClearDualChainInputValue }

type SetDriveAccessoryMode struct {
	Mode string `json:"mode"`
}

func (SetDriveAccessoryMode) Type() Type { return UISetDriveAccessoryMode }

// SetDriveAccessoryCount sets the counter of remote, charger or cord.
// Negative counts are ignored.
type SetDriveAccessoryCount struct {
	Accessory domain.AccessoryKind `json:"accessory"`
	Count     int                  `json:"count"`
}

func (SetDriveAccessoryCount) Type() Type { return UISetDriveAccessoryCount }

func (a SetDriveAccessoryCount) Validate() error {
	var ui domain.UIState
	if ui.DriveCountRef(a.Accessory) == nil {
		return fmt.Errorf("accessory %q has no counter", a.Accessory)
	}
	return nil
}

type SetDriveAccessoryTotalPrice struct {
	Accessory domain.AccessoryKind `json:"accessory"`
	Price     *float64             `json:"price"`
}

func (SetDriveAccessoryTotalPrice) Type() Type { return UISetDriveAccessoryTotalPrice }

func (a SetDriveAccessoryTotalPrice) Validate() error {
	var ui domain.UIState
	if ui.DriveTotalRef(a.Accessory) == nil {
		return fmt.Errorf("accessory %q has no total price", a.Accessory)
	}
	return nil
}

type SetDriveGrandTotal struct {
	Price *float64 `json:"price"`
}

func (SetDriveGrandTotal) Type() Type { return UISetDriveGrandTotal }

type SetDualPrice struct {
	Price *float64 `json:"price"`
}

func (SetDualPrice) Type() Type { return UISetDualPrice }

// SetSummaryPrice writes one of the accessory price mirrors of the summary panel
type SetSummaryPrice struct {
	Field domain.SummaryPriceField `json:"field"`
	Price *float64                 `json:"price"`
}

func (SetSummaryPrice) Type() Type { return UISetSummaryPrice }

func (a SetSummaryPrice) Validate() error {
	var ui domain.UIState
	if ui.SummaryPriceRef(a.Field) == nil {
		return fmt.Errorf("unknown summary price field %q", a.Field)
	}
	return nil
}

// ============================================================================
// F1 / F2
// ============================================================================

type SetF1RemoteDistribution struct {
	Qty1  *int `json:"qty1"`
	Qty16 *int `json:"qty16"`
}

func (SetF1RemoteDistribution) Type() Type { return UISetF1RemoteDistribution }

type SetF1DualDistribution struct {
	ComboQty *int `json:"comboQty"`
	SlimQty  *int `json:"slimQty"`
}

func (SetF1DualDistribution) Type() Type { return UISetF1DualDistribution }

type SetF1DiscountPercentage struct {
	Percentage float64 `json:"percentage"`
}

func (SetF1DiscountPercentage) Type() Type { return UISetF1DiscountPercentage }

// SetF2Value writes one numeric F2 field
type SetF2Value struct {
	Field domain.F2Field `json:"key"`
	Value *float64       `json:"value"`
}

func (SetF2Value) Type() Type { return UISetF2Value }

func (a SetF2Value) Validate() error {
	if !a.Field.Valid() {
		return fmt.Errorf("unknown F2 field %q", a.Field)
	}
	if !a.Field.IsInput() {
		return fmt.Errorf("F2 field %q is computed", a.Field)
	}
	return nil
}

// ApplyF2Summary stores the figures of one F2 recalculation. It has no wire
// decoder: only the workflow dispatches it.
type ApplyF2Summary struct {
	Summary domain.F2Summary `json:"summary"`
}

func (ApplyF2Summary) Type() Type { return UIApplyF2Summary }

type ToggleF2FeeExclusion struct {
	Fee domain.FeeType `json:"feeType"`
}

func (ToggleF2FeeExclusion) Type() Type { return UIToggleF2FeeExclusion }

func (a ToggleF2FeeExclusion) Validate() error {
	if !a.Fee.Valid() {
		return fmt.Errorf("unknown fee type %q", a.Fee)
	}
	return nil
}

// ============================================================================
// Global
// ============================================================================

type SetSumOutdated struct {
	Outdated bool `json:"isOutdated"`
}

func (SetSumOutdated) Type() Type { return UISetSumOutdated }

type SetWelcomeDialogShown struct {
	Shown bool `json:"shown"`
}

func (SetWelcomeDialogShown) Type() Type { return UISetWelcomeDialogShown }

// ResetUI replaces the whole UI subtree with a fresh initial state
type ResetUI struct{}

func (ResetUI) Type() Type { return UIReset }
