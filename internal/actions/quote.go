package actions

import (
	"fmt"

	"github.com/straye-as/blind-quote/internal/domain"
)

// Quote action types
const (
	QuoteSetQuoteData                Type = "quote/setQuoteData"
	QuoteReset                       Type = "quote/resetQuoteData"
	QuoteInsertRow                   Type = "quote/insertRow"
	QuoteDeleteRow                   Type = "quote/deleteRow"
	QuoteClearRow                    Type = "quote/clearRow"
	QuoteDeleteMultipleRows          Type = "quote/deleteMultipleRows"
	QuoteUpdateItemValue             Type = "quote/updateItemValue"
	QuoteUpdateItemProperty          Type = "quote/updateItemProperty"
	QuoteSetItemChain                Type = "quote/setItemChain"
	QuoteUpdateWinderMotorProperty   Type = "quote/updateWinderMotorProperty"
	QuoteCycleK3Property             Type = "quote/cycleK3Property"
	QuoteCycleItemType               Type = "quote/cycleItemType"
	QuoteSetItemType                 Type = "quote/setItemType"
	QuoteBatchUpdateProperty         Type = "quote/batchUpdateProperty"
	QuoteBatchUpdatePropertyByType   Type = "quote/batchUpdatePropertyByType"
	QuoteBatchUpdateFabricType       Type = "quote/batchUpdateFabricType"
	QuoteBatchUpdateFabricTypeForSel Type = "quote/batchUpdateFabricTypeForSelection"
	QuoteBatchUpdateLFProperties     Type = "quote/batchUpdateLFProperties"
	QuoteRemoveLFProperties          Type = "quote/removeLFProperties"
	QuoteUpdateAccessorySummary      Type = "quote/updateAccessorySummary"
	QuoteAddLFModifiedRows           Type = "quote/addLFModifiedRows"
	QuoteRemoveLFModifiedRows        Type = "quote/removeLFModifiedRows"
	QuoteSetCustomer                 Type = "quote/setCustomer"
	QuoteSetMeta                     Type = "quote/setQuoteMeta"
)

// ============================================================================
// Quote data root
// ============================================================================

// SetQuoteData replaces the whole quote subtree, e.g. after a file load
type SetQuoteData struct {
	QuoteData *domain.QuoteData `json:"newQuoteData"`
}

func (SetQuoteData) Type() Type { return QuoteSetQuoteData }

func (a SetQuoteData) Validate() error {
	if a.QuoteData == nil {
		return fmt.Errorf("newQuoteData is required")
	}
	return nil
}

type ResetQuoteData struct{}

func (ResetQuoteData) Type() Type { return QuoteReset }

// ============================================================================
// Row operations
// ============================================================================

// InsertRow inserts a blank row after Index
type InsertRow struct {
	Index int `json:"selectedIndex"`
}

func (InsertRow) Type() Type { return QuoteInsertRow }

type DeleteRow struct {
	Index int `json:"selectedIndex"`
}

func (DeleteRow) Type() Type { return QuoteDeleteRow }

// ClearRow blanks a row in place, keeping its identity
type ClearRow struct {
	Index int `json:"selectedIndex"`
}

func (ClearRow) Type() Type { return QuoteClearRow }

type DeleteMultipleRows struct {
	Indexes []int `json:"selectedIndexes"`
}

func (DeleteMultipleRows) Type() Type { return QuoteDeleteMultipleRows }

// ============================================================================
// Item properties
// ============================================================================

// UpdateItemValue sets a dimension of a row. A nil value clears it.
type UpdateItemValue struct {
	RowIndex int                    `json:"rowIndex"`
	Column   domain.DimensionColumn `json:"column"`
	Value    *int                   `json:"value"`
}

func (UpdateItemValue) Type() Type { return QuoteUpdateItemValue }

func (a UpdateItemValue) Validate() error {
	if a.Column != domain.ColumnWidth && a.Column != domain.ColumnHeight {
		return fmt.Errorf("unknown dimension column %q", a.Column)
	}
	return nil
}

type UpdateItemProperty struct {
	RowIndex int                 `json:"rowIndex"`
	Property domain.ItemProperty `json:"property"`
	Value    string              `json:"value"`
}

func (UpdateItemProperty) Type() Type { return QuoteUpdateItemProperty }

func (a UpdateItemProperty) Validate() error {
	return validProperty(a.Property)
}

type SetItemChain struct {
	RowIndex int  `json:"rowIndex"`
	Chain    *int `json:"chain"`
}

func (SetItemChain) Type() Type { return QuoteSetItemChain }

// UpdateWinderMotorProperty sets winder or motor; a non-empty value clears the other one
type UpdateWinderMotorProperty struct {
	RowIndex int                 `json:"rowIndex"`
	Property domain.ItemProperty `json:"property"`
	Value    string              `json:"value"`
}

func (UpdateWinderMotorProperty) Type() Type { return QuoteUpdateWinderMotorProperty }

func (a UpdateWinderMotorProperty) Validate() error {
	if a.Property != domain.PropertyWinder && a.Property != domain.PropertyMotor {
		return fmt.Errorf("property %q is neither winder nor motor", a.Property)
	}
	return nil
}

// CycleK3Property advances over, oi or lr of a row through its fixed sequence
type CycleK3Property struct {
	RowIndex int                 `json:"rowIndex"`
	Column   domain.ItemProperty `json:"column"`
}

func (CycleK3Property) Type() Type { return QuoteCycleK3Property }

func (a CycleK3Property) Validate() error {
	switch a.Column {
	case domain.PropertyOver, domain.PropertyOI, domain.PropertyLR:
		return nil
	}
	return fmt.Errorf("property %q does not cycle", a.Column)
}

// ============================================================================
// Fabric type
// ============================================================================

type CycleItemType struct {
	RowIndex int `json:"rowIndex"`
}

func (CycleItemType) Type() Type { return QuoteCycleItemType }

type SetItemType struct {
	RowIndex   int    `json:"rowIndex"`
	FabricType string `json:"newType"`
}

func (SetItemType) Type() Type { return QuoteSetItemType }

// BatchUpdateFabricType sets the type of every row with width and height.
// An empty FabricType cycles from the type of the first such row.
type BatchUpdateFabricType struct {
	FabricType string `json:"newType,omitempty"`
}

func (BatchUpdateFabricType) Type() Type { return QuoteBatchUpdateFabricType }

type BatchUpdateFabricTypeForSelection struct {
	Indexes    []int  `json:"selectedIndexes"`
	FabricType string `json:"newType"`
}

func (BatchUpdateFabricTypeForSelection) Type() Type { return QuoteBatchUpdateFabricTypeForSel }

// ============================================================================
// Batch updates
// ============================================================================

// BatchUpdateProperty writes a property on every row except the trailing blank one
type BatchUpdateProperty struct {
	Property domain.ItemProperty `json:"property"`
	Value    string              `json:"value"`
}

func (BatchUpdateProperty) Type() Type { return QuoteBatchUpdateProperty }

func (a BatchUpdateProperty) Validate() error {
	return validProperty(a.Property)
}

// BatchUpdatePropertyByType writes a property on every row of a fabric type,
// skipping ExcludeIndexes
type BatchUpdatePropertyByType struct {
	FabricType     string              `json:"type"`
	Property       domain.ItemProperty `json:"property"`
	Value          string              `json:"value"`
	ExcludeIndexes []int               `json:"indexesToExclude"`
}

func (BatchUpdatePropertyByType) Type() Type { return QuoteBatchUpdatePropertyByType }

func (a BatchUpdatePropertyByType) Validate() error {
	return validProperty(a.Property)
}

type BatchUpdateLFProperties struct {
	RowIndexes []int  `json:"rowIndexes"`
	Fabric     string `json:"fabricName"`
	Color      string `json:"fabricColor"`
}

func (BatchUpdateLFProperties) Type() Type { return QuoteBatchUpdateLFProperties }

type RemoveLFProperties struct {
	RowIndexes []int `json:"rowIndexes"`
}

func (RemoveLFProperties) Type() Type { return QuoteRemoveLFProperties }

// ============================================================================
// Summary & metadata
// ============================================================================

type UpdateAccessorySummary struct {
	Patch domain.AccessoryPatch `json:"data"`
}

func (UpdateAccessorySummary) Type() Type { return QuoteUpdateAccessorySummary }

type AddLFModifiedRows struct {
	RowIndexes []int `json:"rowIndexes"`
}

func (AddLFModifiedRows) Type() Type { return QuoteAddLFModifiedRows }

type RemoveLFModifiedRows struct {
	RowIndexes []int `json:"rowIndexes"`
}

func (RemoveLFModifiedRows) Type() Type { return QuoteRemoveLFModifiedRows }

type SetCustomer struct {
	Customer domain.Customer `json:"customer"`
}

func (SetCustomer) Type() Type { return QuoteSetCustomer }

// SetQuoteMeta updates quote id, dates and status. Nil fields are left untouched.
type SetQuoteMeta struct {
	QuoteID                *string  `json:"quoteId,omitempty"`
	IssueDate              *string  `json:"issueDate,omitempty"`
	DueDate                *string  `json:"dueDate,omitempty"`
	Status                 *string  `json:"status,omitempty"`
	CostDiscountPercentage *float64 `json:"costDiscountPercentage,omitempty"`
}

func (SetQuoteMeta) Type() Type { return QuoteSetMeta }

func validProperty(p domain.ItemProperty) error {
	if !p.Valid() {
		return fmt.Errorf("unknown item property %q", p)
	}
	return nil
}
