// Package actions defines the closed set of operations that can be dispatched
// into the state container. Each action is its own Go type; reducers select on
// the concrete type and the Type string is only used for namespace routing,
// logging and the JSON envelope accepted by the session host.
package actions

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Type is the namespaced name of an action, e.g. "ui/setActiveCell"
type Type string

// Namespace selects the sub-reducer that handles an action
type Namespace string

const (
	NamespaceUI    Namespace = "ui"
	NamespaceQuote Namespace = "quote"
)

// Namespace returns the prefix before the first slash, or "" when there is none
func (t Type) Namespace() Namespace {
	i := strings.IndexByte(string(t), '/')
	if i < 0 {
		return ""
	}
	return Namespace(t[:i])
}

// Action is implemented by every dispatchable operation
type Action interface {
	Type() Type
}

// ErrUnknownAction is returned when decoding an action type outside the vocabulary
var ErrUnknownAction = errors.New("unknown action type")

// Envelope is the wire shape of an action: {type, payload}
type Envelope struct {
	Type    Type            `json:"type" validate:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// validatable is implemented by payloads that reject values the reducer would ignore
type validatable interface {
	Validate() error
}

type decoder func(json.RawMessage) (Action, error)

func decodeInto[T Action](raw json.RawMessage) (Action, error) {
	var a T
	if len(raw) > 0 && string(raw) != "null" {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&a); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
	}
	if v, ok := any(a).(validatable); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

var registry = map[Type]decoder{
	UISetCurrentView:                 decodeInto[SetCurrentView],
	UISetVisibleColumns:              decodeInto[SetVisibleColumns],
	UISetActiveTab:                   decodeInto[SetActiveTab],
	UISetActiveCell:                  decodeInto[SetActiveCell],
	UISetSelectedRow:                 decodeInto[SetSelectedRow],
	UISetInputValue:                  decodeInto[SetInputValue],
	UIAppendInputValue:               decodeInto[AppendInputValue],
	UIDeleteLastInputChar:            decodeInto[DeleteLastInputChar],
	UIClearInputValue:                decodeInto[ClearInputValue],
	UIToggleMultiSelectMode:          decodeInto[ToggleMultiSelectMode],
	UIToggleMultiSelectSelection:     decodeInto[ToggleMultiSelectSelection],
	UIClearMultiSelectSelection:      decodeInto[ClearMultiSelectSelection],
	UISetActiveEditMode:              decodeInto[SetActiveEditMode],
	UISetTargetCell:                  decodeInto[SetTargetCell],
	UISetLocationInputValue:          decodeInto[SetLocationInputValue],
	UIToggleLFSelection:              decodeInto[ToggleLFSelection],
	UIClearLFSelection:               decodeInto[ClearLFSelection],
	UISetDualChainMode:               decodeInto[SetDualChainMode],
	UISetDualChainInputValue:         decodeInto[SetDualChainInputValue],
	UIClearDualChainInputValue:       decodeInto[ClearDualChainInputValue],
	UISetDriveAccessoryMode:          decodeInto[SetDriveAccessoryMode],
	UISetDriveAccessoryCount:         decodeInto[SetDriveAccessoryCount],
	UISetDriveAccessoryTotalPrice:    decodeInto[SetDriveAccessoryTotalPrice],
	UISetDriveGrandTotal:             decodeInto[SetDriveGrandTotal],
	UISetDualPrice:                   decodeInto[SetDualPrice],
	UISetSummaryPrice:                decodeInto[SetSummaryPrice],
	UISetF1RemoteDistribution:        decodeInto[SetF1RemoteDistribution],
	UISetF1DualDistribution:          decodeInto[SetF1DualDistribution],
	UISetF1DiscountPercentage:        decodeInto[SetF1DiscountPercentage],
	UISetF2Value:                     decodeInto[SetF2Value],
	UIToggleF2FeeExclusion:           decodeInto[ToggleF2FeeExclusion],
	UISetSumOutdated:                 decodeInto[SetSumOutdated],
	UISetWelcomeDialogShown:          decodeInto[SetWelcomeDialogShown],
	UIReset:                          decodeInto[ResetUI],
	QuoteSetQuoteData:                decodeInto[SetQuoteData],
	QuoteReset:                       decodeInto[ResetQuoteData],
	QuoteInsertRow:                   decodeInto[InsertRow],
	QuoteDeleteRow:                   decodeInto[DeleteRow],
	QuoteClearRow:                    decodeInto[ClearRow],
	QuoteDeleteMultipleRows:          decodeInto[DeleteMultipleRows],
	QuoteUpdateItemValue:             decodeInto[UpdateItemValue],
	QuoteUpdateItemProperty:          decodeInto[UpdateItemProperty],
	QuoteSetItemChain:                decodeInto[SetItemChain],
	QuoteUpdateWinderMotorProperty:   decodeInto[UpdateWinderMotorProperty],
	QuoteCycleK3Property:             decodeInto[CycleK3Property],
	QuoteCycleItemType:               decodeInto[CycleItemType],
	QuoteSetItemType:                 decodeInto[SetItemType],
	QuoteBatchUpdateProperty:         decodeInto[BatchUpdateProperty],
	QuoteBatchUpdatePropertyByType:   decodeInto[BatchUpdatePropertyByType],
	QuoteBatchUpdateFabricType:       decodeInto[BatchUpdateFabricType],
	QuoteBatchUpdateFabricTypeForSel: decodeInto[BatchUpdateFabricTypeForSelection],
	QuoteBatchUpdateLFProperties:     decodeInto[BatchUpdateLFProperties],
	QuoteRemoveLFProperties:          decodeInto[RemoveLFProperties],
	QuoteUpdateAccessorySummary:      decodeInto[UpdateAccessorySummary],
	QuoteAddLFModifiedRows:           decodeInto[AddLFModifiedRows],
	QuoteRemoveLFModifiedRows:        decodeInto[RemoveLFModifiedRows],
	QuoteSetCustomer:                 decodeInto[SetCustomer],
	QuoteSetMeta:                     decodeInto[SetQuoteMeta],
}

// Decode turns a wire envelope into a typed action. Types outside the
// vocabulary and payloads naming unknown fields are rejected here.
func Decode(env Envelope) (Action, error) {
	dec, ok := registry[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, env.Type)
	}
	a, err := dec(env.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return a, nil
}

// Known reports whether t belongs to the vocabulary
func Known(t Type) bool {
	_, ok := registry[t]
	return ok
}
