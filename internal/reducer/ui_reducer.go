package reducer

import (
	"reflect"
	"slices"
	"unicode/utf8"

	"github.com/straye-as/blind-quote/internal/actions"
	"github.com/straye-as/blind-quote/internal/domain"
)

// ReduceUI applies a UI action. Unknown actions return s.
func ReduceUI(s *domain.UIState, a actions.Action) *domain.UIState {
	if s == nil {
		return s
	}

	switch act := a.(type) {
	case actions.SetCurrentView:
		return updateUI(s, s.CurrentView == act.View, func(n *domain.UIState) {
			n.CurrentView = act.View
		})
	case actions.SetVisibleColumns:
		return updateUI(s, slices.Equal(s.VisibleColumns, act.Columns), func(n *domain.UIState) {
			n.VisibleColumns = slices.Clone(act.Columns)
		})
	case actions.SetActiveTab:
		return updateUI(s, s.ActiveTabID == act.TabID, func(n *domain.UIState) {
			n.ActiveTabID = act.TabID
		})

	case actions.SetActiveCell:
		cell := domain.Cell{RowIndex: act.RowIndex, Column: act.Column}
		return updateUI(s, s.ActiveCell == cell && s.InputMode == act.Column, func(n *domain.UIState) {
			n.ActiveCell = cell
			n.InputMode = act.Column
		})
	case actions.SetSelectedRow:
		return updateUI(s, domain.EqualInt(s.SelectedRowIndex, act.RowIndex), func(n *domain.UIState) {
			n.SelectedRowIndex = copyInt(act.RowIndex)
		})
	case actions.SetInputValue:
		return updateUI(s, s.InputValue == act.Value, func(n *domain.UIState) {
			n.InputValue = act.Value
		})
	case actions.AppendInputValue:
		return updateUI(s, act.Key == "", func(n *domain.UIState) {
			n.InputValue = s.InputValue + act.Key
		})
	case actions.DeleteLastInputChar:
		return updateUI(s, s.InputValue == "", func(n *domain.UIState) {
			_, size := utf8.DecodeLastRuneInString(s.InputValue)
			n.InputValue = s.InputValue[:len(s.InputValue)-size]
		})
	case actions.ClearInputValue:
		return updateUI(s, s.InputValue == "", func(n *domain.UIState) {
			n.InputValue = ""
		})

	case actions.ToggleMultiSelectMode:
		entering := !s.IsMultiSelectMode
		next := *s
		next.IsMultiSelectMode = entering
		next.MultiSelectSelectedIndexes = []int{}
		if entering && s.SelectedRowIndex != nil {
			next.MultiSelectSelectedIndexes = []int{*s.SelectedRowIndex}
		}
		next.SelectedRowIndex = nil
		return &next
	case actions.ToggleMultiSelectSelection:
		next := *s
		next.MultiSelectSelectedIndexes = toggleIndex(s.MultiSelectSelectedIndexes, act.RowIndex)
		return &next
	case actions.ClearMultiSelectSelection:
		return updateUI(s, len(s.MultiSelectSelectedIndexes) == 0 && s.MultiSelectSelectedIndexes != nil, func(n *domain.UIState) {
			n.MultiSelectSelectedIndexes = []int{}
		})

	case actions.SetActiveEditMode:
		return updateUI(s, s.ActiveEditMode == act.Mode, func(n *domain.UIState) {
			n.ActiveEditMode = act.Mode
		})
	case actions.SetTargetCell:
		return updateUI(s, equalCell(s.TargetCell, act.Cell), func(n *domain.UIState) {
			if act.Cell == nil {
				n.TargetCell = nil
				return
			}
			c := *act.Cell
			n.TargetCell = &c
		})
	case actions.SetLocationInputValue:
		return updateUI(s, s.LocationInputValue == act.Value, func(n *domain.UIState) {
			n.LocationInputValue = act.Value
		})
	case actions.ToggleLFSelection:
		next := *s
		next.LFSelectedRowIndexes = toggleIndex(s.LFSelectedRowIndexes, act.RowIndex)
		return &next
	case actions.ClearLFSelection:
		return updateUI(s, len(s.LFSelectedRowIndexes) == 0 && s.LFSelectedRowIndexes != nil, func(n *domain.UIState) {
			n.LFSelectedRowIndexes = []int{}
		})

	case actions.SetDualChainMode:
		return updateUI(s, s.DualChainMode == act.Mode, func(n *domain.UIState) {
			n.DualChainMode = act.Mode
		})
	case actions.SetDualChainInputValue:
		return updateUI(s, s.DualChainInputValue == act.Value, func(n *domain.UIState) {
			n.DualChainInputValue = act.Value
		})
	case actions.ClearDualChainInputValue:
		return updateUI(s, s.DualChainInputValue == "", func(n *domain.UIState) {
			n.DualChainInputValue = ""
		})
	case actions.SetDriveAccessoryMode:
		return updateUI(s, s.DriveAccessoryMode == act.Mode, func(n *domain.UIState) {
			n.DriveAccessoryMode = act.Mode
		})
	case actions.SetDriveAccessoryCount:
		ref := s.DriveCountRef(act.Accessory)
		if act.Count < 0 || ref == nil || *ref == act.Count {
			return s
		}
		next := *s
		*next.DriveCountRef(act.Accessory) = act.Count
		return &next
	case actions.SetDriveAccessoryTotalPrice:
		ref := s.DriveTotalRef(act.Accessory)
		if ref == nil || domain.EqualFloat(*ref, act.Price) {
			return s
		}
		next := *s
		*next.DriveTotalRef(act.Accessory) = copyFloat(act.Price)
		return &next
	case actions.SetDriveGrandTotal:
		return updateUI(s, domain.EqualFloat(s.DriveGrandTotal, act.Price), func(n *domain.UIState) {
			n.DriveGrandTotal = copyFloat(act.Price)
		})
	case actions.SetDualPrice:
		return updateUI(s, domain.EqualFloat(s.DualPrice, act.Price), func(n *domain.UIState) {
			n.DualPrice = copyFloat(act.Price)
		})
	case actions.SetSummaryPrice:
		ref := s.SummaryPriceRef(act.Field)
		if ref == nil || domain.EqualFloat(*ref, act.Price) {
			return s
		}
		next := *s
		*next.SummaryPriceRef(act.Field) = copyFloat(act.Price)
		return &next

	case actions.SetF1RemoteDistribution:
		unchanged := domain.EqualInt(s.F1.Remote1chQty, act.Qty1) && domain.EqualInt(s.F1.Remote16chQty, act.Qty16)
		return updateUI(s, unchanged, func(n *domain.UIState) {
			n.F1.Remote1chQty = copyInt(act.Qty1)
			n.F1.Remote16chQty = copyInt(act.Qty16)
		})
	case actions.SetF1DualDistribution:
		unchanged := domain.EqualInt(s.F1.DualComboQty, act.ComboQty) && domain.EqualInt(s.F1.DualSlimQty, act.SlimQty)
		return updateUI(s, unchanged, func(n *domain.UIState) {
			n.F1.DualComboQty = copyInt(act.ComboQty)
			n.F1.DualSlimQty = copyInt(act.SlimQty)
		})
	case actions.SetF1DiscountPercentage:
		return updateUI(s, s.F1.DiscountPercentage == act.Percentage, func(n *domain.UIState) {
			n.F1.DiscountPercentage = act.Percentage
		})
	case actions.SetF2Value:
		if !act.Field.IsInput() {
			return s
		}
		f2 := s.F2
		ref := f2.Ref(act.Field)
		if ref == nil || domain.EqualFloat(*ref, act.Value) {
			return s
		}
		*ref = copyFloat(act.Value)
		next := *s
		next.F2 = f2
		return &next
	case actions.ApplyF2Summary:
		f2 := applyF2Summary(s.F2, act.Summary)
		if reflect.DeepEqual(f2, s.F2) {
			return s
		}
		next := *s
		next.F2 = f2
		return &next
	case actions.ToggleF2FeeExclusion:
		f2 := s.F2
		ref := f2.ExclusionRef(act.Fee)
		if ref == nil {
			return s
		}
		*ref = !*ref
		next := *s
		next.F2 = f2
		return &next

	case actions.SetSumOutdated:
		return updateUI(s, s.IsSumOutdated == act.Outdated, func(n *domain.UIState) {
			n.IsSumOutdated = act.Outdated
		})
	case actions.SetWelcomeDialogShown:
		return updateUI(s, s.WelcomeDialogShown == act.Shown, func(n *domain.UIState) {
			n.WelcomeDialogShown = act.Shown
		})
	case actions.ResetUI:
		fresh := domain.NewUIState()
		if reflect.DeepEqual(fresh, s) {
			return s
		}
		return fresh
	}
	return s
}

// updateUI returns s when unchanged, otherwise a shallow copy with apply run on it
func updateUI(s *domain.UIState, unchanged bool, apply func(*domain.UIState)) *domain.UIState {
	if unchanged {
		return s
	}
	next := *s
	apply(&next)
	return &next
}

func applyF2Summary(f2 domain.F2State, sum domain.F2Summary) domain.F2State {
	f2.TotalSumForRbTime = domain.Float(sum.TotalSumForRbTime)
	f2.WifiSum = domain.Float(sum.WifiSum)
	f2.DeliveryFee = domain.Float(sum.DeliveryFee)
	f2.InstallFee = domain.Float(sum.InstallFee)
	f2.RemovalFee = domain.Float(sum.RemovalFee)
	f2.AcceSum = domain.Float(sum.AcceSum)
	f2.EAcceSum = domain.Float(sum.EAcceSum)
	f2.SurchargeFee = domain.Float(sum.SurchargeFee)
	f2.FirstRbPrice = domain.Float(sum.FirstRbPrice)
	f2.DisRbPrice = domain.Float(sum.DisRbPrice)
	f2.SumPrice = domain.Float(sum.SumPrice)
	f2.RbProfit = domain.Float(sum.RbProfit)
	f2.SingleProfit = domain.Float(sum.SingleProfit)
	f2.SumProfit = domain.Float(sum.SumProfit)
	f2.GST = domain.Float(sum.GST)
	f2.NetProfit = domain.Float(sum.NetProfit)
	return f2
}

// toggleIndex adds or removes v, returning a new slice
func toggleIndex(set []int, v int) []int {
	if i := slices.Index(set, v); i >= 0 {
		out := make([]int, 0, len(set)-1)
		out = append(out, set[:i]...)
		return append(out, set[i+1:]...)
	}
	out := make([]int, 0, len(set)+1)
	out = append(out, set...)
	return append(out, v)
}

func equalCell(a, b *domain.Cell) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
