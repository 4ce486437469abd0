package reducer

import (
	"slices"

	"github.com/straye-as/blind-quote/internal/actions"
	"github.com/straye-as/blind-quote/internal/domain"
)

// k3CycleSequences are the fixed value cycles of the option columns
var k3CycleSequences = map[domain.ItemProperty][]string{
	domain.PropertyOver: {"O", ""},
	domain.PropertyOI:   {"IN", "OUT"},
	domain.PropertyLR:   {"L", "R"},
}

// ReduceQuote applies a quote action. Unknown actions and actions with no
// effect return q.
func (r *Root) ReduceQuote(q *domain.QuoteData, a actions.Action) *domain.QuoteData {
	if q == nil {
		return q
	}

	switch act := a.(type) {
	case actions.SetQuoteData:
		if act.QuoteData == nil || act.QuoteData.Equal(q) {
			return q
		}
		return act.QuoteData
	case actions.ResetQuoteData:
		return domain.NewQuoteData(r.blankItem(domain.ProductRollerBlind))
	case actions.SetCustomer:
		if q.Customer == act.Customer {
			return q
		}
		next := *q
		next.Customer = act.Customer
		return &next
	case actions.SetQuoteMeta:
		return r.setQuoteMeta(q, act)
	case actions.AddLFModifiedRows:
		merged := slices.Clone(q.UIMetadata.LFModifiedRowIndexes)
		for _, i := range act.RowIndexes {
			if !slices.Contains(merged, i) {
				merged = append(merged, i)
			}
		}
		return withLFModified(q, merged)
	case actions.RemoveLFModifiedRows:
		kept := removeIndexes(q.UIMetadata.LFModifiedRowIndexes, act.RowIndexes)
		return withLFModified(q, kept)
	}

	pd, ok := q.CurrentProductData()
	if !ok {
		return q
	}
	items := pd.Items

	switch act := a.(type) {
	case actions.InsertRow:
		if act.Index < -1 || act.Index >= len(items)-1 {
			return q
		}
		// never open a blank next to an existing one
		if items[act.Index+1].IsBlank() || (act.Index >= 0 && items[act.Index].IsBlank()) {
			return q
		}
		l := layoutOf(items)
		l.insert(act.Index+1, r.blankItem(q.CurrentProduct))
		return r.commitLayout(q, pd, l)

	case actions.DeleteRow:
		if !inRange(items, act.Index) {
			return q
		}
		l := layoutOf(items)
		last := items[len(items)-1]
		isLastPopulated := act.Index == len(items)-2 && len(items) > 1 && !last.HasWidth() && !last.HasHeight()
		if isLastPopulated || len(items) == 1 {
			blank := r.blankItem(q.CurrentProduct)
			blank.ItemID = items[act.Index].ItemID
			l.replace(act.Index, blank)
		} else {
			l.remove(act.Index)
		}
		return r.commitLayout(q, pd, r.consolidate(l, q.CurrentProduct))

	case actions.ClearRow:
		if !inRange(items, act.Index) {
			return q
		}
		l := layoutOf(items)
		blank := r.blankItem(q.CurrentProduct)
		blank.ItemID = items[act.Index].ItemID
		l.replace(act.Index, blank)
		return r.commitLayout(q, pd, r.consolidate(l, q.CurrentProduct))

	case actions.DeleteMultipleRows:
		l := layoutOf(items)
		for i := len(items) - 1; i >= 0; i-- {
			if slices.Contains(act.Indexes, i) {
				l.remove(i)
			}
		}
		if len(l.items) == len(items) {
			return q
		}
		if len(l.items) == 0 {
			l.insert(0, r.blankItem(q.CurrentProduct))
		}
		return r.commitLayout(q, pd, r.consolidate(l, q.CurrentProduct))

	case actions.UpdateItemValue:
		if !inRange(items, act.RowIndex) {
			return q
		}
		item := items[act.RowIndex]
		cur := item.Width
		if act.Column == domain.ColumnHeight {
			cur = item.Height
		}
		if domain.EqualInt(cur, act.Value) {
			return q
		}
		if act.Column == domain.ColumnHeight {
			item.Height = copyInt(act.Value)
		} else {
			item.Width = copyInt(act.Value)
		}
		r.applyHeavyDutyWinder(&item)
		l := layoutOf(items)
		l.items[act.RowIndex] = item
		return r.commitLayout(q, pd, r.consolidate(l, q.CurrentProduct))

	case actions.UpdateItemProperty:
		return r.updateItem(q, pd, act.RowIndex, func(it *domain.Item) {
			it.SetProperty(act.Property, act.Value)
		})

	case actions.SetItemChain:
		return r.updateItem(q, pd, act.RowIndex, func(it *domain.Item) {
			it.Chain = copyInt(act.Chain)
		})

	case actions.UpdateWinderMotorProperty:
		return r.updateItem(q, pd, act.RowIndex, func(it *domain.Item) {
			it.SetProperty(act.Property, act.Value)
			if act.Value == "" {
				return
			}
			switch act.Property {
			case domain.PropertyWinder:
				it.Motor = ""
			case domain.PropertyMotor:
				it.Winder = ""
			}
		})

	case actions.CycleK3Property:
		seq, ok := k3CycleSequences[act.Column]
		if !ok {
			return q
		}
		return r.updateItem(q, pd, act.RowIndex, func(it *domain.Item) {
			cur, _ := it.Property(act.Column)
			it.SetProperty(act.Column, seq[(slices.Index(seq, cur)+1)%len(seq)])
		})

	case actions.CycleItemType, actions.SetItemType, actions.BatchUpdateFabricType, actions.BatchUpdateFabricTypeForSelection:
		return r.changeFabricType(q, pd, act)

	case actions.BatchUpdateProperty:
		next := slices.Clone(items)
		for i := 0; i < len(next)-1; i++ {
			next[i].SetProperty(act.Property, act.Value)
		}
		return r.commitItems(q, pd, next)

	case actions.BatchUpdatePropertyByType:
		next := slices.Clone(items)
		for i := range next {
			if slices.Contains(act.ExcludeIndexes, i) || next[i].FabricType != act.FabricType {
				continue
			}
			next[i].SetProperty(act.Property, act.Value)
		}
		return r.commitItems(q, pd, next)

	case actions.BatchUpdateLFProperties:
		next := slices.Clone(items)
		for i := range next {
			if slices.Contains(act.RowIndexes, i) {
				next[i].Fabric = act.Fabric
				next[i].Color = act.Color
			}
		}
		return r.commitItems(q, pd, next)

	case actions.RemoveLFProperties:
		next := slices.Clone(items)
		for i := range next {
			if slices.Contains(act.RowIndexes, i) {
				next[i].Fabric = ""
				next[i].Color = ""
			}
		}
		return r.commitItems(q, pd, next)

	case actions.UpdateAccessorySummary:
		acc, changed := act.Patch.Apply(pd.Summary.Accessories)
		if !changed {
			return q
		}
		pd.Summary.Accessories = acc
		return q.WithProductData(pd)
	}

	return q
}

// changeFabricType implements the four type-change variants. Every changed
// row loses its price, fabric and color and leaves the light-filter set.
func (r *Root) changeFabricType(q *domain.QuoteData, pd domain.ProductData, a actions.Action) *domain.QuoteData {
	seq := r.fabricTypeSequence()
	if len(seq) == 0 {
		return q
	}

	items := slices.Clone(pd.Items)
	var changed []int
	setType := func(i int, fabricType string) {
		if items[i].FabricType == fabricType {
			return
		}
		items[i].FabricType = fabricType
		items[i].LinePrice = nil
		items[i].Fabric = ""
		items[i].Color = ""
		changed = append(changed, i)
	}
	hasBoth := func(it domain.Item) bool { return it.HasWidth() && it.HasHeight() }

	switch act := a.(type) {
	case actions.CycleItemType:
		if inRange(items, act.RowIndex) && items[act.RowIndex].HasDimension() {
			setType(act.RowIndex, nextFabricType(seq, items[act.RowIndex].FabricType))
		}
	case actions.SetItemType:
		if inRange(items, act.RowIndex) {
			setType(act.RowIndex, act.FabricType)
		}
	case actions.BatchUpdateFabricType:
		target := act.FabricType
		if target == "" {
			current := ""
			if i := slices.IndexFunc(items, hasBoth); i >= 0 {
				current = items[i].FabricType
			}
			target = nextFabricType(seq, current)
		}
		for i := range items {
			if hasBoth(items[i]) {
				setType(i, target)
			}
		}
	case actions.BatchUpdateFabricTypeForSelection:
		for i := range items {
			if slices.Contains(act.Indexes, i) && hasBoth(items[i]) {
				setType(i, act.FabricType)
			}
		}
	}

	if len(changed) == 0 {
		return q
	}
	next := q.WithProductData(domain.ProductData{Items: items, Summary: pd.Summary})
	next.UIMetadata = domain.UIMetadata{
		LFModifiedRowIndexes: removeIndexes(q.UIMetadata.LFModifiedRowIndexes, changed),
	}
	return next
}

// nextFabricType advances through the sequence with wraparound. An empty
// type is treated as the last entry so that cycling starts at the first.
func nextFabricType(seq []string, current string) string {
	if current == "" {
		current = seq[len(seq)-1]
	}
	return seq[(slices.Index(seq, current)+1)%len(seq)]
}

// applyHeavyDutyWinder sets the HD winder on large blinds without a motor.
// It never downgrades an existing choice.
func (r *Root) applyHeavyDutyWinder(it *domain.Item) {
	if !it.HasWidth() || !it.HasHeight() || it.Motor != "" {
		return
	}
	if r.rules == nil {
		return
	}
	th := r.rules.LogicThresholds()
	if th == nil {
		return
	}
	if (*it.Width)*(*it.Height) > th.HDWinderThresholdArea {
		it.Winder = domain.WinderHeavyDuty
	}
}

// consolidate drops every blank row that follows another blank row, then
// makes sure the last row is blank
func (r *Root) consolidate(l layout, product domain.ProductKey) layout {
	out := layout{
		items:  make([]domain.Item, 0, len(l.items)+1),
		origin: make([]int, 0, len(l.items)+1),
	}
	for i, it := range l.items {
		if n := len(out.items); n > 0 && it.IsBlank() && out.items[n-1].IsBlank() {
			continue
		}
		out.items = append(out.items, it)
		out.origin = append(out.origin, l.origin[i])
	}
	if n := len(out.items); n > 0 && out.items[n-1].HasDimension() {
		out.items = append(out.items, r.blankItem(product))
		out.origin = append(out.origin, -1)
	}
	return out
}

// layout is a row list under edit. origin holds the index each row had
// before the edit, or -1 for rows that are new or were reset.
type layout struct {
	items  []domain.Item
	origin []int
}

func layoutOf(items []domain.Item) layout {
	origin := make([]int, len(items))
	for i := range origin {
		origin[i] = i
	}
	return layout{items: slices.Clone(items), origin: origin}
}

func (l *layout) insert(at int, it domain.Item) {
	l.items = slices.Insert(l.items, at, it)
	l.origin = slices.Insert(l.origin, at, -1)
}

func (l *layout) remove(i int) {
	l.items = slices.Delete(l.items, i, i+1)
	l.origin = slices.Delete(l.origin, i, i+1)
}

func (l *layout) replace(i int, it domain.Item) {
	l.items[i] = it
	l.origin[i] = -1
}

// commitLayout stores the edited rows and moves the light-filter marks with
// the rows they belong to. Marks on removed or reset rows are dropped.
func (r *Root) commitLayout(q *domain.QuoteData, pd domain.ProductData, l layout) *domain.QuoteData {
	next := r.commitItems(q, pd, l.items)
	if next == q {
		return q
	}
	lf := make([]int, 0, len(q.UIMetadata.LFModifiedRowIndexes))
	for i, from := range l.origin {
		if from >= 0 && q.IsLFModified(from) {
			lf = append(lf, i)
		}
	}
	if !slices.Equal(lf, q.UIMetadata.LFModifiedRowIndexes) {
		next.UIMetadata = domain.UIMetadata{LFModifiedRowIndexes: lf}
	}
	return next
}

func (r *Root) updateItem(q *domain.QuoteData, pd domain.ProductData, index int, apply func(*domain.Item)) *domain.QuoteData {
	if !inRange(pd.Items, index) {
		return q
	}
	item := pd.Items[index]
	apply(&item)
	if item.Equal(pd.Items[index]) {
		return q
	}
	next := slices.Clone(pd.Items)
	next[index] = item
	return q.WithProductData(domain.ProductData{Items: next, Summary: pd.Summary})
}

// commitItems stores items unless they equal the current ones
func (r *Root) commitItems(q *domain.QuoteData, pd domain.ProductData, items []domain.Item) *domain.QuoteData {
	if slices.EqualFunc(pd.Items, items, domain.Item.Equal) {
		return q
	}
	return q.WithProductData(domain.ProductData{Items: items, Summary: pd.Summary})
}

func (r *Root) setQuoteMeta(q *domain.QuoteData, act actions.SetQuoteMeta) *domain.QuoteData {
	next := *q
	if act.QuoteID != nil {
		next.QuoteID = domain.String(*act.QuoteID)
	}
	if act.IssueDate != nil {
		next.IssueDate = domain.String(*act.IssueDate)
	}
	if act.DueDate != nil {
		next.DueDate = domain.String(*act.DueDate)
	}
	if act.Status != nil {
		next.Status = *act.Status
	}
	if act.CostDiscountPercentage != nil {
		next.CostDiscountPercentage = *act.CostDiscountPercentage
	}
	if domain.EqualString(next.QuoteID, q.QuoteID) && domain.EqualString(next.IssueDate, q.IssueDate) &&
		domain.EqualString(next.DueDate, q.DueDate) && next.Status == q.Status &&
		next.CostDiscountPercentage == q.CostDiscountPercentage {
		return q
	}
	return &next
}

func (r *Root) fabricTypeSequence() []string {
	if r.rules == nil {
		return nil
	}
	return r.rules.FabricTypeSequence()
}

func withLFModified(q *domain.QuoteData, indexes []int) *domain.QuoteData {
	if slices.Equal(indexes, q.UIMetadata.LFModifiedRowIndexes) {
		return q
	}
	next := *q
	next.UIMetadata = domain.UIMetadata{LFModifiedRowIndexes: indexes}
	return &next
}

func removeIndexes(set, remove []int) []int {
	out := make([]int, 0, len(set))
	for _, i := range set {
		if !slices.Contains(remove, i) {
			out = append(out, i)
		}
	}
	return out
}

func inRange[T any](s []T, i int) bool {
	return i >= 0 && i < len(s)
}
