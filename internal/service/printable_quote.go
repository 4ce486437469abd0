package service

import (
	"github.com/straye-as/blind-quote/internal/domain"
)

// PrintOverrides are values typed into the final quote form. Empty strings
// and a nil price keep the values from state.
type PrintOverrides struct {
	QuoteID         string   `json:"quoteId"`
	IssueDate       string   `json:"issueDate"`
	DueDate         string   `json:"dueDate"`
	CustomerName    string   `json:"customerName"`
	CustomerAddress string   `json:"customerAddress"`
	CustomerPhone   string   `json:"customerPhone"`
	CustomerEmail   string   `json:"customerEmail" validate:"omitempty,email"`
	FinalOfferPrice *float64 `json:"finalOfferPrice" validate:"omitempty,gte=0"`
	GeneralNotes    string   `json:"generalNotes"`
	TermsConditions string   `json:"termsConditions"`
}

// PrintableSummaryRow is one product line of the printed quote
type PrintableSummaryRow struct {
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// PrintableItem is one row of the detailed item list
type PrintableItem struct {
	Sequence int `json:"sequence"`
	domain.Item
}

// PrintableQuote is the customer-facing quote document
type PrintableQuote struct {
	QuoteID         string                `json:"quoteId"`
	IssueDate       string                `json:"issueDate"`
	DueDate         string                `json:"dueDate"`
	Customer        domain.Customer       `json:"customer"`
	SummaryRows     []PrintableSummaryRow `json:"summaryRows"`
	SubTotal        float64               `json:"subTotal"`
	GST             float64               `json:"gst"`
	FinalTotal      float64               `json:"finalTotal"`
	GeneralNotes    string                `json:"generalNotes"`
	TermsConditions string                `json:"termsConditions"`
	Items           []PrintableItem       `json:"items"`
}

// BuildPrintableQuote assembles the printed quote from state and the last F2
// figures. A final offer price overrides the totals and is treated as GST inclusive.
func BuildPrintableQuote(state *domain.State, o PrintOverrides) *PrintableQuote {
	q := state.QuoteData
	f2 := state.UI.F2

	p := &PrintableQuote{
		QuoteID:   firstNonEmpty(o.QuoteID, deref(q.QuoteID)),
		IssueDate: firstNonEmpty(o.IssueDate, deref(q.IssueDate)),
		DueDate:   firstNonEmpty(o.DueDate, deref(q.DueDate)),
		Customer: domain.Customer{
			Name:    firstNonEmpty(o.CustomerName, q.Customer.Name),
			Address: firstNonEmpty(o.CustomerAddress, q.Customer.Address),
			Phone:   firstNonEmpty(o.CustomerPhone, q.Customer.Phone),
			Email:   firstNonEmpty(o.CustomerEmail, q.Customer.Email),
		},
		SummaryRows: []PrintableSummaryRow{
			{Description: "Roller Blinds", Price: floatOr(f2.DisRbPrice)},
			{Description: "Installation Accessories", Price: floatOr(f2.AcceSum) + floatOr(f2.EAcceSum) + floatOr(f2.SurchargeFee)},
		},
		GeneralNotes:    o.GeneralNotes,
		TermsConditions: o.TermsConditions,
		Items:           []PrintableItem{},
	}

	if o.FinalOfferPrice != nil {
		final := *o.FinalOfferPrice
		p.GST = final / 11
		p.SubTotal = final - p.GST
		p.FinalTotal = final
	} else {
		p.SubTotal = floatOr(f2.SumPrice)
		p.GST = floatOr(f2.GST) - floatOr(f2.SumPrice)
		p.FinalTotal = floatOr(f2.GST)
	}

	for i, item := range q.CurrentItems() {
		if !item.HasDimension() {
			continue
		}
		p.Items = append(p.Items, PrintableItem{Sequence: i + 1, Item: item})
	}
	return p
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
