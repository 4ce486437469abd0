package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/straye-as/blind-quote/internal/domain"
	"github.com/straye-as/blind-quote/internal/service"
)

func TestBuildPrintableQuote(t *testing.T) {
	q := sampleQuote()
	q.QuoteID = domain.String("Q-7")
	q.Customer = domain.Customer{Name: "Ann", Phone: "0400"}

	ui := domain.NewUIState()
	ui.F2.DisRbPrice = domain.Float(1800)
	ui.F2.AcceSum = domain.Float(45)
	ui.F2.EAcceSum = domain.Float(380)
	ui.F2.SurchargeFee = domain.Float(60)
	ui.F2.SumPrice = domain.Float(2285)
	ui.F2.GST = domain.Float(2513.5)
	state := &domain.State{UI: ui, QuoteData: q}

	t.Run("totals from F2", func(t *testing.T) {
		p := service.BuildPrintableQuote(state, service.PrintOverrides{CustomerName: "Bob"})

		assert.Equal(t, "Q-7", p.QuoteID)
		assert.Equal(t, "Bob", p.Customer.Name)
		assert.Equal(t, "0400", p.Customer.Phone)
		require.Len(t, p.SummaryRows, 2)
		assert.Equal(t, 1800.0, p.SummaryRows[0].Price)
		assert.Equal(t, 485.0, p.SummaryRows[1].Price)
		assert.Equal(t, 2285.0, p.SubTotal)
		assert.InDelta(t, 228.5, p.GST, 1e-9)
		assert.Equal(t, 2513.5, p.FinalTotal)

		require.Len(t, p.Items, 2)
		assert.Equal(t, 1, p.Items[0].Sequence)
		assert.Equal(t, "Kitchen", p.Items[0].Location)
	})

	t.Run("final offer price is GST inclusive", func(t *testing.T) {
		p := service.BuildPrintableQuote(state, service.PrintOverrides{FinalOfferPrice: domain.Float(1100)})

		assert.Equal(t, 1100.0, p.FinalTotal)
		assert.InDelta(t, 100.0, p.GST, 1e-9)
		assert.InDelta(t, 1000.0, p.SubTotal, 1e-9)
	})
}
