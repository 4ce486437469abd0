package actions_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/straye-as/blind-quote/internal/actions"
	"github.com/straye-as/blind-quote/internal/domain"
)

func TestType_Namespace(t *testing.T) {
	tests := []struct {
		typ  actions.Type
		want actions.Namespace
	}{
		{actions.UISetActiveCell, actions.NamespaceUI},
		{actions.QuoteInsertRow, actions.NamespaceQuote},
		{"noSlash", ""},
		{"other/thing", "other"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.Namespace(), string(tt.typ))
	}
}

// ============================================================================
// Decode
// ============================================================================

func TestDecode(t *testing.T) {
	t.Run("typed payload", func(t *testing.T) {
		a, err := actions.Decode(actions.Envelope{
			Type:    actions.QuoteUpdateItemValue,
			Payload: json.RawMessage(`{"rowIndex":2,"column":"width","value":1200}`),
		})
		require.NoError(t, err)

		got, ok := a.(actions.UpdateItemValue)
		require.True(t, ok)
		assert.Equal(t, 2, got.RowIndex)
		assert.Equal(t, domain.ColumnWidth, got.Column)
		require.NotNil(t, got.Value)
		assert.Equal(t, 1200, *got.Value)
	})

	t.Run("empty payload", func(t *testing.T) {
		a, err := actions.Decode(actions.Envelope{Type: actions.UIClearInputValue})
		require.NoError(t, err)
		assert.Equal(t, actions.UIClearInputValue, a.Type())
	})

	t.Run("null payload", func(t *testing.T) {
		a, err := actions.Decode(actions.Envelope{Type: actions.UIReset, Payload: json.RawMessage(`null`)})
		require.NoError(t, err)
		assert.IsType(t, actions.ResetUI{}, a)
	})
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		env     actions.Envelope
		unknown bool
	}{
		{
			name:    "unknown type",
			env:     actions.Envelope{Type: "quote/doesNotExist"},
			unknown: true,
		},
		{
			name: "unknown payload field",
			env:  actions.Envelope{Type: actions.QuoteInsertRow, Payload: json.RawMessage(`{"index":1}`)},
		},
		{
			name: "malformed payload",
			env:  actions.Envelope{Type: actions.QuoteInsertRow, Payload: json.RawMessage(`{"selectedIndex":"one"}`)},
		},
		{
			name: "unknown dimension column",
			env:  actions.Envelope{Type: actions.QuoteUpdateItemValue, Payload: json.RawMessage(`{"rowIndex":0,"column":"depth","value":1}`)},
		},
		{
			name: "unknown F2 field",
			env:  actions.Envelope{Type: actions.UISetF2Value, Payload: json.RawMessage(`{"key":"bogus","value":1}`)},
		},
		{
			name: "computed F2 field",
			env:  actions.Envelope{Type: actions.UISetF2Value, Payload: json.RawMessage(`{"key":"netProfit","value":999999}`)},
		},
		{
			name:    "F2 summary is not accepted from the wire",
			env:     actions.Envelope{Type: actions.UIApplyF2Summary, Payload: json.RawMessage(`{"summary":{"netProfit":999999}}`)},
			unknown: true,
		},
		{
			name: "unknown fee",
			env:  actions.Envelope{Type: actions.UIToggleF2FeeExclusion, Payload: json.RawMessage(`{"feeType":"wifi"}`)},
		},
		{
			name: "missing quote data",
			env:  actions.Envelope{Type: actions.QuoteSetQuoteData, Payload: json.RawMessage(`{}`)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := actions.Decode(tt.env)
			require.Error(t, err)
			assert.Nil(t, a)
			assert.Equal(t, tt.unknown, errors.Is(err, actions.ErrUnknownAction))
		})
	}
}

func TestKnown(t *testing.T) {
	assert.True(t, actions.Known(actions.QuoteSetCustomer))
	assert.True(t, actions.Known(actions.UISetF2Value))
	assert.False(t, actions.Known(actions.UIApplyF2Summary))
	assert.False(t, actions.Known("ui/bogus"))
}

func TestTypes_MatchRegistry(t *testing.T) {
	all := []actions.Action{
		actions.SetCurrentView{}, actions.SetActiveCell{}, actions.SetDualChainMode{},
		actions.SetF2Value{}, actions.ResetUI{}, actions.SetQuoteData{},
		actions.CycleItemType{}, actions.BatchUpdateLFProperties{}, actions.SetQuoteMeta{},
	}
	for _, a := range all {
		assert.True(t, actions.Known(a.Type()), string(a.Type()))
	}
}
