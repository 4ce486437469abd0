package strategy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/straye-as/blind-quote/internal/domain"
	"github.com/straye-as/blind-quote/internal/pricing"
	"github.com/straye-as/blind-quote/internal/strategy"
)

var _ strategy.Strategy = (*strategy.RollerBlind)(nil)

type ruleSource struct {
	rules map[string]pricing.ValidationRule
}

func (r ruleSource) ValidationRules(productType string) (pricing.ValidationRule, bool) {
	rule, ok := r.rules[productType]
	return rule, ok
}

func matrix() *pricing.Matrix {
	return &pricing.Matrix{
		Widths: []int{1000, 1500, 2000},
		Drops:  []int{1200, 1800},
		Prices: [][]float64{{100, 150, 200}, {120, 180}},
	}
}

func item(width, height int, fabricType string) domain.Item {
	it := domain.NewBlankItem()
	it.Width = domain.Int(width)
	it.Height = domain.Int(height)
	it.FabricType = fabricType
	return it
}

// ============================================================================
// CalculatePrice
// ============================================================================

func TestRollerBlind_CalculatePrice(t *testing.T) {
	s := strategy.NewRollerBlind(nil)

	tests := []struct {
		name      string
		item      domain.Item
		matrix    *pricing.Matrix
		wantPrice float64
		wantErr   string
	}{
		{"smallest cell", item(500, 500, "B1"), matrix(), 100, ""},
		{"breakpoint is inclusive", item(1000, 1200, "B1"), matrix(), 100, ""},
		{"next tier", item(1001, 1201, "B1"), matrix(), 180, ""},
		{"width exceeded", item(2001, 500, "B1"), matrix(), 0, "Width 2001 exceeds the maximum width in the price matrix."},
		{"height exceeded", item(500, 1801, "B1"), matrix(), 0, "Height 1801 exceeds the maximum height in the price matrix."},
		{"missing cell", item(2000, 1800, "B1"), matrix(), 0, "Price not found for the given dimensions."},
		{"no matrix", item(500, 500, "ZZ"), nil, 0, "Price matrix not found for fabric type: ZZ"},
		{"incomplete", domain.NewBlankItem(), matrix(), 0, "Incomplete item data."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.CalculatePrice(tt.item, tt.matrix)
			if tt.wantErr != "" {
				assert.Nil(t, res.Price)
				assert.Equal(t, tt.wantErr, res.Err)
				return
			}
			require.NotNil(t, res.Price)
			assert.Equal(t, tt.wantPrice, *res.Price)
			assert.Empty(t, res.Err)
		})
	}
}

func TestRollerBlind_CalculatePrice_Monotonic(t *testing.T) {
	s := strategy.NewRollerBlind(nil)
	m := &pricing.Matrix{
		Widths: []int{1000, 1500, 2000},
		Drops:  []int{1200, 1800, 2400},
		Prices: [][]float64{{100, 150, 200}, {120, 180, 240}, {140, 210, 280}},
	}

	tests := []struct {
		name string
		size func(step int) (width, height int)
	}{
		{"width grows at the smallest drop", func(step int) (int, int) { return step, 600 }},
		{"width grows at the largest drop", func(step int) (int, int) { return step, 2400 }},
		{"height grows at the smallest width", func(step int) (int, int) { return 600, step }},
		{"height grows at the largest width", func(step int) (int, int) { return 2000, step }},
		{"both grow", func(step int) (int, int) { return step, step }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := 0.0
			for step := 100; step <= 2000; step += 50 {
				w, h := tt.size(step)
				res := s.CalculatePrice(item(w, h, "B1"), m)
				require.NotNil(t, res.Price, "%dx%d: %s", w, h, res.Err)
				assert.GreaterOrEqual(t, *res.Price, prev, "%dx%d", w, h)
				prev = *res.Price
			}
		})
	}
}

func TestRollerBlind_InitialItem(t *testing.T) {
	s := strategy.NewRollerBlind(nil)

	a, b := s.InitialItem(), s.InitialItem()
	assert.True(t, a.IsBlank())
	assert.NotEmpty(t, a.ItemID)
	assert.NotEqual(t, a.ItemID, b.ItemID)
}

// ============================================================================
// Accessories
// ============================================================================

func TestRollerBlind_CalculateDualPrice(t *testing.T) {
	s := strategy.NewRollerBlind(nil)

	dual := func(n int) []domain.Item {
		items := make([]domain.Item, 0, n+1)
		for i := 0; i < n; i++ {
			it := domain.NewBlankItem()
			it.Dual = domain.DualBracket
			items = append(items, it)
		}
		return append(items, domain.NewBlankItem())
	}

	tests := []struct {
		flagged int
		want    float64
	}{
		{0, 0},
		{1, 0},
		{2, 50},
		{3, 50},
		{5, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, s.CalculateDualPrice(dual(tt.flagged), 50), "flagged=%d", tt.flagged)
	}
}

func TestRollerBlind_AccessoryFormula(t *testing.T) {
	s := strategy.NewRollerBlind(nil)

	f, ok := s.AccessoryFormula(strategy.MethodMotorPrice)
	require.True(t, ok)
	assert.Equal(t, 750.0, f(strategy.AccessoryInput{Count: 3}, 250))

	f, ok = s.AccessoryFormula(strategy.MethodDualPrice)
	require.True(t, ok)
	it := domain.NewBlankItem()
	it.Dual = domain.DualBracket
	assert.Equal(t, 40.0, f(strategy.AccessoryInput{Items: []domain.Item{it, it}}, 40))

	_, ok = s.AccessoryFormula("calculateUnknownPrice")
	assert.False(t, ok)
}

func TestRollerBlind_ValidationRules(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		s := strategy.NewRollerBlind(ruleSource{rules: map[string]pricing.ValidationRule{
			"rollerBlind": {MinWidth: domain.Int(250), MaxWidth: domain.Int(3000)},
		}})
		rules := s.ValidationRules()
		require.NotNil(t, rules.Width.Min)
		assert.Equal(t, 250, *rules.Width.Min)
		assert.Equal(t, 3000, *rules.Width.Max)
		assert.Nil(t, rules.Height.Min)
	})

	t.Run("unbounded fallback", func(t *testing.T) {
		s := strategy.NewRollerBlind(ruleSource{})
		assert.Equal(t, strategy.ValidationRules{}, s.ValidationRules())
	})
}

// ============================================================================
// Factory
// ============================================================================

func TestFactory_Strategy(t *testing.T) {
	f := strategy.NewFactory(ruleSource{}, zap.NewNop())

	s := f.Strategy(domain.ProductRollerBlind)
	require.NotNil(t, s)
	assert.Equal(t, domain.ProductRollerBlind, s.ProductType())

	assert.Nil(t, f.Strategy("verticalBlind"))
}
