// Package reducer implements the state transition function of a quote
// session. Reducers are pure: they never mutate their input, and they return
// the input pointer unchanged when an action has no effect so that the store
// can detect changes by identity.
package reducer

import (
	"go.uber.org/zap"

	"github.com/straye-as/blind-quote/internal/actions"
	"github.com/straye-as/blind-quote/internal/domain"
	"github.com/straye-as/blind-quote/internal/pricing"
	"github.com/straye-as/blind-quote/internal/strategy"
)

// StrategyResolver resolves the strategy of a product
type StrategyResolver interface {
	Strategy(productType domain.ProductKey) strategy.Strategy
}

// RuleSource provides the configuration consulted by the quote reducer
type RuleSource interface {
	FabricTypeSequence() []string
	LogicThresholds() *pricing.LogicThresholds
}

// Root routes actions to the UI or quote reducer by namespace
type Root struct {
	strategies StrategyResolver
	rules      RuleSource
	logger     *zap.Logger
}

// NewRoot creates the root reducer
func NewRoot(strategies StrategyResolver, rules RuleSource, logger *zap.Logger) *Root {
	return &Root{strategies: strategies, rules: rules, logger: logger}
}

// Reduce applies an action and re-wraps only the branch that changed.
// Actions outside both namespaces return the same state.
func (r *Root) Reduce(state *domain.State, a actions.Action) *domain.State {
	if state == nil || a == nil {
		return state
	}
	switch a.Type().Namespace() {
	case actions.NamespaceUI:
		next := ReduceUI(state.UI, a)
		if next != state.UI {
			return &domain.State{UI: next, QuoteData: state.QuoteData}
		}
	case actions.NamespaceQuote:
		next := r.ReduceQuote(state.QuoteData, a)
		if next != state.QuoteData {
			return &domain.State{UI: state.UI, QuoteData: next}
		}
	}
	return state
}

// InitialState returns the state of a fresh session
func (r *Root) InitialState() *domain.State {
	return domain.NewState(r.blankItem(domain.ProductRollerBlind))
}

func (r *Root) blankItem(product domain.ProductKey) domain.Item {
	if r.strategies != nil {
		if s := r.strategies.Strategy(product); s != nil {
			return s.InitialItem()
		}
	}
	return domain.NewBlankItem()
}
