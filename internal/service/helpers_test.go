package service_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/straye-as/blind-quote/internal/actions"
	"github.com/straye-as/blind-quote/internal/domain"
	"github.com/straye-as/blind-quote/internal/pricing"
	"github.com/straye-as/blind-quote/internal/reducer"
	"github.com/straye-as/blind-quote/internal/service"
	"github.com/straye-as/blind-quote/internal/store"
	"github.com/straye-as/blind-quote/internal/strategy"
)

const priceData = `{
  "matrices": {
    "B1": {"name": "Blockout", "widths": [1000, 2000], "drops": [1000, 2000], "prices": [[100, 200], [150, 250]]},
    "B2": {"name": "Blockout 2", "aliasFor": "B1"}
  },
  "accessories": {
    "winderHD": {"price": 30},
    "motorStandard": {"price": 250},
    "remoteStandard": {"price": 100},
    "chargerStandard": {"price": 50},
    "cordStandard": {"price": 10},
    "dualStandard": {"price": 40},
    "cost-winder": {"price": 20},
    "cost-motor": {"price": 180},
    "remoteSingleChannel": {"price": 60},
    "remoteMultiChannel16": {"price": 90},
    "charger": {"price": 35},
    "cord3m": {"price": 5},
    "comboBracket": {"price": 25},
    "slimComboBracket": {"price": 30}
  },
  "fabricTypeSequence": ["B1", "B2"],
  "businessRules": {
    "logic": {"hdWinderThresholdArea": 4000000},
    "mappings": {
      "accessoryPriceKeyMap": {
        "winder": "winderHD", "motor": "motorStandard", "remote": "remoteStandard",
        "charger": "chargerStandard", "cord": "cordStandard", "dual": "dualStandard"
      },
      "accessoryMethodNameMap": {
        "winder": "calculateWinderPrice", "motor": "calculateMotorPrice", "remote": "calculateRemotePrice",
        "charger": "calculateChargerPrice", "cord": "calculateCordPrice", "dual": "calculateDualPrice"
      }
    }
  }
}`

type harness struct {
	config    *pricing.Source
	factory   *strategy.Factory
	calc      *service.CalculationService
	migration *service.MigrationService
	files     *service.FileService
	store     *store.Store
	workflow  *service.WorkflowService
	session   *service.Session
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zap.NewNop()

	cfg, err := pricing.Parse([]byte(priceData), pricing.DefaultF2UnitPrices(), logger)
	require.NoError(t, err)

	factory := strategy.NewFactory(cfg, logger)
	root := reducer.NewRoot(factory, cfg, logger)
	st := store.New(root.InitialState(), root, logger)

	calc := service.NewCalculationService(cfg, factory, logger)
	migration := service.NewMigrationService(factory, logger)
	files := service.NewFileService(migration, logger)
	wf := service.NewWorkflowService(st, calc, files, factory, logger)

	return &harness{
		config:    cfg,
		factory:   factory,
		calc:      calc,
		migration: migration,
		files:     files,
		store:     st,
		workflow:  wf,
		session:   service.NewSession(st, wf),
	}
}

// load replaces the quote held by the harness store
func (h *harness) load(items ...domain.Item) {
	h.store.Dispatch(actions.SetQuoteData{QuoteData: quoteWith(items...)})
}

func (h *harness) items() []domain.Item {
	return h.store.GetState().QuoteData.CurrentItems()
}

func row(width, height int, fabricType string) domain.Item {
	it := domain.NewBlankItem()
	if width > 0 {
		it.Width = domain.Int(width)
	}
	if height > 0 {
		it.Height = domain.Int(height)
	}
	it.FabricType = fabricType
	return it
}

func withDual(it domain.Item) domain.Item {
	it.Dual = domain.DualBracket
	return it
}

func quoteWith(items ...domain.Item) *domain.QuoteData {
	return domain.NewQuoteData(domain.NewBlankItem()).WithProductData(domain.ProductData{
		Items:   items,
		Summary: domain.NewSummary(),
	})
}
