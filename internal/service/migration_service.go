package service

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/straye-as/blind-quote/internal/domain"
)

// documentShape decodes just enough of a stored document to tell its format
type documentShape struct {
	CurrentProduct   domain.ProductKey                  `json:"currentProduct"`
	Products         map[domain.ProductKey]productShape `json:"products"`
	RollerBlindItems []domain.Item                      `json:"rollerBlindItems"`
}

type productShape struct {
	Items []domain.Item `json:"items"`
}

// legacyDocument is the flat document written before products were keyed
type legacyDocument struct {
	RollerBlindItems       []domain.Item    `json:"rollerBlindItems"`
	Summary                *domain.Summary  `json:"summary"`
	QuoteID                *string          `json:"quoteId"`
	IssueDate              *string          `json:"issueDate"`
	DueDate                *string          `json:"dueDate"`
	Status                 string           `json:"status"`
	CostDiscountPercentage float64          `json:"costDiscountPercentage"`
	Customer               *domain.Customer `json:"customer"`
}

// MigrationService upgrades stored quote documents to the current shape
type MigrationService struct {
	strategies StrategyResolver
	logger     *zap.Logger
}

// NewMigrationService creates a new MigrationService instance
func NewMigrationService(strategies StrategyResolver, logger *zap.Logger) *MigrationService {
	return &MigrationService{
		strategies: strategies,
		logger:     logger,
	}
}

// IsQuoteDocument reports whether raw JSON is a current or legacy quote document
func (s *MigrationService) IsQuoteDocument(raw []byte) bool {
	var shape documentShape
	if err := json.Unmarshal(raw, &shape); err != nil {
		return false
	}
	return shape.isModern() || shape.RollerBlindItems != nil
}

// Migrate decodes a stored document, upgrading the legacy shape and patching
// missing metadata. The result always ends with a blank row.
func (s *MigrationService) Migrate(raw []byte) (*domain.QuoteData, error) {
	var shape documentShape
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	var q *domain.QuoteData
	switch {
	case shape.isModern():
		q = &domain.QuoteData{}
		if err := json.Unmarshal(raw, q); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		if q.UIMetadata.LFModifiedRowIndexes == nil {
			s.logger.Warn("Patching quote document with missing uiMetadata")
			q.UIMetadata.LFModifiedRowIndexes = []int{}
		}
	case shape.RollerBlindItems != nil:
		var legacy legacyDocument
		if err := json.Unmarshal(raw, &legacy); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		s.logger.Warn("Migrating legacy quote document", zap.Int("items", len(legacy.RollerBlindItems)))
		q = s.fromLegacy(legacy)
	default:
		return nil, ErrInvalidDocument
	}

	s.ensureTrailingBlank(q)
	return q, nil
}

func (s *MigrationService) fromLegacy(legacy legacyDocument) *domain.QuoteData {
	summary := domain.NewSummary()
	if legacy.Summary != nil {
		summary = *legacy.Summary
	}
	customer := domain.Customer{}
	if legacy.Customer != nil {
		customer = *legacy.Customer
	}
	status := legacy.Status
	if status == "" {
		status = domain.QuoteStatusConfiguring
	}

	return &domain.QuoteData{
		CurrentProduct: domain.ProductRollerBlind,
		Products: map[domain.ProductKey]domain.ProductData{
			domain.ProductRollerBlind: {
				Items:   legacy.RollerBlindItems,
				Summary: summary,
			},
		},
		UIMetadata:             domain.UIMetadata{LFModifiedRowIndexes: []int{}},
		QuoteID:                legacy.QuoteID,
		IssueDate:              legacy.IssueDate,
		DueDate:                legacy.DueDate,
		Status:                 status,
		CostDiscountPercentage: legacy.CostDiscountPercentage,
		Customer:               customer,
	}
}

func (s *MigrationService) ensureTrailingBlank(q *domain.QuoteData) {
	pd, ok := q.CurrentProductData()
	if !ok {
		return
	}
	if n := len(pd.Items); n > 0 && !pd.Items[n-1].HasDimension() {
		return
	}
	items := append(pd.Items[:len(pd.Items):len(pd.Items)], s.blankItem(q.CurrentProduct))
	q.Products[q.CurrentProduct] = domain.ProductData{Items: items, Summary: pd.Summary}
}

func (s *MigrationService) blankItem(product domain.ProductKey) domain.Item {
	if st := s.strategies.Strategy(product); st != nil {
		return st.InitialItem()
	}
	return domain.NewBlankItem()
}

func (p documentShape) isModern() bool {
	if p.CurrentProduct == "" || p.Products == nil {
		return false
	}
	pd, ok := p.Products[p.CurrentProduct]
	return ok && pd.Items != nil
}
