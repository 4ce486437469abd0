package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/straye-as/blind-quote/internal/actions"
	"github.com/straye-as/blind-quote/internal/domain"
	"github.com/straye-as/blind-quote/internal/http/middleware"
	"github.com/straye-as/blind-quote/internal/service"
	"github.com/straye-as/blind-quote/internal/store"
)

// CalculationRecorder counts calculation runs that reported a pricing error
type CalculationRecorder interface {
	ObserveCalculationError()
}

// QuoteHandler exposes the state container and the workflow operations
type QuoteHandler struct {
	session  *service.Session
	recorder CalculationRecorder
	logger   *zap.Logger
}

// NewQuoteHandler creates a new QuoteHandler. recorder may be nil.
func NewQuoteHandler(session *service.Session, recorder CalculationRecorder, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{
		session:  session,
		recorder: recorder,
		logger:   logger,
	}
}

// DispatchResponse is returned by POST /actions
type DispatchResponse struct {
	Changed bool          `json:"changed"`
	State   *domain.State `json:"state"`
}

// CalculateResponse is returned by POST /calculate
type CalculateResponse struct {
	Success  bool                     `json:"success"`
	Error    *domain.CalculationError `json:"error,omitempty"`
	TotalSum *float64                 `json:"totalSum"`
}

// GetState godoc
// @Summary Get session state
// @Description Returns the whole state tree
// @Tags Quote
// @Produce json
// @Success 200 {object} domain.State
// @Router /state [get]
func (h *QuoteHandler) GetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// Dispatch godoc
// @Summary Dispatch action
// @Description Decodes a typed action envelope and dispatches it. Unknown types and malformed payloads are rejected before the reducer.
// @Tags Quote
// @Accept json
// @Produce json
// @Param action body actions.Envelope true "Typed action envelope"
// @Success 200 {object} DispatchResponse
// @Failure 400 {object} domain.APIError
// @Router /actions [post]
func (h *QuoteHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var env actions.Envelope
	if !decodeJSON(w, r, &env) {
		return
	}
	// Unknown types and malformed payloads stop here, before the reducer
	a, err := actions.Decode(env)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var resp DispatchResponse
	_ = h.session.Do(func(st *store.Store, _ *service.WorkflowService) error {
		resp.Changed = st.Dispatch(a)
		resp.State = st.GetState()
		return nil
	})
	middleware.LoggerFrom(r.Context(), h.logger).Debug("Action dispatched",
		zap.String("action", string(a.Type())),
		zap.Bool("changed", resp.Changed))
	respondJSON(w, http.StatusOK, resp)
}

// Calculate godoc
// @Summary Calculate quote
// @Description Prices every row and sums the quote. A pricing failure is reported in the body.
// @Tags Quote
// @Produce json
// @Success 200 {object} CalculateResponse
// @Router /calculate [post]
func (h *QuoteHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var resp CalculateResponse
	_ = h.session.Do(func(st *store.Store, wf *service.WorkflowService) error {
		resp.Error = wf.CalculateAndSum()
		pd, _ := st.GetState().QuoteData.CurrentProductData()
		resp.TotalSum = pd.Summary.TotalSum
		return nil
	})
	resp.Success = resp.Error == nil
	if !resp.Success && h.recorder != nil {
		h.recorder.ObserveCalculationError()
	}
	respondJSON(w, http.StatusOK, resp)
}

// ActivateF1 godoc
// @Summary Open F1 cost view
// @Description Refreshes prices and returns the F1 cost view
// @Tags Summary
// @Produce json
// @Success 200 {object} service.F1Report
// @Router /tabs/f1 [post]
func (h *QuoteHandler) ActivateF1(w http.ResponseWriter, r *http.Request) {
	var report service.F1Report
	_ = h.session.Do(func(_ *store.Store, wf *service.WorkflowService) error {
		report = wf.ActivateF1()
		return nil
	})
	respondJSON(w, http.StatusOK, report)
}

// ActivateF2 godoc
// @Summary Open F2 summary
// @Description Refreshes prices and accessories and returns the F2 summary
// @Tags Summary
// @Produce json
// @Success 200 {object} domain.F2Summary
// @Router /tabs/f2 [post]
func (h *QuoteHandler) ActivateF2(w http.ResponseWriter, r *http.Request) {
	var summary domain.F2Summary
	_ = h.session.Do(func(_ *store.Store, wf *service.WorkflowService) error {
		summary = wf.ActivateF2()
		return nil
	})
	respondJSON(w, http.StatusOK, summary)
}

// ============================================================================
// F1 / F2 inputs
// ============================================================================

type remoteDistributionRequest struct {
	Qty1  int `json:"qty1"`
	Qty16 int `json:"qty16"`
}

type dualDistributionRequest struct {
	Combo int `json:"combo"`
	Slim  int `json:"slim"`
}

type discountRequest struct {
	Percentage float64 `json:"percentage" validate:"gte=0,lte=100"`
}

type f2ValueRequest struct {
	Field domain.F2Field `json:"field" validate:"required"`
	Value *float64       `json:"value"`
}

// DistributeRemotes godoc
// @Summary Distribute remotes
// @Description Splits the remotes between 1 and 16 channel models
// @Tags Summary
// @Accept json
// @Produce json
// @Param request body remoteDistributionRequest true "Remote split"
// @Success 200 {object} service.F1Report
// @Failure 400 {object} domain.APIError
// @Router /f1/remotes [post]
func (h *QuoteHandler) DistributeRemotes(w http.ResponseWriter, r *http.Request) {
	var req remoteDistributionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respondReport(w, func(wf *service.WorkflowService) error {
		return wf.DistributeRemotes(req.Qty1, req.Qty16)
	})
}

// DistributeDuals godoc
// @Summary Distribute dual brackets
// @Description Splits the dual bracket pairs between combo and slim
// @Tags Summary
// @Accept json
// @Produce json
// @Param request body dualDistributionRequest true "Dual split"
// @Success 200 {object} service.F1Report
// @Failure 400 {object} domain.APIError
// @Router /f1/duals [post]
func (h *QuoteHandler) DistributeDuals(w http.ResponseWriter, r *http.Request) {
	var req dualDistributionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respondReport(w, func(wf *service.WorkflowService) error {
		return wf.DistributeDuals(req.Combo, req.Slim)
	})
}

// SetF1Discount godoc
// @Summary Set F1 discount
// @Tags Summary
// @Accept json
// @Produce json
// @Param request body discountRequest true "Discount percentage"
// @Success 200 {object} service.F1Report
// @Failure 400 {object} domain.APIError
// @Router /f1/discount [post]
func (h *QuoteHandler) SetF1Discount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respondReport(w, func(wf *service.WorkflowService) error {
		wf.SetF1Discount(req.Percentage)
		return nil
	})
}

// respondReport runs op and answers with the refreshed F1 report
func (h *QuoteHandler) respondReport(w http.ResponseWriter, op func(wf *service.WorkflowService) error) {
	var report service.F1Report
	err := h.session.Do(func(_ *store.Store, wf *service.WorkflowService) error {
		if err := op(wf); err != nil {
			return err
		}
		report = wf.F1Report()
		return nil
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// SetF2Value godoc
// @Summary Set F2 input
// @Description Stores one F2 input and returns the recomputed summary. Computed fields are rejected.
// @Tags Summary
// @Accept json
// @Produce json
// @Param request body f2ValueRequest true "F2 input field and value"
// @Success 200 {object} domain.F2Summary
// @Failure 400 {object} domain.APIError
// @Router /f2/values [post]
func (h *QuoteHandler) SetF2Value(w http.ResponseWriter, r *http.Request) {
	var req f2ValueRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respondF2(w, func(wf *service.WorkflowService) (domain.F2Summary, error) {
		return wf.SetF2Value(req.Field, req.Value)
	})
}

// ToggleFeeExclusion godoc
// @Summary Toggle fee exclusion
// @Tags Summary
// @Produce json
// @Param fee path string true "Fee type" Enums(delivery, install, removal)
// @Success 200 {object} domain.F2Summary
// @Failure 400 {object} domain.APIError
// @Router /f2/fees/{fee}/toggle [post]
func (h *QuoteHandler) ToggleFeeExclusion(w http.ResponseWriter, r *http.Request) {
	fee := domain.FeeType(chi.URLParam(r, "fee"))
	h.respondF2(w, func(wf *service.WorkflowService) (domain.F2Summary, error) {
		return wf.ToggleFeeExclusion(fee)
	})
}

func (h *QuoteHandler) respondF2(w http.ResponseWriter, op func(wf *service.WorkflowService) (domain.F2Summary, error)) {
	var summary domain.F2Summary
	err := h.session.Do(func(_ *store.Store, wf *service.WorkflowService) error {
		var err error
		summary, err = op(wf)
		return err
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// ============================================================================
// Drive accessories, dual and chain
// ============================================================================

type modeRequest struct {
	Mode string `json:"mode" validate:"required"`
}

type driveToggleRequest struct {
	RowIndex  int    `json:"rowIndex" validate:"gte=0"`
	Column    string `json:"column" validate:"required,oneof=winder motor"`
	Confirmed bool   `json:"confirmed"`
}

type driveCountRequest struct {
	Kind      domain.AccessoryKind `json:"kind" validate:"required"`
	Delta     int                  `json:"delta"`
	Confirmed bool                 `json:"confirmed"`
}

type cellRequest struct {
	RowIndex int    `json:"rowIndex" validate:"gte=0"`
	Column   string `json:"column" validate:"required"`
}

type chainRequest struct {
	Value string `json:"value"`
}

// ChangeDriveMode godoc
// @Summary Change drive accessory mode
// @Tags Accessories
// @Accept json
// @Produce json
// @Param request body modeRequest true "Mode"
// @Success 200 {object} domain.State
// @Router /drive/mode [post]
func (h *QuoteHandler) ChangeDriveMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respondState(w, func(wf *service.WorkflowService) error {
		wf.ActivateDriveAccessories()
		wf.ChangeDriveAccessoryMode(req.Mode)
		return nil
	})
}

// ToggleDriveAccessory godoc
// @Summary Toggle row drive accessory
// @Description Toggles a row's winder or motor. Replacing the other accessory needs confirmed.
// @Tags Accessories
// @Accept json
// @Produce json
// @Param request body driveToggleRequest true "Row and column"
// @Success 200 {object} domain.State
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Router /drive/toggle [post]
func (h *QuoteHandler) ToggleDriveAccessory(w http.ResponseWriter, r *http.Request) {
	var req driveToggleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respondState(w, func(wf *service.WorkflowService) error {
		return wf.ToggleDriveAccessory(req.RowIndex, req.Column, req.Confirmed)
	})
}

// ChangeDriveCount godoc
// @Summary Change drive accessory count
// @Tags Accessories
// @Accept json
// @Produce json
// @Param request body driveCountRequest true "Accessory and delta"
// @Success 200 {object} domain.State
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Router /drive/count [post]
func (h *QuoteHandler) ChangeDriveCount(w http.ResponseWriter, r *http.Request) {
	var req driveCountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respondState(w, func(wf *service.WorkflowService) error {
		return wf.ChangeDriveAccessoryCount(req.Kind, req.Delta, req.Confirmed)
	})
}

// ChangeDualChainMode godoc
// @Summary Change dual or chain mode
// @Tags Accessories
// @Accept json
// @Produce json
// @Param request body modeRequest true "Mode" Enums(dual, chain)
// @Success 200 {object} domain.State
// @Failure 400 {object} domain.APIError
// @Router /dual-chain/mode [post]
func (h *QuoteHandler) ChangeDualChainMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respondState(w, func(wf *service.WorkflowService) error {
		return wf.ChangeDualChainMode(req.Mode)
	})
}

// SelectDualChainCell godoc
// @Summary Select dual or chain cell
// @Tags Accessories
// @Accept json
// @Produce json
// @Param request body cellRequest true "Cell"
// @Success 200 {object} domain.State
// @Failure 400 {object} domain.APIError
// @Router /dual-chain/select [post]
func (h *QuoteHandler) SelectDualChainCell(w http.ResponseWriter, r *http.Request) {
	var req cellRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respondState(w, func(wf *service.WorkflowService) error {
		wf.SelectDualChainCell(req.RowIndex, req.Column)
		return nil
	})
}

// CommitChain godoc
// @Summary Commit chain length
// @Description Writes the chain length typed for the target cell
// @Tags Accessories
// @Accept json
// @Produce json
// @Param request body chainRequest true "Chain length"
// @Success 200 {object} domain.State
// @Failure 400 {object} domain.APIError
// @Router /dual-chain/chain [post]
func (h *QuoteHandler) CommitChain(w http.ResponseWriter, r *http.Request) {
	var req chainRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respondState(w, func(wf *service.WorkflowService) error {
		return wf.CommitChain(req.Value)
	})
}

// ToggleView godoc
// @Summary Toggle detail view
// @Tags Quote
// @Produce json
// @Success 200 {object} domain.State
// @Router /view/toggle [post]
func (h *QuoteHandler) ToggleView(w http.ResponseWriter, r *http.Request) {
	h.respondState(w, func(wf *service.WorkflowService) error {
		wf.ToggleDetailView()
		return nil
	})
}

// Print godoc
// @Summary Build printable quote
// @Description Builds the customer-facing quote from state and the form overrides
// @Tags Quote
// @Accept json
// @Produce json
// @Param request body service.PrintOverrides true "Form overrides"
// @Success 200 {object} service.PrintableQuote
// @Failure 400 {object} domain.APIError
// @Router /print [post]
func (h *QuoteHandler) Print(w http.ResponseWriter, r *http.Request) {
	var req service.PrintOverrides
	if !decodeJSON(w, r, &req) {
		return
	}
	var quote *service.PrintableQuote
	_ = h.session.Do(func(_ *store.Store, wf *service.WorkflowService) error {
		quote = wf.PrintableQuote(req)
		return nil
	})
	respondJSON(w, http.StatusOK, quote)
}

// respondState runs op and answers with the resulting state
func (h *QuoteHandler) respondState(w http.ResponseWriter, op func(wf *service.WorkflowService) error) {
	var state *domain.State
	err := h.session.Do(func(st *store.Store, wf *service.WorkflowService) error {
		if err := op(wf); err != nil {
			return err
		}
		state = st.GetState()
		return nil
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}
