package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/straye-as/blind-quote/internal/actions"
	"github.com/straye-as/blind-quote/internal/domain"
	"github.com/straye-as/blind-quote/internal/service"
)

// ============================================================================
// Calculation
// ============================================================================

func TestWorkflowService_CalculateAndSum(t *testing.T) {
	h := newHarness(t)
	h.load(row(900, 900, "B1"), row(1500, 1500, "B1"), domain.NewBlankItem())
	h.store.Dispatch(actions.SetSumOutdated{Outdated: true})

	require.Nil(t, h.workflow.CalculateAndSum())

	state := h.store.GetState()
	pd, _ := state.QuoteData.CurrentProductData()
	assert.Equal(t, 350.0, *pd.Summary.TotalSum)
	assert.False(t, state.UI.IsSumOutdated)
}

func TestWorkflowService_CalculateAndSum_FocusesFailingCell(t *testing.T) {
	h := newHarness(t)
	h.load(row(900, 900, "B1"), row(900, 2500, "B1"), domain.NewBlankItem())

	calcErr := h.workflow.CalculateAndSum()

	require.NotNil(t, calcErr)
	ui := h.store.GetState().UI
	assert.True(t, ui.IsSumOutdated)
	assert.Equal(t, domain.Cell{RowIndex: 1, Column: string(domain.ColumnHeight)}, ui.ActiveCell)
	assert.Equal(t, 100.0, *h.items()[0].LinePrice)
}

func TestWorkflowService_CalculateAndSum_UnchangedQuoteIsQuiet(t *testing.T) {
	h := newHarness(t)
	h.load(row(900, 900, "B1"), domain.NewBlankItem())
	require.Nil(t, h.workflow.CalculateAndSum())
	before := h.store.GetState()

	notified := 0
	h.store.Subscribe(func(*domain.State) { notified++ })

	require.Nil(t, h.workflow.CalculateAndSum())

	assert.Zero(t, notified)
	assert.Same(t, before, h.store.GetState())
	assert.Same(t, before.QuoteData, h.store.GetState().QuoteData)
}

func TestWorkflowService_ActivateF2(t *testing.T) {
	h := newHarness(t)
	motor := row(900, 900, "B1")
	motor.Motor = domain.MotorDefault
	h.load(motor, withDual(row(900, 900, "B1")), withDual(row(900, 900, "B1")), domain.NewBlankItem())
	h.store.Dispatch(actions.SetDriveAccessoryCount{Accessory: domain.AccessoryRemote, Count: 1})
	_, err := h.workflow.SetF2Value(domain.F2MulTimes, domain.Float(2))
	require.NoError(t, err)

	summary := h.workflow.ActivateF2()

	state := h.store.GetState()
	pd, _ := state.QuoteData.CurrentProductData()
	acc := pd.Summary.Accessories
	assert.Equal(t, domain.AccessoryLine{Count: 1, Price: 250}, acc.Motor)
	assert.Equal(t, domain.AccessoryLine{Type: "standard", Count: 1, Price: 100}, acc.Remote)
	assert.Equal(t, 180.0, *acc.MotorCostSum)
	assert.Equal(t, 60.0, *acc.RemoteCostSum)
	assert.Equal(t, 25.0, *acc.DualCostSum)
	assert.Equal(t, 40.0, *state.UI.DualPrice)
	assert.Equal(t, 350.0, *state.UI.DriveGrandTotal)

	// line prices are summed before the accessory lines are refreshed
	assert.Equal(t, 300.0, *pd.Summary.TotalSum)
	assert.Equal(t, 600.0, summary.FirstRbPrice)
	assert.Equal(t, summary.SumPrice, *state.UI.F2.SumPrice)
}

func TestWorkflowService_SetF2Value_RejectsDerivedFields(t *testing.T) {
	h := newHarness(t)

	_, err := h.workflow.SetF2Value(domain.F2GST, domain.Float(1))
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = h.workflow.ToggleFeeExclusion("wifi")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = h.workflow.ToggleFeeExclusion(domain.FeeInstall)
	require.NoError(t, err)
	assert.True(t, h.store.GetState().UI.F2.InstallFeeExcluded)
}

// ============================================================================
// F1 distribution
// ============================================================================

func TestWorkflowService_DistributeRemotes(t *testing.T) {
	h := newHarness(t)
	h.store.Dispatch(actions.SetDriveAccessoryCount{Accessory: domain.AccessoryRemote, Count: 3})

	tests := []struct {
		name    string
		qty1    int
		qty16   int
		wantErr error
	}{
		{"does not add up", 1, 1, service.ErrDistributionMismatch},
		{"negative", -1, 4, service.ErrInvalidQuantity},
		{"valid", 1, 2, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.workflow.DistributeRemotes(tt.qty1, tt.qty16)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			f1 := h.store.GetState().UI.F1
			assert.Equal(t, 1, *f1.Remote1chQty)
			assert.Equal(t, 2, *f1.Remote16chQty)
		})
	}
}

func TestWorkflowService_DistributeRemotes_Message(t *testing.T) {
	h := newHarness(t)
	h.store.Dispatch(actions.SetDriveAccessoryCount{Accessory: domain.AccessoryRemote, Count: 3})

	err := h.workflow.DistributeRemotes(1, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Total must equal 3. Current total: 2.")
}

func TestWorkflowService_DistributeDuals(t *testing.T) {
	h := newHarness(t)
	h.load(withDual(row(900, 900, "B1")), withDual(row(900, 900, "B1")), withDual(row(900, 900, "B1")),
		withDual(row(900, 900, "B1")), domain.NewBlankItem())

	assert.ErrorIs(t, h.workflow.DistributeDuals(2, 1), service.ErrDistributionMismatch)
	require.NoError(t, h.workflow.DistributeDuals(1, 1))

	report := h.workflow.F1Report()
	assert.Equal(t, 25.0, report.ComponentPrices[service.F1DualCombo])
	assert.Equal(t, 30.0, report.ComponentPrices[service.F1DualSlim])
}

// ============================================================================
// Drive accessories
// ============================================================================

func TestWorkflowService_ToggleDriveAccessory(t *testing.T) {
	h := newHarness(t)
	winder := row(900, 900, "B1")
	winder.Winder = domain.WinderHeavyDuty
	h.load(winder, row(900, 900, "B1"), domain.NewBlankItem())

	// outside motor mode the click is ignored
	require.NoError(t, h.workflow.ToggleDriveAccessory(0, service.ModeMotor, false))
	assert.Empty(t, h.items()[0].Motor)

	h.workflow.ChangeDriveAccessoryMode(service.ModeMotor)

	err := h.workflow.ToggleDriveAccessory(0, service.ModeMotor, false)
	assert.ErrorIs(t, err, service.ErrConfirmationRequired)
	assert.Equal(t, domain.WinderHeavyDuty, h.items()[0].Winder)

	require.NoError(t, h.workflow.ToggleDriveAccessory(0, service.ModeMotor, true))
	assert.Equal(t, domain.MotorDefault, h.items()[0].Motor)
	assert.Empty(t, h.items()[0].Winder)

	// toggling again removes the motor
	require.NoError(t, h.workflow.ToggleDriveAccessory(0, service.ModeMotor, false))
	assert.Empty(t, h.items()[0].Motor)
}

func TestWorkflowService_ChangeDriveAccessoryMode(t *testing.T) {
	h := newHarness(t)
	motor := row(900, 900, "B1")
	motor.Motor = domain.MotorDefault
	h.load(motor, domain.NewBlankItem())

	h.workflow.ChangeDriveAccessoryMode(service.ModeRemote)
	ui := h.store.GetState().UI
	assert.Equal(t, service.ModeRemote, ui.DriveAccessoryMode)
	assert.Equal(t, 1, ui.DriveRemoteCount)

	// leaving the mode prices the accessories
	h.workflow.ChangeDriveAccessoryMode(service.ModeRemote)
	ui = h.store.GetState().UI
	assert.Empty(t, ui.DriveAccessoryMode)
	assert.Equal(t, 100.0, *ui.DriveRemoteTotalPrice)
	assert.Equal(t, 250.0, *ui.DriveMotorTotalPrice)
}

func TestWorkflowService_ChangeDriveAccessoryCount(t *testing.T) {
	h := newHarness(t)
	motor := row(900, 900, "B1")
	motor.Motor = domain.MotorDefault
	h.load(motor, domain.NewBlankItem())
	h.store.Dispatch(actions.SetDriveAccessoryCount{Accessory: domain.AccessoryRemote, Count: 1})

	err := h.workflow.ChangeDriveAccessoryCount(domain.AccessoryRemote, -1, false)
	assert.ErrorIs(t, err, service.ErrConfirmationRequired)
	assert.Equal(t, 1, h.store.GetState().UI.DriveRemoteCount)

	require.NoError(t, h.workflow.ChangeDriveAccessoryCount(domain.AccessoryRemote, -5, true))
	assert.Equal(t, 0, h.store.GetState().UI.DriveRemoteCount)

	require.NoError(t, h.workflow.ChangeDriveAccessoryCount(domain.AccessoryCord, 2, false))
	assert.Equal(t, 2, h.store.GetState().UI.DriveCordCount)

	assert.ErrorIs(t, h.workflow.ChangeDriveAccessoryCount(domain.AccessoryWinder, 1, false), service.ErrInvalidInput)
}

// ============================================================================
// Dual / chain
// ============================================================================

func TestValidateDualSelection(t *testing.T) {
	d := withDual(row(900, 900, "B1"))
	n := row(900, 900, "B1")

	tests := []struct {
		name    string
		items   []domain.Item
		wantErr error
	}{
		{"none", []domain.Item{n, n}, nil},
		{"adjacent pair", []domain.Item{n, d, d, n}, nil},
		{"two pairs", []domain.Item{d, d, n, d, d}, nil},
		{"odd", []domain.Item{d, d, d}, service.ErrDualOddCount},
		{"apart", []domain.Item{d, n, d}, service.ErrDualNotAdjacent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, service.ValidateDualSelection(tt.items))
		})
	}
}

func TestWorkflowService_DualMode(t *testing.T) {
	h := newHarness(t)
	h.load(row(900, 900, "B1"), row(900, 900, "B1"), row(900, 900, "B1"), domain.NewBlankItem())

	require.NoError(t, h.workflow.ChangeDualChainMode(service.ModeDual))
	h.workflow.SelectDualChainCell(0, string(domain.PropertyDual))
	// the trailing blank row cannot be flagged
	h.workflow.SelectDualChainCell(3, string(domain.PropertyDual))

	err := h.workflow.ChangeDualChainMode(service.ModeDual)
	assert.ErrorIs(t, err, service.ErrDualOddCount)
	assert.Equal(t, service.ModeDual, h.store.GetState().UI.DualChainMode)

	h.workflow.SelectDualChainCell(1, string(domain.PropertyDual))
	assert.Equal(t, 40.0, *h.store.GetState().UI.DualPrice)

	require.NoError(t, h.workflow.ChangeDualChainMode(service.ModeDual))
	assert.Empty(t, h.store.GetState().UI.DualChainMode)
}

func TestWorkflowService_CommitChain(t *testing.T) {
	h := newHarness(t)
	h.load(row(900, 900, "B1"), domain.NewBlankItem())

	assert.ErrorIs(t, h.workflow.CommitChain("3"), service.ErrNoTarget)

	require.NoError(t, h.workflow.ChangeDualChainMode(service.ModeChain))
	h.workflow.SelectDualChainCell(0, service.ModeChain)
	require.NotNil(t, h.store.GetState().UI.TargetCell)

	for _, bad := range []string{"abc", "0", "-2", "1.5"} {
		assert.ErrorIs(t, h.workflow.CommitChain(bad), service.ErrInvalidChain, bad)
	}

	require.NoError(t, h.workflow.CommitChain(" 3 "))
	assert.Equal(t, 3, *h.items()[0].Chain)
	assert.Nil(t, h.store.GetState().UI.TargetCell)
}

// ============================================================================
// Navigation & files
// ============================================================================

func TestWorkflowService_ToggleDetailView(t *testing.T) {
	h := newHarness(t)

	h.workflow.ToggleDetailView()
	ui := h.store.GetState().UI
	assert.Equal(t, domain.ViewDetailConfig, ui.CurrentView)
	assert.Equal(t, service.TabDetailDefault, ui.ActiveTabID)

	h.workflow.ActivateDriveAccessories()
	h.workflow.ToggleDetailView()
	ui = h.store.GetState().UI
	assert.Equal(t, domain.ViewQuickQuote, ui.CurrentView)
	assert.Equal(t, domain.DefaultVisibleColumns(), ui.VisibleColumns)
}

func TestWorkflowService_LoadFile(t *testing.T) {
	h := newHarness(t)
	h.store.Dispatch(actions.SetCurrentView{View: domain.ViewDetailConfig})

	csv := "#,Width,Height,Type\n1,1200,1400,B1\n2,900,800,B2\n"
	result := h.workflow.LoadFile("quote.csv", []byte(csv))

	require.True(t, result.Success)
	state := h.store.GetState()
	assert.Len(t, state.QuoteData.CurrentItems(), 3)
	assert.True(t, state.UI.IsSumOutdated)
	assert.Equal(t, domain.ViewQuickQuote, state.UI.CurrentView)
	assert.True(t, h.workflow.HasData())
}

func TestWorkflowService_LoadFile_FailureKeepsState(t *testing.T) {
	h := newHarness(t)
	h.load(row(900, 900, "B1"), domain.NewBlankItem())
	before := h.store.GetState()

	result := h.workflow.LoadFile("quote.json", []byte(`{"hello":"world"}`))

	assert.False(t, result.Success)
	assert.Equal(t, "Error loading file: File content is not in a valid quote format.", result.Message)
	assert.Same(t, before, h.store.GetState())
}
