package domain

// View identifiers
const (
	ViewQuickQuote   = "QUICK_QUOTE"
	ViewDetailConfig = "DETAIL_CONFIG"
)

// defaultVisibleColumns are the columns shown by the quick-quote view
var defaultVisibleColumns = []string{"sequence", "width", "height", "TYPE", "Price"}

// DefaultVisibleColumns returns a fresh copy of the quick-quote column set
func DefaultVisibleColumns() []string {
	return append([]string(nil), defaultVisibleColumns...)
}

// Cell addresses one table cell
type Cell struct {
	RowIndex int    `json:"rowIndex"`
	Column   string `json:"column"`
}

// F1State holds the inputs of the F1 cost breakdown view.
// Nil quantities mean "derive from the quote".
type F1State struct {
	DiscountPercentage float64 `json:"discountPercentage"`
	Remote1chQty       *int    `json:"remote_1ch_qty"`
	Remote16chQty      *int    `json:"remote_16ch_qty"`
	DualComboQty       *int    `json:"dual_combo_qty"`
	DualSlimQty        *int    `json:"dual_slim_qty"`
}

// F2State holds the inputs and the last computed figures of the F2 summary view
type F2State struct {
	WifiQty     *float64 `json:"wifiQty"`
	DeliveryQty *float64 `json:"deliveryQty"`
	InstallQty  *float64 `json:"installQty"`
	RemovalQty  *float64 `json:"removalQty"`
	MulTimes    *float64 `json:"mulTimes"`
	Discount    *float64 `json:"discount"`

	DeliveryFeeExcluded bool `json:"deliveryFeeExcluded"`
	InstallFeeExcluded  bool `json:"installFeeExcluded"`
	RemovalFeeExcluded  bool `json:"removalFeeExcluded"`

	WifiSum           *float64 `json:"wifiSum"`
	DeliveryFee       *float64 `json:"deliveryFee"`
	InstallFee        *float64 `json:"installFee"`
	RemovalFee        *float64 `json:"removalFee"`
	AcceSum           *float64 `json:"acceSum"`
	EAcceSum          *float64 `json:"eAcceSum"`
	SurchargeFee      *float64 `json:"surchargeFee"`
	TotalSumForRbTime *float64 `json:"totalSumForRbTime"`
	FirstRbPrice      *float64 `json:"firstRbPrice"`
	DisRbPrice        *float64 `json:"disRbPrice"`
	SingleProfit      *float64 `json:"singleprofit"`
	RbProfit          *float64 `json:"rbProfit"`
	SumPrice          *float64 `json:"sumPrice"`
	SumProfit         *float64 `json:"sumProfit"`
	GST               *float64 `json:"gst"`
	NetProfit         *float64 `json:"netProfit"`
}

// F2Field names a numeric field of F2State
type F2Field string

const (
	F2WifiQty           F2Field = "wifiQty"
	F2DeliveryQty       F2Field = "deliveryQty"
	F2InstallQty        F2Field = "installQty"
	F2RemovalQty        F2Field = "removalQty"
	F2MulTimes          F2Field = "mulTimes"
	F2Discount          F2Field = "discount"
	F2WifiSum           F2Field = "wifiSum"
	F2DeliveryFee       F2Field = "deliveryFee"
	F2InstallFee        F2Field = "installFee"
	F2RemovalFee        F2Field = "removalFee"
	F2AcceSum           F2Field = "acceSum"
	F2EAcceSum          F2Field = "eAcceSum"
	F2SurchargeFee      F2Field = "surchargeFee"
	F2TotalSumForRbTime F2Field = "totalSumForRbTime"
	F2FirstRbPrice      F2Field = "firstRbPrice"
	F2DisRbPrice        F2Field = "disRbPrice"
	F2SingleProfit      F2Field = "singleprofit"
	F2RbProfit          F2Field = "rbProfit"
	F2SumPrice          F2Field = "sumPrice"
	F2SumProfit         F2Field = "sumProfit"
	F2GST               F2Field = "gst"
	F2NetProfit         F2Field = "netProfit"
)

// Ref returns the address of the field named by f, or nil for unknown names
func (s *F2State) Ref(f F2Field) **float64 {
	switch f {
	case F2WifiQty:
		return &s.WifiQty
	case F2DeliveryQty:
		return &s.DeliveryQty
	case F2InstallQty:
		return &s.InstallQty
	case F2RemovalQty:
		return &s.RemovalQty
	case F2MulTimes:
		return &s.MulTimes
	case F2Discount:
		return &s.Discount
	case F2WifiSum:
		return &s.WifiSum
	case F2DeliveryFee:
		return &s.DeliveryFee
	case F2InstallFee:
		return &s.InstallFee
	case F2RemovalFee:
		return &s.RemovalFee
	case F2AcceSum:
		return &s.AcceSum
	case F2EAcceSum:
		return &s.EAcceSum
	case F2SurchargeFee:
		return &s.SurchargeFee
	case F2TotalSumForRbTime:
		return &s.TotalSumForRbTime
	case F2FirstRbPrice:
		return &s.FirstRbPrice
	case F2DisRbPrice:
		return &s.DisRbPrice
	case F2SingleProfit:
		return &s.SingleProfit
	case F2RbProfit:
		return &s.RbProfit
	case F2SumPrice:
		return &s.SumPrice
	case F2SumProfit:
		return &s.SumProfit
	case F2GST:
		return &s.GST
	case F2NetProfit:
		return &s.NetProfit
	}
	return nil
}

// Valid reports whether f names a field of F2State
func (f F2Field) Valid() bool {
	var s F2State
	return s.Ref(f) != nil
}

// IsInput reports whether f is a field the user types into. The other fields
// are written only by the F2 recalculation.
func (f F2Field) IsInput() bool {
	switch f {
	case F2WifiQty, F2DeliveryQty, F2InstallQty, F2RemovalQty, F2MulTimes, F2Discount:
		return true
	}
	return false
}

// FeeType names an excludable F2 fee
type FeeType string

const (
	FeeDelivery FeeType = "delivery"
	FeeInstall  FeeType = "install"
	FeeRemoval  FeeType = "removal"
)

// ExclusionRef returns the exclusion flag of a fee, or nil for unknown fees
func (s *F2State) ExclusionRef(fee FeeType) *bool {
	switch fee {
	case FeeDelivery:
		return &s.DeliveryFeeExcluded
	case FeeInstall:
		return &s.InstallFeeExcluded
	case FeeRemoval:
		return &s.RemovalFeeExcluded
	}
	return nil
}

// Valid reports whether fee is an excludable fee
func (fee FeeType) Valid() bool {
	var s F2State
	return s.ExclusionRef(fee) != nil
}

// F2Summary is the result of one F2 recalculation
type F2Summary struct {
	TotalSumForRbTime float64 `json:"totalSumForRbTime"`
	WifiSum           float64 `json:"wifiSum"`
	DeliveryFee       float64 `json:"deliveryFee"`
	InstallFee        float64 `json:"installFee"`
	RemovalFee        float64 `json:"removalFee"`
	AcceSum           float64 `json:"acceSum"`
	EAcceSum          float64 `json:"eAcceSum"`
	SurchargeFee      float64 `json:"surchargeFee"`
	FirstRbPrice      float64 `json:"firstRbPrice"`
	DisRbPrice        float64 `json:"disRbPrice"`
	SumPrice          float64 `json:"sumPrice"`
	RbProfit          float64 `json:"rbProfit"`
	SingleProfit      float64 `json:"singleprofit"`
	SumProfit         float64 `json:"sumProfit"`
	GST               float64 `json:"gst"`
	NetProfit         float64 `json:"netProfit"`

	F1 F1Breakdown `json:"f1"`
}

// F1Breakdown is the cost baseline re-derived during an F2 recalculation
type F1Breakdown struct {
	ComponentTotal float64 `json:"componentTotal"`
	RbPrice        float64 `json:"rbPrice"`
	SubTotal       float64 `json:"subTotal"`
	GST            float64 `json:"gst"`
	FinalTotal     float64 `json:"finalTotal"`
}

// SummaryPriceField names one of the accessory price mirrors shown in the summary panel
type SummaryPriceField string

const (
	SummaryWinderPrice      SummaryPriceField = "winder"
	SummaryMotorPrice       SummaryPriceField = "motor"
	SummaryRemotePrice      SummaryPriceField = "remote"
	SummaryChargerPrice     SummaryPriceField = "charger"
	SummaryCordPrice        SummaryPriceField = "cord"
	SummaryAccessoriesTotal SummaryPriceField = "accessoriesTotal"
)

// UIState is the transient interaction state
type UIState struct {
	CurrentView    string   `json:"currentView"`
	VisibleColumns []string `json:"visibleColumns"`
	ActiveTabID    string   `json:"activeTabId"`

	InputValue       string `json:"inputValue"`
	InputMode        string `json:"inputMode"`
	ActiveCell       Cell   `json:"activeCell"`
	SelectedRowIndex *int   `json:"selectedRowIndex"`

	IsMultiSelectMode          bool  `json:"isMultiSelectMode"`
	MultiSelectSelectedIndexes []int `json:"multiSelectSelectedIndexes"`

	ActiveEditMode       string `json:"activeEditMode"`
	TargetCell           *Cell  `json:"targetCell"`
	LocationInputValue   string `json:"locationInputValue"`
	LFSelectedRowIndexes []int  `json:"lfSelectedRowIndexes"`

	DualChainMode       string   `json:"dualChainMode"`
	DualChainInputValue string   `json:"dualChainInputValue"`
	DualPrice           *float64 `json:"dualPrice"`

	DriveAccessoryMode     string   `json:"driveAccessoryMode"`
	DriveRemoteCount       int      `json:"driveRemoteCount"`
	DriveChargerCount      int      `json:"driveChargerCount"`
	DriveCordCount         int      `json:"driveCordCount"`
	DriveWinderTotalPrice  *float64 `json:"driveWinderTotalPrice"`
	DriveMotorTotalPrice   *float64 `json:"driveMotorTotalPrice"`
	DriveRemoteTotalPrice  *float64 `json:"driveRemoteTotalPrice"`
	DriveChargerTotalPrice *float64 `json:"driveChargerTotalPrice"`
	DriveCordTotalPrice    *float64 `json:"driveCordTotalPrice"`
	DriveGrandTotal        *float64 `json:"driveGrandTotal"`

	SummaryWinderPrice      *float64 `json:"summaryWinderPrice"`
	SummaryMotorPrice       *float64 `json:"summaryMotorPrice"`
	SummaryRemotePrice      *float64 `json:"summaryRemotePrice"`
	SummaryChargerPrice     *float64 `json:"summaryChargerPrice"`
	SummaryCordPrice        *float64 `json:"summaryCordPrice"`
	SummaryAccessoriesTotal *float64 `json:"summaryAccessoriesTotal"`

	F1 F1State `json:"f1"`
	F2 F2State `json:"f2"`

	IsSumOutdated      bool `json:"isSumOutdated"`
	WelcomeDialogShown bool `json:"welcomeDialogShown"`
}

// NewUIState returns a fresh UI state with every field at its documented default
func NewUIState() *UIState {
	return &UIState{
		CurrentView:                ViewQuickQuote,
		VisibleColumns:             DefaultVisibleColumns(),
		ActiveTabID:                "k1-tab",
		InputMode:                  string(ColumnWidth),
		ActiveCell:                 Cell{RowIndex: 0, Column: string(ColumnWidth)},
		MultiSelectSelectedIndexes: []int{},
		LFSelectedRowIndexes:       []int{},
		F1:                         F1State{Remote1chQty: Int(0)},
	}
}

// DriveCountRef returns the counter of a driven accessory, or nil when the
// accessory has no UI counter
func (s *UIState) DriveCountRef(kind AccessoryKind) *int {
	switch kind {
	case AccessoryRemote:
		return &s.DriveRemoteCount
	case AccessoryCharger:
		return &s.DriveChargerCount
	case AccessoryCord:
		return &s.DriveCordCount
	}
	return nil
}

// DriveTotalRef returns the total-price mirror of a driven accessory
func (s *UIState) DriveTotalRef(kind AccessoryKind) **float64 {
	switch kind {
	case AccessoryWinder:
		return &s.DriveWinderTotalPrice
	case AccessoryMotor:
		return &s.DriveMotorTotalPrice
	case AccessoryRemote:
		return &s.DriveRemoteTotalPrice
	case AccessoryCharger:
		return &s.DriveChargerTotalPrice
	case AccessoryCord:
		return &s.DriveCordTotalPrice
	}
	return nil
}

// SummaryPriceRef returns the summary mirror named by f
func (s *UIState) SummaryPriceRef(f SummaryPriceField) **float64 {
	switch f {
	case SummaryWinderPrice:
		return &s.SummaryWinderPrice
	case SummaryMotorPrice:
		return &s.SummaryMotorPrice
	case SummaryRemotePrice:
		return &s.SummaryRemotePrice
	case SummaryChargerPrice:
		return &s.SummaryChargerPrice
	case SummaryCordPrice:
		return &s.SummaryCordPrice
	case SummaryAccessoriesTotal:
		return &s.SummaryAccessoriesTotal
	}
	return nil
}

// State is the root of the state tree
type State struct {
	UI        *UIState   `json:"ui"`
	QuoteData *QuoteData `json:"quoteData"`
}

// NewState returns the initial state of a session
func NewState(blank Item) *State {
	return &State{
		UI:        NewUIState(),
		QuoteData: NewQuoteData(blank),
	}
}
