package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// ProductKey identifies a product type in the quote
type ProductKey string

const (
	ProductRollerBlind ProductKey = "rollerBlind"
)

// QuoteStatus values used by the quote metadata
const (
	QuoteStatusConfiguring = "Configuring"
)

// Item property values with business meaning
const (
	WinderHeavyDuty = "HD"
	MotorDefault    = "Motor"
	DualBracket     = "D"
)

// Item represents one priced line of the quote (one blind)
type Item struct {
	ItemID     string   `json:"itemId"`
	Width      *int     `json:"width"`
	Height     *int     `json:"height"`
	FabricType string   `json:"fabricType"`
	LinePrice  *float64 `json:"linePrice"`
	Location   string   `json:"location"`
	Fabric     string   `json:"fabric"`
	Color      string   `json:"color"`
	Over       string   `json:"over"`
	OI         string   `json:"oi"`
	LR         string   `json:"lr"`
	Dual       string   `json:"dual"`
	Chain      *int     `json:"chain"`
	Winder     string   `json:"winder"`
	Motor      string   `json:"motor"`
}

// NewBlankItem returns an item with a fresh identity and every optional field empty
func NewBlankItem() Item {
	return Item{ItemID: uuid.NewString()}
}

// HasWidth reports whether a non-zero width has been entered
func (it Item) HasWidth() bool {
	return it.Width != nil && *it.Width != 0
}

// HasHeight reports whether a non-zero height has been entered
func (it Item) HasHeight() bool {
	return it.Height != nil && *it.Height != 0
}

// HasDimension reports whether width or height has been entered
func (it Item) HasDimension() bool {
	return it.HasWidth() || it.HasHeight()
}

// IsComplete reports whether the item carries everything needed for pricing
func (it Item) IsComplete() bool {
	return it.HasWidth() && it.HasHeight() && it.FabricType != ""
}

// IsBlank reports whether the item is an empty "append here" row
func (it Item) IsBlank() bool {
	return !it.HasWidth() && !it.HasHeight() && it.FabricType == ""
}

// IsPriced reports whether the item has a positive line price
func (it Item) IsPriced() bool {
	return it.LinePrice != nil && *it.LinePrice > 0
}

// Equal compares two items by value
func (it Item) Equal(o Item) bool {
	return it.ItemID == o.ItemID &&
		EqualInt(it.Width, o.Width) && EqualInt(it.Height, o.Height) &&
		it.FabricType == o.FabricType && EqualFloat(it.LinePrice, o.LinePrice) &&
		it.Location == o.Location && it.Fabric == o.Fabric && it.Color == o.Color &&
		it.Over == o.Over && it.OI == o.OI && it.LR == o.LR && it.Dual == o.Dual &&
		EqualInt(it.Chain, o.Chain) && it.Winder == o.Winder && it.Motor == o.Motor
}

// ItemProperty names a text property of an item
type ItemProperty string

const (
	PropertyLocation ItemProperty = "location"
	PropertyFabric   ItemProperty = "fabric"
	PropertyColor    ItemProperty = "color"
	PropertyOver     ItemProperty = "over"
	PropertyOI       ItemProperty = "oi"
	PropertyLR       ItemProperty = "lr"
	PropertyDual     ItemProperty = "dual"
	PropertyWinder   ItemProperty = "winder"
	PropertyMotor    ItemProperty = "motor"
)

// Valid reports whether p is a known text property
func (p ItemProperty) Valid() bool {
	switch p {
	case PropertyLocation, PropertyFabric, PropertyColor, PropertyOver, PropertyOI,
		PropertyLR, PropertyDual, PropertyWinder, PropertyMotor:
		return true
	}
	return false
}

// Property returns the value of a text property
func (it Item) Property(p ItemProperty) (string, bool) {
	switch p {
	case PropertyLocation:
		return it.Location, true
	case PropertyFabric:
		return it.Fabric, true
	case PropertyColor:
		return it.Color, true
	case PropertyOver:
		return it.Over, true
	case PropertyOI:
		return it.OI, true
	case PropertyLR:
		return it.LR, true
	case PropertyDual:
		return it.Dual, true
	case PropertyWinder:
		return it.Winder, true
	case PropertyMotor:
		return it.Motor, true
	}
	return "", false
}

// SetProperty writes a text property. It returns false for unknown properties.
func (it *Item) SetProperty(p ItemProperty, value string) bool {
	switch p {
	case PropertyLocation:
		it.Location = value
	case PropertyFabric:
		it.Fabric = value
	case PropertyColor:
		it.Color = value
	case PropertyOver:
		it.Over = value
	case PropertyOI:
		it.OI = value
	case PropertyLR:
		it.LR = value
	case PropertyDual:
		it.Dual = value
	case PropertyWinder:
		it.Winder = value
	case PropertyMotor:
		it.Motor = value
	default:
		return false
	}
	return true
}

// DimensionColumn names a numeric dimension column
type DimensionColumn string

const (
	ColumnWidth  DimensionColumn = "width"
	ColumnHeight DimensionColumn = "height"
)

// AccessoryKind names an accessory as used by the accessory mappings
type AccessoryKind string

const (
	AccessoryWinder  AccessoryKind = "winder"
	AccessoryMotor   AccessoryKind = "motor"
	AccessoryRemote  AccessoryKind = "remote"
	AccessoryCharger AccessoryKind = "charger"
	AccessoryCord    AccessoryKind = "cord"
	AccessoryDual    AccessoryKind = "dual"
)

// AccessoryLine holds the customer-facing count and sale price of one accessory
type AccessoryLine struct {
	Type  string  `json:"type,omitempty"`
	Count int     `json:"count"`
	Price float64 `json:"price"`
}

// Accessories holds sale-price lines and the cost sums used by the F1/F2 views
type Accessories struct {
	Winder  AccessoryLine `json:"winder"`
	Motor   AccessoryLine `json:"motor"`
	Remote  AccessoryLine `json:"remote"`
	Charger AccessoryLine `json:"charger"`
	Cord3m  AccessoryLine `json:"cord3m"`

	WinderCostSum  *float64 `json:"winderCostSum"`
	MotorCostSum   *float64 `json:"motorCostSum"`
	RemoteCostSum  *float64 `json:"remoteCostSum"`
	ChargerCostSum *float64 `json:"chargerCostSum"`
	CordCostSum    *float64 `json:"cordCostSum"`
	DualCostSum    *float64 `json:"dualCostSum"`
}

// SalePriceTotal sums the sale prices of the accessory lines
func (a Accessories) SalePriceTotal() float64 {
	return a.Winder.Price + a.Motor.Price + a.Remote.Price + a.Charger.Price + a.Cord3m.Price
}

// AccessoryPatch is a partial update of Accessories. Nil fields are left untouched.
type AccessoryPatch struct {
	Winder  *AccessoryLine `json:"winder,omitempty"`
	Motor   *AccessoryLine `json:"motor,omitempty"`
	Remote  *AccessoryLine `json:"remote,omitempty"`
	Charger *AccessoryLine `json:"charger,omitempty"`
	Cord3m  *AccessoryLine `json:"cord3m,omitempty"`

	WinderCostSum  *float64 `json:"winderCostSum,omitempty"`
	MotorCostSum   *float64 `json:"motorCostSum,omitempty"`
	RemoteCostSum  *float64 `json:"remoteCostSum,omitempty"`
	ChargerCostSum *float64 `json:"chargerCostSum,omitempty"`
	CordCostSum    *float64 `json:"cordCostSum,omitempty"`
	DualCostSum    *float64 `json:"dualCostSum,omitempty"`
}

// Apply merges the patch into a copy of a and reports whether anything changed
func (p AccessoryPatch) Apply(a Accessories) (Accessories, bool) {
	next := a
	mergeLine(&next.Winder, p.Winder)
	mergeLine(&next.Motor, p.Motor)
	mergeLine(&next.Remote, p.Remote)
	mergeLine(&next.Charger, p.Charger)
	mergeLine(&next.Cord3m, p.Cord3m)
	mergeFloat(&next.WinderCostSum, p.WinderCostSum)
	mergeFloat(&next.MotorCostSum, p.MotorCostSum)
	mergeFloat(&next.RemoteCostSum, p.RemoteCostSum)
	mergeFloat(&next.ChargerCostSum, p.ChargerCostSum)
	mergeFloat(&next.CordCostSum, p.CordCostSum)
	mergeFloat(&next.DualCostSum, p.DualCostSum)
	return next, !next.Equal(a)
}

func mergeLine(dst *AccessoryLine, src *AccessoryLine) {
	if src != nil {
		*dst = *src
	}
}

func mergeFloat(dst **float64, src *float64) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

// Equal compares two accessory sets by value
func (a Accessories) Equal(b Accessories) bool {
	return a.Winder == b.Winder && a.Motor == b.Motor && a.Remote == b.Remote &&
		a.Charger == b.Charger && a.Cord3m == b.Cord3m &&
		EqualFloat(a.WinderCostSum, b.WinderCostSum) &&
		EqualFloat(a.MotorCostSum, b.MotorCostSum) &&
		EqualFloat(a.RemoteCostSum, b.RemoteCostSum) &&
		EqualFloat(a.ChargerCostSum, b.ChargerCostSum) &&
		EqualFloat(a.CordCostSum, b.CordCostSum) &&
		EqualFloat(a.DualCostSum, b.DualCostSum)
}

// Summary holds the quote totals for one product
type Summary struct {
	TotalSum    *float64    `json:"totalSum"`
	Accessories Accessories `json:"accessories"`
}

// NewSummary returns the empty summary of a new quote
func NewSummary() Summary {
	return Summary{
		Accessories: Accessories{
			Remote: AccessoryLine{Type: "standard"},
		},
	}
}

// ProductData holds the items and summary of one product
type ProductData struct {
	Items   []Item  `json:"items"`
	Summary Summary `json:"summary"`
}

// Equal compares items and summary by value
func (pd ProductData) Equal(o ProductData) bool {
	return slices.EqualFunc(pd.Items, o.Items, Item.Equal) &&
		EqualFloat(pd.Summary.TotalSum, o.Summary.TotalSum) &&
		pd.Summary.Accessories.Equal(o.Summary.Accessories)
}

// UIMetadata holds persisted view bookkeeping
type UIMetadata struct {
	LFModifiedRowIndexes []int `json:"lfModifiedRowIndexes"`
}

// Customer is the customer record of the quote
type Customer struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
}

// QuoteData is the persisted business state of a quote
type QuoteData struct {
	CurrentProduct         ProductKey                 `json:"currentProduct"`
	Products               map[ProductKey]ProductData `json:"products"`
	UIMetadata             UIMetadata                 `json:"uiMetadata"`
	QuoteID                *string                    `json:"quoteId"`
	IssueDate              *string                    `json:"issueDate"`
	DueDate                *string                    `json:"dueDate"`
	Status                 string                     `json:"status"`
	CostDiscountPercentage float64                    `json:"costDiscountPercentage"`
	Customer               Customer                   `json:"customer"`
}

// NewQuoteData returns the quote of a fresh session: one roller-blind product with one blank item
func NewQuoteData(blank Item) *QuoteData {
	return &QuoteData{
		CurrentProduct: ProductRollerBlind,
		Products: map[ProductKey]ProductData{
			ProductRollerBlind: {
				Items:   []Item{blank},
				Summary: NewSummary(),
			},
		},
		UIMetadata: UIMetadata{LFModifiedRowIndexes: []int{}},
		Status:     QuoteStatusConfiguring,
	}
}

// CurrentProductData returns the data of the selected product
func (q *QuoteData) CurrentProductData() (ProductData, bool) {
	if q == nil || q.Products == nil {
		return ProductData{}, false
	}
	pd, ok := q.Products[q.CurrentProduct]
	return pd, ok
}

// CurrentItems returns the items of the selected product
func (q *QuoteData) CurrentItems() []Item {
	pd, _ := q.CurrentProductData()
	return pd.Items
}

// WithProductData returns a shallow copy of q with the current product replaced
func (q *QuoteData) WithProductData(pd ProductData) *QuoteData {
	next := *q
	next.Products = make(map[ProductKey]ProductData, len(q.Products))
	for k, v := range q.Products {
		next.Products[k] = v
	}
	next.Products[q.CurrentProduct] = pd
	return &next
}

// HasData reports whether the quote holds user-entered content
func (q *QuoteData) HasData() bool {
	items := q.CurrentItems()
	return len(items) > 1 || (len(items) == 1 && items[0].HasDimension())
}

// Equal compares two quote documents by value
func (q *QuoteData) Equal(o *QuoteData) bool {
	if q == nil || o == nil {
		return q == o
	}
	if q.CurrentProduct != o.CurrentProduct || len(q.Products) != len(o.Products) {
		return false
	}
	for k, pd := range q.Products {
		other, ok := o.Products[k]
		if !ok || !pd.Equal(other) {
			return false
		}
	}
	return slices.Equal(q.UIMetadata.LFModifiedRowIndexes, o.UIMetadata.LFModifiedRowIndexes) &&
		EqualString(q.QuoteID, o.QuoteID) && EqualString(q.IssueDate, o.IssueDate) &&
		EqualString(q.DueDate, o.DueDate) && q.Status == o.Status &&
		q.CostDiscountPercentage == o.CostDiscountPercentage && q.Customer == o.Customer
}

// IsLFModified reports whether a row carries a light-filter override
func (q *QuoteData) IsLFModified(index int) bool {
	return slices.Contains(q.UIMetadata.LFModifiedRowIndexes, index)
}

// QuoteSnapshot is a stored copy of a quote document
type QuoteSnapshot struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	Key       string    `gorm:"type:varchar(200);not null;column:snapshot_key" json:"key"`
	QuoteID   string    `gorm:"type:varchar(100);column:quote_id" json:"quoteId,omitempty"`
	ItemCount int       `gorm:"not null;default:0;column:item_count" json:"itemCount"`
	TotalSum  *float64  `gorm:"type:numeric(12,2);column:total_sum" json:"totalSum,omitempty"`
	Document  string    `gorm:"type:text;not null" json:"-"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

// TableName overrides the gorm table name
func (QuoteSnapshot) TableName() string {
	return "quote_snapshots"
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v
func Int(v int) *int {
	return &v
}

// String returns a pointer to v
func String(v string) *string {
	return &v
}

// EqualFloat compares two optional numbers by value
func EqualFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// EqualInt compares two optional integers by value
func EqualInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// EqualString compares two optional strings by value
func EqualString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
