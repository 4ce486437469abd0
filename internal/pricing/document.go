package pricing

// Matrix is the price table of one fabric type. Widths and Drops are
// ascending upper-bound breakpoints; Prices is indexed [dropIndex][widthIndex].
// A matrix with AliasFor set borrows the table of another fabric type.
type Matrix struct {
	Name     string      `json:"name"`
	Widths   []int       `json:"widths" validate:"required_without=AliasFor"`
	Drops    []int       `json:"drops" validate:"required_without=AliasFor"`
	Prices   [][]float64 `json:"prices" validate:"required_without=AliasFor"`
	AliasFor string      `json:"aliasFor,omitempty"`
}

// Cell returns the price at (dropIndex, widthIndex). Missing cells report false.
func (m *Matrix) Cell(dropIndex, widthIndex int) (float64, bool) {
	if m == nil || dropIndex < 0 || dropIndex >= len(m.Prices) {
		return 0, false
	}
	row := m.Prices[dropIndex]
	if widthIndex < 0 || widthIndex >= len(row) {
		return 0, false
	}
	return row[widthIndex], true
}

// Accessory is the unit price of one accessory key
type Accessory struct {
	Price *float64 `json:"price"`
}

// ValidationRule holds the dimension bounds of a product type
type ValidationRule struct {
	MinWidth  *int `json:"minWidth,omitempty"`
	MaxWidth  *int `json:"maxWidth,omitempty"`
	MinHeight *int `json:"minHeight,omitempty"`
	MaxHeight *int `json:"maxHeight,omitempty"`
}

// LogicThresholds holds numeric business thresholds
type LogicThresholds struct {
	HDWinderThresholdArea int `json:"hdWinderThresholdArea"`
}

// AccessoryMappings resolves accessory names to price keys and formula names
type AccessoryMappings struct {
	AccessoryPriceKeyMap   map[string]string `json:"accessoryPriceKeyMap"`
	AccessoryMethodNameMap map[string]string `json:"accessoryMethodNameMap"`
	AccessoryCostKeyMap    map[string]string `json:"accessoryCostKeyMap,omitempty"`
}

// BusinessRules groups validation, logic thresholds and mappings
type BusinessRules struct {
	Validation map[string]ValidationRule `json:"validation"`
	Logic      *LogicThresholds          `json:"logic"`
	Mappings   *AccessoryMappings        `json:"mappings"`
}

// Document is the price data file
type Document struct {
	Matrices           map[string]Matrix    `json:"matrices" validate:"required,dive"`
	Accessories        map[string]Accessory `json:"accessories" validate:"required"`
	FabricTypeSequence []string             `json:"fabricTypeSequence"`
	BusinessRules      BusinessRules        `json:"businessRules"`
}

// F2UnitPrices are the fee unit prices used by the F2 summary
type F2UnitPrices struct {
	Wifi     float64 `json:"wifi"`
	Delivery float64 `json:"delivery"`
	Install  float64 `json:"install"`
	Removal  float64 `json:"removal"`
}

// DefaultF2UnitPrices returns the stock fee prices
func DefaultF2UnitPrices() F2UnitPrices {
	return F2UnitPrices{Wifi: 200, Delivery: 100, Install: 20, Removal: 20}
}
