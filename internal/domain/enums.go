package domain

type FrictionLevel string

const (
	FrictionZero   FrictionLevel = "zero"
	FrictionLow    FrictionLevel = "low"
	FrictionMedium FrictionLevel = "medium"
	FrictionHigh   FrictionLevel = "high"
)

// ValidFrictionLevels is the canonical set of accepted friction strings.
var ValidFrictionLevels = map[string]bool{
	"zero": true, "low": true, "medium": true, "high": true,
}

type ItemStatus string

const (
	ItemOperational ItemStatus = "operational"
	ItemMissing     ItemStatus = "missing"
	ItemBroken      ItemStatus = "broken"
)

// ValidItemStatuses is the canonical set of accepted inventory item statuses.
var ValidItemStatuses = map[string]bool{
	"operational": true, "missing": true, "broken": true,
}

// EnergyLevel grades one of the two energy axes of a room definition.
type EnergyLevel string

const (
	EnergyLow    EnergyLevel = "low"
	EnergyMedium EnergyLevel = "medium"
	EnergyHigh   EnergyLevel = "high"
	EnergyMeta   EnergyLevel = "meta"
)

// WingName identifies one of the six fixed wings of the catalogue.
type WingName string

const (
	WingConservatory WingName = "I. Conservatory"
	WingLibrary      WingName = "II. Library"
	WingMachineShop  WingName = "III. Machine Shop"
	WingTheatre      WingName = "IV. Theatre"
	WingSanctum      WingName = "V. Sanctum"
	WingObservatory  WingName = "VI. Observatory"
)

// ValidWingNames is the canonical set of wing names a season may rule.
var ValidWingNames = map[string]bool{
	string(WingConservatory): true,
	string(WingLibrary):      true,
	string(WingMachineShop):  true,
	string(WingTheatre):      true,
	string(WingSanctum):      true,
	string(WingObservatory):  true,
}
