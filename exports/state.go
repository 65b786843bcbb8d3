package exports

// UsageState classifies how an export is consumed for one runtime.
type UsageState uint8

const (
	// UsageUnknown is the unclassified state. During resolution it is the
	// bottom of the lattice; outside resolution it is treated as used.
	UsageUnknown UsageState = iota
	UsageUnused
	UsageOnlyPropertiesUsed
	UsageUsed
)

func (s UsageState) String() string {
	switch s {
	case UsageUnknown:
		return "unknown"
	case UsageUnused:
		return "unused"
	case UsageOnlyPropertiesUsed:
		return "only-properties-used"
	case UsageUsed:
		return "used"
	default:
		return "invalid"
	}
}

// rank orders states for monotonic updates. Unknown and Unused share the
// bottom rank: Unused is only ever assigned when finalizing a pass.
func (s UsageState) rank() int {
	switch s {
	case UsageOnlyPropertiesUsed:
		return 1
	case UsageUsed:
		return 2
	default:
		return 0
	}
}

// IsUsed reports whether s keeps the export alive. Unknown counts as used.
func (s UsageState) IsUsed() bool {
	return s != UsageUnused
}

// Provided tells whether a module provides an export.
type Provided uint8

const (
	ProvidedUnknown Provided = iota
	ProvidedYes
	ProvidedNo
)

func (p Provided) String() string {
	switch p {
	case ProvidedYes:
		return "provided"
	case ProvidedNo:
		return "not-provided"
	default:
		return "unknown"
	}
}
