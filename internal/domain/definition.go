package domain

import "strings"

// RoomDefinition is an immutable catalogue archetype. Instances reference a
// definition by its three-digit ID; definitions themselves are never written.
type RoomDefinition struct {
	ID          string // three-digit string, e.g. "013"
	Name        string
	PhysicsHint string // free text encoding the two energy axes
	Function    string
}

// DionysianLevel parses the dionysian energy axis out of the physics hint.
func (d *RoomDefinition) DionysianLevel() EnergyLevel {
	return parseEnergyAxis(d.PhysicsHint, "d")
}

// ApollonianLevel parses the apollonian energy axis out of the physics hint.
func (d *RoomDefinition) ApollonianLevel() EnergyLevel {
	return parseEnergyAxis(d.PhysicsHint, "a")
}

// parseEnergyAxis grades one axis by case-insensitive substring match.
// "high d" → high, "medium d"/"moderate d" → medium, "meta" → meta,
// anything else → low. The axis letter selects dionysian vs apollonian.
func parseEnergyAxis(hint, axis string) EnergyLevel {
	h := strings.ToLower(hint)
	switch {
	case strings.Contains(h, "high "+axis):
		return EnergyHigh
	case strings.Contains(h, "medium "+axis), strings.Contains(h, "moderate "+axis):
		return EnergyMedium
	case strings.Contains(h, "meta"):
		return EnergyMeta
	default:
		return EnergyLow
	}
}

// Wing is a named grouping of twelve room definitions sharing an energy profile.
type Wing struct {
	Name  WingName
	Rooms []RoomDefinition
}
