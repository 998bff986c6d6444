// Package components defines the plain data types shared by the simulation,
// the zone manager and the renderer.
package components

// ZoneID identifies one of the two screen-margin zones.
type ZoneID uint8

const (
	ZoneNone ZoneID = iota // Not bound to any zone
	ZoneDev                // Left margin
	ZoneOrg                // Right margin
)

// NumZones is the number of real zones (ZoneNone excluded).
const NumZones = 2

// AllZones lists the real zones in a fixed order.
var AllZones = [NumZones]ZoneID{ZoneDev, ZoneOrg}

// String returns the persisted identifier of the zone.
func (z ZoneID) String() string {
	switch z {
	case ZoneDev:
		return "dev"
	case ZoneOrg:
		return "org"
	default:
		return "none"
	}
}

// Index returns the zone's slot in per-zone arrays, or -1 for ZoneNone.
func (z ZoneID) Index() int {
	switch z {
	case ZoneDev:
		return 0
	case ZoneOrg:
		return 1
	default:
		return -1
	}
}

// ParseZoneID maps a persisted identifier back to a ZoneID.
func ParseZoneID(s string) (ZoneID, bool) {
	switch s {
	case "dev":
		return ZoneDev, true
	case "org":
		return ZoneOrg, true
	default:
		return ZoneNone, false
	}
}

// Point is a 2D coordinate.
type Point struct {
	X, Y float32
}
