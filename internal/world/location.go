package world

import (
	"fmt"
	"strings"
)

// Location identifies one of the fixed stack positions.
type Location int

const (
	LocationA Location = iota
	LocationB
	LocationC
)

// NumLocations is the number of stack positions in the world.
const NumLocations = 3

// Locations lists every location in priority order.
var Locations = []Location{LocationA, LocationB, LocationC}

var locationNames = [NumLocations]string{"A", "B", "C"}

// String returns the single-letter name of the location.
func (l Location) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Location(%d)", int(l))
	}
	return locationNames[l]
}

// Valid reports whether l names one of the fixed locations.
func (l Location) Valid() bool {
	return l >= 0 && int(l) < NumLocations
}

// ParseLocation accepts A/B/C and the legacy L1/L2/L3 names, case-insensitive.
func ParseLocation(value string) (Location, error) {
	name := strings.ToUpper(strings.TrimSpace(value))
	for _, loc := range Locations {
		if name == loc.String() || name == fmt.Sprintf("L%d", int(loc)+1) {
			return loc, nil
		}
	}
	return 0, fmt.Errorf("world: %w: %q", ErrUnknownLocation, value)
}

// Others returns the locations not listed in exclude, in priority order.
func Others(exclude ...Location) []Location {
	out := make([]Location, 0, NumLocations)
	for _, loc := range Locations {
		skip := false
		for _, ex := range exclude {
			if ex == loc {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, loc)
		}
	}
	return out
}

// MarshalText encodes the location by name so reports stay readable.
func (l Location) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("world: %w: %d", ErrUnknownLocation, int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText decodes a location name.
func (l *Location) UnmarshalText(text []byte) error {
	loc, err := ParseLocation(string(text))
	if err != nil {
		return err
	}
	*l = loc
	return nil
}
