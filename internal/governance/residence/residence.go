// Package residence is the registry of valid dwellings in the condominium.
//
// A residence id is block*1000 + group*100 + unit. Blocks, groups and units
// are each numbered 1 through 5, so 2102 and 2505 exist and 2506 does not.
// The registry is a pure function of that scheme; nothing is stored.
package residence

import id "condo/pkg/domain"

const (
	// MaxBlock, MaxGroup and MaxUnit bound each position of the id.
	MaxBlock = 5
	MaxGroup = 5
	MaxUnit  = 5

	// QuorumPopulation is the number of residences counted when checking
	// whether a vote reached quorum.
	QuorumPopulation = 25
)

// Location is a decoded residence id.
type Location struct {
	Block int `json:"block"`
	Group int `json:"group"`
	Unit  int `json:"unit"`
}

// Decode splits id into its positions. ok is false when any position is out
// of range or the id has more than four digits.
func Decode(r id.ResidenceID) (Location, bool) {
	n := int(r)
	if n >= 10000 {
		return Location{}, false
	}
	loc := Location{Block: n / 1000, Group: n / 100 % 10, Unit: n % 100}
	if loc.Block < 1 || loc.Block > MaxBlock {
		return Location{}, false
	}
	if loc.Group < 1 || loc.Group > MaxGroup {
		return Location{}, false
	}
	if loc.Unit < 1 || loc.Unit > MaxUnit {
		return Location{}, false
	}
	return loc, true
}

// Exists reports whether r names a residence of the condominium.
func Exists(r id.ResidenceID) bool {
	_, ok := Decode(r)
	return ok
}

// Encode builds the id for a location. It does not validate ranges.
func Encode(loc Location) id.ResidenceID {
	return id.ResidenceID(loc.Block*1000 + loc.Group*100 + loc.Unit)
}

// All returns every valid residence id in ascending order.
func All() []id.ResidenceID {
	out := make([]id.ResidenceID, 0, MaxBlock*MaxGroup*MaxUnit)
	for b := 1; b <= MaxBlock; b++ {
		for g := 1; g <= MaxGroup; g++ {
			for u := 1; u <= MaxUnit; u++ {
				out = append(out, Encode(Location{Block: b, Group: g, Unit: u}))
			}
		}
	}
	return out
}
