package domain

import (
	"errors"
	"math"
	"strconv"

	dErrors "condo/pkg/domain-errors"
)

// ResidenceID encodes a dwelling as block*1000 + group*100 + unit.
// Whether an id names a real residence is decided by the residence registry;
// this type only guarantees a numeric value.
type ResidenceID uint16

const (
	// ManagerSeat is the reserved residence a manager without a dwelling votes from.
	ManagerSeat ResidenceID = 0

	// NoResidence stands in for any decimal id too large for the type.
	// The registry never holds it.
	NoResidence ResidenceID = math.MaxUint16
)

// ParseResidenceID parses the decimal form used in URLs and request bodies.
// Well-formed ids beyond the type's range parse as NoResidence, so callers
// see a missing residence rather than malformed input.
func ParseResidenceID(s string) (ResidenceID, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "residence cannot be empty")
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return NoResidence, nil
	}
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid residence")
	}
	if n > uint64(NoResidence) {
		return NoResidence, nil
	}
	return ResidenceID(n), nil
}

// UnmarshalJSON accepts a JSON number and applies ParseResidenceID.
func (r *ResidenceID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	parsed, err := ParseResidenceID(string(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// String returns the decimal form.
func (r ResidenceID) String() string {
	return strconv.FormatUint(uint64(r), 10)
}
