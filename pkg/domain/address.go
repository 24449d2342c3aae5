package domain

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	dErrors "condo/pkg/domain-errors"
)

// AddressLength is the byte length of a wallet address.
const AddressLength = 20

// Address identifies a wallet. The zero value is the null identity and is
// never a valid actor.
//
// Usage: construct via ParseAddress at trust boundaries. String renders the
// EIP-55 mixed-case checksum form.
type Address [AddressLength]byte

// ZeroAddress is the null identity.
var ZeroAddress Address

// ParseAddress parses a 0x-prefixed, 40 hex digit address. Case is not
// checked, so lower, upper and checksummed inputs all parse.
//
// Errors: returns CodeInvalidInput for any malformed input.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	hexPart, ok := strings.CutPrefix(s, "0x")
	if !ok {
		hexPart, ok = strings.CutPrefix(s, "0X")
	}
	if !ok || len(hexPart) != 2*AddressLength {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "Invalid address")
	}
	raw, err := hex.DecodeString(hexPart)
	if err != nil {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "Invalid address")
	}
	var a Address
	copy(a[:], raw)
	return a, nil
}

// MustParseAddress is ParseAddress for constants and tests. It panics on error.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsZero reports whether a is the null identity.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// String returns the EIP-55 checksummed hex form.
func (a Address) String() string {
	lower := hex.EncodeToString(a[:])
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := h.Sum(nil)

	out := make([]byte, 2+len(lower))
	out[0], out[1] = '0', 'x'
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if c >= 'a' && c <= 'f' && nibble&0x0f >= 8 {
			c -= 'a' - 'A'
		}
		out[2+i] = c
	}
	return string(out)
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
