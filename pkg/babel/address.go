package babel

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"
)

// SeedModulus bounds the generator state space. Derived seeds are always
// reduced into [0, SeedModulus).
const SeedModulus = 1 << 31

// CanonicalAddress normalizes an address to its canonical lowercase hex
// form. It returns an error for empty strings or strings containing
// non-hex characters. Leading zeros are preserved.
func CanonicalAddress(addr string) (string, error) {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if addr == "" {
		return "", fmt.Errorf("empty address")
	}
	for _, c := range addr {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("invalid hex character %q", c)
		}
	}
	return addr, nil
}

// ParseAddress parses a canonical address into an arbitrary-precision
// integer. Addresses may exceed native machine-word width.
func ParseAddress(addr string) (*big.Int, error) {
	canonical, err := CanonicalAddress(addr)
	if err != nil {
		return nil, err
	}
	n, ok := new(big.Int).SetString(canonical, 16)
	if !ok {
		return nil, fmt.Errorf("unparseable address %q", addr)
	}
	return n, nil
}

// FormatSeed renders a seed as a canonical 8-digit hex address. All
// derived seeds fit in 31 bits, so 8 digits always suffice.
func FormatSeed(seed uint32) string {
	return fmt.Sprintf("%08x", seed)
}

// SeedFromDigest maps an arbitrary string to a seed in [0, SeedModulus)
// via a stable digest: the big-endian first four bytes of the MD5 of the
// input. This mapping is part of the candidate-derivation contract and
// must not change.
func SeedFromDigest(s string) uint32 {
	sum := md5.Sum([]byte(s))
	return binary.BigEndian.Uint32(sum[:4]) % SeedModulus
}

// CompareAddresses orders two addresses by numeric value, falling back to
// lexical order for equal values so ordering stays total over distinct
// canonical forms ("1" vs "01").
func CompareAddresses(a, b string) int {
	na, errA := ParseAddress(a)
	nb, errB := ParseAddress(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	if c := na.Cmp(nb); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
