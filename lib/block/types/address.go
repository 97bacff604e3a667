package types

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/mr-tron/base58"
)

// AddressLength is the length in bytes of addresses and object ids.
const AddressLength = 32

// Address is a Sui account address.
type Address [AddressLength]byte

// ObjectID identifies an on-chain object. It shares the address space.
type ObjectID = Address

// ParseAddress decodes an address from its hex form. The 0x prefix is optional for the full 64 digit form; short
// forms such as 0x2 are left-padded with zeroes.
func ParseAddress(s string) (a Address, err error) {
	h := s
	prefixed := strings.HasPrefix(h, "0x") || strings.HasPrefix(h, "0X")
	if prefixed {
		h = h[2:]
	}

	if len(h) == 0 || len(h) > 2*AddressLength || (!prefixed && len(h) != 2*AddressLength) {
		return a, ErrBadAddress
	}

	if len(h) < 2*AddressLength {
		h = strings.Repeat("0", 2*AddressLength-len(h)) + h
	}

	if _, err = hex.Decode(a[:], []byte(h)); err != nil {
		return a, ErrBadAddress
	}

	return a, nil
}

// String returns the 0x prefixed, 64 hex digit form of the address.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Bytes returns a copy of the raw address.
func (a Address) Bytes() []byte {
	return append([]byte(nil), a[:]...)
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalJSON encodes the address as a string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes an address string.
func (a *Address) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	v, err := ParseAddress(s)
	if err != nil {
		return err
	}

	*a = v

	return nil
}

// DigestLength is the length in bytes of transaction and object digests.
const DigestLength = 32

// Digest is a transaction or object digest. Its text form is base58.
type Digest [DigestLength]byte

// ParseDigest decodes a base58 digest.
func ParseDigest(s string) (d Digest, err error) {
	b, err := base58.Decode(s)
	if err != nil || len(b) != DigestLength {
		return d, ErrBadDigest
	}

	copy(d[:], b)

	return d, nil
}

func (d Digest) String() string {
	return base58.Encode(d[:])
}

// MarshalJSON encodes the digest as a base58 string.
func (d Digest) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a base58 digest string.
func (d *Digest) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	v, err := ParseDigest(s)
	if err != nil {
		return err
	}

	*d = v

	return nil
}

// ObjectRef pins one version of an object: the (id, version, digest) triple.
type ObjectRef struct {
	ObjectID ObjectID `json:"objectId"`
	Version  U64      `json:"version"`
	Digest   Digest   `json:"digest"`
}
