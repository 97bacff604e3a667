package types

import (
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"
)

// BigInt is an unsigned integer up to 256 bits that the node encodes as a decimal string.
type BigInt struct {
	*uint256.Int
}

// NewBigInt returns a BigInt holding v.
func NewBigInt(v uint64) BigInt {
	return BigInt{uint256.NewInt(v)}
}

// String returns the decimal form, "0" when unset.
func (b BigInt) String() string {
	if b.Int == nil {
		return "0"
	}

	return b.Int.Dec()
}

// MarshalJSON encodes b as a decimal string.
func (b BigInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// UnmarshalJSON decodes a decimal string or number.
func (b *BigInt) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	v, err := uint256.FromDecimal(s)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}

	b.Int = v

	return nil
}

// Coin is one coin object owned by an address.
type Coin struct {
	CoinType            string   `json:"coinType"`
	CoinObjectID        ObjectID `json:"coinObjectId"`
	Version             U64      `json:"version"`
	Digest              Digest   `json:"digest"`
	Balance             U64      `json:"balance"`
	PreviousTransaction string   `json:"previousTransaction"`
}

// Ref returns the object reference of the coin, used as transfer input or gas payment.
func (c Coin) Ref() ObjectRef {
	return ObjectRef{ObjectID: c.CoinObjectID, Version: c.Version, Digest: c.Digest}
}

// CoinPage is one page of a paginated coin listing.
type CoinPage struct {
	Data        []Coin  `json:"data"`
	NextCursor  *string `json:"nextCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

// Balance is the balance summary of one coin type held by an address.
type Balance struct {
	CoinType        string `json:"coinType"`
	CoinObjectCount int    `json:"coinObjectCount"`
	TotalBalance    BigInt `json:"totalBalance"`
}
