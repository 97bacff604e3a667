// Package types common Sui types shared by the network client, the transaction builder and the services.
package types

import (
	"encoding/json"
	"errors"
	"strconv"
)

// SuiCoinType is the native asset of the network.
const SuiCoinType = "0x2::sui::SUI"

// MistPerSui is the scaling factor between the user facing SUI amount and its smallest unit (MIST).
const MistPerSui = 1_000_000_000

// U64 is an unsigned 64-bit integer that the node encodes as a JSON string. It decodes from both strings and
// numbers.
type U64 uint64

// MarshalJSON encodes u as a decimal JSON string.
func (u U64) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(u), 10))
}

// UnmarshalJSON decodes a decimal string or a JSON number.
func (u *U64) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return ErrBadNumber
	}

	*u = U64(v)

	return nil
}

// CoinMetadata describes a coin type.
type CoinMetadata struct {
	ID          *string `json:"id"`
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	Decimals    uint8   `json:"decimals"`
	Description string  `json:"description"`
	IconURL     *string `json:"iconUrl"`
}

// Supply is the total supply of a coin type in its smallest unit.
type Supply struct {
	Value BigInt `json:"value"`
}

// Checkpoint contains the fields of a checkpoint that the explorer needs.
type Checkpoint struct {
	Epoch          U64      `json:"epoch"`
	SequenceNumber U64      `json:"sequenceNumber"`
	Digest         string   `json:"digest"`
	PreviousDigest string   `json:"previousDigest,omitempty"`
	TimestampMs    U64      `json:"timestampMs"`
	Transactions   []string `json:"transactions"`
}

// Trans contains a simplified number of transaction fields. Sui transactions can move several coins to several
// owners; we keep the sender and the first address that received a positive balance change.
type Trans struct {
	Checkpoint uint64 `json:"checkpoint"`
	Digest     string `json:"digest"`
	From       string `json:"from"`
	To         string `json:"to"`
	CoinType   string `json:"coinType,omitempty"`
	Value      string `json:"value"`
	Gas        uint64 `json:"gas"`
	Price      uint64 `json:"price"`
	Status     uint8  `json:"status"`
	TS         uint64 `json:"ts"`
}

// Transaction status values.
const (
	TrxPending uint8 = 0
	TrxFailed  uint8 = 1
	TrxSuccess uint8 = 2
)

// Error codes.
var (
	ErrBadAddress      = errors.New("address must be 0x followed by up to 64 hex digits")
	ErrBadDigest       = errors.New("digest must be 32 bytes encoded in base58")
	ErrBadNumber       = errors.New("value is not an unsigned decimal integer")
	ErrUnknownCoinType = errors.New("coin type not found on the network")
	ErrNoCheckpoint    = errors.New("checkpoint not available yet")
	ErrNoTrx           = errors.New("transaction not found")
	ErrNoSender        = errors.New("transaction data does not contain a sender")
)
