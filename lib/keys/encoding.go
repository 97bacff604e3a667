package keys

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/pkg/errors"
)

// Bech32Prefix is the human readable part of bech32 encoded private keys.
const Bech32Prefix = "suiprivkey"

// Encoding names a text encoding of a private key.
type Encoding string

// Supported encodings.
const (
	EncodingBech32 Encoding = "bech32"
	EncodingBase64 Encoding = "base64"
)

// DecodeError is returned when a private key string cannot be decoded.
type DecodeError struct {
	Encoding Encoding
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid %s private key: %v", e.Encoding, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Import decodes a private key string. Strings that start with the bech32 prefix are decoded as bech32, anything else
// as base64 of flag || key.
func Import(s string) (KeyPair, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToLower(s), Bech32Prefix) {
		return DecodeBech32(s)
	}

	return DecodeBase64(s)
}

// DecodeBech32 decodes a "suiprivkey1..." string.
func DecodeBech32(s string) (KeyPair, error) {
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return nil, &DecodeError{Encoding: EncodingBech32, Err: err}
	}

	if hrp != Bech32Prefix {
		return nil, &DecodeError{Encoding: EncodingBech32, Err: errors.Errorf("unexpected prefix %q", hrp)}
	}

	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, &DecodeError{Encoding: EncodingBech32, Err: err}
	}

	kp, err := FromBytes(raw)
	if err != nil {
		return nil, &DecodeError{Encoding: EncodingBech32, Err: err}
	}

	return kp, nil
}

// DecodeBase64 decodes base64 of flag || key.
func DecodeBase64(s string) (KeyPair, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &DecodeError{Encoding: EncodingBase64, Err: err}
	}

	kp, err := FromBytes(raw)
	if err != nil {
		return nil, &DecodeError{Encoding: EncodingBase64, Err: err}
	}

	return kp, nil
}

// EncodeBech32 exports kp as a "suiprivkey1..." string.
func EncodeBech32(kp KeyPair) (string, error) {
	conv, err := bech32.ConvertBits(Bytes(kp), 8, 5, true)
	if err != nil {
		return "", errors.Wrap(err, "bech32 encode")
	}

	return bech32.Encode(Bech32Prefix, conv)
}

// EncodeBase64 exports kp as base64 of flag || key.
func EncodeBase64(kp KeyPair) string {
	return base64.StdEncoding.EncodeToString(Bytes(kp))
}
