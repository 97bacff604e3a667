// Package keys implements the key material of a Sui wallet: signature schemes, private key import and export,
// random and HD key generation, and address derivation.
package keys

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/tarancss/suiadp/lib/block/types"
)

// Scheme is the signature scheme flag that prefixes keys, signatures and address preimages.
type Scheme byte

// Supported schemes.
const (
	Ed25519   Scheme = 0x00
	Secp256k1 Scheme = 0x01
)

func (s Scheme) String() string {
	switch s {
	case Ed25519:
		return "ed25519"
	case Secp256k1:
		return "secp256k1"
	}

	return fmt.Sprintf("scheme(0x%02x)", byte(s))
}

// PrivateKeySize is the size of the raw private key of every supported scheme.
const PrivateKeySize = 32

// KeyPair is a private key together with its public key.
type KeyPair interface {
	Scheme() Scheme
	// PublicKey returns the public key bytes as used in addresses and signatures.
	PublicKey() []byte
	// PrivateKey returns the raw 32-byte private key.
	PrivateKey() []byte
	// Sign signs a 32-byte message digest and returns the raw signature.
	Sign(digest []byte) ([]byte, error)
	// Verify checks a raw signature over digest.
	Verify(digest, sig []byte) bool
}

// Errors returned.
var (
	ErrUnsupportedScheme = errors.New("unsupported signature scheme")
	ErrKeyLength         = errors.New("private key must be a scheme flag followed by 32 bytes")
	ErrInvalidKey        = errors.New("private key is not valid for its scheme")
	ErrSignature         = errors.New("malformed serialized signature")
)

// New returns the key pair for scheme and raw private key.
func New(scheme Scheme, priv []byte) (KeyPair, error) {
	if len(priv) != PrivateKeySize {
		return nil, ErrKeyLength
	}

	switch scheme {
	case Ed25519:
		return newEd25519(priv), nil
	case Secp256k1:
		return newSecp256k1(priv)
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
}

// FromBytes decodes the flag || private key layout shared by both text encodings.
func FromBytes(b []byte) (KeyPair, error) {
	if len(b) != PrivateKeySize+1 {
		return nil, ErrKeyLength
	}

	return New(Scheme(b[0]), b[1:])
}

// Bytes returns flag || private key.
func Bytes(kp KeyPair) []byte {
	return append([]byte{byte(kp.Scheme())}, kp.PrivateKey()...)
}

// AddressOf derives the address of a public key: blake2b-256 of the scheme flag followed by the public key.
func AddressOf(scheme Scheme, pub []byte) types.Address {
	return blake2b.Sum256(append([]byte{byte(scheme)}, pub...))
}

// Address derives the wallet address of kp.
func Address(kp KeyPair) types.Address {
	return AddressOf(kp.Scheme(), kp.PublicKey())
}

// SerializedSignature signs digest and returns flag || signature || public key, the form the node expects.
func SerializedSignature(kp KeyPair, digest []byte) ([]byte, error) {
	sig, err := kp.Sign(digest)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 1+len(sig)+len(kp.PublicKey()))
	out = append(out, byte(kp.Scheme()))
	out = append(out, sig...)

	return append(out, kp.PublicKey()...), nil
}

// VerifySerialized checks a serialized signature over digest and returns the signer's address.
func VerifySerialized(serialized, digest []byte) (types.Address, error) {
	if len(serialized) < 1 {
		return types.Address{}, ErrSignature
	}

	var sigLen, pubLen int

	switch Scheme(serialized[0]) {
	case Ed25519:
		sigLen, pubLen = ed25519SigSize, ed25519PubSize
	case Secp256k1:
		sigLen, pubLen = secp256k1SigSize, secp256k1PubSize
	default:
		return types.Address{}, ErrUnsupportedScheme
	}

	if len(serialized) != 1+sigLen+pubLen {
		return types.Address{}, ErrSignature
	}

	scheme := Scheme(serialized[0])
	sig := serialized[1 : 1+sigLen]
	pub := serialized[1+sigLen:]

	if !verify(scheme, pub, digest, sig) {
		return types.Address{}, ErrSignature
	}

	return AddressOf(scheme, pub), nil
}

func verify(scheme Scheme, pub, digest, sig []byte) bool {
	switch scheme {
	case Ed25519:
		return verifyEd25519(pub, digest, sig)
	case Secp256k1:
		return verifySecp256k1(pub, digest, sig)
	}

	return false
}
