package keys

import (
	"crypto/sha256"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

const (
	secp256k1PubSize = secp256k1.PubKeyBytesLenCompressed
	secp256k1SigSize = 64
)

type secp256k1Key struct {
	priv *secp256k1.PrivateKey
}

func newSecp256k1(b []byte) (*secp256k1Key, error) {
	var k secp256k1.ModNScalar
	if overflow := k.SetByteSlice(b); overflow || k.IsZero() {
		return nil, ErrInvalidKey
	}

	return &secp256k1Key{priv: secp256k1.NewPrivateKey(&k)}, nil
}

func (k *secp256k1Key) Scheme() Scheme { return Secp256k1 }

func (k *secp256k1Key) PublicKey() []byte {
	return k.priv.PubKey().SerializeCompressed()
}

func (k *secp256k1Key) PrivateKey() []byte {
	return k.priv.Serialize()
}

// Sign hashes digest with SHA-256 and signs it deterministically (RFC6979, low S). The result is r || s.
func (k *secp256k1Key) Sign(digest []byte) ([]byte, error) {
	h := sha256.Sum256(digest)
	compact := ecdsa.SignCompact(k.priv, h[:], true)

	return compact[1:], nil
}

func (k *secp256k1Key) Verify(digest, sig []byte) bool {
	return verifySecp256k1(k.PublicKey(), digest, sig)
}

func verifySecp256k1(pub, digest, sig []byte) bool {
	if len(sig) != secp256k1SigSize {
		return false
	}

	pk, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return false
	}

	var r, s secp256k1.ModNScalar
	if r.SetByteSlice(sig[:32]) || s.SetByteSlice(sig[32:]) {
		return false
	}

	h := sha256.Sum256(digest)

	return ecdsa.NewSignature(&r, &s).Verify(h[:], pk)
}
