package keys

import (
	"crypto/rand"
	"io"

	"golang.org/x/crypto/ed25519"
)

const (
	ed25519PubSize = ed25519.PublicKeySize
	ed25519SigSize = ed25519.SignatureSize
)

type ed25519Key struct {
	priv ed25519.PrivateKey
}

func newEd25519(seed []byte) *ed25519Key {
	return &ed25519Key{priv: ed25519.NewKeyFromSeed(seed)}
}

// Generate returns a fresh random Ed25519 key pair.
func Generate() (KeyPair, error) {
	return generate(rand.Reader)
}

func generate(r io.Reader) (KeyPair, error) {
	_, priv, err := ed25519.GenerateKey(r)
	if err != nil {
		return nil, err
	}

	return &ed25519Key{priv: priv}, nil
}

func (k *ed25519Key) Scheme() Scheme { return Ed25519 }

func (k *ed25519Key) PublicKey() []byte {
	return []byte(k.priv.Public().(ed25519.PublicKey))
}

func (k *ed25519Key) PrivateKey() []byte {
	return k.priv.Seed()
}

func (k *ed25519Key) Sign(digest []byte) ([]byte, error) {
	return ed25519.Sign(k.priv, digest), nil
}

func (k *ed25519Key) Verify(digest, sig []byte) bool {
	return verifyEd25519(k.PublicKey(), digest, sig)
}

func verifyEd25519(pub, digest, sig []byte) bool {
	if len(pub) != ed25519PubSize {
		return false
	}

	return ed25519.Verify(ed25519.PublicKey(pub), digest, sig)
}
