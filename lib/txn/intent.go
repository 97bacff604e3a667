package txn

import (
	"encoding/base64"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"github.com/tarancss/suiadp/lib/block/types"
	"github.com/tarancss/suiadp/lib/keys"
)

// Intent is the scope, version and app id prefixed to transaction bytes before signing.
type Intent [3]byte

// TransactionIntent is the intent of a user transaction: scope TransactionData, version V0, app Sui.
var TransactionIntent = Intent{0, 0, 0}

// IntentMessage returns intent || txBytes.
func IntentMessage(intent Intent, txBytes []byte) []byte {
	msg := make([]byte, 0, len(intent)+len(txBytes))
	msg = append(msg, intent[:]...)

	return append(msg, txBytes...)
}

// SigningDigest is the blake2b-256 hash of the transaction intent message. Signatures are made over it.
func SigningDigest(txBytes []byte) [32]byte {
	return blake2b.Sum256(IntentMessage(TransactionIntent, txBytes))
}

const digestSalt = "TransactionData::"

// Digest computes the transaction digest the node reports for txBytes.
func Digest(txBytes []byte) types.Digest {
	return blake2b.Sum256(append([]byte(digestSalt), txBytes...))
}

// SignedTransaction is a transaction ready for submission: base64 bytes and base64 serialized signatures.
type SignedTransaction struct {
	TxBytes    string   `json:"txBytes"`
	Signatures []string `json:"signatures"`
}

// Sign signs txBytes with kp under the transaction intent.
func Sign(kp keys.KeyPair, txBytes []byte) (*SignedTransaction, error) {
	digest := SigningDigest(txBytes)

	sig, err := keys.SerializedSignature(kp, digest[:])
	if err != nil {
		return nil, errors.Wrap(err, "sign transaction")
	}

	return &SignedTransaction{
		TxBytes:    base64.StdEncoding.EncodeToString(txBytes),
		Signatures: []string{base64.StdEncoding.EncodeToString(sig)},
	}, nil
}

// Verify checks the first signature against the transaction bytes and the sender, and returns the raw bytes.
func (st *SignedTransaction) Verify() ([]byte, *TransactionData, error) {
	txBytes, err := base64.StdEncoding.DecodeString(st.TxBytes)
	if err != nil {
		return nil, nil, errors.Wrap(err, "tx bytes")
	}

	data, err := Unmarshal(txBytes)
	if err != nil {
		return nil, nil, err
	}

	if len(st.Signatures) == 0 {
		return nil, nil, errors.New("no signatures")
	}

	sig, err := base64.StdEncoding.DecodeString(st.Signatures[0])
	if err != nil {
		return nil, nil, errors.Wrap(err, "signature")
	}

	digest := SigningDigest(txBytes)

	signer, err := keys.VerifySerialized(sig, digest[:])
	if err != nil {
		return nil, nil, err
	}

	if signer != data.Sender {
		return nil, nil, errors.Errorf("signed by %s, sender is %s", signer, data.Sender)
	}

	return txBytes, data, nil
}

// Digest returns the digest of the signed transaction bytes.
func (st *SignedTransaction) Digest() (types.Digest, error) {
	txBytes, err := base64.StdEncoding.DecodeString(st.TxBytes)
	if err != nil {
		return types.Digest{}, errors.Wrap(err, "tx bytes")
	}

	return Digest(txBytes), nil
}
