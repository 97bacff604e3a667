package keys

import (
	"github.com/pkg/errors"
	"github.com/tarancss/hd"
)

// Change selects the external or the internal (change) branch of an HD account.
const (
	External = hd.External
	Change   = hd.Change
)

// FromHD derives the Secp256k1 key pair at account/change/index of an HD wallet.
func FromHD(w *hd.HdWallet, account uint32, change uint8, index uint32) (KeyPair, error) {
	if w == nil {
		return nil, errors.New("no HD wallet loaded")
	}

	_, key, _, err := w.Address(account, change, index)
	if err != nil {
		return nil, errors.Wrapf(err, "derive HD key %d/%d/%d", account, change, index)
	}

	return New(Secp256k1, key)
}
