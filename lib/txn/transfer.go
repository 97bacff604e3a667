package txn

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/tarancss/suiadp/lib/block/types"
)

// TransferIntent is everything needed to build a transaction that splits Amount mist off the gas coin and sends it
// to Recipient.
type TransferIntent struct {
	Sender    types.Address
	Recipient types.Address
	Amount    uint64 // mist
	GasCoin   types.ObjectRef
	GasPrice  uint64
	GasBudget uint64
}

// ErrNotTransfer is returned when transaction data does not have the shape built by Build.
var ErrNotTransfer = errors.New("transaction is not a simple gas coin transfer")

// Build returns the transaction data of the intent. Inputs are the recipient and the amount. Commands split the
// amount off the gas coin and transfer the new coin.
func (ti TransferIntent) Build() *TransactionData {
	amount := make([]byte, 8)
	binary.LittleEndian.PutUint64(amount, ti.Amount)

	return &TransactionData{
		Kind: ProgrammableTransaction{
			Inputs: []CallArg{
				{Pure: ti.Recipient.Bytes()},
				{Pure: amount},
			},
			Commands: []Command{
				{Kind: CmdSplitCoins, Target: GasCoin(), Amounts: []Argument{Input(1)}},
				{Kind: CmdTransferObjects, Objects: []Argument{Result(0)}, Target: Input(0)},
			},
		},
		Sender: ti.Sender,
		Gas: GasData{
			Payment: []types.ObjectRef{ti.GasCoin},
			Owner:   ti.Sender,
			Price:   ti.GasPrice,
			Budget:  ti.GasBudget,
		},
	}
}

// Bytes builds and encodes the intent.
func (ti TransferIntent) Bytes() ([]byte, error) {
	b, err := ti.Build().Marshal()

	return b, errors.Wrap(err, "encode transfer")
}

// DecodeTransfer decodes transaction bytes produced from a TransferIntent.
func DecodeTransfer(b []byte) (ti TransferIntent, err error) {
	t, err := Unmarshal(b)
	if err != nil {
		return ti, errors.Wrap(err, "decode transaction data")
	}

	p := t.Kind
	if len(p.Inputs) != 2 || len(p.Commands) != 2 || len(t.Gas.Payment) != 1 ||
		len(p.Inputs[0].Pure) != types.AddressLength || len(p.Inputs[1].Pure) != 8 ||
		p.Commands[0].Kind != CmdSplitCoins || p.Commands[1].Kind != CmdTransferObjects {
		return ti, ErrNotTransfer
	}

	copy(ti.Recipient[:], p.Inputs[0].Pure)
	ti.Amount = binary.LittleEndian.Uint64(p.Inputs[1].Pure)
	ti.Sender = t.Sender
	ti.GasCoin = t.Gas.Payment[0]
	ti.GasPrice = t.Gas.Price
	ti.GasBudget = t.Gas.Budget

	return ti, nil
}
