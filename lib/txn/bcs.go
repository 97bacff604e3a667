// Package txn builds, encodes and signs Sui transaction data. Encoding is BCS, matching the node's TransactionData
// layout for programmable transactions.
package txn

import (
	"fmt"

	"github.com/aptos-labs/aptos-go-sdk/bcs"

	"github.com/tarancss/suiadp/lib/block/types"
)

// ArgKind is the variant of a command argument.
type ArgKind uint8

// Argument variants.
const (
	ArgGasCoin ArgKind = iota
	ArgInput
	ArgResult
	ArgNestedResult
)

// Argument references the gas coin, an input or the result of an earlier command.
type Argument struct {
	Kind   ArgKind
	Index  uint16
	Nested uint16 // only for ArgNestedResult
}

// GasCoin is the coin paying for gas.
func GasCoin() Argument { return Argument{Kind: ArgGasCoin} }

// Input is the i-th transaction input.
func Input(i uint16) Argument { return Argument{Kind: ArgInput, Index: i} }

// Result is the result of the i-th command.
func Result(i uint16) Argument { return Argument{Kind: ArgResult, Index: i} }

// NestedResult is the j-th value of the i-th command's result.
func NestedResult(i, j uint16) Argument {
	return Argument{Kind: ArgNestedResult, Index: i, Nested: j}
}

func (a *Argument) MarshalBCS(ser *bcs.Serializer) {
	ser.Uleb128(uint32(a.Kind))

	switch a.Kind {
	case ArgGasCoin:
	case ArgInput, ArgResult:
		ser.U16(a.Index)
	case ArgNestedResult:
		ser.U16(a.Index)
		ser.U16(a.Nested)
	default:
		ser.SetError(fmt.Errorf("unknown argument kind %d", a.Kind))
	}
}

func (a *Argument) UnmarshalBCS(des *bcs.Deserializer) {
	a.Kind = ArgKind(des.Uleb128())

	switch a.Kind {
	case ArgGasCoin:
	case ArgInput, ArgResult:
		a.Index = des.U16()
	case ArgNestedResult:
		a.Index = des.U16()
		a.Nested = des.U16()
	default:
		des.SetError(fmt.Errorf("unknown argument kind %d", a.Kind))
	}
}

// CallArg is a transaction input. Only pure (BCS encoded value) inputs are built by this package.
type CallArg struct {
	Pure []byte
}

const callArgPure = 0

func (c *CallArg) MarshalBCS(ser *bcs.Serializer) {
	ser.Uleb128(callArgPure)
	ser.WriteBytes(c.Pure)
}

func (c *CallArg) UnmarshalBCS(des *bcs.Deserializer) {
	if v := des.Uleb128(); v != callArgPure {
		des.SetError(fmt.Errorf("unsupported call arg variant %d", v))

		return
	}

	c.Pure = des.ReadBytes()
}

// CommandKind is the variant of a programmable transaction command.
type CommandKind uint8

// Command variants. Only the ones a wallet needs are encoded.
const (
	CmdMoveCall CommandKind = iota
	CmdTransferObjects
	CmdSplitCoins
	CmdMergeCoins
)

// Command is one step of a programmable transaction.
//
//	TransferObjects: Objects are sent to Target.
//	SplitCoins:      Target is split into Amounts.
//	MergeCoins:      Objects are merged into Target.
type Command struct {
	Kind    CommandKind
	Target  Argument
	Objects []Argument
	Amounts []Argument
}

func marshalArgs(ser *bcs.Serializer, args []Argument) {
	ser.Uleb128(uint32(len(args)))

	for i := range args {
		ser.Struct(&args[i])
	}
}

func unmarshalArgs(des *bcs.Deserializer) []Argument {
	n := des.Uleb128()
	if des.Error() != nil || int(n) > des.Remaining() {
		des.SetError(fmt.Errorf("bad argument count %d", n))

		return nil
	}

	args := make([]Argument, n)
	for i := range args {
		des.Struct(&args[i])
	}

	return args
}

func (c *Command) MarshalBCS(ser *bcs.Serializer) {
	ser.Uleb128(uint32(c.Kind))

	switch c.Kind {
	case CmdTransferObjects:
		marshalArgs(ser, c.Objects)
		ser.Struct(&c.Target)
	case CmdSplitCoins:
		ser.Struct(&c.Target)
		marshalArgs(ser, c.Amounts)
	case CmdMergeCoins:
		ser.Struct(&c.Target)
		marshalArgs(ser, c.Objects)
	default:
		ser.SetError(fmt.Errorf("unsupported command %d", c.Kind))
	}
}

func (c *Command) UnmarshalBCS(des *bcs.Deserializer) {
	c.Kind = CommandKind(des.Uleb128())

	switch c.Kind {
	case CmdTransferObjects:
		c.Objects = unmarshalArgs(des)
		des.Struct(&c.Target)
	case CmdSplitCoins:
		des.Struct(&c.Target)
		c.Amounts = unmarshalArgs(des)
	case CmdMergeCoins:
		des.Struct(&c.Target)
		c.Objects = unmarshalArgs(des)
	default:
		des.SetError(fmt.Errorf("unsupported command %d", c.Kind))
	}
}

// ProgrammableTransaction is a list of inputs and the commands that consume them.
type ProgrammableTransaction struct {
	Inputs   []CallArg
	Commands []Command
}

const kindProgrammable = 0

func (p *ProgrammableTransaction) MarshalBCS(ser *bcs.Serializer) {
	ser.Uleb128(kindProgrammable)
	ser.Uleb128(uint32(len(p.Inputs)))

	for i := range p.Inputs {
		ser.Struct(&p.Inputs[i])
	}

	ser.Uleb128(uint32(len(p.Commands)))

	for i := range p.Commands {
		ser.Struct(&p.Commands[i])
	}
}

func (p *ProgrammableTransaction) UnmarshalBCS(des *bcs.Deserializer) {
	if v := des.Uleb128(); v != kindProgrammable {
		des.SetError(fmt.Errorf("unsupported transaction kind %d", v))

		return
	}

	n := des.Uleb128()
	if des.Error() != nil || int(n) > des.Remaining() {
		des.SetError(fmt.Errorf("bad input count %d", n))

		return
	}

	p.Inputs = make([]CallArg, n)
	for i := range p.Inputs {
		des.Struct(&p.Inputs[i])
	}

	n = des.Uleb128()
	if des.Error() != nil || int(n) > des.Remaining() {
		des.SetError(fmt.Errorf("bad command count %d", n))

		return
	}

	p.Commands = make([]Command, n)
	for i := range p.Commands {
		des.Struct(&p.Commands[i])
	}
}

func marshalAddress(ser *bcs.Serializer, a types.Address) {
	ser.FixedBytes(a[:])
}

func unmarshalAddress(des *bcs.Deserializer) (a types.Address) {
	copy(a[:], des.ReadFixedBytes(types.AddressLength))

	return a
}

func marshalRef(ser *bcs.Serializer, r types.ObjectRef) {
	marshalAddress(ser, r.ObjectID)
	ser.U64(uint64(r.Version))
	ser.WriteBytes(r.Digest[:])
}

func unmarshalRef(des *bcs.Deserializer) (r types.ObjectRef) {
	r.ObjectID = unmarshalAddress(des)
	r.Version = types.U64(des.U64())

	d := des.ReadBytes()
	if des.Error() == nil && len(d) != types.DigestLength {
		des.SetError(fmt.Errorf("object digest has %d bytes", len(d)))

		return r
	}

	copy(r.Digest[:], d)

	return r
}

// GasData names the coins that pay for gas, their owner, the price per unit and the budget.
type GasData struct {
	Payment []types.ObjectRef
	Owner   types.Address
	Price   uint64
	Budget  uint64
}

func (g *GasData) MarshalBCS(ser *bcs.Serializer) {
	ser.Uleb128(uint32(len(g.Payment)))

	for _, r := range g.Payment {
		marshalRef(ser, r)
	}

	marshalAddress(ser, g.Owner)
	ser.U64(g.Price)
	ser.U64(g.Budget)
}

func (g *GasData) UnmarshalBCS(des *bcs.Deserializer) {
	n := des.Uleb128()
	if des.Error() != nil || int(n) > des.Remaining() {
		des.SetError(fmt.Errorf("bad payment count %d", n))

		return
	}

	g.Payment = make([]types.ObjectRef, n)
	for i := range g.Payment {
		g.Payment[i] = unmarshalRef(des)
	}

	g.Owner = unmarshalAddress(des)
	g.Price = des.U64()
	g.Budget = des.U64()
}

// Expiration bounds the epoch a transaction may execute in. A nil Epoch means no expiration.
type Expiration struct {
	Epoch *uint64
}

func (e *Expiration) MarshalBCS(ser *bcs.Serializer) {
	if e.Epoch == nil {
		ser.Uleb128(0)

		return
	}

	ser.Uleb128(1)
	ser.U64(*e.Epoch)
}

func (e *Expiration) UnmarshalBCS(des *bcs.Deserializer) {
	switch v := des.Uleb128(); v {
	case 0:
		e.Epoch = nil
	case 1:
		epoch := des.U64()
		e.Epoch = &epoch
	default:
		des.SetError(fmt.Errorf("unknown expiration variant %d", v))
	}
}

// TransactionData is the unsigned transaction (version 1).
type TransactionData struct {
	Kind       ProgrammableTransaction
	Sender     types.Address
	Gas        GasData
	Expiration Expiration
}

const dataV1 = 0

func (t *TransactionData) MarshalBCS(ser *bcs.Serializer) {
	ser.Uleb128(dataV1)
	ser.Struct(&t.Kind)
	marshalAddress(ser, t.Sender)
	ser.Struct(&t.Gas)
	ser.Struct(&t.Expiration)
}

func (t *TransactionData) UnmarshalBCS(des *bcs.Deserializer) {
	if v := des.Uleb128(); v != dataV1 {
		des.SetError(fmt.Errorf("unsupported transaction data version %d", v))

		return
	}

	des.Struct(&t.Kind)
	t.Sender = unmarshalAddress(des)
	des.Struct(&t.Gas)
	des.Struct(&t.Expiration)
}

// Marshal returns the BCS bytes of t.
func (t *TransactionData) Marshal() ([]byte, error) {
	return bcs.Serialize(t)
}

// Unmarshal decodes BCS transaction data. Trailing bytes are an error.
func Unmarshal(b []byte) (*TransactionData, error) {
	t := &TransactionData{}
	des := bcs.NewDeserializer(b)
	des.Struct(t)

	if err := des.Error(); err != nil {
		return nil, err
	}

	if des.Remaining() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after transaction data", des.Remaining())
	}

	return t, nil
}
