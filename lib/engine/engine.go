// Package engine sends SUI from one wallet. An Engine holds the sender's key and a network client and runs the
// transfer workflow: validate the recipient, pick the first gas coin, resolve the gas price, build the transfer,
// sign it and submit it waiting for the effects certificate.
//
// An Engine is safe for concurrent use, but it does not coordinate gas coin selection between concurrent transfers
// of the same sender. Two transfers that pick the same coin conflict on the node and one of them fails with a
// network error, so callers should serialize transfers of one sender.
package engine

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tarancss/suiadp/lib/block/sui"
	"github.com/tarancss/suiadp/lib/block/types"
	"github.com/tarancss/suiadp/lib/keys"
	"github.com/tarancss/suiadp/lib/logx"
	"github.com/tarancss/suiadp/lib/txn"
)

// Client is the part of a network connection used by the engine.
type Client interface {
	CoinPage(ctx context.Context, owner types.Address, coinType string, cursor *string, limit uint) (types.CoinPage,
		error)
	Balance(ctx context.Context, owner types.Address, coinType string) (types.Balance, error)
	ReferenceGasPrice(ctx context.Context) (uint64, error)
	Execute(ctx context.Context, st *txn.SignedTransaction, opts types.ResponseOptions,
		mode types.ExecuteMode) (*types.TxResponse, error)
}

// GasPriceMode decides the gas price of a transfer that does not set one.
type GasPriceMode int

// Gas price modes.
const (
	// GasPriceReference queries the network reference gas price.
	GasPriceReference GasPriceMode = iota
	// GasPriceFixed uses the configured fixed price.
	GasPriceFixed
)

// Defaults.
const (
	DefaultGasBudget     uint64 = 5_000_000
	DefaultFixedGasPrice uint64 = 9_999_999
)

var transfers = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
	Namespace: "suiadp",
	Subsystem: "engine",
	Name:      "transfers_total",
	Help:      "SUI transfers by outcome.",
}, []string{"outcome"})

// Engine sends SUI on behalf of one sender.
type Engine struct {
	sender    types.Address
	key       keys.KeyPair
	client    Client
	closer    func()
	gasBudget uint64
	priceMode GasPriceMode
	fixed     uint64
	dialOpts  []sui.Option
}

// Option configures an Engine.
type Option func(*Engine)

// WithGasBudget sets the budget of transfers that do not set one.
func WithGasBudget(budget uint64) Option {
	return func(e *Engine) {
		if budget > 0 {
			e.gasBudget = budget
		}
	}
}

// WithGasPrice sets the gas price mode. fixed is used in GasPriceFixed mode; 0 keeps DefaultFixedGasPrice.
func WithGasPrice(mode GasPriceMode, fixed uint64) Option {
	return func(e *Engine) {
		e.priceMode = mode
		if fixed > 0 {
			e.fixed = fixed
		}
	}
}

// WithDialOptions passes options to the network client created by New.
func WithDialOptions(opts ...sui.Option) Option {
	return func(e *Engine) { e.dialOpts = append(e.dialOpts, opts...) }
}

// New imports the private key and connects to the node at url.
func New(ctx context.Context, url, privateKey string, opts ...Option) (*Engine, error) {
	kp, err := keys.Import(privateKey)
	if err != nil {
		return nil, &Error{Kind: KindDecode, Stage: StageIdle, Err: err}
	}

	e := newEngine(nil, kp, opts)

	c, err := sui.Dial(ctx, url, e.dialOpts...)
	if err != nil {
		return nil, &Error{Kind: KindConnection, Stage: StageIdle, Err: err}
	}

	e.client = c
	e.closer = c.Close

	return e, nil
}

// NewWithClient returns an engine over an existing client. Close does not close the client.
func NewWithClient(c Client, kp keys.KeyPair, opts ...Option) *Engine {
	return newEngine(c, kp, opts)
}

func newEngine(c Client, kp keys.KeyPair, opts []Option) *Engine {
	e := &Engine{
		sender:    keys.Address(kp),
		key:       kp,
		client:    c,
		gasBudget: DefaultGasBudget,
		priceMode: GasPriceReference,
		fixed:     DefaultFixedGasPrice,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Close releases the client created by New.
func (e *Engine) Close() {
	if e.closer != nil {
		e.closer()
	}
}

// Sender returns the address of the engine's key.
func (e *Engine) Sender() types.Address { return e.sender }

// Balance returns the sender's balance of coinType ("" for SUI).
func (e *Engine) Balance(ctx context.Context, coinType string) (types.Balance, error) {
	b, err := e.client.Balance(ctx, e.sender, coinType)
	if err != nil {
		return b, &Error{Kind: KindNetwork, Stage: StageIdle, Err: errors.Wrap(err, "get balance")}
	}

	return b, nil
}

// TransferRequest asks to send Amount SUI to Recipient. Nil GasBudget and GasPrice use the engine's policy.
type TransferRequest struct {
	Recipient string
	Amount    float64
	GasBudget *uint64
	GasPrice  *uint64
}

// Result is the outcome of a submitted transfer.
type Result struct {
	Digest   string
	Effects  *types.Effects
	Response *types.TxResponse
	Intent   txn.TransferIntent
	Stage    Stage
}

// TransferSui runs the transfer workflow. When the node executed the transaction but its effects report a failure,
// both the Result and a KindExecutionFailure error are returned.
func (e *Engine) TransferSui(ctx context.Context, req TransferRequest) (*Result, error) {
	res, err := e.transfer(ctx, req)

	outcome := "ok"
	if err != nil {
		outcome = KindOf(err).String()

		logx.Warn("ENGINE", "transfer from ", e.sender, " failed: ", err)
	} else {
		logx.Info("ENGINE", "transfer ", res.Digest, " confirmed")
	}

	transfers.WithLabelValues(outcome).Inc()

	return res, err
}

func (e *Engine) transfer(ctx context.Context, req TransferRequest) (*Result, error) {
	stage := StageIdle
	fail := func(kind Kind, err error) error {
		return &Error{Kind: kind, Stage: stage, Err: err}
	}

	recipient, err := types.ParseAddress(req.Recipient)
	if err != nil {
		return nil, fail(KindInvalidRecipient, errors.Wrapf(err, "recipient %q", req.Recipient))
	}

	mist, err := ScaleAmount(req.Amount)
	if err != nil {
		return nil, fail(KindInvalidAmount, errors.Wrapf(err, "amount %v", req.Amount))
	}

	stage = StageRecipientValidated

	page, err := e.client.CoinPage(ctx, e.sender, types.SuiCoinType, nil, 1)
	if err != nil {
		return nil, fail(KindNetwork, errors.Wrap(err, "get gas coin"))
	}

	if len(page.Data) == 0 {
		return nil, fail(KindNoFunds, ErrNoFunds)
	}

	gasCoin := page.Data[0].Ref()
	stage = StageGasCoinSelected

	price, err := e.gasPrice(ctx, req.GasPrice)
	if err != nil {
		return nil, fail(KindNetwork, errors.Wrap(err, "get gas price"))
	}

	stage = StagePriceResolved

	budget := e.gasBudget
	if req.GasBudget != nil {
		budget = *req.GasBudget
	}

	intent := txn.TransferIntent{
		Sender:    e.sender,
		Recipient: recipient,
		Amount:    mist,
		GasCoin:   gasCoin,
		GasPrice:  price,
		GasBudget: budget,
	}

	txBytes, err := intent.Bytes()
	if err != nil {
		return nil, fail(KindDecode, err)
	}

	stage = StageIntentBuilt

	st, err := txn.Sign(e.key, txBytes)
	if err != nil {
		return nil, fail(KindDecode, err)
	}

	stage = StageSigned

	logx.Debug("ENGINE", "submitting ", mist, " MIST to ", recipient, " gas coin ", gasCoin.ObjectID, " v",
		gasCoin.Version, " price ", price, " budget ", budget)

	resp, err := e.client.Execute(ctx, st, types.ResponseOptions{ShowEffects: true}, types.WaitForEffectsCert)
	if err != nil {
		return nil, fail(KindNetwork, errors.Wrap(err, "execute transaction"))
	}

	stage = StageSubmitted
	res := &Result{Digest: resp.Digest, Effects: resp.Effects, Response: resp, Intent: intent, Stage: stage}

	if resp.Effects == nil {
		return res, fail(KindExecutionFailure, ErrNoEffects)
	}

	if !resp.Effects.Succeeded() {
		return res, fail(KindExecutionFailure, errors.Errorf("transaction %s: %s %s", resp.Digest,
			resp.Effects.Status.Status, resp.Effects.Status.Error))
	}

	res.Stage = StageConfirmed

	return res, nil
}

func (e *Engine) gasPrice(ctx context.Context, explicit *uint64) (uint64, error) {
	if explicit != nil {
		return *explicit, nil
	}

	if e.priceMode == GasPriceFixed {
		return e.fixed, nil
	}

	return e.client.ReferenceGasPrice(ctx)
}
