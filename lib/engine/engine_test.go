package engine

import (
	"bytes"
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarancss/suiadp/lib/block/sui/suitest"
	"github.com/tarancss/suiadp/lib/block/types"
	"github.com/tarancss/suiadp/lib/config"
	"github.com/tarancss/suiadp/lib/keys"
	"github.com/tarancss/suiadp/lib/txn"
)

const recipient = "0x00000000000000000000000000000000000000000000000000000000000000b0"

// fakeClient counts calls and serves a fixed coin inventory.
type fakeClient struct {
	mu       sync.Mutex
	coins    []types.Coin
	price    uint64
	priceErr error
	execErr  error
	status   string
	calls    map[string]int
	executed []*txn.SignedTransaction
}

func newFakeClient(coins ...types.Coin) *fakeClient {
	return &fakeClient{coins: coins, price: 1000, status: types.StatusSuccess, calls: map[string]int{}}
}

func (f *fakeClient) count(m string) {
	f.mu.Lock()
	f.calls[m]++
	f.mu.Unlock()
}

func (f *fakeClient) CoinPage(_ context.Context, _ types.Address, _ string, _ *string,
	limit uint) (types.CoinPage, error) {
	f.count("coins")

	n := min(int(limit), len(f.coins))

	return types.CoinPage{Data: f.coins[:n], HasNextPage: n < len(f.coins)}, nil
}

func (f *fakeClient) Balance(_ context.Context, _ types.Address, coinType string) (types.Balance, error) {
	f.count("balance")

	var total uint64
	for _, c := range f.coins {
		total += uint64(c.Balance)
	}

	return types.Balance{CoinType: coinType, CoinObjectCount: len(f.coins), TotalBalance: types.NewBigInt(total)}, nil
}

func (f *fakeClient) ReferenceGasPrice(context.Context) (uint64, error) {
	f.count("price")

	return f.price, f.priceErr
}

func (f *fakeClient) Execute(_ context.Context, st *txn.SignedTransaction, _ types.ResponseOptions,
	_ types.ExecuteMode) (*types.TxResponse, error) {
	f.count("execute")

	if f.execErr != nil {
		return nil, f.execErr
	}

	f.mu.Lock()
	f.executed = append(f.executed, st)
	f.mu.Unlock()

	d, err := st.Digest()
	if err != nil {
		return nil, err
	}

	return &types.TxResponse{Digest: d.String(), Effects: &types.Effects{Status: types.ExecutionStatus{Status: f.status}}}, nil
}

// countingKey counts signatures.
type countingKey struct {
	keys.KeyPair
	signs int
}

func (k *countingKey) Sign(digest []byte) ([]byte, error) {
	k.signs++

	return k.KeyPair.Sign(digest)
}

func newKey(t *testing.T) *countingKey {
	t.Helper()

	kp, err := keys.New(keys.Ed25519, bytes.Repeat([]byte{3}, keys.PrivateKeySize))
	require.NoError(t, err)

	return &countingKey{KeyPair: kp}
}

func gasCoin() types.Coin {
	return types.Coin{
		CoinType: types.SuiCoinType, CoinObjectID: types.Address{31: 1}, Version: 3, Digest: types.Digest{1: 9},
		Balance: 10 * types.MistPerSui,
	}
}

func ptr(v uint64) *uint64 { return &v }

func TestScaleAmountProperty(t *testing.T) {
	f := fuzz.New().NilChance(0).Funcs(func(a *float64, c fuzz.Continue) {
		*a = c.Float64() * 1e6
	})

	for i := 0; i < 2000; i++ {
		var a float64
		f.Fuzz(&a)

		mist, err := ScaleAmount(a)
		require.NoError(t, err)
		assert.Equal(t, uint64(math.Round(a*1e9)), mist)

		// back through the display transform and again stays within one unit
		again, err := ScaleAmount(FormatAmount(mist))
		require.NoError(t, err)

		diff := int64(again) - int64(mist)
		assert.LessOrEqual(t, diff, int64(1), "amount %v", a)
		assert.GreaterOrEqual(t, diff, int64(-1), "amount %v", a)
	}
}

func TestScaleAmountEdges(t *testing.T) {
	m, err := ScaleAmount(0)
	require.NoError(t, err)
	assert.Zero(t, m)

	m, err = ScaleAmount(1.5)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000_000), m)

	m, err = ScaleAmount(0.000000001)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), m)

	m, err = ScaleAmount(0.0000000004)
	require.NoError(t, err)
	assert.Zero(t, m)

	for _, bad := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err = ScaleAmount(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}

	_, err = ScaleAmount(2e10)
	assert.ErrorIs(t, err, ErrAmountRange)
}

func TestMalformedRecipient(t *testing.T) {
	for _, r := range []string{"", "0x", "hello", "0xzz", "0x" + string(bytes.Repeat([]byte{'1'}, 65)),
		"1234"} {
		c := newFakeClient(gasCoin())
		e := NewWithClient(c, newKey(t))

		res, err := e.TransferSui(context.Background(), TransferRequest{Recipient: r, Amount: 1})
		require.Error(t, err, r)
		assert.Nil(t, res)
		assert.Equal(t, KindInvalidRecipient, KindOf(err), r)
		assert.Zero(t, c.calls["execute"], r)
		assert.Zero(t, c.calls["coins"], r)
	}
}

func TestInvalidAmount(t *testing.T) {
	c := newFakeClient(gasCoin())
	e := NewWithClient(c, newKey(t))

	_, err := e.TransferSui(context.Background(), TransferRequest{Recipient: recipient, Amount: -2})
	assert.Equal(t, KindInvalidAmount, KindOf(err))
	assert.Zero(t, c.calls["execute"])
}

func TestNoFunds(t *testing.T) {
	c := newFakeClient()
	k := newKey(t)
	e := NewWithClient(c, k)

	_, err := e.TransferSui(context.Background(), TransferRequest{Recipient: recipient, Amount: 1})
	require.Error(t, err)

	var ee *Error
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, KindNoFunds, ee.Kind)
	assert.Equal(t, StageRecipientValidated, ee.Stage)
	assert.ErrorIs(t, err, ErrNoFunds)
	assert.Zero(t, k.signs)
	assert.Zero(t, c.calls["execute"])
	assert.Zero(t, c.calls["price"])
}

func TestGasPricePolicy(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		explicit *uint64
		want     uint64
		queried  int
	}{
		{"reference queried", nil, nil, 1000, 1},
		{"reference explicit", nil, ptr(42), 42, 0},
		{"fixed default", []Option{WithGasPrice(GasPriceFixed, 0)}, nil, DefaultFixedGasPrice, 0},
		{"fixed configured", []Option{WithGasPrice(GasPriceFixed, 777)}, nil, 777, 0},
		{"fixed explicit", []Option{WithGasPrice(GasPriceFixed, 777)}, ptr(43), 43, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newFakeClient(gasCoin())
			e := NewWithClient(c, newKey(t), tt.opts...)

			res, err := e.TransferSui(context.Background(),
				TransferRequest{Recipient: recipient, Amount: 0.25, GasPrice: tt.explicit})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Intent.GasPrice)
			assert.Equal(t, tt.queried, c.calls["price"])
			assert.Equal(t, DefaultGasBudget, res.Intent.GasBudget)
			assert.Equal(t, StageConfirmed, res.Stage)
		})
	}
}

func TestNetworkErrors(t *testing.T) {
	c := newFakeClient(gasCoin())
	c.priceErr = errors.New("boom")
	e := NewWithClient(c, newKey(t))

	_, err := e.TransferSui(context.Background(), TransferRequest{Recipient: recipient, Amount: 1})
	assert.Equal(t, KindNetwork, KindOf(err))

	c = newFakeClient(gasCoin())
	c.execErr = errors.New("conflict")
	e = NewWithClient(c, newKey(t))

	_, err = e.TransferSui(context.Background(), TransferRequest{Recipient: recipient, Amount: 1})

	var ee *Error
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, KindNetwork, ee.Kind)
	assert.Equal(t, StageSigned, ee.Stage)
}

func TestExecutionFailure(t *testing.T) {
	c := newFakeClient(gasCoin())
	c.status = types.StatusFailure
	e := NewWithClient(c, newKey(t))

	res, err := e.TransferSui(context.Background(), TransferRequest{Recipient: recipient, Amount: 1})
	assert.Equal(t, KindExecutionFailure, KindOf(err))
	require.NotNil(t, res)
	assert.NotEmpty(t, res.Digest)
	assert.Equal(t, StageSubmitted, res.Stage)
}

func TestBalanceAndSender(t *testing.T) {
	c := newFakeClient(gasCoin(), gasCoin())
	k := newKey(t)
	e := NewWithClient(c, k)

	assert.Equal(t, keys.Address(k.KeyPair), e.Sender())

	b, err := e.Balance(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "20000000000", b.TotalBalance.String())
}

func TestEndToEnd(t *testing.T) {
	node := suitest.NewNode()
	defer node.Close()

	kp, err := keys.Generate()
	require.NoError(t, err)

	const synthetic = "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi"

	node.Digest = synthetic
	coin := node.AddCoin(keys.Address(kp), "", 5*types.MistPerSui)

	b64 := keys.EncodeBase64(kp)

	e, err := New(context.Background(), node.URL, b64)
	require.NoError(t, err)
	defer e.Close()

	res, err := e.TransferSui(context.Background(), TransferRequest{
		Recipient: recipient, Amount: 1.234567891, GasPrice: ptr(1200), GasBudget: ptr(3_000_000),
	})
	require.NoError(t, err)
	assert.Equal(t, synthetic, res.Digest)
	assert.True(t, res.Effects.Succeeded())

	subs := node.Submissions()
	require.Len(t, subs, 1)

	in := subs[0].Intent
	assert.Equal(t, uint64(1_234_567_891), in.Amount)
	assert.Equal(t, uint64(1200), in.GasPrice)
	assert.Equal(t, uint64(3_000_000), in.GasBudget)
	assert.Equal(t, coin.Ref(), in.GasCoin)
	assert.Equal(t, keys.Address(kp), in.Sender)
	assert.Equal(t, recipient, in.Recipient.String())
	assert.Equal(t, string(types.WaitForEffectsCert), subs[0].Mode)
	assert.Zero(t, node.Calls("suix_getReferenceGasPrice"))
}

func TestNewErrors(t *testing.T) {
	_, err := New(context.Background(), "http://127.0.0.1:1", "suiprivkey1bad")
	assert.Equal(t, KindDecode, KindOf(err))

	var de *keys.DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, keys.EncodingBech32, de.Encoding)

	kp, err := keys.Generate()
	require.NoError(t, err)

	node := suitest.NewNode()
	url := node.URL
	node.Close()

	_, err = New(context.Background(), url, keys.EncodeBase64(kp))
	assert.Equal(t, KindConnection, KindOf(err))
}

func TestConcurrentTransfersConflict(t *testing.T) {
	node := suitest.NewNode()
	defer node.Close()

	kp, err := keys.Generate()
	require.NoError(t, err)

	node.AddCoin(keys.Address(kp), "", 5*types.MistPerSui)

	e, err := New(context.Background(), node.URL, keys.EncodeBase64(kp))
	require.NoError(t, err)
	defer e.Close()

	var wg sync.WaitGroup

	errs := make([]error, 2)

	for i := range errs {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			_, errs[i] = e.TransferSui(context.Background(), TransferRequest{Recipient: recipient, Amount: 0.1})
		}(i)
	}

	wg.Wait()

	var ok, conflicts int

	for _, err := range errs {
		switch KindOf(err) {
		case 0:
			ok++
		case KindNetwork:
			conflicts++
		}
	}

	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
	assert.Len(t, node.Submissions(), 2)
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := Options(config.BlockConfig{GasBudget: 7, GasPriceMode: "fixed", FixedGasPrice: 5, Timeout: 3})
	require.NoError(t, err)

	e := NewWithClient(newFakeClient(), newKey(t), opts...)
	assert.Equal(t, uint64(7), e.gasBudget)
	assert.Equal(t, GasPriceFixed, e.priceMode)
	assert.Equal(t, uint64(5), e.fixed)
	assert.Len(t, e.dialOpts, 2)

	_, err = Options(config.BlockConfig{GasPriceMode: "auction"})
	assert.Error(t, err)
}
