package sui

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarancss/suiadp/lib/block/sui/suitest"
	"github.com/tarancss/suiadp/lib/block/types"
	"github.com/tarancss/suiadp/lib/keys"
	"github.com/tarancss/suiadp/lib/txn"
)

var owner = types.Address{31: 0x42} //nolint:gochecknoglobals // testdata

func dial(t *testing.T, node *suitest.Node) *Client {
	t.Helper()

	c, err := Dial(context.Background(), node.URL, WithMaxBlocks(4))
	require.NoError(t, err)
	t.Cleanup(c.Close)

	return c
}

func TestDial(t *testing.T) {
	node := suitest.NewNode()
	defer node.Close()

	c := dial(t, node)
	assert.Equal(t, "1.38.0", c.APIVersion())
	assert.Equal(t, 4, c.MaxBlocks())
	assert.Equal(t, node.URL, c.URL())

	node.Version = "0.28.1"
	_, err := Dial(context.Background(), node.URL)
	assert.ErrorIs(t, err, ErrIncompatible)

	node.Version = "not-a-version"
	_, err = Dial(context.Background(), node.URL)
	assert.ErrorIs(t, err, ErrIncompatible)

	node.Version = "0.28.1"
	_, err = Dial(context.Background(), node.URL, WithMinAPIVersion("v0.20.0"))
	assert.NoError(t, err)

	_, err = DialNetwork(context.Background(), "moonnet")
	assert.ErrorIs(t, err, ErrUnknownNetwork)
}

func TestDialUnreachable(t *testing.T) {
	node := suitest.NewNode()
	url := node.URL
	node.Close()

	_, err := Dial(context.Background(), url)
	assert.Error(t, err)
}

func TestCoins(t *testing.T) {
	node := suitest.NewNode()
	defer node.Close()

	node.PageSize = 2
	for i := uint64(1); i <= 5; i++ {
		node.AddCoin(owner, "", i*100)
	}

	node.AddCoin(owner, "0xabc::usdc::USDC", 7)

	c := dial(t, node)
	ctx := context.Background()

	var total uint64

	n := 0

	for coin, err := range c.Coins(ctx, owner, "") {
		require.NoError(t, err)

		total += uint64(coin.Balance)
		n++
	}

	assert.Equal(t, 5, n)
	assert.Equal(t, uint64(1500), total)
	assert.Equal(t, 3, node.Calls("suix_getCoins"))

	// stopping early does not fetch more pages, and ranging again starts over
	for coin, err := range c.Coins(ctx, owner, types.SuiCoinType) {
		require.NoError(t, err)
		assert.Equal(t, types.U64(100), coin.Balance)

		break
	}

	assert.Equal(t, 4, node.Calls("suix_getCoins"))

	b, err := c.Balance(ctx, owner, "")
	require.NoError(t, err)
	assert.Equal(t, "1500", b.TotalBalance.String())
	assert.Equal(t, 5, b.CoinObjectCount)

	all, err := c.AllBalances(ctx, owner)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "0xabc::usdc::USDC", all[1].CoinType)
	assert.Equal(t, "7", all[1].TotalBalance.String())
}

func TestCoinsError(t *testing.T) {
	node := suitest.NewNode()
	defer node.Close()

	c := dial(t, node)
	node.Fail["suix_getCoins"] = true

	var errs int

	for _, err := range c.Coins(context.Background(), owner, "") {
		assert.Error(t, err)

		errs++
	}

	assert.Equal(t, 1, errs)
}

func TestMetadataAndSupply(t *testing.T) {
	node := suitest.NewNode()
	defer node.Close()

	c := dial(t, node)
	ctx := context.Background()

	md, err := c.CoinMetadata(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "SUI", md.Symbol)
	assert.Equal(t, uint8(9), md.Decimals)

	_, err = c.CoinMetadata(ctx, "0x1::nope::NOPE")
	assert.ErrorIs(t, err, types.ErrUnknownCoinType)

	s, err := c.TotalSupply(ctx, types.SuiCoinType)
	require.NoError(t, err)
	assert.Equal(t, "10000000000000000000", s.Value.String())
}

func TestExecuteAndGet(t *testing.T) {
	node := suitest.NewNode()
	defer node.Close()

	kp, err := keys.Generate()
	require.NoError(t, err)

	sender := keys.Address(kp)
	coin := node.AddCoin(sender, "", 10*types.MistPerSui)

	c := dial(t, node)
	ctx := context.Background()

	price, err := c.ReferenceGasPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(750), price)

	b, err := txn.TransferIntent{
		Sender: sender, Recipient: owner, Amount: 1000, GasCoin: coin.Ref(), GasPrice: price, GasBudget: 5_000_000,
	}.Bytes()
	require.NoError(t, err)

	st, err := txn.Sign(kp, b)
	require.NoError(t, err)

	res, err := c.Execute(ctx, st, types.ResponseOptions{ShowEffects: true}, types.WaitForEffectsCert)
	require.NoError(t, err)
	assert.Equal(t, txn.Digest(b).String(), res.Digest)
	assert.True(t, res.Effects.Succeeded())

	subs := node.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, string(types.WaitForEffectsCert), subs[0].Mode)

	// second use of the same coin version is a conflict
	_, err = c.Execute(ctx, st, types.ResponseOptions{ShowEffects: true}, types.WaitForEffectsCert)
	assert.Error(t, err)

	got, err := c.GetTransaction(ctx, res.Digest, types.FullContent())
	require.NoError(t, err)
	assert.Equal(t, sender.String(), got.Transaction.Data.Sender)

	_, err = c.GetTransaction(ctx, "bad", types.FullContent())
	assert.ErrorIs(t, err, types.ErrBadDigest)
}

func TestCheckpoints(t *testing.T) {
	node := suitest.NewNode()
	defer node.Close()

	kp, err := keys.Generate()
	require.NoError(t, err)

	sender := keys.Address(kp)
	coin := node.AddCoin(sender, "", 10*types.MistPerSui)

	node.Seal()

	c := dial(t, node)
	ctx := context.Background()

	b, err := txn.TransferIntent{
		Sender: sender, Recipient: owner, Amount: 1000, GasCoin: coin.Ref(), GasPrice: 750, GasBudget: 5_000_000,
	}.Bytes()
	require.NoError(t, err)
	st, err := txn.Sign(kp, b)
	require.NoError(t, err)
	_, err = c.Execute(ctx, st, types.ResponseOptions{}, types.WaitForEffectsCert)
	require.NoError(t, err)

	cp1 := node.Seal()

	latest, err := c.LatestCheckpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), latest)

	cp, err := c.GetCheckpoint(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, cp1.Digest, cp.Digest)
	assert.NotEmpty(t, cp.PreviousDigest)

	_, err = c.GetCheckpoint(ctx, 2)
	assert.ErrorIs(t, err, types.ErrNoCheckpoint)

	txs, err := c.DecodeTxs(ctx, cp)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, sender.String(), txs[0].From)
	assert.Equal(t, owner.String(), txs[0].To)
	assert.Equal(t, "1000", txs[0].Value)
	assert.Equal(t, types.TrxSuccess, txs[0].Status)
	assert.Equal(t, uint64(1), txs[0].Checkpoint)
	assert.Equal(t, uint64(750), txs[0].Price)
}

func TestDecodeTx(t *testing.T) {
	var r types.TxResponse
	require.NoError(t, json.Unmarshal([]byte(`{
		"digest": "3Sb5fYxG9ohxQ5f3XhqdADVUgWfWAzxPbUkGnHnfVpXp",
		"transaction": {"data": {"sender": "0x01", "gasData": {"price": "1000", "budget": "5000000",
			"owner": "0x01", "payment": []}}},
		"effects": {"status": {"status": "failure", "error": "InsufficientGas"},
			"gasUsed": {"computationCost": "1000", "storageCost": "0", "storageRebate": "0",
				"nonRefundableStorageFee": "0"}},
		"balanceChanges": [
			{"owner": {"AddressOwner": "0x01"}, "coinType": "0x2::sui::SUI", "amount": "-1000"},
			{"owner": {"Shared": {"initial_shared_version": 1}}, "coinType": "0x2::sui::SUI", "amount": "10"}
		],
		"timestampMs": "1700000000000"
	}`), &r))

	tr, err := DecodeTx(&r)
	require.NoError(t, err)
	assert.Equal(t, "0x01", tr.From)
	assert.Empty(t, tr.To)
	assert.Equal(t, types.TrxFailed, tr.Status)
	assert.Equal(t, uint64(1000), tr.Gas)
	assert.Equal(t, uint64(1700000000000), tr.TS)

	_, err = DecodeTx(&types.TxResponse{Digest: "x"})
	assert.ErrorIs(t, err, types.ErrNoSender)
}
