package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarancss/suiadp/lib/block/sui/suitest"
	"github.com/tarancss/suiadp/lib/block/types"
	"github.com/tarancss/suiadp/lib/config"
	"github.com/tarancss/suiadp/lib/engine"
	"github.com/tarancss/suiadp/lib/keys"
)

func run(t *testing.T, env config.Env, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	root := newRootCmd(env)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())

	return out.String(), err
}

func TestNetwork(t *testing.T) {
	node := suitest.NewNode()
	defer node.Close()

	out, err := run(t, config.Env{RPCURL: node.URL}, "network", "--presets", "")
	require.NoError(t, err)
	assert.Equal(t, node.URL+" version: 1.38.0\n", out)

	_, err = run(t, config.Env{}, "network", "--presets", "nowhere")
	assert.ErrorContains(t, err, "nowhere")
}

func TestToken(t *testing.T) {
	node := suitest.NewNode()
	defer node.Close()

	owner := types.Address{31: 0xa1}
	node.AddCoin(owner, "", 3*types.MistPerSui)
	node.AddCoin(owner, "", 2*types.MistPerSui)

	env := config.Env{RPCURL: node.URL, WalletAddress: owner.String()}

	out, err := run(t, env, "token")
	require.NoError(t, err)
	assert.Contains(t, out, `"symbol": "SUI"`)
	assert.Contains(t, out, "total_supply = 10000000000000000000")
	assert.Contains(t, out, "balance 3000000000")
	assert.Contains(t, out, "balance 2000000000")
	assert.Contains(t, out, `"totalBalance": "5000000000"`)

	_, err = run(t, config.Env{RPCURL: node.URL}, "token")
	assert.ErrorContains(t, err, "--address")

	_, err = run(t, env, "token", "--coin", "0xabc::usdc::USDC")
	assert.ErrorIs(t, err, types.ErrUnknownCoinType)
}

func TestKeypair(t *testing.T) {
	kp, err := keys.Generate()
	require.NoError(t, err)

	priv, err := keys.EncodeBech32(kp)
	require.NoError(t, err)

	out, err := run(t, config.Env{WalletPrivate: priv}, "keypair", "import")
	require.NoError(t, err)
	assert.Contains(t, out, "SuiAddress: "+keys.Address(kp).String())

	out, err = run(t, config.Env{}, "keypair", "import", "--key", keys.EncodeBase64(kp))
	require.NoError(t, err)
	assert.Contains(t, out, keys.Address(kp).String())

	_, err = run(t, config.Env{}, "keypair", "import", "--key", "suiprivkey1bad")

	var de *keys.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, keys.EncodingBech32, de.Encoding)

	out, err = run(t, config.Env{}, "keypair", "generate")
	require.NoError(t, err)
	assert.Contains(t, out, "private key: suiprivkey1")
}

func TestTransfer(t *testing.T) {
	node := suitest.NewNode()
	defer node.Close()

	kp, err := keys.Generate()
	require.NoError(t, err)

	priv, err := keys.EncodeBech32(kp)
	require.NoError(t, err)

	node.AddCoin(keys.Address(kp), "", 2*types.MistPerSui)

	to := types.Address{31: 0xb0}
	env := config.Env{RPCURL: node.URL, WalletPrivate: priv, RecipientAddress: to.String()}

	out, err := run(t, env, "transfer", "--amount", "0.5", "--gas-price", "1000")
	require.NoError(t, err)
	assert.Contains(t, out, "status: success")
	assert.Contains(t, out, "stage: "+engine.StageConfirmed.String())

	subs := node.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, uint64(500_000_000), subs[0].Intent.Amount)
	assert.Equal(t, uint64(1000), subs[0].Intent.GasPrice)
	assert.Equal(t, engine.DefaultGasBudget, subs[0].Intent.GasBudget)
	assert.Equal(t, to, subs[0].Intent.Recipient)

	_, err = run(t, env, "transfer", "--amount", "0.5", "--to", "0xzz")
	assert.Equal(t, engine.KindInvalidRecipient, engine.KindOf(err))

	_, err = run(t, config.Env{RPCURL: node.URL}, "transfer", "--amount", "1")
	assert.ErrorContains(t, err, "--key")
}
