// config_test.go tests config files
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileToTest is a relative path to the configuration file to test (ie. suiadp/cmd/conf.json)
var fileToTest = "../../cmd/conf.json"

// TestConfig extracts config from a file and checks values loaded
func TestConfig(t *testing.T) {
	conf, err := ExtractConfiguration(fileToTest)
	require.NoError(t, err)

	assert.Equal(t, "3030", conf.Port)
	require.Len(t, conf.Bc, 3)
	assert.Equal(t, "testnet", conf.Bc[0].Name)
	assert.Equal(t, "devnet", conf.Bc[1].Name)
	assert.Equal(t, "localnet", conf.Bc[2].Name)
	assert.Equal(t, GasPriceFixed, conf.Bc[2].GasPriceMode)
	assert.Equal(t, uint64(1000), conf.Bc[2].FixedGasPrice)
	assert.Equal(t, 10, conf.Log.MaxSizeMB)
}

func TestConfigYAML(t *testing.T) {
	file := filepath.Join(t.TempDir(), "conf.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
dbtype: mongodb
dbconn: mongodb://localhost
port: "8080"
blockchains:
  - name: localnet
    node: http://127.0.0.1:9000
    maxBlocks: 4
    gasBudget: 2000000
log:
  debug: true
`), 0o600))

	conf, err := ExtractConfiguration(file)
	require.NoError(t, err)

	assert.Equal(t, "mongodb", conf.DBType)
	assert.Equal(t, "8080", conf.Port)
	require.Len(t, conf.Bc, 1)
	assert.Equal(t, uint64(2000000), conf.Bc[0].GasBudget)
	assert.True(t, conf.Log.Debug)
	// untouched values keep their defaults
	assert.Equal(t, MbTypeDefault, conf.MbType)
}

func TestConfigEnv(t *testing.T) {
	t.Setenv("SUIADP_DBTYPE", "postgres")
	t.Setenv("SUIADP_PORT", "9999")
	t.Setenv("SUIADP_BLOCKCHAINS", `[{"name":"devnet","node":"http://localhost:1","maxBlocks":2}]`)

	conf, err := ExtractConfiguration("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", conf.DBType)
	assert.Equal(t, "9999", conf.Port)
	require.Len(t, conf.Bc, 1)
	assert.Equal(t, "devnet", conf.Bc[0].Name)

	t.Setenv("SUIADP_BLOCKCHAINS", "not json")
	_, err = ExtractConfiguration("")
	assert.Error(t, err)
}

func TestConfigMissingFile(t *testing.T) {
	_, err := ExtractConfiguration(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("SUI_RPC_URL", "http://127.0.0.1:9000")
	t.Setenv("SUI_WALLET_ADDRESS", "0x1")
	t.Setenv("SUI_WALLET_PRIVATE", "suiprivkey1xyz")
	t.Setenv("SUI_RECIPIENT_ADDRESS", "0x2")

	assert.Equal(t, Env{
		RPCURL:           "http://127.0.0.1:9000",
		WalletAddress:    "0x1",
		WalletPrivate:    "suiprivkey1xyz",
		RecipientAddress: "0x2",
	}, FromEnv())
}
