package block

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarancss/suiadp/lib/block/sui/suitest"
	"github.com/tarancss/suiadp/lib/config"
)

func TestInit(t *testing.T) {
	node := suitest.NewNode()
	defer node.Close()

	bc, err := Init(context.Background(), []config.BlockConfig{
		{Name: "localnet", Node: node.URL, MaxBlocks: 4, Timeout: 5},
		{Name: "private", Node: node.URL, Secret: "user:pass"},
		{Name: "unknown"}, // no node and no preset
	})
	require.NoError(t, err)
	defer End(bc)

	require.Len(t, bc, 2)
	assert.Equal(t, 4, bc["localnet"].MaxBlocks())
	assert.Equal(t, "1.38.0", bc["private"].APIVersion())
}

func TestInitFails(t *testing.T) {
	node := suitest.NewNode()
	defer node.Close()

	node.Version = "0.1.0"

	_, err := Init(context.Background(), []config.BlockConfig{{Name: "localnet", Node: node.URL}})
	assert.Error(t, err)
}
