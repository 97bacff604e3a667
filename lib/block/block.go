// Package block defines the interface required for all network connections and loads them from the configuration.
package block

import (
	"context"
	"time"

	"github.com/tarancss/suiadp/lib/block/sui"
	"github.com/tarancss/suiadp/lib/block/types"
	"github.com/tarancss/suiadp/lib/config"
	"github.com/tarancss/suiadp/lib/logx"
	"github.com/tarancss/suiadp/lib/txn"
)

// Chain is an interface that contains the required methods of a network connection used by the wallet and the
// explorer services.
type Chain interface {
	// member-type methods
	MaxBlocks() int // number of checkpoints that are controlled to check the chain
	AvgBlock() int  // average checkpoint interval in seconds
	APIVersion() string
	// methods
	Close()
	Balance(ctx context.Context, owner types.Address, coinType string) (types.Balance, error)
	AllBalances(ctx context.Context, owner types.Address) ([]types.Balance, error)
	CoinPage(ctx context.Context, owner types.Address, coinType string, cursor *string, limit uint) (types.CoinPage,
		error)
	CoinMetadata(ctx context.Context, coinType string) (types.CoinMetadata, error)
	TotalSupply(ctx context.Context, coinType string) (types.Supply, error)
	ReferenceGasPrice(ctx context.Context) (uint64, error)
	Execute(ctx context.Context, st *txn.SignedTransaction, opts types.ResponseOptions,
		mode types.ExecuteMode) (*types.TxResponse, error)
	GetTransaction(ctx context.Context, digest string, opts types.ResponseOptions) (*types.TxResponse, error)
	LatestCheckpoint(ctx context.Context) (uint64, error)
	GetCheckpoint(ctx context.Context, seq uint64) (*types.Checkpoint, error)
	DecodeTxs(ctx context.Context, cp *types.Checkpoint) ([]types.Trans, error)
}

var _ Chain = (*sui.Client)(nil)

// Init loads all the clients read from the config into a map keyed by network name. A network with an empty node url
// uses the preset of the same name; networks that are neither configured nor presets are ignored.
func Init(ctx context.Context, bc []config.BlockConfig) (m map[string]Chain, err error) {
	m = make(map[string]Chain)

	for _, block := range bc {
		url := block.Node
		if url == "" {
			var ok bool
			if url, ok = sui.Networks[block.Name]; !ok {
				logx.Warn("BLOCK", "Network not defined for ", block.Name, ". Ignoring...")

				continue
			}
		}

		opts := []sui.Option{sui.WithSecret(block.Secret)}
		if block.MaxBlocks > 0 {
			opts = append(opts, sui.WithMaxBlocks(block.MaxBlocks))
		}

		if block.Timeout > 0 {
			opts = append(opts, sui.WithTimeout(time.Duration(block.Timeout)*time.Second))
		}

		var c *sui.Client
		if c, err = sui.Dial(ctx, url, opts...); err != nil {
			End(m)

			return nil, err
		}

		logx.Info("BLOCK", "Connected to ", block.Name, " at ", url, " api ", c.APIVersion())

		m[block.Name] = c
	}

	return m, nil
}

// End closes gracefully all the network clients opened.
func End(bc map[string]Chain) {
	for _, block := range bc {
		block.Close()
	}
}
