package sui

import (
	"context"
	"iter"

	"github.com/pkg/errors"

	"github.com/tarancss/suiadp/lib/block/types"
)

// DefaultPageSize is the page size used by Coins.
const DefaultPageSize = 50

func coinTypeOrSui(coinType string) string {
	if coinType == "" {
		return types.SuiCoinType
	}

	return coinType
}

// Balance returns the total balance of one coin type owned by owner. An empty coin type means SUI.
func (c *Client) Balance(ctx context.Context, owner types.Address, coinType string) (b types.Balance, err error) {
	err = c.call(ctx, &b, "suix_getBalance", owner.String(), coinTypeOrSui(coinType))

	return b, err
}

// AllBalances returns the balance of every coin type owned by owner.
func (c *Client) AllBalances(ctx context.Context, owner types.Address) (bs []types.Balance, err error) {
	err = c.call(ctx, &bs, "suix_getAllBalances", owner.String())

	return bs, err
}

// CoinPage returns one page of the coins of coinType owned by owner, starting after cursor (nil for the first page).
func (c *Client) CoinPage(ctx context.Context, owner types.Address, coinType string, cursor *string,
	limit uint) (p types.CoinPage, err error) {
	var lim *uint
	if limit > 0 {
		lim = &limit
	}

	err = c.call(ctx, &p, "suix_getCoins", owner.String(), coinTypeOrSui(coinType), cursor, lim)

	return p, err
}

// Coins returns the coins of coinType owned by owner as a sequence. Pages are fetched as the sequence is consumed.
// Each range over the sequence starts again from the first page. The sequence stops after yielding an error.
func (c *Client) Coins(ctx context.Context, owner types.Address, coinType string) iter.Seq2[types.Coin, error] {
	return func(yield func(types.Coin, error) bool) {
		var cursor *string

		for {
			page, err := c.CoinPage(ctx, owner, coinType, cursor, DefaultPageSize)
			if err != nil {
				yield(types.Coin{}, err)

				return
			}

			for _, coin := range page.Data {
				if !yield(coin, nil) {
					return
				}
			}

			if !page.HasNextPage || page.NextCursor == nil {
				return
			}

			cursor = page.NextCursor
		}
	}
}

// CoinMetadata returns the name, symbol and decimals of a coin type.
func (c *Client) CoinMetadata(ctx context.Context, coinType string) (types.CoinMetadata, error) {
	var md *types.CoinMetadata
	if err := c.call(ctx, &md, "suix_getCoinMetadata", coinTypeOrSui(coinType)); err != nil {
		return types.CoinMetadata{}, err
	}

	if md == nil {
		return types.CoinMetadata{}, errors.Wrap(types.ErrUnknownCoinType, coinType)
	}

	return *md, nil
}

// TotalSupply returns the total supply of a coin type.
func (c *Client) TotalSupply(ctx context.Context, coinType string) (s types.Supply, err error) {
	err = c.call(ctx, &s, "suix_getTotalSupply", coinTypeOrSui(coinType))

	return s, err
}
