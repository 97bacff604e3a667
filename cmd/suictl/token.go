package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tarancss/suiadp/lib/block/types"
	"github.com/tarancss/suiadp/lib/config"
)

func printJSON(out io.Writer, label string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "%s: %s\n", label, b)

	return err
}

func newTokenCmd(env config.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print the metadata and supply of a coin type and the coins and balances of an address",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			coinType, _ := cmd.Flags().GetString("coin")
			address, _ := cmd.Flags().GetString("address")

			if address == "" {
				return errMissing("address")
			}

			owner, err := types.ParseAddress(address)
			if err != nil {
				return err
			}

			c, err := dial(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := cmd.Context()

			md, err := c.CoinMetadata(ctx, coinType)
			if err != nil {
				return err
			}

			if err = printJSON(out, "metadata", md); err != nil {
				return err
			}

			supply, err := c.TotalSupply(ctx, coinType)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "coin type= %s total_supply = %s\n", coinType, supply.Value.String())

			fmt.Fprintln(out, " *** Coins Stream ***")

			for coin, err := range c.Coins(ctx, owner, coinType) {
				if err != nil {
					return err
				}

				fmt.Fprintf(out, "%s version %d balance %d\n", coin.CoinObjectID, uint64(coin.Version),
					uint64(coin.Balance))
			}

			fmt.Fprintln(out, " *** Coins Stream ***")

			bal, err := c.Balance(ctx, owner, coinType)
			if err != nil {
				return err
			}

			if err = printJSON(out, "balance", bal); err != nil {
				return err
			}

			all, err := c.AllBalances(ctx, owner)
			if err != nil {
				return err
			}

			return printJSON(out, "all_balances", all)
		},
	}

	cmd.Flags().String("address", env.WalletAddress, "Owner address (SUI_WALLET_ADDRESS)")
	cmd.Flags().String("coin", types.SuiCoinType, "Coin type")

	return cmd
}
