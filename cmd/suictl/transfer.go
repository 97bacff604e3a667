package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tarancss/suiadp/lib/config"
	"github.com/tarancss/suiadp/lib/engine"
)

func newTransferCmd(env config.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Send SUI to an address and wait for the effects",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			url, _ := cmd.Flags().GetString("url")
			key, _ := cmd.Flags().GetString("key")
			to, _ := cmd.Flags().GetString("to")
			amount, _ := cmd.Flags().GetFloat64("amount")

			for _, f := range [][2]string{{"url", url}, {"key", key}, {"to", to}} {
				if f[1] == "" {
					return errMissing(f[0])
				}
			}

			req := engine.TransferRequest{Recipient: to, Amount: amount}

			if cmd.Flags().Changed("gas-budget") {
				b, _ := cmd.Flags().GetUint64("gas-budget")
				req.GasBudget = &b
			}

			if cmd.Flags().Changed("gas-price") {
				p, _ := cmd.Flags().GetUint64("gas-price")
				req.GasPrice = &p
			}

			e, err := engine.New(cmd.Context(), url, key)
			if err != nil {
				return err
			}
			defer e.Close()

			fmt.Fprintf(out, "Sender: %s\nRecipient: %s\n", e.Sender(), to)

			res, err := e.TransferSui(cmd.Context(), req)
			if res != nil {
				fmt.Fprintf(out, "digest: %s\nstage: %s\n", res.Digest, res.Stage)
			}

			if err != nil {
				return err
			}

			fmt.Fprintf(out, "status: %s\ngas: %d\n", res.Effects.Status.Status, res.Effects.GasUsed.Total())

			return nil
		},
	}

	cmd.Flags().String("key", env.WalletPrivate, "Sender private key (SUI_WALLET_PRIVATE)")
	cmd.Flags().String("to", env.RecipientAddress, "Recipient address (SUI_RECIPIENT_ADDRESS)")
	cmd.Flags().Float64("amount", 0, "Amount of SUI to send")
	cmd.Flags().Uint64("gas-budget", engine.DefaultGasBudget, "Gas budget in MIST")
	cmd.Flags().Uint64("gas-price", 0, "Gas price in MIST (default: network policy)")

	return cmd
}
