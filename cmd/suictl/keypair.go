package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tarancss/suiadp/lib/config"
	"github.com/tarancss/suiadp/lib/keys"
)

func newKeypairCmd(env config.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keypair",
		Short: "Key pair commands",
	}

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import a private key (suiprivkey bech32 or base64) and print its address",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, _ := cmd.Flags().GetString("key")
			if key == "" {
				return errMissing("key")
			}

			kp, err := keys.Import(key)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "scheme: %s\nSuiAddress: %s\n", kp.Scheme(), keys.Address(kp))

			return nil
		},
	}
	importCmd.Flags().String("key", env.WalletPrivate, "Private key (SUI_WALLET_PRIVATE)")

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random Ed25519 key pair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kp, err := keys.Generate()
			if err != nil {
				return err
			}

			priv, err := keys.EncodeBech32(kp)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "SuiAddress: %s\nprivate key: %s\n", keys.Address(kp), priv)

			return nil
		},
	}

	cmd.AddCommand(importCmd, generateCmd)

	return cmd
}
