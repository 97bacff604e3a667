package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tarancss/suiadp/lib/block/sui"
)

func errMissing(flag string) error {
	return fmt.Errorf("missing required flag: --%s", flag)
}

func newNetworkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "network",
		Short: "Print the API version of the node at --url and of the preset networks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			if url, _ := cmd.Flags().GetString("url"); url != "" {
				c, err := sui.Dial(cmd.Context(), url)
				if err != nil {
					return err
				}

				fmt.Fprintf(out, "%s version: %s\n", url, c.APIVersion())
				c.Close()
			}

			presets, _ := cmd.Flags().GetStringSlice("presets")
			for _, name := range presets {
				c, err := sui.DialNetwork(cmd.Context(), name)
				if err != nil {
					return err
				}

				fmt.Fprintf(out, "%s version: %s\n", name, c.APIVersion())
				c.Close()
			}

			return nil
		},
	}

	cmd.Flags().StringSlice("presets", []string{"testnet", "devnet"}, "Preset networks to query")

	return cmd
}
