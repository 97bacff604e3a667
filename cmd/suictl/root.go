package main

import (
	"github.com/spf13/cobra"

	"github.com/tarancss/suiadp/lib/block/sui"
	"github.com/tarancss/suiadp/lib/config"
)

func newRootCmd(env config.Env) *cobra.Command {
	root := &cobra.Command{
		Use:           "suictl",
		Short:         "Sui wallet command line",
		Long:          "Command line interface to query Sui networks, manage key pairs and send SUI.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("url", env.RPCURL, "Sui full node JSON-RPC url (SUI_RPC_URL)")

	root.AddCommand(newNetworkCmd(), newTokenCmd(env), newKeypairCmd(env), newTransferCmd(env))

	return root
}

// dial connects to the node given by --url.
func dial(cmd *cobra.Command) (*sui.Client, error) {
	url, _ := cmd.Flags().GetString("url")
	if url == "" {
		return nil, errMissing("url")
	}

	return sui.Dial(cmd.Context(), url)
}
