// Command suictl queries Sui networks and sends SUI from the command line.
//
// Flags default to the SUI_RPC_URL, SUI_WALLET_ADDRESS, SUI_WALLET_PRIVATE and SUI_RECIPIENT_ADDRESS environment
// variables.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tarancss/suiadp/lib/config"
	"github.com/tarancss/suiadp/lib/logx"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(config.FromEnv()).ExecuteContext(ctx); err != nil {
		logx.Error("CLI", "Command execution failed: ", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}
