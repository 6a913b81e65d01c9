package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "hitpay-status",
		Short:        "Inspect HitPay payment status from the command line",
		Version:      Version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(pollCmd())
	rootCmd.AddCommand(signCmd())

	return rootCmd
}
