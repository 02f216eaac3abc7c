// cmd/subsidyctl/main.go
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "subsidyctl",
	Short:         "Offline tooling for the subsidy recommender",
	SilenceUsage:  true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
