package cmd

import (
	"fmt"
	"os"

	"github/chapool/go-sweeper/cmd/env"
	"github/chapool/go-sweeper/cmd/keystore"
	"github/chapool/go-sweeper/cmd/probe"
	"github/chapool/go-sweeper/cmd/server"
	"github/chapool/go-sweeper/cmd/sweep"
	"github/chapool/go-sweeper/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: config.GetFormattedBuildArgs(),
	Use:     "app",
	Short:   config.ModuleName,
	Long: fmt.Sprintf(`%v

Sweeps the balances of managed wallets into one destination wallet.
Requires configuration through ENV.`, config.ModuleName),
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	// attach the subcommands
	rootCmd.AddCommand(
		env.New(),
		keystore.New(),
		probe.New(),
		server.New(),
		sweep.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Failed to execute root command")
		os.Exit(1)
	}
}
