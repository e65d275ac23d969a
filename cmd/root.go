package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/chapool/wallet-txengine/cmd/chains"
	"github/chapool/wallet-txengine/cmd/db"
	"github/chapool/wallet-txengine/cmd/keystore"
	"github/chapool/wallet-txengine/cmd/probe"
	"github/chapool/wallet-txengine/cmd/server"
	"github/chapool/wallet-txengine/cmd/tx"
	"github/chapool/wallet-txengine/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: config.GetFormattedBuildArgs(),
	Use:     "app",
	Short:   config.ModuleName,
	Long: fmt.Sprintf(`%v

Transaction lifecycle engine of a non-custodial multi-chain wallet.
Requires configuration through ENV.`, config.ModuleName),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	// attach the subcommands
	rootCmd.AddCommand(
		chains.New(),
		db.New(),
		keystore.New(),
		probe.New(),
		server.New(),
		tx.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Failed to execute root command")
		os.Exit(1)
	}
}
