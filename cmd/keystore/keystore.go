package keystore

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github/chapool/wallet-txengine/internal/api"
	"github/chapool/wallet-txengine/internal/config"
	"github/chapool/wallet-txengine/internal/util/command"
	"github/chapool/wallet-txengine/internal/wallet/chain"
	"github/chapool/wallet-txengine/internal/wallet/keyvault"
)

const (
	walletFlag   = "wallet"
	chainFlag    = "chain"
	mnemonicFlag = "mnemonic"
)

var ErrWalletExists = errors.New("keystore already exists")

func New() *cobra.Command {
	return command.NewSubcommandGroup("keystore",
		newCreate(),
		newAddress(),
	)
}

// withVault runs f with the keyvault only; no database or nodes are needed.
func withVault(cmd *cobra.Command, f func(ctx context.Context, s *api.Server) error) error {
	cfg := config.DefaultServiceConfigFromEnv()
	cfg.Database.Driver = api.DriverMemory

	return command.WithServer(cmd.Context(), cfg, f)
}

func newCreate() *cobra.Command {
	var walletID string
	var importMnemonic bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Creates an encrypted keystore for a new or imported mnemonic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withVault(cmd, func(ctx context.Context, s *api.Server) error {
				exists, err := s.Vault.Exists(walletID)
				if err != nil {
					return err
				}
				if exists {
					return errors.Wrapf(ErrWalletExists, "wallet %s", walletID)
				}

				prompt := command.StaticPassword(s.Config.Keystore.Password)

				if !importMnemonic {
					mnemonic, err := keyvault.InitializeWallet(ctx, s.Vault, walletID, keyvault.PasswordFunc(prompt))
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Wallet %q created. Back up this mnemonic:\n\n  %s\n", walletID, mnemonic)

					return nil
				}

				mnemonic, err := command.PromptPassword("Enter mnemonic: ")
				if err != nil {
					return err
				}
				password, err := prompt("Enter password for keystore: ")
				if err != nil {
					return err
				}

				ks, err := s.Vault.Create(ctx, walletID, mnemonic, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wallet %q imported (verification address %s)\n", walletID, ks.Address)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&walletID, walletFlag, "default", "Wallet id")
	cmd.Flags().BoolVar(&importMnemonic, mnemonicFlag, false, "Import an existing mnemonic instead of generating one")

	return cmd
}

func newAddress() *cobra.Command {
	var walletID string
	var chains []string

	cmd := &cobra.Command{
		Use:   "address",
		Short: "Prints the account address of a wallet on each chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withVault(cmd, func(ctx context.Context, s *api.Server) error {
				prompt := keyvault.PasswordFunc(command.StaticPassword(s.Config.Keystore.Password))
				password, err := prompt("Enter keystore password: ")
				if err != nil {
					return err
				}
				if err := s.Vault.Unlock(ctx, walletID, password); err != nil {
					return err
				}
				defer s.Vault.Lock(walletID)

				targets := make([]chain.Chain, 0, len(chains))
				for _, name := range chains {
					c, err := chain.Parse(name)
					if err != nil {
						return err
					}
					targets = append(targets, c)
				}
				if len(targets) == 0 {
					for _, cfg := range s.Chains.EnabledChains() {
						targets = append(targets, cfg.Chain)
					}
				}

				for _, c := range targets {
					address, err := s.Vault.DerivePublicAccount(ctx, walletID, c)
					if err != nil {
						if errors.Is(err, keyvault.ErrNoAddressEncoder) {
							continue
						}
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", c, address)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&walletID, walletFlag, "default", "Wallet id")
	cmd.Flags().StringSliceVar(&chains, chainFlag, nil, "Chains to print, all enabled chains by default")

	return cmd
}
