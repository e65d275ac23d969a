package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/chapool/wallet-txengine/internal/api"
	"github/chapool/wallet-txengine/internal/api/router"
	"github/chapool/wallet-txengine/internal/config"
	"github/chapool/wallet-txengine/internal/util/command"
)

const walletFlag = "wallet"

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Starts the transaction reconciler and the management server",
		Long: `Starts the transaction reconciler and the management server.

Wallets given with --wallet are unlocked (or created) before serving so
transactions can be signed. Status reconciliation needs no wallet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			wallets, err := cmd.Flags().GetStringSlice(walletFlag)
			if err != nil {
				return err
			}

			return runServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), wallets)
		},
	}

	cmd.Flags().StringSliceP(walletFlag, "w", nil, "Wallet ids to unlock at startup")

	return cmd
}

func runServer(ctx context.Context, cfg config.Server, wallets []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return command.WithServer(ctx, cfg, func(ctx context.Context, s *api.Server) error {
		router.Init(s)

		if err := initializeWallets(ctx, s, wallets); err != nil {
			return err
		}

		if cfg.Reconciler.Enabled {
			if err := s.Reconciler.Start(ctx); err != nil {
				return err
			}
		} else {
			log.Warn().Msg("Transaction reconciler is disabled, pending transactions are not tracked")
		}

		errs := make(chan error, 1)
		go func() {
			log.Info().Str("address", cfg.Management.ListenAddress).Msg("Starting management server")
			if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- err
			}
		}()

		select {
		case <-ctx.Done():
			log.Info().Msg("Received shutdown signal")
			return nil
		case err := <-errs:
			return errors.Wrap(err, "management server failed")
		}
	})
}
