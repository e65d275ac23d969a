package server

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github/chapool/wallet-txengine/internal/api"
	"github/chapool/wallet-txengine/internal/util/command"
	"github/chapool/wallet-txengine/internal/wallet/keyvault"
)

// initializeWallets unlocks the keystore of every wallet at startup, creating missing ones
func initializeWallets(ctx context.Context, s *api.Server, walletIDs []string) error {
	prompt := command.StaticPassword(s.Config.Keystore.Password)

	for _, walletID := range walletIDs {
		mnemonic, err := keyvault.InitializeWallet(ctx, s.Vault, walletID, keyvault.PasswordFunc(prompt))
		if err != nil {
			return errors.Wrapf(err, "failed to initialize wallet %s", walletID)
		}

		if mnemonic != "" {
			// 新生成的助记词只展示一次，运维需要立即备份
			fmt.Fprintf(os.Stderr, "\nNew wallet %q created. Back up this mnemonic now, it is not shown again:\n\n  %s\n\n", walletID, mnemonic)
		}

		log.Info().Str("wallet_id", walletID).Msg("Wallet unlocked")
	}

	return nil
}
