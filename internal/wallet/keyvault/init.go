package keyvault

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tyler-smith/go-bip39"
)

const minPasswordLength = 8

// NewMnemonic generates a 24 word BIP39 mnemonic.
func NewMnemonic() (string, error) {
	//nolint:mnd
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate entropy")
	}
	defer zero(entropy)

	return bip39.NewMnemonic(entropy)
}

// InitializeWallet unlocks walletID, creating its keystore from a fresh mnemonic first when none
// exists. It returns the mnemonic only when one was generated so the operator can back it up.
func InitializeWallet(ctx context.Context, vault Service, walletID string, prompt PasswordFunc) (string, error) {
	log := log.With().Str("component", "keyvault_init").Str("wallet_id", walletID).Logger()

	exists, err := vault.Exists(walletID)
	if err != nil {
		return "", errors.Wrap(err, "failed to check keystore existence")
	}

	if exists {
		log.Info().Msg("Keystore found. Please enter password to unlock...")

		password, err := prompt("Enter keystore password: ")
		if err != nil {
			return "", errors.Wrap(err, "failed to read password")
		}

		if err := vault.Unlock(ctx, walletID, password); err != nil {
			return "", errors.Wrap(err, "failed to unlock keystore")
		}

		return "", nil
	}

	log.Info().Msg("Keystore not found. Generating new mnemonic...")

	mnemonic, err := NewMnemonic()
	if err != nil {
		return "", err
	}

	password, err := prompt("Enter password for keystore (min 8 characters): ")
	if err != nil {
		return "", errors.Wrap(err, "failed to read password")
	}

	if len(password) < minPasswordLength {
		return "", errors.New("password must be at least 8 characters")
	}

	passwordConfirm, err := prompt("Confirm password: ")
	if err != nil {
		return "", errors.Wrap(err, "failed to read password confirmation")
	}

	if password != passwordConfirm {
		return "", errors.New("passwords do not match")
	}

	if _, err := vault.Create(ctx, walletID, mnemonic, password); err != nil {
		return "", errors.Wrap(err, "failed to create keystore")
	}

	if err := vault.Unlock(ctx, walletID, password); err != nil {
		return "", errors.Wrap(err, "failed to unlock new keystore")
	}

	return mnemonic, nil
}
