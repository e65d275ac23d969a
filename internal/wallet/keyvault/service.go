package keyvault

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"

	"github/chapool/wallet-txengine/internal/util"
	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

var (
	ErrKeystoreExists   = errors.New("keystore already exists")
	ErrLocked           = errors.New("wallet is locked")
	ErrAddressMismatch  = errors.New("derived verification address does not match keystore")
	ErrInvalidMnemonic  = errors.New("invalid mnemonic")
	ErrInvalidWalletID  = errors.New("invalid wallet id")
	ErrNoAddressEncoder = errors.New("no address encoder for chain family")
)

type service struct {
	dir       string
	chains    chain.Service
	addresses map[chain.Family]AddressFunc
	scrypt    ScryptParams
	seeds     *seeds
}

type Option func(*service)

// WithScryptParams overrides the KDF cost used for new keystores.
func WithScryptParams(p ScryptParams) Option {
	return func(s *service) { s.scrypt = p }
}

// WithAddressFunc registers the address encoder of a chain family.
func WithAddressFunc(f chain.Family, fn AddressFunc) Option {
	return func(s *service) { s.addresses[f] = fn }
}

// NewService creates a file backed vault storing one keystore per wallet in dir.
//
//nolint:ireturn
func NewService(dir string, chains chain.Service, opts ...Option) Service {
	s := &service{
		dir:       dir,
		chains:    chains,
		addresses: make(map[chain.Family]AddressFunc),
		scrypt:    StandardScryptParams(),
		seeds:     newSeeds(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *service) Exists(walletID string) (bool, error) {
	file, err := s.file(walletID)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(file)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, errors.Wrap(err, "failed to stat keystore")
	}
}

// Create encrypts mnemonic with password and writes the keystore file. The wallet stays locked.
func (s *service) Create(ctx context.Context, walletID string, mnemonic string, password string) (*KeystoreJSON, error) {
	log := util.LogFromContext(ctx).With().Str("wallet_id", walletID).Logger()

	exists, err := s.Exists(walletID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrKeystoreExists
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, errors.Wrap(ErrInvalidMnemonic, err.Error())
	}
	defer zero(seed)

	address, err := verificationAddress(seed)
	if err != nil {
		return nil, err
	}

	ks, err := encryptMnemonic(mnemonic, password, s.scrypt)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encrypt mnemonic")
		return nil, errors.Wrap(err, "failed to encrypt mnemonic")
	}
	ks.Address = address

	data, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal keystore JSON")
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "failed to create keystore directory")
	}

	file, _ := s.file(walletID)
	if err := os.WriteFile(file, data, 0o600); err != nil {
		return nil, errors.Wrap(err, "failed to write keystore")
	}

	log.Info().Str("address", address).Msg("Keystore created")

	return ks, nil
}

// Unlock decrypts the keystore, checks the verification address and keeps the seed in memory.
func (s *service) Unlock(ctx context.Context, walletID string, password string) error {
	log := util.LogFromContext(ctx).With().Str("wallet_id", walletID).Logger()

	ks, err := s.read(walletID)
	if err != nil {
		return err
	}

	mnemonic, err := decryptMnemonic(ks, password)
	if err != nil {
		return err
	}
	defer zero(mnemonic)

	seed, err := bip39.NewSeedWithErrorChecking(string(mnemonic), "")
	if err != nil {
		return errors.Wrap(ErrInvalidMnemonic, err.Error())
	}

	if ks.Address != "" {
		address, err := verificationAddress(seed)
		if err != nil {
			zero(seed)
			return err
		}

		if !strings.EqualFold(address, ks.Address) {
			zero(seed)
			log.Warn().Str("derived", address).Str("stored", ks.Address).Msg("Password verification failed: addresses do not match")
			return ErrAddressMismatch
		}
	}

	s.seeds.set(walletID, seed)
	log.Info().Msg("Wallet unlocked")

	return nil
}

func (s *service) Lock(walletID string) {
	s.seeds.clear(walletID)
}

func (s *service) Wallets() []string {
	ids := s.seeds.ids()
	sort.Strings(ids)

	return ids
}

// DerivePrivateKey derives the account key of walletID on c.
// WARNING: Caller must clear the private key after use
func (s *service) DerivePrivateKey(_ context.Context, walletID string, c chain.Chain) ([]byte, error) {
	cfg, err := s.chains.GetChain(c)
	if err != nil {
		return nil, errors.Wrap(wallet.ErrUnsupportedChain, err.Error())
	}

	seed, ok := s.seeds.get(walletID)
	if !ok {
		return nil, errors.Wrapf(ErrLocked, "wallet %s", walletID)
	}
	defer zero(seed)

	if cfg.Family.Ed25519() {
		return deriveEd25519(seed, cfg.DerivationPath)
	}

	return deriveSecp256k1(seed, cfg.DerivationPath)
}

// DerivePublicAccount derives the account address of walletID on c.
func (s *service) DerivePublicAccount(ctx context.Context, walletID string, c chain.Chain) (string, error) {
	cfg, err := s.chains.GetChain(c)
	if err != nil {
		return "", errors.Wrap(wallet.ErrUnsupportedChain, err.Error())
	}

	encode, ok := s.addresses[cfg.Family]
	if !ok {
		return "", errors.Wrapf(ErrNoAddressEncoder, "%s", cfg.Family)
	}

	privateKey, err := s.DerivePrivateKey(ctx, walletID, c)
	if err != nil {
		return "", err
	}
	defer zero(privateKey)

	return encode(cfg, privateKey)
}

func (s *service) read(walletID string) (*KeystoreJSON, error) {
	file, err := s.file(walletID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(wallet.ErrNotFound, "keystore for wallet %s", walletID)
		}
		return nil, errors.Wrap(err, "failed to read keystore")
	}

	var ks KeystoreJSON
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal keystore JSON")
	}

	return &ks, nil
}

func (s *service) file(walletID string) (string, error) {
	if walletID == "" || strings.ContainsAny(walletID, `/\`) || strings.HasPrefix(walletID, ".") {
		return "", errors.Wrapf(ErrInvalidWalletID, "%q", walletID)
	}

	return filepath.Join(s.dir, walletID+".json"), nil
}

func verificationAddress(seed []byte) (string, error) {
	priv, err := deriveSecp256k1(seed, VerificationPath)
	if err != nil {
		return "", errors.Wrap(err, "failed to derive verification address")
	}
	defer zero(priv)

	return evmAddress(priv)
}
