package keyvault

import (
	"context"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

// AddressFunc encodes the account address of privateKey on the chain described by cfg.
type AddressFunc func(cfg *chain.Config, privateKey []byte) (string, error)

// PasswordFunc asks the operator for a password.
type PasswordFunc func(prompt string) (string, error)

// Service 密钥库服务：加密助记词存储、解锁和按链派生密钥
type Service interface {
	wallet.KeyVault

	// Exists 检查钱包密钥库文件是否存在
	Exists(walletID string) (bool, error)

	// Create 加密助记词并写入密钥库文件
	Create(ctx context.Context, walletID string, mnemonic string, password string) (*KeystoreJSON, error)

	// Unlock 解密密钥库并将种子保存在内存中
	Unlock(ctx context.Context, walletID string, password string) error

	// Lock 从内存中清除种子
	Lock(walletID string)

	// Wallets 返回已解锁的钱包
	Wallets() []string
}

// KeystoreJSON is the Ethereum keystore v3 layout with the mnemonic as the encrypted payload.
// Address holds the verification address (first EVM account) used to detect a wrong password
// or a corrupted file after decryption.
//
//nolint:revive
type KeystoreJSON struct {
	Version int    `json:"version"`
	ID      string `json:"id"`
	Address string `json:"address"`
	Crypto  struct {
		Ciphertext   string `json:"ciphertext"`
		CipherParams struct {
			IV string `json:"iv"`
		} `json:"cipherparams"`
		Cipher    string `json:"cipher"`
		KDF       string `json:"kdf"`
		KDFParams struct {
			DKLen int    `json:"dklen"`
			Salt  string `json:"salt"`
			N     int    `json:"n"`
			R     int    `json:"r"`
			P     int    `json:"p"`
		} `json:"kdfparams"`
		MAC string `json:"mac"`
	} `json:"crypto"`
}

// ScryptParams defines scrypt KDF parameters
type ScryptParams struct {
	DKLen int
	N     int
	R     int
	P     int
}

// StandardScryptParams returns the keystore v3 defaults.
func StandardScryptParams() ScryptParams {
	const (
		scryptDKLen = 32
		scryptN     = 262144 // 2^18
		scryptR     = 8
		scryptP     = 1
	)

	return ScryptParams{DKLen: scryptDKLen, N: scryptN, R: scryptR, P: scryptP}
}

// LightScryptParams trades KDF strength for speed (tests, development vaults).
func LightScryptParams() ScryptParams {
	const (
		scryptDKLen = 32
		scryptN     = 4096
		scryptR     = 8
		scryptP     = 6
	)

	return ScryptParams{DKLen: scryptDKLen, N: scryptN, R: scryptR, P: scryptP}
}
