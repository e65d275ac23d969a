package evm

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
)

// Sign builds and signs an EIP-1559 transaction.
func (c *Client) Sign(_ context.Context, params *wallet.SignerParams, privateKey []byte, priority wallet.FeePriority) ([][]byte, error) {
	data, ok := params.Data.(wallet.EVMSignData)
	if !ok {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrWrongSignData, "")
	}

	fee := params.FeeFor(priority)
	if fee.GasPrice == nil || fee.MinerFee == nil || fee.GasLimit == 0 {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrMissingFee, string(priority))
	}

	key, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrInvalidKey, err.Error())
	}
	defer zeroKey(key)

	if from := publicAddress(key); !strings.EqualFold(from.Hex(), params.Intent.From) {
		return nil, wallet.NewSignError(c.Chain(), nil, "from address does not match private key")
	}

	to, value, calldata := target(params.Intent, params.FinalAmount(fee))

	chainID := big.NewInt(data.ChainID)
	//nolint:varnamelen
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     data.Nonce,
		GasTipCap: fee.MinerFee,
		GasFeeCap: fee.GasPrice,
		Gas:       fee.GasLimit,
		To:        &to,
		Value:     value,
		Data:      calldata,
	})

	signedTx, err := types.SignTx(tx, types.NewLondonSigner(chainID), key)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "failed to sign transaction")
	}

	raw, err := signedTx.MarshalBinary()
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), errors.Wrap(err, "failed to marshal transaction"), "")
	}

	return [][]byte{raw}, nil
}

// zeroKey wipes the scalar of key in place.
func zeroKey(key *ecdsa.PrivateKey) {
	clear(key.D.Bits())
	key.D.SetInt64(0)
}
