package tron

import (
	"bytes"
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fbsobreira/gotron-sdk/pkg/proto/core"

	"github/chapool/wallet-txengine/internal/wallet"
)

// Sign builds a TransferContract or a TRC-20 TriggerSmartContract and signs the sha256 of
// its raw data. The output is the protobuf Transaction.
func (c *Client) Sign(_ context.Context, params *wallet.SignerParams, privateKey []byte, priority wallet.FeePriority) ([][]byte, error) {
	data, ok := params.Data.(wallet.TronSignData)
	if !ok {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrWrongSignData, "")
	}

	key, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrInvalidKey, "")
	}

	owner, err := decodeAddress(params.Intent.From)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}
	if !bytes.Equal(owner[1:], crypto.PubkeyToAddress(key.PublicKey).Bytes()) {
		return nil, wallet.NewSignError(c.Chain(), nil, "from address does not match private key")
	}

	to, err := decodeAddress(params.Intent.To)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	amount := params.FinalAmount(params.FeeFor(priority))
	if !amount.IsInt64() || amount.Sign() <= 0 {
		return nil, wallet.NewSignError(c.Chain(), nil, "amount out of range")
	}

	var (
		call     *core.Transaction_Contract
		feeLimit int64
	)
	if params.Intent.AssetID.IsNative() {
		call, err = transferContract(owner, to, amount.Int64())
	} else {
		token, tokenErr := decodeAddress(params.Intent.AssetID.TokenID)
		if tokenErr != nil {
			return nil, wallet.NewSignError(c.Chain(), tokenErr, "")
		}
		call, err = triggerContract(owner, token, trc20Transfer(to, amount))
		if data.FeeLimit != nil {
			feeLimit = data.FeeLimit.Int64()
		}
	}
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	raw, err := rawData(data, call, params.Intent.Memo, feeLimit)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	signed, err := signedTransaction(raw, func(hash []byte) ([]byte, error) {
		return crypto.Sign(hash, key)
	})
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	return [][]byte{signed}, nil
}

func (c *Client) Send(ctx context.Context, signed []byte) (string, error) {
	txID, err := c.node.Broadcast(ctx, common.Bytes2Hex(signed))
	if err != nil {
		return "", wallet.NewBroadcastError(c.Chain(), err, err.Error())
	}

	if txID != "" {
		return txID, nil
	}

	txID, err = TxID(signed)
	if err != nil {
		return "", wallet.NewBroadcastError(c.Chain(), err, "")
	}

	return txID, nil
}
