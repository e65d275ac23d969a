package algorand

import (
	"context"
	"crypto/ed25519"
	"math/big"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
)

// Sign returns the msgpack signed transaction with the tier's fee as flat fee. The memo is
// carried in the note field.
func (c *Client) Sign(_ context.Context, params *wallet.SignerParams, privateKey []byte, priority wallet.FeePriority) ([][]byte, error) {
	data, ok := params.Data.(wallet.AlgorandSignData)
	if !ok {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrWrongSignData, "")
	}

	fee := params.FeeFor(priority)
	if fee.Amount == nil || !fee.Amount.IsUint64() {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrMissingFee, string(priority))
	}

	key, err := wallet.Ed25519Key(privateKey)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	var owner types.Address
	copy(owner[:], key.Public().(ed25519.PublicKey)) //nolint:forcetypeassert

	intent := params.Intent
	if owner.String() != intent.From {
		return nil, wallet.NewSignError(c.Chain(), nil, "from address does not match private key")
	}

	sp := types.SuggestedParams{
		Fee:             types.MicroAlgos(fee.Amount.Uint64()),
		GenesisID:       data.GenesisID,
		GenesisHash:     data.GenesisHash,
		FirstRoundValid: types.Round(data.FirstRound),
		LastRoundValid:  types.Round(data.LastRound),
		FlatFee:         true,
		MinFee:          minTxnFee,
	}

	var note []byte
	if intent.Memo != "" {
		note = []byte(intent.Memo)
	}

	tx, err := c.build(intent, sp, note, params.FinalAmount(fee))
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	_, signed, err := crypto.SignTransaction(key, tx)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), errors.Wrap(err, "failed to sign transaction"), "")
	}

	return [][]byte{signed}, nil
}

func (c *Client) build(intent wallet.TransferIntent, sp types.SuggestedParams, note []byte, nativeAmount *big.Int) (types.Transaction, error) {
	if intent.Type == wallet.TransactionTypeAssetActivation {
		index, err := assetIndex(intent.AssetID)
		if err != nil {
			return types.Transaction{}, err
		}
		return transaction.MakeAssetAcceptanceTxn(intent.From, note, sp, index)
	}

	if intent.AssetID.IsNative() {
		if nativeAmount == nil || !nativeAmount.IsUint64() {
			return types.Transaction{}, errors.Errorf("invalid amount %v", nativeAmount)
		}
		return transaction.MakePaymentTxn(intent.From, intent.To, nativeAmount.Uint64(), note, "", sp)
	}

	index, err := assetIndex(intent.AssetID)
	if err != nil {
		return types.Transaction{}, err
	}
	if intent.Amount == nil || !intent.Amount.IsUint64() {
		return types.Transaction{}, errors.Errorf("invalid amount %v", intent.Amount)
	}

	return transaction.MakeAssetTransferTxn(intent.From, intent.To, intent.Amount.Uint64(), note, sp, "", index)
}

// Send returns the transaction id reported by algod.
func (c *Client) Send(ctx context.Context, signed []byte) (string, error) {
	txID, err := c.node.Submit(ctx, signed)
	if err != nil {
		return "", wallet.NewBroadcastError(c.Chain(), err, err.Error())
	}

	return txID, nil
}
