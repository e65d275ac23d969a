package stellar

import (
	"context"
	"encoding/base64"

	"github.com/pkg/errors"
	"github.com/stellar/go/amount"
	"github.com/stellar/go/txnbuild"

	"github/chapool/wallet-txengine/internal/wallet"
)

// Sign builds a single operation transaction: CreateAccount for an unfunded destination,
// Payment otherwise. The tier's fee is the base fee of the transaction.
func (c *Client) Sign(_ context.Context, params *wallet.SignerParams, privateKey []byte, priority wallet.FeePriority) ([][]byte, error) {
	data, ok := params.Data.(wallet.StellarSignData)
	if !ok {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrWrongSignData, "")
	}

	kp, err := fullKeypair(privateKey)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	intent := params.Intent
	if kp.Address() != intent.From {
		return nil, wallet.NewSignError(c.Chain(), nil, "from address does not match private key")
	}

	asset, err := parseAsset(intent.AssetID)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	fee := params.FeeFor(priority)
	if fee.Amount == nil {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrMissingFee, string(priority))
	}

	value := intent.Amount
	if intent.AssetID.IsNative() {
		value = params.FinalAmount(fee)
	}
	if value == nil || !value.IsInt64() || value.Sign() <= 0 {
		return nil, wallet.NewSignError(c.Chain(), errors.Errorf("invalid amount %v", value), "")
	}

	var op txnbuild.Operation = &txnbuild.Payment{
		Destination: intent.To,
		Amount:      amount.StringFromInt64(value.Int64()),
		Asset:       asset,
	}
	if data.CreateAccount {
		op = &txnbuild.CreateAccount{Destination: intent.To, Amount: amount.StringFromInt64(value.Int64())}
	}

	txParams := txnbuild.TransactionParams{
		SourceAccount:        &txnbuild.SimpleAccount{AccountID: intent.From, Sequence: data.Sequence},
		IncrementSequenceNum: true,
		Operations:           []txnbuild.Operation{op},
		BaseFee:              fee.Amount.Int64(),
		Preconditions:        txnbuild.Preconditions{TimeBounds: txnbuild.NewTimebounds(0, data.ValidUntil)},
	}
	if intent.Memo != "" {
		txParams.Memo = txnbuild.MemoText(intent.Memo)
	}

	tx, err := txnbuild.NewTransaction(txParams)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), errors.Wrap(err, "failed to build transaction"), "")
	}

	tx, err = tx.Sign(c.passphrase(), kp)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), errors.Wrap(err, "failed to sign transaction"), "")
	}

	envelope, err := tx.MarshalBinary()
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), errors.Wrap(err, "failed to encode envelope"), "")
	}

	return [][]byte{envelope}, nil
}

// Send submits the XDR envelope and returns the hex transaction hash.
func (c *Client) Send(ctx context.Context, signed []byte) (string, error) {
	hash, err := c.node.Submit(ctx, base64.StdEncoding.EncodeToString(signed))
	if err != nil {
		return "", wallet.NewBroadcastError(c.Chain(), err, err.Error())
	}

	return hash, nil
}
