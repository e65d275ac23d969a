package aptos

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
)

// Sign rebuilds the raw transaction with the chosen tier's gas price and max gas amount and
// returns the BCS signed transaction.
func (c *Client) Sign(_ context.Context, params *wallet.SignerParams, privateKey []byte, priority wallet.FeePriority) ([][]byte, error) {
	data, ok := params.Data.(wallet.AptosSignData)
	if !ok {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrWrongSignData, "")
	}

	fee := params.FeeFor(priority)
	if fee.GasPrice == nil || fee.GasLimit == 0 {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrMissingFee, string(priority))
	}

	key, err := wallet.Ed25519Key(privateKey)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}
	pub := key.Public().(ed25519.PublicKey) //nolint:forcetypeassert

	from, err := accountAddress(params.Intent.From)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}
	if address(pub) != hexAddress(from) {
		return nil, wallet.NewSignError(c.Chain(), nil, "from address does not match private key")
	}

	amount := params.FinalAmount(fee)
	if !amount.IsUint64() {
		return nil, wallet.NewSignError(c.Chain(), errors.Errorf("amount %s out of range", amount), "")
	}

	raw, err := buildTransaction(params.Intent, data, amount.Uint64(), fee.GasLimit, fee.GasPrice.Uint64())
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	encoded := raw.encode()
	sig := ed25519.Sign(key, signingMessage(encoded))

	return [][]byte{signedTransaction(encoded, pub, sig)}, nil
}

func (c *Client) Send(ctx context.Context, signed []byte) (string, error) {
	hash, err := c.node.Submit(ctx, signed)
	if err != nil {
		return "", wallet.NewBroadcastError(c.Chain(), err, err.Error())
	}

	return hash, nil
}
