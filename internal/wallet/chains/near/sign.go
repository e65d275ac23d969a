package near

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
)

// Sign returns the borsh signed transaction. Token transfers call ft_transfer on the token
// contract named by the asset's token id.
func (c *Client) Sign(_ context.Context, params *wallet.SignerParams, privateKey []byte, priority wallet.FeePriority) ([][]byte, error) {
	data, ok := params.Data.(wallet.NearSignData)
	if !ok {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrWrongSignData, "")
	}
	if len(data.BlockHash) != 32 {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrWrongSignData, "block hash")
	}

	key, err := wallet.Ed25519Key(privateKey)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}
	pub := key.Public().(ed25519.PublicKey) //nolint:forcetypeassert

	if hex.EncodeToString(pub) != params.Intent.From {
		return nil, wallet.NewSignError(c.Chain(), nil, "from address does not match private key")
	}

	intent := params.Intent
	tx := transaction{
		SignerID:   intent.From,
		PublicKey:  publicKey{KeyType: keyTypeEd25519},
		Nonce:      data.Nonce,
		ReceiverID: intent.To,
	}
	copy(tx.PublicKey.Data[:], pub)
	copy(tx.BlockHash[:], data.BlockHash)

	var act action
	if intent.AssetID.IsNative() {
		act, err = transfer(params.FinalAmount(params.FeeFor(priority)))
	} else {
		if intent.Amount == nil {
			return nil, wallet.NewSignError(c.Chain(), errors.New("token amount is required"), "")
		}
		tx.ReceiverID = intent.AssetID.TokenID
		act, err = ftTransfer(intent.To, intent.Amount, intent.Memo)
	}
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}
	tx.Actions = []action{act}

	signed, _, err := tx.sign(key)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	return [][]byte{signed}, nil
}

func (c *Client) Send(ctx context.Context, signed []byte) (string, error) {
	hash, err := c.node.Broadcast(ctx, signed)
	if err != nil {
		return "", wallet.NewBroadcastError(c.Chain(), err, err.Error())
	}

	return hash, nil
}
