package ton

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github/chapool/wallet-txengine/internal/wallet"
)

// Sign returns the BOC of the external message carrying the signed v4r2 body. Max native
// transfers send with mode 128 so the contract pays the fee out of the carried balance.
func (c *Client) Sign(_ context.Context, params *wallet.SignerParams, privateKey []byte, _ wallet.FeePriority) ([][]byte, error) {
	data, ok := params.Data.(wallet.TonSignData)
	if !ok {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrWrongSignData, "")
	}

	key, err := wallet.Ed25519Key(privateKey)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}
	pub := key.Public().(ed25519.PublicKey) //nolint:forcetypeassert

	owner, err := walletAddress(pub)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}
	from, err := parseAddress(params.Intent.From)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}
	if !bytes.Equal(owner.Data(), from.Data()) {
		return nil, wallet.NewSignError(c.Chain(), nil, "from address does not match private key")
	}

	amount := params.Intent.Amount
	if params.Intent.UseMaxAmount && params.Intent.AssetID.IsNative() {
		amount = nil
	}

	t, err := buildTransfer(params.Intent, data, amount)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	payload, err := signingPayload(t, data)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	sig := ed25519.Sign(key, payload.EndCell().Hash())

	msg, err := externalMessage(owner, pub, payload, sig, data.Deploy)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	return [][]byte{msg.ToBOC()}, nil
}

// Send returns the hash of the external message, which is what status lookups resolve.
func (c *Client) Send(ctx context.Context, signed []byte) (string, error) {
	hash, err := c.node.SendBoc(ctx, signed)
	if err != nil {
		return "", wallet.NewBroadcastError(c.Chain(), err, err.Error())
	}

	return hash, nil
}
