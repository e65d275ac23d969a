package polkadot

import (
	"context"
	"crypto/ed25519"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github/chapool/wallet-txengine/internal/wallet"
)

// Sign builds a mortal signed extrinsic. A max transfer uses transfer_all, which lets the
// runtime take the fee out of the balance.
func (c *Client) Sign(_ context.Context, params *wallet.SignerParams, privateKey []byte, priority wallet.FeePriority) ([][]byte, error) {
	data, ok := params.Data.(wallet.PolkadotSignData)
	if !ok {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrWrongSignData, "")
	}

	key, err := wallet.Ed25519Key(privateKey)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	pub := key.Public().(ed25519.PublicKey) //nolint:forcetypeassert
	if ss58Encode(networkPrefix, pub) != params.Intent.From {
		return nil, wallet.NewSignError(c.Chain(), nil, "from address does not match private key")
	}

	amount := params.FinalAmount(params.FeeFor(priority))
	call, err := transferCall(params.Intent.To, amount, params.Intent.UseMaxAmount)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	return [][]byte{extrinsic{call: call, data: data}.sign(key)}, nil
}

func (c *Client) Send(ctx context.Context, signed []byte) (string, error) {
	hash, err := c.node.Submit(ctx, hexutil.Encode(signed))
	if err != nil {
		return "", wallet.NewBroadcastError(c.Chain(), err, err.Error())
	}

	if hash == "" {
		return Hash(signed), nil
	}

	return hash, nil
}
