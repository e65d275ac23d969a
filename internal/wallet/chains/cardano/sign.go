package cardano

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
)

// Sign rebuilds the plan from the preloaded UTXOs and TTL and adds the vkey witness over the
// blake2b-256 body hash.
func (c *Client) Sign(_ context.Context, params *wallet.SignerParams, privateKey []byte, priority wallet.FeePriority) ([][]byte, error) {
	data, ok := params.Data.(wallet.CardanoSignData)
	if !ok {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrWrongSignData, "")
	}

	fee := params.FeeFor(priority)
	if fee.Amount == nil {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrMissingFee, string(priority))
	}

	key, err := wallet.Ed25519Key(privateKey)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}
	defer clear(key)
	pub := key.Public().(ed25519.PublicKey)

	pl, amount, err := c.planner(params.Intent, data.TTL)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	if !bytes.Equal(pl.from, enterpriseAddress(c.cfg, pub)) {
		return nil, wallet.NewSignError(c.Chain(), nil, "from address does not match private key")
	}

	p, err := pl.build(data.UTXOs, amount, params.Intent.UseMaxAmount)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	if !fee.Amount.IsUint64() || p.fee != fee.Amount.Uint64() {
		return nil, wallet.NewSignError(c.Chain(), nil, "planned fee differs from quoted fee")
	}

	body, err := p.body(pl.from, pl.to, pl.ttl)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	tx, err := encodeTransaction(body, pub, ed25519.Sign(key, bodyHash(body)))
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	return [][]byte{tx}, nil
}

// Send submits the CBOR transaction. The hash is computed locally when the node does not
// return one.
func (c *Client) Send(ctx context.Context, signed []byte) (string, error) {
	hash, err := c.node.Submit(ctx, signed)
	if err != nil {
		return "", wallet.NewBroadcastError(c.Chain(), err, err.Error())
	}

	if hash != "" {
		return hash, nil
	}

	hash, err = TxHash(signed)
	if err != nil {
		return "", wallet.NewBroadcastError(c.Chain(), errors.Wrap(err, "submitted transaction has no hash"), "")
	}

	return hash, nil
}
