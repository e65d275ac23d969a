package sui

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
)

// Sign checks the preloaded digest against the transaction bytes and signs it. The signed
// payload is "base64(txBytes)_base64(flag || signature || pubkey)".
func (c *Client) Sign(_ context.Context, params *wallet.SignerParams, privateKey []byte, _ wallet.FeePriority) ([][]byte, error) {
	data, ok := params.Data.(wallet.SuiSignData)
	if !ok {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrWrongSignData, "")
	}

	txBytes, digestHex, found := strings.Cut(data.MessageBytes, "_")
	if !found {
		return nil, wallet.NewSignError(c.Chain(), nil, "malformed message bytes")
	}

	raw, err := base64.StdEncoding.DecodeString(txBytes)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), errors.Wrap(err, "invalid transaction bytes"), "")
	}

	expected, err := hex.DecodeString(digestHex)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), errors.Wrap(err, "invalid digest"), "")
	}

	sum := digest(raw)
	if !bytes.Equal(sum[:], expected) {
		return nil, wallet.NewSignError(c.Chain(), nil, "digest does not match transaction bytes")
	}

	key, err := wallet.Ed25519Key(privateKey)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}
	pub := key.Public().(ed25519.PublicKey) //nolint:forcetypeassert

	if address(pub) != strings.ToLower(params.Intent.From) {
		return nil, wallet.NewSignError(c.Chain(), nil, "from address does not match private key")
	}

	sig := ed25519.Sign(key, sum[:])

	serialized := make([]byte, 0, 1+len(sig)+len(pub))
	serialized = append(serialized, ed25519Flag)
	serialized = append(serialized, sig...)
	serialized = append(serialized, pub...)

	return [][]byte{[]byte(txBytes + "_" + base64.StdEncoding.EncodeToString(serialized))}, nil
}

func (c *Client) Send(ctx context.Context, signed []byte) (string, error) {
	txBytes, signature, found := strings.Cut(string(signed), "_")
	if !found {
		return "", wallet.NewBroadcastError(c.Chain(), nil, "malformed signed payload")
	}

	digest, err := c.node.Execute(ctx, txBytes, signature)
	if err != nil {
		return "", wallet.NewBroadcastError(c.Chain(), err, err.Error())
	}

	return digest, nil
}
