package cosmos

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chains/internal/pb"
)

// Sign builds a MsgSend in SIGN_MODE_DIRECT and signs sha256(SignDoc) with a compact r||s
// signature. The output is the protobuf TxRaw.
func (c *Client) Sign(_ context.Context, params *wallet.SignerParams, privateKey []byte, priority wallet.FeePriority) ([][]byte, error) {
	data, ok := params.Data.(wallet.CosmosSignData)
	if !ok {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrWrongSignData, "")
	}

	fee := params.FeeFor(priority)
	if fee.Amount == nil {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrMissingFee, string(priority))
	}

	if len(privateKey) != secp256k1.PrivKeyBytesLen {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrInvalidKey, "")
	}

	key := secp256k1.PrivKeyFromBytes(privateKey)
	defer key.Zero()
	pub := key.PubKey().SerializeCompressed()

	from, err := address(c.cfg.AddressPrefix, pub)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}
	if from != params.Intent.From {
		return nil, wallet.NewSignError(c.Chain(), nil, "from address does not match private key")
	}

	denom := c.cfg.Denom
	if !params.Intent.AssetID.IsNative() {
		denom = params.Intent.AssetID.TokenID
	}

	amount := params.FinalAmount(fee)
	if amount.Sign() <= 0 {
		return nil, wallet.NewSignError(c.Chain(), nil, "amount must be positive")
	}

	msg := pb.Any(typeMsgSend, msgSend(from, params.Intent.To, coin{denom: denom, amount: amount.String()}))
	body := txBody(msg, params.Intent.Memo)
	auth := authInfo(pub, data.Sequence, coin{denom: c.cfg.Denom, amount: fee.Amount.String()}, fee.GasLimit)

	doc := signDoc(body, auth, data.ChainID, data.AccountNumber)
	sum := sha256.Sum256(doc)

	// SignCompact prefixes the recovery code; the chain expects bare r||s.
	sig := ecdsa.SignCompact(key, sum[:], true)[1:]

	return [][]byte{txRaw(body, auth, sig)}, nil
}

// Send broadcasts in sync mode. A non-zero check-tx code is a rejection.
func (c *Client) Send(ctx context.Context, signed []byte) (string, error) {
	resp, err := c.node.Broadcast(ctx, signed)
	if err != nil {
		return "", wallet.NewBroadcastError(c.Chain(), err, err.Error())
	}

	if resp.Code != 0 {
		return "", wallet.NewBroadcastError(c.Chain(), nil, resp.RawLog)
	}

	if resp.TxHash == "" {
		return TxHash(signed), nil
	}

	return resp.TxHash, nil
}

// TxHash is the upper-case hex sha256 of the TxRaw bytes.
func TxHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
