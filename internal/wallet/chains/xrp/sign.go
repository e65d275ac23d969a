package xrp

import (
	"context"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/shopspring/decimal"

	"github/chapool/wallet-txengine/internal/wallet"
)

// Sign serializes a Payment (or a TrustSet for asset activation), signs SHA512Half of the
// signing payload and returns the binary transaction blob.
func (c *Client) Sign(_ context.Context, params *wallet.SignerParams, privateKey []byte, priority wallet.FeePriority) ([][]byte, error) {
	data, ok := params.Data.(wallet.XrpSignData)
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

	account := btcutil.Hash160(pub)
	if encodeAddress(account) != params.Intent.From {
		return nil, wallet.NewSignError(c.Chain(), nil, "from address does not match private key")
	}

	feeValue, err := nativeAmount(fee.Amount)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	tx := object{
		"Flags":              flagFullyCanonicalSig,
		"Sequence":           data.Sequence,
		"LastLedgerSequence": data.BlockNumber + ledgerWindow,
		"Fee":                feeValue,
		"SigningPubKey":      strings.ToUpper(hex.EncodeToString(pub)),
		"Account":            params.Intent.From,
	}

	if err := c.operation(tx, params, fee); err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	payload, err := tx.signingPayload()
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	sig := ecdsa.Sign(key, sha512Half(payload)).Serialize()
	tx["TxnSignature"] = strings.ToUpper(hex.EncodeToString(sig))

	blob, err := tx.blob()
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	return [][]byte{blob}, nil
}

// operation adds the TrustSet or Payment fields to tx.
func (c *Client) operation(tx object, params *wallet.SignerParams, fee wallet.Fee) error {
	intent := params.Intent

	if intent.Type == wallet.TransactionTypeAssetActivation {
		currency, issuer, err := parseToken(intent.AssetID.TokenID)
		if err != nil {
			return err
		}

		limit, err := issuedAmount(decimal.RequireFromString(trustLimit), currency, issuer)
		if err != nil {
			return err
		}

		tx["TransactionType"] = txTypeTrustSet
		tx["LimitAmount"] = limit

		return nil
	}

	if _, err := decodeAddress(intent.To); err != nil {
		return err
	}

	amount := params.FinalAmount(fee)

	var (
		value any
		err   error
	)
	if intent.AssetID.IsNative() {
		value, err = nativeAmount(amount)
	} else {
		var currency, issuer string
		currency, issuer, err = parseToken(intent.AssetID.TokenID)
		if err == nil {
			value, err = issuedAmount(decimal.NewFromBigInt(amount, -tokenDecimals), currency, issuer)
		}
	}
	if err != nil {
		return err
	}

	tx["TransactionType"] = txTypePayment
	tx["Destination"] = intent.To
	tx["Amount"] = value

	// a non-numeric memo means tag 0, which is encoded by leaving the field out.
	if tag, err := strconv.ParseUint(strings.TrimSpace(intent.Memo), 10, 32); err == nil && tag != 0 {
		tx["DestinationTag"] = uint32(tag)
	}

	return nil
}

// Send submits the blob. tes and ter (queued) results are accepted.
func (c *Client) Send(ctx context.Context, signed []byte) (string, error) {
	resp, err := c.node.Submit(ctx, strings.ToUpper(hex.EncodeToString(signed)))
	if err != nil {
		return "", wallet.NewBroadcastError(c.Chain(), err, err.Error())
	}

	if !strings.HasPrefix(resp.EngineResult, "tes") && !strings.HasPrefix(resp.EngineResult, "ter") {
		return "", wallet.NewBroadcastError(c.Chain(), nil, resp.EngineResult+": "+resp.EngineResultMessage)
	}

	if resp.TxJSON.Hash != "" {
		return resp.TxJSON.Hash, nil
	}

	return TxHash(signed), nil
}

// TxHash is SHA512Half of the hash prefix and the signed blob.
func TxHash(signed []byte) string {
	return strings.ToUpper(hex.EncodeToString(sha512Half(prefixHash, signed)))
}
