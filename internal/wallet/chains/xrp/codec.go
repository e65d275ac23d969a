package xrp

import (
	"bytes"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"math/big"
	"strings"

	binarycodec "github.com/Peersyst/xrpl-go/binary-codec"
	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var alphabet = base58.NewAlphabet("rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz")

var (
	ErrInvalidAddress  = errors.New("invalid xrp address")
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrAmountRange     = errors.New("amount out of range")
)

const (
	accountIDVersion = 0x00
	accountIDLen     = 20

	// native amounts must stay below bit 62, which flags a positive amount on the wire.
	nativePositive = uint64(1) << 62

	maxSignificantDigits = 16
)

var prefixHash = []byte{'T', 'X', 'N', 0}

// encodeAddress renders a 20 byte account id as a classic r-address.
func encodeAddress(accountID []byte) string {
	payload := append([]byte{accountIDVersion}, accountID...)
	return base58.EncodeAlphabet(append(payload, checksum(payload)...), alphabet)
}

func decodeAddress(address string) ([]byte, error) {
	raw, err := base58.DecodeAlphabet(address, alphabet)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidAddress, "%q", address)
	}

	if len(raw) != 1+accountIDLen+4 || raw[0] != accountIDVersion {
		return nil, errors.Wrapf(ErrInvalidAddress, "%q", address)
	}

	payload, sum := raw[:1+accountIDLen], raw[1+accountIDLen:]
	if !bytes.Equal(checksum(payload), sum) {
		return nil, errors.Wrapf(ErrInvalidAddress, "%q: bad checksum", address)
	}

	return payload[1:], nil
}

func checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:4]
}

func sha512Half(parts ...[]byte) []byte {
	h := sha512.New()
	for _, p := range parts {
		h.Write(p)
	}

	return h.Sum(nil)[:32]
}

// nativeAmount renders drops as the string form of an XRP Amount.
func nativeAmount(drops *big.Int) (string, error) {
	if drops.Sign() < 0 || !drops.IsUint64() || drops.Uint64() >= nativePositive {
		return "", errors.Wrapf(ErrAmountRange, "%s drops", drops)
	}

	return drops.String(), nil
}

// issuedAmount is the object form of value (a decimal) of currency issued by issuer. Issued
// values carry at most 16 significant digits.
func issuedAmount(value decimal.Decimal, currency, issuer string) (map[string]any, error) {
	code, err := currencyCode(currency)
	if err != nil {
		return nil, err
	}

	if value.IsNegative() {
		return nil, errors.Wrapf(ErrAmountRange, "negative amount %s", value)
	}
	if digits := strings.TrimRight(value.Coefficient().String(), "0"); len(digits) > maxSignificantDigits {
		return nil, errors.Wrapf(ErrAmountRange, "%s has more than %d significant digits", value, maxSignificantDigits)
	}

	return map[string]any{
		"currency": code,
		"issuer":   issuer,
		"value":    value.String(),
	}, nil
}

// currencyCode accepts a standard three letter code, a 40 character hex code or a longer
// symbol which is packed into a non-standard hex code.
func currencyCode(currency string) (string, error) {
	switch {
	case len(currency) == 3 && !strings.EqualFold(currency, "XRP"):
		return currency, nil
	case len(currency) == 40:
		if _, err := hex.DecodeString(currency); err != nil {
			return "", errors.Wrapf(ErrInvalidCurrency, "%q", currency)
		}
		return strings.ToUpper(currency), nil
	case len(currency) > 3 && len(currency) <= 20:
		code := make([]byte, 20)
		copy(code, currency)
		return strings.ToUpper(hex.EncodeToString(code)), nil
	default:
		return "", errors.Wrapf(ErrInvalidCurrency, "%q", currency)
	}
}

// object is a transaction in the JSON form accepted by the binary codec.
type object map[string]any

// signingPayload is the prefixed canonical serialization without the signature.
func (o object) signingPayload() ([]byte, error) {
	encoded, err := binarycodec.EncodeForSigning(o)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode signing payload")
	}

	return hex.DecodeString(encoded)
}

// blob is the canonical serialization of the signed transaction.
func (o object) blob() ([]byte, error) {
	encoded, err := binarycodec.Encode(o)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode transaction")
	}

	return hex.DecodeString(encoded)
}
