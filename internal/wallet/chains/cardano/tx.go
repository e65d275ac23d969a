package cardano

import (
	"encoding/hex"
	"math/big"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

var encMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

type txInput struct {
	_      struct{} `cbor:",toarray"`
	TxHash []byte
	Index  uint32
}

type txOutput struct {
	_       struct{} `cbor:",toarray"`
	Address []byte
	Amount  uint64
}

type txBody struct {
	Inputs  []txInput  `cbor:"0,keyasint"`
	Outputs []txOutput `cbor:"1,keyasint"`
	Fee     uint64     `cbor:"2,keyasint"`
	TTL     uint64     `cbor:"3,keyasint"`
}

type vkeyWitness struct {
	_         struct{} `cbor:",toarray"`
	VKey      []byte
	Signature []byte
}

type witnessSet struct {
	VKeys []vkeyWitness `cbor:"0,keyasint"`
}

type transaction struct {
	_         struct{} `cbor:",toarray"`
	Body      cbor.RawMessage
	Witnesses witnessSet
	Valid     bool
	Auxiliary any
}

// body encodes the plan as a transaction body. The body bytes are what the witness signs.
func (p *plan) body(from, to []byte, ttl uint64) ([]byte, error) {
	body := txBody{Fee: p.fee, TTL: ttl}

	for _, u := range p.inputs {
		hash, err := hex.DecodeString(u.TxID)
		if err != nil || len(hash) != 32 {
			return nil, errors.Errorf("invalid utxo hash %q", u.TxID)
		}
		body.Inputs = append(body.Inputs, txInput{TxHash: hash, Index: u.Vout})
	}

	body.Outputs = append(body.Outputs, txOutput{Address: to, Amount: p.amount})
	if p.change > 0 {
		body.Outputs = append(body.Outputs, txOutput{Address: from, Amount: p.change})
	}

	encoded, err := encMode.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode transaction body")
	}

	return encoded, nil
}

func bodyHash(body []byte) []byte {
	sum := blake2b.Sum256(body)
	return sum[:]
}

// encodeTransaction wraps a body and its single witness into a valid transaction without
// auxiliary data.
func encodeTransaction(body, pub, sig []byte) ([]byte, error) {
	tx := transaction{
		Body:      body,
		Witnesses: witnessSet{VKeys: []vkeyWitness{{VKey: pub, Signature: sig}}},
		Valid:     true,
	}

	encoded, err := encMode.Marshal(tx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode transaction")
	}

	return encoded, nil
}

// TxHash is the hex blake2b-256 of the body of an encoded transaction.
func TxHash(signed []byte) (string, error) {
	var tx transaction
	if err := cbor.Unmarshal(signed, &tx); err != nil {
		return "", errors.Wrap(err, "failed to decode transaction")
	}

	return hex.EncodeToString(bodyHash(tx.Body)), nil
}

func lovelace(amount *big.Int) (uint64, error) {
	if amount == nil {
		return 0, nil
	}
	if amount.Sign() < 0 || !amount.IsUint64() {
		return 0, errors.Errorf("amount %s out of range", amount)
	}

	return amount.Uint64(), nil
}
