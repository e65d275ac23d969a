package near

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/json"
	"math/big"

	"github.com/near/borsh-go"
	"github.com/pkg/errors"
)

const keyTypeEd25519 = 0

type publicKey struct {
	KeyType uint8
	Data    [32]byte
}

type signature struct {
	KeyType uint8
	Data    [64]byte
}

type createAccountAction struct{}

type deployContractAction struct {
	Code []byte
}

type functionCallAction struct {
	MethodName string
	Args       []byte
	Gas        uint64
	Deposit    [16]byte // u128
}

type transferAction struct {
	Deposit [16]byte // u128
}

// action is the borsh enum of NEAR actions, variants in their on-chain order.
type action struct {
	Enum           borsh.Enum `borsh_enum:"true"`
	CreateAccount  createAccountAction
	DeployContract deployContractAction
	FunctionCall   functionCallAction
	Transfer       transferAction
}

const (
	actionFunctionCall borsh.Enum = 2
	actionTransfer     borsh.Enum = 3
)

type transaction struct {
	SignerID   string
	PublicKey  publicKey
	Nonce      uint64
	ReceiverID string
	BlockHash  [32]byte
	Actions    []action
}

type signedTransaction struct {
	Transaction transaction
	Signature   signature
}

// u128 encodes v little endian.
func u128(v *big.Int) ([16]byte, error) {
	var out [16]byte
	if v.Sign() < 0 || v.BitLen() > 128 {
		return out, errors.Errorf("amount %s out of u128 range", v)
	}

	b := v.Bytes()
	for i := range b {
		out[i] = b[len(b)-1-i]
	}

	return out, nil
}

func transfer(amount *big.Int) (action, error) {
	deposit, err := u128(amount)
	if err != nil {
		return action{}, err
	}

	return action{Enum: actionTransfer, Transfer: transferAction{Deposit: deposit}}, nil
}

// ftTransfer calls the NEP-141 ft_transfer method with the required one yoctoNEAR deposit.
func ftTransfer(to string, amount *big.Int, memo string) (action, error) {
	args := map[string]string{"receiver_id": to, "amount": amount.String()}
	if memo != "" {
		args["memo"] = memo
	}

	encoded, err := json.Marshal(args)
	if err != nil {
		return action{}, errors.Wrap(err, "failed to encode ft_transfer args")
	}

	deposit, _ := u128(big.NewInt(1))

	return action{
		Enum: actionFunctionCall,
		FunctionCall: functionCallAction{
			MethodName: "ft_transfer",
			Args:       encoded,
			Gas:        ftTransferGas,
			Deposit:    deposit,
		},
	}, nil
}

// sign returns the borsh signed transaction and its hash, the sha256 of the unsigned
// transaction that the node reports in base58.
func (t *transaction) sign(key ed25519.PrivateKey) ([]byte, [32]byte, error) {
	raw, err := borsh.Serialize(*t)
	if err != nil {
		return nil, [32]byte{}, errors.Wrap(err, "failed to serialize transaction")
	}

	hash := sha256.Sum256(raw)

	stx := signedTransaction{Transaction: *t, Signature: signature{KeyType: keyTypeEd25519}}
	copy(stx.Signature.Data[:], ed25519.Sign(key, hash[:]))

	signed, err := borsh.Serialize(stx)
	if err != nil {
		return nil, [32]byte{}, errors.Wrap(err, "failed to serialize signed transaction")
	}

	return signed, hash, nil
}
