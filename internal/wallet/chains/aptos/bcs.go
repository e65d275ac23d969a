package aptos

import (
	"encoding/hex"
	"strings"

	"github.com/aptos-labs/aptos-go-sdk/bcs"
	"github.com/pkg/errors"
)

// accountAddress parses a hex address, left padding short forms such as "0x1".
func accountAddress(s string) ([32]byte, error) {
	var addr [32]byte

	h := strings.TrimPrefix(strings.ToLower(s), "0x")
	if h == "" || len(h) > 64 {
		return addr, errors.Errorf("invalid account address %q", s)
	}
	if len(h)%2 == 1 {
		h = "0" + h
	}

	b, err := hex.DecodeString(h)
	if err != nil {
		return addr, errors.Wrapf(err, "invalid account address %q", s)
	}
	copy(addr[32-len(b):], b)

	return addr, nil
}

func hexAddress(addr [32]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

// structTag is a Move struct type such as 0x1::aptos_coin::AptosCoin.
type structTag struct {
	address [32]byte
	module  string
	name    string
}

func parseStructTag(s string) (structTag, error) {
	parts := strings.Split(s, "::")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return structTag{}, errors.Errorf("invalid coin type %q", s)
	}

	addr, err := accountAddress(parts[0])
	if err != nil {
		return structTag{}, err
	}

	return structTag{address: addr, module: parts[1], name: parts[2]}, nil
}

const (
	payloadEntryFunction = 2
	typeTagStruct        = 7
	authenticatorEd25519 = 0
)

// entryFunction is a call to address::module::function with type and BCS encoded arguments.
type entryFunction struct {
	module   structTag // name holds the function
	typeArgs []structTag
	args     [][]byte
}

type rawTransaction struct {
	sender       [32]byte
	sequence     uint64
	payload      entryFunction
	maxGasAmount uint64
	gasUnitPrice uint64
	expiration   uint64
	chainID      uint8
}

// MarshalBCS writes the tag as a struct TypeTag without nested type parameters.
func (t structTag) MarshalBCS(ser *bcs.Serializer) {
	ser.Uleb128(typeTagStruct)
	ser.FixedBytes(t.address[:])
	ser.WriteString(t.module)
	ser.WriteString(t.name)
	ser.Uleb128(0)
}

// MarshalBCS writes the EntryFunction variant of TransactionPayload.
func (f entryFunction) MarshalBCS(ser *bcs.Serializer) {
	ser.Uleb128(payloadEntryFunction)
	ser.FixedBytes(f.module.address[:])
	ser.WriteString(f.module.module)
	ser.WriteString(f.module.name)
	ser.Uleb128(uint32(len(f.typeArgs)))
	for _, tag := range f.typeArgs {
		ser.Struct(tag)
	}
	ser.Uleb128(uint32(len(f.args)))
	for _, arg := range f.args {
		ser.WriteBytes(arg)
	}
}

func (t *rawTransaction) MarshalBCS(ser *bcs.Serializer) {
	ser.FixedBytes(t.sender[:])
	ser.U64(t.sequence)
	ser.Struct(t.payload)
	ser.U64(t.maxGasAmount)
	ser.U64(t.gasUnitPrice)
	ser.U64(t.expiration)
	ser.U8(t.chainID)
}

func (t *rawTransaction) encode() []byte {
	ser := &bcs.Serializer{}
	t.MarshalBCS(ser)

	return ser.ToBytes()
}

// signedTransaction appends an ed25519 authenticator to the raw transaction.
func signedTransaction(raw []byte, pub, sig []byte) []byte {
	ser := &bcs.Serializer{}
	ser.FixedBytes(raw)
	ser.Uleb128(authenticatorEd25519)
	ser.WriteBytes(pub)
	ser.WriteBytes(sig)

	return ser.ToBytes()
}

func u64Arg(v uint64) []byte {
	ser := &bcs.Serializer{}
	ser.U64(v)

	return ser.ToBytes()
}

// simulationTransaction authenticates with SingleSender(NoAccountAuthenticator), which the
// simulate endpoint accepts without a key.
func simulationTransaction(raw []byte) []byte {
	const (
		authenticatorSingleSender = 4
		accountNoAuthenticator    = 4
	)

	ser := &bcs.Serializer{}
	ser.FixedBytes(raw)
	ser.Uleb128(authenticatorSingleSender)
	ser.Uleb128(accountNoAuthenticator)

	return ser.ToBytes()
}
