package tron

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fbsobreira/gotron-sdk/pkg/proto/core"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"

	"github/chapool/wallet-txengine/internal/wallet"
)

const (
	trc20TransferSelector   = "transfer(address,uint256)"
	trc20TransferMethodID   = "a9059cbb"
	trc20TransferMethodSize = 4
)

var methodTransfer = common.FromHex(trc20TransferMethodID)

func contract(kind core.Transaction_Contract_ContractType, msg proto.Message) (*core.Transaction_Contract, error) {
	param, err := anypb.New(msg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack contract")
	}

	return &core.Transaction_Contract{Type: kind, Parameter: param}, nil
}

func transferContract(owner, to []byte, amount int64) (*core.Transaction_Contract, error) {
	return contract(core.Transaction_Contract_TransferContract, &core.TransferContract{
		OwnerAddress: owner,
		ToAddress:    to,
		Amount:       amount,
	})
}

func triggerContract(owner, token, data []byte) (*core.Transaction_Contract, error) {
	return contract(core.Transaction_Contract_TriggerSmartContract, &core.TriggerSmartContract{
		OwnerAddress:    owner,
		ContractAddress: token,
		Data:            data,
	})
}

// trc20Transfer is the ABI encoded transfer(address,uint256) call. to is a 21 byte address.
func trc20Transfer(to []byte, amount *big.Int) []byte {
	data := make([]byte, 0, trc20TransferMethodSize+64)
	data = append(data, methodTransfer...)
	data = append(data, common.LeftPadBytes(to[1:], 32)...)

	return append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
}

// trc20Parameter is the hex ABI parameter string used for energy estimation.
func trc20Parameter(to []byte, amount *big.Int) string {
	return common.Bytes2Hex(trc20Transfer(to, amount)[trc20TransferMethodSize:])
}

// rawData references the preloaded block: bytes 6..8 of the big-endian block number and bytes
// 8..16 of the block id.
func rawData(data wallet.TronSignData, c *core.Transaction_Contract, memo string, feeLimit int64) (*core.TransactionRaw, error) {
	if len(data.BlockHash) < 16 {
		return nil, errors.New("reference block id too short")
	}

	number := binary.BigEndian.AppendUint64(nil, uint64(data.BlockNumber))

	raw := &core.TransactionRaw{
		RefBlockBytes: number[6:8],
		RefBlockHash:  data.BlockHash[8:16],
		Expiration:    data.BlockTimestamp + expirationWindow,
		Contract:      []*core.Transaction_Contract{c},
		Timestamp:     data.BlockTimestamp,
		FeeLimit:      feeLimit,
	}
	if memo != "" {
		raw.Data = []byte(memo)
	}

	return raw, nil
}

// signedTransaction signs the sha256 of the serialized raw data and returns the serialized
// Transaction.
func signedTransaction(raw *core.TransactionRaw, sign func(hash []byte) ([]byte, error)) ([]byte, error) {
	encoded, err := proto.Marshal(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode raw data")
	}

	hash := sha256.Sum256(encoded)
	sig, err := sign(hash[:])
	if err != nil {
		return nil, err
	}

	signed, err := proto.Marshal(&core.Transaction{RawData: raw, Signature: [][]byte{sig}})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode transaction")
	}

	return signed, nil
}

// TxID is the sha256 of the raw data of a signed transaction.
func TxID(signed []byte) (string, error) {
	var tx core.Transaction
	if err := proto.Unmarshal(signed, &tx); err != nil {
		return "", errors.Wrap(err, "failed to decode transaction")
	}
	if tx.GetRawData() == nil {
		return "", errors.New("transaction has no raw data")
	}

	raw, err := proto.Marshal(tx.GetRawData())
	if err != nil {
		return "", errors.Wrap(err, "failed to encode raw data")
	}

	sum := sha256.Sum256(raw)

	return common.Bytes2Hex(sum[:]), nil
}
