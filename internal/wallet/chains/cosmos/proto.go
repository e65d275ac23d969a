package cosmos

import (
	"github/chapool/wallet-txengine/internal/wallet/chains/internal/pb"
)

const (
	typeMsgSend       = "/cosmos.bank.v1beta1.MsgSend"
	typeSecp256k1Key  = "/cosmos.crypto.secp256k1.PubKey"
	signModeDirect    = 1
	broadcastModeSync = "BROADCAST_MODE_SYNC"
)

type coin struct {
	denom  string
	amount string
}

func (c coin) encode() pb.Message {
	return pb.Message(nil).String(1, c.denom).String(2, c.amount)
}

func msgSend(from, to string, amount coin) pb.Message {
	return pb.Message(nil).String(1, from).String(2, to).Embed(3, amount.encode())
}

func txBody(msg pb.Message, memo string) pb.Message {
	return pb.Message(nil).Embed(1, msg).String(2, memo)
}

func authInfo(pubKey []byte, sequence uint64, fee coin, gasLimit uint64) pb.Message {
	key := pb.Any(typeSecp256k1Key, pb.Message(nil).Bytes(1, pubKey))
	modeInfo := pb.Message(nil).Embed(1, pb.Message(nil).Uint(1, signModeDirect))
	signer := pb.Message(nil).Embed(1, key).Embed(2, modeInfo).Uint(3, sequence)
	feeMsg := pb.Message(nil).Embed(1, fee.encode()).Uint(2, gasLimit)

	return pb.Message(nil).Embed(1, signer).Embed(2, feeMsg)
}

func signDoc(body, auth pb.Message, chainID string, accountNumber uint64) pb.Message {
	return pb.Message(nil).Bytes(1, body).Bytes(2, auth).String(3, chainID).Uint(4, accountNumber)
}

func txRaw(body, auth pb.Message, signature []byte) pb.Message {
	return pb.Message(nil).Bytes(1, body).Bytes(2, auth).Embed(3, signature)
}
