package wallet

import "math/big"

// ChainSignData is the closed set of per-chain signing inputs produced by a SignerPreloader.
// Variants are declared in this file only; the unexported marker method keeps the set closed.
type ChainSignData interface {
	FeeFor(p FeePriority) (Fee, bool)
	isChainSignData()
}

// UTXO is a spendable output owned by the sender.
type UTXO struct {
	TxID    string
	Vout    uint32
	Amount  int64
	Address string
}

// UTXOSignData serves Bitcoin-family chains.
type UTXOSignData struct {
	FeeSet
	UTXOs []UTXO
}

// EVMSignData serves EVM chains.
type EVMSignData struct {
	FeeSet
	ChainID int64
	Nonce   uint64
}

// SolanaSignData carries the recent blockhash the transaction is anchored to. Token transfers
// also carry the associated token accounts; CreateRecipientAccount is set when the recipient's
// account does not exist yet.
type SolanaSignData struct {
	FeeSet
	RecentBlockhash        string
	SenderTokenAccount     string
	RecipientTokenAccount  string
	CreateRecipientAccount bool
}

// SuiSignData carries the node-built transaction as "base64(txBytes)_hex(digest)".
type SuiSignData struct {
	FeeSet
	MessageBytes string
}

// AptosSignData carries the raw transaction fields that are not part of the fee quote. The
// gas unit price and max gas amount of each tier live in its Fee.
type AptosSignData struct {
	FeeSet
	ChainID    uint8
	Sequence   uint64
	Expiration uint64
}

// CosmosSignData serves Cosmos-SDK chains.
type CosmosSignData struct {
	FeeSet
	ChainID       string
	AccountNumber uint64
	Sequence      uint64
}

// XrpSignData serves the XRP ledger. BlockNumber is the current ledger index.
type XrpSignData struct {
	FeeSet
	Sequence    uint32
	BlockNumber uint32
}

// PolkadotSignData carries runtime and block material for a mortal extrinsic.
type PolkadotSignData struct {
	FeeSet
	GenesisHash        []byte
	BlockHash          []byte
	BlockNumber        uint64
	SpecVersion        uint32
	TransactionVersion uint32
	Nonce              uint64
	Period             uint64
}

// CardanoSignData carries the UTXO set the plan was built from and the validity upper bound.
type CardanoSignData struct {
	FeeSet
	UTXOs []UTXO
	TTL   uint64
}

// TronSignData carries the reference block the transaction is anchored to.
type TronSignData struct {
	FeeSet
	BlockNumber    int64
	BlockHash      []byte
	BlockTimestamp int64
	FeeLimit       *big.Int
}

// TonSignData carries the wallet contract state. Deploy is set while the wallet contract is
// not deployed, the first external message then carries its state init.
type TonSignData struct {
	FeeSet
	Seqno      uint32
	ValidUntil uint32
	Deploy     bool
	// JettonWallet is the sender's jetton wallet for token transfers.
	JettonWallet string
}

// NearSignData carries the access key nonce and the block hash the transaction refers to.
type NearSignData struct {
	FeeSet
	Nonce     uint64
	BlockHash []byte
}

// StellarSignData carries the source account sequence. CreateAccount is set when the
// destination does not exist yet and the payment has to fund it.
type StellarSignData struct {
	FeeSet
	Sequence      int64
	ValidUntil    int64
	CreateAccount bool
}

// AlgorandSignData carries the suggested params of the round the transaction is valid from.
type AlgorandSignData struct {
	FeeSet
	GenesisID   string
	GenesisHash []byte
	FirstRound  uint64
	LastRound   uint64
}

func (UTXOSignData) isChainSignData()     {}
func (EVMSignData) isChainSignData()      {}
func (SolanaSignData) isChainSignData()   {}
func (SuiSignData) isChainSignData()      {}
func (AptosSignData) isChainSignData()    {}
func (CosmosSignData) isChainSignData()   {}
func (XrpSignData) isChainSignData()      {}
func (PolkadotSignData) isChainSignData() {}
func (CardanoSignData) isChainSignData()  {}
func (TronSignData) isChainSignData()     {}
func (TonSignData) isChainSignData()      {}
func (NearSignData) isChainSignData()     {}
func (StellarSignData) isChainSignData()  {}
func (AlgorandSignData) isChainSignData() {}
