package evm

import (
	"context"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github/chapool/wallet-txengine/internal/wallet/node"
)

// Node is the subset of an Ethereum JSON-RPC node used by the EVM clients.
type Node interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	FeeHistory(ctx context.Context, blockCount uint64, rewardPercentiles []float64) (*ethereum.FeeHistory, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// rpcNode 封装以太坊 RPC 客户端，通过 node.RPC 支持多个 URL 和故障转移
type rpcNode struct {
	rpc *node.RPC
}

// NewNode wraps a failover JSON-RPC caller as an EVM Node.
//
//nolint:ireturn
func NewNode(caller *node.RPC) Node {
	return &rpcNode{rpc: caller}
}

// PendingNonceAt returns the pending nonce for the given address.
func (n *rpcNode) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var nonce uint64
	err := n.rpc.Do(ctx, func(c *rpc.Client) error {
		var err error
		nonce, err = ethclient.NewClient(c).PendingNonceAt(ctx, account)
		return err
	})

	return nonce, err
}

// FeeHistory returns base fees and priority fee percentiles of the latest blocks.
func (n *rpcNode) FeeHistory(ctx context.Context, blockCount uint64, rewardPercentiles []float64) (*ethereum.FeeHistory, error) {
	var history *ethereum.FeeHistory
	err := n.rpc.Do(ctx, func(c *rpc.Client) error {
		var err error
		history, err = ethclient.NewClient(c).FeeHistory(ctx, blockCount, nil, rewardPercentiles)
		return err
	})

	return history, err
}

// EstimateGas 估算 Gas 用量
func (n *rpcNode) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	var gas uint64
	err := n.rpc.Do(ctx, func(c *rpc.Client) error {
		var err error
		gas, err = ethclient.NewClient(c).EstimateGas(ctx, msg)
		return err
	})

	return gas, err
}

// SendTransaction 发送已签名的交易
func (n *rpcNode) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return n.rpc.Do(ctx, func(c *rpc.Client) error {
		return ethclient.NewClient(c).SendTransaction(ctx, tx)
	})
}

// TransactionReceipt 获取交易回执. A transaction that is not mined yet yields ethereum.NotFound.
func (n *rpcNode) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	err := n.rpc.Do(ctx, func(c *rpc.Client) error {
		var err error
		receipt, err = ethclient.NewClient(c).TransactionReceipt(ctx, hash)
		return err
	})

	return receipt, err
}
