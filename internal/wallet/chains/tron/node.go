package tron

import (
	"context"
	"encoding/hex"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet/node"
)

// Node is the subset of the java-tron HTTP API used by the client. Addresses are passed in
// base58 form.
type Node interface {
	NowBlock(ctx context.Context) (*Block, error)
	// AccountExists reports whether the address has been activated.
	AccountExists(ctx context.Context, address string) (bool, error)
	AccountBandwidth(ctx context.Context, address string) (*Bandwidth, error)
	ChainParameters(ctx context.Context) (map[string]int64, error)
	EstimateEnergy(ctx context.Context, owner, contract, selector, parameter string) (int64, error)
	Broadcast(ctx context.Context, txHex string) (string, error)
	// TransactionInfo returns nil until the transaction is in a solidified block.
	TransactionInfo(ctx context.Context, id string) (*TransactionInfo, error)
}

type Block struct {
	BlockID     string `json:"blockID"`
	BlockHeader struct {
		RawData struct {
			Number    int64 `json:"number"`
			Timestamp int64 `json:"timestamp"`
		} `json:"raw_data"`
	} `json:"block_header"`
}

type Bandwidth struct {
	FreeNetLimit int64 `json:"freeNetLimit"`
	FreeNetUsed  int64 `json:"freeNetUsed"`
}

// Available is the free bandwidth left today.
func (b *Bandwidth) Available() int64 {
	return b.FreeNetLimit - b.FreeNetUsed
}

type TransactionInfo struct {
	ID          string `json:"id"`
	Fee         int64  `json:"fee"`
	BlockNumber int64  `json:"blockNumber"`
	Result      string `json:"result"`
	Receipt     struct {
		Result string `json:"result"`
	} `json:"receipt"`
}

type restNode struct {
	rest *node.REST
}

// NewRESTNode creates a Node over a java-tron full node HTTP API.
//
//nolint:ireturn
func NewRESTNode(rest *node.REST) Node {
	return &restNode{rest: rest}
}

func (n *restNode) NowBlock(ctx context.Context) (*Block, error) {
	var b Block
	if err := n.rest.Post(ctx, "/wallet/getnowblock", map[string]any{}, &b); err != nil {
		return nil, errors.Wrap(err, "failed to get now block")
	}

	return &b, nil
}

func (n *restNode) AccountExists(ctx context.Context, address string) (bool, error) {
	var account struct {
		Address string `json:"address"`
	}
	if err := n.rest.Post(ctx, "/wallet/getaccount", map[string]any{"address": address, "visible": true}, &account); err != nil {
		return false, errors.Wrap(err, "failed to get account")
	}

	return account.Address != "", nil
}

func (n *restNode) AccountBandwidth(ctx context.Context, address string) (*Bandwidth, error) {
	var b Bandwidth
	if err := n.rest.Post(ctx, "/wallet/getaccountnet", map[string]any{"address": address, "visible": true}, &b); err != nil {
		return nil, errors.Wrap(err, "failed to get account bandwidth")
	}

	return &b, nil
}

func (n *restNode) ChainParameters(ctx context.Context) (map[string]int64, error) {
	var resp struct {
		ChainParameter []struct {
			Key   string `json:"key"`
			Value int64  `json:"value"`
		} `json:"chainParameter"`
	}
	if err := n.rest.Get(ctx, "/wallet/getchainparameters", &resp); err != nil {
		return nil, errors.Wrap(err, "failed to get chain parameters")
	}

	params := make(map[string]int64, len(resp.ChainParameter))
	for _, p := range resp.ChainParameter {
		params[p.Key] = p.Value
	}

	return params, nil
}

func (n *restNode) EstimateEnergy(ctx context.Context, owner, contract, selector, parameter string) (int64, error) {
	req := map[string]any{
		"owner_address":     owner,
		"contract_address":  contract,
		"function_selector": selector,
		"parameter":         parameter,
		"visible":           true,
	}

	var resp struct {
		Result struct {
			Result  bool   `json:"result"`
			Message string `json:"message"`
		} `json:"result"`
		EnergyUsed int64 `json:"energy_used"`
	}
	if err := n.rest.Post(ctx, "/wallet/triggerconstantcontract", req, &resp); err != nil {
		return 0, errors.Wrap(err, "failed to estimate energy")
	}

	if resp.Result.Message != "" {
		return 0, errors.Errorf("energy estimation failed: %s", decodeMessage(resp.Result.Message))
	}

	return resp.EnergyUsed, nil
}

func (n *restNode) Broadcast(ctx context.Context, txHex string) (string, error) {
	var resp struct {
		Result  bool   `json:"result"`
		TxID    string `json:"txid"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := n.rest.Post(ctx, "/wallet/broadcasthex", map[string]string{"transaction": txHex}, &resp); err != nil {
		return "", err
	}

	if !resp.Result {
		return "", errors.Errorf("%s: %s", resp.Code, decodeMessage(resp.Message))
	}

	return resp.TxID, nil
}

func (n *restNode) TransactionInfo(ctx context.Context, id string) (*TransactionInfo, error) {
	var info TransactionInfo
	if err := n.rest.Post(ctx, "/walletsolidity/gettransactioninfobyid", map[string]string{"value": id}, &info); err != nil {
		return nil, errors.Wrap(err, "failed to get transaction info")
	}

	if info.ID == "" {
		return nil, nil //nolint:nilnil
	}

	return &info, nil
}

// decodeMessage undoes the hex encoding java-tron applies to error messages.
func decodeMessage(msg string) string {
	if raw, err := hex.DecodeString(msg); err == nil {
		return string(raw)
	}

	return msg
}
