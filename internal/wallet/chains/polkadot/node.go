package polkadot

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet/node"
)

// Node is the subset of the Substrate API Sidecar used by the client.
type Node interface {
	Material(ctx context.Context) (*Material, error)
	Nonce(ctx context.Context, address string) (uint64, error)
	// EstimateFee returns the partial fee of a signed extrinsic ("0x" hex).
	EstimateFee(ctx context.Context, tx string) (string, error)
	Submit(ctx context.Context, tx string) (string, error)
	HeadNumber(ctx context.Context) (uint64, error)
	Block(ctx context.Context, number uint64) (*Block, error)
}

// Material is the chain state an extrinsic is built against.
type Material struct {
	At struct {
		Hash   string `json:"hash"`
		Height string `json:"height"`
	} `json:"at"`
	GenesisHash string `json:"genesisHash"`
	SpecVersion string `json:"specVersion"`
	TxVersion   string `json:"txVersion"`
}

type Block struct {
	Number     string      `json:"number"`
	Hash       string      `json:"hash"`
	Extrinsics []Extrinsic `json:"extrinsics"`
}

type Extrinsic struct {
	Hash    string `json:"hash"`
	Success bool   `json:"success"`
	Info    struct {
		PartialFee string `json:"partialFee"`
	} `json:"info"`
	Events []Event `json:"events"`
}

type Event struct {
	Method struct {
		Pallet string `json:"pallet"`
		Method string `json:"method"`
	} `json:"method"`
	Data []json.RawMessage `json:"data"`
}

type sidecarNode struct {
	rest *node.REST
}

// NewSidecarNode creates a Node over a Substrate API Sidecar.
//
//nolint:ireturn
func NewSidecarNode(rest *node.REST) Node {
	return &sidecarNode{rest: rest}
}

func (n *sidecarNode) Material(ctx context.Context) (*Material, error) {
	var m Material
	if err := n.rest.Get(ctx, "/transaction/material?noMeta=true", &m); err != nil {
		return nil, errors.Wrap(err, "failed to get transaction material")
	}

	return &m, nil
}

func (n *sidecarNode) Nonce(ctx context.Context, address string) (uint64, error) {
	var resp struct {
		Nonce string `json:"nonce"`
	}
	if err := n.rest.Get(ctx, "/accounts/"+address+"/balance-info", &resp); err != nil {
		return 0, errors.Wrap(err, "failed to get nonce")
	}

	nonce, err := strconv.ParseUint(resp.Nonce, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid nonce %q", resp.Nonce)
	}

	return nonce, nil
}

func (n *sidecarNode) EstimateFee(ctx context.Context, tx string) (string, error) {
	var resp struct {
		PartialFee string `json:"partialFee"`
	}
	if err := n.rest.Post(ctx, "/transaction/fee-estimate", map[string]string{"tx": tx}, &resp); err != nil {
		return "", errors.Wrap(err, "failed to estimate fee")
	}

	return resp.PartialFee, nil
}

func (n *sidecarNode) Submit(ctx context.Context, tx string) (string, error) {
	var resp struct {
		Hash string `json:"hash"`
	}
	if err := n.rest.Post(ctx, "/transaction", map[string]string{"tx": tx}, &resp); err != nil {
		return "", err
	}

	return resp.Hash, nil
}

func (n *sidecarNode) HeadNumber(ctx context.Context) (uint64, error) {
	var header struct {
		Number string `json:"number"`
	}
	if err := n.rest.Get(ctx, "/blocks/head/header", &header); err != nil {
		return 0, errors.Wrap(err, "failed to get head")
	}

	number, err := strconv.ParseUint(header.Number, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid block number %q", header.Number)
	}

	return number, nil
}

func (n *sidecarNode) Block(ctx context.Context, number uint64) (*Block, error) {
	var b Block
	if err := n.rest.Get(ctx, "/blocks/"+strconv.FormatUint(number, 10), &b); err != nil {
		return nil, errors.Wrapf(err, "failed to get block %d", number)
	}

	return &b, nil
}
