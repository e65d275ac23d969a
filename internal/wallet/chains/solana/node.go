package solana

import (
	"context"
	"net/http"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
	"github/chapool/wallet-txengine/internal/wallet/node"
)

// Node is the subset of the Solana JSON-RPC API used by the client.
type Node interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	// PrioritizationFees returns recent per compute unit fees in micro-lamports.
	PrioritizationFees(ctx context.Context, accounts []solana.PublicKey) ([]uint64, error)
	AccountExists(ctx context.Context, account solana.PublicKey) (bool, error)
	SendTransaction(ctx context.Context, raw []byte) (solana.Signature, error)
	// SignatureStatus returns nil while the cluster has not seen the signature.
	SignatureStatus(ctx context.Context, sig solana.Signature) (*rpc.SignatureStatusesResult, error)
}

type rpcNode struct {
	chain      chain.Chain
	selector   wallet.NodeSelector
	httpClient *http.Client

	mu      sync.Mutex
	clients map[string]*rpc.Client
}

// NewRPCNode creates a Node that fails over between the selector's endpoints.
//
//nolint:ireturn
func NewRPCNode(c chain.Chain, selector wallet.NodeSelector, httpClient *http.Client) Node {
	if httpClient == nil {
		httpClient = node.DefaultHTTPClient()
	}

	return &rpcNode{chain: c, selector: selector, httpClient: httpClient, clients: map[string]*rpc.Client{}}
}

func (n *rpcNode) client(url string) *rpc.Client {
	n.mu.Lock()
	defer n.mu.Unlock()

	if cl, ok := n.clients[url]; ok {
		return cl
	}

	cl := rpc.NewWithCustomRPCClient(jsonrpc.NewClientWithOpts(url, &jsonrpc.RPCClientOpts{HTTPClient: n.httpClient}))
	n.clients[url] = cl

	return cl
}

func (n *rpcNode) do(ctx context.Context, fn func(cl *rpc.Client) error) error {
	attempts := len(n.selector.Endpoints(n.chain))
	if attempts == 0 {
		attempts = 1
	}

	var lastErr error
	for range attempts {
		url, err := n.selector.Select(n.chain)
		if err != nil {
			return err
		}

		lastErr = fn(n.client(url))
		if lastErr == nil || !isTransportError(ctx, lastErr) {
			return lastErr
		}

		log.Warn().Err(lastErr).Str("chain", string(n.chain)).Str("url", url).Msg("Solana node failed, switching endpoint")
		n.selector.ReportFailure(n.chain, url)
	}

	return lastErr
}

func isTransportError(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, rpc.ErrNotFound) {
		return false
	}

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return false
	}

	var httpErr *jsonrpc.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code >= http.StatusInternalServerError || httpErr.Code == http.StatusTooManyRequests
	}

	return true
}

func (n *rpcNode) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	var hash solana.Hash
	err := n.do(ctx, func(cl *rpc.Client) error {
		out, err := cl.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
		if err != nil {
			return err
		}
		if out == nil || out.Value == nil {
			return errors.New("empty blockhash response")
		}
		hash = out.Value.Blockhash
		return nil
	})

	return hash, errors.Wrap(err, "failed to get latest blockhash")
}

func (n *rpcNode) PrioritizationFees(ctx context.Context, accounts []solana.PublicKey) ([]uint64, error) {
	var fees []uint64
	err := n.do(ctx, func(cl *rpc.Client) error {
		out, err := cl.GetRecentPrioritizationFees(ctx, accounts)
		if err != nil {
			return err
		}
		fees = make([]uint64, 0, len(out))
		for _, f := range out {
			fees = append(fees, f.PrioritizationFee)
		}
		return nil
	})

	return fees, errors.Wrap(err, "failed to get prioritization fees")
}

func (n *rpcNode) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	var exists bool
	err := n.do(ctx, func(cl *rpc.Client) error {
		_, err := cl.GetAccountInfo(ctx, account)
		switch {
		case errors.Is(err, rpc.ErrNotFound):
			exists = false
			return nil
		case err != nil:
			return err
		default:
			exists = true
			return nil
		}
	})

	return exists, errors.Wrap(err, "failed to get account info")
}

func (n *rpcNode) SendTransaction(ctx context.Context, raw []byte) (solana.Signature, error) {
	var sig solana.Signature
	err := n.do(ctx, func(cl *rpc.Client) error {
		var err error
		sig, err = cl.SendRawTransactionWithOpts(ctx, raw, rpc.TransactionOpts{PreflightCommitment: rpc.CommitmentConfirmed})
		return err
	})

	return sig, err
}

func (n *rpcNode) SignatureStatus(ctx context.Context, sig solana.Signature) (*rpc.SignatureStatusesResult, error) {
	var status *rpc.SignatureStatusesResult
	err := n.do(ctx, func(cl *rpc.Client) error {
		out, err := cl.GetSignatureStatuses(ctx, true, sig)
		switch {
		case errors.Is(err, rpc.ErrNotFound):
			return nil
		case err != nil:
			return err
		}
		if len(out.Value) > 0 {
			status = out.Value[0]
		}
		return nil
	})

	return status, errors.Wrap(err, "failed to get signature status")
}
