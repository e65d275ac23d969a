package node

import (
	"context"
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

// RPC is a JSON-RPC 2.0 caller with endpoint failover. It is shared by the EVM family (through
// ethclient) and by the JSON-RPC based nodes (Sui).
type RPC struct {
	chain    chain.Chain
	selector wallet.NodeSelector
	http     *http.Client

	mu      sync.Mutex
	clients map[string]*rpc.Client
}

func NewRPC(c chain.Chain, selector wallet.NodeSelector, httpClient *http.Client) *RPC {
	if httpClient == nil {
		httpClient = DefaultHTTPClient()
	}

	return &RPC{
		chain:    c,
		selector: selector,
		http:     httpClient,
		clients:  make(map[string]*rpc.Client),
	}
}

// Call invokes method with positional params and decodes the result into result.
func (r *RPC) Call(ctx context.Context, result any, method string, params ...any) error {
	return r.Do(ctx, func(client *rpc.Client) error {
		return client.CallContext(ctx, result, method, params...)
	})
}

// Do runs fn against the selected endpoint. Transport failures mark the endpoint as failed
// and fn is retried on the next one; answers from the node (JSON-RPC errors, not-found) are
// returned as is.
func (r *RPC) Do(ctx context.Context, fn func(client *rpc.Client) error) error {
	attempts := len(r.selector.Endpoints(r.chain))
	if attempts == 0 {
		attempts = 1
	}

	var lastErr error
	for range attempts {
		url, err := r.selector.Select(r.chain)
		if err != nil {
			return err
		}

		client, err := r.client(ctx, url)
		if err != nil {
			r.selector.ReportFailure(r.chain, url)
			lastErr = err
			continue
		}

		err = fn(client)
		if err == nil || !IsTransportError(ctx, err) {
			return err
		}

		log.Debug().Str("chain", r.chain.String()).Str("url", url).Err(err).Msg("RPC call failed, trying next endpoint")
		r.selector.ReportFailure(r.chain, url)
		r.drop(url)
		lastErr = err
	}

	return errors.Wrapf(lastErr, "all %s endpoints failed", r.chain)
}

// Close 关闭所有客户端连接
func (r *RPC) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for url, client := range r.clients {
		client.Close()
		delete(r.clients, url)
	}
}

func (r *RPC) client(ctx context.Context, url string) (*rpc.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clients[url]; ok {
		return client, nil
	}

	client, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(r.http))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial %s", url)
	}
	r.clients[url] = client

	return client, nil
}

func (r *RPC) drop(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clients[url]; ok {
		client.Close()
		delete(r.clients, url)
	}
}

// IsTransportError reports errors that say nothing about the request itself: connection
// failures and HTTP level errors. Cancellation of the caller's own context is not one.
func IsTransportError(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return false
	}

	if errors.Is(err, ethereum.NotFound) {
		return false
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= http.StatusInternalServerError || httpErr.StatusCode == http.StatusTooManyRequests
	}

	var restErr *HTTPError
	if errors.As(err, &restErr) {
		return restErr.Retryable()
	}

	return true
}
