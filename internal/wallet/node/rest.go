package node

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

const (
	DefaultTimeout = 15 * time.Second
	maxErrorBody   = 4096
)

func DefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// HTTPError is a non-2xx answer from a REST node.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// Retryable reports server side failures worth trying on another endpoint.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// IsNotFound reports a 404 answer, which REST nodes use for "unknown transaction".
func IsNotFound(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}

// REST is a JSON over HTTP caller with endpoint failover.
type REST struct {
	chain    chain.Chain
	selector wallet.NodeSelector
	http     *http.Client
	headers  map[string]string
}

type RESTOption func(*REST)

// WithHeader sets a header on every request (API keys such as Blockfrost project_id).
func WithHeader(key, value string) RESTOption {
	return func(r *REST) { r.headers[key] = value }
}

func WithHTTPClient(c *http.Client) RESTOption {
	return func(r *REST) { r.http = c }
}

func NewREST(c chain.Chain, selector wallet.NodeSelector, opts ...RESTOption) *REST {
	r := &REST{
		chain:    c,
		selector: selector,
		http:     DefaultHTTPClient(),
		headers:  make(map[string]string),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Get decodes the JSON answer of GET path into out.
func (r *REST) Get(ctx context.Context, path string, out any) error {
	return r.do(ctx, http.MethodGet, path, "", nil, out)
}

// Post sends body as JSON and decodes the JSON answer into out.
func (r *REST) Post(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to marshal request body")
	}

	return r.do(ctx, http.MethodPost, path, "application/json", data, out)
}

// PostRaw sends body with contentType and decodes the JSON answer into out.
func (r *REST) PostRaw(ctx context.Context, path string, contentType string, body []byte, out any) error {
	return r.do(ctx, http.MethodPost, path, contentType, body, out)
}

func (r *REST) do(ctx context.Context, method, path, contentType string, body []byte, out any) error {
	attempts := len(r.selector.Endpoints(r.chain))
	if attempts == 0 {
		attempts = 1
	}

	var lastErr error
	for range attempts {
		base, err := r.selector.Select(r.chain)
		if err != nil {
			return err
		}

		err = r.once(ctx, method, joinURL(base, path), contentType, body, out)
		if err == nil || !IsTransportError(ctx, err) {
			return err
		}

		log.Debug().Str("chain", r.chain.String()).Str("url", base).Err(err).Msg("REST call failed, trying next endpoint")
		r.selector.ReportFailure(r.chain, base)
		lastErr = err
	}

	return errors.Wrapf(lastErr, "all %s endpoints failed", r.chain)
}

func (r *REST) once(ctx context.Context, method, url, contentType string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to decode %s %s", method, url)
	}

	return nil
}

func joinURL(base, path string) string {
	if path == "" {
		return base
	}

	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
