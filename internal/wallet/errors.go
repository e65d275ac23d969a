package wallet

import (
	"fmt"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet/chain"
)

var (
	ErrUnsupportedChain    = errors.New("unsupported chain")
	ErrUnsupportedTransfer = errors.New("unsupported transfer type")
	ErrInsufficientReserve = errors.New("amount would leave account below reserve")
	ErrWrongSignData       = errors.New("sign data does not match chain")
	ErrNotFound            = errors.New("not found")
	ErrInvalidKey          = errors.New("invalid private key")
	ErrMissingFee          = errors.New("no fee quote for priority")
)

// PreloadError is returned when chain data needed for signing could not be fetched.
type PreloadError struct {
	Chain  chain.Chain
	Reason string
	Err    error
}

func (e *PreloadError) Error() string {
	return format("preload", e.Chain, e.Reason, e.Err)
}

func (e *PreloadError) Unwrap() error { return e.Err }

// SignError is returned for malformed params, unsupported transfer types or invalid keys.
type SignError struct {
	Chain  chain.Chain
	Reason string
	Err    error
}

func (e *SignError) Error() string {
	return format("sign", e.Chain, e.Reason, e.Err)
}

func (e *SignError) Unwrap() error { return e.Err }

// BroadcastError is returned when the node rejects a transaction or cannot be reached.
type BroadcastError struct {
	Chain  chain.Chain
	Reason string
	Err    error
}

func (e *BroadcastError) Error() string {
	return format("broadcast", e.Chain, e.Reason, e.Err)
}

func (e *BroadcastError) Unwrap() error { return e.Err }

// StatusError is returned when a status query failed. The reconciler treats it as "unchanged".
type StatusError struct {
	Chain  chain.Chain
	Reason string
	Err    error
}

func (e *StatusError) Error() string {
	return format("status", e.Chain, e.Reason, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

func NewPreloadError(c chain.Chain, err error, reason string) error {
	return &PreloadError{Chain: c, Reason: reason, Err: err}
}

func NewSignError(c chain.Chain, err error, reason string) error {
	return &SignError{Chain: c, Reason: reason, Err: err}
}

func NewBroadcastError(c chain.Chain, err error, reason string) error {
	return &BroadcastError{Chain: c, Reason: reason, Err: err}
}

func NewStatusError(c chain.Chain, err error, reason string) error {
	return &StatusError{Chain: c, Reason: reason, Err: err}
}

func format(stage string, c chain.Chain, reason string, err error) string {
	msg := fmt.Sprintf("%s %s", c, stage)
	if reason != "" {
		msg += ": " + reason
	}
	if err != nil {
		msg += ": " + err.Error()
	}

	return msg
}
