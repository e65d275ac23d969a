package polkadot

import (
	"context"
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github/chapool/wallet-txengine/internal/wallet"
)

// GetStatus scans the blocks of the extrinsic's mortality window, starting at the block the
// record was created at. An extrinsic not found once the window has passed can no longer be
// included and is failed.
func (c *Client) GetStatus(ctx context.Context, req wallet.StatusRequest) (*wallet.StatusResult, error) {
	head, err := c.node.HeadNumber(ctx)
	if err != nil {
		return nil, wallet.NewStatusError(c.Chain(), err, "")
	}

	start, known := uint64(0), false
	if n, err := strconv.ParseUint(req.BlockNumber, 10, 64); err == nil {
		start, known = n, true
	} else if head > eraPeriod {
		start = head - eraPeriod
	}

	end := min(head, start+eraPeriod)
	if start > end {
		return wallet.PendingStatus(), nil
	}

	blocks := make([]*Block, end-start+1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)
	for i := range blocks {
		g.Go(func() error {
			b, err := c.node.Block(gctx, start+uint64(i))
			blocks[i] = b
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, wallet.NewStatusError(c.Chain(), err, "")
	}

	for _, b := range blocks {
		for _, x := range b.Extrinsics {
			if !strings.EqualFold(x.Hash, req.Hash) {
				continue
			}

			result := &wallet.StatusResult{State: wallet.TransactionStateReverted, Fee: extrinsicFee(x)}
			if x.Success {
				result.State = wallet.TransactionStateConfirmed
			}

			return result, nil
		}
	}

	if known && head > start+eraPeriod {
		return &wallet.StatusResult{State: wallet.TransactionStateFailed}, nil
	}

	return wallet.PendingStatus(), nil
}

// extrinsicFee reads the partial fee, falling back to the TransactionFeePaid event.
func extrinsicFee(x Extrinsic) *big.Int {
	if fee, ok := new(big.Int).SetString(x.Info.PartialFee, 10); ok {
		return fee
	}

	for _, ev := range x.Events {
		if ev.Method.Pallet != "transactionPayment" || ev.Method.Method != "TransactionFeePaid" || len(ev.Data) < 2 {
			continue
		}

		var actual string
		if err := json.Unmarshal(ev.Data[1], &actual); err != nil {
			return nil
		}
		if fee, ok := new(big.Int).SetString(actual, 10); ok {
			return fee
		}
	}

	return nil
}
