package near

import (
	"bytes"
	"context"
	"encoding/json"

	"github/chapool/wallet-txengine/internal/wallet"
)

func (c *Client) GetStatus(ctx context.Context, req wallet.StatusRequest) (*wallet.StatusResult, error) {
	outcome, err := c.node.Transaction(ctx, req.Hash, req.Sender)
	if err != nil {
		return nil, wallet.NewStatusError(c.Chain(), err, "")
	}
	if outcome == nil {
		return wallet.PendingStatus(), nil
	}

	var status map[string]json.RawMessage
	if len(outcome.Status) == 0 || bytes.HasPrefix(outcome.Status, []byte(`"`)) || json.Unmarshal(outcome.Status, &status) != nil {
		// NotStarted / Started
		return wallet.PendingStatus(), nil
	}

	result := &wallet.StatusResult{Fee: outcome.TokensBurnt()}
	switch {
	case status["Failure"] != nil:
		result.State = wallet.TransactionStateReverted
	case status["SuccessValue"] != nil, status["SuccessReceiptId"] != nil:
		result.State = wallet.TransactionStateConfirmed
	default:
		return wallet.PendingStatus(), nil
	}

	return result, nil
}
