package tx

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github/chapool/wallet-txengine/internal/util/command"
	"github/chapool/wallet-txengine/internal/wallet"
)

const (
	chainFlag    = "chain"
	walletFlag   = "wallet"
	toFlag       = "to"
	amountFlag   = "amount"
	tokenFlag    = "token"
	decimalsFlag = "decimals"
	memoFlag     = "memo"
	priorityFlag = "priority"
	maxFlag      = "max"
	hashFlag     = "hash"
	senderFlag   = "sender"
	blockFlag    = "block"
	stateFlag    = "state"
	ownerFlag    = "owner"
	limitFlag    = "limit"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("tx",
		newSend(),
		newStatus(),
		newList(),
	)
}

func parsePriority(s string) (wallet.FeePriority, error) {
	for _, p := range wallet.FeePriorities() {
		if strings.EqualFold(string(p), s) {
			return p, nil
		}
	}

	return "", errors.Errorf("unknown priority %q, want slow, normal or fast", s)
}

func parseStates(raw []string) ([]wallet.TransactionState, error) {
	states := make([]wallet.TransactionState, 0, len(raw))
	for _, s := range raw {
		found := false
		for _, state := range []wallet.TransactionState{
			wallet.TransactionStatePending, wallet.TransactionStateConfirmed,
			wallet.TransactionStateFailed, wallet.TransactionStateReverted,
		} {
			if strings.EqualFold(string(state), s) {
				states = append(states, state)
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Errorf("unknown state %q", s)
		}
	}

	return states, nil
}
