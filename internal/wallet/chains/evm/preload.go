package evm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github/chapool/wallet-txengine/internal/wallet"
)

// Preload fetches nonce, fee tiers and gas limit concurrently.
func (c *Client) Preload(ctx context.Context, intent wallet.TransferIntent) (*wallet.SignerParams, error) {
	if !common.IsHexAddress(intent.From) {
		return nil, wallet.NewPreloadError(c.Chain(), nil, "invalid sender address "+intent.From)
	}

	var (
		nonce uint64
		fees  []wallet.Fee
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		nonce, err = c.node.PendingNonceAt(gctx, common.HexToAddress(intent.From))
		return errors.Wrap(err, "failed to get pending nonce")
	})
	g.Go(func() error {
		var err error
		fees, err = c.fees(gctx, intent)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	data := wallet.EVMSignData{
		FeeSet:  fees,
		ChainID: c.cfg.EVMChainID,
		Nonce:   nonce,
	}

	return &wallet.SignerParams{
		Intent: intent,
		Data:   data,
		Fee:    data.Default(),
	}, nil
}

// CalculateFees returns one EIP-1559 fee per priority.
func (c *Client) CalculateFees(ctx context.Context, intent wallet.TransferIntent) ([]wallet.Fee, error) {
	fees, err := c.fees(ctx, intent)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	return fees, nil
}

func (c *Client) fees(ctx context.Context, intent wallet.TransferIntent) ([]wallet.Fee, error) {
	var (
		gasLimit uint64
		history  *ethereum.FeeHistory
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		gasLimit, err = c.gasLimit(gctx, intent)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = c.node.FeeHistory(gctx, feeHistoryBlocks, rewardPercentiles)
		return errors.Wrap(err, "failed to get fee history")
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return feeTiers(wallet.NativeAsset(c.Chain()), gasLimit, history)
}

// gasLimit is 21000 for plain transfers, otherwise the node estimate with a 1.5x buffer.
func (c *Client) gasLimit(ctx context.Context, intent wallet.TransferIntent) (uint64, error) {
	if intent.IsNativeTransfer() {
		return nativeGasLimit, nil
	}

	msg, err := callMsg(intent)
	if err != nil {
		return 0, err
	}

	gas, err := c.node.EstimateGas(ctx, msg)
	if err != nil {
		return 0, errors.Wrap(err, "failed to estimate gas")
	}

	if gas == nativeGasLimit {
		return gas, nil
	}

	return gas * gasBufferNumerator / gasBufferDivisor, nil
}

// feeTiers derives Slow/Normal/Fast from the reward percentiles averaged over the history
// window. maxFeePerGas is twice the next block base fee plus the tip.
func feeTiers(asset wallet.AssetID, gasLimit uint64, history *ethereum.FeeHistory) ([]wallet.Fee, error) {
	if history == nil || len(history.BaseFee) == 0 {
		return nil, errors.New("empty fee history")
	}

	baseFee := history.BaseFee[len(history.BaseFee)-1]
	priorities := wallet.FeePriorities()
	fees := make([]wallet.Fee, 0, len(priorities))

	for i, priority := range priorities {
		tip := averageReward(history.Reward, i)
		maxFee := new(big.Int).Mul(baseFee, big.NewInt(baseFeeMultiplier))
		maxFee.Add(maxFee, tip)

		fees = append(fees, wallet.Fee{
			AssetID:  asset,
			Priority: priority,
			Amount:   new(big.Int).Mul(maxFee, new(big.Int).SetUint64(gasLimit)),
			GasLimit: gasLimit,
			GasPrice: maxFee,
			MinerFee: tip,
		})
	}

	return fees, nil
}

func averageReward(rewards [][]*big.Int, column int) *big.Int {
	sum := new(big.Int)
	count := int64(0)

	for _, block := range rewards {
		if column < len(block) && block[column] != nil {
			sum.Add(sum, block[column])
			count++
		}
	}

	if count == 0 {
		return sum
	}

	return sum.Div(sum, big.NewInt(count))
}

func callMsg(intent wallet.TransferIntent) (ethereum.CallMsg, error) {
	if !common.IsHexAddress(intent.To) {
		return ethereum.CallMsg{}, errors.Errorf("invalid destination address %s", intent.To)
	}

	from := common.HexToAddress(intent.From)
	to, value, data := target(intent, intent.Amount)

	return ethereum.CallMsg{From: from, To: &to, Value: value, Data: data}, nil
}

// target resolves the call target: the recipient for native transfers and contract calls,
// the token contract for token transfers.
func target(intent wallet.TransferIntent, amount *big.Int) (common.Address, *big.Int, []byte) {
	if amount == nil {
		amount = new(big.Int)
	}

	recipient := common.HexToAddress(intent.To)

	if !intent.AssetID.IsNative() && intent.Type == wallet.TransactionTypeTransfer && len(intent.Data) == 0 {
		return common.HexToAddress(intent.AssetID.TokenID), new(big.Int), erc20TransferData(recipient, amount.Bytes())
	}

	if intent.AssetID.IsNative() {
		return recipient, amount, intent.Data
	}

	return recipient, new(big.Int), intent.Data
}
