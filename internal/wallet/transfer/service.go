package transfer

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github/chapool/wallet-txengine/internal/metrics"
	"github/chapool/wallet-txengine/internal/util"
	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/registry"
	"github/chapool/wallet-txengine/internal/wallet/store"
)

type service struct {
	registry registry.Registry
	vault    wallet.KeyVault
	store    store.Store

	now     func() time.Time
	metrics *metrics.BroadcastMetrics
	log     zerolog.Logger

	mu     sync.Mutex
	recent *lru.Cache
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithMetrics(m *metrics.BroadcastMetrics) Option {
	return func(s *service) { s.metrics = m }
}

// NewService 创建交易服务
//
//nolint:ireturn
func NewService(reg registry.Registry, vault wallet.KeyVault, st store.Store, opts ...Option) Service {
	s := &service{
		registry: reg,
		vault:    vault,
		store:    st,
		now:      time.Now,
		log:      util.ComponentLogger("transfer"),
		recent:   lru.New(RecentBroadcasts),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.metrics == nil {
		s.metrics = metrics.NewBroadcastMetrics(prometheus.NewRegistry())
	}

	return s
}

func validate(intent wallet.TransferIntent) error {
	if intent.AssetID.Chain == "" {
		return errors.Wrap(ErrInvalidIntent, "missing chain")
	}
	if intent.From == "" || intent.To == "" {
		return errors.Wrap(ErrInvalidIntent, "missing sender or destination")
	}
	if intent.Amount == nil || intent.Amount.Sign() < 0 {
		return errors.Wrap(ErrInvalidIntent, "missing or negative amount")
	}
	if intent.Type == wallet.TransactionTypeSwap && intent.Swap == nil {
		return errors.Wrap(ErrInvalidIntent, "swap without swap metadata")
	}

	return nil
}

func (s *service) Quote(ctx context.Context, intent wallet.TransferIntent) ([]wallet.Fee, error) {
	if err := validate(intent); err != nil {
		return nil, err
	}

	calc, err := s.registry.FeeCalculator(intent.Chain())
	if err != nil {
		return nil, err
	}

	return calc.CalculateFees(ctx, intent)
}

func (s *service) Prepare(ctx context.Context, intent wallet.TransferIntent) (*wallet.SignerParams, error) {
	if err := validate(intent); err != nil {
		return nil, err
	}

	preloader, err := s.registry.Preloader(intent.Chain())
	if err != nil {
		return nil, err
	}

	return preloader.Preload(ctx, intent)
}

func (s *service) Send(ctx context.Context, intent wallet.TransferIntent, priority wallet.FeePriority) (*wallet.Transaction, error) {
	params, err := s.Prepare(ctx, intent)
	if err != nil {
		return nil, err
	}

	return s.Submit(ctx, params, priority)
}

func (s *service) Submit(ctx context.Context, params *wallet.SignerParams, priority wallet.FeePriority) (*wallet.Transaction, error) {
	if params == nil {
		return nil, errors.Wrap(ErrInvalidIntent, "missing signer params")
	}
	if err := validate(params.Intent); err != nil {
		return nil, err
	}

	intent := params.Intent
	c := intent.Chain()

	signer, err := s.registry.Signer(c)
	if err != nil {
		return nil, err
	}

	broadcaster, err := s.registry.Broadcaster(c)
	if err != nil {
		return nil, err
	}

	payloads, err := s.sign(ctx, signer, params, priority)
	if err != nil {
		return nil, err
	}

	key := payloadKey(payloads)
	if existing := s.cached(ctx, key); existing != nil {
		return existing, nil
	}

	l := util.LogFromContext(ctx).With().Str("chain", c.String()).Logger()

	var hash string
	for _, payload := range payloads {
		hash, err = broadcaster.Send(ctx, payload)
		if err != nil {
			s.metrics.Total.WithLabelValues(c.String(), "error").Inc()
			l.Error().Err(err).Msg("Broadcast failed")
			return nil, err
		}
		s.metrics.Total.WithLabelValues(c.String(), "ok").Inc()
	}

	tx, err := s.record(params, priority, hash)
	if err != nil {
		return nil, err
	}

	if err := s.store.Insert(ctx, tx); err != nil {
		if !errors.Is(err, store.ErrDuplicate) {
			return nil, errors.Wrapf(err, "failed to store transaction %s", tx.ID)
		}

		// the node accepted a payload we already stored
		existing, getErr := s.store.Get(ctx, tx.ID)
		if getErr != nil {
			return nil, errors.Wrapf(getErr, "failed to load transaction %s", tx.ID)
		}
		tx = existing
	}

	s.mu.Lock()
	s.recent.Add(key, tx.ID)
	s.mu.Unlock()

	l.Info().Str("tx_id", tx.ID).Str("hash", tx.Hash).Msg("Transaction broadcast")

	return tx, nil
}

// sign derives the key for the intent's wallet and zeroes it before returning.
func (s *service) sign(
	ctx context.Context,
	signer wallet.SignClient,
	params *wallet.SignerParams,
	priority wallet.FeePriority,
) ([][]byte, error) {
	c := params.Intent.Chain()

	key, err := s.vault.DerivePrivateKey(ctx, params.Intent.WalletID, c)
	if err != nil {
		return nil, wallet.NewSignError(c, err, "derive key")
	}
	defer clear(key)

	payloads, err := signer.Sign(ctx, params, key, priority)
	if err != nil {
		return nil, err
	}

	if len(payloads) == 0 {
		return nil, wallet.NewSignError(c, ErrEmptySigned, "sign")
	}

	return payloads, nil
}

func (s *service) cached(ctx context.Context, key string) *wallet.Transaction {
	s.mu.Lock()
	id, ok := s.recent.Get(key)
	s.mu.Unlock()

	if !ok {
		return nil
	}

	tx, err := s.store.Get(ctx, id.(string)) //nolint:forcetypeassert
	if err != nil {
		return nil
	}

	return tx
}

func (s *service) record(params *wallet.SignerParams, priority wallet.FeePriority, hash string) (*wallet.Transaction, error) {
	intent := params.Intent
	c := intent.Chain()

	fee := params.FeeFor(priority)
	feeAsset := fee.AssetID
	if feeAsset.Chain == "" {
		feeAsset = wallet.NativeAsset(c)
	}
	feeAmount := "0"
	if fee.Amount != nil {
		feeAmount = fee.Amount.String()
	}

	tx := &wallet.Transaction{
		ID:          wallet.TransactionID(c, hash),
		Hash:        hash,
		AssetID:     intent.AssetID,
		FeeAssetID:  feeAsset,
		Owner:       intent.From,
		Recipient:   intent.To,
		Type:        intent.Type,
		State:       wallet.TransactionStatePending,
		Fee:         feeAmount,
		Value:       params.FinalAmount(fee).String(),
		Memo:        intent.Memo,
		Direction:   wallet.DirectionFor(c, intent.From, intent.From, intent.To),
		BlockNumber: blockNumber(params.Data),
		CreatedAt:   s.now().UnixMilli(),
	}

	if tx.Type == "" {
		tx.Type = wallet.TransactionTypeTransfer
	}

	if tx.Type == wallet.TransactionTypeSwap {
		tx.Memo = ""

		swap := *intent.Swap
		tx.Swap = &swap

		metadata, err := json.Marshal(swap)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode swap metadata")
		}
		tx.Metadata = metadata
	}

	return tx, nil
}

// blockNumber is the chain height the transaction was built against, for status clients that
// scan forward from it.
func blockNumber(data wallet.ChainSignData) string {
	switch d := data.(type) {
	case wallet.PolkadotSignData:
		return strconv.FormatUint(d.BlockNumber, 10)
	case wallet.XrpSignData:
		return strconv.FormatUint(uint64(d.BlockNumber), 10)
	case wallet.TronSignData:
		return strconv.FormatInt(d.BlockNumber, 10)
	default:
		return ""
	}
}

func payloadKey(payloads [][]byte) string {
	h := sha256.New()
	for _, p := range payloads {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write(p)
	}

	return hex.EncodeToString(h.Sum(nil))
}
