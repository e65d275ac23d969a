package store

import (
	"context"
	"database/sql"
	"encoding/base64"

	"github.com/aarondl/null/v8"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbutil "github/chapool/wallet-txengine/internal/util/db"
	"github/chapool/wallet-txengine/internal/wallet"
)

type transactionModel struct {
	ID          string `gorm:"primaryKey"`
	Hash        string
	Chain       string
	AssetID     string
	FeeAssetID  string
	Owner       string
	Recipient   string
	Type        string
	State       string
	Fee         string
	Value       string
	Memo        null.String
	Direction   string
	Metadata    null.String // base64
	BlockNumber null.String
	CreatedAt   int64      `gorm:"column:created_at;autoCreateTime:false"`
	Swap        *swapModel `gorm:"foreignKey:TxID;references:ID"`
}

func (transactionModel) TableName() string { return "transactions" }

type swapModel struct {
	TxID       string `gorm:"primaryKey"`
	FromAsset  string
	ToAsset    string
	FromAmount string
	ToAmount   string
}

func (swapModel) TableName() string { return "swap_metadata" }

func optional(s string) null.String {
	return null.NewString(s, s != "")
}

func toModel(tx *wallet.Transaction) *transactionModel {
	m := &transactionModel{
		ID:          tx.ID,
		Hash:        tx.Hash,
		Chain:       string(tx.Chain()),
		AssetID:     tx.AssetID.String(),
		FeeAssetID:  tx.FeeAssetID.String(),
		Owner:       tx.Owner,
		Recipient:   tx.Recipient,
		Type:        string(tx.Type),
		State:       string(tx.State),
		Fee:         tx.Fee,
		Value:       tx.Value,
		Memo:        optional(tx.Memo),
		Direction:   string(tx.Direction),
		BlockNumber: optional(tx.BlockNumber),
		CreatedAt:   tx.CreatedAt,
	}
	if tx.Metadata != nil {
		m.Metadata = null.StringFrom(base64.StdEncoding.EncodeToString(tx.Metadata))
	}
	if tx.Swap != nil {
		m.Swap = &swapModel{
			TxID:       tx.ID,
			FromAsset:  tx.Swap.FromAsset.String(),
			ToAsset:    tx.Swap.ToAsset.String(),
			FromAmount: tx.Swap.FromAmount,
			ToAmount:   tx.Swap.ToAmount,
		}
	}

	return m
}

func (m *transactionModel) toTransaction() (*wallet.Transaction, error) {
	tx := &wallet.Transaction{
		ID:          m.ID,
		Hash:        m.Hash,
		Owner:       m.Owner,
		Recipient:   m.Recipient,
		Type:        wallet.TransactionType(m.Type),
		State:       wallet.TransactionState(m.State),
		Fee:         m.Fee,
		Value:       m.Value,
		Memo:        m.Memo.String,
		Direction:   wallet.TransactionDirection(m.Direction),
		BlockNumber: m.BlockNumber.String,
		CreatedAt:   m.CreatedAt,
	}

	var err error
	if tx.AssetID, err = wallet.ParseAssetID(m.AssetID); err != nil {
		return nil, errors.Wrapf(err, "transaction %s", m.ID)
	}
	if tx.FeeAssetID, err = wallet.ParseAssetID(m.FeeAssetID); err != nil {
		return nil, errors.Wrapf(err, "transaction %s", m.ID)
	}

	if m.Metadata.Valid {
		if tx.Metadata, err = base64.StdEncoding.DecodeString(m.Metadata.String); err != nil {
			return nil, errors.Wrapf(err, "transaction %s metadata", m.ID)
		}
	}

	if m.Swap != nil {
		swap := &wallet.SwapMetadata{FromAmount: m.Swap.FromAmount, ToAmount: m.Swap.ToAmount}
		if swap.FromAsset, err = wallet.ParseAssetID(m.Swap.FromAsset); err != nil {
			return nil, errors.Wrapf(err, "transaction %s swap", m.ID)
		}
		if swap.ToAsset, err = wallet.ParseAssetID(m.Swap.ToAsset); err != nil {
			return nil, errors.Wrapf(err, "transaction %s swap", m.ID)
		}
		tx.Swap = swap
	}

	return tx, nil
}

type sqlStore struct {
	db  *gorm.DB
	hub *hub
}

// NewSQL creates a store over db, "sqlite3" or "postgres". The schema must have been migrated
// with Migrate.
//
//nolint:ireturn
func NewSQL(db *sql.DB, driver string) (Store, error) {
	gdb, err := dbutil.Open(db, driver)
	if err != nil {
		return nil, err
	}

	s := &sqlStore{db: gdb}
	s.hub = newHub(s.Query)

	return s, nil
}

func (s *sqlStore) load(q *gorm.DB, id string) (*transactionModel, error) {
	var m transactionModel
	err := q.Preload("Swap").Take(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(wallet.ErrNotFound, "transaction %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load transaction")
	}

	return &m, nil
}

// pending loads id and rejects terminal records.
func (s *sqlStore) pending(q *gorm.DB, id string) (*transactionModel, error) {
	m, err := s.load(q, id)
	if err != nil {
		return nil, err
	}

	if state := wallet.TransactionState(m.State); state.IsTerminal() {
		return nil, errors.Wrapf(ErrTerminalState, "%s is %s", id, state)
	}

	return m, nil
}

func (s *sqlStore) insert(q *gorm.DB, m *transactionModel) error {
	var n int64
	if err := q.Model(&transactionModel{}).Where("id = ?", m.ID).Count(&n).Error; err != nil {
		return errors.Wrap(err, "failed to check transaction")
	}
	if n > 0 {
		return errors.Wrapf(ErrDuplicate, "%s", m.ID)
	}

	if err := q.Omit(clause.Associations).Create(m).Error; err != nil {
		return errors.Wrap(err, "failed to insert transaction")
	}

	if m.Swap == nil {
		return nil
	}

	m.Swap.TxID = m.ID
	if err := q.Create(m.Swap).Error; err != nil {
		return errors.Wrap(err, "failed to insert swap metadata")
	}

	return nil
}

func (s *sqlStore) delete(q *gorm.DB, id string) error {
	if err := q.Where("tx_id = ?", id).Delete(&swapModel{}).Error; err != nil {
		return errors.Wrap(err, "failed to delete swap metadata")
	}

	res := q.Where("id = ?", id).Delete(&transactionModel{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to delete transaction")
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(wallet.ErrNotFound, "transaction %s", id)
	}

	return nil
}

// write runs fn in one database transaction and notifies subscribers once it committed.
func (s *sqlStore) write(ctx context.Context, fn func(q *gorm.DB) error) error {
	if err := s.db.WithContext(ctx).Transaction(fn); err != nil {
		return err
	}

	s.hub.publish(ctx)

	return nil
}

func (s *sqlStore) Insert(ctx context.Context, tx *wallet.Transaction) error {
	return s.write(ctx, func(q *gorm.DB) error {
		return s.insert(q, toModel(tx))
	})
}

func (s *sqlStore) Get(ctx context.Context, id string) (*wallet.Transaction, error) {
	m, err := s.load(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}

	return m.toTransaction()
}

func (s *sqlStore) Update(ctx context.Context, tx *wallet.Transaction) error {
	return s.write(ctx, func(q *gorm.DB) error {
		if _, err := s.pending(q, tx.ID); err != nil {
			return err
		}

		m := toModel(tx)
		err := q.Model(&transactionModel{}).Where("id = ?", tx.ID).Updates(map[string]any{
			"state":        m.State,
			"fee":          m.Fee,
			"value":        m.Value,
			"memo":         m.Memo,
			"direction":    m.Direction,
			"metadata":     m.Metadata,
			"block_number": m.BlockNumber,
		}).Error

		return errors.Wrap(err, "failed to update transaction")
	})
}

func (s *sqlStore) Delete(ctx context.Context, id string) error {
	return s.write(ctx, func(q *gorm.DB) error {
		return s.delete(q, id)
	})
}

func (s *sqlStore) Replace(ctx context.Context, oldID string, tx *wallet.Transaction) error {
	return s.write(ctx, func(q *gorm.DB) error {
		current, err := s.pending(q, oldID)
		if err != nil {
			return err
		}

		replacement := toModel(tx)
		if replacement.Swap == nil && current.Swap != nil {
			swap := *current.Swap
			replacement.Swap = &swap
		}

		if err := s.delete(q, oldID); err != nil {
			return err
		}

		return s.insert(q, replacement)
	})
}

func (s *sqlStore) Query(ctx context.Context, f Filter) ([]*wallet.Transaction, error) {
	q := s.db.WithContext(ctx).Preload("Swap")

	if len(f.States) > 0 {
		states := make([]string, 0, len(f.States))
		for _, state := range f.States {
			states = append(states, string(state))
		}
		q = q.Where("state IN ?", states)
	}
	if len(f.Chains) > 0 {
		chains := make([]string, 0, len(f.Chains))
		for _, c := range f.Chains {
			chains = append(chains, string(c))
		}
		q = q.Where("chain IN ?", chains)
	}
	if f.Owner != "" {
		q = q.Where("owner = ?", f.Owner)
	}

	q = q.Order("created_at DESC").Order("id ASC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var models []transactionModel
	if err := q.Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "failed to query transactions")
	}

	result := make([]*wallet.Transaction, 0, len(models))
	for i := range models {
		tx, err := models[i].toTransaction()
		if err != nil {
			return nil, err
		}
		result = append(result, tx)
	}

	return result, nil
}

func (s *sqlStore) Subscribe(ctx context.Context, f Filter) (<-chan []*wallet.Transaction, error) {
	return s.hub.subscribe(ctx, f)
}
