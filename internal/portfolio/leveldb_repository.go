package portfolios

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// holding		key: holding:{ticker}	value: json encoded levelDBHolding
type levelDBHolding struct {
	ID           string    `json:"id"`
	TickerSymbol string    `json:"ticker_symbol"`
	Quantity     int64     `json:"quantity"`
	TotalCost    float64   `json:"total_cost"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type levelDBHoldingRepository struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) the holdings database under path.
func OpenLevelDB(path string) (*leveldb.DB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return db, nil
}

func NewLevelDBHoldingRepository(db *leveldb.DB) HoldingRepository {
	return &levelDBHoldingRepository{db: db}
}

func (r *levelDBHoldingRepository) FindByTicker(_ context.Context, ticker string) (*Holding, error) {
	value, err := r.db.Get([]byte(holdingKey(ticker)), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, ErrHoldingNotFound
		}
		return nil, err
	}
	return decodeLevelDBHolding(value)
}

func (r *levelDBHoldingRepository) Upsert(_ context.Context, holding *Holding) error {
	now := time.Now().UTC()
	if holding.CreatedAt.IsZero() {
		holding.CreatedAt = now
	}
	holding.UpdatedAt = now

	value, err := json.Marshal(levelDBHolding{
		ID:           holding.ID,
		TickerSymbol: holding.TickerSymbol,
		Quantity:     holding.Quantity,
		TotalCost:    holding.TotalCost,
		CreatedAt:    holding.CreatedAt,
		UpdatedAt:    holding.UpdatedAt,
	})
	if err != nil {
		return err
	}
	return r.db.Put([]byte(holdingKey(holding.TickerSymbol)), value, nil)
}

func (r *levelDBHoldingRepository) Delete(_ context.Context, ticker string) error {
	key := []byte(holdingKey(ticker))

	trans, err := r.db.OpenTransaction()
	if err != nil {
		return err
	}
	defer trans.Discard()

	exists, err := trans.Has(key, nil)
	if err != nil {
		return err
	}
	if !exists {
		return ErrHoldingNotFound
	}
	if err := trans.Delete(key, nil); err != nil {
		return err
	}
	return trans.Commit()
}

func (r *levelDBHoldingRepository) FindAll(_ context.Context) ([]Holding, error) {
	iter := r.db.NewIterator(util.BytesPrefix([]byte(holdingKeyPrefix)), nil)
	defer iter.Release()

	holdings := []Holding{}
	for iter.Next() {
		holding, err := decodeLevelDBHolding(iter.Value())
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, *holding)
	}
	return holdings, iter.Error()
}

func decodeLevelDBHolding(value []byte) (*Holding, error) {
	var stored levelDBHolding
	if err := json.Unmarshal(value, &stored); err != nil {
		return nil, fmt.Errorf("decode holding: %w", err)
	}
	return &Holding{
		ID:           stored.ID,
		TickerSymbol: stored.TickerSymbol,
		Quantity:     stored.Quantity,
		TotalCost:    stored.TotalCost,
		CreatedAt:    stored.CreatedAt,
		UpdatedAt:    stored.UpdatedAt,
	}, nil
}
