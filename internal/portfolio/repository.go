package portfolios

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrHoldingNotFound = errors.New("holding not found")

// HoldingRepository stores holdings keyed by ticker symbol. Every method is
// atomic on its own; read-modify-write sequences are serialized by Service.
type HoldingRepository interface {
	FindByTicker(ctx context.Context, ticker string) (*Holding, error)
	Upsert(ctx context.Context, holding *Holding) error
	Delete(ctx context.Context, ticker string) error
	FindAll(ctx context.Context) ([]Holding, error)
}

const holdingsSchema = `
CREATE TABLE IF NOT EXISTS holdings (
    id            UUID PRIMARY KEY,
    ticker_symbol TEXT NOT NULL UNIQUE,
    quantity      BIGINT NOT NULL CHECK (quantity > 0),
    total_cost    DOUBLE PRECISION NOT NULL CHECK (total_cost >= 0),
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
)`

type holdingRepository struct {
	db *sql.DB
}

func NewHoldingRepository(db *sql.DB) HoldingRepository {
	return &holdingRepository{db: db}
}

// EnsureSchema creates the holdings table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, holdingsSchema); err != nil {
		return fmt.Errorf("could not create holdings table: %w", err)
	}
	return nil
}

func (r *holdingRepository) FindByTicker(ctx context.Context, ticker string) (*Holding, error) {
	query := `SELECT id, ticker_symbol, quantity, total_cost, created_at, updated_at 
              FROM holdings WHERE ticker_symbol = $1`

	var holding Holding
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, query, ticker).Scan(
		&id, &holding.TickerSymbol, &holding.Quantity, &holding.TotalCost, &holding.CreatedAt, &holding.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHoldingNotFound
		}
		return nil, err
	}
	holding.ID = id.String()
	return &holding, nil
}

func (r *holdingRepository) Upsert(ctx context.Context, holding *Holding) error {
	id, err := uuid.Parse(holding.ID)
	if err != nil {
		return fmt.Errorf("invalid holding id %q: %w", holding.ID, err)
	}

	query := `
        INSERT INTO holdings (id, ticker_symbol, quantity, total_cost, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (ticker_symbol)
        DO UPDATE SET quantity = EXCLUDED.quantity, total_cost = EXCLUDED.total_cost, updated_at = EXCLUDED.updated_at
    `
	now := time.Now().UTC()
	if holding.CreatedAt.IsZero() {
		holding.CreatedAt = now
	}
	holding.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, query, id, holding.TickerSymbol, holding.Quantity, holding.TotalCost, holding.CreatedAt, holding.UpdatedAt)
	return err
}

func (r *holdingRepository) Delete(ctx context.Context, ticker string) error {
	query := `
        DELETE FROM holdings 
        WHERE ticker_symbol = $1
    `
	result, err := r.db.ExecContext(ctx, query, ticker)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrHoldingNotFound
	}
	return nil
}

func (r *holdingRepository) FindAll(ctx context.Context) ([]Holding, error) {
	query := `SELECT id, ticker_symbol, quantity, total_cost, created_at, updated_at FROM holdings`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holdings := []Holding{}
	for rows.Next() {
		var holding Holding
		var id uuid.UUID
		if err := rows.Scan(&id, &holding.TickerSymbol, &holding.Quantity, &holding.TotalCost, &holding.CreatedAt, &holding.UpdatedAt); err != nil {
			return nil, err
		}
		holding.ID = id.String()
		holdings = append(holdings, holding)
	}
	return holdings, rows.Err()
}
