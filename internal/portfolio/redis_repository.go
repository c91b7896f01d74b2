package portfolios

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis"
)

// holding hash		key: holding:{ticker}	fields: id, ticker_symbol, quantity, total_cost, created_at, updated_at
// ticker index		key: holdings			members: {ticker}
const (
	holdingKeyPrefix = "holding:"
	redisTickerIndex = "holdings"
)

type redisHoldingRepository struct {
	client *redis.Client
}

func NewRedisClient(address, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         address,
		Password:     password,
		DB:           0, // use default DB
		MaxRetries:   2,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})
}

func NewRedisHoldingRepository(client *redis.Client) HoldingRepository {
	return &redisHoldingRepository{client: client}
}

func holdingKey(ticker string) string {
	return holdingKeyPrefix + ticker
}

func (r *redisHoldingRepository) FindByTicker(ctx context.Context, ticker string) (*Holding, error) {
	fields, err := r.client.WithContext(ctx).HGetAll(holdingKey(ticker)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrHoldingNotFound
	}
	return decodeHoldingHash(fields)
}

func (r *redisHoldingRepository) Upsert(ctx context.Context, holding *Holding) error {
	client := r.client.WithContext(ctx)
	key := holdingKey(holding.TickerSymbol)

	now := time.Now().UTC()
	if holding.CreatedAt.IsZero() {
		holding.CreatedAt = now
	}
	holding.UpdatedAt = now

	// HSETNX keeps the identity of an existing holding
	_, err := client.TxPipelined(func(pipe redis.Pipeliner) error {
		pipe.HSetNX(key, "id", holding.ID)
		pipe.HSetNX(key, "created_at", holding.CreatedAt.Format(time.RFC3339Nano))
		pipe.HMSet(key, map[string]interface{}{
			"ticker_symbol": holding.TickerSymbol,
			"quantity":      strconv.FormatInt(holding.Quantity, 10),
			"total_cost":    strconv.FormatFloat(holding.TotalCost, 'g', -1, 64),
			"updated_at":    holding.UpdatedAt.Format(time.RFC3339Nano),
		})
		pipe.SAdd(redisTickerIndex, holding.TickerSymbol)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save holding %s: %w", holding.TickerSymbol, err)
	}
	return nil
}

func (r *redisHoldingRepository) Delete(ctx context.Context, ticker string) error {
	var deleted *redis.IntCmd
	_, err := r.client.WithContext(ctx).TxPipelined(func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(holdingKey(ticker))
		pipe.SRem(redisTickerIndex, ticker)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete holding %s: %w", ticker, err)
	}
	if deleted.Val() == 0 {
		return ErrHoldingNotFound
	}
	return nil
}

func (r *redisHoldingRepository) FindAll(ctx context.Context) ([]Holding, error) {
	client := r.client.WithContext(ctx)

	tickers, err := client.SMembers(redisTickerIndex).Result()
	if err != nil {
		return nil, err
	}
	if len(tickers) == 0 {
		return []Holding{}, nil
	}

	cmds := make([]*redis.StringStringMapCmd, len(tickers))
	_, err = client.Pipelined(func(pipe redis.Pipeliner) error {
		for i, ticker := range tickers {
			cmds[i] = pipe.HGetAll(holdingKey(ticker))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	holdings := make([]Holding, 0, len(tickers))
	for _, cmd := range cmds {
		fields := cmd.Val()
		// index entry left behind by a concurrent delete
		if len(fields) == 0 {
			continue
		}
		holding, err := decodeHoldingHash(fields)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, *holding)
	}
	return holdings, nil
}

func decodeHoldingHash(fields map[string]string) (*Holding, error) {
	quantity, err := strconv.ParseInt(fields["quantity"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode quantity: %w", err)
	}
	totalCost, err := strconv.ParseFloat(fields["total_cost"], 64)
	if err != nil {
		return nil, fmt.Errorf("decode total_cost: %w", err)
	}

	holding := &Holding{
		ID:           fields["id"],
		TickerSymbol: fields["ticker_symbol"],
		Quantity:     quantity,
		TotalCost:    totalCost,
	}
	if v, ok := fields["created_at"]; ok {
		if holding.CreatedAt, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return nil, fmt.Errorf("decode created_at: %w", err)
		}
	}
	if v, ok := fields["updated_at"]; ok {
		if holding.UpdatedAt, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return nil, fmt.Errorf("decode updated_at: %w", err)
		}
	}
	return holding, nil
}
