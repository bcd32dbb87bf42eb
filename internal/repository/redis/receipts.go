package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AxelTei/Jeux-Olympiques/internal/domain"
	"github.com/AxelTei/Jeux-Olympiques/internal/repository"
	"github.com/redis/go-redis/v9"
)

// ReceiptStore keeps the last successful payment per user so the
// success page can show amount and date. Purely presentational state
// with a short TTL; the backend's payment records stay authoritative.
type ReceiptStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewReceiptStore(rdb *redis.Client, ttl time.Duration) *ReceiptStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ReceiptStore{rdb: rdb, ttl: ttl}
}

func (s *ReceiptStore) SaveReceipt(ctx context.Context, userKey string, r domain.Receipt) error {
	const op = "redis.ReceiptStore.SaveReceipt"

	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.rdb.Set(ctx, KeyReceipt(userKey), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *ReceiptStore) GetReceipt(ctx context.Context, userKey string) (*domain.Receipt, error) {
	const op = "redis.ReceiptStore.GetReceipt"

	v, err := s.rdb.Get(ctx, KeyReceipt(userKey)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var r domain.Receipt
	if err := json.Unmarshal([]byte(v), &r); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &r, nil
}
