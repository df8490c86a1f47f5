package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dropspace/internal/sale/models"
	"dropspace/pkg/domain"
	"dropspace/pkg/num"
	"dropspace/pkg/platform/sentinel"
)

const (
	receiptKeyPrefix = "dropspace:receipt:"
	idemKeyPrefix    = "dropspace:idem:"
)

// RedisStore persists receipts in Redis. Idempotency keys are registered with
// SETNX so concurrent retries race safely; receipts themselves never expire.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// receiptRecord is the stored JSON form; amounts travel as decimal strings.
type receiptRecord struct {
	ID          string    `json:"id"`
	Buyer       string    `json:"buyer"`
	Amount      string    `json:"amount"`
	TotalPaid   string    `json:"total_paid"`
	FirstItemID string    `json:"first_item_id"`
	LastItemID  string    `json:"last_item_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *RedisStore) Save(ctx context.Context, r *models.Receipt, idempotencyKey string) error {
	payload, err := json.Marshal(receiptRecord{
		ID:          string(r.ID),
		Buyer:       r.Buyer.String(),
		Amount:      num.String(r.Amount),
		TotalPaid:   num.String(r.TotalPaid),
		FirstItemID: num.String(r.FirstItemID),
		LastItemID:  num.String(r.LastItemID),
		CreatedAt:   r.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}

	if idempotencyKey != "" {
		ok, err := s.client.SetNX(ctx, idemKeyPrefix+idempotencyKey, string(r.ID), 0).Result()
		if err != nil {
			return fmt.Errorf("register idempotency key: %w", err)
		}
		if !ok {
			return sentinel.ErrConflict
		}
	}

	if err := s.client.Set(ctx, receiptKeyPrefix+string(r.ID), payload, 0).Err(); err != nil {
		return fmt.Errorf("store receipt: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, id domain.ReceiptID) (*models.Receipt, error) {
	raw, err := s.client.Get(ctx, receiptKeyPrefix+string(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("read receipt: %w", err)
	}
	return unmarshalReceipt([]byte(raw))
}

func (s *RedisStore) FindByIdempotencyKey(ctx context.Context, key string) (*models.Receipt, error) {
	id, err := s.client.Get(ctx, idemKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("resolve idempotency key: %w", err)
	}
	return s.Find(ctx, domain.ReceiptID(id))
}

func unmarshalReceipt(raw []byte) (*models.Receipt, error) {
	var rec receiptRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal receipt: %w", err)
	}

	amount, err := num.Parse(rec.Amount)
	if err != nil {
		return nil, fmt.Errorf("receipt amount: %w", err)
	}
	totalPaid, err := num.Parse(rec.TotalPaid)
	if err != nil {
		return nil, fmt.Errorf("receipt total: %w", err)
	}
	first, err := num.Parse(rec.FirstItemID)
	if err != nil {
		return nil, fmt.Errorf("receipt first item: %w", err)
	}
	last, err := num.Parse(rec.LastItemID)
	if err != nil {
		return nil, fmt.Errorf("receipt last item: %w", err)
	}

	return &models.Receipt{
		ID:          domain.ReceiptID(rec.ID),
		Buyer:       domain.Address(rec.Buyer),
		Amount:      amount,
		TotalPaid:   totalPaid,
		FirstItemID: first,
		LastItemID:  last,
		CreatedAt:   rec.CreatedAt,
	}, nil
}
