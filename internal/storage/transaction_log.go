package storage

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/nilayjain12/clover-checkout-app/model"
)

// TransactionLog is the append-only record of checkout attempts. Append
// must be durable before it returns; the orchestrator relies on that for
// its one-record-per-attempt guarantee.
type TransactionLog interface {
	Append(ctx context.Context, rec model.TransactionRecord) error
	Recent(ctx context.Context, limit int) ([]model.TransactionRecord, error)
}

const transactionLogKey = "checkout:transactions"

type RedisTransactionLog struct {
	client *redis.Client
}

func NewRedisTransactionLog(client *redis.Client) *RedisTransactionLog {
	return &RedisTransactionLog{client: client}
}

func (l *RedisTransactionLog) Append(ctx context.Context, rec model.TransactionRecord) error {
	raw, err := sonic.Marshal(rec)
	if err != nil {
		return err
	}
	score := float64(rec.Timestamp.UTC().UnixNano())
	if err := l.client.ZAdd(ctx, transactionLogKey, redis.Z{Score: score, Member: string(raw)}).Err(); err != nil {
		slog.Error("failed to append transaction record", "err", err, "status", rec.Status)
		return err
	}
	return nil
}

func (l *RedisTransactionLog) Recent(ctx context.Context, limit int) ([]model.TransactionRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	items, err := l.client.ZRevRange(ctx, transactionLogKey, 0, int64(limit-1)).Result()
	if err != nil {
		slog.Error("failed to read transaction log", "err", err)
		return nil, err
	}
	records := make([]model.TransactionRecord, 0, len(items))
	for _, entry := range items {
		var rec model.TransactionRecord
		if err := sonic.Unmarshal([]byte(entry), &rec); err != nil {
			slog.Warn("skipping malformed transaction record", "err", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

type MemoryTransactionLog struct {
	mu      sync.Mutex
	records []model.TransactionRecord
}

func NewMemoryTransactionLog() *MemoryTransactionLog {
	return &MemoryTransactionLog{}
}

func (l *MemoryTransactionLog) Append(_ context.Context, rec model.TransactionRecord) error {
	l.mu.Lock()
	l.records = append(l.records, rec)
	l.mu.Unlock()
	return nil
}

func (l *MemoryTransactionLog) Recent(_ context.Context, limit int) ([]model.TransactionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if limit <= 0 {
		return nil, nil
	}
	out := make([]model.TransactionRecord, 0, limit)
	for i := len(l.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.records[i])
	}
	return out, nil
}

// Size reports the number of appended records.
func (l *MemoryTransactionLog) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
