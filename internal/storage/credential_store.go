package storage

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/nilayjain12/clover-checkout-app/model"
)

// CredentialStore holds the single active credential for the process.
// Load returns (nil, nil) when no credential is stored.
type CredentialStore interface {
	Save(ctx context.Context, cred model.Credential) error
	Load(ctx context.Context) (*model.Credential, error)
	Clear(ctx context.Context) error
}

const credentialKey = "checkout:credential"

type RedisCredentialStore struct {
	client *redis.Client
}

func NewRedisCredentialStore(client *redis.Client) *RedisCredentialStore {
	return &RedisCredentialStore{client: client}
}

func (s *RedisCredentialStore) Save(ctx context.Context, cred model.Credential) error {
	raw, err := sonic.Marshal(cred)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, credentialKey, raw, 0).Err(); err != nil {
		slog.Error("failed to store credential", "err", err)
		return err
	}
	return nil
}

func (s *RedisCredentialStore) Load(ctx context.Context) (*model.Credential, error) {
	raw, err := s.client.Get(ctx, credentialKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		slog.Error("failed to load credential", "err", err)
		return nil, err
	}
	var cred model.Credential
	if err := sonic.Unmarshal(raw, &cred); err != nil {
		slog.Error("stored credential is corrupt", "err", err)
		return nil, err
	}
	return &cred, nil
}

func (s *RedisCredentialStore) Clear(ctx context.Context) error {
	// Del on a missing key is a no-op, which keeps logout idempotent.
	return s.client.Del(ctx, credentialKey).Err()
}

// MemoryCredentialStore backs tests and redis-less runs. A single mutex
// serializes save/clear so concurrent requests cannot interleave.
type MemoryCredentialStore struct {
	mu   sync.Mutex
	cred *model.Credential
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (s *MemoryCredentialStore) Save(_ context.Context, cred model.Credential) error {
	s.mu.Lock()
	s.cred = &cred
	s.mu.Unlock()
	return nil
}

func (s *MemoryCredentialStore) Load(_ context.Context) (*model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil {
		return nil, nil
	}
	copied := *s.cred
	return &copied, nil
}

func (s *MemoryCredentialStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.cred = nil
	s.mu.Unlock()
	return nil
}
