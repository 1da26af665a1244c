package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"casino-ledger-backend/internal/models"
)

// RedisStore implements AccountStore and JournalStore over a Redis
// keyspace with one flat JSON document per account. Atomic updates use
// WATCH + MULTI/EXEC optimistic transactions: the closure re-runs on
// conflict, so it must be pure.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Create(ctx context.Context, acc *models.Account) error {
	data, err := models.EncodeAccount(acc)
	if err != nil {
		return err
	}

	key := fmt.Sprintf(KeyAccount, acc.ID)
	ok, err := s.client.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create account: %v", err)
	}
	if !ok {
		return models.ErrAccountExists
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Account, error) {
	key := fmt.Sprintf(KeyAccount, id)

	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %v", err)
	}

	return models.DecodeAccount(id, data)
}

func (s *RedisStore) Update(ctx context.Context, id string, apply func(*models.Account) error) (*models.Account, error) {
	key := fmt.Sprintf(KeyAccount, id)

	var updated *models.Account
	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return models.ErrAccountNotFound
		}
		if err != nil {
			return err
		}

		acc, err := models.DecodeAccount(id, data)
		if err != nil {
			return err
		}
		if err := apply(acc); err != nil {
			return err
		}

		payload, err := models.EncodeAccount(acc)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		if err == nil {
			updated = acc
		}
		return err
	}

	for i := 0; i < MaxTxRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, models.ErrTxConflict
}

func (s *RedisStore) Overwrite(ctx context.Context, acc *models.Account) error {
	data, err := models.EncodeAccount(acc)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(KeyAccount, acc.ID)
	return s.client.Set(ctx, key, data, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	key := fmt.Sprintf(KeyAccount, id)
	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return err
	}
	s.client.Del(ctx, fmt.Sprintf(KeyAccountJournal, id))
	if n == 0 {
		return models.ErrAccountNotFound
	}
	return nil
}

func (s *RedisStore) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.client.Scan(ctx, 0, KeyAccountScan, 200).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		// Skip journal index keys that share the account:* prefix.
		if strings.Contains(key[len("account:"):], ":") {
			continue
		}
		ids = append(ids, strings.TrimPrefix(key, "account:"))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan accounts: %v", err)
	}
	return ids, nil
}

func (s *RedisStore) GetDocument(ctx context.Context, id string) (map[string]any, error) {
	key := fmt.Sprintf(KeyAccount, id)

	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account document: %v", err)
	}
	return raw, nil
}

func (s *RedisStore) MergeDocument(ctx context.Context, id string, fields map[string]any) error {
	key := fmt.Sprintf(KeyAccount, id)

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return models.ErrAccountNotFound
		}
		if err != nil {
			return err
		}

		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		changed := false
		for k, v := range fields {
			if _, present := raw[k]; !present {
				raw[k] = v
				changed = true
			}
		}
		if !changed {
			return nil
		}

		payload, err := json.Marshal(raw)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}

	for i := 0; i < MaxTxRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return models.ErrTxConflict
}

func (s *RedisStore) Append(ctx context.Context, entry *models.JournalEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %v", err)
	}

	entryKey := fmt.Sprintf(KeyJournalEntry, entry.ID)
	if err := s.client.Set(ctx, entryKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save journal entry: %v", err)
	}

	indexKey := fmt.Sprintf(KeyAccountJournal, entry.AccountID)
	if err := s.client.ZAdd(ctx, indexKey, redis.Z{
		Score:  float64(entry.CreatedAt.UnixNano()),
		Member: entry.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to index journal entry: %v", err)
	}

	s.client.ZRemRangeByRank(ctx, indexKey, 0, int64(-JournalIndexSize-1))

	return nil
}

func (s *RedisStore) History(ctx context.Context, accountID string, limit int64) ([]*models.JournalEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	indexKey := fmt.Sprintf(KeyAccountJournal, accountID)
	ids, err := s.client.ZRevRange(ctx, indexKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get journal index: %v", err)
	}

	var entries []*models.JournalEntry
	for _, id := range ids {
		data, err := s.client.Get(ctx, fmt.Sprintf(KeyJournalEntry, id)).Result()
		if err != nil {
			continue
		}

		var entry models.JournalEntry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			continue
		}
		entries = append(entries, &entry)
	}

	return entries, nil
}
