package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"casino-ledger-backend/internal/models"
)

// MemoryStore implements AccountStore and JournalStore with in-memory
// documents. Used for testing and development; not suitable for
// production (no persistence). Documents are held in their encoded form
// so the memory and Redis backends share the exact same schema behavior.
type MemoryStore struct {
	mu      sync.RWMutex
	docs    map[string]*memoryDoc
	journal []*models.JournalEntry
}

type memoryDoc struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]*memoryDoc),
	}
}

func (s *MemoryStore) Create(_ context.Context, acc *models.Account) error {
	data, err := models.EncodeAccount(acc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[acc.ID]; ok {
		return models.ErrAccountExists
	}
	s.docs[acc.ID] = &memoryDoc{data: data}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Account, error) {
	s.mu.RLock()
	doc, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, models.ErrAccountNotFound
	}

	doc.mu.Lock()
	data := doc.data
	doc.mu.Unlock()

	return models.DecodeAccount(id, data)
}

func (s *MemoryStore) Update(_ context.Context, id string, apply func(*models.Account) error) (*models.Account, error) {
	s.mu.RLock()
	doc, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, models.ErrAccountNotFound
	}

	// Per-document lock: updates to one account serialize, other
	// accounts proceed independently.
	doc.mu.Lock()
	defer doc.mu.Unlock()

	acc, err := models.DecodeAccount(id, doc.data)
	if err != nil {
		return nil, err
	}
	if err := apply(acc); err != nil {
		return nil, err
	}
	data, err := models.EncodeAccount(acc)
	if err != nil {
		return nil, err
	}
	doc.data = data
	return acc, nil
}

func (s *MemoryStore) Overwrite(_ context.Context, acc *models.Account) error {
	data, err := models.EncodeAccount(acc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if doc, ok := s.docs[acc.ID]; ok {
		doc.mu.Lock()
		doc.data = data
		doc.mu.Unlock()
		return nil
	}
	s.docs[acc.ID] = &memoryDoc{data: data}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return models.ErrAccountNotFound
	}
	delete(s.docs, id)
	return nil
}

func (s *MemoryStore) ListIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) GetDocument(_ context.Context, id string) (map[string]any, error) {
	s.mu.RLock()
	doc, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, models.ErrAccountNotFound
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()

	var raw map[string]any
	if err := json.Unmarshal(doc.data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *MemoryStore) MergeDocument(_ context.Context, id string, fields map[string]any) error {
	s.mu.RLock()
	doc, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return models.ErrAccountNotFound
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()

	var raw map[string]any
	if err := json.Unmarshal(doc.data, &raw); err != nil {
		return err
	}
	for k, v := range fields {
		if _, present := raw[k]; !present {
			raw[k] = v
		}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	doc.data = data
	return nil
}

// SeedRaw writes a raw document as-is, without schema normalization.
// Lets tests stage legacy records with missing fields.
func (s *MemoryStore) SeedRaw(id string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = &memoryDoc{data: data}
}

func (s *MemoryStore) Append(_ context.Context, entry *models.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *entry
	s.journal = append(s.journal, &cp)
	return nil
}

func (s *MemoryStore) History(_ context.Context, accountID string, limit int64) ([]*models.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.JournalEntry
	for i := len(s.journal) - 1; i >= 0 && int64(len(result)) < limit; i-- {
		if s.journal[i].AccountID == accountID {
			cp := *s.journal[i]
			result = append(result, &cp)
		}
	}
	return result, nil
}
