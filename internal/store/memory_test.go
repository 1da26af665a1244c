package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"casino-ledger-backend/internal/models"
	"casino-ledger-backend/internal/store"
)

func TestMemoryStoreCRUD(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	acc := models.NewAccount("u1", 100)
	if err := s.Create(ctx, acc); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := s.Create(ctx, acc); !errors.Is(err, models.ErrAccountExists) {
		t.Errorf("duplicate create: got %v, want ErrAccountExists", err)
	}

	got, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Balance != 100 {
		t.Errorf("balance = %v, want 100", got.Balance)
	}

	if _, err := s.Get(ctx, "ghost"); !errors.Is(err, models.ErrAccountNotFound) {
		t.Errorf("missing get: got %v, want ErrAccountNotFound", err)
	}

	if err := s.Delete(ctx, "u1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := s.Delete(ctx, "u1"); !errors.Is(err, models.ErrAccountNotFound) {
		t.Errorf("double delete: got %v, want ErrAccountNotFound", err)
	}
}

func TestMemoryStoreUpdateAbortsCleanly(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	if err := s.Create(ctx, models.NewAccount("u1", 100)); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("abort")
	_, err := s.Update(ctx, "u1", func(a *models.Account) error {
		a.Balance = 0
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want closure error", err)
	}

	acc, _ := s.Get(ctx, "u1")
	if acc.Balance != 100 {
		t.Errorf("aborted update leaked a write: balance = %v", acc.Balance)
	}
}

func TestMemoryStoreConcurrentUpdates(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	if err := s.Create(ctx, models.NewAccount("u1", 0)); err != nil {
		t.Fatal(err)
	}

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, "u1", func(a *models.Account) error {
				a.GamesPlayed++
				return nil
			})
			if err != nil {
				t.Errorf("update failed: %v", err)
			}
		}()
	}
	wg.Wait()

	acc, _ := s.Get(ctx, "u1")
	if acc.GamesPlayed != n {
		t.Errorf("gamesPlayed = %d, want %d (lost update)", acc.GamesPlayed, n)
	}
}

func TestMemoryStoreListIDs(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		if err := s.Create(ctx, models.NewAccount(id, 100)); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := s.ListIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 || ids[0] != "a" || ids[2] != "c" {
		t.Errorf("ids = %v, want [a b c]", ids)
	}
}

func TestMemoryStoreMergeDocument(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	s.SeedRaw("legacy", []byte(`{"balance":10.5}`))

	err := s.MergeDocument(ctx, "legacy", map[string]any{
		"balance":     999.0, // present, must not change
		"gamesPlayed": 0.0,
	})
	if err != nil {
		t.Fatal(err)
	}

	doc, err := s.GetDocument(ctx, "legacy")
	if err != nil {
		t.Fatal(err)
	}
	if doc["balance"] != 10.5 {
		t.Errorf("merge overwrote present field: %v", doc["balance"])
	}
	if doc["gamesPlayed"] != float64(0) {
		t.Errorf("merge missed absent field: %v", doc["gamesPlayed"])
	}
}

func TestMemoryStoreJournal(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Append(ctx, &models.JournalEntry{
			ID:        "e" + string(rune('0'+i)),
			AccountID: "u1",
			Type:      models.JournalDeposit,
			Amount:    float64(i),
		}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Append(ctx, &models.JournalEntry{ID: "x", AccountID: "other"}); err != nil {
		t.Fatal(err)
	}

	entries, err := s.History(ctx, "u1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	// Newest first.
	if entries[0].Amount != 2 || entries[2].Amount != 0 {
		t.Errorf("history order wrong: %v, %v", entries[0].Amount, entries[2].Amount)
	}

	entries, err = s.History(ctx, "u1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("limit ignored: got %d entries", len(entries))
	}
}
