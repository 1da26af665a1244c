package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"casino-ledger-backend/internal/models"
	"casino-ledger-backend/internal/services"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestFeedImmediateSnapshot(t *testing.T) {
	feed := services.NewAccountFeed()
	acc := models.NewAccount("u1", 100)

	var mu sync.Mutex
	var got []*models.Account
	unsub := feed.Subscribe("u1", acc, func(a *models.Account) {
		mu.Lock()
		got = append(got, a)
		mu.Unlock()
	})
	defer unsub()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, "initial snapshot never delivered")

	mu.Lock()
	if got[0] == nil || got[0].Balance != 100 {
		t.Errorf("snapshot = %+v, want balance 100", got[0])
	}
	mu.Unlock()
}

func TestFeedNilSnapshotForMissingAccount(t *testing.T) {
	feed := services.NewAccountFeed()

	var mu sync.Mutex
	delivered := false
	var snapshot *models.Account
	unsub := feed.Subscribe("ghost", nil, func(a *models.Account) {
		mu.Lock()
		delivered = true
		snapshot = a
		mu.Unlock()
	})
	defer unsub()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return delivered
	}, "nil snapshot never delivered")

	if snapshot != nil {
		t.Errorf("snapshot for missing account = %+v, want nil", snapshot)
	}
}

func TestFeedDeliversCommits(t *testing.T) {
	feed := services.NewAccountFeed()
	acc := models.NewAccount("u1", 100)

	var mu sync.Mutex
	var latest *models.Account
	var count int
	unsub := feed.Subscribe("u1", acc, func(a *models.Account) {
		mu.Lock()
		latest = a
		count++
		mu.Unlock()
	})
	defer unsub()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count >= 1
	}, "initial snapshot never delivered")

	updated := models.NewAccount("u1", 100)
	updated.Balance = 250
	feed.Publish(updated)

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return latest != nil && latest.Balance == 250
	}, "committed state never delivered")
}

// Rapid writes may coalesce, but the subscriber always ends on the
// newest state.
func TestFeedCoalescesToLatest(t *testing.T) {
	feed := services.NewAccountFeed()

	var mu sync.Mutex
	var latest *models.Account
	unsub := feed.Subscribe("u1", nil, func(a *models.Account) {
		mu.Lock()
		latest = a
		mu.Unlock()
		// Slow consumer: force the mailbox to coalesce.
		time.Sleep(10 * time.Millisecond)
	})
	defer unsub()

	for i := 1; i <= 50; i++ {
		acc := models.NewAccount("u1", 100)
		acc.Balance = float64(i)
		feed.Publish(acc)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return latest != nil && latest.Balance == 50
	}, "subscriber never converged on the latest state")
}

func TestFeedUnsubscribeStopsDeliveryAndIsIdempotent(t *testing.T) {
	feed := services.NewAccountFeed()

	var mu sync.Mutex
	var count int
	unsub := feed.Subscribe("u1", nil, func(a *models.Account) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	}, "initial snapshot never delivered")

	unsub()
	unsub() // second call is a no-op

	feed.Publish(models.NewAccount("u1", 100))
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("delivery after unsubscribe: %d calls, want 1", count)
	}
}

func TestFeedIsolatesAccounts(t *testing.T) {
	feed := services.NewAccountFeed()

	var mu sync.Mutex
	var u1Count, u2Count int
	unsub1 := feed.Subscribe("u1", nil, func(*models.Account) {
		mu.Lock()
		u1Count++
		mu.Unlock()
	})
	defer unsub1()
	unsub2 := feed.Subscribe("u2", nil, func(*models.Account) {
		mu.Lock()
		u2Count++
		mu.Unlock()
	})
	defer unsub2()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return u1Count == 1 && u2Count == 1
	}, "initial snapshots never delivered")

	feed.Publish(models.NewAccount("u2", 100))

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return u2Count == 2
	}, "u2 commit never delivered")

	mu.Lock()
	defer mu.Unlock()
	if u1Count != 1 {
		t.Errorf("u1 received another account's commit (%d deliveries)", u1Count)
	}
}

// Subscribing through the ledger delivers a snapshot and then every
// committed mutation, outside the write path.
func TestLedgerSubscribeEndToEnd(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	if _, err := ledger.EnsureAccount(ctx, "u1"); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var balances []float64
	unsub, err := ledger.Subscribe(ctx, "u1", func(a *models.Account) {
		if a == nil {
			return
		}
		mu.Lock()
		balances = append(balances, a.Balance)
		mu.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}
	defer unsub()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(balances) >= 1
	}, "snapshot never delivered")

	if _, err := ledger.Settle(ctx, "u1", &models.SettleRequest{
		BetAmount: 10, Payout: 30, Game: models.GameTower,
		Metadata: map[string]any{"cashout": true, "multiplier": 3.0},
	}); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(balances) >= 2 && balances[len(balances)-1] == 120
	}, "settlement state never delivered")
}
