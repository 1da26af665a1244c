package services_test

import (
	"context"
	"errors"
	"testing"

	"casino-ledger-backend/internal/models"
	"casino-ledger-backend/internal/services"
	"casino-ledger-backend/internal/store"
)

func newTestAdmin(t *testing.T) (*services.Admin, *services.Ledger, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	feed := services.NewAccountFeed()
	return services.NewAdmin(mem, mem, feed), services.NewLedger(mem, mem, feed, 100), mem
}

func TestListAllAccounts(t *testing.T) {
	admin, ledger, _ := newTestAdmin(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := ledger.EnsureAccount(ctx, id); err != nil {
			t.Fatal(err)
		}
	}

	accounts, err := admin.ListAllAccounts(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(accounts) != 3 {
		t.Fatalf("got %d accounts, want 3", len(accounts))
	}
	for _, acc := range accounts {
		if acc.Balance != 100 {
			t.Errorf("account %s balance = %v, want 100", acc.ID, acc.Balance)
		}
	}
}

func TestLeaderboard(t *testing.T) {
	admin, ledger, _ := newTestAdmin(t)
	ctx := context.Background()

	wagers := map[string]float64{"low": 10, "high": 90, "mid": 50, "hidden": 99}
	for id, bet := range wagers {
		if _, err := ledger.EnsureAccount(ctx, id); err != nil {
			t.Fatal(err)
		}
		if _, err := ledger.Settle(ctx, id, &models.SettleRequest{
			BetAmount: bet, Payout: bet, Game: models.GameRoulette,
		}); err != nil {
			t.Fatal(err)
		}
	}
	private := true
	if _, err := ledger.UpdateProfile(ctx, "hidden", nil, nil, &private); err != nil {
		t.Fatal(err)
	}

	rows, err := admin.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3 (private profile hidden)", len(rows))
	}
	if rows[0].ID != "high" || rows[1].ID != "mid" || rows[2].ID != "low" {
		t.Errorf("order = %s, %s, %s; want high, mid, low", rows[0].ID, rows[1].ID, rows[2].ID)
	}
}

func TestAdjustBalanceRounds(t *testing.T) {
	admin, ledger, _ := newTestAdmin(t)
	ctx := context.Background()

	if _, err := ledger.EnsureAccount(ctx, "u1"); err != nil {
		t.Fatal(err)
	}

	acc, err := admin.AdjustBalance(ctx, "u1", 1234.567)
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if acc.Balance != 1234.57 {
		t.Errorf("balance = %v, want 1234.57 (rounded)", acc.Balance)
	}

	entries, err := ledger.History(ctx, "u1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Type != models.JournalAdjustment {
		t.Errorf("override not journaled: %+v", entries)
	}
	if entries[0].BalanceBefore != 100 || entries[0].BalanceAfter != 1234.57 {
		t.Errorf("journal balances = %v -> %v, want 100 -> 1234.57",
			entries[0].BalanceBefore, entries[0].BalanceAfter)
	}

	if _, err := admin.AdjustBalance(ctx, "ghost", 10); !errors.Is(err, models.ErrAccountNotFound) {
		t.Errorf("got %v, want ErrAccountNotFound", err)
	}
}

func TestSetAdminFlag(t *testing.T) {
	admin, ledger, _ := newTestAdmin(t)
	ctx := context.Background()

	if _, err := ledger.EnsureAccount(ctx, "u1"); err != nil {
		t.Fatal(err)
	}

	acc, err := admin.SetAdminFlag(ctx, "u1", true)
	if err != nil {
		t.Fatal(err)
	}
	if acc.Admin != 1 {
		t.Errorf("admin flag = %d, want 1", acc.Admin)
	}

	acc, err = admin.SetAdminFlag(ctx, "u1", false)
	if err != nil {
		t.Fatal(err)
	}
	if acc.Admin != 0 {
		t.Errorf("admin flag = %d, want 0", acc.Admin)
	}
}

func TestResetStatsKeepsBalanceAndIdentity(t *testing.T) {
	admin, ledger, _ := newTestAdmin(t)
	ctx := context.Background()

	if _, err := ledger.EnsureAccount(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	name := "player_one"
	if _, err := ledger.UpdateProfile(ctx, "u1", &name, nil, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.Settle(ctx, "u1", &models.SettleRequest{
		BetAmount: 50, Payout: 75, Game: models.GameKeno,
	}); err != nil {
		t.Fatal(err)
	}

	acc, err := admin.ResetStats(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if acc.TotalWagered != 0 || acc.GamesPlayed != 0 || acc.KenoPlays != 0 || acc.TotalWager != 0 {
		t.Errorf("stats not reset: %+v", acc)
	}
	if acc.Balance != 125 {
		t.Errorf("reset changed balance: %v, want 125", acc.Balance)
	}
	if acc.Username == nil || *acc.Username != "player_one" {
		t.Error("reset changed identity fields")
	}
}

func TestDeleteAccount(t *testing.T) {
	admin, ledger, _ := newTestAdmin(t)
	ctx := context.Background()

	if _, err := ledger.EnsureAccount(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if err := admin.DeleteAccount(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.GetAccount(ctx, "u1"); !errors.Is(err, models.ErrAccountNotFound) {
		t.Errorf("got %v, want ErrAccountNotFound", err)
	}
	if err := admin.DeleteAccount(ctx, "u1"); !errors.Is(err, models.ErrAccountNotFound) {
		t.Errorf("double delete: got %v, want ErrAccountNotFound", err)
	}
}

func TestMigrateMissingFieldsAdditiveOnly(t *testing.T) {
	admin, _, mem := newTestAdmin(t)
	ctx := context.Background()

	// A legacy record missing totalRakebackEarned, username and every
	// per-game block.
	mem.SeedRaw("legacy", []byte(`{"balance":42.17,"totalWagered":500,"gamesPlayed":12}`))

	report, err := admin.MigrateMissingFields(ctx)
	if err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	if report.Scanned != 1 || report.Migrated != 1 {
		t.Errorf("report = %+v, want 1 scanned / 1 migrated", report)
	}
	if _, ok := report.FieldsAdded["totalRakebackEarned"]; !ok {
		t.Error("totalRakebackEarned should have been backfilled")
	}
	if _, ok := report.FieldsAdded["balance"]; ok {
		t.Error("present field balance must not be rewritten")
	}

	doc, err := mem.GetDocument(ctx, "legacy")
	if err != nil {
		t.Fatal(err)
	}
	if doc["balance"] != 42.17 {
		t.Errorf("balance = %v, want 42.17 untouched", doc["balance"])
	}
	if doc["totalRakebackEarned"] != float64(0) {
		t.Errorf("totalRakebackEarned = %v, want 0", doc["totalRakebackEarned"])
	}
	if doc["username"] != nil {
		t.Errorf("username = %v, want null", doc["username"])
	}
	if doc["totalWagered"] != float64(500) {
		t.Errorf("totalWagered = %v, want 500 untouched", doc["totalWagered"])
	}

	// Re-running finds nothing left to do.
	report, err = admin.MigrateMissingFields(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.Migrated != 0 {
		t.Errorf("second run migrated %d accounts, want 0", report.Migrated)
	}
}
