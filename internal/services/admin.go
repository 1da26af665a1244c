package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"casino-ledger-backend/internal/models"
	"casino-ledger-backend/internal/store"
)

// Admin bundles the trusted administrative operations. These bypass the
// settlement invariants on purpose; currency fields are still rounded on
// every write and overrides land in the journal like any other mutation.
type Admin struct {
	accounts store.AccountStore
	journal  store.JournalStore
	feed     *AccountFeed
}

func NewAdmin(accounts store.AccountStore, journal store.JournalStore, feed *AccountFeed) *Admin {
	return &Admin{accounts: accounts, journal: journal, feed: feed}
}

// ListAllAccounts bulk-reads every account, normalized. Point-in-time
// snapshot only: records written concurrently may be slightly stale,
// which is acceptable for reporting.
func (s *Admin) ListAllAccounts(ctx context.Context) ([]*models.Account, error) {
	ids, err := s.accounts.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	accounts := make([]*models.Account, 0, len(ids))
	for _, id := range ids {
		acc, err := s.accounts.Get(ctx, id)
		if err != nil {
			// Deleted between scan and read.
			if errors.Is(err, models.ErrAccountNotFound) {
				continue
			}
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// Leaderboard ranks accounts by lifetime wagered volume, skipping
// profiles marked private.
func (s *Admin) Leaderboard(ctx context.Context, limit int) ([]*models.Account, error) {
	accounts, err := s.ListAllAccounts(ctx)
	if err != nil {
		return nil, err
	}

	public := accounts[:0]
	for _, acc := range accounts {
		if !acc.IsPrivate {
			public = append(public, acc)
		}
	}
	sort.Slice(public, func(i, j int) bool {
		return public[i].TotalWagered > public[j].TotalWagered
	})

	if limit > 0 && len(public) > limit {
		public = public[:limit]
	}
	return public, nil
}

// AdjustBalance overrides the balance directly.
func (s *Admin) AdjustBalance(ctx context.Context, id string, newBalance float64) (*models.Account, error) {
	var before float64
	acc, err := s.accounts.Update(ctx, id, func(a *models.Account) error {
		before = a.Balance
		a.Balance = models.Round2(newBalance)
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Warn("admin balance override",
		zap.String("account_id", id),
		zap.Float64("new_balance", acc.Balance))

	entry := &models.JournalEntry{
		ID:            uuid.New().String(),
		AccountID:     id,
		Type:          models.JournalAdjustment,
		Amount:        models.Round2(acc.Balance - before),
		BalanceBefore: before,
		BalanceAfter:  acc.Balance,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.journal.Append(ctx, entry); err != nil {
		zap.L().Error("failed to append journal entry",
			zap.String("account_id", id),
			zap.Error(err))
	}

	s.feed.Publish(acc)
	return acc, nil
}

func (s *Admin) SetAdminFlag(ctx context.Context, id string, isAdmin bool) (*models.Account, error) {
	acc, err := s.accounts.Update(ctx, id, func(a *models.Account) error {
		if isAdmin {
			a.Admin = 1
		} else {
			a.Admin = 0
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.feed.Publish(acc)
	return acc, nil
}

// ResetStats zeroes all cumulative statistics, leaving balance, rakeback
// balances and identity untouched.
func (s *Admin) ResetStats(ctx context.Context, id string) (*models.Account, error) {
	acc, err := s.accounts.Update(ctx, id, func(a *models.Account) error {
		a.ResetStats()
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Warn("admin stats reset", zap.String("account_id", id))

	s.feed.Publish(acc)
	return acc, nil
}

func (s *Admin) DeleteAccount(ctx context.Context, id string) error {
	if err := s.accounts.Delete(ctx, id); err != nil {
		return err
	}
	zap.L().Warn("admin account deletion", zap.String("account_id", id))
	return nil
}

// MigrationReport summarizes one additive-only migration run.
type MigrationReport struct {
	Scanned     int            `json:"scanned"`
	Migrated    int            `json:"migrated"`
	FieldsAdded map[string]int `json:"fieldsAdded"`
}

// MigrateMissingFields backfills every account document with the fields
// the current schema defines but the record lacks. Present values are
// never overwritten, so re-running the migration is harmless.
func (s *Admin) MigrateMissingFields(ctx context.Context) (*MigrationReport, error) {
	ids, err := s.accounts.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	report := &MigrationReport{FieldsAdded: make(map[string]int)}
	for _, id := range ids {
		raw, err := s.accounts.GetDocument(ctx, id)
		if err != nil {
			if errors.Is(err, models.ErrAccountNotFound) {
				continue
			}
			return nil, err
		}
		report.Scanned++

		missing, err := models.MissingFields(raw)
		if err != nil {
			return nil, err
		}
		if len(missing) == 0 {
			continue
		}

		if err := s.accounts.MergeDocument(ctx, id, missing); err != nil {
			return nil, err
		}
		report.Migrated++
		for field := range missing {
			report.FieldsAdded[field]++
		}
	}

	if report.Migrated > 0 {
		zap.L().Info("migration backfilled missing fields",
			zap.Int("scanned", report.Scanned),
			zap.Int("migrated", report.Migrated))
	}
	return report, nil
}
