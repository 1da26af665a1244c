package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"casino-ledger-backend/internal/metrics"
	"casino-ledger-backend/internal/models"
	"casino-ledger-backend/internal/store"
)

// Ledger is the transaction engine over account records. Every balance
// mutation goes through an atomic store.Update closure: the read,
// validation, computation and write happen under per-account isolation,
// so concurrent settlements on one account cannot double-spend.
type Ledger struct {
	accounts store.AccountStore
	journal  store.JournalStore
	feed     *AccountFeed

	startingBalance float64
}

func NewLedger(accounts store.AccountStore, journal store.JournalStore, feed *AccountFeed, startingBalance float64) *Ledger {
	return &Ledger{
		accounts:        accounts,
		journal:         journal,
		feed:            feed,
		startingBalance: startingBalance,
	}
}

// EnsureAccount returns the account, creating it with the seeded starting
// balance on first authentication. This is the only path that creates
// records; Settle and Deposit never create implicitly.
func (l *Ledger) EnsureAccount(ctx context.Context, id string) (*models.Account, error) {
	acc, err := l.accounts.Get(ctx, id)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, models.ErrAccountNotFound) {
		return nil, err
	}

	acc = models.NewAccount(id, l.startingBalance)
	if err := l.accounts.Create(ctx, acc); err != nil {
		if errors.Is(err, models.ErrAccountExists) {
			// Lost the creation race; the other writer's record wins.
			return l.accounts.Get(ctx, id)
		}
		return nil, err
	}

	zap.L().Info("account created",
		zap.String("account_id", id),
		zap.Float64("starting_balance", acc.Balance))

	l.feed.Publish(acc)
	return acc, nil
}

func (l *Ledger) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return l.accounts.Get(ctx, id)
}

// Deposit atomically credits the account. No statistics are touched.
func (l *Ledger) Deposit(ctx context.Context, id string, amount float64) (float64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, models.ErrInvalidAmount
	}

	var before float64
	acc, err := l.accounts.Update(ctx, id, func(a *models.Account) error {
		before = a.Balance
		a.Balance = models.Round2(a.Balance + amount)
		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.DepositsTotal.Inc()
	l.record(ctx, &models.JournalEntry{
		AccountID:     id,
		Type:          models.JournalDeposit,
		Amount:        models.Round2(amount),
		BalanceBefore: before,
		BalanceAfter:  acc.Balance,
	})
	l.feed.Publish(acc)

	return acc.Balance, nil
}

// Settle applies one game round to the account: deducts the bet, credits
// the payout, accrues rakeback on a net loss and updates ledger-wide plus
// per-game statistics, all inside a single atomic transaction. The
// balance check runs inside the same transaction that applies the delta,
// so two concurrent settlements cannot both pass against a stale balance.
func (l *Ledger) Settle(ctx context.Context, id string, req *models.SettleRequest) (*models.SettleResult, error) {
	if err := req.Validate(); err != nil {
		metrics.SettlementFailures.WithLabelValues("invalid_request").Inc()
		return nil, err
	}

	bet := models.Round2(req.BetAmount)
	payout := models.Round2(req.Payout)
	profit := models.Round2(payout - bet)
	outcome := models.ParseOutcome(req.Metadata, bet, payout)

	var before float64
	acc, err := l.accounts.Update(ctx, id, func(a *models.Account) error {
		if a.Balance < bet {
			return models.ErrInsufficientFunds
		}
		before = a.Balance

		// Rakeback rate comes from the tier held before this wager counts.
		rakeback := models.RakebackOnLoss(bet, payout, a.TotalWager)

		a.Balance = models.Round2(a.Balance - bet + payout)
		a.TotalWagered = models.Round2(a.TotalWagered + bet)
		a.TotalWon = models.Round2(a.TotalWon + payout)
		a.GamesPlayed++
		a.TotalWager = models.Round2(a.TotalWager + bet)
		a.RakebackAvailable = models.Round2(a.RakebackAvailable + rakeback)
		a.TotalRakebackEarned = models.Round2(a.TotalRakebackEarned + rakeback)

		a.ApplyGameStats(req.Game, outcome, profit, payout)
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInsufficientFunds):
			metrics.SettlementFailures.WithLabelValues("insufficient_funds").Inc()
		case errors.Is(err, models.ErrAccountNotFound):
			metrics.SettlementFailures.WithLabelValues("account_not_found").Inc()
		default:
			metrics.SettlementFailures.WithLabelValues("store").Inc()
		}
		return nil, err
	}

	metrics.SettlementsTotal.WithLabelValues(string(req.Game), outcome.Result).Inc()
	metrics.WageredTotal.Add(bet)

	l.record(ctx, &models.JournalEntry{
		AccountID:     id,
		Type:          models.JournalSettlement,
		Game:          req.Game,
		BetAmount:     bet,
		Payout:        payout,
		Amount:        profit,
		BalanceBefore: before,
		BalanceAfter:  acc.Balance,
	})
	l.feed.Publish(acc)

	return &models.SettleResult{
		Balance: acc.Balance,
		Profit:  profit,
		Payout:  payout,
	}, nil
}

// ClaimRakeback moves the entire accrued rakeback into the balance and
// stamps the claim time, atomically.
func (l *Ledger) ClaimRakeback(ctx context.Context, id string) (*models.RakebackClaim, error) {
	var (
		before  float64
		claimed float64
		stamp   string
	)
	acc, err := l.accounts.Update(ctx, id, func(a *models.Account) error {
		if a.RakebackAvailable <= 0 {
			return models.ErrNoRakebackAvailable
		}
		before = a.Balance
		claimed = a.RakebackAvailable
		stamp = time.Now().UTC().Format(time.RFC3339)

		a.Balance = models.Round2(a.Balance + claimed)
		a.RakebackAvailable = 0
		a.LastRakebackClaim = &stamp
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RakebackPaid.Add(claimed)
	l.record(ctx, &models.JournalEntry{
		AccountID:     id,
		Type:          models.JournalRakeback,
		Amount:        claimed,
		BalanceBefore: before,
		BalanceAfter:  acc.Balance,
	})
	l.feed.Publish(acc)

	return &models.RakebackClaim{
		Balance:           acc.Balance,
		RakebackClaimed:   claimed,
		LastRakebackClaim: stamp,
	}, nil
}

// Subscribe delivers the current record immediately (nil when absent) and
// every committed mutation afterwards. The returned unsubscribe is
// idempotent; callers must invoke it when the UI goes away.
func (l *Ledger) Subscribe(ctx context.Context, id string, onChange func(*models.Account)) (func(), error) {
	acc, err := l.accounts.Get(ctx, id)
	if err != nil && !errors.Is(err, models.ErrAccountNotFound) {
		return nil, err
	}
	return l.feed.Subscribe(id, acc, onChange), nil
}

// UpdateProfile changes identity fields. Nil fields are left untouched.
func (l *Ledger) UpdateProfile(ctx context.Context, id string, username *string, email *string, isPrivate *bool) (*models.Account, error) {
	if username != nil {
		if err := models.ValidateUsername(*username); err != nil {
			return nil, err
		}
	}

	acc, err := l.accounts.Update(ctx, id, func(a *models.Account) error {
		if username != nil {
			a.Username = username
		}
		if email != nil {
			a.Email = *email
		}
		if isPrivate != nil {
			a.IsPrivate = *isPrivate
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.feed.Publish(acc)
	return acc, nil
}

// History returns recent journal entries for the account, newest first.
func (l *Ledger) History(ctx context.Context, id string, limit int64) ([]*models.JournalEntry, error) {
	return l.journal.History(ctx, id, limit)
}

// record appends to the journal; a journal failure never rolls back a
// committed mutation, it is logged and surfaced through metrics instead.
func (l *Ledger) record(ctx context.Context, entry *models.JournalEntry) {
	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now().UTC()
	if err := l.journal.Append(ctx, entry); err != nil {
		zap.L().Error("failed to append journal entry",
			zap.String("account_id", entry.AccountID),
			zap.String("type", string(entry.Type)),
			zap.Error(err))
	}
}
