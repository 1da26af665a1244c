package services

import (
	"sync"

	"casino-ledger-backend/internal/metrics"
	"casino-ledger-backend/internal/models"
)

// AccountFeed pushes committed account states to subscribers so UIs never
// poll. Delivery is at-least-once of the latest state after each commit:
// rapid writes may coalesce, but every subscriber eventually observes the
// newest record. Listeners run on their own goroutine, never inside the
// write transaction.
type AccountFeed struct {
	mu     sync.Mutex
	subs   map[string]map[int64]*feedSub
	nextID int64
}

type feedSub struct {
	mailbox chan *models.Account
	quit    chan struct{}
	once    sync.Once
}

func NewAccountFeed() *AccountFeed {
	return &AccountFeed{
		subs: make(map[string]map[int64]*feedSub),
	}
}

// Subscribe registers onChange for one account. It is invoked once
// immediately with the current record (nil when the account does not
// exist yet), then after every subsequent commit. The returned function
// stops delivery and is safe to call more than once.
func (f *AccountFeed) Subscribe(accountID string, current *models.Account, onChange func(*models.Account)) func() {
	sub := &feedSub{
		// Capacity 1: the mailbox holds only the latest committed state.
		mailbox: make(chan *models.Account, 1),
		quit:    make(chan struct{}),
	}

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	if f.subs[accountID] == nil {
		f.subs[accountID] = make(map[int64]*feedSub)
	}
	f.subs[accountID][id] = sub
	f.mu.Unlock()

	metrics.FeedSubscribers.Inc()

	go func() {
		onChange(current)
		for {
			select {
			case acc := <-sub.mailbox:
				onChange(acc)
			case <-sub.quit:
				return
			}
		}
	}()

	return func() {
		sub.once.Do(func() {
			close(sub.quit)
			f.mu.Lock()
			delete(f.subs[accountID], id)
			if len(f.subs[accountID]) == 0 {
				delete(f.subs, accountID)
			}
			f.mu.Unlock()
			metrics.FeedSubscribers.Dec()
		})
	}
}

// Publish fans a committed record out to the account's subscribers.
// Must be called strictly after the write transaction commits.
func (f *AccountFeed) Publish(acc *models.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, sub := range f.subs[acc.ID] {
		// Replace any undelivered state with the newer one.
		select {
		case sub.mailbox <- acc:
		default:
			select {
			case <-sub.mailbox:
			default:
			}
			select {
			case sub.mailbox <- acc:
			default:
			}
		}
	}
}
