package store

const (
	KeyAccount        = "account:%s"
	KeyAccountScan    = "account:*"
	KeyJournalEntry   = "journal:%s"
	KeyAccountJournal = "account:%s:journal"

	// Optimistic transactions retry on WATCH conflicts before giving up.
	MaxTxRetries = 16

	// Per-account journal index keeps the most recent entries only.
	JournalIndexSize = 500
)
