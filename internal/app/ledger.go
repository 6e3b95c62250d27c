/**
 * @description
 * The Ledger Transaction Engine: the only component allowed to mutate account
 * balances. Both operations run as a single storage unit of work so that a
 * balance change and its transaction record commit together or not at all.
 *
 * Key features:
 * - Transfer resolves the receiver before any lock is taken, then locks the
 *   sender row for the check-then-mutate sequence.
 * - Deposit credits the target atomically and records a DEPOSIT row.
 * - Every operation is bounded by a lock-wait deadline; a timed-out unit of
 *   work rolls back and surfaces as a retryable transient failure.
 * - Completed operations are counted in Prometheus and published to the
 *   message broker; neither may fail the money movement itself.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For account identifiers.
 * - internal/domain, internal/store: Domain models and data access.
 * - pkg/metrics, pkg/rabbitmq: Observability and event publication.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/corebank/banking-service/internal/domain"
	"github.com/corebank/banking-service/internal/store"
	"github.com/corebank/banking-service/pkg/metrics"
	"github.com/corebank/banking-service/pkg/rabbitmq"
)

const defaultLockTimeout = 5 * time.Second

// Ledger provides the balance-mutating operations and the history projection.
type Ledger struct {
	repo        store.Repository
	events      rabbitmq.Publisher
	collector   *metrics.Collector
	lockTimeout time.Duration
}

// NewLedger creates a new ledger engine. The publisher and collector are
// optional; a nil value disables that concern.
func NewLedger(repo store.Repository, events rabbitmq.Publisher, collector *metrics.Collector, lockTimeout time.Duration) *Ledger {
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	return &Ledger{
		repo:        repo,
		events:      events,
		collector:   collector,
		lockTimeout: lockTimeout,
	}
}

// Deposit injects funds into the account identified by its account number.
// Exactly one balance mutation and one record append happen, or neither.
func (l *Ledger) Deposit(ctx context.Context, accountNumber string, amountCents int64, reference string) (*domain.TransactionRecord, error) {
	if amountCents <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if reference == "" {
		reference = "Staff Deposit"
	}

	account, err := l.repo.FindAccountByAccountNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	opCtx, cancel := context.WithTimeout(ctx, l.lockTimeout)
	defer cancel()

	record, err := l.repo.ExecuteDeposit(opCtx, account.ID, amountCents, reference)
	l.observe(domain.KindDeposit, started, err)
	if err != nil {
		return nil, err
	}

	l.publish(ctx, record)
	return record, nil
}

// Transfer moves funds from the sender to the account resolved from
// receiverIdentifier (email or customer id). The receiver lookup happens
// before the sender's row is locked so a lookup failure never holds a lock.
func (l *Ledger) Transfer(ctx context.Context, senderID uuid.UUID, receiverIdentifier string, amountCents int64, reference string) (*domain.TransactionRecord, error) {
	if amountCents <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	receiver, err := l.repo.FindAccountByContactOrCustomerID(ctx, receiverIdentifier)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, store.ErrReceiverNotFound
		}
		return nil, fmt.Errorf("failed to resolve receiver: %w", err)
	}
	if receiver.ID == senderID {
		return nil, store.ErrSelfTransfer
	}

	started := time.Now()
	opCtx, cancel := context.WithTimeout(ctx, l.lockTimeout)
	defer cancel()

	record, err := l.repo.ExecuteTransfer(opCtx, senderID, receiver.ID, amountCents, reference)
	l.observe(domain.KindTransfer, started, err)
	if err != nil {
		return nil, err
	}

	l.publish(ctx, record)
	return record, nil
}

// History returns the read-only projection of an account's transaction
// records, newest first.
func (l *Ledger) History(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.TransactionView, error) {
	return l.repo.ListTransactionsByAccount(ctx, accountID, limit)
}

func (l *Ledger) observe(kind string, started time.Time, err error) {
	if l.collector == nil {
		return
	}
	l.collector.RecordLedgerOperation(kind, time.Since(started), err == nil)
}

func (l *Ledger) publish(ctx context.Context, record *domain.TransactionRecord) {
	if l.events == nil {
		return
	}
	event := rabbitmq.TransactionEvent{
		RecordID:    record.ID,
		Kind:        record.Kind,
		SenderID:    record.SenderID,
		ReceiverID:  record.ReceiverID,
		AmountCents: record.AmountCents,
		Reference:   record.Reference,
		Timestamp:   record.CreatedAt,
	}
	if err := l.events.PublishTransactionEvent(ctx, event); err != nil {
		// The record is committed; a publish failure must not unwind it.
		log.Printf("level=warn component=ledger msg=\"transaction event publish failed\" record_id=%s err=%v", record.ID, err)
	}
}
