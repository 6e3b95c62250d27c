/**
 * @description
 * This file defines the `Repository` interface: the contract for all data
 * access the banking service performs. The ledger's unit-of-work operations
 * (ExecuteTransfer, ExecuteDeposit) are part of the contract because their
 * atomicity is a storage property, not something the business layer can bolt
 * on afterwards.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/google/uuid: For entity identifiers.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/corebank/banking-service/internal/domain"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrReceiverNotFound  = errors.New("receiver not found")
	ErrSelfTransfer      = errors.New("cannot transfer to yourself")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDuplicateIdentity = errors.New("email or customer id already in use")
	ErrSessionNotFound   = errors.New("session not found")

	// ErrTransientStore marks infrastructure failures (lock wait deadline,
	// serialization conflict, lost connection) where the unit of work was
	// rolled back and the caller may retry the whole operation.
	ErrTransientStore = errors.New("transient store failure")
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Account methods
	CreateAccount(ctx context.Context, account *domain.Account) error
	FindAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindAccountByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	// Receiver resolution: matches either the email or the customer id
	// namespace. Creation-time uniqueness across both keeps this unambiguous.
	FindAccountByContactOrCustomerID(ctx context.Context, identifier string) (*domain.Account, error)
	ListCustomers(ctx context.Context) ([]domain.Account, error)

	// Ledger unit-of-work methods. Each commits the balance mutation(s) and
	// the appended record together or rolls back entirely.
	ExecuteTransfer(ctx context.Context, senderID, receiverID uuid.UUID, amountCents int64, reference string) (*domain.TransactionRecord, error)
	ExecuteDeposit(ctx context.Context, accountID uuid.UUID, amountCents int64, reference string) (*domain.TransactionRecord, error)
	ListTransactionsByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.TransactionView, error)

	// Session methods
	CreateSession(ctx context.Context, session *domain.Session) error
	FindSessionByDigest(ctx context.Context, digest string) (*domain.Session, error)
	RevokeSessionByDigest(ctx context.Context, digest string) error
}
