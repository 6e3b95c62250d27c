/**
 * @description
 * Directory and authentication flows: customer onboarding, the staff
 * directory listing, login and logout. The hard parts of money movement and
 * session state live in the ledger engine and the session authority; this
 * file orchestrates them.
 *
 * Key features:
 * - Onboarding generates the human-facing identifiers, hashes a one-time
 *   starter password, and routes any initial deposit through the ledger
 *   engine so it leaves a DEPOSIT record.
 * - Login is deliberately uniform: unknown email and wrong password produce
 *   the same generic failure so callers cannot enumerate accounts.
 *
 * @dependencies
 * - context, errors, fmt, log, math/rand, strings: Standard Go libraries.
 * - github.com/google/uuid: Account identifiers.
 * - internal/domain, internal/store: Domain models and data access.
 * - pkg/rabbitmq: Customer onboarding events.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/corebank/banking-service/internal/domain"
	"github.com/corebank/banking-service/internal/store"
	"github.com/corebank/banking-service/pkg/rabbitmq"
)

var (
	// ErrInvalidLogin covers both unknown email and wrong password; the two
	// are never distinguishable to the caller.
	ErrInvalidLogin    = errors.New("invalid credentials")
	ErrAccountInactive = errors.New("account is not active")
	ErrTooManyAttempts = errors.New("too many login attempts")
	ErrMissingFields   = errors.New("full name and email are required")
)

// LoginLimiter throttles login attempts. Implementations report how many
// attempts the subject has made in the current window and how long until it
// resets.
type LoginLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int) (count int, retryAfterSeconds int, err error)
}

// Directory handles onboarding, login/logout and customer listing.
type Directory struct {
	repo       store.Repository
	ledger     *Ledger
	authority  *SessionAuthority
	limiter    LoginLimiter
	events     rabbitmq.Publisher
	bcryptCost int
	loginLimit int
}

// NewDirectory creates the directory service. The limiter and publisher are
// optional; nil disables them.
func NewDirectory(repo store.Repository, ledger *Ledger, authority *SessionAuthority, limiter LoginLimiter, events rabbitmq.Publisher, bcryptCost, loginLimit int) *Directory {
	return &Directory{
		repo:       repo,
		ledger:     ledger,
		authority:  authority,
		limiter:    limiter,
		events:     events,
		bcryptCost: bcryptCost,
		loginLimit: loginLimit,
	}
}

// OnboardCustomer creates an ACTIVE CLIENT account with generated customer id
// and account number, and injects the optional initial deposit through the
// ledger engine.
func (d *Directory) OnboardCustomer(ctx context.Context, fullName, email string, initialDepositCents int64) (*domain.OnboardCustomerResponse, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" {
		return nil, ErrMissingFields
	}
	if initialDepositCents < 0 {
		return nil, domain.ErrInvalidAmount
	}

	if _, err := d.repo.FindAccountByEmail(ctx, email); err == nil {
		return nil, store.ErrDuplicateIdentity
	} else if !errors.Is(err, store.ErrAccountNotFound) {
		return nil, err
	}

	starter, err := domain.GenerateStarterPassword()
	if err != nil {
		return nil, fmt.Errorf("failed to generate starter password: %w", err)
	}
	hash, err := domain.HashPassword(starter, d.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash starter password: %w", err)
	}

	var account *domain.Account
	// The generated customer id / account number can collide with an existing
	// row; regenerate a couple of times before giving up.
	for attempt := 0; attempt < 3; attempt++ {
		account = &domain.Account{
			ID:            uuid.New(),
			CustomerID:    fmt.Sprintf("CUST%04d", 1000+rand.Intn(9000)),
			AccountNumber: fmt.Sprintf("ACC-%03d-%03d", 100+rand.Intn(900), 100+rand.Intn(900)),
			FullName:      fullName,
			Email:         email,
			PasswordHash:  hash,
			BalanceCents:  0,
			Status:        domain.AccountActive,
			Role:          domain.RoleClient,
		}
		err = d.repo.CreateAccount(ctx, account)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrDuplicateIdentity) {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}

	if initialDepositCents > 0 {
		if _, err := d.ledger.Deposit(ctx, account.AccountNumber, initialDepositCents, "Initial Bank Deposit"); err != nil {
			return nil, fmt.Errorf("account created but initial deposit failed: %w", err)
		}
		account.BalanceCents = initialDepositCents
	}

	if d.events != nil {
		if err := d.events.Publish(ctx, rabbitmq.BankingExchange, "customer.created", domain.ProfileOf(account)); err != nil {
			log.Printf("level=warn component=directory msg=\"customer event publish failed\" account_id=%s err=%v", account.ID, err)
		}
	}

	return &domain.OnboardCustomerResponse{Account: account, StarterPassword: starter}, nil
}

// ListCustomers returns the CLIENT directory.
func (d *Directory) ListCustomers(ctx context.Context) ([]domain.Account, error) {
	return d.repo.ListCustomers(ctx)
}

// Profile returns the external projection of an account.
func (d *Directory) Profile(ctx context.Context, accountID uuid.UUID) (*domain.Profile, error) {
	account, err := d.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return domain.ProfileOf(account), nil
}

// Login verifies the presented secret and, on success, has the session
// authority issue a credential. clientKey scopes the optional rate limit
// (typically email plus remote address).
func (d *Directory) Login(ctx context.Context, email, password, clientKey string) (*domain.LoginResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidLogin
	}

	if d.limiter != nil && d.loginLimit > 0 {
		count, _, err := d.limiter.ConsumeRateLimit(ctx, "login", clientKey, d.loginLimit)
		if err != nil {
			log.Printf("level=warn component=directory msg=\"login rate limiter unavailable\" err=%v", err)
		} else if count > d.loginLimit {
			return nil, ErrTooManyAttempts
		}
	}

	account, err := d.repo.FindAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			// Same outcome as a wrong password.
			return nil, ErrInvalidLogin
		}
		return nil, err
	}
	if account.Status != domain.AccountActive {
		return nil, ErrAccountInactive
	}
	if !domain.VerifyPassword(password, account.PasswordHash) {
		return nil, ErrInvalidLogin
	}

	token, _, err := d.authority.Issue(ctx, account)
	if err != nil {
		return nil, err
	}
	return &domain.LoginResponse{Token: token, User: domain.ProfileOf(account)}, nil
}

// Logout revokes the presented credential via the session authority.
func (d *Directory) Logout(ctx context.Context, credential string) error {
	return d.authority.Revoke(ctx, credential)
}
