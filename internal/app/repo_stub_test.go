package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corebank/banking-service/internal/domain"
	"github.com/corebank/banking-service/internal/store"
)

// memRepo is an in-memory Repository used by the service tests. A single
// mutex stands in for the database's row lock: the whole unit of work runs
// under it, which preserves the check-then-mutate serialization the contract
// requires.
type memRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.Account
	records  []domain.TransactionRecord
	sessions map[string]*domain.Session

	transferErr error
	depositErr  error
}

func newMemRepo() *memRepo {
	return &memRepo{
		accounts: map[uuid.UUID]*domain.Account{},
		sessions: map[string]*domain.Session{},
	}
}

func (m *memRepo) addAccount(a *domain.Account) *domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = domain.AccountActive
	}
	if a.Role == "" {
		a.Role = domain.RoleClient
	}
	a.CreatedAt = time.Now().UTC()
	m.accounts[a.ID] = a
	return a
}

func (m *memRepo) balance(id uuid.UUID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id].BalanceCents
}

func (m *memRepo) totalBalance() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, a := range m.accounts {
		sum += a.BalanceCents
	}
	return sum
}

func (m *memRepo) sessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *memRepo) recordCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *memRepo) CreateAccount(ctx context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == account.Email || a.CustomerID == account.CustomerID ||
			a.Email == account.CustomerID || a.CustomerID == account.Email {
			return store.ErrDuplicateIdentity
		}
	}
	account.CreatedAt = time.Now().UTC()
	m.accounts[account.ID] = account
	return nil
}

func (m *memRepo) FindAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *memRepo) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, strings.TrimSpace(email)) {
			copied := *a
			return &copied, nil
		}
	}
	return nil, store.ErrAccountNotFound
}

func (m *memRepo) FindAccountByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.AccountNumber == strings.TrimSpace(accountNumber) {
			copied := *a
			return &copied, nil
		}
	}
	return nil, store.ErrAccountNotFound
}

func (m *memRepo) FindAccountByContactOrCustomerID(ctx context.Context, identifier string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	identifier = strings.TrimSpace(identifier)
	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, identifier) || a.CustomerID == identifier {
			copied := *a
			return &copied, nil
		}
	}
	return nil, store.ErrAccountNotFound
}

func (m *memRepo) ListCustomers(ctx context.Context) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Account
	for _, a := range m.accounts {
		if a.Role == domain.RoleClient {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memRepo) ExecuteTransfer(ctx context.Context, senderID, receiverID uuid.UUID, amountCents int64, reference string) (*domain.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transferErr != nil {
		return nil, m.transferErr
	}
	sender, ok := m.accounts[senderID]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	receiver, ok := m.accounts[receiverID]
	if !ok {
		return nil, store.ErrReceiverNotFound
	}
	if sender.BalanceCents < amountCents {
		return nil, store.ErrInsufficientFunds
	}
	sender.BalanceCents -= amountCents
	receiver.BalanceCents += amountCents

	record := domain.TransactionRecord{
		ID:          uuid.New(),
		SenderID:    &senderID,
		ReceiverID:  &receiverID,
		AmountCents: amountCents,
		Kind:        domain.KindTransfer,
		Status:      domain.TxCompleted,
		Reference:   reference,
		CreatedAt:   time.Now().UTC(),
	}
	m.records = append(m.records, record)
	return &record, nil
}

func (m *memRepo) ExecuteDeposit(ctx context.Context, accountID uuid.UUID, amountCents int64, reference string) (*domain.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.depositErr != nil {
		return nil, m.depositErr
	}
	account, ok := m.accounts[accountID]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	account.BalanceCents += amountCents

	record := domain.TransactionRecord{
		ID:          uuid.New(),
		ReceiverID:  &accountID,
		AmountCents: amountCents,
		Kind:        domain.KindDeposit,
		Status:      domain.TxCompleted,
		Reference:   reference,
		CreatedAt:   time.Now().UTC(),
	}
	m.records = append(m.records, record)
	return &record, nil
}

func (m *memRepo) ListTransactionsByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.TransactionView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 20
	}
	var out []domain.TransactionView
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		r := m.records[i]
		involved := (r.SenderID != nil && *r.SenderID == accountID) || (r.ReceiverID != nil && *r.ReceiverID == accountID)
		if !involved {
			continue
		}
		out = append(out, domain.TransactionView{
			ID:         r.ID,
			SenderID:   r.SenderID,
			ReceiverID: r.ReceiverID,
			Amount:     domain.FormatAmount(r.AmountCents),
			Kind:       r.Kind,
			Status:     r.Status,
			Reference:  r.Reference,
			CreatedAt:  r.CreatedAt,
		})
	}
	return out, nil
}

func (m *memRepo) CreateSession(ctx context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *session
	m.sessions[session.TokenDigest] = &copied
	return nil
}

func (m *memRepo) FindSessionByDigest(ctx context.Context, digest string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[digest]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *memRepo) RevokeSessionByDigest(ctx context.Context, digest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[digest]; ok {
		s.Revoked = true
	}
	return nil
}
