/**
 * @description
 * PostgreSQL implementation of the `Repository` interface. All money movement
 * happens here inside explicit transactions: the sender row is locked with
 * SELECT ... FOR UPDATE for the duration of the check-then-mutate sequence,
 * the receiver credit is a single atomic increment, and the transaction
 * record is inserted before the commit so that the three writes land together
 * or not at all.
 *
 * @dependencies
 * - context, errors, strings: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corebank/banking-service/internal/domain"
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, customer_id, account_number, full_name, email, password_hash, balance_cents, status, role, created_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID, &a.CustomerID, &a.AccountNumber, &a.FullName, &a.Email,
		&a.PasswordHash, &a.BalanceCents, &a.Status, &a.Role, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, classifyStoreErr(err)
	}
	return &a, nil
}

// CreateAccount inserts a new account after probing for cross-namespace
// identifier collisions. Receiver lookup matches email OR customer id, so an
// email equal to someone else's customer id (or vice versa) must be rejected
// here rather than surface as an ambiguous lookup later.
func (r *PostgresRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return classifyStoreErr(err)
	}
	defer tx.Rollback(ctx)

	var collides bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM banking.accounts
			WHERE email = $1 OR customer_id = $1 OR email = $2 OR customer_id = $2
		)
	`, account.Email, account.CustomerID).Scan(&collides)
	if err != nil {
		return classifyStoreErr(err)
	}
	if collides {
		return ErrDuplicateIdentity
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO banking.accounts (
			id, customer_id, account_number, full_name, email, password_hash,
			balance_cents, status, role
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		account.ID, account.CustomerID, account.AccountNumber, account.FullName,
		account.Email, account.PasswordHash, account.BalanceCents,
		account.Status, account.Role,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateIdentity
		}
		return classifyStoreErr(err)
	}

	err = tx.QueryRow(ctx, `SELECT created_at FROM banking.accounts WHERE id = $1`, account.ID).Scan(&account.CreatedAt)
	if err != nil {
		return classifyStoreErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return classifyStoreErr(err)
	}
	return nil
}

func (r *PostgresRepository) FindAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM banking.accounts WHERE id = $1`, id)
	return scanAccount(row)
}

func (r *PostgresRepository) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM banking.accounts WHERE lower(email) = lower(btrim($1))`, email)
	return scanAccount(row)
}

func (r *PostgresRepository) FindAccountByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM banking.accounts WHERE account_number = btrim($1)`, accountNumber)
	return scanAccount(row)
}

// FindAccountByContactOrCustomerID resolves a transfer receiver by email or
// customer id, the two human-facing namespaces.
func (r *PostgresRepository) FindAccountByContactOrCustomerID(ctx context.Context, identifier string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM banking.accounts
		WHERE lower(email) = lower(btrim($1)) OR customer_id = btrim($1)
	`, identifier)
	return scanAccount(row)
}

// ListCustomers retrieves the CLIENT directory, newest first.
func (r *PostgresRepository) ListCustomers(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+accountColumns+`
		FROM banking.accounts
		WHERE role = 'CLIENT'
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		err := rows.Scan(
			&a.ID, &a.CustomerID, &a.AccountNumber, &a.FullName, &a.Email,
			&a.PasswordHash, &a.BalanceCents, &a.Status, &a.Role, &a.CreatedAt,
		)
		if err != nil {
			return nil, classifyStoreErr(err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// ExecuteTransfer moves amountCents from sender to receiver and appends the
// COMPLETED record, all in one database transaction. The sender row is locked
// with FOR UPDATE so a concurrent transfer from the same sender cannot read a
// stale balance and overdraw; the receiver side is a plain atomic increment
// because credits cannot violate the non-negative invariant.
func (r *PostgresRepository) ExecuteTransfer(ctx context.Context, senderID, receiverID uuid.UUID, amountCents int64, reference string) (*domain.TransactionRecord, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx, `SELECT balance_cents FROM banking.accounts WHERE id = $1 FOR UPDATE`, senderID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, classifyStoreErr(err)
	}

	if balance < amountCents {
		return nil, ErrInsufficientFunds
	}

	if _, err = tx.Exec(ctx, `UPDATE banking.accounts SET balance_cents = balance_cents - $1 WHERE id = $2`, amountCents, senderID); err != nil {
		return nil, classifyStoreErr(err)
	}
	tag, err := tx.Exec(ctx, `UPDATE banking.accounts SET balance_cents = balance_cents + $1 WHERE id = $2`, amountCents, receiverID)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrReceiverNotFound
	}

	record := &domain.TransactionRecord{
		ID:          uuid.New(),
		SenderID:    &senderID,
		ReceiverID:  &receiverID,
		AmountCents: amountCents,
		Kind:        domain.KindTransfer,
		Status:      domain.TxCompleted,
		Reference:   reference,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO banking.transactions (id, sender_id, receiver_id, amount_cents, kind, status, reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, record.ID, record.SenderID, record.ReceiverID, record.AmountCents, record.Kind, record.Status, record.Reference).Scan(&record.CreatedAt)
	if err != nil {
		return nil, classifyStoreErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, classifyStoreErr(err)
	}
	return record, nil
}

// ExecuteDeposit credits the target account and appends the COMPLETED DEPOSIT
// record in one atomic unit. The credit is a single increment; deposits never
// need the read-then-check lock a debit does.
func (r *PostgresRepository) ExecuteDeposit(ctx context.Context, accountID uuid.UUID, amountCents int64, reference string) (*domain.TransactionRecord, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE banking.accounts SET balance_cents = balance_cents + $1 WHERE id = $2`, amountCents, accountID)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAccountNotFound
	}

	record := &domain.TransactionRecord{
		ID:          uuid.New(),
		ReceiverID:  &accountID,
		AmountCents: amountCents,
		Kind:        domain.KindDeposit,
		Status:      domain.TxCompleted,
		Reference:   reference,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO banking.transactions (id, receiver_id, amount_cents, kind, status, reference)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, record.ID, record.ReceiverID, record.AmountCents, record.Kind, record.Status, record.Reference).Scan(&record.CreatedAt)
	if err != nil {
		return nil, classifyStoreErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, classifyStoreErr(err)
	}
	return record, nil
}

// ListTransactionsByAccount returns the account's history, newest first, with
// counterparty display names joined in.
func (r *PostgresRepository) ListTransactionsByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.TransactionView, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := r.db.Query(ctx, `
		SELECT
			t.id, t.sender_id, t.receiver_id,
			COALESCE(s.full_name, '') AS sender_name,
			COALESCE(rc.full_name, '') AS receiver_name,
			t.amount_cents, t.kind, t.status, t.reference, t.created_at
		FROM banking.transactions t
		LEFT JOIN banking.accounts s ON t.sender_id = s.id
		LEFT JOIN banking.accounts rc ON t.receiver_id = rc.id
		WHERE t.sender_id = $1 OR t.receiver_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	defer rows.Close()

	var views []domain.TransactionView
	for rows.Next() {
		var v domain.TransactionView
		var amountCents int64
		err := rows.Scan(
			&v.ID, &v.SenderID, &v.ReceiverID, &v.SenderName, &v.ReceiverName,
			&amountCents, &v.Kind, &v.Status, &v.Reference, &v.CreatedAt,
		)
		if err != nil {
			return nil, classifyStoreErr(err)
		}
		v.Amount = domain.FormatAmount(amountCents)
		views = append(views, v)
	}
	return views, rows.Err()
}

// CreateSession persists the issuance record for a freshly signed credential.
func (r *PostgresRepository) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO banking.sessions (id, account_id, token_digest, issued_at, expires_at, revoked)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, session.ID, session.AccountID, session.TokenDigest, session.IssuedAt, session.ExpiresAt, session.Revoked)
	if err != nil {
		return classifyStoreErr(err)
	}
	return nil
}

func (r *PostgresRepository) FindSessionByDigest(ctx context.Context, digest string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.QueryRow(ctx, `
		SELECT id, account_id, token_digest, issued_at, expires_at, revoked
		FROM banking.sessions
		WHERE token_digest = $1
	`, digest).Scan(&s.ID, &s.AccountID, &s.TokenDigest, &s.IssuedAt, &s.ExpiresAt, &s.Revoked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, classifyStoreErr(err)
	}
	return &s, nil
}

// RevokeSessionByDigest flips the revoked flag. Idempotent: revoking an
// already-revoked or unknown session succeeds from the caller's perspective.
func (r *PostgresRepository) RevokeSessionByDigest(ctx context.Context, digest string) error {
	_, err := r.db.Exec(ctx, `UPDATE banking.sessions SET revoked = true WHERE token_digest = $1`, digest)
	if err != nil {
		return classifyStoreErr(err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// classifyStoreErr wraps infrastructure failures as ErrTransientStore so the
// layers above can tell a retryable fault from a business rejection. Lock
// waits bounded by the caller's context deadline land here too.
func classifyStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errors.Join(ErrTransientStore, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03", "40001", "40P01", "57014": // lock timeout, serialization, deadlock, cancel
			return errors.Join(ErrTransientStore, err)
		}
		if strings.HasPrefix(pgErr.Code, "08") { // connection exceptions
			return errors.Join(ErrTransientStore, err)
		}
	}
	return err
}
