/**
 * @description
 * This file defines the account domain model and the request/response DTOs
 * that surround it. An account is the single balance-holding entity in the
 * system; customers (CLIENT) and bank staff (STAFF) share the same table and
 * differ only by role.
 *
 * @notes
 * - Balances are carried as `int64` in the smallest currency unit (cents),
 *   which avoids floating-point inaccuracies with financial data. The string
 *   forms used on the wire are produced by money.go.
 * - The balance column is owned exclusively by the ledger engine; nothing
 *   else in the codebase writes it.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account status values.
const (
	AccountActive  = "ACTIVE"
	AccountBlocked = "BLOCKED"
)

// Account roles.
const (
	RoleClient = "CLIENT"
	RoleStaff  = "STAFF"
)

// Account represents one row of the `accounts` table.
type Account struct {
	ID            uuid.UUID `json:"id"`
	CustomerID    string    `json:"customer_id"`
	AccountNumber string    `json:"account_number"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	BalanceCents  int64     `json:"-"`
	Status        string    `json:"status"`
	Role          string    `json:"role"`
	CreatedAt     time.Time `json:"created_at"`
}

// Identity is the decoded result of a validated session credential. It is
// what the transport layer attaches to the request context.
type Identity struct {
	AccountID uuid.UUID
	Role      string
}

// IsStaff reports whether the identity carries the staff capability.
func (i Identity) IsStaff() bool {
	return i.Role == RoleStaff
}

// OnboardCustomerRequest is the DTO for the staff onboarding endpoint.
type OnboardCustomerRequest struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	InitialDeposit string `json:"initial_deposit,omitempty"`
}

// OnboardCustomerResponse returns the generated identifiers together with the
// one-time starter password the customer must rotate.
type OnboardCustomerResponse struct {
	Account         *Account `json:"account"`
	StarterPassword string   `json:"starter_password"`
}

// LoginRequest is the DTO for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer credential and the public profile fields.
type LoginResponse struct {
	Token string   `json:"token"`
	User  *Profile `json:"user"`
}

// Profile is the externally visible projection of an account.
type Profile struct {
	ID            uuid.UUID `json:"id"`
	CustomerID    string    `json:"customer_id"`
	AccountNumber string    `json:"account_number"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	Status        string    `json:"status"`
	Balance       string    `json:"balance"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProfileOf builds the external projection of an account.
func ProfileOf(a *Account) *Profile {
	return &Profile{
		ID:            a.ID,
		CustomerID:    a.CustomerID,
		AccountNumber: a.AccountNumber,
		FullName:      a.FullName,
		Email:         a.Email,
		Role:          a.Role,
		Status:        a.Status,
		Balance:       FormatAmount(a.BalanceCents),
		CreatedAt:     a.CreatedAt,
	}
}
