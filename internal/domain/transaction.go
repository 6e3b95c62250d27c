/**
 * @description
 * This file defines the immutable transaction record that the ledger engine
 * appends for every successful balance mutation, plus the DTOs used by the
 * transfer and history endpoints.
 *
 * @notes
 * - A record is written exactly once, inside the same database transaction as
 *   the balance change it describes, and is never updated afterwards.
 * - DEPOSIT records have only a receiver; TRANSFER records have both sides
 *   and the two must differ.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Transaction kinds.
const (
	KindTransfer = "TRANSFER"
	KindDeposit  = "DEPOSIT"
)

// Transaction statuses. Records are inserted in their terminal status; no
// reader of this design observes an in-flight row.
const (
	TxCompleted = "COMPLETED"
	TxFailed    = "FAILED"
)

// TransactionRecord maps directly to the append-only `transactions` table.
type TransactionRecord struct {
	ID          uuid.UUID  `json:"id"`
	SenderID    *uuid.UUID `json:"sender_id,omitempty"`
	ReceiverID  *uuid.UUID `json:"receiver_id,omitempty"`
	AmountCents int64      `json:"-"`
	Kind        string     `json:"kind"`
	Status      string     `json:"status"`
	Reference   string     `json:"reference"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TransferRequest is the DTO for the customer transfer endpoint. The receiver
// identifier is an email address or a customer id; the amount is a decimal
// string such as "40.00".
type TransferRequest struct {
	ReceiverIdentifier string `json:"receiver_identifier"`
	Amount             string `json:"amount"`
	Reference          string `json:"reference"`
}

// DepositRequest is the DTO for the staff fund-injection endpoint.
type DepositRequest struct {
	AccountNumber string `json:"account_number"`
	Amount        string `json:"amount"`
	Reference     string `json:"reference"`
}

// TransactionView is the history projection of a record: amounts rendered as
// decimal strings and counterparty display names joined in.
type TransactionView struct {
	ID           uuid.UUID  `json:"id"`
	SenderID     *uuid.UUID `json:"sender_id,omitempty"`
	ReceiverID   *uuid.UUID `json:"receiver_id,omitempty"`
	SenderName   string     `json:"sender_name,omitempty"`
	ReceiverName string     `json:"receiver_name,omitempty"`
	Amount       string     `json:"amount"`
	Kind         string     `json:"kind"`
	Status       string     `json:"status"`
	Reference    string     `json:"reference"`
	CreatedAt    time.Time  `json:"created_at"`
}
