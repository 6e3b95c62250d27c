package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is the server-side issuance record for a bearer credential. The raw
// token is never persisted; TokenDigest holds its SHA-256 digest and is the
// lookup key on every validation. Revoked moves false->true exactly once and
// rows are kept for audit, never deleted.
type Session struct {
	ID          uuid.UUID `json:"id"`
	AccountID   uuid.UUID `json:"account_id"`
	TokenDigest string    `json:"-"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Revoked     bool      `json:"revoked"`
}
