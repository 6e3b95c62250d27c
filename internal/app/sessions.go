/**
 * @description
 * The Session Authority issues signed, time-bounded bearer credentials and
 * enforces a server-side revocation state on top of them. A credential alone
 * is never trusted: every validation re-checks the persisted session row, so
 * logout and administrative freezes take effect immediately rather than at
 * cryptographic expiry.
 *
 * Validation applies four checks in strict sequence and short-circuits on the
 * first failure: signature/claims, issuance record, revocation flag,
 * persisted expiry.
 *
 * @dependencies
 * - context, crypto/sha256, encoding/hex, errors, time: Standard Go libraries.
 * - github.com/golang-jwt/jwt/v5: Credential signing and parsing.
 * - github.com/google/uuid: Session and account identifiers.
 * - internal/domain, internal/store: Domain models and data access.
 */

package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/corebank/banking-service/internal/domain"
	"github.com/corebank/banking-service/internal/store"
)

var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrSessionRevoked    = errors.New("session revoked")
	ErrSessionExpired    = errors.New("session expired")
)

// sessionClaims binds the account identity and role into the signed token.
type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SessionAuthority issues, validates and revokes session credentials.
type SessionAuthority struct {
	repo   store.Repository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionAuthority creates a session authority with the given signing
// secret and validity window.
func NewSessionAuthority(repo store.Repository, secret []byte, ttl time.Duration) *SessionAuthority {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionAuthority{
		repo:   repo,
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a credential for the account and persists the matching session
// row. Only the token's digest is stored, never the raw credential.
func (a *SessionAuthority) Issue(ctx context.Context, account *domain.Account) (string, *domain.Session, error) {
	issuedAt := a.now().UTC()
	expiresAt := issuedAt.Add(a.ttl)
	sessionID := uuid.New()

	// The session id doubles as the jti claim. Without it, two issuances for
	// the same account in the same second would serialize to identical tokens
	// and collide on the digest's unique constraint.
	claims := sessionClaims{
		Role: account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID.String(),
			Subject:   account.ID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	credential, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign credential: %w", err)
	}

	session := &domain.Session{
		ID:          sessionID,
		AccountID:   account.ID,
		TokenDigest: digestOf(credential),
		IssuedAt:    issuedAt,
		ExpiresAt:   expiresAt,
		Revoked:     false,
	}
	if err := a.repo.CreateSession(ctx, session); err != nil {
		return "", nil, fmt.Errorf("failed to persist session: %w", err)
	}
	return credential, session, nil
}

// Validate resolves a presented credential to an identity or rejects it.
func (a *SessionAuthority) Validate(ctx context.Context, credential string) (domain.Identity, error) {
	// Step 1: signature and claim shape. Intrinsic expiry is deliberately not
	// checked here; the persisted expires_at in step 4 is authoritative so a
	// shortened server-side window takes effect without waiting for the
	// token's own exp.
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(credential, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return domain.Identity{}, ErrInvalidCredential
	}
	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Identity{}, ErrInvalidCredential
	}

	// Step 2: a credential must have a matching issuance record. A valid
	// signature on a never-issued token is rejected, not trusted.
	session, err := a.repo.FindSessionByDigest(ctx, digestOf(credential))
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return domain.Identity{}, store.ErrSessionNotFound
		}
		return domain.Identity{}, err
	}

	// Step 3: revocation.
	if session.Revoked {
		return domain.Identity{}, ErrSessionRevoked
	}

	// Step 4: persisted expiry.
	if !a.now().UTC().Before(session.ExpiresAt) {
		return domain.Identity{}, ErrSessionExpired
	}

	return domain.Identity{AccountID: accountID, Role: claims.Role}, nil
}

// Revoke marks the credential's session as revoked. Idempotent: revoking an
// already-revoked or never-issued credential is not an error.
func (a *SessionAuthority) Revoke(ctx context.Context, credential string) error {
	return a.repo.RevokeSessionByDigest(ctx, digestOf(credential))
}

// digestOf is the collision-resistant lookup key for a credential. Digests
// must be deterministic, which is why this is not bcrypt.
func digestOf(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}
