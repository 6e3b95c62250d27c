/**
 * @description
 * HTTP handlers for the customer-facing endpoints: login, logout, profile,
 * balance, transfer and history. Handlers parse requests, call the
 * application services, and map each named failure condition to its distinct
 * client-visible status.
 *
 * @dependencies
 * - encoding/json, errors, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: Service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"

	"github.com/corebank/banking-service/internal/app"
	"github.com/corebank/banking-service/internal/domain"
	"github.com/corebank/banking-service/internal/store"
)

// Handlers holds the application services the endpoints dispatch to.
type Handlers struct {
	ledger    *app.Ledger
	directory *app.Directory
}

// NewHandlers creates the handler set.
func NewHandlers(ledger *app.Ledger, directory *app.Directory) *Handlers {
	return &Handlers{ledger: ledger, directory: directory}
}

// LoginHandler authenticates an email/password pair and returns a bearer
// credential.
func (h *Handlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	resp, err := h.directory.Login(r.Context(), req.Email, req.Password, loginClientKey(r, req.Email))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// LogoutHandler revokes the session the request arrived on.
func (h *Handlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	credential, ok := GetCredential(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authorization required")
		return
	}
	if err := h.directory.Logout(r.Context(), credential); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// ProfileHandler returns the authenticated account's profile.
func (h *Handlers) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	identity, _ := GetIdentity(r.Context())
	profile, err := h.directory.Profile(r.Context(), identity.AccountID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// BalanceHandler returns just the balance of the authenticated account.
func (h *Handlers) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	identity, _ := GetIdentity(r.Context())
	profile, err := h.directory.Profile(r.Context(), identity.AccountID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"balance": profile.Balance})
}

// TransferHandler moves funds from the authenticated account to the receiver
// named in the request.
func (h *Handlers) TransferHandler(w http.ResponseWriter, r *http.Request) {
	identity, _ := GetIdentity(r.Context())

	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ReceiverIdentifier == "" {
		writeError(w, http.StatusBadRequest, "Receiver identifier is required")
		return
	}
	amountCents, err := domain.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transfer details")
		return
	}

	record, err := h.ledger.Transfer(r.Context(), identity.AccountID, req.ReceiverIdentifier, amountCents, req.Reference)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionResponse(record, "Transfer successful"))
}

// HistoryHandler returns the authenticated account's transaction history.
func (h *Handlers) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	identity, _ := GetIdentity(r.Context())

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	history, err := h.ledger.History(r.Context(), identity.AccountID, limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if history == nil {
		history = []domain.TransactionView{}
	}
	writeJSON(w, http.StatusOK, history)
}

// txResponse is the wire shape for a committed ledger operation.
type txResponse struct {
	TransactionID string `json:"transaction_id"`
	Kind          string `json:"kind"`
	Status        string `json:"status"`
	Amount        string `json:"amount"`
	Reference     string `json:"reference"`
	Message       string `json:"message"`
}

func transactionResponse(record *domain.TransactionRecord, message string) txResponse {
	return txResponse{
		TransactionID: record.ID.String(),
		Kind:          record.Kind,
		Status:        record.Status,
		Amount:        domain.FormatAmount(record.AmountCents),
		Reference:     record.Reference,
		Message:       message,
	}
}

// writeServiceError maps service errors onto the HTTP status taxonomy:
// validation and business rejections 400, not-found 404, auth 401/403,
// duplicates 409, throttling 429, retryable infrastructure 503.
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, app.ErrMissingFields):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrSelfTransfer):
		writeError(w, http.StatusBadRequest, "Cannot transfer to yourself")
	case errors.Is(err, store.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, "Insufficient funds")
	case errors.Is(err, store.ErrReceiverNotFound):
		writeError(w, http.StatusNotFound, "Receiver not found")
	case errors.Is(err, store.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "Account not found")
	case errors.Is(err, store.ErrDuplicateIdentity):
		writeError(w, http.StatusConflict, "Email or customer id already exists")
	case errors.Is(err, app.ErrInvalidLogin):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, app.ErrAccountInactive):
		writeError(w, http.StatusForbidden, "Account is not active")
	case errors.Is(err, app.ErrTooManyAttempts):
		writeError(w, http.StatusTooManyRequests, "Too many login attempts")
	case errors.Is(err, store.ErrTransientStore):
		writeError(w, http.StatusServiceUnavailable, "Temporary failure, please retry")
	default:
		log.Printf("level=error component=api msg=\"unexpected service error\" err=%v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// loginClientKey scopes the login rate limit to email plus remote address.
func loginClientKey(r *http.Request, email string) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return email + "@" + host
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
