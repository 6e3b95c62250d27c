package api

import (
	"encoding/json"
	"net/http"

	"github.com/corebank/banking-service/internal/domain"
)

// CreateCustomerHandler onboards a new customer. Staff only.
func (h *Handlers) CreateCustomerHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.OnboardCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FullName == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Full name and email are required")
		return
	}

	var initialDepositCents int64
	if req.InitialDeposit != "" {
		cents, err := domain.ParseAmount(req.InitialDeposit)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid initial deposit")
			return
		}
		initialDepositCents = cents
	}

	resp, err := h.directory.OnboardCustomer(r.Context(), req.FullName, req.Email, initialDepositCents)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":          "Customer created successfully",
		"user":             domain.ProfileOf(resp.Account),
		"starter_password": resp.StarterPassword,
	})
}

// DepositHandler injects funds into a customer account. Staff only.
func (h *Handlers) DepositHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.AccountNumber == "" {
		writeError(w, http.StatusBadRequest, "Account number is required")
		return
	}
	amountCents, err := domain.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid deposit details")
		return
	}

	record, err := h.ledger.Deposit(r.Context(), req.AccountNumber, amountCents, req.Reference)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionResponse(record, "Funds deposited successfully"))
}

// ListCustomersHandler returns the CLIENT directory. Staff only.
func (h *Handlers) ListCustomersHandler(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.directory.ListCustomers(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	profiles := make([]*domain.Profile, 0, len(accounts))
	for i := range accounts {
		profiles = append(profiles, domain.ProfileOf(&accounts[i]))
	}
	writeJSON(w, http.StatusOK, profiles)
}
