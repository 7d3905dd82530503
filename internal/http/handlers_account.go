package http

import (
	"net/http"

	"github.com/darshanradadiya/ekharcha/internal/core"
)

type accountRequest struct {
	Name          string           `json:"name"`
	Kind          core.AccountKind `json:"type"`
	Balance       core.Money       `json:"balance"`
	Institution   string           `json:"institution"`
	AccountNumber string           `json:"accountNumber"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeBody(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	acc := core.Account{
		UserID:        owner(r),
		Name:          req.Name,
		Kind:          req.Kind,
		Balance:       req.Balance,
		Institution:   req.Institution,
		AccountNumber: req.AccountNumber,
	}
	if err := acc.Validate(); err != nil {
		respondError(w, r, err, "Account not found")
		return
	}

	exists, err := s.store.AccountNumberExists(r.Context(), acc.UserID, acc.AccountNumber)
	if err != nil {
		respondError(w, r, err, "Account not found")
		return
	}
	if exists {
		respondMessage(w, http.StatusBadRequest, "Account with this account number already exists")
		return
	}

	created, err := s.store.CreateAccount(r.Context(), acc)
	if err != nil {
		respondError(w, r, err, "Account not found")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context(), owner(r))
	if err != nil {
		respondError(w, r, err, "Accounts not found")
		return
	}
	if accounts == nil {
		accounts = []core.Account{}
	}
	respondJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleSearchAccounts(w http.ResponseWriter, r *http.Request) {
	kind := core.AccountKind(r.URL.Query().Get("type"))
	if !kind.Valid() {
		respondMessage(w, http.StatusBadRequest, "Invalid account type")
		return
	}

	accounts, err := s.store.ListAccountsByKind(r.Context(), owner(r), kind)
	if err != nil {
		respondError(w, r, err, "Accounts not found")
		return
	}
	if accounts == nil {
		accounts = []core.Account{}
	}
	respondJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	acc, err := s.ownedAccount(r)
	if err != nil {
		respondError(w, r, err, "Account not found")
		return
	}
	respondJSON(w, http.StatusOK, acc)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	acc, err := s.ownedAccount(r)
	if err != nil {
		respondError(w, r, err, "Account not found")
		return
	}

	var req accountRequest
	if err := decodeBody(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	acc.Name = req.Name
	acc.Kind = req.Kind
	acc.Balance = req.Balance
	acc.Institution = req.Institution
	acc.AccountNumber = req.AccountNumber
	if err := acc.Validate(); err != nil {
		respondError(w, r, err, "Account not found")
		return
	}

	if err := s.store.UpdateAccount(r.Context(), acc); err != nil {
		respondError(w, r, err, "Account not found")
		return
	}
	respondJSON(w, http.StatusOK, acc)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	acc, err := s.store.GetAccount(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "Account not found")
		return
	}

	// Rows without an owner are legacy imports; anyone may clean them up.
	if acc.UserID != 0 && acc.UserID != owner(r) {
		respondError(w, r, core.ErrForbidden, "Account not found")
		return
	}

	if err := s.store.DeleteAccount(r.Context(), id); err != nil {
		respondError(w, r, err, "Account not found")
		return
	}
	respondMessage(w, http.StatusOK, "Account deleted successfully")
}

// ownedAccount loads the account from the path id and enforces ownership.
// A foreign account answers 403, unlike transactions where it looks absent.
func (s *Server) ownedAccount(r *http.Request) (core.Account, error) {
	id, err := pathID(r)
	if err != nil {
		return core.Account{}, core.Invalid("invalid account id")
	}

	acc, err := s.store.GetAccount(r.Context(), id)
	if err != nil {
		return core.Account{}, err
	}
	if acc.UserID != owner(r) {
		return core.Account{}, core.ErrForbidden
	}
	return acc, nil
}
