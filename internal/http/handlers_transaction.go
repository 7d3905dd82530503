package http

import (
	"net/http"

	"github.com/darshanradadiya/ekharcha/internal/core"
	"github.com/darshanradadiya/ekharcha/internal/ledger"
)

type transactionRequest struct {
	Description string               `json:"description"`
	Amount      core.Money           `json:"amount"`
	Date        string               `json:"date"`
	Type        core.TransactionType `json:"type"`
	AccountID   int64                `json:"accountId"`
	Category    string               `json:"category"`
}

func (req transactionRequest) toInput() (ledger.RecordInput, error) {
	in := ledger.RecordInput{
		Description: req.Description,
		Amount:      req.Amount,
		Type:        req.Type,
		AccountID:   req.AccountID,
		Category:    req.Category,
	}
	if req.Date == "" {
		return in, core.Invalid("date is required")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return in, core.Invalid("date must be an ISO 8601 timestamp or YYYY-MM-DD")
	}
	in.Date = date
	return in, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	in, err := req.toInput()
	if err != nil {
		respondError(w, r, err, "Transaction not found")
		return
	}

	tx, err := s.writer.Record(r.Context(), owner(r), in)
	if err != nil {
		respondError(w, r, err, "Account not found")
		return
	}
	respondJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.ListTransactions(r.Context(), owner(r))
	if err != nil {
		respondError(w, r, err, "Transactions not found")
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	respondJSON(w, http.StatusOK, txs)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	tx, err := s.store.GetTransaction(r.Context(), id)
	if err == nil && tx.UserID != owner(r) {
		err = core.ErrNotFound
	}
	if err != nil {
		respondError(w, r, err, "Transaction not found")
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	in, err := req.toInput()
	if err != nil {
		respondError(w, r, err, "Transaction not found")
		return
	}

	tx, err := s.writer.Edit(r.Context(), owner(r), id, in)
	if err != nil {
		respondError(w, r, err, "Transaction not found")
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	if err := s.writer.Delete(r.Context(), owner(r), id); err != nil {
		respondError(w, r, err, "Transaction not found")
		return
	}
	respondMessage(w, http.StatusOK, "Transaction deleted successfully")
}
