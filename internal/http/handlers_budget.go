package http

import (
	"net/http"

	"github.com/darshanradadiya/ekharcha/internal/core"
)

type budgetRequest struct {
	Category string     `json:"category"`
	Budgeted core.Money `json:"budgeted"`
	Spent    core.Money `json:"spent"`
}

type spentRequest struct {
	Category string     `json:"category"`
	Amount   core.Money `json:"amount"`
}

// handleCreateBudget upserts: a second create for the same category updates
// the budgeted amount instead of growing a duplicate row.
func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	b := core.Budget{
		UserID:   owner(r),
		Category: req.Category,
		Budgeted: req.Budgeted,
		Spent:    req.Spent,
	}
	if err := b.Validate(); err != nil {
		respondError(w, r, err, "Budget not found")
		return
	}

	created, err := s.store.UpsertBudget(r.Context(), b)
	if err != nil {
		respondError(w, r, err, "Budget not found")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.store.ListBudgets(r.Context(), owner(r))
	if err != nil {
		respondError(w, r, err, "Budgets not found")
		return
	}
	if budgets == nil {
		budgets = []core.Budget{}
	}
	respondJSON(w, http.StatusOK, budgets)
}

// handleAddSpent increments spent on the caller's budget for a category.
func (s *Server) handleAddSpent(w http.ResponseWriter, r *http.Request) {
	var req spentRequest
	if err := decodeBody(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Category == "" {
		respondMessage(w, http.StatusBadRequest, "category is required")
		return
	}
	if req.Amount.Cents <= 0 {
		respondMessage(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	b, err := s.store.AddSpent(r.Context(), owner(r), req.Category, req.Amount.Cents)
	if err != nil {
		respondError(w, r, err, "Budget not found for this category")
		return
	}
	respondJSON(w, http.StatusOK, b)
}

// handleEditSpent sets the spent total on a budget outright.
func (s *Server) handleEditSpent(w http.ResponseWriter, r *http.Request) {
	b, err := s.ownedBudget(r)
	if err != nil {
		respondError(w, r, err, "Budget not found")
		return
	}

	var req spentRequest
	if err := decodeBody(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Amount.Cents < 0 {
		respondMessage(w, http.StatusBadRequest, "spent amount cannot be negative")
		return
	}

	if err := s.store.SetSpent(r.Context(), b.ID, req.Amount.Cents); err != nil {
		respondError(w, r, err, "Budget not found")
		return
	}
	b.Spent = req.Amount
	respondJSON(w, http.StatusOK, b)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.ownedBudget(r)
	if err != nil {
		respondError(w, r, err, "Budget not found")
		return
	}
	respondJSON(w, http.StatusOK, b)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.ownedBudget(r)
	if err != nil {
		respondError(w, r, err, "Budget not found")
		return
	}

	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	b.Category = req.Category
	b.Budgeted = req.Budgeted
	b.Spent = req.Spent
	if err := b.Validate(); err != nil {
		respondError(w, r, err, "Budget not found")
		return
	}

	if err := s.store.UpdateBudget(r.Context(), b); err != nil {
		respondError(w, r, err, "Budget not found")
		return
	}
	respondJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.ownedBudget(r)
	if err != nil {
		respondError(w, r, err, "Budget not found")
		return
	}

	if err := s.store.DeleteBudget(r.Context(), b.ID); err != nil {
		respondError(w, r, err, "Budget not found")
		return
	}
	respondMessage(w, http.StatusOK, "Budget deleted successfully")
}

// ownedBudget loads the budget from the path id and enforces ownership.
// Unlike accounts, a foreign budget answers 403; budget ids are guessable
// small integers and hiding them gains nothing.
func (s *Server) ownedBudget(r *http.Request) (core.Budget, error) {
	id, err := pathID(r)
	if err != nil {
		return core.Budget{}, core.Invalid("invalid budget id")
	}

	b, err := s.store.GetBudget(r.Context(), id)
	if err != nil {
		return core.Budget{}, err
	}
	if b.UserID != owner(r) {
		return core.Budget{}, core.ErrForbidden
	}
	return b, nil
}
