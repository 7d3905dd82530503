package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/darshanradadiya/ekharcha/internal/core"
)

// Categories are a global catalog; no ownership checks here.

type categoryRequest struct {
	Label     string                 `json:"label"`
	Direction core.CategoryDirection `json:"type"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	c := core.Category{Label: req.Label, Direction: req.Direction}
	if err := c.Validate(); err != nil {
		respondError(w, r, err, "Category not found")
		return
	}

	created, err := s.store.CreateCategory(r.Context(), c)
	if err != nil {
		respondError(w, r, err, "Category not found")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		respondError(w, r, err, "Categories not found")
		return
	}
	if categories == nil {
		categories = []core.Category{}
	}
	respondJSON(w, http.StatusOK, categories)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid category id")
		return
	}

	c, err := s.store.GetCategory(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "Category not found")
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleCategoryByLabel(w http.ResponseWriter, r *http.Request) {
	label := mux.Vars(r)["label"]

	c, err := s.store.GetCategoryByLabel(r.Context(), label)
	if err != nil {
		respondError(w, r, err, "Category not found")
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleCategoriesByType(w http.ResponseWriter, r *http.Request) {
	direction := core.CategoryDirection(mux.Vars(r)["type"])
	if !direction.Valid() {
		respondMessage(w, http.StatusBadRequest, "Invalid category type")
		return
	}

	categories, err := s.store.ListCategoriesByDirection(r.Context(), direction)
	if err != nil {
		respondError(w, r, err, "Categories not found")
		return
	}
	if categories == nil {
		categories = []core.Category{}
	}
	respondJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCategoriesByTypeAndLabel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	direction := core.CategoryDirection(vars["type"])
	if !direction.Valid() {
		respondMessage(w, http.StatusBadRequest, "Invalid category type")
		return
	}

	categories, err := s.store.ListCategoriesByDirectionAndLabel(r.Context(), direction, vars["label"])
	if err != nil {
		respondError(w, r, err, "Categories not found")
		return
	}
	if categories == nil {
		categories = []core.Category{}
	}
	respondJSON(w, http.StatusOK, categories)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid category id")
		return
	}

	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	c := core.Category{ID: id, Label: req.Label, Direction: req.Direction}
	if err := c.Validate(); err != nil {
		respondError(w, r, err, "Category not found")
		return
	}

	if err := s.store.UpdateCategory(r.Context(), c); err != nil {
		respondError(w, r, err, "Category not found")
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid category id")
		return
	}

	if err := s.store.DeleteCategory(r.Context(), id); err != nil {
		respondError(w, r, err, "Category not found")
		return
	}
	respondMessage(w, http.StatusOK, "Category deleted successfully")
}
