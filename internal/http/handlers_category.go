package http

import (
	"net/http"

	"bilancio/internal/core"
)

type categoryRequest struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
	Icon       string  `json:"icon"`
	Order      int     `json:"order"`
}

type categoryPatchRequest struct {
	Name       *string  `json:"name"`
	Percentage *float64 `json:"percentage"`
	Color      *string  `json:"color"`
	Icon       *string  `json:"icon"`
	Order      *int     `json:"order"`
	IsActive   *bool    `json:"isActive"`
}

func (p categoryPatchRequest) toPatch() core.CategoryPatch {
	return core.CategoryPatch{
		Name:       p.Name,
		Percentage: p.Percentage,
		Color:      p.Color,
		Icon:       p.Icon,
		SortOrder:  p.Order,
		IsActive:   p.IsActive,
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.ledger.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if categories == nil {
		categories = []core.BudgetCategory{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := s.ledger.CreateCategory(r.Context(), core.BudgetCategory{
		Name:       req.Name,
		Percentage: req.Percentage,
		Color:      req.Color,
		Icon:       req.Icon,
		SortOrder:  req.Order,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var req categoryPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.ledger.UpdateCategory(r.Context(), id, req.toPatch())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err := s.ledger.DeleteCategory(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
