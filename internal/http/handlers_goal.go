package http

import (
	"net/http"
	"time"

	"bilancio/internal/core"
)

type goalRequest struct {
	Name         string     `json:"name"`
	TargetAmount core.Money `json:"targetAmount"`
	Description  string     `json:"description"`
	TargetDate   *time.Time `json:"targetDate"`
	Color        string     `json:"color"`
	Icon         string     `json:"icon"`
	Order        int        `json:"order"`
}

type goalPatchRequest struct {
	Name          *string      `json:"name"`
	TargetAmount  *core.Money  `json:"targetAmount"`
	CurrentAmount *core.Money  `json:"currentAmount"`
	Description   *string      `json:"description"`
	TargetDate    optionalTime `json:"targetDate"`
	Color         *string      `json:"color"`
	Icon          *string      `json:"icon"`
	Order         *int         `json:"order"`
	IsCompleted   *bool        `json:"isCompleted"`
	IsActive      *bool        `json:"isActive"`
}

func (p goalPatchRequest) toPatch() core.GoalPatch {
	return core.GoalPatch{
		Name:            p.Name,
		TargetAmount:    p.TargetAmount,
		CurrentAmount:   p.CurrentAmount,
		Description:     p.Description,
		TargetDate:      p.TargetDate.value,
		ClearTargetDate: p.TargetDate.set && p.TargetDate.value == nil,
		Color:           p.Color,
		Icon:            p.Icon,
		SortOrder:       p.Order,
		IsCompleted:     p.IsCompleted,
		IsActive:        p.IsActive,
	}
}

type contributionRequest struct {
	Amount core.Money `json:"amount"`
	Date   *time.Time `json:"date"`
	Note   string     `json:"note"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.ledger.ListGoals(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if goals == nil {
		goals = []core.SavingsGoal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	goal := core.SavingsGoal{
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		Description:  req.Description,
		TargetDate:   req.TargetDate,
		Color:        req.Color,
		Icon:         req.Icon,
		SortOrder:    req.Order,
	}

	saved, err := s.ledger.CreateGoal(r.Context(), goal)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	goal, err := s.ledger.GetGoal(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var req goalPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.ledger.UpdateGoal(r.Context(), id, req.toPatch())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err := s.ledger.DeleteGoal(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddContribution(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var req contributionRequest
	if err := decodeJSON(r, &req); err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := core.SavingsContribution{
		Amount: req.Amount,
		Note:   req.Note,
	}
	if req.Date != nil {
		c.Date = *req.Date
	}

	saved, err := s.ledger.AddContribution(r.Context(), id, c)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}
