package http

import (
	"net/http"
	"time"

	"bilancio/internal/core"
)

type debtRequest struct {
	Name               string     `json:"name"`
	PrincipalAmount    core.Money `json:"principalAmount"`
	InterestRate       float64    `json:"interestRate"`
	RepaymentAmount    core.Money `json:"repaymentAmount"`
	RepaymentFrequency string     `json:"repaymentFrequency"`
	StartDate          *time.Time `json:"startDate"`
	DueDate            *time.Time `json:"dueDate"`
	Creditor           string     `json:"creditor"`
	Description        string     `json:"description"`
	Color              string     `json:"color"`
}

type debtPatchRequest struct {
	Name               *string      `json:"name"`
	PrincipalAmount    *core.Money  `json:"principalAmount"`
	CurrentBalance     *core.Money  `json:"currentBalance"`
	InterestRate       *float64     `json:"interestRate"`
	RepaymentAmount    *core.Money  `json:"repaymentAmount"`
	RepaymentFrequency *string      `json:"repaymentFrequency"`
	DueDate            optionalTime `json:"dueDate"`
	Creditor           *string      `json:"creditor"`
	Description        *string      `json:"description"`
	Color              *string      `json:"color"`
	IsPaid             *bool        `json:"isPaid"`
	IsActive           *bool        `json:"isActive"`
}

func (p debtPatchRequest) toPatch() (core.DebtPatch, error) {
	patch := core.DebtPatch{
		Name:            p.Name,
		PrincipalAmount: p.PrincipalAmount,
		CurrentBalance:  p.CurrentBalance,
		InterestRate:    p.InterestRate,
		RepaymentAmount: p.RepaymentAmount,
		DueDate:         p.DueDate.value,
		ClearDueDate:    p.DueDate.set && p.DueDate.value == nil,
		Creditor:        p.Creditor,
		Description:     p.Description,
		Color:           p.Color,
		IsPaid:          p.IsPaid,
		IsActive:        p.IsActive,
	}
	if p.RepaymentFrequency != nil {
		freq, err := core.ParseFrequency(*p.RepaymentFrequency)
		if err != nil {
			return core.DebtPatch{}, err
		}
		patch.RepaymentFrequency = &freq
	}
	return patch, nil
}

type repaymentRequest struct {
	Amount core.Money `json:"amount"`
	Date   *time.Time `json:"date"`
	Note   string     `json:"note"`
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := s.ledger.ListDebts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if debts == nil {
		debts = []core.Debt{}
	}
	writeJSON(w, http.StatusOK, debts)
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if err := decodeJSON(r, &req); err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	freq, err := core.ParseFrequency(req.RepaymentFrequency)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	debt := core.Debt{
		Name:               req.Name,
		PrincipalAmount:    req.PrincipalAmount,
		InterestRate:       req.InterestRate,
		RepaymentAmount:    req.RepaymentAmount,
		RepaymentFrequency: freq,
		DueDate:            req.DueDate,
		Creditor:           req.Creditor,
		Description:        req.Description,
		Color:              req.Color,
	}
	if req.StartDate != nil {
		debt.StartDate = *req.StartDate
	}

	saved, err := s.ledger.CreateDebt(r.Context(), debt)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleGetDebt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	debt, err := s.ledger.GetDebt(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, debt)
}

func (s *Server) handleUpdateDebt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var req debtPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := s.ledger.UpdateDebt(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err := s.ledger.DeleteDebt(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddRepayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var req repaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rp := core.DebtRepayment{
		Amount: req.Amount,
		Note:   req.Note,
	}
	if req.Date != nil {
		rp.Date = *req.Date
	}

	saved, err := s.ledger.AddRepayment(r.Context(), id, rp)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}
