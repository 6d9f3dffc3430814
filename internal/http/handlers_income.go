package http

import (
	"net/http"
	"time"

	"bilancio/internal/core"
)

type incomeRequest struct {
	Amount    core.Money `json:"amount"`
	Frequency string     `json:"frequency"`
	StartDate *time.Time `json:"startDate"`
}

func (s *Server) handleActivateIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := decodeJSON(r, &req); err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	freq, err := core.ParseFrequency(req.Frequency)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	income := core.Income{
		Amount:    req.Amount,
		Frequency: freq,
	}
	if req.StartDate != nil {
		income.StartDate = *req.StartDate
	}

	saved, err := s.ledger.ActivateIncome(r.Context(), income)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	incomes, err := s.ledger.ListIncomes(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if incomes == nil {
		incomes = []core.Income{}
	}
	writeJSON(w, http.StatusOK, incomes)
}

func (s *Server) handleActiveIncome(w http.ResponseWriter, r *http.Request) {
	income, err := s.ledger.ActiveIncome(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	// A null body, not a 404: having no active income is a normal state.
	writeJSON(w, http.StatusOK, income)
}
