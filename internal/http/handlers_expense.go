package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"spendwise/internal/core"
	applog "spendwise/internal/log"
)

type expenseList struct {
	Expenses []core.Expense `json:"expenses"`
	Count    int            `json:"count"`
	Total    core.Money     `json:"total"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}

	expenses := s.svc.List(filter)
	var total core.Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	count := len(expenses)
	if limit > 0 && len(expenses) > limit {
		expenses = expenses[:limit]
	}

	NewJSONResponse().JSON(expenseList{Expenses: expenses, Count: count, Total: total}).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.svc.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().JSON(e).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	in, err := parseExpenseRequest(r, s.maxUpload, core.DateOf(s.now()))
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}

	e, err := s.svc.Add(r.Context(), in)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogExpense(r.Context(), applog.OpCreate, e)
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+e.ID).
		JSON(e).
		Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := s.svc.Get(id); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}

	in, err := parseExpenseRequest(r, s.maxUpload, core.DateOf(s.now()))
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}

	e, err := s.svc.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogExpense(r.Context(), applog.OpUpdate, e)
	NewJSONResponse().JSON(e).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	e, err := s.svc.Get(id)
	if err == nil {
		err = s.svc.Delete(r.Context(), id)
	}
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogExpense(r.Context(), applog.OpDelete, e)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
