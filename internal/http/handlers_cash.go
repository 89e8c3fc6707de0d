package http

import (
	"errors"
	"log/slog"
	"net/http"

	"porsi/internal/core"
	applog "porsi/internal/log"
	"porsi/internal/storage"
)

type cashListPage struct {
	Contract     core.Contract
	Ledger       core.CashLedger
	Transactions []core.CashTransaction
}

func (s *Server) handleCashList(w http.ResponseWriter, r *http.Request) {
	c, ok := s.activeContract(w, r)
	if !ok {
		return
	}

	entries, err := s.storage.ListEntries(r.Context(), c.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List entries failed", "error", err)
		http.Error(w, "gagal memuat data harian", http.StatusInternalServerError)
		return
	}
	txs, err := s.storage.ListCashTransactions(r.Context(), c.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List cash transactions failed", "error", err)
		http.Error(w, "gagal memuat kas", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "cash_list.html", cashListPage{
		Contract:     c,
		Ledger:       core.BuildCashLedger(c, entries, txs),
		Transactions: txs,
	})
}

type cashFormPage struct {
	Contract    core.Contract
	Transaction core.CashTransaction
	IsNew       bool
	Errors      map[string]string
	Error       string
}

func (s *Server) handleCashNew(w http.ResponseWriter, r *http.Request) {
	c, ok := s.activeContract(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "cash_form.html", cashFormPage{Contract: c, IsNew: true})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "form tidak valid", http.StatusBadRequest)
			return
		}

		t, fieldErrs := parseCashForm(r)
		t.ContractID = c.ID
		if fieldErrs != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			s.render(w, r, "cash_form.html", cashFormPage{Contract: c, Transaction: t, IsNew: true, Errors: fieldErrs})
			return
		}
		if err := t.Validate(); err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			s.render(w, r, "cash_form.html", cashFormPage{Contract: c, Transaction: t, IsNew: true, Error: "Data tidak valid: " + err.Error()})
			return
		}

		id, err := s.storage.CreateCashTransaction(r.Context(), t)
		if err != nil {
			slog.ErrorContext(r.Context(), "Create cash transaction failed", "error", err,
				applog.FieldComponent, applog.ComponentCash)
			http.Error(w, "gagal menyimpan transaksi", http.StatusInternalServerError)
			return
		}

		slog.InfoContext(r.Context(), "Cash transaction created",
			applog.FieldComponent, applog.ComponentCash,
			"id", id,
			applog.FieldFlow, string(t.Flow),
			applog.FieldAmountCents, t.Amount.Cents)
		http.Redirect(w, r, "/cash", http.StatusSeeOther)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCashEdit(w http.ResponseWriter, r *http.Request) {
	c, ok := s.activeContract(w, r)
	if !ok {
		return
	}

	id, err := queryID(r)
	if err != nil {
		http.Error(w, "id tidak valid", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		t, err := s.storage.GetCashTransaction(r.Context(), id, c.ID)
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "Get cash transaction failed", "error", err, "id", id)
			http.Error(w, "gagal memuat transaksi", http.StatusInternalServerError)
			return
		}
		s.render(w, r, "cash_form.html", cashFormPage{Contract: c, Transaction: t})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "form tidak valid", http.StatusBadRequest)
			return
		}

		t, fieldErrs := parseCashForm(r)
		t.ID = id
		t.ContractID = c.ID
		if fieldErrs != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			s.render(w, r, "cash_form.html", cashFormPage{Contract: c, Transaction: t, Errors: fieldErrs})
			return
		}
		if err := t.Validate(); err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			s.render(w, r, "cash_form.html", cashFormPage{Contract: c, Transaction: t, Error: "Data tidak valid: " + err.Error()})
			return
		}

		if err := s.storage.UpdateCashTransaction(r.Context(), t); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			slog.ErrorContext(r.Context(), "Update cash transaction failed", "error", err, "id", id)
			http.Error(w, "gagal menyimpan transaksi", http.StatusInternalServerError)
			return
		}

		slog.InfoContext(r.Context(), "Cash transaction updated",
			applog.FieldComponent, applog.ComponentCash, "id", id)
		http.Redirect(w, r, "/cash", http.StatusSeeOther)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCashDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	c, ok := s.activeContract(w, r)
	if !ok {
		return
	}

	id, err := queryID(r)
	if err != nil {
		http.Error(w, "id tidak valid", http.StatusBadRequest)
		return
	}

	if err := s.storage.DeleteCashTransaction(r.Context(), id, c.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Delete cash transaction failed", "error", err, "id", id)
		http.Error(w, "gagal menghapus transaksi", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "Cash transaction deleted",
		applog.FieldComponent, applog.ComponentCash, "id", id)
	http.Redirect(w, r, "/cash", http.StatusSeeOther)
}
