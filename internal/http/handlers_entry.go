package http

import (
	"errors"
	"log/slog"
	"net/http"

	"porsi/internal/core"
	applog "porsi/internal/log"
	"porsi/internal/storage"
)

type entryFormPage struct {
	Contract core.Contract
	Entry    core.DailyEntry
	IsNew    bool
	Errors   map[string]string
	Error    string
}

func (s *Server) handleEntryNew(w http.ResponseWriter, r *http.Request) {
	c, ok := s.activeContract(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "entry_form.html", entryFormPage{Contract: c, IsNew: true})
	case http.MethodPost:
		s.handleEntryCreate(w, r, c)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleEntryCreate(w http.ResponseWriter, r *http.Request, c core.Contract) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "form tidak valid", http.StatusBadRequest)
		return
	}

	e, fieldErrs := parseEntryForm(r)
	if fieldErrs != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "entry_form.html", entryFormPage{Contract: c, Entry: e, IsNew: true, Errors: fieldErrs})
		return
	}

	id, err := s.entries.CreateEntry(r.Context(), c, e)
	if err != nil {
		s.renderEntrySaveError(w, r, c, e, true, err)
		return
	}

	slog.InfoContext(r.Context(), "Entry created",
		applog.FieldComponent, applog.ComponentEntry,
		applog.FieldEntryID, id,
		applog.FieldEntryDate, e.Date.Format("2006-01-02"),
		applog.FieldPortions, e.Portions)
	http.Redirect(w, r, "/history", http.StatusSeeOther)
}

func (s *Server) handleEntryEdit(w http.ResponseWriter, r *http.Request) {
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
		e, err := s.storage.GetEntry(r.Context(), id, c.ID)
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "Get entry failed", "error", err, applog.FieldEntryID, id)
			http.Error(w, "gagal memuat catatan", http.StatusInternalServerError)
			return
		}
		s.render(w, r, "entry_form.html", entryFormPage{Contract: c, Entry: e})
	case http.MethodPost:
		s.handleEntryUpdate(w, r, c, id)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleEntryUpdate(w http.ResponseWriter, r *http.Request, c core.Contract, id int64) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "form tidak valid", http.StatusBadRequest)
		return
	}

	e, fieldErrs := parseEntryForm(r)
	e.ID = id
	if fieldErrs != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "entry_form.html", entryFormPage{Contract: c, Entry: e, Errors: fieldErrs})
		return
	}

	if err := s.entries.UpdateEntry(r.Context(), c, e); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.renderEntrySaveError(w, r, c, e, false, err)
		return
	}

	slog.InfoContext(r.Context(), "Entry updated",
		applog.FieldComponent, applog.ComponentEntry,
		applog.FieldEntryID, id)
	http.Redirect(w, r, "/history", http.StatusSeeOther)
}

type entryDeletePage struct {
	Contract core.Contract
	Entry    core.DailyEntry
}

func (s *Server) handleEntryDelete(w http.ResponseWriter, r *http.Request) {
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
		// Confirmation page before the destructive POST.
		e, err := s.storage.GetEntry(r.Context(), id, c.ID)
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "Get entry failed", "error", err, applog.FieldEntryID, id)
			http.Error(w, "gagal memuat catatan", http.StatusInternalServerError)
			return
		}
		s.render(w, r, "entry_confirm_delete.html", entryDeletePage{Contract: c, Entry: e})
	case http.MethodPost:
		if err := s.entries.DeleteEntry(r.Context(), id, c.ID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			slog.ErrorContext(r.Context(), "Delete entry failed", "error", err, applog.FieldEntryID, id)
			http.Error(w, "gagal menghapus catatan", http.StatusInternalServerError)
			return
		}

		slog.InfoContext(r.Context(), "Entry deleted",
			applog.FieldComponent, applog.ComponentEntry,
			applog.FieldEntryID, id)
		http.Redirect(w, r, "/history", http.StatusSeeOther)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderEntrySaveError(w http.ResponseWriter, r *http.Request, c core.Contract, e core.DailyEntry, isNew bool, err error) {
	if errors.Is(err, storage.ErrDuplicateDate) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "entry_form.html", entryFormPage{
			Contract: c, Entry: e, IsNew: isNew,
			Error: "Sudah ada catatan untuk tanggal ini.",
		})
		return
	}

	var valErr error
	for _, sentinel := range []error{
		core.ErrInvalidDate, core.ErrNegativePortions, core.ErrNegativeAmount,
		core.ErrInvalidPaymentType,
	} {
		if errors.Is(err, sentinel) {
			valErr = err
			break
		}
	}
	if valErr != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "entry_form.html", entryFormPage{
			Contract: c, Entry: e, IsNew: isNew,
			Error: "Data tidak valid: " + valErr.Error(),
		})
		return
	}

	slog.ErrorContext(r.Context(), "Save entry failed", "error", err,
		applog.FieldComponent, applog.ComponentEntry)
	http.Error(w, "gagal menyimpan catatan", http.StatusInternalServerError)
}
