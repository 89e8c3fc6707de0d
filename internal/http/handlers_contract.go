package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"porsi/internal/core"
	applog "porsi/internal/log"
)

type contractPage struct {
	Contract core.Contract
	IsNew    bool
	Errors   map[string]string
	Error    string
}

// handleContract serves the contract setup form and activates the posted
// contract. Posting with the active contract's id edits it in place;
// posting without an id creates and activates a new contract.
func (s *Server) handleContract(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleContractGet(w, r)
	case http.MethodPost:
		s.handleContractPost(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleContractGet(w http.ResponseWriter, r *http.Request) {
	c, err := s.storage.ActiveContract(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Active contract lookup failed", "error", err)
		http.Error(w, "gagal memuat kontrak", http.StatusInternalServerError)
		return
	}

	page := contractPage{IsNew: c == nil}
	if c != nil {
		page.Contract = *c
	}
	s.render(w, r, "contract_form.html", page)
}

func (s *Server) handleContractPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "form tidak valid", http.StatusBadRequest)
		return
	}

	c, fieldErrs := parseContractForm(r)
	if v := strings.TrimSpace(r.Form.Get("id")); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.ID = id
		}
	}

	if fieldErrs != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "contract_form.html", contractPage{Contract: c, IsNew: c.ID == 0, Errors: fieldErrs})
		return
	}
	if err := c.Validate(); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "contract_form.html", contractPage{Contract: c, IsNew: c.ID == 0, Error: "Data kontrak tidak valid: " + err.Error()})
		return
	}

	id, err := s.storage.SaveContractActive(r.Context(), c)
	if err != nil {
		slog.ErrorContext(r.Context(), "Contract activation failed",
			applog.FieldComponent, applog.ComponentContract,
			applog.FieldOperation, applog.OpActivate,
			"error", err)
		http.Error(w, "gagal menyimpan kontrak", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "Contract activated",
		applog.FieldComponent, applog.ComponentContract,
		applog.FieldContractID, id)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
