package http

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"porsi/internal/core"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"rupiah": func(m core.Money) string { return core.FormatRupiah(m.Cents) },
		"rupiahf": func(cents float64) string {
			return core.FormatRupiah(int64(math.Round(cents)))
		},
		"pct": func(v float64) string {
			return strconv.FormatFloat(v, 'f', 1, 64) + "%"
		},
		"date": func(d core.Date) string {
			if d.IsZero() {
				return "-"
			}
			return d.Format("02 Jan 2006")
		},
		"dateInput": func(d core.Date) string {
			if d.IsZero() {
				return ""
			}
			return d.Format("2006-01-02")
		},
		"json": func(v any) (template.JS, error) {
			b, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return template.JS(b), nil
		},
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// activeContract loads the active contract or redirects to the contract
// setup page when none exists yet. The bool reports whether the caller can
// proceed.
func (s *Server) activeContract(w http.ResponseWriter, r *http.Request) (core.Contract, bool) {
	c, err := s.storage.ActiveContract(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Active contract lookup failed", "error", err)
		http.Error(w, "gagal memuat kontrak", http.StatusInternalServerError)
		return core.Contract{}, false
	}
	if c == nil {
		http.Redirect(w, r, "/contract", http.StatusSeeOther)
		return core.Contract{}, false
	}
	return *c, true
}

func queryID(r *http.Request) (int64, error) {
	v := strings.TrimSpace(r.URL.Query().Get("id"))
	if v == "" {
		return 0, fmt.Errorf("missing id")
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", v)
	}
	return id, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
