package http

import (
	"log/slog"
	"net/http"
	"time"

	"porsi/internal/core"
)

type dashboardPage struct {
	Contract core.Contract
	Stats    core.DashboardStats
	HasData  bool
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

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

	s.render(w, r, "dashboard.html", dashboardPage{
		Contract: c,
		Stats:    core.BuildDashboard(c, entries),
		HasData:  len(entries) > 0,
	})
}

type profitPage struct {
	Contract core.Contract
	Summary  core.ProfitSummary
}

func (s *Server) handleProfit(w http.ResponseWriter, r *http.Request) {
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

	s.render(w, r, "profit.html", profitPage{
		Contract: c,
		Summary:  core.BuildProfitSummary(c, entries),
	})
}

type cashflowPage struct {
	Contract core.Contract
	Stats    core.CashflowStats
}

func (s *Server) handleCashflow(w http.ResponseWriter, r *http.Request) {
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

	now := time.Now()
	today := core.NewDate(now.Year(), int(now.Month()), now.Day())

	s.render(w, r, "cashflow.html", cashflowPage{
		Contract: c,
		Stats:    core.BuildCashflow(c, entries, today),
	})
}

type historyPage struct {
	Contract core.Contract
	Entries  []core.DailyEntry
	Price    core.Money
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	c, ok := s.activeContract(w, r)
	if !ok {
		return
	}

	entries, err := s.storage.ListEntriesDesc(r.Context(), c.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List entries failed", "error", err)
		http.Error(w, "gagal memuat riwayat", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "history.html", historyPage{
		Contract: c,
		Entries:  entries,
		Price:    c.PricePerPortion,
	})
}
