package core

type (
	// Receivables is the credit-sales breakdown shared by the cashflow and
	// cash-ledger views. Outstanding is floored at zero: an overpaying
	// customer never produces negative receivables.
	Receivables struct {
		CreditSales Money
		CreditPaid  Money
		Outstanding Money
	}

	// ProfitSummary is the plain totals view, no time series.
	ProfitSummary struct {
		TotalPortions int64
		Revenue       Money
		TotalCost     Money
		Profit        Money
		MarginPct     float64
	}

	// CashflowRow is one recent-entry line in the cashflow view.
	CashflowRow struct {
		Date        Date
		PaymentType PaymentType
		Sales       Money
		CashIn      Money
		DueDate     Date
	}

	// CashflowStats is the value bundle for the cashflow view. Derived from
	// daily entries only; manual movements are reconciled in CashLedger.
	CashflowStats struct {
		SalesTotal  Money
		CashInTotal Money
		Receivables Receivables
		LastWeek    []CashflowRow
	}

	// CashLedger reconciles manual cash movements with cash received from
	// daily sales, alongside the receivables breakdown.
	CashLedger struct {
		ManualIn    Money
		ManualOut   Money
		SalesCashIn Money
		TotalIn     Money
		TotalOut    Money
		Net         Money
		Receivables Receivables
	}
)

// ComputeReceivables derives the credit-sales position from the entry set.
// Both the cashflow and the cash-ledger views call this one function.
func ComputeReceivables(price Money, entries []DailyEntry) Receivables {
	var r Receivables
	for _, e := range entries {
		if e.PaymentType != PaymentCredit {
			continue
		}
		r.CreditSales.Cents += e.SalesAmount(price).Cents
		r.CreditPaid.Cents += e.PaidAmount.Cents
	}
	if out := r.CreditSales.Cents - r.CreditPaid.Cents; out > 0 {
		r.Outstanding = Money{Cents: out}
	}
	return r
}

// BuildProfitSummary computes the pure profit totals for the active contract.
func BuildProfitSummary(c Contract, entries []DailyEntry) ProfitSummary {
	var s ProfitSummary
	var cost int64
	for _, e := range entries {
		s.TotalPortions += e.Portions
		cost += e.TotalCost().Cents
	}
	s.TotalCost = Money{Cents: cost}
	s.Revenue = Money{Cents: s.TotalPortions * c.PricePerPortion.Cents}
	s.Profit = Money{Cents: s.Revenue.Cents - s.TotalCost.Cents}
	if s.Revenue.Cents != 0 {
		s.MarginPct = float64(s.Profit.Cents) / float64(s.Revenue.Cents) * 100.0
	}
	return s
}

// BuildCashflow computes sales and cash-in totals plus the last-7-days rows
// (entry date >= today-6). Entries must be in ascending date order. today is
// a parameter so the window is testable.
func BuildCashflow(c Contract, entries []DailyEntry, today Date) CashflowStats {
	var st CashflowStats
	since := today.AddDate(0, 0, -6)
	for _, e := range entries {
		sales := e.SalesAmount(c.PricePerPortion)
		st.SalesTotal.Cents += sales.Cents
		st.CashInTotal.Cents += e.PaidAmount.Cents
		if !e.Date.Before(since) {
			st.LastWeek = append(st.LastWeek, CashflowRow{
				Date:        e.Date,
				PaymentType: e.PaymentType,
				Sales:       sales,
				CashIn:      e.PaidAmount,
				DueDate:     e.CreditDueDate,
			})
		}
	}
	st.Receivables = ComputeReceivables(c.PricePerPortion, entries)
	return st
}

// BuildCashLedger reconciles manual movements with sales cash. SalesCashIn
// sums paid amounts over all entries regardless of payment type: CASH
// entries carry their full sales value by the autofill rule, CREDIT entries
// whatever partial payment was recorded.
func BuildCashLedger(c Contract, entries []DailyEntry, txs []CashTransaction) CashLedger {
	var lg CashLedger
	for _, t := range txs {
		switch t.Flow {
		case FlowIn:
			lg.ManualIn.Cents += t.Amount.Cents
		case FlowOut:
			lg.ManualOut.Cents += t.Amount.Cents
		}
	}
	for _, e := range entries {
		lg.SalesCashIn.Cents += e.PaidAmount.Cents
	}
	lg.TotalIn = Money{Cents: lg.SalesCashIn.Cents + lg.ManualIn.Cents}
	lg.TotalOut = lg.ManualOut
	lg.Net = Money{Cents: lg.TotalIn.Cents - lg.TotalOut.Cents}
	lg.Receivables = ComputeReceivables(c.PricePerPortion, entries)
	return lg
}
