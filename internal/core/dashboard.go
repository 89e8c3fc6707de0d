package core

import "math"

// WarningBelowTarget is shown when the margin per portion has been below
// target for the three most recent entry days.
const WarningBelowTarget = "Margin di bawah target 3 hari berturut-turut."

// warningWindow is the number of most-recent entries the early-warning rule
// inspects; all of them must be strictly below target for it to fire.
const warningWindow = 3

type (
	// MarginChart is the per-entry margin series for the dashboard chart.
	// Values are rupiah rounded to 2 decimals; Target repeats the flat
	// target-margin reference line.
	MarginChart struct {
		Labels []string
		Margin []float64
		Target []float64
	}

	// DashboardStats is the value bundle for the dashboard view. Monetary
	// sums are exact cents; rates and per-portion figures are cents as
	// float64, used for display only.
	DashboardStats struct {
		TotalPortions int64
		SumMaterial   Money
		SumLabor      Money
		SumOverhead   Money
		TotalCost     Money
		Revenue       Money
		Profit        Money

		CostPerPortion   float64
		MarginPerPortion float64

		TargetMarginPerPortion float64
		TargetCostPerPortion   float64
		TargetTotalPortions    int64
		TargetProfitTotal      float64

		ProgressPortionsPct  float64
		ProjectedProfit      float64
		DeviationVsTargetPct float64

		Chart       MarginChart
		Warning     bool
		WarningText string
	}
)

// CostBreakdown is the three cost sums in rupiah, in material, labor,
// overhead order, feeding the dashboard's proportion chart.
func (s DashboardStats) CostBreakdown() []float64 {
	return []float64{s.SumMaterial.Rupiah(), s.SumLabor.Rupiah(), s.SumOverhead.Rupiah()}
}

// BuildDashboard computes the dashboard KPIs over the full entry set of the
// active contract. Entries must be in ascending date order (the store
// returns them that way). No I/O, no side effects.
func BuildDashboard(c Contract, entries []DailyEntry) DashboardStats {
	var st DashboardStats

	for _, e := range entries {
		st.TotalPortions += e.Portions
		st.SumMaterial.Cents += e.CostMaterial.Cents
		st.SumLabor.Cents += e.CostLabor.Cents
		st.SumOverhead.Cents += e.CostOverhead.Cents
	}
	st.TotalCost = Money{Cents: st.SumMaterial.Cents + st.SumLabor.Cents + st.SumOverhead.Cents}

	price := float64(c.PricePerPortion.Cents)
	st.Revenue = Money{Cents: st.TotalPortions * c.PricePerPortion.Cents}
	st.Profit = Money{Cents: st.Revenue.Cents - st.TotalCost.Cents}

	if st.TotalPortions > 0 {
		st.CostPerPortion = float64(st.TotalCost.Cents) / float64(st.TotalPortions)
	}
	st.MarginPerPortion = price - st.CostPerPortion

	st.TargetMarginPerPortion = price * float64(c.TargetMarginBps) / 10000.0
	st.TargetCostPerPortion = price - st.TargetMarginPerPortion
	st.TargetTotalPortions = c.TargetPortionsPerDay * c.DurationDays
	st.TargetProfitTotal = st.TargetMarginPerPortion * float64(st.TargetTotalPortions)

	if st.TargetTotalPortions > 0 {
		st.ProgressPortionsPct = float64(st.TotalPortions) / float64(st.TargetTotalPortions) * 100.0
		// Extrapolates the actual-to-date margin over the whole contract
		// term ("if the current trend holds"), not the target margin.
		st.ProjectedProfit = st.MarginPerPortion * float64(st.TargetTotalPortions)
	}
	if st.TargetProfitTotal != 0 {
		st.DeviationVsTargetPct = (st.ProjectedProfit - st.TargetProfitTotal) / st.TargetProfitTotal * 100.0
	}

	st.Chart = buildMarginChart(c, entries, st.TargetMarginPerPortion)
	st.Warning, st.WarningText = earlyWarning(entries, price, st.TargetMarginPerPortion)

	return st
}

func buildMarginChart(c Contract, entries []DailyEntry, targetMargin float64) MarginChart {
	ch := MarginChart{
		Labels: make([]string, 0, len(entries)),
		Margin: make([]float64, 0, len(entries)),
		Target: make([]float64, 0, len(entries)),
	}
	price := float64(c.PricePerPortion.Cents)
	for _, e := range entries {
		ch.Labels = append(ch.Labels, e.Date.Format("02 Jan"))
		ch.Margin = append(ch.Margin, round2((price-dayCostPerPortion(e))/100.0))
		ch.Target = append(ch.Target, round2(targetMargin/100.0))
	}
	return ch
}

// earlyWarning fires only when exactly warningWindow entries exist in the
// most-recent tail and every one of them has a day margin strictly below
// target. Fewer than warningWindow entries total can never warn.
func earlyWarning(entries []DailyEntry, price, targetMargin float64) (bool, string) {
	if len(entries) < warningWindow {
		return false, ""
	}
	for _, e := range entries[len(entries)-warningWindow:] {
		if price-dayCostPerPortion(e) >= targetMargin {
			return false, ""
		}
	}
	return true, WarningBelowTarget
}

// dayCostPerPortion is the entry's total cost divided by its portions, in
// cents; 0 for a zero-portion day.
func dayCostPerPortion(e DailyEntry) float64 {
	if e.Portions <= 0 {
		return 0
	}
	return float64(e.TotalCost().Cents) / float64(e.Portions)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
