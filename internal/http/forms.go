package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"porsi/internal/core"
)

// Form parsers turn POST bodies into core types. Parse failures come back
// as field name to Indonesian message, for re-rendering the form.

func parseFormDate(v string) (core.Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(v))
	if err != nil {
		return core.Date{}, err
	}
	return core.Date{Time: t}, nil
}

func parseFormMoney(v string) (core.Money, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return core.Money{}, nil
	}
	cents, err := core.ParseDecimalToCents(v)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

func parseEntryForm(r *http.Request) (core.DailyEntry, map[string]string) {
	errs := make(map[string]string)
	var e core.DailyEntry

	date, err := parseFormDate(r.Form.Get("date"))
	if err != nil {
		errs["date"] = "Tanggal tidak valid"
	}
	e.Date = date

	portions, err := strconv.ParseInt(strings.TrimSpace(r.Form.Get("portions")), 10, 64)
	if err != nil {
		errs["portions"] = "Jumlah porsi tidak valid"
	}
	e.Portions = portions

	if e.CostMaterial, err = parseFormMoney(r.Form.Get("raw_material")); err != nil {
		errs["raw_material"] = "Biaya bahan baku tidak valid"
	}
	if e.CostLabor, err = parseFormMoney(r.Form.Get("labor")); err != nil {
		errs["labor"] = "Biaya tenaga kerja tidak valid"
	}
	if e.CostOverhead, err = parseFormMoney(r.Form.Get("operational")); err != nil {
		errs["operational"] = "Biaya operasional tidak valid"
	}

	e.PaymentType = core.PaymentType(strings.TrimSpace(r.Form.Get("payment_type")))
	if e.PaymentType != core.PaymentCash && e.PaymentType != core.PaymentCredit {
		errs["payment_type"] = "Jenis pembayaran tidak valid"
	}

	if e.PaidAmount, err = parseFormMoney(r.Form.Get("paid_amount")); err != nil {
		errs["paid_amount"] = "Jumlah dibayar tidak valid"
	}

	if v := strings.TrimSpace(r.Form.Get("credit_due_date")); v != "" {
		due, err := parseFormDate(v)
		if err != nil {
			errs["credit_due_date"] = "Tanggal jatuh tempo tidak valid"
		}
		e.CreditDueDate = due
	}

	e.Notes = sanitizeInput(r.Form.Get("notes"))

	if len(errs) > 0 {
		return e, errs
	}
	return e, nil
}

func parseContractForm(r *http.Request) (core.Contract, map[string]string) {
	errs := make(map[string]string)
	var c core.Contract

	c.Name = sanitizeInput(r.Form.Get("name"))
	if c.Name == "" {
		errs["name"] = "Nama kontrak wajib diisi"
	}

	start, err := parseFormDate(r.Form.Get("start_date"))
	if err != nil {
		errs["start_date"] = "Tanggal mulai tidak valid"
	}
	c.StartDate = start

	c.DurationDays, err = strconv.ParseInt(strings.TrimSpace(r.Form.Get("duration_days")), 10, 64)
	if err != nil || c.DurationDays <= 0 {
		errs["duration_days"] = "Durasi kontrak tidak valid"
	}

	if c.PricePerPortion, err = parseFormMoney(r.Form.Get("price_per_portion")); err != nil || c.PricePerPortion.Cents <= 0 {
		errs["price_per_portion"] = "Harga per porsi tidak valid"
	}

	c.TargetPortionsPerDay, err = strconv.ParseInt(strings.TrimSpace(r.Form.Get("target_portions_per_day")), 10, 64)
	if err != nil || c.TargetPortionsPerDay <= 0 {
		errs["target_portions_per_day"] = "Target porsi per hari tidak valid"
	}

	// Margin is entered as a percentage ("20" or "20.5") and stored in
	// basis points.
	bps, err := core.ParseDecimalToCents(strings.TrimSpace(r.Form.Get("target_margin")))
	if err != nil {
		errs["target_margin"] = "Target margin tidak valid"
	}
	c.TargetMarginBps = bps

	if len(errs) > 0 {
		return c, errs
	}
	return c, nil
}

func parseCashForm(r *http.Request) (core.CashTransaction, map[string]string) {
	errs := make(map[string]string)
	var t core.CashTransaction

	date, err := parseFormDate(r.Form.Get("date"))
	if err != nil {
		errs["date"] = "Tanggal tidak valid"
	}
	t.Date = date

	t.Flow = core.FlowType(strings.TrimSpace(r.Form.Get("flow")))
	if t.Flow != core.FlowIn && t.Flow != core.FlowOut {
		errs["flow"] = "Arah transaksi tidak valid"
	}

	if t.Amount, err = parseFormMoney(r.Form.Get("amount")); err != nil || t.Amount.Cents <= 0 {
		errs["amount"] = "Jumlah tidak valid"
	}

	t.Notes = sanitizeInput(r.Form.Get("notes"))

	if len(errs) > 0 {
		return t, errs
	}
	return t, nil
}
