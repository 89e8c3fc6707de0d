package core

import (
	"errors"
	"strings"
	"time"
)

const (
	PaymentCash   PaymentType = "CASH"
	PaymentCredit PaymentType = "CREDIT"

	FlowIn  FlowType = "IN"
	FlowOut FlowType = "OUT"
)

type (
	// PaymentType marks how a daily sale is settled.
	PaymentType string

	// FlowType marks the direction of a manual cash movement.
	FlowType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Contract is one production agreement period. At most one contract is
	// active at a time; the resolver breaks ties by newest created_at.
	Contract struct {
		ID                   int64
		Name                 string
		StartDate            Date
		DurationDays         int64
		PricePerPortion      Money
		TargetPortionsPerDay int64
		TargetMarginBps      int64 // 2000 = 20.00%
		IsActive             bool
		CreatedAt            time.Time
	}

	// DailyEntry is one production/sales record for a contract on a given
	// date. Unique per (contract, date).
	DailyEntry struct {
		ID            int64
		ContractID    int64
		Date          Date
		Portions      int64
		CostMaterial  Money
		CostLabor     Money
		CostOverhead  Money
		PaymentType   PaymentType
		PaidAmount    Money
		CreditDueDate Date // zero unless PaymentType is CREDIT
		Notes         string
		CreatedAt     time.Time
	}

	// CashTransaction is a manual cash movement outside daily sales.
	CashTransaction struct {
		ID         int64
		ContractID int64
		Date       Date
		Flow       FlowType
		Amount     Money
		Notes      string
		CreatedAt  time.Time
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidDuration    = errors.New("duration must be positive")
	ErrInvalidTarget      = errors.New("target portions must be positive")
	ErrInvalidMargin      = errors.New("target margin out of range")
	ErrNegativePortions   = errors.New("portions cannot be negative")
	ErrInvalidPaymentType = errors.New("invalid payment type")
	ErrInvalidFlow        = errors.New("invalid cash flow")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty reports whether the date is unset (optional dates use the zero value).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (p PaymentType) Validate() error {
	switch p {
	case PaymentCash, PaymentCredit:
		return nil
	}
	return ErrInvalidPaymentType
}

func (f FlowType) Validate() error {
	switch f {
	case FlowIn, FlowOut:
		return nil
	}
	return ErrInvalidFlow
}

func (c Contract) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	if len(c.Name) > 160 {
		return errors.New("name too long (max 160 characters)")
	}
	if err := c.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if c.DurationDays <= 0 {
		return ErrInvalidDuration
	}
	if c.PricePerPortion.Cents <= 0 {
		return ErrInvalidAmount
	}
	if c.TargetPortionsPerDay <= 0 {
		return ErrInvalidTarget
	}
	if c.TargetMarginBps < 0 || c.TargetMarginBps > 10000 {
		return ErrInvalidMargin
	}
	return nil
}

// TargetMarginPct returns the target margin as a percentage for display.
func (c Contract) TargetMarginPct() float64 {
	return float64(c.TargetMarginBps) / 100.0
}

func (e DailyEntry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.Portions < 0 {
		return ErrNegativePortions
	}
	if e.CostMaterial.Cents < 0 || e.CostLabor.Cents < 0 || e.CostOverhead.Cents < 0 {
		return ErrNegativeAmount
	}
	if err := e.PaymentType.Validate(); err != nil {
		return err
	}
	if e.PaidAmount.Cents < 0 {
		return ErrNegativeAmount
	}
	if len(e.Notes) > 2000 {
		return errors.New("notes too long (max 2000 characters)")
	}
	return nil
}

// TotalCost is the sum of the three cost components, exact in cents.
func (e DailyEntry) TotalCost() Money {
	return Money{Cents: e.CostMaterial.Cents + e.CostLabor.Cents + e.CostOverhead.Cents}
}

// SalesAmount is portions times the contract price per portion.
func (e DailyEntry) SalesAmount(price Money) Money {
	return Money{Cents: e.Portions * price.Cents}
}

// NormalizeForSave prepares an entry for persisting against the active
// contract: the active contract always wins over whatever the caller
// supplied, a CASH entry with unset/zero paid amount settles in full, and a
// due date only makes sense on CREDIT entries. A CREDIT entry with zero
// paid amount stays at zero (an unpaid sale).
func (e DailyEntry) NormalizeForSave(c Contract) DailyEntry {
	e.ContractID = c.ID
	if e.PaymentType == PaymentCash {
		if e.PaidAmount.Cents == 0 {
			e.PaidAmount = e.SalesAmount(c.PricePerPortion)
		}
		e.CreditDueDate = Date{}
	}
	return e
}

func (t CashTransaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Flow.Validate(); err != nil {
		return err
	}
	if t.Amount.Cents < 0 {
		return ErrNegativeAmount
	}
	if len(t.Notes) > 2000 {
		return errors.New("notes too long (max 2000 characters)")
	}
	return nil
}
