package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"porsi/internal/core"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a record does not exist or belongs to
	// another contract.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateDate is returned when a second daily entry is saved for
	// the same contract and date.
	ErrDuplicateDate = errors.New("entry already exists for this date")
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ActiveContract returns the currently active contract, or nil when none
// has been activated yet. Ties are broken by the most recently created row.
func (r *SQLiteRepository) ActiveContract(ctx context.Context) (*core.Contract, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, start_date, duration_days, price_per_portion_cents,
		       target_portions_per_day, target_margin_bps, is_active, created_at
		FROM contracts
		WHERE is_active = 1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`)

	c, err := scanContract(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active contract: %w", err)
	}
	return &c, nil
}

func (r *SQLiteRepository) GetContract(ctx context.Context, id int64) (core.Contract, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, start_date, duration_days, price_per_portion_cents,
		       target_portions_per_day, target_margin_bps, is_active, created_at
		FROM contracts
		WHERE id = ?`, id)

	c, err := scanContract(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Contract{}, ErrNotFound
	}
	if err != nil {
		return core.Contract{}, fmt.Errorf("get contract: %w", err)
	}
	return c, nil
}

// SaveContractActive persists the contract and makes it the single active
// one. Deactivating the previous contract and activating the new one happen
// in the same transaction, so readers never observe zero or two active
// contracts.
func (r *SQLiteRepository) SaveContractActive(ctx context.Context, c core.Contract) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE contracts SET is_active = 0 WHERE is_active = 1`); err != nil {
		return 0, fmt.Errorf("deactivate contracts: %w", err)
	}

	id := c.ID
	if id > 0 {
		res, err := tx.ExecContext(ctx, `
			UPDATE contracts
			SET name = ?, start_date = ?, duration_days = ?, price_per_portion_cents = ?,
			    target_portions_per_day = ?, target_margin_bps = ?, is_active = 1
			WHERE id = ?`,
			c.Name, c.StartDate.Format(dateLayout), c.DurationDays, c.PricePerPortion.Cents,
			c.TargetPortionsPerDay, c.TargetMarginBps, c.ID)
		if err != nil {
			return 0, fmt.Errorf("update contract: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("update contract rows affected: %w", err)
		}
		if n == 0 {
			return 0, ErrNotFound
		}
	} else {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO contracts (name, start_date, duration_days, price_per_portion_cents,
			                       target_portions_per_day, target_margin_bps, is_active, created_at)
			VALUES (?, ?, ?, ?, ?, ?, 1, ?)`,
			c.Name, c.StartDate.Format(dateLayout), c.DurationDays, c.PricePerPortion.Cents,
			c.TargetPortionsPerDay, c.TargetMarginBps, time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return 0, fmt.Errorf("insert contract: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("contract last insert id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit contract: %w", err)
	}

	slog.InfoContext(ctx, "Contract saved and activated", "id", id, "name", c.Name)
	return id, nil
}

// CreateEntry inserts a daily entry for the contract. The row starts in
// sync_status pending so the worker picks it up.
func (r *SQLiteRepository) CreateEntry(ctx context.Context, e core.DailyEntry) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO daily_entries (contract_id, entry_date, portions, raw_material_cents,
		                           labor_cents, operational_cents, payment_type, paid_amount_cents,
		                           credit_due_date, notes, sync_status, version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending', 1, ?)`,
		e.ContractID, e.Date.Format(dateLayout), e.Portions, e.CostMaterial.Cents,
		e.CostLabor.Cents, e.CostOverhead.Cents, string(e.PaymentType), e.PaidAmount.Cents,
		nullDate(e.CreditDueDate), e.Notes, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateDate
		}
		return 0, fmt.Errorf("insert entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("entry last insert id: %w", err)
	}
	return id, nil
}

// UpdateEntry rewrites an entry scoped to its contract. Version is bumped
// and sync_status reset to pending so the mirror gets the new values. The
// new version is returned for the sync message.
func (r *SQLiteRepository) UpdateEntry(ctx context.Context, e core.DailyEntry) (int64, error) {
	var version int64
	err := r.db.QueryRowContext(ctx, `
		UPDATE daily_entries
		SET entry_date = ?, portions = ?, raw_material_cents = ?, labor_cents = ?,
		    operational_cents = ?, payment_type = ?, paid_amount_cents = ?,
		    credit_due_date = ?, notes = ?, sync_status = 'pending', version = version + 1
		WHERE id = ? AND contract_id = ?
		RETURNING version`,
		e.Date.Format(dateLayout), e.Portions, e.CostMaterial.Cents, e.CostLabor.Cents,
		e.CostOverhead.Cents, string(e.PaymentType), e.PaidAmount.Cents,
		nullDate(e.CreditDueDate), e.Notes, e.ID, e.ContractID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateDate
		}
		return 0, fmt.Errorf("update entry: %w", err)
	}
	return version, nil
}

func (r *SQLiteRepository) DeleteEntry(ctx context.Context, id, contractID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM daily_entries WHERE id = ? AND contract_id = ?`, id, contractID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetEntry(ctx context.Context, id, contractID int64) (core.DailyEntry, error) {
	row := r.db.QueryRowContext(ctx, entrySelect+` WHERE id = ? AND contract_id = ?`, id, contractID)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DailyEntry{}, ErrNotFound
	}
	if err != nil {
		return core.DailyEntry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// ListEntries returns all entries of the contract in ascending date order,
// the order the aggregation functions expect.
func (r *SQLiteRepository) ListEntries(ctx context.Context, contractID int64) ([]core.DailyEntry, error) {
	return r.listEntries(ctx, contractID, "ASC")
}

// ListEntriesDesc returns entries newest first, for the history page.
func (r *SQLiteRepository) ListEntriesDesc(ctx context.Context, contractID int64) ([]core.DailyEntry, error) {
	return r.listEntries(ctx, contractID, "DESC")
}

func (r *SQLiteRepository) listEntries(ctx context.Context, contractID int64, order string) ([]core.DailyEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		entrySelect+` WHERE contract_id = ? ORDER BY entry_date `+order+`, id `+order, contractID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []core.DailyEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func (r *SQLiteRepository) CreateCashTransaction(ctx context.Context, t core.CashTransaction) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO cash_transactions (contract_id, tx_date, flow, amount_cents, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ContractID, t.Date.Format(dateLayout), string(t.Flow), t.Amount.Cents,
		t.Notes, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert cash transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("cash transaction last insert id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) UpdateCashTransaction(ctx context.Context, t core.CashTransaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cash_transactions
		SET tx_date = ?, flow = ?, amount_cents = ?, notes = ?
		WHERE id = ? AND contract_id = ?`,
		t.Date.Format(dateLayout), string(t.Flow), t.Amount.Cents, t.Notes, t.ID, t.ContractID)
	if err != nil {
		return fmt.Errorf("update cash transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update cash transaction rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteCashTransaction(ctx context.Context, id, contractID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM cash_transactions WHERE id = ? AND contract_id = ?`, id, contractID)
	if err != nil {
		return fmt.Errorf("delete cash transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete cash transaction rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetCashTransaction(ctx context.Context, id, contractID int64) (core.CashTransaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, contract_id, tx_date, flow, amount_cents, notes
		FROM cash_transactions
		WHERE id = ? AND contract_id = ?`, id, contractID)

	t, err := scanCashTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CashTransaction{}, ErrNotFound
	}
	if err != nil {
		return core.CashTransaction{}, fmt.Errorf("get cash transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListCashTransactions(ctx context.Context, contractID int64) ([]core.CashTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, contract_id, tx_date, flow, amount_cents, notes
		FROM cash_transactions
		WHERE contract_id = ?
		ORDER BY tx_date DESC, id DESC`, contractID)
	if err != nil {
		return nil, fmt.Errorf("list cash transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.CashTransaction
	for rows.Next() {
		t, err := scanCashTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cash transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cash transactions: %w", err)
	}
	return txs, nil
}

// PendingSyncEntry is the minimal row shape the sync queue messages carry.
type PendingSyncEntry struct {
	ID      int64
	Version int64
}

// PendingSyncEntries returns entries waiting to be mirrored, oldest first.
func (r *SQLiteRepository) PendingSyncEntries(ctx context.Context, limit int) ([]PendingSyncEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version
		FROM daily_entries
		WHERE sync_status = 'pending'
		ORDER BY id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync entries: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncEntry
	for rows.Next() {
		var p PendingSyncEntry
		if err := rows.Scan(&p.ID, &p.Version); err != nil {
			return nil, fmt.Errorf("scan pending sync entry: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending sync entries: %w", err)
	}
	return pending, nil
}

// EntryForSync loads an entry together with its contract and current
// version so the mirror can compute the sales amount and the sync marker
// can be version-guarded.
func (r *SQLiteRepository) EntryForSync(ctx context.Context, id int64) (core.DailyEntry, core.Contract, int64, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, contract_id, entry_date, portions, raw_material_cents, labor_cents,
		       operational_cents, payment_type, paid_amount_cents, credit_due_date, notes, version
		FROM daily_entries
		WHERE id = ?`, id)

	var (
		e           core.DailyEntry
		version     int64
		entryDate   string
		paymentType string
		dueDate     sql.NullString
	)
	err := row.Scan(&e.ID, &e.ContractID, &entryDate, &e.Portions, &e.CostMaterial.Cents,
		&e.CostLabor.Cents, &e.CostOverhead.Cents, &paymentType, &e.PaidAmount.Cents,
		&dueDate, &e.Notes, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DailyEntry{}, core.Contract{}, 0, ErrNotFound
	}
	if err != nil {
		return core.DailyEntry{}, core.Contract{}, 0, fmt.Errorf("get entry for sync: %w", err)
	}

	e.PaymentType = core.PaymentType(paymentType)
	if e.Date, err = parseDate(entryDate); err != nil {
		return core.DailyEntry{}, core.Contract{}, 0, fmt.Errorf("parse entry date: %w", err)
	}
	if dueDate.Valid && dueDate.String != "" {
		if e.CreditDueDate, err = parseDate(dueDate.String); err != nil {
			return core.DailyEntry{}, core.Contract{}, 0, fmt.Errorf("parse credit due date: %w", err)
		}
	}

	c, err := r.GetContract(ctx, e.ContractID)
	if err != nil {
		return core.DailyEntry{}, core.Contract{}, 0, err
	}
	return e, c, version, nil
}

// MarkEntrySynced records a successful mirror write. The version guard keeps
// a stale sync result from masking an edit that happened in between.
func (r *SQLiteRepository) MarkEntrySynced(ctx context.Context, id, version int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE daily_entries
		SET sync_status = 'synced'
		WHERE id = ? AND version = ?`, id, version)
	if err != nil {
		return fmt.Errorf("mark entry synced: %w", err)
	}

	slog.InfoContext(ctx, "Entry marked as synced", "id", id, "version", version)
	return nil
}

func (r *SQLiteRepository) MarkEntrySyncError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE daily_entries
		SET sync_status = 'error'
		WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark entry sync error: %w", err)
	}

	slog.WarnContext(ctx, "Entry marked with sync error", "id", id)
	return nil
}

const entrySelect = `
	SELECT id, contract_id, entry_date, portions, raw_material_cents, labor_cents,
	       operational_cents, payment_type, paid_amount_cents, credit_due_date, notes
	FROM daily_entries`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(row rowScanner) (core.Contract, error) {
	var (
		c         core.Contract
		startDate string
		createdAt string
	)
	err := row.Scan(&c.ID, &c.Name, &startDate, &c.DurationDays, &c.PricePerPortion.Cents,
		&c.TargetPortionsPerDay, &c.TargetMarginBps, &c.IsActive, &createdAt)
	if err != nil {
		return core.Contract{}, err
	}

	if c.StartDate, err = parseDate(startDate); err != nil {
		return core.Contract{}, fmt.Errorf("parse start date: %w", err)
	}
	if c.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return core.Contract{}, fmt.Errorf("parse created at: %w", err)
	}
	return c, nil
}

func scanEntry(row rowScanner) (core.DailyEntry, error) {
	var (
		e           core.DailyEntry
		entryDate   string
		paymentType string
		dueDate     sql.NullString
	)
	err := row.Scan(&e.ID, &e.ContractID, &entryDate, &e.Portions, &e.CostMaterial.Cents,
		&e.CostLabor.Cents, &e.CostOverhead.Cents, &paymentType, &e.PaidAmount.Cents,
		&dueDate, &e.Notes)
	if err != nil {
		return core.DailyEntry{}, err
	}

	e.PaymentType = core.PaymentType(paymentType)
	if e.Date, err = parseDate(entryDate); err != nil {
		return core.DailyEntry{}, fmt.Errorf("parse entry date: %w", err)
	}
	if dueDate.Valid && dueDate.String != "" {
		if e.CreditDueDate, err = parseDate(dueDate.String); err != nil {
			return core.DailyEntry{}, fmt.Errorf("parse credit due date: %w", err)
		}
	}
	return e, nil
}

func scanCashTransaction(row rowScanner) (core.CashTransaction, error) {
	var (
		t      core.CashTransaction
		txDate string
		flow   string
	)
	err := row.Scan(&t.ID, &t.ContractID, &txDate, &flow, &t.Amount.Cents, &t.Notes)
	if err != nil {
		return core.CashTransaction{}, err
	}

	t.Flow = core.FlowType(flow)
	if t.Date, err = parseDate(txDate); err != nil {
		return core.CashTransaction{}, fmt.Errorf("parse transaction date: %w", err)
	}
	return t, nil
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}, err
	}
	return core.Date{Time: t}, nil
}

func nullDate(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.Format(dateLayout)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
