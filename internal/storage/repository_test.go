package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"porsi/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testContract() core.Contract {
	return core.Contract{
		Name:                 "Katering PT Maju",
		StartDate:            core.Date{Time: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		DurationDays:         30,
		PricePerPortion:      core.Money{Cents: 1500000},
		TargetPortionsPerDay: 1000,
		TargetMarginBps:      2000,
	}
}

func testEntry(contractID int64, day int) core.DailyEntry {
	return core.DailyEntry{
		ContractID:      contractID,
		Date:            core.Date{Time: time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC)},
		Portions:        950,
		CostMaterial: core.Money{Cents: 700000000},
		CostLabor:       core.Money{Cents: 150000000},
		CostOverhead: core.Money{Cents: 50000000},
		PaymentType:     core.PaymentCash,
		PaidAmount:      core.Money{Cents: 1425000000},
	}
}

func TestActiveContractEmpty(t *testing.T) {
	repo := newTestRepo(t)

	c, err := repo.ActiveContract(context.Background())
	if err != nil {
		t.Fatalf("ActiveContract: %v", err)
	}
	if c != nil {
		t.Fatalf("expected no active contract, got %+v", c)
	}
}

func TestSaveContractActiveSwitches(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := testContract()
	firstID, err := repo.SaveContractActive(ctx, first)
	if err != nil {
		t.Fatalf("save first contract: %v", err)
	}

	second := testContract()
	second.Name = "Katering CV Berkah"
	secondID, err := repo.SaveContractActive(ctx, second)
	if err != nil {
		t.Fatalf("save second contract: %v", err)
	}

	active, err := repo.ActiveContract(ctx)
	if err != nil {
		t.Fatalf("ActiveContract: %v", err)
	}
	if active == nil || active.ID != secondID {
		t.Fatalf("expected contract %d active, got %+v", secondID, active)
	}

	old, err := repo.GetContract(ctx, firstID)
	if err != nil {
		t.Fatalf("GetContract: %v", err)
	}
	if old.IsActive {
		t.Error("first contract should have been deactivated")
	}
}

func TestSaveContractActiveUpdatesExisting(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c := testContract()
	id, err := repo.SaveContractActive(ctx, c)
	if err != nil {
		t.Fatalf("save contract: %v", err)
	}

	c.ID = id
	c.PricePerPortion = core.Money{Cents: 1800000}
	if _, err := repo.SaveContractActive(ctx, c); err != nil {
		t.Fatalf("update contract: %v", err)
	}

	got, err := repo.GetContract(ctx, id)
	if err != nil {
		t.Fatalf("GetContract: %v", err)
	}
	if got.PricePerPortion.Cents != 1800000 {
		t.Errorf("price = %d, want 1800000", got.PricePerPortion.Cents)
	}
	if !got.IsActive {
		t.Error("updated contract should be active")
	}
}

func TestCreateEntryDuplicateDate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.SaveContractActive(ctx, testContract())
	if err != nil {
		t.Fatalf("save contract: %v", err)
	}

	if _, err := repo.CreateEntry(ctx, testEntry(id, 3)); err != nil {
		t.Fatalf("create entry: %v", err)
	}

	_, err = repo.CreateEntry(ctx, testEntry(id, 3))
	if !errors.Is(err, ErrDuplicateDate) {
		t.Fatalf("expected ErrDuplicateDate, got %v", err)
	}
}

func TestEntryLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	contractID, err := repo.SaveContractActive(ctx, testContract())
	if err != nil {
		t.Fatalf("save contract: %v", err)
	}

	e := testEntry(contractID, 5)
	e.PaymentType = core.PaymentCredit
	e.PaidAmount = core.Money{}
	e.CreditDueDate = core.Date{Time: time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)}
	e.Notes = "pembayaran menyusul"

	id, err := repo.CreateEntry(ctx, e)
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}

	got, err := repo.GetEntry(ctx, id, contractID)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if got.PaymentType != core.PaymentCredit {
		t.Errorf("payment type = %q, want CREDIT", got.PaymentType)
	}
	if got.CreditDueDate.IsZero() {
		t.Error("credit due date should survive the round trip")
	}
	if got.Notes != "pembayaran menyusul" {
		t.Errorf("notes = %q", got.Notes)
	}

	got.PaidAmount = core.Money{Cents: 500000000}
	version, err := repo.UpdateEntry(ctx, got)
	if err != nil {
		t.Fatalf("update entry: %v", err)
	}
	if version != 2 {
		t.Errorf("version = %d, want 2", version)
	}

	updated, err := repo.GetEntry(ctx, id, contractID)
	if err != nil {
		t.Fatalf("get updated entry: %v", err)
	}
	if updated.PaidAmount.Cents != 500000000 {
		t.Errorf("paid amount = %d, want 500000000", updated.PaidAmount.Cents)
	}

	if err := repo.DeleteEntry(ctx, id, contractID); err != nil {
		t.Fatalf("delete entry: %v", err)
	}
	if _, err := repo.GetEntry(ctx, id, contractID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestEntryScopedToContract(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	firstID, err := repo.SaveContractActive(ctx, testContract())
	if err != nil {
		t.Fatalf("save first contract: %v", err)
	}
	entryID, err := repo.CreateEntry(ctx, testEntry(firstID, 1))
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}

	second := testContract()
	second.Name = "Kontrak lain"
	secondID, err := repo.SaveContractActive(ctx, second)
	if err != nil {
		t.Fatalf("save second contract: %v", err)
	}

	if _, err := repo.GetEntry(ctx, entryID, secondID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign contract, got %v", err)
	}
	if err := repo.DeleteEntry(ctx, entryID, secondID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on cross-contract delete, got %v", err)
	}
}

func TestListEntriesOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	contractID, err := repo.SaveContractActive(ctx, testContract())
	if err != nil {
		t.Fatalf("save contract: %v", err)
	}
	for _, day := range []int{7, 2, 5} {
		if _, err := repo.CreateEntry(ctx, testEntry(contractID, day)); err != nil {
			t.Fatalf("create entry day %d: %v", day, err)
		}
	}

	asc, err := repo.ListEntries(ctx, contractID)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(asc) != 3 {
		t.Fatalf("len = %d, want 3", len(asc))
	}
	for i := 1; i < len(asc); i++ {
		if asc[i].Date.Before(asc[i-1].Date.Time) {
			t.Errorf("ascending order violated at %d", i)
		}
	}

	desc, err := repo.ListEntriesDesc(ctx, contractID)
	if err != nil {
		t.Fatalf("ListEntriesDesc: %v", err)
	}
	if desc[0].Date.Day() != 7 {
		t.Errorf("newest first, got day %d", desc[0].Date.Day())
	}
}

func TestCashTransactionLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	contractID, err := repo.SaveContractActive(ctx, testContract())
	if err != nil {
		t.Fatalf("save contract: %v", err)
	}

	tx := core.CashTransaction{
		ContractID:  contractID,
		Date:        core.Date{Time: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)},
		Flow:        core.FlowOut,
		Amount:      core.Money{Cents: 25000000},
		Notes:       "Beli gas elpiji",
	}
	id, err := repo.CreateCashTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("create cash transaction: %v", err)
	}

	got, err := repo.GetCashTransaction(ctx, id, contractID)
	if err != nil {
		t.Fatalf("get cash transaction: %v", err)
	}
	if got.Flow != core.FlowOut || got.Amount.Cents != 25000000 {
		t.Errorf("round trip mismatch: %+v", got)
	}

	got.Amount = core.Money{Cents: 30000000}
	if err := repo.UpdateCashTransaction(ctx, got); err != nil {
		t.Fatalf("update cash transaction: %v", err)
	}

	list, err := repo.ListCashTransactions(ctx, contractID)
	if err != nil {
		t.Fatalf("list cash transactions: %v", err)
	}
	if len(list) != 1 || list[0].Amount.Cents != 30000000 {
		t.Fatalf("unexpected list: %+v", list)
	}

	if err := repo.DeleteCashTransaction(ctx, id, contractID); err != nil {
		t.Fatalf("delete cash transaction: %v", err)
	}
	if _, err := repo.GetCashTransaction(ctx, id, contractID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSyncStatusFlow(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	contractID, err := repo.SaveContractActive(ctx, testContract())
	if err != nil {
		t.Fatalf("save contract: %v", err)
	}
	id, err := repo.CreateEntry(ctx, testEntry(contractID, 9))
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}

	pending, err := repo.PendingSyncEntries(ctx, 10)
	if err != nil {
		t.Fatalf("PendingSyncEntries: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != id || pending[0].Version != 1 {
		t.Fatalf("unexpected pending set: %+v", pending)
	}

	if err := repo.MarkEntrySynced(ctx, id, 1); err != nil {
		t.Fatalf("MarkEntrySynced: %v", err)
	}
	pending, err = repo.PendingSyncEntries(ctx, 10)
	if err != nil {
		t.Fatalf("PendingSyncEntries after sync: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty pending set, got %+v", pending)
	}

	// An edit bumps the version and re-queues the entry. A stale synced
	// marker for the old version must not clear it.
	e, err := repo.GetEntry(ctx, id, contractID)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	e.Portions = 960
	if _, err := repo.UpdateEntry(ctx, e); err != nil {
		t.Fatalf("update entry: %v", err)
	}

	if err := repo.MarkEntrySynced(ctx, id, 1); err != nil {
		t.Fatalf("MarkEntrySynced stale: %v", err)
	}
	pending, err = repo.PendingSyncEntries(ctx, 10)
	if err != nil {
		t.Fatalf("PendingSyncEntries after stale mark: %v", err)
	}
	if len(pending) != 1 || pending[0].Version != 2 {
		t.Fatalf("stale mark should not clear pending, got %+v", pending)
	}

	if err := repo.MarkEntrySyncError(ctx, id); err != nil {
		t.Fatalf("MarkEntrySyncError: %v", err)
	}
	pending, err = repo.PendingSyncEntries(ctx, 10)
	if err != nil {
		t.Fatalf("PendingSyncEntries after error: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("errored entry should leave the pending set, got %+v", pending)
	}
}

func TestEntryForSync(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	contractID, err := repo.SaveContractActive(ctx, testContract())
	if err != nil {
		t.Fatalf("save contract: %v", err)
	}
	id, err := repo.CreateEntry(ctx, testEntry(contractID, 11))
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}

	e, c, version, err := repo.EntryForSync(ctx, id)
	if err != nil {
		t.Fatalf("EntryForSync: %v", err)
	}
	if e.ID != id || c.ID != contractID {
		t.Fatalf("mismatched pair: entry %d contract %d", e.ID, c.ID)
	}
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}

	if _, _, _, err := repo.EntryForSync(ctx, id+99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScanContractRejectsMalformedCreatedAt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// A corrupted created_at must surface as an error, not a silent zero
	// timestamp that breaks the newest-created tie-break.
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO contracts (name, start_date, duration_days, price_per_portion_cents,
		                       target_portions_per_day, target_margin_bps, is_active, created_at)
		VALUES ('Rusak', '2026-03-01', 30, 1500000, 1000, 2000, 1, 'not-a-timestamp')`)
	if err != nil {
		t.Fatalf("insert corrupted row: %v", err)
	}

	if _, err := repo.ActiveContract(ctx); err == nil {
		t.Fatal("expected error for malformed created_at")
	}
}
