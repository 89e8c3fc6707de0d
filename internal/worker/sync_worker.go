// Package worker mirrors daily entries from SQLite to the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"porsi/internal/amqp"
	"porsi/internal/sheets"
	"porsi/internal/storage"
)

// SyncWorker consumes entry sync messages and keeps the mirror current.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	mirror    sheets.EntryMirror
	remover   sheets.EntryRemover
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, mirror sheets.EntryMirror, remover sheets.EntryRemover, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		mirror:    mirror,
		remover:   remover,
		batchSize: batchSize,
	}
}

// HandleMessage processes one sync message. An entry that was deleted
// before its upsert message arrived is treated as done.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.EntrySyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version,
		"op", msg.Op)

	switch msg.Op {
	case amqp.OpDelete:
		return w.removeFromMirror(ctx, msg.ID)
	case amqp.OpUpsert, "":
		return w.syncEntry(ctx, msg.ID)
	default:
		slog.WarnContext(ctx, "Unknown sync op, dropping message", "op", msg.Op, "id", msg.ID)
		return nil
	}
}

func (w *SyncWorker) syncEntry(ctx context.Context, id int64) error {
	e, c, version, err := w.storage.EntryForSync(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		slog.InfoContext(ctx, "Entry no longer exists, skipping sync", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load entry for sync: %w", err)
	}

	ref, err := w.mirror.UpsertEntry(ctx, e, c)
	if err != nil {
		if markErr := w.storage.MarkEntrySyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("mirror entry: %w", err)
	}

	if err := w.storage.MarkEntrySynced(ctx, id, version); err != nil {
		// The mirror write worked, only the marker failed.
		slog.ErrorContext(ctx, "Failed to mark entry synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Entry synced",
		"id", id,
		"version", version,
		"sheets_ref", ref)

	return nil
}

func (w *SyncWorker) removeFromMirror(ctx context.Context, id int64) error {
	if w.remover == nil {
		slog.WarnContext(ctx, "No mirror remover configured, skipping removal", "id", id)
		return nil
	}

	if err := w.remover.RemoveEntry(ctx, id); err != nil {
		return fmt.Errorf("remove entry from mirror: %w", err)
	}

	slog.InfoContext(ctx, "Entry removed from mirror", "id", id)
	return nil
}

// ProcessPendingEntries sweeps entries still marked pending. This is the
// backup path for lost AMQP messages and the body of the nightly resync.
func (w *SyncWorker) ProcessPendingEntries(ctx context.Context) error {
	pending, err := w.storage.PendingSyncEntries(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending entries: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending entries", "count", len(pending))

	successCount := 0
	for _, p := range pending {
		if err := w.syncEntry(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync pending entry", "id", p.ID, "error", err)
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Pending sweep completed",
		"total", len(pending),
		"synced", successCount)

	return nil
}

// StartupSyncCheck recovers entries missed while the worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.PendingSyncEntries(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending entries for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending entries found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending entries on startup, processing...",
		"count", len(pending))

	for _, p := range pending {
		if err := w.syncEntry(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync entry during startup", "id", p.ID, "error", err)
		}
	}

	return nil
}
