package services

import (
	"context"
	"fmt"
	"log/slog"

	"porsi/internal/amqp"
	"porsi/internal/core"
	"porsi/internal/storage"
)

// EntryService orchestrates daily entry writes across SQLite and AMQP.
// SQLite is the system of record; publishing the mirror message is best
// effort and never fails the request.
type EntryService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewEntryService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *EntryService {
	return &EntryService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// CreateEntry validates, normalizes and saves an entry for the contract,
// then queues a mirror update.
func (s *EntryService) CreateEntry(ctx context.Context, c core.Contract, e core.DailyEntry) (int64, error) {
	e = e.NormalizeForSave(c)
	if err := e.Validate(); err != nil {
		return 0, err
	}

	id, err := s.storage.CreateEntry(ctx, e)
	if err != nil {
		return 0, err
	}

	if err := s.publishSyncMessage(ctx, id, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", id, "error", err)
	}

	return id, nil
}

// UpdateEntry validates, normalizes and rewrites an entry, then queues a
// mirror update carrying the bumped version.
func (s *EntryService) UpdateEntry(ctx context.Context, c core.Contract, e core.DailyEntry) error {
	id := e.ID
	e = e.NormalizeForSave(c)
	e.ID = id
	if err := e.Validate(); err != nil {
		return err
	}

	version, err := s.storage.UpdateEntry(ctx, e)
	if err != nil {
		return err
	}

	if err := s.publishSyncMessage(ctx, e.ID, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", e.ID, "version", version, "error", err)
	}

	return nil
}

// DeleteEntry removes an entry and queues removal of its mirrored row.
func (s *EntryService) DeleteEntry(ctx context.Context, id, contractID int64) error {
	e, err := s.storage.GetEntry(ctx, id, contractID)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteEntry(ctx, id, contractID); err != nil {
		return err
	}

	if err := s.publishDeleteMessage(ctx, id, e.Date.Format("2006-01-02")); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"id", id, "error", err)
	}

	return nil
}

func (s *EntryService) publishSyncMessage(ctx context.Context, id, version int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.amqpClient.PublishEntrySync(ctx, id, version)
}

func (s *EntryService) publishDeleteMessage(ctx context.Context, id int64, entryDate string) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping delete message")
		return nil
	}
	return s.amqpClient.PublishEntryDelete(ctx, id, entryDate)
}

// Close closes both storage and AMQP connections.
func (s *EntryService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close entry service: %v", errs)
	}

	return nil
}
