// Package sheets defines the outbound ports for the spreadsheet mirror.
package sheets

import (
	"context"

	"porsi/internal/core"
)

type (
	// EntryMirror writes daily entries to the mirror. UpsertEntry replaces
	// the row when the entry was mirrored before, so retries are safe.
	EntryMirror interface {
		UpsertEntry(ctx context.Context, e core.DailyEntry, c core.Contract) (rowRef string, err error)
	}

	// EntryRemover deletes a mirrored entry row by its database ID.
	EntryRemover interface {
		RemoveEntry(ctx context.Context, id int64) error
	}
)
