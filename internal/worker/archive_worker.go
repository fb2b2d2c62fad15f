package worker

import (
	"context"
	"fmt"
	"log/slog"

	"notaspese/internal/amqp"
	"notaspese/internal/sheets"
)

// ArchiveWorker writes closed weeks to the permanent archive.
type ArchiveWorker struct {
	archive sheets.ArchiveWriter
}

func NewArchiveWorker(archive sheets.ArchiveWriter) *ArchiveWorker {
	return &ArchiveWorker{archive: archive}
}

// HandleWeekClosed processes a single week-closed message from AMQP.
// A returned error makes the consumer requeue the message.
func (w *ArchiveWorker) HandleWeekClosed(ctx context.Context, msg *amqp.WeekClosedMessage) error {
	slog.InfoContext(ctx, "Processing week closed message",
		"id", msg.ID,
		"week", msg.Week,
		"year", msg.Year,
		"entries", msg.Entries)

	entries, err := msg.LedgerEntries()
	if err != nil {
		// Undecodable documents would fail forever; log and drop.
		slog.ErrorContext(ctx, "Week document unreadable, skipping archive",
			"id", msg.ID,
			"error", err)
		return nil
	}
	if len(entries) == 0 {
		slog.WarnContext(ctx, "Week closed without entries, nothing to archive", "id", msg.ID)
		return nil
	}

	ref, err := w.archive.AppendWeek(ctx, sheets.Week{
		Number:  msg.Week,
		Year:    msg.Year,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("archive week %d/%d: %w", msg.Week, msg.Year, err)
	}

	slog.InfoContext(ctx, "Successfully archived week",
		"id", msg.ID,
		"range", ref,
		"entries", len(entries),
		"total", msg.Total)
	return nil
}
