package sheets

import (
	"context"

	"notaspese/internal/core"
)

// Ports for outbound adapters.
type (
	// ArchiveWriter keeps a permanent record of closed weeks.
	ArchiveWriter interface {
		// AppendWeek appends one row per entry of the closed week and returns
		// the written range.
		AppendWeek(ctx context.Context, week Week) (ref string, err error)
	}

	Week struct {
		Number  int
		Year    int
		Entries []core.Entry
	}
)
