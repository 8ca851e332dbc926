package sink

import (
	"context"

	"go.uber.org/zap"

	"github.com/adsync-io/adsync/pkg/errors"
	"github.com/adsync-io/adsync/pkg/logger"
	"github.com/adsync-io/adsync/pkg/records"
)

// Writer routes record sets to tables and tracks, per table, whether a
// load has succeeded yet this run. The first successful load of a
// table replaces its contents; every load after that appends. A failed
// load leaves the flag alone, so the next account's data still gets
// the replace. Route is called from a single consumer goroutine, which
// is why the state map needs no lock.
type Writer struct {
	tw      TableWriter
	written map[string]bool
	counts  map[string]int
	logger  *zap.Logger
}

// NewWriter wraps a TableWriter with first-write tracking.
func NewWriter(tw TableWriter) *Writer {
	return &Writer{
		tw:      tw,
		written: make(map[string]bool),
		counts:  make(map[string]int),
		logger:  logger.With(zap.String("component", "sink")),
	}
}

// Route loads set into table. Empty sets are skipped without touching
// the write state. Load failures are logged and returned but never
// abort the run; the caller decides what to do with the error.
func (w *Writer) Route(ctx context.Context, table string, set *records.RecordSet) error {
	if set.Empty() {
		w.logger.Debug("skipping empty record set", zap.String("table", table))
		return nil
	}

	truncate := !w.written[table]
	if err := w.tw.Write(ctx, table, set, truncate); err != nil {
		w.logger.Error("load failed",
			zap.String("table", table),
			zap.Int("rows", set.Len()),
			zap.Bool("truncate", truncate),
			zap.Bool("retryable", errors.IsRetryable(err)),
			zap.Error(err))
		return err
	}

	w.written[table] = true
	w.counts[table] += set.Len()
	return nil
}

// RowsLoaded reports the total rows successfully loaded into table so
// far this run.
func (w *Writer) RowsLoaded(table string) int {
	return w.counts[table]
}
