// Package worker mirrors the ledger's transaction table into a spreadsheet
// whenever the API announces a new snapshot.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"financeflow/internal/amqp"
	"financeflow/internal/codec"
	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/sheets"
	"financeflow/internal/storage"
)

// Loader returns the latest durable snapshot without seeding defaults.
// *store.Store satisfies it.
type Loader interface {
	LoadStored(ctx context.Context) (core.Snapshot, error)
}

// MirrorWorker rewrites the whole sheet from the latest snapshot. Messages
// only say that something changed, so a burst of them collapses into
// identical writes and a lost message is fixed by the next one.
type MirrorWorker struct {
	loader Loader
	writer sheets.TableWriter
	logger *log.Logger

	mu      sync.Mutex
	mirrors int
}

func NewMirrorWorker(loader Loader, writer sheets.TableWriter, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &MirrorWorker{
		loader: loader,
		writer: writer,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleSnapshotChanged processes a single message from AMQP.
func (w *MirrorWorker) HandleSnapshotChanged(ctx context.Context, msg *amqp.SnapshotChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing snapshot changed message",
		log.FieldRevision, msg.Revision,
		log.FieldReason, msg.Reason)
	return w.MirrorNow(ctx)
}

// MirrorNow loads the snapshot and replaces the sheet with its transactions.
// With no stored record (a fresh or reset ledger) the sheet keeps only its
// header; the seed ledger is never mirrored.
func (w *MirrorWorker) MirrorNow(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var rows [][]string
	snap, err := w.loader.LoadStored(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		w.logger.InfoContext(ctx, "No stored snapshot, clearing mirror", log.FieldOperation, log.OpMirror)
	case err != nil:
		return fmt.Errorf("load snapshot: %w", err)
	default:
		rows = codec.CSVRows(snap)
	}
	if err := w.writer.ReplaceTable(ctx, codec.CSVHeader, rows); err != nil {
		return fmt.Errorf("mirror to sheets: %w", err)
	}
	w.mirrors++

	w.logger.InfoContext(ctx, "Ledger mirrored",
		log.FieldOperation, log.OpMirror,
		log.FieldRows, len(rows))
	return nil
}

// Mirrors counts successful mirror runs.
func (w *MirrorWorker) Mirrors() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mirrors
}
