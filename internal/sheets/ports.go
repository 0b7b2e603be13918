// Package sheets defines the outbound port for mirroring the ledger into a
// spreadsheet.
package sheets

import "context"

// Ports for outbound adapters.
type (
	// TableWriter replaces the whole content of one sheet with header
	// followed by rows.
	TableWriter interface {
		ReplaceTable(ctx context.Context, header []string, rows [][]string) error
	}
)
