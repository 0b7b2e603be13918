package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/selectors"
)

var (
	monthFlag  string
	outputFlag string
	yesFlag    bool
)

func init() {
	summaryCmd.Flags().StringVar(&monthFlag, "month", "", "month as YYYY-MM (default: current month)")
	budgetsCmd.Flags().StringVar(&monthFlag, "month", "", "month as YYYY-MM (default: current month)")
	exportCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "write to this file instead of stdout")
	resetCmd.Flags().BoolVar(&yesFlag, "yes", false, "confirm wiping the ledger")
}

func selectedMonth() (core.Month, error) {
	if strings.TrimSpace(monthFlag) == "" {
		return app.ledger.Today().YearMonth(), nil
	}
	m, err := core.ParseMonth(monthFlag)
	if err != nil {
		return core.Month{}, fmt.Errorf("--month: %w", err)
	}
	return m, nil
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the balance, month totals and spending by category",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		month, err := selectedMonth()
		if err != nil {
			return err
		}
		snap, _ := app.ledger.Current()
		totals := selectors.MonthTotals(snap, month)
		cur := snap.Settings.Currency

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Month\t%s\n", month)
		fmt.Fprintf(w, "Balance\t%s %s\n", selectors.BalanceAllTime(snap).Fixed(), cur)
		fmt.Fprintf(w, "Income\t%s\n", totals.Income.Fixed())
		fmt.Fprintf(w, "Expense\t%s\n", totals.Expense.Fixed())
		fmt.Fprintf(w, "Net\t%s\n", totals.Net.Fixed())

		if cats := selectors.ExpensesByCategory(snap, selectors.MonthRange(month)); len(cats) > 0 {
			fmt.Fprintf(w, "\nCategory\tSpent\n")
			for _, c := range cats {
				fmt.Fprintf(w, "%s\t%s\n", c.Label, c.Value.Fixed())
			}
		}
		return w.Flush()
	},
}

var budgetsCmd = &cobra.Command{
	Use:   "budgets",
	Short: "Print budget progress for a month",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		month, err := selectedMonth()
		if err != nil {
			return err
		}
		snap, _ := app.ledger.Current()
		lines := selectors.BudgetProgress(snap, month)
		if len(lines) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No budgets for %s\n", month)
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Category\tSpent\tLimit\tPercent\tRemaining\tStatus\n")
		for _, l := range lines {
			status := "ok"
			switch {
			case l.IsOver:
				status = "OVER"
			case l.Percent >= selectors.NearLimitPercent:
				status = "near"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%.0f%%\t%s\t%s\n",
				l.Category.Name, l.Spent.Fixed(), l.Limit.Fixed(), l.Percent, l.Remaining.Fixed(), status)
		}
		return w.Flush()
	},
}

var exportCmd = &cobra.Command{
	Use:       "export json|csv",
	Short:     "Export the ledger as a JSON backup or a CSV transaction table",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"json", "csv"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var buf bytes.Buffer
		switch args[0] {
		case "json":
			body, err := app.ledger.ExportJSON(cmd.Context())
			if err != nil {
				return err
			}
			buf.Write(body)
		case "csv":
			if err := app.ledger.ExportCSV(cmd.Context(), &buf); err != nil {
				return err
			}
		}

		if outputFlag == "" {
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := os.WriteFile(outputFlag, buf.Bytes(), 0o600); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		app.logger.InfoContext(cmd.Context(), "Ledger exported",
			log.FieldOperation, log.OpExport, "format", args[0], log.FieldBytes, buf.Len())
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outputFlag)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import json|csv <file>",
	Short: "Replace the ledger from a JSON backup or append rows from a CSV file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, path := args[0], args[1]
		if format != "json" && format != "csv" {
			return fmt.Errorf("unknown import format %q: use json or csv", format)
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open import: %w", err)
		}
		defer f.Close()

		return runImport(cmd.Context(), cmd.OutOrStdout(), format, f)
	},
}

func runImport(ctx context.Context, out io.Writer, format string, r io.Reader) error {
	if format == "json" {
		if err := app.ledger.ImportJSON(ctx, r); err != nil {
			return err
		}
		snap, rev := app.ledger.Current()
		fmt.Fprintf(out, "Replaced ledger: %d transactions, %d budgets, %d goals (revision %d)\n",
			len(snap.Transactions), len(snap.Budgets), len(snap.Goals), rev)
		return nil
	}

	res, err := app.ledger.ImportCSV(ctx, r)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Imported %d transactions, skipped %d rows\n", len(res.Transactions), res.Skipped)
	return nil
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe the ledger back to its seed data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !yesFlag {
			return fmt.Errorf("refusing to reset without --yes")
		}
		if err := app.ledger.Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Ledger reset")
		return nil
	},
}
