package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	assert.NotNil(t, rootCmd, "rootCmd should be defined")
	assert.Equal(t, "ledgerctl", rootCmd.Use)
	assert.Contains(t, rootCmd.Short, "FinanceFlow ledger")

	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"summary", "budgets", "export", "import", "reset"})
}

func useSQLite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "ledger.db"))
	t.Setenv("AMQP_URL", "")
	t.Cleanup(closeLedger)
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSummaryOfSeedLedger(t *testing.T) {
	useSQLite(t)

	out, err := run(t, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Balance")
	assert.Contains(t, out, "1141.31")
	assert.Contains(t, out, "Food")

	_, err = run(t, "summary", "--month", "June")
	assert.Error(t, err)
	monthFlag = ""
}

func TestImportExportAndResetPersist(t *testing.T) {
	dir := useSQLite(t)

	csvPath := filepath.Join(dir, "bank.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("date,type,amount,note\n2024-02-03,expense,19.99,books\nbad-date,expense,1,x\n"), 0o600))

	out, err := run(t, "import", "csv", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 transactions, skipped 1 rows")

	exportPath := filepath.Join(dir, "out.csv")
	_, err = run(t, "export", "csv", "-o", exportPath)
	require.NoError(t, err)
	outputFlag = ""
	body, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.Contains(t, string(body), "books", "the import reached the durable record")

	out, err = run(t, "export", "json")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Len(t, doc["transactions"], 4)

	_, err = run(t, "export", "xml")
	assert.Error(t, err)

	_, err = run(t, "reset")
	assert.ErrorContains(t, err, "--yes")

	out, err = run(t, "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Ledger reset")
	yesFlag = false

	out, err = run(t, "export", "csv")
	require.NoError(t, err)
	assert.NotContains(t, out, "books")
}

func TestImportRejectsUnknownFormat(t *testing.T) {
	useSQLite(t)
	_, err := run(t, "import", "xml", "whatever.xml")
	assert.ErrorContains(t, err, "unknown import format")
}

func TestBudgetsWithoutBudgets(t *testing.T) {
	useSQLite(t)
	out, err := run(t, "budgets", "--month", "2024-01")
	require.NoError(t, err)
	assert.Contains(t, out, "No budgets for 2024-01")
	monthFlag = ""
}
