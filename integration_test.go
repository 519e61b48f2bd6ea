package txnfold_test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// buildTxnfold compiles the CLI into a temp dir for end-to-end tests.
func buildTxnfold(t *testing.T) string {
	t.Helper()

	bin := filepath.Join(t.TempDir(), "txnfold")
	cmd := exec.Command("go", "build", "-o", bin, "./cmd/txnfold")
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build txnfold: %v\nOutput: %s", err, output)
	}
	return bin
}

// writeReport lays down a report fixture in the embedded profile's layout.
func writeReport(t *testing.T, dir, name string, rows ...string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("Settlement report\n")
	for i := 1; i < 7; i++ {
		fmt.Fprintf(&b, "preamble line %d\n", i)
	}
	b.WriteString("date/time,type,sku,total,quantity,description\n")
	for _, row := range rows {
		b.WriteString(row + "\n")
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestIntegration_MultiReportRun verifies that one invocation processes
// several reports in order and that a row shared between them folds once.
func TestIntegration_MultiReportRun(t *testing.T) {
	bin := buildTxnfold(t)
	tmpDir := t.TempDir()

	shared := "2024-01-15 10:00 UTC,Order,SKU-1,30.00,3,widget"
	reportA := writeReport(t, tmpDir, "a.csv",
		shared,
		"2024-01-16 11:00 UTC,Order,SKU-2,20.00,2,gadget",
	)
	reportB := writeReport(t, tmpDir, "b.csv",
		shared,
		"2024-01-17 12:00 UTC,FBA fee,,-3.50,,carrier fee",
	)
	statePath := filepath.Join(tmpDir, "memory")

	cmd := exec.Command(bin, "-state", statePath, "-output-dir", tmpDir, reportA, reportB)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("run failed: %v\nOutput:\n%s", err, output)
	}

	if !strings.Contains(string(output), "Consolidated 2 report(s): 4 rows, 3 folded, 1 already remembered") {
		t.Errorf("unexpected run summary:\n%s", output)
	}

	artifacts, err := filepath.Glob(filepath.Join(tmpDir, "OUTPUT-*.tsv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("expected one artifact per report, found %v", artifacts)
	}

	// All three distinct rows must be remembered.
	state, err := os.ReadFile(statePath)
	if err != nil {
		t.Fatalf("memory file missing after run: %v", err)
	}
	if lines := strings.Count(string(state), "\n"); lines != 3 {
		t.Errorf("expected 3 remembered fingerprints, got %d:\n%s", lines, state)
	}
}

// TestIntegration_WorkbookArtifact verifies the xlsx output end to end.
func TestIntegration_WorkbookArtifact(t *testing.T) {
	bin := buildTxnfold(t)
	tmpDir := t.TempDir()

	report := writeReport(t, tmpDir, "report.csv",
		"2024-01-15 10:00 UTC,Order,SKU-1,30.00,3,widget",
		"2024-01-17 12:00 UTC,FBA fee,,-3.50,,carrier fee",
	)
	statePath := filepath.Join(tmpDir, "memory")

	cmd := exec.Command(bin, "-format", "xlsx", "-state", statePath, "-output-dir", tmpDir, report)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("run failed: %v\nOutput:\n%s", err, output)
	}

	artifacts, err := filepath.Glob(filepath.Join(tmpDir, "OUTPUT-*.xlsx"))
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("expected 1 workbook artifact, found %v", artifacts)
	}

	f, err := excelize.OpenFile(artifacts[0])
	if err != nil {
		t.Fatalf("artifact is not a readable workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Consolidated")
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"type", "sku", "description", "quantity", "total"},
		{"FBA fee", "FBATF", "carrier fee", "-1", "-3.5"},
		{"Order", "SKU-1", "widget", "3", "30"},
	}
	if len(rows) != len(want) {
		t.Fatalf("workbook rows = %v, want %v", rows, want)
	}
	for i := range want {
		if strings.Join(rows[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("workbook row %d = %v, want %v", i, rows[i], want[i])
		}
	}
}

// TestIntegration_SQLiteMemory verifies that fingerprints survive between
// runs when kept in SQLite.
func TestIntegration_SQLiteMemory(t *testing.T) {
	bin := buildTxnfold(t)
	tmpDir := t.TempDir()

	report := writeReport(t, tmpDir, "report.csv",
		"2024-01-15 10:00 UTC,Order,SKU-1,30.00,3,widget",
		"2024-01-17 12:00 UTC,FBA fee,,-3.50,,carrier fee",
	)
	dbPath := filepath.Join(tmpDir, "memory.db")

	first := exec.Command(bin, "-state", dbPath, "-state-format", "sqlite", "-output-dir", tmpDir, report)
	output, err := first.CombinedOutput()
	if err != nil {
		t.Fatalf("first run failed: %v\nOutput:\n%s", err, output)
	}
	if !strings.Contains(string(output), "2 rows, 2 folded, 0 already remembered") {
		t.Errorf("unexpected first run summary:\n%s", output)
	}

	second := exec.Command(bin, "-state", dbPath, "-state-format", "sqlite", "-output-dir", tmpDir, report)
	output, err = second.CombinedOutput()
	if err != nil {
		t.Fatalf("second run failed: %v\nOutput:\n%s", err, output)
	}
	if !strings.Contains(string(output), "2 rows, 0 folded, 2 already remembered") {
		t.Errorf("unexpected second run summary:\n%s", output)
	}
}

// TestIntegration_CustomProfile drives a report with a different preamble,
// delimiter, and adjustment sentinel through the -profile flag.
func TestIntegration_CustomProfile(t *testing.T) {
	bin := buildTxnfold(t)
	tmpDir := t.TempDir()

	profilePath := filepath.Join(tmpDir, "custom.yaml")
	profileYAML := `name: custom-v1
preamble_rows: 1
delimiter: ";"
adjustment_sku: ADJ
columns:
  datetime: [when]
  kind: [type]
  sku: [item]
  total: [amount]
  quantity: [count]
  description: [note]
`
	if err := os.WriteFile(profilePath, []byte(profileYAML), 0644); err != nil {
		t.Fatal(err)
	}

	reportPath := filepath.Join(tmpDir, "report.csv")
	reportBody := "exported 2024-02-01\n" +
		"when;type;item;amount;count;note\n" +
		"2024-01-15 10:00;Refund;;-5,00;;postage credit\n"
	if err := os.WriteFile(reportPath, []byte(reportBody), 0644); err != nil {
		t.Fatal(err)
	}

	statePath := filepath.Join(tmpDir, "memory")
	cmd := exec.Command(bin, "-profile", profilePath, "-state", statePath, "-output-dir", tmpDir, reportPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("run failed: %v\nOutput:\n%s", err, output)
	}

	artifacts, err := filepath.Glob(filepath.Join(tmpDir, "OUTPUT-*.tsv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("expected 1 artifact, found %v", artifacts)
	}

	content, err := os.ReadFile(artifacts[0])
	if err != nil {
		t.Fatal(err)
	}
	want := "type\tsku\tdescription\tquantity\ttotal\n" +
		"Refund\tADJ\tpostage credit\t-1\t-5\n"
	if string(content) != want {
		t.Errorf("artifact mismatch:\ngot:\n%s\nwant:\n%s", content, want)
	}
}
