package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rumor-ml/commons.systems/txnfold/internal/consolidate"
)

func sampleRows() []consolidate.Row {
	return []consolidate.Row{
		{Kind: "Adjustment", SKU: "FBATF", Description: "carrier fee", Quantity: -1, TotalCents: -350},
		{Kind: "Order", SKU: "SKU-1", Description: "widget", Quantity: 8, TotalCents: 8000},
	}
}

func TestTSVSinkWritesRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tsv")
	sink := NewTSVSink(path)

	if err := sink.Write(Header(), sampleRows()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}

	want := "type\tsku\tdescription\tquantity\ttotal\n" +
		"Adjustment\tFBATF\tcarrier fee\t-1\t-3.5\n" +
		"Order\tSKU-1\twidget\t8\t80\n"
	if string(got) != want {
		t.Errorf("output mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestTSVSinkDeterministic(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.tsv")
	second := filepath.Join(dir, "b.tsv")

	if err := NewTSVSink(first).Write(Header(), sampleRows()); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := NewTSVSink(second).Write(Header(), sampleRows()); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("failed to read first file: %v", err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("failed to read second file: %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("identical rows produced different bytes:\n%s\nvs\n%s", a, b)
	}
}

func TestTSVSinkEmptyReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.tsv")

	if err := NewTSVSink(path).Write(Header(), nil); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}
	if want := "type\tsku\tdescription\tquantity\ttotal\n"; string(got) != want {
		t.Errorf("expected header-only file, got %q", got)
	}
}

func TestTSVSinkRefusesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tsv")
	if err := os.WriteFile(path, []byte("earlier artifact\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := NewTSVSink(path).Write(Header(), sampleRows()); err == nil {
		t.Fatal("expected error when the artifact path already exists")
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "earlier artifact\n" {
		t.Errorf("existing file was overwritten, now holds %q", got)
	}
}

func TestTSVSinkCreateFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.tsv")

	err := NewTSVSink(path).Write(Header(), sampleRows())
	if err == nil {
		t.Fatal("expected error when the output directory does not exist")
	}
}

func TestTSVSinkName(t *testing.T) {
	if got := NewTSVSink("/tmp/out.tsv").Name(); got != "/tmp/out.tsv" {
		t.Errorf("Name() = %q, want %q", got, "/tmp/out.tsv")
	}
}
