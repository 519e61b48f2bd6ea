package output

import (
	"fmt"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/rumor-ml/commons.systems/txnfold/internal/consolidate"
	"github.com/rumor-ml/commons.systems/txnfold/internal/money"
)

// workbookSheet is the sheet consolidated rows land on.
const workbookSheet = "Consolidated"

// WorkbookSink writes the consolidated report as a spreadsheet workbook
// with a bold, frozen header row.
type WorkbookSink struct {
	path string
}

// NewWorkbookSink creates a sink writing to path.
func NewWorkbookSink(path string) *WorkbookSink {
	return &WorkbookSink{path: path}
}

// Name returns the artifact path.
func (s *WorkbookSink) Name() string { return s.path }

// Write renders the workbook and saves it in one shot. The file is
// created exclusively, so a path that already exists is an error, never
// truncated. Amounts keep their exact decimal string form rather than
// becoming float cells.
func (s *WorkbookSink) Write(header []string, rows []consolidate.Row) (err error) {
	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close workbook %s: %w", s.path, closeErr)
		}
	}()

	f.SetSheetName("Sheet1", workbookSheet)

	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to address header cell: %w", err)
		}
		if err := f.SetCellValue(workbookSheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header cell %s: %w", cell, err)
		}
	}

	for i, row := range rows {
		values := []string{
			row.Kind,
			row.SKU,
			row.Description,
			strconv.FormatInt(row.Quantity, 10),
			money.FormatDollars(row.TotalCents),
		}
		for j, v := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return fmt.Errorf("failed to address cell: %w", err)
			}
			if err := f.SetCellValue(workbookSheet, cell, v); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(workbookSheet, "A1", "E1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	f.SetColWidth(workbookSheet, "A", "A", 22) // type
	f.SetColWidth(workbookSheet, "B", "B", 16) // sku
	f.SetColWidth(workbookSheet, "C", "C", 50) // description
	f.SetColWidth(workbookSheet, "D", "D", 10) // quantity
	f.SetColWidth(workbookSheet, "E", "E", 14) // total

	f.SetPanes(workbookSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	out, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", s.path, err)
	}
	if err := f.Write(out); err != nil {
		out.Close()
		return fmt.Errorf("failed to save workbook %s: %w", s.path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close output file %s: %w", s.path, err)
	}
	return nil
}
