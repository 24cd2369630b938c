// Package spreadsheet reads a column of watermark strings from an xlsx
// workbook, the batch-mode input alternative to a single watermark
// string.
package spreadsheet

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/blindmarkctl/blindmark/internal/blinderr"
)

// ReadWatermarks reads column A of the first worksheet in path, treating
// row 1 as a header and stopping at the first empty cell, per spec.md's
// spreadsheet contract. Row 2 becomes watermarks[0], row 3 becomes
// watermarks[1], and so on — the same order in which Scan enumerates
// images, so row N always targets image N.
func ReadWatermarks(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, blinderr.Wrap(blinderr.Spreadsheet, err, "open spreadsheet")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, blinderr.New(blinderr.Spreadsheet, "spreadsheet has no worksheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, blinderr.Wrap(blinderr.Spreadsheet, err, "read worksheet rows")
	}

	var watermarks []string
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 {
			break
		}
		text := strings.TrimSpace(row[0])
		if text == "" {
			break
		}
		watermarks = append(watermarks, row[0])
	}

	if len(watermarks) == 0 {
		return nil, blinderr.New(blinderr.Spreadsheet,
			fmt.Sprintf("no watermark text found in column A of %s (row 1 is treated as a header)", path))
	}
	return watermarks, nil
}
