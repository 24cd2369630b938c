package spreadsheet_test

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/blindmarkctl/blindmark/internal/spreadsheet"
)

func writeWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, cell := range row {
			axis, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("CoordinatesToCellName: %v", err)
			}
			if err := f.SetCellValue(sheet, axis, cell); err != nil {
				t.Fatalf("SetCellValue: %v", err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "watermarks.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestReadWatermarksSkipsHeaderAndStopsAtEmptyCell(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"header"},
		{"alpha"},
		{"beta"},
		{""},
		{"gamma"}, // should never be reached
	})

	got, err := spreadsheet.ReadWatermarks(path)
	if err != nil {
		t.Fatalf("ReadWatermarks: %v", err)
	}
	want := []string{"alpha", "beta"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReadWatermarksNoDataIsError(t *testing.T) {
	path := writeWorkbook(t, [][]string{{"header"}})
	if _, err := spreadsheet.ReadWatermarks(path); err == nil {
		t.Fatal("expected an error when column A has no data rows")
	}
}
