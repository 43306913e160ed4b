package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// EscapeCSV quotes a field containing a comma, a double quote or a line
// break, doubling the quotes inside.
func EscapeCSV(v string) string {
	if !strings.ContainsAny(v, ",\"\n\r") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

func WriteCSV(w io.Writer, rows []Row) error {
	bw := bufio.NewWriter(w)
	writeLine := func(fields []string) {
		for i, f := range fields {
			if i > 0 {
				bw.WriteByte(',')
			}
			bw.WriteString(EscapeCSV(f))
		}
		bw.WriteByte('\n')
	}
	writeLine(Header)
	for _, r := range rows {
		writeLine(r.Values())
	}
	return bw.Flush()
}

const sheetName = "Bookings"

func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	for i, h := range Header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}
	for i, r := range rows {
		for j, v := range r.Values() {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", i+2, err)
			}
		}
	}
	return f.Write(w)
}
