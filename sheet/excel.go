package sheet

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"setsplit-server-go/models"
)

var (
	// ErrNoSheets is returned for a workbook without worksheets.
	ErrNoSheets = errors.New("excel file does not contain any sheets")
	// ErrUnsupportedFormat is returned for files excelize cannot read.
	ErrUnsupportedFormat = errors.New("invalid file type, please upload an .xlsx file")
)

const (
	isoDate = "2006-01-02"
	// maxExcelSerial is 9999-12-31, the last date Excel can represent.
	maxExcelSerial = 2958465
)

// Options controls how a workbook is decoded.
type Options struct {
	// DateColumns hold Excel serial dates when the cell is numeric.
	DateColumns []string
	Logger      *zap.Logger
}

// DefaultOptions decodes the DOB column as a date.
func DefaultOptions(logger *zap.Logger) Options {
	return Options{DateColumns: []string{models.ColDOB}, Logger: logger}
}

// IsSupported reports whether a file name has an extension excelize reads.
func IsSupported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// Decode reads the first sheet of a workbook. Row 1 is the header; blank
// rows are skipped.
func Decode(r io.Reader, opts Options) (*models.Table, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		logger.Error("Error opening Excel reader", zap.Error(err))
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Error closing excel file", zap.Error(err))
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		logger.Error("Error getting rows", zap.String("sheet", sheetName), zap.Error(err))
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}

	table := &models.Table{Columns: []string{}, Rows: []map[string]string{}}
	if len(rows) == 0 {
		return table, nil
	}
	for _, h := range rows[0] {
		table.Columns = append(table.Columns, strings.TrimSpace(h))
	}

	dateCols := make(map[string]bool, len(opts.DateColumns))
	for _, c := range opts.DateColumns {
		dateCols[c] = true
	}
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rec := make(map[string]string, len(table.Columns))
		for j, col := range table.Columns {
			if col == "" {
				continue
			}
			var v string
			if j < len(row) {
				v = strings.TrimSpace(row[j])
			}
			if dateCols[col] && v != "" && isNumericCell(f, sheetName, j+1, i+2) {
				v = serialToDate(v, date1904, logger, i+2)
			}
			rec[col] = v
		}
		table.Rows = append(table.Rows, rec)
	}

	logger.Info("Decoded sheet",
		zap.String("sheet", sheetName),
		zap.Int("columns", len(table.Columns)),
		zap.Int("rows", len(table.Rows)))
	return table, nil
}

// isNumericCell reports whether a cell stores a number rather than text.
// Numbers and dates are written without a type attribute, so an unset type
// counts as numeric.
func isNumericCell(f *excelize.File, sheetName string, col, row int) bool {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return false
	}
	typ, err := f.GetCellType(sheetName, cell)
	if err != nil {
		return false
	}
	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber, excelize.CellTypeDate:
		return true
	}
	return false
}

// serialToDate converts a numeric cell to YYYY-MM-DD. Values that are not
// numbers in Excel's date range pass through untouched.
func serialToDate(v string, date1904 bool, logger *zap.Logger, rowNum int) string {
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	if serial <= 0 || serial > maxExcelSerial {
		logger.Warn("Number out of Excel date range", zap.Int("row", rowNum), zap.String("value", v))
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		logger.Warn("Invalid Excel serial date", zap.Int("row", rowNum), zap.String("value", v), zap.Error(err))
		return v
	}
	return t.Format(isoDate)
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
