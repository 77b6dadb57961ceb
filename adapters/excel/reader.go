package excel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

var (
	ErrFileNotFound    = errors.New("workbook not found")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrEmptySheet      = errors.New("sheet must have a header row and at least one data row")
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	log      logrus.FieldLogger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType, log: logrus.StandardLogger()}
}

// WithLogger replaces the reader's logger
func (r *DataReader) WithLogger(l logrus.FieldLogger) *DataReader {
	if l != nil {
		r.log = l
	}
	return r
}

// ReadSheets reads every sheet of a workbook, or the single table of a CSV
// file. Sheets with fewer than two rows are skipped for workbooks and are an
// error for CSV.
func (r *DataReader) ReadSheets() ([]*SheetData, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, r.filePath)
	}

	switch r.fileType {
	case "csv":
		sheet, err := r.readCSV()
		if err != nil {
			return nil, err
		}
		return []*SheetData{sheet}, nil
	case "xlsx":
		return r.readWorkbook()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, r.fileType)
	}
}

func (r *DataReader) readWorkbook() ([]*SheetData, error) {
	start := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	var sheets []*SheetData
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		if len(rows) < 2 {
			r.log.WithField("sheet", name).Debug("skipping sheet without data rows")
			continue
		}
		sheets = append(sheets, processRows(name, rows))
	}

	r.log.WithFields(logrus.Fields{
		"file":       r.filePath,
		"sheets":     len(sheets),
		"elapsed_ms": float64(time.Since(start).Microseconds()) / 1000,
	}).Debug("workbook read")

	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySheet, r.filePath)
	}
	return sheets, nil
}

func (r *DataReader) readCSV() (*SheetData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySheet, r.filePath)
	}

	name := strings.TrimSuffix(filepath.Base(r.filePath), filepath.Ext(r.filePath))
	r.log.WithFields(logrus.Fields{"file": r.filePath, "rows": len(rows) - 1}).Debug("csv read")
	return processRows(name, rows), nil
}

// processRows converts raw string rows into SheetData. Blank rows are dropped.
func processRows(name string, rows [][]string) *SheetData {
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = normalizeHeader(h)
	}

	var data []RawRowData
	for _, row := range rows[1:] {
		rowData := make(RawRowData)
		blank := true
		for j, cell := range row {
			if j >= len(headers) {
				break
			}
			cell = strings.TrimSpace(cell)
			if cell != "" {
				blank = false
			}
			rowData[headers[j]] = cell
		}
		if !blank {
			data = append(data, rowData)
		}
	}

	return &SheetData{Name: name, Headers: headers, Rows: data}
}
