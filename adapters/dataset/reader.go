// Package dataset reads elliptic-curve records from CSV and Excel files
// and writes detection results back out in the same formats.
package dataset

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/wsuduce/ghost-rank/domain/curve"
	"github.com/wsuduce/ghost-rank/internal/errors"
)

// DataReader handles reading curve datasets from Excel and CSV files.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a new data reader that handles both Excel and CSV
// files, dispatching on the file extension.
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// SourceName identifies the dataset in logs and archived runs.
func (r *DataReader) SourceName() string {
	return filepath.Base(r.filePath)
}

// ReadCurves reads every record from the file. Recognized columns are
// label (lmfdb_label wins when both are present), conductor, rank, sha,
// L_value and L_prime; missing columns and empty cells fall back to the
// usual dataset defaults.
func (r *DataReader) ReadCurves() ([]curve.Curve, error) {
	log.Printf("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.NotFound(fmt.Sprintf("%s file %s", strings.ToUpper(r.fileType), r.filePath))
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported file type: %s", r.fileType))
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, errors.ValidationError(fmt.Sprintf("%s file must have at least a header row and one data row", strings.ToUpper(r.fileType)))
	}

	return r.parseRows(rows)
}

// readExcelRows reads raw rows from the first sheet of an Excel workbook.
func (r *DataReader) readExcelRows() ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()
	fileOpenTime := time.Since(startTime)
	log.Printf("[DataReader] Excel file opened in %.2fms", float64(fileOpenTime.Nanoseconds())/1e6)

	sheet := f.GetSheetName(0)
	readStart := time.Now()
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheet)
	}
	readTime := time.Since(readStart)
	log.Printf("[DataReader] Sheet %s read in %.2fms (%d rows)", sheet, float64(readTime.Nanoseconds())/1e6, len(rows))

	return rows, nil
}

// readCSVRows reads raw rows from a CSV file.
func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV file")
	}
	readTime := time.Since(readStart)
	log.Printf("[DataReader] CSV file read in %.2fms (%d rows)", float64(readTime.Nanoseconds())/1e6, len(rows))

	return rows, nil
}

// parseRows converts raw string rows into curve records. The first row is
// the header; cells are keyed by trimmed header name.
func (r *DataReader) parseRows(rows [][]string) ([]curve.Curve, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	curves := make([]curve.Curve, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		record := make(map[string]string, len(headers))
		for j, cell := range rows[i] {
			if j < len(headers) {
				record[headers[j]] = strings.TrimSpace(cell)
			}
		}

		c, err := parseCurve(record, i+1)
		if err != nil {
			return nil, err
		}
		curves = append(curves, c)
	}

	log.Printf("[DataReader] %s file processed (%d columns, %d curves)",
		strings.ToUpper(r.fileType), len(headers), len(curves))

	return curves, nil
}

// parseCurve maps one raw record to a Curve, applying per-column defaults
// for missing or empty cells.
func parseCurve(record map[string]string, rowNum int) (curve.Curve, error) {
	label := record["label"]
	if v, ok := record["lmfdb_label"]; ok && v != "" {
		label = v
	}

	conductor, err := intCell(record, "conductor", 0, rowNum)
	if err != nil {
		return curve.Curve{}, err
	}
	rank, err := intCell(record, "rank", 0, rowNum)
	if err != nil {
		return curve.Curve{}, err
	}
	sha, err := floatCell(record, "sha", 1, rowNum)
	if err != nil {
		return curve.Curve{}, err
	}
	lValue, err := floatCell(record, "L_value", 1, rowNum)
	if err != nil {
		return curve.Curve{}, err
	}
	lPrime, err := floatCell(record, "L_prime", 0.1, rowNum)
	if err != nil {
		return curve.Curve{}, err
	}

	return curve.Curve{
		Label:     label,
		Conductor: conductor,
		Rank:      rank,
		Sha:       sha,
		LValue:    lValue,
		LPrime:    lPrime,
	}, nil
}

func intCell(record map[string]string, column string, fallback, rowNum int) (int, error) {
	raw, ok := record[column]
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.ValidationError(fmt.Sprintf("row %d: column %s: %q is not an integer", rowNum, column, raw))
	}
	return v, nil
}

func floatCell(record map[string]string, column string, fallback float64, rowNum int) (float64, error) {
	raw, ok := record[column]
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.ValidationError(fmt.Sprintf("row %d: column %s: %q is not numeric", rowNum, column, raw))
	}
	return v, nil
}
