package dataset

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/wsuduce/ghost-rank/domain/ghost"
	"github.com/wsuduce/ghost-rank/internal/errors"
)

// ghostColumns is the output schema shared by the CSV and Excel writers.
var ghostColumns = []string{"label", "conductor", "sha", "stability", "diffusion"}

// ReadGhostsCSV loads a previously written ghost CSV, for backfilling the
// run archive. The column order must match the writer's schema.
func ReadGhostsCSV(path string) ([]ghost.Ghost, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open ghost CSV %s", path)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse ghost CSV")
	}
	if len(rows) < 2 {
		return nil, errors.ValidationError("ghost CSV has no data rows")
	}

	ghosts := make([]ghost.Ghost, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(ghostColumns) {
			return nil, errors.ValidationError(fmt.Sprintf("row %d has %d columns, want %d", i+2, len(row), len(ghostColumns)))
		}
		conductor, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: bad conductor", i+2)
		}
		sha, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: bad sha", i+2)
		}
		stability, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: bad stability", i+2)
		}
		diffusion, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: bad diffusion", i+2)
		}
		g := ghost.Ghost{Stability: stability, Diffusion: diffusion}
		g.Label = row[0]
		g.Conductor = conductor
		g.Sha = sha
		ghosts = append(ghosts, g)
	}
	return ghosts, nil
}

// WriteGhostsCSV saves a ghost list to CSV in slice order. An empty list
// writes no file.
func WriteGhostsCSV(path string, ghosts []ghost.Ghost) error {
	if len(ghosts) == 0 {
		log.Printf("[GhostWriter] No ghosts to save.")
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create CSV file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(ghostColumns); err != nil {
		return err
	}
	for _, g := range ghosts {
		row := []string{
			g.Label,
			strconv.Itoa(g.Conductor),
			strconv.FormatFloat(g.Sha, 'g', -1, 64),
			strconv.FormatFloat(g.Stability, 'g', -1, 64),
			strconv.FormatFloat(g.Diffusion, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "failed to write CSV file")
	}

	log.Printf("[GhostWriter] Saved %d ghosts to %s", len(ghosts), path)
	return nil
}

// ExportGhostsXLSX saves the same table as an Excel workbook with a bold
// header row on a sheet named Ghosts.
func ExportGhostsXLSX(path string, ghosts []ghost.Ghost) error {
	if len(ghosts) == 0 {
		log.Printf("[GhostWriter] No ghosts to export.")
		return nil
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Ghosts"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return errors.Wrap(err, "failed to rename sheet")
	}

	// Header row
	for i, h := range ghostColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "failed to create header style")
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(ghostColumns), 1)
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return errors.Wrap(err, "failed to style header row")
	}

	// Data rows
	for r, g := range ghosts {
		rowIdx := r + 2
		values := []interface{}{g.Label, g.Conductor, g.Sha, g.Stability, g.Diffusion}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, rowIdx)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(err, "failed to save Excel file")
	}

	log.Printf("[GhostWriter] Exported %d ghosts to %s", len(ghosts), path)
	return nil
}
