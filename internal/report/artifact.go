package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"store-monitor-backend/internal/uptime"
)

// Columns is the header of every report export. Hour figures are in minutes,
// day and week figures in hours.
var Columns = []string{
	"store_id",
	"uptime_last_hour",
	"uptime_last_day",
	"uptime_last_week",
	"downtime_last_hour",
	"downtime_last_day",
	"downtime_last_week",
}

// Values returns the numeric columns of row, in Columns order after store_id.
func Values(row uptime.Row) []float64 {
	return []float64{
		row.UptimeLastHour.Minutes(),
		row.UptimeLastDay.Hours(),
		row.UptimeLastWeek.Hours(),
		row.DowntimeLastHour.Minutes(),
		row.DowntimeLastDay.Hours(),
		row.DowntimeLastWeek.Hours(),
	}
}

// Record renders row as CSV fields.
func Record(row uptime.Row) []string {
	rec := []string{strconv.FormatInt(row.StoreID, 10)}
	for _, v := range Values(row) {
		rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return rec
}

// WriteCSV writes the report as comma-separated values with a header line.
func WriteCSV(w io.Writer, r *uptime.Report) error {
	c := csv.NewWriter(w)
	if err := c.Write(Columns); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := c.Write(Record(row)); err != nil {
			return err
		}
	}
	c.Flush()
	return c.Error()
}

// WriteXLSX writes the report as a single-sheet spreadsheet.
func WriteXLSX(w io.Writer, r *uptime.Report) error {
	const sheet = "report"

	xlsx := excelize.NewFile()
	defer xlsx.Close()
	if err := xlsx.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	xlsx.SetDocProps(&excelize.DocProperties{
		Created: r.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
		Creator: "store-monitor",
		Title:   "Store uptime report",
	})

	for i, name := range Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := xlsx.SetCellStr(sheet, cell, name); err != nil {
			return err
		}
	}

	numFmt := "0.00"
	style, err := xlsx.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return err
	}

	for y, row := range r.Rows {
		values := append([]any{strconv.FormatInt(row.StoreID, 10)}, toAny(Values(row))...)
		cell, err := excelize.CoordinatesToCellName(1, y+2)
		if err != nil {
			return err
		}
		if err := xlsx.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	if len(r.Rows) > 0 {
		last, err := excelize.CoordinatesToCellName(len(Columns), len(r.Rows)+1)
		if err != nil {
			return err
		}
		if err := xlsx.SetCellStyle(sheet, "B2", last, style); err != nil {
			return err
		}
	}

	return xlsx.Write(w)
}

func toAny(vs []float64) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

// FileWriter stores CSV artifacts as <Dir>/report_<id>.csv.
type FileWriter struct {
	Dir string
}

// NewFileWriter creates a FileWriter rooted at dir.
func NewFileWriter(dir string) *FileWriter {
	return &FileWriter{Dir: dir}
}

// Path returns where the artifact of reportID lives.
func (fw *FileWriter) Path(reportID string) string {
	return filepath.Join(fw.Dir, fmt.Sprintf("report_%s.csv", reportID))
}

// Write renders the report to a temporary file and renames it into place.
func (fw *FileWriter) Write(reportID string, r *uptime.Report) (string, error) {
	if err := os.MkdirAll(fw.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(fw.Dir, ".report-*.csv")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	path := fw.Path(reportID)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move report into place: %w", err)
	}
	return path, nil
}
