package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"store-monitor-backend/config"
	"store-monitor-backend/internal/model"
	"store-monitor-backend/internal/parse"
	"store-monitor-backend/internal/store"
)

// Source file names inside the CSV directory.
const (
	StatusFile    = "store_status.csv"
	HoursFile     = "store_hours.csv"
	TimezonesFile = "store_timezones.csv"
)

// Loader copies the CSV source files into the database.
type Loader struct {
	cfg   *config.IngestConfig
	store store.Store
}

// NewLoader creates a Loader reading from cfg.CSVDir.
func NewLoader(cfg *config.IngestConfig, s store.Store) *Loader {
	return &Loader{cfg: cfg, store: s}
}

// LoadAll replaces every source table with the content of its CSV file.
// A missing or unreadable file leaves its table untouched.
func (l *Loader) LoadAll(ctx context.Context) {
	log.Println("Loading CSV data...")
	for _, table := range store.Tables {
		if err := l.LoadTable(ctx, table); err != nil {
			log.Printf("Error loading CSV data for '%s' table: %v", table, err)
		}
	}
	log.Println("CSV load finished.")
}

// Bootstrap loads only the tables that are still empty.
func (l *Loader) Bootstrap(ctx context.Context) {
	for _, table := range store.Tables {
		n, err := l.store.CountRows(ctx, table)
		if err != nil {
			log.Printf("Error inspecting '%s' table: %v", table, err)
			continue
		}
		if n > 0 {
			log.Printf("Table '%s' already holds %d rows; skipping initial load.", table, n)
			continue
		}
		if err := l.LoadTable(ctx, table); err != nil {
			log.Printf("Error creating '%s' table: %v", table, err)
		}
	}
}

// LoadTable replaces one source table with the content of its CSV file.
func (l *Loader) LoadTable(ctx context.Context, table store.Table) error {
	var file string
	switch table {
	case store.TableStatus:
		file = StatusFile
	case store.TableHours:
		file = HoursFile
	case store.TableTimezones:
		file = TimezonesFile
	default:
		return fmt.Errorf("unknown table %q", table)
	}

	path := filepath.Join(l.cfg.CSVDir, file)
	t, err := readCSVFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s not found", path)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	var n int
	switch table {
	case store.TableStatus:
		rows, perr := parseStatuses(t)
		if perr != nil {
			return perr
		}
		n, err = len(rows), l.store.ReplaceStatuses(ctx, rows)
	case store.TableHours:
		rows, perr := parseHours(t)
		if perr != nil {
			return perr
		}
		n, err = len(rows), l.store.ReplaceHours(ctx, rows)
	case store.TableTimezones:
		rows, perr := parseTimezones(t)
		if perr != nil {
			return perr
		}
		n, err = len(rows), l.store.ReplaceTimezones(ctx, rows)
	}
	if err != nil {
		return err
	}
	log.Printf("CSV data loaded into the '%s' table (%d rows).", table, n)
	return nil
}

func parseStatuses(t *csvTable) ([]model.StoreStatus, error) {
	idCol, err := t.column("store_id")
	if err != nil {
		return nil, err
	}
	statusCol, err := t.column("status")
	if err != nil {
		return nil, err
	}
	tsCol, err := t.column("timestamp_utc")
	if err != nil {
		return nil, err
	}

	rows := make([]model.StoreStatus, 0, len(t.records))
	for i, rec := range t.records {
		id, err := parse.StoreID(field(rec, idCol))
		if err != nil {
			log.Printf("Skipping store_status line %d: %v", i+2, err)
			continue
		}
		status, err := parse.Status(field(rec, statusCol))
		if err != nil {
			log.Printf("Skipping store_status line %d: %v", i+2, err)
			continue
		}
		ts, err := parse.Timestamp(field(rec, tsCol))
		if err != nil {
			log.Printf("Skipping store_status line %d: %v", i+2, err)
			continue
		}
		rows = append(rows, model.StoreStatus{StoreID: id, TimestampUTC: ts, Status: status})
	}
	return rows, nil
}

func parseHours(t *csvTable) ([]model.StoreHours, error) {
	idCol, err := t.column("store_id")
	if err != nil {
		return nil, err
	}
	dayCol, err := t.column("day_of_week", "dayofweek", "day")
	if err != nil {
		return nil, err
	}
	startCol, err := t.column("start_time_local")
	if err != nil {
		return nil, err
	}
	endCol, err := t.column("end_time_local")
	if err != nil {
		return nil, err
	}

	rows := make([]model.StoreHours, 0, len(t.records))
	for i, rec := range t.records {
		id, err := parse.StoreID(field(rec, idCol))
		if err != nil {
			log.Printf("Skipping store_hours line %d: %v", i+2, err)
			continue
		}
		day, err := parse.DayOfWeek(field(rec, dayCol))
		if err != nil {
			log.Printf("Skipping store_hours line %d: %v", i+2, err)
			continue
		}
		// Times stay raw; unparseable intervals are skipped when reports are built.
		rows = append(rows, model.StoreHours{
			StoreID:        id,
			DayOfWeek:      day,
			StartTimeLocal: strings.TrimSpace(field(rec, startCol)),
			EndTimeLocal:   strings.TrimSpace(field(rec, endCol)),
		})
	}
	return rows, nil
}

func parseTimezones(t *csvTable) ([]model.StoreTimezone, error) {
	idCol, err := t.column("store_id")
	if err != nil {
		return nil, err
	}
	tzCol, err := t.column("timezone_str")
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	rows := make([]model.StoreTimezone, 0, len(t.records))
	for i, rec := range t.records {
		id, err := parse.StoreID(field(rec, idCol))
		if err != nil {
			log.Printf("Skipping store_timezones line %d: %v", i+2, err)
			continue
		}
		// At most one timezone per store; the first one wins.
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, model.StoreTimezone{StoreID: id, TimezoneStr: strings.TrimSpace(field(rec, tzCol))})
	}
	return rows, nil
}
