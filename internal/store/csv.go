package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"marketsim/internal/domain"
)

// Compile-time interface check.
var _ BarStore = (*CSVStore)(nil)

// csvHeader is the column order of every per-symbol CSV file. It matches the
// common export layout of daily price downloads, so hand-dropped files work
// without conversion.
var csvHeader = []string{"Date", "Open", "High", "Low", "Close", "Volume"}

// CSVStore implements BarStore with one CSV file per symbol under
// <DataDir>/csv/<SYMBOL>.csv.
type CSVStore struct {
	DataDir string
}

// NewCSVStore creates a CSVStore rooted at the given data directory.
func NewCSVStore(dataDir string) *CSVStore {
	return &CSVStore{DataDir: dataDir}
}

// WriteBars merges the batch into the per-symbol files, deduplicating by
// date (incoming bars win) and keeping each file sorted.
func (s *CSVStore) WriteBars(ctx context.Context, bars []domain.Bar) error {
	groups := make(map[string][]domain.Bar)
	for _, b := range bars {
		groups[b.Symbol] = append(groups[b.Symbol], b)
	}

	for symbol, group := range groups {
		existing, err := s.ReadBars(ctx, symbol, MinDate, MaxDate)
		if err != nil {
			return err
		}

		byDate := make(map[time.Time]domain.Bar, len(existing)+len(group))
		for _, b := range existing {
			byDate[domain.Day(b.Date)] = b
		}
		for _, b := range group {
			b.Date = domain.Day(b.Date)
			byDate[b.Date] = b
		}

		merged := make([]domain.Bar, 0, len(byDate))
		for _, b := range byDate {
			merged = append(merged, b)
		}
		sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })

		if err := s.writeFile(symbol, merged); err != nil {
			return err
		}
	}
	return nil
}

// ReadBars parses the symbol's CSV file and filters to [start, end]. A
// missing file yields no bars.
func (s *CSVStore) ReadBars(_ context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	f, err := os.Open(s.path(symbol))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return parseCSV(f, symbol, start, end)
}

// ParseCSVFile reads a standalone CSV file of daily bars for one symbol, in
// the same Date,Open,High,Low,Close,Volume layout the store uses. It backs
// the import command, which pulls arbitrary files into a configured store.
func ParseCSVFile(path, symbol string) ([]domain.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseCSV(f, symbol, MinDate, MaxDate)
}

func parseCSV(f *os.File, symbol string, start, end time.Time) ([]domain.Bar, error) {
	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv for %s: %w", symbol, err)
	}

	var bars []domain.Bar
	for i, rec := range records {
		if len(rec) < 6 {
			return nil, fmt.Errorf("csv for %s: row %d has %d columns, want 6", symbol, i+1, len(rec))
		}
		if i == 0 && strings.EqualFold(rec[0], "Date") {
			continue // header row
		}

		date, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			return nil, fmt.Errorf("csv for %s: row %d: %w", symbol, i+1, err)
		}
		date = domain.Day(date)
		if date.Before(start) || date.After(end) {
			continue
		}

		b := domain.Bar{Symbol: symbol, Date: date}
		if b.Open, err = strconv.ParseFloat(rec[1], 64); err != nil {
			return nil, fmt.Errorf("csv for %s: row %d open: %w", symbol, i+1, err)
		}
		if b.High, err = strconv.ParseFloat(rec[2], 64); err != nil {
			return nil, fmt.Errorf("csv for %s: row %d high: %w", symbol, i+1, err)
		}
		if b.Low, err = strconv.ParseFloat(rec[3], 64); err != nil {
			return nil, fmt.Errorf("csv for %s: row %d low: %w", symbol, i+1, err)
		}
		if b.Close, err = strconv.ParseFloat(rec[4], 64); err != nil {
			return nil, fmt.Errorf("csv for %s: row %d close: %w", symbol, i+1, err)
		}
		vol, err := strconv.ParseFloat(rec[5], 64)
		if err != nil {
			return nil, fmt.Errorf("csv for %s: row %d volume: %w", symbol, i+1, err)
		}
		b.Volume = int64(vol)
		bars = append(bars, b)
	}
	return bars, nil
}

// ListSymbols lists the symbols with a CSV file present, sorted.
func (s *CSVStore) ListSymbols(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.DataDir, "csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var symbols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		symbols = append(symbols, strings.TrimSuffix(name, ".csv"))
	}
	sort.Strings(symbols)
	return symbols, nil
}

func (s *CSVStore) path(symbol string) string {
	return filepath.Join(s.DataDir, "csv", safeSymbol(symbol)+".csv")
}

func (s *CSVStore) writeFile(symbol string, bars []domain.Bar) error {
	path := s.path(symbol)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, b := range bars {
		rec := []string{
			b.Date.Format("2006-01-02"),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatInt(b.Volume, 10),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
