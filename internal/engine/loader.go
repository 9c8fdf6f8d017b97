package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// LoadOptions describes how a CSV file maps onto a Table.
type LoadOptions struct {
	Name string
	Path string

	// Column names. CountryColumn may be empty for files without one.
	// When DateColumn is set the period is derived from it and
	// PeriodColumn is ignored.
	CountryColumn string
	BankColumn    string
	PeriodColumn  string
	DateColumn    string

	// Required lists indicator columns that must be present.
	Required []string

	// DropOffCycle drops rows whose date is not a quarter end instead of
	// keeping them under OffCyclePeriod.
	DropOffCycle bool
}

// LoadStats summarises a load for logging.
type LoadStats struct {
	Rows     int
	OffCycle int
	Dropped  int
	Skipped  int
	BadCells int
}

// --- 1. CELL PARSERS ---

var missingMarkers = map[string]bool{
	"": true, "-": true, "na": true, "n/a": true, "nan": true, "null": true, "#div/0!": true,
}

// parseCell parses "0.0123", "1,234.5" or "12.5%" into a float.
// Blank and marker cells come back as NaN with ok=true.
func parseCell(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if missingMarkers[strings.ToLower(s)] {
		return math.NaN(), true
	}
	scale := 1.0
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSuffix(s, "%")
		scale = 0.01
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), false
	}
	return f * scale, true
}

// --- 2. MAIN LOADER ---

// LoadFile reads opts.Path and parses it into a Table.
func LoadFile(opts LoadOptions, logger logrus.FieldLogger) (*Table, error) {
	start := time.Now()
	log := logger.WithField("dataset", opts.Name)
	log.WithField("path", opts.Path).Info("loading dataset")

	f, err := os.Open(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Path, err)
	}
	defer f.Close()

	t, stats, err := Parse(f, opts)
	if err != nil {
		return nil, err
	}

	if stats.OffCycle > 0 {
		log.WithFields(logrus.Fields{
			"off_cycle": stats.OffCycle,
			"dropped":   stats.Dropped,
		}).Warn("rows dated outside quarter-end months")
	}
	if stats.BadCells > 0 || stats.Skipped > 0 {
		log.WithFields(logrus.Fields{
			"bad_cells": stats.BadCells,
			"skipped":   stats.Skipped,
		}).Warn("unparseable input")
	}
	log.WithFields(logrus.Fields{
		"rows":       stats.Rows,
		"banks":      len(t.BankDict),
		"periods":    len(t.PeriodDict),
		"indicators": len(t.Indicators),
		"elapsed":    time.Since(start).String(),
	}).Info("load complete")
	return t, nil
}

// Parse reads CSV from r. A missing required column is reported as
// ErrMissingColumn naming every absent column.
func Parse(r io.Reader, opts LoadOptions) (*Table, LoadStats, error) {
	var stats LoadStats

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	// A. Header
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, fmt.Errorf("%s: empty file", opts.Name)
		}
		return nil, stats, fmt.Errorf("%s: read header: %w", opts.Name, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(h)] = i
	}

	// B. Schema check
	periodCol := opts.PeriodColumn
	if opts.DateColumn != "" {
		periodCol = opts.DateColumn
	}
	var missing []string
	need := []string{opts.BankColumn, periodCol}
	if opts.CountryColumn != "" {
		need = append(need, opts.CountryColumn)
	}
	need = append(need, opts.Required...)
	for _, col := range need {
		if col == "" {
			continue
		}
		if _, ok := pos[col]; !ok {
			missing = append(missing, strconv.Quote(col))
		}
	}
	if opts.BankColumn == "" || periodCol == "" {
		missing = append(missing, "bank/period column not configured")
	}
	if len(missing) > 0 {
		return nil, stats, fmt.Errorf("%w: %s lacks %s", ErrMissingColumn, opts.Name, strings.Join(missing, ", "))
	}

	// C. Indicator columns are everything that is not a dimension
	dims := map[string]bool{
		opts.BankColumn:    true,
		opts.PeriodColumn:  true,
		opts.DateColumn:    true,
		opts.CountryColumn: true,
	}
	var indicators []string
	var indicatorPos []int
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" || dims[name] {
			continue
		}
		indicators = append(indicators, name)
		indicatorPos = append(indicatorPos, i)
	}

	b := newTableBuilder(opts.Name, opts.CountryColumn != "", indicators, 256)
	vals := make([]float64, len(indicators))
	bankAt := pos[opts.BankColumn]
	periodAt := pos[periodCol]
	countryAt := -1
	if opts.CountryColumn != "" {
		countryAt = pos[opts.CountryColumn]
	}

	cell := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	// D. Rows
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("%s: %w", opts.Name, err)
		}

		bank := cell(row, bankAt)
		if bank == "" {
			stats.Skipped++
			continue
		}

		period := cell(row, periodAt)
		if opts.DateColumn != "" {
			label, onCycle, err := QuarterFromDate(period)
			if err != nil {
				stats.Skipped++
				continue
			}
			if !onCycle {
				stats.OffCycle++
				if opts.DropOffCycle {
					stats.Dropped++
					continue
				}
			}
			period = label
		}

		for k, at := range indicatorPos {
			v, ok := parseCell(cell(row, at))
			if !ok {
				stats.BadCells++
			}
			vals[k] = v
		}

		b.add(cell(row, countryAt), bank, period, vals)
		stats.Rows++
	}

	return b.build(), stats, nil
}
