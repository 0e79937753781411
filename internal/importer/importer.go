package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"pennycentral/internal/domain"
	itemsvc "pennycentral/internal/service/item"
)

// ItemObserver merges one scraped row into the penny list.
type ItemObserver interface {
	Observe(ctx context.Context, obs itemsvc.Observation) (*domain.Item, bool, error)
}

// Summary counts what a run did.
type Summary struct {
	Created int
	Updated int
	Skipped int
}

// CSVImporter reads scraped item CSVs (sku,name,brand,image_url) and merges
// each row into the penny list.
type CSVImporter struct {
	reader   *csv.Reader
	items    ItemObserver
	logger   *log.Logger
	required []string
}

func NewCSVImporter(r io.Reader, items ItemObserver, logger *log.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &CSVImporter{
		reader:   csvr,
		items:    items,
		logger:   logger,
		required: []string{"sku", "name"},
	}
}

type csvRow struct {
	Line     int
	SKU      string
	Name     string
	Brand    string
	ImageURL string
}

// Run merges every row. Rows the item service rejects as invalid are skipped
// and logged; any other error stops the run.
func (i *CSVImporter) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	headers, err := i.reader.Read()
	if err != nil {
		return sum, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, col := range i.required {
		if _, ok := index[col]; !ok {
			return sum, fmt.Errorf("missing required column %q", col)
		}
	}

	var current *csvRow
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// csv.ParseError already names the line.
			return sum, fmt.Errorf("read rows: %w", err)
		}

		row := parseRow(record, index)
		if row == nil {
			continue
		}
		// Physical line where the record starts; quoted fields may span lines.
		row.Line, _ = i.reader.FieldPos(0)

		if row.SKU != "" {
			if current != nil {
				if err := i.save(ctx, current, &sum); err != nil {
					return sum, err
				}
			}
			current = row
			continue
		}

		// Continuation rows supply an image for the current item.
		if current != nil && current.ImageURL == "" {
			current.ImageURL = row.ImageURL
		}
	}

	if current != nil {
		if err := i.save(ctx, current, &sum); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow, sum *Summary) error {
	_, created, err := i.items.Observe(ctx, itemsvc.Observation{
		SKU:      row.SKU,
		Name:     row.Name,
		Brand:    row.Brand,
		ImageURL: row.ImageURL,
	})
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		i.logger.Printf("importer: skip line=%d error=%v", row.Line, err)
		sum.Skipped++
		return nil
	case err != nil:
		return fmt.Errorf("merge line %d: %w", row.Line, err)
	case created:
		sum.Created++
	default:
		sum.Updated++
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) *csvRow {
	row := &csvRow{
		SKU:      pick(record, index, "sku"),
		Name:     pick(record, index, "name"),
		Brand:    pick(record, index, "brand"),
		ImageURL: pick(record, index, "image_url"),
	}
	if row.SKU == "" && row.ImageURL == "" {
		return nil
	}
	return row
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
