package db

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zulandar/concierge/internal/models"
)

// menuColumns are the required CSV header names, matched case-insensitively.
var menuColumns = []string{"item name", "description", "price"}

// ParseMenuCSV reads catalog items from CSV with an "Item Name,
// Description, Price" header (column order is free; a currency suffix such
// as "Price (₹)" is accepted). Every parsed item is marked available.
func ParseMenuCSV(r io.Reader) ([]models.MenuItem, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("db: menu csv: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("db: menu csv: read header: %w", err)
	}

	idx := make(map[string]int, len(menuColumns))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if p := strings.Index(name, "("); p > 0 {
			name = strings.TrimSpace(name[:p])
		}
		idx[name] = i
	}
	for _, col := range menuColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("db: menu csv: missing column %q", col)
		}
	}

	var items []models.MenuItem
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("db: menu csv: line %d: %w", line, err)
		}

		name := strings.TrimSpace(rec[idx["item name"]])
		if name == "" {
			continue
		}
		priceText := strings.TrimSpace(rec[idx["price"]])
		price, err := strconv.ParseFloat(priceText, 64)
		if err != nil || price < 0 {
			return nil, fmt.Errorf("db: menu csv: line %d: invalid price %q", line, priceText)
		}
		items = append(items, models.MenuItem{
			ItemName:    name,
			Description: strings.TrimSpace(rec[idx["description"]]),
			Price:       price,
			Available:   true,
		})
	}
	return items, nil
}
