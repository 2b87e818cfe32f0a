package extract

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// headerAliases maps alternative column names to record fields.
var headerAliases = map[string]string{
	"name":          "title",
	"category_name": "category",
	"is_active":     "active",
	"is_featured":   "featured",
}

// decodeXLSX reads the first sheet. The first row names the columns.
func decodeXLSX(content []byte) ([]record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	columns := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.ToLower(strings.TrimSpace(h))
		if alias, ok := headerAliases[h]; ok {
			h = alias
		}
		columns[i] = h
	}

	var records []record
	for n, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		var r record
		for i, cell := range row {
			if i >= len(columns) {
				break
			}
			if err := r.setColumn(columns[i], strings.TrimSpace(cell)); err != nil {
				return nil, fmt.Errorf("row %d: %w", n+2, err)
			}
		}
		records = append(records, r)
	}
	return records, nil
}

func (r *record) setColumn(column, cell string) error {
	if cell == "" {
		return nil
	}
	switch column {
	case "id":
		r.ID = cell
	case "title":
		r.Title = cell
	case "description":
		r.Description = cell
	case "tags":
		r.Tags = splitList(cell)
	case "features":
		r.Features = splitList(cell)
	case "category_id":
		r.CategoryID = cell
	case "category":
		r.CategoryName = cell
	case "price", "rating":
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return fmt.Errorf("%w: %s %q is not a number", ErrInvalidRecord, column, cell)
		}
		if column == "price" {
			r.Price = v
		} else {
			r.Rating = v
		}
	case "active", "featured":
		v, err := parseBool(cell)
		if err != nil {
			return fmt.Errorf("%w: %s %q", ErrInvalidRecord, column, cell)
		}
		if column == "active" {
			r.Active = &v
		} else {
			r.Featured = v
		}
	case "created_at":
		r.CreatedAt = cell
	}
	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	return strconv.ParseBool(s)
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
