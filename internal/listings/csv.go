// internal/listings/csv.go
package listings

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// decodeRows reads a merchant upload: a header row naming at least "ean"
// and "price", optional "promo_start", "promo_end" (YYYY-MM-DD) and "live"
// columns. Rows with a blank ean or price are skipped; rows with malformed
// values are reported per row. Only a broken file aborts decoding.
func decodeRows(r io.Reader) ([]BulkRow, int, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["ean"]; !ok {
		return nil, 0, nil, fmt.Errorf("csv header is missing the ean column")
	}
	if _, ok := cols["price"]; !ok {
		return nil, 0, nil, fmt.Errorf("csv header is missing the price column")
	}

	var (
		rows     []BulkRow
		rowErrs  []RowError
		skipped  int
		line     = 1
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, 0, nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		ean := field("ean")
		price := field("price")
		if ean == "" || price == "" {
			skipped++
			continue
		}

		row := BulkRow{Line: line, EAN: ean}
		row.PriceCents, err = parsePriceCents(price)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, EAN: ean, Reason: "InvalidPrice"})
			continue
		}

		if row.PromoStart, err = parseDate(field("promo_start")); err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, EAN: ean, Reason: "InvalidDateRange"})
			continue
		}
		if row.PromoEnd, err = parseDate(field("promo_end")); err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, EAN: ean, Reason: "InvalidDateRange"})
			continue
		}

		if live := field("live"); live != "" {
			row.MarkLive, err = strconv.ParseBool(live)
			if err != nil {
				rowErrs = append(rowErrs, RowError{Line: line, EAN: ean, Reason: "InvalidLiveFlag"})
				continue
			}
		}

		rows = append(rows, row)
	}
	return rows, skipped, rowErrs, nil
}

// parsePriceCents converts a decimal price string with at most two fraction
// digits into cents.
func parsePriceCents(s string) (int64, error) {
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative price %q", s)
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	cents := int64(0)
	if frac != "" {
		if len(frac) > 2 {
			return 0, fmt.Errorf("price %q has more than two fraction digits", s)
		}
		for len(frac) < 2 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse price %q: %w", s, err)
		}
	}
	return units*100 + cents, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
