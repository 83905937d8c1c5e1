// internal/listings/csv_test.go
package listings

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRows(t *testing.T) {
	input := strings.Join([]string{
		"ean,price,promo_start,promo_end,live",
		"4006381333931,19.99,2026-09-01,2026-09-15,true",
		"4006381333932,5,,,",
		",10.00,,,",
		"4006381333933,,,,",
		"4006381333934,abc,,,",
		"4006381333935,10.123,,,",
		"4006381333936,10.00,not-a-date,,",
		"4006381333937,10.00,,,maybe",
		"4006381333938,0.5,,,false",
	}, "\n")

	rows, skipped, rowErrs, err := decodeRows(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 2, skipped, "blank ean and blank price are skipped")

	require.Len(t, rowErrs, 4)
	assert.Equal(t, RowError{Line: 6, EAN: "4006381333934", Reason: "InvalidPrice"}, rowErrs[0])
	assert.Equal(t, RowError{Line: 7, EAN: "4006381333935", Reason: "InvalidPrice"}, rowErrs[1])
	assert.Equal(t, RowError{Line: 8, EAN: "4006381333936", Reason: "InvalidDateRange"}, rowErrs[2])
	assert.Equal(t, RowError{Line: 9, EAN: "4006381333937", Reason: "InvalidLiveFlag"}, rowErrs[3])

	require.Len(t, rows, 3)
	assert.Equal(t, "4006381333931", rows[0].EAN)
	assert.Equal(t, int64(1999), rows[0].PriceCents)
	assert.True(t, rows[0].MarkLive)
	require.NotNil(t, rows[0].PromoStart)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), *rows[0].PromoStart)
	require.NotNil(t, rows[0].PromoEnd)
	assert.Equal(t, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), *rows[0].PromoEnd)

	assert.Equal(t, int64(500), rows[1].PriceCents)
	assert.False(t, rows[1].MarkLive)
	assert.Nil(t, rows[1].PromoStart)

	assert.Equal(t, int64(50), rows[2].PriceCents)
}

func TestDecodeRowsHeaderValidation(t *testing.T) {
	_, _, _, err := decodeRows(strings.NewReader("price,live\n10,true\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ean")

	_, _, _, err = decodeRows(strings.NewReader("ean,live\n123,true\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price")
}

func TestDecodeRowsColumnOrderIndependent(t *testing.T) {
	rows, skipped, rowErrs, err := decodeRows(strings.NewReader("live,price,ean\ntrue,1.50,4006381333931\n"))
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Empty(t, rowErrs)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(150), rows[0].PriceCents)
	assert.True(t, rows[0].MarkLive)
}

func TestParsePriceCents(t *testing.T) {
	cases := map[string]int64{
		"0":     0,
		"1":     100,
		"19.99": 1999,
		"0.5":   50,
		".75":   75,
		"100.0": 10000,
	}
	for in, want := range cases {
		got, err := parsePriceCents(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"-1", "-0.50", "1.999", "abc", "1.x"} {
		_, err := parsePriceCents(in)
		assert.Error(t, err, in)
	}
}
