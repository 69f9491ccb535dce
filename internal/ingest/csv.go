// Package ingest decodes uploaded CSV exports into typed campaign tables.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/manojkp08/adpulse/internal/analytics"
	"github.com/manojkp08/adpulse/internal/models"
)

// Canonical header names every upload must carry. Extra columns are ignored.
const (
	ColImpressions  = "Impressions"
	ColClicks       = "Clicks"
	ColSpend        = "Spend"
	ColConversions  = "Conversions"
	ColCampaignName = "Campaign_Name"
	ColPlatform     = "Platform"
)

var requiredColumns = []string{
	ColImpressions, ColClicks, ColSpend, ColConversions, ColCampaignName, ColPlatform,
}

// ErrProcessing marks content failures below the schema level: malformed
// numeric cells and ragged rows. The underlying cause is always attached.
var ErrProcessing = errors.New("processing error")

// DecodeCSV reads one delimited export into a Table. The delimiter is
// auto-detected from the header line among comma, semicolon, and tab.
// A missing required column aborts before any row is decoded; a malformed
// numeric cell aborts with the offending row and column attached.
func DecodeCSV(r io.Reader) (*models.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = detectDelimiter(data)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &analytics.MissingColumnsError{Columns: append([]string(nil), requiredColumns...)}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := headerIndex(header)
	if missing := missingColumns(idx); len(missing) > 0 {
		return nil, &analytics.MissingColumnsError{Columns: missing}
	}

	tbl := &models.Table{}
	for row := 2; ; row++ { // row 1 is the header
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrProcessing, row, err)
		}

		rec := models.CampaignRecord{
			CampaignName: strings.TrimSpace(cells[idx[ColCampaignName]]),
			Platform:     strings.TrimSpace(cells[idx[ColPlatform]]),
		}
		if rec.Impressions, err = parseCount(cells[idx[ColImpressions]], row, ColImpressions); err != nil {
			return nil, err
		}
		if rec.Clicks, err = parseCount(cells[idx[ColClicks]], row, ColClicks); err != nil {
			return nil, err
		}
		if rec.Conversions, err = parseCount(cells[idx[ColConversions]], row, ColConversions); err != nil {
			return nil, err
		}
		if rec.Spend, err = parseAmount(cells[idx[ColSpend]], row, ColSpend); err != nil {
			return nil, err
		}
		tbl.Records = append(tbl.Records, rec)
	}
	return tbl, nil
}

// detectDelimiter picks the candidate occurring most often in the first
// line. Comma wins ties, so plain CSV never mis-detects.
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, c := range []byte{';', '\t'} {
		if n := bytes.Count(line, []byte{c}); n > bestCount {
			best, bestCount = rune(c), n
		}
	}
	return best
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}
	return idx
}

func missingColumns(idx map[string]int) []string {
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	sort.Strings(missing)
	return missing
}

// parseCount reads a non-negative integer cell. Empty cells count as zero;
// negative values clamp to zero.
func parseCount(cell string, row int, col string) (int, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: row %d: column %s: %q is not an integer", ErrProcessing, row, col, s)
	}
	return max0(v), nil
}

// parseAmount reads a non-negative decimal cell with the same empty/negative
// policy as parseCount.
func parseAmount(cell string, row int, col string) (float64, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: row %d: column %s: %q is not a number", ErrProcessing, row, col, s)
	}
	return maxf(v), nil
}

func max0(i int) int {
	if i < 0 {
		return 0
	}
	return i
}

func maxf(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
