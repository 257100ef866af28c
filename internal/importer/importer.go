// Package importer turns CSV and XLSX exports into draft customer records.
// Column headers are matched against the metric and field catalogs by
// case-insensitive substring, so exports from different tools map without a
// profile as long as their headers mention the metric names.
package importer

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/cases"

	"github.com/sells-group/healthscore/internal/model"
)

// Default reporting period stamped on imported rows that carry none.
const (
	DefaultMonth = "December"
	DefaultYear  = "2024"
)

// Catalogs is the slice of application state column matching needs.
type Catalogs struct {
	Metrics []model.Metric
	Fields  []model.CustomField
}

// Options configures a parse run.
type Options struct {
	// Delimiter for CSV input. Zero means comma.
	Delimiter rune
	// SkipFirstRow drops one extra row after the header (some exports
	// carry a units row).
	SkipFirstRow bool
	// NumberFormat names the decimal convention of numeric cells. Zero
	// means model.NumberFormatDecimal.
	NumberFormat string
	// Month and Year override the default period stamped on rows.
	Month string
	Year  string
}

// FromProfile converts a saved mapping profile's settings into parse
// options.
func FromProfile(p model.MappingProfile) Options {
	opts := Options{
		SkipFirstRow: p.Settings.SkipFirstRow,
		NumberFormat: p.Settings.NumberFormat,
	}
	if p.Settings.Delimiter != "" {
		opts.Delimiter = rune(p.Settings.Delimiter[0])
	}
	return opts
}

var fold = cases.Fold()

// columnKind identifies what a matched header feeds.
type columnKind int

const (
	colIgnore columnKind = iota
	colName
	colAccountID
	colMonth
	colYear
	colScalar // scalar value for Metric
	colTrend  // one point of a trend series for Metric, TrendIndex set
	colField  // custom field value
)

type column struct {
	Kind       columnKind
	MetricID   string
	FieldID    string
	TrendIndex int
}

// trend column suffixes, e.g. "Ticket Volume_M1".
var trendSuffixes = [model.TrendPoints]string{"_m1", "_m2", "_m3", "_m4"}

// mapHeader resolves one header cell against the catalogs. Identity columns
// win over catalog matches so a "Customer Name" header is never claimed by
// a metric called "Name".
func mapHeader(header string, cat Catalogs) column {
	h := fold.String(strings.TrimSpace(header))

	switch {
	case strings.Contains(h, "customer") || strings.Contains(h, "client") || strings.Contains(h, "merchant"):
		return column{Kind: colName}
	case strings.Contains(h, "account"):
		return column{Kind: colAccountID}
	case h == "month" || h == "period month":
		return column{Kind: colMonth}
	case h == "year" || h == "period year":
		return column{Kind: colYear}
	}

	for _, m := range cat.Metrics {
		name := fold.String(m.Name)
		if name == "" || !strings.Contains(h, name) {
			continue
		}
		if m.UseTrending {
			for i, suffix := range trendSuffixes {
				if strings.HasSuffix(h, suffix) {
					return column{Kind: colTrend, MetricID: m.ID, TrendIndex: i}
				}
			}
		}
		return column{Kind: colScalar, MetricID: m.ID}
	}

	for _, f := range cat.Fields {
		name := fold.String(f.Name)
		if name != "" && strings.Contains(h, name) {
			return column{Kind: colField, FieldID: f.ID}
		}
	}

	return column{Kind: colIgnore}
}

// mapHeaders resolves a full header row.
func mapHeaders(headers []string, cat Catalogs) []column {
	cols := make([]column, len(headers))
	for i, h := range headers {
		cols[i] = mapHeader(h, cat)
	}
	return cols
}

// parseNumber reads a cell as float64 under the given number format.
// Unparseable input degrades to 0 rather than failing the row; currency
// signs and thousands separators are stripped first.
func parseNumber(cell, format string) float64 {
	s := strings.TrimSpace(cell)
	s = strings.TrimPrefix(s, "$")
	if format == model.NumberFormatComma {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// buildRecord assembles one draft customer from a data row.
func buildRecord(row []string, cols []column, opts Options) (model.Customer, bool) {
	c := model.Customer{
		Month:        opts.Month,
		Year:         opts.Year,
		MetricValues: make(map[string]model.MetricValue),
		CustomFields: make(map[string]string),
	}
	if c.Month == "" {
		c.Month = DefaultMonth
	}
	if c.Year == "" {
		c.Year = DefaultYear
	}

	trends := make(map[string]*[model.TrendPoints]float64)

	for i, col := range cols {
		if i >= len(row) {
			break
		}
		cell := strings.TrimSpace(row[i])

		switch col.Kind {
		case colName:
			if c.Name == "" {
				c.Name = cell
			}
		case colAccountID:
			c.AccountID = cell
		case colMonth:
			if cell != "" {
				c.Month = cell
			}
		case colYear:
			if cell != "" {
				c.Year = cell
			}
		case colScalar:
			c.MetricValues[col.MetricID] = model.Scalar(parseNumber(cell, opts.NumberFormat))
		case colTrend:
			pts, ok := trends[col.MetricID]
			if !ok {
				pts = &[model.TrendPoints]float64{}
				trends[col.MetricID] = pts
			}
			pts[col.TrendIndex] = parseNumber(cell, opts.NumberFormat)
		case colField:
			c.CustomFields[col.FieldID] = cell
		}
	}

	for id, pts := range trends {
		c.MetricValues[id] = model.Trend(*pts)
	}

	return c, c.Name != ""
}

// ParseCSV reads delimited input and returns draft customer records, one
// per data row with a non-empty name. Rows stream through a channel so
// arbitrarily large exports parse in constant memory.
func ParseCSV(ctx context.Context, r io.Reader, cat Catalogs, opts Options) ([]model.Customer, error) {
	headerCh := make(chan []string, 1)
	rowCh, errCh := streamCSV(ctx, r, opts, headerCh)

	var cols []column
	select {
	case header, ok := <-headerCh:
		if !ok {
			if err := <-errCh; err != nil {
				return nil, err
			}
			return nil, eris.New("importer: input has no header row")
		}
		cols = mapHeaders(header, cat)
	case <-ctx.Done():
		return nil, eris.Wrap(ctx.Err(), "importer: context cancelled")
	}
	if err := validateColumns(cols); err != nil {
		return nil, err
	}

	skip := opts.SkipFirstRow
	var out []model.Customer
	for row := range rowCh {
		if skip {
			skip = false
			continue
		}
		if c, ok := buildRecord(row, cols, opts); ok {
			out = append(out, c)
		}
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return out, nil
}

// ParseXLSX reads the first sheet of an XLSX workbook with the same column
// mapping as ParseCSV.
func ParseXLSX(path string, cat Catalogs, opts Options) ([]model.Customer, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("importer: workbook has no sheets")
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("importer: input has no header row")
	}
	var cols []column
	skip := opts.SkipFirstRow
	var out []model.Customer
	for i, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		if i == 0 {
			cols = mapHeaders(cells, cat)
			if err := validateColumns(cols); err != nil {
				return nil, err
			}
			continue
		}
		if skip {
			skip = false
			continue
		}
		if c, ok := buildRecord(cells, cols, opts); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func validateColumns(cols []column) error {
	for _, col := range cols {
		if col.Kind == colName {
			return nil
		}
	}
	return eris.New("importer: no customer name column found in header")
}

// streamCSV sends data rows to a channel, header first on its own channel.
func streamCSV(ctx context.Context, r io.Reader, opts Options, headerCh chan<- []string) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)
		defer close(headerCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		reader.FieldsPerRecord = -1

		first := true
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "importer: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "importer: read row")
				return
			}

			if first {
				first = false
				select {
				case headerCh <- record:
				case <-ctx.Done():
					errCh <- eris.Wrap(ctx.Err(), "importer: context cancelled sending header")
					return
				}
				continue
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "importer: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// Submission builds the audit entry recorded alongside an import.
func Submission(fileName string, opts Options) model.Submission {
	s := model.Submission{
		ID:          uuid.New().String(),
		Month:       opts.Month,
		Year:        opts.Year,
		FileName:    fileName,
		SubmittedAt: time.Now(),
		Status:      model.SubmissionProcessed,
	}
	if s.Month == "" {
		s.Month = DefaultMonth
	}
	if s.Year == "" {
		s.Year = DefaultYear
	}
	return s
}

// ManualSubmission builds the audit entry for a metric value entered by
// hand rather than parsed from a file. Manual entries start pending.
func ManualSubmission(m model.Metric, value string, opts Options) model.Submission {
	s := Submission("Manual entry: "+value, opts)
	s.MetricID = m.ID
	s.MetricName = m.Name
	s.Status = model.SubmissionPending
	return s
}
