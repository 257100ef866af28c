package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"

	"github.com/sells-group/healthscore/internal/model"
)

// Template writes a CSV upload template for the current catalogs: one
// header row carrying each metric's band range, then a worked example row.
// Trending metrics get four suffixed columns for the series points.
func Template(w io.Writer, metrics []model.Metric, fields []model.CustomField) error {
	headers := []string{"Customer Name", "Account ID"}
	example := []string{"Acme Corp", "ACC-001"}

	for _, m := range metrics {
		label := fmt.Sprintf("%s (%g-%g)", m.Name, m.LowerBand, m.UpperBand)
		mid := scalarExample(m)
		if m.UseTrending {
			for i := 1; i <= model.TrendPoints; i++ {
				headers = append(headers, fmt.Sprintf("%s_M%d", label, i))
				example = append(example, mid)
			}
			continue
		}
		headers = append(headers, label)
		example = append(example, mid)
	}

	for _, f := range fields {
		headers = append(headers, f.Name)
		example = append(example, fieldExample(f))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return eris.Wrap(err, "importer: write template header")
	}
	if err := cw.Write(example); err != nil {
		return eris.Wrap(err, "importer: write template example")
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "importer: flush template")
}

func scalarExample(m model.Metric) string {
	return fmt.Sprintf("%g", (m.LowerBand+m.UpperBand)/2)
}

func fieldExample(f model.CustomField) string {
	switch f.Type {
	case model.FieldNumber:
		return "0"
	case model.FieldDate:
		return "2024-12-01"
	case model.FieldSelect:
		if len(f.Options) > 0 {
			return f.Options[0]
		}
	}
	return ""
}

// DetectMappings suggests field mappings for a header row based on keyword
// heuristics. Suggestions are a starting point for a mapping profile; the
// caller reviews them before saving.
func DetectMappings(headers []string, cat Catalogs) []model.FieldMapping {
	var out []model.FieldMapping
	folder := cases.Fold()

	for _, header := range headers {
		h := folder.String(strings.TrimSpace(header))

		switch {
		case containsAny(h, "customer", "client", "merchant", "company"):
			out = append(out, model.FieldMapping{
				CSVColumn: header, AppField: "customer", IsRequired: true,
			})
			continue
		case containsAny(h, "account"):
			out = append(out, model.FieldMapping{CSVColumn: header, AppField: "account_id"})
			continue
		case containsAny(h, "score", "rating"):
			out = append(out, model.FieldMapping{CSVColumn: header, AppField: "score"})
			continue
		}

		if m, ok := matchMetricKeywords(h, cat.Metrics, folder); ok {
			out = append(out, model.FieldMapping{
				CSVColumn: header, AppField: "metric_" + m.ID,
			})
			continue
		}
		for _, f := range cat.Fields {
			if name := folder.String(f.Name); name != "" && strings.Contains(h, name) {
				out = append(out, model.FieldMapping{
					CSVColumn: header, AppField: "custom_" + f.ID,
				})
				break
			}
		}
	}
	return out
}

// metricKeywords map common export vocabulary onto catalog metric names.
var metricKeywords = map[string][]string{
	"ticket":    {"ticket", "support", "case"},
	"adoption":  {"adoption", "usage", "active"},
	"gmv":       {"gmv", "revenue", "sales"},
	"sentiment": {"sentiment", "satisfaction", "csat", "nps"},
}

func matchMetricKeywords(h string, metrics []model.Metric, folder cases.Caser) (model.Metric, bool) {
	for _, m := range metrics {
		name := folder.String(m.Name)
		if name != "" && strings.Contains(h, name) {
			return m, true
		}
		for key, words := range metricKeywords {
			if !strings.Contains(name, key) {
				continue
			}
			if containsAny(h, words...) {
				return m, true
			}
		}
	}
	return model.Metric{}, false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
