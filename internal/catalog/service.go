// Package catalog orchestrates configuration and record mutations. Every
// change that can affect a score (metric or band catalog edits, a
// customer's own values) is followed synchronously by a recompute-and-store
// pass over the affected records; derived fields are never left stale.
package catalog

import (
	"context"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/healthscore/internal/model"
	"github.com/sells-group/healthscore/internal/scoring"
	"github.com/sells-group/healthscore/internal/store"
)

// Service wraps a Store with the mutation/recompute protocol.
type Service struct {
	store store.Store
}

// New creates a Service over the given store.
func New(s store.Store) *Service {
	return &Service{store: s}
}

// Store exposes the underlying store for read-only callers.
func (s *Service) Store() store.Store { return s.store }

// AddMetric validates and appends a metric, back-fills the band midpoint
// into every existing customer, and recomputes all records.
func (s *Service) AddMetric(ctx context.Context, m model.Metric) (model.Metric, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.InputType == "" {
		m.InputType = model.InputManual
	}
	if err := m.Validate(); err != nil {
		return model.Metric{}, err
	}
	if err := s.store.SaveMetric(ctx, m); err != nil {
		return model.Metric{}, err
	}

	customers, err := s.store.ListCustomers(ctx)
	if err != nil {
		return model.Metric{}, err
	}
	defaultValue := scoring.DefaultValue(m)
	for i := range customers {
		if customers[i].MetricValues == nil {
			customers[i].MetricValues = make(map[string]model.MetricValue)
		}
		customers[i].MetricValues[m.ID] = defaultValue
	}

	if err := s.recomputeAndStore(ctx, customers); err != nil {
		return model.Metric{}, err
	}
	s.warnWeightDrift(ctx)
	return m, nil
}

// UpdateMetric validates and replaces a metric definition, then recomputes
// all records.
func (s *Service) UpdateMetric(ctx context.Context, m model.Metric) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if err := s.store.SaveMetric(ctx, m); err != nil {
		return err
	}
	if err := s.RecomputeAll(ctx); err != nil {
		return err
	}
	s.warnWeightDrift(ctx)
	return nil
}

// DeleteMetric removes a metric, strips its value from every customer, and
// recomputes all records.
func (s *Service) DeleteMetric(ctx context.Context, id string) error {
	if err := s.store.DeleteMetric(ctx, id); err != nil {
		return err
	}

	customers, err := s.store.ListCustomers(ctx)
	if err != nil {
		return err
	}
	for i := range customers {
		delete(customers[i].MetricValues, id)
	}
	return s.recomputeAndStore(ctx, customers)
}

// AddBand appends a score band, deriving its display color from the name,
// then recomputes all records.
func (s *Service) AddBand(ctx context.Context, b model.ScoreBand) (model.ScoreBand, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	b.Color = model.StatusColor(b.Name)
	if err := b.Validate(); err != nil {
		return model.ScoreBand{}, err
	}
	if err := s.store.SaveBand(ctx, b); err != nil {
		return model.ScoreBand{}, err
	}
	return b, s.RecomputeAll(ctx)
}

// UpdateBand replaces a band definition (re-deriving the color, since the
// name may have changed) and recomputes all records.
func (s *Service) UpdateBand(ctx context.Context, b model.ScoreBand) error {
	b.Color = model.StatusColor(b.Name)
	if err := b.Validate(); err != nil {
		return err
	}
	if err := s.store.SaveBand(ctx, b); err != nil {
		return err
	}
	return s.RecomputeAll(ctx)
}

// DeleteBand removes a band and recomputes all records.
func (s *Service) DeleteBand(ctx context.Context, id string) error {
	if err := s.store.DeleteBand(ctx, id); err != nil {
		return err
	}
	return s.RecomputeAll(ctx)
}

// AddField appends a custom field and back-fills an empty value into every
// customer. Custom fields never enter scoring, so no recompute runs.
func (s *Service) AddField(ctx context.Context, f model.CustomField) (model.CustomField, error) {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.Type == "" {
		f.Type = model.FieldText
	}
	if err := f.Validate(); err != nil {
		return model.CustomField{}, err
	}
	if err := s.store.SaveField(ctx, f); err != nil {
		return model.CustomField{}, err
	}

	customers, err := s.store.ListCustomers(ctx)
	if err != nil {
		return model.CustomField{}, err
	}
	for i := range customers {
		if customers[i].CustomFields == nil {
			customers[i].CustomFields = make(map[string]string)
		}
		customers[i].CustomFields[f.ID] = ""
	}
	return f, s.store.ReplaceCustomers(ctx, customers)
}

// DeleteField removes a custom field and strips its value from every
// customer.
func (s *Service) DeleteField(ctx context.Context, id string) error {
	if err := s.store.DeleteField(ctx, id); err != nil {
		return err
	}
	customers, err := s.store.ListCustomers(ctx)
	if err != nil {
		return err
	}
	for i := range customers {
		delete(customers[i].CustomFields, id)
	}
	return s.store.ReplaceCustomers(ctx, customers)
}

// SetMetricValue replaces one customer's raw value for one metric and
// recomputes that record.
func (s *Service) SetMetricValue(ctx context.Context, customerID, metricID string, v model.MetricValue) (*model.Customer, error) {
	metrics, bands, err := s.catalogs(ctx)
	if err != nil {
		return nil, err
	}

	found := false
	for _, m := range metrics {
		if m.ID == metricID {
			found = true
			break
		}
	}
	if !found {
		return nil, eris.Wrapf(store.ErrNotFound, "catalog: unknown metric %s", metricID)
	}

	c, err := s.store.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if c.MetricValues == nil {
		c.MetricValues = make(map[string]model.MetricValue)
	}
	c.MetricValues[metricID] = v

	updated := scoring.RecomputeRecord(metrics, bands, *c)
	if err := s.store.SaveCustomer(ctx, updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SaveCustomer recomputes and stores a single record (insert or replace by
// ID).
func (s *Service) SaveCustomer(ctx context.Context, c model.Customer) (*model.Customer, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Name == "" {
		return nil, eris.New("catalog: customer name is required")
	}

	metrics, bands, err := s.catalogs(ctx)
	if err != nil {
		return nil, err
	}
	updated := scoring.RecomputeRecord(metrics, bands, c)
	if err := s.store.SaveCustomer(ctx, updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// MergeCustomers applies import semantics: an incoming record whose name
// matches an existing one (case-insensitive) overwrites it in place,
// keeping the existing ID; anything else is appended. Every touched record
// is recomputed before the write. Returns (updated, added) counts.
func (s *Service) MergeCustomers(ctx context.Context, incoming []model.Customer) (updated, added int, err error) {
	existing, err := s.store.ListCustomers(ctx)
	if err != nil {
		return 0, 0, err
	}
	metrics, bands, err := s.catalogs(ctx)
	if err != nil {
		return 0, 0, err
	}

	byName := make(map[string]int, len(existing))
	for i, c := range existing {
		byName[strings.ToLower(c.Name)] = i
	}

	for _, in := range incoming {
		if in.ID == "" {
			in.ID = uuid.New().String()
		}
		rec := scoring.RecomputeRecord(metrics, bands, in)
		if i, ok := byName[strings.ToLower(in.Name)]; ok {
			rec.ID = existing[i].ID
			existing[i] = rec
			updated++
		} else {
			byName[strings.ToLower(in.Name)] = len(existing)
			existing = append(existing, rec)
			added++
		}
	}

	if err := s.store.ReplaceCustomers(ctx, existing); err != nil {
		return 0, 0, err
	}
	return updated, added, nil
}

// RecomputeAll reloads the catalogs and runs a full recomputation pass over
// every record.
func (s *Service) RecomputeAll(ctx context.Context) error {
	customers, err := s.store.ListCustomers(ctx)
	if err != nil {
		return err
	}
	return s.recomputeAndStore(ctx, customers)
}

// recomputeAndStore recomputes the given records against the current
// catalogs and writes them back in one shot. Large collections are
// partitioned across workers; the engine is pure, so chunked execution is
// observably identical to a sequential pass.
func (s *Service) recomputeAndStore(ctx context.Context, customers []model.Customer) error {
	metrics, bands, err := s.catalogs(ctx)
	if err != nil {
		return err
	}

	out := make([]model.Customer, len(customers))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	const chunk = 256
	for start := 0; start < len(customers); start += chunk {
		end := min(start+chunk, len(customers))
		g.Go(func() error {
			for i := start; i < end; i++ {
				out[i] = scoring.RecomputeRecord(metrics, bands, customers[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	zap.L().Debug("recompute pass complete",
		zap.Int("customers", len(out)),
		zap.Int("metrics", len(metrics)),
	)
	return s.store.ReplaceCustomers(ctx, out)
}

// Summary aggregates the current record set: total count, mean composite
// score, and per-status counts in band catalog order (plus Unknown last
// when present).
type Summary struct {
	Customers    int            `json:"customers"`
	AverageScore float64        `json:"averageScore"`
	ByStatus     map[string]int `json:"byStatus"`
}

// Summarize computes portfolio-level aggregates over all records.
func (s *Service) Summarize(ctx context.Context) (Summary, error) {
	customers, err := s.store.ListCustomers(ctx)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{
		Customers: len(customers),
		ByStatus:  make(map[string]int),
	}
	total := 0
	for _, c := range customers {
		total += c.Score
		sum.ByStatus[c.Status]++
	}
	if len(customers) > 0 {
		sum.AverageScore = float64(total) / float64(len(customers))
	}
	return sum, nil
}

func (s *Service) catalogs(ctx context.Context) ([]model.Metric, []model.ScoreBand, error) {
	metrics, err := s.store.ListMetrics(ctx)
	if err != nil {
		return nil, nil, err
	}
	bands, err := s.store.ListBands(ctx)
	if err != nil {
		return nil, nil, err
	}
	return metrics, bands, nil
}

// warnWeightDrift logs when metric weights stop summing to 100. The engine
// does not renormalize, so drifted weights skew every composite score.
func (s *Service) warnWeightDrift(ctx context.Context) {
	metrics, err := s.store.ListMetrics(ctx)
	if err != nil {
		return
	}
	if total := model.TotalWeight(metrics); total != 100 {
		zap.L().Warn("metric weights do not sum to 100; composite scores are skewed",
			zap.Float64("total_weight", total),
		)
	}
}
