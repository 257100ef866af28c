// Package store persists the application-state document: metric, band,
// field, and mapping-profile catalogs plus customer records and submission
// history. Two backends implement the same contract: SQLite for the
// default local, single-user installation and Postgres for a shared one.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/healthscore/internal/model"
)

// ErrNotFound reports a lookup or delete against an ID that does not exist.
// Both backends wrap it so callers can test with eris.Is.
var ErrNotFound = eris.New("not found")

// Store is the persistence contract. Catalog listing order is insertion
// order; the scoring engine depends on it for first-match band resolution.
type Store interface {
	// Metric catalog
	ListMetrics(ctx context.Context) ([]model.Metric, error)
	SaveMetric(ctx context.Context, m model.Metric) error
	DeleteMetric(ctx context.Context, id string) error

	// Score-band catalog
	ListBands(ctx context.Context) ([]model.ScoreBand, error)
	SaveBand(ctx context.Context, b model.ScoreBand) error
	DeleteBand(ctx context.Context, id string) error

	// Custom-field catalog
	ListFields(ctx context.Context) ([]model.CustomField, error)
	SaveField(ctx context.Context, f model.CustomField) error
	DeleteField(ctx context.Context, id string) error

	// Customer records
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	GetCustomer(ctx context.Context, id string) (*model.Customer, error)
	SaveCustomer(ctx context.Context, c model.Customer) error
	DeleteCustomer(ctx context.Context, id string) error
	// ReplaceCustomers writes back a full recomputation pass in one shot.
	ReplaceCustomers(ctx context.Context, customers []model.Customer) error

	// Submission history
	ListSubmissions(ctx context.Context) ([]model.Submission, error)
	AddSubmission(ctx context.Context, s model.Submission) error

	// Mapping profiles
	ListProfiles(ctx context.Context) ([]model.MappingProfile, error)
	SaveProfile(ctx context.Context, p model.MappingProfile) error
	DeleteProfile(ctx context.Context, id string) error

	// Whole-document backup
	Export(ctx context.Context) (*model.AppData, error)
	Import(ctx context.Context, data *model.AppData) error
	Clear(ctx context.Context) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// SeedDefaults populates empty catalogs with the default metric, band, and
// field definitions. Existing catalogs are left alone, so a cleared or
// corrupt store falls back to a working default state on next open.
func SeedDefaults(ctx context.Context, s Store) error {
	metrics, err := s.ListMetrics(ctx)
	if err != nil {
		return err
	}
	if len(metrics) == 0 {
		for _, m := range model.DefaultMetrics() {
			if err := s.SaveMetric(ctx, m); err != nil {
				return err
			}
		}
	}

	bands, err := s.ListBands(ctx)
	if err != nil {
		return err
	}
	if len(bands) == 0 {
		for _, b := range model.DefaultScoreBands() {
			if err := s.SaveBand(ctx, b); err != nil {
				return err
			}
		}
	}

	fields, err := s.ListFields(ctx)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		for _, f := range model.DefaultCustomFields() {
			if err := s.SaveField(ctx, f); err != nil {
				return err
			}
		}
	}

	return nil
}
