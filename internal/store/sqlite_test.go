package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/healthscore/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStoreContract(t *testing.T) {
	storeTestSuite(t, func(t *testing.T) Store { return newTestSQLite(t) })
}

// storeTestSuite exercises the Store contract; it runs against any backend.
func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("MetricCatalogOrderAndUpsert", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, m := range model.DefaultMetrics() {
			require.NoError(t, s.SaveMetric(ctx, m))
		}

		metrics, err := s.ListMetrics(ctx)
		require.NoError(t, err)
		require.Len(t, metrics, 4)
		assert.Equal(t, "Ticket", metrics[0].Name)
		assert.Equal(t, "Sentiment", metrics[3].Name)

		// Upsert keeps the catalog position.
		updated := metrics[0]
		updated.Weight = 40
		require.NoError(t, s.SaveMetric(ctx, updated))

		metrics, err = s.ListMetrics(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Ticket", metrics[0].Name)
		assert.Equal(t, 40.0, metrics[0].Weight)
	})

	t.Run("DeleteMetricNotFound", func(t *testing.T) {
		s := newStore(t)
		err := s.DeleteMetric(context.Background(), "missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("BandCatalogOrder", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, b := range model.DefaultScoreBands() {
			require.NoError(t, s.SaveBand(ctx, b))
		}
		bands, err := s.ListBands(ctx)
		require.NoError(t, err)
		require.Len(t, bands, 4)
		// First-match resolution depends on this ordering.
		assert.Equal(t, "Green", bands[0].Name)
		assert.Equal(t, "Grey", bands[3].Name)

		require.NoError(t, s.DeleteBand(ctx, bands[1].ID))
		bands, err = s.ListBands(ctx)
		require.NoError(t, err)
		require.Len(t, bands, 3)
		assert.Equal(t, "Red", bands[1].Name)
	})

	t.Run("CustomerRoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		c := model.Customer{
			ID: "c1", Name: "Acme Corp", AccountID: "ACC001",
			Month: "December", Year: "2024",
			MetricValues: map[string]model.MetricValue{
				"1": model.Trend([4]float64{15, 12, 8, 5}),
				"2": model.Scalar(85),
			},
			CustomFields: map[string]string{"1": "Technology"},
			Score:        48, Status: "Red", Action: "escalate",
		}
		require.NoError(t, s.SaveCustomer(ctx, c))

		got, err := s.GetCustomer(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, c.Name, got.Name)
		assert.Equal(t, c.MetricValues, got.MetricValues)
		assert.Equal(t, c.Score, got.Score)

		_, err = s.GetCustomer(ctx, "missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("ReplaceCustomers", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.SaveCustomer(ctx, model.Customer{ID: "old", Name: "Old Co"}))
		require.NoError(t, s.ReplaceCustomers(ctx, []model.Customer{
			{ID: "a", Name: "Alpha"},
			{ID: "b", Name: "Beta"},
		}))

		customers, err := s.ListCustomers(ctx)
		require.NoError(t, err)
		require.Len(t, customers, 2)
		assert.Equal(t, "Alpha", customers[0].Name)
		assert.Equal(t, "Beta", customers[1].Name)
	})

	t.Run("SubmissionsNewestFirst", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		older := model.Submission{
			ID: "s1", MetricID: "1", MetricName: "Ticket",
			Month: "October", Year: "2024", FileName: "tickets_oct.csv",
			SubmittedAt: time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC),
			Status:      model.SubmissionProcessed,
		}
		newer := older
		newer.ID, newer.FileName = "s2", "tickets_nov.csv"
		newer.SubmittedAt = time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC)

		require.NoError(t, s.AddSubmission(ctx, older))
		require.NoError(t, s.AddSubmission(ctx, newer))

		subs, err := s.ListSubmissions(ctx)
		require.NoError(t, err)
		require.Len(t, subs, 2)
		assert.Equal(t, "s2", subs[0].ID)
	})

	t.Run("MappingProfiles", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		p := model.MappingProfile{
			ID: "p1", Name: "Intercom Export", Source: "Intercom",
			CreatedAt: time.Now().UTC().Truncate(time.Second),
			FieldMappings: []model.FieldMapping{
				{CSVColumn: "Company", AppField: "customer", IsRequired: true},
			},
			Settings: model.ProfileSettings{
				NumberFormat: model.NumberFormatComma,
				SkipFirstRow: true,
				Delimiter:    ";",
			},
		}
		require.NoError(t, s.SaveProfile(ctx, p))

		profiles, err := s.ListProfiles(ctx)
		require.NoError(t, err)
		require.Len(t, profiles, 1)
		assert.Equal(t, "Intercom Export", profiles[0].Name)
		assert.True(t, profiles[0].Settings.SkipFirstRow)
		assert.Equal(t, ";", profiles[0].Settings.Delimiter)

		require.NoError(t, s.DeleteProfile(ctx, "p1"))
		profiles, err = s.ListProfiles(ctx)
		require.NoError(t, err)
		assert.Empty(t, profiles)
	})

	t.Run("ExportImportRoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, SeedDefaults(ctx, s))
		require.NoError(t, s.SaveCustomer(ctx, model.Customer{
			ID: "c1", Name: "Acme Corp",
			MetricValues: map[string]model.MetricValue{"2": model.Scalar(85)},
		}))

		doc, err := s.Export(ctx)
		require.NoError(t, err)
		assert.Len(t, doc.Metrics, 4)
		assert.Len(t, doc.ScoreGroups, 4)
		assert.Len(t, doc.CustomFields, 3)
		assert.Len(t, doc.Merchants, 1)
		assert.Equal(t, model.DefaultColumns(), doc.SelectedColumns)
		assert.Equal(t, "Health Score App", doc.Settings.AppName)

		dst := newStore(t)
		require.NoError(t, dst.Import(ctx, doc))

		doc2, err := dst.Export(ctx)
		require.NoError(t, err)
		assert.Equal(t, doc.Metrics, doc2.Metrics)
		assert.Equal(t, doc.ScoreGroups, doc2.ScoreGroups)
		assert.Equal(t, doc.Merchants, doc2.Merchants)
		assert.False(t, doc2.Settings.LastSaved.IsZero())
	})

	t.Run("ClearThenSeedDefaults", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, SeedDefaults(ctx, s))
		require.NoError(t, s.Clear(ctx))

		metrics, err := s.ListMetrics(ctx)
		require.NoError(t, err)
		assert.Empty(t, metrics)

		// A cleared store recovers to a working default state.
		require.NoError(t, SeedDefaults(ctx, s))
		metrics, err = s.ListMetrics(ctx)
		require.NoError(t, err)
		assert.Len(t, metrics, 4)
	})
}
