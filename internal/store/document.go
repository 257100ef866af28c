package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/healthscore/internal/model"
)

const (
	metaSelectedColumns = "selected_columns"
	metaAppName         = "app_name"
	metaLastSaved       = "last_saved"
	metaVersion         = "version"
)

// documentStore is the slice of Store the export/import helpers need, plus
// backend meta access.
type documentStore interface {
	Store
	metaAccess
}

// exportDocument assembles the whole application-state document.
func exportDocument(ctx context.Context, s documentStore) (*model.AppData, error) {
	metrics, err := s.ListMetrics(ctx)
	if err != nil {
		return nil, err
	}
	bands, err := s.ListBands(ctx)
	if err != nil {
		return nil, err
	}
	fields, err := s.ListFields(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := s.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	submissions, err := s.ListSubmissions(ctx)
	if err != nil {
		return nil, err
	}
	profiles, err := s.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}

	columns, err := loadSelectedColumns(ctx, s)
	if err != nil {
		return nil, err
	}

	appName, err := s.getMeta(ctx, metaAppName)
	if err != nil {
		return nil, err
	}
	if appName == "" {
		appName = "Health Score App"
	}
	version, err := s.getMeta(ctx, metaVersion)
	if err != nil {
		return nil, err
	}
	if version == "" {
		version = model.AppVersion
	}
	var lastSaved time.Time
	if raw, err := s.getMeta(ctx, metaLastSaved); err != nil {
		return nil, err
	} else if raw != "" {
		lastSaved, _ = time.Parse(time.RFC3339, raw)
	}

	return &model.AppData{
		Metrics:         metrics,
		ScoreGroups:     bands,
		CustomFields:    fields,
		Merchants:       customers,
		SelectedColumns: columns,
		DataSubmissions: submissions,
		MappingProfiles: profiles,
		Settings: model.Settings{
			AppName:   appName,
			LastSaved: lastSaved,
			Version:   version,
		},
	}, nil
}

// importDocument writes a whole document into an already-cleared store.
func importDocument(ctx context.Context, s documentStore, data *model.AppData) error {
	if data == nil {
		return eris.New("store: import document is nil")
	}

	for _, m := range data.Metrics {
		if err := s.SaveMetric(ctx, m); err != nil {
			return err
		}
	}
	for _, b := range data.ScoreGroups {
		if err := s.SaveBand(ctx, b); err != nil {
			return err
		}
	}
	for _, f := range data.CustomFields {
		if err := s.SaveField(ctx, f); err != nil {
			return err
		}
	}
	if err := s.ReplaceCustomers(ctx, data.Merchants); err != nil {
		return err
	}
	for _, sub := range data.DataSubmissions {
		if err := s.AddSubmission(ctx, sub); err != nil {
			return err
		}
	}
	for _, p := range data.MappingProfiles {
		if err := s.SaveProfile(ctx, p); err != nil {
			return err
		}
	}

	if len(data.SelectedColumns) > 0 {
		if err := saveSelectedColumns(ctx, s, data.SelectedColumns); err != nil {
			return err
		}
	}

	appName := data.Settings.AppName
	if appName == "" {
		appName = "Health Score App"
	}
	if err := s.setMeta(ctx, metaAppName, appName); err != nil {
		return err
	}
	version := data.Settings.Version
	if version == "" {
		version = model.AppVersion
	}
	if err := s.setMeta(ctx, metaVersion, version); err != nil {
		return err
	}
	return s.setMeta(ctx, metaLastSaved, time.Now().UTC().Format(time.RFC3339))
}

func loadSelectedColumns(ctx context.Context, s metaAccess) ([]string, error) {
	raw, err := s.getMeta(ctx, metaSelectedColumns)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return model.DefaultColumns(), nil
	}
	var columns []string
	if err := json.Unmarshal([]byte(raw), &columns); err != nil {
		// Corrupt meta falls back to defaults rather than failing the load.
		return model.DefaultColumns(), nil
	}
	return columns, nil
}

func saveSelectedColumns(ctx context.Context, s metaAccess, columns []string) error {
	data, err := json.Marshal(columns)
	if err != nil {
		return eris.Wrap(err, "store: marshal selected columns")
	}
	return s.setMeta(ctx, metaSelectedColumns, string(data))
}
