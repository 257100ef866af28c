package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/healthscore/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Entities are kept
// as JSON documents with an explicit position column so catalog order is
// stable across upserts.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS metrics (
	id   TEXT PRIMARY KEY,
	pos  INTEGER NOT NULL,
	data TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS score_bands (
	id   TEXT PRIMARY KEY,
	pos  INTEGER NOT NULL,
	data TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS custom_fields (
	id   TEXT PRIMARY KEY,
	pos  INTEGER NOT NULL,
	data TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS customers (
	id   TEXT PRIMARY KEY,
	pos  INTEGER NOT NULL,
	name TEXT NOT NULL,
	data TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS submissions (
	id           TEXT PRIMARY KEY,
	submitted_at DATETIME NOT NULL,
	data         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS mapping_profiles (
	id   TEXT PRIMARY KEY,
	pos  INTEGER NOT NULL,
	data TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_customers_name ON customers(name);
CREATE INDEX IF NOT EXISTS idx_submissions_submitted_at ON submissions(submitted_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// upsertDoc inserts a JSON document, assigning the next position on first
// insert and keeping the original position on replace.
func (s *SQLiteStore) upsertDoc(ctx context.Context, table, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return eris.Wrapf(err, "sqlite: marshal %s", table)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO `+table+` (id, pos, data)
		 VALUES (?, (SELECT COALESCE(MAX(pos), 0) + 1 FROM `+table+`), ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		id, string(data),
	)
	return eris.Wrapf(err, "sqlite: upsert %s", table)
}

func (s *SQLiteStore) deleteDoc(ctx context.Context, table, entity, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete %s %s", entity, id)
	}
	return checkRowsAffected(res, entity, id)
}

// listDocs scans all documents in a table in position order into out, which
// must be a pointer to a slice of the entity type.
func listDocs[T any](ctx context.Context, db *sql.DB, table string) ([]T, error) {
	rows, err := db.QueryContext(ctx, `SELECT data FROM `+table+` ORDER BY pos`)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list %s", table)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan %s", table)
		}
		var v T
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal %s", table)
		}
		out = append(out, v)
	}
	return out, eris.Wrapf(rows.Err(), "sqlite: iterate %s", table)
}

func (s *SQLiteStore) ListMetrics(ctx context.Context) ([]model.Metric, error) {
	return listDocs[model.Metric](ctx, s.db, "metrics")
}

func (s *SQLiteStore) SaveMetric(ctx context.Context, m model.Metric) error {
	return s.upsertDoc(ctx, "metrics", m.ID, m)
}

func (s *SQLiteStore) DeleteMetric(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, "metrics", "metric", id)
}

func (s *SQLiteStore) ListBands(ctx context.Context) ([]model.ScoreBand, error) {
	return listDocs[model.ScoreBand](ctx, s.db, "score_bands")
}

func (s *SQLiteStore) SaveBand(ctx context.Context, b model.ScoreBand) error {
	return s.upsertDoc(ctx, "score_bands", b.ID, b)
}

func (s *SQLiteStore) DeleteBand(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, "score_bands", "band", id)
}

func (s *SQLiteStore) ListFields(ctx context.Context) ([]model.CustomField, error) {
	return listDocs[model.CustomField](ctx, s.db, "custom_fields")
}

func (s *SQLiteStore) SaveField(ctx context.Context, f model.CustomField) error {
	return s.upsertDoc(ctx, "custom_fields", f.ID, f)
}

func (s *SQLiteStore) DeleteField(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, "custom_fields", "field", id)
}

func (s *SQLiteStore) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM customers ORDER BY pos`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list customers")
	}
	defer rows.Close()

	var out []model.Customer
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan customer")
		}
		var c model.Customer
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal customer")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate customers")
}

func (s *SQLiteStore) GetCustomer(ctx context.Context, id string) (*model.Customer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT data FROM customers WHERE id = ?`, id)

	var data string
	err := row.Scan(&data)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "customer %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get customer")
	}

	var c model.Customer
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal customer")
	}
	return &c, nil
}

func (s *SQLiteStore) SaveCustomer(ctx context.Context, c model.Customer) error {
	data, err := json.Marshal(c)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal customer")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO customers (id, pos, name, data)
		 VALUES (?, (SELECT COALESCE(MAX(pos), 0) + 1 FROM customers), ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, data = excluded.data`,
		c.ID, c.Name, string(data),
	)
	return eris.Wrapf(err, "sqlite: upsert customer %s", c.ID)
}

func (s *SQLiteStore) DeleteCustomer(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, "customers", "customer", id)
}

func (s *SQLiteStore) ReplaceCustomers(ctx context.Context, customers []model.Customer) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace customers")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM customers`); err != nil {
		return eris.Wrap(err, "sqlite: clear customers")
	}
	for i, c := range customers {
		data, err := json.Marshal(c)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal customer")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO customers (id, pos, name, data) VALUES (?, ?, ?, ?)`,
			c.ID, i+1, c.Name, string(data),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert customer %s", c.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit replace customers")
}

func (s *SQLiteStore) ListSubmissions(ctx context.Context) ([]model.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM submissions ORDER BY submitted_at DESC, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list submissions")
	}
	defer rows.Close()

	var out []model.Submission
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan submission")
		}
		var sub model.Submission
		if err := json.Unmarshal([]byte(data), &sub); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal submission")
		}
		out = append(out, sub)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate submissions")
}

func (s *SQLiteStore) AddSubmission(ctx context.Context, sub model.Submission) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal submission")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, submitted_at, data) VALUES (?, ?, ?)`,
		sub.ID, sub.SubmittedAt.UTC(), string(data),
	)
	return eris.Wrap(err, "sqlite: insert submission")
}

func (s *SQLiteStore) ListProfiles(ctx context.Context) ([]model.MappingProfile, error) {
	return listDocs[model.MappingProfile](ctx, s.db, "mapping_profiles")
}

func (s *SQLiteStore) SaveProfile(ctx context.Context, p model.MappingProfile) error {
	return s.upsertDoc(ctx, "mapping_profiles", p.ID, p)
}

func (s *SQLiteStore) DeleteProfile(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, "mapping_profiles", "profile", id)
}

func (s *SQLiteStore) Export(ctx context.Context) (*model.AppData, error) {
	return exportDocument(ctx, s)
}

func (s *SQLiteStore) Import(ctx context.Context, data *model.AppData) error {
	if err := s.Clear(ctx); err != nil {
		return err
	}
	return importDocument(ctx, s, data)
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	for _, table := range []string{
		"metrics", "score_bands", "custom_fields",
		"customers", "submissions", "mapping_profiles", "meta",
	} {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return eris.Wrapf(err, "sqlite: clear %s", table)
		}
	}
	return nil
}

// Meta stores the selected-columns list and document settings.

func (s *SQLiteStore) getMeta(ctx context.Context, key string) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key)
	var value string
	err := row.Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, eris.Wrapf(err, "sqlite: get meta %s", key)
}

func (s *SQLiteStore) setMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return eris.Wrapf(err, "sqlite: set meta %s", key)
}

// metaAccess lets the shared export/import helpers reach backend meta
// storage without caring which backend they run on.
type metaAccess interface {
	getMeta(ctx context.Context, key string) (string, error)
	setMeta(ctx context.Context, key, value string) error
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}
