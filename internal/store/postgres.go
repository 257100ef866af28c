package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/healthscore/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool, for installations that share
// one catalog between several operators.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS metrics (
	id   TEXT PRIMARY KEY,
	pos  BIGINT NOT NULL,
	data JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS score_bands (
	id   TEXT PRIMARY KEY,
	pos  BIGINT NOT NULL,
	data JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS custom_fields (
	id   TEXT PRIMARY KEY,
	pos  BIGINT NOT NULL,
	data JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS customers (
	id   TEXT PRIMARY KEY,
	pos  BIGINT NOT NULL,
	name TEXT NOT NULL,
	data JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS submissions (
	id           TEXT PRIMARY KEY,
	submitted_at TIMESTAMPTZ NOT NULL,
	data         JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS mapping_profiles (
	id   TEXT PRIMARY KEY,
	pos  BIGINT NOT NULL,
	data JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_customers_name ON customers(name);
CREATE INDEX IF NOT EXISTS idx_submissions_submitted_at ON submissions(submitted_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) upsertDoc(ctx context.Context, table, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return eris.Wrapf(err, "postgres: marshal %s", table)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+table+` (id, pos, data)
		 VALUES ($1, (SELECT COALESCE(MAX(pos), 0) + 1 FROM `+table+`), $2)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`,
		id, string(data),
	)
	return eris.Wrapf(err, "postgres: upsert %s", table)
}

func (s *PostgresStore) deleteDoc(ctx context.Context, table, entity, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete %s %s", entity, id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

func listPgDocs[T any](ctx context.Context, pool Pool, table, order string) ([]T, error) {
	rows, err := pool.Query(ctx, `SELECT data FROM `+table+` ORDER BY `+order)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list %s", table)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrapf(err, "postgres: scan %s", table)
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal %s", table)
		}
		out = append(out, v)
	}
	return out, eris.Wrapf(rows.Err(), "postgres: iterate %s", table)
}

func (s *PostgresStore) ListMetrics(ctx context.Context) ([]model.Metric, error) {
	return listPgDocs[model.Metric](ctx, s.pool, "metrics", "pos")
}

func (s *PostgresStore) SaveMetric(ctx context.Context, m model.Metric) error {
	return s.upsertDoc(ctx, "metrics", m.ID, m)
}

func (s *PostgresStore) DeleteMetric(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, "metrics", "metric", id)
}

func (s *PostgresStore) ListBands(ctx context.Context) ([]model.ScoreBand, error) {
	return listPgDocs[model.ScoreBand](ctx, s.pool, "score_bands", "pos")
}

func (s *PostgresStore) SaveBand(ctx context.Context, b model.ScoreBand) error {
	return s.upsertDoc(ctx, "score_bands", b.ID, b)
}

func (s *PostgresStore) DeleteBand(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, "score_bands", "band", id)
}

func (s *PostgresStore) ListFields(ctx context.Context) ([]model.CustomField, error) {
	return listPgDocs[model.CustomField](ctx, s.pool, "custom_fields", "pos")
}

func (s *PostgresStore) SaveField(ctx context.Context, f model.CustomField) error {
	return s.upsertDoc(ctx, "custom_fields", f.ID, f)
}

func (s *PostgresStore) DeleteField(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, "custom_fields", "field", id)
}

func (s *PostgresStore) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	return listPgDocs[model.Customer](ctx, s.pool, "customers", "pos")
}

func (s *PostgresStore) GetCustomer(ctx context.Context, id string) (*model.Customer, error) {
	row := s.pool.QueryRow(ctx, `SELECT data FROM customers WHERE id = $1`, id)

	var data []byte
	err := row.Scan(&data)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "customer %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get customer")
	}

	var c model.Customer
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal customer")
	}
	return &c, nil
}

func (s *PostgresStore) SaveCustomer(ctx context.Context, c model.Customer) error {
	data, err := json.Marshal(c)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal customer")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO customers (id, pos, name, data)
		 VALUES ($1, (SELECT COALESCE(MAX(pos), 0) + 1 FROM customers), $2, $3)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, data = EXCLUDED.data`,
		c.ID, c.Name, string(data),
	)
	return eris.Wrapf(err, "postgres: upsert customer %s", c.ID)
}

func (s *PostgresStore) DeleteCustomer(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, "customers", "customer", id)
}

func (s *PostgresStore) ReplaceCustomers(ctx context.Context, customers []model.Customer) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM customers`); err != nil {
		return eris.Wrap(err, "postgres: clear customers")
	}
	for i, c := range customers {
		data, err := json.Marshal(c)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal customer")
		}
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO customers (id, pos, name, data) VALUES ($1, $2, $3, $4)`,
			c.ID, i+1, c.Name, string(data),
		); err != nil {
			return eris.Wrapf(err, "postgres: insert customer %s", c.ID)
		}
	}
	return nil
}

func (s *PostgresStore) ListSubmissions(ctx context.Context) ([]model.Submission, error) {
	return listPgDocs[model.Submission](ctx, s.pool, "submissions", "submitted_at DESC, id")
}

func (s *PostgresStore) AddSubmission(ctx context.Context, sub model.Submission) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal submission")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO submissions (id, submitted_at, data) VALUES ($1, $2, $3)`,
		sub.ID, sub.SubmittedAt.UTC(), string(data),
	)
	return eris.Wrap(err, "postgres: insert submission")
}

func (s *PostgresStore) ListProfiles(ctx context.Context) ([]model.MappingProfile, error) {
	return listPgDocs[model.MappingProfile](ctx, s.pool, "mapping_profiles", "pos")
}

func (s *PostgresStore) SaveProfile(ctx context.Context, p model.MappingProfile) error {
	return s.upsertDoc(ctx, "mapping_profiles", p.ID, p)
}

func (s *PostgresStore) DeleteProfile(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, "mapping_profiles", "profile", id)
}

func (s *PostgresStore) Export(ctx context.Context) (*model.AppData, error) {
	return exportDocument(ctx, s)
}

func (s *PostgresStore) Import(ctx context.Context, data *model.AppData) error {
	if err := s.Clear(ctx); err != nil {
		return err
	}
	return importDocument(ctx, s, data)
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	for _, table := range []string{
		"metrics", "score_bands", "custom_fields",
		"customers", "submissions", "mapping_profiles", "meta",
	} {
		if _, err := s.pool.Exec(ctx, `DELETE FROM `+table); err != nil {
			return eris.Wrapf(err, "postgres: clear %s", table)
		}
	}
	return nil
}

func (s *PostgresStore) getMeta(ctx context.Context, key string) (string, error) {
	row := s.pool.QueryRow(ctx, `SELECT value FROM meta WHERE key = $1`, key)
	var value string
	err := row.Scan(&value)
	if eris.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return value, eris.Wrapf(err, "postgres: get meta %s", key)
}

func (s *PostgresStore) setMeta(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO meta (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value,
	)
	return eris.Wrapf(err, "postgres: set meta %s", key)
}
