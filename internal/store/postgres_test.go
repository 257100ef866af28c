package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/healthscore/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

func TestPostgresStore_GetCustomer_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT data FROM customers WHERE id = \$1`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetCustomer(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCustomer_DecodesValueVariants(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	doc := []byte(`{"id":"c1","name":"Acme Corp","metricValues":{"1":[15,12,8,5],"2":85}}`)
	mock.ExpectQuery(`SELECT data FROM customers WHERE id = \$1`).
		WithArgs("c1").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(doc))

	got, err := s.GetCustomer(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, model.Trend([4]float64{15, 12, 8, 5}), got.MetricValues["1"])
	assert.Equal(t, model.Scalar(85), got.MetricValues["2"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveMetric_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO metrics .*ON CONFLICT`).
		WithArgs("1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveMetric(context.Background(), model.DefaultMetrics()[0])
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteBand_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM score_bands WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.DeleteBand(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListMetrics_Order(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"data"}).
		AddRow([]byte(`{"id":"1","name":"Ticket","weight":30,"inputType":"upload","lowerBand":0,"upperBand":24,"lowerIsBetter":true,"useTrending":true}`)).
		AddRow([]byte(`{"id":"2","name":"Adoption","weight":20,"inputType":"upload","lowerBand":0,"upperBand":100,"lowerIsBetter":false,"useTrending":false}`))
	mock.ExpectQuery(`SELECT data FROM metrics ORDER BY pos`).WillReturnRows(rows)

	metrics, err := s.ListMetrics(context.Background())
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	assert.Equal(t, "Ticket", metrics[0].Name)
	assert.True(t, metrics[0].UseTrending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceCustomers(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM customers`).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(`INSERT INTO customers`).
		WithArgs("a", 1, "Alpha", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO customers`).
		WithArgs("b", 2, "Beta", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.ReplaceCustomers(context.Background(), []model.Customer{
		{ID: "a", Name: "Alpha"},
		{ID: "b", Name: "Beta"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
