package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect(t *testing.T) {
	tt := []struct {
		name    string
		rows    *sqlmock.Rows
		want    []Row
		wantErr string
	}{
		{
			name: "bytes become strings",
			rows: sqlmock.NewRows([]string{"id", "name"}).
				AddRow(int64(2), []byte("Bob")).
				AddRow(int64(3), nil),
			want: []Row{
				{"id": int64(2), "name": "Bob"},
				{"id": int64(3), "name": nil},
			},
		},
		{
			name: "empty result is not nil",
			rows: sqlmock.NewRows([]string{"id"}),
			want: []Row{},
		},
		{
			name: "row error fails the result",
			rows: sqlmock.NewRows([]string{"id"}).
				AddRow(int64(1)).
				RowError(0, errors.New("connection reset")),
			wantErr: "connection reset",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectQuery(`SELECT id, name FROM customers WHERE id > \?`).
				WithArgs(1).
				WillReturnRows(tc.rows)

			results, err := NewExecutor(db).Select(context.Background(), "SELECT id, name FROM customers WHERE id > ?", 1)
			if tc.wantErr != "" {
				assert.EqualError(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, results)
			assert.Equal(t, tc.want, results)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSelectQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("no such table: customers"))

	_, err = NewExecutor(db).Select(context.Background(), "SELECT id FROM customers")
	assert.EqualError(t, err, "no such table: customers")
}

func TestSlowSelect(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT 1`).
		WillDelayFor(5 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(int64(1)))
	mock.ExpectClose()

	e := NewExecutor(db).WithSlowThreshold(time.Millisecond)
	results, err := e.Select(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, []Row{{"1": int64(1)}}, results)

	require.NoError(t, e.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}
