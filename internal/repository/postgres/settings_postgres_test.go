package postgres

import (
	"context"
	"errors"
	"testing"

	"treatviz/internal/model"
	"treatviz/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsPostgres_Load(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSettingsPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"data"}).
			AddRow([]byte(`{"prompts":{"week4":"X"},"documents":[{"id":"d1","name":"a.txt"}]}`))
		mock.ExpectQuery(`SELECT data FROM app_settings WHERE id = \$1`).WithArgs(1).WillReturnRows(rows)

		s, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "X", s.Prompts.Week4)
		assert.Equal(t, model.DefaultSettings().Prompts.Week8, s.Prompts.Week8)
		require.Len(t, s.Documents, 1)
		assert.Equal(t, "d1", s.Documents[0].ID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT data FROM app_settings").WillReturnRows(sqlmock.NewRows([]string{"data"}))

		s, err := repo.Load(ctx)
		assert.ErrorIs(t, err, repository.ErrSettingsNotFound)
		assert.Nil(t, s)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery("SELECT data FROM app_settings").WillReturnError(errors.New("db down"))

		s, err := repo.Load(ctx)
		assert.EqualError(t, err, "db down")
		assert.Nil(t, s)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsPostgres_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSettingsPostgres(db)
	s := model.DefaultSettings()

	mock.ExpectExec(`INSERT INTO app_settings \(id,data,updated_at\) VALUES \(\$1,\$2,\$3\) ON CONFLICT \(id\) DO UPDATE`).
		WithArgs(1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Save(context.Background(), &s))

	mock.ExpectExec("INSERT INTO app_settings").
		WithArgs(1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("write failed"))

	assert.Error(t, repo.Save(context.Background(), &s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsPostgres_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	repo := NewSettingsPostgres(db)
	assert.NoError(t, repo.Ping(context.Background()))
	assert.NoError(t, repo.Ensure(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
