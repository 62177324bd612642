package migration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treatviz/internal/logging"
)

func events(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestEnsureMigrated(t *testing.T) {
	ctx := context.Background()

	t.Run("already migrated", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT to_regclass").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		assert.NoError(t, EnsureMigrated(ctx, db, logging.Discard()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fresh database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT to_regclass").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS app_settings").
			WillReturnResult(sqlmock.NewResult(0, 0))

		var buf bytes.Buffer
		assert.NoError(t, EnsureMigrated(ctx, db, logging.New(&buf, nil)))
		assert.NoError(t, mock.ExpectationsWereMet())

		lines := events(t, &buf)
		require.Len(t, lines, 4)
		assert.Equal(t, "db_migration_check", lines[0]["msg"])
		assert.Equal(t, "db_migration_step", lines[2]["msg"])
		assert.Equal(t, "create_table_app_settings", lines[2]["migration_step"])
		assert.Equal(t, "db_migration_success", lines[3]["msg"])
		for _, l := range lines {
			assert.Equal(t, "database", l["component"])
			assert.Equal(t, "info", l["level"])
		}
	})

	t.Run("step failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT to_regclass").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

		var buf bytes.Buffer
		err = EnsureMigrated(ctx, db, logging.New(&buf, nil))
		assert.ErrorContains(t, err, "create_table_app_settings")

		lines := events(t, &buf)
		last := lines[len(lines)-1]
		assert.Equal(t, "db_migration_failed", last["msg"])
		assert.Equal(t, "error", last["level"])
		assert.Equal(t, "permission denied", last["error"])
	})

	t.Run("sentinel check failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT to_regclass").WillReturnError(errors.New("conn reset"))

		err = EnsureMigrated(ctx, db, logging.Discard())
		assert.ErrorContains(t, err, "failed to check sentinel table")
	})
}
