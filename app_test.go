/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package dbenv_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/dbenv"
	"github.com/tomoncle/dbenv/database"
	"github.com/tomoncle/dbenv/envfile"
)

func writeEnv(t *testing.T, rec envfile.Record, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), envfile.FileName)
	require.NoError(t, os.WriteFile(path, append(rec.Encode(), extra...), 0o600))
	return path
}

func TestBootstrapSQLite(t *testing.T) {
	dir := t.TempDir()
	path := writeEnv(t, envfile.Record{
		User:     "app",
		Password: "secret",
		Name:     filepath.Join(dir, "app"),
	}, "DB_TYPE=sqlite\n")

	app, err := dbenv.Bootstrap(path, database.WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	assert.False(t, app.Sessions.Connected())

	var one int
	err = app.WithSession(context.Background(), func(ctx context.Context, s *database.Session) error {
		return s.NewSelect().ColumnExpr("1").Scan(ctx, &one)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, one)
	assert.Zero(t, app.Sessions.OpenSessions())
}

func TestBootstrapConnectionString(t *testing.T) {
	t.Setenv("DB_TYPE", "")
	path := writeEnv(t, envfile.Record{
		User:     "postgres",
		Password: "secret",
		Name:     "mydb",
		Host:     "db",
		Port:     "5432",
	}, "")

	app, err := dbenv.Bootstrap(path)
	require.NoError(t, err)

	dsn, err := app.ConnectionString()
	require.NoError(t, err)
	assert.Equal(t, "postgresql://postgres:secret@db:5432/mydb", dsn)
	assert.NoError(t, app.Close())
}

func TestBootstrapMissingPassword(t *testing.T) {
	path := writeEnv(t, envfile.Record{User: "postgres", Name: "mydb"}, "")

	_, err := dbenv.Bootstrap(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrMissingConfig)
	assert.Contains(t, err.Error(), envfile.KeyPassword)
}
