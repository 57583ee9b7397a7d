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

package provision

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/dbenv/envfile"
)

func TestAskRequiredRepromptsUntilValue(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("\n   \nsecret\n"), &out)

	v, err := p.Ask("Database password (DB_PASSWORD)", "", true)
	require.NoError(t, err)
	assert.Equal(t, "secret", v)
	assert.Equal(t, 2, strings.Count(out.String(), requiredFieldMessage))
	assert.Equal(t, 3, strings.Count(out.String(), "Database password (DB_PASSWORD) (Required): "))
}

func TestAskDefaultOnEmptyInput(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("\n"), &out)

	v, err := p.Ask("Database port (DB_PORT)", "5432", true)
	require.NoError(t, err)
	assert.Equal(t, "5432", v)
	assert.Contains(t, out.String(), "Database port (DB_PORT) (Default: 5432): ")
	assert.NotContains(t, out.String(), requiredFieldMessage)
}

func TestAskTrimsInput(t *testing.T) {
	p := NewPrompter(strings.NewReader("  mydb \t\n"), &bytes.Buffer{})

	v, err := p.Ask("Database name (DB_NAME)", "", true)
	require.NoError(t, err)
	assert.Equal(t, "mydb", v)
}

func TestAskOptionalWithoutDefault(t *testing.T) {
	p := NewPrompter(strings.NewReader("\n"), &bytes.Buffer{})

	v, err := p.Ask("Comment", "", false)
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestAskLastLineWithoutNewline(t *testing.T) {
	p := NewPrompter(strings.NewReader("value"), &bytes.Buffer{})

	v, err := p.Ask("Name", "", true)
	require.NoError(t, err)
	assert.Equal(t, "value", v)
}

func TestAskRequiredAtEOF(t *testing.T) {
	p := NewPrompter(strings.NewReader("\n"), &bytes.Buffer{})

	_, err := p.Ask("Database password (DB_PASSWORD)", "", true)
	assert.ErrorIs(t, err, ErrInputClosed)
}

func TestAskDefaultAtEOF(t *testing.T) {
	p := NewPrompter(strings.NewReader(""), &bytes.Buffer{})

	v, err := p.Ask("Database host (DB_HOST)", "db", true)
	require.NoError(t, err)
	assert.Equal(t, "db", v)
}

func TestCollect(t *testing.T) {
	var out bytes.Buffer
	input := strings.Join([]string{
		"",       // user -> default postgres
		"",       // password required, re-prompted
		"secret", // password
		"mydb",   // name
		"",       // host -> default db
		"",       // port -> default 5432
	}, "\n") + "\n"
	p := NewPrompter(strings.NewReader(input), &out)

	rec, err := p.Collect()
	require.NoError(t, err)
	assert.Equal(t, envfile.Record{User: "postgres", Password: "secret", Name: "mydb", Host: "db", Port: "5432"}, rec)
	assert.Equal(t, 1, strings.Count(out.String(), requiredFieldMessage))
}

func TestCollectStopsOnClosedInput(t *testing.T) {
	p := NewPrompter(strings.NewReader("admin\n"), &bytes.Buffer{})

	_, err := p.Collect()
	assert.ErrorIs(t, err, ErrInputClosed)
}
