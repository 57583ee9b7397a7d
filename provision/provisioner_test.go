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
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullInput = "postgres\nsecret\nmydb\ndb\n5432\n"

func newTestProvisioner(t *testing.T, input string, m *mockExec) (*Provisioner, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), ".env")
	p := New(path, NewPrompter(strings.NewReader(input), &out), newTestToolchain(m, &out), &out)
	return p, &out
}

func TestRunWritesConfigurationThenBuilds(t *testing.T) {
	m := newMockExec()
	p, out := newTestProvisioner(t, fullInput, m)

	require.NoError(t, p.Run(context.Background()))

	data, err := os.ReadFile(p.EnvPath)
	require.NoError(t, err)
	assert.Equal(t, "DB_USER=postgres\nDB_PASSWORD=secret\nDB_NAME=mydb\nDB_HOST=db\nDB_PORT=5432\n", string(data))

	assert.Equal(t, []string{
		"docker --version",
		"docker-compose --version",
		"docker-compose up --build",
	}, m.commandLines())
	assert.Contains(t, out.String(), ".env file created at: "+p.EnvPath)
	assert.Contains(t, out.String(), "Docker and Docker Compose are installed.")
}

func TestRunStopsWhenToolMissing(t *testing.T) {
	m := newMockExec()
	m.missing["docker"] = true
	p, _ := newTestProvisioner(t, fullInput, m)

	err := p.Run(context.Background())
	var tcErr *ToolchainError
	require.ErrorAs(t, err, &tcErr)

	_, statErr := os.Stat(p.EnvPath)
	assert.NoError(t, statErr, "configuration is written before the toolchain check")
	assert.Equal(t, []string{"docker --version"}, m.commandLines())
}

func TestRunReportsBuildFailure(t *testing.T) {
	m := newMockExec()
	m.exitCodes["docker-compose"] = 1
	p, _ := newTestProvisioner(t, fullInput, m)

	err := p.Run(context.Background())
	var tcErr *ToolchainError
	require.ErrorAs(t, err, &tcErr, "docker-compose --version fails first")

	m = newMockExec()
	p, _ = newTestProvisioner(t, fullInput, m)
	p.toolchain.BuildCommand = []string{"compose-build", "up"}
	m.exitCodes["compose-build"] = 4

	err = p.Run(context.Background())
	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, 4, buildErr.ExitCode)
}

func TestRunStopsOnClosedInput(t *testing.T) {
	m := newMockExec()
	p, _ := newTestProvisioner(t, "postgres\n", m)

	err := p.Run(context.Background())
	assert.ErrorIs(t, err, ErrInputClosed)

	_, statErr := os.Stat(p.EnvPath)
	assert.True(t, os.IsNotExist(statErr))
	assert.Empty(t, m.invocations)
}
