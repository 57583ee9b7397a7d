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

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
)

type recordingLogger struct {
	nopLogger
	warnings []string
	fields   [][]interface{}
}

func (l *recordingLogger) Warn(msg string, fields ...interface{}) {
	l.warnings = append(l.warnings, msg)
	l.fields = append(l.fields, fields)
}

func TestSlowQueryHook(t *testing.T) {
	logger := &recordingLogger{}
	hook := &slowQueryHook{slowTime: 10 * time.Millisecond, logger: logger}
	ctx := context.Background()

	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now()})
	assert.Empty(t, logger.warnings)

	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now().Add(-time.Second), Err: errors.New("failed")})
	assert.Empty(t, logger.warnings, "failed queries are not reported as slow")

	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT pg_sleep(1)", StartTime: time.Now().Add(-time.Second)})
	if assert.Len(t, logger.warnings, 1) {
		assert.Contains(t, logger.warnings[0], "slow query")
		assert.Contains(t, logger.fields[0], "SELECT pg_sleep(1)")
	}
}

func TestToFields(t *testing.T) {
	fields := toFields([]interface{}{"host", "db", "port", 5432, "dangling"})
	assert.Len(t, fields, 2)
	assert.Equal(t, "db", fields["host"])
	assert.Equal(t, 5432, fields["port"])
}
