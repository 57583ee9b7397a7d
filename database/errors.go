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
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingConfig is wrapped by ConfigError.
	ErrMissingConfig = errors.New("missing database configuration")

	ErrUnsupportedType = errors.New("unsupported database type")
	ErrProviderClosed  = errors.New("session provider closed")
)

// ConfigError reports mandatory keys that are absent or empty.
type ConfigError struct {
	Source  string
	Missing []string
}

func (e *ConfigError) Error() string {
	msg := "missing mandatory configuration keys: " + strings.Join(e.Missing, ", ")
	if e.Source != "" {
		msg = fmt.Sprintf("%s (env file %s)", msg, e.Source)
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return ErrMissingConfig }
