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

// Package envfile reads and writes the KEY=VALUE file that carries the
// database connection parameters.
package envfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tomoncle/dbenv/utils"
)

const (
	KeyUser     = "DB_USER"
	KeyPassword = "DB_PASSWORD"
	KeyName     = "DB_NAME"
	KeyHost     = "DB_HOST"
	KeyPort     = "DB_PORT"

	// FileName is the env file name inside the project root.
	FileName = ".env"
)

// ErrUnencodable is returned by Write for a value that cannot be stored
// so that it reads back unchanged.
var ErrUnencodable = errors.New("value cannot be stored in the env file")

// Keys lists the record keys in the order they are written.
var Keys = []string{KeyUser, KeyPassword, KeyName, KeyHost, KeyPort}

// Record is the set of database connection parameters persisted to disk.
type Record struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     string
}

// FromMap builds a Record from parsed KEY=VALUE pairs. Unknown keys are ignored.
func FromMap(values map[string]string) Record {
	return Record{
		User:     values[KeyUser],
		Password: values[KeyPassword],
		Name:     values[KeyName],
		Host:     values[KeyHost],
		Port:     values[KeyPort],
	}
}

// Get returns the value stored under one of the record keys.
func (r Record) Get(key string) string {
	switch key {
	case KeyUser:
		return r.User
	case KeyPassword:
		return r.Password
	case KeyName:
		return r.Name
	case KeyHost:
		return r.Host
	case KeyPort:
		return r.Port
	default:
		return ""
	}
}

// Map returns the record as a key/value map.
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(Keys))
	for _, k := range Keys {
		m[k] = r.Get(k)
	}
	return m
}

// Encode serializes the record as KEY=VALUE lines in the fixed key order.
// Plain values are written verbatim; values the parser would alter are
// quoted (see quoteValue).
func (r Record) Encode() []byte {
	var buf bytes.Buffer
	for _, k := range Keys {
		fmt.Fprintf(&buf, "%s=%s\n", k, quoteValue(r.Get(k)))
	}
	return buf.Bytes()
}

// quoteValue returns v in a form godotenv reads back unchanged. Single
// quotes are literal; double quotes are used when v holds a single quote.
func quoteValue(v string) string {
	if isPlainValue(v) {
		return v
	}
	if !strings.ContainsAny(v, "'\r\n") && !strings.HasSuffix(v, `\`) {
		return "'" + v + "'"
	}
	return `"` + doubleQuoteEscaper.Replace(v) + `"`
}

// isPlainValue reports whether v survives unquoted: no variable reference,
// no comment marker, no leading quote and no surrounding whitespace.
func isPlainValue(v string) bool {
	if strings.ContainsAny(v, "$#\r\n") || v != strings.TrimSpace(v) {
		return false
	}
	return !strings.HasPrefix(v, "'") && !strings.HasPrefix(v, `"`)
}

var doubleQuoteEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`$`, `\$`,
	"\n", `\n`,
	"\r", `\r`,
)

// Write overwrites path with the encoded record. A record whose encoding
// does not parse back to the same values is rejected.
func Write(path string, r Record) error {
	if err := verifyEncoding(r); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create env file directory: %w", err)
		}
	}
	if err := os.WriteFile(path, r.Encode(), 0o600); err != nil {
		return fmt.Errorf("failed to write env file %s: %w", path, err)
	}
	return nil
}

// verifyEncoding parses each encoded line on its own and checks the value
// reads back unchanged.
func verifyEncoding(r Record) error {
	for k, want := range r.Map() {
		got, err := godotenv.Unmarshal(k + "=" + quoteValue(want) + "\n")
		if err != nil || got[k] != want {
			return fmt.Errorf("%w: %s", ErrUnencodable, k)
		}
	}
	return nil
}

// Read parses the env file at path into a key/value map.
func Read(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse parses KEY=VALUE content from r.
func Parse(r io.Reader) (map[string]string, error) {
	values, err := godotenv.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse env content: %w", err)
	}
	return values, nil
}

// DefaultPath returns the .env path in the project root, falling back to
// the working directory when no go.mod is found above it.
func DefaultPath() (string, error) {
	root, err := utils.ProjectRootOrWorkdir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve project root: %w", err)
	}
	return filepath.Join(root, FileName), nil
}
