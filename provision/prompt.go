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
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tomoncle/dbenv/envfile"
)

// ErrInputClosed is returned when input ends while a required field is empty.
var ErrInputClosed = errors.New("input closed before a required value was provided")

const requiredFieldMessage = "This field is required. Please provide a value."

// Field describes one prompted configuration value.
type Field struct {
	Key      string
	Label    string
	Default  string
	Required bool
}

// RecordFields are prompted in order to build an envfile.Record.
var RecordFields = []Field{
	{Key: envfile.KeyUser, Label: "Database user (DB_USER)", Default: "postgres"},
	{Key: envfile.KeyPassword, Label: "Database password (DB_PASSWORD)", Required: true},
	{Key: envfile.KeyName, Label: "Database name (DB_NAME)", Required: true},
	{Key: envfile.KeyHost, Label: "Database host (DB_HOST)", Default: "db"},
	{Key: envfile.KeyPort, Label: "Database port (DB_PORT)", Default: "5432"},
}

// Prompter reads line-based answers from in and writes prompts to out.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Ask prompts for a single value.
//
// Empty input returns def when def is set. Otherwise an empty answer to a
// required field prints a diagnostic and prompts again; an optional field
// returns "".
func (p *Prompter) Ask(label, def string, required bool) (string, error) {
	hint := "Required"
	if def != "" {
		hint = "Default: " + def
	}
	for {
		if _, err := fmt.Fprintf(p.out, "%s (%s): ", label, hint); err != nil {
			return "", err
		}
		line, readErr := p.in.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return "", fmt.Errorf("failed to read %s: %w", label, readErr)
		}

		if value := strings.TrimSpace(line); value != "" {
			return value, nil
		}
		if def != "" {
			return def, nil
		}
		if !required {
			return "", nil
		}
		if readErr != nil {
			fmt.Fprintln(p.out)
			return "", fmt.Errorf("%s: %w", label, ErrInputClosed)
		}
		fmt.Fprintln(p.out, failure(requiredFieldMessage))
	}
}

// Field prompts for f.
func (p *Prompter) Field(f Field) (string, error) {
	return p.Ask(f.Label, f.Default, f.Required)
}

// Collect prompts for every RecordFields entry.
func (p *Prompter) Collect() (envfile.Record, error) {
	values := make(map[string]string, len(RecordFields))
	for _, f := range RecordFields {
		v, err := p.Field(f)
		if err != nil {
			return envfile.Record{}, err
		}
		values[f.Key] = v
	}
	return envfile.FromMap(values), nil
}
