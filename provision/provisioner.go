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
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/dbenv/envfile"
	"github.com/tomoncle/dbenv/utils"
)

const loggerName = "PROVISION"

var (
	successColor = color.New(color.FgGreen)
	failureColor = color.New(color.FgRed)
	headingColor = color.New(color.Bold)
)

func success(msg string) string { return successColor.Sprint("✅ " + msg) }

func failure(msg string) string { return failureColor.Sprint("❌ " + msg) }

// Failure formats msg as a console diagnostic.
func Failure(msg string) string { return failure(msg) }

// Provisioner writes the env file, checks the toolchain and starts the
// compose stack. Steps run in order and the first failure stops the run.
type Provisioner struct {
	EnvPath string

	prompter  *Prompter
	toolchain *Toolchain
	out       io.Writer
	logger    *logrus.Logger
}

func New(envPath string, prompter *Prompter, toolchain *Toolchain, out io.Writer) *Provisioner {
	return &Provisioner{
		EnvPath:   envPath,
		prompter:  prompter,
		toolchain: toolchain,
		out:       out,
		logger:    utils.NewLogger(loggerName),
	}
}

// WriteConfiguration prompts for the record and overwrites the env file.
func (p *Provisioner) WriteConfiguration() (envfile.Record, error) {
	fmt.Fprintln(p.out, headingColor.Sprint("\n--- Environment variables ---"))
	rec, err := p.prompter.Collect()
	if err != nil {
		return envfile.Record{}, err
	}
	if err := envfile.Write(p.EnvPath, rec); err != nil {
		return envfile.Record{}, err
	}
	fmt.Fprintln(p.out, success(".env file created at: "+p.EnvPath))
	p.logger.WithField("path", p.EnvPath).Debug("env file written")
	return rec, nil
}

// CheckToolchain verifies the container tooling is installed.
func (p *Provisioner) CheckToolchain(ctx context.Context) error {
	if err := p.toolchain.Check(ctx); err != nil {
		return err
	}
	fmt.Fprintln(p.out, success("Docker and Docker Compose are installed."))
	return nil
}

// BuildAndRun starts the compose stack and blocks until it exits.
func (p *Provisioner) BuildAndRun(ctx context.Context) error {
	fmt.Fprintln(p.out, headingColor.Sprint("\n--- Starting Docker Compose ---"))
	return p.toolchain.BuildAndRun(ctx)
}

// Run executes write configuration, toolchain check and build in order.
func (p *Provisioner) Run(ctx context.Context) error {
	fmt.Fprintln(p.out, "⚙️  Initializing Docker configuration and .env file")

	if _, err := p.WriteConfiguration(); err != nil {
		return err
	}
	if err := p.CheckToolchain(ctx); err != nil {
		return err
	}
	return p.BuildAndRun(ctx)
}
