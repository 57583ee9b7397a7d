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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/dbenv/utils"
)

type (
	// ExecCommandFunc creates the exec.Cmd for a tool invocation. Tests
	// replace it with a helper process.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// Tool is an executable whose version command must succeed.
	Tool struct {
		Name string
		Args []string
	}

	// ToolchainOption configures a Toolchain.
	ToolchainOption func(*Toolchain)

	// Toolchain checks for the container tooling and runs the compose build.
	Toolchain struct {
		Tools        []Tool
		BuildCommand []string
		// StopTimeout is how long a cancelled command may take to exit after
		// the interrupt before it is killed.
		StopTimeout  time.Duration

		stdin       io.Reader
		stdout      io.Writer
		stderr      io.Writer
		execCommand ExecCommandFunc
		logger      *logrus.Logger
	}

	// ToolchainError reports a tool that is missing or whose version check failed.
	ToolchainError struct {
		Tool    string
		Missing bool
		Err     error
	}

	// BuildError reports a failed build-and-run command.
	BuildError struct {
		Command  []string
		ExitCode int
		Err      error
	}
)

var (
	DefaultTools = []Tool{
		{Name: "docker", Args: []string{"--version"}},
		{Name: "docker-compose", Args: []string{"--version"}},
	}

	DefaultBuildCommand = []string{"docker-compose", "up", "--build"}
)

// DefaultStopTimeout leaves docker-compose time to stop its containers.
const DefaultStopTimeout = 15 * time.Second

func (e *ToolchainError) Error() string {
	if e.Missing {
		return fmt.Sprintf("%s is not installed. Please install Docker and Docker Compose before continuing", e.Tool)
	}
	return fmt.Sprintf("%s version check failed: %v", e.Tool, e.Err)
}

func (e *ToolchainError) Unwrap() error { return e.Err }

func (e *BuildError) Error() string {
	cmd := strings.Join(e.Command, " ")
	if e.ExitCode > 0 {
		return fmt.Sprintf("an error occurred while running %s (exit status %d)", cmd, e.ExitCode)
	}
	return fmt.Sprintf("an error occurred while running %s: %v", cmd, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) ToolchainOption {
	return func(t *Toolchain) {
		t.execCommand = fn
	}
}

// WithStdio sets the streams attached to the build command.
func WithStdio(in io.Reader, out, errOut io.Writer) ToolchainOption {
	return func(t *Toolchain) {
		t.stdin, t.stdout, t.stderr = in, out, errOut
	}
}

// NewToolchain returns a toolchain using DefaultTools and DefaultBuildCommand.
func NewToolchain(opts ...ToolchainOption) *Toolchain {
	t := &Toolchain{
		Tools:        DefaultTools,
		BuildCommand: DefaultBuildCommand,
		StopTimeout:  DefaultStopTimeout,
		stdin:        os.Stdin,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		execCommand:  exec.CommandContext,
		logger:       utils.NewLogger(loggerName),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Check runs every tool's version command, stopping at the first failure.
func (t *Toolchain) Check(ctx context.Context) error {
	for _, tool := range t.Tools {
		cmd := t.command(ctx, tool.Name, tool.Args...)
		out, err := cmd.Output()
		if err != nil {
			t.logger.WithField("tool", tool.Name).WithError(err).Debug("tool check failed")
			return &ToolchainError{Tool: tool.Name, Missing: isNotFound(err), Err: err}
		}
		t.logger.WithField("tool", tool.Name).Debug(strings.TrimSpace(string(out)))
	}
	return nil
}

// BuildAndRun runs the build command with the configured stdio attached and
// waits for it to exit.
func (t *Toolchain) BuildAndRun(ctx context.Context) error {
	if len(t.BuildCommand) == 0 {
		return &BuildError{Err: errors.New("no build command configured")}
	}
	cmd := t.command(ctx, t.BuildCommand[0], t.BuildCommand[1:]...)
	cmd.Stdin = t.stdin
	cmd.Stdout = t.stdout
	cmd.Stderr = t.stderr

	t.logger.WithField("command", strings.Join(t.BuildCommand, " ")).Debug("starting build")
	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &BuildError{Command: t.BuildCommand, ExitCode: exitCode, Err: err}
	}
	return nil
}

// command builds cmd so that cancelling ctx interrupts the process instead
// of killing it, and kills it only after StopTimeout.
func (t *Toolchain) command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := t.execCommand(ctx, name, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = t.StopTimeout
	return cmd
}

func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}
