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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tomoncle/dbenv/envfile"
	"github.com/tomoncle/dbenv/provision"
	"github.com/tomoncle/dbenv/utils"
)

const envPrefix = "DBENV"

type streams struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// newSettings binds DBENV_ENV_FILE, DBENV_LOG_LEVEL and DBENV_LOG_FORMAT.
func newSettings() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	return v
}

func resolveEnvPath(v *viper.Viper) (string, error) {
	if p := v.GetString("env_file"); p != "" {
		return p, nil
	}
	return envfile.DefaultPath()
}

func newRootCmd(s streams, v *viper.Viper, opts ...provision.ToolchainOption) *cobra.Command {
	return &cobra.Command{
		Use:           "dbenv-setup",
		Short:         "Write the database env file and start the compose stack",
		Long:          "dbenv-setup prompts for the database credentials, writes them to the .env file,\nchecks that docker and docker-compose are installed and runs docker-compose up --build.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			utils.ConfigureOutput(s.errOut)
			if lvl := v.GetString("log_level"); lvl != "" {
				utils.ConfigureLogLevel(lvl)
			}
			if format := v.GetString("log_format"); format != "" {
				utils.ConfigureConsoleLogFormat(format)
			}

			path, err := resolveEnvPath(v)
			if err != nil {
				return fmt.Errorf("resolve env file path: %w", err)
			}

			tcOpts := append([]provision.ToolchainOption{provision.WithStdio(s.in, s.out, s.errOut)}, opts...)
			p := provision.New(path, provision.NewPrompter(s.in, s.out), provision.NewToolchain(tcOpts...), s.out)
			return p.Run(cmd.Context())
		},
	}
}

func execute(ctx context.Context, args []string, s streams, v *viper.Viper, opts ...provision.ToolchainOption) int {
	cmd := newRootCmd(s, v, opts...)
	cmd.SetArgs(args)
	cmd.SetOut(s.out)
	cmd.SetErr(s.errOut)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(s.errOut, provision.Failure(err.Error()))
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], streams{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}, newSettings())
	stop()
	os.Exit(code)
}
