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

// Package dbenv wires the env file written by dbenv-setup to a session
// provider. Applications call Bootstrap once at startup and pass the App
// to the code that needs database sessions.
package dbenv

import (
	"context"
	"fmt"

	"github.com/tomoncle/dbenv/database"
	"github.com/tomoncle/dbenv/envfile"
)

// App holds the loaded configuration and the session provider built from it.
type App struct {
	Config   *database.Config
	Sessions *database.Provider
}

// Bootstrap loads the env file at envPath and returns an App. An empty
// envPath resolves to the .env file at the project root. No connection is
// opened until the first session is requested.
func Bootstrap(envPath string, opts ...database.Option) (*App, error) {
	if envPath == "" {
		p, err := envfile.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolve env file path: %w", err)
		}
		envPath = p
	}

	cfg, err := database.LoadConfig(envPath)
	if err != nil {
		return nil, err
	}
	provider, err := database.NewProvider(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &App{Config: cfg, Sessions: provider}, nil
}

// ConnectionString returns the connection string derived from the env file.
func (a *App) ConnectionString() (string, error) {
	return a.Config.ConnectionString()
}

// WithSession runs fn with a scoped session. See database.Provider.WithSession.
func (a *App) WithSession(ctx context.Context, fn func(ctx context.Context, s *database.Session) error) error {
	return a.Sessions.WithSession(ctx, fn)
}

// Close releases the connection pool.
func (a *App) Close() error {
	return a.Sessions.Close()
}
