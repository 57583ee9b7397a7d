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
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/uptrace/bun"
)

// Provider owns a lazily created connection pool and hands out sessions.
// It is safe for concurrent use.
type Provider struct {
	config *Config
	logger Logger

	mu     sync.RWMutex
	db     *bun.DB
	sqlDB  *sql.DB
	closed bool

	sessions atomic.Int64
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the provider logger. A nil logger disables logging.
func WithLogger(logger Logger) Option {
	return func(p *Provider) {
		if logger == nil {
			logger = nopLogger{}
		}
		p.logger = logger
	}
}

// NewProvider validates cfg and returns a provider. It performs no I/O.
func NewProvider(cfg *Config, opts ...Option) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	typ, err := normalizeType(cfg.Type)
	if err != nil {
		return nil, err
	}
	cfg.Type = typ

	p := &Provider{config: cfg, logger: NewDefaultLogger()}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the configuration the provider was built from.
func (p *Provider) Config() *Config {
	return p.config
}

// Connect creates the pool on first call and verifies it with a ping.
// Later calls return the existing handle.
func (p *Provider) Connect(ctx context.Context) (*bun.DB, error) {
	p.mu.RLock()
	db, closed := p.db, p.closed
	p.mu.RUnlock()
	if closed {
		return nil, ErrProviderClosed
	}
	if db != nil {
		return db, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrProviderClosed
	}
	if p.db != nil {
		return p.db, nil
	}

	sqlDB, db, err := openConnection(p.config, p.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	pingCtx := ctx
	if p.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, p.config.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database connection test failed: %w", err)
	}

	p.db, p.sqlDB = db, sqlDB
	p.logger.Info("Database connected successfully", "type", p.config.Type, "host", p.config.Host, "database", p.config.Name)
	return db, nil
}

// Connected reports whether the pool has been created.
func (p *Provider) Connected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.db != nil
}

// Acquire opens a new session. The caller must Close it; prefer WithSession.
func (p *Provider) Acquire(ctx context.Context) (*Session, error) {
	db, err := p.Connect(ctx)
	if err != nil {
		return nil, err
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session: %w", err)
	}
	p.sessions.Add(1)
	return &Session{Conn: conn, provider: p}, nil
}

// WithSession acquires a session, passes it to fn and releases it exactly
// once on every exit path, including a panic in fn, which is re-raised.
// A release error is returned only when fn itself succeeded.
func (p *Provider) WithSession(ctx context.Context, fn func(ctx context.Context, s *Session) error) (err error) {
	s, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to release session: %w", cerr)
		}
	}()
	return fn(ctx, s)
}

func (p *Provider) release() {
	p.sessions.Add(-1)
}

// OpenSessions returns the number of sessions acquired and not yet closed.
func (p *Provider) OpenSessions() int64 {
	return p.sessions.Load()
}

// Ping checks an already created pool. It does not create one.
func (p *Provider) Ping(ctx context.Context) error {
	p.mu.RLock()
	db := p.db
	p.mu.RUnlock()

	if db == nil {
		return fmt.Errorf("database not connected")
	}
	return db.PingContext(ctx)
}

// HealthCheck pings the pool and reports its state.
func (p *Provider) HealthCheck(ctx context.Context) *HealthStatus {
	p.mu.RLock()
	db, sqlDB := p.db, p.sqlDB
	p.mu.RUnlock()

	start := time.Now()
	status := &HealthStatus{LastCheckTime: start}

	if db == nil {
		status.LastError = "Database not connected"
		return status
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	err := db.PingContext(ctxTimeout)
	status.ResponseTime = time.Since(start)
	if err != nil {
		status.LastError = err.Error()
		p.logger.Warn("Database health check failed", "error", err)
	} else {
		status.Healthy = true
		status.Connected = true
	}

	stats := sqlDB.Stats()
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConnections
	return status
}

// Stats returns pool statistics; zero values before the pool exists.
func (p *Provider) Stats() *DBStats {
	p.mu.RLock()
	sqlDB := p.sqlDB
	p.mu.RUnlock()

	if sqlDB == nil {
		return &DBStats{OpenSessions: p.OpenSessions()}
	}

	stats := sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxIdleTimeClosed: stats.MaxIdleTimeClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
		OpenSessions:      p.OpenSessions(),
	}
}

// Close closes the pool. Later Acquire calls fail with ErrProviderClosed.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.db == nil {
		return nil
	}

	err := p.db.Close()
	p.db = nil
	p.sqlDB = nil
	if err != nil {
		p.logger.Error("Failed to close database connection", "error", err)
		return err
	}
	p.logger.Info("Database connection closed")
	return nil
}
