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
	"database/sql"
	"fmt"
	"math"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// DriverDSN returns the data source name handed to the database/sql driver.
// For postgres it is the connection string plus driver options.
func (c *Config) DriverDSN() (string, error) {
	connStr, err := c.ConnectionString()
	if err != nil {
		return "", err
	}

	switch c.Type {
	case TypePostgres:
		u, err := url.Parse(connStr)
		if err != nil {
			return "", fmt.Errorf("invalid connection string: %w", err)
		}
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		q := u.Query()
		q.Set("sslmode", sslMode)
		if c.ConnectTimeout > 0 {
			q.Set("connect_timeout", strconv.Itoa(timeoutSeconds(c.ConnectTimeout)))
		}
		u.RawQuery = q.Encode()
		return u.String(), nil

	case TypeMySQL:
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = c.Host
		if c.Port != "" {
			mc.Addr = net.JoinHostPort(c.Host, c.Port)
		}
		mc.DBName = c.Name
		mc.ParseTime = true
		mc.Loc = time.Local
		mc.Timeout = c.ConnectTimeout
		mc.ReadTimeout = c.ReadTimeout
		mc.WriteTimeout = c.WriteTimeout
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return mc.FormatDSN(), nil

	case TypeSQLite:
		return fmt.Sprintf("%s.db", c.Name), nil

	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, c.Type)
	}
}

// timeoutSeconds rounds d up to whole seconds; lib/pq reads 0 as no timeout.
func timeoutSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

// openConnection creates the pool and the bun handle for cfg. No connection
// is made until the pool is first used.
func openConnection(cfg *Config, logger Logger) (*sql.DB, *bun.DB, error) {
	dsn, err := cfg.DriverDSN()
	if err != nil {
		return nil, nil, err
	}

	var sqlDB *sql.DB
	var db *bun.DB

	switch cfg.Type {
	case TypePostgres:
		if sqlDB, err = sql.Open("postgres", dsn); err == nil {
			db = bun.NewDB(sqlDB, pgdialect.New())
		}
	case TypeMySQL:
		if sqlDB, err = sql.Open("mysql", dsn); err == nil {
			db = bun.NewDB(sqlDB, mysqldialect.New())
		}
	case TypeSQLite:
		if sqlDB, err = sql.Open(sqliteshim.ShimName, dsn); err == nil {
			db = bun.NewDB(sqlDB, sqlitedialect.New())
		}
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedType, cfg.Type)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s connection pool: %w", cfg.Type, err)
	}

	configureConnectionPool(sqlDB, cfg)

	if cfg.EnableQueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}
	if cfg.SlowQueryTime > 0 {
		db.AddQueryHook(&slowQueryHook{
			slowTime: cfg.SlowQueryTime,
			logger:   logger,
		})
	}

	return sqlDB, db, nil
}

func configureConnectionPool(sqlDB *sql.DB, cfg *Config) {
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}
