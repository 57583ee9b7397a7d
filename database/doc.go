// Package database loads the connection record from the env file, builds
// the connection string and hands out scoped sessions from a lazily created
// Bun connection pool.
package database
