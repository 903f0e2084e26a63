// Package database provides PostgreSQL connection pool management for the
// postgres history backend.
package database
