// Package db provides embedded database schema and seed data files.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// SeedMerchandise is the demo merchandise catalog, used by cmd/seed-db and by
// the in-memory catalog when no database is configured.
//
//go:embed seed/merchandise.json
var SeedMerchandise []byte
