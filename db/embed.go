// Package db provides the embedded schema migrations and seed data.
package db

import "embed"

// Migrations holds the golang-migrate files under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// SeedStock is the demo catalogue loaded by seed-db.
//
//go:embed seed/stock.json
var SeedStock []byte
