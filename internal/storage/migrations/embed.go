// Package migrations carries the embedded schema for the engine's stores:
// the fact_ledgers and strategies tables in PostgreSQL and the
// calculation_audit table in ClickHouse. Files apply in lexical order.
package migrations

import "embed"

//go:embed postgres/*.sql
var PostgresFS embed.FS

//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
