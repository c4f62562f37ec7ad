// ABOUTME: Registers the pgx database/sql driver for PostgreSQL deployments
// ABOUTME: Selected with database.driver "pgx"

package store

import (
	_ "github.com/jackc/pgx/v5/stdlib"
)
