// Package store provides persistent storage for keepsake-authority.
//
// # Architecture
//
// Store is the single interface the authority handlers use. SQLStore
// implements it over database/sql with three drivers:
//
//   - sqlite: modernc.org/sqlite, pure Go, the default
//   - sqlite3: github.com/mattn/go-sqlite3, available in cgo builds
//   - pgx: github.com/jackc/pgx/v5/stdlib for PostgreSQL
//
// Queries are written with ? placeholders and rebound to $n for pgx.
// MockStore is an in-memory implementation for handler tests.
//
// # Schema
//
// Tables are created with CREATE TABLE IF NOT EXISTS when the store opens:
//
//   - contacts (id, name, role, email, social, created_at)
//   - memories (id, title, content, author, created_at)
//   - souvenirs (id, name, category, price, description, image_url, in_stock, created_at)
//   - orders (id, customer_name, customer_contact, items, total_amount, status, created_at)
//   - settings (name, value, updated_at)
//
// Order lines are stored as a JSON array in orders.items. Timestamps are
// fixed-width UTC text so that lexical order is chronological order.
//
// # Usage
//
//	s, err := store.Open("sqlite", "/var/lib/keepsake/keepsake.db")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	contacts, err := s.ListContacts(ctx, false)
package store
