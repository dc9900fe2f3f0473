// Package sqlite provides the persistent store for documents, chunks,
// embeddings and the vector index catalog.
//
// The default driver is modernc.org/sqlite, a pure Go SQLite implementation
// that needs no cgo. Building with the sqlite_cgo tag switches to
// github.com/mattn/go-sqlite3. One *sql.DB pool is opened per process and
// shared by every store view:
//
//   - DocumentStore: documents and chunks
//   - EmbeddingStore: one vector per chunk, uniform dimensionality
//   - IndexCatalog: named vector index state
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.chunkwise/data/chunkwise.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. SQLite in WAL mode serialises
// writers; multi-row writes run in a single transaction.
package sqlite
