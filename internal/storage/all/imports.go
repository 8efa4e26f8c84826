// Package all wires every built-in storage backend into the storage factory.
//
// Importing it for side effects runs each backend's init, which registers its
// factory (and, for SQL backends, its DDL bootstrapper):
//
//   - "sqlite"   (internal/storage/sqlite)
//   - "postgres" (internal/storage/postgres)
//   - "mssql"    (internal/storage/mssql)
//   - "mysql"    (internal/storage/mysql)
//   - "mongo"    (internal/storage/mongo)
//   - "console"  (internal/storage/console)
//
// A binary that needs only a subset can import the backend packages
// directly instead.
package all

import (
	_ "jsonrows/internal/storage/console"
	_ "jsonrows/internal/storage/mongo"
	_ "jsonrows/internal/storage/mssql"
	_ "jsonrows/internal/storage/mysql"
	_ "jsonrows/internal/storage/postgres"
	_ "jsonrows/internal/storage/sqlite"
)
