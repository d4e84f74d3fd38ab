// Package database opens the SQLite file holding nlogd's audit trail and
// keeps its schema current.
//
// Open configures go-sqlite3 through the connection string (busy timeout,
// foreign keys, optionally WAL) and limits the pool to one connection.
// Migrations come from an fs.FS, normally the embedded migrations package:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Files are named YYYYMMDD_HHMMSS_description.up.sql with an optional
// matching .down.sql. `nlogd migrate status` and `nlogd migrate down`
// expose MigrationStatus and MigrateDown.
package database
