// Package database provides the SQLite store used by the command core.
//
// Only the command audit trail lives here today. The store is opened in WAL
// mode with a single writer connection, and the schema is managed by
// numbered migrations embedded in the binary (see the migrations package).
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive: new columns must be nullable or carry a default.
package database
