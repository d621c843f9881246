package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/fraudstream/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateExportRunsTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS export_runs (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		requested INTEGER NOT NULL,
		written INTEGER NOT NULL,
		fraud_count INTEGER NOT NULL,
		include_labels BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

func migrateExportRunsTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='export_runs'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("'export_runs' table does not exist, no migration needed as table will be created.")
			} else {
				stdlog.Println("'export_runs' table does not exist, no migration needed as table will be created.")
			}
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'export_runs' table", "error", err)
		} else {
			stdlog.Printf("Error checking for 'export_runs' table: %v", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(export_runs)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'export_runs'", "error", err)
		} else {
			stdlog.Printf("Error querying table schema for 'export_runs': %v", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'export_runs'", "error", err)
			} else {
				stdlog.Printf("Error scanning column info for 'export_runs': %v", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'export_runs'", "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for 'export_runs': %v", err)
		}
		return
	}

	// include_labels was added after the first release of the exporter.
	if _, ok := columnExists["include_labels"]; !ok {
		_, err := DB.Exec("ALTER TABLE export_runs ADD COLUMN include_labels BOOLEAN NOT NULL DEFAULT TRUE")
		if err != nil {
			logger.L.Error("Error adding 'include_labels' column to 'export_runs' table", "error", err)
		} else {
			logger.L.Info("Added 'include_labels' column to 'export_runs' table")
		}
	}
}
