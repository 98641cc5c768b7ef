package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB holds the SQLite snapshot of the last successful runs
type DB struct {
	db *sql.DB
}

// New creates and initializes a new database connection
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := optimizeSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to optimize database: %w", err)
	}

	database := &DB{db: db}

	if err := database.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// optimizeSQLite tunes SQLite for large bulk loads
func optimizeSQLite(db *sql.DB) error {
	pragmas := []string{
		// WAL lets readers keep querying the previous snapshot during a reload
		"PRAGMA journal_mode=WAL",
		"PRAGMA cache_size=-64000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA busy_timeout=5000",
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// AircraftRepository returns the repository for aircraft licenses
func (d *DB) AircraftRepository() AircraftRepository {
	return NewAircraftRepository(d.db)
}

// TowerRepository returns the repository for tower registrations
func (d *DB) TowerRepository() TowerRepository {
	return NewTowerRepository(d.db)
}

// initSchema creates the database schema if it doesn't exist
func (d *DB) initSchema() error {
	aircraftSchema := `CREATE TABLE IF NOT EXISTS aircraft_licenses (
		call_sign TEXT PRIMARY KEY,
		name TEXT,
		street_address TEXT,
		city TEXT,
		state TEXT,
		zip TEXT,
		frn TEXT,
		loaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	towerSchema := `CREATE TABLE IF NOT EXISTS tower_registrations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		record_type TEXT,
		registration_type TEXT,
		registration_number TEXT,
		ebf_number TEXT,
		unique_id TEXT,
		status_code TEXT,
		company_name TEXT,
		phone TEXT,
		street_address TEXT,
		city TEXT,
		state TEXT,
		zip_code TEXT,
		contact_name TEXT,
		loaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_aircraft_licenses_frn ON aircraft_licenses(frn)`,
		`CREATE INDEX IF NOT EXISTS idx_tower_registrations_number ON tower_registrations(registration_number)`,
		`CREATE INDEX IF NOT EXISTS idx_tower_registrations_state ON tower_registrations(state)`,
	}

	if _, err := d.db.Exec(aircraftSchema); err != nil {
		return fmt.Errorf("failed to create aircraft_licenses table: %w", err)
	}

	if _, err := d.db.Exec(towerSchema); err != nil {
		return fmt.Errorf("failed to create tower_registrations table: %w", err)
	}

	for _, idx := range indexes {
		if _, err := d.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
