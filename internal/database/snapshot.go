package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"uls_etl/internal/models"
)

// AircraftRepository stores the deduplicated aircraft snapshot
type AircraftRepository interface {
	ReplaceAll(licenses []models.AircraftLicense, batchSize int) error
	Count() (int, error)
}

// TowerRepository stores the tower registration snapshot
type TowerRepository interface {
	ReplaceAll(regs []models.TowerRegistration, batchSize int) error
	Count() (int, error)
}

type aircraftRepository struct {
	db *sql.DB
}

func NewAircraftRepository(db *sql.DB) AircraftRepository {
	return &aircraftRepository{db: db}
}

var aircraftColumns = []string{"call_sign", "name", "street_address", "city", "state", "zip", "frn"}

// ReplaceAll swaps the table content for licenses in a single transaction
func (r *aircraftRepository) ReplaceAll(licenses []models.AircraftLicense, batchSize int) error {
	return replaceAll(r.db, "INSERT OR REPLACE INTO", "aircraft_licenses", aircraftColumns, licenses, batchSize,
		func(a models.AircraftLicense) []any {
			return []any{a.CallSign, a.Name, a.StreetAddress, a.City, a.State, a.Zip, a.FRN}
		})
}

func (r *aircraftRepository) Count() (int, error) {
	return count(r.db, "aircraft_licenses")
}

type towerRepository struct {
	db *sql.DB
}

func NewTowerRepository(db *sql.DB) TowerRepository {
	return &towerRepository{db: db}
}

var towerColumns = []string{
	"record_type", "registration_type", "registration_number", "ebf_number", "unique_id",
	"status_code", "company_name", "phone", "street_address", "city", "state", "zip_code", "contact_name",
}

// ReplaceAll swaps the table content for regs in a single transaction
func (r *towerRepository) ReplaceAll(regs []models.TowerRegistration, batchSize int) error {
	return replaceAll(r.db, "INSERT INTO", "tower_registrations", towerColumns, regs, batchSize,
		func(t models.TowerRegistration) []any {
			return []any{
				t.RecordType, t.RegistrationType, t.RegistrationNumber, t.EBFNumber, t.UniqueID,
				t.StatusCode, t.CompanyName, t.Phone, t.StreetAddress, t.City, t.State, t.ZipCode,
				t.ContactName,
			}
		})
}

func (r *towerRepository) Count() (int, error) {
	return count(r.db, "tower_registrations")
}

// SQLite rejects statements with more bound parameters than this
const maxBoundParams = 32766

// batchRows returns how many rows one multi-row INSERT carries
func batchRows(batchSize, columns, total int) int {
	limit := maxBoundParams / columns
	if batchSize <= 0 || batchSize > total {
		batchSize = total
	}
	if batchSize > limit {
		batchSize = limit
	}
	return batchSize
}

// insertSQL builds "<verb> table (cols) VALUES (?,..),(?,..)" for rows rows
func insertSQL(verb, table string, columns []string, rows int) string {
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	values := make([]string, rows)
	for i := range values {
		values[i] = tuple
	}
	return fmt.Sprintf("%s %s (%s) VALUES %s", verb, table, strings.Join(columns, ", "), strings.Join(values, ", "))
}

// replaceAll deletes every row of table and inserts rows with one multi-row
// INSERT per batch. Readers see either the old or the new snapshot.
func replaceAll[T any](db *sql.DB, verb, table string, columns []string, rows []T, batchSize int, args func(T) []any) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	//nolint:gosec // G202: table is a package constant
	if _, err := tx.Exec("DELETE FROM " + table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	if len(rows) > 0 {
		size := batchRows(batchSize, len(columns), len(rows))

		//nolint:gosec // G202: table and columns are package constants
		stmt, err := tx.Prepare(insertSQL(verb, table, columns, size))
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		batch := make([]any, 0, size*len(columns))
		for start := 0; start < len(rows); start += size {
			end := min(start+size, len(rows))

			batch = batch[:0]
			for _, row := range rows[start:end] {
				batch = append(batch, args(row)...)
			}

			// the trailing short batch needs its own statement
			if end-start == size {
				_, err = stmt.Exec(batch...)
			} else {
				//nolint:gosec // G202: table and columns are package constants
				_, err = tx.Exec(insertSQL(verb, table, columns, end-start), batch...)
			}
			if err != nil {
				return fmt.Errorf("failed to insert into %s: %w", table, err)
			}
			slog.Debug("Inserted batch", "table", table, "rows", end, "total", len(rows))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func count(db *sql.DB, table string) (int, error) {
	var n int
	//nolint:gosec // G202: table is a package constant
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
