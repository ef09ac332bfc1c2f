package datarecording

import (
	"database/sql"
	"fmt"
)

// DataReader reads back recorded tables.
type DataReader interface {
	// ListTables returns the names of all tables in the database.
	ListTables() ([]string, error)

	// Count returns the number of rows in a table.
	Count(tableName string) (int, error)

	// Close closes the reader
	Close() error
}

type sqliteReader struct {
	*sql.DB
}

// NewReader opens a database file for reading.
func NewReader(dbFilename string) (DataReader, error) {
	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		return nil, err
	}

	return &sqliteReader{DB: db}, nil
}

func (r *sqliteReader) ListTables() ([]string, error) {
	rows, err := r.Query(
		"SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}

		tables = append(tables, name)
	}

	return tables, rows.Err()
}

func (r *sqliteReader) Count(tableName string) (int, error) {
	var count int

	err := r.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", tableName)).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", tableName, err)
	}

	return count, nil
}
