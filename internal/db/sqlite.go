package db

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS records (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    modified_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`

type SQLite struct {
	dsn  string
	conn *sql.DB
}

// NewSQLite returns an unopened database for the given file path or MemoryDSN.
func NewSQLite(dsn string) *SQLite {
	return &SQLite{
		dsn:  dsn,
		conn: nil,
	}
}

func (s *SQLite) InitDB() error {
	var err error
	s.conn, err = sql.Open("sqlite3", s.dsn)
	if err != nil {
		return errors.Wrapf(err, "open sqlite %s", s.dsn)
	}

	// Each connection to :memory: is its own database, and sqlite allows a
	// single writer anyway.
	s.conn.SetMaxOpenConns(1)

	if strings.HasPrefix(s.dsn, MemoryDSN) {
		dbLogger.Debug().Msg("Using in-memory database")
	} else if _, err := s.conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		return errors.Wrap(err, "enable WAL")
	}

	res, err := s.conn.Exec(schema)
	if err != nil {
		return errors.Wrap(err, "create schema")
	}

	dbLogger.Info().Str("dsn", s.dsn).Any("db_result", res).Msg("Database initialized")
	return nil
}

func (s *SQLite) Get() *sql.DB {
	return s.conn
}

func (s *SQLite) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *SQLite) Query(query string, args ...interface{}) (*sql.Rows, error) {
	dbLogger.Debug().Str("query", query).Msg("Query")
	return s.conn.Query(query, args...)
}

func (s *SQLite) QueryRow(query string, args ...interface{}) *sql.Row {
	dbLogger.Debug().Str("query", query).Msg("QueryRow")
	return s.conn.QueryRow(query, args...)
}

func (s *SQLite) Exec(query string, args ...interface{}) (sql.Result, error) {
	dbLogger.Debug().Str("query", query).Msg("Exec")
	return s.conn.Exec(query, args...)
}
