package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/debemdeboas/zenblog/internal/db"
)

// DBBackend keeps each record as one row of the records table.
type DBBackend struct { // implements Backend
	db db.DB
}

func NewDBBackend(db db.DB) *DBBackend {
	return &DBBackend{db: db}
}

func (b *DBBackend) Get(key string) ([]byte, error) {
	var value []byte
	err := b.db.QueryRow(`SELECT value FROM records WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (b *DBBackend) Put(key string, value []byte) error {
	res, err := b.db.Exec(
		`INSERT INTO records (key, value, modified_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, modified_at = excluded.modified_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	repoLogger.Debug().Interface("result", res).Str("key", key).Msg("Record upserted")
	return nil
}

func (b *DBBackend) Delete(key string) error {
	_, err := b.db.Exec(`DELETE FROM records WHERE key = ?`, key)
	return err
}

func (b *DBBackend) Close() error {
	return b.db.Close()
}
