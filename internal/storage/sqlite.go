package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure Go driver, no cgo

	"github.com/samcharles93/ififf/pkg/gameid"
)

// SQLiteStore is a SlotStore backed by a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at dbPath, creating parent
// directories and the schema as needed. A leading ~ expands to the home
// directory.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if strings.HasPrefix(dbPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS save_slots (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			has_identity INTEGER NOT NULL DEFAULT 0,
			release INTEGER NOT NULL DEFAULT 0,
			serial TEXT NOT NULL DEFAULT '',
			checksum INTEGER NOT NULL DEFAULT 0,
			data BLOB NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_save_slots_created ON save_slots(created_at, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put inserts the slot, replacing any slot with the same id.
func (s *SQLiteStore) Put(ctx context.Context, slot Slot) error {
	if slot.ID == "" {
		return errors.New("storage: slot id is empty")
	}
	data := slot.Data
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO save_slots
		 (id, name, has_identity, release, serial, checksum, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		slot.ID, slot.Name, slot.HasIdentity,
		int64(slot.Identity.Release), slot.Identity.SerialString(), int64(slot.Identity.Checksum),
		data, slot.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save slot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Slot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, has_identity, release, serial, checksum, data, created_at
		 FROM save_slots WHERE id = ?`, id)
	var (
		slot Slot
		sc   slotColumns
	)
	if err := row.Scan(&slot.ID, &slot.Name, &sc.hasIdentity, &sc.release, &sc.serial, &sc.checksum, &slot.Data, &sc.created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Slot{}, ErrSlotNotFound
		}
		return Slot{}, fmt.Errorf("storage: cannot load slot: %w", err)
	}
	sc.apply(&slot)
	return slot, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Slot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, has_identity, release, serial, checksum, created_at
		 FROM save_slots ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query slots: %w", err)
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		var (
			slot Slot
			sc   slotColumns
		)
		if err := rows.Scan(&slot.ID, &slot.Name, &sc.hasIdentity, &sc.release, &sc.serial, &sc.checksum, &sc.created); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		sc.apply(&slot)
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return slots, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM save_slots WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("storage: cannot delete slot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: cannot delete slot: %w", err)
	}
	if n == 0 {
		return ErrSlotNotFound
	}
	return nil
}

type slotColumns struct {
	hasIdentity bool
	release     int64
	serial      string
	checksum    int64
	created     int64
}

func (sc slotColumns) apply(slot *Slot) {
	slot.HasIdentity = sc.hasIdentity
	if sc.hasIdentity {
		slot.Identity = gameid.Identity{
			Release:  uint16(sc.release),
			Checksum: uint16(sc.checksum),
		}
		copy(slot.Identity.Serial[:], sc.serial)
	}
	slot.CreatedAt = time.Unix(0, sc.created).UTC()
}

var (
	_ SlotStore = (*MemoryStore)(nil)
	_ SlotStore = (*SQLiteStore)(nil)
)
