// Package store owns the *sql.DB lifecycle: opening the SQLite file in
// WAL mode, running schema migrations, minting the module's own
// identity on first boot, and compressing/hashing the periodic
// snapshot blob. It is the generalization of the teacher's
// initDB/createSchema/initIdentity trio, spread across the teacher's
// several draft files, into one place with versioned migrations
// instead of ad hoc CREATE TABLE IF NOT EXISTS blocks.
package store

import (
	"bytes"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	sqlite3migrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"

	"github.com/ownworld/core/internal/ids"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store bundles the database handle with the module's own identity,
// minted once at genesis and reloaded on every subsequent boot.
type Store struct {
	DB             *sql.DB
	ModuleIdentity ids.Identity
}

// Open opens (creating if necessary) the SQLite file at path, applies
// all pending migrations, and resolves the module identity.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: creating data dir: %w", err)
		}
	}
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: opening sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("store: pinging sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // single-writer transactional model (spec §5)

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	moduleID, err := loadOrMintModuleIdentity(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{DB: db, ModuleIdentity: moduleID}, nil
}

// OpenMemory opens a uniquely-named in-memory database for tests,
// applying the same migrations a production store would run. Each call
// gets its own named database so parallel tests in one process never
// share state.
func OpenMemory() (*Store, error) {
	name := fmt.Sprintf("memdb-%s", ids.NewIdentity())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	moduleID, err := loadOrMintModuleIdentity(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{DB: db, ModuleIdentity: moduleID}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("store: loading migrations: %w", err)
	}
	dbDriver, err := sqlite3migrate.WithInstance(db, &sqlite3migrate.Config{})
	if err != nil {
		return fmt.Errorf("store: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", dbDriver)
	if err != nil {
		return fmt.Errorf("store: building migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("store: applying migrations: %w", err)
	}
	return nil
}

func loadOrMintModuleIdentity(db *sql.DB) (ids.Identity, error) {
	var hexID string
	err := db.QueryRow(`SELECT value FROM system_meta WHERE key = 'module_identity'`).Scan(&hexID)
	switch {
	case err == nil:
		return ids.ParseIdentity(hexID)
	case errors.Is(err, sql.ErrNoRows):
		id := ids.NewIdentity()
		if _, err := db.Exec(
			`INSERT INTO system_meta (key, value) VALUES ('module_identity', ?)`,
			id.String(),
		); err != nil {
			return id, fmt.Errorf("store: persisting module identity: %w", err)
		}
		return id, nil
	default:
		return ids.Identity{}, fmt.Errorf("store: loading module identity: %w", err)
	}
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.DB.Close()
}

// CompressSnapshot LZ4-compresses a snapshot payload for storage in
// daily_snapshots.state_blob.
func CompressSnapshot(payload []byte) []byte {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	_, _ = w.Write(payload)
	_ = w.Close()
	return buf.Bytes()
}

// DecompressSnapshot reverses CompressSnapshot.
func DecompressSnapshot(compressed []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(compressed))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HashSnapshot returns the hex BLAKE3 digest of a snapshot payload, the
// final_hash column value, letting operators verify a snapshot wasn't
// corrupted in transit or at rest.
func HashSnapshot(payload []byte) string {
	sum := blake3.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// SaveSnapshot compresses, hashes, and upserts a snapshot for dayID.
func (s *Store) SaveSnapshot(dayID int64, payload []byte) error {
	compressed := CompressSnapshot(payload)
	hash := HashSnapshot(payload)
	_, err := s.DB.Exec(
		`INSERT INTO daily_snapshots (day_id, state_blob, final_hash) VALUES (?, ?, ?)
		 ON CONFLICT(day_id) DO UPDATE SET state_blob = excluded.state_blob, final_hash = excluded.final_hash`,
		dayID, compressed, hash,
	)
	return err
}

// LoadSnapshot retrieves and decompresses a previously saved snapshot,
// verifying its content hash.
func (s *Store) LoadSnapshot(dayID int64) ([]byte, error) {
	var compressed []byte
	var wantHash string
	err := s.DB.QueryRow(
		`SELECT state_blob, final_hash FROM daily_snapshots WHERE day_id = ?`, dayID,
	).Scan(&compressed, &wantHash)
	if err != nil {
		return nil, err
	}
	payload, err := DecompressSnapshot(compressed)
	if err != nil {
		return nil, err
	}
	if got := HashSnapshot(payload); got != wantHash {
		return nil, fmt.Errorf("store: snapshot %d failed hash verification", dayID)
	}
	return payload, nil
}
