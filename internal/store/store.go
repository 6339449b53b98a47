// Package store implements the persistence layer shared by the analyzer
// and the evaluator (spec §4.5): a ContractStore and an AnalysisStore,
// both materialized over SQLite SAVEPOINTs so nested transactional scopes
// can be independently committed or rolled back while sharing one outer
// transaction. This is grounded on tablelandnetwork/go-tableland's use of
// github.com/mattn/go-sqlite3 (retrieved in the example pack): SQLite's
// native SAVEPOINT/RELEASE/ROLLBACK TO statements are a closer structural
// match to spec §4.5's savepoint tree than a hand-rolled in-memory diff
// stack would be.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE contracts (
	name TEXT PRIMARY KEY,
	source TEXT NOT NULL
);
CREATE TABLE functions (
	contract TEXT NOT NULL,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	param_names TEXT NOT NULL,
	param_types BLOB NOT NULL,
	return_type BLOB NOT NULL,
	body TEXT NOT NULL,
	PRIMARY KEY (contract, name)
);
CREATE TABLE map_schemas (
	contract TEXT NOT NULL,
	map_name TEXT NOT NULL,
	key_type BLOB NOT NULL,
	value_type BLOB NOT NULL,
	PRIMARY KEY (contract, map_name)
);
CREATE TABLE map_entries (
	contract TEXT NOT NULL,
	map_name TEXT NOT NULL,
	key_repr TEXT NOT NULL,
	value_blob BLOB NOT NULL,
	PRIMARY KEY (contract, map_name, key_repr)
);
CREATE TABLE data_vars (
	contract TEXT NOT NULL,
	var_name TEXT NOT NULL,
	var_type BLOB NOT NULL,
	value_blob BLOB NOT NULL,
	PRIMARY KEY (contract, var_name)
);
CREATE TABLE constants (
	contract TEXT NOT NULL,
	name TEXT NOT NULL,
	value_blob BLOB NOT NULL,
	PRIMARY KEY (contract, name)
);
CREATE TABLE token_ledgers (
	contract TEXT NOT NULL,
	token TEXT NOT NULL,
	kind TEXT NOT NULL,
	holder_repr TEXT NOT NULL,
	value_blob BLOB NOT NULL,
	PRIMARY KEY (contract, token, kind, holder_repr)
);
CREATE TABLE analysis (
	contract TEXT PRIMARY KEY,
	json TEXT NOT NULL
);
CREATE TABLE blocks (
	height INTEGER PRIMARY KEY,
	block_time INTEGER NOT NULL
);
`

// Store owns the on-disk SQLite handle. Per spec §5, a Store handle is not
// safe to share across goroutines: savepoint state is stateful and the core
// is single-threaded and synchronous.
type Store struct {
	db      *sql.DB
	spCount int64
}

// Initialize creates a fresh store file and both schemas (spec §6.1). It
// fails if path already exists.
func Initialize(path string) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("initialize: %s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Open opens an existing store file.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Savepoint is a nested transactional scope (spec §4.5). Every Savepoint in
// a tree shares the same *sql.Tx (the outer transaction); nesting issues a
// SQL SAVEPOINT, commit issues RELEASE, and rollback issues ROLLBACK TO.
type Savepoint struct {
	store    *Store
	tx       *sql.Tx
	name     string // "" for the outer transaction itself
	depth    int
	parent   *Savepoint
	readOnly bool
	done     bool
}

// BeginOuter opens the outer transaction (spec §4.5: "a savepoint tree
// rooted at an outer transaction").
func (s *Store) BeginOuter() (*Savepoint, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	return &Savepoint{store: s, tx: tx, depth: 0}, nil
}

// Nest returns a child savepoint, invisible to its parent until committed.
func (sp *Savepoint) Nest() (*Savepoint, error) {
	if sp.done {
		return nil, errors.New("store: cannot nest a finished savepoint")
	}
	n := atomic.AddInt64(&sp.store.spCount, 1)
	name := fmt.Sprintf("sp_%d", n)
	if _, err := sp.tx.Exec("SAVEPOINT " + name); err != nil {
		return nil, err
	}
	return &Savepoint{
		store:    sp.store,
		tx:       sp.tx,
		name:     name,
		depth:    sp.depth + 1,
		parent:   sp,
		readOnly: sp.readOnly,
	}, nil
}

// ReadOnlyChild wraps the savepoint's root view in a read-only marker (spec
// §5): used by `check`, `eval`, `eval_raw`, and `repl`. The nested
// scope still shares the same underlying SQL transaction; the read-only
// flag is enforced purely at the evaluator layer (spec §9 design notes).
func (sp *Savepoint) ReadOnlyChild() (*Savepoint, error) {
	child, err := sp.Nest()
	if err != nil {
		return nil, err
	}
	child.readOnly = true
	return child, nil
}

func (sp *Savepoint) ReadOnly() bool { return sp.readOnly }

// Commit promotes this savepoint's writes to its parent (spec §4.5).
func (sp *Savepoint) Commit() error {
	if sp.done {
		return errors.New("store: savepoint already finished")
	}
	sp.done = true
	if sp.depth == 0 {
		return sp.tx.Commit()
	}
	_, err := sp.tx.Exec("RELEASE SAVEPOINT " + sp.name)
	return err
}

// Rollback discards this savepoint's writes (spec §4.5).
func (sp *Savepoint) Rollback() error {
	if sp.done {
		return nil
	}
	sp.done = true
	if sp.depth == 0 {
		return sp.tx.Rollback()
	}
	if _, err := sp.tx.Exec("ROLLBACK TO SAVEPOINT " + sp.name); err != nil {
		return err
	}
	_, err := sp.tx.Exec("RELEASE SAVEPOINT " + sp.name)
	return err
}

// exec/query convenience wrappers bound to the savepoint's shared transaction.
func (sp *Savepoint) exec(query string, args ...any) (sql.Result, error) {
	return sp.tx.Exec(query, args...)
}

func (sp *Savepoint) queryRow(query string, args ...any) *sql.Row {
	return sp.tx.QueryRow(query, args...)
}

func (sp *Savepoint) query(query string, args ...any) (*sql.Rows, error) {
	return sp.tx.Query(query, args...)
}

// MineBlock appends a block, incrementing height (spec §4.5 simulated block ledger).
func (sp *Savepoint) MineBlock(blockTime int64) (uint64, error) {
	height, err := sp.BlockHeight()
	if err != nil {
		return 0, err
	}
	next := height + 1
	if _, err := sp.exec("INSERT INTO blocks (height, block_time) VALUES (?, ?)", next, blockTime); err != nil {
		return 0, err
	}
	return next, nil
}

// BlockHeight reads the current simulated block height.
func (sp *Savepoint) BlockHeight() (uint64, error) {
	var height sql.NullInt64
	err := sp.queryRow("SELECT MAX(height) FROM blocks").Scan(&height)
	if err != nil {
		return 0, err
	}
	if !height.Valid {
		return 0, nil
	}
	return uint64(height.Int64), nil
}

// BlockTime reads the recorded time for a historical block, used by `at-block`.
func (sp *Savepoint) BlockTime(height uint64) (int64, bool, error) {
	var t int64
	err := sp.queryRow("SELECT block_time FROM blocks WHERE height = ?", height).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return t, true, nil
}
