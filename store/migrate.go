// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// targetVersion is the compiled-in schema version. Bump it and add a new
// migrate_vN entry (plus a migrations/NNN_*.sql file documenting the
// change) whenever the schema changes.
const targetVersion = 2

// MigrationError wraps a DDL failure that isn't a recognized no-op
// (duplicate column / table already exists).
type MigrationError struct {
	Version int
	Stmt    string
	Err     error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("store: migration v%d failed on %q: %v", e.Version, e.Stmt, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// migrate brings db from its current user_version up to targetVersion,
// then applies the full base schema as an idempotent tail step so a fresh
// database gets every column from every migration without walking the
// ALTER path.
func migrate(db *sql.DB) error {
	var current int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&current); err != nil {
		return fmt.Errorf("store: read user_version: %w", err)
	}

	for v := current + 1; v <= targetVersion; v++ {
		fn, ok := migrations[v]
		if !ok {
			return fmt.Errorf("store: no migration registered for version %d", v)
		}
		if err := fn(db); err != nil {
			return err
		}
		if _, err := db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, v)); err != nil {
			return fmt.Errorf("store: set user_version to %d: %w", v, err)
		}
		log.Info().Int("version", v).Msg("applied migration")
	}

	return applyBaseSchema(db)
}

// execIdempotent runs stmt, treating the vendor-specific "duplicate column
// name" and "table already exists" errors as no-ops rather than failures.
// Any other error aborts the migration with a typed MigrationError.
func execIdempotent(db *sql.DB, version int, stmt string) error {
	_, err := db.Exec(stmt)
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "duplicate column name") || strings.Contains(msg, "already exists") {
		return nil
	}
	return &MigrationError{Version: version, Stmt: stmt, Err: err}
}

// migrations is the version -> migrate_vN registry. v1 is the initial
// schema; every statement in it is also present in the base schema below,
// so migrations and base schema together are equivalent to replaying the
// chain from v0 on an empty file.
var migrations = map[int]func(*sql.DB) error{
	1: migrateV1,
	2: migrateV2,
}

func migrateV1(db *sql.DB) error {
	return execSQLFile(db, 1, "migrations/001_init.sql")
}

func migrateV2(db *sql.DB) error {
	return execSQLFile(db, 2, "migrations/002_employer_lookup.sql")
}

// applyBaseSchema executes every CREATE ... IF NOT EXISTS statement in the
// base schema unconditionally, an idempotent tail step applied on every open, not a one-time migration.
func applyBaseSchema(db *sql.DB) error {
	return execSQLFile(db, targetVersion, "migrations/schema.sql")
}

func execSQLFile(db *sql.DB, version int, name string) error {
	raw, err := migrationFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("store: read %s: %w", name, err)
	}
	for _, stmt := range strings.Split(string(raw), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if err := execIdempotent(db, version, stmt); err != nil {
			return err
		}
	}
	return nil
}
