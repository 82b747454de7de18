// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package storebackend is a fast mirror index over the filesystem journal:
// (rootId, selfId) -> {agentId, round, runState, lastModified}, queried for
// "list my dialogs" without walking .dialogs/ on every request. The
// filesystem remains the single source of truth; a backend is rebuilt from
// it wholesale whenever the two disagree.
package storebackend

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Row is one mirrored dialog's summary state.
type Row struct {
	RootID       string
	SelfID       string
	AgentID      string
	Round        int
	RunState     string
	LastModified time.Time
}

// Backend is the mirror-index contract every driver (sqlite/postgres/mysql)
// satisfies identically.
type Backend interface {
	// Upsert writes or replaces one dialog's mirrored row.
	Upsert(ctx context.Context, row Row) error
	// Get returns the mirrored row for (rootID, selfID), if present.
	Get(ctx context.Context, rootID, selfID string) (Row, bool, error)
	// ListByRoot returns every mirrored row under rootID (the root itself
	// plus its subdialogs).
	ListByRoot(ctx context.Context, rootID string) ([]Row, error)
	// Delete removes a mirrored row, e.g. once its dialog goes terminal/dead.
	Delete(ctx context.Context, rootID, selfID string) error
	// Rebuild replaces the entire mirror contents with rows, used when
	// revival finds the mirror disagrees with the filesystem journal.
	Rebuild(ctx context.Context, rows []Row) error
	Close() error
}

// sqlBackend implements Backend over database/sql with driver-specific
// DDL/placeholder differences isolated to dialect.
type sqlBackend struct {
	db      *sql.DB
	dialect dialect
}

// dialect isolates the handful of things that differ across SQLite,
// Postgres and MySQL: the driver name (also selects the upsert syntax in
// Upsert) and the table's CREATE statement.
type dialect struct {
	name        string
	createTable string
}

func open(driverName, dsn string, d dialect) (*sqlBackend, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("storebackend: open %s: %w", d.name, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storebackend: ping %s: %w", d.name, err)
	}
	if _, err := db.Exec(d.createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("storebackend: create table %s: %w", d.name, err)
	}
	return &sqlBackend{db: db, dialect: d}, nil
}

func (b *sqlBackend) Close() error { return b.db.Close() }

func (b *sqlBackend) Upsert(ctx context.Context, row Row) error {
	var query string
	var args []any
	switch b.dialect.name {
	case "sqlite3":
		query = `INSERT INTO dialog_mirror (root_id, self_id, agent_id, round, run_state, last_modified)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(root_id, self_id) DO UPDATE SET
				agent_id=excluded.agent_id, round=excluded.round, run_state=excluded.run_state, last_modified=excluded.last_modified`
		args = []any{row.RootID, row.SelfID, row.AgentID, row.Round, row.RunState, row.LastModified}
	case "postgres":
		query = `INSERT INTO dialog_mirror (root_id, self_id, agent_id, round, run_state, last_modified)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (root_id, self_id) DO UPDATE SET
				agent_id=EXCLUDED.agent_id, round=EXCLUDED.round, run_state=EXCLUDED.run_state, last_modified=EXCLUDED.last_modified`
		args = []any{row.RootID, row.SelfID, row.AgentID, row.Round, row.RunState, row.LastModified}
	case "mysql":
		query = `INSERT INTO dialog_mirror (root_id, self_id, agent_id, round, run_state, last_modified)
			VALUES (?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE agent_id=VALUES(agent_id), round=VALUES(round), run_state=VALUES(run_state), last_modified=VALUES(last_modified)`
		args = []any{row.RootID, row.SelfID, row.AgentID, row.Round, row.RunState, row.LastModified}
	default:
		return fmt.Errorf("storebackend: unknown dialect %q", b.dialect.name)
	}
	_, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("storebackend: upsert: %w", err)
	}
	return nil
}

func (b *sqlBackend) Get(ctx context.Context, rootID, selfID string) (Row, bool, error) {
	query := b.rebind(`SELECT root_id, self_id, agent_id, round, run_state, last_modified FROM dialog_mirror WHERE root_id = ? AND self_id = ?`)
	var row Row
	err := b.db.QueryRowContext(ctx, query, rootID, selfID).Scan(&row.RootID, &row.SelfID, &row.AgentID, &row.Round, &row.RunState, &row.LastModified)
	if err == sql.ErrNoRows {
		return Row{}, false, nil
	}
	if err != nil {
		return Row{}, false, fmt.Errorf("storebackend: get: %w", err)
	}
	return row, true, nil
}

func (b *sqlBackend) ListByRoot(ctx context.Context, rootID string) ([]Row, error) {
	query := b.rebind(`SELECT root_id, self_id, agent_id, round, run_state, last_modified FROM dialog_mirror WHERE root_id = ?`)
	rows, err := b.db.QueryContext(ctx, query, rootID)
	if err != nil {
		return nil, fmt.Errorf("storebackend: list by root: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.RootID, &row.SelfID, &row.AgentID, &row.Round, &row.RunState, &row.LastModified); err != nil {
			return nil, fmt.Errorf("storebackend: scan: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (b *sqlBackend) Delete(ctx context.Context, rootID, selfID string) error {
	query := b.rebind(`DELETE FROM dialog_mirror WHERE root_id = ? AND self_id = ?`)
	_, err := b.db.ExecContext(ctx, query, rootID, selfID)
	if err != nil {
		return fmt.Errorf("storebackend: delete: %w", err)
	}
	return nil
}

// Rebuild truncates and repopulates the mirror in one transaction — used
// when revival finds the mirror disagrees with the filesystem journal,
// which remains the single source of truth.
func (b *sqlBackend) Rebuild(ctx context.Context, rows []Row) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storebackend: rebuild: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM dialog_mirror`); err != nil {
		return fmt.Errorf("storebackend: rebuild: truncate: %w", err)
	}
	insert := b.rebind(`INSERT INTO dialog_mirror (root_id, self_id, agent_id, round, run_state, last_modified) VALUES (?, ?, ?, ?, ?, ?)`)
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, insert, row.RootID, row.SelfID, row.AgentID, row.Round, row.RunState, row.LastModified); err != nil {
			return fmt.Errorf("storebackend: rebuild: insert: %w", err)
		}
	}
	return tx.Commit()
}

// rebind rewrites a query written with "?" placeholders into Postgres's
// "$N" style when needed; SQLite and MySQL use "?" natively.
func (b *sqlBackend) rebind(query string) string {
	if b.dialect.name != "postgres" {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, []byte(fmt.Sprintf("$%d", n))...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}
