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

package storebackend

import (
	_ "github.com/mattn/go-sqlite3"
)

const sqliteCreateTable = `CREATE TABLE IF NOT EXISTS dialog_mirror (
	root_id TEXT NOT NULL,
	self_id TEXT NOT NULL,
	agent_id TEXT NOT NULL,
	round INTEGER NOT NULL,
	run_state TEXT NOT NULL,
	last_modified DATETIME NOT NULL,
	PRIMARY KEY (root_id, self_id)
)`

// NewSQLite opens (creating if absent) the mirror index at path, the
// default backend for a single-instance deployment.
func NewSQLite(path string) (Backend, error) {
	return open("sqlite3", path, dialect{name: "sqlite3", createTable: sqliteCreateTable})
}
