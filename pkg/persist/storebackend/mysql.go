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
	_ "github.com/go-sql-driver/mysql"
)

const mysqlCreateTable = `CREATE TABLE IF NOT EXISTS dialog_mirror (
	root_id VARCHAR(191) NOT NULL,
	self_id VARCHAR(191) NOT NULL,
	agent_id VARCHAR(191) NOT NULL,
	round INT NOT NULL,
	run_state VARCHAR(64) NOT NULL,
	last_modified DATETIME NOT NULL,
	PRIMARY KEY (root_id, self_id)
)`

// NewMySQL opens the mirror index against a MySQL/MariaDB instance at dsn.
func NewMySQL(dsn string) (Backend, error) {
	return open("mysql", dsn, dialect{name: "mysql", createTable: mysqlCreateTable})
}
