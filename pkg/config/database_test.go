// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import "testing"

func TestDatabaseConfig_SetDefaults_PerDriverPort(t *testing.T) {
	pg := &DatabaseConfig{Driver: "postgres"}
	pg.SetDefaults()
	if pg.Port != 5432 {
		t.Errorf("postgres Port = %d, want 5432", pg.Port)
	}
	if pg.SSLMode != "disable" {
		t.Errorf("postgres SSLMode = %q, want %q", pg.SSLMode, "disable")
	}

	my := &DatabaseConfig{Driver: "mysql"}
	my.SetDefaults()
	if my.Port != 3306 {
		t.Errorf("mysql Port = %d, want 3306", my.Port)
	}
}

func TestDatabaseConfig_Validate_RejectsUnknownDriver(t *testing.T) {
	c := &DatabaseConfig{Driver: "oracle", Database: "x"}
	if err := c.Validate(); err == nil {
		t.Fatal("expected Validate to reject an unsupported driver")
	}
}

func TestDatabaseConfig_Validate_NonSQLiteRequiresHost(t *testing.T) {
	c := &DatabaseConfig{Driver: "postgres", Database: "x"}
	if err := c.Validate(); err == nil {
		t.Fatal("expected Validate to require host for postgres")
	}
}

func TestDatabaseConfig_Validate_SQLiteNeedsNoHost(t *testing.T) {
	c := &DatabaseConfig{Driver: "sqlite", Database: "/tmp/dominds.db"}
	if err := c.Validate(); err != nil {
		t.Errorf("expected sqlite to validate without a host, got: %v", err)
	}
}

func TestDatabaseConfig_DSN_Postgres(t *testing.T) {
	c := &DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, Database: "dominds", Username: "u", SSLMode: "disable"}
	want := "host=db port=5432 dbname=dominds user=u sslmode=disable"
	if got := c.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}

func TestDatabaseConfig_DSN_MySQLWithoutCredentials(t *testing.T) {
	c := &DatabaseConfig{Driver: "mysql", Host: "db", Port: 3306, Database: "dominds"}
	want := "tcp(db:3306)/dominds"
	if got := c.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}

func TestDatabaseConfig_DSN_SQLiteIsJustTheFilePath(t *testing.T) {
	c := &DatabaseConfig{Driver: "sqlite", Database: "/tmp/dominds.db"}
	if got := c.DSN(); got != "/tmp/dominds.db" {
		t.Errorf("DSN = %q, want the raw file path", got)
	}
}

func TestDatabaseConfig_DriverNameNormalizesSQLiteAlias(t *testing.T) {
	c := &DatabaseConfig{Driver: "sqlite"}
	if got := c.DriverName(); got != "sqlite3" {
		t.Errorf("DriverName = %q, want %q", got, "sqlite3")
	}
}

func TestDatabaseConfig_DialectNormalizesSQLite3Alias(t *testing.T) {
	c := &DatabaseConfig{Driver: "sqlite3"}
	if got := c.Dialect(); got != "sqlite" {
		t.Errorf("Dialect = %q, want %q", got, "sqlite")
	}
	pg := &DatabaseConfig{Driver: "postgres"}
	if got := pg.Dialect(); got != "postgres" {
		t.Errorf("Dialect = %q, want %q unchanged", got, "postgres")
	}
}
