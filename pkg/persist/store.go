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

package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dominds-project/dominds/pkg/dialog"
)

// Store is rooted at .dialogs/run: every dialog, root or sub, gets one
// flat subdirectory named after its own selfId. A subdialog's directory is
// a sibling of its root's, never nested under it — meta.json's
// ParentRootID is the only link back to the tree.
type Store struct {
	runDir string
}

// NewStore creates a Store rooted at runDir (typically ".dialogs/run").
func NewStore(runDir string) *Store {
	return &Store{runDir: runDir}
}

// Dir returns the on-disk directory for the dialog named selfID.
func (s *Store) Dir(selfID string) string {
	return filepath.Join(s.runDir, selfID)
}

func (s *Store) metaPath(selfID string) string {
	return filepath.Join(s.Dir(selfID), "meta.json")
}

func (s *Store) summariesPath(selfID string) string {
	return filepath.Join(s.Dir(selfID), "pending-summaries.json")
}

func (s *Store) registryPath(selfID string) string {
	return filepath.Join(s.Dir(selfID), "registry.yaml")
}

// writeAtomic writes data to path via a temp file in the same directory
// followed by a rename, so a crash mid-write never leaves a torn file —
// the same pattern dialog.ReminderStore uses for reminders.json.
func writeAtomic(dir, pattern, path string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("persist: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("persist: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("persist: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("persist: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("persist: rename temp: %w", err)
	}
	return nil
}

// SaveMeta atomically persists m to <selfId>/meta.json.
func (s *Store) SaveMeta(m Meta) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("persist: marshal meta: %w", err)
	}
	dir := s.Dir(m.SelfID)
	return writeAtomic(dir, ".meta-*.json.tmp", s.metaPath(m.SelfID), data)
}

// LoadMeta reads <selfId>/meta.json.
func (s *Store) LoadMeta(selfID string) (Meta, error) {
	data, err := os.ReadFile(s.metaPath(selfID))
	if err != nil {
		return Meta{}, fmt.Errorf("persist: read meta: %w", err)
	}
	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return Meta{}, fmt.Errorf("persist: unmarshal meta: %w", err)
	}
	return m, nil
}

// SavePendingSummaries atomically persists a root's not-yet-folded child
// summaries to <selfId>/pending-summaries.json.
func (s *Store) SavePendingSummaries(selfID string, summaries []dialog.PendingSummary) error {
	data, err := json.MarshalIndent(toPendingSummaryRecords(summaries), "", "  ")
	if err != nil {
		return fmt.Errorf("persist: marshal pending summaries: %w", err)
	}
	dir := s.Dir(selfID)
	return writeAtomic(dir, ".summaries-*.json.tmp", s.summariesPath(selfID), data)
}

// LoadPendingSummaries reads <selfId>/pending-summaries.json. A missing
// file (a root that has never had a child complete) is not an error.
func (s *Store) LoadPendingSummaries(selfID string) ([]dialog.PendingSummary, error) {
	data, err := os.ReadFile(s.summariesPath(selfID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("persist: read pending summaries: %w", err)
	}
	var records []PendingSummaryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("persist: unmarshal pending summaries: %w", err)
	}
	return fromPendingSummaryRecords(records), nil
}

// SaveRegistry atomically persists a root's subdialog mutex table to
// <selfId>/registry.yaml, in the human-inspectable format the design calls
// for — unlike the journal and meta, this one file an operator is expected
// to read directly when debugging a stuck Type-B lock.
func (s *Store) SaveRegistry(selfID string, entries []dialog.MutexEntry) error {
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("persist: marshal registry: %w", err)
	}
	dir := s.Dir(selfID)
	return writeAtomic(dir, ".registry-*.yaml.tmp", s.registryPath(selfID), data)
}

// LoadRegistry reads <selfId>/registry.yaml. A missing file (a root with no
// teammate calls yet) is not an error.
func (s *Store) LoadRegistry(selfID string) ([]dialog.MutexEntry, error) {
	data, err := os.ReadFile(s.registryPath(selfID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("persist: read registry: %w", err)
	}
	var entries []dialog.MutexEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("persist: unmarshal registry: %w", err)
	}
	return entries, nil
}

// Journal opens the append-only event journal for selfID's own directory.
func (s *Store) Journal(selfID string) *dialog.Journal {
	return dialog.NewJournal(s.Dir(selfID))
}

// ReminderStore returns a reminder store bound to owners, scoped by the
// caller to selfID's directory via Save/Load's dir argument.
func (s *Store) ReminderStore(owners *dialog.OwnerRegistry) *dialog.ReminderStore {
	return dialog.NewReminderStore(owners)
}

// ListSelfIDs enumerates every dialog directory under the run root,
// root and sub alike — revival sorts these out by reading each meta.json.
func (s *Store) ListSelfIDs() ([]string, error) {
	entries, err := os.ReadDir(s.runDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("persist: read run dir: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// LatestRound scans selfID's directory for the highest round-<N>.jsonl
// present, the round revival must recompute transient state from.
func (s *Store) LatestRound(selfID string) (int, error) {
	entries, err := os.ReadDir(s.Dir(selfID))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("persist: read dialog dir: %w", err)
	}
	latest := 0
	for _, e := range entries {
		var n int
		if _, err := fmt.Sscanf(e.Name(), "round-%d.jsonl", &n); err == nil && n > latest {
			latest = n
		}
	}
	return latest, nil
}
