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

package dialog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dominds-project/dominds/pkg/registry"
)

// Owner is anything a Reminder can be rebound to by name on load — the
// tool or subsystem that created it and is responsible for its lifecycle.
type Owner interface {
	Name() string
}

// OwnerRegistry is the process-wide mapping of ownerName to the live Owner
// a loaded Reminder is rebound to.
type OwnerRegistry struct {
	*registry.BaseRegistry[Owner]
}

// NewOwnerRegistry creates an empty OwnerRegistry.
func NewOwnerRegistry() *OwnerRegistry {
	return &OwnerRegistry{BaseRegistry: registry.NewBaseRegistry[Owner]()}
}

// Reminder is a named, owner-tagged note persisted verbatim per dialog.
type Reminder struct {
	Content   string         `json:"content"`
	OwnerName string         `json:"ownerName"`
	Meta      map[string]any `json:"meta,omitempty"`

	// Owner is rebound from the OwnerRegistry on Load, by OwnerName. A nil
	// Owner after Load means the name is unknown to this process (e.g. the
	// originating tool isn't registered in this build) — the record is
	// still retained forward-compatibly and the tool will reclaim it once
	// it registers.
	Owner Owner `json:"-"`
}

// ReminderStore persists the reminders.json file for one dialog directory.
type ReminderStore struct {
	owners *OwnerRegistry
}

// NewReminderStore creates a store that rebinds loaded reminders' Owner
// field against owners.
func NewReminderStore(owners *OwnerRegistry) *ReminderStore {
	return &ReminderStore{owners: owners}
}

func remindersPath(dir string) string {
	return filepath.Join(dir, "reminders.json")
}

// Save atomically persists reminders to dir/reminders.json (write-to-temp
// then rename, so a crash mid-write never leaves a half-written file).
func (s *ReminderStore) Save(dir string, reminders []Reminder) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("reminders: mkdir: %w", err)
	}

	data, err := json.MarshalIndent(reminders, "", "  ")
	if err != nil {
		return fmt.Errorf("reminders: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".reminders-*.json.tmp")
	if err != nil {
		return fmt.Errorf("reminders: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("reminders: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("reminders: close temp: %w", err)
	}
	if err := os.Rename(tmpName, remindersPath(dir)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("reminders: rename temp into place: %w", err)
	}
	return nil
}

// Load reads dir/reminders.json, rebinding each reminder's Owner by
// OwnerName. Unknown owner names are kept with Owner == nil rather than
// dropped, so user data survives a build that hasn't registered that tool
// yet.
func (s *ReminderStore) Load(dir string) ([]Reminder, error) {
	data, err := os.ReadFile(remindersPath(dir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reminders: read: %w", err)
	}

	var reminders []Reminder
	if err := json.Unmarshal(data, &reminders); err != nil {
		return nil, fmt.Errorf("reminders: unmarshal: %w", err)
	}

	for i := range reminders {
		if owner, ok := s.owners.Get(reminders[i].OwnerName); ok {
			reminders[i].Owner = owner
		}
	}
	return reminders, nil
}
