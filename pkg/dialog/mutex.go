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
	"fmt"
	"sync"
)

// MutexEntry is one row of the subdialog mutex table.
type MutexEntry struct {
	AgentID     string `yaml:"agentId"`
	TopicID     string `yaml:"topicId"`
	SubdialogID string `yaml:"subdialogId"`
	Locked      bool   `yaml:"locked"`
}

func mutexKey(agentID, topicID string) string {
	return agentID + "!" + topicID
}

// SubdialogMutex is a keyed (agentId, topicId) -> entry table governing
// which driver may currently resume a Type-B teammate subdialog. At most
// one entry per key is ever locked at a time.
type SubdialogMutex struct {
	mu      sync.Mutex
	entries map[string]*MutexEntry
}

// NewSubdialogMutex creates an empty mutex table.
func NewSubdialogMutex() *SubdialogMutex {
	return &SubdialogMutex{entries: make(map[string]*MutexEntry)}
}

// Lock acquires the (agentID, topicID) key for subdialogID. A brand-new key
// is created locked. An existing key may only be relocked while currently
// unlocked — in which case its subdialogId pointer is updated to
// subdialogID, which resumes the prior child when the caller passes back
// the same id it already had, or rebinds the key to a new one otherwise.
// Callers MUST consult IsLocked before choosing between "create new" and
// "resume existing" — Lock itself never decides that.
func (m *SubdialogMutex) Lock(agentID, topicID, subdialogID string) (MutexEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := mutexKey(agentID, topicID)
	entry, exists := m.entries[key]
	if !exists {
		entry = &MutexEntry{AgentID: agentID, TopicID: topicID, SubdialogID: subdialogID, Locked: true}
		m.entries[key] = entry
		return *entry, nil
	}
	if entry.Locked {
		return MutexEntry{}, fmt.Errorf("mutex: key %q already locked by subdialog %q", key, entry.SubdialogID)
	}
	entry.SubdialogID = subdialogID
	entry.Locked = true
	return *entry, nil
}

// Unlock clears the lock bit without deleting the entry, so a later Lock
// with the same key resumes the same subdialogId.
func (m *SubdialogMutex) Unlock(agentID, topicID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.entries[mutexKey(agentID, topicID)]
	if !exists {
		return false
	}
	entry.Locked = false
	return true
}

// Remove deletes the entry irrespective of lock state.
func (m *SubdialogMutex) Remove(agentID, topicID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := mutexKey(agentID, topicID)
	if _, exists := m.entries[key]; !exists {
		return false
	}
	delete(m.entries, key)
	return true
}

// IsLocked reports whether the key currently holds a lock.
func (m *SubdialogMutex) IsLocked(agentID, topicID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.entries[mutexKey(agentID, topicID)]
	return exists && entry.Locked
}

// Lookup returns the entry for a key, if any.
func (m *SubdialogMutex) Lookup(agentID, topicID string) (MutexEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.entries[mutexKey(agentID, topicID)]
	if !exists {
		return MutexEntry{}, false
	}
	return *entry, true
}

// GetAll returns every entry, in no particular order.
func (m *SubdialogMutex) GetAll() []MutexEntry {
	return m.filter(func(MutexEntry) bool { return true })
}

// GetLocked returns every currently-locked entry.
func (m *SubdialogMutex) GetLocked() []MutexEntry {
	return m.filter(func(e MutexEntry) bool { return e.Locked })
}

// GetUnlocked returns every currently-unlocked entry.
func (m *SubdialogMutex) GetUnlocked() []MutexEntry {
	return m.filter(func(e MutexEntry) bool { return !e.Locked })
}

func (m *SubdialogMutex) filter(pred func(MutexEntry) bool) []MutexEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]MutexEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if pred(*e) {
			out = append(out, *e)
		}
	}
	return out
}

// LoadEntries replaces the table's contents wholesale, used during revival
// to restore registry.yaml. Entries whose Locked is true are force-unlocked
// on clean startup: a locked entry at load time implies a driver was
// mid-flight when the process died, and no live driver can exist this soon
// after a clean start to contest it.
func (m *SubdialogMutex) LoadEntries(entries []MutexEntry, forceUnlock bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*MutexEntry, len(entries))
	for _, e := range entries {
		cp := e
		if forceUnlock {
			cp.Locked = false
		}
		m.entries[mutexKey(cp.AgentID, cp.TopicID)] = &cp
	}
}
