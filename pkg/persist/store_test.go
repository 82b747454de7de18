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
	"testing"
	"time"

	"github.com/dominds-project/dominds/pkg/dialog"
)

func TestStore_MetaRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	m := Meta{RootID: "r1", SelfID: "r1", AgentID: "architect", TaskDocPath: "task.md", Round: 2, IsRoot: true, DiligenceMax: 3}

	if err := store.SaveMeta(m); err != nil {
		t.Fatalf("SaveMeta: %v", err)
	}
	got, err := store.LoadMeta("r1")
	if err != nil {
		t.Fatalf("LoadMeta: %v", err)
	}
	if got != m {
		t.Errorf("LoadMeta = %+v, want %+v", got, m)
	}
}

func TestStore_PendingSummariesRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	summaries := []dialog.PendingSummary{
		{SubdialogID: "s1", Summary: "reviewed the PR", CompletedAt: time.Now().Truncate(time.Second)},
	}
	if err := store.SavePendingSummaries("r1", summaries); err != nil {
		t.Fatalf("SavePendingSummaries: %v", err)
	}
	got, err := store.LoadPendingSummaries("r1")
	if err != nil {
		t.Fatalf("LoadPendingSummaries: %v", err)
	}
	if len(got) != 1 || got[0].Summary != "reviewed the PR" {
		t.Errorf("LoadPendingSummaries = %+v", got)
	}
}

func TestStore_PendingSummaries_MissingFileIsNotError(t *testing.T) {
	store := NewStore(t.TempDir())
	got, err := store.LoadPendingSummaries("never-saved")
	if err != nil {
		t.Fatalf("LoadPendingSummaries: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for never-saved dialog, got %+v", got)
	}
}

func TestStore_RegistryRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	entries := []dialog.MutexEntry{
		{AgentID: "researcher", TopicID: "design-review", SubdialogID: "s1", Locked: true},
	}
	if err := store.SaveRegistry("r1", entries); err != nil {
		t.Fatalf("SaveRegistry: %v", err)
	}
	got, err := store.LoadRegistry("r1")
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if len(got) != 1 || got[0] != entries[0] {
		t.Errorf("LoadRegistry = %+v, want %+v", got, entries)
	}
}

func TestStore_ListSelfIDsAndLatestRound(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.SaveMeta(Meta{RootID: "r1", SelfID: "r1", IsRoot: true}); err != nil {
		t.Fatalf("SaveMeta: %v", err)
	}
	journal := store.Journal("r1")
	for round := 1; round <= 3; round++ {
		if err := journal.AppendEvent(round, dialog.JournalRecord{Type: dialog.JKindRoundAdvance}); err != nil {
			t.Fatalf("AppendEvent round %d: %v", round, err)
		}
	}

	ids, err := store.ListSelfIDs()
	if err != nil {
		t.Fatalf("ListSelfIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != "r1" {
		t.Errorf("ListSelfIDs = %v", ids)
	}

	latest, err := store.LatestRound("r1")
	if err != nil {
		t.Fatalf("LatestRound: %v", err)
	}
	if latest != 3 {
		t.Errorf("LatestRound = %d, want 3", latest)
	}
}
