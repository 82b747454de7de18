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

package app

import (
	"testing"

	"github.com/dominds-project/dominds/pkg/dialog"
	"github.com/dominds-project/dominds/pkg/persist"
)

func newTestRoot(t *testing.T, store *persist.Store) *dialog.RootDialog {
	t.Helper()
	id := dialog.NewRootID()
	return dialog.NewRootDialog(id, "TASK.md", "commander", store.Journal(id.SelfID), 3)
}

func TestSpawnTypeB_PersistsMetaWithParentAndTopic(t *testing.T) {
	store := persist.NewStore(t.TempDir())
	s := NewSpawner(store, dialog.NewOwnerRegistry(), dialog.NewGlobalRegistry())
	root := newTestRoot(t, store)

	sub, err := s.SpawnTypeB(root, "researcher", "topic-1", "@researcher do the thing", "call-1")
	if err != nil {
		t.Fatalf("SpawnTypeB: %v", err)
	}
	if !sub.IsTypeB() {
		t.Error("expected a Type-B spawn to report IsTypeB() true")
	}
	if sub.TopicID() != "topic-1" {
		t.Errorf("TopicID = %q, want %q", sub.TopicID(), "topic-1")
	}

	meta, err := store.LoadMeta(sub.SelfID())
	if err != nil {
		t.Fatalf("LoadMeta: %v", err)
	}
	if meta.ParentRootID != root.ID().RootID {
		t.Errorf("meta.ParentRootID = %q, want %q", meta.ParentRootID, root.ID().RootID)
	}
	if meta.TopicID != "topic-1" {
		t.Errorf("meta.TopicID = %q, want %q", meta.TopicID, "topic-1")
	}
	if meta.CallID != "call-1" {
		t.Errorf("meta.CallID = %q, want %q", meta.CallID, "call-1")
	}
	if meta.AgentID != "researcher" {
		t.Errorf("meta.AgentID = %q, want %q", meta.AgentID, "researcher")
	}
}

func TestSpawnTypeC_HasNoTopicAndIsNotTypeB(t *testing.T) {
	store := persist.NewStore(t.TempDir())
	s := NewSpawner(store, dialog.NewOwnerRegistry(), dialog.NewGlobalRegistry())
	root := newTestRoot(t, store)

	sub, err := s.SpawnTypeC(root, "scribe", "@scribe summarize this", "call-2")
	if err != nil {
		t.Fatalf("SpawnTypeC: %v", err)
	}
	if sub.IsTypeB() {
		t.Error("expected a Type-C spawn to report IsTypeB() false")
	}
	if sub.TopicID() != "" {
		t.Errorf("TopicID = %q, want empty for a Type-C spawn", sub.TopicID())
	}

	meta, err := store.LoadMeta(sub.SelfID())
	if err != nil {
		t.Fatalf("LoadMeta: %v", err)
	}
	if meta.TopicID != "" {
		t.Errorf("meta.TopicID = %q, want empty", meta.TopicID)
	}
}

func TestSpawn_ChildSharesRootIDWithParent(t *testing.T) {
	store := persist.NewStore(t.TempDir())
	s := NewSpawner(store, dialog.NewOwnerRegistry(), dialog.NewGlobalRegistry())
	root := newTestRoot(t, store)

	sub, err := s.SpawnTypeC(root, "scribe", "hi", "call-3")
	if err != nil {
		t.Fatalf("SpawnTypeC: %v", err)
	}
	if sub.ID().RootID != root.ID().RootID {
		t.Errorf("child RootID = %q, want parent's %q", sub.ID().RootID, root.ID().RootID)
	}
	if sub.ID().SelfID == root.ID().SelfID {
		t.Error("child SelfID must differ from parent's")
	}
	if sub.Parent() != root {
		t.Error("Parent() should return the exact root instance passed to Spawn")
	}
}
