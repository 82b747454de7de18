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

	"github.com/dominds-project/dominds/pkg/dialog"
)

func TestReviver_ReconstructsRootAndChild(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.SaveMeta(Meta{RootID: "root1", SelfID: "root1", AgentID: "architect", TaskDocPath: "task.md", Round: 1, IsRoot: true, DiligenceMax: 3}); err != nil {
		t.Fatalf("save root meta: %v", err)
	}
	if err := store.SaveMeta(Meta{
		RootID: "root1", SelfID: "child1", AgentID: "researcher", TaskDocPath: "task.md", Round: 1,
		IsRoot: false, ParentRootID: "root1", TopicID: "design-review", OriginRole: dialog.OriginAssistant,
	}); err != nil {
		t.Fatalf("save child meta: %v", err)
	}
	if err := store.SaveRegistry("root1", []dialog.MutexEntry{
		{AgentID: "researcher", TopicID: "design-review", SubdialogID: "child1", Locked: true},
	}); err != nil {
		t.Fatalf("save registry: %v", err)
	}

	owners := dialog.NewOwnerRegistry()
	reg := dialog.NewGlobalRegistry()
	rv := NewReviver(store, owners, reg)

	revived, err := rv.ReviveAll()
	if err != nil {
		t.Fatalf("ReviveAll: %v", err)
	}
	if len(revived) != 1 {
		t.Fatalf("got %d revived roots, want 1", len(revived))
	}
	rr := revived[0]
	if rr.Root.ID().RootID != "root1" {
		t.Errorf("root id = %q", rr.Root.ID().RootID)
	}
	if _, ok := reg.Lookup("root1"); !ok {
		t.Error("revived root not registered in global registry")
	}

	child, ok := rr.Subdialogs["child1"]
	if !ok {
		t.Fatal("child1 not reconstructed")
	}
	if child.Parent() != rr.Root {
		t.Error("child's supdialog wiring does not point at the revived root")
	}
	if !child.IsTypeB() {
		t.Error("child should be Type-B (has a topicId)")
	}

	sd, ok := rr.Root.LookupSubdialog("researcher", "design-review")
	if !ok || sd != child {
		t.Error("root's registeredSubdialogs index was not rebuilt for the Type-B child")
	}

	// A locked mutex entry at load time must be force-unlocked on clean
	// startup — no live driver exists this soon after a fresh process start
	// to have legitimately held it.
	if rr.Root.Mutex().IsLocked("researcher", "design-review") {
		t.Error("mutex entry should have been force-unlocked on revival")
	}
}

func TestReviver_SkipsOrphanedSubdialogDirectory(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.SaveMeta(Meta{
		RootID: "ghost-root", SelfID: "orphan1", IsRoot: false, ParentRootID: "ghost-root",
	}); err != nil {
		t.Fatalf("save meta: %v", err)
	}

	rv := NewReviver(store, dialog.NewOwnerRegistry(), dialog.NewGlobalRegistry())
	revived, err := rv.ReviveAll()
	if err != nil {
		t.Fatalf("ReviveAll: %v", err)
	}
	if len(revived) != 0 {
		t.Errorf("expected no revived roots for an orphaned subdialog, got %d", len(revived))
	}
}
