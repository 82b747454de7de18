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
	"context"
	"fmt"
	"time"

	"github.com/dominds-project/dominds/pkg/dialog"
	"github.com/dominds-project/dominds/pkg/persist/storebackend"
)

// SyncMirror compares a backend's rows for each revived root's tree against
// what the filesystem journal (the single source of truth) just produced,
// and rebuilds the backend wholesale on any disagreement — row count,
// round, or run state.
func SyncMirror(ctx context.Context, backend storebackend.Backend, revived []*RevivedRoot) error {
	var want []storebackend.Row
	for _, rr := range revived {
		want = append(want, rowFor(rr.Root.ID().RootID, rr.Root.ID().SelfID, rr.Root.AgentID(), rr.Root.Round(), rr.Root.Base))
		for _, sub := range rr.Subdialogs {
			want = append(want, rowFor(sub.ID().RootID, sub.ID().SelfID, sub.AgentID(), sub.Round(), sub.Base))
		}
	}

	if !mirrorAgrees(ctx, backend, want) {
		if err := backend.Rebuild(ctx, want); err != nil {
			return fmt.Errorf("persist: sync mirror: %w", err)
		}
	}
	return nil
}

func rowFor(rootID, selfID, agentID string, round int, base *dialog.Base) storebackend.Row {
	state, _ := base.State()
	return storebackend.Row{
		RootID:       rootID,
		SelfID:       selfID,
		AgentID:      agentID,
		Round:        round,
		RunState:     string(state),
		LastModified: time.Now(),
	}
}

func mirrorAgrees(ctx context.Context, backend storebackend.Backend, want []storebackend.Row) bool {
	for _, row := range want {
		got, ok, err := backend.Get(ctx, row.RootID, row.SelfID)
		if err != nil || !ok {
			return false
		}
		if got.Round != row.Round || got.RunState != row.RunState || got.AgentID != row.AgentID {
			return false
		}
	}
	perRoot := make(map[string]int)
	for _, row := range want {
		perRoot[row.RootID]++
	}
	for rootID, n := range perRoot {
		rows, err := backend.ListByRoot(ctx, rootID)
		if err != nil || len(rows) != n {
			return false
		}
	}
	return true
}
