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
	"fmt"
	"time"

	"github.com/dominds-project/dominds/pkg/dialog"
)

// CompletionStatus summarizes how a revived root was left at last exit.
type CompletionStatus string

const (
	CompletionIncomplete CompletionStatus = "incomplete"
	CompletionComplete   CompletionStatus = "complete"
	CompletionFailed     CompletionStatus = "failed"
)

// RevivalSummary reports what a revived root's journals actually contained,
// for the opening UI's "resuming a N-round dialog" banner.
type RevivalSummary struct {
	TotalMessages    int
	TotalRounds      int
	CompletionStatus CompletionStatus
}

// RevivedRoot is one root dialog reconstructed from disk, with every
// subdialog directory that names it as ParentRootID wired back in.
type RevivedRoot struct {
	Root       *dialog.RootDialog
	Subdialogs map[string]*dialog.SubDialog
	Summary    RevivalSummary
}

// Reviver reconstructs the in-memory dialog tree from a Store's on-disk
// state at process start, per the enumerate/load/recompute/register
// sequence.
type Reviver struct {
	store    *Store
	owners   *dialog.OwnerRegistry
	registry *dialog.GlobalRegistry
}

// NewReviver creates a Reviver that registers every revived root with reg
// and rebinds reminder ownership against owners.
func NewReviver(store *Store, owners *dialog.OwnerRegistry, reg *dialog.GlobalRegistry) *Reviver {
	return &Reviver{store: store, owners: owners, registry: reg}
}

// ReviveAll enumerates every dialog directory under the store's run root,
// reconstructs each root's tree, and registers the roots with the global
// registry. Subdialog directories are folded into their parent's
// RevivedRoot.Subdialogs rather than returned standalone.
func (rv *Reviver) ReviveAll() ([]*RevivedRoot, error) {
	selfIDs, err := rv.store.ListSelfIDs()
	if err != nil {
		return nil, fmt.Errorf("persist: revival: %w", err)
	}

	metas := make(map[string]Meta, len(selfIDs))
	for _, selfID := range selfIDs {
		m, err := rv.store.LoadMeta(selfID)
		if err != nil {
			return nil, fmt.Errorf("persist: revival: load meta %q: %w", selfID, err)
		}
		metas[selfID] = m
	}

	revived := make(map[string]*RevivedRoot)
	for _, m := range metas {
		if !m.IsRoot {
			continue
		}
		root, summary, err := rv.reviveRoot(m)
		if err != nil {
			return nil, fmt.Errorf("persist: revival: root %q: %w", m.SelfID, err)
		}
		revived[m.RootID] = &RevivedRoot{Root: root, Subdialogs: make(map[string]*dialog.SubDialog), Summary: summary}
		if err := rv.registry.RegisterRoot(root); err != nil {
			return nil, fmt.Errorf("persist: revival: register root %q: %w", m.RootID, err)
		}
	}

	for _, m := range metas {
		if m.IsRoot {
			continue
		}
		rr, ok := revived[m.ParentRootID]
		if !ok {
			// An orphaned subdialog directory: its root's meta.json is
			// missing or was never a root. Skip it rather than fail the
			// whole revival — the operator can inspect it by hand.
			continue
		}
		sub, err := rv.reviveSub(m, rr.Root)
		if err != nil {
			return nil, fmt.Errorf("persist: revival: sub %q: %w", m.SelfID, err)
		}
		rr.Subdialogs[m.SelfID] = sub
		if sub.IsTypeB() {
			rr.Root.RegisterSubdialog(sub.AgentID(), sub.TopicID(), sub)
		} else {
			rr.Root.RegisterTransientSubdialog(sub)
		}
	}

	out := make([]*RevivedRoot, 0, len(revived))
	for _, rr := range revived {
		out = append(out, rr)
	}
	return out, nil
}

func (rv *Reviver) reviveRoot(m Meta) (*dialog.RootDialog, RevivalSummary, error) {
	journal := rv.store.Journal(m.SelfID)
	root := dialog.NewRootDialog(dialog.ID{RootID: m.RootID, SelfID: m.SelfID}, m.TaskDocPath, m.AgentID, journal, m.DiligenceMax)

	if err := rv.hydrateBase(root.Base, m.SelfID); err != nil {
		return nil, RevivalSummary{}, err
	}

	entries, err := rv.store.LoadRegistry(m.SelfID)
	if err != nil {
		return nil, RevivalSummary{}, err
	}
	// Force-unlock on clean startup: a locked entry implies a driver was
	// mid-flight when the process died, and no live driver exists this
	// soon after a fresh start to contest it.
	root.Mutex().LoadEntries(entries, true)

	summaries, err := rv.store.LoadPendingSummaries(m.SelfID)
	if err != nil {
		return nil, RevivalSummary{}, err
	}
	for _, s := range summaries {
		root.PushSummary(s)
	}

	summary, err := rv.recomputeSummary(m.SelfID, m.Round)
	if err != nil {
		return nil, RevivalSummary{}, err
	}
	return root, summary, nil
}

func (rv *Reviver) reviveSub(m Meta, parent *dialog.RootDialog) (*dialog.SubDialog, error) {
	journal := rv.store.Journal(m.SelfID)
	sub := dialog.NewSubDialog(
		dialog.ID{RootID: m.RootID, SelfID: m.SelfID},
		m.TaskDocPath, m.AgentID, journal, parent, m.TopicID,
		m.OriginRole, m.OriginMemberID, m.CallerDialogID, m.CallID,
	)
	if err := rv.hydrateBase(sub.Base, m.SelfID); err != nil {
		return nil, err
	}
	return sub, nil
}

// hydrateBase replays what a Base needs beyond its constructor: reminders
// and the round counter recomputed from the latest journal file (round and
// genseq are otherwise only ever advanced in memory).
func (rv *Reviver) hydrateBase(b *dialog.Base, selfID string) error {
	reminders, err := rv.store.ReminderStore(rv.owners).Load(rv.store.Dir(selfID))
	if err != nil {
		return fmt.Errorf("load reminders: %w", err)
	}
	b.SetReminders(reminders)

	latest, err := rv.store.LatestRound(selfID)
	if err != nil {
		return fmt.Errorf("find latest round: %w", err)
	}
	for b.Round() < latest {
		if err := b.AdvanceRound(); err != nil {
			return fmt.Errorf("replay round advance: %w", err)
		}
	}
	return nil
}

// recomputeSummary reads every round-<N>.jsonl up to latestRound and
// derives the {totalMessages, totalRounds, completionStatus} triple the
// opening UI reports for a resumed dialog.
func (rv *Reviver) recomputeSummary(selfID string, latestRound int) (RevivalSummary, error) {
	journal := rv.store.Journal(selfID)
	total := 0
	var lastTS time.Time
	sawRoundAdvance := false
	for round := 1; round <= latestRound || round == 1; round++ {
		records, err := journal.ReadRoundEvents(round)
		if err != nil {
			return RevivalSummary{}, err
		}
		if records == nil && round > latestRound {
			break
		}
		for _, r := range records {
			total++
			if r.TS.After(lastTS) {
				lastTS = r.TS
			}
			if r.Type == dialog.JKindRoundAdvance {
				sawRoundAdvance = true
			}
		}
	}

	status := CompletionIncomplete
	if total == 0 {
		status = CompletionIncomplete
	} else if sawRoundAdvance {
		status = CompletionComplete
	}

	return RevivalSummary{
		TotalMessages:    total,
		TotalRounds:      latestRound,
		CompletionStatus: status,
	}, nil
}
