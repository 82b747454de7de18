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
	"sync"
	"time"
)

// CallType classifies how a teammate subdialog was spawned.
type CallType string

const (
	CallTypeA CallType = "A" // self or human question
	CallTypeB CallType = "B" // @agent !topic — mutex-tracked, resumable
	CallTypeC CallType = "C" // @agent — transient
)

// PendingSubdialog is the in-memory record the parent keeps on a child
// while it runs.
type PendingSubdialog struct {
	SubdialogID   string
	CreatedAt     time.Time
	HeadLine      string
	TargetAgentID string
	CallType      CallType
}

// PendingSummary is a completed child's report, queued for the parent to
// fold into its next driving step.
type PendingSummary struct {
	SubdialogID string
	Summary     string
	CompletedAt time.Time
}

// RootDialog is a top-level dialog: the mutex-governed index of its
// teammate subdialogs, the in-flight and completed-but-unfolded child
// tracking, and the diligence budget all live here — a SubDialog only ever
// reaches them through its parent reference.
type RootDialog struct {
	*Base

	mu sync.Mutex

	subdialogMutex *SubdialogMutex

	pendingSubdialogIDs map[string]PendingSubdialog
	pendingSummaries    []PendingSummary

	budget *DiligenceBudget

	registeredSubdialogs map[string]*SubDialog // key: "agentId!topicId"
	children             map[string]*SubDialog  // key: selfId, every live child regardless of Type-B/C
}

// NewRootDialog creates a fresh root dialog on the first user prompt.
func NewRootDialog(id ID, taskDocPath, agentID string, journal *Journal, diligenceMax int) *RootDialog {
	return &RootDialog{
		Base:                 newBase(id, taskDocPath, agentID, journal),
		subdialogMutex:       NewSubdialogMutex(),
		pendingSubdialogIDs:  make(map[string]PendingSubdialog),
		budget:               NewDiligenceBudget(diligenceMax),
		registeredSubdialogs: make(map[string]*SubDialog),
		children:             make(map[string]*SubDialog),
	}
}

// Mutex returns the root's subdialog mutex table.
func (r *RootDialog) Mutex() *SubdialogMutex { return r.subdialogMutex }

// Budget returns the root's diligence budget.
func (r *RootDialog) Budget() *DiligenceBudget { return r.budget }

// AddPendingSubdialog records a child as in-flight.
func (r *RootDialog) AddPendingSubdialog(p PendingSubdialog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingSubdialogIDs[p.SubdialogID] = p
}

// RemovePendingSubdialog clears a child's in-flight record, e.g. once it
// reports a summary.
func (r *RootDialog) RemovePendingSubdialog(subdialogID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pendingSubdialogIDs, subdialogID)
}

// PendingSubdialogCount returns how many children are currently in-flight.
func (r *RootDialog) PendingSubdialogCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pendingSubdialogIDs)
}

// PushSummary appends a completed child's summary. Mutations (add /
// take-all) are atomic; readers always see a coherent snapshot.
func (r *RootDialog) PushSummary(s PendingSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingSummaries = append(r.pendingSummaries, s)
}

// TakeSummaries atomically reads and clears the pending-summaries list, for
// folding into the next driving step's context.
func (r *RootDialog) TakeSummaries() []PendingSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	taken := r.pendingSummaries
	r.pendingSummaries = nil
	return taken
}

// PeekSummaries returns a snapshot without clearing, e.g. for persistence.
func (r *RootDialog) PeekSummaries() []PendingSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PendingSummary, len(r.pendingSummaries))
	copy(out, r.pendingSummaries)
	return out
}

// RegisterSubdialog indexes a live Type-B child by (agentId, topicId),
// distinct from the mutex (which tracks only lock state).
func (r *RootDialog) RegisterSubdialog(agentID, topicID string, sd *SubDialog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registeredSubdialogs[mutexKey(agentID, topicID)] = sd
	r.children[sd.ID().SelfID] = sd
}

// RegisterTransientSubdialog indexes a Type-A/C child by selfId only (it
// never enters the mutex or the (agentId, topicId) index).
func (r *RootDialog) RegisterTransientSubdialog(sd *SubDialog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.children[sd.ID().SelfID] = sd
}

// LookupSubdialog returns the live child object registered for
// (agentId, topicId), if any.
func (r *RootDialog) LookupSubdialog(agentID, topicID string) (*SubDialog, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sd, ok := r.registeredSubdialogs[mutexKey(agentID, topicID)]
	return sd, ok
}

// Child returns a live child by its selfId.
func (r *RootDialog) Child(selfID string) (*SubDialog, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sd, ok := r.children[selfID]
	return sd, ok
}

// Children returns every currently-live child, in no particular order.
func (r *RootDialog) Children() []*SubDialog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*SubDialog, 0, len(r.children))
	for _, sd := range r.children {
		out = append(out, sd)
	}
	return out
}

// RemoveChild deletes a child from the root's indexes. Destruction order is
// child first, then removal from the root's maps — the child's back
// reference is used only for lookup, never for a deletion cascade.
func (r *RootDialog) RemoveChild(sd *SubDialog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.children, sd.ID().SelfID)
	if sd.TopicID() != "" {
		delete(r.registeredSubdialogs, mutexKey(sd.AgentID(), sd.TopicID()))
	}
}
