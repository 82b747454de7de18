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

package driver

import "github.com/dominds-project/dominds/pkg/dialog"

// handle is the seam that lets Step drive either a RootDialog or a
// SubDialog with the same algorithm. The budget, mutex and pending-summary
// state the design assigns to "the dialog" in §4.F/G actually live on the
// RootDialog object (the tree is exactly two levels deep, and those
// resources are root-scoped) — a SubDialog driving inline (e.g. an FBR
// self-question, or a Type-B child resumed by its own driver goroutine)
// borrows them from its parent rather than holding a second copy.
type handle interface {
	Base() *dialog.Base
	RootID() string
	SelfID() string
	AgentID() string

	Transition(dialog.RunState) error
	TransitionBlocked(dialog.BlockedReason) error
	TransitionDead(error)
	State() (dialog.RunState, dialog.BlockedReason)
	NextGenSeq() int
	AdvanceRound() error

	Budget() *dialog.DiligenceBudget
	Mutex() *dialog.SubdialogMutex
	PendingSubdialogCount() int
	AddPendingSubdialog(dialog.PendingSubdialog)
	RegisterSubdialog(agentID, topicID string, sd *dialog.SubDialog)
	RegisterTransientSubdialog(sd *dialog.SubDialog)
	LookupSubdialog(agentID, topicID string) (*dialog.SubDialog, bool)
	TakeSummaries() []dialog.PendingSummary
}

type rootHandle struct{ *dialog.RootDialog }

func (h rootHandle) Base() *dialog.Base { return h.RootDialog.Base }

// subHandle drives a SubDialog while delegating every root-scoped resource
// to its parent. Round/genseq/state transitions apply to the SubDialog
// itself; the budget, mutex and pending-child bookkeeping apply to the root
// it hangs off.
type subHandle struct{ *dialog.SubDialog }

func (h subHandle) Base() *dialog.Base              { return h.SubDialog.Base }
func (h subHandle) Budget() *dialog.DiligenceBudget { return h.SubDialog.Parent().Budget() }
func (h subHandle) Mutex() *dialog.SubdialogMutex   { return h.SubDialog.Parent().Mutex() }
func (h subHandle) PendingSubdialogCount() int      { return h.SubDialog.Parent().PendingSubdialogCount() }
func (h subHandle) TakeSummaries() []dialog.PendingSummary {
	return h.SubDialog.Parent().TakeSummaries()
}
func (h subHandle) AddPendingSubdialog(p dialog.PendingSubdialog) {
	h.SubDialog.Parent().AddPendingSubdialog(p)
}
func (h subHandle) RegisterSubdialog(agentID, topicID string, sd *dialog.SubDialog) {
	h.SubDialog.Parent().RegisterSubdialog(agentID, topicID, sd)
}
func (h subHandle) RegisterTransientSubdialog(sd *dialog.SubDialog) {
	h.SubDialog.Parent().RegisterTransientSubdialog(sd)
}
func (h subHandle) LookupSubdialog(agentID, topicID string) (*dialog.SubDialog, bool) {
	return h.SubDialog.Parent().LookupSubdialog(agentID, topicID)
}
