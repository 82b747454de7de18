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

// Package persist implements on-disk persistence and process-restart
// revival for the dialog tree: one flat directory per dialog under
// .dialogs/run/, each holding its own meta.json, reminders.json,
// pending-summaries.json, registry.yaml and round-<N>.jsonl files.
package persist

import (
	"time"

	"github.com/dominds-project/dominds/pkg/dialog"
)

// Meta is the identity and provenance record every dialog directory
// carries in its own meta.json. Roots and subdialogs share one shape;
// the subdialog-only fields are empty for a root (IsRoot true).
type Meta struct {
	RootID      string `json:"rootId"`
	SelfID      string `json:"selfId"`
	AgentID     string `json:"agentId"`
	TaskDocPath string `json:"taskDocPath"`
	Round       int    `json:"round"`
	IsRoot      bool   `json:"isRoot"`

	// DiligenceMax is set only for roots: the ceiling NewDiligenceBudget
	// was constructed with, needed to rebuild the budget on revival since
	// the budget's remaining count itself is turn-scoped, not persisted.
	DiligenceMax int `json:"diligenceMax,omitempty"`

	// Subdialog-only fields. A subdialog directory is a SIBLING of its
	// root's directory, not nested beneath it — ParentRootID is the only
	// thing that ties it back to its tree.
	ParentRootID   string            `json:"parentRootId,omitempty"`
	TopicID        string            `json:"topicId,omitempty"`
	OriginRole     dialog.OriginRole `json:"originRole,omitempty"`
	OriginMemberID string            `json:"originMemberId,omitempty"`
	CallerDialogID string            `json:"callerDialogId,omitempty"`
	CallID         string            `json:"callId,omitempty"`
}

// PendingSummaryRecord is the JSON shape of one entry in
// pending-summaries.json, mirroring dialog.PendingSummary.
type PendingSummaryRecord struct {
	SubdialogID string    `json:"subdialogId"`
	Summary     string    `json:"summary"`
	CompletedAt time.Time `json:"completedAt"`
}

func toPendingSummaryRecords(summaries []dialog.PendingSummary) []PendingSummaryRecord {
	out := make([]PendingSummaryRecord, len(summaries))
	for i, s := range summaries {
		out[i] = PendingSummaryRecord{SubdialogID: s.SubdialogID, Summary: s.Summary, CompletedAt: s.CompletedAt}
	}
	return out
}

func fromPendingSummaryRecords(records []PendingSummaryRecord) []dialog.PendingSummary {
	out := make([]dialog.PendingSummary, len(records))
	for i, r := range records {
		out[i] = dialog.PendingSummary{SubdialogID: r.SubdialogID, Summary: r.Summary, CompletedAt: r.CompletedAt}
	}
	return out
}
