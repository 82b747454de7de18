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

import "time"

// OriginRole is who created the subdialog's originating tellask.
type OriginRole string

const (
	OriginUser      OriginRole = "user"
	OriginAssistant OriginRole = "assistant"
)

// SubDialog is a child dialog created by a teammate call. The hierarchy is
// exactly two levels deep: a SubDialog's parent is always a RootDialog.
type SubDialog struct {
	*Base

	supdialog *RootDialog

	// TopicID is present iff this is a Type-B call, absent iff Type-C.
	topicID string

	originRole     OriginRole
	originMemberID string
	callerDialogID string
	callID         string
}

// NewSubDialog creates a child dialog under parent.
func NewSubDialog(id ID, taskDocPath, agentID string, journal *Journal, parent *RootDialog, topicID string, originRole OriginRole, originMemberID, callerDialogID, callID string) *SubDialog {
	return &SubDialog{
		Base:           newBase(id, taskDocPath, agentID, journal),
		supdialog:      parent,
		topicID:        topicID,
		originRole:     originRole,
		originMemberID: originMemberID,
		callerDialogID: callerDialogID,
		callID:         callID,
	}
}

// Parent returns the owning root dialog. Used only for lookup — never for
// a deletion cascade (see RootDialog.RemoveChild).
func (s *SubDialog) Parent() *RootDialog { return s.supdialog }

// TopicID returns the Type-B topic, or "" for a Type-C transient child.
func (s *SubDialog) TopicID() string { return s.topicID }

// IsTypeB reports whether this child is mutex-tracked and resumable.
func (s *SubDialog) IsTypeB() bool { return s.topicID != "" }

func (s *SubDialog) OriginRole() OriginRole { return s.originRole }
func (s *SubDialog) OriginMemberID() string { return s.originMemberID }
func (s *SubDialog) CallerDialogID() string { return s.callerDialogID }
func (s *SubDialog) CallID() string         { return s.callID }

// Complete marks the subdialog terminal and pushes its summary onto the
// parent's pending-summaries list, per the lifecycle: a SubDialog lives
// until it emits a terminal "done/handed-back" signal.
func (s *SubDialog) Complete(summary string) error {
	if err := s.TransitionTerminal(); err != nil {
		return err
	}
	s.supdialog.PushSummary(PendingSummary{
		SubdialogID: s.ID().SelfID,
		Summary:     summary,
		CompletedAt: time.Now(),
	})
	s.supdialog.RemovePendingSubdialog(s.ID().SelfID)
	return nil
}
