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

	"github.com/dominds-project/dominds/pkg/bus"
	"github.com/dominds-project/dominds/pkg/dialog"
)

// OpenQuestions replays a dialog's journal up to and including its current
// round and returns the head-line text of every q4h_asked record that has
// no matching q4h_answered record yet — the "in-flight calls" transient
// state revival must recompute rather than persist separately.
func (s *Store) OpenQuestions(selfID string, throughRound int) ([]string, error) {
	journal := s.Journal(selfID)

	asked := make(map[string]string) // headLine -> headLine, insertion order lost; fine, only presence matters
	var order []string
	answered := make(map[string]bool)

	for round := 1; round <= throughRound; round++ {
		records, err := journal.ReadRoundEvents(round)
		if err != nil {
			return nil, fmt.Errorf("persist: open questions: %w", err)
		}
		for _, r := range records {
			headLine, _ := r.Data["headLine"].(string)
			switch r.Type {
			case dialog.JKindQ4HAsked:
				if headLine != "" {
					if _, seen := asked[headLine]; !seen {
						order = append(order, headLine)
					}
					asked[headLine] = headLine
				}
			case dialog.JKindQ4HAnswered:
				if headLine != "" {
					answered[headLine] = true
				}
			}
		}
	}

	var open []string
	for _, headLine := range order {
		if !answered[headLine] {
			open = append(open, headLine)
		}
	}
	return open, nil
}

// ContinueWithHumanResponse implements the human-response continuation
// steps that precede handing the root back to the Driver: mark the
// matching open question answered, append the new user_prompt event, and
// reset the diligence budget for the fresh turn. The caller is responsible
// for invoking the Driver afterward — this package has no dependency on it.
// b may be nil, in which case no wire events are published (e.g. a headless
// replay with no attached front-end).
func ContinueWithHumanResponse(b *bus.Bus, root *dialog.RootDialog, answeredHeadLine, prompt string) error {
	round := root.Round()
	journal := root.Journal()
	ref := bus.DialogRef{SelfID: root.SelfID(), RootID: root.RootID()}

	if answeredHeadLine != "" {
		if err := journal.AppendEvent(round, dialog.JournalRecord{
			Type: dialog.JKindQ4HAnswered,
			Data: map[string]any{"headLine": answeredHeadLine},
		}); err != nil {
			return fmt.Errorf("persist: continuation: journal q4h answered: %w", err)
		}
		if b != nil {
			b.Post(root.RootID(), ref, bus.Event{Type: bus.KindQ4HAnswered, Payload: map[string]any{"headLine": answeredHeadLine}})
		}
	}

	if err := journal.AppendEvent(round, dialog.JournalRecord{
		Type: dialog.JKindUserPrompt,
		Data: map[string]any{"prompt": prompt, "ts": time.Now()},
	}); err != nil {
		return fmt.Errorf("persist: continuation: journal user prompt: %w", err)
	}

	root.Budget().Reset()

	if err := root.Transition(dialog.StateProceeding); err != nil {
		return fmt.Errorf("persist: continuation: transition: %w", err)
	}
	return nil
}

// IncorporateSubdialogSummary is the write side of a child's terminal
// summary: it persists the parent's now-updated pending-summaries list so a
// crash between the child finishing and the parent's next drive doesn't
// lose the report. dialog.SubDialog.Complete already updates the in-memory
// list; this mirrors it to disk.
func (s *Store) IncorporateSubdialogSummary(parentSelfID string, parent *dialog.RootDialog) error {
	return s.SavePendingSummaries(parentSelfID, parent.PeekSummaries())
}
