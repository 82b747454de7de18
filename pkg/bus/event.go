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

// Package bus implements the per-dialog publish/subscribe event channel and
// the process-wide broadcaster every dialog event is mirrored to.
package bus

import "time"

// Kind discriminates an Event's variant. The bus enforces nothing about the
// shape of Payload beyond what each Kind documents below; dispatch sites are
// expected to switch exhaustively over Kind.
type Kind string

const (
	// Turn boundary.
	KindGeneratingStart  Kind = "generating_start_evt"
	KindGeneratingFinish Kind = "generating_finish_evt"

	// Thinking/reasoning deltas.
	KindThinkingStart  Kind = "thinking_start_evt"
	KindThinkingChunk  Kind = "thinking_chunk_evt"
	KindThinkingFinish Kind = "thinking_finish_evt"

	// Prose ("saying") deltas — the tellask parser's markdown segments as
	// rendered to a UI.
	KindSayingStart  Kind = "saying_start_evt"
	KindSayingChunk  Kind = "saying_chunk_evt"
	KindSayingFinish Kind = "saying_finish_evt"

	// Raw markdown segment boundaries, as the tellask parser emits them.
	KindMarkdownStart  Kind = "markdown_start_evt"
	KindMarkdownChunk  Kind = "markdown_chunk_evt"
	KindMarkdownFinish Kind = "markdown_finish_evt"

	// Call segment boundaries, as the tellask parser emits them.
	KindCallingStart          Kind = "calling_start_evt"
	KindCallingHeadlineChunk  Kind = "calling_headline_chunk_evt"
	KindCallingHeadlineFinish Kind = "calling_headline_finish_evt"
	KindCallingBodyStart      Kind = "calling_body_start_evt"
	KindCallingBodyChunk      Kind = "calling_body_chunk_evt"
	KindCallingBodyFinish     Kind = "calling_body_finish_evt"
	KindCallingFinish         Kind = "calling_finish_evt"

	// Tool dispatch.
	KindFuncCallRequested Kind = "func_call_requested_evt"
	KindFuncResult        Kind = "func_result_evt"

	// Errors and control.
	KindStreamError     Kind = "stream_error_evt"
	KindDiligenceBudget Kind = "diligence_budget_evt"
	KindDlgRunState     Kind = "dlg_run_state_evt"

	// Question-for-human lifecycle.
	KindNewQ4HAsked Kind = "new_q4h_asked"
	KindQ4HAnswered Kind = "q4h_answered"

	// Teammate delegation.
	KindSubdialogCreated Kind = "subdialog_created_evt"

	// Synthetic UI-refresh signal, synthesized by the bus for every other
	// kind — never emitted directly by a caller.
	KindDlgTouched Kind = "dlg_touched_evt"
)

// DialogRef identifies the dialog an Event belongs to, enriched onto every
// Event by the bus before it reaches a subscriber or the broadcaster.
type DialogRef struct {
	SelfID string `json:"selfId"`
	RootID string `json:"rootId"`
}

// Event is the tagged union carried on the bus. Payload holds kind-specific
// fields (e.g. "text" for a chunk, "remainingCount" for a budget event);
// callers should document the payload shape for each Kind they emit.
type Event struct {
	Type    Kind           `json:"type"`
	Dialog  DialogRef      `json:"dialog"`
	TS      time.Time      `json:"ts"`
	GenSeq  int            `json:"genseq,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Touched synthesizes the paired dlg_touched_evt for a just-delivered event.
// Per invariant, this is never produced for a KindDlgTouched source itself.
func Touched(source Event) Event {
	return Event{
		Type:   KindDlgTouched,
		Dialog: source.Dialog,
		TS:     source.TS,
		Payload: map[string]any{
			"sourceType": string(source.Type),
		},
	}
}
