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

import "fmt"

// RunState is a dialog's current position in its driving lifecycle.
type RunState string

const (
	StateIdleWaitingUser         RunState = "idle_waiting_user"
	StateProceeding              RunState = "proceeding"
	StateProceedingStopRequested RunState = "proceeding_stop_requested"
	StateInterrupted             RunState = "interrupted"
	StateBlocked                 RunState = "blocked"
	StateTerminal                RunState = "terminal"
	StateDead                    RunState = "dead"
)

// BlockedReason qualifies why a Blocked dialog cannot currently proceed.
type BlockedReason string

const (
	ReasonNone                         BlockedReason = ""
	ReasonNeedsHumanInput              BlockedReason = "needs_human_input"
	ReasonWaitingForSubdialogs         BlockedReason = "waiting_for_subdialogs"
	ReasonNeedsHumanInputAndSubdialogs BlockedReason = "needs_human_input_and_subdialogs"
)

// CombineBlockedReasons folds the two independent blocking conditions (open
// Q4H, pending children) into the single reason the state machine records.
func CombineBlockedReasons(needsHuman, waitingSubdialogs bool) BlockedReason {
	switch {
	case needsHuman && waitingSubdialogs:
		return ReasonNeedsHumanInputAndSubdialogs
	case needsHuman:
		return ReasonNeedsHumanInput
	case waitingSubdialogs:
		return ReasonWaitingForSubdialogs
	default:
		return ReasonNone
	}
}

// DiligenceBudget is the per-turn auto-continuation counter: it decreases
// monotonically within a user turn and is reset at the start of each new
// user prompt (invariant 8).
type DiligenceBudget struct {
	max       int
	remaining int
}

// NewDiligenceBudget creates a budget already reset to max.
func NewDiligenceBudget(max int) *DiligenceBudget {
	return &DiligenceBudget{max: max, remaining: max}
}

// Reset restores the budget to its configured max, at the start of a new
// user-initiated turn.
func (b *DiligenceBudget) Reset() {
	b.remaining = b.max
}

// Remaining returns the current remaining count.
func (b *DiligenceBudget) Remaining() int {
	return b.remaining
}

// HasBudget reports whether at least one more auto-continuation is allowed.
func (b *DiligenceBudget) HasBudget() bool {
	return b.remaining > 0
}

// Consume decrements the budget by one unit, returning the new remaining
// count. Consuming an already-exhausted budget is a programming error — the
// driver must check HasBudget first.
func (b *DiligenceBudget) Consume() int {
	if b.remaining <= 0 {
		panic("dialog: diligence budget consumed while already exhausted")
	}
	b.remaining--
	return b.remaining
}

// invalidTransition is returned by Machine.To when the requested state
// change is never legal from the current state.
type invalidTransition struct {
	from, to RunState
}

func (e *invalidTransition) Error() string {
	return fmt.Sprintf("dialog: invalid transition %s -> %s", e.from, e.to)
}

// Machine is the dialog run-state holder, shared by RootDialog and
// SubDialog. It is not safe for concurrent use by itself — callers hold the
// owning dialog's lock around transitions.
type Machine struct {
	state   RunState
	reason  BlockedReason
	lastErr error
}

// NewMachine creates a Machine in its initial state.
func NewMachine() *Machine {
	return &Machine{state: StateIdleWaitingUser}
}

func (m *Machine) State() RunState        { return m.state }
func (m *Machine) BlockedReason() BlockedReason { return m.reason }
func (m *Machine) LastError() error       { return m.lastErr }

var legalTransitions = map[RunState]map[RunState]bool{
	StateIdleWaitingUser: {StateProceeding: true, StateTerminal: true, StateDead: true},
	StateProceeding: {
		StateProceedingStopRequested: true,
		StateBlocked:                 true,
		StateIdleWaitingUser:         true,
		StateProceeding:              true, // auto-continue re-entry
		StateInterrupted:             true,
		StateTerminal:                true,
		StateDead:                    true,
	},
	StateProceedingStopRequested: {StateInterrupted: true, StateDead: true},
	StateInterrupted:             {StateProceeding: true, StateDead: true},
	StateBlocked:                 {StateProceeding: true, StateTerminal: true, StateDead: true},
	StateTerminal:                {StateDead: true},
	StateDead:                    {},
}

// To attempts a transition, validating it against the documented transition
// table. A transition into StateDead is always legal from any non-dead
// state, representing a fatal, unrecoverable error.
func (m *Machine) To(next RunState) error {
	if next == StateDead {
		if m.state == StateDead {
			return nil
		}
		m.state = StateDead
		m.reason = ReasonNone
		return nil
	}
	if !legalTransitions[m.state][next] {
		return &invalidTransition{from: m.state, to: next}
	}
	m.state = next
	if next != StateBlocked {
		m.reason = ReasonNone
	}
	return nil
}

// ToBlocked transitions to Blocked with the given reason.
func (m *Machine) ToBlocked(reason BlockedReason) error {
	if err := m.To(StateBlocked); err != nil {
		return err
	}
	m.reason = reason
	return nil
}

// ToTerminal transitions to Terminal: the task is accepted as done, or a
// subdialog has emitted its final summary and is folding back to its parent.
func (m *Machine) ToTerminal() error {
	return m.To(StateTerminal)
}

// ToDead transitions to Dead, recording the fatal error.
func (m *Machine) ToDead(err error) {
	m.state = StateDead
	m.reason = ReasonNone
	m.lastErr = err
}
