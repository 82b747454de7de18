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

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dominds-project/dominds/pkg/bus"
	"github.com/dominds-project/dominds/pkg/dialog"
	"github.com/dominds-project/dominds/pkg/llms"
	"github.com/dominds-project/dominds/pkg/observability"
	"github.com/dominds-project/dominds/pkg/tellask"
	"github.com/dominds-project/dominds/pkg/tool"
)

const (
	ErrUnknownCall   = "ERR_UNKNOWN_CALL"
	ErrToolExecution = "ERR_TOOL_EXECUTION"
	ErrMutexBusy     = "ERR_MUTEX_BUSY"
)

// Tools resolves a callsign to an executable tool.
type Tools interface {
	Lookup(callsign string) (tool.CallableTool, bool)
}

// Spawner creates the child dialogs a Type-B/Type-C/FBR call hands off to,
// and drives them to completion. Every spawned child hangs off root
// regardless of which dialog in the tree issued the call, since the
// hierarchy is exactly two levels deep. It is supplied by the caller (the
// process wiring dialog, persist and driver together) so this package never
// constructs a RootDialog's children directly.
type Spawner interface {
	SpawnTypeB(root *dialog.RootDialog, agentID, topicID, headLine, callID string) (*dialog.SubDialog, error)
	SpawnTypeC(root *dialog.RootDialog, agentID, headLine, callID string) (*dialog.SubDialog, error)
	Drive(ctx context.Context, d *dialog.SubDialog, prompt string) error
}

// Driver executes driving steps for one dialog tree. One Driver instance is
// shared process-wide; the `proceeding` state on each dialog is what
// actually enforces "at most one driver instance active per dialog".
type Driver struct {
	bus     *bus.Bus
	tools   Tools
	metrics *observability.Metrics
	builder *ContextBuilder
	spawner Spawner
}

// New creates a Driver wired to the given event bus, tool registry, context
// builder and child-dialog spawner. metrics may be nil.
func New(b *bus.Bus, tools Tools, builder *ContextBuilder, spawner Spawner, metrics *observability.Metrics) *Driver {
	return &Driver{bus: b, tools: tools, metrics: metrics, builder: builder, spawner: spawner}
}

// StepInput is one driving step's input: either a fresh user prompt or an
// auto-continuation re-entry with no new user text.
type StepInput struct {
	UserPrompt string
	Preamble   []llms.Message
	Rounds     []RoundMessages
}

// callState accumulates one call segment's head text across its
// callHeadLineChunk events, since callFinish itself carries only the
// generated CallID — the driver, not the parser, needs the full head line
// to classify and dispatch the call.
type callState struct {
	head strings.Builder
}

// StepRoot runs a driving step against a RootDialog — the ordinary
// user-initiated or auto-continuation path.
func (d *Driver) StepRoot(ctx context.Context, root *dialog.RootDialog, provider llms.LLMProvider, toolDefs []llms.ToolDefinition, in StepInput) error {
	return d.step(ctx, rootHandle{root}, provider, toolDefs, in)
}

// ownerRoot returns the owning RootDialog for any handle, for
// child-spawning calls (which always attach new children to the root).
func ownerRoot(h handle) *dialog.RootDialog {
	switch v := h.(type) {
	case rootHandle:
		return v.RootDialog
	case subHandle:
		return v.SubDialog.Parent()
	default:
		return nil
	}
}

// StepSub runs a driving step inline against a SubDialog — used for an FBR
// self-question or a Type-B child, both of which borrow their parent's
// budget, mutex and pending-state (see handle.go).
func (d *Driver) StepSub(ctx context.Context, sub *dialog.SubDialog, provider llms.LLMProvider, toolDefs []llms.ToolDefinition, in StepInput) error {
	return d.step(ctx, subHandle{sub}, provider, toolDefs, in)
}

// step runs the full algorithm of §4.G against h, recursing into itself for
// auto-continuation exactly as the design calls for ("recurse into step 1
// as auto-continue").
func (d *Driver) step(ctx context.Context, h handle, provider llms.LLMProvider, toolDefs []llms.ToolDefinition, in StepInput) error {
	if d.metrics != nil {
		d.metrics.RecordDrivingStep(h.AgentID())
	}

	ref := bus.DialogRef{SelfID: h.SelfID(), RootID: h.RootID()}
	key := h.RootID()
	root := ownerRoot(h)

	// Step 1: context assembly.
	summaries := h.TakeSummaries()
	summaryTexts := make([]string, len(summaries))
	for i, s := range summaries {
		summaryTexts[i] = s.Summary
	}
	messages := d.builder.Assemble(in.Preamble, summaryTexts, in.Rounds)
	if in.UserPrompt != "" {
		messages = append(messages, llms.Message{Role: "user", Content: in.UserPrompt})
		_ = h.Base().Journal().AppendEvent(h.Base().Round(), dialog.JournalRecord{
			Type: dialog.JKindUserPrompt, Data: map[string]any{"prompt": in.UserPrompt},
		})
	}

	// Step 2: stream open.
	if err := h.Transition(dialog.StateProceeding); err != nil {
		return fmt.Errorf("driver: cannot begin step: %w", err)
	}
	genSeq := h.NextGenSeq()
	d.bus.Post(key, ref, bus.Event{Type: bus.KindGeneratingStart, GenSeq: genSeq})

	chunks, err := provider.GenerateStreaming(messages, toolDefs)
	if err != nil {
		d.bus.Post(key, ref, bus.Event{Type: bus.KindStreamError, GenSeq: genSeq, Payload: map[string]any{"error": err.Error()}})
		h.TransitionDead(err)
		return err
	}

	var (
		parser    = tellask.New()
		q4hOpen   []string
		streamErr error
		cs        callState
	)

	for chunk := range chunks {
		if state, _ := h.State(); state == dialog.StateProceedingStopRequested {
			d.bus.Post(key, ref, bus.Event{Type: bus.KindStreamError, GenSeq: genSeq, Payload: map[string]any{"error": "user_stop"}})
			parser.Close()
			h.Transition(dialog.StateInterrupted)
			return nil
		}

		switch chunk.Type {
		case "error":
			streamErr = chunk.Error
		case "thinking":
			d.bus.Post(key, ref, bus.Event{Type: bus.KindThinkingChunk, GenSeq: genSeq, Payload: map[string]any{"text": chunk.Text}})
		case "tool_call":
			d.handleFunctionCall(ctx, h, ref, genSeq, chunk)
		case "text":
			for _, evt := range parser.Feed(chunk.Text) {
				d.emitTellaskEvent(ctx, h, root, ref, genSeq, evt, &cs, &q4hOpen)
			}
		}
	}
	for _, evt := range parser.Close() {
		d.emitTellaskEvent(ctx, h, root, ref, genSeq, evt, &cs, &q4hOpen)
	}

	if streamErr != nil {
		d.bus.Post(key, ref, bus.Event{Type: bus.KindStreamError, GenSeq: genSeq, Payload: map[string]any{"error": streamErr.Error()}})
		h.Transition(dialog.StateInterrupted)
		return streamErr
	}

	d.bus.Post(key, ref, bus.Event{Type: bus.KindGeneratingFinish, GenSeq: genSeq})

	// Step 5: stream close.
	if err := h.AdvanceRound(); err != nil {
		h.TransitionDead(err)
		return err
	}

	pendingCount := h.PendingSubdialogCount()
	switch {
	case len(q4hOpen) > 0:
		return h.TransitionBlocked(dialog.ReasonNeedsHumanInput)
	case pendingCount > 0:
		return h.TransitionBlocked(dialog.ReasonWaitingForSubdialogs)
	case h.Budget().HasBudget():
		remaining := h.Budget().Consume()
		d.bus.Post(key, ref, bus.Event{Type: bus.KindDiligenceBudget, Payload: map[string]any{"remainingCount": remaining}})
		return d.step(ctx, h, provider, toolDefs, StepInput{Preamble: in.Preamble, Rounds: in.Rounds})
	default:
		if d.metrics != nil {
			d.metrics.RecordDiligenceBudgetExhausted(h.AgentID())
		}
		return h.Transition(dialog.StateIdleWaitingUser)
	}
}

// emitTellaskEvent mirrors one tellask parser event onto the bus and, on
// callFinish, performs call dispatch (step 4).
func (d *Driver) emitTellaskEvent(ctx context.Context, h handle, root *dialog.RootDialog, ref bus.DialogRef, genSeq int, evt tellask.Event, cs *callState, q4hOpen *[]string) {
	key := h.RootID()

	switch evt.Kind {
	case tellask.MarkdownStart:
		d.bus.Post(key, ref, bus.Event{Type: bus.KindMarkdownStart, GenSeq: genSeq})
		d.bus.Post(key, ref, bus.Event{Type: bus.KindSayingStart, GenSeq: genSeq})
	case tellask.MarkdownChunk:
		d.bus.Post(key, ref, bus.Event{Type: bus.KindMarkdownChunk, GenSeq: genSeq, Payload: map[string]any{"text": evt.Text}})
		d.bus.Post(key, ref, bus.Event{Type: bus.KindSayingChunk, GenSeq: genSeq, Payload: map[string]any{"text": evt.Text}})
	case tellask.MarkdownFinish:
		d.bus.Post(key, ref, bus.Event{Type: bus.KindMarkdownFinish, GenSeq: genSeq})
		d.bus.Post(key, ref, bus.Event{Type: bus.KindSayingFinish, GenSeq: genSeq})

	case tellask.CallStart:
		cs.head.Reset()
		d.bus.Post(key, ref, bus.Event{Type: bus.KindCallingStart, GenSeq: genSeq, Payload: map[string]any{
			"status": string(evt.Validation.Status), "reason": evt.Validation.Reason,
		}})
	case tellask.CallHeadLineChunk:
		cs.head.WriteString(evt.Text)
		d.bus.Post(key, ref, bus.Event{Type: bus.KindCallingHeadlineChunk, GenSeq: genSeq, Payload: map[string]any{"text": evt.Text}})
	case tellask.CallHeadLineFinish:
		d.bus.Post(key, ref, bus.Event{Type: bus.KindCallingHeadlineFinish, GenSeq: genSeq})
	case tellask.CallBodyStart:
		d.bus.Post(key, ref, bus.Event{Type: bus.KindCallingBodyStart, GenSeq: genSeq})
	case tellask.CallBodyChunk:
		d.bus.Post(key, ref, bus.Event{Type: bus.KindCallingBodyChunk, GenSeq: genSeq, Payload: map[string]any{"text": evt.Text}})
	case tellask.CallBodyFinish:
		d.bus.Post(key, ref, bus.Event{Type: bus.KindCallingBodyFinish, GenSeq: genSeq})
	case tellask.CallFinish:
		d.bus.Post(key, ref, bus.Event{Type: bus.KindCallingFinish, GenSeq: genSeq, Payload: map[string]any{"callId": evt.CallID}})
		d.dispatch(ctx, h, root, ref, genSeq, cs.head.String(), evt.CallID, q4hOpen)
		cs.head.Reset()
	}
}

// dispatch performs §4.G step 4's call classification and action against
// headLine, the full accumulated head-region text of one finished call.
func (d *Driver) dispatch(ctx context.Context, h handle, root *dialog.RootDialog, ref bus.DialogRef, genSeq int, headLine, callID string, q4hOpen *[]string) {
	key := h.RootID()

	isTool := func(name string) bool {
		if d.tools == nil {
			return false
		}
		_, ok := d.tools.Lookup(name)
		return ok
	}
	call := Classify(headLine, isTool)

	switch call.Kind {
	case CallQ4H:
		*q4hOpen = append(*q4hOpen, headLine)
		d.bus.Post(key, ref, bus.Event{Type: bus.KindNewQ4HAsked, GenSeq: genSeq, Payload: map[string]any{"headLine": headLine}})
		d.journalEvent(h, dialog.JKindQ4HAsked, genSeq, map[string]any{"headLine": headLine})

	case CallFBR:
		sub, err := d.spawner.SpawnTypeC(root, h.AgentID(), headLine, callID)
		if err != nil {
			return
		}
		h.RegisterTransientSubdialog(sub)
		h.AddPendingSubdialog(dialog.PendingSubdialog{SubdialogID: sub.SelfID(), CreatedAt: time.Now(), HeadLine: headLine, TargetAgentID: h.AgentID(), CallType: dialog.CallTypeA})
		d.journalEvent(h, dialog.JKindSubdialogCreated, genSeq, map[string]any{"selfId": sub.SelfID(), "callType": string(dialog.CallTypeA)})
		_ = d.spawner.Drive(ctx, sub, headLine)

	case CallTool:
		t, ok := d.tools.Lookup(call.AgentID)
		if !ok {
			return
		}
		d.bus.Post(key, ref, bus.Event{Type: bus.KindFuncCallRequested, GenSeq: genSeq, Payload: map[string]any{"tool": call.AgentID}})
		d.journalEvent(h, dialog.JKindFuncCallRequest, genSeq, map[string]any{"tool": call.AgentID, "body": headLine})
		result, err := t.Call(newToolContext(ctx, h.Base()), map[string]any{"body": headLine})
		outcome := "ok"
		if err != nil {
			result = fmt.Sprintf("%s\n%s", ErrToolExecution, err.Error())
			outcome = "tool_error"
		}
		if d.metrics != nil {
			d.metrics.RecordToolCall(call.AgentID, outcome)
		}
		d.bus.Post(key, ref, bus.Event{Type: bus.KindFuncResult, GenSeq: genSeq, Payload: map[string]any{"tool": call.AgentID, "result": result}})
		d.journalEvent(h, dialog.JKindFuncResult, genSeq, map[string]any{"tool": call.AgentID, "result": result})

	case CallTypeB:
		if h.Mutex().IsLocked(call.AgentID, call.TopicID) {
			d.bus.Post(key, ref, bus.Event{Type: bus.KindFuncResult, GenSeq: genSeq, Payload: map[string]any{"result": ErrMutexBusy}})
			return
		}
		sub, resuming := h.LookupSubdialog(call.AgentID, call.TopicID)
		if !resuming {
			var err error
			sub, err = d.spawner.SpawnTypeB(root, call.AgentID, call.TopicID, headLine, callID)
			if err != nil {
				return
			}
			h.RegisterSubdialog(call.AgentID, call.TopicID, sub)
		}
		if _, err := h.Mutex().Lock(call.AgentID, call.TopicID, sub.SelfID()); err != nil {
			d.bus.Post(key, ref, bus.Event{Type: bus.KindFuncResult, GenSeq: genSeq, Payload: map[string]any{"result": ErrMutexBusy}})
			return
		}
		h.AddPendingSubdialog(dialog.PendingSubdialog{SubdialogID: sub.SelfID(), CreatedAt: time.Now(), HeadLine: headLine, TargetAgentID: call.AgentID, CallType: dialog.CallTypeB})
		d.bus.Post(key, ref, bus.Event{Type: bus.KindSubdialogCreated, GenSeq: genSeq, Payload: map[string]any{"selfId": sub.SelfID(), "agentId": call.AgentID, "topicId": call.TopicID}})
		d.journalEvent(h, dialog.JKindSubdialogCreated, genSeq, map[string]any{"selfId": sub.SelfID(), "agentId": call.AgentID, "topicId": call.TopicID, "callType": string(dialog.CallTypeB)})
		go func() { _ = d.spawner.Drive(ctx, sub, headLine) }()

	case CallTypeC:
		sub, err := d.spawner.SpawnTypeC(root, call.AgentID, headLine, callID)
		if err != nil {
			return
		}
		h.RegisterTransientSubdialog(sub)
		h.AddPendingSubdialog(dialog.PendingSubdialog{SubdialogID: sub.SelfID(), CreatedAt: time.Now(), HeadLine: headLine, TargetAgentID: call.AgentID, CallType: dialog.CallTypeC})
		d.bus.Post(key, ref, bus.Event{Type: bus.KindSubdialogCreated, GenSeq: genSeq, Payload: map[string]any{"selfId": sub.SelfID(), "agentId": call.AgentID}})
		d.journalEvent(h, dialog.JKindSubdialogCreated, genSeq, map[string]any{"selfId": sub.SelfID(), "agentId": call.AgentID, "callType": string(dialog.CallTypeC)})
		go func() { _ = d.spawner.Drive(ctx, sub, headLine) }()

	default:
		d.bus.Post(key, ref, bus.Event{Type: bus.KindFuncResult, GenSeq: genSeq, Payload: map[string]any{"result": ErrUnknownCall}})
	}
}

// journalEvent appends a journal record for h's current round, keeping the
// on-disk log and the bus's wire events in lockstep without threading a
// journal handle through every call site.
func (d *Driver) journalEvent(h handle, kind string, genSeq int, data map[string]any) {
	_ = h.Base().Journal().AppendEvent(h.Base().Round(), dialog.JournalRecord{Type: kind, GenSeq: genSeq, Data: data})
}

// handleFunctionCall dispatches a native provider function-call chunk —
// distinct from a tellask `@callsign` call, this is the LLM API's own
// tool-calling channel, used when the provider supports it directly.
func (d *Driver) handleFunctionCall(ctx context.Context, h handle, ref bus.DialogRef, genSeq int, chunk llms.StreamChunk) {
	if chunk.ToolCall == nil {
		return
	}
	key := h.RootID()
	d.bus.Post(key, ref, bus.Event{Type: bus.KindFuncCallRequested, GenSeq: genSeq, Payload: map[string]any{"tool": chunk.ToolCall.Name, "args": chunk.ToolCall.Arguments}})
	d.journalEvent(h, dialog.JKindFuncCallRequest, genSeq, map[string]any{"tool": chunk.ToolCall.Name, "args": chunk.ToolCall.Arguments})
	t, ok := d.tools.Lookup(chunk.ToolCall.Name)
	if !ok {
		d.bus.Post(key, ref, bus.Event{Type: bus.KindFuncResult, GenSeq: genSeq, Payload: map[string]any{"result": ErrUnknownCall}})
		return
	}
	result, err := t.Call(newToolContext(ctx, h.Base()), chunk.ToolCall.Arguments)
	outcome := "ok"
	if err != nil {
		result = fmt.Sprintf("%s\n%s", ErrToolExecution, err.Error())
		outcome = "tool_error"
	}
	if d.metrics != nil {
		d.metrics.RecordToolCall(chunk.ToolCall.Name, outcome)
	}
	d.bus.Post(key, ref, bus.Event{Type: bus.KindFuncResult, GenSeq: genSeq, Payload: map[string]any{"tool": chunk.ToolCall.Name, "result": result}})
	d.journalEvent(h, dialog.JKindFuncResult, genSeq, map[string]any{"tool": chunk.ToolCall.Name, "result": result})
}
