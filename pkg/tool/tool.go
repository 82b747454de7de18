// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tool defines the contract for tool calls a dialog can invoke.
//
// A tool call is always dispatched synchronously against the dialog that
// issued it — `@callsign args...` where callsign names a registered tool
// rather than a teammate. The driver never treats a tool error as fatal: a
// returned error is rendered as "ERR_TOOL_EXECUTION\n<detail>" and fed back
// to the model, same as any other line in its context.
package tool

import (
	"context"
	"iter"
)

// Tool is the base interface every registered tool satisfies.
type Tool interface {
	// Name returns the callsign the tellask grammar dispatches on.
	Name() string

	// Description is surfaced to the LLM as part of its tool listing.
	Description() string
}

// CallableTool executes synchronously and returns a single string result —
// the form the driver journals verbatim.
type CallableTool interface {
	Tool

	// Call executes the tool with the given arguments. args comes from the
	// tellask parser's parsed call segment.
	Call(ctx Context, args map[string]any) (string, error)

	// Schema returns the JSON schema for the tool's parameters, or nil if
	// the tool takes no parameters.
	Schema() map[string]any
}

// StreamingTool extends Tool with incremental output, for tools whose
// execution is long enough that the driver benefits from intermediate
// progress chunks (e.g. shelling out to a subprocess).
type StreamingTool interface {
	Tool

	// CallStreaming executes the tool and yields incremental results. The
	// final yielded Result carries Streaming=false.
	CallStreaming(ctx Context, args map[string]any) iter.Seq2[*Result, error]

	Schema() map[string]any
}

// Result represents one chunk of a StreamingTool's output.
type Result struct {
	Content   string
	Streaming bool
	Error     string
}

// Context carries the calling dialog's identity into a tool invocation.
// Concrete dialogs satisfy this structurally — the tool package never
// imports the dialog package.
type Context interface {
	context.Context

	// RootID is the dialog tree's root id.
	RootID() string

	// SelfID is the invoking dialog's own id within that tree ("" for the
	// root dialog itself).
	SelfID() string

	// Callsign is the invoking dialog's agent callsign — the "caller" a
	// tool's result or audit log should attribute the call to.
	Callsign() string
}

// Toolset groups related tools and resolves them lazily, so MCP-backed
// toolsets only connect once a dialog actually needs one of their tools.
type Toolset interface {
	Name() string

	Tools(ctx Context) ([]Tool, error)
}

// Predicate decides whether a tool should be available to a given caller.
type Predicate func(ctx Context, t Tool) bool

// StringPredicate allows only the named tools.
func StringPredicate(allowedTools []string) Predicate {
	allowed := make(map[string]bool, len(allowedTools))
	for _, name := range allowedTools {
		allowed[name] = true
	}
	return func(ctx Context, t Tool) bool {
		return allowed[t.Name()]
	}
}

// AllowAll allows every tool.
func AllowAll() Predicate {
	return func(ctx Context, t Tool) bool { return true }
}

// DenyAll allows no tool.
func DenyAll() Predicate {
	return func(ctx Context, t Tool) bool { return false }
}

// Combine ANDs predicates together.
func Combine(predicates ...Predicate) Predicate {
	return func(ctx Context, t Tool) bool {
		for _, p := range predicates {
			if !p(ctx, t) {
				return false
			}
		}
		return true
	}
}

// Definition is the JSON-schema-shaped view of a tool, used to populate the
// LLM provider's function-calling tool list.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToDefinition converts a registered tool to its LLM-facing Definition.
func ToDefinition(t Tool) Definition {
	def := Definition{Name: t.Name(), Description: t.Description()}
	switch tt := t.(type) {
	case CallableTool:
		def.Parameters = tt.Schema()
	case StreamingTool:
		def.Parameters = tt.Schema()
	}
	return def
}
