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

package app

import (
	"context"
	"fmt"

	"github.com/dominds-project/dominds/pkg/config"
	"github.com/dominds-project/dominds/pkg/dialog"
	"github.com/dominds-project/dominds/pkg/driver"
	"github.com/dominds-project/dominds/pkg/llms"
	"github.com/dominds-project/dominds/pkg/persist"
)

// Spawner implements driver.Spawner: it creates the on-disk directory and
// in-memory SubDialog for a Type-B/Type-C/FBR call, then drives it with one
// Driver.StepSub call.
type Spawner struct {
	store    *persist.Store
	owners   *dialog.OwnerRegistry
	registry *dialog.GlobalRegistry

	driver     *driver.Driver
	llms       *llms.LLMRegistry
	agents     map[string]*config.AgentConfig
	defaultLLM string
}

// NewSpawner creates a Spawner bound to store for persistence. driver, llms,
// agents and defaultLLM are filled in by app.New once the Driver it will
// drive children with exists (Spawner and Driver are mutually referential).
func NewSpawner(store *persist.Store, owners *dialog.OwnerRegistry, registry *dialog.GlobalRegistry) *Spawner {
	return &Spawner{store: store, owners: owners, registry: registry}
}

// SpawnTypeB creates a durable, resumable child dialog keyed by
// (agentID, topicID): later Type-B calls to the same pair resume it instead
// of creating a new one (driver.go's CallTypeB branch checks LookupSubdialog
// before calling this).
func (s *Spawner) SpawnTypeB(root *dialog.RootDialog, agentID, topicID, headLine, callID string) (*dialog.SubDialog, error) {
	return s.spawn(root, agentID, topicID, headLine, callID, dialog.OriginAssistant)
}

// SpawnTypeC creates a transient, fire-and-forget child dialog — no topicID,
// never looked up again once its summary folds back into the parent.
func (s *Spawner) SpawnTypeC(root *dialog.RootDialog, agentID, headLine, callID string) (*dialog.SubDialog, error) {
	return s.spawn(root, agentID, "", headLine, callID, dialog.OriginAssistant)
}

func (s *Spawner) spawn(root *dialog.RootDialog, agentID, topicID, headLine, callID string, originRole dialog.OriginRole) (*dialog.SubDialog, error) {
	id := dialog.NewSubID(root.ID().RootID)
	journal := s.store.Journal(id.SelfID)
	sub := dialog.NewSubDialog(id, root.TaskDocPath(), agentID, journal, root, topicID, originRole, root.AgentID(), root.ID().SelfID, callID)

	if err := s.store.SaveMeta(persist.Meta{
		RootID: id.RootID, SelfID: id.SelfID, AgentID: agentID, TaskDocPath: root.TaskDocPath(),
		ParentRootID: root.ID().RootID, TopicID: topicID, OriginRole: originRole,
		OriginMemberID: root.AgentID(), CallerDialogID: root.ID().SelfID, CallID: callID,
	}); err != nil {
		return nil, fmt.Errorf("app: spawn: persist meta: %w", err)
	}
	return sub, nil
}

// Drive runs one Driver.StepSub call for sub and, if sub is then
// idle_waiting_user, completes it and folds its summary into its parent's
// pending-summary list; in any other state nothing is folded. This is the
// half of §4.E this package, not the driver, owns: the
// driver only dispatches into Spawner.Drive, never decides how a child's
// result becomes a summary.
func (s *Spawner) Drive(ctx context.Context, sub *dialog.SubDialog, prompt string) error {
	agentCfg, ok := s.agents[sub.AgentID()]
	llmName := s.defaultLLM
	if ok && agentCfg.LLM != "" {
		llmName = agentCfg.LLM
	}
	provider, err := s.llms.GetLLM(llmName)
	if err != nil {
		return fmt.Errorf("app: drive %s: %w", sub.SelfID(), err)
	}

	var toolDefs []llms.ToolDefinition
	in := driver.StepInput{UserPrompt: prompt}
	if err := s.driver.StepSub(ctx, sub, provider, toolDefs, in); err != nil {
		return err
	}

	state, _ := sub.State()
	if state == dialog.StateIdleWaitingUser {
		summary := summarize(sub)
		if err := sub.Complete(summary); err != nil {
			return fmt.Errorf("app: complete %s: %w", sub.SelfID(), err)
		}
		if err := s.store.SavePendingSummaries(sub.Parent().ID().SelfID, sub.Parent().PeekSummaries()); err != nil {
			return fmt.Errorf("app: persist summary for %s: %w", sub.SelfID(), err)
		}
	}
	return nil
}

// summarize derives a child dialog's fold-back summary from its last
// recorded round. A real implementation could ask the same LLM for an
// abstractive summary; this keeps the result deterministic and free of an
// extra model round for every completed subdialog.
func summarize(sub *dialog.SubDialog) string {
	return fmt.Sprintf("%s completed round %d", sub.Callsign(), sub.Round())
}
