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
	"fmt"

	"github.com/dominds-project/dominds/pkg/llms"
	"github.com/dominds-project/dominds/pkg/utils"
)

// RoundMessages is one round's flattened conversation turn, reconstructed
// from the journal or held in memory for the dialog currently driving.
type RoundMessages struct {
	Round    int
	Messages []llms.Message
}

// ContextBuilder assembles the message list handed to the LLM provider for
// one driving step, applying step 1's trimming policy: oldest complete
// rounds first, never split within a round. utils.TokenCounter.FitWithinLimit
// trims at message granularity from most-recent-backwards, which does not
// honor round boundaries, so this type wraps the counter with its own
// round-aware selection instead of calling FitWithinLimit directly.
type ContextBuilder struct {
	counter   *utils.TokenCounter
	maxTokens int
}

// NewContextBuilder builds a context assembler for one provider's token
// budget, using the same tiktoken-go counter the rest of the codebase
// counts tokens with.
func NewContextBuilder(counter *utils.TokenCounter, maxTokens int) *ContextBuilder {
	return &ContextBuilder{counter: counter, maxTokens: maxTokens}
}

// Assemble folds pending child summaries, the task doc, reminders, and as
// much round history as fits into a single provider-bound message list.
// preamble carries the system/task-doc/reminder content that is never
// trimmed; rounds is round history ordered oldest-first.
func (b *ContextBuilder) Assemble(preamble []llms.Message, summaries []string, rounds []RoundMessages) []llms.Message {
	out := make([]llms.Message, 0, len(preamble)+len(summaries))
	out = append(out, preamble...)
	for _, s := range summaries {
		out = append(out, llms.Message{Role: "user", Content: fmt.Sprintf("[subdialog summary]\n%s", s)})
	}

	budget := b.maxTokens - b.counter.CountMessages(toCounterMessages(out))
	if budget <= 0 {
		return out
	}

	// Select whole rounds from most recent backwards until the budget is
	// exhausted, then restore the surviving rounds to oldest-first order so
	// the model sees history in chronological order.
	kept := make([]RoundMessages, 0, len(rounds))
	for i := len(rounds) - 1; i >= 0; i-- {
		r := rounds[i]
		cost := b.counter.CountMessages(toCounterMessages(r.Messages))
		if cost > budget {
			break
		}
		budget -= cost
		kept = append(kept, r)
	}
	for i := len(kept) - 1; i >= 0; i-- {
		out = append(out, kept[i].Messages...)
	}
	return out
}

func toCounterMessages(msgs []llms.Message) []utils.Message {
	out := make([]utils.Message, len(msgs))
	for i, m := range msgs {
		out[i] = utils.Message{Role: m.Role, Content: m.Content}
	}
	return out
}
