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

// Package driver implements the dialog driving kernel: it consumes an LLM
// provider's stream, pipes text through the tellask parser, classifies and
// dispatches each call, and advances the dialog's run state accordingly.
package driver

import (
	"context"

	"github.com/dominds-project/dominds/pkg/dialog"
)

// toolContext adapts one driving step's context.Context plus the invoking
// dialog's identity into the tool.Context the tool package expects,
// without the tool package ever importing dialog.
type toolContext struct {
	context.Context
	rootID   string
	selfID   string
	callsign string
}

func newToolContext(ctx context.Context, d *dialog.Base) toolContext {
	return toolContext{
		Context:  ctx,
		rootID:   d.RootID(),
		selfID:   d.SelfID(),
		callsign: d.Callsign(),
	}
}

func (t toolContext) RootID() string   { return t.rootID }
func (t toolContext) SelfID() string   { return t.selfID }
func (t toolContext) Callsign() string { return t.callsign }
