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

import (
	"fmt"

	"github.com/dominds-project/dominds/pkg/registry"
)

// GlobalRegistry is the process-wide mapping of rootId to its live
// RootDialog. The bus uses it to resolve postDialogEventById; the HTTP/
// WebSocket surface uses it to route user input to the right dialog.
// Registration is explicit: callers register a root with RegisterRoot on
// creation/load. Nothing deregisters a root when it goes terminal or dead;
// an entry stays until a caller removes it with Deregister.
type GlobalRegistry struct {
	*registry.BaseRegistry[*RootDialog]
}

// NewGlobalRegistry creates an empty registry.
func NewGlobalRegistry() *GlobalRegistry {
	return &GlobalRegistry{BaseRegistry: registry.NewBaseRegistry[*RootDialog]()}
}

// RegisterRoot registers root under its own id.
func (g *GlobalRegistry) RegisterRoot(root *RootDialog) error {
	if root == nil {
		return fmt.Errorf("dialog: cannot register nil root")
	}
	return g.Register(root.ID().RootID, root)
}

// Lookup returns the live root dialog for rootID, if any.
func (g *GlobalRegistry) Lookup(rootID string) (*RootDialog, bool) {
	return g.Get(rootID)
}

// Deregister removes rootID from the registry, e.g. once it transitions to
// Terminal or Dead.
func (g *GlobalRegistry) Deregister(rootID string) error {
	return g.Remove(rootID)
}
