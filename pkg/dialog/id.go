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

// Package dialog implements the dialog tree: RootDialog and SubDialog state
// machines, their event journals, reminder stores and the subdialog mutex
// that governs resumable teammate calls.
package dialog

import (
	"strings"

	"github.com/google/uuid"
)

// ID is the pair (rootId, selfId) that identifies a dialog anywhere in the
// tree. selfId == rootId iff the dialog is itself a root.
type ID struct {
	RootID string
	SelfID string
}

// NewRootID generates an opaque, URL-safe, globally unique id for a new
// root dialog, where rootId == selfId.
func NewRootID() ID {
	id := uuid.NewString()
	return ID{RootID: id, SelfID: id}
}

// NewSubID generates a child id under rootID.
func NewSubID(rootID string) ID {
	return ID{RootID: rootID, SelfID: uuid.NewString()}
}

// IsRoot reports whether this id names a root dialog.
func (id ID) IsRoot() bool {
	return id.SelfID == id.RootID
}

// Key returns the indexing string key: "rootId#selfId" for a subdialog, or
// just "rootId" for a root.
func (id ID) Key() string {
	if id.IsRoot() {
		return id.RootID
	}
	return id.RootID + "#" + id.SelfID
}

// ParseKey is the inverse of Key.
func ParseKey(key string) ID {
	rootID, selfID, ok := strings.Cut(key, "#")
	if !ok {
		return ID{RootID: rootID, SelfID: rootID}
	}
	return ID{RootID: rootID, SelfID: selfID}
}

func (id ID) String() string {
	return id.Key()
}
