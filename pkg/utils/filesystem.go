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

// Package utils provides small filesystem helpers shared by the CLI and
// persistence layers.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDialogsDir ensures the .dialogs directory exists at the given base
// path. If basePath is empty or ".", it creates ./.dialogs in the current
// directory. Otherwise, it creates {basePath}/.dialogs.
//
// This is the root persist.Store is opened against: {basePath}/.dialogs/run
// holds one subdirectory per dialog (see pkg/persist).
//
// Returns the full path to the .dialogs directory and any error.
func EnsureDialogsDir(basePath string) (string, error) {
	var dialogsDir string
	if basePath == "" || basePath == "." {
		dialogsDir = ".dialogs"
	} else {
		dialogsDir = filepath.Join(basePath, ".dialogs")
	}

	if err := os.MkdirAll(dialogsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create .dialogs directory at '%s': %w", dialogsDir, err)
	}

	return dialogsDir, nil
}
