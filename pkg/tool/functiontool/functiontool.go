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

// Package functiontool provides a convenient way to create tools from typed
// Go functions, generating the JSON schema from struct tags so callers don't
// hand-write one.
//
// # Basic Usage
//
//	type GetWeatherArgs struct {
//	    City  string `json:"city" jsonschema:"required,description=City name"`
//	    Units string `json:"units,omitempty" jsonschema:"description=Temperature units,default=celsius,enum=celsius|fahrenheit"`
//	}
//
//	weatherTool, err := functiontool.New(
//	    functiontool.Config{
//	        Name:        "get_weather",
//	        Description: "Get current weather for a city",
//	    },
//	    func(ctx tool.Context, args GetWeatherArgs) (map[string]any, error) {
//	        return map[string]any{"temp": 22, "condition": "sunny"}, nil
//	    },
//	)
//
// The function result is JSON-encoded into the single string the driver
// journals as the call's result.
package functiontool

import (
	"encoding/json"
	"fmt"

	"github.com/dominds-project/dominds/pkg/tool"
)

// Config defines the configuration for a function tool.
type Config struct {
	Name        string
	Description string
}

// New creates a CallableTool from a typed function.
func New[Args any](cfg Config, fn func(tool.Context, Args) (map[string]any, error)) (tool.CallableTool, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	schema, err := generateSchema[Args]()
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema for %s: %w", cfg.Name, err)
	}

	return &functionTool[Args]{
		config: cfg,
		fn:     fn,
		schema: schema,
	}, nil
}

// NewWithValidation creates a CallableTool with custom argument validation
// run before fn, for checks struct tags can't express (e.g. path traversal).
func NewWithValidation[Args any](
	cfg Config,
	fn func(tool.Context, Args) (map[string]any, error),
	validate func(Args) error,
) (tool.CallableTool, error) {
	baseTool, err := New(cfg, fn)
	if err != nil {
		return nil, err
	}

	return &functionToolWithValidation[Args]{
		functionTool: baseTool.(*functionTool[Args]),
		validate:     validate,
	}, nil
}

// functionTool implements tool.CallableTool by wrapping a typed function.
type functionTool[Args any] struct {
	config Config
	fn     func(tool.Context, Args) (map[string]any, error)
	schema map[string]any
}

func (t *functionTool[Args]) Name() string        { return t.config.Name }
func (t *functionTool[Args]) Description() string { return t.config.Description }
func (t *functionTool[Args]) Schema() map[string]any {
	return t.schema
}

// Call converts args to the typed Args struct, invokes fn, and JSON-encodes
// its result into the string the driver journals.
func (t *functionTool[Args]) Call(ctx tool.Context, args map[string]any) (string, error) {
	var typedArgs Args
	if err := mapToStruct(args, &typedArgs); err != nil {
		return "", fmt.Errorf("invalid arguments for %s: %w", t.config.Name, err)
	}

	result, err := t.fn(ctx, typedArgs)
	if err != nil {
		return "", err
	}

	return encodeResult(result)
}

// functionToolWithValidation wraps a function tool with custom validation.
type functionToolWithValidation[Args any] struct {
	*functionTool[Args]
	validate func(Args) error
}

func (t *functionToolWithValidation[Args]) Call(ctx tool.Context, args map[string]any) (string, error) {
	var typedArgs Args
	if err := mapToStruct(args, &typedArgs); err != nil {
		return "", fmt.Errorf("invalid arguments for %s: %w", t.config.Name, err)
	}

	if err := t.validate(typedArgs); err != nil {
		return "", fmt.Errorf("validation failed for %s: %w", t.config.Name, err)
	}

	result, err := t.fn(ctx, typedArgs)
	if err != nil {
		return "", err
	}

	return encodeResult(result)
}

func encodeResult(result map[string]any) (string, error) {
	if result == nil {
		return "", nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode tool result: %w", err)
	}
	return string(data), nil
}

func validateConfig(cfg Config) error {
	if cfg.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if cfg.Description == "" {
		return fmt.Errorf("tool description is required")
	}
	return nil
}

var _ tool.CallableTool = (*functionTool[struct{}])(nil)
var _ tool.CallableTool = (*functionToolWithValidation[struct{}])(nil)
