// Copyright 2025 Poiesic Systems
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

package agent

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/poiesic/ragchat/core"
)

// Tool is a capability the model can invoke.
type Tool interface {
	Name() string
	Description() string

	// Schema returns the JSON Schema of the tool's input object.
	Schema() map[string]any

	// Execute runs the tool. Model-visible failures should be returned
	// as text; a non-nil error is reported to the model as a tool error.
	Execute(ctx context.Context, rc *core.RequestContext, input json.RawMessage) (string, error)
}

// Registry holds tools by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a registry holding the given tools.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[tool.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, tool.Name())
	}
	r.tools[tool.Name()] = tool
	return nil
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Tools returns every registered tool sorted by name.
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	slices.SortFunc(tools, func(a, b Tool) int {
		return cmp.Compare(a.Name(), b.Name())
	})
	return tools
}

// Execute runs the named tool.
func (r *Registry) Execute(ctx context.Context, name string, rc *core.RequestContext, input json.RawMessage) (string, error) {
	tool, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if rc == nil {
		return "", ErrRequestContextRequired
	}
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}
	return tool.Execute(ctx, rc, input)
}

// ObjectSchema creates an object schema with the given properties.
func ObjectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// StringProperty creates a string property.
func StringProperty(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
	}
}

// IntegerProperty creates an integer property with a default value.
func IntegerProperty(description string, def int) map[string]any {
	return map[string]any{
		"type":        "integer",
		"description": description,
		"default":     def,
	}
}

// SchemaProperties splits a schema made by ObjectSchema into its
// properties and required names.
func SchemaProperties(schema map[string]any) (map[string]any, []string) {
	props, _ := schema["properties"].(map[string]any)
	required, _ := schema["required"].([]string)
	return props, required
}
