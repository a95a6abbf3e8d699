// Copyright 2025 Google LLC
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

package tools

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/salmasaleem01/SQL-Agent/pkg/journal"
)

// NewTools returns an empty tool set. The agent works fine with zero
// tools registered; it simply never advertises function definitions.
func NewTools() *Tools {
	return &Tools{
		tools: make(map[string]Tool),
	}
}

type Tools struct {
	tools map[string]Tool
}

func (t *Tools) Lookup(name string) Tool {
	return t.tools[name]
}

func (t *Tools) AllTools() []Tool {
	return slices.Collect(maps.Values(t.tools))
}

func (t *Tools) Len() int {
	return len(t.tools)
}

func (t *Tools) Names() []string {
	names := make([]string, 0, len(t.tools))
	for name := range t.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// RegisterTool makes a tool available to the LLM.
func (t *Tools) RegisterTool(tool Tool) {
	if _, exists := t.tools[tool.Name()]; exists {
		panic("tool already registered: " + tool.Name())
	}
	t.tools[tool.Name()] = tool
}

type ToolRequestEvent struct {
	CallID    string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

type ToolResponseEvent struct {
	CallID   string `json:"id,omitempty"`
	Response any    `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// InvokeTool runs the named tool, writing request/response trace events
// around the invocation.
func (t *Tools) InvokeTool(ctx context.Context, name string, arguments map[string]any) (any, error) {
	recorder := journal.RecorderFromContext(ctx)

	tool := t.Lookup(name)
	if tool == nil {
		return "", fmt.Errorf("tool %q not recognized", name)
	}

	callID := uuid.NewString()
	recorder.Write(ctx, &journal.Event{
		Timestamp: time.Now(),
		Action:    journal.ActionToolRequest,
		Payload: ToolRequestEvent{
			CallID:    callID,
			Name:      name,
			Arguments: arguments,
		},
	})

	response, err := tool.Run(ctx, arguments)

	{
		ev := ToolResponseEvent{
			CallID:   callID,
			Response: response,
		}
		if err != nil {
			ev.Error = err.Error()
		}
		recorder.Write(ctx, &journal.Event{
			Timestamp: time.Now(),
			Action:    journal.ActionToolResponse,
			Payload:   ev,
		})
	}

	return response, err
}
