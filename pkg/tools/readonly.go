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

	"github.com/salmasaleem01/SQL-Agent/gollm"
)

// ReadOnly wraps a tool so that invocations the tool classifies as
// modifying are refused before they run. The refusal is a
// ValidationError, so the model sees the message and can rephrase.
// This is a messaging layer, not the enforcement: the toolkit opens
// the database read-only, so statements the classification misses are
// still rejected by the engine.
func ReadOnly(tool Tool) Tool {
	return &readOnlyTool{inner: tool}
}

type readOnlyTool struct {
	inner Tool
}

func (t *readOnlyTool) Name() string {
	return t.inner.Name()
}

func (t *readOnlyTool) Description() string {
	return t.inner.Description() + ` The database is opened read-only: statements that modify data or schema will be refused.`
}

func (t *readOnlyTool) FunctionDefinition() *gollm.FunctionDefinition {
	def := t.inner.FunctionDefinition()
	if def == nil {
		return nil
	}
	readOnlyDef := *def
	readOnlyDef.Description = t.Description()
	return &readOnlyDef
}

func (t *readOnlyTool) Run(ctx context.Context, args map[string]any) (any, error) {
	if t.inner.Modifies(args) {
		return nil, &ValidationError{
			Tool:   t.Name(),
			Reason: "this session is read-only; modifying statements are refused (restart with --unsafe-allow-writes to enable them)",
		}
	}
	return t.inner.Run(ctx, args)
}

func (t *readOnlyTool) Modifies(args map[string]any) bool {
	return false
}
