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
	"errors"
	"testing"

	"github.com/salmasaleem01/SQL-Agent/gollm"
)

type stubTool struct {
	name     string
	runErr   error
	output   any
	modifies bool
}

func (t *stubTool) Name() string        { return t.name }
func (t *stubTool) Description() string { return "stub" }
func (t *stubTool) FunctionDefinition() *gollm.FunctionDefinition {
	return &gollm.FunctionDefinition{Name: t.name}
}
func (t *stubTool) Run(ctx context.Context, args map[string]any) (any, error) {
	return t.output, t.runErr
}
func (t *stubTool) Modifies(args map[string]any) bool { return t.modifies }

func TestRegisterToolRejectsDuplicates(t *testing.T) {
	toolset := NewTools()
	toolset.RegisterTool(&stubTool{name: "dup"})

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	toolset.RegisterTool(&stubTool{name: "dup"})
}

func TestInvokeToolUnknown(t *testing.T) {
	toolset := NewTools()
	_, err := toolset.InvokeTool(context.Background(), "missing", nil)
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestInvokeToolPropagatesErrors(t *testing.T) {
	toolset := NewTools()
	wantErr := errors.New("boom")
	toolset.RegisterTool(&stubTool{name: "broken", runErr: wantErr})

	_, err := toolset.InvokeTool(context.Background(), "broken", nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the tool's error back, got %v", err)
	}
}

func TestInvokeToolReturnsOutput(t *testing.T) {
	toolset := NewTools()
	toolset.RegisterTool(&stubTool{name: "ok", output: "result"})

	output, err := toolset.InvokeTool(context.Background(), "ok", map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("InvokeTool() failed: %v", err)
	}
	if output != "result" {
		t.Errorf("unexpected output %v", output)
	}
}

func TestNames(t *testing.T) {
	toolset := NewTools()
	toolset.RegisterTool(&stubTool{name: "zebra"})
	toolset.RegisterTool(&stubTool{name: "alpha"})

	names := toolset.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zebra" {
		t.Errorf("expected sorted names [alpha zebra], got %v", names)
	}
}
