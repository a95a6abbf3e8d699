// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"io"
	"testing"

	"github.com/salmasaleem01/SQL-Agent/pkg/api"
)

// scriptedUI replays a fixed sequence of inputs and captures output.
type scriptedUI struct {
	inputs  []string
	outputs []string
	errs    []string
}

func (u *scriptedUI) ReadInput() (string, error) {
	if len(u.inputs) == 0 {
		return "", io.EOF
	}
	input := u.inputs[0]
	u.inputs = u.inputs[1:]
	return input, nil
}

func (u *scriptedUI) RenderOutput(text string) { u.outputs = append(u.outputs, text) }
func (u *scriptedUI) RenderError(text string)  { u.errs = append(u.errs, text) }
func (u *scriptedUI) Close() error             { return nil }

// scriptedBackend returns canned results and records the queries it saw.
type scriptedBackend struct {
	queries []string
	results []*api.Result
}

func (b *scriptedBackend) Handle(ctx context.Context, query string) (*api.Result, error) {
	b.queries = append(b.queries, query)
	if len(b.results) == 0 {
		return &api.Result{Text: "ok", Status: api.ResultStatusSuccess}, nil
	}
	result := b.results[0]
	b.results = b.results[1:]
	return result, nil
}

func (b *scriptedBackend) Close() error { return nil }

func TestReplExitKeywords(t *testing.T) {
	for _, keyword := range []string{"quit", "exit", "q", "QUIT", "Exit", "Q", "  quit  "} {
		userInterface := &scriptedUI{inputs: []string{keyword, "should never be read"}}
		backend := &scriptedBackend{}

		if err := repl(context.Background(), "", userInterface, backend); err != nil {
			t.Fatalf("repl(%q) returned error: %v", keyword, err)
		}
		if len(backend.queries) != 0 {
			t.Errorf("exit keyword %q must not reach the backend, got queries %v", keyword, backend.queries)
		}
	}
}

func TestReplSkipsEmptyInput(t *testing.T) {
	userInterface := &scriptedUI{inputs: []string{"", "   ", "\t", "real question", "quit"}}
	backend := &scriptedBackend{}

	if err := repl(context.Background(), "", userInterface, backend); err != nil {
		t.Fatalf("repl() returned error: %v", err)
	}
	if len(backend.queries) != 1 || backend.queries[0] != "real question" {
		t.Errorf("expected only the real question to reach the backend, got %v", backend.queries)
	}
}

func TestReplContinuesAfterFailure(t *testing.T) {
	userInterface := &scriptedUI{inputs: []string{"first", "second", "quit"}}
	backend := &scriptedBackend{
		results: []*api.Result{
			{Status: api.ResultStatusFailure, Error: "model unavailable"},
			{Status: api.ResultStatusSuccess, Text: "answer"},
		},
	}

	if err := repl(context.Background(), "", userInterface, backend); err != nil {
		t.Fatalf("repl() returned error: %v", err)
	}
	if len(backend.queries) != 2 {
		t.Fatalf("expected both queries to be handled, got %v", backend.queries)
	}
	if len(userInterface.errs) != 1 || userInterface.errs[0] != "model unavailable" {
		t.Errorf("expected one rendered error, got %v", userInterface.errs)
	}
	if len(userInterface.outputs) != 1 || userInterface.outputs[0] != "answer" {
		t.Errorf("expected one rendered answer, got %v", userInterface.outputs)
	}
}

func TestReplEOFTerminates(t *testing.T) {
	userInterface := &scriptedUI{} // ReadInput returns io.EOF immediately
	backend := &scriptedBackend{}

	if err := repl(context.Background(), "", userInterface, backend); err != nil {
		t.Fatalf("repl() should treat EOF as a clean exit, got: %v", err)
	}
}

func TestReplInitialQuery(t *testing.T) {
	userInterface := &scriptedUI{inputs: []string{"quit"}}
	backend := &scriptedBackend{}

	if err := repl(context.Background(), "from the command line", userInterface, backend); err != nil {
		t.Fatalf("repl() returned error: %v", err)
	}
	if len(backend.queries) != 1 || backend.queries[0] != "from the command line" {
		t.Errorf("expected the initial query to be handled first, got %v", backend.queries)
	}
}

func TestResolveQueryInputArgOnly(t *testing.T) {
	query, err := resolveQueryInput(false, []string{"how many users"})
	if err != nil {
		t.Fatalf("resolveQueryInput() failed: %v", err)
	}
	if query != "how many users" {
		t.Errorf("unexpected query %q", query)
	}
}

func TestResolveQueryInputNoInput(t *testing.T) {
	query, err := resolveQueryInput(false, nil)
	if err != nil {
		t.Fatalf("resolveQueryInput() failed: %v", err)
	}
	if query != "" {
		t.Errorf("expected empty query, got %q", query)
	}
}
