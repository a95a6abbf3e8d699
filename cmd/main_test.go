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
	"path/filepath"
	"testing"
)

func TestResolveClientOptionsMissingKey(t *testing.T) {
	tests := []struct {
		provider string
		envVar   string
	}{
		{provider: "gemini", envVar: "GEMINI_API_KEY"},
		{provider: "openai", envVar: "OPENAI_API_KEY"},
	}
	for _, tc := range tests {
		t.Run(tc.provider, func(t *testing.T) {
			t.Setenv(tc.envVar, "")
			opt := Options{ProviderID: tc.provider}
			if _, err := resolveClientOptions(&opt); err == nil {
				t.Fatalf("expected error when %s is unset", tc.envVar)
			}

			t.Setenv(tc.envVar, "test-key")
			clientOpts, err := resolveClientOptions(&opt)
			if err != nil {
				t.Fatalf("resolveClientOptions() failed with key set: %v", err)
			}
			if clientOpts.APIKey != "test-key" {
				t.Errorf("expected injected key, got %q", clientOpts.APIKey)
			}
		})
	}
}

func TestResolveClientOptionsOllamaNeedsNoKey(t *testing.T) {
	opt := Options{ProviderID: "ollama"}
	if _, err := resolveClientOptions(&opt); err != nil {
		t.Fatalf("ollama should not require a credential, got: %v", err)
	}
}

func TestResolveDBPath(t *testing.T) {
	t.Setenv("SQL_AGENT_DB", "")

	var opt Options
	opt.InitDefaults()
	if err := resolveDBPath(&opt); err == nil {
		t.Fatal("expected error when no database path is configured")
	}

	// Env fallback.
	envPath := filepath.Join(t.TempDir(), "env.db")
	t.Setenv("SQL_AGENT_DB", envPath)
	opt = Options{}
	opt.InitDefaults()
	if err := resolveDBPath(&opt); err != nil {
		t.Fatalf("resolveDBPath() failed: %v", err)
	}
	if opt.DBPath != envPath {
		t.Errorf("expected env path %q, got %q", envPath, opt.DBPath)
	}

	// Flag takes precedence over env.
	flagPath := filepath.Join(t.TempDir(), "flag.db")
	opt = Options{}
	opt.InitDefaults()
	opt.DBPath = flagPath
	if err := resolveDBPath(&opt); err != nil {
		t.Fatalf("resolveDBPath() failed: %v", err)
	}
	if opt.DBPath != flagPath {
		t.Errorf("expected flag path %q, got %q", flagPath, opt.DBPath)
	}

	// --no-tools makes the database optional.
	opt = Options{}
	opt.InitDefaults()
	opt.NoTools = true
	if err := resolveDBPath(&opt); err != nil {
		t.Errorf("resolveDBPath() with --no-tools should not require a path, got: %v", err)
	}
}

func TestOptionsLoadConfiguration(t *testing.T) {
	var opt Options
	opt.InitDefaults()

	config := []byte("llmProvider: openai\nmodel: gpt-4o\nmaxIterations: 7\n")
	if err := opt.LoadConfiguration(config); err != nil {
		t.Fatalf("LoadConfiguration() failed: %v", err)
	}
	if opt.ProviderID != "openai" || opt.ModelID != "gpt-4o" || opt.MaxIterations != 7 {
		t.Errorf("config values not applied: %+v", opt)
	}
}
