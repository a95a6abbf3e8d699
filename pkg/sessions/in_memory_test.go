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

package sessions

import (
	"testing"

	"github.com/salmasaleem01/SQL-Agent/pkg/api"
)

func TestInMemoryChatStore(t *testing.T) {
	store := NewInMemoryChatStore()

	if got := store.ChatMessages(); len(got) != 0 {
		t.Fatalf("new store should be empty, got %d messages", len(got))
	}

	if err := store.AddChatMessage(&api.Message{ID: "1", Source: api.MessageSourceUser, Type: api.MessageTypeText, Payload: "hi"}); err != nil {
		t.Fatalf("AddChatMessage() failed: %v", err)
	}
	if err := store.AddChatMessage(&api.Message{ID: "2", Source: api.MessageSourceModel, Type: api.MessageTypeText, Payload: "hello"}); err != nil {
		t.Fatalf("AddChatMessage() failed: %v", err)
	}

	messages := store.ChatMessages()
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}

	// The returned slice is a copy; mutating it must not affect the store.
	messages[0] = nil
	if store.ChatMessages()[0] == nil {
		t.Error("ChatMessages() must return a copy")
	}

	if err := store.ClearChatMessages(); err != nil {
		t.Fatalf("ClearChatMessages() failed: %v", err)
	}
	if got := store.ChatMessages(); len(got) != 0 {
		t.Errorf("expected empty store after clear, got %d messages", len(got))
	}
}
