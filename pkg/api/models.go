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

package api

import (
	"time"
)

// ResultStatus indicates whether a request produced an answer or failed.
type ResultStatus string

const (
	ResultStatusSuccess ResultStatus = "success"
	ResultStatusFailure ResultStatus = "failure"
)

// Result is the outcome of a single request handled by a backend.
// Exactly one Result is produced per request; it is consumed by the
// caller for display and then discarded.
type Result struct {
	// Text is the answer from the model, present on success.
	Text string `json:"text,omitempty"`

	// Status is success or failure.
	Status ResultStatus `json:"status"`

	// Error holds a human-readable message when Status is failure.
	Error string `json:"error,omitempty"`
}

// Failed reports whether the request failed.
func (r *Result) Failed() bool {
	return r.Status == ResultStatusFailure
}

type MessageType string

const (
	MessageTypeText             MessageType = "text"
	MessageTypeError            MessageType = "error"
	MessageTypeToolCallRequest  MessageType = "tool-call-request"
	MessageTypeToolCallResponse MessageType = "tool-call-response"
)

type MessageSource string

const (
	MessageSourceUser  MessageSource = "user"
	MessageSourceAgent MessageSource = "agent"
	MessageSourceModel MessageSource = "model"
)

// Message is one entry in a conversation's history.
type Message struct {
	ID        string
	Source    MessageSource
	Type      MessageType
	Payload   any
	Timestamp time.Time
}

// ChatMessageStore defines the interface for managing storage of chat messages of a session.
type ChatMessageStore interface {
	AddChatMessage(record *Message) error
	SetChatMessages(newHistory []*Message) error
	ChatMessages() []*Message
	ClearChatMessages() error
}
