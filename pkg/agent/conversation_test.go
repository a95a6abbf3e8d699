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

package agent

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/salmasaleem01/SQL-Agent/gollm"
	"github.com/salmasaleem01/SQL-Agent/internal/mocks"
	"github.com/salmasaleem01/SQL-Agent/pkg/api"
	"github.com/salmasaleem01/SQL-Agent/pkg/journal"
	"github.com/salmasaleem01/SQL-Agent/pkg/sessions"
	"github.com/salmasaleem01/SQL-Agent/pkg/tools"
)

// fakeResponse is a canned gollm.ChatResponse for tests.
type fakeResponse struct {
	parts []fakePart
}

func (r *fakeResponse) UsageMetadata() any { return nil }

func (r *fakeResponse) Candidates() []gollm.Candidate {
	return []gollm.Candidate{&fakeCandidate{parts: r.parts}}
}

type fakeCandidate struct {
	parts []fakePart
}

func (c *fakeCandidate) String() string { return "fake candidate" }

func (c *fakeCandidate) Parts() []gollm.Part {
	parts := make([]gollm.Part, 0, len(c.parts))
	for i := range c.parts {
		parts = append(parts, &c.parts[i])
	}
	return parts
}

type fakePart struct {
	text  string
	calls []gollm.FunctionCall
}

func (p *fakePart) AsText() (string, bool) {
	return p.text, p.text != ""
}

func (p *fakePart) AsFunctionCalls() ([]gollm.FunctionCall, bool) {
	return p.calls, len(p.calls) > 0
}

func textResponse(text string) *fakeResponse {
	return &fakeResponse{parts: []fakePart{{text: text}}}
}

func functionCallResponse(calls ...gollm.FunctionCall) *fakeResponse {
	return &fakeResponse{parts: []fakePart{{calls: calls}}}
}

func newTestConversation(t *testing.T, chat *mocks.MockChat, toolset *tools.Tools) *Conversation {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	client := mocks.NewMockClient(ctrl)
	client.EXPECT().StartChat(gomock.Any(), gomock.Any()).Return(chat).Times(1)

	c := &Conversation{
		LLM:           client,
		Model:         "test-model",
		MaxIterations: 5,
		Tools:         toolset,
		Recorder:      &journal.LogRecorder{},
		ChatStore:     sessions.NewInMemoryChatStore(),
	}
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	return c
}

func TestHandleReturnsModelAnswer(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	chat := mocks.NewMockChat(ctrl)
	chat.EXPECT().Send(gomock.Any(), "hello").Return(textResponse("Hi there!"), nil).Times(1)

	c := newTestConversation(t, chat, tools.NewTools())

	result, err := c.Handle(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Handle() returned error: %v", err)
	}
	if result.Failed() {
		t.Fatalf("Handle() returned failure: %s", result.Error)
	}
	if result.Text != "Hi there!" {
		t.Errorf("unexpected answer %q", result.Text)
	}
}

func TestHandleZeroToolsSkipsFunctionDefinitions(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	// No SetFunctionDefinitions expectation: gomock fails the test if
	// the conversation calls it for an empty tool set.
	chat := mocks.NewMockChat(ctrl)
	chat.EXPECT().Send(gomock.Any(), gomock.Any()).Return(textResponse("answer"), nil).Times(1)

	c := newTestConversation(t, chat, tools.NewTools())

	result, err := c.Handle(context.Background(), "a question")
	if err != nil {
		t.Fatalf("Handle() returned error: %v", err)
	}
	if result.Failed() {
		t.Fatalf("Handle() returned failure: %s", result.Error)
	}
}

func TestHandleTransportErrorYieldsFailureResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	chat := mocks.NewMockChat(ctrl)
	sendErr := errors.New("connection refused")
	chat.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil, sendErr).Times(1)
	chat.EXPECT().IsRetryableError(sendErr).Return(false).AnyTimes()

	c := newTestConversation(t, chat, tools.NewTools())

	result, err := c.Handle(context.Background(), "a question")
	if err != nil {
		t.Fatalf("Handle() should not return an error for a failed request, got: %v", err)
	}
	if !result.Failed() {
		t.Fatalf("expected failure result, got: %+v", result)
	}

	// The session must remain usable after a failure.
	chat.EXPECT().Send(gomock.Any(), gomock.Any()).Return(textResponse("recovered"), nil).Times(1)
	result, err = c.Handle(context.Background(), "again")
	if err != nil {
		t.Fatalf("Handle() after failure returned error: %v", err)
	}
	if result.Failed() {
		t.Fatalf("expected success after recovery, got failure: %s", result.Error)
	}
}

func TestHandleRunsToolCalls(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	toolset := tools.NewTools()

	mt := mocks.NewMockTool(ctrl)
	mt.EXPECT().Name().Return("mock_query").AnyTimes()
	mt.EXPECT().FunctionDefinition().Return(&gollm.FunctionDefinition{
		Name:        "mock_query",
		Description: "Runs a canned query",
	}).AnyTimes()
	mt.EXPECT().Run(gomock.Any(), gomock.Any()).Return(`{"rows":1}`, nil).Times(1)
	toolset.RegisterTool(mt)

	chat := mocks.NewMockChat(ctrl)
	chat.EXPECT().SetFunctionDefinitions(gomock.Any()).Return(nil).Times(1)

	gomock.InOrder(
		chat.EXPECT().Send(gomock.Any(), "how many rows?").
			Return(functionCallResponse(gollm.FunctionCall{
				ID:        "call-1",
				Name:      "mock_query",
				Arguments: map[string]any{"query": "SELECT 1"},
			}), nil),
		chat.EXPECT().Send(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, contents ...any) (gollm.ChatResponse, error) {
				if len(contents) != 1 {
					t.Fatalf("expected one function call result, got %d", len(contents))
				}
				fcr, ok := contents[0].(gollm.FunctionCallResult)
				if !ok {
					t.Fatalf("expected FunctionCallResult, got %T", contents[0])
				}
				if fcr.Name != "mock_query" || fcr.ID != "call-1" {
					t.Errorf("unexpected function call result: %+v", fcr)
				}
				return textResponse("There is 1 row."), nil
			}),
	)

	c := newTestConversation(t, chat, toolset)

	result, err := c.Handle(context.Background(), "how many rows?")
	if err != nil {
		t.Fatalf("Handle() returned error: %v", err)
	}
	if result.Failed() {
		t.Fatalf("Handle() returned failure: %s", result.Error)
	}
	if result.Text != "There is 1 row." {
		t.Errorf("unexpected answer %q", result.Text)
	}
}

func TestHandleToolErrorIsFedBackToModel(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	toolset := tools.NewTools()

	mt := mocks.NewMockTool(ctrl)
	mt.EXPECT().Name().Return("mock_query").AnyTimes()
	mt.EXPECT().FunctionDefinition().Return(&gollm.FunctionDefinition{
		Name: "mock_query",
	}).AnyTimes()
	mt.EXPECT().Run(gomock.Any(), gomock.Any()).
		Return(nil, &tools.ValidationError{Tool: "mock_query", Reason: "missing query"}).Times(1)
	toolset.RegisterTool(mt)

	chat := mocks.NewMockChat(ctrl)
	chat.EXPECT().SetFunctionDefinitions(gomock.Any()).Return(nil).Times(1)

	gomock.InOrder(
		chat.EXPECT().Send(gomock.Any(), gomock.Any()).
			Return(functionCallResponse(gollm.FunctionCall{
				ID:   "call-1",
				Name: "mock_query",
			}), nil),
		chat.EXPECT().Send(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, contents ...any) (gollm.ChatResponse, error) {
				fcr := contents[0].(gollm.FunctionCallResult)
				if _, ok := fcr.Result["error"]; !ok {
					t.Errorf("expected error entry in function call result, got: %+v", fcr.Result)
				}
				return textResponse("I could not run the query."), nil
			}),
	)

	c := newTestConversation(t, chat, toolset)

	result, err := c.Handle(context.Background(), "bad request")
	if err != nil {
		t.Fatalf("Handle() returned error: %v", err)
	}
	if result.Failed() {
		t.Fatalf("tool errors should not fail the round, got: %s", result.Error)
	}
}

func TestHandleMaxIterations(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	toolset := tools.NewTools()

	mt := mocks.NewMockTool(ctrl)
	mt.EXPECT().Name().Return("mock_query").AnyTimes()
	mt.EXPECT().FunctionDefinition().Return(&gollm.FunctionDefinition{
		Name: "mock_query",
	}).AnyTimes()
	mt.EXPECT().Run(gomock.Any(), gomock.Any()).Return("ok", nil).AnyTimes()
	toolset.RegisterTool(mt)

	chat := mocks.NewMockChat(ctrl)
	chat.EXPECT().SetFunctionDefinitions(gomock.Any()).Return(nil).Times(1)
	// The model never stops asking for tools.
	chat.EXPECT().Send(gomock.Any(), gomock.Any()).
		Return(functionCallResponse(gollm.FunctionCall{Name: "mock_query"}), nil).
		AnyTimes()

	c := newTestConversation(t, chat, toolset)
	c.MaxIterations = 3

	result, err := c.Handle(context.Background(), "loop forever")
	if err != nil {
		t.Fatalf("Handle() returned error: %v", err)
	}
	if !result.Failed() {
		t.Fatalf("expected failure after hitting the iteration limit, got: %+v", result)
	}
}

func TestCloseLeavesClientOpen(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	chat := mocks.NewMockChat(ctrl)

	// The client mock has no Close expectation: the constructor caller
	// owns the client, so Conversation.Close must not touch it. gomock
	// fails the test on an unexpected Close call.
	c := newTestConversation(t, chat, tools.NewTools())

	if err := c.Close(); err != nil {
		t.Fatalf("Close() returned error: %v", err)
	}
}

func TestHandleRecordsMessages(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	chat := mocks.NewMockChat(ctrl)
	chat.EXPECT().Send(gomock.Any(), gomock.Any()).Return(textResponse("done"), nil).Times(1)

	c := newTestConversation(t, chat, tools.NewTools())

	if _, err := c.Handle(context.Background(), "record me"); err != nil {
		t.Fatalf("Handle() returned error: %v", err)
	}

	messages := c.ChatStore.ChatMessages()
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages (user + model), got %d", len(messages))
	}
	if messages[0].Source != api.MessageSourceUser {
		t.Errorf("first message should be from the user, got %q", messages[0].Source)
	}
	if messages[1].Source != api.MessageSourceModel {
		t.Errorf("second message should be from the model, got %q", messages[1].Source)
	}
}
