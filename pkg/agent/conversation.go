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
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/salmasaleem01/SQL-Agent/gollm"
	"github.com/salmasaleem01/SQL-Agent/pkg/api"
	"github.com/salmasaleem01/SQL-Agent/pkg/journal"
	"github.com/salmasaleem01/SQL-Agent/pkg/tools"
)

//go:embed systemprompt_template_default.txt
var defaultSystemPromptTemplate string

// Conversation is the Backend implementation: a chat session with an
// LLM plus the tools it may call.
type Conversation struct {
	LLM gollm.Client

	// PromptTemplateFile allows specifying a custom template file
	PromptTemplateFile string
	Model              string

	MaxIterations int

	Tools *tools.Tools

	// Recorder captures events for diagnostics
	Recorder journal.Recorder

	// ChatStore keeps the session's message history
	ChatStore api.ChatMessageStore

	llmChat gollm.Chat
}

var _ Backend = &Conversation{}

func (c *Conversation) Init(ctx context.Context) error {
	systemPrompt, err := c.generatePrompt(ctx, defaultSystemPromptTemplate, PromptData{
		Tools: c.Tools,
	})
	if err != nil {
		return fmt.Errorf("generating system prompt: %w", err)
	}

	// Start a new chat session
	c.llmChat = gollm.NewRetryChat(
		c.LLM.StartChat(systemPrompt, c.Model),
		gollm.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: 10 * time.Second,
			MaxBackoff:     60 * time.Second,
			BackoffFactor:  2,
			Jitter:         true,
		},
	)

	// A session with no tools is valid; we just don't advertise any
	// function definitions to the model.
	if c.Tools.Len() > 0 {
		var functionDefinitions []*gollm.FunctionDefinition
		for _, tool := range c.Tools.AllTools() {
			functionDefinitions = append(functionDefinitions, tool.FunctionDefinition())
		}
		// Sort function definitions to help KV cache reuse
		sort.Slice(functionDefinitions, func(i, j int) bool {
			return functionDefinitions[i].Name < functionDefinitions[j].Name
		})
		if err := c.llmChat.SetFunctionDefinitions(functionDefinitions); err != nil {
			return fmt.Errorf("setting function definitions: %w", err)
		}
	}

	return nil
}

// Close releases the conversation's resources. The LLM client is owned
// by whoever constructed it and is closed there, not here.
func (c *Conversation) Close() error {
	return nil
}

// Handle executes a chat-based agentic loop with the LLM using function calling.
func (c *Conversation) Handle(ctx context.Context, query string) (*api.Result, error) {
	log := klog.FromContext(ctx)
	log.Info("Starting chat loop for query:", "query", query)

	ctx = journal.ContextWithRecorder(ctx, c.Recorder)

	c.recordMessage(api.MessageSourceUser, api.MessageTypeText, query)

	// currChatContent tracks chat content that needs to be sent
	// to the LLM in each iteration of the agentic loop below
	currChatContent := []any{query}

	var answer strings.Builder

	for currentIteration := 0; currentIteration < c.MaxIterations; currentIteration++ {
		log.Info("Starting iteration", "iteration", currentIteration)

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c.Recorder.Write(ctx, &journal.Event{
			Timestamp: time.Now(),
			Action:    journal.ActionLLMChat,
			Payload:   []any{currChatContent},
		})

		response, err := c.llmChat.Send(ctx, currChatContent...)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			log.Error(err, "LLM request failed")
			return c.fail(fmt.Sprintf("error sending request to the model: %v", err)), nil
		}

		// Clear our "response" now that we sent the last response
		currChatContent = nil

		c.Recorder.Write(ctx, &journal.Event{
			Timestamp: time.Now(),
			Action:    journal.ActionLLMResponse,
			Payload:   response,
		})

		if len(response.Candidates()) == 0 {
			return c.fail("no candidates in model response"), nil
		}

		candidate := response.Candidates()[0]

		var functionCalls []gollm.FunctionCall
		for _, part := range candidate.Parts() {
			if text, ok := part.AsText(); ok {
				log.Info("text response", "text", text)
				answer.WriteString(text)
			}
			if calls, ok := part.AsFunctionCalls(); ok && len(calls) > 0 {
				log.Info("function calls", "calls", calls)
				functionCalls = append(functionCalls, calls...)
			}
		}

		// If no function calls were made, the model has answered.
		if len(functionCalls) == 0 {
			text := answer.String()
			c.recordMessage(api.MessageSourceModel, api.MessageTypeText, text)
			return &api.Result{
				Text:   text,
				Status: api.ResultStatusSuccess,
			}, nil
		}

		// The model is still working; any text so far was narration,
		// not the answer.
		answer.Reset()

		for _, call := range functionCalls {
			c.recordMessage(api.MessageSourceModel, api.MessageTypeToolCallRequest, call)

			output, err := c.Tools.InvokeTool(ctx, call.Name, call.Arguments)

			result := map[string]any{}
			if err != nil {
				// Tool failures (including argument validation) go back
				// to the model as an observation; the model can adjust
				// and retry within the same round.
				log.Info("tool invocation failed", "tool", call.Name, "error", err)
				result["error"] = err.Error()
			} else {
				result["output"] = output
			}

			c.recordMessage(api.MessageSourceAgent, api.MessageTypeToolCallResponse, result)

			currChatContent = append(currChatContent, gollm.FunctionCallResult{
				ID:     call.ID,
				Name:   call.Name,
				Result: result,
			})
		}
	}

	log.Info("Max iterations reached", "iterations", c.MaxIterations)
	return c.fail(fmt.Sprintf("could not complete the task after %d iterations", c.MaxIterations)), nil
}

func (c *Conversation) fail(message string) *api.Result {
	c.recordMessage(api.MessageSourceAgent, api.MessageTypeError, message)
	return &api.Result{
		Status: api.ResultStatusFailure,
		Error:  message,
	}
}

func (c *Conversation) recordMessage(source api.MessageSource, messageType api.MessageType, payload any) {
	if c.ChatStore == nil {
		return
	}
	if err := c.ChatStore.AddChatMessage(&api.Message{
		ID:        uuid.NewString(),
		Source:    source,
		Type:      messageType,
		Payload:   payload,
		Timestamp: time.Now(),
	}); err != nil {
		klog.Warningf("error recording chat message: %v", err)
	}
}

// generatePrompt generates a prompt for LLM. It uses the prompt from the provided template file or default.
func (c *Conversation) generatePrompt(_ context.Context, defaultPromptTemplate string, data PromptData) (string, error) {
	promptTemplate := defaultPromptTemplate
	if c.PromptTemplateFile != "" {
		content, err := os.ReadFile(c.PromptTemplateFile)
		if err != nil {
			return "", fmt.Errorf("error reading template file: %v", err)
		}
		promptTemplate = string(content)
	}

	tmpl, err := template.New("promptTemplate").Parse(promptTemplate)
	if err != nil {
		return "", fmt.Errorf("building template for prompt: %w", err)
	}

	var result strings.Builder
	err = tmpl.Execute(&result, &data)
	if err != nil {
		return "", fmt.Errorf("evaluating template for prompt: %w", err)
	}
	return result.String(), nil
}

// PromptData represents the structure of the data to be filled into the template.
type PromptData struct {
	Tools *tools.Tools
}

func (a *PromptData) ToolsAsJSON() string {
	var toolDefinitions []*gollm.FunctionDefinition

	for _, tool := range a.Tools.AllTools() {
		toolDefinitions = append(toolDefinitions, tool.FunctionDefinition())
	}

	json, err := json.MarshalIndent(toolDefinitions, "", "  ")
	if err != nil {
		return ""
	}
	return string(json)
}

func (a *PromptData) ToolNames() string {
	return strings.Join(a.Tools.Names(), ", ")
}

func (a *PromptData) HasTools() bool {
	return a.Tools.Len() > 0
}
