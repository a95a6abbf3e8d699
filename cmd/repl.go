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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/salmasaleem01/SQL-Agent/pkg/agent"
	"github.com/salmasaleem01/SQL-Agent/pkg/ui"
)

// isExitKeyword reports whether the input asks to end the session.
func isExitKeyword(input string) bool {
	switch strings.ToLower(input) {
	case "quit", "exit", "q":
		return true
	}
	return false
}

// repl is a read-eval-print loop for the chat session. It runs until
// the operator types an exit keyword or closes the input stream.
// A failed request prints its error and the loop continues.
func repl(ctx context.Context, initialQuery string, userInterface ui.UI, backend agent.Backend) error {
	query := initialQuery

	for {
		if query == "" {
			input, err := userInterface.ReadInput()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return fmt.Errorf("reading input: %w", err)
			}

			input = strings.TrimSpace(input)
			if input == "" {
				// Nothing to do; prompt again without bothering the model.
				continue
			}
			if isExitKeyword(input) {
				return nil
			}
			query = input
		}

		result, err := backend.Handle(ctx, query)
		query = ""
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("handling request: %w", err)
		}

		if result.Failed() {
			userInterface.RenderError(result.Error)
			continue
		}
		userInterface.RenderOutput(result.Text)
	}
}

// runOnce handles a single query without the interactive loop. The
// answer goes to stdout; a failure goes to stderr and the process
// exits non-zero.
func runOnce(ctx context.Context, query string, backend agent.Backend) error {
	result, err := backend.Handle(ctx, query)
	if err != nil {
		return fmt.Errorf("handling request: %w", err)
	}
	if result.Failed() {
		return errors.New(result.Error)
	}
	fmt.Println(result.Text)
	return nil
}

func hasStdInData() (bool, error) {
	hasData := false

	stat, err := os.Stdin.Stat()
	if err != nil {
		return hasData, fmt.Errorf("checking stdin: %w", err)
	}
	hasData = (stat.Mode() & os.ModeCharDevice) == 0

	return hasData, nil
}

// resolveQueryInput determines the query input from positional args and/or stdin.
// It supports:
// - 1 positional arg only -> sql-agent "how many users signed up last week"
// - stdin only -> echo "how many users" | sql-agent
// - 1 positional arg + stdin (combined) -> sql-agent "summarize" <<< "the orders table"
// As default no positional arg nor stdin
func resolveQueryInput(hasStdInData bool, args []string) (string, error) {
	switch {
	case len(args) == 1 && !hasStdInData:
		// Use argument directly
		return args[0], nil

	case len(args) == 1 && hasStdInData:
		// Combine arg + stdin
		var b strings.Builder
		b.WriteString(args[0])
		b.WriteString("\n")

		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			b.WriteString(scanner.Text())
			b.WriteString("\n")
		}
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		query := strings.TrimSpace(b.String())
		if query == "" {
			return "", fmt.Errorf("no query provided from stdin")
		}
		return query, nil

	case len(args) == 0 && hasStdInData:
		// Read stdin only
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		query := strings.TrimSpace(string(b))
		if query == "" {
			return "", fmt.Errorf("no query provided from stdin")
		}
		return query, nil

	default:
		// No input at all; start the interactive loop with an empty query.
		return "", nil
	}
}
