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

package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/glamour"
	"github.com/chzyer/readline"
	"k8s.io/klog/v2"
)

type TerminalUI struct {
	markdownRenderer *glamour.TermRenderer

	// rlInstance is initialized lazily on the first ReadInput
	rlInstance *readline.Instance
}

var _ UI = &TerminalUI{}

func getCustomTerminalWidth() int {
	// Check for user-configured width via environment variable
	if widthStr := os.Getenv("SQL_AGENT_TERM_WIDTH"); widthStr != "" {
		if width, err := strconv.Atoi(widthStr); err == nil && width > 0 {
			return width
		}
		klog.Warningf("Invalid SQL_AGENT_TERM_WIDTH value %q, using default", widthStr)
	}

	// Return 0 to indicate no custom width should be set (use glamour's default)
	return 0
}

func NewTerminalUI() (*TerminalUI, error) {
	width := getCustomTerminalWidth()

	options := []glamour.TermRendererOption{
		glamour.WithAutoStyle(),
		glamour.WithPreservedNewLines(),
		glamour.WithEmoji(),
	}

	// Only add WordWrap if a valid width is configured
	if width > 0 {
		options = append(options, glamour.WithWordWrap(width))
	}

	mdRenderer, err := glamour.NewTermRenderer(options...)
	if err != nil {
		return nil, fmt.Errorf("error initializing the markdown renderer: %w", err)
	}

	return &TerminalUI{
		markdownRenderer: mdRenderer,
	}, nil
}

func (u *TerminalUI) readlineInstance() (*readline.Instance, error) {
	if u.rlInstance != nil {
		return u.rlInstance, nil
	}
	historyPath := filepath.Join(os.TempDir(), "sql-agent-history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      ">>> ",
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		HistoryFile: historyPath,
		// History enabled by default
	})
	if err != nil {
		return nil, fmt.Errorf("creating readline instance: %w", err)
	}
	u.rlInstance = rl
	return u.rlInstance, nil
}

func (u *TerminalUI) ReadInput() (string, error) {
	rl, err := u.readlineInstance()
	if err != nil {
		return "", err
	}
	line, err := rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) { // Ctrl+C
			return "", io.EOF
		}
		return "", err // includes io.EOF for Ctrl+D
	}
	return line, nil
}

func (u *TerminalUI) RenderOutput(text string) {
	out, err := u.markdownRenderer.Render(text)
	if err != nil {
		klog.Errorf("Error rendering markdown: %v", err)
		fmt.Println(text)
		return
	}
	fmt.Print(out)
}

func (u *TerminalUI) RenderError(text string) {
	fmt.Printf("\033[31m%s\033[0m\n", text)
}

func (u *TerminalUI) Close() error {
	if u.rlInstance != nil {
		return u.rlInstance.Close()
	}
	return nil
}
