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
	"io"
)

// UI is the interactive surface of the agent: it reads operator input
// and renders the agent's output.
type UI interface {
	io.Closer

	// ReadInput reads one line of input. It returns io.EOF when the
	// operator closes the input stream (Ctrl+D) or interrupts (Ctrl+C).
	ReadInput() (string, error)

	// RenderOutput prints an answer, rendering markdown when the
	// terminal supports it.
	RenderOutput(text string)

	// RenderError prints an error message, visually distinct from answers.
	RenderError(text string)
}
