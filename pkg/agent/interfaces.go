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
	"io"

	"github.com/salmasaleem01/SQL-Agent/pkg/api"
)

// Backend handles one request at a time on behalf of the interactive
// loop. Exactly one Result comes back per request; a failed request
// yields a failure Result, never a crash, and the session stays usable.
type Backend interface {
	// Close should be called to free up resources
	io.Closer

	// Handle sends the query to the LLM, cycling through any tool calls
	// the model requests, until the model produces a final answer.
	// The returned error is reserved for context cancellation; every
	// per-request failure is reported through the Result.
	Handle(ctx context.Context, query string) (*api.Result, error)
}
