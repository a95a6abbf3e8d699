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

package gollm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestDefaultIsRetryableError(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "rate limited",
			err:      &APIError{StatusCode: http.StatusTooManyRequests, Message: "slow down"},
			expected: true,
		},
		{
			name:     "server error",
			err:      &APIError{StatusCode: http.StatusServiceUnavailable, Message: "overloaded"},
			expected: true,
		},
		{
			name:     "auth error",
			err:      &APIError{StatusCode: http.StatusUnauthorized, Message: "bad key"},
			expected: false,
		},
		{
			name:     "wrapped api error",
			err:      fmt.Errorf("sending request: %w", &APIError{StatusCode: http.StatusBadGateway}),
			expected: true,
		},
		{
			name:     "plain error",
			err:      errors.New("boom"),
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DefaultIsRetryableError(tc.err); got != tc.expected {
				t.Errorf("DefaultIsRetryableError(%v) = %v, want %v", tc.err, got, tc.expected)
			}
		})
	}
}

func TestRetrySucceedsAfterTransientFailure(t *testing.T) {
	ctx := context.Background()
	config := RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2.0,
	}

	attempts := 0
	result, err := Retry[string](ctx, config, DefaultIsRetryableError, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", &APIError{StatusCode: http.StatusServiceUnavailable}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %q, want %q", result, "ok")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	ctx := context.Background()
	config := RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2.0,
	}

	authErr := &APIError{StatusCode: http.StatusUnauthorized, Message: "bad key"}

	attempts := 0
	_, err := Retry[string](ctx, config, DefaultIsRetryableError, func(ctx context.Context) (string, error) {
		attempts++
		return "", authErr
	})
	if !errors.Is(err, authErr) {
		t.Fatalf("error = %v, want %v", err, authErr)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (non-retryable errors must not be retried)", attempts)
	}
}

func TestRegisterProviderRejectsDuplicates(t *testing.T) {
	var r registry

	factory := func(ctx context.Context, opts ClientOptions) (Client, error) {
		return nil, nil
	}

	if err := r.RegisterProvider("test-provider", factory); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := r.RegisterProvider("test-provider", factory); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestNewClientUnknownProvider(t *testing.T) {
	var r registry
	if _, err := r.NewClient(context.Background(), "no-such-provider", ClientOptions{}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
