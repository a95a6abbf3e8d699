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
	"crypto/tls"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"sync"
	"time"

	"k8s.io/klog/v2"
)

var globalRegistry registry

type registry struct {
	mutex     sync.Mutex
	providers map[string]FactoryFunc
}

// ClientOptions carries the configuration a provider needs to build a client.
// Credentials are resolved by the caller once at startup and injected here,
// rather than read from the process environment at import time.
type ClientOptions struct {
	// APIKey is the credential for the hosted provider. Providers that
	// require a key fail fast at construction when it is empty.
	APIKey string

	// BaseURL overrides the provider's default endpoint, for
	// OpenAI-compatible gateways and local servers.
	BaseURL string

	// Temperature is applied to chats started from the client.
	// nil leaves the provider default in place.
	Temperature *float32

	// SkipVerifySSL disables TLS certificate verification on the
	// provider's HTTP transport.
	SkipVerifySSL bool
}

type FactoryFunc func(ctx context.Context, opts ClientOptions) (Client, error)

func RegisterProvider(id string, factoryFunc FactoryFunc) error {
	return globalRegistry.RegisterProvider(id, factoryFunc)
}

func (r *registry) RegisterProvider(id string, factoryFunc FactoryFunc) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.providers == nil {
		r.providers = make(map[string]FactoryFunc)
	}
	_, exists := r.providers[id]
	if exists {
		return fmt.Errorf("provider %q is already registered", id)
	}
	r.providers[id] = factoryFunc
	return nil
}

func (r *registry) NewClient(ctx context.Context, providerID string, opts ClientOptions) (Client, error) {
	r.mutex.Lock()
	factoryFunc := r.providers[providerID]
	r.mutex.Unlock()

	if factoryFunc == nil {
		return nil, fmt.Errorf("provider %q not registered", providerID)
	}
	return factoryFunc(ctx, opts)
}

// NewClient builds a Client for the given provider ID ("gemini", "openai", "ollama").
func NewClient(ctx context.Context, providerID string, opts ClientOptions) (Client, error) {
	if providerID == "" {
		return nil, fmt.Errorf("no LLM provider specified")
	}
	return globalRegistry.NewClient(ctx, providerID, opts)
}

// createCustomHTTPClient builds the HTTP client shared by providers,
// honoring the SkipVerifySSL option.
func createCustomHTTPClient(skipVerifySSL bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if skipVerifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{Transport: transport}
}

// APIError represents an error returned by the LLM client.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("API Error: Status=%d, Message='%s', OriginalErr=%v", e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("API Error: Status=%d, Message='%s'", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsRetryableFunc defines the signature for functions that check if an error is retryable.
type IsRetryableFunc func(error) bool

// DefaultIsRetryableError provides a default implementation based on common HTTP codes and network errors.
func DefaultIsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusConflict, http.StatusTooManyRequests,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

// RetryConfig holds the configuration for the retry mechanism.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	Jitter         bool
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: 2 * time.Second,
	MaxBackoff:     30 * time.Second,
	BackoffFactor:  2.0,
	Jitter:         true,
}

// Retry executes the provided operation with retries, returning the result and error.
// It is generic to handle any return type T.
func Retry[T any](
	ctx context.Context,
	config RetryConfig,
	isRetryable IsRetryableFunc,
	operation func(ctx context.Context) (T, error),
) (T, error) {
	var lastErr error
	var zero T

	log := klog.FromContext(ctx)

	backoff := config.InitialBackoff

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		result, err := operation(ctx)

		if err == nil {
			return result, nil
		}
		lastErr = err

		// Check if context was cancelled *after* the operation
		select {
		case <-ctx.Done():
			log.Info("Context cancelled after attempt failed", "attempt", attempt)
			return zero, ctx.Err()
		default:
		}

		if !isRetryable(lastErr) {
			log.Info("Attempt failed with non-retryable error", "attempt", attempt, "error", lastErr)
			return zero, lastErr
		}

		log.Info("Attempt failed with retryable error", "attempt", attempt, "error", lastErr)

		if attempt == config.MaxAttempts {
			break
		}

		waitTime := backoff
		if config.Jitter {
			waitTime += time.Duration(rand.Float64() * float64(backoff) / 2)
		}

		log.Info("Waiting before next attempt", "waitTime", waitTime, "attempt", attempt+1, "maxAttempts", config.MaxAttempts)

		select {
		case <-time.After(waitTime):
		case <-ctx.Done():
			log.Info("Context cancelled while waiting for retry", "attempt", attempt)
			return zero, ctx.Err()
		}

		backoff = time.Duration(float64(backoff) * config.BackoffFactor)
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	errFinal := fmt.Errorf("operation failed after %d attempts: %w", config.MaxAttempts, lastErr)
	return zero, errFinal
}

// retryChat is a generic decorator that adds retry logic to any Chat implementation.
type retryChat[C Chat] struct {
	underlying Chat
	config     RetryConfig
}

// NewRetryChat creates a new Chat that wraps the given underlying chat
// with retry logic using the provided configuration.
// It returns the Chat interface type, hiding the generic implementation detail.
func NewRetryChat[C Chat](
	underlying C,
	config RetryConfig,
) Chat {
	return &retryChat[C]{
		underlying: underlying,
		config:     config,
	}
}

func (rc *retryChat[C]) Send(ctx context.Context, contents ...any) (ChatResponse, error) {
	operation := func(ctx context.Context) (ChatResponse, error) {
		return rc.underlying.Send(ctx, contents...)
	}
	return Retry[ChatResponse](ctx, rc.config, rc.underlying.IsRetryableError, operation)
}

func (rc *retryChat[C]) SetFunctionDefinitions(functionDefinitions []*FunctionDefinition) error {
	return rc.underlying.SetFunctionDefinitions(functionDefinitions)
}

func (rc *retryChat[C]) IsRetryableError(err error) bool {
	return rc.underlying.IsRetryableError(err)
}
